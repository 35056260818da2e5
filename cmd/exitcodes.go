package main

import (
	"encoding/csv"
	"errors"

	"OwaraiArchive/internal/schema"
	"OwaraiArchive/internal/service"
)

type cliError struct {
	code int
	err  error
}

func (e *cliError) Error() string {
	return e.err.Error()
}

func (e *cliError) Unwrap() error {
	return e.err
}

const (
	exitOK         = 0
	exitValidation = 2
	exitUsage      = 3
	exitDB         = 4
)

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &cliError{code: code, err: err}
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ce *cliError
	if errors.As(err, &ce) {
		return ce.code
	}
	return 1
}

// importExitCode 导入失败的分类：输入数据问题为 validation，其余（SQLite、文件系统）为 db
func importExitCode(err error) int {
	var (
		kind   *service.KindConflictError
		column *schema.InvalidColumnError
		parse  *csv.ParseError
	)
	switch {
	case errors.Is(err, service.ErrCompetitionNotFound),
		errors.Is(err, service.ErrEditionNotFound),
		errors.Is(err, service.ErrComedianNotFound),
		errors.Is(err, service.ErrCanonicalCycle),
		errors.Is(err, service.ErrInvalidValue),
		errors.As(err, &kind),
		errors.As(err, &column),
		errors.As(err, &parse):
		return exitValidation
	}
	return exitDB
}
