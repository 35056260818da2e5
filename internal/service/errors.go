package service

import (
	"errors"
	"fmt"
)

var (
	ErrCompetitionNotFound = errors.New("大会不存在")
	ErrEditionNotFound     = errors.New("回不存在")
	ErrComedianNotFound    = errors.New("艺人不存在")
	ErrCanonicalCycle      = errors.New("canonical 链路成环")
	ErrInvalidValue        = errors.New("值格式错误")
)

// RowError 致命错误发生的表和 CSV 行号
type RowError struct {
	Table string
	Line  int
	Err   error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s line %d: %v", e.Table, e.Line, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// KindConflictError 组合/个人类别与已登记的不一致
type KindConflictError struct {
	ComedianID string
	Name       string
	Existing   string
	Wanted     string
}

func (e *KindConflictError) Error() string {
	return fmt.Sprintf("艺人类别冲突: %s(%s) 已登记为 %s，但这里需要 %s", e.Name, e.ComedianID, e.Existing, e.Wanted)
}

func rowErr(table string, line int, err error) error {
	return &RowError{Table: table, Line: line, Err: err}
}
