package service

import (
	"fmt"
	"io"
	"strings"

	"OwaraiArchive/internal/interfaces"
)

// TableStats 单表统计。Created 为导入前后该表行数之差。
type TableStats struct {
	Processed int `json:"processed"`
	Created   int `json:"created"`
	Skipped   int `json:"skipped"`
}

// Summary 一次导入的结果
type Summary struct {
	RunID   string                 `json:"run_id"`
	Mode    string                 `json:"mode"`
	Tables  map[string]*TableStats `json:"tables"`
	Columns []string               `json:"columns"` // final_results 的全部追加列
	Carried []string               `json:"carried"` // 表头中已消失但保留的列
	Skipped bool                   `json:"skipped"` // --no-reset：未做任何事
}

func newSummary(runID, mode string) *Summary {
	s := &Summary{RunID: runID, Mode: mode, Tables: make(map[string]*TableStats)}
	for _, f := range interfaces.SeedFiles() {
		s.Tables[f] = &TableStats{}
	}
	return s
}

func (s *Summary) table(name string) *TableStats {
	t, ok := s.Tables[name]
	if !ok {
		t = &TableStats{}
		s.Tables[name] = t
	}
	return t
}

// Print 按导入顺序输出
func (s *Summary) Print(w io.Writer) {
	if s.Skipped {
		fmt.Fprintln(w, "skip: --no-reset")
		return
	}
	fmt.Fprintf(w, "run %s (%s)\n", s.RunID, s.Mode)
	for _, f := range interfaces.SeedFiles() {
		t := s.Tables[f]
		if t == nil {
			continue
		}
		fmt.Fprintf(w, "  %-20s processed=%d created=%d skipped=%d\n", f, t.Processed, t.Created, t.Skipped)
	}
	fmt.Fprintf(w, "  columns: %s\n", strings.Join(s.Columns, ", "))
	if len(s.Carried) > 0 {
		fmt.Fprintf(w, "  carried: %s\n", strings.Join(s.Carried, ", "))
	}
}
