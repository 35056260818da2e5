// Package schema 管理 final_results 的动态追加列：
// 从 CSV 表头发现列、校验列名、推断存储类型、扩展表结构并生成列元数据。
package schema

import (
	"context"
	"fmt"
	"regexp"

	"gorm.io/gorm"
)

// ResultsTable 追加列所在的表
const ResultsTable = "final_results"

// 存储类型
const (
	TypeInteger = "INTEGER"
	TypeReal    = "REAL"
	TypeText    = "TEXT"
)

// 第一轮分组列必须紧挨在第一轮出场顺之前（它是出场顺之前的排序键）
const (
	FirstGroupColumn = "first_group"
	FirstOrderColumn = "first_order"
)

// BaseColumns final_results.csv 中不属于追加列的固定表头
var BaseColumns = map[string]struct{}{
	"comp":            {},
	"year":            {},
	"comedian_name":   {},
	"comedian_note":   {},
	"comedian_number": {},
	"rank":            {},
	"rank_sort":       {},
}

var (
	reSafeName = regexp.MustCompile(`^[a-z0-9_]+$`)
	reInt      = regexp.MustCompile(`^-?\d+$`)
	reNum      = regexp.MustCompile(`^-?\d+(\.\d+)?$`)
)

// InvalidColumnError 列名不符合 ^[a-z0-9_]+$。列名会进入 SQL 标识符，属于致命错误。
type InvalidColumnError struct {
	Name string
}

func (e *InvalidColumnError) Error() string {
	return fmt.Sprintf("列名不合法: %q（只允许小写英文字母、数字、_）", e.Name)
}

// ValidName 列名是否可以安全地作为标识符
func ValidName(name string) bool {
	return reSafeName.MatchString(name)
}

// Column 一个追加列
type Column struct {
	Name    string
	Type    string
	Carried bool // 表头里已没有，但旧库中存在而被保留
}

// ExtraColumns 表头中除固定列以外的列（保持表头顺序）
func ExtraColumns(header []string) ([]string, error) {
	var out []string
	seen := make(map[string]struct{}, len(header))
	for _, h := range header {
		if _, ok := BaseColumns[h]; ok {
			continue
		}
		if !ValidName(h) || isModelColumn(h) {
			return nil, &InvalidColumnError{Name: h}
		}
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}
	return out, nil
}

// InferType 对非空样本推断类型：全是整数 → INTEGER，全是数值 → REAL，否则 TEXT
func InferType(values []string) string {
	if len(values) == 0 {
		return TypeText
	}
	allInt, allNum := true, true
	for _, v := range values {
		if !reInt.MatchString(v) {
			allInt = false
		}
		if !reNum.MatchString(v) {
			allNum = false
		}
	}
	switch {
	case allInt:
		return TypeInteger
	case allNum:
		return TypeReal
	default:
		return TypeText
	}
}

// Plan 生成最终列计划。
// samples 返回某列的全部非空值；previous 为已发布库中的列（列集合只增不减）。
func Plan(header []string, samples func(col string) []string, previous []Column) ([]Column, error) {
	names, err := ExtraColumns(header)
	if err != nil {
		return nil, err
	}
	names = pinFirstGroup(names)

	cols := make([]Column, 0, len(names)+len(previous))
	inHeader := make(map[string]struct{}, len(names))
	for _, n := range names {
		inHeader[n] = struct{}{}
		cols = append(cols, Column{Name: n, Type: InferType(samples(n))})
	}
	for _, p := range previous {
		if _, ok := inHeader[p.Name]; ok {
			continue
		}
		if !ValidName(p.Name) {
			return nil, &InvalidColumnError{Name: p.Name}
		}
		cols = append(cols, Column{Name: p.Name, Type: p.Type, Carried: true})
	}
	return cols, nil
}

func pinFirstGroup(names []string) []string {
	gi, oi := -1, -1
	for i, n := range names {
		switch n {
		case FirstGroupColumn:
			gi = i
		case FirstOrderColumn:
			oi = i
		}
	}
	if gi < 0 || oi < 0 || gi == oi-1 {
		return names
	}
	out := make([]string, 0, len(names))
	for _, n := range names {
		switch n {
		case FirstGroupColumn:
			continue
		case FirstOrderColumn:
			out = append(out, FirstGroupColumn, n)
		default:
			out = append(out, n)
		}
	}
	return out
}

// ExistingColumns 读取 final_results 当前的追加列（PRAGMA table_info 顺序）
func ExistingColumns(ctx context.Context, db *gorm.DB) ([]Column, error) {
	var info []struct {
		Name string `gorm:"column:name"`
		Type string `gorm:"column:type"`
	}
	if err := db.WithContext(ctx).Raw("SELECT name, type FROM pragma_table_info(?)", ResultsTable).Scan(&info).Error; err != nil {
		return nil, fmt.Errorf("读取%s表结构失败: %w", ResultsTable, err)
	}
	var out []Column
	for _, c := range info {
		if isModelColumn(c.Name) {
			continue
		}
		out = append(out, Column{Name: c.Name, Type: c.Type})
	}
	return out, nil
}

// Apply 为计划中尚不存在的列执行 ALTER TABLE ADD COLUMN。已存在的列保留原类型。
func Apply(ctx context.Context, db *gorm.DB, cols []Column) ([]Column, error) {
	existing, err := ExistingColumns(ctx, db)
	if err != nil {
		return nil, err
	}
	have := make(map[string]string, len(existing))
	for _, c := range existing {
		have[c.Name] = c.Type
	}
	var added []Column
	for _, c := range cols {
		if _, ok := have[c.Name]; ok {
			continue
		}
		stmt, err := AddColumnSQL(c)
		if err != nil {
			return nil, err
		}
		if err := db.WithContext(ctx).Exec(stmt).Error; err != nil {
			return nil, fmt.Errorf("追加列%s失败: %w", c.Name, err)
		}
		added = append(added, c)
	}
	return added, nil
}

func isModelColumn(name string) bool {
	switch name {
	case "id", "edition_id", "comedian_id", "rank", "rank_sort":
		return true
	}
	return false
}
