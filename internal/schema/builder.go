package schema

import (
	"fmt"
	"strings"
)

// 动态标识符只允许从这里进入 SQL：每个名字都会再次按白名单正则校验后加双引号。

// Ident 校验并引用一个列名
func Ident(name string) (string, error) {
	if !ValidName(name) {
		return "", &InvalidColumnError{Name: name}
	}
	return `"` + name + `"`, nil
}

func idents(names []string) ([]string, error) {
	out := make([]string, len(names))
	for i, n := range names {
		q, err := Ident(n)
		if err != nil {
			return nil, err
		}
		out[i] = q
	}
	return out, nil
}

// AddColumnSQL ALTER TABLE final_results ADD COLUMN "x" TYPE
func AddColumnSQL(c Column) (string, error) {
	q, err := Ident(c.Name)
	if err != nil {
		return "", err
	}
	switch c.Type {
	case TypeInteger, TypeReal, TypeText:
	default:
		return "", fmt.Errorf("列%s的类型不支持: %s", c.Name, c.Type)
	}
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", ResultsTable, q, c.Type), nil
}

// UpsertResultSQL 插入一行成绩；(edition_id, comedian_id) 冲突时名次与全部追加列以新值为准
func UpsertResultSQL(extra []string) (string, error) {
	q, err := idents(extra)
	if err != nil {
		return "", err
	}
	cols := append([]string{"edition_id", "comedian_id", "rank", "rank_sort"}, q...)
	sets := []string{"rank=excluded.rank", "rank_sort=excluded.rank_sort"}
	for _, c := range q {
		sets = append(sets, c+"=excluded."+c)
	}
	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT(edition_id, comedian_id) DO UPDATE SET %s",
		ResultsTable,
		strings.Join(cols, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", "),
		strings.Join(sets, ", "),
	), nil
}

// SelectExtrasSQL 选出指定追加列（别名同名），用于拼接到读模型查询
func SelectExtrasSQL(alias string, extra []string) (string, error) {
	q, err := idents(extra)
	if err != nil {
		return "", err
	}
	parts := make([]string, len(q))
	for i, c := range q {
		parts[i] = alias + "." + c + " AS " + c
	}
	return strings.Join(parts, ", "), nil
}

// UsedColumnSQL 把某列在各回是否有非空值写入 edition_used_columns
func UsedColumnSQL(col string) (string, error) {
	q, err := Ident(col)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(
		"INSERT INTO edition_used_columns (edition_id, col_key) "+
			"SELECT DISTINCT edition_id, ? FROM %s "+
			"WHERE %s IS NOT NULL AND TRIM(CAST(%s AS TEXT)) <> '' ORDER BY edition_id",
		ResultsTable, q, q,
	), nil
}
