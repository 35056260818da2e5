// Package rank 把自由文本的名次标签（「優勝」「準決勝進出」…）映射为全序整数 rank_sort。
package rank

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Unranked 无法识别或空白的名次，总是排在最后
const Unranked = 99999

// Table 一个版本的字面量映射表。表会随数据源演进，按版本登记而不是写死成枚举。
type Table struct {
	Version  string
	Literals map[string]int
}

var (
	reFirstInt = regexp.MustCompile(`\d+`)
	blanks     = strings.NewReplacer(" ", "", "\t", "", "　", "")
)

// Sort rank 文本 → rank_sort
func (t Table) Sort(rankText string) int {
	r := strings.TrimSpace(blanks.Replace(norm.NFKC.String(rankText)))
	if r == "" || strings.EqualFold(r, "null") {
		return Unranked
	}
	if v, ok := t.Literals[r]; ok {
		return v
	}
	if m := reFirstInt.FindString(r); m != "" {
		if v, err := strconv.Atoi(m); err == nil {
			return v
		}
	}
	return Unranked
}

// Extend 以当前表为基础追加/覆盖条目，生成新版本
func (t Table) Extend(version string, extra map[string]int) Table {
	lit := make(map[string]int, len(t.Literals)+len(extra))
	for k, v := range t.Literals {
		lit[k] = v
	}
	for k, v := range extra {
		lit[k] = v
	}
	return Table{Version: version, Literals: lit}
}
