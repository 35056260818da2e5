package rank

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
)

// 全局版本注册表：新增版本只需在 init 中 Register
var registry = make(map[string]Table)

// Latest 默认使用的版本
const Latest = "v2"

var v1 = Table{Version: "v1", Literals: map[string]int{
	"優勝":          1,
	"準優勝":         2,
	"ベスト4":        3,
	"決勝進出":        12,
	"ベスト8":        12,
	"ファーストステージ敗退": 12,
	"準決勝進出":       50,
	"準々決勝進出":      100,
	"3回戦進出":       500,
	"2回戦進出":       1000,
	"1回戦敗退":       5000,
}}

func init() {
	Register(v1)
	Register(v1.Extend("v2", map[string]int{"マイナビ賞": 2}))
}

// Register 登记一个版本；同版本重复登记时覆盖并告警
func Register(t Table) {
	if t.Version == "" {
		panic("rank table version must not be empty")
	}
	if _, exists := registry[t.Version]; exists {
		logrus.Warnf("名次表%s已登记，将覆盖原有定义", t.Version)
	}
	registry[t.Version] = t
}

// Lookup 按版本取表；空版本返回 Latest
func Lookup(version string) (Table, error) {
	if version == "" {
		version = Latest
	}
	t, ok := registry[version]
	if !ok {
		return Table{}, fmt.Errorf("未知的名次表版本: %s（已登记：%v）", version, Versions())
	}
	return t, nil
}

// Versions 已登记的版本（排序后）
func Versions() []string {
	out := make([]string, 0, len(registry))
	for v := range registry {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
