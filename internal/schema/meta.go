package schema

import (
	"strings"

	"OwaraiArchive/internal/model"
)

// 列分类
const (
	ClassMovie  = "movie"
	ClassOrder  = "order"
	ClassResult = "result"
	ClassTitle  = "title"
	ClassCatch  = "catch"
)

// Override 单列的显示设定。新增可选列时只需要在表里加一行（或在配置文件 columns: 下写）
type Override struct {
	Label     string `mapstructure:"label"`
	PrefOrder *int   `mapstructure:"pref_order"`
	Multiline bool   `mapstructure:"multiline"`
	Hidden    bool   `mapstructure:"hidden"`
}

// Overrides 列名 → 显示设定
type Overrides map[string]Override

func pref(n int) *int { return &n }

// DefaultOverrides 内置的列显示设定
func DefaultOverrides() Overrides {
	return Overrides{
		"catchphrase":   {Label: "キャッチコピー", PrefOrder: pref(1), Multiline: true},
		"first_group":   {Label: "1本目グループ", Hidden: true},
		"first_order":   {Label: "1本目出順", PrefOrder: pref(2)},
		"first_result":  {Label: "1本目結果", PrefOrder: pref(3)},
		"first_title":   {Label: "1本目ネタ", PrefOrder: pref(4)},
		"first_movie":   {Label: "1本目動画"},
		"second_order":  {Label: "2本目出順", PrefOrder: pref(5)},
		"second_result": {Label: "2本目結果", PrefOrder: pref(6)},
		"second_title":  {Label: "2本目ネタ", PrefOrder: pref(7)},
		"second_movie":  {Label: "2本目動画"},
	}
}

// Merge 以 o 为基础叠加 extra（extra 中的条目整体覆盖同名条目）
func (o Overrides) Merge(extra Overrides) Overrides {
	out := make(Overrides, len(o)+len(extra))
	for k, v := range o {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// Classify 按列名后缀分类，无法分类时返回空串
func Classify(key string) string {
	switch {
	case strings.HasSuffix(key, "_movie"):
		return ClassMovie
	case strings.HasSuffix(key, "_order"):
		return ClassOrder
	case strings.HasSuffix(key, "_result"):
		return ClassResult
	case strings.HasSuffix(key, "_title"):
		return ClassTitle
	case key == "catchphrase":
		return ClassCatch
	}
	return ""
}

// BuildMeta 为每个列生成 ColumnMeta（顺序与 cols 一致）
func BuildMeta(cols []Column, overrides Overrides) []model.ColumnMeta {
	exists := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		exists[c.Name] = struct{}{}
	}

	out := make([]model.ColumnMeta, 0, len(cols))
	for _, c := range cols {
		ov := overrides[c.Name]
		m := model.ColumnMeta{
			Key:         c.Name,
			Label:       c.Name,
			PrefOrder:   ov.PrefOrder,
			IsMultiline: ov.Multiline,
			ColClass:    Classify(c.Name),
			IsHidden:    ov.Hidden,
			SQLType:     c.Type,
		}
		if ov.Label != "" {
			m.Label = ov.Label
		}
		if m.ColClass == ClassMovie {
			m.IsHidden = true
		}
		if m.ColClass == ClassTitle {
			movie := strings.TrimSuffix(c.Name, "_title") + "_movie"
			if _, ok := exists[movie]; ok {
				m.RelatedKey = &movie
			}
		}
		out = append(out, m)
	}
	return out
}
