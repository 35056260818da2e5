// Package canon 提供自由文本的规范化工具：NFKC 全半角折叠、空白压缩、片假名→平假名。
// 所有从自由文本派生 ID 或读音的地方都必须经过这里。
package canon

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize NFKC + 去首尾空白 + 连续空白压缩为一个半角空格
func Normalize(s string) string {
	s = norm.NFKC.String(s)
	return strings.Join(strings.Fields(s), " ")
}

// ToHiragana 片假名（U+30A1..U+30F6）按固定偏移折叠为平假名，其余字符原样保留
func ToHiragana(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 0x30A1 && r <= 0x30F6 {
			return r - 0x60
		}
		return r
	}, s)
}

// 平/片假名 + 长音 + 中点类 + 空白
var reKanaOnly = regexp.MustCompile(`^[\p{Hiragana}\p{Katakana}ー・･·\s]+$`)

// IsKanaOnly 规范化后是否只由假名、长音符、中点和空白组成
func IsKanaOnly(s string) bool {
	n := Normalize(s)
	if n == "" {
		return false
	}
	return reKanaOnly.MatchString(n)
}

// NormalizeReading 读音统一为平假名；空串返回 nil
func NormalizeReading(s string) *string {
	t := Normalize(s)
	if t == "" {
		return nil
	}
	h := ToHiragana(t)
	return &h
}

// GuessReading 名字只由假名组成时推导读音，否则返回 nil
func GuessReading(name string) *string {
	if !IsKanaOnly(name) {
		return nil
	}
	h := ToHiragana(Normalize(name))
	return &h
}

var readingSymbols = strings.NewReplacer(
	"・", "", "\uFF65", "", "\u00B7", "",
	" ", "", "\u00A0", "", "\u3000", "",
	"(", "", ")", "", "[", "", "]", "", "{", "", "}", "",
	"「", "", "」", "", "『", "", "』", "", "【", "", "】", "", "〈", "", "〉", "", "《", "", "》", "",
	".", "", ",", "", "，", "", "．", "", "/", "", "／", "",
	"-", "", "_", "", "—", "", "–", "", "―", "",
)

// StripReadingSymbols 去掉读音中的中点、空白、括号、标点和连字符（长音「ー」保留）
func StripReadingSymbols(s string) string {
	return readingSymbols.Replace(s)
}

// FuzzyKey 宽松比较键：NFKC → 平假名 → 去空白与符号。用于表记摇摆检测。
func FuzzyKey(s string) string {
	t := ToHiragana(strings.TrimSpace(norm.NFKC.String(s)))
	t = strings.Join(strings.Fields(t), "")
	return StripReadingSymbols(t)
}
