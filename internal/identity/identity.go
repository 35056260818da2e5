// Package identity 从规范化后的 (名字, 区分符) 派生确定性 ID。
package identity

import (
	"crypto/sha256"
	"encoding/hex"

	"OwaraiArchive/internal/canon"
)

// IDLength 截取 sha256 十六进制前 20 位（80bit）。碰撞概率视为可忽略，不做消除。
const IDLength = 20

// ComedianID (name, disambiguator) → 固定长度 ID。区分符为空时连分隔符也不加。
func ComedianID(name, disambiguator string) string {
	base := canon.Normalize(name)
	if d := canon.Normalize(disambiguator); d != "" {
		base += "_" + d
	}
	return digest(base)
}

// JudgeID 审查员只按名字决定 ID
func JudgeID(name string) string {
	return digest(canon.Normalize(name))
}

func digest(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])[:IDLength]
}

// NoteValue 区分符指针 → 字符串（nil 视为空）
func NoteValue(note *string) string {
	if note == nil {
		return ""
	}
	return *note
}

// NormalizeNote 区分符规范化，空白返回 nil
func NormalizeNote(s string) *string {
	n := canon.Normalize(s)
	if n == "" {
		return nil
	}
	return &n
}
