package model

import "gorm.io/datatypes"

// ColumnMeta 追加列的显示元数据（每次导入重新生成）
type ColumnMeta struct {
	Key         string  `gorm:"column:key;primaryKey;type:text" json:"key"`
	Label       string  `gorm:"column:label;type:text;not null" json:"label"`
	PrefOrder   *int    `gorm:"column:pref_order;type:integer" json:"pref_order"`
	IsMultiline bool    `gorm:"column:is_multiline;not null;default:false" json:"is_multiline"`
	ColClass    string  `gorm:"column:col_class;type:text" json:"col_class"`              // order / result / title / movie / catch
	IsHidden    bool    `gorm:"column:is_hidden;not null;default:false" json:"is_hidden"` // 辅助列：行数据携带但不单独成列
	RelatedKey  *string `gorm:"column:related_key;type:text" json:"related_key"`          // _title → _movie
	SQLType     string  `gorm:"column:sql_type;type:text;not null" json:"sql_type"`
}

// EditionUsedColumn 某回至少有一个非空值的追加列
type EditionUsedColumn struct {
	EditionID uint64 `gorm:"column:edition_id;primaryKey;autoIncrement:false"`
	ColKey    string `gorm:"column:col_key;primaryKey;type:text"`
}

// SourceFile 导入时的源 CSV 清单（内容哈希 + 行数 + 表头）
type SourceFile struct {
	Name     string         `gorm:"column:name;primaryKey;type:text" json:"name"`
	SHA256   string         `gorm:"column:sha256;type:text;not null" json:"sha256"`
	RowCount int            `gorm:"column:row_count;not null" json:"row_count"`
	Header   datatypes.JSON `gorm:"column:header" json:"header"`
}

func (ColumnMeta) TableName() string        { return "columns_meta" }
func (EditionUsedColumn) TableName() string { return "edition_used_columns" }
func (SourceFile) TableName() string        { return "source_files" }
