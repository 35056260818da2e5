package repository

import (
	"context"
	"fmt"

	"OwaraiArchive/internal/model"
	"OwaraiArchive/internal/schema"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MetaRepository 派生元数据：列元数据、各回使用列、源文件清单
type MetaRepository interface {
	UpsertColumnMeta(ctx context.Context, metas []model.ColumnMeta) error
	// RebuildUsedColumns 清空 edition_used_columns 后按列逐个重建
	RebuildUsedColumns(ctx context.Context, cols []string) error
	UpsertSourceFile(ctx context.Context, f *model.SourceFile) error

	ListColumnMeta(ctx context.Context) ([]model.ColumnMeta, error)
	ListUsedColumns(ctx context.Context, editionIDs []uint64) (map[uint64][]string, error)
	ListSourceFiles(ctx context.Context) ([]model.SourceFile, error)
}

type metaRepository struct {
	db *gorm.DB
}

func NewMetaRepository(db *gorm.DB) MetaRepository {
	return &metaRepository{db: db}
}

func (r *metaRepository) UpsertColumnMeta(ctx context.Context, metas []model.ColumnMeta) error {
	for i := range metas {
		if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"label", "pref_order", "is_multiline", "col_class", "is_hidden", "related_key", "sql_type"}),
		}).Create(&metas[i]).Error; err != nil {
			return fmt.Errorf("写入列元数据失败: %w, key: %s", err, metas[i].Key)
		}
	}
	return nil
}

func (r *metaRepository) RebuildUsedColumns(ctx context.Context, cols []string) error {
	db := r.db.WithContext(ctx)
	if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.EditionUsedColumn{}).Error; err != nil {
		return fmt.Errorf("清空edition_used_columns失败: %w", err)
	}
	for _, col := range cols {
		stmt, err := schema.UsedColumnSQL(col)
		if err != nil {
			return err
		}
		if err := db.Exec(stmt, col).Error; err != nil {
			return fmt.Errorf("统计列%s的使用情况失败: %w", col, err)
		}
	}
	return nil
}

func (r *metaRepository) UpsertSourceFile(ctx context.Context, f *model.SourceFile) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"sha256", "row_count", "header"}),
	}).Create(f).Error
}

func (r *metaRepository) ListColumnMeta(ctx context.Context) ([]model.ColumnMeta, error) {
	var list []model.ColumnMeta
	if err := r.db.WithContext(ctx).
		Order("pref_order IS NULL").Order("pref_order").Order("key").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *metaRepository) ListUsedColumns(ctx context.Context, editionIDs []uint64) (map[uint64][]string, error) {
	out := make(map[uint64][]string, len(editionIDs))
	if len(editionIDs) == 0 {
		return out, nil
	}
	var rows []model.EditionUsedColumn
	if err := r.db.WithContext(ctx).Where("edition_id IN ?", editionIDs).
		Order("edition_id").Order("col_key").Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.EditionID] = append(out[row.EditionID], row.ColKey)
	}
	return out, nil
}

func (r *metaRepository) ListSourceFiles(ctx context.Context) ([]model.SourceFile, error) {
	var list []model.SourceFile
	if err := r.db.WithContext(ctx).Order("name").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
