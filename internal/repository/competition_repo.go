package repository

import (
	"context"
	"errors"

	"OwaraiArchive/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CompetitionRepository 大会与回（edition）仓储
type CompetitionRepository interface {
	UpsertCompetition(ctx context.Context, c *model.Competition) error
	GetCompetitionByKey(ctx context.Context, key string) (*model.Competition, error)
	ListCompetitions(ctx context.Context) ([]*model.Competition, error)

	// UpsertEdition 有年份时按 (competition_id, year) upsert；无年份的占位回按 (competition_id, seq_no, title) 识别
	UpsertEdition(ctx context.Context, e *model.Edition) error
	// GetEdition 年份为 nil 时不查（占位回不能按年份定位），返回 nil, nil
	GetEdition(ctx context.Context, competitionID uint64, year *int) (*model.Edition, error)
	GetEditionByCompYear(ctx context.Context, compKey string, year int) (*model.Edition, error)
	ListEditions(ctx context.Context, competitionID uint64) ([]*model.Edition, error)
}

type competitionRepository struct {
	db *gorm.DB
}

func NewCompetitionRepository(db *gorm.DB) CompetitionRepository {
	return &competitionRepository{db: db}
}

func (r *competitionRepository) UpsertCompetition(ctx context.Context, c *model.Competition) error {
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "sort_order"}),
	}).Create(c).Error; err != nil {
		return err
	}
	// upsert 走 UPDATE 分支时 RETURNING 的 id 不可靠，统一回查
	return r.db.WithContext(ctx).Model(&model.Competition{}).Where("key = ?", c.Key).Select("id").Scan(&c.ID).Error
}

func (r *competitionRepository) GetCompetitionByKey(ctx context.Context, key string) (*model.Competition, error) {
	var c model.Competition
	if err := r.db.WithContext(ctx).Where("key = ?", key).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *competitionRepository) ListCompetitions(ctx context.Context) ([]*model.Competition, error) {
	var list []*model.Competition
	if err := r.db.WithContext(ctx).
		Order("sort_order IS NULL").Order("sort_order").Order("key").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *competitionRepository) UpsertEdition(ctx context.Context, e *model.Edition) error {
	db := r.db.WithContext(ctx)
	if e.Year != nil {
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "competition_id"}, {Name: "year"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "seq_no", "final_date", "short_label"}),
		}).Omit(clause.Associations).Create(e).Error; err != nil {
			return err
		}
		return db.Model(&model.Edition{}).
			Where("competition_id = ? AND year = ?", e.CompetitionID, *e.Year).
			Select("id").Scan(&e.ID).Error
	}

	// 占位回：NULL 不参与唯一约束，手动按 (competition_id, seq_no, title) 查找
	q := db.Model(&model.Edition{}).Where("competition_id = ? AND year IS NULL", e.CompetitionID)
	if e.SeqNo != nil {
		q = q.Where("seq_no = ?", *e.SeqNo)
	} else {
		q = q.Where("seq_no IS NULL")
	}
	if e.Title != nil {
		q = q.Where("title = ?", *e.Title)
	} else {
		q = q.Where("title IS NULL")
	}
	var existing model.Edition
	err := q.Order("id").First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return db.Omit(clause.Associations).Create(e).Error
	}
	if err != nil {
		return err
	}
	e.ID = existing.ID
	return db.Model(&model.Edition{}).Where("id = ?", e.ID).Updates(map[string]any{
		"final_date":  e.FinalDate,
		"short_label": e.ShortLabel,
	}).Error
}

func (r *competitionRepository) GetEdition(ctx context.Context, competitionID uint64, year *int) (*model.Edition, error) {
	if year == nil {
		return nil, nil
	}
	var e model.Edition
	if err := r.db.WithContext(ctx).Where("competition_id = ? AND year = ?", competitionID, *year).First(&e).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

func (r *competitionRepository) GetEditionByCompYear(ctx context.Context, compKey string, year int) (*model.Edition, error) {
	var e model.Edition
	err := r.db.WithContext(ctx).
		Joins("JOIN competitions c ON c.id = editions.competition_id").
		Where("c.key = ? AND editions.year = ?", compKey, year).
		First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListEditions 年份新的在前，占位回（year IS NULL）排最后
func (r *competitionRepository) ListEditions(ctx context.Context, competitionID uint64) ([]*model.Edition, error) {
	var list []*model.Edition
	if err := r.db.WithContext(ctx).
		Where("competition_id = ?", competitionID).
		Order("year IS NULL").Order("year DESC").Order("seq_no").Order("id").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
