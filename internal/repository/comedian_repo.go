package repository

import (
	"context"
	"errors"

	"OwaraiArchive/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ComedianRepository 艺人与组合成员仓储（实现 identity.ComedianStore）
type ComedianRepository interface {
	FindByName(ctx context.Context, name string, disambiguator *string) (*model.Comedian, error)
	HasUndistinguished(ctx context.Context, name string) (bool, error)
	ListDisambiguators(ctx context.Context, name string) ([]string, error)
	// Upsert 插入；ID 冲突时 reading/kind/birth_date/formed_date 仅在当前为 NULL 时补上
	Upsert(ctx context.Context, c *model.Comedian) error

	GetByID(ctx context.Context, id string) (*model.Comedian, error)
	SetCanonical(ctx context.Context, id, canonicalID string) error
	SetKind(ctx context.Context, id, kind string) error
	// CanonicalLinks 全部 id → canonical_id（仅非 NULL）
	CanonicalLinks(ctx context.Context) (map[string]string, error)
	ListCanonical(ctx context.Context) ([]*model.Comedian, error)

	AddMembership(ctx context.Context, unitID, personID string) (bool, error)
	ListMembers(ctx context.Context, unitID string) ([]*model.Comedian, error)
	ListUnits(ctx context.Context, personID string) ([]*model.Comedian, error)
}

type comedianRepository struct {
	db *gorm.DB
}

func NewComedianRepository(db *gorm.DB) ComedianRepository {
	return &comedianRepository{db: db}
}

func (r *comedianRepository) FindByName(ctx context.Context, name string, disambiguator *string) (*model.Comedian, error) {
	q := r.db.WithContext(ctx).Where("name = ?", name)
	if disambiguator == nil {
		q = q.Where("disambiguator IS NULL")
	} else {
		q = q.Where("disambiguator = ?", *disambiguator)
	}
	var c model.Comedian
	if err := q.Order("id").First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *comedianRepository) HasUndistinguished(ctx context.Context, name string) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Comedian{}).
		Where("name = ? AND disambiguator IS NULL", name).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *comedianRepository) ListDisambiguators(ctx context.Context, name string) ([]string, error) {
	var notes []string
	if err := r.db.WithContext(ctx).Model(&model.Comedian{}).
		Where("name = ? AND disambiguator IS NOT NULL", name).
		Order("disambiguator").Pluck("disambiguator", &notes).Error; err != nil {
		return nil, err
	}
	return notes, nil
}

func (r *comedianRepository) Upsert(ctx context.Context, c *model.Comedian) error {
	fill := func(col string) clause.Assignment {
		return clause.Assignment{
			Column: clause.Column{Name: col},
			Value:  gorm.Expr("COALESCE(comedians." + col + ", excluded." + col + ")"),
		}
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Set{
			fill("reading"),
			fill("kind"),
			fill("birth_date"),
			fill("formed_date"),
		},
	}).Omit(clause.Associations, "canonical_id").Create(c).Error
}

func (r *comedianRepository) GetByID(ctx context.Context, id string) (*model.Comedian, error) {
	var c model.Comedian
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *comedianRepository) SetCanonical(ctx context.Context, id, canonicalID string) error {
	return r.db.WithContext(ctx).Model(&model.Comedian{}).Where("id = ?", id).
		Update("canonical_id", canonicalID).Error
}

func (r *comedianRepository) SetKind(ctx context.Context, id, kind string) error {
	return r.db.WithContext(ctx).Model(&model.Comedian{}).Where("id = ?", id).
		Update("kind", kind).Error
}

func (r *comedianRepository) CanonicalLinks(ctx context.Context) (map[string]string, error) {
	var rows []struct {
		ID          string `gorm:"column:id"`
		CanonicalID string `gorm:"column:canonical_id"`
	}
	if err := r.db.WithContext(ctx).Model(&model.Comedian{}).
		Select("id, canonical_id").Where("canonical_id IS NOT NULL").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	links := make(map[string]string, len(rows))
	for _, row := range rows {
		links[row.ID] = row.CanonicalID
	}
	return links, nil
}

// ListCanonical 代表条目（canonical_id IS NULL），按读音、名字排序
func (r *comedianRepository) ListCanonical(ctx context.Context) ([]*model.Comedian, error) {
	var list []*model.Comedian
	if err := r.db.WithContext(ctx).Where("canonical_id IS NULL").
		Order("reading IS NULL").Order("reading").Order("name").Order("id").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// AddMembership 已存在时不变，返回是否新建
func (r *comedianRepository) AddMembership(ctx context.Context, unitID, personID string) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Omit(clause.Associations).
		Create(&model.Membership{UnitID: unitID, PersonID: personID})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *comedianRepository) ListMembers(ctx context.Context, unitID string) ([]*model.Comedian, error) {
	var list []*model.Comedian
	if err := r.db.WithContext(ctx).
		Joins("JOIN memberships m ON m.person_id = comedians.id").
		Where("m.unit_id = ?", unitID).
		Order("comedians.reading IS NULL").Order("comedians.reading").Order("comedians.name").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *comedianRepository) ListUnits(ctx context.Context, personID string) ([]*model.Comedian, error) {
	var list []*model.Comedian
	if err := r.db.WithContext(ctx).
		Joins("JOIN memberships m ON m.unit_id = comedians.id").
		Where("m.person_id = ?", personID).
		Order("comedians.reading IS NULL").Order("comedians.reading").Order("comedians.name").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
