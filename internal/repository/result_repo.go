package repository

import (
	"context"

	"OwaraiArchive/internal/model"
	"OwaraiArchive/internal/schema"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ResultRepository 决赛成绩、审查员与个票仓储
type ResultRepository interface {
	// UpsertResult (edition_id, comedian_id) 冲突时名次和 extra 中的全部列以新值为准
	UpsertResult(ctx context.Context, fr *model.FinalResult, extra []string) error

	// UpsertJudge 按名字 insert-or-ignore，返回是否新建
	UpsertJudge(ctx context.Context, j *model.Judge) (bool, error)
	UpsertSeat(ctx context.Context, s *model.EditionJudge) error
	UpsertScore(ctx context.Context, s *model.JudgeScore) error
}

type resultRepository struct {
	db *gorm.DB
}

func NewResultRepository(db *gorm.DB) ResultRepository {
	return &resultRepository{db: db}
}

func (r *resultRepository) UpsertResult(ctx context.Context, fr *model.FinalResult, extra []string) error {
	stmt, err := schema.UpsertResultSQL(extra)
	if err != nil {
		return err
	}
	args := make([]any, 0, 4+len(extra))
	args = append(args, fr.EditionID, fr.ComedianID, fr.Rank, fr.RankSort)
	for _, col := range extra {
		args = append(args, fr.Extras[col])
	}
	return r.db.WithContext(ctx).Exec(stmt, args...).Error
}

func (r *resultRepository) UpsertJudge(ctx context.Context, j *model.Judge) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(j)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *resultRepository) UpsertSeat(ctx context.Context, s *model.EditionJudge) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "edition_id"}, {Name: "seat_no"}},
		DoUpdates: clause.AssignmentColumns([]string{"judge_id"}),
	}).Omit(clause.Associations).Create(s).Error
}

func (r *resultRepository) UpsertScore(ctx context.Context, s *model.JudgeScore) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "edition_id"}, {Name: "round_no"}, {Name: "comedian_id"}, {Name: "seat_no"}},
		DoUpdates: clause.AssignmentColumns([]string{"score"}),
	}).Omit(clause.Associations).Create(s).Error
}
