package repository

import (
	"context"
	"fmt"
	"strings"

	"OwaraiArchive/internal/schema"

	"gorm.io/gorm"
)

// ResultRow 成绩行（含艺人信息与追加列）
type ResultRow struct {
	EditionID     uint64
	CompKey       string
	CompName      string
	Year          *int
	ComedianID    string
	Name          string
	Disambiguator *string
	Reading       *string
	CanonicalID   *string
	Rank          string
	RankSort      int
	Extras        map[string]any
}

// SeatRow 审查员席位
type SeatRow struct {
	SeatNo    int    `gorm:"column:seat_no"`
	JudgeID   string `gorm:"column:judge_id"`
	JudgeName string `gorm:"column:judge_name"`
}

// ScoreRow 单个个票
type ScoreRow struct {
	ComedianID string  `gorm:"column:comedian_id"`
	SeatNo     int     `gorm:"column:seat_no"`
	Score      float64 `gorm:"column:score"`
}

// EntrantRow 某轮至少有一个个票的参赛者
type EntrantRow struct {
	ComedianID    string  `gorm:"column:comedian_id"`
	Name          string  `gorm:"column:name"`
	Disambiguator *string `gorm:"column:disambiguator"`
	Reading       *string `gorm:"column:reading"`
	Rank          *string `gorm:"column:rank"`
	RankSort      *int    `gorm:"column:rank_sort"`
	OrderNo       *int64  `gorm:"column:order_no"`
}

// ArchiveRepository 读模型查询（只读）
type ArchiveRepository interface {
	// EditionResults 某回全部成绩。排序：rank_sort → first_group → first_order → reading → name
	EditionResults(ctx context.Context, editionID uint64, extra []string) ([]ResultRow, error)
	// ResultsByComedians 一组艺人 ID 的全部成绩（大会显示顺序 → 年份新到旧 → rank_sort）
	ResultsByComedians(ctx context.Context, ids []string, extra []string) ([]ResultRow, error)
	EditionSeats(ctx context.Context, editionID uint64) ([]SeatRow, error)
	RoundScores(ctx context.Context, editionID uint64, round int) ([]ScoreRow, error)
	// RoundEntrants orderCol 为空或不存在时 order_no 恒为 NULL
	RoundEntrants(ctx context.Context, editionID uint64, round int, orderCol string) ([]EntrantRow, error)
	// CanonicalIDsSharingRoot 给定代表 ID，返回所有链路最终指向它的 ID（含自身）
	CanonicalIDsSharingRoot(ctx context.Context, root string) ([]string, error)
}

type archiveRepository struct {
	db *gorm.DB
}

func NewArchiveRepository(db *gorm.DB) ArchiveRepository {
	return &archiveRepository{db: db}
}

const resultSelect = `SELECT fr.edition_id AS edition_id, c.key AS comp_key, c.name AS comp_name, e.year AS year,
  cm.id AS comedian_id, cm.name AS name, cm.disambiguator AS disambiguator, cm.reading AS reading,
  cm.canonical_id AS canonical_id, fr.rank AS rank, fr.rank_sort AS rank_sort`

const resultFrom = ` FROM final_results fr
  JOIN editions e ON e.id = fr.edition_id
  JOIN competitions c ON c.id = e.competition_id
  JOIN comedians cm ON cm.id = fr.comedian_id`

func (r *archiveRepository) EditionResults(ctx context.Context, editionID uint64, extra []string) ([]ResultRow, error) {
	sel, err := selectWithExtras(extra)
	if err != nil {
		return nil, err
	}
	order := []string{"fr.rank_sort"}
	if has(extra, schema.FirstGroupColumn) {
		g, _ := schema.Ident(schema.FirstGroupColumn)
		order = append(order, "fr."+g+" IS NULL", "fr."+g)
	}
	if has(extra, schema.FirstOrderColumn) {
		o, _ := schema.Ident(schema.FirstOrderColumn)
		order = append(order, "fr."+o+" IS NULL", "CAST(fr."+o+" AS INTEGER)")
	}
	order = append(order, "cm.reading IS NULL", "cm.reading", "cm.name", "cm.id")

	q := sel + resultFrom + " WHERE fr.edition_id = ? ORDER BY " + strings.Join(order, ", ")
	return r.scanResults(ctx, q, extra, editionID)
}

func (r *archiveRepository) ResultsByComedians(ctx context.Context, ids []string, extra []string) ([]ResultRow, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	sel, err := selectWithExtras(extra)
	if err != nil {
		return nil, err
	}
	q := sel + resultFrom + ` WHERE fr.comedian_id IN ?
  ORDER BY c.sort_order IS NULL, c.sort_order, c.key, e.year IS NULL, e.year DESC, e.id, fr.rank_sort, cm.id`
	return r.scanResults(ctx, q, extra, ids)
}

func (r *archiveRepository) EditionSeats(ctx context.Context, editionID uint64) ([]SeatRow, error) {
	var rows []SeatRow
	if err := r.db.WithContext(ctx).Raw(`SELECT ej.seat_no AS seat_no, j.id AS judge_id, j.name AS judge_name
  FROM edition_judges ej JOIN judges j ON j.id = ej.judge_id
  WHERE ej.edition_id = ? ORDER BY ej.seat_no`, editionID).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *archiveRepository) RoundScores(ctx context.Context, editionID uint64, round int) ([]ScoreRow, error) {
	var rows []ScoreRow
	if err := r.db.WithContext(ctx).Raw(`SELECT comedian_id, seat_no, score FROM judge_scores
  WHERE edition_id = ? AND round_no = ? ORDER BY comedian_id, seat_no`, editionID, round).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *archiveRepository) RoundEntrants(ctx context.Context, editionID uint64, round int, orderCol string) ([]EntrantRow, error) {
	orderExpr := "NULL"
	if orderCol != "" {
		q, err := schema.Ident(orderCol)
		if err != nil {
			return nil, err
		}
		orderExpr = "CAST(fr." + q + " AS INTEGER)"
	}
	stmt := fmt.Sprintf(`SELECT cm.id AS comedian_id, cm.name AS name, cm.disambiguator AS disambiguator,
  cm.reading AS reading, fr.rank AS rank, fr.rank_sort AS rank_sort, %s AS order_no
  FROM comedians cm
  LEFT JOIN final_results fr ON fr.comedian_id = cm.id AND fr.edition_id = ?
  WHERE EXISTS (SELECT 1 FROM judge_scores s WHERE s.edition_id = ? AND s.round_no = ? AND s.comedian_id = cm.id)
  ORDER BY order_no IS NULL, order_no, fr.rank_sort IS NULL, fr.rank_sort, cm.reading IS NULL, cm.reading, cm.name, cm.id`, orderExpr)

	var rows []EntrantRow
	if err := r.db.WithContext(ctx).Raw(stmt, editionID, editionID, round).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *archiveRepository) CanonicalIDsSharingRoot(ctx context.Context, root string) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).Raw(`WITH RECURSIVE chain(id) AS (
    SELECT ?
    UNION
    SELECT cm.id FROM comedians cm JOIN chain ON cm.canonical_id = chain.id
  )
  SELECT id FROM chain ORDER BY id`, root).Scan(&ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func selectWithExtras(extra []string) (string, error) {
	if len(extra) == 0 {
		return resultSelect, nil
	}
	cols, err := schema.SelectExtrasSQL("fr", extra)
	if err != nil {
		return "", err
	}
	return resultSelect + ", " + cols, nil
}

func (r *archiveRepository) scanResults(ctx context.Context, q string, extra []string, args ...any) ([]ResultRow, error) {
	rows, err := r.db.WithContext(ctx).Raw(q, args...).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []ResultRow
	for rows.Next() {
		// 追加列类型随数据而变，统一扫描为 any
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		m := make(map[string]any, len(cols))
		for i, c := range cols {
			if b, ok := vals[i].([]byte); ok {
				m[c] = string(b)
				continue
			}
			m[c] = vals[i]
		}

		row := ResultRow{
			EditionID:     uint64(asInt(m["edition_id"])),
			CompKey:       asString(m["comp_key"]),
			CompName:      asString(m["comp_name"]),
			Year:          asIntPtr(m["year"]),
			ComedianID:    asString(m["comedian_id"]),
			Name:          asString(m["name"]),
			Disambiguator: asStringPtr(m["disambiguator"]),
			Reading:       asStringPtr(m["reading"]),
			CanonicalID:   asStringPtr(m["canonical_id"]),
			Rank:          asString(m["rank"]),
			RankSort:      int(asInt(m["rank_sort"])),
			Extras:        make(map[string]any, len(extra)),
		}
		for _, col := range extra {
			row.Extras[col] = m[col]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func has(cols []string, name string) bool {
	for _, c := range cols {
		if c == name {
			return true
		}
	}
	return false
}

func asInt(v any) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case int32:
		return int64(t)
	case float64:
		return int64(t)
	case uint64:
		return int64(t)
	}
	return 0
}

func asIntPtr(v any) *int {
	if v == nil {
		return nil
	}
	n := int(asInt(v))
	return &n
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}

func asStringPtr(v any) *string {
	if v == nil {
		return nil
	}
	s := asString(v)
	return &s
}
