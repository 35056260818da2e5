package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"OwaraiArchive/internal/model"
	"OwaraiArchive/internal/repository"
	"OwaraiArchive/internal/schema"
	"OwaraiArchive/internal/store"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Column 表格中显示的一列
type Column struct {
	Key        string  `json:"key"`
	Label      string  `json:"label"`
	Class      string  `json:"class,omitempty"`
	Multiline  bool    `json:"multiline,omitempty"`
	RelatedKey *string `json:"related_key,omitempty"`
}

// EditionRow 一位参赛者的一行
type EditionRow struct {
	ComedianID    string         `json:"comedian_id"`
	LinkID        string         `json:"link_id"` // canonical 链路终点，用于链接到艺人页
	Name          string         `json:"name"`
	Disambiguator *string        `json:"disambiguator,omitempty"`
	Reading       *string        `json:"reading,omitempty"`
	AliasLabel    *string        `json:"alias_label,omitempty"` // 「旧名」として
	Rank          string         `json:"rank"`
	RankSort      int            `json:"rank_sort"`
	Values        map[string]any `json:"values"`
}

// EditionTable 某回的成绩表
type EditionTable struct {
	Competition *model.Competition `json:"competition"`
	Edition     *model.Edition     `json:"edition"`
	Columns     []Column           `json:"columns"`
	Rows        []EditionRow       `json:"rows"`
}

// YearTable 大会页中的一回
type YearTable struct {
	Edition *model.Edition `json:"edition"`
	Table   *EditionTable  `json:"table"` // 占位回（year 为 NULL）为 nil
}

// HistoryYear 艺人页中某大会的一回
type HistoryYear struct {
	EditionID uint64       `json:"edition_id"`
	Year      *int         `json:"year"`
	Columns   []Column     `json:"columns"`
	Rows      []EditionRow `json:"rows"`
}

// CompetitionHistory 艺人页中的一个大会
type CompetitionHistory struct {
	Key   string        `json:"key"`
	Name  string        `json:"name"`
	Years []HistoryYear `json:"years"`
}

// ComedianHistory 艺人（按代表条目聚合）的全部成绩
type ComedianHistory struct {
	Comedian     *model.Comedian      `json:"comedian"`
	IDs          []string             `json:"ids"`
	Competitions []CompetitionHistory `json:"competitions"`
}

// JudgeSeat 审查员席位
type JudgeSeat struct {
	SeatNo  int    `json:"seat_no"`
	JudgeID string `json:"judge_id"`
	Name    string `json:"name"`
}

// ScoreLine 个票表中的一行
type ScoreLine struct {
	ComedianID string           `json:"comedian_id"`
	Name       string           `json:"name"`
	Reading    *string          `json:"reading,omitempty"`
	Rank       *string          `json:"rank,omitempty"`
	OrderNo    *int64           `json:"order_no,omitempty"`
	BySeat     map[int]float64  `json:"by_seat"`
	Total      *decimal.Decimal `json:"total"`
}

// ScoreTable 某回某轮的个票表
type ScoreTable struct {
	Round int         `json:"round"`
	Seats []JudgeSeat `json:"seats"`
	Rows  []ScoreLine `json:"rows"`
}

type columnCache struct {
	ordered []model.ColumnMeta
	byKey   map[string]model.ColumnMeta
	links   map[string]string
}

// ArchiveService 只读查询。已发布库在两次发布之间不变，列元数据与改名链接只加载一次。
type ArchiveService struct {
	logger    *logrus.Logger
	comps     repository.CompetitionRepository
	comedians repository.ComedianRepository
	meta      repository.MetaRepository
	archive   repository.ArchiveRepository

	once     sync.Once
	cache    *columnCache
	cacheErr error
}

func NewArchiveService(pub *store.Published, logger *logrus.Logger) *ArchiveService {
	db := pub.DB()
	return &ArchiveService{
		logger:    logger,
		comps:     repository.NewCompetitionRepository(db),
		comedians: repository.NewComedianRepository(db),
		meta:      repository.NewMetaRepository(db),
		archive:   repository.NewArchiveRepository(db),
	}
}

func (s *ArchiveService) columns(ctx context.Context) (*columnCache, error) {
	s.once.Do(func() {
		ctx := context.WithoutCancel(ctx)
		metas, err := s.meta.ListColumnMeta(ctx)
		if err != nil {
			s.cacheErr = fmt.Errorf("读取列元数据失败: %w", err)
			return
		}
		links, err := s.comedians.CanonicalLinks(ctx)
		if err != nil {
			s.cacheErr = fmt.Errorf("读取canonical链接失败: %w", err)
			return
		}
		c := &columnCache{ordered: metas, byKey: make(map[string]model.ColumnMeta, len(metas)), links: links}
		for _, m := range metas {
			c.byKey[m.Key] = m
		}
		s.cache = c
	})
	return s.cache, s.cacheErr
}

func (c *columnCache) keys() []string {
	out := make([]string, len(c.ordered))
	for i, m := range c.ordered {
		out[i] = m.Key
	}
	return out
}

// visible used ∩ 非隐藏，按 pref_order → key
func (c *columnCache) visible(used []string) []Column {
	set := make(map[string]struct{}, len(used))
	for _, k := range used {
		set[k] = struct{}{}
	}
	var out []Column
	for _, m := range c.ordered {
		if _, ok := set[m.Key]; !ok || m.IsHidden {
			continue
		}
		out = append(out, Column{Key: m.Key, Label: m.Label, Class: m.ColClass, Multiline: m.IsMultiline, RelatedKey: m.RelatedKey})
	}
	return out
}

// carriedKeys 行数据需要携带的列：显示列 + 它们的关联列 + first_group
func carriedKeys(cols []Column) []string {
	keys := make([]string, 0, len(cols)+2)
	for _, c := range cols {
		keys = append(keys, c.Key)
		if c.RelatedKey != nil {
			keys = append(keys, *c.RelatedKey)
		}
	}
	return append(keys, schema.FirstGroupColumn)
}

func (s *ArchiveService) toRow(c *columnCache, r repository.ResultRow, keys []string) EditionRow {
	row := EditionRow{
		ComedianID:    r.ComedianID,
		LinkID:        r.ComedianID,
		Name:          r.Name,
		Disambiguator: r.Disambiguator,
		Reading:       r.Reading,
		Rank:          r.Rank,
		RankSort:      r.RankSort,
		Values:        make(map[string]any, len(keys)),
	}
	if r.CanonicalID != nil {
		if root, err := resolveRoot(r.ComedianID, c.links); err == nil {
			row.LinkID = root
		} else {
			s.logger.WithError(err).WithField("comedian_id", r.ComedianID).Warn("canonical链路异常")
		}
		label := "「" + r.Name + "」として"
		row.AliasLabel = &label
	}
	for _, k := range keys {
		v, ok := r.Extras[k]
		if !ok {
			continue
		}
		if str, isStr := v.(string); isStr && c.byKey[k].IsMultiline {
			v = strings.ReplaceAll(str, `\n`, "\n")
		}
		row.Values[k] = v
	}
	return row
}

// EditionTable 大会+年份 → 成绩表；回不存在时返回 nil, nil
func (s *ArchiveService) EditionTable(ctx context.Context, comp string, year int) (*EditionTable, error) {
	cc, err := s.comps.GetCompetitionByKey(ctx, comp)
	if err != nil || cc == nil {
		return nil, err
	}
	e, err := s.comps.GetEdition(ctx, cc.ID, &year)
	if err != nil || e == nil {
		return nil, err
	}
	return s.editionTable(ctx, cc, e)
}

func (s *ArchiveService) editionTable(ctx context.Context, comp *model.Competition, e *model.Edition) (*EditionTable, error) {
	c, err := s.columns(ctx)
	if err != nil {
		return nil, err
	}
	used, err := s.meta.ListUsedColumns(ctx, []uint64{e.ID})
	if err != nil {
		return nil, err
	}
	cols := c.visible(used[e.ID])
	keys := carriedKeys(cols)

	rows, err := s.archive.EditionResults(ctx, e.ID, presentKeys(c, keys))
	if err != nil {
		return nil, fmt.Errorf("查询成绩失败: %w", err)
	}
	out := &EditionTable{Competition: comp, Edition: e, Columns: cols, Rows: make([]EditionRow, 0, len(rows))}
	for _, r := range rows {
		out.Rows = append(out.Rows, s.toRow(c, r, keys))
	}
	return out, nil
}

// presentKeys 只保留库中真实存在的列（first_group / _movie 可能不存在）
func presentKeys(c *columnCache, keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := c.byKey[k]; !ok {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// CompetitionYears 大会的全部回（新的在前，占位回最后）
func (s *ArchiveService) CompetitionYears(ctx context.Context, comp string) ([]YearTable, error) {
	cc, err := s.comps.GetCompetitionByKey(ctx, comp)
	if err != nil {
		return nil, err
	}
	if cc == nil {
		return nil, fmt.Errorf("%w: %s", ErrCompetitionNotFound, comp)
	}
	editions, err := s.comps.ListEditions(ctx, cc.ID)
	if err != nil {
		return nil, err
	}
	out := make([]YearTable, 0, len(editions))
	for _, e := range editions {
		yt := YearTable{Edition: e}
		if e.Year != nil {
			if yt.Table, err = s.editionTable(ctx, cc, e); err != nil {
				return nil, err
			}
		}
		out = append(out, yt)
	}
	return out, nil
}

// ComedianHistory 沿 canonical 链找到代表条目，汇总所有指向它的 ID 的成绩
func (s *ArchiveService) ComedianHistory(ctx context.Context, id string) (*ComedianHistory, error) {
	c, err := s.columns(ctx)
	if err != nil {
		return nil, err
	}
	self, err := s.comedians.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if self == nil {
		return nil, fmt.Errorf("%w: %s", ErrComedianNotFound, id)
	}
	root, err := resolveRoot(id, c.links)
	if err != nil {
		return nil, err
	}
	rootRow, err := s.comedians.GetByID(ctx, root)
	if err != nil {
		return nil, err
	}
	ids, err := s.archive.CanonicalIDsSharingRoot(ctx, root)
	if err != nil {
		return nil, err
	}

	rows, err := s.archive.ResultsByComedians(ctx, ids, c.keys())
	if err != nil {
		return nil, fmt.Errorf("查询艺人成绩失败: %w", err)
	}
	editionIDs := make([]uint64, 0, len(rows))
	for _, r := range rows {
		editionIDs = append(editionIDs, r.EditionID)
	}
	used, err := s.meta.ListUsedColumns(ctx, editionIDs)
	if err != nil {
		return nil, err
	}

	out := &ComedianHistory{Comedian: rootRow, IDs: ids}
	for _, r := range rows {
		n := len(out.Competitions)
		if n == 0 || out.Competitions[n-1].Key != r.CompKey {
			out.Competitions = append(out.Competitions, CompetitionHistory{Key: r.CompKey, Name: r.CompName})
			n++
		}
		ch := &out.Competitions[n-1]
		m := len(ch.Years)
		if m == 0 || ch.Years[m-1].EditionID != r.EditionID {
			cols := c.visible(used[r.EditionID])
			ch.Years = append(ch.Years, HistoryYear{EditionID: r.EditionID, Year: r.Year, Columns: cols})
			m++
		}
		y := &ch.Years[m-1]
		y.Rows = append(y.Rows, s.toRow(c, r, carriedKeys(y.Columns)))
	}
	return out, nil
}

var ordinals = []string{"first", "second", "third", "fourth", "fifth"}

// RoundOrderColumn 第 round 轮的出场顺列名（first_order, second_order, ...）
func RoundOrderColumn(round int) string {
	if round < 1 || round > len(ordinals) {
		return ""
	}
	return ordinals[round-1] + "_order"
}

// JudgeScores 个票表：只包含该轮至少有一个个票的参赛者；合计为已有个票之和
func (s *ArchiveService) JudgeScores(ctx context.Context, comp string, year, round int) (*ScoreTable, error) {
	c, err := s.columns(ctx)
	if err != nil {
		return nil, err
	}
	e, err := s.comps.GetEditionByCompYear(ctx, comp, year)
	if err != nil || e == nil {
		return nil, err
	}
	seats, err := s.archive.EditionSeats(ctx, e.ID)
	if err != nil {
		return nil, err
	}
	orderCol := RoundOrderColumn(round)
	if _, ok := c.byKey[orderCol]; !ok {
		orderCol = ""
	}
	entrants, err := s.archive.RoundEntrants(ctx, e.ID, round, orderCol)
	if err != nil {
		return nil, err
	}
	scores, err := s.archive.RoundScores(ctx, e.ID, round)
	if err != nil {
		return nil, err
	}
	bySeat := make(map[string]map[int]float64)
	for _, sc := range scores {
		m, ok := bySeat[sc.ComedianID]
		if !ok {
			m = make(map[int]float64)
			bySeat[sc.ComedianID] = m
		}
		m[sc.SeatNo] = sc.Score
	}

	out := &ScoreTable{Round: round, Seats: make([]JudgeSeat, 0, len(seats)), Rows: make([]ScoreLine, 0, len(entrants))}
	for _, st := range seats {
		out.Seats = append(out.Seats, JudgeSeat{SeatNo: st.SeatNo, JudgeID: st.JudgeID, Name: st.JudgeName})
	}
	for _, en := range entrants {
		line := ScoreLine{
			ComedianID: en.ComedianID,
			Name:       en.Name,
			Reading:    en.Reading,
			Rank:       en.Rank,
			OrderNo:    en.OrderNo,
			BySeat:     map[int]float64{},
		}
		// 只计审查员名单上的席位，名单外的个票不显示也不计入合计
		got := bySeat[en.ComedianID]
		total := decimal.Zero
		for _, st := range out.Seats {
			v, ok := got[st.SeatNo]
			if !ok {
				continue
			}
			line.BySeat[st.SeatNo] = v
			total = total.Add(decimal.NewFromFloat(v))
		}
		if len(line.BySeat) > 0 {
			line.Total = &total
		}
		out.Rows = append(out.Rows, line)
	}
	return out, nil
}

// ListCompetitions 按显示顺序
func (s *ArchiveService) ListCompetitions(ctx context.Context) ([]*model.Competition, error) {
	return s.comps.ListCompetitions(ctx)
}

// ListEditionYears 有年份的回（新的在前）
func (s *ArchiveService) ListEditionYears(ctx context.Context, comp string) ([]int, error) {
	cc, err := s.comps.GetCompetitionByKey(ctx, comp)
	if err != nil {
		return nil, err
	}
	if cc == nil {
		return nil, fmt.Errorf("%w: %s", ErrCompetitionNotFound, comp)
	}
	editions, err := s.comps.ListEditions(ctx, cc.ID)
	if err != nil {
		return nil, err
	}
	years := make([]int, 0, len(editions))
	for _, e := range editions {
		if e.Year != nil {
			years = append(years, *e.Year)
		}
	}
	return years, nil
}

// EditionJudges 某回的审查员（按席位）
func (s *ArchiveService) EditionJudges(ctx context.Context, comp string, year int) ([]JudgeSeat, error) {
	e, err := s.comps.GetEditionByCompYear(ctx, comp, year)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, fmt.Errorf("%w: %s %d", ErrEditionNotFound, comp, year)
	}
	seats, err := s.archive.EditionSeats(ctx, e.ID)
	if err != nil {
		return nil, err
	}
	out := make([]JudgeSeat, 0, len(seats))
	for _, st := range seats {
		out = append(out, JudgeSeat{SeatNo: st.SeatNo, JudgeID: st.JudgeID, Name: st.JudgeName})
	}
	return out, nil
}

// ListCanonicalComedians 代表条目一览（读音顺）
func (s *ArchiveService) ListCanonicalComedians(ctx context.Context) ([]*model.Comedian, error) {
	return s.comedians.ListCanonical(ctx)
}

// UnitMembers 组合的成员
func (s *ArchiveService) UnitMembers(ctx context.Context, unitID string) ([]*model.Comedian, error) {
	return s.comedians.ListMembers(ctx, unitID)
}

// SourceFiles 最近一次导入的源 CSV 清单
func (s *ArchiveService) SourceFiles(ctx context.Context) ([]model.SourceFile, error) {
	return s.meta.ListSourceFiles(ctx)
}

// PersonUnits 个人所属的组合
func (s *ArchiveService) PersonUnits(ctx context.Context, personID string) ([]*model.Comedian, error) {
	return s.comedians.ListUnits(ctx, personID)
}
