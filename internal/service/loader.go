package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"OwaraiArchive/internal/canon"
	"OwaraiArchive/internal/identity"
	"OwaraiArchive/internal/interfaces"
	"OwaraiArchive/internal/model"
	"OwaraiArchive/internal/rank"
	"OwaraiArchive/internal/repository"
	"OwaraiArchive/internal/schema"
	"OwaraiArchive/internal/store"
	"OwaraiArchive/internal/utils/csvutil"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// LoaderOptions 导入参数
type LoaderOptions struct {
	RankTable rank.Table
	Overrides schema.Overrides
}

// Loader 读取种子 CSV，在临时库上按依赖顺序 upsert，再交给 Publisher 原子发布
type Loader struct {
	src       interfaces.SeedSource
	publisher *store.Publisher
	logger    *logrus.Logger
	opts      LoaderOptions
}

func NewLoader(src interfaces.SeedSource, publisher *store.Publisher, logger *logrus.Logger, opts LoaderOptions) *Loader {
	if opts.RankTable.Literals == nil {
		opts.RankTable, _ = rank.Lookup("")
	}
	if opts.Overrides == nil {
		opts.Overrides = schema.DefaultOverrides()
	}
	return &Loader{src: src, publisher: publisher, logger: logger, opts: opts}
}

// Run 执行一次完整导入。任何致命错误都会丢弃临时库，已发布库保持不变。
func (l *Loader) Run(ctx context.Context, mode store.Mode) (*Summary, error) {
	runID := uuid.NewString()
	log := l.logger.WithFields(logrus.Fields{"run_id": runID, "mode": mode.String()})
	summary := newSummary(runID, mode.String())

	tables, err := l.readAll()
	if err != nil {
		return nil, err
	}

	var published []schema.Column
	if mode == store.ModeReset {
		if published, err = l.publishedColumns(ctx); err != nil {
			return nil, err
		}
	}

	err = l.publisher.Publish(ctx, mode, func(ctx context.Context, st *store.Staging) error {
		return l.Build(ctx, st, tables, published, summary, log)
	})
	if err != nil {
		log.WithError(err).Error("导入失败，已发布库未改动")
		return nil, err
	}
	log.Info("导入完成")
	return summary, nil
}

// Skip --no-reset：不读取也不改动任何文件
func (l *Loader) Skip() *Summary {
	s := newSummary(uuid.NewString(), "skip")
	s.Skipped = true
	l.logger.WithField("run_id", s.RunID).Info("--no-reset 指定，跳过导入")
	return s
}

func (l *Loader) readAll() (map[string]*csvutil.Table, error) {
	out := make(map[string]*csvutil.Table)
	for _, name := range interfaces.SeedFiles() {
		t, err := l.src.Table(name)
		if err != nil {
			return nil, err
		}
		if t.Missing {
			l.logger.WithField("file", name).Info("文件不存在，按空表处理")
		}
		out[name] = t
	}
	return out, nil
}

// publishedColumns 已发布库里的追加列。重建模式下这些列即使从表头消失也会保留。
func (l *Loader) publishedColumns(ctx context.Context) ([]schema.Column, error) {
	if !store.Exists(l.publisher.DBPath()) {
		return nil, nil
	}
	pub, err := store.OpenPublished(l.publisher.DBPath(), l.logger)
	if err != nil {
		return nil, err
	}
	defer pub.Close()
	cols, err := schema.ExistingColumns(ctx, pub.DB())
	if err != nil {
		return nil, fmt.Errorf("读取已发布库的追加列失败: %w", err)
	}
	return cols, nil
}

// Build 在临时库上执行：扩展表结构 → 基础数据事务 → 派生元数据事务
func (l *Loader) Build(ctx context.Context, st *store.Staging, tables map[string]*csvutil.Table, published []schema.Column, summary *Summary, log *logrus.Entry) error {
	results := tables[interfaces.FinalResultsCSV]

	existing, err := schema.ExistingColumns(ctx, st.DB())
	if err != nil {
		return err
	}
	previous := mergeColumns(existing, published)
	cols, err := schema.Plan(results.Header, results.NonBlank, previous)
	if err != nil {
		return rowErr(interfaces.FinalResultsCSV, 1, err)
	}
	if _, err := schema.Apply(ctx, st.DB(), cols); err != nil {
		return err
	}
	// 已存在的列沿用库中的类型
	types := make(map[string]string, len(existing))
	for _, c := range existing {
		types[c.Name] = c.Type
	}
	var headerCols []schema.Column
	for i := range cols {
		if t, ok := types[cols[i].Name]; ok {
			cols[i].Type = t
		}
		summary.Columns = append(summary.Columns, cols[i].Name)
		if cols[i].Carried {
			summary.Carried = append(summary.Carried, cols[i].Name)
			log.WithField("column", cols[i].Name).Warn("列已从final_results.csv表头消失，保留旧列")
			continue
		}
		headerCols = append(headerCols, cols[i])
	}

	err = st.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b := &batch{
			tx:        tx,
			log:       log,
			summary:   summary,
			rankTable: l.opts.RankTable,
			comps:     repository.NewCompetitionRepository(tx),
			comedians: repository.NewComedianRepository(tx),
			results:   repository.NewResultRepository(tx),
			editions:  make(map[string]uint64),
		}
		b.resolver = identity.NewResolver(b.comedians)
		return b.run(ctx, tables, headerCols)
	})
	if err != nil {
		return err
	}
	log.Info("基础数据写入完成")

	err = st.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		meta := repository.NewMetaRepository(tx)
		if err := meta.UpsertColumnMeta(ctx, schema.BuildMeta(cols, l.opts.Overrides)); err != nil {
			return err
		}
		names := make([]string, len(cols))
		for i, c := range cols {
			names[i] = c.Name
		}
		if err := meta.RebuildUsedColumns(ctx, names); err != nil {
			return err
		}
		for _, name := range interfaces.SeedFiles() {
			t := tables[name]
			if t.Missing {
				continue
			}
			header, err := json.Marshal(t.Header)
			if err != nil {
				return err
			}
			if err := meta.UpsertSourceFile(ctx, &model.SourceFile{
				Name:     name,
				SHA256:   t.SHA256,
				RowCount: len(t.Rows),
				Header:   datatypes.JSON(header),
			}); err != nil {
				return fmt.Errorf("写入源文件清单失败: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	log.WithField("columns", len(cols)).Info("派生元数据重建完成")
	return nil
}

func mergeColumns(a, b []schema.Column) []schema.Column {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]schema.Column, 0, len(a)+len(b))
	for _, list := range [][]schema.Column{a, b} {
		for _, c := range list {
			if _, ok := seen[c.Name]; ok {
				continue
			}
			seen[c.Name] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}

// batch 单个基础数据事务内的状态
type batch struct {
	tx        *gorm.DB
	log       *logrus.Entry
	summary   *Summary
	rankTable rank.Table
	comps     repository.CompetitionRepository
	comedians repository.ComedianRepository
	results   repository.ResultRepository
	resolver  *identity.Resolver
	editions  map[string]uint64 // "comp/year" → edition_id
}

type phase struct {
	file  string
	model any
	fn    func(ctx context.Context, t *csvutil.Table) error
}

func (b *batch) run(ctx context.Context, tables map[string]*csvutil.Table, cols []schema.Column) error {
	phases := []phase{
		{interfaces.CompetitionsCSV, &model.Competition{}, b.loadCompetitions},
		{interfaces.EditionsCSV, &model.Edition{}, b.loadEditions},
		{interfaces.ComediansCSV, &model.Comedian{}, b.loadComedians},
		{interfaces.MembershipsCSV, &model.Membership{}, b.loadMemberships},
		{interfaces.FinalResultsCSV, &model.FinalResult{}, func(ctx context.Context, t *csvutil.Table) error {
			return b.loadResults(ctx, t, cols)
		}},
		{interfaces.JudgesCSV, &model.Judge{}, b.loadJudges},
		{interfaces.EditionJudgesCSV, &model.EditionJudge{}, b.loadEditionJudges},
		{interfaces.JudgeScoresCSV, &model.JudgeScore{}, b.loadJudgeScores},
	}
	for _, p := range phases {
		before, err := b.count(ctx, p.model)
		if err != nil {
			return err
		}
		if err := p.fn(ctx, tables[p.file]); err != nil {
			return err
		}
		after, err := b.count(ctx, p.model)
		if err != nil {
			return err
		}
		b.summary.table(p.file).Created = int(after - before)
	}
	return nil
}

func (b *batch) count(ctx context.Context, m any) (int64, error) {
	var n int64
	if err := b.tx.WithContext(ctx).Model(m).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (b *batch) skip(file string, row csvutil.Row, reason string) {
	b.summary.table(file).Skipped++
	b.log.WithFields(logrus.Fields{"table": file, "line": row.Line}).Warn(reason)
}

func (b *batch) loadCompetitions(ctx context.Context, t *csvutil.Table) error {
	for _, row := range t.Rows {
		b.summary.table(t.Name).Processed++
		key := row.Get("key")
		if key == "" {
			b.skip(t.Name, row, "key为空，跳过")
			continue
		}
		name := canon.Normalize(row.Get("name"))
		if name == "" {
			name = key
		}
		sortOrder, err := optInt(row.Get("sort_order"))
		if err != nil {
			return rowErr(t.Name, row.Line, fmt.Errorf("sort_order: %w", err))
		}
		c := &model.Competition{Key: key, Name: name, SortOrder: sortOrder}
		if err := b.comps.UpsertCompetition(ctx, c); err != nil {
			return rowErr(t.Name, row.Line, err)
		}
	}
	return nil
}

func (b *batch) loadEditions(ctx context.Context, t *csvutil.Table) error {
	for _, row := range t.Rows {
		b.summary.table(t.Name).Processed++
		comp, err := b.comps.GetCompetitionByKey(ctx, row.Get("comp"))
		if err != nil {
			return rowErr(t.Name, row.Line, err)
		}
		if comp == nil {
			return rowErr(t.Name, row.Line, fmt.Errorf("%w: %s", ErrCompetitionNotFound, row.Get("comp")))
		}
		year, err := optInt(row.Get("year"))
		if err != nil {
			return rowErr(t.Name, row.Line, fmt.Errorf("year: %w", err))
		}
		seq, err := optInt(row.Get("seq_no"))
		if err != nil {
			return rowErr(t.Name, row.Line, fmt.Errorf("seq_no: %w", err))
		}
		e := &model.Edition{
			CompetitionID: comp.ID,
			Year:          year,
			Title:         optString(canon.Normalize(row.Get("title"))),
			SeqNo:         seq,
			FinalDate:     optString(row.Get("final_date")),
			ShortLabel:    optString(row.Get("short_label")),
		}
		if err := b.comps.UpsertEdition(ctx, e); err != nil {
			return rowErr(t.Name, row.Line, err)
		}
	}
	return nil
}

// canonicalRef comedians.csv 中一条改名链接
type canonicalRef struct {
	line   int
	id     string
	target string
}

func (b *batch) loadComedians(ctx context.Context, t *csvutil.Table) error {
	var refs []canonicalRef
	for _, row := range t.Rows {
		b.summary.table(t.Name).Processed++
		name := canon.Normalize(row.Get("name"))
		if name == "" {
			b.skip(t.Name, row, "name为空，跳过")
			continue
		}
		note := identity.NormalizeNote(row.First("note", "number"))
		reading := canon.NormalizeReading(row.Get("reading"))
		if reading == nil {
			reading = canon.GuessReading(name)
		}
		c := &model.Comedian{
			ID:            identity.ComedianID(name, identity.NoteValue(note)),
			Name:          name,
			Disambiguator: note,
			Reading:       reading,
			Kind:          b.parseKind(t.Name, row),
			BirthDate:     optString(row.Get("birth_date")),
			FormedDate:    optString(row.Get("formed_date")),
		}
		if err := b.comedians.Upsert(ctx, c); err != nil {
			return rowErr(t.Name, row.Line, err)
		}

		target := row.Get("canonical_id")
		if target == "" {
			if cn := canon.Normalize(row.Get("canonical_name")); cn != "" {
				target = identity.ComedianID(cn, row.Get("canonical_note"))
			}
		}
		if target != "" {
			refs = append(refs, canonicalRef{line: row.Line, id: c.ID, target: target})
		}
	}
	return b.linkCanonical(ctx, t.Name, refs)
}

// linkCanonical 全部艺人写入后再建立链接，目标必须存在且不能成环
func (b *batch) linkCanonical(ctx context.Context, file string, refs []canonicalRef) error {
	for _, ref := range refs {
		if ref.target == ref.id {
			return rowErr(file, ref.line, fmt.Errorf("%w: %s 指向自身", ErrCanonicalCycle, ref.id))
		}
		target, err := b.comedians.GetByID(ctx, ref.target)
		if err != nil {
			return rowErr(file, ref.line, err)
		}
		if target == nil {
			return rowErr(file, ref.line, fmt.Errorf("%w: canonical %s", ErrComedianNotFound, ref.target))
		}
		if err := b.comedians.SetCanonical(ctx, ref.id, ref.target); err != nil {
			return rowErr(file, ref.line, err)
		}
	}
	if len(refs) == 0 {
		return nil
	}

	links, err := b.comedians.CanonicalLinks(ctx)
	if err != nil {
		return err
	}
	for _, ref := range refs {
		if _, err := resolveRoot(ref.id, links); err != nil {
			return rowErr(file, ref.line, err)
		}
	}
	return nil
}

// resolveRoot 沿 canonical 链走到终点
func resolveRoot(id string, links map[string]string) (string, error) {
	seen := map[string]struct{}{id: {}}
	cur := id
	for {
		next, ok := links[cur]
		if !ok {
			return cur, nil
		}
		if _, loop := seen[next]; loop {
			return "", fmt.Errorf("%w: %s → %s", ErrCanonicalCycle, id, next)
		}
		seen[next] = struct{}{}
		cur = next
	}
}

func (b *batch) parseKind(file string, row csvutil.Row) *string {
	v := strings.ToLower(row.Get("kind"))
	switch v {
	case "":
		return nil
	case model.KindPerson, model.KindUnit:
		return &v
	}
	b.log.WithFields(logrus.Fields{"table": file, "line": row.Line, "kind": row.Get("kind")}).Warn("未知的kind，忽略")
	return nil
}

func (b *batch) loadMemberships(ctx context.Context, t *csvutil.Table) error {
	for _, row := range t.Rows {
		b.summary.table(t.Name).Processed++
		unit, err := b.lookupComedian(ctx, row.Get("unit_name"), row.Get("unit_note"))
		if err != nil {
			return rowErr(t.Name, row.Line, err)
		}
		person, err := b.lookupComedian(ctx, row.Get("person_name"), row.Get("person_note"))
		if err != nil {
			return rowErr(t.Name, row.Line, err)
		}
		if err := b.ensureKind(ctx, unit, model.KindUnit); err != nil {
			return rowErr(t.Name, row.Line, err)
		}
		// 同一条目同时作为组合和成员时，person 需看到刚写入的 unit 类别
		if person.ID == unit.ID {
			person = unit
		}
		if err := b.ensureKind(ctx, person, model.KindPerson); err != nil {
			return rowErr(t.Name, row.Line, err)
		}
		if _, err := b.comedians.AddMembership(ctx, unit.ID, person.ID); err != nil {
			return rowErr(t.Name, row.Line, err)
		}
	}
	return nil
}

func (b *batch) lookupComedian(ctx context.Context, name, note string) (*model.Comedian, error) {
	n := canon.Normalize(name)
	c, err := b.comedians.FindByName(ctx, n, identity.NormalizeNote(note))
	if err != nil {
		return nil, err
	}
	if c == nil {
		if note != "" {
			return nil, fmt.Errorf("%w: %s (%s)", ErrComedianNotFound, n, note)
		}
		return nil, fmt.Errorf("%w: %s", ErrComedianNotFound, n)
	}
	return c, nil
}

// ensureKind kind 为空时写入；已有不同的 kind 为致命错误
func (b *batch) ensureKind(ctx context.Context, c *model.Comedian, kind string) error {
	if c.Kind == nil {
		if err := b.comedians.SetKind(ctx, c.ID, kind); err != nil {
			return err
		}
		c.Kind = &kind
		return nil
	}
	if *c.Kind != kind {
		return &KindConflictError{ComedianID: c.ID, Name: c.Name, Existing: *c.Kind, Wanted: kind}
	}
	return nil
}

func (b *batch) edition(ctx context.Context, comp, yearText string) (uint64, error) {
	key := comp + "/" + yearText
	if id, ok := b.editions[key]; ok {
		return id, nil
	}
	year, err := strconv.Atoi(yearText)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", ErrEditionNotFound, comp, yearText)
	}
	e, err := b.comps.GetEditionByCompYear(ctx, comp, year)
	if err != nil {
		return 0, err
	}
	if e == nil {
		return 0, fmt.Errorf("%w: %s %d", ErrEditionNotFound, comp, year)
	}
	b.editions[key] = e.ID
	return e.ID, nil
}

func (b *batch) loadResults(ctx context.Context, t *csvutil.Table, cols []schema.Column) error {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	for _, row := range t.Rows {
		b.summary.table(t.Name).Processed++
		edID, err := b.edition(ctx, row.Get("comp"), row.Get("year"))
		if err != nil {
			return rowErr(t.Name, row.Line, err)
		}
		name := row.Get("comedian_name")
		if canon.Normalize(name) == "" {
			b.skip(t.Name, row, "comedian_name为空，跳过")
			continue
		}
		note := identity.NormalizeNote(row.First("comedian_note", "comedian_number"))
		c, _, err := b.resolver.ResolveOrCreate(ctx, name, note)
		if err != nil {
			return rowErr(t.Name, row.Line, err)
		}

		rankText := row.Get("rank")
		fr := &model.FinalResult{
			EditionID:  edID,
			ComedianID: c.ID,
			Rank:       rankText,
			RankSort:   b.rankTable.Sort(rankText),
			Extras:     make(map[string]any, len(cols)),
		}
		for _, col := range cols {
			fr.Extras[col.Name] = convertValue(row.Get(col.Name), col.Type)
		}
		if err := b.results.UpsertResult(ctx, fr, names); err != nil {
			return rowErr(t.Name, row.Line, err)
		}
	}
	return nil
}

func (b *batch) loadJudges(ctx context.Context, t *csvutil.Table) error {
	for _, row := range t.Rows {
		b.summary.table(t.Name).Processed++
		name := canon.Normalize(row.Get("name"))
		if name == "" {
			b.skip(t.Name, row, "审查员名为空，跳过")
			continue
		}
		if _, err := b.results.UpsertJudge(ctx, &model.Judge{ID: identity.JudgeID(name), Name: name}); err != nil {
			return rowErr(t.Name, row.Line, err)
		}
	}
	return nil
}

func (b *batch) loadEditionJudges(ctx context.Context, t *csvutil.Table) error {
	for _, row := range t.Rows {
		b.summary.table(t.Name).Processed++
		seat, err := strconv.Atoi(row.Get("seat_no"))
		judgeName := canon.Normalize(row.Get("judge_name"))
		if err != nil || judgeName == "" {
			b.skip(t.Name, row, "seat_no不是数字或judge_name为空，跳过")
			continue
		}
		edID, err := b.edition(ctx, row.Get("comp"), row.Get("year"))
		if err != nil {
			return rowErr(t.Name, row.Line, err)
		}
		judge := &model.Judge{ID: identity.JudgeID(judgeName), Name: judgeName}
		if _, err := b.results.UpsertJudge(ctx, judge); err != nil {
			return rowErr(t.Name, row.Line, err)
		}
		if err := b.results.UpsertSeat(ctx, &model.EditionJudge{EditionID: edID, SeatNo: seat, JudgeID: judge.ID}); err != nil {
			return rowErr(t.Name, row.Line, err)
		}
	}
	return nil
}

func (b *batch) loadJudgeScores(ctx context.Context, t *csvutil.Table) error {
	for _, row := range t.Rows {
		b.summary.table(t.Name).Processed++
		round, errRound := strconv.Atoi(row.Get("round_no"))
		seat, errSeat := strconv.Atoi(row.Get("seat_no"))
		if errRound != nil || errSeat != nil {
			b.skip(t.Name, row, "round_no或seat_no不是数字，跳过")
			continue
		}
		edID, err := b.edition(ctx, row.Get("comp"), row.Get("year"))
		if err != nil {
			return rowErr(t.Name, row.Line, err)
		}
		name := row.Get("comedian_name")
		if canon.Normalize(name) == "" {
			b.skip(t.Name, row, "comedian_name为空，跳过")
			continue
		}
		scoreText := row.Get("score")
		if scoreText == "" {
			b.skip(t.Name, row, "score为空，跳过")
			continue
		}
		score, err := strconv.ParseFloat(scoreText, 64)
		if err != nil {
			b.skip(t.Name, row, "score不是数字，跳过")
			continue
		}
		note := identity.NormalizeNote(row.First("comedian_note", "comedian_number"))
		c, _, err := b.resolver.ResolveOrCreate(ctx, name, note)
		if err != nil {
			return rowErr(t.Name, row.Line, err)
		}
		if err := b.results.UpsertScore(ctx, &model.JudgeScore{
			EditionID:  edID,
			RoundNo:    round,
			ComedianID: c.ID,
			SeatNo:     seat,
			Score:      score,
		}); err != nil {
			return rowErr(t.Name, row.Line, err)
		}
	}
	return nil
}

// convertValue 按列的存储类型转换，空白为 NULL；转换失败时原样存文本
func convertValue(v, typ string) any {
	if v == "" {
		return nil
	}
	switch typ {
	case schema.TypeInteger:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	case schema.TypeReal:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return v
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optInt(s string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("%w: 不是整数: %s", ErrInvalidValue, s)
	}
	return &n, nil
}
