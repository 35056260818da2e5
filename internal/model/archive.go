package model

// Competition 大会（m1 / koc / r1 等）
type Competition struct {
	ID        uint64 `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	Key       string `gorm:"column:key;type:text;uniqueIndex;not null" json:"key"`
	Name      string `gorm:"column:name;type:text;not null" json:"name"`
	SortOrder *int   `gorm:"column:sort_order;type:integer" json:"sort_order"` // 显示顺序，NULL 排最后，同值按 key
}

// Edition 大会×年度。year 为 NULL 表示尚未对应到具体年份的占位回
type Edition struct {
	ID            uint64       `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	CompetitionID uint64       `gorm:"column:competition_id;not null;uniqueIndex:uq_editions_comp_year,priority:1;index:idx_editions_comp_seq,priority:1" json:"-"`
	Year          *int         `gorm:"column:year;type:integer;uniqueIndex:uq_editions_comp_year,priority:2" json:"year"`
	Title         *string      `gorm:"column:title;type:text" json:"title"`
	SeqNo         *int         `gorm:"column:seq_no;type:integer;index:idx_editions_comp_seq,priority:2" json:"seq_no"`
	FinalDate     *string      `gorm:"column:final_date;type:text" json:"final_date"` // 'YYYY-MM-DD'
	ShortLabel    *string      `gorm:"column:short_label;type:text" json:"short_label"`
	Competition   *Competition `gorm:"foreignKey:CompetitionID;references:ID" json:"-"`
}

// 艺人类别
const (
	KindPerson = "person"
	KindUnit   = "unit"
)

// Comedian 艺人/组合。ID 由 (name, disambiguator) 派生，不由录入者指定。
// 改名时历史记录保留自己的 ID，canonical_id 指向代表条目用于聚合显示。
type Comedian struct {
	ID            string    `gorm:"column:id;primaryKey;type:text" json:"id"`
	Name          string    `gorm:"column:name;type:text;not null;index:idx_comedians_name_note,priority:1" json:"name"`
	Disambiguator *string   `gorm:"column:disambiguator;type:text;index:idx_comedians_name_note,priority:2" json:"disambiguator"`
	Reading       *string   `gorm:"column:reading;type:text" json:"reading"` // 平假名
	Kind          *string   `gorm:"column:kind;type:text" json:"kind"`       // person / unit / NULL
	BirthDate     *string   `gorm:"column:birth_date;type:text" json:"birth_date"`
	FormedDate    *string   `gorm:"column:formed_date;type:text" json:"formed_date"`
	CanonicalID   *string   `gorm:"column:canonical_id;type:text;index" json:"canonical_id"`
	Canonical     *Comedian `gorm:"foreignKey:CanonicalID;references:ID" json:"-"`
}

// Membership 组合(unit) ← 成员(person)
type Membership struct {
	UnitID   string    `gorm:"column:unit_id;type:text;primaryKey"`
	PersonID string    `gorm:"column:person_id;type:text;primaryKey;index"`
	Unit     *Comedian `gorm:"foreignKey:UnitID;references:ID"`
	Person   *Comedian `gorm:"foreignKey:PersonID;references:ID"`
}

// FinalResult 每个 (edition, comedian) 一行。Extras 为 CSV 表头动态发现的追加列，
// 不映射为结构体字段，统一经 schema.Builder 读写。
type FinalResult struct {
	ID         uint64         `gorm:"column:id;primaryKey;autoIncrement"`
	EditionID  uint64         `gorm:"column:edition_id;not null;uniqueIndex:uq_final_results_edition_comedian,priority:1;index:idx_fr_edition_ranksort,priority:1"`
	ComedianID string         `gorm:"column:comedian_id;type:text;not null;uniqueIndex:uq_final_results_edition_comedian,priority:2;index"`
	Rank       string         `gorm:"column:rank;type:text;not null"` // 原文保留
	RankSort   int            `gorm:"column:rank_sort;type:integer;index:idx_fr_edition_ranksort,priority:2"`
	Extras     map[string]any `gorm:"-"`
	Edition    *Edition       `gorm:"foreignKey:EditionID;references:ID"`
	Comedian   *Comedian      `gorm:"foreignKey:ComedianID;references:ID"`
}

// Judge 审查员，ID 仅由名字决定
type Judge struct {
	ID   string `gorm:"column:id;primaryKey;type:text" json:"id"`
	Name string `gorm:"column:name;type:text;uniqueIndex;not null" json:"name"`
}

// EditionJudge 席位：seat_no 决定从左到右的显示顺序，也是个票的关联键
type EditionJudge struct {
	EditionID uint64   `gorm:"column:edition_id;primaryKey;autoIncrement:false"`
	SeatNo    int      `gorm:"column:seat_no;primaryKey;autoIncrement:false"`
	JudgeID   string   `gorm:"column:judge_id;type:text;not null"`
	Edition   *Edition `gorm:"foreignKey:EditionID;references:ID"`
	Judge     *Judge   `gorm:"foreignKey:JudgeID;references:ID"`
}

// JudgeScore 个票
type JudgeScore struct {
	EditionID  uint64    `gorm:"column:edition_id;primaryKey;autoIncrement:false;index:idx_js_edition_round,priority:1"`
	RoundNo    int       `gorm:"column:round_no;primaryKey;autoIncrement:false;index:idx_js_edition_round,priority:2"`
	ComedianID string    `gorm:"column:comedian_id;type:text;primaryKey"`
	SeatNo     int       `gorm:"column:seat_no;primaryKey;autoIncrement:false"`
	Score      float64   `gorm:"column:score;type:real;not null"`
	Edition    *Edition  `gorm:"foreignKey:EditionID;references:ID"`
	Comedian   *Comedian `gorm:"foreignKey:ComedianID;references:ID"`
}

func (Competition) TableName() string  { return "competitions" }
func (Edition) TableName() string      { return "editions" }
func (Comedian) TableName() string     { return "comedians" }
func (Membership) TableName() string   { return "memberships" }
func (FinalResult) TableName() string  { return "final_results" }
func (Judge) TableName() string        { return "judges" }
func (EditionJudge) TableName() string { return "edition_judges" }
func (JudgeScore) TableName() string   { return "judge_scores" }
