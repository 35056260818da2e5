package store

// schemaDDL 固定表结构，按依赖顺序执行。
// 外键与索引的书写顺序即 sqlite_master 中的顺序，同一输入两次发布的文件逐字节一致。
var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS competitions (
  id INTEGER PRIMARY KEY,
  key TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  sort_order INTEGER
)`,
	`CREATE TABLE IF NOT EXISTS editions (
  id INTEGER PRIMARY KEY,
  competition_id INTEGER NOT NULL REFERENCES competitions(id),
  year INTEGER,
  title TEXT,
  seq_no INTEGER,
  final_date TEXT,
  short_label TEXT
)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_editions_comp_year ON editions(competition_id, year)`,
	`CREATE INDEX IF NOT EXISTS idx_editions_comp_seq ON editions(competition_id, seq_no)`,

	`CREATE TABLE IF NOT EXISTS comedians (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  disambiguator TEXT,
  reading TEXT,
  kind TEXT,
  birth_date TEXT,
  formed_date TEXT,
  canonical_id TEXT REFERENCES comedians(id)
)`,
	`CREATE INDEX IF NOT EXISTS idx_comedians_name_note ON comedians(name, disambiguator)`,
	`CREATE INDEX IF NOT EXISTS idx_comedians_canonical_id ON comedians(canonical_id)`,

	`CREATE TABLE IF NOT EXISTS memberships (
  unit_id TEXT NOT NULL REFERENCES comedians(id),
  person_id TEXT NOT NULL REFERENCES comedians(id),
  PRIMARY KEY (unit_id, person_id)
)`,
	`CREATE INDEX IF NOT EXISTS idx_memberships_person_id ON memberships(person_id)`,

	`CREATE TABLE IF NOT EXISTS final_results (
  id INTEGER PRIMARY KEY,
  edition_id INTEGER NOT NULL REFERENCES editions(id),
  comedian_id TEXT NOT NULL REFERENCES comedians(id),
  rank TEXT NOT NULL,
  rank_sort INTEGER
)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_final_results_edition_comedian ON final_results(edition_id, comedian_id)`,
	`CREATE INDEX IF NOT EXISTS idx_fr_edition_ranksort ON final_results(edition_id, rank_sort)`,
	`CREATE INDEX IF NOT EXISTS idx_final_results_comedian_id ON final_results(comedian_id)`,

	`CREATE TABLE IF NOT EXISTS judges (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE
)`,
	`CREATE TABLE IF NOT EXISTS edition_judges (
  edition_id INTEGER NOT NULL REFERENCES editions(id),
  seat_no INTEGER NOT NULL,
  judge_id TEXT NOT NULL REFERENCES judges(id),
  PRIMARY KEY (edition_id, seat_no)
)`,
	`CREATE TABLE IF NOT EXISTS judge_scores (
  edition_id INTEGER NOT NULL REFERENCES editions(id),
  round_no INTEGER NOT NULL,
  comedian_id TEXT NOT NULL REFERENCES comedians(id),
  seat_no INTEGER NOT NULL,
  score REAL NOT NULL,
  PRIMARY KEY (edition_id, round_no, comedian_id, seat_no)
)`,
	`CREATE INDEX IF NOT EXISTS idx_js_edition_round ON judge_scores(edition_id, round_no)`,

	`CREATE TABLE IF NOT EXISTS columns_meta (
  key TEXT PRIMARY KEY,
  label TEXT NOT NULL,
  pref_order INTEGER,
  is_multiline INTEGER NOT NULL DEFAULT 0,
  col_class TEXT,
  is_hidden INTEGER NOT NULL DEFAULT 0,
  related_key TEXT,
  sql_type TEXT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS edition_used_columns (
  edition_id INTEGER NOT NULL REFERENCES editions(id),
  col_key TEXT NOT NULL,
  PRIMARY KEY (edition_id, col_key)
)`,
	`CREATE TABLE IF NOT EXISTS source_files (
  name TEXT PRIMARY KEY,
  sha256 TEXT NOT NULL,
  row_count INTEGER NOT NULL,
  header TEXT
)`,
}
