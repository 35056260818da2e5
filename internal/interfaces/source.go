package interfaces

import "OwaraiArchive/internal/utils/csvutil"

// 种子文件名
const (
	CompetitionsCSV  = "competitions.csv"
	EditionsCSV      = "editions.csv"
	ComediansCSV     = "comedians.csv"
	MembershipsCSV   = "memberships.csv"
	FinalResultsCSV  = "final_results.csv"
	JudgesCSV        = "judges.csv"
	EditionJudgesCSV = "edition_judges.csv"
	JudgeScoresCSV   = "judge_scores.csv"
)

// SeedSource 种子数据来源。不存在的文件返回 Missing 的空表而不是错误。
type SeedSource interface {
	Table(name string) (*csvutil.Table, error)
}

// SeedFiles 导入时读取的全部文件（按依赖顺序）
func SeedFiles() []string {
	return []string{
		CompetitionsCSV,
		EditionsCSV,
		ComediansCSV,
		MembershipsCSV,
		FinalResultsCSV,
		JudgesCSV,
		EditionJudgesCSV,
		JudgeScoresCSV,
	}
}
