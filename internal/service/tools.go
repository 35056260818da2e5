package service

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"OwaraiArchive/internal/canon"
	"OwaraiArchive/internal/utils/csvutil"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"golang.org/x/text/unicode/norm"
)

// ===== scores_wide.csv → judge_scores.csv =====

// JudgeScoresHeader judge_scores.csv 的表头
var JudgeScoresHeader = []string{"comp", "year", "round_no", "comedian_name", "comedian_number", "seat_no", "score"}

var (
	reSeatCol  = regexp.MustCompile(`^(?i:seat)_(\d+)$`)
	reNotScore = regexp.MustCompile(`[^\d.]`)
)

type longScore struct {
	comp, name, number string
	year, round, seat  int
	score              float64
}

// ConvertWideScores 横表（每席一列 seat_1..seat_N）转为纵表。
// 空单元格跳过；「94点」之类去掉非数字字符后解析；输出按 (comp, year, round, name, seat) 排序。
func ConvertWideScores(in *csvutil.Table) ([][]string, error) {
	for _, col := range []string{"comp", "year", "round_no", "comedian_name", "comedian_number"} {
		if !in.Has(col) {
			return nil, fmt.Errorf("缺少必需列: %s", col)
		}
	}
	type seatCol struct {
		name string
		no   int
	}
	var seats []seatCol
	for _, h := range in.Header {
		if m := reSeatCol.FindStringSubmatch(h); m != nil {
			n, _ := strconv.Atoi(m[1])
			seats = append(seats, seatCol{name: h, no: n})
		}
	}
	if len(seats) == 0 {
		return nil, fmt.Errorf("没有 seat_* 列（如 seat_1, seat_2, ...）")
	}
	sort.SliceStable(seats, func(i, j int) bool { return seats[i].no < seats[j].no })

	var out []longScore
	for _, row := range in.Rows {
		year, err := strconv.Atoi(row.Get("year"))
		if err != nil {
			return nil, fmt.Errorf("line %d: year 不是整数: %q", row.Line, row.Get("year"))
		}
		round, err := strconv.Atoi(row.Get("round_no"))
		if err != nil {
			return nil, fmt.Errorf("line %d: round_no 不是整数: %q", row.Line, row.Get("round_no"))
		}
		number := canon.Normalize(row.Get("comedian_number"))
		if n, err := strconv.Atoi(number); err == nil {
			number = strconv.Itoa(n)
		}
		for _, s := range seats {
			raw := reNotScore.ReplaceAllString(row.Get(s.name), "")
			if raw == "" {
				continue
			}
			score, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				continue
			}
			out = append(out, longScore{
				comp:   canon.Normalize(row.Get("comp")),
				name:   canon.Normalize(row.Get("comedian_name")),
				number: number,
				year:   year,
				round:  round,
				seat:   s.no,
				score:  score,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.comp != b.comp {
			return a.comp < b.comp
		}
		if a.year != b.year {
			return a.year < b.year
		}
		if a.round != b.round {
			return a.round < b.round
		}
		if a.name != b.name {
			return a.name < b.name
		}
		return a.seat < b.seat
	})

	rows := make([][]string, 0, len(out))
	for _, s := range out {
		rows = append(rows, []string{
			s.comp,
			strconv.Itoa(s.year),
			strconv.Itoa(s.round),
			s.name,
			s.number,
			strconv.Itoa(s.seat),
			strconv.FormatFloat(s.score, 'f', -1, 64),
		})
	}
	return rows, nil
}

// ===== final_results.csv → comedians.csv 同步 =====

// ComediansHeader comedians.csv 的固定列（已有文件的其他列排在后面原样保留）
var ComediansHeader = []string{"name", "note", "reading", "kind", "birth_date", "formed_date"}

// VariantGroup 同一 note 内 FuzzyKey 相同但写法不同的名字（强候补）
type VariantGroup struct {
	Note  string
	Key   string
	Names []string
}

// NearPair 同一 note 内编辑距离 ≤ 1 的名字（弱候补）
type NearPair struct {
	Note     string
	A, B     string
	Distance int
}

// SyncReport 同步结果
type SyncReport struct {
	Header        []string
	Rows          [][]string
	Inserted      int
	ReadingFilled int
	Strong        []VariantGroup
	Weak          []NearPair
}

// SyncComedians 把成绩表中出现但台账中没有的 (name, note) 追加到台账末尾（已有行顺序不变），
// 为只由假名组成的名字补读音，并找出表记摇摆候补。只做 trim，不做 NFKC。
func SyncComedians(comedians, results *csvutil.Table) *SyncReport {
	header := append([]string(nil), ComediansHeader...)
	for _, h := range comedians.Header {
		if h != "" && !contains(header, h) {
			header = append(header, h)
		}
	}

	type entry struct {
		index int
		name  string
	}
	rep := &SyncReport{Header: header}
	existing := make(map[string]*entry)
	for i, row := range comedians.Rows {
		rec := make([]string, len(header))
		for j, h := range header {
			rec[j] = row.Get(h)
		}
		rec[1] = row.First("note", "number")
		rep.Rows = append(rep.Rows, rec)
		existing[noteKey(rec[0], rec[1])] = &entry{index: i, name: rec[0]}
	}

	readingIdx := indexOf(header, "reading")
	seen := make(map[string]struct{})
	for _, row := range results.Rows {
		name := row.Get("comedian_name")
		if name == "" {
			continue
		}
		note := row.First("comedian_note", "comedian_number")
		k := noteKey(name, note)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}

		if e, ok := existing[k]; ok {
			rec := rep.Rows[e.index]
			if rec[readingIdx] == "" {
				if guess := syncReading(e.name); guess != "" {
					rec[readingIdx] = guess
					rep.ReadingFilled++
				}
			}
			continue
		}
		rec := make([]string, len(header))
		rec[0], rec[1], rec[readingIdx] = name, note, syncReading(name)
		rep.Rows = append(rep.Rows, rec)
		existing[k] = &entry{index: len(rep.Rows) - 1, name: name}
		rep.Inserted++
	}

	rep.Strong, rep.Weak = findVariants(rep.Rows)
	return rep
}

func syncReading(name string) string {
	if !canon.IsKanaOnly(name) {
		return ""
	}
	return canon.StripReadingSymbols(canon.ToHiragana(strings.TrimSpace(name)))
}

func findVariants(rows [][]string) ([]VariantGroup, []NearPair) {
	var notes []string
	byNote := make(map[string][]string)
	for _, r := range rows {
		note := r[1]
		if _, ok := byNote[note]; !ok {
			notes = append(notes, note)
		}
		if !contains(byNote[note], r[0]) {
			byNote[note] = append(byNote[note], r[0])
		}
	}

	var strong []VariantGroup
	var weak []NearPair
	for _, note := range notes {
		names := byNote[note]

		var keys []string
		byKey := make(map[string][]string)
		for _, n := range names {
			k := canon.FuzzyKey(n)
			if _, ok := byKey[k]; !ok {
				keys = append(keys, k)
			}
			byKey[k] = append(byKey[k], n)
		}
		for _, k := range keys {
			if len(byKey[k]) >= 2 {
				strong = append(strong, VariantGroup{Note: note, Key: k, Names: byKey[k]})
			}
		}

		for i := 0; i < len(names); i++ {
			for j := i + 1; j < len(names); j++ {
				a := strings.TrimSpace(norm.NFKC.String(names[i]))
				b := strings.TrimSpace(norm.NFKC.String(names[j]))
				if a == b {
					continue
				}
				if d := fuzzy.LevenshteinDistance(a, b); d <= 1 {
					weak = append(weak, NearPair{Note: note, A: names[i], B: names[j], Distance: d})
				}
			}
		}
	}
	return strong, weak
}

func noteKey(name, note string) string {
	return strings.TrimSpace(name) + "||" + strings.TrimSpace(note)
}

func contains(list []string, s string) bool {
	return indexOf(list, s) >= 0
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}
