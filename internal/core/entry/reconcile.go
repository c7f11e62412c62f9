package entry

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ogurasousui/codex-timesheet/internal/core/project"
)

// CommentRow は日ごとのコメントを保持する疑似行の名前です。
// コメントは日単位であり、その日の全プロジェクトのエントリに共有されます。
const CommentRow = project.ReservedName

// Grid はプロジェクト名から日 (1 始まり) ごとのセル文字列への対応です。キーが無い日は未入力です。
type Grid map[string]map[int]string

// Draft は永続化前のエントリです。プロジェクトは名前で保持します。
type Draft struct {
	Date        time.Time
	Project     string
	Hours       decimal.Decimal
	Kind        Kind
	Description string
}

// Reconciliation はグリッドの照合結果です。
type Reconciliation struct {
	Entries  []Draft
	Failures []CellFailure
}

// Valid は検証失敗が無いかどうかを返します。
func (r Reconciliation) Valid() bool {
	return len(r.Failures) == 0
}

// Reconcile は 1 社員 1 か月分のグリッドを正規のエントリ集合に変換します。
// 結果はプロジェクト名、日の順に並びます。不正なセルはエントリを生成せず Failures に記録されます。
func Reconcile(year int, month time.Month, grid Grid) (Reconciliation, error) {
	if !validPeriod(year, month) {
		return Reconciliation{}, ErrInvalidPeriod
	}

	days := DaysIn(year, month)
	comments := grid[CommentRow]

	projects := make([]string, 0, len(grid))
	for name := range grid {
		if name == CommentRow {
			continue
		}
		projects = append(projects, name)
	}
	sort.Strings(projects)

	var result Reconciliation
	for _, name := range projects {
		cells := grid[name]
		for _, day := range sortedDays(cells) {
			raw := cells[day]
			value, ok, err := ParseCell(raw)
			if err == nil && ok && (day < 1 || day > days) {
				err = ErrDayOutOfRange
			}
			if err != nil {
				result.Failures = append(result.Failures, CellFailure{
					Project: name,
					Day:     day,
					Raw:     raw,
					Reason:  reasonOf(err),
				})
				continue
			}
			if !ok {
				continue
			}

			result.Entries = append(result.Entries, Draft{
				Date:        DateOf(year, month, day),
				Project:     name,
				Hours:       value.Hours,
				Kind:        value.Kind,
				Description: commentFor(comments, day),
			})
		}
	}

	return result, nil
}

func commentFor(comments map[int]string, day int) string {
	raw := comments[day]
	if IsBlank(raw) {
		return ""
	}
	return strings.TrimSpace(raw)
}

func sortedDays(cells map[int]string) []int {
	days := make([]int, 0, len(cells))
	for day := range cells {
		days = append(days, day)
	}
	sort.Ints(days)
	return days
}
