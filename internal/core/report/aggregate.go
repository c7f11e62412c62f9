// Package report はエントリ集合から集計ビューと出力用の表を組み立てます。
// 集計関数はすべて純粋関数で、永続化層には触れません。
package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ogurasousui/codex-timesheet/internal/core/entry"
)

// DeletedEmployee は社員削除により参照が外れたエントリの表示名です。
const DeletedEmployee = "(gelöscht)"

var germanMonths = [...]string{
	"Januar", "Februar", "März", "April", "Mai", "Juni",
	"Juli", "August", "September", "Oktober", "November", "Dezember",
}

// MonthName はドイツ語の月名を返します。
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return m.String()
	}
	return germanMonths[m-1]
}

// FormatHours は帳票用に小数 1 桁で整形します。
func FormatHours(h decimal.Decimal) string {
	return h.StringFixed(1)
}

// Months は月ごとの合計です。添字 0 が 1 月です。
type Months [12]decimal.Decimal

func newMonths() Months {
	var m Months
	for i := range m {
		m[i] = decimal.Zero
	}
	return m
}

// PivotRow はプロジェクト内の社員 1 人分の行です。
type PivotRow struct {
	Employee string
	Months   Months
	Total    decimal.Decimal
}

// ProjectPivot は 1 プロジェクトの 社員 × 月 の表です。MonthTotals と Total が合計行・合計列に当たります。
type ProjectPivot struct {
	Project     string
	Rows        []PivotRow
	MonthTotals Months
	Total       decimal.Decimal
}

// Pivot は年単位のプロジェクト別集計です。
type Pivot struct {
	Year       int
	Projects   []ProjectPivot
	GrandTotal decimal.Decimal
}

// EmployeeLine は社員別帳票の 1 行 (月, プロジェクト) です。
type EmployeeLine struct {
	Month   time.Month
	Project string
	Hours   decimal.Decimal
}

// EmployeeSection は社員 1 人分の帳票です。Lines が空なら稼働記録がありません。
type EmployeeSection struct {
	Employee string
	Lines    []EmployeeLine
	Total    decimal.Decimal
}

// EmployeeReport は社員別の年次帳票です。
type EmployeeReport struct {
	Year       int
	Sections   []EmployeeSection
	GrandTotal decimal.Decimal
}

// ProjectLine はプロジェクト別帳票の 1 行 (社員, 月) です。
type ProjectLine struct {
	Employee string
	Month    time.Month
	Hours    decimal.Decimal
}

// ProjectSection はプロジェクト 1 件分の帳票です。
type ProjectSection struct {
	Project string
	Lines   []ProjectLine
	Total   decimal.Decimal
}

// ProjectReport はプロジェクト別の年次帳票です。
type ProjectReport struct {
	Year       int
	Sections   []ProjectSection
	GrandTotal decimal.Decimal
}

func employeeLabel(e *entry.Entry) string {
	if e.EmployeeID == "" && e.EmployeeName == "" {
		return DeletedEmployee
	}
	return e.EmployeeName
}

func inYear(entries []*entry.Entry, year int) []*entry.Entry {
	out := make([]*entry.Entry, 0, len(entries))
	for _, e := range entries {
		if e.Date.Year() == year {
			out = append(out, e)
		}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// BuildPivot はプロジェクトごとに 社員 × 月 の稼働時間を集計します。
// ステータスコードのエントリは行として現れますが、合計には 0 として数えます。
func BuildPivot(year int, entries []*entry.Entry) Pivot {
	byProject := make(map[string]map[string]*PivotRow)
	for _, e := range inYear(entries, year) {
		if e.ProjectName == "" {
			continue
		}
		rows, ok := byProject[e.ProjectName]
		if !ok {
			rows = make(map[string]*PivotRow)
			byProject[e.ProjectName] = rows
		}
		label := employeeLabel(e)
		row, ok := rows[label]
		if !ok {
			row = &PivotRow{Employee: label, Months: newMonths(), Total: decimal.Zero}
			rows[label] = row
		}
		if e.Kind != entry.KindWork {
			continue
		}
		idx := e.Date.Month() - 1
		row.Months[idx] = row.Months[idx].Add(e.Hours)
		row.Total = row.Total.Add(e.Hours)
	}

	pivot := Pivot{Year: year, GrandTotal: decimal.Zero}
	for _, name := range sortedKeys(byProject) {
		rows := byProject[name]
		pp := ProjectPivot{Project: name, MonthTotals: newMonths(), Total: decimal.Zero}
		for _, label := range sortedKeys(rows) {
			row := rows[label]
			for i, h := range row.Months {
				pp.MonthTotals[i] = pp.MonthTotals[i].Add(h)
			}
			pp.Total = pp.Total.Add(row.Total)
			pp.Rows = append(pp.Rows, *row)
		}
		pivot.GrandTotal = pivot.GrandTotal.Add(pp.Total)
		pivot.Projects = append(pivot.Projects, pp)
	}
	return pivot
}

// BuildEmployeeReport は社員ごとに (月, プロジェクト) 単位で稼働時間を集計します。
// 年内にエントリを持つ社員は、稼働記録が無くてもセクションとして含まれます。
func BuildEmployeeReport(year int, entries []*entry.Entry) EmployeeReport {
	type key struct {
		month   time.Month
		project string
	}
	byEmployee := make(map[string]map[key]decimal.Decimal)
	for _, e := range inYear(entries, year) {
		label := employeeLabel(e)
		lines, ok := byEmployee[label]
		if !ok {
			lines = make(map[key]decimal.Decimal)
			byEmployee[label] = lines
		}
		if e.Kind != entry.KindWork {
			continue
		}
		k := key{month: e.Date.Month(), project: e.ProjectName}
		lines[k] = lines[k].Add(e.Hours)
	}

	report := EmployeeReport{Year: year, GrandTotal: decimal.Zero}
	for _, name := range sortedKeys(byEmployee) {
		section := EmployeeSection{Employee: name, Total: decimal.Zero}
		for k, h := range byEmployee[name] {
			section.Lines = append(section.Lines, EmployeeLine{Month: k.month, Project: k.project, Hours: h})
			section.Total = section.Total.Add(h)
		}
		sort.Slice(section.Lines, func(i, j int) bool {
			a, b := section.Lines[i], section.Lines[j]
			if a.Month != b.Month {
				return a.Month < b.Month
			}
			return a.Project < b.Project
		})
		report.GrandTotal = report.GrandTotal.Add(section.Total)
		report.Sections = append(report.Sections, section)
	}
	return report
}

// BuildProjectReport はプロジェクトごとに (社員, 月) 単位で稼働時間を集計します。稼働エントリのみが対象です。
func BuildProjectReport(year int, entries []*entry.Entry) ProjectReport {
	type key struct {
		employee string
		month    time.Month
	}
	byProject := make(map[string]map[key]decimal.Decimal)
	for _, e := range inYear(entries, year) {
		if e.Kind != entry.KindWork || e.ProjectName == "" {
			continue
		}
		lines, ok := byProject[e.ProjectName]
		if !ok {
			lines = make(map[key]decimal.Decimal)
			byProject[e.ProjectName] = lines
		}
		k := key{employee: employeeLabel(e), month: e.Date.Month()}
		lines[k] = lines[k].Add(e.Hours)
	}

	report := ProjectReport{Year: year, GrandTotal: decimal.Zero}
	for _, name := range sortedKeys(byProject) {
		section := ProjectSection{Project: name, Total: decimal.Zero}
		for k, h := range byProject[name] {
			section.Lines = append(section.Lines, ProjectLine{Employee: k.employee, Month: k.month, Hours: h})
			section.Total = section.Total.Add(h)
		}
		sort.Slice(section.Lines, func(i, j int) bool {
			a, b := section.Lines[i], section.Lines[j]
			if a.Employee != b.Employee {
				return a.Employee < b.Employee
			}
			return a.Month < b.Month
		})
		report.GrandTotal = report.GrandTotal.Add(section.Total)
		report.Sections = append(report.Sections, section)
	}
	return report
}

// AvailableYears はデータが存在する年に今年と来年を加え、降順で返します。
func AvailableYears(dataYears []int, now time.Time) []int {
	set := map[int]struct{}{now.Year(): {}, now.Year() + 1: {}}
	for _, y := range dataYears {
		set[y] = struct{}{}
	}
	years := make([]int, 0, len(set))
	for y := range set {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years
}
