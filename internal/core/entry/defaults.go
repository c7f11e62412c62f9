package entry

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

type civilDate struct {
	year  int
	month time.Month
	day   int
}

func civilOf(t time.Time) civilDate {
	return civilDate{year: t.Year(), month: t.Month(), day: t.Day()}
}

func dateSet(dates []time.Time) map[civilDate]struct{} {
	set := make(map[civilDate]struct{}, len(dates))
	for _, d := range dates {
		set[civilOf(d)] = struct{}{}
	}
	return set
}

// defaultCell は日付の既定表示値を返します。優先順位は 週末 > 祝日 > 休暇日 です。
func defaultCell(date time.Time, holidays, vacationDays map[civilDate]struct{}) string {
	if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return string(KindWeekend)
	}
	if _, ok := holidays[civilOf(date)]; ok {
		return string(KindHoliday)
	}
	if _, ok := vacationDays[civilOf(date)]; ok {
		return string(KindVacation)
	}
	return ""
}

// DefaultsFor は割り当てプロジェクトごとの既定値だけを持つグリッドの骨組みを返します。
// 既定値の無い日はキー自体を持ちません。
func DefaultsFor(year int, month time.Month, projects []string, holidays, vacationDays []time.Time) (Grid, error) {
	if !validPeriod(year, month) {
		return nil, ErrInvalidPeriod
	}

	holidaySet := dateSet(holidays)
	vacationSet := dateSet(vacationDays)

	defaults := make(map[int]string)
	for day := 1; day <= DaysIn(year, month); day++ {
		if v := defaultCell(DateOf(year, month, day), holidaySet, vacationSet); v != "" {
			defaults[day] = v
		}
	}

	grid := make(Grid, len(projects))
	for _, name := range projects {
		row := make(map[int]string, len(defaults))
		for day, v := range defaults {
			row[day] = v
		}
		grid[name] = row
	}
	return grid, nil
}

// Overlay は既定値のグリッドに保存済みエントリを重ねます。保存値は常に既定値より優先され、
// 保存値の無いセルは既定値を保持します。割り当て外のプロジェクトのエントリも行として追加されます。
// プロジェクトを持たないステータスエントリは、保存値の無い全行のセルに表示されます。
func Overlay(base Grid, stored []*Entry) Grid {
	out := make(Grid, len(base)+1)
	for name, cells := range base {
		row := make(map[int]string, len(cells))
		for day, v := range cells {
			row[day] = v
		}
		out[name] = row
	}

	type cellKey struct {
		project string
		day     int
	}
	work := make(map[cellKey]decimal.Decimal)
	status := make(map[cellKey]Kind)
	var unscoped []*Entry
	comments := make(map[int]string)

	for _, e := range stored {
		day := e.Date.Day()
		if e.Description != "" && comments[day] == "" {
			comments[day] = e.Description
		}
		if e.ProjectName == "" {
			unscoped = append(unscoped, e)
			continue
		}
		key := cellKey{project: e.ProjectName, day: day}
		if e.Kind == KindWork {
			work[key] = work[key].Add(e.Hours)
			continue
		}
		status[key] = e.Kind
	}

	set := func(key cellKey, v string) {
		row, ok := out[key.project]
		if !ok {
			row = make(map[int]string)
			out[key.project] = row
		}
		row[key.day] = v
	}
	for key, k := range status {
		set(key, string(k))
	}
	for key, hours := range work {
		set(key, FormatHours(hours))
	}

	for _, e := range unscoped {
		day := e.Date.Day()
		for name := range out {
			key := cellKey{project: name, day: day}
			if _, ok := work[key]; ok {
				continue
			}
			if _, ok := status[key]; ok {
				continue
			}
			out[name][day] = string(e.Kind)
		}
	}

	if len(comments) > 0 {
		out[CommentRow] = comments
	}
	return out
}

// GridRow はグリッドの 1 行 (1 プロジェクト) です。
type GridRow struct {
	Project string
	Cells   map[int]string
	Total   decimal.Decimal
}

// MonthGrid は社員 1 か月分の入力グリッドの読み取りモデルです。
type MonthGrid struct {
	EmployeeID string
	Year       int
	Month      time.Month
	Days       int
	Rows       []GridRow
	Comments   map[int]string
	MonthTotal decimal.Decimal
}

// BuildMonthGrid は既定値と保存済みエントリからグリッドを組み立て、行合計と月合計を計算します。
// 合計は稼働時間のみを対象とし、ステータスコードは 0 として数えます。
func BuildMonthGrid(employeeID string, year int, month time.Month, projects []string, holidays, vacationDays []time.Time, stored []*Entry) (*MonthGrid, error) {
	base, err := DefaultsFor(year, month, projects, holidays, vacationDays)
	if err != nil {
		return nil, err
	}
	merged := Overlay(base, stored)

	grid := &MonthGrid{
		EmployeeID: employeeID,
		Year:       year,
		Month:      month,
		Days:       DaysIn(year, month),
		Comments:   merged[CommentRow],
		MonthTotal: decimal.Zero,
	}
	if grid.Comments == nil {
		grid.Comments = map[int]string{}
	}

	names := make([]string, 0, len(merged))
	for name := range merged {
		if name != CommentRow {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		row := GridRow{Project: name, Cells: merged[name], Total: decimal.Zero}
		for _, raw := range row.Cells {
			if v, ok, err := ParseCell(raw); err == nil && ok && v.Kind == KindWork {
				row.Total = row.Total.Add(v.Hours)
			}
		}
		grid.MonthTotal = grid.MonthTotal.Add(row.Total)
		grid.Rows = append(grid.Rows, row)
	}

	return grid, nil
}
