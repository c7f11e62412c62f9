package entry

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func date(day int) time.Time {
	return DateOf(2026, time.March, day)
}

func TestDefaultsFor_Priority(t *testing.T) {
	t.Parallel()

	// 2026-03-01 は日曜日
	holidays := []time.Time{date(1), date(3)}
	vacations := []time.Time{date(1), date(3), date(4)}

	grid, err := DefaultsFor(2026, time.March, []string{"Proj A", "Proj B"}, holidays, vacations)
	if err != nil {
		t.Fatalf("DefaultsFor returned error: %v", err)
	}

	for _, name := range []string{"Proj A", "Proj B"} {
		row := grid[name]
		if row[1] != "/" {
			t.Fatalf("%s day 1: weekend must win over holiday, got %q", name, row[1])
		}
		if row[3] != "F" {
			t.Fatalf("%s day 3: holiday must win over vacation, got %q", name, row[3])
		}
		if row[4] != "U" {
			t.Fatalf("%s day 4: expected vacation, got %q", name, row[4])
		}
		if _, ok := row[5]; ok {
			t.Fatalf("%s day 5: expected no default, got %q", name, row[5])
		}
		if row[7] != "/" || row[8] != "/" {
			t.Fatalf("%s: expected weekend on 7th and 8th, got %q %q", name, row[7], row[8])
		}
	}

	if _, ok := grid[CommentRow]; ok {
		t.Fatalf("defaults must not contain a comment row")
	}
}

func TestDefaultsFor_RowsAreIndependent(t *testing.T) {
	t.Parallel()

	grid, err := DefaultsFor(2026, time.March, []string{"Proj A", "Proj B"}, nil, nil)
	if err != nil {
		t.Fatalf("DefaultsFor returned error: %v", err)
	}
	grid["Proj A"][1] = "8"
	if grid["Proj B"][1] != "/" {
		t.Fatalf("rows share cell maps")
	}
}

func TestDefaultsFor_InvalidPeriod(t *testing.T) {
	t.Parallel()

	if _, err := DefaultsFor(2026, 0, nil, nil, nil); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
}

func TestOverlay_StoredWinsAndBlankKeepsDefault(t *testing.T) {
	t.Parallel()

	base, err := DefaultsFor(2026, time.March, []string{"Proj A"}, []time.Time{date(3)}, nil)
	if err != nil {
		t.Fatalf("DefaultsFor returned error: %v", err)
	}

	stored := []*Entry{
		{Date: date(1), ProjectName: "Proj A", Kind: KindWork, Hours: decimal.RequireFromString("8"), Description: "Sonntagsdienst"},
		{Date: date(2), ProjectName: "Proj A", Kind: KindWork, Hours: decimal.RequireFromString("4.5")},
		{Date: date(2), ProjectName: "Proj A", Kind: KindWork, Hours: decimal.RequireFromString("1")},
		{Date: date(5), ProjectName: "Legacy", Kind: KindChildSick},
	}

	grid := Overlay(base, stored)

	if got := grid["Proj A"][1]; got != "8.0" {
		t.Fatalf("stored value must win over weekend default, got %q", got)
	}
	if got := grid["Proj A"][2]; got != "5.5" {
		t.Fatalf("expected summed hours 5.5, got %q", got)
	}
	if got := grid["Proj A"][3]; got != "F" {
		t.Fatalf("blank stored value must keep holiday default, got %q", got)
	}
	if got := grid["Legacy"][5]; got != "KK" {
		t.Fatalf("expected row for unassigned project, got %q", got)
	}
	if got := grid[CommentRow][1]; got != "Sonntagsdienst" {
		t.Fatalf("expected comment from description, got %q", got)
	}
	if base["Proj A"][1] != "/" {
		t.Fatalf("overlay must not mutate the base grid")
	}
}

func TestOverlay_EntriesWithoutProject(t *testing.T) {
	t.Parallel()

	base, err := DefaultsFor(2026, time.March, []string{"Proj A", "Proj B"}, nil, nil)
	if err != nil {
		t.Fatalf("DefaultsFor returned error: %v", err)
	}
	stored := []*Entry{
		{Date: date(10), Kind: KindVacation},
		{Date: date(10), ProjectName: "Proj B", Kind: KindWork, Hours: decimal.RequireFromString("2")},
	}

	grid := Overlay(base, stored)
	if got := grid["Proj A"][10]; got != "U" {
		t.Fatalf("expected U on Proj A, got %q", got)
	}
	if got := grid["Proj B"][10]; got != "2.0" {
		t.Fatalf("project entry must win over unscoped status, got %q", got)
	}
}

func TestBuildMonthGrid_Totals(t *testing.T) {
	t.Parallel()

	stored := []*Entry{
		{Date: date(2), ProjectName: "Proj B", Kind: KindWork, Hours: decimal.RequireFromString("8")},
		{Date: date(3), ProjectName: "Proj B", Kind: KindWork, Hours: decimal.RequireFromString("7.5")},
		{Date: date(4), ProjectName: "Proj A", Kind: KindWork, Hours: decimal.RequireFromString("2")},
		{Date: date(5), ProjectName: "Proj A", Kind: KindVacation},
	}

	grid, err := BuildMonthGrid("emp-1", 2026, time.March, []string{"Proj B", "Proj A"}, []time.Time{date(6)}, nil, stored)
	if err != nil {
		t.Fatalf("BuildMonthGrid returned error: %v", err)
	}

	if grid.Days != 31 {
		t.Fatalf("expected 31 days, got %d", grid.Days)
	}
	if len(grid.Rows) != 2 || grid.Rows[0].Project != "Proj A" || grid.Rows[1].Project != "Proj B" {
		t.Fatalf("expected rows ordered by name, got %+v", grid.Rows)
	}
	if !grid.Rows[0].Total.Equal(decimal.RequireFromString("2")) {
		t.Fatalf("expected Proj A total 2, got %s", grid.Rows[0].Total)
	}
	if !grid.Rows[1].Total.Equal(decimal.RequireFromString("15.5")) {
		t.Fatalf("expected Proj B total 15.5, got %s", grid.Rows[1].Total)
	}
	if !grid.MonthTotal.Equal(decimal.RequireFromString("17.5")) {
		t.Fatalf("expected month total 17.5, got %s", grid.MonthTotal)
	}
	if grid.Rows[0].Cells[6] != "F" {
		t.Fatalf("expected holiday default on day 6, got %q", grid.Rows[0].Cells[6])
	}
	if grid.Comments == nil {
		t.Fatalf("comments must not be nil")
	}
}

func TestBuildMonthGrid_RoundTripsThroughReconcile(t *testing.T) {
	t.Parallel()

	stored := []*Entry{
		{Date: date(2), ProjectName: "Proj A", Kind: KindWork, Hours: decimal.RequireFromString("8"), Description: "Kickoff"},
		{Date: date(3), ProjectName: "Proj A", Kind: KindChildSick},
	}
	grid, err := BuildMonthGrid("emp-1", 2026, time.March, []string{"Proj A"}, nil, nil, stored)
	if err != nil {
		t.Fatalf("BuildMonthGrid returned error: %v", err)
	}

	input := Grid{CommentRow: grid.Comments}
	for _, row := range grid.Rows {
		input[row.Project] = row.Cells
	}
	rec, err := Reconcile(2026, time.March, input)
	if err != nil {
		t.Fatalf("Reconcile returned error: %v", err)
	}
	if !rec.Valid() {
		t.Fatalf("rendered grid must validate, got %+v", rec.Failures)
	}

	var work, sick, weekend int
	for _, e := range rec.Entries {
		switch e.Kind {
		case KindWork:
			work++
			if e.Description != "Kickoff" {
				t.Fatalf("expected comment to survive, got %q", e.Description)
			}
		case KindChildSick:
			sick++
		case KindWeekend:
			weekend++
		}
	}
	// 2026 年 3 月の週末は 9 日
	if work != 1 || sick != 1 || weekend != 9 {
		t.Fatalf("unexpected kinds: work=%d sick=%d weekend=%d", work, sick, weekend)
	}
}
