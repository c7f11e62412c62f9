package entry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ogurasousui/codex-timesheet/internal/core/employee"
	"github.com/ogurasousui/codex-timesheet/internal/core/project"
)

type fakeEntryRepo struct {
	entries     map[string]*Entry
	deleteCalls int
	insertCalls int
}

func newFakeEntryRepo() *fakeEntryRepo {
	return &fakeEntryRepo{entries: make(map[string]*Entry)}
}

func (r *fakeEntryRepo) DeleteMonth(_ context.Context, employeeID string, year int, month time.Month) (int64, error) {
	r.deleteCalls++
	var removed int64
	for id, e := range r.entries {
		if e.EmployeeID == employeeID && e.Date.Year() == year && e.Date.Month() == month {
			delete(r.entries, id)
			removed++
		}
	}
	return removed, nil
}

func (r *fakeEntryRepo) InsertMany(_ context.Context, entries []*Entry) error {
	r.insertCalls++
	for _, e := range entries {
		clone := *e
		r.entries[e.ID] = &clone
	}
	return nil
}

func (r *fakeEntryRepo) Create(_ context.Context, e *Entry) (*Entry, error) {
	clone := *e
	r.entries[e.ID] = &clone
	out := clone
	return &out, nil
}

func (r *fakeEntryRepo) Update(_ context.Context, e *Entry) (*Entry, error) {
	if _, ok := r.entries[e.ID]; !ok {
		return nil, ErrEntryNotFound
	}
	clone := *e
	r.entries[e.ID] = &clone
	out := clone
	return &out, nil
}

func (r *fakeEntryRepo) FindByID(_ context.Context, id string) (*Entry, error) {
	e, ok := r.entries[id]
	if !ok {
		return nil, ErrEntryNotFound
	}
	clone := *e
	return &clone, nil
}

func (r *fakeEntryRepo) ListMonth(_ context.Context, employeeID string, year int, month time.Month) ([]*Entry, error) {
	var out []*Entry
	for _, e := range r.sorted() {
		if e.EmployeeID == employeeID && e.Date.Year() == year && e.Date.Month() == month {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeEntryRepo) List(_ context.Context, filter ListFilter) ([]*Entry, error) {
	var out []*Entry
	for _, e := range r.sorted() {
		if filter.Year != 0 && e.Date.Year() != filter.Year {
			continue
		}
		if filter.EmployeeID != "" && e.EmployeeID != filter.EmployeeID {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *fakeEntryRepo) Years(_ context.Context) ([]int, error) {
	return nil, nil
}

func (r *fakeEntryRepo) sorted() []*Entry {
	out := make([]*Entry, 0, len(r.entries))
	for _, e := range r.entries {
		clone := *e
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ProjectName < out[j].ProjectName
	})
	return out
}

type fakeDirectory struct {
	employees map[string]*employee.Employee
	projects  map[string]*project.Project
	assigned  map[string][]string
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		employees: map[string]*employee.Employee{
			"emp-1": {ID: "emp-1", Name: "Max"},
			"emp-2": {ID: "emp-2", Name: "Erika"},
		},
		projects: map[string]*project.Project{
			"p-a": {ID: "p-a", Name: "Proj A"},
			"p-b": {ID: "p-b", Name: "Proj B"},
		},
		assigned: map[string][]string{"emp-1": {"p-a"}},
	}
}

type fakeEmployees struct{ *fakeDirectory }

func (d fakeEmployees) FindByID(_ context.Context, id string) (*employee.Employee, error) {
	e, ok := d.employees[id]
	if !ok {
		return nil, employee.ErrEmployeeNotFound
	}
	clone := *e
	return &clone, nil
}

func (d fakeEmployees) ListAssignedProjects(_ context.Context, employeeID string) ([]employee.AssignedProject, error) {
	var out []employee.AssignedProject
	for _, id := range d.assigned[employeeID] {
		out = append(out, employee.AssignedProject{ProjectID: id, ProjectName: d.projects[id].Name})
	}
	return out, nil
}

type fakeProjects struct{ *fakeDirectory }

func (d fakeProjects) FindByID(_ context.Context, id string) (*project.Project, error) {
	p, ok := d.projects[id]
	if !ok {
		return nil, project.ErrProjectNotFound
	}
	clone := *p
	return &clone, nil
}

func (d fakeProjects) FindByName(_ context.Context, name string) (*project.Project, error) {
	for _, p := range d.projects {
		if p.Name == name {
			clone := *p
			return &clone, nil
		}
	}
	return nil, project.ErrProjectNotFound
}

type fakeCalendar struct {
	holidays  []time.Time
	vacations []time.Time
	err       error
}

func (c fakeCalendar) HolidayDates(context.Context, int) ([]time.Time, error) {
	return c.holidays, c.err
}

func (c fakeCalendar) VacationDates(context.Context, int) ([]time.Time, error) {
	return c.vacations, c.err
}

type recordingTx struct {
	readWrite int
	readOnly  int
}

func (r *recordingTx) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	r.readOnly++
	return fn(ctx)
}

func (r *recordingTx) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	r.readWrite++
	return fn(ctx)
}

type stubClock struct{ now time.Time }

func (c stubClock) Now() time.Time { return c.now }

type serviceFixture struct {
	svc  *Service
	repo *fakeEntryRepo
	dir  *fakeDirectory
	tx   *recordingTx
}

func newServiceFixture(cal fakeCalendar) *serviceFixture {
	repo := newFakeEntryRepo()
	dir := newFakeDirectory()
	tx := &recordingTx{}
	svc := NewService(repo, fakeEmployees{dir}, fakeProjects{dir}, cal, stubClock{now: time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)}, tx)
	n := 0
	svc.newID = func() string {
		n++
		return fmt.Sprintf("entry-%d", n)
	}
	return &serviceFixture{svc: svc, repo: repo, dir: dir, tx: tx}
}

func TestService_SaveMonth_Scenario(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(fakeCalendar{})
	ctx := context.Background()

	result, err := f.svc.SaveMonth(ctx, SaveMonthInput{
		EmployeeID: "emp-1",
		Year:       2026,
		Month:      time.March,
		Grid:       Grid{"Proj A": {1: "8.0", 2: "4,5"}, CommentRow: {1: "onsite"}},
	})
	if err != nil {
		t.Fatalf("SaveMonth returned error: %v", err)
	}
	if len(result.Entries) != 2 || result.Removed != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if f.tx.readWrite != 1 {
		t.Fatalf("expected one read-write transaction, got %d", f.tx.readWrite)
	}

	stored, _ := f.repo.ListMonth(ctx, "emp-1", 2026, time.March)
	if len(stored) != 2 {
		t.Fatalf("expected 2 stored entries, got %d", len(stored))
	}
	if stored[0].ProjectID != "p-a" || stored[0].EmployeeName != "Max" || stored[0].Description != "onsite" {
		t.Fatalf("unexpected first entry: %+v", stored[0])
	}
	if !stored[1].Hours.Equal(decimal.RequireFromString("4.5")) || stored[1].Description != "" {
		t.Fatalf("unexpected second entry: %+v", stored[1])
	}
}

func TestService_SaveMonth_Idempotent(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(fakeCalendar{})
	ctx := context.Background()
	in := SaveMonthInput{
		EmployeeID: "emp-1",
		Year:       2026,
		Month:      time.March,
		Grid:       Grid{"Proj A": {2: "8", 3: "U"}, "Proj B": {2: "1,5"}},
	}

	if _, err := f.svc.SaveMonth(ctx, in); err != nil {
		t.Fatalf("first SaveMonth returned error: %v", err)
	}
	first, _ := f.repo.ListMonth(ctx, "emp-1", 2026, time.March)

	result, err := f.svc.SaveMonth(ctx, in)
	if err != nil {
		t.Fatalf("second SaveMonth returned error: %v", err)
	}
	if result.Removed != 3 {
		t.Fatalf("expected 3 removed on second save, got %d", result.Removed)
	}
	second, _ := f.repo.ListMonth(ctx, "emp-1", 2026, time.March)

	if len(first) != len(second) {
		t.Fatalf("expected identical entry count, got %d and %d", len(first), len(second))
	}
	for i := range first {
		a, b := first[i], second[i]
		if !a.Date.Equal(b.Date) || a.ProjectID != b.ProjectID || a.Kind != b.Kind || !a.Hours.Equal(b.Hours) || a.Description != b.Description {
			t.Fatalf("entry %d differs: %+v vs %+v", i, a, b)
		}
	}
}

func TestService_SaveMonth_EmptyGridClearsMonth(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(fakeCalendar{})
	ctx := context.Background()

	for day := 2; day <= 6; day++ {
		f.repo.entries[fmt.Sprintf("old-%d", day)] = &Entry{
			ID: fmt.Sprintf("old-%d", day), EmployeeID: "emp-1", ProjectID: "p-a", ProjectName: "Proj A",
			Date: DateOf(2026, time.March, day), Kind: KindWork, Hours: decimal.RequireFromString("8"),
		}
	}
	// 他の月と他の社員は影響を受けない
	f.repo.entries["april"] = &Entry{ID: "april", EmployeeID: "emp-1", Date: DateOf(2026, time.April, 1), Kind: KindWork}
	f.repo.entries["other"] = &Entry{ID: "other", EmployeeID: "emp-2", Date: DateOf(2026, time.March, 2), Kind: KindWork}

	result, err := f.svc.SaveMonth(ctx, SaveMonthInput{EmployeeID: "emp-1", Year: 2026, Month: time.March, Grid: Grid{}})
	if err != nil {
		t.Fatalf("SaveMonth returned error: %v", err)
	}
	if result.Removed != 5 || len(result.Entries) != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if remaining, _ := f.repo.ListMonth(ctx, "emp-1", 2026, time.March); len(remaining) != 0 {
		t.Fatalf("expected month to be empty, got %d", len(remaining))
	}
	if f.repo.insertCalls != 0 {
		t.Fatalf("expected no insert for empty grid")
	}
	if len(f.repo.entries) != 2 {
		t.Fatalf("expected other entries to survive, got %d", len(f.repo.entries))
	}
}

func TestService_SaveMonth_InvalidCellBlocksSave(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(fakeCalendar{})
	ctx := context.Background()
	f.repo.entries["keep"] = &Entry{ID: "keep", EmployeeID: "emp-1", Date: DateOf(2026, time.March, 2), Kind: KindWork}

	_, err := f.svc.SaveMonth(ctx, SaveMonthInput{
		EmployeeID: "emp-1",
		Year:       2026,
		Month:      time.March,
		Grid:       Grid{"Proj A": {2: "8", 4: "notanumber"}},
	})

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.Failures) != 1 || verr.Failures[0].Day != 4 {
		t.Fatalf("unexpected failures: %+v", verr.Failures)
	}
	if f.repo.deleteCalls != 0 || f.tx.readWrite != 0 {
		t.Fatalf("store must not be touched when validation fails")
	}
	if _, ok := f.repo.entries["keep"]; !ok {
		t.Fatalf("existing entry must survive a rejected save")
	}
}

func TestService_SaveMonth_UnknownReferences(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(fakeCalendar{})
	ctx := context.Background()

	_, err := f.svc.SaveMonth(ctx, SaveMonthInput{EmployeeID: "emp-1", Year: 2026, Month: time.March, Grid: Grid{"Ghost": {2: "8"}}})
	if !errors.Is(err, project.ErrProjectNotFound) {
		t.Fatalf("expected ErrProjectNotFound, got %v", err)
	}
	if f.repo.deleteCalls != 0 {
		t.Fatalf("month must not be deleted when a project is unknown")
	}

	_, err = f.svc.SaveMonth(ctx, SaveMonthInput{EmployeeID: "nobody", Year: 2026, Month: time.March, Grid: Grid{}})
	if !errors.Is(err, employee.ErrEmployeeNotFound) {
		t.Fatalf("expected ErrEmployeeNotFound, got %v", err)
	}

	_, err = f.svc.SaveMonth(ctx, SaveMonthInput{EmployeeID: " ", Year: 2026, Month: time.March})
	if !errors.Is(err, ErrInvalidEmployeeID) {
		t.Fatalf("expected ErrInvalidEmployeeID, got %v", err)
	}
}

func TestService_SaveMonth_RenamedProjectKeepsHistory(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(fakeCalendar{})
	ctx := context.Background()

	if _, err := f.svc.SaveMonth(ctx, SaveMonthInput{EmployeeID: "emp-1", Year: 2026, Month: time.March, Grid: Grid{"Proj A": {2: "8"}}}); err != nil {
		t.Fatalf("SaveMonth returned error: %v", err)
	}

	f.dir.projects["p-a"].Name = "Kundenprojekt A"

	grid, err := f.svc.MonthGrid(ctx, MonthGridInput{EmployeeID: "emp-1", Year: 2026, Month: time.March})
	if err != nil {
		t.Fatalf("MonthGrid returned error: %v", err)
	}
	stored, _ := f.repo.ListMonth(ctx, "emp-1", 2026, time.March)
	if stored[0].ProjectID != "p-a" {
		t.Fatalf("entry must reference the project by id, got %+v", stored[0])
	}
	found := false
	for _, row := range grid.Rows {
		if row.Project == "Kundenprojekt A" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected renamed project row, got %+v", grid.Rows)
	}
}

func TestService_MonthGrid(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(fakeCalendar{holidays: []time.Time{DateOf(2026, time.March, 6)}, vacations: []time.Time{DateOf(2026, time.March, 9)}})
	ctx := context.Background()

	f.repo.entries["e1"] = &Entry{ID: "e1", EmployeeID: "emp-1", ProjectID: "p-a", ProjectName: "Proj A", Date: DateOf(2026, time.March, 2), Kind: KindWork, Hours: decimal.RequireFromString("6")}

	grid, err := f.svc.MonthGrid(ctx, MonthGridInput{EmployeeID: "emp-1", Year: 2026, Month: time.March})
	if err != nil {
		t.Fatalf("MonthGrid returned error: %v", err)
	}
	if len(grid.Rows) != 1 || grid.Rows[0].Project != "Proj A" {
		t.Fatalf("expected one assigned row, got %+v", grid.Rows)
	}
	cells := grid.Rows[0].Cells
	if cells[2] != "6.0" || cells[6] != "F" || cells[9] != "U" || cells[1] != "/" {
		t.Fatalf("unexpected cells: %+v", cells)
	}
	if !grid.MonthTotal.Equal(decimal.RequireFromString("6")) {
		t.Fatalf("expected month total 6, got %s", grid.MonthTotal)
	}
	if f.tx.readOnly != 1 {
		t.Fatalf("expected a read-only transaction, got %d", f.tx.readOnly)
	}
}

func TestService_MonthGrid_CalendarFailure(t *testing.T) {
	t.Parallel()

	calErr := errors.New("calendar down")
	f := newServiceFixture(fakeCalendar{err: calErr})

	if _, err := f.svc.MonthGrid(context.Background(), MonthGridInput{EmployeeID: "emp-1", Year: 2026, Month: time.March}); !errors.Is(err, calErr) {
		t.Fatalf("expected calendar error, got %v", err)
	}
	if _, err := f.svc.MonthGrid(context.Background(), MonthGridInput{EmployeeID: "emp-1", Year: 2026, Month: 0}); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
}

func TestService_CreateEntry(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(fakeCalendar{})
	ctx := context.Background()

	created, err := f.svc.CreateEntry(ctx, CreateEntryInput{
		EmployeeID:  "emp-1",
		ProjectID:   "p-b",
		Date:        time.Date(2026, 5, 4, 15, 30, 0, 0, time.UTC),
		Hours:       decimal.RequireFromString("3.5"),
		Kind:        KindWork,
		Description: " Review ",
	})
	if err != nil {
		t.Fatalf("CreateEntry returned error: %v", err)
	}
	if created.ID != "entry-1" || created.ProjectName != "Proj B" || created.EmployeeName != "Max" || created.Description != "Review" {
		t.Fatalf("unexpected entry: %+v", created)
	}
	if !created.Date.Equal(DateOf(2026, time.May, 4)) {
		t.Fatalf("expected date truncated to day, got %v", created.Date)
	}

	status, err := f.svc.CreateEntry(ctx, CreateEntryInput{
		EmployeeID: "emp-1",
		Date:       DateOf(2026, time.May, 5),
		Hours:      decimal.RequireFromString("8"),
		Kind:       KindVacation,
	})
	if err != nil {
		t.Fatalf("CreateEntry for status returned error: %v", err)
	}
	if !status.Hours.IsZero() || status.ProjectID != "" {
		t.Fatalf("status entry must carry zero hours and no project, got %+v", status)
	}
}

func TestService_CreateEntry_Validation(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(fakeCalendar{})
	ctx := context.Background()
	day := DateOf(2026, time.May, 4)

	cases := []struct {
		name string
		in   CreateEntryInput
		want error
	}{
		{"missing employee", CreateEntryInput{ProjectID: "p-a", Date: day, Kind: KindWork}, ErrInvalidEmployeeID},
		{"missing date", CreateEntryInput{EmployeeID: "emp-1", ProjectID: "p-a", Kind: KindWork}, ErrInvalidDate},
		{"unknown kind", CreateEntryInput{EmployeeID: "emp-1", ProjectID: "p-a", Date: day, Kind: "X"}, ErrInvalidKind},
		{"negative hours", CreateEntryInput{EmployeeID: "emp-1", ProjectID: "p-a", Date: day, Kind: KindWork, Hours: decimal.RequireFromString("-1")}, ErrNegativeHours},
		{"work without project", CreateEntryInput{EmployeeID: "emp-1", Date: day, Kind: KindWork}, ErrProjectRequired},
		{"unknown project", CreateEntryInput{EmployeeID: "emp-1", ProjectID: "p-x", Date: day, Kind: KindWork}, project.ErrProjectNotFound},
		{"unknown employee", CreateEntryInput{EmployeeID: "emp-x", ProjectID: "p-a", Date: day, Kind: KindWork}, employee.ErrEmployeeNotFound},
	}

	for _, tc := range cases {
		if _, err := f.svc.CreateEntry(ctx, tc.in); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestService_UpdateEntry(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(fakeCalendar{})
	ctx := context.Background()

	// 社員削除後に参照が外れたエントリ
	f.repo.entries["orphan"] = &Entry{ID: "orphan", ProjectID: "p-a", Date: DateOf(2026, time.March, 2), Kind: KindWork, Hours: decimal.RequireFromString("8")}

	updated, err := f.svc.UpdateEntry(ctx, UpdateEntryInput{
		ID:        "orphan",
		ProjectID: "p-b",
		Date:      DateOf(2026, time.March, 3),
		Hours:     decimal.RequireFromString("6"),
		Kind:      KindWork,
	})
	if err != nil {
		t.Fatalf("UpdateEntry returned error: %v", err)
	}
	if updated.EmployeeID != "" || updated.ProjectName != "Proj B" || !updated.Hours.Equal(decimal.RequireFromString("6")) {
		t.Fatalf("unexpected update result: %+v", updated)
	}

	if _, err := f.svc.UpdateEntry(ctx, UpdateEntryInput{ID: "missing", ProjectID: "p-a", Date: DateOf(2026, time.March, 3), Kind: KindWork}); !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}
	if _, err := f.svc.UpdateEntry(ctx, UpdateEntryInput{}); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
}

func TestService_ListEntries(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(fakeCalendar{})
	ctx := context.Background()
	f.repo.entries["a"] = &Entry{ID: "a", EmployeeID: "emp-1", Date: DateOf(2025, time.December, 31), Kind: KindWork}
	f.repo.entries["b"] = &Entry{ID: "b", EmployeeID: "emp-1", Date: DateOf(2026, time.January, 2), Kind: KindWork}
	f.repo.entries["c"] = &Entry{ID: "c", EmployeeID: "emp-2", Date: DateOf(2026, time.January, 3), Kind: KindWork}

	entries, err := f.svc.ListEntries(ctx, ListEntriesInput{Year: 2026})
	if err != nil {
		t.Fatalf("ListEntries returned error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries in 2026, got %d", len(entries))
	}

	entries, err = f.svc.ListEntries(ctx, ListEntriesInput{Year: 2026, EmployeeID: "emp-2"})
	if err != nil || len(entries) != 1 || entries[0].ID != "c" {
		t.Fatalf("unexpected filtered result: %+v, %v", entries, err)
	}

	if _, err := f.svc.ListEntries(ctx, ListEntriesInput{Year: -1}); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
}
