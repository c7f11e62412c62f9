package legacy

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ogurasousui/codex-timesheet/internal/core/employee"
	"github.com/ogurasousui/codex-timesheet/internal/core/entry"
	"github.com/ogurasousui/codex-timesheet/internal/core/project"
)

const sampleCSV = `Datum,Mitarbeiter,Projekt,Stunden,Beschreibung,Typ
2024-03-01,Max,Proj A,8.0,onsite,Arbeit
2024-03-02,Max,,0.0,nan,/
2024-03-04,Erika,Proj B,"4,5",,Arbeit
2024-03-05,Erika,nan,nan,nan,U
2024-03-06,,Proj B,2,,Arbeit
kaputt,Max,Proj A,1,,Arbeit
2024-03-07,Max,,3,,Arbeit
2024-03-08,Max,Proj A,1,,X
`

func TestReadCSV(t *testing.T) {
	t.Parallel()

	rows, invalid, err := ReadCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("ReadCSV returned error: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d: %+v", len(rows), rows)
	}
	if len(invalid) != 4 {
		t.Fatalf("expected 4 invalid rows, got %+v", invalid)
	}
	lines := []int{invalid[0].Line, invalid[1].Line, invalid[2].Line, invalid[3].Line}
	if fmt.Sprint(lines) != "[6 7 8 9]" {
		t.Fatalf("unexpected invalid lines: %v", lines)
	}

	first := rows[0]
	if !first.Date.Equal(entry.DateOf(2024, time.March, 1)) || first.Employee != "Max" || first.Project != "Proj A" ||
		!first.Hours.Equal(decimal.RequireFromString("8")) || first.Description != "onsite" || first.Kind != entry.KindWork {
		t.Fatalf("unexpected first row: %+v", first)
	}
	if rows[1].Kind != entry.KindWeekend || rows[1].Project != "" || rows[1].Description != "" {
		t.Fatalf("unexpected weekend row: %+v", rows[1])
	}
	if !rows[2].Hours.Equal(decimal.RequireFromString("4.5")) {
		t.Fatalf("expected comma decimal, got %s", rows[2].Hours)
	}
	if rows[3].Kind != entry.KindVacation || !rows[3].Hours.IsZero() || rows[3].Project != "" {
		t.Fatalf("unexpected vacation row: %+v", rows[3])
	}
}

func TestReadCSV_MissingColumn(t *testing.T) {
	t.Parallel()

	_, _, err := ReadCSV(strings.NewReader("Datum,Mitarbeiter,Projekt\n2024-01-01,Max,A\n"))
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
}

type memoryStore struct {
	employees map[string]*employee.Employee
	projects  map[string]*project.Project
	entries   []*entry.Entry
}

func newMemoryStore() *memoryStore {
	return &memoryStore{employees: map[string]*employee.Employee{}, projects: map[string]*project.Project{}}
}

type memoryEmployees struct{ *memoryStore }

func (m memoryEmployees) FindByName(_ context.Context, name string) (*employee.Employee, error) {
	if e, ok := m.employees[name]; ok {
		return e, nil
	}
	return nil, employee.ErrEmployeeNotFound
}

func (m memoryEmployees) Create(_ context.Context, e *employee.Employee) (*employee.Employee, error) {
	m.employees[e.Name] = e
	return e, nil
}

type memoryProjects struct{ *memoryStore }

func (m memoryProjects) FindByName(_ context.Context, name string) (*project.Project, error) {
	if p, ok := m.projects[name]; ok {
		return p, nil
	}
	return nil, project.ErrProjectNotFound
}

func (m memoryProjects) Create(_ context.Context, p *project.Project) (*project.Project, error) {
	m.projects[p.Name] = p
	return p, nil
}

type memoryEntries struct{ *memoryStore }

func (m memoryEntries) List(context.Context, entry.ListFilter) ([]*entry.Entry, error) {
	return m.entries, nil
}

func (m memoryEntries) InsertMany(_ context.Context, entries []*entry.Entry) error {
	m.memoryStore.entries = append(m.memoryStore.entries, entries...)
	return nil
}

func newTestImporter(store *memoryStore) *Importer {
	im := NewImporter(memoryEmployees{store}, memoryProjects{store}, memoryEntries{store}, nil)
	n := 0
	im.newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	im.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	return im
}

func TestImporter_Import(t *testing.T) {
	t.Parallel()

	rows, _, err := ReadCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("ReadCSV returned error: %v", err)
	}

	store := newMemoryStore()
	store.employees["Max"] = &employee.Employee{ID: "emp-max", Name: "Max"}
	im := newTestImporter(store)

	result, err := im.Import(context.Background(), rows)
	if err != nil {
		t.Fatalf("Import returned error: %v", err)
	}
	if result.EmployeesCreated != 1 || result.ProjectsCreated != 2 || result.EntriesInserted != 4 || result.Duplicates != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if store.entries[0].EmployeeID != "emp-max" || store.entries[0].ProjectName != "Proj A" {
		t.Fatalf("expected existing employee to be reused, got %+v", store.entries[0])
	}
	if store.entries[1].ProjectID != "" {
		t.Fatalf("status row without project must stay unscoped, got %+v", store.entries[1])
	}

	again, err := newTestImporter(store).Import(context.Background(), rows)
	if err != nil {
		t.Fatalf("second Import returned error: %v", err)
	}
	if again.EntriesInserted != 0 || again.Duplicates != 4 || again.EmployeesCreated != 0 {
		t.Fatalf("import must be idempotent, got %+v", again)
	}
	if len(store.entries) != 4 {
		t.Fatalf("expected 4 stored entries, got %d", len(store.entries))
	}
}

func TestReadCSV_ReservedProjectName(t *testing.T) {
	t.Parallel()

	rows, invalid, err := ReadCSV(strings.NewReader("Datum,Mitarbeiter,Projekt,Stunden,Beschreibung,Typ\n2024-03-01,Max,Comment,8,,Arbeit\n"))
	if err != nil {
		t.Fatalf("ReadCSV returned error: %v", err)
	}
	if len(rows) != 0 || len(invalid) != 1 || invalid[0].Line != 2 {
		t.Fatalf("expected the Comment project row to be rejected, got rows=%+v invalid=%+v", rows, invalid)
	}
}

func TestImporter_Import_FractionalHoursAreIdempotent(t *testing.T) {
	t.Parallel()

	rows, _, err := ReadCSV(strings.NewReader("Datum,Mitarbeiter,Projekt,Stunden,Beschreibung,Typ\n2024-03-01,Max,Proj A,\"8,125\",,Arbeit\n"))
	if err != nil {
		t.Fatalf("ReadCSV returned error: %v", err)
	}

	store := newMemoryStore()
	if _, err := newTestImporter(store).Import(context.Background(), rows); err != nil {
		t.Fatalf("Import returned error: %v", err)
	}
	if len(store.entries) != 1 || store.entries[0].Hours.String() != "8.125" {
		t.Fatalf("expected 8.125 hours to be kept, got %+v", store.entries)
	}

	again, err := newTestImporter(store).Import(context.Background(), rows)
	if err != nil {
		t.Fatalf("second Import returned error: %v", err)
	}
	if again.EntriesInserted != 0 || again.Duplicates != 1 {
		t.Fatalf("import must be idempotent, got %+v", again)
	}
}

func TestImporter_Empty(t *testing.T) {
	t.Parallel()

	result, err := newTestImporter(newMemoryStore()).Import(context.Background(), nil)
	if err != nil || result.EntriesInserted != 0 {
		t.Fatalf("unexpected result: %+v, %v", result, err)
	}
}
