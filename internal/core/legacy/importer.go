package legacy

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ogurasousui/codex-timesheet/internal/core/employee"
	"github.com/ogurasousui/codex-timesheet/internal/core/entry"
	"github.com/ogurasousui/codex-timesheet/internal/core/project"
)

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

// EmployeeStore は取り込み時に社員を検索・作成します。
type EmployeeStore interface {
	FindByName(ctx context.Context, name string) (*employee.Employee, error)
	Create(ctx context.Context, e *employee.Employee) (*employee.Employee, error)
}

// ProjectStore は取り込み時にプロジェクトを検索・作成します。
type ProjectStore interface {
	FindByName(ctx context.Context, name string) (*project.Project, error)
	Create(ctx context.Context, p *project.Project) (*project.Project, error)
}

// EntryStore は既存エントリの参照と一括登録を行います。
type EntryStore interface {
	List(ctx context.Context, filter entry.ListFilter) ([]*entry.Entry, error)
	InsertMany(ctx context.Context, entries []*entry.Entry) error
}

// Result は取り込み結果です。
type Result struct {
	EmployeesCreated int
	ProjectsCreated  int
	EntriesInserted  int
	Duplicates       int
}

// Importer は旧データを社員・プロジェクト・エントリとして登録します。
// 同一内容のエントリが既に存在する行は登録しないため、繰り返し実行しても結果は変わりません。
type Importer struct {
	employees EmployeeStore
	projects  ProjectStore
	entries   EntryStore
	tx        TransactionManager
	now       func() time.Time
	newID     func() string
}

// NewImporter は Importer を生成します。
func NewImporter(employees EmployeeStore, projects ProjectStore, entries EntryStore, tx TransactionManager) *Importer {
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Importer{
		employees: employees,
		projects:  projects,
		entries:   entries,
		tx:        tx,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
}

// Import は行を 1 トランザクションで取り込みます。途中で失敗した場合は何も登録されません。
func (im *Importer) Import(ctx context.Context, rows []Row) (*Result, error) {
	result := &Result{}
	if len(rows) == 0 {
		return result, nil
	}

	err := im.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := im.entries.List(txCtx, entry.ListFilter{})
		if err != nil {
			return err
		}
		seen := make(map[string]struct{}, len(existing))
		for _, e := range existing {
			seen[fingerprint(e)] = struct{}{}
		}

		employees := make(map[string]*employee.Employee)
		projects := make(map[string]*project.Project)
		now := im.now()

		var batch []*entry.Entry
		for _, row := range rows {
			emp, created, err := im.employee(txCtx, employees, row.Employee, now)
			if err != nil {
				return fmt.Errorf("line %d: %w", row.Line, err)
			}
			if created {
				result.EmployeesCreated++
			}

			e := &entry.Entry{
				ID:           im.newID(),
				Date:         row.Date,
				EmployeeID:   emp.ID,
				EmployeeName: emp.Name,
				Hours:        row.Hours,
				Description:  row.Description,
				Kind:         row.Kind,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if row.Project != "" {
				p, created, err := im.project(txCtx, projects, row.Project, now)
				if err != nil {
					return fmt.Errorf("line %d: %w", row.Line, err)
				}
				if created {
					result.ProjectsCreated++
				}
				e.ProjectID = p.ID
				e.ProjectName = p.Name
			}

			key := fingerprint(e)
			if _, dup := seen[key]; dup {
				result.Duplicates++
				continue
			}
			seen[key] = struct{}{}
			batch = append(batch, e)
		}

		if len(batch) > 0 {
			if err := im.entries.InsertMany(txCtx, batch); err != nil {
				return err
			}
		}
		result.EntriesInserted = len(batch)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (im *Importer) employee(ctx context.Context, cache map[string]*employee.Employee, name string, now time.Time) (*employee.Employee, bool, error) {
	if e, ok := cache[name]; ok {
		return e, false, nil
	}
	found, err := im.employees.FindByName(ctx, name)
	if err == nil {
		cache[name] = found
		return found, false, nil
	}
	if !errors.Is(err, employee.ErrEmployeeNotFound) {
		return nil, false, err
	}
	created, err := im.employees.Create(ctx, &employee.Employee{ID: im.newID(), Name: name, CreatedAt: now, UpdatedAt: now})
	if err != nil {
		return nil, false, err
	}
	cache[name] = created
	return created, true, nil
}

func (im *Importer) project(ctx context.Context, cache map[string]*project.Project, name string, now time.Time) (*project.Project, bool, error) {
	if p, ok := cache[name]; ok {
		return p, false, nil
	}
	found, err := im.projects.FindByName(ctx, name)
	if err == nil {
		cache[name] = found
		return found, false, nil
	}
	if !errors.Is(err, project.ErrProjectNotFound) {
		return nil, false, err
	}
	created, err := im.projects.Create(ctx, &project.Project{ID: im.newID(), Name: name, CreatedAt: now, UpdatedAt: now})
	if err != nil {
		return nil, false, err
	}
	cache[name] = created
	return created, true, nil
}

func fingerprint(e *entry.Entry) string {
	return strings.Join([]string{
		e.Date.Format("2006-01-02"),
		e.EmployeeID,
		e.ProjectID,
		string(e.Kind),
		e.Hours.String(),
		e.Description,
	}, "|")
}
