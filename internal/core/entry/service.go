package entry

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ogurasousui/codex-timesheet/internal/core/employee"
	"github.com/ogurasousui/codex-timesheet/internal/core/project"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

// EmployeeDirectory は社員と割り当ての参照に使うポートです。employee.Repository が満たします。
type EmployeeDirectory interface {
	FindByID(ctx context.Context, id string) (*employee.Employee, error)
	ListAssignedProjects(ctx context.Context, employeeID string) ([]employee.AssignedProject, error)
}

// ProjectDirectory はプロジェクト参照に使うポートです。project.Repository が満たします。
type ProjectDirectory interface {
	FindByID(ctx context.Context, id string) (*project.Project, error)
	FindByName(ctx context.Context, name string) (*project.Project, error)
}

// CalendarSource は祝日と休暇日の日付を提供します。
type CalendarSource interface {
	HolidayDates(ctx context.Context, year int) ([]time.Time, error)
	VacationDates(ctx context.Context, year int) ([]time.Time, error)
}

// Service は工数エントリと月次グリッドのユースケースをまとめます。
type Service struct {
	repo      Repository
	employees EmployeeDirectory
	projects  ProjectDirectory
	calendar  CalendarSource
	clock     Clock
	tx        TransactionManager
	newID     func() string
}

// UseCase は工数エントリユースケースの公開インターフェースです。
type UseCase interface {
	SaveMonth(ctx context.Context, in SaveMonthInput) (*SaveMonthResult, error)
	PreviewMonth(ctx context.Context, in SaveMonthInput) (*Reconciliation, error)
	MonthGrid(ctx context.Context, in MonthGridInput) (*MonthGrid, error)
	CreateEntry(ctx context.Context, in CreateEntryInput) (*Entry, error)
	UpdateEntry(ctx context.Context, in UpdateEntryInput) (*Entry, error)
	ListEntries(ctx context.Context, in ListEntriesInput) ([]*Entry, error)
}

// NewService は Service を生成します。
func NewService(repo Repository, employees EmployeeDirectory, projects ProjectDirectory, calendar CalendarSource, clock Clock, tx TransactionManager) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Service{
		repo:      repo,
		employees: employees,
		projects:  projects,
		calendar:  calendar,
		clock:     clock,
		tx:        tx,
		newID:     uuid.NewString,
	}
}

// SaveMonthInput は月次グリッド保存時の入力です。
type SaveMonthInput struct {
	EmployeeID string
	Year       int
	Month      time.Month
	Grid       Grid
}

// SaveMonthResult は月次グリッド保存の結果です。
type SaveMonthResult struct {
	Removed int64
	Entries []*Entry
}

// MonthGridInput はグリッド取得時の入力です。
type MonthGridInput struct {
	EmployeeID string
	Year       int
	Month      time.Month
}

// CreateEntryInput はエントリ個別作成時の入力です。
type CreateEntryInput struct {
	EmployeeID  string
	ProjectID   string
	Date        time.Time
	Hours       decimal.Decimal
	Kind        Kind
	Description string
}

// UpdateEntryInput はエントリ更新時の入力です。EmployeeID が空の場合は既存の参照を維持します。
type UpdateEntryInput struct {
	ID          string
	EmployeeID  string
	ProjectID   string
	Date        time.Time
	Hours       decimal.Decimal
	Kind        Kind
	Description string
}

// ListEntriesInput はエントリ一覧取得時の入力です。Year が 0 の場合は全期間を返します。
type ListEntriesInput struct {
	Year       int
	EmployeeID string
}

// PreviewMonth は保存せずにグリッドを照合し、生成されるエントリと検証失敗を返します。
func (s *Service) PreviewMonth(_ context.Context, in SaveMonthInput) (*Reconciliation, error) {
	rec, err := Reconcile(in.Year, in.Month, in.Grid)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// SaveMonth はグリッドを照合し、社員の指定月のエントリを丸ごと置き換えます。
// 不正なセルが 1 件でもあれば何も保存せず、全失敗を持つ *ValidationError を返します。
// 空のグリッドはその月のエントリをすべて削除します。
func (s *Service) SaveMonth(ctx context.Context, in SaveMonthInput) (*SaveMonthResult, error) {
	if strings.TrimSpace(in.EmployeeID) == "" {
		return nil, ErrInvalidEmployeeID
	}

	rec, err := Reconcile(in.Year, in.Month, in.Grid)
	if err != nil {
		return nil, err
	}
	if !rec.Valid() {
		return nil, &ValidationError{Failures: rec.Failures}
	}

	var result *SaveMonthResult
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		emp, err := s.employees.FindByID(txCtx, in.EmployeeID)
		if err != nil {
			return err
		}

		resolved := make(map[string]*project.Project)
		now := s.clock.Now()
		entries := make([]*Entry, 0, len(rec.Entries))
		for _, d := range rec.Entries {
			p, ok := resolved[d.Project]
			if !ok {
				found, err := s.projects.FindByName(txCtx, d.Project)
				if err != nil {
					return fmt.Errorf("%q: %w", d.Project, err)
				}
				p = found
				resolved[d.Project] = p
			}
			entries = append(entries, &Entry{
				ID:           s.newID(),
				Date:         d.Date,
				EmployeeID:   emp.ID,
				EmployeeName: emp.Name,
				ProjectID:    p.ID,
				ProjectName:  p.Name,
				Hours:        d.Hours,
				Description:  d.Description,
				Kind:         d.Kind,
				CreatedAt:    now,
				UpdatedAt:    now,
			})
		}

		removed, err := s.repo.DeleteMonth(txCtx, emp.ID, in.Year, in.Month)
		if err != nil {
			return err
		}
		if len(entries) > 0 {
			if err := s.repo.InsertMany(txCtx, entries); err != nil {
				return err
			}
		}

		result = &SaveMonthResult{Removed: removed, Entries: entries}
		return nil
	}); err != nil {
		return nil, err
	}

	return result, nil
}

// MonthGrid は社員の指定月のグリッドを、既定値と保存済みエントリを重ねて返します。
func (s *Service) MonthGrid(ctx context.Context, in MonthGridInput) (*MonthGrid, error) {
	if strings.TrimSpace(in.EmployeeID) == "" {
		return nil, ErrInvalidEmployeeID
	}
	if !validPeriod(in.Year, in.Month) {
		return nil, ErrInvalidPeriod
	}

	var grid *MonthGrid
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		if _, err := s.employees.FindByID(txCtx, in.EmployeeID); err != nil {
			return err
		}
		assigned, err := s.employees.ListAssignedProjects(txCtx, in.EmployeeID)
		if err != nil {
			return err
		}
		holidays, err := s.calendar.HolidayDates(txCtx, in.Year)
		if err != nil {
			return err
		}
		vacations, err := s.calendar.VacationDates(txCtx, in.Year)
		if err != nil {
			return err
		}
		stored, err := s.repo.ListMonth(txCtx, in.EmployeeID, in.Year, in.Month)
		if err != nil {
			return err
		}

		names := make([]string, 0, len(assigned))
		for _, a := range assigned {
			names = append(names, a.ProjectName)
		}

		built, err := BuildMonthGrid(in.EmployeeID, in.Year, in.Month, names, holidays, vacations, stored)
		if err != nil {
			return err
		}
		grid = built
		return nil
	}); err != nil {
		return nil, err
	}

	return grid, nil
}

// CreateEntry はエントリを 1 件作成します。
func (s *Service) CreateEntry(ctx context.Context, in CreateEntryInput) (*Entry, error) {
	if strings.TrimSpace(in.EmployeeID) == "" {
		return nil, ErrInvalidEmployeeID
	}
	draft := &Entry{
		EmployeeID:  strings.TrimSpace(in.EmployeeID),
		ProjectID:   strings.TrimSpace(in.ProjectID),
		Date:        in.Date,
		Hours:       in.Hours,
		Kind:        in.Kind,
		Description: strings.TrimSpace(in.Description),
	}
	if err := normalizeEntry(draft); err != nil {
		return nil, err
	}

	var created *Entry
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if err := s.resolveReferences(txCtx, draft); err != nil {
			return err
		}

		now := s.clock.Now()
		draft.ID = s.newID()
		draft.CreatedAt = now
		draft.UpdatedAt = now

		result, err := s.repo.Create(txCtx, draft)
		if err != nil {
			return err
		}
		result.EmployeeName = draft.EmployeeName
		result.ProjectName = draft.ProjectName
		created = result
		return nil
	}); err != nil {
		return nil, err
	}

	return created, nil
}

// UpdateEntry は ID で指定したエントリを更新します。
func (s *Service) UpdateEntry(ctx context.Context, in UpdateEntryInput) (*Entry, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, ErrInvalidID
	}

	var updated *Entry
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}

		if id := strings.TrimSpace(in.EmployeeID); id != "" {
			existing.EmployeeID = id
		}
		existing.ProjectID = strings.TrimSpace(in.ProjectID)
		existing.Date = in.Date
		existing.Hours = in.Hours
		existing.Kind = in.Kind
		existing.Description = strings.TrimSpace(in.Description)
		if err := normalizeEntry(existing); err != nil {
			return err
		}
		if err := s.resolveReferences(txCtx, existing); err != nil {
			return err
		}
		existing.UpdatedAt = s.clock.Now()

		result, err := s.repo.Update(txCtx, existing)
		if err != nil {
			return err
		}
		result.EmployeeName = existing.EmployeeName
		result.ProjectName = existing.ProjectName
		updated = result
		return nil
	}); err != nil {
		return nil, err
	}

	return updated, nil
}

// ListEntries はエントリを日付順で返します。
func (s *Service) ListEntries(ctx context.Context, in ListEntriesInput) ([]*Entry, error) {
	if in.Year < 0 || in.Year > 9999 {
		return nil, ErrInvalidPeriod
	}

	var entries []*Entry
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, err := s.repo.List(txCtx, ListFilter{Year: in.Year, EmployeeID: strings.TrimSpace(in.EmployeeID)})
		if err != nil {
			return err
		}
		entries = result
		return nil
	}); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Service) resolveReferences(ctx context.Context, e *Entry) error {
	e.EmployeeName = ""
	if e.EmployeeID != "" {
		emp, err := s.employees.FindByID(ctx, e.EmployeeID)
		if err != nil {
			return err
		}
		e.EmployeeName = emp.Name
	}

	e.ProjectName = ""
	if e.ProjectID != "" {
		p, err := s.projects.FindByID(ctx, e.ProjectID)
		if err != nil {
			return err
		}
		e.ProjectName = p.Name
	}
	return nil
}

// normalizeEntry は月次照合と同じ規則で個別エントリを検証します。
func normalizeEntry(e *Entry) error {
	if e.Date.IsZero() {
		return ErrInvalidDate
	}
	e.Date = DateOf(e.Date.Year(), e.Date.Month(), e.Date.Day())

	if !e.Kind.Valid() {
		return ErrInvalidKind
	}
	if e.Kind.IsStatus() {
		e.Hours = decimal.Zero
		return nil
	}
	if e.Hours.IsNegative() {
		return ErrNegativeHours
	}
	if e.ProjectID == "" {
		return ErrProjectRequired
	}
	return nil
}
