package employee

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// IDGenerator は新しいエンティティ ID を発行します。
type IDGenerator func() string

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

const (
	defaultListPageSize = 50
	maxListPageSize     = 500
	maxNameLength       = 200
)

// Service は社員に関するユースケースをまとめます。
type Service struct {
	repo  Repository
	clock Clock
	tx    TransactionManager
	newID IDGenerator
}

// UseCase は社員ユースケースの公開インターフェースです。
type UseCase interface {
	CreateEmployee(ctx context.Context, in CreateEmployeeInput) (*Employee, error)
	GetEmployee(ctx context.Context, in GetEmployeeInput) (*Employee, error)
	ListEmployees(ctx context.Context, in ListEmployeesInput) (*ListEmployeesResult, error)
	RenameEmployee(ctx context.Context, in RenameEmployeeInput) (*Employee, error)
	DeleteEmployee(ctx context.Context, in DeleteEmployeeInput) error
	AssignedProjects(ctx context.Context, in AssignedProjectsInput) ([]AssignedProject, error)
	SetAssignedProjects(ctx context.Context, in SetAssignedProjectsInput) ([]AssignedProject, error)
}

// NewService は Service を生成します。
func NewService(repo Repository, clock Clock, tx TransactionManager) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Service{repo: repo, clock: clock, tx: tx, newID: uuid.NewString}
}

// WithIDGenerator は ID 発行関数を差し替えます。テストで決定的な ID を得るために利用します。
func (s *Service) WithIDGenerator(gen IDGenerator) *Service {
	if gen != nil {
		s.newID = gen
	}
	return s
}

// CreateEmployeeInput は社員作成時の入力です。
type CreateEmployeeInput struct {
	Name string
}

// RenameEmployeeInput は社員改名時の入力です。
type RenameEmployeeInput struct {
	ID   string
	Name string
}

// DeleteEmployeeInput は社員削除時の入力です。
type DeleteEmployeeInput struct {
	ID string
}

// GetEmployeeInput は社員取得時の入力です。
type GetEmployeeInput struct {
	ID string
}

// ListEmployeesInput は一覧取得時の入力です。
type ListEmployeesInput struct {
	PageSize  int
	PageToken string
}

// ListEmployeesResult は一覧取得結果を表します。名前の昇順で返却されます。
type ListEmployeesResult struct {
	Employees     []*Employee
	NextPageToken string
}

// AssignedProjectsInput は割り当て取得時の入力です。
type AssignedProjectsInput struct {
	EmployeeID string
}

// SetAssignedProjectsInput は割り当て置き換え時の入力です。
type SetAssignedProjectsInput struct {
	EmployeeID string
	ProjectIDs []string
}

// CreateEmployee は新しい社員を作成します。同名の社員が存在する場合は ErrEmployeeAlreadyExists を返します。
func (s *Service) CreateEmployee(ctx context.Context, in CreateEmployeeInput) (*Employee, error) {
	name, err := normalizeName(in.Name)
	if err != nil {
		return nil, err
	}

	var created *Employee
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if err := s.ensureNameNotExists(txCtx, name, ""); err != nil {
			return err
		}

		now := s.clock.Now()
		result, err := s.repo.Create(txCtx, &Employee{
			ID:        s.newID(),
			Name:      name,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return err
		}

		created = result
		return nil
	}); err != nil {
		return nil, err
	}

	return created, nil
}

// RenameEmployee は社員名を変更します。
// 工数エントリと割り当ては ID で参照しているため、改名後は全履歴が新しい名前で参照されます。
func (s *Service) RenameEmployee(ctx context.Context, in RenameEmployeeInput) (*Employee, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	name, err := normalizeName(in.Name)
	if err != nil {
		return nil, err
	}

	var updated *Employee
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}

		if existing.Name == name {
			updated = existing
			return nil
		}

		if err := s.ensureNameNotExists(txCtx, name, existing.ID); err != nil {
			return err
		}

		existing.Name = name
		existing.UpdatedAt = s.clock.Now()

		result, err := s.repo.Update(txCtx, existing)
		if err != nil {
			return err
		}

		updated = result
		return nil
	}); err != nil {
		return nil, err
	}

	return updated, nil
}

// DeleteEmployee は社員を削除します。割り当ての削除と工数エントリの参照解除は同一トランザクションで完了します。
func (s *Service) DeleteEmployee(ctx context.Context, in DeleteEmployeeInput) error {
	if strings.TrimSpace(in.ID) == "" {
		return fmt.Errorf("id: %w", ErrInvalidID)
	}

	return s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		return s.repo.Delete(txCtx, in.ID)
	})
}

// GetEmployee は社員を取得します。
func (s *Service) GetEmployee(ctx context.Context, in GetEmployeeInput) (*Employee, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var result *Employee
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}
		result = found
		return nil
	}); err != nil {
		return nil, err
	}

	return result, nil
}

// ListEmployees は社員の一覧を名前順で取得します。
func (s *Service) ListEmployees(ctx context.Context, in ListEmployeesInput) (*ListEmployeesResult, error) {
	limit, err := normalizePageSize(in.PageSize)
	if err != nil {
		return nil, err
	}

	offset, err := parsePageToken(in.PageToken)
	if err != nil {
		return nil, err
	}

	var (
		employees []*Employee
		nextToken string
	)

	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, token, err := s.repo.List(txCtx, ListEmployeesFilter{Limit: limit, Offset: offset})
		if err != nil {
			return err
		}
		employees = result
		nextToken = token
		return nil
	}); err != nil {
		return nil, err
	}

	return &ListEmployeesResult{Employees: employees, NextPageToken: nextToken}, nil
}

// AssignedProjects は社員に割り当てられたプロジェクトをプロジェクト名順で返します。
func (s *Service) AssignedProjects(ctx context.Context, in AssignedProjectsInput) ([]AssignedProject, error) {
	if strings.TrimSpace(in.EmployeeID) == "" {
		return nil, fmt.Errorf("employee_id: %w", ErrInvalidID)
	}

	var assigned []AssignedProject
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.FindByID(txCtx, in.EmployeeID); err != nil {
			return err
		}
		result, err := s.repo.ListAssignedProjects(txCtx, in.EmployeeID)
		if err != nil {
			return err
		}
		assigned = result
		return nil
	}); err != nil {
		return nil, err
	}

	return assigned, nil
}

// SetAssignedProjects は社員の割り当てを指定されたプロジェクト集合で置き換えます。
// 空の集合を渡すとすべての割り当てが解除されます。
func (s *Service) SetAssignedProjects(ctx context.Context, in SetAssignedProjectsInput) ([]AssignedProject, error) {
	if strings.TrimSpace(in.EmployeeID) == "" {
		return nil, fmt.Errorf("employee_id: %w", ErrInvalidID)
	}

	projectIDs, err := normalizeProjectIDs(in.ProjectIDs)
	if err != nil {
		return nil, err
	}

	var assigned []AssignedProject
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.FindByID(txCtx, in.EmployeeID); err != nil {
			return err
		}
		if err := s.repo.ReplaceAssignments(txCtx, in.EmployeeID, projectIDs); err != nil {
			return err
		}
		result, err := s.repo.ListAssignedProjects(txCtx, in.EmployeeID)
		if err != nil {
			return err
		}
		assigned = result
		return nil
	}); err != nil {
		return nil, err
	}

	return assigned, nil
}

func (s *Service) ensureNameNotExists(ctx context.Context, name, selfID string) error {
	emp, err := s.repo.FindByName(ctx, name)
	if err != nil && !errors.Is(err, ErrEmployeeNotFound) {
		return err
	}
	if emp != nil && emp.ID != selfID {
		return ErrEmployeeAlreadyExists
	}
	return nil
}

func normalizeName(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || utf8.RuneCountInString(trimmed) > maxNameLength {
		return "", ErrInvalidName
	}
	return trimmed, nil
}

func normalizeProjectIDs(ids []string) ([]string, error) {
	seen := make(map[string]struct{}, len(ids))
	result := make([]string, 0, len(ids))
	for _, id := range ids {
		trimmed := strings.TrimSpace(id)
		if trimmed == "" {
			return nil, ErrInvalidProjectID
		}
		if _, dup := seen[trimmed]; dup {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	return result, nil
}

func normalizePageSize(pageSize int) (int, error) {
	if pageSize <= 0 {
		return defaultListPageSize, nil
	}
	if pageSize > maxListPageSize {
		return 0, ErrInvalidPageSize
	}
	return pageSize, nil
}

func parsePageToken(token string) (int, error) {
	if strings.TrimSpace(token) == "" {
		return 0, nil
	}

	offset, err := strconv.Atoi(token)
	if err != nil || offset < 0 {
		return 0, ErrInvalidPageToken
	}

	return offset, nil
}
