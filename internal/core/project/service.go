package project

import (
	"context"
	"errors"
	"fmt"
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

const maxNameLength = 200

// Service はプロジェクトに関するユースケースをまとめます。
type Service struct {
	repo  Repository
	clock Clock
	tx    TransactionManager
	newID func() string
}

// UseCase はプロジェクトユースケースの公開インターフェースです。
type UseCase interface {
	CreateProject(ctx context.Context, in CreateProjectInput) (*Project, error)
	GetProject(ctx context.Context, in GetProjectInput) (*Project, error)
	ListProjects(ctx context.Context) ([]*Project, error)
	RenameProject(ctx context.Context, in RenameProjectInput) (*Project, error)
	DeleteProject(ctx context.Context, in DeleteProjectInput) error
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

// CreateProjectInput はプロジェクト作成時の入力です。
type CreateProjectInput struct {
	Name string
}

// GetProjectInput はプロジェクト取得時の入力です。
type GetProjectInput struct {
	ID string
}

// RenameProjectInput はプロジェクト改名時の入力です。
type RenameProjectInput struct {
	ID   string
	Name string
}

// DeleteProjectInput はプロジェクト削除時の入力です。
type DeleteProjectInput struct {
	ID string
}

// CreateProject は新しいプロジェクトを作成します。
func (s *Service) CreateProject(ctx context.Context, in CreateProjectInput) (*Project, error) {
	name, err := normalizeName(in.Name)
	if err != nil {
		return nil, err
	}

	var created *Project
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if err := s.ensureNameNotExists(txCtx, name, ""); err != nil {
			return err
		}

		now := s.clock.Now()
		result, err := s.repo.Create(txCtx, &Project{
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

// GetProject はプロジェクトを取得します。
func (s *Service) GetProject(ctx context.Context, in GetProjectInput) (*Project, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var found *Project
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		p, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}
		found = p
		return nil
	}); err != nil {
		return nil, err
	}
	return found, nil
}

// ListProjects は全プロジェクトを名前順で返します。
func (s *Service) ListProjects(ctx context.Context) ([]*Project, error) {
	var projects []*Project
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, err := s.repo.List(txCtx)
		if err != nil {
			return err
		}
		projects = result
		return nil
	}); err != nil {
		return nil, err
	}
	return projects, nil
}

// RenameProject はプロジェクト名を変更します。
func (s *Service) RenameProject(ctx context.Context, in RenameProjectInput) (*Project, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	name, err := normalizeName(in.Name)
	if err != nil {
		return nil, err
	}

	var updated *Project
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

// DeleteProject はプロジェクトを削除します。工数はプロジェクト単位で集計されるため、エントリも合わせて削除されます。
func (s *Service) DeleteProject(ctx context.Context, in DeleteProjectInput) error {
	if strings.TrimSpace(in.ID) == "" {
		return fmt.Errorf("id: %w", ErrInvalidID)
	}

	return s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		return s.repo.Delete(txCtx, in.ID)
	})
}

func (s *Service) ensureNameNotExists(ctx context.Context, name, selfID string) error {
	p, err := s.repo.FindByName(ctx, name)
	if err != nil && !errors.Is(err, ErrProjectNotFound) {
		return err
	}
	if p != nil && p.ID != selfID {
		return ErrProjectAlreadyExists
	}
	return nil
}

func normalizeName(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || utf8.RuneCountInString(trimmed) > maxNameLength {
		return "", ErrInvalidName
	}
	if strings.EqualFold(trimmed, ReservedName) {
		return "", fmt.Errorf("%q is reserved: %w", trimmed, ErrInvalidName)
	}
	return trimmed, nil
}
