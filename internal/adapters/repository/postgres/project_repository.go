package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ogurasousui/codex-timesheet/internal/core/project"
	pgdb "github.com/ogurasousui/codex-timesheet/internal/platform/db/postgres"
)

// ProjectRepository は PostgreSQL を利用したプロジェクト永続化の実装です。
type ProjectRepository struct {
	pool pgdb.Queryer
}

// NewProjectRepository は ProjectRepository を生成します。
func NewProjectRepository(pool pgdb.Queryer) *ProjectRepository {
	return &ProjectRepository{pool: pool}
}

func (r *ProjectRepository) Create(ctx context.Context, p *project.Project) (*project.Project, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO projects (id, name, created_at, updated_at)
        VALUES ($1, $2, $3, $4)
        RETURNING id, name, created_at, updated_at
    `, p.ID, p.Name, p.CreatedAt, p.UpdatedAt)

	created, err := scanProject(row)
	if err != nil {
		return nil, translateProjectPgError(err)
	}
	return created, nil
}

func (r *ProjectRepository) Update(ctx context.Context, p *project.Project) (*project.Project, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE projects
           SET name = $1,
               updated_at = $2
         WHERE id = $3
        RETURNING id, name, created_at, updated_at
    `, p.Name, p.UpdatedAt, p.ID)

	updated, err := scanProject(row)
	if err != nil {
		return nil, translateProjectPgError(err)
	}
	return updated, nil
}

// Delete はプロジェクトを削除します。割り当てと工数エントリは ON DELETE CASCADE で削除されます。
func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return translateProjectPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return project.ErrProjectNotFound
	}
	return nil
}

func (r *ProjectRepository) FindByID(ctx context.Context, id string) (*project.Project, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT id, name, created_at, updated_at
          FROM projects
         WHERE id = $1
         LIMIT 1
    `, id)

	found, err := scanProject(row)
	if err != nil {
		return nil, translateProjectPgError(err)
	}
	return found, nil
}

func (r *ProjectRepository) FindByName(ctx context.Context, name string) (*project.Project, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT id, name, created_at, updated_at
          FROM projects
         WHERE name = $1
         LIMIT 1
    `, name)

	found, err := scanProject(row)
	if err != nil {
		return nil, translateProjectPgError(err)
	}
	return found, nil
}

func (r *ProjectRepository) List(ctx context.Context) ([]*project.Project, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT id, name, created_at, updated_at
          FROM projects
         ORDER BY name ASC
    `)
	if err != nil {
		return nil, translateProjectPgError(err)
	}
	defer rows.Close()

	projects := make([]*project.Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, translateProjectPgError(err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, translateProjectPgError(err)
	}
	return projects, nil
}

func scanProject(row pgx.Row) (*project.Project, error) {
	var (
		p         project.Project
		createdAt time.Time
		updatedAt time.Time
	)
	if err := row.Scan(&p.ID, &p.Name, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, project.ErrProjectNotFound
		}
		return nil, err
	}
	p.CreatedAt = createdAt
	p.UpdatedAt = updatedAt
	return &p, nil
}

func translateProjectPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return project.ErrProjectNotFound
	}
	if pgErr, ok := pgErrorCode(err); ok {
		switch pgErr.Code {
		case uniqueViolationCode:
			return project.ErrProjectAlreadyExists
		case invalidTextRepresentationCode:
			return project.ErrProjectNotFound
		}
	}
	return pgdb.TranslateUnavailable(err)
}
