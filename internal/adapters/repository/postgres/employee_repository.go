package postgres

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ogurasousui/codex-timesheet/internal/core/employee"
	pgdb "github.com/ogurasousui/codex-timesheet/internal/platform/db/postgres"
)

// EmployeeRepository は PostgreSQL を利用した社員永続化の実装です。
type EmployeeRepository struct {
	pool pgdb.Queryer
}

// NewEmployeeRepository は EmployeeRepository を生成します。
func NewEmployeeRepository(pool pgdb.Queryer) *EmployeeRepository {
	return &EmployeeRepository{pool: pool}
}

// Create は社員を新規作成します。
func (r *EmployeeRepository) Create(ctx context.Context, e *employee.Employee) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO employees (id, name, created_at, updated_at)
        VALUES ($1, $2, $3, $4)
        RETURNING id, name, created_at, updated_at
    `, e.ID, e.Name, e.CreatedAt, e.UpdatedAt)

	created, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return created, nil
}

// Update は社員名を更新します。エントリと割り当ては ID で参照しているため、この 1 行の更新で改名が完了します。
func (r *EmployeeRepository) Update(ctx context.Context, e *employee.Employee) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE employees
           SET name = $1,
               updated_at = $2
         WHERE id = $3
        RETURNING id, name, created_at, updated_at
    `, e.Name, e.UpdatedAt, e.ID)

	updated, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return updated, nil
}

// Delete は社員を削除します。割り当ては ON DELETE CASCADE、エントリは ON DELETE SET NULL で同一文内に処理されます。
func (r *EmployeeRepository) Delete(ctx context.Context, id string) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return translateEmployeePgError(err)
	}
	if tag.RowsAffected() == 0 {
		return employee.ErrEmployeeNotFound
	}
	return nil
}

// FindByID は ID で社員を取得します。
func (r *EmployeeRepository) FindByID(ctx context.Context, id string) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT id, name, created_at, updated_at
          FROM employees
         WHERE id = $1
         LIMIT 1
    `, id)

	found, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return found, nil
}

// FindByName は名前で社員を取得します。
func (r *EmployeeRepository) FindByName(ctx context.Context, name string) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT id, name, created_at, updated_at
          FROM employees
         WHERE name = $1
         LIMIT 1
    `, name)

	found, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return found, nil
}

// List は社員の一覧を名前順で取得します。
func (r *EmployeeRepository) List(ctx context.Context, filter employee.ListEmployeesFilter) ([]*employee.Employee, string, error) {
	if filter.Limit <= 0 {
		return nil, "", employee.ErrInvalidPageSize
	}
	if filter.Offset < 0 {
		return nil, "", employee.ErrInvalidPageToken
	}

	limitWithBuffer := filter.Limit + 1

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT id, name, created_at, updated_at
          FROM employees
         ORDER BY name ASC, id ASC
         LIMIT $1
        OFFSET $2
    `, limitWithBuffer, filter.Offset)
	if err != nil {
		return nil, "", translateEmployeePgError(err)
	}
	defer rows.Close()

	employees := make([]*employee.Employee, 0, filter.Limit)
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, "", translateEmployeePgError(err)
		}
		employees = append(employees, emp)
	}

	if err := rows.Err(); err != nil {
		return nil, "", translateEmployeePgError(err)
	}

	var nextToken string
	if len(employees) == limitWithBuffer {
		employees = employees[:filter.Limit]
		nextToken = strconv.Itoa(filter.Offset + filter.Limit)
	}

	return employees, nextToken, nil
}

// ListAssignedProjects は社員に割り当てられたプロジェクトをプロジェクト名順で返します。
func (r *EmployeeRepository) ListAssignedProjects(ctx context.Context, employeeID string) ([]employee.AssignedProject, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT p.id, p.name
          FROM employee_projects ep
          JOIN projects p ON p.id = ep.project_id
         WHERE ep.employee_id = $1
         ORDER BY p.name ASC
    `, employeeID)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	defer rows.Close()

	assigned := make([]employee.AssignedProject, 0)
	for rows.Next() {
		var ap employee.AssignedProject
		if err := rows.Scan(&ap.ProjectID, &ap.ProjectName); err != nil {
			return nil, translateEmployeePgError(err)
		}
		assigned = append(assigned, ap)
	}
	if err := rows.Err(); err != nil {
		return nil, translateEmployeePgError(err)
	}
	return assigned, nil
}

// ReplaceAssignments は社員の割り当てを projectIDs で置き換えます。呼び出し側のトランザクション内で実行してください。
func (r *EmployeeRepository) ReplaceAssignments(ctx context.Context, employeeID string, projectIDs []string) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	if _, err := exec.Exec(ctx, `DELETE FROM employee_projects WHERE employee_id = $1`, employeeID); err != nil {
		return translateEmployeePgError(err)
	}
	if len(projectIDs) == 0 {
		return nil
	}

	if _, err := exec.Exec(ctx, `
        INSERT INTO employee_projects (employee_id, project_id)
        SELECT $1, unnest($2::text[])::uuid
    `, employeeID, projectIDs); err != nil {
		if pgErr, ok := pgErrorCode(err); ok && pgErr.Code == invalidTextRepresentationCode {
			return employee.ErrProjectNotFound
		}
		return translateEmployeePgError(err)
	}
	return nil
}

func scanEmployee(row pgx.Row) (*employee.Employee, error) {
	var (
		id        string
		name      string
		createdAt time.Time
		updatedAt time.Time
	)

	if err := row.Scan(&id, &name, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, employee.ErrEmployeeNotFound
		}
		return nil, err
	}

	return &employee.Employee{
		ID:        id,
		Name:      name,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

func translateEmployeePgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return employee.ErrEmployeeNotFound
	}

	if pgErr, ok := pgErrorCode(err); ok {
		switch pgErr.Code {
		case uniqueViolationCode:
			return employee.ErrEmployeeAlreadyExists
		case foreignKeyViolationCode:
			if pgErr.ConstraintName == "employee_projects_project_id_fkey" {
				return employee.ErrProjectNotFound
			}
			return employee.ErrEmployeeNotFound
		case invalidTextRepresentationCode:
			return employee.ErrEmployeeNotFound
		}
	}

	return pgdb.TranslateUnavailable(err)
}
