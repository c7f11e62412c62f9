package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"

	"github.com/ogurasousui/codex-timesheet/internal/core/apperr"
	"github.com/ogurasousui/codex-timesheet/internal/core/employee"
)

type stubRow struct {
	scanFn func(dest ...any) error
}

func (s stubRow) Scan(dest ...any) error {
	return s.scanFn(dest...)
}

func TestScanEmployee_Success(t *testing.T) {
	t.Parallel()

	createdAt := time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)
	updatedAt := createdAt.Add(time.Minute)

	row := stubRow{scanFn: func(dest ...any) error {
		if len(dest) != 4 {
			return errors.New("unexpected dest length")
		}
		*(dest[0].(*string)) = "emp-1"
		*(dest[1].(*string)) = "Max Mustermann"
		*(dest[2].(*time.Time)) = createdAt
		*(dest[3].(*time.Time)) = updatedAt
		return nil
	}}

	emp, err := scanEmployee(row)
	if err != nil {
		t.Fatalf("scanEmployee returned error: %v", err)
	}
	if emp.ID != "emp-1" || emp.Name != "Max Mustermann" {
		t.Fatalf("unexpected employee: %+v", emp)
	}
	if !emp.UpdatedAt.Equal(updatedAt) {
		t.Fatalf("expected updated_at %v, got %v", updatedAt, emp.UpdatedAt)
	}
}

func TestScanEmployee_NoRows(t *testing.T) {
	t.Parallel()

	row := stubRow{scanFn: func(dest ...any) error {
		return pgx.ErrNoRows
	}}

	_, err := scanEmployee(row)
	if !errors.Is(err, employee.ErrEmployeeNotFound) {
		t.Fatalf("expected ErrEmployeeNotFound, got %v", err)
	}
}

func TestTranslateEmployeePgError(t *testing.T) {
	t.Parallel()

	uniqueErr := &pgconn.PgError{Code: uniqueViolationCode, ConstraintName: "employees_name_key"}
	if !errors.Is(translateEmployeePgError(uniqueErr), employee.ErrEmployeeAlreadyExists) {
		t.Fatalf("expected unique violation to map to ErrEmployeeAlreadyExists")
	}

	projectFK := &pgconn.PgError{Code: foreignKeyViolationCode, ConstraintName: "employee_projects_project_id_fkey"}
	if !errors.Is(translateEmployeePgError(projectFK), employee.ErrProjectNotFound) {
		t.Fatalf("expected project fk violation to map to ErrProjectNotFound")
	}

	employeeFK := &pgconn.PgError{Code: foreignKeyViolationCode, ConstraintName: "employee_projects_employee_id_fkey"}
	if !errors.Is(translateEmployeePgError(employeeFK), employee.ErrEmployeeNotFound) {
		t.Fatalf("expected employee fk violation to map to ErrEmployeeNotFound")
	}

	badUUID := &pgconn.PgError{Code: invalidTextRepresentationCode}
	if !errors.Is(translateEmployeePgError(badUUID), employee.ErrEmployeeNotFound) {
		t.Fatalf("expected invalid uuid to map to ErrEmployeeNotFound")
	}

	shutdown := &pgconn.PgError{Code: "57P01"}
	if !errors.Is(translateEmployeePgError(shutdown), apperr.ErrStoreUnavailable) {
		t.Fatalf("expected admin shutdown to map to ErrStoreUnavailable")
	}

	other := errors.New("other")
	if translateEmployeePgError(other) != other {
		t.Fatalf("unexpected translation for generic error")
	}
}

func TestEmployeeRepository_List_Paging(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewEmployeeRepository(mock)

	query := regexp.QuoteMeta(`
        SELECT id, name, created_at, updated_at
          FROM employees
         ORDER BY name ASC, id ASC
         LIMIT $1
        OFFSET $2
    `)

	now := time.Now().UTC()
	rows := pgxmock.NewRows([]string{"id", "name", "created_at", "updated_at"}).
		AddRow("emp-2", "Erika", now, now).
		AddRow("emp-1", "Max", now, now).
		AddRow("emp-3", "Zoe", now, now)

	mock.ExpectQuery(query).
		WithArgs(3, 0).
		WillReturnRows(rows)

	employees, nextToken, err := repo.List(context.Background(), employee.ListEmployeesFilter{Limit: 2})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(employees) != 2 {
		t.Fatalf("expected 2 employees, got %d", len(employees))
	}
	if employees[0].Name != "Erika" || employees[1].Name != "Max" {
		t.Fatalf("unexpected order: %s, %s", employees[0].Name, employees[1].Name)
	}
	if nextToken != "2" {
		t.Fatalf("expected next token '2', got %s", nextToken)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestEmployeeRepository_List_InvalidFilter(t *testing.T) {
	t.Parallel()

	repo := NewEmployeeRepository(nil)

	if _, _, err := repo.List(context.Background(), employee.ListEmployeesFilter{Limit: 0}); !errors.Is(err, employee.ErrInvalidPageSize) {
		t.Fatalf("expected ErrInvalidPageSize, got %v", err)
	}
	if _, _, err := repo.List(context.Background(), employee.ListEmployeesFilter{Limit: 1, Offset: -1}); !errors.Is(err, employee.ErrInvalidPageToken) {
		t.Fatalf("expected ErrInvalidPageToken, got %v", err)
	}
}

func TestEmployeeRepository_Update_Rename(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewEmployeeRepository(mock)
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE employees`)).
		WithArgs("Max Muster", now, "emp-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "created_at", "updated_at"}).
			AddRow("emp-1", "Max Muster", now, now))

	updated, err := repo.Update(context.Background(), &employee.Employee{ID: "emp-1", Name: "Max Muster", UpdatedAt: now})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.ID != "emp-1" || updated.Name != "Max Muster" {
		t.Fatalf("unexpected employee: %+v", updated)
	}

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE employees`)).
		WithArgs("Erika", now, "emp-1").
		WillReturnError(&pgconn.PgError{Code: uniqueViolationCode})

	if _, err := repo.Update(context.Background(), &employee.Employee{ID: "emp-1", Name: "Erika", UpdatedAt: now}); !errors.Is(err, employee.ErrEmployeeAlreadyExists) {
		t.Fatalf("expected ErrEmployeeAlreadyExists, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestEmployeeRepository_Delete_NotFound(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewEmployeeRepository(mock)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM employees WHERE id = $1`)).
		WithArgs("emp-9").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	if err := repo.Delete(context.Background(), "emp-9"); !errors.Is(err, employee.ErrEmployeeNotFound) {
		t.Fatalf("expected ErrEmployeeNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestEmployeeRepository_ReplaceAssignments(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewEmployeeRepository(mock)
	projectIDs := []string{"p-a", "p-b"}

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM employee_projects WHERE employee_id = $1`)).
		WithArgs("emp-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(regexp.QuoteMeta(`SELECT $1, unnest($2::text[])::uuid`)).
		WithArgs("emp-1", projectIDs).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))

	if err := repo.ReplaceAssignments(context.Background(), "emp-1", projectIDs); err != nil {
		t.Fatalf("ReplaceAssignments returned error: %v", err)
	}

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM employee_projects WHERE employee_id = $1`)).
		WithArgs("emp-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectExec(regexp.QuoteMeta(`SELECT $1, unnest($2::text[])::uuid`)).
		WithArgs("emp-1", []string{"missing"}).
		WillReturnError(&pgconn.PgError{Code: foreignKeyViolationCode, ConstraintName: "employee_projects_project_id_fkey"})

	if err := repo.ReplaceAssignments(context.Background(), "emp-1", []string{"missing"}); !errors.Is(err, employee.ErrProjectNotFound) {
		t.Fatalf("expected ErrProjectNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestEmployeeRepository_ListAssignedProjects(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewEmployeeRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta(`
          FROM employee_projects ep
          JOIN projects p ON p.id = ep.project_id
         WHERE ep.employee_id = $1
         ORDER BY p.name ASC
    `)).
		WithArgs("emp-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name"}).
			AddRow("p-a", "Proj A").
			AddRow("p-b", "Proj B"))

	assigned, err := repo.ListAssignedProjects(context.Background(), "emp-1")
	if err != nil {
		t.Fatalf("ListAssignedProjects returned error: %v", err)
	}
	if len(assigned) != 2 || assigned[0].ProjectName != "Proj A" || assigned[1].ProjectID != "p-b" {
		t.Fatalf("unexpected assignments: %+v", assigned)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
