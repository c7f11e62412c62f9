package app

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"

	"github.com/ogurasousui/codex-timesheet/internal/core/apperr"
	"github.com/ogurasousui/codex-timesheet/internal/core/employee"
)

func TestNew_WiresRepositoriesThroughTransactions(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	svc := New(mock, Options{})
	if svc.Employees == nil || svc.Projects == nil || svc.Calendar == nil || svc.Entries == nil || svc.Reports == nil || svc.Importer == nil {
		t.Fatalf("expected every service to be wired: %+v", svc)
	}

	mock.ExpectBeginTx(pgx.TxOptions{AccessMode: pgx.ReadOnly}).WillReturnError(errors.New("dial tcp: connection refused"))

	_, err = svc.Employees.GetEmployee(context.Background(), employee.GetEmployeeInput{ID: "emp-1"})
	if err == nil {
		t.Fatalf("expected error when the transaction cannot start")
	}

	mock.ExpectBeginTx(pgx.TxOptions{AccessMode: pgx.ReadOnly})
	mock.ExpectQuery(regexp.QuoteMeta(`FROM employees`)).
		WithArgs("emp-1").
		WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	_, err = svc.Employees.GetEmployee(context.Background(), employee.GetEmployeeInput{ID: "emp-1"})
	if !errors.Is(err, apperr.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}
