// Package app はリポジトリとユースケースを組み立てます。cmd/server と cmd/timesheetctl が共有します。
package app

import (
	"time"

	"github.com/ogurasousui/codex-timesheet/internal/adapters/holiday"
	"github.com/ogurasousui/codex-timesheet/internal/adapters/pdf"
	"github.com/ogurasousui/codex-timesheet/internal/adapters/repository/postgres"
	"github.com/ogurasousui/codex-timesheet/internal/core/calendar"
	"github.com/ogurasousui/codex-timesheet/internal/core/employee"
	"github.com/ogurasousui/codex-timesheet/internal/core/entry"
	"github.com/ogurasousui/codex-timesheet/internal/core/legacy"
	"github.com/ogurasousui/codex-timesheet/internal/core/project"
	"github.com/ogurasousui/codex-timesheet/internal/core/report"
	pgdb "github.com/ogurasousui/codex-timesheet/internal/platform/db/postgres"
)

// Pool は pgxpool.Pool (テストでは pgxmock) が満たす接続の抽象です。
type Pool interface {
	pgdb.Queryer
	pgdb.TxBeginner
}

// Services は組み立て済みのユースケースです。
type Services struct {
	Employees *employee.Service
	Projects  *project.Service
	Calendar  *calendar.Service
	Entries   *entry.Service
	Reports   *report.Service
	Importer  *legacy.Importer
}

// Options は組み立て時の設定です。
type Options struct {
	// TxTimeout は期限を持たないコンテキストで開始したトランザクションの上限時間です。
	TxTimeout time.Duration
}

// New は PostgreSQL リポジトリ、祝日プロバイダ、PDF レンダラーを各ユースケースに接続します。
func New(pool Pool, opts Options) *Services {
	tx := pgdb.NewTransactionManager(pool, pgdb.WithTimeout(opts.TxTimeout))

	employeeRepo := postgres.NewEmployeeRepository(pool)
	projectRepo := postgres.NewProjectRepository(pool)
	entryRepo := postgres.NewEntryRepository(pool)

	calendarSvc := calendar.NewService(
		postgres.NewHolidayRepository(pool),
		postgres.NewVacationDayRepository(pool),
		holiday.NewProvider(),
		tx,
	)

	return &Services{
		Employees: employee.NewService(employeeRepo, nil, tx),
		Projects:  project.NewService(projectRepo, nil, tx),
		Calendar:  calendarSvc,
		Entries:   entry.NewService(entryRepo, employeeRepo, projectRepo, calendarSvc, nil, tx),
		Reports:   report.NewService(entryRepo, pdf.NewRenderer(), nil, tx),
		Importer:  legacy.NewImporter(employeeRepo, projectRepo, entryRepo, tx),
	}
}
