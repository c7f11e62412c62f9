package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ogurasousui/codex-timesheet/internal/core/calendar"
	pgdb "github.com/ogurasousui/codex-timesheet/internal/platform/db/postgres"
)

const (
	holidaysTable     = "holidays"
	vacationDaysTable = "vacation_days"
)

// CalendarDayRepository は日付をキーとするテーブル (holidays / vacation_days) の実装です。
type CalendarDayRepository struct {
	pool  pgdb.Queryer
	table string
}

// NewHolidayRepository は祝日テーブル用のリポジトリを生成します。
func NewHolidayRepository(pool pgdb.Queryer) *CalendarDayRepository {
	return &CalendarDayRepository{pool: pool, table: holidaysTable}
}

// NewVacationDayRepository は会社休暇日テーブル用のリポジトリを生成します。
func NewVacationDayRepository(pool pgdb.Queryer) *CalendarDayRepository {
	return &CalendarDayRepository{pool: pool, table: vacationDaysTable}
}

func (r *CalendarDayRepository) List(ctx context.Context, year int) ([]calendar.Day, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT date, name
          FROM `+r.table+`
         WHERE $1 = 0 OR EXTRACT(YEAR FROM date) = $1
         ORDER BY date ASC
    `, year)
	if err != nil {
		return nil, translateCalendarPgError(err)
	}
	defer rows.Close()

	days := make([]calendar.Day, 0)
	for rows.Next() {
		d, err := scanCalendarDay(rows)
		if err != nil {
			return nil, translateCalendarPgError(err)
		}
		days = append(days, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, translateCalendarPgError(err)
	}
	return days, nil
}

func (r *CalendarDayRepository) Find(ctx context.Context, date time.Time) (*calendar.Day, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `SELECT date, name FROM `+r.table+` WHERE date = $1`, date)

	d, err := scanCalendarDay(row)
	if err != nil {
		return nil, translateCalendarPgError(err)
	}
	return d, nil
}

func (r *CalendarDayRepository) Create(ctx context.Context, day calendar.Day) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	if _, err := exec.Exec(ctx, `INSERT INTO `+r.table+` (date, name) VALUES ($1, $2)`, day.Date, day.Name); err != nil {
		return translateCalendarPgError(err)
	}
	return nil
}

func (r *CalendarDayRepository) Update(ctx context.Context, date time.Time, day calendar.Day) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `UPDATE `+r.table+` SET date = $1, name = $2 WHERE date = $3`, day.Date, day.Name, date)
	if err != nil {
		return translateCalendarPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return calendar.ErrDayNotFound
	}
	return nil
}

func (r *CalendarDayRepository) Delete(ctx context.Context, date time.Time) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM `+r.table+` WHERE date = $1`, date)
	if err != nil {
		return translateCalendarPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return calendar.ErrDayNotFound
	}
	return nil
}

func scanCalendarDay(row pgx.Row) (*calendar.Day, error) {
	var (
		date time.Time
		name string
	)
	if err := row.Scan(&date, &name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, calendar.ErrDayNotFound
		}
		return nil, err
	}
	return &calendar.Day{
		Date: time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC),
		Name: name,
	}, nil
}

func translateCalendarPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return calendar.ErrDayNotFound
	}
	if pgErr, ok := pgErrorCode(err); ok && pgErr.Code == uniqueViolationCode {
		return calendar.ErrDayAlreadyExists
	}
	return pgdb.TranslateUnavailable(err)
}
