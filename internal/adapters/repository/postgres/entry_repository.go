package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/ogurasousui/codex-timesheet/internal/core/employee"
	"github.com/ogurasousui/codex-timesheet/internal/core/entry"
	"github.com/ogurasousui/codex-timesheet/internal/core/project"
	pgdb "github.com/ogurasousui/codex-timesheet/internal/platform/db/postgres"
)

const entryColumns = `
        SELECT en.id,
               en.date,
               en.employee_id,
               e.name,
               en.project_id,
               p.name,
               en.hours::text,
               en.description,
               en.kind,
               en.created_at,
               en.updated_at
          FROM entries en
          LEFT JOIN employees e ON e.id = en.employee_id
          LEFT JOIN projects p ON p.id = en.project_id`

// EntryRepository は PostgreSQL を利用した工数エントリ永続化の実装です。
type EntryRepository struct {
	pool pgdb.Queryer
}

// NewEntryRepository は EntryRepository を生成します。
func NewEntryRepository(pool pgdb.Queryer) *EntryRepository {
	return &EntryRepository{pool: pool}
}

// DeleteMonth は社員の指定月のエントリを削除します。
func (r *EntryRepository) DeleteMonth(ctx context.Context, employeeID string, year int, month time.Month) (int64, error) {
	from := entry.DateOf(year, month, 1)
	to := from.AddDate(0, 1, 0)

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `
        DELETE FROM entries
         WHERE employee_id = $1
           AND date >= $2
           AND date < $3
    `, employeeID, from, to)
	if err != nil {
		return 0, translateEntryPgError(err)
	}
	return tag.RowsAffected(), nil
}

const (
	insertColumns = 9
	// insertBatchSize 行ごとに 1 文を発行します。PostgreSQL の 1 文あたりのパラメータ上限は 65535 です。
	insertBatchSize = 1000
)

// InsertMany はエントリを insertBatchSize 行ずつの複数行 INSERT で登録します。
// 全件を 1 トランザクションで扱う場合は呼び出し側のトランザクション内で実行してください。
func (r *EntryRepository) InsertMany(ctx context.Context, entries []*entry.Entry) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	for start := 0; start < len(entries); start += insertBatchSize {
		end := min(start+insertBatchSize, len(entries))
		if err := insertChunk(ctx, exec, entries[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func insertChunk(ctx context.Context, exec pgdb.Queryer, entries []*entry.Entry) error {
	args := make([]any, 0, len(entries)*insertColumns)
	values := make([]string, 0, len(entries))
	for i, e := range entries {
		base := i * insertColumns
		placeholders := make([]string, insertColumns)
		for j := range placeholders {
			placeholders[j] = "$" + strconv.Itoa(base+j+1)
		}
		placeholders[5] += "::numeric"
		values = append(values, "("+strings.Join(placeholders, ", ")+")")
		args = append(args,
			e.ID,
			e.Date,
			nullableID(e.EmployeeID),
			nullableID(e.ProjectID),
			string(e.Kind),
			e.Hours.String(),
			e.Description,
			e.CreatedAt,
			e.UpdatedAt,
		)
	}

	if _, err := exec.Exec(ctx, `
        INSERT INTO entries (id, date, employee_id, project_id, kind, hours, description, created_at, updated_at)
        VALUES `+strings.Join(values, ",\n               "), args...); err != nil {
		return translateEntryPgError(err)
	}
	return nil
}

// Create はエントリを 1 件登録します。
func (r *EntryRepository) Create(ctx context.Context, e *entry.Entry) (*entry.Entry, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO entries (id, date, employee_id, project_id, kind, hours, description, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6::numeric, $7, $8, $9)
        RETURNING id, date, employee_id, NULL::text, project_id, NULL::text, hours::text, description, kind, created_at, updated_at
    `,
		e.ID,
		e.Date,
		nullableID(e.EmployeeID),
		nullableID(e.ProjectID),
		string(e.Kind),
		e.Hours.String(),
		e.Description,
		e.CreatedAt,
		e.UpdatedAt,
	)

	created, err := scanEntry(row)
	if err != nil {
		return nil, translateEntryPgError(err)
	}
	return created, nil
}

// Update は ID で指定したエントリを更新します。
func (r *EntryRepository) Update(ctx context.Context, e *entry.Entry) (*entry.Entry, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE entries
           SET date = $1,
               employee_id = $2,
               project_id = $3,
               kind = $4,
               hours = $5::numeric,
               description = $6,
               updated_at = $7
         WHERE id = $8
        RETURNING id, date, employee_id, NULL::text, project_id, NULL::text, hours::text, description, kind, created_at, updated_at
    `,
		e.Date,
		nullableID(e.EmployeeID),
		nullableID(e.ProjectID),
		string(e.Kind),
		e.Hours.String(),
		e.Description,
		e.UpdatedAt,
		e.ID,
	)

	updated, err := scanEntry(row)
	if err != nil {
		return nil, translateEntryPgError(err)
	}
	return updated, nil
}

func (r *EntryRepository) FindByID(ctx context.Context, id string) (*entry.Entry, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, entryColumns+`
         WHERE en.id = $1
         LIMIT 1
    `, id)

	found, err := scanEntry(row)
	if err != nil {
		return nil, translateEntryPgError(err)
	}
	return found, nil
}

func (r *EntryRepository) ListMonth(ctx context.Context, employeeID string, year int, month time.Month) ([]*entry.Entry, error) {
	from := entry.DateOf(year, month, 1)
	to := from.AddDate(0, 1, 0)
	return r.query(ctx, entryColumns+`
         WHERE en.employee_id = $1
           AND en.date >= $2
           AND en.date < $3
         ORDER BY en.date ASC, p.name ASC NULLS FIRST, en.id ASC
    `, employeeID, from, to)
}

// List はフィルタに一致するエントリを日付順で返します。
func (r *EntryRepository) List(ctx context.Context, filter entry.ListFilter) ([]*entry.Entry, error) {
	args := make([]any, 0, 3)
	conditions := make([]string, 0, 2)

	if filter.Year != 0 {
		from := entry.DateOf(filter.Year, time.January, 1)
		args = append(args, from, from.AddDate(1, 0, 0))
		conditions = append(conditions, fmt.Sprintf("en.date >= $%d AND en.date < $%d", len(args)-1, len(args)))
	}
	if filter.EmployeeID != "" {
		args = append(args, filter.EmployeeID)
		conditions = append(conditions, "en.employee_id = $"+strconv.Itoa(len(args)))
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "\n         WHERE " + strings.Join(conditions, " AND ")
	}

	return r.query(ctx, entryColumns+whereClause+`
         ORDER BY en.date ASC, e.name ASC NULLS LAST, p.name ASC NULLS FIRST, en.id ASC
    `, args...)
}

// Years はエントリが存在する年を降順で返します。
func (r *EntryRepository) Years(ctx context.Context) ([]int, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT DISTINCT EXTRACT(YEAR FROM date)::int AS year
          FROM entries
         ORDER BY year DESC
    `)
	if err != nil {
		return nil, translateEntryPgError(err)
	}
	defer rows.Close()

	years := make([]int, 0)
	for rows.Next() {
		var y int
		if err := rows.Scan(&y); err != nil {
			return nil, translateEntryPgError(err)
		}
		years = append(years, y)
	}
	if err := rows.Err(); err != nil {
		return nil, translateEntryPgError(err)
	}
	return years, nil
}

func (r *EntryRepository) query(ctx context.Context, query string, args ...any) ([]*entry.Entry, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, translateEntryPgError(err)
	}
	defer rows.Close()

	entries := make([]*entry.Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, translateEntryPgError(err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, translateEntryPgError(err)
	}
	return entries, nil
}

func scanEntry(row pgx.Row) (*entry.Entry, error) {
	var (
		id           string
		date         time.Time
		employeeID   sql.NullString
		employeeName sql.NullString
		projectID    sql.NullString
		projectName  sql.NullString
		hoursRaw     string
		description  string
		kind         string
		createdAt    time.Time
		updatedAt    time.Time
	)

	if err := row.Scan(
		&id,
		&date,
		&employeeID,
		&employeeName,
		&projectID,
		&projectName,
		&hoursRaw,
		&description,
		&kind,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entry.ErrEntryNotFound
		}
		return nil, err
	}

	hours, err := decimal.NewFromString(hoursRaw)
	if err != nil {
		return nil, fmt.Errorf("postgres: entry %s: parse hours %q: %w", id, hoursRaw, err)
	}

	return &entry.Entry{
		ID:           id,
		Date:         entry.DateOf(date.Year(), date.Month(), date.Day()),
		EmployeeID:   employeeID.String,
		EmployeeName: employeeName.String,
		ProjectID:    projectID.String,
		ProjectName:  projectName.String,
		Hours:        hours,
		Description:  description,
		Kind:         entry.Kind(kind),
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}, nil
}

func translateEntryPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return entry.ErrEntryNotFound
	}
	if pgErr, ok := pgErrorCode(err); ok {
		switch pgErr.Code {
		case foreignKeyViolationCode:
			if pgErr.ConstraintName == "entries_project_id_fkey" {
				return project.ErrProjectNotFound
			}
			return employee.ErrEmployeeNotFound
		case checkViolationCode:
			switch pgErr.ConstraintName {
			case "entries_hours_check":
				return entry.ErrNegativeHours
			case "entries_project_check":
				return entry.ErrProjectRequired
			default:
				return entry.ErrInvalidKind
			}
		case invalidTextRepresentationCode:
			return entry.ErrEntryNotFound
		case numericValueOutOfRangeCode:
			return entry.ErrUnrecognizedValue
		}
	}
	return pgdb.TranslateUnavailable(err)
}

func nullableID(id string) any {
	if strings.TrimSpace(id) == "" {
		return nil
	}
	return id
}
