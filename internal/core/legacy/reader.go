// Package legacy は旧形式の工数 CSV (Datum,Mitarbeiter,Projekt,Stunden,Beschreibung,Typ) を取り込みます。
// 起動時の暗黙的な補完は行わず、CLI から明示的に一度だけ実行します。
package legacy

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ogurasousui/codex-timesheet/internal/core/entry"
	"github.com/ogurasousui/codex-timesheet/internal/core/project"
)

var (
	ErrMissingColumn = errors.New("legacy: missing column")
	ErrInvalidRow    = errors.New("legacy: invalid row")
)

var requiredColumns = []string{"Datum", "Mitarbeiter", "Projekt", "Stunden", "Beschreibung", "Typ"}

var dateLayouts = []string{"2006-01-02", "2006-01-02 15:04:05", "02.01.2006"}

// Row は旧 CSV の 1 行を解釈した結果です。
type Row struct {
	Line        int
	Date        time.Time
	Employee    string
	Project     string
	Hours       decimal.Decimal
	Description string
	Kind        entry.Kind
}

// RowError は解釈できなかった行です。
type RowError struct {
	Line   int
	Reason string
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// ReadCSV は旧 CSV を読み込みます。不正な行は取り込みを止めずに RowError として返します。
func ReadCSV(r io.Reader) ([]Row, []RowError, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimPrefix(strings.TrimSpace(name), "\ufeff")] = i
	}
	for _, name := range requiredColumns {
		if _, ok := index[name]; !ok {
			return nil, nil, fmt.Errorf("%s: %w", name, ErrMissingColumn)
		}
	}

	var (
		rows    []Row
		invalid []RowError
		line    = 1
	)
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, nil, fmt.Errorf("read line %d: %w", line, err)
		}

		field := func(name string) string {
			i := index[name]
			if i >= len(record) {
				return ""
			}
			v := strings.TrimSpace(record[i])
			if entry.IsBlank(v) {
				return ""
			}
			return v
		}

		row, err := parseRow(line, field)
		if err != nil {
			invalid = append(invalid, RowError{Line: line, Reason: err.Error()})
			continue
		}
		rows = append(rows, row)
	}

	return rows, invalid, nil
}

func parseRow(line int, field func(string) string) (Row, error) {
	row := Row{
		Line:        line,
		Employee:    field("Mitarbeiter"),
		Project:     field("Projekt"),
		Description: field("Beschreibung"),
		Hours:       decimal.Zero,
		Kind:        entry.KindWork,
	}

	date, err := parseDate(field("Datum"))
	if err != nil {
		return Row{}, err
	}
	row.Date = date

	if raw := field("Typ"); raw != "" {
		kind, err := entry.ParseKind(raw)
		if err != nil {
			return Row{}, fmt.Errorf("typ %q: %w", raw, err)
		}
		row.Kind = kind
	}

	if raw := field("Stunden"); raw != "" && !row.Kind.IsStatus() {
		hours, err := decimal.NewFromString(strings.Replace(raw, ",", ".", 1))
		if err != nil {
			return Row{}, fmt.Errorf("stunden %q: %w", raw, ErrInvalidRow)
		}
		if hours.IsNegative() {
			return Row{}, fmt.Errorf("stunden %q: %w", raw, entry.ErrNegativeHours)
		}
		row.Hours = hours
	}

	if row.Employee == "" {
		return Row{}, fmt.Errorf("mitarbeiter: %w", ErrInvalidRow)
	}
	if strings.EqualFold(row.Project, project.ReservedName) {
		return Row{}, fmt.Errorf("projekt %q: %w", row.Project, ErrInvalidRow)
	}
	if row.Kind == entry.KindWork && row.Project == "" {
		return Row{}, entry.ErrProjectRequired
	}
	return row, nil
}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return entry.DateOf(t.Year(), t.Month(), t.Day()), nil
		}
	}
	return time.Time{}, fmt.Errorf("datum %q: %w", raw, ErrInvalidRow)
}
