package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/ogurasousui/codex-timesheet/internal/core/entry"
)

// CSVHeader は旧データ形式と同じ列構成です。legacy.Importer でそのまま取り込めます。
var CSVHeader = []string{"Datum", "Mitarbeiter", "Projekt", "Stunden", "Beschreibung", "Typ"}

// WriteCSV はエントリを 1 行ずつそのまま書き出します。
func WriteCSV(w io.Writer, entries []*entry.Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, e := range entries {
		record := []string{
			e.Date.Format("2006-01-02"),
			e.EmployeeName,
			e.ProjectName,
			e.Hours.String(),
			e.Description,
			string(e.Kind),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
