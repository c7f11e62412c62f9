package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/ogurasousui/codex-timesheet/internal/core/calendar"
	"github.com/ogurasousui/codex-timesheet/internal/core/legacy"
	"github.com/ogurasousui/codex-timesheet/internal/core/report"
)

func newYearsCmd(withDeps depsRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "years",
		Short: "List years that have entries, plus the current and next year",
		Args:  cobra.NoArgs,
		RunE: withDeps(func(cmd *cobra.Command, _ []string, deps *Deps) error {
			years, err := deps.Reports.Years(cmd.Context())
			if err != nil {
				return err
			}
			for _, y := range years {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), strconv.Itoa(y))
			}
			return nil
		}),
	}
}

func newPivotCmd(withDeps depsRunner) *cobra.Command {
	var year int
	cmd := &cobra.Command{
		Use:   "pivot",
		Short: "Print the per-project employee x month hours table",
		Args:  cobra.NoArgs,
		RunE: withDeps(func(cmd *cobra.Command, _ []string, deps *Deps) error {
			pivot, err := deps.Reports.Pivot(cmd.Context(), year)
			if err != nil {
				return err
			}
			renderPivot(cmd.OutOrStdout(), pivot)
			return nil
		}),
	}
	cmd.Flags().IntVar(&year, "year", 0, "report year")
	_ = cmd.MarkFlagRequired("year")
	return cmd
}

func renderPivot(w io.Writer, pivot *report.Pivot) {
	headers := []string{"Mitarbeiter"}
	for m := 1; m <= 12; m++ {
		headers = append(headers, string([]rune(report.MonthName(time.Month(m)))[:3]))
	}
	headers = append(headers, "Gesamt")

	for _, p := range pivot.Projects {
		_, _ = fmt.Fprintln(w, headerStyle.Render(p.Project))

		rows := make([][]string, 0, len(p.Rows)+1)
		for _, r := range p.Rows {
			rows = append(rows, pivotRow(r.Employee, r.Months, report.FormatHours(r.Total)))
		}
		rows = append(rows, pivotRow("Gesamt", p.MonthTotals, report.FormatHours(p.Total)))

		t := table.New().
			Border(lipgloss.NormalBorder()).
			BorderStyle(silentStyle).
			Headers(headers...).
			Rows(rows...)
		_, _ = fmt.Fprintln(w, t.Render())
	}
	_, _ = fmt.Fprintf(w, "%s %s\n", headerStyle.Render(fmt.Sprintf("Gesamt %d:", pivot.Year)), Primary(report.FormatHours(pivot.GrandTotal)))
}

func pivotRow(label string, months report.Months, total string) []string {
	row := make([]string, 0, 14)
	row = append(row, label)
	for _, h := range months {
		row = append(row, report.FormatHours(h))
	}
	return append(row, total)
}

func newExportCmd(withDeps depsRunner) *cobra.Command {
	var (
		year int
		out  string
	)

	export := &cobra.Command{
		Use:   "export",
		Short: "Export yearly data",
	}

	csvCmd := &cobra.Command{
		Use:   "csv",
		Short: "Export all entries of a year as CSV",
		Args:  cobra.NoArgs,
		RunE: withDeps(func(cmd *cobra.Command, _ []string, deps *Deps) error {
			if out == "" || out == "-" {
				return deps.Reports.ExportCSV(cmd.Context(), year, cmd.OutOrStdout())
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := deps.Reports.ExportCSV(cmd.Context(), year, f); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", Primary(out))
			return nil
		}),
	}

	pdfCmd := &cobra.Command{
		Use:   "pdf",
		Short: "Export the yearly employee and project report as PDF",
		Args:  cobra.NoArgs,
		RunE: withDeps(func(cmd *cobra.Command, _ []string, deps *Deps) error {
			if out == "" {
				out = fmt.Sprintf("stundenbericht_%d.pdf", year)
			}
			doc, err := deps.Reports.ExportPDF(cmd.Context(), year)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, doc, 0o644); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", Primary(out))
			return nil
		}),
	}

	for _, c := range []*cobra.Command{csvCmd, pdfCmd} {
		c.Flags().IntVar(&year, "year", 0, "report year")
		c.Flags().StringVarP(&out, "out", "o", "", "output file")
		_ = c.MarkFlagRequired("year")
	}
	export.AddCommand(csvCmd, pdfCmd)
	return export
}

func newHolidaysCmd(withDeps depsRunner) *cobra.Command {
	var (
		year   int
		region string
	)

	holidays := &cobra.Command{
		Use:   "holidays",
		Short: "Manage public holidays",
	}

	generate := &cobra.Command{
		Use:   "generate",
		Short: "Add the public holidays of a year that are not yet stored",
		Args:  cobra.NoArgs,
		RunE: withDeps(func(cmd *cobra.Command, _ []string, deps *Deps) error {
			if region == "" {
				region = deps.Region
			}
			res, err := deps.Calendar.GenerateHolidays(cmd.Context(), calendar.GenerateHolidaysInput{Region: region, Year: year})
			if errors.Is(err, calendar.ErrProviderFailed) {
				// プロバイダの失敗は 0 件追加として警告のみ表示する
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), Warning("0 holidays added: "+err.Error()))
				return nil
			}
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s holidays added, %s already present\n",
				Primary(strconv.Itoa(res.Added)), Silent(strconv.Itoa(res.Skipped)))
			return nil
		}),
	}
	generate.Flags().IntVar(&year, "year", 0, "calendar year")
	generate.Flags().StringVar(&region, "region", "", "holiday region (defaults to holidays.region from config)")
	_ = generate.MarkFlagRequired("year")

	holidays.AddCommand(generate)
	return holidays
}

func newImportCmd(withDeps depsRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "import-legacy <stunden.csv>",
		Short: "Import the legacy Datum,Mitarbeiter,Projekt,Stunden,Beschreibung,Typ file",
		Args:  cobra.ExactArgs(1),
		RunE: withDeps(func(cmd *cobra.Command, args []string, deps *Deps) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			rows, rowErrs, err := legacy.ReadCSV(f)
			if err != nil {
				return err
			}
			for _, re := range rowErrs {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), Warning("skipped "+re.Error()))
			}

			res, err := deps.Importer.Import(cmd.Context(), rows)
			if err != nil {
				return err
			}

			summary := []string{
				fmt.Sprintf("entries inserted: %s", Primary(strconv.Itoa(res.EntriesInserted))),
				fmt.Sprintf("already present: %s", Silent(strconv.Itoa(res.Duplicates))),
				fmt.Sprintf("employees created: %d", res.EmployeesCreated),
				fmt.Sprintf("projects created: %d", res.ProjectsCreated),
				fmt.Sprintf("rows skipped: %d", len(rowErrs)),
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), strings.Join(summary, "\n"))
			return nil
		}),
	}
}
