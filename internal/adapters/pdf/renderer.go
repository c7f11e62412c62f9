// Package pdf は年次レポートを maroto で PDF に描画します。
package pdf

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/ogurasousui/codex-timesheet/internal/core/report"
)

var (
	headerColor = props.Color{Red: 50, Green: 50, Blue: 50}
	mutedColor  = props.Color{Red: 120, Green: 120, Blue: 120}
	lineColor   = props.Color{Red: 200, Green: 200, Blue: 200}
)

// Renderer は report.PDFRenderer の実装です。
type Renderer struct{}

// NewRenderer は Renderer を生成します。
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render は社員別・プロジェクト別の 2 部構成の PDF を生成します。
func (r *Renderer) Render(employees report.EmployeeReport, projects report.ProjectReport) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(15).
		WithTopMargin(15).
		WithRightMargin(15).
		Build()

	m := maroto.New(cfg)

	m.AddRow(14, text.NewCol(12, fmt.Sprintf("Stundenbericht %d", employees.Year), props.Text{
		Style: fontstyle.Bold,
		Size:  16,
		Color: &headerColor,
	}))
	m.AddRow(4, line.NewCol(12, props.Line{Color: &lineColor}))
	m.AddRow(4)

	addEmployeePart(m, employees)
	addProjectPart(m, projects)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generate: %w", err)
	}
	return doc.GetBytes(), nil
}

func addEmployeePart(m core.Maroto, rep report.EmployeeReport) {
	addPartTitle(m, "1. Auswertung pro Mitarbeiter")

	for _, section := range rep.Sections {
		addSectionTitle(m, "Mitarbeiter: "+section.Employee)

		if len(section.Lines) == 0 {
			m.AddRow(6, text.NewCol(12, "Keine Arbeitsstunden verzeichnet.", props.Text{
				Size:  9,
				Style: fontstyle.Italic,
				Color: &mutedColor,
			}))
			m.AddRow(4)
			continue
		}

		addTableHeader(m, "Monat", "Projekt", "Stunden")
		for _, row := range employeeRows(section) {
			addTableRow(m, row)
		}
		addTotalRow(m, section.Total)
	}
}

func addProjectPart(m core.Maroto, rep report.ProjectReport) {
	addPartTitle(m, "2. Auswertung pro Projekt")

	for _, section := range rep.Sections {
		addSectionTitle(m, "Projekt: "+section.Project)
		addTableHeader(m, "Mitarbeiter", "Monat", "Stunden")
		for _, row := range projectRows(section) {
			addTableRow(m, row)
		}
		addTotalRow(m, section.Total)
	}
}

// employeeRows は社員セクションの表の行を返します。
func employeeRows(section report.EmployeeSection) [][3]string {
	rows := make([][3]string, 0, len(section.Lines))
	for _, l := range section.Lines {
		rows = append(rows, [3]string{report.MonthName(l.Month), l.Project, report.FormatHours(l.Hours)})
	}
	return rows
}

// projectRows はプロジェクトセクションの表の行を返します。連続する同一社員名は 2 行目以降を空欄にします。
func projectRows(section report.ProjectSection) [][3]string {
	rows := make([][3]string, 0, len(section.Lines))
	prev := ""
	for i, l := range section.Lines {
		name := l.Employee
		if i > 0 && name == prev {
			name = ""
		}
		prev = l.Employee
		rows = append(rows, [3]string{name, report.MonthName(l.Month), report.FormatHours(l.Hours)})
	}
	return rows
}

func addPartTitle(m core.Maroto, title string) {
	m.AddRow(10, text.NewCol(12, title, props.Text{
		Style: fontstyle.Bold,
		Size:  13,
		Color: &headerColor,
	}))
	m.AddRow(2)
}

func addSectionTitle(m core.Maroto, title string) {
	m.AddRow(8, text.NewCol(12, title, props.Text{
		Style: fontstyle.Bold,
		Size:  11,
		Color: &headerColor,
	}))
}

func addTableHeader(m core.Maroto, first, second, hours string) {
	m.AddRow(6,
		text.NewCol(4, first, props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(5, second, props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(3, hours, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	m.AddRow(2, line.NewCol(12, props.Line{Color: &lineColor}))
}

func addTableRow(m core.Maroto, row [3]string) {
	m.AddRow(5,
		text.NewCol(4, row[0], props.Text{Size: 9}),
		text.NewCol(5, row[1], props.Text{Size: 9}),
		text.NewCol(3, row[2], props.Text{Size: 9, Align: align.Right}),
	)
}

func addTotalRow(m core.Maroto, total decimal.Decimal) {
	m.AddRow(2, line.NewCol(12, props.Line{Color: &lineColor}))
	m.AddRow(7,
		text.NewCol(9, "Gesamt", props.Text{Style: fontstyle.Bold, Size: 10}),
		text.NewCol(3, report.FormatHours(total), props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right}),
	)
	m.AddRow(4)
}
