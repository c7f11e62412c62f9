package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ogurasousui/codex-timesheet/internal/core/calendar"
	"github.com/ogurasousui/codex-timesheet/internal/core/employee"
	"github.com/ogurasousui/codex-timesheet/internal/core/entry"
	"github.com/ogurasousui/codex-timesheet/internal/core/project"
	"github.com/ogurasousui/codex-timesheet/internal/core/report"
)

const dateLayout = "2006-01-02"

// ErrorResponse はエラー時の共通レスポンスです。
type ErrorResponse struct {
	Error    string           `json:"error"`
	Details  string           `json:"details,omitempty"`
	Failures []CellFailureDTO `json:"failures,omitempty"`
}

type NameRequest struct {
	Name string `json:"name"`
}

type EmployeeDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type EmployeeListResponse struct {
	Employees     []EmployeeDTO `json:"employees"`
	NextPageToken string        `json:"next_page_token,omitempty"`
}

type ProjectDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type AssignedProjectDTO struct {
	ProjectID   string `json:"project_id"`
	ProjectName string `json:"project_name"`
}

type AssignmentsRequest struct {
	ProjectIDs []string `json:"project_ids"`
}

// DayDTO は祝日・休暇日の表現です。
type DayDTO struct {
	Date string `json:"date"`
	Name string `json:"name"`
}

// UpdateDayRequest は祝日・休暇日の更新リクエストです。date を省略した場合は日付を変更しません。
type UpdateDayRequest struct {
	Date string `json:"date,omitempty"`
	Name string `json:"name"`
}

type GenerateHolidaysRequest struct {
	Region string `json:"region,omitempty"`
	Year   int    `json:"year"`
}

type GenerateHolidaysResponse struct {
	Added   int    `json:"added"`
	Skipped int    `json:"skipped"`
	Error   string `json:"error,omitempty"`
}

type EntryDTO struct {
	ID           string          `json:"id"`
	Date         string          `json:"date"`
	EmployeeID   string          `json:"employee_id,omitempty"`
	EmployeeName string          `json:"employee_name,omitempty"`
	ProjectID    string          `json:"project_id,omitempty"`
	ProjectName  string          `json:"project_name,omitempty"`
	Hours        decimal.Decimal `json:"hours"`
	Description  string          `json:"description"`
	Kind         string          `json:"kind"`
}

// EntryRequest はエントリ個別作成・更新のリクエストです。hours は数値と文字列のどちらも受け付けます。
type EntryRequest struct {
	EmployeeID  string          `json:"employee_id"`
	ProjectID   string          `json:"project_id"`
	Date        string          `json:"date"`
	Hours       decimal.Decimal `json:"hours"`
	Kind        string          `json:"kind"`
	Description string          `json:"description"`
}

// GridRequest は月次グリッドです。キーはプロジェクト名 (または "Comment") と日です。
type GridRequest struct {
	Grid map[string]map[int]string `json:"grid"`
}

type SaveGridResponse struct {
	Removed int64      `json:"removed"`
	Entries []EntryDTO `json:"entries"`
}

type DraftDTO struct {
	Date        string          `json:"date"`
	Project     string          `json:"project"`
	Hours       decimal.Decimal `json:"hours"`
	Kind        string          `json:"kind"`
	Description string          `json:"description"`
}

type PreviewResponse struct {
	Valid    bool             `json:"valid"`
	Entries  []DraftDTO       `json:"entries"`
	Failures []CellFailureDTO `json:"failures"`
}

type CellFailureDTO struct {
	Project string `json:"project"`
	Day     int    `json:"day"`
	Raw     string `json:"raw"`
	Reason  string `json:"reason"`
}

type GridRowDTO struct {
	Project string          `json:"project"`
	Cells   map[int]string  `json:"cells"`
	Total   decimal.Decimal `json:"total"`
}

type MonthGridDTO struct {
	EmployeeID string          `json:"employee_id"`
	Year       int             `json:"year"`
	Month      int             `json:"month"`
	Days       int             `json:"days"`
	Rows       []GridRowDTO    `json:"rows"`
	Comments   map[int]string  `json:"comments"`
	MonthTotal decimal.Decimal `json:"month_total"`
}

type YearsResponse struct {
	Years []int `json:"years"`
}

func toEmployeeDTO(e *employee.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:        e.ID,
		Name:      e.Name,
		CreatedAt: e.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: e.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toProjectDTO(p *project.Project) ProjectDTO {
	return ProjectDTO{
		ID:        p.ID,
		Name:      p.Name,
		CreatedAt: p.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: p.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toAssignedProjectDTOs(in []employee.AssignedProject) []AssignedProjectDTO {
	out := make([]AssignedProjectDTO, 0, len(in))
	for _, ap := range in {
		out = append(out, AssignedProjectDTO{ProjectID: ap.ProjectID, ProjectName: ap.ProjectName})
	}
	return out
}

func toDayDTO(d calendar.Day) DayDTO {
	return DayDTO{Date: d.Date.Format(dateLayout), Name: d.Name}
}

func toDayDTOs(in []calendar.Day) []DayDTO {
	out := make([]DayDTO, 0, len(in))
	for _, d := range in {
		out = append(out, toDayDTO(d))
	}
	return out
}

func toEntryDTO(e *entry.Entry) EntryDTO {
	return EntryDTO{
		ID:           e.ID,
		Date:         e.Date.Format(dateLayout),
		EmployeeID:   e.EmployeeID,
		EmployeeName: e.EmployeeName,
		ProjectID:    e.ProjectID,
		ProjectName:  e.ProjectName,
		Hours:        e.Hours,
		Description:  e.Description,
		Kind:         string(e.Kind),
	}
}

func toEntryDTOs(in []*entry.Entry) []EntryDTO {
	out := make([]EntryDTO, 0, len(in))
	for _, e := range in {
		out = append(out, toEntryDTO(e))
	}
	return out
}

func toPreviewResponse(rec *entry.Reconciliation) PreviewResponse {
	drafts := make([]DraftDTO, 0, len(rec.Entries))
	for _, d := range rec.Entries {
		drafts = append(drafts, DraftDTO{
			Date:        d.Date.Format(dateLayout),
			Project:     d.Project,
			Hours:       d.Hours,
			Kind:        string(d.Kind),
			Description: d.Description,
		})
	}
	return PreviewResponse{
		Valid:    rec.Valid(),
		Entries:  drafts,
		Failures: toCellFailureDTOs(rec.Failures),
	}
}

func toCellFailureDTOs(in []entry.CellFailure) []CellFailureDTO {
	out := make([]CellFailureDTO, 0, len(in))
	for _, f := range in {
		out = append(out, CellFailureDTO{Project: f.Project, Day: f.Day, Raw: f.Raw, Reason: f.Reason})
	}
	return out
}

func toMonthGridDTO(g *entry.MonthGrid) MonthGridDTO {
	rows := make([]GridRowDTO, 0, len(g.Rows))
	for _, r := range g.Rows {
		rows = append(rows, GridRowDTO{Project: r.Project, Cells: r.Cells, Total: r.Total})
	}
	comments := g.Comments
	if comments == nil {
		comments = map[int]string{}
	}
	return MonthGridDTO{
		EmployeeID: g.EmployeeID,
		Year:       g.Year,
		Month:      int(g.Month),
		Days:       g.Days,
		Rows:       rows,
		Comments:   comments,
		MonthTotal: g.MonthTotal,
	}
}

// 集計レポートは JSON でもコア型の構造をそのまま返します。

type PivotRowDTO struct {
	Employee string            `json:"employee"`
	Months   []decimal.Decimal `json:"months"`
	Total    decimal.Decimal   `json:"total"`
}

type ProjectPivotDTO struct {
	Project     string            `json:"project"`
	Rows        []PivotRowDTO     `json:"rows"`
	MonthTotals []decimal.Decimal `json:"month_totals"`
	Total       decimal.Decimal   `json:"total"`
}

type PivotDTO struct {
	Year       int               `json:"year"`
	Projects   []ProjectPivotDTO `json:"projects"`
	GrandTotal decimal.Decimal   `json:"grand_total"`
}

type ReportLineDTO struct {
	Employee string          `json:"employee,omitempty"`
	Project  string          `json:"project,omitempty"`
	Month    string          `json:"month"`
	Hours    decimal.Decimal `json:"hours"`
}

type ReportSectionDTO struct {
	Name  string          `json:"name"`
	Lines []ReportLineDTO `json:"lines"`
	Total decimal.Decimal `json:"total"`
}

type ReportDTO struct {
	Year       int                `json:"year"`
	Sections   []ReportSectionDTO `json:"sections"`
	GrandTotal decimal.Decimal    `json:"grand_total"`
}

func toPivotDTO(p *report.Pivot) PivotDTO {
	projects := make([]ProjectPivotDTO, 0, len(p.Projects))
	for _, pp := range p.Projects {
		rows := make([]PivotRowDTO, 0, len(pp.Rows))
		for _, r := range pp.Rows {
			rows = append(rows, PivotRowDTO{Employee: r.Employee, Months: r.Months[:], Total: r.Total})
		}
		projects = append(projects, ProjectPivotDTO{
			Project:     pp.Project,
			Rows:        rows,
			MonthTotals: pp.MonthTotals[:],
			Total:       pp.Total,
		})
	}
	return PivotDTO{Year: p.Year, Projects: projects, GrandTotal: p.GrandTotal}
}

func toEmployeeReportDTO(r *report.EmployeeReport) ReportDTO {
	sections := make([]ReportSectionDTO, 0, len(r.Sections))
	for _, s := range r.Sections {
		lines := make([]ReportLineDTO, 0, len(s.Lines))
		for _, l := range s.Lines {
			lines = append(lines, ReportLineDTO{Project: l.Project, Month: report.MonthName(l.Month), Hours: l.Hours})
		}
		sections = append(sections, ReportSectionDTO{Name: s.Employee, Lines: lines, Total: s.Total})
	}
	return ReportDTO{Year: r.Year, Sections: sections, GrandTotal: r.GrandTotal}
}

func toProjectReportDTO(r *report.ProjectReport) ReportDTO {
	sections := make([]ReportSectionDTO, 0, len(r.Sections))
	for _, s := range r.Sections {
		lines := make([]ReportLineDTO, 0, len(s.Lines))
		for _, l := range s.Lines {
			lines = append(lines, ReportLineDTO{Employee: l.Employee, Month: report.MonthName(l.Month), Hours: l.Hours})
		}
		sections = append(sections, ReportSectionDTO{Name: s.Project, Lines: lines, Total: s.Total})
	}
	return ReportDTO{Year: r.Year, Sections: sections, GrandTotal: r.GrandTotal}
}
