// Package handler は工数管理のユースケースを HTTP (JSON) で公開します。
package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ogurasousui/codex-timesheet/internal/core/calendar"
	"github.com/ogurasousui/codex-timesheet/internal/core/employee"
	"github.com/ogurasousui/codex-timesheet/internal/core/entry"
	"github.com/ogurasousui/codex-timesheet/internal/core/project"
	"github.com/ogurasousui/codex-timesheet/internal/core/report"
)

// Services はハンドラが依存するユースケースの集合です。
type Services struct {
	Employees employee.UseCase
	Projects  project.UseCase
	Calendar  calendar.UseCase
	Entries   entry.UseCase
	Reports   report.UseCase
	// HolidayRegion は祝日生成リクエストで region が省略された場合に使用します。
	HolidayRegion string
}

// Handler は HTTP ハンドラの実装です。
type Handler struct {
	employees employee.UseCase
	projects  project.UseCase
	calendar  calendar.UseCase
	entries   entry.UseCase
	reports   report.UseCase
	region    string
}

// New は Handler を生成します。
func New(s Services) *Handler {
	return &Handler{
		employees: s.Employees,
		projects:  s.Projects,
		calendar:  s.Calendar,
		entries:   s.Entries,
		reports:   s.Reports,
		region:    s.HolidayRegion,
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: decode body: %v", errBadRequest, err)
	}
	return nil
}

func parseDate(raw string) (time.Time, error) {
	d, err := time.Parse(dateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", errBadRequest, raw)
	}
	return d, nil
}

func pathInt(r *http.Request, name string) (int, error) {
	raw := chi.URLParam(r, name)
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not a number", errBadRequest, name, raw)
	}
	return v, nil
}

// queryInt は省略時に 0 を返します。
func queryInt(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not a number", errBadRequest, name, raw)
	}
	return v, nil
}

func queryBool(r *http.Request, name string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(name))
	return err == nil && v
}

// ---- employees ----

func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	size, err := queryInt(r, "page_size")
	if err != nil {
		writeServiceError(w, err)
		return
	}

	res, err := h.employees.ListEmployees(r.Context(), employee.ListEmployeesInput{
		PageSize:  size,
		PageToken: r.URL.Query().Get("page_token"),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := EmployeeListResponse{Employees: make([]EmployeeDTO, 0, len(res.Employees)), NextPageToken: res.NextPageToken}
	for _, e := range res.Employees {
		out.Employees = append(out.Employees, toEmployeeDTO(e))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req NameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}

	created, err := h.employees.CreateEmployee(r.Context(), employee.CreateEmployeeInput{Name: req.Name})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(created))
}

func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	found, err := h.employees.GetEmployee(r.Context(), employee.GetEmployeeInput{ID: chi.URLParam(r, "id")})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(found))
}

// RenameEmployee は社員名を変更します。過去のエントリは ID で参照しているため新しい名前で表示されます。
func (h *Handler) RenameEmployee(w http.ResponseWriter, r *http.Request) {
	var req NameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}

	renamed, err := h.employees.RenameEmployee(r.Context(), employee.RenameEmployeeInput{ID: chi.URLParam(r, "id"), Name: req.Name})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(renamed))
}

func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	if err := h.employees.DeleteEmployee(r.Context(), employee.DeleteEmployeeInput{ID: chi.URLParam(r, "id")}); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetAssignments(w http.ResponseWriter, r *http.Request) {
	assigned, err := h.employees.AssignedProjects(r.Context(), employee.AssignedProjectsInput{EmployeeID: chi.URLParam(r, "id")})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAssignedProjectDTOs(assigned))
}

func (h *Handler) SetAssignments(w http.ResponseWriter, r *http.Request) {
	var req AssignmentsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}

	assigned, err := h.employees.SetAssignedProjects(r.Context(), employee.SetAssignedProjectsInput{
		EmployeeID: chi.URLParam(r, "id"),
		ProjectIDs: req.ProjectIDs,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAssignedProjectDTOs(assigned))
}

// ---- month grid ----

func gridPeriod(r *http.Request) (int, time.Month, error) {
	year, err := pathInt(r, "year")
	if err != nil {
		return 0, 0, err
	}
	month, err := pathInt(r, "month")
	if err != nil {
		return 0, 0, err
	}
	return year, time.Month(month), nil
}

func (h *Handler) GetMonthGrid(w http.ResponseWriter, r *http.Request) {
	year, month, err := gridPeriod(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	grid, err := h.entries.MonthGrid(r.Context(), entry.MonthGridInput{
		EmployeeID: chi.URLParam(r, "id"),
		Year:       year,
		Month:      month,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMonthGridDTO(grid))
}

// SaveMonthGrid は月次グリッドを照合し、社員のその月のエントリを置き換えます。
// validate_only=true の場合は保存せずに照合結果だけを返します。
func (h *Handler) SaveMonthGrid(w http.ResponseWriter, r *http.Request) {
	year, month, err := gridPeriod(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var req GridRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}

	in := entry.SaveMonthInput{
		EmployeeID: chi.URLParam(r, "id"),
		Year:       year,
		Month:      month,
		Grid:       entry.Grid(req.Grid),
	}

	if queryBool(r, "validate_only") {
		rec, err := h.entries.PreviewMonth(r.Context(), in)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPreviewResponse(rec))
		return
	}

	res, err := h.entries.SaveMonth(r.Context(), in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SaveGridResponse{Removed: res.Removed, Entries: toEntryDTOs(res.Entries)})
}

// ---- projects ----

func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projects.ListProjects(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]ProjectDTO, 0, len(projects))
	for _, p := range projects {
		out = append(out, toProjectDTO(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req NameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}

	created, err := h.projects.CreateProject(r.Context(), project.CreateProjectInput{Name: req.Name})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProjectDTO(created))
}

func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	found, err := h.projects.GetProject(r.Context(), project.GetProjectInput{ID: chi.URLParam(r, "id")})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectDTO(found))
}

func (h *Handler) RenameProject(w http.ResponseWriter, r *http.Request) {
	var req NameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}

	renamed, err := h.projects.RenameProject(r.Context(), project.RenameProjectInput{ID: chi.URLParam(r, "id"), Name: req.Name})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectDTO(renamed))
}

// DeleteProject はプロジェクトと、その割り当て・エントリを削除します。
func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := h.projects.DeleteProject(r.Context(), project.DeleteProjectInput{ID: chi.URLParam(r, "id")}); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- entries ----

func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	year, err := queryInt(r, "year")
	if err != nil {
		writeServiceError(w, err)
		return
	}

	entries, err := h.entries.ListEntries(r.Context(), entry.ListEntriesInput{
		Year:       year,
		EmployeeID: r.URL.Query().Get("employee_id"),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTOs(entries))
}

// decodeEntryRequest はリクエストを読み取り、日付と種別を解釈します。kind の省略は Arbeit として扱います。
func decodeEntryRequest(r *http.Request) (EntryRequest, time.Time, entry.Kind, error) {
	var req EntryRequest
	if err := decodeJSON(r, &req); err != nil {
		return req, time.Time{}, "", err
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return req, time.Time{}, "", err
	}
	if strings.TrimSpace(req.Kind) == "" {
		return req, date, entry.KindWork, nil
	}
	kind, err := entry.ParseKind(req.Kind)
	if err != nil {
		return req, time.Time{}, "", err
	}
	return req, date, kind, nil
}

func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	req, date, kind, err := decodeEntryRequest(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	created, err := h.entries.CreateEntry(r.Context(), entry.CreateEntryInput{
		EmployeeID:  req.EmployeeID,
		ProjectID:   req.ProjectID,
		Date:        date,
		Hours:       req.Hours,
		Kind:        kind,
		Description: req.Description,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEntryDTO(created))
}

func (h *Handler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	req, date, kind, err := decodeEntryRequest(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	updated, err := h.entries.UpdateEntry(r.Context(), entry.UpdateEntryInput{
		ID:          chi.URLParam(r, "id"),
		EmployeeID:  req.EmployeeID,
		ProjectID:   req.ProjectID,
		Date:        date,
		Hours:       req.Hours,
		Kind:        kind,
		Description: req.Description,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTO(updated))
}
