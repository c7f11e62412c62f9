package handler

import (
	"bytes"
	"fmt"
	"net/http"
)

func (h *Handler) Years(w http.ResponseWriter, r *http.Request) {
	years, err := h.reports.Years(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, YearsResponse{Years: years})
}

func (h *Handler) Pivot(w http.ResponseWriter, r *http.Request) {
	year, err := pathInt(r, "year")
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pivot, err := h.reports.Pivot(r.Context(), year)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPivotDTO(pivot))
}

func (h *Handler) EmployeeReport(w http.ResponseWriter, r *http.Request) {
	year, err := pathInt(r, "year")
	if err != nil {
		writeServiceError(w, err)
		return
	}

	rep, err := h.reports.EmployeeReport(r.Context(), year)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeReportDTO(rep))
}

func (h *Handler) ProjectReport(w http.ResponseWriter, r *http.Request) {
	year, err := pathInt(r, "year")
	if err != nil {
		writeServiceError(w, err)
		return
	}

	rep, err := h.reports.ProjectReport(r.Context(), year)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectReportDTO(rep))
}

// ExportCSV は年間の全エントリを CSV で返します。途中で失敗した場合に JSON エラーを返せるよう、一度バッファに書き出します。
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	year, err := pathInt(r, "year")
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := h.reports.ExportCSV(r.Context(), year, &buf); err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"stunden_%d.csv\"", year))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) ExportPDF(w http.ResponseWriter, r *http.Request) {
	year, err := pathInt(r, "year")
	if err != nil {
		writeServiceError(w, err)
		return
	}

	doc, err := h.reports.ExportPDF(r.Context(), year)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"stundenbericht_%d.pdf\"", year))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}
