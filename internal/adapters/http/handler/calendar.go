package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ogurasousui/codex-timesheet/internal/core/calendar"
)

// dayBook は祝日と会社休暇日で共通の CRUD 操作を束ねます。
type dayBook struct {
	list   func(ctx context.Context, year int) ([]calendar.Day, error)
	add    func(ctx context.Context, in calendar.AddDayInput) (*calendar.Day, error)
	update func(ctx context.Context, in calendar.UpdateDayInput) (*calendar.Day, error)
	remove func(ctx context.Context, date time.Time) error
}

// holidayBook と vacationBook はリクエスト時に h.calendar を参照します。
func (h *Handler) holidayBook() dayBook {
	return dayBook{
		list: func(ctx context.Context, year int) ([]calendar.Day, error) {
			return h.calendar.ListHolidays(ctx, year)
		},
		add: func(ctx context.Context, in calendar.AddDayInput) (*calendar.Day, error) {
			return h.calendar.AddHoliday(ctx, in)
		},
		update: func(ctx context.Context, in calendar.UpdateDayInput) (*calendar.Day, error) {
			return h.calendar.UpdateHoliday(ctx, in)
		},
		remove: func(ctx context.Context, date time.Time) error {
			return h.calendar.DeleteHoliday(ctx, date)
		},
	}
}

func (h *Handler) vacationBook() dayBook {
	return dayBook{
		list: func(ctx context.Context, year int) ([]calendar.Day, error) {
			return h.calendar.ListVacationDays(ctx, year)
		},
		add: func(ctx context.Context, in calendar.AddDayInput) (*calendar.Day, error) {
			return h.calendar.AddVacationDay(ctx, in)
		},
		update: func(ctx context.Context, in calendar.UpdateDayInput) (*calendar.Day, error) {
			return h.calendar.UpdateVacationDay(ctx, in)
		},
		remove: func(ctx context.Context, date time.Time) error {
			return h.calendar.DeleteVacationDay(ctx, date)
		},
	}
}

func (b dayBook) listHandler(w http.ResponseWriter, r *http.Request) {
	year, err := queryInt(r, "year")
	if err != nil {
		writeServiceError(w, err)
		return
	}

	days, err := b.list(r.Context(), year)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDayDTOs(days))
}

func (b dayBook) createHandler(w http.ResponseWriter, r *http.Request) {
	var req DayDTO
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	created, err := b.add(r.Context(), calendar.AddDayInput{Date: date, Name: req.Name})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDayDTO(*created))
}

func (b dayBook) updateHandler(w http.ResponseWriter, r *http.Request) {
	date, err := parseDate(chi.URLParam(r, "date"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var req UpdateDayRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}

	in := calendar.UpdateDayInput{Date: date, Name: req.Name}
	if req.Date != "" {
		if in.NewDate, err = parseDate(req.Date); err != nil {
			writeServiceError(w, err)
			return
		}
	}

	updated, err := b.update(r.Context(), in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDayDTO(*updated))
}

func (b dayBook) deleteHandler(w http.ResponseWriter, r *http.Request) {
	date, err := parseDate(chi.URLParam(r, "date"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if err := b.remove(r.Context(), date); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GenerateHolidays はプロバイダから祝日を取得して未登録の日付だけを追加します。
// プロバイダの失敗は 502 とし、追加 0 件の結果とエラー内容を返します。
func (h *Handler) GenerateHolidays(w http.ResponseWriter, r *http.Request) {
	var req GenerateHolidaysRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	if req.Region == "" {
		req.Region = h.region
	}

	res, err := h.calendar.GenerateHolidays(r.Context(), calendar.GenerateHolidaysInput{Region: req.Region, Year: req.Year})
	if err != nil {
		if errors.Is(err, calendar.ErrProviderFailed) && res != nil {
			writeJSON(w, http.StatusBadGateway, GenerateHolidaysResponse{Added: res.Added, Skipped: res.Skipped, Error: err.Error()})
			return
		}
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, GenerateHolidaysResponse{Added: res.Added, Skipped: res.Skipped})
}
