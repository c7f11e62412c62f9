package handler

import (
	"errors"
	"net/http"

	"github.com/ogurasousui/codex-timesheet/internal/core/apperr"
	"github.com/ogurasousui/codex-timesheet/internal/core/calendar"
	"github.com/ogurasousui/codex-timesheet/internal/core/employee"
	"github.com/ogurasousui/codex-timesheet/internal/core/entry"
	"github.com/ogurasousui/codex-timesheet/internal/core/project"
	"github.com/ogurasousui/codex-timesheet/internal/core/report"
)

// errBadRequest はパスやクエリ、リクエストボディが解釈できない場合に使用します。
var errBadRequest = errors.New("bad request")

func statusFromError(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, apperr.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, calendar.ErrProviderFailed):
		return http.StatusBadGateway
	case errors.Is(err, entry.ErrInvalidGrid):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errBadRequest),
		errors.Is(err, employee.ErrInvalidID),
		errors.Is(err, employee.ErrInvalidName),
		errors.Is(err, employee.ErrInvalidPageSize),
		errors.Is(err, employee.ErrInvalidPageToken),
		errors.Is(err, employee.ErrInvalidProjectID),
		errors.Is(err, project.ErrInvalidID),
		errors.Is(err, project.ErrInvalidName),
		errors.Is(err, calendar.ErrInvalidDate),
		errors.Is(err, calendar.ErrInvalidName),
		errors.Is(err, calendar.ErrInvalidYear),
		errors.Is(err, calendar.ErrInvalidRegion),
		errors.Is(err, entry.ErrInvalidPeriod),
		errors.Is(err, entry.ErrInvalidID),
		errors.Is(err, entry.ErrInvalidEmployeeID),
		errors.Is(err, entry.ErrInvalidKind),
		errors.Is(err, entry.ErrInvalidDate),
		errors.Is(err, entry.ErrNegativeHours),
		errors.Is(err, entry.ErrUnrecognizedValue),
		errors.Is(err, entry.ErrDayOutOfRange),
		errors.Is(err, entry.ErrProjectRequired),
		errors.Is(err, report.ErrInvalidYear):
		return http.StatusBadRequest
	case errors.Is(err, employee.ErrEmployeeAlreadyExists),
		errors.Is(err, project.ErrProjectAlreadyExists),
		errors.Is(err, calendar.ErrDayAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, employee.ErrEmployeeNotFound),
		errors.Is(err, employee.ErrProjectNotFound),
		errors.Is(err, project.ErrProjectNotFound),
		errors.Is(err, calendar.ErrDayNotFound),
		errors.Is(err, entry.ErrEntryNotFound),
		errors.Is(err, report.ErrNoData):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError はユースケースのエラーを HTTP ステータスと JSON 本文に変換します。
// グリッドの検証エラーは失敗したセルの一覧を含めて返します。
func writeServiceError(w http.ResponseWriter, err error) {
	status := statusFromError(err)
	resp := ErrorResponse{Error: http.StatusText(status), Details: err.Error()}

	var verr *entry.ValidationError
	if errors.As(err, &verr) {
		resp.Failures = toCellFailureDTOs(verr.Failures)
	}
	writeJSON(w, status, resp)
}
