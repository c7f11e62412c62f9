package entry

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidGrid       = errors.New("entry: invalid grid")
	ErrInvalidPeriod     = errors.New("entry: invalid year or month")
	ErrInvalidID         = errors.New("entry: invalid id")
	ErrInvalidEmployeeID = errors.New("entry: invalid employee id")
	ErrInvalidKind       = errors.New("entry: invalid kind")
	ErrInvalidDate       = errors.New("entry: invalid date")
	ErrNegativeHours     = errors.New("entry: negative hours")
	ErrUnrecognizedValue = errors.New("entry: unrecognized value")
	ErrDayOutOfRange     = errors.New("entry: day out of range")
	ErrProjectRequired   = errors.New("entry: project is required for work entries")
	ErrEntryNotFound     = errors.New("entry: not found")
)

// CellFailure はグリッドの 1 セルに対する検証失敗です。
type CellFailure struct {
	Project string
	Day     int
	Raw     string
	Reason  string
}

// ValidationError は月次グリッド全体の検証結果です。1 件でも失敗があれば保存は行われません。
type ValidationError struct {
	Failures []CellFailure
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s day %d %q: %s", f.Project, f.Day, f.Raw, f.Reason))
	}
	return fmt.Sprintf("%s: %s", ErrInvalidGrid.Error(), strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidGrid
}

func reasonOf(err error) string {
	switch {
	case errors.Is(err, ErrNegativeHours):
		return "negative hours"
	case errors.Is(err, ErrDayOutOfRange):
		return "day out of range"
	default:
		return "unrecognized value"
	}
}
