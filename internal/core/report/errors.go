package report

import "errors"

var (
	ErrInvalidYear = errors.New("report: invalid year")
	// ErrNoData は指定年にエントリが無く、出力するものが無い場合に返却されます。
	ErrNoData     = errors.New("report: no entries for year")
	ErrNoRenderer = errors.New("report: pdf renderer not configured")
)
