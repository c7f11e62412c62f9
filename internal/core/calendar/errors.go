package calendar

import "errors"

var (
	ErrDayNotFound      = errors.New("calendar: date not found")
	ErrDayAlreadyExists = errors.New("calendar: date already exists")
	ErrInvalidDate      = errors.New("calendar: invalid date")
	ErrInvalidName      = errors.New("calendar: invalid name")
	ErrInvalidYear      = errors.New("calendar: invalid year")
	ErrInvalidRegion    = errors.New("calendar: invalid region")
	// ErrProviderFailed は祝日プロバイダが利用できない場合に返却されます。呼び出し元にとって致命的ではありません。
	ErrProviderFailed = errors.New("calendar: holiday provider failed")
)

func isNotFound(err error) bool {
	return errors.Is(err, ErrDayNotFound)
}
