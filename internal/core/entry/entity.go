package entry

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind はエントリの種別です。値は既存データとの互換のため従来のコードをそのまま使います。
type Kind string

const (
	KindWork      Kind = "Arbeit"
	KindVacation  Kind = "U"
	KindChildSick Kind = "KK"
	KindHoliday   Kind = "F"
	KindWeekend   Kind = "/"
)

var statusKinds = map[string]Kind{
	string(KindVacation):  KindVacation,
	string(KindChildSick): KindChildSick,
	string(KindHoliday):   KindHoliday,
	string(KindWeekend):   KindWeekend,
}

// IsStatus は稼働時間を持たないステータスコードかどうかを返します。
func (k Kind) IsStatus() bool {
	_, ok := statusKinds[string(k)]
	return ok
}

// Valid は既知の種別かどうかを返します。
func (k Kind) Valid() bool {
	return k == KindWork || k.IsStatus()
}

// ParseKind は種別コードを解釈します。ステータスコードは大文字小文字を区別しません。
func ParseKind(raw string) (Kind, error) {
	trimmed := strings.TrimSpace(raw)
	if strings.EqualFold(trimmed, string(KindWork)) {
		return KindWork, nil
	}
	if k, ok := statusKinds[strings.ToUpper(trimmed)]; ok {
		return k, nil
	}
	return "", ErrInvalidKind
}

// Entry は社員のある日付における 1 件の記録です。
// 社員が削除された場合 EmployeeID は空になり、履歴としてのみ残ります。
type Entry struct {
	ID           string
	Date         time.Time
	EmployeeID   string
	EmployeeName string
	ProjectID    string
	ProjectName  string
	Hours        decimal.Decimal
	Description  string
	Kind         Kind
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Year は記録日の年を返します。
func (e *Entry) Year() int {
	return e.Date.Year()
}

// Month は記録日の月を返します。
func (e *Entry) Month() time.Month {
	return e.Date.Month()
}

// DateOf は UTC の日付を返します。
func DateOf(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DaysIn は指定月の日数を返します。
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func validPeriod(year int, month time.Month) bool {
	return year >= 1 && year <= 9999 && month >= time.January && month <= time.December
}
