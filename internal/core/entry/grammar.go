package entry

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var numericCell = regexp.MustCompile(`^-?\d+(?:[.,]\d+)?$`)

// CellValue はセルを解釈した結果です。ステータスコードの場合 Hours は常に 0 です。
type CellValue struct {
	Kind  Kind
	Hours decimal.Decimal
}

// ParseCell はグリッドのセル文字列を解釈します。
// 空白のみのセルと "nan" は未入力として扱い、ok=false を返します。
// 数値 (小数点はカンマも可) は稼働時間、U / KK / F / "/" はステータスコードとして解釈し、
// それ以外は ErrUnrecognizedValue、負の数値は ErrNegativeHours を返します。
func ParseCell(raw string) (CellValue, bool, error) {
	trimmed := strings.TrimSpace(raw)
	if IsBlank(trimmed) {
		return CellValue{}, false, nil
	}

	if numericCell.MatchString(trimmed) {
		hours, err := decimal.NewFromString(strings.Replace(trimmed, ",", ".", 1))
		if err != nil {
			return CellValue{}, false, ErrUnrecognizedValue
		}
		if hours.IsNegative() {
			return CellValue{}, false, ErrNegativeHours
		}
		return CellValue{Kind: KindWork, Hours: hours}, true, nil
	}

	if k, ok := statusKinds[strings.ToUpper(trimmed)]; ok {
		return CellValue{Kind: k, Hours: decimal.Zero}, true, nil
	}

	return CellValue{}, false, ErrUnrecognizedValue
}

// IsBlank は未入力扱いのセルかどうかを返します。
func IsBlank(raw string) bool {
	trimmed := strings.TrimSpace(raw)
	return trimmed == "" || strings.EqualFold(trimmed, "nan")
}

// ValidateCell は ParseCell と同じ規則でセルを検証します。
func ValidateCell(raw string) error {
	_, _, err := ParseCell(raw)
	return err
}

// FormatHours はグリッド表示用に稼働時間を整形します。整数値は小数 1 桁で表示します。
func FormatHours(hours decimal.Decimal) string {
	if hours.Equal(hours.Truncate(0)) {
		return hours.StringFixed(1)
	}
	return hours.String()
}

// FormatCell は保存済みエントリをグリッドのセル文字列に戻します。
func FormatCell(kind Kind, hours decimal.Decimal) string {
	if kind.IsStatus() {
		return string(kind)
	}
	return FormatHours(hours)
}
