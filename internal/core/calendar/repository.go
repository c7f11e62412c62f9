package calendar

import (
	"context"
	"time"
)

// Repository は日付をキーとする祝日・休暇日テーブルの抽象です。
// 祝日と休暇日はそれぞれ別のインスタンスで扱います。
type Repository interface {
	// List は指定年の日付を昇順で返します。year が 0 の場合は全件を返します。
	List(ctx context.Context, year int) ([]Day, error)
	Find(ctx context.Context, date time.Time) (*Day, error)
	Create(ctx context.Context, day Day) error
	// Update は date の行を day の日付と名前で置き換えます。
	Update(ctx context.Context, date time.Time, day Day) error
	Delete(ctx context.Context, date time.Time) error
}

// Provider は地域と年から公的な祝日を返します。
type Provider interface {
	HolidaysForYear(ctx context.Context, region string, year int) ([]Holiday, error)
}
