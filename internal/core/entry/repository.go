package entry

import (
	"context"
	"time"
)

// Repository は工数エントリ永続化の抽象です。
type Repository interface {
	// DeleteMonth は社員の指定月のエントリをすべて削除し、削除件数を返します。
	DeleteMonth(ctx context.Context, employeeID string, year int, month time.Month) (int64, error)
	InsertMany(ctx context.Context, entries []*Entry) error
	Create(ctx context.Context, entry *Entry) (*Entry, error)
	Update(ctx context.Context, entry *Entry) (*Entry, error)
	FindByID(ctx context.Context, id string) (*Entry, error)
	// ListMonth は社員の指定月のエントリを日付順で返します。
	ListMonth(ctx context.Context, employeeID string, year int, month time.Month) ([]*Entry, error)
	List(ctx context.Context, filter ListFilter) ([]*Entry, error)
	// Years はエントリが存在する年を降順で返します。
	Years(ctx context.Context) ([]int, error)
}

// ListFilter は一覧取得用フィルタです。ゼロ値の項目は絞り込みに使われません。
type ListFilter struct {
	Year       int
	EmployeeID string
}
