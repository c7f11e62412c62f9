package employee

import "context"

// Repository は社員および社員↔プロジェクト割り当ての永続化の抽象です。
type Repository interface {
	Create(ctx context.Context, employee *Employee) (*Employee, error)
	Update(ctx context.Context, employee *Employee) (*Employee, error)
	// Delete は社員を削除します。割り当ては削除され、工数エントリの社員参照は NULL になります。
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*Employee, error)
	FindByName(ctx context.Context, name string) (*Employee, error)
	List(ctx context.Context, filter ListEmployeesFilter) ([]*Employee, string, error)
	ListAssignedProjects(ctx context.Context, employeeID string) ([]AssignedProject, error)
	ReplaceAssignments(ctx context.Context, employeeID string, projectIDs []string) error
}

// ListEmployeesFilter は一覧取得用フィルタです。
type ListEmployeesFilter struct {
	Limit  int
	Offset int
}
