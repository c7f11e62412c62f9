package project

import "context"

// Repository はプロジェクト永続化の抽象です。
type Repository interface {
	Create(ctx context.Context, project *Project) (*Project, error)
	Update(ctx context.Context, project *Project) (*Project, error)
	// Delete はプロジェクトと、その割り当ておよび工数エントリを削除します。
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*Project, error)
	FindByName(ctx context.Context, name string) (*Project, error)
	// List は全プロジェクトを名前の昇順で返します。
	List(ctx context.Context) ([]*Project, error)
}
