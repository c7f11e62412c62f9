package employee

import "time"

// Employee は社員エンティティです。
// Name は一意な表示名であり、参照は常に ID 経由で行われるため改名は属性更新のみで完結します。
type Employee struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AssignedProject は社員に割り当てられたプロジェクトです。
// 割り当てられたプロジェクトがその社員の入力グリッドの行になります。
type AssignedProject struct {
	ProjectID   string
	ProjectName string
}
