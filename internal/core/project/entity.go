package project

import "time"

// ReservedName は月次グリッドのコメント行が使う名前のため、プロジェクト名には使用できません。
const ReservedName = "Comment"

// Project はプロジェクトエンティティです。
type Project struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
