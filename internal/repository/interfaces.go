// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/hourman/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// List は全ユーザーを名前順で返す。
	List(ctx context.Context) ([]*model.User, error)

	// Create はユーザーを作成する。
	Create(ctx context.Context, user *model.User) error

	// Update はユーザー情報を更新する。対象が存在しない場合はfalseを返す。
	Update(ctx context.Context, user *model.User) (bool, error)

	// DeleteByID は指定IDのユーザーを削除する。対象が存在しない場合はfalseを返す。
	// 関連するsessions、work_recordsはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) (bool, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}

// ClientRepository はクライアントデータの永続化インターフェース。
type ClientRepository interface {
	// FindByID は指定IDのクライアントを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Client, error)
	// List は全クライアントを名前順で返す。
	List(ctx context.Context) ([]*model.Client, error)
	// Create はクライアントを作成する。
	Create(ctx context.Context, client *model.Client) error
	// Update はクライアント名を更新する。対象が存在しない場合はfalseを返す。
	Update(ctx context.Context, client *model.Client) (bool, error)
	// Delete はクライアントを削除する。配下のprojectsはCASCADE削除される。
	Delete(ctx context.Context, id string) (bool, error)
}

// ProjectRepository はプロジェクトデータの永続化インターフェース。
type ProjectRepository interface {
	// FindByID は指定IDのプロジェクトをクライアント名付きで取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Project, error)
	// List はプロジェクトをクライアント名付きで返す。clientIDが空の場合は全件。
	List(ctx context.Context, clientID string) ([]*model.Project, error)
	// Create はプロジェクトを作成する。
	Create(ctx context.Context, project *model.Project) error
	// Update はプロジェクトを更新する。対象が存在しない場合はfalseを返す。
	Update(ctx context.Context, project *model.Project) (bool, error)
	// Delete はプロジェクトを削除する。作業記録のproject_idはNULLになる。
	Delete(ctx context.Context, id string) (bool, error)
}

// WorkRecordRepository は作業記録の永続化インターフェース。
// 一覧系はユーザー・プロジェクト・クライアント情報をJOINした非正規化済みの記録を返す。
// 並び順は日付の降順、同日内は作成日時の降順で固定する。
type WorkRecordRepository interface {
	// FindByID は指定IDの作業記録を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.WorkRecord, error)

	// List は作業記録の全件スナップショットを返す。userIDが空の場合は全ユーザー分。
	List(ctx context.Context, userID string) ([]model.WorkRecord, error)

	// ListPage はoffsetから最大limit件を返す。エクスポートの分割読み込みに使う。
	ListPage(ctx context.Context, userID string, offset, limit int) ([]model.WorkRecord, error)

	// Count は作業記録の件数を返す。userIDが空の場合は全ユーザー分。
	Count(ctx context.Context, userID string) (int, error)

	// Create は作業記録を作成する。
	Create(ctx context.Context, record *model.WorkRecord) error

	// Update は作業記録を更新する。対象が存在しない場合はfalseを返す。
	Update(ctx context.Context, record *model.WorkRecord) (bool, error)

	// Delete は作業記録を削除する。対象が存在しない場合はfalseを返す。
	Delete(ctx context.Context, id string) (bool, error)
}
