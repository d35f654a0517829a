package model

import "time"

// Role はユーザーの権限種別を表す。
type Role string

const (
	// RoleAdmin は全ユーザーの記録と管理画面にアクセスできる。
	RoleAdmin Role = "admin"
	// RoleEmployee は自分の記録のみ参照・編集できる。
	RoleEmployee Role = "employee"
)

// Valid は定義済みのロールかどうかを返す。
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleEmployee
}

// User はサービス利用ユーザーを表す。
type User struct {
	ID          string
	Email       string
	Name        string
	Designation string
	Role        Role
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsAdmin は管理者かどうかを返す。
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Session はユーザーのログインセッションを表す。
// セッションは外部の認証サービスが作成し、本サービスは検証のみ行う。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Viewer はリクエストを発行したユーザーの識別情報とロール。
type Viewer struct {
	UserID string
	Role   Role
}

// IsAdmin は管理者かどうかを返す。
func (v Viewer) IsAdmin() bool {
	return v.Role == RoleAdmin
}
