// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, worklog, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidRange       = "INVALID_RANGE"
	ErrCodeFetchFailed        = "FETCH_FAILED"
	ErrCodeWorkRecordNotFound = "WORK_RECORD_NOT_FOUND"
	ErrCodeInvalidFilter      = "INVALID_FILTER"
	ErrCodeInvalidCursor      = "INVALID_CURSOR"
	ErrCodeInvalidPagination  = "INVALID_PAGINATION"
	ErrCodeLoadInProgress     = "LOAD_IN_PROGRESS"
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeClientNotFound     = "CLIENT_NOT_FOUND"
	ErrCodeProjectNotFound    = "PROJECT_NOT_FOUND"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeDuplicateName      = "DUPLICATE_NAME"
	ErrCodeCSRFInvalid        = "CSRF_INVALID"
)

// NewInvalidRangeError はカスタム日付範囲の不正エラーを生成する。
func NewInvalidRangeError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRange,
		Message:  fmt.Sprintf("日付範囲が不正です: %s", reason),
		Category: "validation",
		Action:   "開始日と終了日を指定し、開始日が終了日以前になるようにしてください。",
	}
}

// NewFetchFailedError はバックエンドからの取得・削除失敗エラーを生成する。
func NewFetchFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeFetchFailed,
		Message:  fmt.Sprintf("データの取得に失敗しました: %s", reason),
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewWorkRecordNotFoundError は作業記録未検出エラーを生成する。
func NewWorkRecordNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeWorkRecordNotFound,
		Message:  fmt.Sprintf("指定された作業記録が見つかりません: %s", id),
		Category: "worklog",
		Action:   "一覧を再読み込みしてください。",
	}
}

// NewInvalidFilterError は無効なフィルタエラーを生成する。
func NewInvalidFilterError(filter string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidFilter,
		Message:  fmt.Sprintf("無効なフィルタです: %s", filter),
		Category: "validation",
		Action:   "フィルタ条件を確認してください。",
	}
}

// NewInvalidCursorError は不正なカーソルエラーを生成する。
func NewInvalidCursorError(cursor string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCursor,
		Message:  fmt.Sprintf("無効なカーソル値です: %s", cursor),
		Category: "validation",
		Action:   "一覧の先頭から読み込み直してください。",
	}
}

// NewInvalidPaginationError は不正なページネーション指定エラーを生成する。
func NewInvalidPaginationError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidPagination,
		Message:  fmt.Sprintf("無効なページネーション指定です: %s", reason),
		Category: "validation",
		Action:   "mode には traditional、load_more、virtual、cursor のいずれかを指定してください。",
	}
}

// NewLoadInProgressError は追加読み込みの多重実行エラーを生成する。
func NewLoadInProgressError() *APIError {
	return &APIError{
		Code:     ErrCodeLoadInProgress,
		Message:  "追加読み込みを実行中です。",
		Category: "worklog",
		Action:   "読み込みの完了を待ってください。",
	}
}

// NewInvalidRequestError はリクエスト内容の検証エラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  reason,
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}

// NewForbiddenError は権限不足エラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "この操作を行う権限がありません。",
		Category: "auth",
		Action:   "管理者に問い合わせてください。",
	}
}

// NewClientNotFoundError はクライアント未検出エラーを生成する。
func NewClientNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeClientNotFound,
		Message:  fmt.Sprintf("指定されたクライアントが見つかりません: %s", id),
		Category: "worklog",
		Action:   "クライアントIDを確認してください。",
	}
}

// NewProjectNotFoundError はプロジェクト未検出エラーを生成する。
func NewProjectNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeProjectNotFound,
		Message:  fmt.Sprintf("指定されたプロジェクトが見つかりません: %s", id),
		Category: "worklog",
		Action:   "プロジェクトIDを確認してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewDuplicateNameError は名前の重複エラーを生成する。
func NewDuplicateNameError(kind, name string) *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateName,
		Message:  fmt.Sprintf("同じ名前の%sが既に存在します: %s", kind, name),
		Category: "validation",
		Action:   "別の名前を指定してください。",
	}
}

// NewCSRFInvalidError はCSRFトークン検証失敗エラーを生成する。
func NewCSRFInvalidError() *APIError {
	return &APIError{
		Code:     ErrCodeCSRFInvalid,
		Message:  "CSRFトークンの検証に失敗しました。",
		Category: "auth",
		Action:   "ページを再読み込みしてから再度お試しください。",
	}
}
