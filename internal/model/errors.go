package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, upstream, system
	Action   string // 呼び出し側向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeInvalidParameter = "INVALID_PARAMETER"
	ErrCodeUpstreamError    = "UPSTREAM_ERROR"
	ErrCodeCourseNotFound   = "COURSE_NOT_FOUND"
	ErrCodeInternalError    = "INTERNAL_ERROR"
)

// NewUnauthorizedError は認証拒否エラーを生成する。
// アクセスキーの不一致・欠落時に、Canvas API呼び出しの前に返される。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "APIキーが無効または未指定です。",
		Category: "auth",
		Action:   "Authorization: Bearer ヘッダーまたは X-Api-Key ヘッダーに正しいキーを指定してください。",
	}
}

// NewInvalidParameterError は無効なクエリパラメータのエラーを生成する。
func NewInvalidParameterError(name, value string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidParameter,
		Message:  fmt.Sprintf("無効なパラメータです: %s=%s", name, value),
		Category: "validation",
		Action:   "パラメータの形式と範囲を確認してください。",
	}
}

// NewInvalidCourseIDError はコースIDが数値でない場合のエラーを生成する。
func NewInvalidCourseIDError(raw string) *APIError {
	return &APIError{
		Code:     ErrCodeCourseNotFound,
		Message:  fmt.Sprintf("無効なコースIDです: %s", raw),
		Category: "validation",
		Action:   "コースIDには数値を指定してください。",
	}
}

// NewInternalError は内部エラーを生成する。
// 詳細はログのみに記録し、呼び出し側には一般的なメッセージを返す。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternalError,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
