// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
// 内部エラーの詳細はログにのみ記録し、ユーザーへは渡さない。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, content, matches, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeRateLimited        = "RATE_LIMITED"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeValidation         = "VALIDATION_FAILED"
	ErrCodeArticleNotFound    = "ARTICLE_NOT_FOUND"
	ErrCodeForumPostNotFound  = "FORUM_POST_NOT_FOUND"
	ErrCodeCommentNotFound    = "COMMENT_NOT_FOUND"
	ErrCodeMatchesUnavailable = "MATCHES_UNAVAILABLE"
)

// NewInvalidCredentialsError は認証失敗エラーを生成する。
// ユーザー名とパスワードのどちらが誤りかは区別しない（列挙攻撃対策）。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "ユーザー名またはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewRateLimitedError はログイン試行回数超過エラーを生成する。
func NewRateLimitedError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimited,
		Message:  "ログイン試行回数が上限に達しました。",
		Category: "auth",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewUnauthorizedError は管理者権限のないリクエストに対するエラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "管理者権限が必要です。",
		Category: "auth",
		Action:   "管理者としてログインしてください。",
	}
}

// NewValidationError は入力検証エラーを生成する。
func NewValidationError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  fmt.Sprintf("入力内容が正しくありません: %s", reason),
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}

// NewArticleNotFoundError は記事未検出エラーを生成する。
func NewArticleNotFoundError(articleID string) *APIError {
	return &APIError{
		Code:     ErrCodeArticleNotFound,
		Message:  fmt.Sprintf("指定された記事が見つかりません: %s", articleID),
		Category: "content",
		Action:   "記事IDを確認してください。",
	}
}

// NewForumPostNotFoundError はトピック未検出エラーを生成する。
func NewForumPostNotFoundError(postID string) *APIError {
	return &APIError{
		Code:     ErrCodeForumPostNotFound,
		Message:  fmt.Sprintf("指定されたトピックが見つかりません: %s", postID),
		Category: "content",
		Action:   "トピックIDを確認してください。",
	}
}

// NewCommentNotFoundError はコメント未検出エラーを生成する。
func NewCommentNotFoundError(commentID string) *APIError {
	return &APIError{
		Code:     ErrCodeCommentNotFound,
		Message:  fmt.Sprintf("指定されたコメントが見つかりません: %s", commentID),
		Category: "content",
		Action:   "コメントIDを確認してください。",
	}
}

// NewMatchesUnavailableError は試合情報取得失敗エラーを生成する。
// 上流APIのエラー詳細はログにのみ記録される。
func NewMatchesUnavailableError() *APIError {
	return &APIError{
		Code:     ErrCodeMatchesUnavailable,
		Message:  "試合情報の取得に失敗しました。",
		Category: "matches",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
