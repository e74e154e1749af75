// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hitoshi/terrace/internal/auth"
	"github.com/hitoshi/terrace/internal/model"
)

// SessionCookieName は管理者セッショントークンを保持するCookieの名前。
const SessionCookieName = "admin_session"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// adminContextKey はリクエストコンテキストに管理者フラグを格納するためのキー。
var adminContextKey = contextKey("is_admin")

// SessionVerifier はセッショントークンの検証に必要なインターフェース。
// auth.Serviceの部分集合として定義する。
type SessionVerifier interface {
	VerifySession(token string) auth.VerifyResult
}

// NewAdminAuthMiddleware はHTTP Only Cookieからセッショントークンを読み取り、
// 署名と有効期限を検証するミドルウェアを返す。
// トークン未提示と不正トークンはどちらも401を返すが、ログ上は区別する。
func NewAdminAuthMiddleware(verifier SessionVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var token string
			if cookie, err := r.Cookie(SessionCookieName); err == nil {
				token = cookie.Value
			}

			result := verifier.VerifySession(token)
			switch result.Status {
			case auth.VerifyOK:
				if !result.IsAdmin {
					// 署名は正しいが管理者クレームを持たないトークン
					slog.Warn("admin auth rejected: token without admin claim",
						slog.String("path", r.URL.Path),
					)
					WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
					return
				}
			case auth.VerifyAbsent:
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			default:
				slog.Warn("admin auth rejected: invalid session token",
					slog.String("path", r.URL.Path),
				)
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			ctx := context.WithValue(r.Context(), adminContextKey, true)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IsAdminFromContext はリクエストが管理者として認証済みかどうかを返す。
// 管理者認証ミドルウェアを通過したリクエストでのみtrueになる。
func IsAdminFromContext(ctx context.Context) bool {
	isAdmin, ok := ctx.Value(adminContextKey).(bool)
	return ok && isAdmin
}

// ContextWithAdmin はコンテキストに管理者フラグを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithAdmin(ctx context.Context) context.Context {
	return context.WithValue(ctx, adminContextKey, true)
}
