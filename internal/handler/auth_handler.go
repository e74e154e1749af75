// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/hitoshi/terrace/internal/auth"
	"github.com/hitoshi/terrace/internal/middleware"
	"github.com/hitoshi/terrace/internal/model"
	"github.com/hitoshi/terrace/internal/ratelimit"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// CheckCredentials は管理者認証情報を検証する。
	CheckCredentials(username, password string) bool
	// CreateSession は管理者セッショントークンを発行する。
	CreateSession() (string, error)
	// VerifySession はセッショントークンを検証する。
	VerifySession(tokenStr string) auth.VerifyResult
}

// LoginRateLimiter はログイン試行の流量制御インターフェース。
type LoginRateLimiter interface {
	// Check は試行を1回記録し、制限状態を返す。
	Check(identifier string) ratelimit.Result
	// Reset は識別子の試行履歴を破棄する。ログイン成功時に呼ぶ。
	Reset(identifier string)
}

// AuthMetrics はログイン関連のメトリクス記録インターフェース。
type AuthMetrics interface {
	RecordLoginAttempt(outcome string)
	RecordLoginRateLimited()
}

// nopAuthMetrics はメトリクス未設定時のno-op実装。
type nopAuthMetrics struct{}

func (nopAuthMetrics) RecordLoginAttempt(string) {}
func (nopAuthMetrics) RecordLoginRateLimited()   {}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieDomain  string
	CookieSecure  bool
	SessionMaxAge int // セッションCookieの有効期間（秒）
	// FailureDelay は認証失敗時にレスポンスを遅延させる時間。
	// 総当たり攻撃の試行速度を抑える。
	FailureDelay time.Duration
}

// AuthHandler は管理者認証のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	limiter LoginRateLimiter
	metrics AuthMetrics
	config  AuthHandlerConfig

	// sleep はテストで遅延を差し替えるためのフック。
	sleep func(d time.Duration)
}

// NewAuthHandler はAuthHandlerを生成する。metricsはnil可。
func NewAuthHandler(service AuthServiceInterface, limiter LoginRateLimiter, metrics AuthMetrics, config AuthHandlerConfig) *AuthHandler {
	if metrics == nil {
		metrics = nopAuthMetrics{}
	}
	return &AuthHandler{
		service: service,
		limiter: limiter,
		metrics: metrics,
		config:  config,
		sleep:   time.Sleep,
	}
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse はログイン成功時のレスポンス。
type loginResponse struct {
	Success bool `json:"success"`
}

// sessionResponse はセッション状態確認のレスポンス。
type sessionResponse struct {
	Authenticated bool `json:"authenticated"`
}

// Login は管理者ログインを処理する。
// POST /api/admin/login
//
// レート制限の確認はリクエストボディの検証より先に行う。
// 不正なボディの連投でもカウントを消費させるため。
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	clientIP := middleware.ClientIP(r)

	result := h.limiter.Check(clientIP)
	if result.Limited {
		h.metrics.RecordLoginRateLimited()
		slog.Warn("login rate limited",
			slog.String("client_ip", clientIP),
			slog.Time("reset_at", result.ResetAt),
		)
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(result.ResetAt)))
		writeAPIErrorResponse(w, http.StatusTooManyRequests, model.NewRateLimitedError())
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("リクエストボディの解析に失敗しました"))
		return
	}

	if !h.service.CheckCredentials(req.Username, req.Password) {
		h.metrics.RecordLoginAttempt("failure")
		slog.Warn("login failed", slog.String("client_ip", clientIP))

		// 認証失敗時は一定時間遅延させてから応答する
		h.sleep(h.config.FailureDelay)
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewInvalidCredentialsError())
		return
	}

	token, err := h.service.CreateSession()
	if err != nil {
		slog.Error("failed to create session", slog.String("error", err.Error()))
		writeInternalError(w)
		return
	}

	// 成功したIPの試行履歴を破棄する
	h.limiter.Reset(clientIP)
	h.metrics.RecordLoginAttempt("success")

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   h.config.SessionMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	slog.Info("admin login", slog.String("client_ip", clientIP))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(loginResponse{Success: true})
}

// Logout はセッションCookieをクリアする。
// POST /api/admin/logout
//
// トークンはステートレスなためサーバー側で失効させる状態は持たない。
// Cookieの削除のみを行う。
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(loginResponse{Success: true})
}

// Session は現在のセッション状態を返す。
// GET /api/admin/session
//
// 管理画面の初期表示でログイン状態を判定するためのエンドポイント。
// 未認証でも200で返す。
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	authenticated := false
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil && cookie.Value != "" {
		result := h.service.VerifySession(cookie.Value)
		authenticated = result.Status == auth.VerifyOK && result.IsAdmin
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sessionResponse{Authenticated: authenticated})
}

// retryAfterSeconds はResetAtまでの残り秒数を返す。最小値は1。
func retryAfterSeconds(resetAt time.Time) int {
	secs := int(time.Until(resetAt).Round(time.Second).Seconds())
	if secs < 1 {
		secs = 1
	}
	return secs
}
