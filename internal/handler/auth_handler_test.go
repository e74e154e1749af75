package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/terrace/internal/auth"
	"github.com/hitoshi/terrace/internal/middleware"
	"github.com/hitoshi/terrace/internal/ratelimit"
)

// --- モック定義 ---

// mockAuthService はAuthServiceInterfaceのモック実装。
type mockAuthService struct {
	checkCredentialsFn func(username, password string) bool
	createSessionFn    func() (string, error)
	verifySessionFn    func(tokenStr string) auth.VerifyResult
}

func (m *mockAuthService) CheckCredentials(username, password string) bool {
	if m.checkCredentialsFn != nil {
		return m.checkCredentialsFn(username, password)
	}
	return false
}

func (m *mockAuthService) CreateSession() (string, error) {
	if m.createSessionFn != nil {
		return m.createSessionFn()
	}
	return "token", nil
}

func (m *mockAuthService) VerifySession(tokenStr string) auth.VerifyResult {
	if m.verifySessionFn != nil {
		return m.verifySessionFn(tokenStr)
	}
	return auth.VerifyResult{Status: auth.VerifyInvalid}
}

// mockLimiter はLoginRateLimiterのモック実装。
type mockLimiter struct {
	result     ratelimit.Result
	checkCalls []string
	resetCalls []string
}

func (m *mockLimiter) Check(identifier string) ratelimit.Result {
	m.checkCalls = append(m.checkCalls, identifier)
	return m.result
}

func (m *mockLimiter) Reset(identifier string) {
	m.resetCalls = append(m.resetCalls, identifier)
}

// --- テストヘルパー ---

func newTestAuthHandler(service AuthServiceInterface, limiter LoginRateLimiter) *AuthHandler {
	h := NewAuthHandler(service, limiter, nil, AuthHandlerConfig{
		CookieSecure:  false,
		SessionMaxAge: 604800,
		FailureDelay:  time.Second,
	})
	h.sleep = func(time.Duration) {} // テストでは遅延しない
	return h
}

func loginRequestBody(t *testing.T, username, password string) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(loginRequest{Username: username, Password: password})
	if err != nil {
		t.Fatalf("failed to marshal login request: %v", err)
	}
	return bytes.NewBuffer(body)
}

// withChiURLParam はテスト用にchiのURLパラメータを注入するヘルパー。
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	return r.WithContext(ctx)
}

// parseAPIErrorResponse はレスポンスボディからAPIErrorレスポンスをパースするヘルパー。
func parseAPIErrorResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var result map[string]string
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return result
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			return c
		}
	}
	return nil
}

// --- POST /api/admin/login テスト ---

func TestAuthHandler_Login_Success(t *testing.T) {
	svc := &mockAuthService{
		checkCredentialsFn: func(username, password string) bool {
			return username == "admin" && password == "secret"
		},
		createSessionFn: func() (string, error) { return "jwt-token", nil },
	}
	limiter := &mockLimiter{}
	h := newTestAuthHandler(svc, limiter)

	r := httptest.NewRequest(http.MethodPost, "/api/admin/login", loginRequestBody(t, "admin", "secret"))
	r.Header.Set("X-Forwarded-For", "203.0.113.7")
	w := httptest.NewRecorder()
	h.Login(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	cookie := sessionCookie(w)
	if cookie == nil {
		t.Fatal("セッションCookieが設定されていない")
	}
	if cookie.Value != "jwt-token" {
		t.Errorf("cookie value = %q, want %q", cookie.Value, "jwt-token")
	}
	if !cookie.HttpOnly {
		t.Error("セッションCookieはHttpOnlyであるべき")
	}
	if cookie.SameSite != http.SameSiteLaxMode {
		t.Errorf("SameSite = %v, want Lax", cookie.SameSite)
	}
	if cookie.MaxAge != 604800 {
		t.Errorf("MaxAge = %d, want 604800", cookie.MaxAge)
	}

	// 成功時はそのIPの試行履歴を破棄する
	if len(limiter.resetCalls) != 1 || limiter.resetCalls[0] != "203.0.113.7" {
		t.Errorf("resetCalls = %v, want [203.0.113.7]", limiter.resetCalls)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	svc := &mockAuthService{
		checkCredentialsFn: func(username, password string) bool { return false },
	}
	limiter := &mockLimiter{}
	h := newTestAuthHandler(svc, limiter)

	var slept time.Duration
	h.sleep = func(d time.Duration) { slept = d }

	r := httptest.NewRequest(http.MethodPost, "/api/admin/login", loginRequestBody(t, "admin", "wrong"))
	w := httptest.NewRecorder()
	h.Login(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if got := parseAPIErrorResponse(t, w)["code"]; got != "INVALID_CREDENTIALS" {
		t.Errorf("code = %q, want INVALID_CREDENTIALS", got)
	}
	if slept != time.Second {
		t.Errorf("認証失敗時の遅延 = %v, want 1s", slept)
	}
	if sessionCookie(w) != nil {
		t.Error("認証失敗時にセッションCookieを設定すべきでない")
	}
	if len(limiter.resetCalls) != 0 {
		t.Error("認証失敗時に試行履歴を破棄すべきでない")
	}
}

func TestAuthHandler_Login_RateLimited(t *testing.T) {
	resetAt := time.Now().Add(10 * time.Minute)
	limiter := &mockLimiter{result: ratelimit.Result{Limited: true, ResetAt: resetAt}}
	svc := &mockAuthService{
		checkCredentialsFn: func(username, password string) bool {
			t.Error("制限中は認証情報を検証すべきでない")
			return true
		},
	}
	h := newTestAuthHandler(svc, limiter)

	r := httptest.NewRequest(http.MethodPost, "/api/admin/login", loginRequestBody(t, "admin", "secret"))
	w := httptest.NewRecorder()
	h.Login(w, r)

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}
	if got := parseAPIErrorResponse(t, w)["code"]; got != "RATE_LIMITED" {
		t.Errorf("code = %q, want RATE_LIMITED", got)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("Retry-Afterヘッダーが設定されていない")
	}
}

func TestAuthHandler_Login_MalformedBody(t *testing.T) {
	limiter := &mockLimiter{}
	h := newTestAuthHandler(&mockAuthService{}, limiter)

	r := httptest.NewRequest(http.MethodPost, "/api/admin/login", bytes.NewBufferString("{invalid"))
	w := httptest.NewRecorder()
	h.Login(w, r)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	// 不正なボディでも試行としてカウントする
	if len(limiter.checkCalls) != 1 {
		t.Errorf("checkCalls = %d, want 1", len(limiter.checkCalls))
	}
}

// --- POST /api/admin/logout テスト ---

func TestAuthHandler_Logout_ClearsCookie(t *testing.T) {
	h := newTestAuthHandler(&mockAuthService{}, &mockLimiter{})

	r := httptest.NewRequest(http.MethodPost, "/api/admin/logout", nil)
	r.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "jwt-token"})
	w := httptest.NewRecorder()
	h.Logout(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	cookie := sessionCookie(w)
	if cookie == nil {
		t.Fatal("Cookie削除のSet-Cookieがない")
	}
	if cookie.MaxAge != -1 {
		t.Errorf("MaxAge = %d, want -1", cookie.MaxAge)
	}
	if cookie.Value != "" {
		t.Errorf("value = %q, want empty", cookie.Value)
	}
}

// --- GET /api/admin/session テスト ---

func TestAuthHandler_Session(t *testing.T) {
	tests := []struct {
		name   string
		cookie *http.Cookie
		result auth.VerifyResult
		want   bool
	}{
		{
			name:   "有効な管理者トークン",
			cookie: &http.Cookie{Name: middleware.SessionCookieName, Value: "valid"},
			result: auth.VerifyResult{Status: auth.VerifyOK, IsAdmin: true},
			want:   true,
		},
		{
			name:   "不正なトークン",
			cookie: &http.Cookie{Name: middleware.SessionCookieName, Value: "bad"},
			result: auth.VerifyResult{Status: auth.VerifyInvalid},
			want:   false,
		},
		{
			name: "Cookieなし",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockAuthService{
				verifySessionFn: func(string) auth.VerifyResult { return tt.result },
			}
			h := newTestAuthHandler(svc, &mockLimiter{})

			r := httptest.NewRequest(http.MethodGet, "/api/admin/session", nil)
			if tt.cookie != nil {
				r.AddCookie(tt.cookie)
			}
			w := httptest.NewRecorder()
			h.Session(w, r)

			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
			}
			var resp sessionResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Authenticated != tt.want {
				t.Errorf("authenticated = %v, want %v", resp.Authenticated, tt.want)
			}
		})
	}
}

func TestRetryAfterSeconds_MinimumOne(t *testing.T) {
	if got := retryAfterSeconds(time.Now().Add(-time.Minute)); got != 1 {
		t.Errorf("retryAfterSeconds(過去) = %d, want 1", got)
	}
	if got := retryAfterSeconds(time.Now().Add(10 * time.Minute)); got < 590 || got > 600 {
		t.Errorf("retryAfterSeconds(10分後) = %d, want 約600", got)
	}
}
