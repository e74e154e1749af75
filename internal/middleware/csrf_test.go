package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func noopHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestCSRFMiddleware_SafeMethod_SetsCookie(t *testing.T) {
	mw := NewCSRFMiddleware(CSRFConfig{})
	handler := mw(noopHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/matches/fixtures", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var found bool
	for _, c := range w.Result().Cookies() {
		if c.Name == "csrf_token" && c.Value != "" {
			found = true
			if c.HttpOnly {
				t.Error("CSRFトークンCookieがHttpOnlyになっています")
			}
		}
	}
	if !found {
		t.Error("CSRFトークンCookieが設定されていません")
	}
}

func TestCSRFMiddleware_MutatingMethod_RequiresMatchingTokens(t *testing.T) {
	mw := NewCSRFMiddleware(CSRFConfig{})

	tests := []struct {
		name        string
		cookieToken string
		headerToken string
		wantStatus  int
	}{
		{"トークン一致", "token-abc", "token-abc", http.StatusOK},
		{"Cookieなし", "", "token-abc", http.StatusForbidden},
		{"ヘッダーなし", "token-abc", "", http.StatusForbidden},
		{"トークン不一致", "token-abc", "token-xyz", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := mw(noopHandler())

			req := httptest.NewRequest(http.MethodPost, "/api/admin/articles", nil)
			if tt.cookieToken != "" {
				req.AddCookie(&http.Cookie{Name: "csrf_token", Value: tt.cookieToken})
			}
			if tt.headerToken != "" {
				req.Header.Set("X-CSRF-Token", tt.headerToken)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestCSRFTokenHandler_GeneratesAndReusesToken(t *testing.T) {
	handler := NewCSRFTokenHandler(CSRFConfig{})

	// 初回はトークンを生成してCookieを設定する
	req := httptest.NewRequest(http.MethodGet, "/api/csrf-token", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("レスポンスのパースに失敗しました: %v", err)
	}
	token := body["token"]
	if token == "" {
		t.Fatal("トークンが返されていません")
	}

	// 既存Cookieがある場合は同じトークンを返す
	req2 := httptest.NewRequest(http.MethodGet, "/api/csrf-token", nil)
	req2.AddCookie(&http.Cookie{Name: "csrf_token", Value: token})
	w2 := httptest.NewRecorder()
	handler.ServeHTTP(w2, req2)

	var body2 map[string]string
	json.Unmarshal(w2.Body.Bytes(), &body2)
	if body2["token"] != token {
		t.Errorf("既存トークンが再利用されていません: %q != %q", body2["token"], token)
	}
}
