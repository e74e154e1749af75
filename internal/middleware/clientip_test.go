package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{
			name:    "X-Forwarded-Forの先頭ホップを採用",
			headers: map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.1, 10.0.0.2"},
			want:    "203.0.113.5",
		},
		{
			name:    "X-Forwarded-Forが単一値",
			headers: map[string]string{"X-Forwarded-For": "203.0.113.5"},
			want:    "203.0.113.5",
		},
		{
			name:    "X-Forwarded-Forの空白を除去",
			headers: map[string]string{"X-Forwarded-For": "  203.0.113.5 , 10.0.0.1"},
			want:    "203.0.113.5",
		},
		{
			name:    "X-Forwarded-ForがなければX-Real-IP",
			headers: map[string]string{"X-Real-IP": "198.51.100.7"},
			want:    "198.51.100.7",
		},
		{
			name: "X-Real-IPがなければCF-Connecting-IP",
			headers: map[string]string{
				"CF-Connecting-IP": "192.0.2.9",
			},
			want: "192.0.2.9",
		},
		{
			name: "X-Forwarded-Forが優先される",
			headers: map[string]string{
				"X-Forwarded-For":  "203.0.113.5",
				"X-Real-IP":        "198.51.100.7",
				"CF-Connecting-IP": "192.0.2.9",
			},
			want: "203.0.113.5",
		},
		{
			name:    "ヘッダーなしはunknown",
			headers: map[string]string{},
			want:    "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/admin/login", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			if got := ClientIP(req); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
