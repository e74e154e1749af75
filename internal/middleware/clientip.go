package middleware

import (
	"net/http"
	"strings"
)

// ClientIP はリクエストからクライアントIPを特定する。
// x-forwarded-for（先頭ホップ）→ x-real-ip → cf-connecting-ip の
// 優先順で参照し、いずれも無い場合は"unknown"を返す。
//
// リバースプロキシ配下での運用を前提とする。ヘッダーは信頼できる
// プロキシが付与する想定であり、直接公開する構成では偽装され得る。
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		// カンマ区切りの先頭が元のクライアント
		first := forwarded
		if idx := strings.Index(forwarded, ","); idx >= 0 {
			first = forwarded[:idx]
		}
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}

	if cfIP := strings.TrimSpace(r.Header.Get("CF-Connecting-IP")); cfIP != "" {
		return cfIP
	}

	return "unknown"
}
