// Package config は環境変数からのアプリケーション設定の読み込みを提供する。
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Session（管理者セッション）
	SessionSecret string
	SessionMaxAge int

	// Admin credentials
	AdminUsername string
	AdminPassword string

	// Login rate limit
	LoginMaxAttempts  int
	LoginWindow       time.Duration
	LoginSweepInterval time.Duration
	LoginFailureDelay time.Duration

	// Football API
	FootballAPIKey     string
	FootballAPITimeout time.Duration
	FootballQuotaPerMin int
	MatchCacheTTL      time.Duration
	TeamID             int
	CompetitionID      int

	// News import
	NewsFeedURL        string
	NewsImportInterval time.Duration
	NewsFetchTimeout   time.Duration
	NewsFetchMaxSize   int64

	// Server
	ServerPort string
	BaseURL    string

	// Cookie
	CookieSecure bool
	CookieDomain string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
// SESSION_SECRETと管理者認証情報の欠落は起動時エラーであり、
// リクエスト処理まで持ち越さない（フェイルクローズ）。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.SessionSecret = os.Getenv("SESSION_SECRET")
	if cfg.SessionSecret == "" {
		missing = append(missing, "SESSION_SECRET")
	}

	cfg.AdminUsername = os.Getenv("ADMIN_USERNAME")
	if cfg.AdminUsername == "" {
		missing = append(missing, "ADMIN_USERNAME")
	}

	cfg.AdminPassword = os.Getenv("ADMIN_PASSWORD")
	if cfg.AdminPassword == "" {
		missing = append(missing, "ADMIN_PASSWORD")
	}

	cfg.BaseURL = os.Getenv("BASE_URL")
	if cfg.BaseURL == "" {
		missing = append(missing, "BASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.SessionMaxAge = getEnvInt("SESSION_MAX_AGE", 604800) // 7日

	cfg.LoginMaxAttempts = getEnvInt("LOGIN_MAX_ATTEMPTS", 5)
	cfg.LoginWindow = getEnvDuration("LOGIN_WINDOW", 15*time.Minute)
	cfg.LoginSweepInterval = getEnvDuration("LOGIN_SWEEP_INTERVAL", 5*time.Minute)
	cfg.LoginFailureDelay = getEnvDuration("LOGIN_FAILURE_DELAY", 1*time.Second)

	// FOOTBALL_API_KEYは任意。未設定の場合はモックデータへフォールバックする。
	cfg.FootballAPIKey = getEnvString("FOOTBALL_API_KEY", "")
	cfg.FootballAPITimeout = getEnvDuration("FOOTBALL_API_TIMEOUT", 10*time.Second)
	cfg.FootballQuotaPerMin = getEnvInt("FOOTBALL_QUOTA_PER_MIN", 10)
	cfg.MatchCacheTTL = getEnvDuration("MATCH_CACHE_TTL", 30*time.Minute)
	cfg.TeamID = getEnvInt("TEAM_ID", 66)           // Manchester United
	cfg.CompetitionID = getEnvInt("COMPETITION_ID", 2021) // Premier League

	// NEWS_FEED_URLは任意。未設定の場合はニュース取り込みワーカーを起動しない。
	cfg.NewsFeedURL = getEnvString("NEWS_FEED_URL", "")
	cfg.NewsImportInterval = getEnvDuration("NEWS_IMPORT_INTERVAL", 30*time.Minute)
	cfg.NewsFetchTimeout = getEnvDuration("NEWS_FETCH_TIMEOUT", 10*time.Second)
	cfg.NewsFetchMaxSize = getEnvInt64("NEWS_FETCH_MAX_SIZE", 5242880)

	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
