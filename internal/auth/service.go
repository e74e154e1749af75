// Package auth は管理者セッショントークンの発行・検証と認証情報の照合を提供する。
//
// セッションはサーバー側に状態を持たない署名付きトークン（HS256 JWT）方式。
// ログアウトはCookieの削除のみであり、発行済みトークンの失効はできない
// （ステートレス方式の既知のトレードオフ）。
package auth

import (
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionDuration は管理者セッションの有効期間（7日）。
const SessionDuration = 7 * 24 * time.Hour

// TokenClaims は管理者セッショントークンのペイロード。
type TokenClaims struct {
	IsAdmin bool `json:"isAdmin"`
	jwt.RegisteredClaims
}

// VerifyStatus はトークン検証結果の種別を表す。
// 呼び出し元はAbsentとInvalidをどちらも未認証として扱うが、
// ログ上の区別のために分けて返す。
type VerifyStatus string

const (
	// VerifyOK は署名と有効期限の検証に成功したことを示す。
	VerifyOK VerifyStatus = "ok"
	// VerifyAbsent はトークンが提示されなかったことを示す。
	VerifyAbsent VerifyStatus = "absent"
	// VerifyInvalid はトークンが不正（署名不一致、期限切れ、形式不正）であることを示す。
	VerifyInvalid VerifyStatus = "invalid"
)

// VerifyResult はトークン検証の結果を表す。
type VerifyResult struct {
	Status  VerifyStatus
	IsAdmin bool
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionSecret string // トークン署名鍵。空の場合はconfig.Loadが起動時に弾く。
	AdminUsername string
	AdminPassword string
}

// Service は管理者認証に関するビジネスロジックを提供する。
type Service struct {
	secret        []byte
	adminUsername string
	adminPassword string

	// now はテストで時計を差し替えるためのフック。
	now func() time.Time
}

// NewService はServiceを生成する。
func NewService(config ServiceConfig) *Service {
	return &Service{
		secret:        []byte(config.SessionSecret),
		adminUsername: config.AdminUsername,
		adminPassword: config.AdminPassword,
		now:           time.Now,
	}
}

// CreateSession は管理者セッショントークン（isAdmin=true）を発行する。
// 発行時刻と7日後の有効期限を含み、HS256で署名される。
func (s *Service) CreateSession() (string, error) {
	if len(s.secret) == 0 {
		return "", fmt.Errorf("セッション署名鍵が設定されていません")
	}

	now := s.now()
	claims := TokenClaims{
		IsAdmin: true,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(SessionDuration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("セッショントークンの署名に失敗しました: %w", err)
	}

	return signed, nil
}

// VerifySession はトークンの署名と有効期限を検証する。
// トークン未提示はVerifyAbsent、署名不一致・期限切れ・形式不正はVerifyInvalidを返す。
// エラーは返さない（検証失敗は呼び出し元にとって例外ではなく通常の分岐）。
func (s *Service) VerifySession(tokenStr string) VerifyResult {
	if tokenStr == "" {
		return VerifyResult{Status: VerifyAbsent}
	}

	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("想定外の署名方式です: %v", t.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return VerifyResult{Status: VerifyInvalid}
	}

	return VerifyResult{Status: VerifyOK, IsAdmin: claims.IsAdmin}
}

// CheckCredentials は管理者認証情報を照合する。
// タイミング攻撃対策として定数時間比較を使用する。
// 認証情報が未設定の場合は常にfalse（フェイルクローズ）。
func (s *Service) CheckCredentials(username, password string) bool {
	if s.adminUsername == "" || s.adminPassword == "" {
		return false
	}

	userMatch := subtle.ConstantTimeCompare([]byte(username), []byte(s.adminUsername)) == 1
	passMatch := subtle.ConstantTimeCompare([]byte(password), []byte(s.adminPassword)) == 1
	return userMatch && passMatch
}
