// Package football は外部試合情報API（football-data.org v4互換）との連携を提供する。
// 上流APIクライアント、レスポンスの正規化、30分TTLのレスポンスキャッシュを含む。
//
// 上流の無料プランは10リクエスト/分の厳しいクォータを持つため、
// キャッシュとクライアント側のレートリミッターの両方でクォータを保護する。
package football

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	// defaultBaseURL は上流試合情報APIのベースURL。
	defaultBaseURL = "https://api.football-data.org/v4"
	// authHeader は上流APIの認証ヘッダー名。
	authHeader = "X-Auth-Token"
)

// ErrAPIKeyMissing はAPIキー未設定を示すセンチネルエラー。
// 上流障害とは異なる想定内の状態であり、フィクスチャ/結果の取得では
// モックデータへのフォールバックを引き起こす。
var ErrAPIKeyMissing = errors.New("football APIキーが設定されていません")

// UpstreamStatusError は上流APIが非成功ステータスを返したことを表す。
type UpstreamStatusError struct {
	StatusCode int
}

// Error はerrorインターフェースを実装する。
func (e *UpstreamStatusError) Error() string {
	return fmt.Sprintf("上流APIがステータス %d を返しました", e.StatusCode)
}

// --- 上流レスポンスの形 ---

// upstreamTeam は上流APIのチーム表現。
type upstreamTeam struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Crest string `json:"crest"`
}

// upstreamScorePair は上流APIのスコアの組。未確定の場合はnull。
type upstreamScorePair struct {
	Home *int `json:"home"`
	Away *int `json:"away"`
}

// upstreamScore は上流APIのスコア表現。
type upstreamScore struct {
	FullTime upstreamScorePair `json:"fullTime"`
	HalfTime upstreamScorePair `json:"halfTime"`
}

// upstreamMatch は上流APIの試合レコード。
type upstreamMatch struct {
	ID          int           `json:"id"`
	UTCDate     time.Time     `json:"utcDate"`
	Status      string        `json:"status"`
	HomeTeam    upstreamTeam  `json:"homeTeam"`
	AwayTeam    upstreamTeam  `json:"awayTeam"`
	Score       upstreamScore `json:"score"`
	Competition struct {
		Name string `json:"name"`
	} `json:"competition"`
	Venue    string `json:"venue"`
	Referees []struct {
		Name string `json:"name"`
	} `json:"referees"`
}

// matchesResponse は上流APIの試合一覧レスポンス。
type matchesResponse struct {
	Matches []upstreamMatch `json:"matches"`
}

// standingsResponse は上流APIの順位表レスポンス。
type standingsResponse struct {
	Standings []struct {
		Table []upstreamTableRow `json:"table"`
	} `json:"standings"`
}

// upstreamTableRow は上流APIの順位表の1行。
type upstreamTableRow struct {
	Position     int          `json:"position"`
	Team         upstreamTeam `json:"team"`
	Points       int          `json:"points"`
	PlayedGames  int          `json:"playedGames"`
	Won          int          `json:"won"`
	Draw         int          `json:"draw"`
	Lost         int          `json:"lost"`
	GoalsFor     int          `json:"goalsFor"`
	GoalsAgainst int          `json:"goalsAgainst"`
	GoalDifference int        `json:"goalDifference"`
}

// ClientConfig は上流APIクライアントの設定。
type ClientConfig struct {
	APIKey        string
	TeamID        int
	CompetitionID int
	QuotaPerMin   int // 上流クォータ（req/min）。0以下の場合は10。
}

// Client は上流試合情報APIのクライアント。
// クライアント側レートリミッター（x/time/rate）で上流クォータを超えないよう
// 送信ペースを制御する。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	config     ClientConfig
	quota      *rate.Limiter
	baseURL    string // テスト用にエンドポイントを差し替え可能
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, logger *slog.Logger, config ClientConfig) *Client {
	quotaPerMin := config.QuotaPerMin
	if quotaPerMin <= 0 {
		quotaPerMin = 10
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		config:     config,
		quota:      rate.NewLimiter(rate.Limit(float64(quotaPerMin)/60.0), quotaPerMin),
		baseURL:    defaultBaseURL,
	}
}

// TeamMatches は自チームの試合一覧を指定ステータスで取得する。
// statusは上流APIの語彙（SCHEDULED, FINISHED, IN_PLAY, PAUSED等）を指定する。
// APIキー未設定の場合はErrAPIKeyMissingを返す。
func (c *Client) TeamMatches(ctx context.Context, status string, limit int) ([]upstreamMatch, error) {
	endpoint := fmt.Sprintf("/teams/%d/matches?status=%s&limit=%d", c.config.TeamID, status, limit)

	var resp matchesResponse
	if err := c.get(ctx, endpoint, &resp); err != nil {
		return nil, err
	}

	return resp.Matches, nil
}

// CompetitionStandings はリーグの順位表を取得する。
// APIキー未設定の場合はErrAPIKeyMissingを返す。
func (c *Client) CompetitionStandings(ctx context.Context) ([]upstreamTableRow, error) {
	endpoint := fmt.Sprintf("/competitions/%d/standings", c.config.CompetitionID)

	var resp standingsResponse
	if err := c.get(ctx, endpoint, &resp); err != nil {
		return nil, err
	}

	if len(resp.Standings) == 0 {
		return nil, nil
	}
	return resp.Standings[0].Table, nil
}

// get は上流APIへのGETリクエストを実行し、レスポンスJSONをoutにデコードする。
func (c *Client) get(ctx context.Context, endpoint string, out interface{}) error {
	if c.config.APIKey == "" {
		return ErrAPIKeyMissing
	}

	// クォータ保護: トークンが補充されるまで待機する
	if err := c.quota.Wait(ctx); err != nil {
		return fmt.Errorf("クォータ待機中にコンテキストが終了しました: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set(authHeader, c.config.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("上流APIの呼び出しに失敗しました",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("上流APIの呼び出しに失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("上流APIがエラーステータスを返しました",
			slog.String("endpoint", endpoint),
			slog.Int("http_status", resp.StatusCode),
		)
		return &UpstreamStatusError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		c.logger.Error("上流APIのレスポンスのパースに失敗しました",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}

	return nil
}
