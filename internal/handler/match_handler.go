package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/hitoshi/terrace/internal/model"
)

// 試合系エンドポイントの件数既定値。
const (
	defaultMatchLimit = 10
	maxMatchLimit     = 20
)

// MatchServiceInterface は試合ハンドラーが必要とするサービスインターフェース。
type MatchServiceInterface interface {
	GetUpcomingFixtures(ctx context.Context, limit int) ([]model.Match, error)
	GetRecentResults(ctx context.Context, limit int) ([]model.Match, error)
	GetStandings(ctx context.Context) ([]model.Standing, error)
	// GetLiveMatch は進行中の試合を返す。なければnil。
	GetLiveMatch(ctx context.Context) *model.Match
}

// MatchHandler は試合情報のHTTPハンドラー。
type MatchHandler struct {
	service MatchServiceInterface
}

// NewMatchHandler はMatchHandlerを生成する。
func NewMatchHandler(service MatchServiceInterface) *MatchHandler {
	return &MatchHandler{service: service}
}

// highlightResponse はトップページ表示用のハイライト試合レスポンス。
type highlightResponse struct {
	Type  string       `json:"type"` // live, upcoming, recent, none
	Match *model.Match `json:"match"`
}

// GetFixtures は今後の試合予定を返す。
// GET /api/matches/fixtures?limit=
func (h *MatchHandler) GetFixtures(w http.ResponseWriter, r *http.Request) {
	matches, err := h.service.GetUpcomingFixtures(r.Context(), parseMatchLimit(r))
	if err != nil {
		handleMatchError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, matches)
}

// GetResults は最近の試合結果を新しい順で返す。
// GET /api/matches/results?limit=
func (h *MatchHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	matches, err := h.service.GetRecentResults(r.Context(), parseMatchLimit(r))
	if err != nil {
		handleMatchError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, matches)
}

// GetStandings はリーグ順位表を返す。
// GET /api/matches/standings
func (h *MatchHandler) GetStandings(w http.ResponseWriter, r *http.Request) {
	standings, err := h.service.GetStandings(r.Context())
	if err != nil {
		handleMatchError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, standings)
}

// GetHighlight はトップページに表示する注目試合を返す。
// GET /api/matches/highlight
//
// 優先順位: 進行中の試合 → 直近の試合予定 → 直近の試合結果。
// いずれもない場合はtype=none、matchはnullを返す。
func (h *MatchHandler) GetHighlight(w http.ResponseWriter, r *http.Request) {
	if live := h.service.GetLiveMatch(r.Context()); live != nil {
		writeJSON(w, http.StatusOK, highlightResponse{Type: "live", Match: live})
		return
	}

	fixtures, err := h.service.GetUpcomingFixtures(r.Context(), 1)
	if err == nil && len(fixtures) > 0 {
		writeJSON(w, http.StatusOK, highlightResponse{Type: "upcoming", Match: &fixtures[0]})
		return
	}
	if err != nil {
		slog.Warn("highlight: failed to fetch fixtures", slog.String("error", err.Error()))
	}

	results, err := h.service.GetRecentResults(r.Context(), 1)
	if err == nil && len(results) > 0 {
		writeJSON(w, http.StatusOK, highlightResponse{Type: "recent", Match: &results[0]})
		return
	}
	if err != nil {
		slog.Warn("highlight: failed to fetch results", slog.String("error", err.Error()))
	}

	writeJSON(w, http.StatusOK, highlightResponse{Type: "none", Match: nil})
}

// handleMatchError は試合データ取得の失敗を503で返す。
// 上流APIの障害は本サービスの内部エラーと区別する。
func handleMatchError(w http.ResponseWriter, err error) {
	slog.Error("failed to fetch match data", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusServiceUnavailable, model.NewMatchesUnavailableError())
}

// parseMatchLimit はlimitクエリパラメータを解析する。
// 不正な値は既定値にフォールバックする。
func parseMatchLimit(r *http.Request) int {
	limit := defaultMatchLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxMatchLimit {
		limit = maxMatchLimit
	}
	return limit
}
