package football

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/hitoshi/terrace/internal/cache"
	"github.com/hitoshi/terrace/internal/model"
)

// matchAPI は上流試合情報APIの操作を抽象化する。
// テストではモック実装に差し替える。
type matchAPI interface {
	TeamMatches(ctx context.Context, status string, limit int) ([]upstreamMatch, error)
	CompetitionStandings(ctx context.Context) ([]upstreamTableRow, error)
}

// Metrics は試合情報サービスが記録する計測の抽象。
type Metrics interface {
	IncMatchCacheHit(resource string)
	IncMatchCacheMiss(resource string)
	IncUpstreamFetch(resource, outcome string)
}

// nopMetrics は計測を捨てるMetrics実装。
type nopMetrics struct{}

func (nopMetrics) IncMatchCacheHit(string)       {}
func (nopMetrics) IncMatchCacheMiss(string)      {}
func (nopMetrics) IncUpstreamFetch(string, string) {}

// Service は試合情報の取得とキャッシュを提供する。
//
// フィクスチャ・結果・順位表は30分TTLのプロセス内キャッシュを経由し、
// 上流クォータ（10req/min）を保護する。ライブ試合のみ鮮度を優先して
// キャッシュしない。
//
// APIキー未設定の環境ではフィクスチャと結果はモックデータに
// フォールバックし、順位表は空を返す。捏造した順位表は
// モックと気づかれにくく誤解を招くため。
type Service struct {
	api     matchAPI
	logger  *slog.Logger
	metrics Metrics

	matchCache     *cache.Store[[]model.Match]
	standingsCache *cache.Store[[]model.Standing]

	// mu はキャッシュミス時の取得を直列化する。
	// 同時ミスで上流に重複リクエストを送らないため。
	mu sync.Mutex

	now func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
// metricsがnilの場合は計測を行わない。
func NewService(api matchAPI, cacheTTL time.Duration, logger *slog.Logger, metrics Metrics) *Service {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Service{
		api:            api,
		logger:         logger,
		metrics:        metrics,
		matchCache:     cache.New[[]model.Match](cacheTTL),
		standingsCache: cache.New[[]model.Standing](cacheTTL),
		now:            time.Now,
	}
}

// GetUpcomingFixtures は開催予定の試合をキックオフ日時の昇順で返す。
// APIキー未設定の場合はモックデータを返す（キャッシュしない）。
func (s *Service) GetUpcomingFixtures(ctx context.Context, limit int) ([]model.Match, error) {
	key := fmt.Sprintf("fixtures_%d", limit)

	s.mu.Lock()
	defer s.mu.Unlock()

	if cached, ok := s.matchCache.Get(key); ok {
		s.metrics.IncMatchCacheHit("fixtures")
		return cached, nil
	}
	s.metrics.IncMatchCacheMiss("fixtures")

	upstream, err := s.api.TeamMatches(ctx, "SCHEDULED", limit)
	if err != nil {
		if errors.Is(err, ErrAPIKeyMissing) {
			s.logger.Warn("APIキー未設定のためモックのフィクスチャを返します")
			s.metrics.IncUpstreamFetch("fixtures", "mock_fallback")
			return mockFixtures(s.now(), limit), nil
		}
		s.metrics.IncUpstreamFetch("fixtures", "failure")
		return nil, fmt.Errorf("フィクスチャの取得に失敗しました: %w", err)
	}
	s.metrics.IncUpstreamFetch("fixtures", "success")

	matches := normalizeMatches(upstream, scoreModeFixture)
	s.matchCache.Set(key, matches)
	return matches, nil
}

// GetRecentResults は終了した試合を新しい順で返す。
// APIキー未設定の場合はモックデータを返す（キャッシュしない）。
func (s *Service) GetRecentResults(ctx context.Context, limit int) ([]model.Match, error) {
	key := fmt.Sprintf("results_%d", limit)

	s.mu.Lock()
	defer s.mu.Unlock()

	if cached, ok := s.matchCache.Get(key); ok {
		s.metrics.IncMatchCacheHit("results")
		return cached, nil
	}
	s.metrics.IncMatchCacheMiss("results")

	upstream, err := s.api.TeamMatches(ctx, "FINISHED", limit)
	if err != nil {
		if errors.Is(err, ErrAPIKeyMissing) {
			s.logger.Warn("APIキー未設定のためモックの試合結果を返します")
			s.metrics.IncUpstreamFetch("results", "mock_fallback")
			return mockResults(s.now(), limit), nil
		}
		s.metrics.IncUpstreamFetch("results", "failure")
		return nil, fmt.Errorf("試合結果の取得に失敗しました: %w", err)
	}
	s.metrics.IncUpstreamFetch("results", "success")

	matches := normalizeMatches(upstream, scoreModeResult)
	// 上流は古い順で返すことがあるため、常に新しい順に並べ直す
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Date.After(matches[j].Date)
	})
	s.matchCache.Set(key, matches)
	return matches, nil
}

// GetStandings はリーグ順位表を返す。
// APIキー未設定の場合は空のスライスを返す。
func (s *Service) GetStandings(ctx context.Context) ([]model.Standing, error) {
	const key = "standings"

	s.mu.Lock()
	defer s.mu.Unlock()

	if cached, ok := s.standingsCache.Get(key); ok {
		s.metrics.IncMatchCacheHit("standings")
		return cached, nil
	}
	s.metrics.IncMatchCacheMiss("standings")

	rows, err := s.api.CompetitionStandings(ctx)
	if err != nil {
		if errors.Is(err, ErrAPIKeyMissing) {
			s.logger.Warn("APIキー未設定のため順位表は空を返します")
			s.metrics.IncUpstreamFetch("standings", "mock_fallback")
			return []model.Standing{}, nil
		}
		s.metrics.IncUpstreamFetch("standings", "failure")
		return nil, fmt.Errorf("順位表の取得に失敗しました: %w", err)
	}
	s.metrics.IncUpstreamFetch("standings", "success")

	standings := normalizeStandings(rows)
	s.standingsCache.Set(key, standings)
	return standings, nil
}

// GetLiveMatch は進行中の試合を返す。進行中の試合がない場合、
// またはAPIキー未設定・上流エラーの場合はnilを返す。
// ライブスコアは鮮度が命であるためキャッシュを経由しない。
func (s *Service) GetLiveMatch(ctx context.Context) *model.Match {
	// IN_PLAY → PAUSED の順で探す。ハーフタイム中の試合もライブ扱い。
	for _, status := range []string{"IN_PLAY", "PAUSED"} {
		upstream, err := s.api.TeamMatches(ctx, status, 1)
		if err != nil {
			if !errors.Is(err, ErrAPIKeyMissing) {
				s.logger.Warn("ライブ試合の取得に失敗しました",
					slog.String("upstream_status", status),
					slog.String("error", err.Error()),
				)
				s.metrics.IncUpstreamFetch("live", "failure")
			}
			return nil
		}
		if len(upstream) > 0 {
			s.metrics.IncUpstreamFetch("live", "success")
			m := normalizeMatch(upstream[0], scoreModeLive)
			return &m
		}
	}
	s.metrics.IncUpstreamFetch("live", "success")
	return nil
}
