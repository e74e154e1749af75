package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/terrace/internal/model"
)

// mockMatchService はMatchServiceInterfaceのモック実装。
type mockMatchService struct {
	fixturesFn  func(ctx context.Context, limit int) ([]model.Match, error)
	resultsFn   func(ctx context.Context, limit int) ([]model.Match, error)
	standingsFn func(ctx context.Context) ([]model.Standing, error)
	liveFn      func(ctx context.Context) *model.Match
}

func (m *mockMatchService) GetUpcomingFixtures(ctx context.Context, limit int) ([]model.Match, error) {
	if m.fixturesFn != nil {
		return m.fixturesFn(ctx, limit)
	}
	return nil, nil
}

func (m *mockMatchService) GetRecentResults(ctx context.Context, limit int) ([]model.Match, error) {
	if m.resultsFn != nil {
		return m.resultsFn(ctx, limit)
	}
	return nil, nil
}

func (m *mockMatchService) GetStandings(ctx context.Context) ([]model.Standing, error) {
	if m.standingsFn != nil {
		return m.standingsFn(ctx)
	}
	return nil, nil
}

func (m *mockMatchService) GetLiveMatch(ctx context.Context) *model.Match {
	if m.liveFn != nil {
		return m.liveFn(ctx)
	}
	return nil
}

func testMatch(id int, status model.MatchStatus) model.Match {
	return model.Match{
		ID:     id,
		Date:   time.Date(2026, 3, 7, 15, 0, 0, 0, time.UTC),
		Status: status,
		HomeTeam: model.Team{ID: 66, Name: "Manchester United FC"},
		AwayTeam: model.Team{ID: 64, Name: "Liverpool FC"},
	}
}

func TestMatchHandler_GetFixtures_LimitParsing(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantLimit int
	}{
		{"既定値", "", defaultMatchLimit},
		{"指定あり", "?limit=10", 10},
		{"上限超過", "?limit=100", maxMatchLimit},
		{"不正な値", "?limit=abc", defaultMatchLimit},
		{"ゼロ", "?limit=0", defaultMatchLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotLimit int
			svc := &mockMatchService{
				fixturesFn: func(_ context.Context, limit int) ([]model.Match, error) {
					gotLimit = limit
					return []model.Match{}, nil
				},
			}
			h := NewMatchHandler(svc)

			r := httptest.NewRequest(http.MethodGet, "/api/matches/fixtures"+tt.query, nil)
			w := httptest.NewRecorder()
			h.GetFixtures(w, r)

			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
			}
			if gotLimit != tt.wantLimit {
				t.Errorf("limit = %d, want %d", gotLimit, tt.wantLimit)
			}
		})
	}
}

func TestMatchHandler_GetFixtures_UpstreamFailure(t *testing.T) {
	svc := &mockMatchService{
		fixturesFn: func(context.Context, int) ([]model.Match, error) {
			return nil, errors.New("upstream down")
		},
	}
	h := NewMatchHandler(svc)

	r := httptest.NewRequest(http.MethodGet, "/api/matches/fixtures", nil)
	w := httptest.NewRecorder()
	h.GetFixtures(w, r)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
	if got := parseAPIErrorResponse(t, w)["code"]; got != "MATCHES_UNAVAILABLE" {
		t.Errorf("code = %q, want MATCHES_UNAVAILABLE", got)
	}
}

func TestMatchHandler_GetStandings(t *testing.T) {
	svc := &mockMatchService{
		standingsFn: func(context.Context) ([]model.Standing, error) {
			return []model.Standing{{Rank: 1, Team: model.Team{Name: "Manchester United FC"}, Points: 45}}, nil
		},
	}
	h := NewMatchHandler(svc)

	r := httptest.NewRequest(http.MethodGet, "/api/matches/standings", nil)
	w := httptest.NewRecorder()
	h.GetStandings(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var standings []model.Standing
	if err := json.NewDecoder(w.Body).Decode(&standings); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(standings) != 1 || standings[0].Rank != 1 {
		t.Errorf("standings = %+v", standings)
	}
}

// --- GET /api/matches/highlight テスト ---

func TestMatchHandler_GetHighlight_Priority(t *testing.T) {
	live := testMatch(1, model.MatchStatusLive)
	upcoming := testMatch(2, model.MatchStatusScheduled)
	recent := testMatch(3, model.MatchStatusFinished)

	tests := []struct {
		name     string
		svc      *mockMatchService
		wantType string
		wantID   int
	}{
		{
			name: "進行中の試合が最優先",
			svc: &mockMatchService{
				liveFn: func(context.Context) *model.Match { return &live },
				fixturesFn: func(context.Context, int) ([]model.Match, error) {
					t.Error("進行中の試合がある場合は予定を取得すべきでない")
					return nil, nil
				},
			},
			wantType: "live",
			wantID:   1,
		},
		{
			name: "次に直近の試合予定",
			svc: &mockMatchService{
				fixturesFn: func(context.Context, int) ([]model.Match, error) {
					return []model.Match{upcoming}, nil
				},
			},
			wantType: "upcoming",
			wantID:   2,
		},
		{
			name: "最後に直近の試合結果",
			svc: &mockMatchService{
				resultsFn: func(context.Context, int) ([]model.Match, error) {
					return []model.Match{recent}, nil
				},
			},
			wantType: "recent",
			wantID:   3,
		},
		{
			name:     "何もない場合はnone",
			svc:      &mockMatchService{},
			wantType: "none",
		},
		{
			name: "予定の取得失敗は結果へフォールバック",
			svc: &mockMatchService{
				fixturesFn: func(context.Context, int) ([]model.Match, error) {
					return nil, errors.New("upstream down")
				},
				resultsFn: func(context.Context, int) ([]model.Match, error) {
					return []model.Match{recent}, nil
				},
			},
			wantType: "recent",
			wantID:   3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewMatchHandler(tt.svc)

			r := httptest.NewRequest(http.MethodGet, "/api/matches/highlight", nil)
			w := httptest.NewRecorder()
			h.GetHighlight(w, r)

			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
			}
			var resp highlightResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Type != tt.wantType {
				t.Errorf("type = %q, want %q", resp.Type, tt.wantType)
			}
			if tt.wantType == "none" {
				if resp.Match != nil {
					t.Errorf("match = %+v, want nil", resp.Match)
				}
			} else if resp.Match == nil || resp.Match.ID != tt.wantID {
				t.Errorf("match = %+v, want ID %d", resp.Match, tt.wantID)
			}
		})
	}
}
