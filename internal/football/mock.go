package football

import (
	"time"

	"github.com/hitoshi/terrace/internal/model"
)

// モックデータ。APIキー未設定の環境（ローカル開発など）で
// フィクスチャと試合結果の代わりに返す静的データ。
// 日付は現在時刻からの相対値で生成し、常にもっともらしい並びになるようにする。

// mockTeams はモックデータで使用するチーム定義。
var (
	mockTeamHome = model.Team{
		ID:   66,
		Name: "Manchester United FC",
		Logo: "https://crests.football-data.org/66.png",
	}
	mockOpponents = []model.Team{
		{ID: 64, Name: "Liverpool FC", Logo: "https://crests.football-data.org/64.png"},
		{ID: 57, Name: "Arsenal FC", Logo: "https://crests.football-data.org/57.png"},
		{ID: 61, Name: "Chelsea FC", Logo: "https://crests.football-data.org/61.png"},
		{ID: 65, Name: "Manchester City FC", Logo: "https://crests.football-data.org/65.png"},
		{ID: 73, Name: "Tottenham Hotspur FC", Logo: "https://crests.football-data.org/73.png"},
	}
)

// mockFixtures は開催予定試合のモックを生成する。
// 現在時刻から3日間隔で未来に向かって並べる。
func mockFixtures(now time.Time, limit int) []model.Match {
	if limit > len(mockOpponents) {
		limit = len(mockOpponents)
	}
	out := make([]model.Match, 0, limit)
	for i := 0; i < limit; i++ {
		home := i%2 == 0
		m := model.Match{
			ID:          1000 + i,
			Date:        now.Add(time.Duration(i+1) * 72 * time.Hour),
			Status:      model.MatchStatusScheduled,
			Competition: "Premier League",
		}
		if home {
			m.HomeTeam = mockTeamHome
			m.AwayTeam = mockOpponents[i]
			m.Venue = model.Venue{Name: "Old Trafford", City: "Manchester"}
		} else {
			m.HomeTeam = mockOpponents[i]
			m.AwayTeam = mockTeamHome
		}
		out = append(out, m)
	}
	return out
}

// mockResults は終了試合のモックを生成する。
// 現在時刻から3日間隔で過去に遡って並べる（新しい順）。
func mockResults(now time.Time, limit int) []model.Match {
	scores := [][2]int{{2, 1}, {0, 0}, {3, 2}, {1, 1}, {2, 0}}
	if limit > len(mockOpponents) {
		limit = len(mockOpponents)
	}
	out := make([]model.Match, 0, limit)
	for i := 0; i < limit; i++ {
		home := i%2 == 0
		homeScore := scores[i][0]
		awayScore := scores[i][1]
		m := model.Match{
			ID:          2000 + i,
			Date:        now.Add(-time.Duration(i+1) * 72 * time.Hour),
			Status:      model.MatchStatusFinished,
			Score:       model.Score{Home: &homeScore, Away: &awayScore},
			Competition: "Premier League",
		}
		if home {
			m.HomeTeam = mockTeamHome
			m.AwayTeam = mockOpponents[i]
			m.Venue = model.Venue{Name: "Old Trafford", City: "Manchester"}
		} else {
			m.HomeTeam = mockOpponents[i]
			m.AwayTeam = mockTeamHome
		}
		out = append(out, m)
	}
	return out
}
