package football

import (
	"github.com/hitoshi/terrace/internal/model"
)

// statusMap は上流APIのステータス語彙を内部の5値に写像する。
// 未知のステータスはscheduledとして扱う（normalizeStatus参照）。
var statusMap = map[string]model.MatchStatus{
	"TIMED":     model.MatchStatusScheduled,
	"SCHEDULED": model.MatchStatusScheduled,
	"IN_PLAY":   model.MatchStatusLive,
	"PAUSED":    model.MatchStatusLive,
	"FINISHED":  model.MatchStatusFinished,
	"AWARDED":   model.MatchStatusFinished,
	"POSTPONED": model.MatchStatusPostponed,
	"SUSPENDED": model.MatchStatusPostponed,
	"CANCELLED": model.MatchStatusCancelled,
}

// normalizeStatus は上流ステータスを内部ステータスに変換する。
// 写像にない値はscheduledに落とす。上流が新しいステータスを追加しても
// クライアントに未知の語彙が漏れないようにするため。
func normalizeStatus(upstream string) model.MatchStatus {
	if s, ok := statusMap[upstream]; ok {
		return s
	}
	return model.MatchStatusScheduled
}

// scoreMode は正規化時のスコアの扱いを指定する。
type scoreMode int

const (
	// scoreModeFixture は未開催試合向け。スコア未確定ならnullのまま。
	scoreModeFixture scoreMode = iota
	// scoreModeResult は終了試合向け。スコア欠損は0で補完する。
	scoreModeResult
	// scoreModeLive は進行中試合向け。フルタイム→ハーフタイム→0の
	// 優先順でスコアを解決する。0-0の進行中試合も正しく0として返る。
	scoreModeLive
)

// normalizeMatch は上流の試合レコードを内部表現に変換する。
func normalizeMatch(m upstreamMatch, mode scoreMode) model.Match {
	out := model.Match{
		ID:          m.ID,
		Date:        m.UTCDate,
		Status:      normalizeStatus(m.Status),
		HomeTeam:    normalizeTeam(m.HomeTeam),
		AwayTeam:    normalizeTeam(m.AwayTeam),
		Competition: m.Competition.Name,
		Venue:       model.Venue{Name: m.Venue},
	}

	if len(m.Referees) > 0 {
		name := m.Referees[0].Name
		out.Referee = &name
	}

	switch mode {
	case scoreModeFixture:
		out.Score = model.Score{
			Home: m.Score.FullTime.Home,
			Away: m.Score.FullTime.Away,
		}
	case scoreModeResult:
		out.Score = model.Score{
			Home: intOrZero(m.Score.FullTime.Home),
			Away: intOrZero(m.Score.FullTime.Away),
		}
	case scoreModeLive:
		out.Score = model.Score{
			Home: firstScore(m.Score.FullTime.Home, m.Score.HalfTime.Home),
			Away: firstScore(m.Score.FullTime.Away, m.Score.HalfTime.Away),
		}
	}

	return out
}

// normalizeMatches は試合のスライスをまとめて変換する。
func normalizeMatches(ms []upstreamMatch, mode scoreMode) []model.Match {
	out := make([]model.Match, 0, len(ms))
	for _, m := range ms {
		out = append(out, normalizeMatch(m, mode))
	}
	return out
}

// normalizeTeam は上流のチーム表現を内部表現に変換する。
func normalizeTeam(t upstreamTeam) model.Team {
	return model.Team{
		ID:   t.ID,
		Name: t.Name,
		Logo: t.Crest,
	}
}

// normalizeStandings は上流の順位表を内部表現に変換する。
func normalizeStandings(rows []upstreamTableRow) []model.Standing {
	out := make([]model.Standing, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.Standing{
			Rank:           r.Position,
			Team:           normalizeTeam(r.Team),
			Points:         r.Points,
			Played:         r.PlayedGames,
			Won:            r.Won,
			Drawn:          r.Draw,
			Lost:           r.Lost,
			GoalsFor:       r.GoalsFor,
			GoalsAgainst:   r.GoalsAgainst,
			GoalDifference: r.GoalDifference,
		})
	}
	return out
}

// intOrZero はnilを0に置き換えたポインタを返す。
// 終了試合のスコア欠損（上流のデータ不備）をゼロ扱いにするために使う。
func intOrZero(p *int) *int {
	if p != nil {
		return p
	}
	zero := 0
	return &zero
}

// firstScore はnilでない最初のスコアを返す。両方nilなら0を返す。
// ポインタのnil判定で解決するため、0点をnull扱いする事故はない。
func firstScore(fullTime, halfTime *int) *int {
	if fullTime != nil {
		return fullTime
	}
	if halfTime != nil {
		return halfTime
	}
	zero := 0
	return &zero
}
