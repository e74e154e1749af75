// Package model はドメインモデルを定義する。
package model

import "time"

// MatchStatus は正規化後の試合ステータスを表す。
// 上流APIの語彙に関わらず、この5値の閉集合に正規化される。
type MatchStatus string

const (
	// MatchStatusScheduled は開催予定の試合。
	MatchStatusScheduled MatchStatus = "scheduled"
	// MatchStatusLive は進行中（ハーフタイム含む）の試合。
	MatchStatusLive MatchStatus = "live"
	// MatchStatusFinished は終了した試合。
	MatchStatusFinished MatchStatus = "finished"
	// MatchStatusPostponed は延期・中断された試合。
	MatchStatusPostponed MatchStatus = "postponed"
	// MatchStatusCancelled は中止された試合。
	MatchStatusCancelled MatchStatus = "cancelled"
)

// Team は試合に出場するチームを表す。
type Team struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Logo string `json:"logo"`
}

// Score は試合のスコアを表す。
// 試合前など真に未確定の場合のみnilとなる。
type Score struct {
	Home *int `json:"home"`
	Away *int `json:"away"`
}

// Venue は試合会場を表す。
type Venue struct {
	Name string `json:"name"`
	City string `json:"city"`
}

// Match は正規化済みの試合情報を表す。
// 上流APIのレコード1件を変換して生成される。
type Match struct {
	ID          int         `json:"id"`
	Date        time.Time   `json:"date"`
	Status      MatchStatus `json:"status"`
	HomeTeam    Team        `json:"homeTeam"`
	AwayTeam    Team        `json:"awayTeam"`
	Score       Score       `json:"score"`
	Competition string      `json:"competition"`
	Venue       Venue       `json:"venue"`
	Referee     *string     `json:"referee"`
}

// Standing は順位表の1行を表す。
type Standing struct {
	Rank           int  `json:"rank"`
	Team           Team `json:"team"`
	Points         int  `json:"points"`
	Played         int  `json:"played"`
	Won            int  `json:"won"`
	Drawn          int  `json:"drawn"`
	Lost           int  `json:"lost"`
	GoalsFor       int  `json:"goalsFor"`
	GoalsAgainst   int  `json:"goalsAgainst"`
	GoalDifference int  `json:"goalDifference"`
}
