// Package model はドメインモデルを定義する。
package model

import "time"

// Article はニュース記事を表す。
type Article struct {
	ID          string
	Title       string
	Content     string // サニタイズ済みHTML
	Excerpt     string // 一覧表示用のプレーンテキスト抜粋
	Category    string
	ImageURL    string
	Author      string
	SourceLink  string // RSS取り込み記事の元記事URL。手動作成記事では空。
	IsPublished bool
	PublishedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ArticleCategory はニュース記事のカテゴリを表す。
type ArticleCategory string

const (
	// ArticleCategoryMatchReport は試合レポートのカテゴリ。
	ArticleCategoryMatchReport ArticleCategory = "match_report"
	// ArticleCategoryTransfer は移籍情報のカテゴリ。
	ArticleCategoryTransfer ArticleCategory = "transfer"
	// ArticleCategoryClubNews はクラブニュースのカテゴリ。
	ArticleCategoryClubNews ArticleCategory = "club_news"
	// ArticleCategoryOpinion はコラム・オピニオンのカテゴリ。
	ArticleCategoryOpinion ArticleCategory = "opinion"
)
