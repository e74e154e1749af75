// Package model はドメインモデルを定義する。
package model

import "time"

// ParentType はコメントの親ドキュメント種別を表す。
// 元データストアではコメントは親記事/親トピックのサブコレクションに属する。
type ParentType string

const (
	// ParentTypeArticle はニュース記事へのコメントを示す。
	ParentTypeArticle ParentType = "article"
	// ParentTypeForumPost はフォーラムトピックへの返信を示す。
	ParentTypeForumPost ParentType = "forum_post"
)

// Valid はParentTypeが定義済みの値かどうかを返す。
func (p ParentType) Valid() bool {
	switch p {
	case ParentTypeArticle, ParentTypeForumPost:
		return true
	default:
		return false
	}
}

// Comment はニュース記事へのコメントまたはフォーラムトピックへの返信を表す。
// 記事コメントは承認制（IsApproved=falseで作成）、
// フォーラム返信は自動承認（IsApproved=trueで作成）。
type Comment struct {
	ID         string
	ParentType ParentType
	ParentID   string
	Author     string
	Content    string // サニタイズ済みHTML
	IsApproved bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
