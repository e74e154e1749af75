// Package model はドメインモデルを定義する。
package model

import "time"

// ForumPost はフォーラムのトピックを表す。
type ForumPost struct {
	ID         string
	Title      string
	Content    string // サニタイズ済みHTML
	Category   string
	Author     string // 表示名。アカウント必須ではないため自由入力。
	IsApproved bool
	IsPinned   bool
	ViewCount  int
	ReplyCount int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
