// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/terrace/internal/model"
)

// ArticleListOptions はニュース記事一覧の絞り込み条件。
type ArticleListOptions struct {
	// OnlyPublished がtrueの場合、公開済み記事のみを返す。
	OnlyPublished bool
	// Category が空でない場合、そのカテゴリの記事のみを返す。
	Category string
	Limit    int
	Offset   int
}

// ArticleRepository はニュース記事の永続化インターフェース。
type ArticleRepository interface {
	// FindByID は指定IDの記事を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Article, error)

	// FindBySourceLink は元記事URLで記事を検索する。見つからない場合はnilを返す。
	// RSS取り込みの重複排除に使用する。
	FindBySourceLink(ctx context.Context, sourceLink string) (*model.Article, error)

	// List は条件に合致する記事を新しい順で返す。
	List(ctx context.Context, opts ArticleListOptions) ([]*model.Article, error)

	// Create は記事を作成する。
	Create(ctx context.Context, article *model.Article) error

	// Update は記事を更新する。
	Update(ctx context.Context, article *model.Article) error

	// DeleteByID は指定IDの記事を削除する。記事に付いたコメントの削除は
	// 呼び出し側がCommentRepository.DeleteByParentで行う。
	DeleteByID(ctx context.Context, id string) error
}

// ForumPostListOptions はフォーラムトピック一覧の絞り込み条件。
type ForumPostListOptions struct {
	// OnlyApproved がtrueの場合、承認済みトピックのみを返す。
	OnlyApproved bool
	// Category が空でない場合、そのカテゴリのトピックのみを返す。
	Category string
	Limit    int
	Offset   int
}

// ForumPostRepository はフォーラムトピックの永続化インターフェース。
type ForumPostRepository interface {
	// FindByID は指定IDのトピックを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.ForumPost, error)

	// List は条件に合致するトピックをピン留め優先・新しい順で返す。
	List(ctx context.Context, opts ForumPostListOptions) ([]*model.ForumPost, error)

	// Create はトピックを作成する。
	Create(ctx context.Context, post *model.ForumPost) error

	// Update はトピックを更新する。承認・ピン留めの切り替えにも使用する。
	Update(ctx context.Context, post *model.ForumPost) error

	// DeleteByID は指定IDのトピックを削除する。
	DeleteByID(ctx context.Context, id string) error

	// IncrementViewCount は閲覧数を1増やす。
	IncrementViewCount(ctx context.Context, id string) error

	// IncrementReplyCount は返信数を1増やす。
	IncrementReplyCount(ctx context.Context, id string) error
}

// CommentRepository はコメント・フォーラム返信の永続化インターフェース。
type CommentRepository interface {
	// FindByID は指定IDのコメントを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Comment, error)

	// ListByParent は親ドキュメントに付いたコメントを古い順で返す。
	// onlyApprovedがtrueの場合は承認済みコメントのみを返す。
	ListByParent(ctx context.Context, parentType model.ParentType, parentID string, onlyApproved bool) ([]*model.Comment, error)

	// Create はコメントを作成する。
	Create(ctx context.Context, comment *model.Comment) error

	// Update はコメントを更新する。承認の切り替えにも使用する。
	Update(ctx context.Context, comment *model.Comment) error

	// DeleteByID は指定IDのコメントを削除する。
	DeleteByID(ctx context.Context, id string) error

	// DeleteByParent は親ドキュメントに付いた全コメントを削除する。
	// 親の削除と合わせて呼び出す。
	DeleteByParent(ctx context.Context, parentType model.ParentType, parentID string) error
}
