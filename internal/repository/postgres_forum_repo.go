package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/hitoshi/terrace/internal/model"
)

// PostgresForumRepo はPostgreSQLを使用したフォーラムトピックリポジトリ。
type PostgresForumRepo struct {
	db *sql.DB
}

// NewPostgresForumRepo はPostgresForumRepoを生成する。
func NewPostgresForumRepo(db *sql.DB) *PostgresForumRepo {
	return &PostgresForumRepo{db: db}
}

const forumPostColumns = `id, title, content, category, author, is_approved, is_pinned,
	        view_count, reply_count, created_at, updated_at`

// FindByID は指定IDのトピックを取得する。見つからない場合はnilを返す。
func (r *PostgresForumRepo) FindByID(ctx context.Context, id string) (*model.ForumPost, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+forumPostColumns+` FROM forum_posts WHERE id = $1`, id)

	post, err := scanForumPost(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("トピックの取得に失敗しました: %w", err)
	}
	return post, nil
}

// List は条件に合致するトピックをピン留め優先・新しい順で返す。
func (r *PostgresForumRepo) List(ctx context.Context, opts ForumPostListOptions) ([]*model.ForumPost, error) {
	var conditions []string
	var args []interface{}

	if opts.OnlyApproved {
		conditions = append(conditions, "is_approved = TRUE")
	}
	if opts.Category != "" {
		args = append(args, opts.Category)
		conditions = append(conditions, "category = $"+strconv.Itoa(len(args)))
	}

	query := `SELECT ` + forumPostColumns + ` FROM forum_posts`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY is_pinned DESC, created_at DESC"

	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += " OFFSET $" + strconv.Itoa(len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("トピック一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var posts []*model.ForumPost
	for rows.Next() {
		post, err := scanForumPost(rows)
		if err != nil {
			return nil, fmt.Errorf("トピックの読み取りに失敗しました: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("トピック一覧の走査に失敗しました: %w", err)
	}

	return posts, nil
}

// Create はトピックを作成する。
func (r *PostgresForumRepo) Create(ctx context.Context, post *model.ForumPost) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO forum_posts (id, title, content, category, author, is_approved,
		                          is_pinned, view_count, reply_count, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		post.ID, post.Title, post.Content, post.Category, post.Author,
		post.IsApproved, post.IsPinned, post.ViewCount, post.ReplyCount,
		post.CreatedAt, post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("トピックの作成に失敗しました: %w", err)
	}
	return nil
}

// Update はトピックを更新する。承認・ピン留めの切り替えにも使用する。
func (r *PostgresForumRepo) Update(ctx context.Context, post *model.ForumPost) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE forum_posts SET
		    title = $2, content = $3, category = $4, author = $5,
		    is_approved = $6, is_pinned = $7, updated_at = $8
		 WHERE id = $1`,
		post.ID, post.Title, post.Content, post.Category, post.Author,
		post.IsApproved, post.IsPinned, post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("トピックの更新に失敗しました: %w", err)
	}
	return requireRowAffected(result, "トピック")
}

// DeleteByID は指定IDのトピックを削除する。
func (r *PostgresForumRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM forum_posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("トピックの削除に失敗しました: %w", err)
	}
	return nil
}

// IncrementViewCount は閲覧数を1増やす。
// 読み取り時のカウンタ更新なので、対象が消えていてもエラーにしない。
func (r *PostgresForumRepo) IncrementViewCount(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE forum_posts SET view_count = view_count + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("閲覧数の更新に失敗しました: %w", err)
	}
	return nil
}

// IncrementReplyCount は返信数を1増やす。
func (r *PostgresForumRepo) IncrementReplyCount(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE forum_posts SET reply_count = reply_count + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("返信数の更新に失敗しました: %w", err)
	}
	return requireRowAffected(result, "トピック")
}

// scanForumPost は1行をForumPostに読み取る。
func scanForumPost(row rowScanner) (*model.ForumPost, error) {
	post := &model.ForumPost{}
	err := row.Scan(
		&post.ID, &post.Title, &post.Content, &post.Category, &post.Author,
		&post.IsApproved, &post.IsPinned, &post.ViewCount, &post.ReplyCount,
		&post.CreatedAt, &post.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return post, nil
}
