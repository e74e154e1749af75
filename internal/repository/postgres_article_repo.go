package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/hitoshi/terrace/internal/model"
)

// PostgresArticleRepo はPostgreSQLを使用したニュース記事リポジトリ。
type PostgresArticleRepo struct {
	db *sql.DB
}

// NewPostgresArticleRepo はPostgresArticleRepoを生成する。
func NewPostgresArticleRepo(db *sql.DB) *PostgresArticleRepo {
	return &PostgresArticleRepo{db: db}
}

const articleColumns = `id, title, content, excerpt, category, image_url, author,
	        source_link, is_published, published_at, created_at, updated_at`

// FindByID は指定IDの記事を取得する。見つからない場合はnilを返す。
func (r *PostgresArticleRepo) FindByID(ctx context.Context, id string) (*model.Article, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+articleColumns+` FROM articles WHERE id = $1`, id)

	article, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("記事の取得に失敗しました: %w", err)
	}
	return article, nil
}

// FindBySourceLink は元記事URLで記事を検索する。見つからない場合はnilを返す。
func (r *PostgresArticleRepo) FindBySourceLink(ctx context.Context, sourceLink string) (*model.Article, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+articleColumns+` FROM articles WHERE source_link = $1`, sourceLink)

	article, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("元記事URLによる記事の検索に失敗しました: %w", err)
	}
	return article, nil
}

// List は条件に合致する記事を新しい順で返す。
// 公開済み記事はpublished_at、下書きはcreated_atで並べる。
func (r *PostgresArticleRepo) List(ctx context.Context, opts ArticleListOptions) ([]*model.Article, error) {
	var conditions []string
	var args []interface{}

	if opts.OnlyPublished {
		conditions = append(conditions, "is_published = TRUE")
	}
	if opts.Category != "" {
		args = append(args, opts.Category)
		conditions = append(conditions, "category = $"+strconv.Itoa(len(args)))
	}

	query := `SELECT ` + articleColumns + ` FROM articles`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY COALESCE(published_at, created_at) DESC"

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
		return nil, fmt.Errorf("記事一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var articles []*model.Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("記事の読み取りに失敗しました: %w", err)
		}
		articles = append(articles, article)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("記事一覧の走査に失敗しました: %w", err)
	}

	return articles, nil
}

// Create は記事を作成する。
func (r *PostgresArticleRepo) Create(ctx context.Context, article *model.Article) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO articles (id, title, content, excerpt, category, image_url, author,
		                       source_link, is_published, published_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		article.ID, article.Title, article.Content, article.Excerpt,
		article.Category, article.ImageURL, article.Author,
		article.SourceLink, article.IsPublished, nullTime(article.PublishedAt),
		article.CreatedAt, article.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("記事の作成に失敗しました: %w", err)
	}
	return nil
}

// Update は記事を更新する。
func (r *PostgresArticleRepo) Update(ctx context.Context, article *model.Article) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE articles SET
		    title = $2, content = $3, excerpt = $4, category = $5,
		    image_url = $6, author = $7, source_link = $8,
		    is_published = $9, published_at = $10, updated_at = $11
		 WHERE id = $1`,
		article.ID, article.Title, article.Content, article.Excerpt,
		article.Category, article.ImageURL, article.Author, article.SourceLink,
		article.IsPublished, nullTime(article.PublishedAt), article.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("記事の更新に失敗しました: %w", err)
	}
	return requireRowAffected(result, "記事")
}

// DeleteByID は指定IDの記事を削除する。
func (r *PostgresArticleRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM articles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("記事の削除に失敗しました: %w", err)
	}
	return nil
}

// rowScanner はsql.Rowとsql.Rowsの共通スキャンインターフェース。
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanArticle は1行をArticleに読み取る。
func scanArticle(row rowScanner) (*model.Article, error) {
	article := &model.Article{}
	var publishedAt sql.NullTime

	err := row.Scan(
		&article.ID, &article.Title, &article.Content, &article.Excerpt,
		&article.Category, &article.ImageURL, &article.Author,
		&article.SourceLink, &article.IsPublished, &publishedAt,
		&article.CreatedAt, &article.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if publishedAt.Valid {
		t := publishedAt.Time
		article.PublishedAt = &t
	}
	return article, nil
}
