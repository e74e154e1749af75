package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/terrace/internal/model"
)

// PostgresCommentRepo はPostgreSQLを使用したコメントリポジトリ。
type PostgresCommentRepo struct {
	db *sql.DB
}

// NewPostgresCommentRepo はPostgresCommentRepoを生成する。
func NewPostgresCommentRepo(db *sql.DB) *PostgresCommentRepo {
	return &PostgresCommentRepo{db: db}
}

const commentColumns = `id, parent_type, parent_id, author, content, is_approved,
	        created_at, updated_at`

// FindByID は指定IDのコメントを取得する。見つからない場合はnilを返す。
func (r *PostgresCommentRepo) FindByID(ctx context.Context, id string) (*model.Comment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+commentColumns+` FROM comments WHERE id = $1`, id)

	comment, err := scanComment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("コメントの取得に失敗しました: %w", err)
	}
	return comment, nil
}

// ListByParent は親ドキュメントに付いたコメントを古い順で返す。
// 会話のスレッドとして自然に読めるよう、一覧とは逆に古い順とする。
func (r *PostgresCommentRepo) ListByParent(ctx context.Context, parentType model.ParentType, parentID string, onlyApproved bool) ([]*model.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments
		 WHERE parent_type = $1 AND parent_id = $2`
	if onlyApproved {
		query += " AND is_approved = TRUE"
	}
	query += " ORDER BY created_at ASC"

	rows, err := r.db.QueryContext(ctx, query, string(parentType), parentID)
	if err != nil {
		return nil, fmt.Errorf("コメント一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var comments []*model.Comment
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("コメントの読み取りに失敗しました: %w", err)
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("コメント一覧の走査に失敗しました: %w", err)
	}

	return comments, nil
}

// Create はコメントを作成する。
func (r *PostgresCommentRepo) Create(ctx context.Context, comment *model.Comment) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO comments (id, parent_type, parent_id, author, content,
		                       is_approved, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		comment.ID, string(comment.ParentType), comment.ParentID,
		comment.Author, comment.Content, comment.IsApproved,
		comment.CreatedAt, comment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("コメントの作成に失敗しました: %w", err)
	}
	return nil
}

// Update はコメントを更新する。承認の切り替えにも使用する。
func (r *PostgresCommentRepo) Update(ctx context.Context, comment *model.Comment) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE comments SET
		    author = $2, content = $3, is_approved = $4, updated_at = $5
		 WHERE id = $1`,
		comment.ID, comment.Author, comment.Content,
		comment.IsApproved, comment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("コメントの更新に失敗しました: %w", err)
	}
	return requireRowAffected(result, "コメント")
}

// DeleteByID は指定IDのコメントを削除する。
func (r *PostgresCommentRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("コメントの削除に失敗しました: %w", err)
	}
	return nil
}

// DeleteByParent は親ドキュメントに付いた全コメントを削除する。
func (r *PostgresCommentRepo) DeleteByParent(ctx context.Context, parentType model.ParentType, parentID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM comments WHERE parent_type = $1 AND parent_id = $2`,
		string(parentType), parentID)
	if err != nil {
		return fmt.Errorf("コメントの一括削除に失敗しました: %w", err)
	}
	return nil
}

// scanComment は1行をCommentに読み取る。
func scanComment(row rowScanner) (*model.Comment, error) {
	comment := &model.Comment{}
	var parentType string

	err := row.Scan(
		&comment.ID, &parentType, &comment.ParentID,
		&comment.Author, &comment.Content, &comment.IsApproved,
		&comment.CreatedAt, &comment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	comment.ParentType = model.ParentType(parentType)
	return comment, nil
}
