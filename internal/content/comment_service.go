package content

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/terrace/internal/model"
	"github.com/hitoshi/terrace/internal/repository"
	"github.com/hitoshi/terrace/internal/security"
)

// maxCommentRunes はコメント本文の最大文字数。
const maxCommentRunes = 2000

// CommentService は記事コメントとフォーラム返信の管理サービス。
//
// 記事コメントは承認制（作成時は未承認）、フォーラム返信は自動承認。
// どちらも同じcommentsテーブルに親種別付きで保存される。
type CommentService struct {
	commentRepo repository.CommentRepository
	articleRepo repository.ArticleRepository
	postRepo    repository.ForumPostRepository
	sanitizer   security.ContentSanitizerService
	logger      *slog.Logger

	now   func() time.Time
	newID func() string
}

// NewCommentService はCommentServiceの新しいインスタンスを生成する。
func NewCommentService(
	commentRepo repository.CommentRepository,
	articleRepo repository.ArticleRepository,
	postRepo repository.ForumPostRepository,
	sanitizer security.ContentSanitizerService,
	logger *slog.Logger,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		articleRepo: articleRepo,
		postRepo:    postRepo,
		sanitizer:   sanitizer,
		logger:      logger,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// CommentInput はコメント・返信作成の入力。
type CommentInput struct {
	Author  string
	Content string
}

// ListForArticle は公開済み記事の承認済みコメントを古い順で返す。
func (s *CommentService) ListForArticle(ctx context.Context, articleID string) ([]*model.Comment, error) {
	if err := s.requirePublishedArticle(ctx, articleID); err != nil {
		return nil, err
	}
	return s.commentRepo.ListByParent(ctx, model.ParentTypeArticle, articleID, true)
}

// CreateArticleComment は公開済み記事にコメントを未承認状態で作成する。
func (s *CommentService) CreateArticleComment(ctx context.Context, articleID string, input CommentInput) (*model.Comment, error) {
	if err := s.requirePublishedArticle(ctx, articleID); err != nil {
		return nil, err
	}
	return s.create(ctx, model.ParentTypeArticle, articleID, input, false)
}

// ListReplies は承認済みトピックの返信を古い順で返す。
func (s *CommentService) ListReplies(ctx context.Context, postID string) ([]*model.Comment, error) {
	if err := s.requireApprovedPost(ctx, postID); err != nil {
		return nil, err
	}
	return s.commentRepo.ListByParent(ctx, model.ParentTypeForumPost, postID, true)
}

// CreateReply は承認済みトピックに返信を作成する。
// 返信は自動承認され、トピックの返信数を1増やす。
func (s *CommentService) CreateReply(ctx context.Context, postID string, input CommentInput) (*model.Comment, error) {
	if err := s.requireApprovedPost(ctx, postID); err != nil {
		return nil, err
	}

	reply, err := s.create(ctx, model.ParentTypeForumPost, postID, input, true)
	if err != nil {
		return nil, err
	}

	// 返信自体は保存済みのため、カウント更新の失敗で作成を失敗させない
	if err := s.postRepo.IncrementReplyCount(ctx, postID); err != nil {
		s.logger.Warn("返信数の更新に失敗しました",
			slog.String("post_id", postID),
			slog.String("error", err.Error()),
		)
	}
	return reply, nil
}

// ListByParent は未承認を含む親ドキュメントの全コメントを返す。管理画面用。
func (s *CommentService) ListByParent(ctx context.Context, parentType model.ParentType, parentID string) ([]*model.Comment, error) {
	if !parentType.Valid() {
		return nil, model.NewValidationError("不明な親ドキュメント種別です: " + string(parentType))
	}
	if parentID == "" {
		return nil, model.NewValidationError("親ドキュメントIDは必須です")
	}
	return s.commentRepo.ListByParent(ctx, parentType, parentID, false)
}

// Approve はコメントを承認する。承認済みコメントへの再実行は何もしない。
func (s *CommentService) Approve(ctx context.Context, id string) (*model.Comment, error) {
	comment, err := s.commentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if comment == nil {
		return nil, model.NewCommentNotFoundError(id)
	}
	if comment.IsApproved {
		return comment, nil
	}

	comment.IsApproved = true
	comment.UpdatedAt = s.now()
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, err
	}

	s.logger.Info("コメントを承認しました", slog.String("comment_id", id))
	return comment, nil
}

// Delete はコメントを削除する。
func (s *CommentService) Delete(ctx context.Context, id string) error {
	comment, err := s.commentRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if comment == nil {
		return model.NewCommentNotFoundError(id)
	}
	if err := s.commentRepo.DeleteByID(ctx, id); err != nil {
		return err
	}

	s.logger.Info("コメントを削除しました", slog.String("comment_id", id))
	return nil
}

func (s *CommentService) create(ctx context.Context, parentType model.ParentType, parentID string, input CommentInput, approved bool) (*model.Comment, error) {
	author := strings.TrimSpace(s.sanitizer.SanitizeText(input.Author))
	if err := validateRequired("投稿者名", author, maxAuthorRunes); err != nil {
		return nil, err
	}
	if err := validateRequired("本文", input.Content, maxCommentRunes); err != nil {
		return nil, err
	}

	now := s.now()
	comment := &model.Comment{
		ID:         s.newID(),
		ParentType: parentType,
		ParentID:   parentID,
		Author:     author,
		Content:    s.sanitizer.Sanitize(input.Content),
		IsApproved: approved,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	s.logger.Info("コメントを作成しました",
		slog.String("comment_id", comment.ID),
		slog.String("parent_type", string(parentType)),
		slog.String("parent_id", parentID),
		slog.Bool("is_approved", approved),
	)
	return comment, nil
}

// requirePublishedArticle は親記事が存在し公開済みであることを確認する。
func (s *CommentService) requirePublishedArticle(ctx context.Context, articleID string) error {
	article, err := s.articleRepo.FindByID(ctx, articleID)
	if err != nil {
		return err
	}
	if article == nil || !article.IsPublished {
		return model.NewArticleNotFoundError(articleID)
	}
	return nil
}

// requireApprovedPost は親トピックが存在し承認済みであることを確認する。
func (s *CommentService) requireApprovedPost(ctx context.Context, postID string) error {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil || !post.IsApproved {
		return model.NewForumPostNotFoundError(postID)
	}
	return nil
}
