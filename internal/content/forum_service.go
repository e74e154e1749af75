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

// validForumCategories はフォーラムカテゴリの有効値。
var validForumCategories = map[string]bool{
	"general":   true,
	"matches":   true,
	"transfers": true,
	"history":   true,
}

// ForumService はフォーラムトピックの管理サービス。
//
// トピックは承認制（作成時は未承認）で、承認されるまで公開一覧・公開取得には
// 現れない。承認・ピン留め・削除は管理者操作。
type ForumService struct {
	postRepo    repository.ForumPostRepository
	commentRepo repository.CommentRepository
	sanitizer   security.ContentSanitizerService
	logger      *slog.Logger

	now   func() time.Time
	newID func() string
}

// NewForumService はForumServiceの新しいインスタンスを生成する。
func NewForumService(
	postRepo repository.ForumPostRepository,
	commentRepo repository.CommentRepository,
	sanitizer security.ContentSanitizerService,
	logger *slog.Logger,
) *ForumService {
	return &ForumService{
		postRepo:    postRepo,
		commentRepo: commentRepo,
		sanitizer:   sanitizer,
		logger:      logger,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// ForumPostInput はトピック作成の入力。
type ForumPostInput struct {
	Title    string
	Content  string
	Category string
	Author   string
}

// ListApproved は承認済みトピックをピン留め優先・新しい順で返す。
func (s *ForumService) ListApproved(ctx context.Context, category string, limit, offset int) ([]*model.ForumPost, error) {
	if category != "" && !validForumCategories[category] {
		return nil, model.NewValidationError("不明なフォーラムカテゴリです: " + category)
	}
	return s.postRepo.List(ctx, repository.ForumPostListOptions{
		OnlyApproved: true,
		Category:     category,
		Limit:        limit,
		Offset:       offset,
	})
}

// ListAll は未承認を含む全トピックを返す。管理画面用。
func (s *ForumService) ListAll(ctx context.Context, category string, limit, offset int) ([]*model.ForumPost, error) {
	if category != "" && !validForumCategories[category] {
		return nil, model.NewValidationError("不明なフォーラムカテゴリです: " + category)
	}
	return s.postRepo.List(ctx, repository.ForumPostListOptions{
		Category: category,
		Limit:    limit,
		Offset:   offset,
	})
}

// GetApproved は承認済みトピックを1件取得し、閲覧数を1増やす。
// 存在しないトピックと未承認トピックは区別せず、いずれもForumPostNotFoundを返す。
func (s *ForumService) GetApproved(ctx context.Context, id string) (*model.ForumPost, error) {
	post, err := s.postRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post == nil || !post.IsApproved {
		return nil, model.NewForumPostNotFoundError(id)
	}

	// 閲覧数の更新失敗で取得自体は失敗させない
	if err := s.postRepo.IncrementViewCount(ctx, id); err != nil {
		s.logger.Warn("閲覧数の更新に失敗しました",
			slog.String("post_id", id),
			slog.String("error", err.Error()),
		)
	} else {
		post.ViewCount++
	}
	return post, nil
}

// Get は承認状態に関わらずトピックを1件取得する。管理画面用。
func (s *ForumService) Get(ctx context.Context, id string) (*model.ForumPost, error) {
	post, err := s.postRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, model.NewForumPostNotFoundError(id)
	}
	return post, nil
}

// Create はトピックを未承認状態で作成する。
func (s *ForumService) Create(ctx context.Context, input ForumPostInput) (*model.ForumPost, error) {
	title := strings.TrimSpace(s.sanitizer.SanitizeText(input.Title))
	if err := validateRequired("タイトル", title, maxTitleRunes); err != nil {
		return nil, err
	}
	if err := validateRequired("本文", input.Content, maxContentRunes); err != nil {
		return nil, err
	}
	author := strings.TrimSpace(s.sanitizer.SanitizeText(input.Author))
	if err := validateRequired("投稿者名", author, maxAuthorRunes); err != nil {
		return nil, err
	}
	category := input.Category
	if category == "" {
		category = "general"
	}
	if !validForumCategories[category] {
		return nil, model.NewValidationError("不明なフォーラムカテゴリです: " + category)
	}

	now := s.now()
	post := &model.ForumPost{
		ID:         s.newID(),
		Title:      title,
		Content:    s.sanitizer.Sanitize(input.Content),
		Category:   category,
		Author:     author,
		IsApproved: false,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	s.logger.Info("トピックを作成しました",
		slog.String("post_id", post.ID),
		slog.String("category", post.Category),
	)
	return post, nil
}

// Approve はトピックを承認する。承認済みトピックへの再実行は何もしない。
func (s *ForumService) Approve(ctx context.Context, id string) (*model.ForumPost, error) {
	post, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.IsApproved {
		return post, nil
	}

	post.IsApproved = true
	post.UpdatedAt = s.now()
	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}

	s.logger.Info("トピックを承認しました", slog.String("post_id", id))
	return post, nil
}

// SetPinned はトピックのピン留め状態を切り替える。
func (s *ForumService) SetPinned(ctx context.Context, id string, pinned bool) (*model.ForumPost, error) {
	post, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	post.IsPinned = pinned
	post.UpdatedAt = s.now()
	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}

	s.logger.Info("トピックのピン留め状態を変更しました",
		slog.String("post_id", id),
		slog.Bool("is_pinned", pinned),
	)
	return post, nil
}

// Delete はトピックとその返信を全て削除する。
func (s *ForumService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.commentRepo.DeleteByParent(ctx, model.ParentTypeForumPost, id); err != nil {
		return err
	}
	if err := s.postRepo.DeleteByID(ctx, id); err != nil {
		return err
	}

	s.logger.Info("トピックを削除しました", slog.String("post_id", id))
	return nil
}
