// Package content はニュース記事・フォーラムトピック・コメントの管理機能を提供する。
//
// 投稿系の各サービスは保存前に必ずContentSanitizerServiceを通し、
// サニタイズ済みHTMLのみを永続化する。読み出し側での再サニタイズは行わない。
package content

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/hitoshi/terrace/internal/model"
	"github.com/hitoshi/terrace/internal/repository"
	"github.com/hitoshi/terrace/internal/security"
)

const (
	maxTitleRunes   = 200
	maxContentRunes = 50000
	maxAuthorRunes  = 50

	// excerptRunes は抜粋の最大文字数。超過分は切り詰めて「…」を付ける。
	excerptRunes = 200

	// defaultAuthor は投稿者名が空のときに使う表示名。
	defaultAuthor = "編集部"
)

// validArticleCategories は記事カテゴリの有効値。
var validArticleCategories = map[string]bool{
	string(model.ArticleCategoryMatchReport): true,
	string(model.ArticleCategoryTransfer):    true,
	string(model.ArticleCategoryClubNews):    true,
	string(model.ArticleCategoryOpinion):     true,
}

// ArticleService はニュース記事の管理サービス。
type ArticleService struct {
	articleRepo repository.ArticleRepository
	commentRepo repository.CommentRepository
	sanitizer   security.ContentSanitizerService
	logger      *slog.Logger

	// now / newID はテストで差し替えるためのフック。
	now   func() time.Time
	newID func() string
}

// NewArticleService はArticleServiceの新しいインスタンスを生成する。
func NewArticleService(
	articleRepo repository.ArticleRepository,
	commentRepo repository.CommentRepository,
	sanitizer security.ContentSanitizerService,
	logger *slog.Logger,
) *ArticleService {
	return &ArticleService{
		articleRepo: articleRepo,
		commentRepo: commentRepo,
		sanitizer:   sanitizer,
		logger:      logger,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// ArticleInput は記事作成の入力。
type ArticleInput struct {
	Title    string
	Content  string
	Excerpt  string
	Category string
	ImageURL string
	Author   string
}

// ArticleUpdate は記事更新の入力。nilのフィールドは変更しない。
type ArticleUpdate struct {
	Title    *string
	Content  *string
	Excerpt  *string
	Category *string
	ImageURL *string
	Author   *string
}

// ListPublished は公開済み記事を新しい順で返す。
func (s *ArticleService) ListPublished(ctx context.Context, category string, limit, offset int) ([]*model.Article, error) {
	if category != "" && !validArticleCategories[category] {
		return nil, model.NewValidationError("不明な記事カテゴリです: " + category)
	}
	return s.articleRepo.List(ctx, repository.ArticleListOptions{
		OnlyPublished: true,
		Category:      category,
		Limit:         limit,
		Offset:        offset,
	})
}

// ListAll は下書きを含む全記事を新しい順で返す。管理画面用。
func (s *ArticleService) ListAll(ctx context.Context, category string, limit, offset int) ([]*model.Article, error) {
	if category != "" && !validArticleCategories[category] {
		return nil, model.NewValidationError("不明な記事カテゴリです: " + category)
	}
	return s.articleRepo.List(ctx, repository.ArticleListOptions{
		Category: category,
		Limit:    limit,
		Offset:   offset,
	})
}

// GetPublished は公開済み記事を1件取得する。
// 存在しない記事と未公開記事は区別せず、いずれもArticleNotFoundを返す。
func (s *ArticleService) GetPublished(ctx context.Context, id string) (*model.Article, error) {
	article, err := s.articleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if article == nil || !article.IsPublished {
		return nil, model.NewArticleNotFoundError(id)
	}
	return article, nil
}

// Get は公開状態に関わらず記事を1件取得する。管理画面用。
func (s *ArticleService) Get(ctx context.Context, id string) (*model.Article, error) {
	article, err := s.articleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if article == nil {
		return nil, model.NewArticleNotFoundError(id)
	}
	return article, nil
}

// Create は記事を下書きとして作成する。公開はSetPublishedで行う。
func (s *ArticleService) Create(ctx context.Context, input ArticleInput) (*model.Article, error) {
	title := strings.TrimSpace(s.sanitizer.SanitizeText(input.Title))
	if err := validateRequired("タイトル", title, maxTitleRunes); err != nil {
		return nil, err
	}
	if err := validateRequired("本文", input.Content, maxContentRunes); err != nil {
		return nil, err
	}
	category := input.Category
	if category == "" {
		category = string(model.ArticleCategoryClubNews)
	}
	if !validArticleCategories[category] {
		return nil, model.NewValidationError("不明な記事カテゴリです: " + category)
	}

	content := s.sanitizer.Sanitize(input.Content)
	author := strings.TrimSpace(s.sanitizer.SanitizeText(input.Author))
	if author == "" {
		author = defaultAuthor
	}
	excerpt := strings.TrimSpace(s.sanitizer.SanitizeText(input.Excerpt))
	if excerpt == "" {
		excerpt = truncateRunes(strings.TrimSpace(s.sanitizer.SanitizeText(input.Content)), excerptRunes)
	}

	now := s.now()
	article := &model.Article{
		ID:          s.newID(),
		Title:       title,
		Content:     content,
		Excerpt:     excerpt,
		Category:    category,
		ImageURL:    input.ImageURL,
		Author:      author,
		IsPublished: false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.articleRepo.Create(ctx, article); err != nil {
		return nil, err
	}

	s.logger.Info("記事を作成しました",
		slog.String("article_id", article.ID),
		slog.String("category", article.Category),
	)
	return article, nil
}

// Update は記事を部分更新する。
func (s *ArticleService) Update(ctx context.Context, id string, update ArticleUpdate) (*model.Article, error) {
	article, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.Title != nil {
		title := strings.TrimSpace(s.sanitizer.SanitizeText(*update.Title))
		if err := validateRequired("タイトル", title, maxTitleRunes); err != nil {
			return nil, err
		}
		article.Title = title
	}
	if update.Content != nil {
		if err := validateRequired("本文", *update.Content, maxContentRunes); err != nil {
			return nil, err
		}
		article.Content = s.sanitizer.Sanitize(*update.Content)
	}
	if update.Excerpt != nil {
		article.Excerpt = truncateRunes(strings.TrimSpace(s.sanitizer.SanitizeText(*update.Excerpt)), excerptRunes)
	}
	if update.Category != nil {
		if !validArticleCategories[*update.Category] {
			return nil, model.NewValidationError("不明な記事カテゴリです: " + *update.Category)
		}
		article.Category = *update.Category
	}
	if update.ImageURL != nil {
		article.ImageURL = *update.ImageURL
	}
	if update.Author != nil {
		author := strings.TrimSpace(s.sanitizer.SanitizeText(*update.Author))
		if author == "" {
			author = defaultAuthor
		}
		article.Author = author
	}

	article.UpdatedAt = s.now()
	if err := s.articleRepo.Update(ctx, article); err != nil {
		return nil, err
	}
	return article, nil
}

// SetPublished は記事の公開状態を切り替える。
// 初回公開時にPublishedAtを記録する。再公開では元の公開日時を維持する。
func (s *ArticleService) SetPublished(ctx context.Context, id string, published bool) (*model.Article, error) {
	article, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	article.IsPublished = published
	if published && article.PublishedAt == nil {
		article.PublishedAt = &now
	}
	article.UpdatedAt = now

	if err := s.articleRepo.Update(ctx, article); err != nil {
		return nil, err
	}

	s.logger.Info("記事の公開状態を変更しました",
		slog.String("article_id", article.ID),
		slog.Bool("is_published", published),
	)
	return article, nil
}

// Delete は記事とその記事に付いた全コメントを削除する。
func (s *ArticleService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.commentRepo.DeleteByParent(ctx, model.ParentTypeArticle, id); err != nil {
		return err
	}
	if err := s.articleRepo.DeleteByID(ctx, id); err != nil {
		return err
	}

	s.logger.Info("記事を削除しました", slog.String("article_id", id))
	return nil
}

// validateRequired はフィールドが空でなく文字数上限以内であることを検証する。
func validateRequired(field, value string, maxRunes int) error {
	if strings.TrimSpace(value) == "" {
		return model.NewValidationError(field + "は必須です")
	}
	if utf8.RuneCountInString(value) > maxRunes {
		return model.NewValidationError(field + "が長すぎます")
	}
	return nil
}

// truncateRunes は文字列をmaxRunes文字に切り詰める。切り詰めた場合は末尾に「…」を付ける。
func truncateRunes(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes]) + "…"
}
