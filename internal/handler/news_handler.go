package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/terrace/internal/content"
	"github.com/hitoshi/terrace/internal/model"
)

// 一覧系エンドポイントのページネーション既定値。
const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// ArticleServiceInterface はニュースハンドラーが必要とするサービスインターフェース。
type ArticleServiceInterface interface {
	ListPublished(ctx context.Context, category string, limit, offset int) ([]*model.Article, error)
	ListAll(ctx context.Context, category string, limit, offset int) ([]*model.Article, error)
	GetPublished(ctx context.Context, id string) (*model.Article, error)
	Get(ctx context.Context, id string) (*model.Article, error)
	Create(ctx context.Context, input content.ArticleInput) (*model.Article, error)
	Update(ctx context.Context, id string, update content.ArticleUpdate) (*model.Article, error)
	SetPublished(ctx context.Context, id string, published bool) (*model.Article, error)
	Delete(ctx context.Context, id string) error
}

// NewsHandler はニュース記事のHTTPハンドラー。
// 公開APIと管理APIの両方を持ち、管理側のルートは管理者認証ミドルウェアで保護する。
type NewsHandler struct {
	service ArticleServiceInterface
}

// NewNewsHandler はNewsHandlerを生成する。
func NewNewsHandler(service ArticleServiceInterface) *NewsHandler {
	return &NewsHandler{service: service}
}

// articleRequest は記事作成・更新リクエストのボディ。
// 更新時はnilのフィールドを変更しない。
type articleRequest struct {
	Title    *string `json:"title"`
	Content  *string `json:"content"`
	Excerpt  *string `json:"excerpt"`
	Category *string `json:"category"`
	ImageURL *string `json:"image_url"`
	Author   *string `json:"author"`
}

// articleResponse は記事のAPIレスポンス。
type articleResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Content     string     `json:"content,omitempty"`
	Excerpt     string     `json:"excerpt"`
	Category    string     `json:"category"`
	ImageURL    string     `json:"image_url,omitempty"`
	Author      string     `json:"author"`
	SourceLink  string     `json:"source_link,omitempty"`
	IsPublished bool       `json:"is_published"`
	PublishedAt *time.Time `json:"published_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ListArticles は公開済み記事の一覧を返す。
// GET /api/news?category=&limit=&offset=
func (h *NewsHandler) ListArticles(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	articles, err := h.service.ListPublished(r.Context(), r.URL.Query().Get("category"), limit, offset)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toArticleListResponse(articles, false))
}

// GetArticle は公開済み記事を1件返す。
// GET /api/news/{id}
func (h *NewsHandler) GetArticle(w http.ResponseWriter, r *http.Request) {
	article, err := h.service.GetPublished(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toArticleResponse(article, true))
}

// AdminListArticles は下書きを含む記事一覧を返す。
// GET /api/admin/news?category=&limit=&offset=
func (h *NewsHandler) AdminListArticles(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	articles, err := h.service.ListAll(r.Context(), r.URL.Query().Get("category"), limit, offset)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toArticleListResponse(articles, true))
}

// AdminGetArticle は公開状態に関わらず記事を1件返す。
// GET /api/admin/news/{id}
func (h *NewsHandler) AdminGetArticle(w http.ResponseWriter, r *http.Request) {
	article, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toArticleResponse(article, true))
}

// CreateArticle は記事を下書きとして作成する。
// POST /api/admin/news
func (h *NewsHandler) CreateArticle(w http.ResponseWriter, r *http.Request) {
	var req articleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("リクエストボディの解析に失敗しました"))
		return
	}

	article, err := h.service.Create(r.Context(), content.ArticleInput{
		Title:    stringOrEmpty(req.Title),
		Content:  stringOrEmpty(req.Content),
		Excerpt:  stringOrEmpty(req.Excerpt),
		Category: stringOrEmpty(req.Category),
		ImageURL: stringOrEmpty(req.ImageURL),
		Author:   stringOrEmpty(req.Author),
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toArticleResponse(article, true))
}

// UpdateArticle は記事を部分更新する。
// PUT /api/admin/news/{id}
func (h *NewsHandler) UpdateArticle(w http.ResponseWriter, r *http.Request) {
	var req articleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("リクエストボディの解析に失敗しました"))
		return
	}

	article, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), content.ArticleUpdate{
		Title:    req.Title,
		Content:  req.Content,
		Excerpt:  req.Excerpt,
		Category: req.Category,
		ImageURL: req.ImageURL,
		Author:   req.Author,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toArticleResponse(article, true))
}

// PublishArticle は記事を公開する。
// POST /api/admin/news/{id}/publish
func (h *NewsHandler) PublishArticle(w http.ResponseWriter, r *http.Request) {
	h.setPublished(w, r, true)
}

// UnpublishArticle は記事を非公開に戻す。
// POST /api/admin/news/{id}/unpublish
func (h *NewsHandler) UnpublishArticle(w http.ResponseWriter, r *http.Request) {
	h.setPublished(w, r, false)
}

func (h *NewsHandler) setPublished(w http.ResponseWriter, r *http.Request, published bool) {
	article, err := h.service.SetPublished(r.Context(), chi.URLParam(r, "id"), published)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toArticleResponse(article, true))
}

// DeleteArticle は記事とそのコメントを削除する。
// DELETE /api/admin/news/{id}
func (h *NewsHandler) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// toArticleResponse は記事モデルをAPIレスポンスに変換する。
// includeContentがfalseの場合は本文を省略する（一覧表示用）。
func toArticleResponse(article *model.Article, includeContent bool) articleResponse {
	resp := articleResponse{
		ID:          article.ID,
		Title:       article.Title,
		Excerpt:     article.Excerpt,
		Category:    article.Category,
		ImageURL:    article.ImageURL,
		Author:      article.Author,
		SourceLink:  article.SourceLink,
		IsPublished: article.IsPublished,
		PublishedAt: article.PublishedAt,
		CreatedAt:   article.CreatedAt,
		UpdatedAt:   article.UpdatedAt,
	}
	if includeContent {
		resp.Content = article.Content
	}
	return resp
}

func toArticleListResponse(articles []*model.Article, includeContent bool) []articleResponse {
	out := make([]articleResponse, 0, len(articles))
	for _, a := range articles {
		out = append(out, toArticleResponse(a, includeContent))
	}
	return out
}

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	writeJSON(w, statusCode, apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// writeInternalError は内部エラーのレスポンスを書き込む。
// 内部エラーの詳細は呼び出し側でログに記録し、ユーザーへは渡さない。
func writeInternalError(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeInternalError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeInvalidCredentials, model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case model.ErrCodeValidation:
		return http.StatusBadRequest
	case model.ErrCodeArticleNotFound, model.ErrCodeForumPostNotFound, model.ErrCodeCommentNotFound:
		return http.StatusNotFound
	case model.ErrCodeMatchesUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// parsePagination はlimit/offsetクエリパラメータを解析する。
// 不正な値は既定値にフォールバックする。
func parsePagination(r *http.Request) (limit, offset int) {
	limit = defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}

// stringOrEmpty はnilポインタを空文字列として扱う。
func stringOrEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
