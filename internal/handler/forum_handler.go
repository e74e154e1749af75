package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/terrace/internal/content"
	"github.com/hitoshi/terrace/internal/model"
)

// ForumServiceInterface はフォーラムハンドラーが必要とするサービスインターフェース。
type ForumServiceInterface interface {
	ListApproved(ctx context.Context, category string, limit, offset int) ([]*model.ForumPost, error)
	ListAll(ctx context.Context, category string, limit, offset int) ([]*model.ForumPost, error)
	GetApproved(ctx context.Context, id string) (*model.ForumPost, error)
	Create(ctx context.Context, input content.ForumPostInput) (*model.ForumPost, error)
	Approve(ctx context.Context, id string) (*model.ForumPost, error)
	SetPinned(ctx context.Context, id string, pinned bool) (*model.ForumPost, error)
	Delete(ctx context.Context, id string) error
}

// ForumHandler はフォーラムトピックのHTTPハンドラー。
type ForumHandler struct {
	service ForumServiceInterface
}

// NewForumHandler はForumHandlerを生成する。
func NewForumHandler(service ForumServiceInterface) *ForumHandler {
	return &ForumHandler{service: service}
}

// forumPostRequest はトピック作成リクエストのボディ。
type forumPostRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category"`
	Author   string `json:"author"`
}

// forumPostResponse はトピックのAPIレスポンス。
type forumPostResponse struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Category   string    `json:"category"`
	Author     string    `json:"author"`
	IsApproved bool      `json:"is_approved"`
	IsPinned   bool      `json:"is_pinned"`
	ViewCount  int       `json:"view_count"`
	ReplyCount int       `json:"reply_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ListPosts は承認済みトピックの一覧を返す。
// GET /api/forum?category=&limit=&offset=
func (h *ForumHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	posts, err := h.service.ListApproved(r.Context(), r.URL.Query().Get("category"), limit, offset)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toForumPostListResponse(posts))
}

// GetPost は承認済みトピックを1件返し、閲覧数を1増やす。
// GET /api/forum/{id}
func (h *ForumHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.service.GetApproved(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toForumPostResponse(post))
}

// CreatePost はトピックを未承認状態で作成する。
// POST /api/forum
//
// 承認待ちのトピックは公開一覧に現れない。レスポンスの201は
// 受理を意味し、掲載を保証しない。
func (h *ForumHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req forumPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("リクエストボディの解析に失敗しました"))
		return
	}

	post, err := h.service.Create(r.Context(), content.ForumPostInput{
		Title:    req.Title,
		Content:  req.Content,
		Category: req.Category,
		Author:   req.Author,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toForumPostResponse(post))
}

// AdminListPosts は未承認を含むトピック一覧を返す。
// GET /api/admin/forum?category=&limit=&offset=
func (h *ForumHandler) AdminListPosts(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	posts, err := h.service.ListAll(r.Context(), r.URL.Query().Get("category"), limit, offset)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toForumPostListResponse(posts))
}

// ApprovePost はトピックを承認する。
// POST /api/admin/forum/{id}/approve
func (h *ForumHandler) ApprovePost(w http.ResponseWriter, r *http.Request) {
	post, err := h.service.Approve(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toForumPostResponse(post))
}

// PinPost はトピックをピン留めする。
// POST /api/admin/forum/{id}/pin
func (h *ForumHandler) PinPost(w http.ResponseWriter, r *http.Request) {
	h.setPinned(w, r, true)
}

// UnpinPost はトピックのピン留めを外す。
// POST /api/admin/forum/{id}/unpin
func (h *ForumHandler) UnpinPost(w http.ResponseWriter, r *http.Request) {
	h.setPinned(w, r, false)
}

func (h *ForumHandler) setPinned(w http.ResponseWriter, r *http.Request, pinned bool) {
	post, err := h.service.SetPinned(r.Context(), chi.URLParam(r, "id"), pinned)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toForumPostResponse(post))
}

// DeletePost はトピックとその返信を削除する。
// DELETE /api/admin/forum/{id}
func (h *ForumHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toForumPostResponse(post *model.ForumPost) forumPostResponse {
	return forumPostResponse{
		ID:         post.ID,
		Title:      post.Title,
		Content:    post.Content,
		Category:   post.Category,
		Author:     post.Author,
		IsApproved: post.IsApproved,
		IsPinned:   post.IsPinned,
		ViewCount:  post.ViewCount,
		ReplyCount: post.ReplyCount,
		CreatedAt:  post.CreatedAt,
		UpdatedAt:  post.UpdatedAt,
	}
}

func toForumPostListResponse(posts []*model.ForumPost) []forumPostResponse {
	out := make([]forumPostResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, toForumPostResponse(p))
	}
	return out
}
