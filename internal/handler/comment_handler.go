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

// CommentServiceInterface はコメントハンドラーが必要とするサービスインターフェース。
type CommentServiceInterface interface {
	ListForArticle(ctx context.Context, articleID string) ([]*model.Comment, error)
	CreateArticleComment(ctx context.Context, articleID string, input content.CommentInput) (*model.Comment, error)
	ListReplies(ctx context.Context, postID string) ([]*model.Comment, error)
	CreateReply(ctx context.Context, postID string, input content.CommentInput) (*model.Comment, error)
	ListByParent(ctx context.Context, parentType model.ParentType, parentID string) ([]*model.Comment, error)
	Approve(ctx context.Context, id string) (*model.Comment, error)
	Delete(ctx context.Context, id string) error
}

// CommentHandler は記事コメント・フォーラム返信のHTTPハンドラー。
type CommentHandler struct {
	service CommentServiceInterface
}

// NewCommentHandler はCommentHandlerを生成する。
func NewCommentHandler(service CommentServiceInterface) *CommentHandler {
	return &CommentHandler{service: service}
}

// commentRequest はコメント・返信作成リクエストのボディ。
type commentRequest struct {
	Author  string `json:"author"`
	Content string `json:"content"`
}

// commentResponse はコメントのAPIレスポンス。
type commentResponse struct {
	ID         string    `json:"id"`
	ParentType string    `json:"parent_type"`
	ParentID   string    `json:"parent_id"`
	Author     string    `json:"author"`
	Content    string    `json:"content"`
	IsApproved bool      `json:"is_approved"`
	CreatedAt  time.Time `json:"created_at"`
}

// ListArticleComments は記事の承認済みコメントを古い順で返す。
// GET /api/news/{id}/comments
func (h *CommentHandler) ListArticleComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.service.ListForArticle(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCommentListResponse(comments))
}

// CreateArticleComment は記事にコメントを未承認状態で作成する。
// POST /api/news/{id}/comments
func (h *CommentHandler) CreateArticleComment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("リクエストボディの解析に失敗しました"))
		return
	}

	comment, err := h.service.CreateArticleComment(r.Context(), chi.URLParam(r, "id"), content.CommentInput{
		Author:  req.Author,
		Content: req.Content,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCommentResponse(comment))
}

// ListReplies はトピックの返信を古い順で返す。
// GET /api/forum/{id}/replies
func (h *CommentHandler) ListReplies(w http.ResponseWriter, r *http.Request) {
	replies, err := h.service.ListReplies(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCommentListResponse(replies))
}

// CreateReply はトピックに返信を作成する。返信は自動承認される。
// POST /api/forum/{id}/replies
func (h *CommentHandler) CreateReply(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("リクエストボディの解析に失敗しました"))
		return
	}

	reply, err := h.service.CreateReply(r.Context(), chi.URLParam(r, "id"), content.CommentInput{
		Author:  req.Author,
		Content: req.Content,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCommentResponse(reply))
}

// AdminListComments は承認待ちを含む親ドキュメントの全コメントを返す。
// GET /api/admin/comments?parent_type=&parent_id=
func (h *CommentHandler) AdminListComments(w http.ResponseWriter, r *http.Request) {
	parentType := model.ParentType(r.URL.Query().Get("parent_type"))
	parentID := r.URL.Query().Get("parent_id")

	comments, err := h.service.ListByParent(r.Context(), parentType, parentID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCommentListResponse(comments))
}

// ApproveComment はコメントを承認する。
// POST /api/admin/comments/{id}/approve
func (h *CommentHandler) ApproveComment(w http.ResponseWriter, r *http.Request) {
	comment, err := h.service.Approve(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCommentResponse(comment))
}

// DeleteComment はコメントを削除する。
// DELETE /api/admin/comments/{id}
func (h *CommentHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toCommentResponse(comment *model.Comment) commentResponse {
	return commentResponse{
		ID:         comment.ID,
		ParentType: string(comment.ParentType),
		ParentID:   comment.ParentID,
		Author:     comment.Author,
		Content:    comment.Content,
		IsApproved: comment.IsApproved,
		CreatedAt:  comment.CreatedAt,
	}
}

func toCommentListResponse(comments []*model.Comment) []commentResponse {
	out := make([]commentResponse, 0, len(comments))
	for _, c := range comments {
		out = append(out, toCommentResponse(c))
	}
	return out
}
