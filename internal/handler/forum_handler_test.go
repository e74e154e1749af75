package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/terrace/internal/content"
	"github.com/hitoshi/terrace/internal/model"
)

// mockForumService はForumServiceInterfaceのモック実装。
type mockForumService struct {
	listApprovedFn func(ctx context.Context, category string, limit, offset int) ([]*model.ForumPost, error)
	listAllFn      func(ctx context.Context, category string, limit, offset int) ([]*model.ForumPost, error)
	getApprovedFn  func(ctx context.Context, id string) (*model.ForumPost, error)
	createFn       func(ctx context.Context, input content.ForumPostInput) (*model.ForumPost, error)
	approveFn      func(ctx context.Context, id string) (*model.ForumPost, error)
	setPinnedFn    func(ctx context.Context, id string, pinned bool) (*model.ForumPost, error)
	deleteFn       func(ctx context.Context, id string) error
}

func (m *mockForumService) ListApproved(ctx context.Context, category string, limit, offset int) ([]*model.ForumPost, error) {
	if m.listApprovedFn != nil {
		return m.listApprovedFn(ctx, category, limit, offset)
	}
	return nil, nil
}

func (m *mockForumService) ListAll(ctx context.Context, category string, limit, offset int) ([]*model.ForumPost, error) {
	if m.listAllFn != nil {
		return m.listAllFn(ctx, category, limit, offset)
	}
	return nil, nil
}

func (m *mockForumService) GetApproved(ctx context.Context, id string) (*model.ForumPost, error) {
	if m.getApprovedFn != nil {
		return m.getApprovedFn(ctx, id)
	}
	return nil, model.NewForumPostNotFoundError(id)
}

func (m *mockForumService) Create(ctx context.Context, input content.ForumPostInput) (*model.ForumPost, error) {
	if m.createFn != nil {
		return m.createFn(ctx, input)
	}
	return nil, nil
}

func (m *mockForumService) Approve(ctx context.Context, id string) (*model.ForumPost, error) {
	if m.approveFn != nil {
		return m.approveFn(ctx, id)
	}
	return nil, nil
}

func (m *mockForumService) SetPinned(ctx context.Context, id string, pinned bool) (*model.ForumPost, error) {
	if m.setPinnedFn != nil {
		return m.setPinnedFn(ctx, id, pinned)
	}
	return nil, nil
}

func (m *mockForumService) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func TestForumHandler_CreatePost(t *testing.T) {
	svc := &mockForumService{
		createFn: func(_ context.Context, input content.ForumPostInput) (*model.ForumPost, error) {
			return &model.ForumPost{ID: "p1", Title: input.Title, IsApproved: false}, nil
		},
	}
	h := NewForumHandler(svc)

	body := bytes.NewBufferString(`{"title":"今節の布陣","content":"本文","author":"赤い悪魔"}`)
	r := httptest.NewRequest(http.MethodPost, "/api/forum", body)
	w := httptest.NewRecorder()
	h.CreatePost(w, r)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	var resp forumPostResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.IsApproved {
		t.Error("作成直後のトピックは未承認であるべき")
	}
}

func TestForumHandler_GetPost_NotFound(t *testing.T) {
	h := NewForumHandler(&mockForumService{})

	r := withChiURLParam(httptest.NewRequest(http.MethodGet, "/api/forum/missing", nil), "id", "missing")
	w := httptest.NewRecorder()
	h.GetPost(w, r)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	if got := parseAPIErrorResponse(t, w)["code"]; got != "FORUM_POST_NOT_FOUND" {
		t.Errorf("code = %q, want FORUM_POST_NOT_FOUND", got)
	}
}

func TestForumHandler_ApprovePost(t *testing.T) {
	svc := &mockForumService{
		approveFn: func(_ context.Context, id string) (*model.ForumPost, error) {
			return &model.ForumPost{ID: id, IsApproved: true}, nil
		},
	}
	h := NewForumHandler(svc)

	r := withChiURLParam(httptest.NewRequest(http.MethodPost, "/api/admin/forum/p1/approve", nil), "id", "p1")
	w := httptest.NewRecorder()
	h.ApprovePost(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp forumPostResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.IsApproved {
		t.Error("IsApproved = false, want true")
	}
}

func TestForumHandler_PinAndUnpin(t *testing.T) {
	var gotPinned []bool
	svc := &mockForumService{
		setPinnedFn: func(_ context.Context, id string, pinned bool) (*model.ForumPost, error) {
			gotPinned = append(gotPinned, pinned)
			return &model.ForumPost{ID: id, IsPinned: pinned}, nil
		},
	}
	h := NewForumHandler(svc)

	r := withChiURLParam(httptest.NewRequest(http.MethodPost, "/api/admin/forum/p1/pin", nil), "id", "p1")
	h.PinPost(httptest.NewRecorder(), r)

	r = withChiURLParam(httptest.NewRequest(http.MethodPost, "/api/admin/forum/p1/unpin", nil), "id", "p1")
	h.UnpinPost(httptest.NewRecorder(), r)

	if len(gotPinned) != 2 || !gotPinned[0] || gotPinned[1] {
		t.Errorf("gotPinned = %v, want [true false]", gotPinned)
	}
}
