package content

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/hitoshi/terrace/internal/model"
	"github.com/hitoshi/terrace/internal/repository"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockArticleRepo はArticleRepositoryのインメモリ実装。
type mockArticleRepo struct {
	articles map[string]*model.Article
	err      error
}

func newMockArticleRepo() *mockArticleRepo {
	return &mockArticleRepo{articles: make(map[string]*model.Article)}
}

func (m *mockArticleRepo) FindByID(_ context.Context, id string) (*model.Article, error) {
	if m.err != nil {
		return nil, m.err
	}
	a, ok := m.articles[id]
	if !ok {
		return nil, nil
	}
	copied := *a
	return &copied, nil
}

func (m *mockArticleRepo) FindBySourceLink(_ context.Context, sourceLink string) (*model.Article, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, a := range m.articles {
		if a.SourceLink == sourceLink {
			copied := *a
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *mockArticleRepo) List(_ context.Context, opts repository.ArticleListOptions) ([]*model.Article, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []*model.Article
	for _, a := range m.articles {
		if opts.OnlyPublished && !a.IsPublished {
			continue
		}
		if opts.Category != "" && a.Category != opts.Category {
			continue
		}
		copied := *a
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *mockArticleRepo) Create(_ context.Context, article *model.Article) error {
	if m.err != nil {
		return m.err
	}
	copied := *article
	m.articles[article.ID] = &copied
	return nil
}

func (m *mockArticleRepo) Update(_ context.Context, article *model.Article) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.articles[article.ID]; !ok {
		return fmt.Errorf("記事が見つかりません: %s", article.ID)
	}
	copied := *article
	m.articles[article.ID] = &copied
	return nil
}

func (m *mockArticleRepo) DeleteByID(_ context.Context, id string) error {
	if m.err != nil {
		return m.err
	}
	delete(m.articles, id)
	return nil
}

// mockForumRepo はForumPostRepositoryのインメモリ実装。
type mockForumRepo struct {
	posts map[string]*model.ForumPost
	err   error
}

func newMockForumRepo() *mockForumRepo {
	return &mockForumRepo{posts: make(map[string]*model.ForumPost)}
}

func (m *mockForumRepo) FindByID(_ context.Context, id string) (*model.ForumPost, error) {
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.posts[id]
	if !ok {
		return nil, nil
	}
	copied := *p
	return &copied, nil
}

func (m *mockForumRepo) List(_ context.Context, opts repository.ForumPostListOptions) ([]*model.ForumPost, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []*model.ForumPost
	for _, p := range m.posts {
		if opts.OnlyApproved && !p.IsApproved {
			continue
		}
		if opts.Category != "" && p.Category != opts.Category {
			continue
		}
		copied := *p
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsPinned != out[j].IsPinned {
			return out[i].IsPinned
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *mockForumRepo) Create(_ context.Context, post *model.ForumPost) error {
	if m.err != nil {
		return m.err
	}
	copied := *post
	m.posts[post.ID] = &copied
	return nil
}

func (m *mockForumRepo) Update(_ context.Context, post *model.ForumPost) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.posts[post.ID]; !ok {
		return fmt.Errorf("トピックが見つかりません: %s", post.ID)
	}
	copied := *post
	m.posts[post.ID] = &copied
	return nil
}

func (m *mockForumRepo) DeleteByID(_ context.Context, id string) error {
	if m.err != nil {
		return m.err
	}
	delete(m.posts, id)
	return nil
}

func (m *mockForumRepo) IncrementViewCount(_ context.Context, id string) error {
	if m.err != nil {
		return m.err
	}
	if p, ok := m.posts[id]; ok {
		p.ViewCount++
	}
	return nil
}

func (m *mockForumRepo) IncrementReplyCount(_ context.Context, id string) error {
	if m.err != nil {
		return m.err
	}
	p, ok := m.posts[id]
	if !ok {
		return fmt.Errorf("トピックが見つかりません: %s", id)
	}
	p.ReplyCount++
	return nil
}

// mockCommentRepo はCommentRepositoryのインメモリ実装。
type mockCommentRepo struct {
	comments map[string]*model.Comment
	err      error
}

func newMockCommentRepo() *mockCommentRepo {
	return &mockCommentRepo{comments: make(map[string]*model.Comment)}
}

func (m *mockCommentRepo) FindByID(_ context.Context, id string) (*model.Comment, error) {
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.comments[id]
	if !ok {
		return nil, nil
	}
	copied := *c
	return &copied, nil
}

func (m *mockCommentRepo) ListByParent(_ context.Context, parentType model.ParentType, parentID string, onlyApproved bool) ([]*model.Comment, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []*model.Comment
	for _, c := range m.comments {
		if c.ParentType != parentType || c.ParentID != parentID {
			continue
		}
		if onlyApproved && !c.IsApproved {
			continue
		}
		copied := *c
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *mockCommentRepo) Create(_ context.Context, comment *model.Comment) error {
	if m.err != nil {
		return m.err
	}
	copied := *comment
	m.comments[comment.ID] = &copied
	return nil
}

func (m *mockCommentRepo) Update(_ context.Context, comment *model.Comment) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.comments[comment.ID]; !ok {
		return fmt.Errorf("コメントが見つかりません: %s", comment.ID)
	}
	copied := *comment
	m.comments[comment.ID] = &copied
	return nil
}

func (m *mockCommentRepo) DeleteByID(_ context.Context, id string) error {
	if m.err != nil {
		return m.err
	}
	delete(m.comments, id)
	return nil
}

func (m *mockCommentRepo) DeleteByParent(_ context.Context, parentType model.ParentType, parentID string) error {
	if m.err != nil {
		return m.err
	}
	for id, c := range m.comments {
		if c.ParentType == parentType && c.ParentID == parentID {
			delete(m.comments, id)
		}
	}
	return nil
}
