package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/terrace/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	Logger *slog.Logger

	// ミドルウェア依存
	SessionVerifier   middleware.SessionVerifier
	StatusRecorder    middleware.StatusRecorder
	CORSAllowedOrigin string
	CSRFConfig        middleware.CSRFConfig

	// 認証
	AuthService AuthServiceInterface
	AuthLimiter LoginRateLimiter
	AuthMetrics AuthMetrics
	AuthConfig  AuthHandlerConfig

	// 試合情報
	MatchService MatchServiceInterface

	// コンテンツ
	ArticleService ArticleServiceInterface
	ForumService   ForumServiceInterface
	CommentService CommentServiceInterface

	// MetricsHandler はPrometheusの公開エンドポイント。nilの場合は公開しない。
	MetricsHandler http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → CSRF
//
// CSRFはCORSプリフライトを除外するためCORSより内側に置く。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.StatusRecorder))
	r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthLimiter, deps.AuthMetrics, deps.AuthConfig)
	matchHandler := NewMatchHandler(deps.MatchService)
	newsHandler := NewNewsHandler(deps.ArticleService)
	forumHandler := NewForumHandler(deps.ForumService)
	commentHandler := NewCommentHandler(deps.CommentService)

	r.Get("/health", handleHealthcheck)
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}
	r.Method(http.MethodGet, "/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig))

	// --- 公開ルート ---

	r.Route("/api/admin", func(r chi.Router) {
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.Get("/session", authHandler.Session)

		// --- 管理者認証が必要なルート ---
		r.Group(func(r chi.Router) {
			r.Use(middleware.NewAdminAuthMiddleware(deps.SessionVerifier))

			r.Route("/news", func(r chi.Router) {
				r.Get("/", newsHandler.AdminListArticles)
				r.Post("/", newsHandler.CreateArticle)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", newsHandler.AdminGetArticle)
					r.Put("/", newsHandler.UpdateArticle)
					r.Delete("/", newsHandler.DeleteArticle)
					r.Post("/publish", newsHandler.PublishArticle)
					r.Post("/unpublish", newsHandler.UnpublishArticle)
				})
			})

			r.Route("/forum", func(r chi.Router) {
				r.Get("/", forumHandler.AdminListPosts)

				r.Route("/{id}", func(r chi.Router) {
					r.Delete("/", forumHandler.DeletePost)
					r.Post("/approve", forumHandler.ApprovePost)
					r.Post("/pin", forumHandler.PinPost)
					r.Post("/unpin", forumHandler.UnpinPost)
				})
			})

			r.Route("/comments", func(r chi.Router) {
				r.Get("/", commentHandler.AdminListComments)

				r.Route("/{id}", func(r chi.Router) {
					r.Delete("/", commentHandler.DeleteComment)
					r.Post("/approve", commentHandler.ApproveComment)
				})
			})
		})
	})

	// 試合情報
	r.Route("/api/matches", func(r chi.Router) {
		r.Get("/fixtures", matchHandler.GetFixtures)
		r.Get("/results", matchHandler.GetResults)
		r.Get("/standings", matchHandler.GetStandings)
		r.Get("/highlight", matchHandler.GetHighlight)
	})

	// ニュース
	r.Route("/api/news", func(r chi.Router) {
		r.Get("/", newsHandler.ListArticles)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", newsHandler.GetArticle)
			r.Get("/comments", commentHandler.ListArticleComments)
			r.Post("/comments", commentHandler.CreateArticleComment)
		})
	})

	// フォーラム
	r.Route("/api/forum", func(r chi.Router) {
		r.Get("/", forumHandler.ListPosts)
		r.Post("/", forumHandler.CreatePost)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", forumHandler.GetPost)
			r.Get("/replies", commentHandler.ListReplies)
			r.Post("/replies", commentHandler.CreateReply)
		})
	})

	return r
}

// handleHealthcheck はロードバランサー向けのヘルスチェックエンドポイント。
// GET /health
func handleHealthcheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
