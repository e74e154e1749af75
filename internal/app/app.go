// Package app はアプリケーションの起動と依存関係のワイヤリングを提供する。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/terrace/internal/auth"
	"github.com/hitoshi/terrace/internal/config"
	"github.com/hitoshi/terrace/internal/content"
	"github.com/hitoshi/terrace/internal/database"
	"github.com/hitoshi/terrace/internal/football"
	"github.com/hitoshi/terrace/internal/handler"
	"github.com/hitoshi/terrace/internal/logger"
	"github.com/hitoshi/terrace/internal/metrics"
	"github.com/hitoshi/terrace/internal/middleware"
	"github.com/hitoshi/terrace/internal/ratelimit"
	"github.com/hitoshi/terrace/internal/repository"
	"github.com/hitoshi/terrace/internal/security"
	"github.com/hitoshi/terrace/internal/worker/newsimport"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 3. リポジトリの初期化
	articleRepo := repository.NewPostgresArticleRepo(db)
	forumRepo := repository.NewPostgresForumRepo(db)
	commentRepo := repository.NewPostgresCommentRepo(db)

	// 4. セキュリティ・認証サービスの初期化
	sanitizer := security.NewContentSanitizer()
	authService := auth.NewService(auth.ServiceConfig{
		SessionSecret: cfg.SessionSecret,
		AdminUsername: cfg.AdminUsername,
		AdminPassword: cfg.AdminPassword,
	})

	loginLimiter := ratelimit.NewLimiter(ratelimit.Config{
		MaxAttempts:   cfg.LoginMaxAttempts,
		Window:        cfg.LoginWindow,
		SweepInterval: cfg.LoginSweepInterval,
	})
	defer loginLimiter.Stop()

	// 5. ドメインサービスの初期化
	footballClient := football.NewClient(
		&http.Client{Timeout: cfg.FootballAPITimeout},
		slog.Default(),
		football.ClientConfig{
			APIKey:        cfg.FootballAPIKey,
			TeamID:        cfg.TeamID,
			CompetitionID: cfg.CompetitionID,
			QuotaPerMin:   cfg.FootballQuotaPerMin,
		},
	)
	matchService := football.NewService(footballClient, cfg.MatchCacheTTL, slog.Default(), collector)

	articleService := content.NewArticleService(articleRepo, commentRepo, sanitizer, slog.Default())
	forumService := content.NewForumService(forumRepo, commentRepo, sanitizer, slog.Default())
	commentService := content.NewCommentService(commentRepo, articleRepo, forumRepo, sanitizer, slog.Default())

	// 6. ルーターの構築
	router := handler.NewRouter(&handler.RouterDeps{
		Logger:            slog.Default(),
		SessionVerifier:   authService,
		StatusRecorder:    collector,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		CSRFConfig:        middleware.CSRFConfig{CookieSecure: cfg.CookieSecure},

		AuthService: authService,
		AuthLimiter: loginLimiter,
		AuthMetrics: collector,
		AuthConfig: handler.AuthHandlerConfig{
			CookieDomain:  cfg.CookieDomain,
			CookieSecure:  cfg.CookieSecure,
			SessionMaxAge: cfg.SessionMaxAge,
			FailureDelay:  cfg.LoginFailureDelay,
		},

		MatchService:   matchService,
		ArticleService: articleService,
		ForumService:   forumService,
		CommentService: commentService,

		MetricsHandler: metrics.Handler(registry),
	})

	// 7. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はニュース取り込みワーカーモードで起動する。
// DB接続を開き、RSSフィードの定期取り込みジョブを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	if cfg.NewsFeedURL == "" {
		return fmt.Errorf("NEWS_FEED_URL is not set: worker mode requires a feed URL")
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established (worker)")

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	articleRepo := repository.NewPostgresArticleRepo(db)
	sanitizer := security.NewContentSanitizer()
	ssrfGuard := security.NewSSRFGuard()

	importer := newsimport.NewImporter(
		articleRepo, sanitizer, ssrfGuard,
		slog.Default(), collector,
		newsimport.Config{
			FeedURL:      cfg.NewsFeedURL,
			Interval:     cfg.NewsImportInterval,
			FetchTimeout: cfg.NewsFetchTimeout,
			MaxFetchSize: cfg.NewsFetchMaxSize,
		},
	)

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down worker...")
		cancel()
	}()

	slog.Info("worker starting",
		slog.String("feed_url", cfg.NewsFeedURL),
		slog.Duration("import_interval", cfg.NewsImportInterval),
	)

	// 取り込みジョブをメインgoroutineで実行（ブロッキング）
	importer.Start(ctx)

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
