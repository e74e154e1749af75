// Package newsimport はクラブ公式フィードからのニュース記事取り込みワーカーを提供する。
//
// 設定されたRSS/AtomフィードをSSRF防止付きクライアントで定期フェッチし、
// 新着記事をサニタイズ済みの下書き記事として保存する。公開の判断は
// 管理者が行うため、取り込んだ記事を自動公開することはない。
package newsimport

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/gofeed"

	"github.com/hitoshi/terrace/internal/model"
	"github.com/hitoshi/terrace/internal/repository"
	"github.com/hitoshi/terrace/internal/security"
)

// maxConsecutiveErrors はバックオフに入るまでの連続失敗回数。
const maxConsecutiveErrors = 3

// Config はニュース取り込みワーカーの設定パラメータ。
// 環境変数から設定可能。
type Config struct {
	// FeedURL は取り込み元フィードのURL。空の場合はワーカーを起動しない。
	FeedURL string
	// Interval は取り込みサイクルの実行間隔（デフォルト: 30分）。
	Interval time.Duration
	// FetchTimeout はフィード取得のHTTPタイムアウト（デフォルト: 10秒）。
	FetchTimeout time.Duration
	// MaxFetchSize はフィードレスポンスの最大サイズ（デフォルト: 5MiB）。
	MaxFetchSize int64
	// DefaultAuthor は取り込み記事に設定する著者名。
	DefaultAuthor string
}

// Metrics はニュース取り込みワーカーが記録する計測の抽象。
type Metrics interface {
	RecordNewsImported(count int)
	RecordNewsImportFailure()
	RecordImportLatency(duration time.Duration)
}

type nopMetrics struct{}

func (nopMetrics) RecordNewsImported(int)           {}
func (nopMetrics) RecordNewsImportFailure()         {}
func (nopMetrics) RecordImportLatency(time.Duration) {}

// Importer はニュース記事の定期取り込みジョブ。
// 元記事URLで重複を排除し、新着のみを下書きとして保存する。
type Importer struct {
	articleRepo repository.ArticleRepository
	sanitizer   security.ContentSanitizerService
	ssrfGuard   security.SSRFGuardService
	logger      *slog.Logger
	metrics     Metrics
	config      Config

	consecutiveErrors int
	backoffUntil      time.Time

	// httpClient はテストで差し替える。nilの場合はssrfGuardから生成する。
	httpClient *http.Client
	now        func() time.Time
}

// NewImporter はImporterの新しいインスタンスを生成する。
// metricsがnilの場合は計測を行わない。
func NewImporter(
	articleRepo repository.ArticleRepository,
	sanitizer security.ContentSanitizerService,
	ssrfGuard security.SSRFGuardService,
	logger *slog.Logger,
	metrics Metrics,
	config Config,
) *Importer {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if config.DefaultAuthor == "" {
		config.DefaultAuthor = "編集部"
	}
	return &Importer{
		articleRepo: articleRepo,
		sanitizer:   sanitizer,
		ssrfGuard:   ssrfGuard,
		logger:      logger,
		metrics:     metrics,
		config:      config,
		now:         time.Now,
	}
}

// Start は取り込みジョブをティッカーで定期実行する。
// コンテキストがキャンセルされるまで実行を継続する。
func (im *Importer) Start(ctx context.Context) {
	ticker := time.NewTicker(im.config.Interval)
	defer ticker.Stop()

	im.logger.Info("ニュース取り込みジョブを開始しました",
		slog.String("feed_url", im.config.FeedURL),
		slog.Duration("interval", im.config.Interval),
	)

	// 起動直後に1回実行
	if err := im.RunOnce(ctx); err != nil {
		im.logger.Error("ニュース取り込みサイクルの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	for {
		select {
		case <-ctx.Done():
			im.logger.Info("ニュース取り込みジョブを停止しました")
			return
		case <-ticker.C:
			if err := im.RunOnce(ctx); err != nil {
				im.logger.Error("ニュース取り込みサイクルの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// RunOnce は1回の取り込みサイクルを実行する。
// フィードをフェッチし、未取り込みの記事を下書きとして保存する。
func (im *Importer) RunOnce(ctx context.Context) error {
	start := im.now()

	// バックオフ中の場合はスキップ
	if !im.backoffUntil.IsZero() && im.now().Before(im.backoffUntil) {
		im.logger.Info("ニュース取り込みジョブはバックオフ中のためスキップします",
			slog.Time("backoff_until", im.backoffUntil),
		)
		return nil
	}

	feed, err := im.fetchFeed(ctx)
	if err != nil {
		im.recordFailure()
		return err
	}

	imported := 0
	for _, item := range feed.Items {
		if item == nil || item.Link == "" {
			continue
		}

		created, err := im.importItem(ctx, item)
		if err != nil {
			im.logger.Error("記事の取り込みに失敗しました",
				slog.String("link", item.Link),
				slog.String("error", err.Error()),
			)
			continue
		}
		if created {
			imported++
		}
	}

	im.consecutiveErrors = 0
	im.backoffUntil = time.Time{}

	duration := im.now().Sub(start)
	im.metrics.RecordNewsImported(imported)
	im.metrics.RecordImportLatency(duration)

	im.logger.Info("ニュース取り込みサイクルが完了しました",
		slog.Int("items_total", len(feed.Items)),
		slog.Int("items_imported", imported),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// fetchFeed はフィードをフェッチしてパースする。
func (im *Importer) fetchFeed(ctx context.Context) (*gofeed.Feed, error) {
	// SSRF検証
	if err := im.ssrfGuard.ValidateURL(im.config.FeedURL); err != nil {
		return nil, fmt.Errorf("フィードURLのSSRF検証に失敗しました: %w", err)
	}

	client := im.httpClient
	if client == nil {
		client = im.ssrfGuard.NewSafeClient(im.config.FetchTimeout, im.config.MaxFetchSize)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, im.config.FeedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("リクエスト作成に失敗しました: %w", err)
	}
	req.Header.Set("User-Agent", "Terrace/1.0 News Importer")
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml, */*")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("フィードの取得に失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("フィードがステータス %d を返しました", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, im.config.MaxFetchSize))
	if err != nil {
		return nil, fmt.Errorf("フィードの読み取りに失敗しました: %w", err)
	}

	parser := gofeed.NewParser()
	feed, err := parser.ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("フィードのパースに失敗しました: %w", err)
	}

	return feed, nil
}

// importItem はフィードの1記事を取り込む。
// すでに取り込み済みの場合は何もせずfalseを返す。
func (im *Importer) importItem(ctx context.Context, item *gofeed.Item) (bool, error) {
	existing, err := im.articleRepo.FindBySourceLink(ctx, item.Link)
	if err != nil {
		return false, fmt.Errorf("重複確認に失敗しました: %w", err)
	}
	if existing != nil {
		return false, nil
	}

	rawContent := item.Content
	if rawContent == "" {
		rawContent = item.Description
	}
	content := im.sanitizer.Sanitize(rawContent)

	var publishedAt *time.Time
	if item.PublishedParsed != nil {
		t := *item.PublishedParsed
		publishedAt = &t
	} else if item.UpdatedParsed != nil {
		t := *item.UpdatedParsed
		publishedAt = &t
	}

	author := im.config.DefaultAuthor
	if item.Author != nil && item.Author.Name != "" {
		author = im.sanitizer.SanitizeText(item.Author.Name)
	}

	var imageURL string
	if item.Image != nil {
		imageURL = item.Image.URL
	}

	now := im.now()
	article := &model.Article{
		ID:          uuid.New().String(),
		Title:       im.sanitizer.SanitizeText(item.Title),
		Content:     content,
		Excerpt:     Excerpt(content, excerptMaxRunes),
		Category:    string(model.ArticleCategoryClubNews),
		ImageURL:    imageURL,
		Author:      author,
		SourceLink:  item.Link,
		IsPublished: false,
		PublishedAt: publishedAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := im.articleRepo.Create(ctx, article); err != nil {
		return false, fmt.Errorf("記事の保存に失敗しました: %w", err)
	}

	im.logger.Info("記事を下書きとして取り込みました",
		slog.String("article_id", article.ID),
		slog.String("source_link", article.SourceLink),
	)
	return true, nil
}

// recordFailure は連続失敗を記録し、閾値を超えたらバックオフに入る。
func (im *Importer) recordFailure() {
	im.metrics.RecordNewsImportFailure()
	im.consecutiveErrors++
	if im.consecutiveErrors >= maxConsecutiveErrors {
		im.backoffUntil = im.now().Add(im.config.Interval * 2)
		im.logger.Warn("連続失敗によりニュース取り込みをバックオフします",
			slog.Int("consecutive_errors", im.consecutiveErrors),
			slog.Time("backoff_until", im.backoffUntil),
		)
	}
}
