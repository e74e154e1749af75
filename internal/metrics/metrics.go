// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
// ログイン試行、試合情報キャッシュ、ニュース取り込み、HTTPレスポンスを記録する。
type Collector struct {
	loginAttempts  *prometheus.CounterVec
	loginLimited   prometheus.Counter
	matchCacheHit  *prometheus.CounterVec
	matchCacheMiss *prometheus.CounterVec
	upstreamFetch  *prometheus.CounterVec
	newsImported   prometheus.Counter
	newsImportFail prometheus.Counter
	httpStatus     *prometheus.CounterVec
	importLatency  prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		loginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "terrace_login_attempts_total",
			Help: "管理者ログイン試行の結果別合計数",
		}, []string{"outcome"}),
		loginLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "terrace_login_rate_limited_total",
			Help: "レート制限で拒否されたログイン試行の合計数",
		}),
		matchCacheHit: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "terrace_match_cache_hit_total",
			Help: "試合情報キャッシュヒットのリソース別合計数",
		}, []string{"resource"}),
		matchCacheMiss: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "terrace_match_cache_miss_total",
			Help: "試合情報キャッシュミスのリソース別合計数",
		}, []string{"resource"}),
		upstreamFetch: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "terrace_upstream_fetch_total",
			Help: "上流試合情報APIフェッチのリソース・結果別合計数",
		}, []string{"resource", "outcome"}),
		newsImported: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "terrace_news_imported_total",
			Help: "RSS取り込みで作成されたニュース記事の合計数",
		}),
		newsImportFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "terrace_news_import_fail_total",
			Help: "RSS取り込み失敗の合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "terrace_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		importLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "terrace_news_import_latency_seconds",
			Help:    "RSS取り込み1サイクルのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.loginAttempts,
		c.loginLimited,
		c.matchCacheHit,
		c.matchCacheMiss,
		c.upstreamFetch,
		c.newsImported,
		c.newsImportFail,
		c.httpStatus,
		c.importLatency,
	)

	return c
}

// RecordLoginAttempt はログイン試行の結果を記録する。
// outcomeは"success"または"failure"。
func (c *Collector) RecordLoginAttempt(outcome string) {
	c.loginAttempts.WithLabelValues(outcome).Inc()
}

// RecordLoginRateLimited はレート制限によるログイン拒否を記録する。
func (c *Collector) RecordLoginRateLimited() {
	c.loginLimited.Inc()
}

// IncMatchCacheHit は試合情報キャッシュヒットを記録する。
func (c *Collector) IncMatchCacheHit(resource string) {
	c.matchCacheHit.WithLabelValues(resource).Inc()
}

// IncMatchCacheMiss は試合情報キャッシュミスを記録する。
func (c *Collector) IncMatchCacheMiss(resource string) {
	c.matchCacheMiss.WithLabelValues(resource).Inc()
}

// IncUpstreamFetch は上流APIフェッチの結果を記録する。
// outcomeは"success"、"failure"、"mock_fallback"のいずれか。
func (c *Collector) IncUpstreamFetch(resource, outcome string) {
	c.upstreamFetch.WithLabelValues(resource, outcome).Inc()
}

// RecordNewsImported は取り込まれた記事数を記録する。
func (c *Collector) RecordNewsImported(count int) {
	c.newsImported.Add(float64(count))
}

// RecordNewsImportFailure はRSS取り込み失敗を記録する。
func (c *Collector) RecordNewsImportFailure() {
	c.newsImportFail.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordImportLatency はRSS取り込み1サイクルのレイテンシを記録する。
func (c *Collector) RecordImportLatency(duration time.Duration) {
	c.importLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
