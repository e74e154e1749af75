package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// gatherCounterValue は指定メトリクスのカウンタ値を合計して返す。
func gatherCounterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	for _, mf := range metrics {
		if mf.GetName() == name {
			var total float64
			for _, m := range mf.GetMetric() {
				total += m.GetCounter().GetValue()
			}
			return total
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	if c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

// TestRecordLoginAttempt_IncrementsCounter はログイン試行カウンタが結果別に増加することを検証する。
func TestRecordLoginAttempt_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordLoginAttempt("success")
	c.RecordLoginAttempt("failure")
	c.RecordLoginAttempt("failure")

	if got := gatherCounterValue(t, reg, "terrace_login_attempts_total"); got != 3 {
		t.Errorf("login_attempts_total = %v, want 3", got)
	}
}

func TestRecordLoginRateLimited_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordLoginRateLimited()

	if got := gatherCounterValue(t, reg, "terrace_login_rate_limited_total"); got != 1 {
		t.Errorf("login_rate_limited_total = %v, want 1", got)
	}
}

func TestMatchCacheCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.IncMatchCacheHit("fixtures")
	c.IncMatchCacheHit("results")
	c.IncMatchCacheMiss("fixtures")

	if got := gatherCounterValue(t, reg, "terrace_match_cache_hit_total"); got != 2 {
		t.Errorf("match_cache_hit_total = %v, want 2", got)
	}
	if got := gatherCounterValue(t, reg, "terrace_match_cache_miss_total"); got != 1 {
		t.Errorf("match_cache_miss_total = %v, want 1", got)
	}
}

func TestIncUpstreamFetch_RecordsOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.IncUpstreamFetch("fixtures", "success")
	c.IncUpstreamFetch("fixtures", "mock_fallback")
	c.IncUpstreamFetch("standings", "failure")

	if got := gatherCounterValue(t, reg, "terrace_upstream_fetch_total"); got != 3 {
		t.Errorf("upstream_fetch_total = %v, want 3", got)
	}
}

func TestNewsImportCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordNewsImported(5)
	c.RecordNewsImportFailure()
	c.RecordImportLatency(1500 * time.Millisecond)

	if got := gatherCounterValue(t, reg, "terrace_news_imported_total"); got != 5 {
		t.Errorf("news_imported_total = %v, want 5", got)
	}
	if got := gatherCounterValue(t, reg, "terrace_news_import_fail_total"); got != 1 {
		t.Errorf("news_import_fail_total = %v, want 1", got)
	}
}

// TestHandler_ExposesMetrics は/metricsハンドラーが登録済みメトリクスを公開することを検証する。
func TestHandler_ExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPStatus(http.StatusOK)
	c.RecordHTTPStatus(http.StatusNotFound)

	server := httptest.NewServer(Handler(reg))
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("failed to fetch metrics: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}

	output := string(body)
	if !strings.Contains(output, "terrace_http_status_total") {
		t.Error("terrace_http_status_totalが公開されていません")
	}
	if !strings.Contains(output, `status_code="404"`) {
		t.Error("ステータスコード別のラベルが公開されていません")
	}
}
