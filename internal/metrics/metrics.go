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
// ゲートウェイ・正規化・ハンドラーの各層から利用する。
type Collector struct {
	upstreamStatus  *prometheus.CounterVec
	upstreamLatency prometheus.Histogram
	toolRequests    *prometheus.CounterVec
	droppedRecords  *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		upstreamStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "canvasman_upstream_status_total",
			Help: "Canvas APIのHTTPステータスコード別レスポンス数",
		}, []string{"status_code"}),
		upstreamLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "canvasman_upstream_latency_seconds",
			Help:    "Canvas API呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		toolRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "canvasman_tool_requests_total",
			Help: "ツール操作別のリクエスト数",
		}, []string{"tool"}),
		droppedRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "canvasman_dropped_records_total",
			Help: "正規化で破棄されたレコードのソース別合計数",
		}, []string{"source"}),
	}

	reg.MustRegister(
		c.upstreamStatus,
		c.upstreamLatency,
		c.toolRequests,
		c.droppedRecords,
	)

	return c
}

// RecordUpstreamStatus はCanvas APIのHTTPステータスコードを記録する。
func (c *Collector) RecordUpstreamStatus(statusCode int) {
	c.upstreamStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordUpstreamLatency はCanvas API呼び出しのレイテンシを記録する。
func (c *Collector) RecordUpstreamLatency(duration time.Duration) {
	c.upstreamLatency.Observe(duration.Seconds())
}

// RecordToolRequest はツール操作の実行を記録する。
func (c *Collector) RecordToolRequest(tool string) {
	c.toolRequests.WithLabelValues(tool).Inc()
}

// RecordDroppedRecord は正規化で破棄されたレコードを記録する。
func (c *Collector) RecordDroppedRecord(source string) {
	c.droppedRecords.WithLabelValues(source).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
