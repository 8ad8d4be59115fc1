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
type Collector struct {
	ringsFired   prometheus.Counter
	manualRings  prometheus.Counter
	relayFaults  prometheus.Counter
	httpStatus   *prometheus.CounterVec
	ringDuration prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		ringsFired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bellman_rings_fired_total",
			Help: "スケジュールによる鳴動の合計数",
		}),
		manualRings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bellman_manual_rings_total",
			Help: "手動テストによる鳴動の合計数",
		}),
		relayFaults: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bellman_relay_fault_total",
			Help: "リレー駆動失敗の合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bellman_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		ringDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bellman_ring_duration_seconds",
			Help:    "1回の鳴動にかかった時間（秒）",
			Buckets: prometheus.LinearBuckets(0.5, 0.5, 12),
		}),
	}

	reg.MustRegister(
		c.ringsFired,
		c.manualRings,
		c.relayFaults,
		c.httpStatus,
		c.ringDuration,
	)

	return c
}

// RecordScheduledRing はスケジュール鳴動の成功を記録する。
func (c *Collector) RecordScheduledRing() {
	c.ringsFired.Inc()
}

// RecordManualRing は手動テスト鳴動の成功を記録する。
func (c *Collector) RecordManualRing() {
	c.manualRings.Inc()
}

// RecordRelayFault はリレー駆動失敗を記録する。
func (c *Collector) RecordRelayFault() {
	c.relayFaults.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRingDuration は鳴動にかかった時間を記録する。
func (c *Collector) RecordRingDuration(d time.Duration) {
	c.ringDuration.Observe(d.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
