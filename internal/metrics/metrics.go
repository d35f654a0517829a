// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 削除結果のラベル値。
const (
	DeleteResultSuccess  = "success"
	DeleteResultNotFound = "not_found"
	DeleteResultFailed   = "failed"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ハンドラーやサービス層から利用する。
type MetricsCollector interface {
	RecordList(mode string, served int)
	RecordExport(format string, rows int)
	RecordDelete(result string)
	RecordHTTPStatus(statusCode int)
	RecordQueryLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	listRequests  *prometheus.CounterVec
	recordsServed prometheus.Counter
	exports       *prometheus.CounterVec
	exportRows    prometheus.Counter
	deletes       *prometheus.CounterVec
	httpStatus    *prometheus.CounterVec
	queryLatency  prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		listRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hourman_list_requests_total",
			Help: "ページネーション方式別の一覧リクエスト数",
		}, []string{"mode"}),
		recordsServed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hourman_records_served_total",
			Help: "一覧で返した作業記録の合計数",
		}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hourman_exports_total",
			Help: "形式別のエクスポート数",
		}, []string{"format"}),
		exportRows: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hourman_export_rows_total",
			Help: "エクスポートした作業記録の合計数",
		}),
		deletes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hourman_deletes_total",
			Help: "結果別の作業記録削除数",
		}, []string{"result"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hourman_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		queryLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "hourman_query_latency_seconds",
			Help:    "作業記録スナップショット取得のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.listRequests,
		c.recordsServed,
		c.exports,
		c.exportRows,
		c.deletes,
		c.httpStatus,
		c.queryLatency,
	)

	return c
}

// RecordList は一覧リクエストと返却件数を記録する。
func (c *Collector) RecordList(mode string, served int) {
	c.listRequests.WithLabelValues(mode).Inc()
	c.recordsServed.Add(float64(served))
}

// RecordExport はエクスポートと出力行数を記録する。
func (c *Collector) RecordExport(format string, rows int) {
	c.exports.WithLabelValues(format).Inc()
	c.exportRows.Add(float64(rows))
}

// RecordDelete は削除結果を記録する。
func (c *Collector) RecordDelete(result string) {
	c.deletes.WithLabelValues(result).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordQueryLatency はスナップショット取得のレイテンシを記録する。
func (c *Collector) RecordQueryLatency(duration time.Duration) {
	c.queryLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}

// Nop は何も記録しないMetricsCollector。メトリクス未設定時やテストで使う。
type Nop struct{}

func (Nop) RecordList(string, int)           {}
func (Nop) RecordExport(string, int)         {}
func (Nop) RecordDelete(string)              {}
func (Nop) RecordHTTPStatus(int)             {}
func (Nop) RecordQueryLatency(time.Duration) {}
