package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 拉取结果标签取值
const (
	PullResultCacheHit = "cache_hit"
	PullResultFetched  = "fetched"
	PullResultError    = "error"
)

// MetricsCollector Prometheus 指标收集器
// 每个实例使用独立 Registry，测试中可重复创建
type MetricsCollector struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	pullsTotal          *prometheus.CounterVec
	fetchDuration       *prometheus.HistogramVec
	slotsFetched        *prometheus.CounterVec
}

// NewMetricsCollector 创建并注册全部指标
func NewMetricsCollector() *MetricsCollector {
	m := &MetricsCollector{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		pullsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "availability_pulls_total",
				Help: "Per-source availability pulls by result",
			},
			[]string{"source", "result"},
		),
		fetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "availability_fetch_duration_seconds",
				Help:    "Duration of provider adapter fetches in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
			},
			[]string{"source"},
		),
		slotsFetched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "availability_slots_fetched_total",
				Help: "Raw slots returned by provider adapters",
			},
			[]string{"source"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.pullsTotal,
		m.fetchDuration,
		m.slotsFetched,
	)
	return m
}

// RecordHTTPRequest 记录 HTTP 请求指标
func (m *MetricsCollector) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordPull 记录单个平台的拉取结果
func (m *MetricsCollector) RecordPull(source, result string) {
	m.pullsTotal.WithLabelValues(source, result).Inc()
}

// RecordFetch 记录适配器调用耗时与返回的原始时段数
func (m *MetricsCollector) RecordFetch(source string, duration time.Duration, slots int) {
	m.fetchDuration.WithLabelValues(source).Observe(duration.Seconds())
	m.slotsFetched.WithLabelValues(source).Add(float64(slots))
}

// Registry 暴露底层 Registry（测试用）
func (m *MetricsCollector) Registry() *prometheus.Registry {
	return m.registry
}

// Handler 返回 /metrics 处理器
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
