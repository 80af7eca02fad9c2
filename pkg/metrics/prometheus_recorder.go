package metrics

import (
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	markdownDuration *prom.HistogramVec
	projectOps       *prom.CounterVec
	importDuration   *prom.HistogramVec
	syncActions      *prom.CounterVec
	httpDuration     *prom.HistogramVec
	httpRequests     *prom.CounterVec
	projectCount     prom.Gauge
}

// NewPrometheusRecorder constructs and registers the metrics on reg.
// A nil reg gets a fresh private registry.
func NewPrometheusRecorder(reg *prom.Registry, namespace string) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	if namespace == "" {
		namespace = "docsite"
	}

	pr := &PrometheusRecorder{
		markdownDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "markdown_duration_seconds",
			Help:      "Duration of markdown parse, extract and render operations",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		}, []string{"operation"}),
		projectOps: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "project_operations_total",
			Help:      "Project operations by result",
		}, []string{"operation", "result"}),
		importDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "import_duration_seconds",
			Help:      "Duration of URL imports",
			Buckets:   prom.DefBuckets,
		}, []string{"result"}),
		syncActions: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "sync_actions_total",
			Help:      "Directory sync outcomes per file",
		}, []string{"action"}),
		httpDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prom.DefBuckets,
		}, []string{"route", "method"}),
		httpRequests: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code",
		}, []string{"route", "method", "status"}),
		projectCount: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "projects",
			Help:      "Number of stored projects",
		}),
	}
	reg.MustRegister(pr.markdownDuration, pr.projectOps, pr.importDuration, pr.syncActions,
		pr.httpDuration, pr.httpRequests, pr.projectCount)
	return pr
}

func (p *PrometheusRecorder) ObserveMarkdownDuration(operation string, d time.Duration) {
	if p == nil || p.markdownDuration == nil {
		return
	}
	p.markdownDuration.WithLabelValues(operation).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncProjectOperation(operation, result string) {
	if p == nil || p.projectOps == nil {
		return
	}
	p.projectOps.WithLabelValues(operation, result).Inc()
}

func (p *PrometheusRecorder) ObserveImport(d time.Duration, result string) {
	if p == nil || p.importDuration == nil {
		return
	}
	p.importDuration.WithLabelValues(result).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncSyncAction(action string) {
	if p == nil || p.syncActions == nil {
		return
	}
	p.syncActions.WithLabelValues(action).Inc()
}

func (p *PrometheusRecorder) ObserveHTTPRequest(route, method string, status int, d time.Duration) {
	if p == nil || p.httpDuration == nil {
		return
	}
	p.httpDuration.WithLabelValues(route, method).Observe(d.Seconds())
	p.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
}

func (p *PrometheusRecorder) SetProjectCount(n int) {
	if p == nil || p.projectCount == nil {
		return
	}
	p.projectCount.Set(float64(n))
}
