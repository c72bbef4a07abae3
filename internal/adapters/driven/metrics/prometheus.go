package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillbelykh/kontur-api/internal/core/ports"
)

// PrometheusMetricsRecorder records metrics using Prometheus.
type PrometheusMetricsRecorder struct {
	sessionRefreshTotal *prometheus.CounterVec
	sessionServedTotal  *prometheus.CounterVec
	workflowRunsTotal   *prometheus.CounterVec
	signingTotal        *prometheus.CounterVec
	vendorRequestsTotal *prometheus.CounterVec
}

// NewPrometheusMetricsRecorder creates a new Prometheus metrics recorder
// using the default Prometheus registry.
func NewPrometheusMetricsRecorder() *PrometheusMetricsRecorder {
	return NewPrometheusMetricsRecorderWithRegistry(prometheus.DefaultRegisterer)
}

// NewPrometheusMetricsRecorderWithRegistry creates a new Prometheus metrics recorder
// with a custom registry. Use this for testing.
func NewPrometheusMetricsRecorderWithRegistry(reg prometheus.Registerer) *PrometheusMetricsRecorder {
	sessionRefreshTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kontur_api_session_refresh_total",
		Help: "Total portal session rebuild attempts",
	}, []string{"trigger", "result"})

	sessionServedTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kontur_api_session_served_total",
		Help: "Total sessions handed to callers",
	}, []string{"cache"})

	workflowRunsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kontur_api_workflow_runs_total",
		Help: "Total completed workflow runs",
	}, []string{"kind", "result"})

	signingTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kontur_api_signing_total",
		Help: "Total signing operations",
	}, []string{"mode", "result"})

	vendorRequestsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kontur_api_vendor_requests_total",
		Help: "Total vendor API round trips",
	}, []string{"endpoint", "status"})

	reg.MustRegister(
		sessionRefreshTotal,
		sessionServedTotal,
		workflowRunsTotal,
		signingTotal,
		vendorRequestsTotal,
	)

	return &PrometheusMetricsRecorder{
		sessionRefreshTotal: sessionRefreshTotal,
		sessionServedTotal:  sessionServedTotal,
		workflowRunsTotal:   workflowRunsTotal,
		signingTotal:        signingTotal,
		vendorRequestsTotal: vendorRequestsTotal,
	}
}

// RecordSessionRefresh records a session rebuild attempt.
func (p *PrometheusMetricsRecorder) RecordSessionRefresh(trigger string, success bool) {
	p.sessionRefreshTotal.WithLabelValues(trigger, resultLabel(success)).Inc()
}

// RecordSessionServed records a session handout.
func (p *PrometheusMetricsRecorder) RecordSessionServed(cacheHit bool) {
	cache := "rebuild"
	if cacheHit {
		cache = "hit"
	}
	p.sessionServedTotal.WithLabelValues(cache).Inc()
}

// RecordWorkflow records a completed workflow run.
func (p *PrometheusMetricsRecorder) RecordWorkflow(kind string, success bool) {
	p.workflowRunsTotal.WithLabelValues(kind, resultLabel(success)).Inc()
}

// RecordSigning records one signing operation.
func (p *PrometheusMetricsRecorder) RecordSigning(detached bool, success bool) {
	mode := "attached"
	if detached {
		mode = "detached"
	}
	p.signingTotal.WithLabelValues(mode, resultLabel(success)).Inc()
}

// RecordVendorRequest records a vendor API round trip. A status of 0
// means the request never got a response.
func (p *PrometheusMetricsRecorder) RecordVendorRequest(endpoint string, status int) {
	p.vendorRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
}

func resultLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

// Ensure PrometheusMetricsRecorder implements ports.MetricsRecorder
var _ ports.MetricsRecorder = (*PrometheusMetricsRecorder)(nil)
