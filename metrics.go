package konturapi

import (
	"github.com/kirillbelykh/kontur-api/internal/adapters/driven/metrics"
	"github.com/kirillbelykh/kontur-api/internal/core/ports"
)

// Re-export the metrics port and its adapters
type MetricsRecorder = ports.MetricsRecorder
type PrometheusMetricsRecorder = metrics.PrometheusMetricsRecorder
type NoopMetricsRecorder = metrics.NoopMetricsRecorder

var (
	NewPrometheusMetricsRecorder             = metrics.NewPrometheusMetricsRecorder
	NewPrometheusMetricsRecorderWithRegistry = metrics.NewPrometheusMetricsRecorderWithRegistry
	NewNoopMetricsRecorder                   = metrics.NewNoopMetricsRecorder
)
