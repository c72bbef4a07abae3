package metrics

import (
	"github.com/kirillbelykh/kontur-api/internal/core/ports"
)

// NoopMetricsRecorder is a no-op implementation for when metrics are disabled.
// All methods are safe to call and do nothing.
type NoopMetricsRecorder struct{}

// NewNoopMetricsRecorder creates a new no-op metrics recorder.
func NewNoopMetricsRecorder() *NoopMetricsRecorder {
	return &NoopMetricsRecorder{}
}

// RecordSessionRefresh is a no-op.
func (n *NoopMetricsRecorder) RecordSessionRefresh(trigger string, success bool) {}

// RecordSessionServed is a no-op.
func (n *NoopMetricsRecorder) RecordSessionServed(cacheHit bool) {}

// RecordWorkflow is a no-op.
func (n *NoopMetricsRecorder) RecordWorkflow(kind string, success bool) {}

// RecordSigning is a no-op.
func (n *NoopMetricsRecorder) RecordSigning(detached bool, success bool) {}

// RecordVendorRequest is a no-op.
func (n *NoopMetricsRecorder) RecordVendorRequest(endpoint string, status int) {}

// Ensure NoopMetricsRecorder implements ports.MetricsRecorder
var _ ports.MetricsRecorder = (*NoopMetricsRecorder)(nil)
