package ports

// MetricsRecorder is the port interface for recording metrics.
// Implementations are adapters (PrometheusMetricsRecorder for production,
// NoopMetricsRecorder for disabled/testing).
type MetricsRecorder interface {
	// RecordSessionRefresh records a session rebuild attempt.
	// trigger is "sync", "background" or "manual".
	RecordSessionRefresh(trigger string, success bool)

	// RecordSessionServed records a session handout and whether the cache
	// answered it without a rebuild.
	RecordSessionServed(cacheHit bool)

	// RecordWorkflow records a completed workflow run.
	// kind is "order", "introduction" or "auth".
	RecordWorkflow(kind string, success bool)

	// RecordSigning records one signing operation.
	RecordSigning(detached bool, success bool)

	// RecordVendorRequest records a vendor API round trip by endpoint label
	// and HTTP status.
	RecordVendorRequest(endpoint string, status int)
}
