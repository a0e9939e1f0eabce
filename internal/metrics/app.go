// Package metrics emits application metrics through the shared telemetry
// system. Emission is always nil-safe so code paths work before telemetry is
// initialized.
package metrics

import (
	"time"

	"github.com/promptalchemy/promptalchemy/internal/observability"
)

// Application metric names following Prometheus conventions.
var (
	GenerationsTotal   = "app_generations_total"
	GenerationDuration = "app_generation_duration_ms"
	GenerationImages   = "app_generation_image_count"

	KeyWritesTotal = "app_key_writes_total"
	KeyReadsTotal  = "app_key_reads_total"

	ServerStartTime = "app_server_start_time_seconds"
	ServerUptime    = "app_server_uptime_seconds"
)

// RecordGeneration records one prompt generation attempt.
func RecordGeneration(provider, familyID string, success bool, duration time.Duration, imageCount int) {
	if observability.TelemetrySystem == nil {
		return
	}

	status := "success"
	if !success {
		status = "failure"
	}

	labels := map[string]string{
		"provider": provider,
		"family":   familyID,
		"status":   status,
	}

	_ = observability.TelemetrySystem.Counter(GenerationsTotal, 1, labels)
	_ = observability.TelemetrySystem.Histogram(GenerationDuration, duration, labels)
	_ = observability.TelemetrySystem.Gauge(GenerationImages, float64(imageCount), map[string]string{
		"provider": provider,
	})
}

// RecordKeyWrite records a credential persistence request.
func RecordKeyWrite(provider string, success bool) {
	if observability.TelemetrySystem == nil {
		return
	}

	status := "success"
	if !success {
		status = "failure"
	}

	_ = observability.TelemetrySystem.Counter(KeyWritesTotal, 1, map[string]string{
		"provider": provider,
		"status":   status,
	})
}

// RecordKeyRead records a credential hydration lookup and whether a key was
// found.
func RecordKeyRead(provider string, found bool) {
	if observability.TelemetrySystem == nil {
		return
	}

	result := "hit"
	if !found {
		result = "miss"
	}

	_ = observability.TelemetrySystem.Counter(KeyReadsTotal, 1, map[string]string{
		"provider": provider,
		"result":   result,
	})
}

// SetServerStartTime records the server start time (Unix timestamp).
func SetServerStartTime(timestamp int64) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(ServerStartTime, float64(timestamp), nil)
	}
}

// SetServerUptime records the server uptime in seconds.
func SetServerUptime(seconds int64) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(ServerUptime, float64(seconds), nil)
	}
}
