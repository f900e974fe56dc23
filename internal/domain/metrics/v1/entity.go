package v1

import "time"

// HealthLevel grades a component by its trailing error rate.
type HealthLevel string

const (
	// Healthy means the error rate is at or below the degraded threshold.
	Healthy HealthLevel = "healthy"
	// Degraded means the error rate exceeded DegradedThreshold.
	Degraded HealthLevel = "degraded"
	// Unhealthy means the error rate exceeded UnhealthyThreshold.
	Unhealthy HealthLevel = "unhealthy"
)

// Error-rate thresholds for health grading.
const (
	DegradedThreshold  = 0.05
	UnhealthyThreshold = 0.15
)

// ComponentHealth is one component's grading in a snapshot.
type ComponentHealth struct {
	Level     HealthLevel `json:"level"`
	Processed uint64      `json:"processed"`
	Errors    uint64      `json:"errors"`
	ErrorRate float64     `json:"error_rate"`
}

// Counters are the cumulative pipeline counters.
type Counters struct {
	Generated         uint64 `json:"generated"`
	Dropped           uint64 `json:"dropped"`
	Accepted          uint64 `json:"accepted"`
	Rejected          uint64 `json:"rejected"`
	Resyncs           uint64 `json:"resyncs"`
	Forwarded         uint64 `json:"forwarded"`
	ForwardFailures   uint64 `json:"forward_failures"`
	PermanentFailures uint64 `json:"permanent_failures"`
}

// Snapshot is a point-in-time view over the trailing window.
type Snapshot struct {
	Timestamp        time.Time                  `json:"timestamp"`
	ThroughputPerSec float64                    `json:"throughput_per_sec"`
	AvgLatencyMs     float64                    `json:"avg_latency_ms"`
	ErrorRate        float64                    `json:"error_rate"`
	Overall          HealthLevel                `json:"overall"`
	Components       map[string]ComponentHealth `json:"components"`
	Counters         Counters                   `json:"counters"`
}

// GradeErrorRate maps an error rate onto a health level.
func GradeErrorRate(rate float64) HealthLevel {
	switch {
	case rate > UnhealthyThreshold:
		return Unhealthy
	case rate > DegradedThreshold:
		return Degraded
	default:
		return Healthy
	}
}
