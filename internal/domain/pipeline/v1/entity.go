package v1

import (
	bufferv1 "github.com/muhammadchandra19/tickstream/internal/domain/buffer/v1"
	generatorv1 "github.com/muhammadchandra19/tickstream/internal/domain/generator/v1"
	monitorv1 "github.com/muhammadchandra19/tickstream/internal/domain/monitor/v1"
)

// ForwarderStats are cumulative forwarder counters for the operational surface.
type ForwarderStats struct {
	Published         uint64 `json:"published"`
	Retries           uint64 `json:"retries"`
	PermanentFailures uint64 `json:"permanent_failures"`
	ForcedSkips       uint64 `json:"forced_skips"`
	BreakerState      string `json:"breaker_state"`
}

// Status is the process-wide pipeline view served on the ops surface.
type Status struct {
	Armed     bool                      `json:"armed"`
	Readiness monitorv1.ReadinessStatus `json:"readiness"`
	Generator generatorv1.Stats         `json:"generator"`
	Buffer    bufferv1.Status           `json:"buffer"`
	Forwarder ForwarderStats            `json:"forwarder"`
	QueueLen  int                       `json:"queue_len"`
	QueueCap  int                       `json:"queue_cap"`
}
