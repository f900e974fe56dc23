package v1

import "time"

// ReadinessStatus is a snapshot of the readiness latch.
type ReadinessStatus struct {
	Ready       bool       `json:"ready"`
	SymbolCount int        `json:"symbol_count"`
	Threshold   int        `json:"threshold"`
	LatchedAt   *time.Time `json:"latched_at,omitempty"`
	LastPollAt  time.Time  `json:"last_poll_at"`
	LastError   string     `json:"last_error,omitempty"`
}
