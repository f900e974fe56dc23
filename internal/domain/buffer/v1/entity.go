package v1

import (
	"sync/atomic"

	tickv1 "github.com/muhammadchandra19/tickstream/internal/domain/tick/v1"
)

// ForwardState tracks what happened to a buffered tick downstream.
type ForwardState uint32

const (
	// ForwardPending means the entry has not been published yet.
	ForwardPending ForwardState = iota
	// Forwarded means the entry was durably published. Never unset.
	Forwarded
	// ForwardFailed means publishing was abandoned after bounded retries.
	ForwardFailed
)

// Entry is a tick retained in a buffer window. The tick itself is
// immutable; only the forward state transitions, exactly once, via CAS.
type Entry struct {
	Tick  tickv1.Tick
	state atomic.Uint32
}

// NewEntry wraps a tick in a pending entry.
func NewEntry(t tickv1.Tick) *Entry {
	return &Entry{Tick: t}
}

// MarkForwarded flips the entry to Forwarded. Idempotent: returns false
// without side effects when the state already left pending.
func (e *Entry) MarkForwarded() bool {
	return e.state.CompareAndSwap(uint32(ForwardPending), uint32(Forwarded))
}

// MarkFailed flips the entry to ForwardFailed. Idempotent like MarkForwarded.
func (e *Entry) MarkFailed() bool {
	return e.state.CompareAndSwap(uint32(ForwardPending), uint32(ForwardFailed))
}

// State returns the current forward state.
func (e *Entry) State() ForwardState {
	return ForwardState(e.state.Load())
}

// SymbolStatus describes one symbol's window for the operational surface.
type SymbolStatus struct {
	LastSequence uint64 `json:"last_sequence"`
	Accepted     uint64 `json:"accepted"`
	Rejected     uint64 `json:"rejected"`
	Occupancy    int    `json:"occupancy"`
	Capacity     int    `json:"capacity"`
}

// Status aggregates buffer state across all symbols.
type Status struct {
	TotalAccepted uint64                  `json:"total_accepted"`
	TotalRejected uint64                  `json:"total_rejected"`
	TotalResyncs  uint64                  `json:"total_resyncs"`
	Symbols       map[string]SymbolStatus `json:"symbols"`
}
