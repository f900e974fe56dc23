package v1

// Observer receives non-blocking observations from pipeline components.
// Implementations must never block the producing component.
type Observer interface {
	TickGenerated(n int)
	TickDropped(n int)
	TickAccepted(latencySeconds float64)
	TickRejected()
	SequenceResync()
	TickForwarded(endToEndSeconds float64)
	ForwardFailure()
	PermanentFailure()
}

// Snapshotter exposes the periodically refreshed snapshot.
type Snapshotter interface {
	Snapshot() Snapshot
}

// NopObserver discards all observations; useful in tests.
type NopObserver struct{}

func (NopObserver) TickGenerated(int)       {}
func (NopObserver) TickDropped(int)         {}
func (NopObserver) TickAccepted(float64)    {}
func (NopObserver) TickRejected()           {}
func (NopObserver) SequenceResync()         {}
func (NopObserver) TickForwarded(float64)   {}
func (NopObserver) ForwardFailure()         {}
func (NopObserver) PermanentFailure()       {}
