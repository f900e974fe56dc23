package buffer

import (
	"fmt"
	"sync"
	"time"

	bufferv1 "github.com/muhammadchandra19/tickstream/internal/domain/buffer/v1"
	metricsv1 "github.com/muhammadchandra19/tickstream/internal/domain/metrics/v1"
	tickv1 "github.com/muhammadchandra19/tickstream/internal/domain/tick/v1"
	"github.com/muhammadchandra19/tickstream/pkg/errors"
	"github.com/muhammadchandra19/tickstream/pkg/logger"
)

// Buffer is the in-memory per-symbol ordered retention window, the
// simulated log-store between the delivery queue and the forwarder.
// Windows are fixed-capacity rings created lazily on first ingest.
type Buffer struct {
	mu          sync.RWMutex
	windows     map[string]*window
	capacity    int
	resyncAfter int

	totalAccepted uint64
	totalRejected uint64
	totalResyncs  uint64

	observer metricsv1.Observer
	logger   logger.Interface
}

// window is one symbol's ring. Retained sequences are contiguous:
// a resync clears the window so the invariant holds across gaps.
type window struct {
	entries []*bufferv1.Entry
	head    int
	size    int

	lastSeq            uint64
	forwardSeq         uint64
	accepted           uint64
	rejected           uint64
	consecutiveRejects int
}

// NewBuffer creates a Buffer with the given per-symbol capacity.
// resyncAfter bounds how many consecutive gap rejections are tolerated
// before the window re-synchronizes to the incoming sequence.
func NewBuffer(capacity, resyncAfter int, observer metricsv1.Observer, log logger.Interface) *Buffer {
	if capacity <= 0 {
		capacity = 1
	}
	if resyncAfter <= 0 {
		resyncAfter = 1
	}
	return &Buffer{
		windows:     make(map[string]*window),
		capacity:    capacity,
		resyncAfter: resyncAfter,
		observer:    observer,
		logger:      log,
	}
}

// Ingest accepts a tick whose sequence extends the symbol's window by
// exactly one (or opens the window). Out-of-order and duplicate ticks
// are rejected and counted; after resyncAfter consecutive gap
// rejections the window re-synchronizes to the higher sequence.
func (b *Buffer) Ingest(t tickv1.Tick) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	w, ok := b.windows[t.Symbol]
	if !ok {
		w = &window{entries: make([]*bufferv1.Entry, b.capacity)}
		b.windows[t.Symbol] = w
	}

	switch {
	case w.lastSeq == 0 && w.size == 0:
		// first tick for this symbol opens the window at any sequence
	case t.Sequence == w.lastSeq+1:
		// in-order progress
	default:
		w.rejected++
		b.totalRejected++
		b.observer.TickRejected()

		gap := t.Sequence > w.lastSeq+1
		if gap {
			w.consecutiveRejects++
			if w.consecutiveRejects >= b.resyncAfter {
				b.resync(w, t)
				return nil
			}
		}

		return errors.NewErrorDetails(
			fmt.Sprintf("sequence %d does not extend %d for %s", t.Sequence, w.lastSeq, t.Symbol),
			string(errors.SequenceAnomalyError),
			t.Symbol,
		)
	}

	b.accept(w, t)
	return nil
}

// resync clears the window and restarts it at the incoming sequence.
// Clearing keeps retained sequences contiguous across the gap.
func (b *Buffer) resync(w *window, t tickv1.Tick) {
	b.logger.Warn("resynchronizing buffer window",
		logger.Field{Key: "symbol", Value: t.Symbol},
		logger.Field{Key: "lastSequence", Value: w.lastSeq},
		logger.Field{Key: "newSequence", Value: t.Sequence},
	)

	for i := range w.entries {
		w.entries[i] = nil
	}
	w.head = 0
	w.size = 0
	w.lastSeq = 0
	w.forwardSeq = 0

	b.totalResyncs++
	b.observer.SequenceResync()

	b.accept(w, t)
}

// accept appends the tick, evicting from the oldest end at capacity.
func (b *Buffer) accept(w *window, t tickv1.Tick) {
	entry := bufferv1.NewEntry(t)

	if w.size == len(w.entries) {
		evicted := w.entries[w.head]
		w.entries[w.head] = nil
		w.head = (w.head + 1) % len(w.entries)
		w.size--

		// the forward cursor never points before the retained window
		if w.forwardSeq <= evicted.Tick.Sequence {
			w.forwardSeq = evicted.Tick.Sequence + 1
		}
	}

	idx := (w.head + w.size) % len(w.entries)
	w.entries[idx] = entry
	w.size++
	w.lastSeq = t.Sequence
	w.accepted++
	w.consecutiveRejects = 0
	if w.forwardSeq == 0 {
		w.forwardSeq = t.Sequence
	}

	b.totalAccepted++
	b.observer.TickAccepted(time.Since(t.GeneratedAt).Seconds())
}

// Recent returns up to limit of the most recently ingested ticks for a
// symbol, ascending by sequence. It never mutates buffer state.
func (b *Buffer) Recent(symbol string, limit int) []tickv1.Tick {
	b.mu.RLock()
	defer b.mu.RUnlock()

	w, ok := b.windows[symbol]
	if !ok || limit <= 0 {
		return nil
	}

	n := min(limit, w.size)
	ticks := make([]tickv1.Tick, 0, n)
	for i := w.size - n; i < w.size; i++ {
		idx := (w.head + i) % len(w.entries)
		ticks = append(ticks, w.entries[idx].Tick)
	}
	return ticks
}

// NextPending returns the entry at the symbol's forward cursor, if the
// cursor points at a retained entry.
func (b *Buffer) NextPending(symbol string) (*bufferv1.Entry, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	w, ok := b.windows[symbol]
	if !ok || w.size == 0 {
		return nil, false
	}

	oldest := w.entries[w.head].Tick.Sequence
	if w.forwardSeq < oldest || w.forwardSeq > w.lastSeq {
		return nil, false
	}

	idx := (w.head + int(w.forwardSeq-oldest)) % len(w.entries)
	return w.entries[idx], true
}

// Advance moves the symbol's forward cursor past seq once the entry
// reached a terminal state. The increment only applies while the cursor
// still points at seq: a resync or eviction that moved the cursor while
// the entry was in flight wins, so a retained pending tick is never
// skipped.
func (b *Buffer) Advance(symbol string, seq uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if w, ok := b.windows[symbol]; ok && w.forwardSeq == seq {
		w.forwardSeq = seq + 1
	}
}

// Status reports per-symbol counts and cumulative totals.
func (b *Buffer) Status() bufferv1.Status {
	b.mu.RLock()
	defer b.mu.RUnlock()

	status := bufferv1.Status{
		TotalAccepted: b.totalAccepted,
		TotalRejected: b.totalRejected,
		TotalResyncs:  b.totalResyncs,
		Symbols:       make(map[string]bufferv1.SymbolStatus, len(b.windows)),
	}

	for symbol, w := range b.windows {
		status.Symbols[symbol] = bufferv1.SymbolStatus{
			LastSequence: w.lastSeq,
			Accepted:     w.accepted,
			Rejected:     w.rejected,
			Occupancy:    w.size,
			Capacity:     len(w.entries),
		}
	}

	return status
}
