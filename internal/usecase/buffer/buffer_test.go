package buffer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	bufferv1 "github.com/muhammadchandra19/tickstream/internal/domain/buffer/v1"
	metricsv1 "github.com/muhammadchandra19/tickstream/internal/domain/metrics/v1"
	tickv1 "github.com/muhammadchandra19/tickstream/internal/domain/tick/v1"
	logger_mock "github.com/muhammadchandra19/tickstream/pkg/logger/mock"
)

func newTick(symbol string, seq uint64) tickv1.Tick {
	return tickv1.Tick{
		Symbol:      symbol,
		Sequence:    seq,
		Price:       100.0,
		Volume:      1_000_000,
		GeneratedAt: time.Now(),
	}
}

func newTestBuffer(t *testing.T, capacity, resyncAfter int) *Buffer {
	ctrl := gomock.NewController(t)
	log := logger_mock.NewMockInterface(ctrl)
	log.EXPECT().Warn(gomock.Any(), gomock.Any()).AnyTimes()
	return NewBuffer(capacity, resyncAfter, metricsv1.NopObserver{}, log)
}

func TestBuffer_Ingest(t *testing.T) {
	testCases := []struct {
		name     string
		seqs     []uint64
		assertFn func(t *testing.T, b *Buffer, errs []error)
	}{
		{
			name: "accepts contiguous sequences",
			seqs: []uint64{1, 2, 3},
			assertFn: func(t *testing.T, b *Buffer, errs []error) {
				for _, err := range errs {
					assert.NoError(t, err)
				}
				status := b.Status()
				assert.Equal(t, uint64(3), status.TotalAccepted)
				assert.Equal(t, uint64(0), status.TotalRejected)
				assert.Equal(t, uint64(3), status.Symbols["AAPL"].LastSequence)
			},
		},
		{
			name: "first tick opens window at any sequence",
			seqs: []uint64{42, 43},
			assertFn: func(t *testing.T, b *Buffer, errs []error) {
				assert.NoError(t, errs[0])
				assert.NoError(t, errs[1])
				assert.Equal(t, uint64(43), b.Status().Symbols["AAPL"].LastSequence)
			},
		},
		{
			name: "rejects duplicate without advancing",
			seqs: []uint64{1, 2, 2},
			assertFn: func(t *testing.T, b *Buffer, errs []error) {
				assert.Error(t, errs[2])
				status := b.Status()
				assert.Equal(t, uint64(2), status.Symbols["AAPL"].LastSequence)
				assert.Equal(t, uint64(1), status.TotalRejected)
			},
		},
		{
			name: "rejects stale sequence",
			seqs: []uint64{5, 6, 3},
			assertFn: func(t *testing.T, b *Buffer, errs []error) {
				assert.Error(t, errs[2])
				assert.Equal(t, uint64(6), b.Status().Symbols["AAPL"].LastSequence)
			},
		},
		{
			name: "resyncs after repeated gap rejections",
			seqs: []uint64{1, 2, 10, 11, 12},
			assertFn: func(t *testing.T, b *Buffer, errs []error) {
				// gaps 10 and 11 rejected, third gap re-synchronizes
				assert.Error(t, errs[2])
				assert.Error(t, errs[3])
				assert.NoError(t, errs[4])
				status := b.Status()
				assert.Equal(t, uint64(1), status.TotalResyncs)
				assert.Equal(t, uint64(12), status.Symbols["AAPL"].LastSequence)
				// window restarted at the resynchronized sequence
				assert.Equal(t, 1, status.Symbols["AAPL"].Occupancy)
			},
		},
		{
			name: "duplicate does not count toward resync",
			seqs: []uint64{1, 5, 1, 5, 5},
			assertFn: func(t *testing.T, b *Buffer, errs []error) {
				// only the two gap attempts (seq 5) count; stale seq 1 resets nothing
				// but also does not accumulate, so no resync yet after two gaps
				assert.Error(t, errs[1])
				assert.Error(t, errs[2])
				assert.Error(t, errs[3])
				assert.NoError(t, errs[4])
				assert.Equal(t, uint64(1), b.Status().TotalResyncs)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b := newTestBuffer(t, 1000, 3)
			errs := make([]error, 0, len(tc.seqs))
			for _, seq := range tc.seqs {
				errs = append(errs, b.Ingest(newTick("AAPL", seq)))
			}
			tc.assertFn(t, b, errs)
		})
	}
}

func TestBuffer_Eviction(t *testing.T) {
	b := newTestBuffer(t, 3, 3)
	for seq := uint64(1); seq <= 5; seq++ {
		assert.NoError(t, b.Ingest(newTick("AAPL", seq)))
	}

	status := b.Status().Symbols["AAPL"]
	assert.Equal(t, 3, status.Occupancy)
	assert.Equal(t, uint64(5), status.LastSequence)

	ticks := b.Recent("AAPL", 10)
	assert.Len(t, ticks, 3)
	assert.Equal(t, uint64(3), ticks[0].Sequence)
	assert.Equal(t, uint64(5), ticks[2].Sequence)
}

func TestBuffer_Recent(t *testing.T) {
	b := newTestBuffer(t, 1000, 3)
	for seq := uint64(1); seq <= 10; seq++ {
		assert.NoError(t, b.Ingest(newTick("MSFT", seq)))
	}

	testCases := []struct {
		name     string
		symbol   string
		limit    int
		assertFn func(t *testing.T, ticks []tickv1.Tick)
	}{
		{
			name:   "ascending tail of the window",
			symbol: "MSFT",
			limit:  4,
			assertFn: func(t *testing.T, ticks []tickv1.Tick) {
				assert.Len(t, ticks, 4)
				assert.Equal(t, uint64(7), ticks[0].Sequence)
				assert.Equal(t, uint64(10), ticks[3].Sequence)
			},
		},
		{
			name:   "limit above occupancy returns everything",
			symbol: "MSFT",
			limit:  100,
			assertFn: func(t *testing.T, ticks []tickv1.Tick) {
				assert.Len(t, ticks, 10)
			},
		},
		{
			name:   "unknown symbol returns nil",
			symbol: "NOPE",
			limit:  5,
			assertFn: func(t *testing.T, ticks []tickv1.Tick) {
				assert.Nil(t, ticks)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tc.assertFn(t, b.Recent(tc.symbol, tc.limit))
		})
	}
}

func TestBuffer_ForwardCursor(t *testing.T) {
	b := newTestBuffer(t, 3, 3)

	_, ok := b.NextPending("AAPL")
	assert.False(t, ok)

	for seq := uint64(1); seq <= 3; seq++ {
		assert.NoError(t, b.Ingest(newTick("AAPL", seq)))
	}

	entry, ok := b.NextPending("AAPL")
	assert.True(t, ok)
	assert.Equal(t, uint64(1), entry.Tick.Sequence)
	assert.Equal(t, bufferv1.ForwardPending, entry.State())

	assert.True(t, entry.MarkForwarded())
	b.Advance("AAPL", entry.Tick.Sequence)

	entry, ok = b.NextPending("AAPL")
	assert.True(t, ok)
	assert.Equal(t, uint64(2), entry.Tick.Sequence)

	// eviction drags a lagging cursor forward to the oldest retained entry
	for seq := uint64(4); seq <= 6; seq++ {
		assert.NoError(t, b.Ingest(newTick("AAPL", seq)))
	}
	entry, ok = b.NextPending("AAPL")
	assert.True(t, ok)
	assert.Equal(t, uint64(4), entry.Tick.Sequence)

	// cursor past the newest entry means nothing is pending
	for seq := uint64(4); seq <= 6; seq++ {
		b.Advance("AAPL", seq)
	}
	_, ok = b.NextPending("AAPL")
	assert.False(t, ok)
}

func TestBuffer_ResyncDuringInflight(t *testing.T) {
	b := newTestBuffer(t, 16, 3)
	assert.NoError(t, b.Ingest(newTick("AAPL", 1)))

	// the forwarder holds sequence 1 while a gap resyncs the window
	inflight, ok := b.NextPending("AAPL")
	assert.True(t, ok)
	assert.Equal(t, uint64(1), inflight.Tick.Sequence)

	assert.Error(t, b.Ingest(newTick("AAPL", 5)))
	assert.Error(t, b.Ingest(newTick("AAPL", 5)))
	assert.NoError(t, b.Ingest(newTick("AAPL", 5)))

	assert.True(t, inflight.MarkForwarded())
	b.Advance("AAPL", inflight.Tick.Sequence)

	// the resynced cursor wins: sequence 5 is still pending, not skipped
	next, ok := b.NextPending("AAPL")
	assert.True(t, ok)
	assert.Equal(t, uint64(5), next.Tick.Sequence)

	assert.True(t, next.MarkForwarded())
	b.Advance("AAPL", next.Tick.Sequence)
	_, ok = b.NextPending("AAPL")
	assert.False(t, ok)
}

func TestBuffer_AdvanceAfterEvictionDrag(t *testing.T) {
	b := newTestBuffer(t, 2, 3)
	for seq := uint64(1); seq <= 2; seq++ {
		assert.NoError(t, b.Ingest(newTick("AAPL", seq)))
	}

	inflight, ok := b.NextPending("AAPL")
	assert.True(t, ok)
	assert.Equal(t, uint64(1), inflight.Tick.Sequence)

	// sequence 1 is evicted while in flight, dragging the cursor to 2
	assert.NoError(t, b.Ingest(newTick("AAPL", 3)))

	assert.True(t, inflight.MarkForwarded())
	b.Advance("AAPL", inflight.Tick.Sequence)

	next, ok := b.NextPending("AAPL")
	assert.True(t, ok)
	assert.Equal(t, uint64(2), next.Tick.Sequence)
}
