package generator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	event_mock "github.com/muhammadchandra19/tickstream/internal/domain/event/mock"
	eventv1 "github.com/muhammadchandra19/tickstream/internal/domain/event/v1"
	generatorv1 "github.com/muhammadchandra19/tickstream/internal/domain/generator/v1"
	metricsv1 "github.com/muhammadchandra19/tickstream/internal/domain/metrics/v1"
	tickv1 "github.com/muhammadchandra19/tickstream/internal/domain/tick/v1"
	logger_mock "github.com/muhammadchandra19/tickstream/pkg/logger/mock"
	"github.com/muhammadchandra19/tickstream/pkg/queue"
)

type fakeClock struct {
	now   time.Time
	tickC chan time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{
		now:   time.Date(2026, 1, 2, 9, 30, 0, 0, time.UTC),
		tickC: make(chan time.Time),
	}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) NewTicker(time.Duration) generatorv1.Ticker { return c }

func (c *fakeClock) C() <-chan time.Time { return c.tickC }

func (c *fakeClock) Stop() {}

func (c *fakeClock) tick() { c.tickC <- c.now }

// fixedRand yields Float64 values from a fixed cycle.
type fixedRand struct {
	values []float64
	idx    int
}

func (r *fixedRand) Float64() float64 {
	v := r.values[r.idx%len(r.values)]
	r.idx++
	return v
}

func testConfig() Config {
	return Config{
		TickInterval: 100 * time.Millisecond,
		PriceEpsilon: 0.005,
		MinPrice:     0.01,
		InitialPrice: 100.0,
		Volume:       1_000_000,
		EnqueueWait:  time.Millisecond,
	}
}

func newTestGenerator(t *testing.T, cfg Config, q *queue.Queue[tickv1.Tick], clock generatorv1.Clock, rnd generatorv1.Rand) (*Generator, *event_mock.MockPublisher) {
	ctrl := gomock.NewController(t)
	events := event_mock.NewMockPublisher(ctrl)
	log := logger_mock.NewMockInterface(ctrl)
	log.EXPECT().Info(gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().Info(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().Warn(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().Error(gomock.Any(), gomock.Any()).AnyTimes()
	return NewGenerator(cfg, q, clock, rnd, metricsv1.NopObserver{}, events, log), events
}

func TestGenerator_Arm(t *testing.T) {
	q := queue.New[tickv1.Tick](16)
	g, _ := newTestGenerator(t, testConfig(), q, newFakeClock(), &fixedRand{values: []float64{0.5}})

	assert.Equal(t, generatorv1.StateIdle, g.State())

	g.Arm([]string{"AAPL", "MSFT"})
	assert.Equal(t, generatorv1.StateArmed, g.State())

	// arming again is a no-op
	g.Arm([]string{"TSLA"})
	stats := g.Stats()
	assert.Equal(t, generatorv1.StateArmed, stats.State)
}

func TestGenerator_Run(t *testing.T) {
	clock := newFakeClock()
	q := queue.New[tickv1.Tick](64)
	g, events := newTestGenerator(t, testConfig(), q, clock, &fixedRand{values: []float64{0.5}})

	events.EXPECT().Publish(gomock.Any(), gomock.AssignableToTypeOf(eventv1.Event{})).DoAndReturn(
		func(_ context.Context, event eventv1.Event) error {
			assert.Equal(t, eventv1.TypeStreamingStarted, event.Type)
			return nil
		})
	events.EXPECT().Publish(gomock.Any(), gomock.AssignableToTypeOf(eventv1.Event{})).DoAndReturn(
		func(_ context.Context, event eventv1.Event) error {
			assert.Equal(t, eventv1.TypeStreamingStopped, event.Type)
			return nil
		})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		g.Run(ctx)
		close(done)
	}()

	g.Arm([]string{"AAPL", "GOOGL"})
	clock.tick()
	clock.tick()

	// two cycles over two symbols
	require.Eventually(t, func() bool { return g.Stats().Emitted == 4 }, time.Second, time.Millisecond)
	assert.Equal(t, generatorv1.StateStreaming, g.State())

	ticks := make([]tickv1.Tick, 0, 4)
	for i := 0; i < 4; i++ {
		ticks = append(ticks, <-q.C())
	}
	assert.Equal(t, uint64(1), ticks[0].Sequence)
	assert.Equal(t, "AAPL", ticks[0].Symbol)
	assert.Equal(t, uint64(1), ticks[1].Sequence)
	assert.Equal(t, "GOOGL", ticks[1].Symbol)
	assert.Equal(t, uint64(2), ticks[2].Sequence)
	assert.Equal(t, int64(1_000_000), ticks[0].Volume)
	// Float64()==0.5 is a zero perturbation, so the walk holds at the start price
	assert.InDelta(t, 100.0, ticks[0].Price, 1e-9)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("generator did not stop")
	}
	assert.Equal(t, generatorv1.StateStopped, g.State())
}

func TestGenerator_PriceWalk(t *testing.T) {
	clock := newFakeClock()
	q := queue.New[tickv1.Tick](16)
	// always the maximum downward perturbation
	g, events := newTestGenerator(t, Config{
		TickInterval: time.Millisecond,
		PriceEpsilon: 0.5,
		MinPrice:     0.01,
		InitialPrice: 0.02,
		Volume:       1,
		EnqueueWait:  time.Millisecond,
	}, q, clock, &fixedRand{values: []float64{0.0}})
	events.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	g.Arm([]string{"AAPL"})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go g.Run(ctx)

	clock.tick()
	first := <-q.C()
	assert.InDelta(t, 0.01, first.Price, 1e-9)

	clock.tick()
	second := <-q.C()
	// already at the floor, stays clamped
	assert.InDelta(t, 0.01, second.Price, 1e-9)
}

func TestGenerator_DropsWhenQueueFull(t *testing.T) {
	clock := newFakeClock()
	q := queue.New[tickv1.Tick](1)
	g, events := newTestGenerator(t, testConfig(), q, clock, &fixedRand{values: []float64{0.5}})
	events.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	g.Arm([]string{"AAPL", "GOOGL", "MSFT"})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go g.Run(ctx)

	clock.tick()
	require.Eventually(t, func() bool {
		stats := g.Stats()
		return stats.Emitted+stats.Dropped == 3
	}, time.Second, time.Millisecond)

	stats := g.Stats()
	assert.Equal(t, uint64(1), stats.Emitted)
	assert.Equal(t, uint64(2), stats.Dropped)
	// dropped ticks still consume sequence numbers
	assert.Equal(t, uint64(1), stats.Sequences["MSFT"])
}
