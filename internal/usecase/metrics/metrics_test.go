package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	metricsv1 "github.com/muhammadchandra19/tickstream/internal/domain/metrics/v1"
	logger_mock "github.com/muhammadchandra19/tickstream/pkg/logger/mock"
)

func newTestAggregator(t *testing.T, windowSeconds int) *Aggregator {
	ctrl := gomock.NewController(t)
	return NewAggregator(windowSeconds, time.Second, prometheus.NewRegistry(), logger_mock.NewMockInterface(ctrl))
}

func TestAggregator_Refresh(t *testing.T) {
	testCases := []struct {
		name     string
		observe  func(a *Aggregator)
		assertFn func(t *testing.T, snapshot metricsv1.Snapshot)
	}{
		{
			name:    "empty window is healthy",
			observe: func(a *Aggregator) {},
			assertFn: func(t *testing.T, snapshot metricsv1.Snapshot) {
				assert.Equal(t, metricsv1.Healthy, snapshot.Overall)
				assert.Zero(t, snapshot.ThroughputPerSec)
				assert.Zero(t, snapshot.ErrorRate)
			},
		},
		{
			name: "clean run grades healthy with throughput",
			observe: func(a *Aggregator) {
				for i := 0; i < 100; i++ {
					a.TickGenerated(1)
					a.TickAccepted(0.001)
					a.TickForwarded(0.002)
				}
			},
			assertFn: func(t *testing.T, snapshot metricsv1.Snapshot) {
				assert.Equal(t, metricsv1.Healthy, snapshot.Overall)
				assert.Equal(t, uint64(100), snapshot.Counters.Forwarded)
				assert.Equal(t, 100.0, snapshot.ThroughputPerSec)
				assert.InDelta(t, 2.0, snapshot.AvgLatencyMs, 0.01)
			},
		},
		{
			name: "drop rate above five percent degrades the generator",
			observe: func(a *Aggregator) {
				a.TickGenerated(90)
				a.TickDropped(10)
			},
			assertFn: func(t *testing.T, snapshot metricsv1.Snapshot) {
				assert.Equal(t, metricsv1.Degraded, snapshot.Components[ComponentGenerator].Level)
				assert.Equal(t, metricsv1.Degraded, snapshot.Overall)
			},
		},
		{
			name: "permanent failures above fifteen percent are unhealthy",
			observe: func(a *Aggregator) {
				for i := 0; i < 80; i++ {
					a.TickForwarded(0.001)
				}
				for i := 0; i < 20; i++ {
					a.PermanentFailure()
				}
			},
			assertFn: func(t *testing.T, snapshot metricsv1.Snapshot) {
				forwarder := snapshot.Components[ComponentForwarder]
				assert.Equal(t, metricsv1.Unhealthy, forwarder.Level)
				assert.InDelta(t, 0.2, forwarder.ErrorRate, 1e-9)
				assert.Equal(t, metricsv1.Unhealthy, snapshot.Overall)
			},
		},
		{
			name: "rejections surface on the buffer component",
			observe: func(a *Aggregator) {
				for i := 0; i < 50; i++ {
					a.TickAccepted(0.001)
				}
				for i := 0; i < 50; i++ {
					a.TickRejected()
				}
				a.SequenceResync()
			},
			assertFn: func(t *testing.T, snapshot metricsv1.Snapshot) {
				assert.Equal(t, metricsv1.Unhealthy, snapshot.Components[ComponentBuffer].Level)
				assert.Equal(t, uint64(1), snapshot.Counters.Resyncs)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a := newTestAggregator(t, 60)
			tc.observe(a)
			tc.assertFn(t, a.Refresh())
		})
	}
}

func TestAggregator_TrailingWindow(t *testing.T) {
	a := newTestAggregator(t, 3)

	a.TickForwarded(0.001)
	a.Refresh()

	// counters observed in old buckets age out of the window
	a.Refresh()
	a.Refresh()
	snapshot := a.Refresh()

	assert.Zero(t, snapshot.ThroughputPerSec)
	// cumulative counters never age out
	assert.Equal(t, uint64(1), snapshot.Counters.Forwarded)
}

func TestAggregator_Snapshot(t *testing.T) {
	a := newTestAggregator(t, 60)

	// before any refresh, Snapshot computes one on demand
	first := a.Snapshot()
	assert.Equal(t, metricsv1.Healthy, first.Overall)

	a.TickGenerated(5)
	refreshed := a.Refresh()
	got := a.Snapshot()
	assert.Equal(t, refreshed.Counters.Generated, got.Counters.Generated)
	assert.Equal(t, uint64(5), got.Counters.Generated)
}
