package monitor

import (
	"context"
	"sync"
	"time"

	eventv1 "github.com/muhammadchandra19/tickstream/internal/domain/event/v1"
	monitorv1 "github.com/muhammadchandra19/tickstream/internal/domain/monitor/v1"
	recordv1 "github.com/muhammadchandra19/tickstream/internal/domain/record/v1"
	"github.com/muhammadchandra19/tickstream/pkg/logger"
)

// pollTimeout bounds a single store query so a hung store never wedges
// the poll loop.
const pollTimeout = 5 * time.Second

// Monitor polls the record store until the distinct-symbol count crosses
// the readiness threshold, then latches. The latch is sticky for the
// process lifetime: later polls refresh the count but never unlatch.
type Monitor struct {
	repo      recordv1.Repository
	events    eventv1.Publisher
	logger    logger.Interface
	threshold int
	interval  time.Duration

	mu      sync.RWMutex
	status  monitorv1.ReadinessStatus
	readyCh chan struct{}
}

// NewMonitor creates a Monitor. Ready() fires once the threshold is
// first crossed.
func NewMonitor(repo recordv1.Repository, events eventv1.Publisher, log logger.Interface, threshold int, interval time.Duration) *Monitor {
	return &Monitor{
		repo:      repo,
		events:    events,
		logger:    log,
		threshold: threshold,
		interval:  interval,
		status: monitorv1.ReadinessStatus{
			Threshold: threshold,
		},
		readyCh: make(chan struct{}),
	}
}

// Run polls on the configured interval until the context is done. An
// immediate first poll avoids waiting a full interval at startup.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Poll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Poll(ctx)
		}
	}
}

// Poll queries the store once and updates the readiness status. Poll
// errors are recorded and logged but never change the latch state.
func (m *Monitor) Poll(ctx context.Context) monitorv1.ReadinessStatus {
	pollCtx, cancel := context.WithTimeout(ctx, pollTimeout)
	count, err := m.repo.CountDistinctSymbols(pollCtx)
	cancel()

	m.mu.Lock()
	m.status.LastPollAt = time.Now().UTC()
	if err != nil {
		m.status.LastError = err.Error()
		status := m.status
		m.mu.Unlock()

		m.logger.Error(err, logger.Field{Key: "component", Value: "readiness_monitor"})
		return status
	}

	m.status.LastError = ""
	m.status.SymbolCount = count

	latched := false
	if !m.status.Ready && count >= m.threshold {
		now := time.Now().UTC()
		m.status.Ready = true
		m.status.LatchedAt = &now
		latched = true
		close(m.readyCh)
	}
	status := m.status
	m.mu.Unlock()

	if latched {
		m.announce(ctx, count)
	}
	return status
}

// announce broadcasts that the threshold was crossed and streaming may
// begin. Publish failures are logged; the latch already happened.
func (m *Monitor) announce(ctx context.Context, count int) {
	m.logger.Info("readiness threshold reached",
		logger.Field{Key: "symbolCount", Value: count},
		logger.Field{Key: "threshold", Value: m.threshold},
	)

	payload := map[string]any{
		"symbol_count": count,
		"threshold":    m.threshold,
	}
	for _, eventType := range []eventv1.Type{eventv1.TypeDataThresholdReached, eventv1.TypeStreamingReady} {
		if err := m.events.Publish(ctx, eventv1.NewEvent(eventType, eventv1.SourceDriver, payload)); err != nil {
			m.logger.Error(err, logger.Field{Key: "eventType", Value: string(eventType)})
		}
	}
}

// Ready returns a channel closed when the readiness latch first fires.
func (m *Monitor) Ready() <-chan struct{} {
	return m.readyCh
}

// Status returns the current readiness snapshot.
func (m *Monitor) Status() monitorv1.ReadinessStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}
