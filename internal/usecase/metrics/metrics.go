package metrics

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	metricsv1 "github.com/muhammadchandra19/tickstream/internal/domain/metrics/v1"
	"github.com/muhammadchandra19/tickstream/pkg/logger"
)

const namespace = "tickstream"

// component names used in snapshots.
const (
	ComponentGenerator = "generator"
	ComponentBuffer    = "buffer"
	ComponentForwarder = "forwarder"
)

// Aggregator implements the pipeline Observer with lock-free atomic
// counters on the hot path. A background refresh loop samples the
// counters once per second into a trailing ring of per-second buckets
// and rebuilds the published snapshot from that window.
type Aggregator struct {
	windowSeconds int
	refresh       time.Duration
	logger        logger.Interface

	generated         atomic.Uint64
	dropped           atomic.Uint64
	accepted          atomic.Uint64
	rejected          atomic.Uint64
	resyncs           atomic.Uint64
	forwarded         atomic.Uint64
	forwardFailures   atomic.Uint64
	permanentFailures atomic.Uint64
	forwardLatMicros  atomic.Uint64

	mu      sync.Mutex
	buckets []sample
	next    int
	filled  int
	prev    sample

	snapshot atomic.Pointer[metricsv1.Snapshot]

	prom promCollectors
}

// sample is either a cumulative counter reading or a per-second delta.
type sample struct {
	generated         uint64
	dropped           uint64
	accepted          uint64
	rejected          uint64
	forwarded         uint64
	forwardFailures   uint64
	permanentFailures uint64
	forwardLatMicros  uint64
}

type promCollectors struct {
	generated         prometheus.Counter
	dropped           prometheus.Counter
	accepted          prometheus.Counter
	rejected          prometheus.Counter
	resyncs           prometheus.Counter
	forwarded         prometheus.Counter
	forwardFailures   prometheus.Counter
	permanentFailures prometheus.Counter
	acceptLatency     prometheus.Histogram
	forwardLatency    prometheus.Histogram
	throughput        prometheus.Gauge
	avgLatencyMs      prometheus.Gauge
	errorRate         prometheus.Gauge
}

// NewAggregator creates an Aggregator sampling every refresh interval
// over a trailing window of windowSeconds. Collectors register on reg.
func NewAggregator(windowSeconds int, refresh time.Duration, reg prometheus.Registerer, log logger.Interface) *Aggregator {
	if windowSeconds <= 0 {
		windowSeconds = 60
	}
	if refresh <= 0 {
		refresh = time.Second
	}

	factory := promauto.With(reg)
	a := &Aggregator{
		windowSeconds: windowSeconds,
		refresh:       refresh,
		logger:        log,
		buckets:       make([]sample, windowSeconds),
		prom: promCollectors{
			generated: factory.NewCounter(prometheus.CounterOpts{
				Namespace: namespace, Name: "ticks_generated_total",
				Help: "Ticks emitted by the generator.",
			}),
			dropped: factory.NewCounter(prometheus.CounterOpts{
				Namespace: namespace, Name: "ticks_dropped_total",
				Help: "Ticks rejected by a full delivery queue.",
			}),
			accepted: factory.NewCounter(prometheus.CounterOpts{
				Namespace: namespace, Name: "ticks_accepted_total",
				Help: "Ticks accepted into the stream buffer.",
			}),
			rejected: factory.NewCounter(prometheus.CounterOpts{
				Namespace: namespace, Name: "ticks_rejected_total",
				Help: "Ticks rejected as sequence anomalies.",
			}),
			resyncs: factory.NewCounter(prometheus.CounterOpts{
				Namespace: namespace, Name: "buffer_resyncs_total",
				Help: "Stream buffer sequence resynchronizations.",
			}),
			forwarded: factory.NewCounter(prometheus.CounterOpts{
				Namespace: namespace, Name: "ticks_forwarded_total",
				Help: "Ticks published to the downstream log.",
			}),
			forwardFailures: factory.NewCounter(prometheus.CounterOpts{
				Namespace: namespace, Name: "forward_failures_total",
				Help: "Failed publish attempts, including retried ones.",
			}),
			permanentFailures: factory.NewCounter(prometheus.CounterOpts{
				Namespace: namespace, Name: "forward_permanent_failures_total",
				Help: "Ticks abandoned after exhausting retries.",
			}),
			acceptLatency: factory.NewHistogram(prometheus.HistogramOpts{
				Namespace: namespace, Name: "accept_latency_seconds",
				Help:    "Generation-to-buffer latency.",
				Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
			}),
			forwardLatency: factory.NewHistogram(prometheus.HistogramOpts{
				Namespace: namespace, Name: "forward_latency_seconds",
				Help:    "Generation-to-publish latency.",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
			}),
			throughput: factory.NewGauge(prometheus.GaugeOpts{
				Namespace: namespace, Name: "throughput_per_sec",
				Help: "Forwarded ticks per second over the trailing window.",
			}),
			avgLatencyMs: factory.NewGauge(prometheus.GaugeOpts{
				Namespace: namespace, Name: "avg_latency_ms",
				Help: "Average forward latency over the trailing window.",
			}),
			errorRate: factory.NewGauge(prometheus.GaugeOpts{
				Namespace: namespace, Name: "error_rate",
				Help: "Error rate over the trailing window.",
			}),
		},
	}
	return a
}

// TickGenerated implements metricsv1.Observer.
func (a *Aggregator) TickGenerated(n int) {
	a.generated.Add(uint64(n))
	a.prom.generated.Add(float64(n))
}

// TickDropped implements metricsv1.Observer.
func (a *Aggregator) TickDropped(n int) {
	a.dropped.Add(uint64(n))
	a.prom.dropped.Add(float64(n))
}

// TickAccepted implements metricsv1.Observer.
func (a *Aggregator) TickAccepted(latencySeconds float64) {
	a.accepted.Add(1)
	a.prom.accepted.Inc()
	a.prom.acceptLatency.Observe(latencySeconds)
}

// TickRejected implements metricsv1.Observer.
func (a *Aggregator) TickRejected() {
	a.rejected.Add(1)
	a.prom.rejected.Inc()
}

// SequenceResync implements metricsv1.Observer.
func (a *Aggregator) SequenceResync() {
	a.resyncs.Add(1)
	a.prom.resyncs.Inc()
}

// TickForwarded implements metricsv1.Observer.
func (a *Aggregator) TickForwarded(endToEndSeconds float64) {
	a.forwarded.Add(1)
	a.forwardLatMicros.Add(uint64(endToEndSeconds * 1e6))
	a.prom.forwarded.Inc()
	a.prom.forwardLatency.Observe(endToEndSeconds)
}

// ForwardFailure implements metricsv1.Observer.
func (a *Aggregator) ForwardFailure() {
	a.forwardFailures.Add(1)
	a.prom.forwardFailures.Inc()
}

// PermanentFailure implements metricsv1.Observer.
func (a *Aggregator) PermanentFailure() {
	a.permanentFailures.Add(1)
	a.prom.permanentFailures.Inc()
}

// Run refreshes the snapshot on the configured interval until the
// context is done.
func (a *Aggregator) Run(ctx context.Context) {
	ticker := time.NewTicker(a.refresh)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.Refresh()
		}
	}
}

// Refresh samples the cumulative counters, rotates the trailing window
// and rebuilds the published snapshot.
func (a *Aggregator) Refresh() metricsv1.Snapshot {
	current := sample{
		generated:         a.generated.Load(),
		dropped:           a.dropped.Load(),
		accepted:          a.accepted.Load(),
		rejected:          a.rejected.Load(),
		forwarded:         a.forwarded.Load(),
		forwardFailures:   a.forwardFailures.Load(),
		permanentFailures: a.permanentFailures.Load(),
		forwardLatMicros:  a.forwardLatMicros.Load(),
	}

	a.mu.Lock()
	delta := sample{
		generated:         current.generated - a.prev.generated,
		dropped:           current.dropped - a.prev.dropped,
		accepted:          current.accepted - a.prev.accepted,
		rejected:          current.rejected - a.prev.rejected,
		forwarded:         current.forwarded - a.prev.forwarded,
		forwardFailures:   current.forwardFailures - a.prev.forwardFailures,
		permanentFailures: current.permanentFailures - a.prev.permanentFailures,
		forwardLatMicros:  current.forwardLatMicros - a.prev.forwardLatMicros,
	}
	a.prev = current

	a.buckets[a.next] = delta
	a.next = (a.next + 1) % len(a.buckets)
	if a.filled < len(a.buckets) {
		a.filled++
	}

	var window sample
	for i := 0; i < a.filled; i++ {
		b := a.buckets[i]
		window.generated += b.generated
		window.dropped += b.dropped
		window.accepted += b.accepted
		window.rejected += b.rejected
		window.forwarded += b.forwarded
		window.forwardFailures += b.forwardFailures
		window.permanentFailures += b.permanentFailures
		window.forwardLatMicros += b.forwardLatMicros
	}
	seconds := float64(a.filled) * a.refresh.Seconds()
	a.mu.Unlock()

	snapshot := a.build(window, seconds)
	a.snapshot.Store(&snapshot)

	a.prom.throughput.Set(snapshot.ThroughputPerSec)
	a.prom.avgLatencyMs.Set(snapshot.AvgLatencyMs)
	a.prom.errorRate.Set(snapshot.ErrorRate)

	return snapshot
}

// build grades each component over the window and assembles a snapshot.
func (a *Aggregator) build(window sample, seconds float64) metricsv1.Snapshot {
	components := map[string]metricsv1.ComponentHealth{
		ComponentGenerator: gradeComponent(window.generated+window.dropped, window.dropped),
		ComponentBuffer:    gradeComponent(window.accepted+window.rejected, window.rejected),
		ComponentForwarder: gradeComponent(window.forwarded+window.permanentFailures, window.permanentFailures),
	}

	overall := metricsv1.Healthy
	var processed, errors uint64
	for _, c := range components {
		processed += c.Processed
		errors += c.Errors
		if worse(c.Level, overall) {
			overall = c.Level
		}
	}

	snapshot := metricsv1.Snapshot{
		Timestamp:  time.Now().UTC(),
		Overall:    overall,
		Components: components,
		Counters: metricsv1.Counters{
			Generated:         a.generated.Load(),
			Dropped:           a.dropped.Load(),
			Accepted:          a.accepted.Load(),
			Rejected:          a.rejected.Load(),
			Resyncs:           a.resyncs.Load(),
			Forwarded:         a.forwarded.Load(),
			ForwardFailures:   a.forwardFailures.Load(),
			PermanentFailures: a.permanentFailures.Load(),
		},
	}

	if seconds > 0 {
		snapshot.ThroughputPerSec = float64(window.forwarded) / seconds
	}
	if window.forwarded > 0 {
		snapshot.AvgLatencyMs = float64(window.forwardLatMicros) / float64(window.forwarded) / 1000.0
	}
	if processed > 0 {
		snapshot.ErrorRate = float64(errors) / float64(processed)
	}

	return snapshot
}

func gradeComponent(processed, errors uint64) metricsv1.ComponentHealth {
	health := metricsv1.ComponentHealth{
		Processed: processed,
		Errors:    errors,
		Level:     metricsv1.Healthy,
	}
	if processed > 0 {
		health.ErrorRate = float64(errors) / float64(processed)
		health.Level = metricsv1.GradeErrorRate(health.ErrorRate)
	}
	return health
}

func worse(a, b metricsv1.HealthLevel) bool {
	rank := map[metricsv1.HealthLevel]int{
		metricsv1.Healthy:   0,
		metricsv1.Degraded:  1,
		metricsv1.Unhealthy: 2,
	}
	return rank[a] > rank[b]
}

// Snapshot returns the most recently published snapshot, computing one
// on demand before the first refresh.
func (a *Aggregator) Snapshot() metricsv1.Snapshot {
	if s := a.snapshot.Load(); s != nil {
		return *s
	}
	return a.Refresh()
}
