package generator

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	eventv1 "github.com/muhammadchandra19/tickstream/internal/domain/event/v1"
	generatorv1 "github.com/muhammadchandra19/tickstream/internal/domain/generator/v1"
	metricsv1 "github.com/muhammadchandra19/tickstream/internal/domain/metrics/v1"
	tickv1 "github.com/muhammadchandra19/tickstream/internal/domain/tick/v1"
	"github.com/muhammadchandra19/tickstream/pkg/logger"
	"github.com/muhammadchandra19/tickstream/pkg/queue"
)

// tickEventSampleEvery throttles tick_generated broadcasts to one per N
// emission cycles so the event bus is not flooded at tick cadence.
const tickEventSampleEvery = 100

// Config tunes the emission cadence and random walk.
type Config struct {
	TickInterval time.Duration
	PriceEpsilon float64
	MinPrice     float64
	InitialPrice float64
	Volume       int64
	EnqueueWait  time.Duration
}

// Generator emits synthetic ticks for a fixed symbol set on a steady
// cadence. It idles until armed, streams until the context ends, and
// then stops for good: Stopped is terminal for the process lifetime.
type Generator struct {
	cfg      Config
	queue    *queue.Queue[tickv1.Tick]
	clock    generatorv1.Clock
	rand     generatorv1.Rand
	observer metricsv1.Observer
	events   eventv1.Publisher
	logger   logger.Interface

	mu        sync.RWMutex
	state     generatorv1.State
	symbols   []string
	lastPrice map[string]float64
	sequence  map[string]uint64
	armedCh   chan struct{}

	// cycles is only touched by the Run goroutine.
	cycles uint64

	emitted atomic.Uint64
	dropped atomic.Uint64
}

// NewGenerator creates an idle Generator writing into q.
func NewGenerator(cfg Config, q *queue.Queue[tickv1.Tick], clock generatorv1.Clock, rnd generatorv1.Rand, observer metricsv1.Observer, events eventv1.Publisher, log logger.Interface) *Generator {
	return &Generator{
		cfg:       cfg,
		queue:     q,
		clock:     clock,
		rand:      rnd,
		observer:  observer,
		events:    events,
		logger:    log,
		state:     generatorv1.StateIdle,
		lastPrice: make(map[string]float64),
		sequence:  make(map[string]uint64),
		armedCh:   make(chan struct{}),
	}
}

// Arm freezes the symbol set and releases the emission loop. Arming is
// idempotent and only transitions out of Idle; a stopped generator
// never restarts.
func (g *Generator) Arm(symbols []string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != generatorv1.StateIdle {
		return
	}

	g.state = generatorv1.StateArmed
	g.symbols = append([]string(nil), symbols...)
	for _, symbol := range symbols {
		g.lastPrice[symbol] = g.cfg.InitialPrice
	}
	close(g.armedCh)

	g.logger.Info("generator armed",
		logger.Field{Key: "symbols", Value: symbols},
		logger.Field{Key: "tickInterval", Value: g.cfg.TickInterval.String()},
	)
}

// Run blocks until armed, then emits one tick per armed symbol every
// TickInterval until the context is done.
func (g *Generator) Run(ctx context.Context) {
	select {
	case <-ctx.Done():
		g.stop(ctx)
		return
	case <-g.armedCh:
	}

	g.mu.Lock()
	g.state = generatorv1.StateStreaming
	symbols := g.symbols
	g.mu.Unlock()

	g.publishLifecycle(ctx, eventv1.TypeStreamingStarted, map[string]any{
		"symbols": symbols,
	})
	g.logger.Info("streaming started", logger.Field{Key: "symbols", Value: symbols})

	ticker := g.clock.NewTicker(g.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			g.stop(ctx)
			return
		case <-ticker.C():
			g.cycle(ctx, symbols)
		}
	}
}

// cycle emits one tick per symbol. The queue is given a bounded window
// to make room; a tick that still cannot be enqueued is dropped and
// counted, never blocking the cadence indefinitely.
func (g *Generator) cycle(ctx context.Context, symbols []string) {
	for _, symbol := range symbols {
		t := g.nextTick(symbol)

		err := g.queue.TryPublish(t)
		if err != nil {
			err = g.queue.PublishWait(ctx, t, g.cfg.EnqueueWait)
		}
		if err != nil {
			g.dropped.Add(1)
			g.observer.TickDropped(1)
			g.logger.Warn("tick dropped, delivery queue full",
				logger.Field{Key: "symbol", Value: symbol},
				logger.Field{Key: "sequence", Value: t.Sequence},
			)
			continue
		}

		g.emitted.Add(1)
		g.observer.TickGenerated(1)
	}

	g.cycles++
	if g.cycles%tickEventSampleEvery == 0 {
		payload := map[string]any{
			"cycles":  g.cycles,
			"emitted": g.emitted.Load(),
			"dropped": g.dropped.Load(),
		}
		// off the cadence goroutine so a slow bus never delays emission
		go g.publishLifecycle(ctx, eventv1.TypeTickGenerated, payload)
	}
}

// nextTick advances the symbol's random walk and sequence.
func (g *Generator) nextTick(symbol string) tickv1.Tick {
	g.mu.Lock()
	defer g.mu.Unlock()

	last := g.lastPrice[symbol]
	if last == 0 {
		last = g.cfg.InitialPrice
	}

	// uniform perturbation in [-epsilon, +epsilon], clamped at the floor
	delta := (g.rand.Float64()*2 - 1) * g.cfg.PriceEpsilon
	price := last * (1 + delta)
	if price < g.cfg.MinPrice {
		price = g.cfg.MinPrice
	}
	g.lastPrice[symbol] = price

	g.sequence[symbol]++

	return tickv1.Tick{
		Symbol:      symbol,
		Sequence:    g.sequence[symbol],
		Price:       price,
		Volume:      g.cfg.Volume,
		GeneratedAt: g.clock.Now(),
	}
}

func (g *Generator) stop(ctx context.Context) {
	g.mu.Lock()
	alreadyStopped := g.state == generatorv1.StateStopped
	wasStreaming := g.state == generatorv1.StateStreaming
	g.state = generatorv1.StateStopped
	g.mu.Unlock()

	if alreadyStopped {
		return
	}

	if wasStreaming {
		g.publishLifecycle(ctx, eventv1.TypeStreamingStopped, map[string]any{
			"emitted": g.emitted.Load(),
			"dropped": g.dropped.Load(),
		})
	}

	g.logger.Info("generator stopped",
		logger.Field{Key: "emitted", Value: g.emitted.Load()},
		logger.Field{Key: "dropped", Value: g.dropped.Load()},
	)
}

// publishLifecycle broadcasts a lifecycle event on a detached context so
// shutdown announcements survive the pipeline context being canceled.
func (g *Generator) publishLifecycle(ctx context.Context, eventType eventv1.Type, payload map[string]any) {
	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	if err := g.events.Publish(publishCtx, eventv1.NewEvent(eventType, eventv1.SourceDriver, payload)); err != nil {
		g.logger.Error(err, logger.Field{Key: "eventType", Value: string(eventType)})
	}
}

// State returns the current lifecycle state.
func (g *Generator) State() generatorv1.State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

// Stats returns cumulative counters and per-symbol sequences.
func (g *Generator) Stats() generatorv1.Stats {
	g.mu.RLock()
	defer g.mu.RUnlock()

	sequences := make(map[string]uint64, len(g.sequence))
	for symbol, seq := range g.sequence {
		sequences[symbol] = seq
	}

	return generatorv1.Stats{
		State:     g.state,
		Emitted:   g.emitted.Load(),
		Dropped:   g.dropped.Load(),
		Sequences: sequences,
	}
}
