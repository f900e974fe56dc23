package pipeline

import (
	"context"
	"sync"
	"time"

	eventv1 "github.com/muhammadchandra19/tickstream/internal/domain/event/v1"
	generatorv1 "github.com/muhammadchandra19/tickstream/internal/domain/generator/v1"
	pipelinev1 "github.com/muhammadchandra19/tickstream/internal/domain/pipeline/v1"
	tickv1 "github.com/muhammadchandra19/tickstream/internal/domain/tick/v1"
	"github.com/muhammadchandra19/tickstream/internal/usecase/buffer"
	"github.com/muhammadchandra19/tickstream/internal/usecase/forwarder"
	"github.com/muhammadchandra19/tickstream/internal/usecase/generator"
	"github.com/muhammadchandra19/tickstream/internal/usecase/metrics"
	"github.com/muhammadchandra19/tickstream/internal/usecase/monitor"
	"github.com/muhammadchandra19/tickstream/pkg/logger"
	"github.com/muhammadchandra19/tickstream/pkg/queue"
	"github.com/muhammadchandra19/tickstream/pkg/util"
)

// Options tune pipeline pacing knobs that rarely change.
type Options struct {
	// StatusInterval paces the periodic system status broadcast.
	StatusInterval time.Duration
}

// DefaultOptions returns the production pacing defaults.
func DefaultOptions() Options {
	return Options{
		StatusInterval: 10 * time.Second,
	}
}

// Pipeline wires the readiness monitor, tick generator, delivery queue,
// stream buffer, forwarder and metrics aggregator into one process and
// owns their goroutine lifecycles.
type Pipeline struct {
	monitor    *monitor.Monitor
	generator  *generator.Generator
	buffer     *buffer.Buffer
	forwarder  *forwarder.Forwarder
	aggregator *metrics.Aggregator
	queue      *queue.Queue[tickv1.Tick]
	events     eventv1.Publisher
	subscriber eventv1.Subscriber
	logger     logger.Interface
	symbols    []string
	options    Options

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPipeline assembles a Pipeline from its components. symbols is the
// fixed set the generator streams once armed.
func NewPipeline(
	mon *monitor.Monitor,
	gen *generator.Generator,
	buf *buffer.Buffer,
	fwd *forwarder.Forwarder,
	agg *metrics.Aggregator,
	q *queue.Queue[tickv1.Tick],
	events eventv1.Publisher,
	subscriber eventv1.Subscriber,
	log logger.Interface,
	symbols []string,
) *Pipeline {
	return NewPipelineWithOptions(mon, gen, buf, fwd, agg, q, events, subscriber, log, symbols, DefaultOptions())
}

// NewPipelineWithOptions assembles a Pipeline with custom pacing.
func NewPipelineWithOptions(
	mon *monitor.Monitor,
	gen *generator.Generator,
	buf *buffer.Buffer,
	fwd *forwarder.Forwarder,
	agg *metrics.Aggregator,
	q *queue.Queue[tickv1.Tick],
	events eventv1.Publisher,
	subscriber eventv1.Subscriber,
	log logger.Interface,
	symbols []string,
	options Options,
) *Pipeline {
	return &Pipeline{
		monitor:    mon,
		generator:  gen,
		buffer:     buf,
		forwarder:  fwd,
		aggregator: agg,
		queue:      q,
		events:     events,
		subscriber: subscriber,
		logger:     log,
		symbols:    symbols,
		options:    options,
	}
}

// Start launches the worker goroutines. The generator idles until the
// readiness latch or a streaming_ready trigger arms it.
func (p *Pipeline) Start(ctx context.Context) error {
	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(6)
	go p.runMonitor()
	go p.runGenerator()
	go p.runReceiver()
	go p.runForwarder()
	go p.runAggregator()
	go p.runStatusBroadcast()

	if p.subscriber != nil {
		p.wg.Add(1)
		go p.runSubscriber()
	}

	p.wg.Add(1)
	go p.armOnReady()

	p.logger.Info("pipeline started",
		logger.Field{Key: "symbols", Value: p.symbols},
	)
	return nil
}

// Stop cancels the workers and waits for them to drain, bounded by ctx.
func (p *Pipeline) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("pipeline stopped gracefully")
		return nil
	case <-ctx.Done():
		p.logger.Warn("pipeline stop timeout exceeded")
		return ctx.Err()
	}
}

func (p *Pipeline) runMonitor() {
	defer p.wg.Done()
	p.monitor.Run(p.ctx)
}

func (p *Pipeline) runGenerator() {
	defer p.wg.Done()
	p.generator.Run(p.ctx)
}

// runReceiver moves ticks from the delivery queue into the stream
// buffer. Ingestion rejections are already counted by the buffer, so
// they only surface here at debug level.
func (p *Pipeline) runReceiver() {
	defer p.wg.Done()

	for {
		t, ok := p.queue.Dequeue(p.ctx)
		if !ok {
			if p.ctx.Err() != nil {
				p.drainQueue()
			}
			return
		}
		if err := p.buffer.Ingest(t); err != nil {
			p.logger.Debug("tick rejected at ingestion",
				logger.Field{Key: "symbol", Value: t.Symbol},
				logger.Field{Key: "sequence", Value: t.Sequence},
			)
		}
	}
}

// drainQueue ingests whatever the generator managed to enqueue before
// the queue observed shutdown, so accepted ticks are not stranded.
func (p *Pipeline) drainQueue() {
	for {
		t, ok := p.queue.TryDequeue()
		if !ok {
			return
		}
		_ = p.buffer.Ingest(t)
	}
}

func (p *Pipeline) runForwarder() {
	defer p.wg.Done()
	p.forwarder.Run(p.ctx, p.symbols)
}

func (p *Pipeline) runAggregator() {
	defer p.wg.Done()
	p.aggregator.Run(p.ctx)
}

// armOnReady arms the generator once the readiness latch fires.
func (p *Pipeline) armOnReady() {
	defer p.wg.Done()

	select {
	case <-p.ctx.Done():
	case <-p.monitor.Ready():
		p.generator.Arm(p.symbols)
	}
}

// runSubscriber consumes trigger events from the bus.
func (p *Pipeline) runSubscriber() {
	defer p.wg.Done()

	if err := p.subscriber.Run(p.ctx, p.handleEvent); err != nil && p.ctx.Err() == nil {
		p.logger.Error(err, logger.Field{Key: "component", Value: "event_subscriber"})
	}
}

// handleEvent reacts to bus triggers. Arming handlers are idempotent,
// so replayed or duplicated events are harmless.
func (p *Pipeline) handleEvent(ctx context.Context, event eventv1.Event) {
	p.logger.Debug("trigger event received",
		logger.Field{Key: "eventID", Value: util.GetEventID(ctx)},
		logger.Field{Key: "eventType", Value: string(event.Type)},
		logger.Field{Key: "source", Value: string(event.Source)},
	)

	switch event.Type {
	case eventv1.TypeStreamingReady, eventv1.TypeStreamingStarted:
		p.generator.Arm(p.symbols)
	case eventv1.TypeStockDataLoaded:
		// new upstream data may cross the threshold; poll immediately
		p.monitor.Poll(ctx)
	case eventv1.TypeStreamingStopped:
		if event.Source != eventv1.SourceDriver {
			p.cancel()
		}
	case eventv1.TypeHealthCheck:
		p.publishStatus(ctx, eventv1.TypeHealthCheck)
	}
}

// runStatusBroadcast publishes a periodic system status snapshot.
func (p *Pipeline) runStatusBroadcast() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.options.StatusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.publishStatus(p.ctx, eventv1.TypeSystemStatusUpdate)
		}
	}
}

func (p *Pipeline) publishStatus(ctx context.Context, eventType eventv1.Type) {
	snapshot := p.aggregator.Snapshot()
	payload := map[string]any{
		"overall":            string(snapshot.Overall),
		"throughput_per_sec": snapshot.ThroughputPerSec,
		"error_rate":         snapshot.ErrorRate,
		"generator_state":    string(p.generator.State()),
		"queue_len":          p.queue.Len(),
	}

	if err := p.events.Publish(ctx, eventv1.NewEvent(eventType, eventv1.SourceSystem, payload)); err != nil {
		p.logger.Error(err, logger.Field{Key: "eventType", Value: string(eventType)})
	}
}

// Status assembles the process-wide view for the operational surface.
func (p *Pipeline) Status() pipelinev1.Status {
	genStats := p.generator.Stats()
	return pipelinev1.Status{
		Armed:     genStats.State != generatorv1.StateIdle,
		Readiness: p.monitor.Status(),
		Generator: genStats,
		Buffer:    p.buffer.Status(),
		Forwarder: p.forwarder.Stats(),
		QueueLen:  p.queue.Len(),
		QueueCap:  p.queue.Cap(),
	}
}
