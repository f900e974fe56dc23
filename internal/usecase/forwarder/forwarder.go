package forwarder

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"

	bufferv1 "github.com/muhammadchandra19/tickstream/internal/domain/buffer/v1"
	eventv1 "github.com/muhammadchandra19/tickstream/internal/domain/event/v1"
	metricsv1 "github.com/muhammadchandra19/tickstream/internal/domain/metrics/v1"
	pipelinev1 "github.com/muhammadchandra19/tickstream/internal/domain/pipeline/v1"
	ticklogv1 "github.com/muhammadchandra19/tickstream/internal/domain/ticklog/v1"
	"github.com/muhammadchandra19/tickstream/internal/usecase/buffer"
	"github.com/muhammadchandra19/tickstream/pkg/errors"
	"github.com/muhammadchandra19/tickstream/pkg/logger"
)

// Config tunes the forwarder retry and backoff behavior.
type Config struct {
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
	MaxBlock          time.Duration
	PublishTimeout    time.Duration
	DrainIdleWait     time.Duration
}

// Forwarder drains the stream buffer into the downstream tick log, one
// lane per symbol so a stuck symbol never stalls the others. Each tick
// is retried with exponential backoff behind a shared circuit breaker;
// a tick that cannot be published within MaxBlock is force-failed and
// skipped so the lane keeps moving.
type Forwarder struct {
	cfg       Config
	buffer    *buffer.Buffer
	publisher ticklogv1.Publisher
	breaker   *gobreaker.CircuitBreaker
	observer  metricsv1.Observer
	events    eventv1.Publisher
	logger    logger.Interface

	published         atomic.Uint64
	retries           atomic.Uint64
	permanentFailures atomic.Uint64
	forcedSkips       atomic.Uint64
}

// NewForwarder creates a Forwarder draining b into publisher. A nil
// events bus disables error broadcasts.
func NewForwarder(cfg Config, b *buffer.Buffer, publisher ticklogv1.Publisher, observer metricsv1.Observer, events eventv1.Publisher, log logger.Interface) *Forwarder {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: "ticklog-publisher",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change",
				logger.Field{Key: "name", Value: name},
				logger.Field{Key: "from", Value: from.String()},
				logger.Field{Key: "to", Value: to.String()},
			)
		},
	})

	return &Forwarder{
		cfg:       cfg,
		buffer:    b,
		publisher: publisher,
		breaker:   breaker,
		observer:  observer,
		events:    events,
		logger:    log,
	}
}

// Run starts one drain lane per symbol and blocks until all lanes exit.
func (f *Forwarder) Run(ctx context.Context, symbols []string) {
	var wg sync.WaitGroup
	for _, symbol := range symbols {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			f.drainLane(ctx, symbol)
		}(symbol)
	}
	wg.Wait()
}

// drainLane publishes the symbol's pending entries in sequence order.
func (f *Forwarder) drainLane(ctx context.Context, symbol string) {
	for {
		entry, ok := f.buffer.NextPending(symbol)
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-time.After(f.cfg.DrainIdleWait):
			}
			continue
		}

		if forced, err := f.publishWithRetry(ctx, entry); err != nil {
			if ctx.Err() != nil {
				return
			}
			entry.MarkFailed()
			f.permanentFailures.Add(1)
			if forced {
				f.forcedSkips.Add(1)
			}
			f.observer.PermanentFailure()
			f.logger.Error(err,
				logger.Field{Key: "symbol", Value: symbol},
				logger.Field{Key: "sequence", Value: entry.Tick.Sequence},
			)
			f.publishError(ctx, entry, err)
		} else {
			entry.MarkForwarded()
			f.published.Add(1)
			f.observer.TickForwarded(time.Since(entry.Tick.GeneratedAt).Seconds())
		}

		f.buffer.Advance(symbol, entry.Tick.Sequence)
	}
}

// publishWithRetry attempts the publish up to MaxRetries times with
// exponential backoff, bounded overall by MaxBlock wall-clock time.
// The boolean reports whether the abandon was a forced skip, i.e. the
// wall-clock bound fired before the retry budget ran out.
func (f *Forwarder) publishWithRetry(ctx context.Context, entry *bufferv1.Entry) (bool, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = f.cfg.InitialBackoff
	policy.MaxInterval = f.cfg.MaxBackoff
	policy.Multiplier = f.cfg.BackoffMultiplier
	policy.MaxElapsedTime = f.cfg.MaxBlock
	policy.Reset()

	deadline := time.Now().Add(f.cfg.MaxBlock)

	var lastErr error
	for attempt := 1; attempt <= f.cfg.MaxRetries; attempt++ {
		lastErr = f.publishOnce(ctx, entry)
		if lastErr == nil {
			return false, nil
		}

		f.observer.ForwardFailure()
		if attempt == f.cfg.MaxRetries {
			break
		}
		f.retries.Add(1)

		wait := policy.NextBackOff()
		if wait == backoff.Stop || time.Now().Add(wait).After(deadline) {
			return true, errors.NewErrorDetails(
				fmt.Sprintf("publish abandoned after %s: %v", f.cfg.MaxBlock, lastErr),
				string(errors.PublishError),
				entry.Tick.Symbol,
			)
		}

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(wait):
		}
	}

	return false, errors.NewErrorDetails(
		fmt.Sprintf("publish failed after %d attempts: %v", f.cfg.MaxRetries, lastErr),
		string(errors.PublishError),
		entry.Tick.Symbol,
	)
}

// publishOnce runs a single publish attempt through the circuit breaker
// with a bounded per-attempt timeout.
func (f *Forwarder) publishOnce(ctx context.Context, entry *bufferv1.Entry) error {
	_, err := f.breaker.Execute(func() (any, error) {
		publishCtx, cancel := context.WithTimeout(ctx, f.cfg.PublishTimeout)
		defer cancel()
		return nil, f.publisher.Publish(publishCtx, entry.Tick)
	})
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return errors.NewErrorDetails(
			err.Error(),
			string(errors.PublishBreakerOpenError),
			entry.Tick.Symbol,
		)
	}
	return err
}

// publishError broadcasts an error_occurred event for a tick given up
// on. The publish uses a detached context so shutdown-time failures
// still make it onto the bus.
func (f *Forwarder) publishError(ctx context.Context, entry *bufferv1.Entry, cause error) {
	if f.events == nil {
		return
	}

	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	event := eventv1.NewEvent(eventv1.TypeErrorOccurred, eventv1.SourceStreamReceiver, map[string]any{
		"symbol":   entry.Tick.Symbol,
		"sequence": entry.Tick.Sequence,
		"error":    cause.Error(),
	})
	if err := f.events.Publish(publishCtx, event); err != nil {
		f.logger.Error(err, logger.Field{Key: "eventType", Value: string(eventv1.TypeErrorOccurred)})
	}
}

// Stats returns cumulative forwarder counters.
func (f *Forwarder) Stats() pipelinev1.ForwarderStats {
	return pipelinev1.ForwarderStats{
		Published:         f.published.Load(),
		Retries:           f.retries.Load(),
		PermanentFailures: f.permanentFailures.Load(),
		ForcedSkips:       f.forcedSkips.Load(),
		BreakerState:      f.breaker.State().String(),
	}
}
