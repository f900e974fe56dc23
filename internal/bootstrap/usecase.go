package bootstrap

import (
	"github.com/prometheus/client_golang/prometheus"

	appPipeline "github.com/muhammadchandra19/tickstream/internal/app/pipeline"
	eventv1 "github.com/muhammadchandra19/tickstream/internal/domain/event/v1"
	tickv1 "github.com/muhammadchandra19/tickstream/internal/domain/tick/v1"
	ticklogv1 "github.com/muhammadchandra19/tickstream/internal/domain/ticklog/v1"
	kafkaTicklog "github.com/muhammadchandra19/tickstream/internal/infrastructure/kafka/ticklog"
	"github.com/muhammadchandra19/tickstream/internal/infrastructure/redis/eventbus"
	"github.com/muhammadchandra19/tickstream/internal/usecase/buffer"
	"github.com/muhammadchandra19/tickstream/internal/usecase/forwarder"
	"github.com/muhammadchandra19/tickstream/internal/usecase/generator"
	"github.com/muhammadchandra19/tickstream/internal/usecase/metrics"
	"github.com/muhammadchandra19/tickstream/internal/usecase/monitor"
	"github.com/muhammadchandra19/tickstream/pkg/queue"
)

// Usecase holds the pipeline components.
type Usecase struct {
	Monitor    *monitor.Monitor
	Generator  *generator.Generator
	Buffer     *buffer.Buffer
	Forwarder  *forwarder.Forwarder
	Aggregator *metrics.Aggregator
	Queue      *queue.Queue[tickv1.Tick]
	Pipeline   *appPipeline.Pipeline

	TickLog        ticklogv1.Publisher
	EventPublisher eventv1.Publisher
	Subscriber     eventv1.Subscriber
}

// registerUsecase registers the pipeline components bottom-up.
func (b *Bootstrap) registerUsecase() {
	cfg := b.Config

	b.Usecase.Queue = queue.New[tickv1.Tick](cfg.Pipeline.DeliveryCapacity)
	b.Usecase.Aggregator = metrics.NewAggregator(
		cfg.Metrics.WindowSeconds,
		cfg.Metrics.SnapshotInterval,
		prometheus.DefaultRegisterer,
		b.Logger,
	)

	b.Usecase.EventPublisher = eventbus.NewPublisher(b.Redis, cfg.Redis.Channel, b.Logger)
	b.Usecase.Subscriber = eventbus.NewSubscriber(b.Redis, cfg.Redis.Channel, b.Logger)
	b.Usecase.TickLog = kafkaTicklog.NewPublisher(kafkaTicklog.Config{
		Brokers:      cfg.Kafka.Brokers,
		Topic:        cfg.Kafka.Topic,
		BatchTimeout: cfg.Kafka.BatchTimeout,
	}, b.Logger)

	b.Usecase.Monitor = monitor.NewMonitor(
		b.Repository.RecordRepository,
		b.Usecase.EventPublisher,
		b.Logger,
		cfg.Pipeline.Threshold,
		cfg.Pipeline.PollInterval,
	)

	b.Usecase.Generator = generator.NewGenerator(generator.Config{
		TickInterval: cfg.Pipeline.TickInterval,
		PriceEpsilon: cfg.Pipeline.PriceEpsilon,
		MinPrice:     cfg.Pipeline.MinPrice,
		InitialPrice: cfg.Pipeline.InitialPrice,
		Volume:       cfg.Pipeline.Volume,
		EnqueueWait:  cfg.Pipeline.EnqueueWait,
	}, b.Usecase.Queue, generator.SystemClock(), generator.SystemRand(), b.Usecase.Aggregator, b.Usecase.EventPublisher, b.Logger)

	b.Usecase.Buffer = buffer.NewBuffer(
		cfg.Pipeline.BufferCapacity,
		cfg.Pipeline.ResyncAfter,
		b.Usecase.Aggregator,
		b.Logger,
	)

	b.Usecase.Forwarder = forwarder.NewForwarder(forwarder.Config{
		MaxRetries:        cfg.Forwarder.MaxRetries,
		InitialBackoff:    cfg.Forwarder.InitialBackoff,
		MaxBackoff:        cfg.Forwarder.MaxBackoff,
		BackoffMultiplier: cfg.Forwarder.BackoffMultiplier,
		MaxBlock:          cfg.Forwarder.MaxBlock,
		PublishTimeout:    cfg.Forwarder.PublishTimeout,
		DrainIdleWait:     cfg.Forwarder.DrainIdleWait,
	}, b.Usecase.Buffer, b.Usecase.TickLog, b.Usecase.Aggregator, b.Usecase.EventPublisher, b.Logger)

	b.Usecase.Pipeline = appPipeline.NewPipelineWithOptions(
		b.Usecase.Monitor,
		b.Usecase.Generator,
		b.Usecase.Buffer,
		b.Usecase.Forwarder,
		b.Usecase.Aggregator,
		b.Usecase.Queue,
		b.Usecase.EventPublisher,
		b.Usecase.Subscriber,
		b.Logger,
		cfg.Pipeline.Symbols,
		appPipeline.Options{StatusInterval: cfg.Metrics.StatusInterval},
	)
}
