package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	pkgErrors "github.com/muhammadchandra19/tickstream/pkg/errors"
	"github.com/muhammadchandra19/tickstream/pkg/postgres"
	"github.com/muhammadchandra19/tickstream/pkg/redis"
)

// Config represents the application configuration.
type Config struct {
	App       AppConfig       `envPrefix:"APP_"`
	Pipeline  PipelineConfig  `envPrefix:"PIPELINE_"`
	Forwarder ForwarderConfig `envPrefix:"FORWARDER_"`
	Metrics   MetricsConfig   `envPrefix:"METRICS_"`
	Postgres  postgres.Config `envPrefix:"POSTGRES_"`
	Redis     RedisConfig     `envPrefix:"REDIS_"`
	Kafka     KafkaConfig     `envPrefix:"KAFKA_"`
}

// AppConfig represents the application-level configuration.
type AppConfig struct {
	Name        string `env:"NAME" envDefault:"tickstream"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Port        int    `env:"PORT" envDefault:"8080" validate:"gt=0,lte=65535"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile     string `env:"LOG_FILE"`
}

// PipelineConfig configures readiness polling, tick generation and buffering.
type PipelineConfig struct {
	Symbols          []string      `env:"SYMBOLS" envSeparator:"," envDefault:"AAPL,GOOGL,MSFT,AMZN,TSLA" validate:"min=1"`
	Threshold        int           `env:"THRESHOLD" envDefault:"5" validate:"gt=0"`
	PollInterval     time.Duration `env:"POLL_INTERVAL" envDefault:"2s" validate:"gt=0"`
	TickInterval     time.Duration `env:"TICK_INTERVAL" envDefault:"100ms" validate:"gt=0"`
	PriceEpsilon     float64       `env:"PRICE_EPSILON" envDefault:"0.005" validate:"gt=0,lt=1"`
	MinPrice         float64       `env:"MIN_PRICE" envDefault:"0.01" validate:"gt=0"`
	InitialPrice     float64       `env:"INITIAL_PRICE" envDefault:"100.0" validate:"gt=0"`
	Volume           int64         `env:"VOLUME" envDefault:"1000000" validate:"gt=0"`
	DeliveryCapacity int           `env:"DELIVERY_CAPACITY" envDefault:"4096" validate:"gt=0"`
	EnqueueWait      time.Duration `env:"ENQUEUE_WAIT" envDefault:"50ms" validate:"gt=0"`
	BufferCapacity   int           `env:"BUFFER_CAPACITY" envDefault:"1000" validate:"gt=0"`
	ResyncAfter      int           `env:"RESYNC_AFTER" envDefault:"3" validate:"gt=0"`
}

// ForwarderConfig configures downstream publishing and retry behavior.
type ForwarderConfig struct {
	MaxRetries        int           `env:"MAX_RETRIES" envDefault:"3" validate:"gt=0"`
	InitialBackoff    time.Duration `env:"INITIAL_BACKOFF" envDefault:"100ms" validate:"gt=0"`
	MaxBackoff        time.Duration `env:"MAX_BACKOFF" envDefault:"5s" validate:"gt=0"`
	BackoffMultiplier float64       `env:"BACKOFF_MULTIPLIER" envDefault:"2.0" validate:"gt=1"`
	MaxBlock          time.Duration `env:"MAX_BLOCK" envDefault:"10s" validate:"gt=0"`
	PublishTimeout    time.Duration `env:"PUBLISH_TIMEOUT" envDefault:"2s" validate:"gt=0"`
	DrainIdleWait     time.Duration `env:"DRAIN_IDLE_WAIT" envDefault:"10ms" validate:"gt=0"`
}

// MetricsConfig configures the metrics aggregation windows.
type MetricsConfig struct {
	WindowSeconds    int           `env:"WINDOW_SECONDS" envDefault:"60" validate:"gt=0"`
	SnapshotInterval time.Duration `env:"SNAPSHOT_INTERVAL" envDefault:"1s" validate:"gt=0"`
	StatusInterval   time.Duration `env:"STATUS_INTERVAL" envDefault:"10s" validate:"gt=0"`
}

// RedisConfig wraps the Redis client config plus the event bus channel.
type RedisConfig struct {
	redis.Config
	Channel string `env:"CHANNEL" envDefault:"tickstream-events" validate:"required"`
}

// KafkaConfig represents the downstream tick log configuration.
type KafkaConfig struct {
	Brokers      []string      `env:"BROKERS" envSeparator:"," envDefault:"localhost:9092" validate:"min=1"`
	Topic        string        `env:"TOPIC" envDefault:"stock-ticks" validate:"required"`
	BatchTimeout time.Duration `env:"BATCH_TIMEOUT" envDefault:"10ms"`
}

// Load loads the configuration from the environment.
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for fatal startup errors.
func (c *Config) Validate() error {
	baseErr := pkgErrors.NewBaseError()

	if err := validator.New().Struct(c); err != nil {
		if validationErrs, ok := err.(validator.ValidationErrors); ok {
			for _, ve := range validationErrs {
				baseErr.AddErrorDetails(pkgErrors.NewErrorDetails(
					fmt.Sprintf("invalid value for %s: failed on '%s'", ve.Namespace(), ve.Tag()),
					string(pkgErrors.InvalidConfigError),
					ve.Namespace(),
				))
			}
		} else {
			return err
		}
	}

	// Cross-field checks the tag language cannot express.
	if c.Pipeline.Threshold > len(c.Pipeline.Symbols) {
		baseErr.AddErrorDetails(pkgErrors.NewErrorDetails(
			fmt.Sprintf("threshold %d exceeds tracked symbol count %d", c.Pipeline.Threshold, len(c.Pipeline.Symbols)),
			string(pkgErrors.InvalidConfigError),
			"Pipeline.Threshold",
		))
	}
	if c.Pipeline.MinPrice >= c.Pipeline.InitialPrice {
		baseErr.AddErrorDetails(pkgErrors.NewErrorDetails(
			"min price must be below the initial reference price",
			string(pkgErrors.InvalidConfigError),
			"Pipeline.MinPrice",
		))
	}
	if c.Forwarder.InitialBackoff > c.Forwarder.MaxBackoff {
		baseErr.AddErrorDetails(pkgErrors.NewErrorDetails(
			"initial backoff must not exceed max backoff",
			string(pkgErrors.InvalidConfigError),
			"Forwarder.InitialBackoff",
		))
	}

	if baseErr.HasDetails() {
		return baseErr
	}
	return nil
}
