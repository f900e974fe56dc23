package config

import (
	"testing"
	"time"

	pkgErrors "github.com/muhammadchandra19/tickstream/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:        "tickstream",
			Environment: "test",
			Port:        8080,
			LogLevel:    "info",
		},
		Pipeline: PipelineConfig{
			Symbols:          []string{"AAPL", "GOOGL", "MSFT", "AMZN", "TSLA"},
			Threshold:        5,
			PollInterval:     2 * time.Second,
			TickInterval:     100 * time.Millisecond,
			PriceEpsilon:     0.005,
			MinPrice:         0.01,
			InitialPrice:     100.0,
			Volume:           1_000_000,
			DeliveryCapacity: 4096,
			EnqueueWait:      50 * time.Millisecond,
			BufferCapacity:   1000,
			ResyncAfter:      3,
		},
		Forwarder: ForwarderConfig{
			MaxRetries:        3,
			InitialBackoff:    100 * time.Millisecond,
			MaxBackoff:        5 * time.Second,
			BackoffMultiplier: 2.0,
			MaxBlock:          10 * time.Second,
			PublishTimeout:    2 * time.Second,
			DrainIdleWait:     10 * time.Millisecond,
		},
		Metrics: MetricsConfig{
			WindowSeconds:    60,
			SnapshotInterval: time.Second,
			StatusInterval:   10 * time.Second,
		},
		Redis: RedisConfig{Channel: "tickstream-events"},
		Kafka: KafkaConfig{
			Brokers: []string{"localhost:9092"},
			Topic:   "stock-ticks",
		},
	}
}

func TestConfig_Validate(t *testing.T) {
	testCases := []struct {
		name     string
		mutate   func(cfg *Config)
		assertFn func(t *testing.T, err error)
	}{
		{
			name:   "valid",
			mutate: func(cfg *Config) {},
			assertFn: func(t *testing.T, err error) {
				assert.NoError(t, err)
			},
		},
		{
			name: "zero threshold",
			mutate: func(cfg *Config) {
				cfg.Pipeline.Threshold = 0
			},
			assertFn: func(t *testing.T, err error) {
				require.Error(t, err)
				baseErr, ok := err.(*pkgErrors.BaseError)
				require.True(t, ok)
				assert.True(t, baseErr.IsAnyCodeEqual(string(pkgErrors.InvalidConfigError)))
			},
		},
		{
			name: "empty symbol list",
			mutate: func(cfg *Config) {
				cfg.Pipeline.Symbols = nil
			},
			assertFn: func(t *testing.T, err error) {
				assert.Error(t, err)
			},
		},
		{
			name: "non-positive tick interval",
			mutate: func(cfg *Config) {
				cfg.Pipeline.TickInterval = 0
			},
			assertFn: func(t *testing.T, err error) {
				assert.Error(t, err)
			},
		},
		{
			name: "threshold above symbol count",
			mutate: func(cfg *Config) {
				cfg.Pipeline.Threshold = 10
			},
			assertFn: func(t *testing.T, err error) {
				require.Error(t, err)
				baseErr, ok := err.(*pkgErrors.BaseError)
				require.True(t, ok)
				assert.True(t, baseErr.IsAnyCodeEqual(string(pkgErrors.InvalidConfigError)))
			},
		},
		{
			name: "initial backoff above max backoff",
			mutate: func(cfg *Config) {
				cfg.Forwarder.InitialBackoff = 10 * time.Second
			},
			assertFn: func(t *testing.T, err error) {
				assert.Error(t, err)
			},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			cfg := validConfig()
			testCase.mutate(cfg)
			testCase.assertFn(t, cfg.Validate())
		})
	}
}
