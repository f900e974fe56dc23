package ticklog

import (
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	logger_mock "github.com/muhammadchandra19/tickstream/pkg/logger/mock"
)

func TestNewPublisher_WriterSettings(t *testing.T) {
	testCases := []struct {
		name                 string
		config               Config
		expectedBatchTimeout time.Duration
	}{
		{
			name: "configured batch timeout is applied",
			config: Config{
				Brokers:      []string{"localhost:9092"},
				Topic:        "stock-ticks",
				BatchTimeout: 25 * time.Millisecond,
			},
			expectedBatchTimeout: 25 * time.Millisecond,
		},
		{
			name: "zero batch timeout falls back to fast flush",
			config: Config{
				Brokers: []string{"localhost:9092"},
				Topic:   "stock-ticks",
			},
			expectedBatchTimeout: 10 * time.Millisecond,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			log := logger_mock.NewMockInterface(ctrl)

			p := NewPublisher(tc.config, log)

			assert.Equal(t, tc.config.Topic, p.writer.Topic)
			assert.Equal(t, kafka.RequireAll, p.writer.RequiredAcks)
			// synchronous single-message publishes must flush immediately,
			// not sit out the library's one-second batch default
			assert.Equal(t, 1, p.writer.BatchSize)
			assert.Equal(t, tc.expectedBatchTimeout, p.writer.BatchTimeout)
		})
	}
}
