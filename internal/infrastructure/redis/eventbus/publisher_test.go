package eventbus

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	eventv1 "github.com/muhammadchandra19/tickstream/internal/domain/event/v1"
	logger_mock "github.com/muhammadchandra19/tickstream/pkg/logger/mock"
	redis_mock "github.com/muhammadchandra19/tickstream/pkg/redis/mock"
)

func TestPublisher_Publish(t *testing.T) {
	testCases := []struct {
		name     string
		mockFn   func(client *redis_mock.MockClient, log *logger_mock.MockInterface)
		assertFn func(t *testing.T, err error)
	}{
		{
			name: "success",
			mockFn: func(client *redis_mock.MockClient, log *logger_mock.MockInterface) {
				client.EXPECT().Publish(gomock.Any(), "tickstream:events", gomock.Any()).DoAndReturn(
					func(_ context.Context, _ string, message any) (int64, error) {
						decoded, err := eventv1.Decode(message.([]byte))
						assert.NoError(t, err)
						assert.Equal(t, eventv1.TypeStreamingReady, decoded.Type)
						assert.Equal(t, eventv1.SourceDriver, decoded.Source)
						assert.NotEmpty(t, decoded.ID)
						return 1, nil
					})
			},
			assertFn: func(t *testing.T, err error) {
				assert.NoError(t, err)
			},
		},
		{
			name: "zero subscribers is not an error",
			mockFn: func(client *redis_mock.MockClient, log *logger_mock.MockInterface) {
				client.EXPECT().Publish(gomock.Any(), "tickstream:events", gomock.Any()).Return(int64(0), nil)
			},
			assertFn: func(t *testing.T, err error) {
				assert.NoError(t, err)
			},
		},
		{
			name: "publish error propagates",
			mockFn: func(client *redis_mock.MockClient, log *logger_mock.MockInterface) {
				client.EXPECT().Publish(gomock.Any(), "tickstream:events", gomock.Any()).Return(int64(0), errors.New("connection reset"))
				log.EXPECT().Error(gomock.Any(), gomock.Any(), gomock.Any())
			},
			assertFn: func(t *testing.T, err error) {
				assert.Error(t, err)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			client := redis_mock.NewMockClient(ctrl)
			log := logger_mock.NewMockInterface(ctrl)
			tc.mockFn(client, log)

			publisher := NewPublisher(client, "tickstream:events", log)
			event := eventv1.NewEvent(eventv1.TypeStreamingReady, eventv1.SourceDriver, map[string]any{"threshold": 5})
			tc.assertFn(t, publisher.Publish(context.Background(), event))
		})
	}
}
