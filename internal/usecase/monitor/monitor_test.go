package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	eventv1 "github.com/muhammadchandra19/tickstream/internal/domain/event/v1"
	event_mock "github.com/muhammadchandra19/tickstream/internal/domain/event/mock"
	monitorv1 "github.com/muhammadchandra19/tickstream/internal/domain/monitor/v1"
	record_mock "github.com/muhammadchandra19/tickstream/internal/domain/record/mock"
	logger_mock "github.com/muhammadchandra19/tickstream/pkg/logger/mock"
)

func TestMonitor_Poll(t *testing.T) {
	testCases := []struct {
		name     string
		mockFn   func(repo *record_mock.MockRepository, events *event_mock.MockPublisher, log *logger_mock.MockInterface)
		pollFn   func(t *testing.T, m *Monitor)
	}{
		{
			name: "below threshold stays not ready",
			mockFn: func(repo *record_mock.MockRepository, events *event_mock.MockPublisher, log *logger_mock.MockInterface) {
				repo.EXPECT().CountDistinctSymbols(gomock.Any()).Return(3, nil)
			},
			pollFn: func(t *testing.T, m *Monitor) {
				status := m.Poll(context.Background())
				assert.False(t, status.Ready)
				assert.Equal(t, 3, status.SymbolCount)
				assert.Nil(t, status.LatchedAt)
				select {
				case <-m.Ready():
					t.Fatal("ready channel should not fire below threshold")
				default:
				}
			},
		},
		{
			name: "store call carries a deadline",
			mockFn: func(repo *record_mock.MockRepository, events *event_mock.MockPublisher, log *logger_mock.MockInterface) {
				repo.EXPECT().CountDistinctSymbols(gomock.Any()).DoAndReturn(
					func(ctx context.Context) (int, error) {
						_, hasDeadline := ctx.Deadline()
						assert.True(t, hasDeadline, "poll must bound the store call")
						return 3, nil
					})
			},
			pollFn: func(t *testing.T, m *Monitor) {
				m.Poll(context.Background())
			},
		},
		{
			name: "hung store unblocks when the caller gives up",
			mockFn: func(repo *record_mock.MockRepository, events *event_mock.MockPublisher, log *logger_mock.MockInterface) {
				repo.EXPECT().CountDistinctSymbols(gomock.Any()).DoAndReturn(
					func(ctx context.Context) (int, error) {
						<-ctx.Done()
						return 0, ctx.Err()
					})
				log.EXPECT().Error(gomock.Any(), gomock.Any())
			},
			pollFn: func(t *testing.T, m *Monitor) {
				ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
				defer cancel()

				done := make(chan monitorv1.ReadinessStatus, 1)
				go func() { done <- m.Poll(ctx) }()

				select {
				case status := <-done:
					assert.False(t, status.Ready)
					assert.NotEmpty(t, status.LastError)
				case <-time.After(time.Second):
					t.Fatal("poll wedged on a hung store")
				}
			},
		},
		{
			name: "crossing threshold latches and announces",
			mockFn: func(repo *record_mock.MockRepository, events *event_mock.MockPublisher, log *logger_mock.MockInterface) {
				repo.EXPECT().CountDistinctSymbols(gomock.Any()).Return(5, nil)
				log.EXPECT().Info(gomock.Any(), gomock.Any(), gomock.Any())
				events.EXPECT().Publish(gomock.Any(), gomock.AssignableToTypeOf(eventv1.Event{})).DoAndReturn(
					func(_ context.Context, event eventv1.Event) error {
						assert.Equal(t, eventv1.TypeDataThresholdReached, event.Type)
						assert.Equal(t, eventv1.SourceDriver, event.Source)
						return nil
					})
				events.EXPECT().Publish(gomock.Any(), gomock.AssignableToTypeOf(eventv1.Event{})).DoAndReturn(
					func(_ context.Context, event eventv1.Event) error {
						assert.Equal(t, eventv1.TypeStreamingReady, event.Type)
						return nil
					})
			},
			pollFn: func(t *testing.T, m *Monitor) {
				status := m.Poll(context.Background())
				assert.True(t, status.Ready)
				assert.NotNil(t, status.LatchedAt)
				select {
				case <-m.Ready():
				case <-time.After(time.Second):
					t.Fatal("ready channel should be closed")
				}
			},
		},
		{
			name: "latch is sticky when count later drops",
			mockFn: func(repo *record_mock.MockRepository, events *event_mock.MockPublisher, log *logger_mock.MockInterface) {
				repo.EXPECT().CountDistinctSymbols(gomock.Any()).Return(5, nil)
				repo.EXPECT().CountDistinctSymbols(gomock.Any()).Return(2, nil)
				log.EXPECT().Info(gomock.Any(), gomock.Any(), gomock.Any())
				events.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).Times(2)
			},
			pollFn: func(t *testing.T, m *Monitor) {
				first := m.Poll(context.Background())
				second := m.Poll(context.Background())
				assert.True(t, first.Ready)
				assert.True(t, second.Ready)
				assert.Equal(t, 2, second.SymbolCount)
				assert.Equal(t, first.LatchedAt, second.LatchedAt)
			},
		},
		{
			name: "poll error is recorded and never latches",
			mockFn: func(repo *record_mock.MockRepository, events *event_mock.MockPublisher, log *logger_mock.MockInterface) {
				repo.EXPECT().CountDistinctSymbols(gomock.Any()).Return(0, errors.New("store unavailable"))
				log.EXPECT().Error(gomock.Any(), gomock.Any())
			},
			pollFn: func(t *testing.T, m *Monitor) {
				status := m.Poll(context.Background())
				assert.False(t, status.Ready)
				assert.Equal(t, "store unavailable", status.LastError)
			},
		},
		{
			name: "publish failure does not undo the latch",
			mockFn: func(repo *record_mock.MockRepository, events *event_mock.MockPublisher, log *logger_mock.MockInterface) {
				repo.EXPECT().CountDistinctSymbols(gomock.Any()).Return(7, nil)
				log.EXPECT().Info(gomock.Any(), gomock.Any(), gomock.Any())
				log.EXPECT().Error(gomock.Any(), gomock.Any()).Times(2)
				events.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(errors.New("bus down")).Times(2)
			},
			pollFn: func(t *testing.T, m *Monitor) {
				status := m.Poll(context.Background())
				assert.True(t, status.Ready)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := record_mock.NewMockRepository(ctrl)
			events := event_mock.NewMockPublisher(ctrl)
			log := logger_mock.NewMockInterface(ctrl)
			tc.mockFn(repo, events, log)

			m := NewMonitor(repo, events, log, 5, 2*time.Second)
			tc.pollFn(t, m)
		})
	}
}

func TestMonitor_Run(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := record_mock.NewMockRepository(ctrl)
	events := event_mock.NewMockPublisher(ctrl)
	log := logger_mock.NewMockInterface(ctrl)

	repo.EXPECT().CountDistinctSymbols(gomock.Any()).Return(5, nil).MinTimes(1)
	log.EXPECT().Info(gomock.Any(), gomock.Any(), gomock.Any())
	events.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	m := NewMonitor(repo, events, log, 5, 10*time.Millisecond)
	go func() {
		m.Run(ctx)
		close(done)
	}()

	select {
	case <-m.Ready():
	case <-time.After(time.Second):
		t.Fatal("monitor never latched")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop")
	}
}
