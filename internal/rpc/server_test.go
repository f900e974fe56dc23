package rpc

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	metricsv1 "github.com/muhammadchandra19/tickstream/internal/domain/metrics/v1"
	pipelinev1 "github.com/muhammadchandra19/tickstream/internal/domain/pipeline/v1"
	tickv1 "github.com/muhammadchandra19/tickstream/internal/domain/tick/v1"
	logger_mock "github.com/muhammadchandra19/tickstream/pkg/logger/mock"
)

type statusStub struct {
	status pipelinev1.Status
}

func (s statusStub) Status() pipelinev1.Status { return s.status }

type tickReaderStub struct {
	ticks map[string][]tickv1.Tick
}

func (s tickReaderStub) Recent(symbol string, limit int) []tickv1.Tick {
	ticks := s.ticks[symbol]
	if len(ticks) > limit {
		ticks = ticks[len(ticks)-limit:]
	}
	return ticks
}

type snapshotStub struct {
	snapshot metricsv1.Snapshot
}

func (s snapshotStub) Snapshot() metricsv1.Snapshot { return s.snapshot }

func newTestServer(t *testing.T, status pipelinev1.Status, ticks map[string][]tickv1.Tick, snapshot metricsv1.Snapshot) *Server {
	ctrl := gomock.NewController(t)
	log := logger_mock.NewMockInterface(ctrl)
	return NewServer(statusStub{status}, tickReaderStub{ticks}, snapshotStub{snapshot}, prometheus.NewRegistry(), log)
}

func TestServer_Health(t *testing.T) {
	testCases := []struct {
		name     string
		snapshot metricsv1.Snapshot
		assertFn func(t *testing.T, rec *httptest.ResponseRecorder)
	}{
		{
			name:     "healthy returns 200",
			snapshot: metricsv1.Snapshot{Overall: metricsv1.Healthy},
			assertFn: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Equal(t, http.StatusOK, rec.Code)
				var body metricsv1.Snapshot
				assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, metricsv1.Healthy, body.Overall)
			},
		},
		{
			name:     "degraded still returns 200",
			snapshot: metricsv1.Snapshot{Overall: metricsv1.Degraded},
			assertFn: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Equal(t, http.StatusOK, rec.Code)
			},
		},
		{
			name:     "unhealthy returns 503",
			snapshot: metricsv1.Snapshot{Overall: metricsv1.Unhealthy},
			assertFn: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := newTestServer(t, pipelinev1.Status{}, nil, tc.snapshot)

			rec := httptest.NewRecorder()
			server.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
			tc.assertFn(t, rec)
		})
	}
}

func TestServer_Status(t *testing.T) {
	status := pipelinev1.Status{
		Armed:    true,
		QueueLen: 12,
		QueueCap: 4096,
	}
	server := newTestServer(t, status, nil, metricsv1.Snapshot{})

	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var body pipelinev1.Status
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Armed)
	assert.Equal(t, 12, body.QueueLen)
	assert.Equal(t, 4096, body.QueueCap)
}

func TestServer_Ticks(t *testing.T) {
	now := time.Now().UTC()
	ticks := map[string][]tickv1.Tick{
		"AAPL": {
			{Symbol: "AAPL", Sequence: 1, Price: 100.1, Volume: 1_000_000, GeneratedAt: now},
			{Symbol: "AAPL", Sequence: 2, Price: 100.3, Volume: 1_000_000, GeneratedAt: now},
			{Symbol: "AAPL", Sequence: 3, Price: 100.2, Volume: 1_000_000, GeneratedAt: now},
		},
	}

	testCases := []struct {
		name     string
		target   string
		assertFn func(t *testing.T, rec *httptest.ResponseRecorder)
	}{
		{
			name:   "default limit returns all",
			target: "/ticks/AAPL",
			assertFn: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Equal(t, http.StatusOK, rec.Code)
				var body struct {
					Symbol string        `json:"symbol"`
					Count  int           `json:"count"`
					Ticks  []tickv1.Tick `json:"ticks"`
				}
				assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, "AAPL", body.Symbol)
				assert.Equal(t, 3, body.Count)
				assert.Equal(t, uint64(1), body.Ticks[0].Sequence)
			},
		},
		{
			name:   "limit trims to newest",
			target: "/ticks/AAPL?limit=2",
			assertFn: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Equal(t, http.StatusOK, rec.Code)
				var body struct {
					Ticks []tickv1.Tick `json:"ticks"`
				}
				assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Len(t, body.Ticks, 2)
				assert.Equal(t, uint64(2), body.Ticks[0].Sequence)
			},
		},
		{
			name:   "invalid limit is rejected",
			target: "/ticks/AAPL?limit=zero",
			assertFn: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Equal(t, http.StatusBadRequest, rec.Code)
			},
		},
		{
			name:   "unknown symbol is a 404",
			target: "/ticks/NOPE",
			assertFn: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Equal(t, http.StatusNotFound, rec.Code)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := newTestServer(t, pipelinev1.Status{}, ticks, metricsv1.Snapshot{})

			rec := httptest.NewRecorder()
			server.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.target, nil))
			tc.assertFn(t, rec)
		})
	}
}

func TestServer_Metrics(t *testing.T) {
	server := newTestServer(t, pipelinev1.Status{}, nil, metricsv1.Snapshot{})

	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}
