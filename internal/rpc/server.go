package rpc

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	metricsv1 "github.com/muhammadchandra19/tickstream/internal/domain/metrics/v1"
	pipelinev1 "github.com/muhammadchandra19/tickstream/internal/domain/pipeline/v1"
	tickv1 "github.com/muhammadchandra19/tickstream/internal/domain/tick/v1"
	"github.com/muhammadchandra19/tickstream/pkg/logger"
)

// defaultTickLimit caps /ticks responses when no limit is given.
const defaultTickLimit = 10

// StatusProvider exposes the process-wide pipeline view.
type StatusProvider interface {
	Status() pipelinev1.Status
}

// TickReader serves recent ticks from the stream buffer.
type TickReader interface {
	Recent(symbol string, limit int) []tickv1.Tick
}

// Server is the HTTP operational surface: health, status, recent ticks
// and Prometheus metrics.
type Server struct {
	status   StatusProvider
	ticks    TickReader
	health   metricsv1.Snapshotter
	gatherer prometheus.Gatherer
	logger   logger.Interface
	router   *mux.Router
}

// NewServer creates the ops server and wires its routes.
func NewServer(status StatusProvider, ticks TickReader, health metricsv1.Snapshotter, gatherer prometheus.Gatherer, log logger.Interface) *Server {
	s := &Server{
		status:   status,
		ticks:    ticks,
		health:   health,
		gatherer: gatherer,
		logger:   log,
		router:   mux.NewRouter(),
	}

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	s.router.HandleFunc("/ticks/{symbol}", s.handleTicks).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	return s
}

// Router returns the configured router for mounting on an http.Server.
func (s *Server) Router() *mux.Router {
	return s.router
}

// handleHealth reports the graded health snapshot. An unhealthy overall
// grade maps to 503 so load balancers can act on it.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snapshot := s.health.Snapshot()

	code := http.StatusOK
	if snapshot.Overall == metricsv1.Unhealthy {
		code = http.StatusServiceUnavailable
	}

	s.writeJSON(w, code, snapshot)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.status.Status())
}

// handleTicks serves the most recent ticks for one symbol, ascending by
// sequence.
func (s *Server) handleTicks(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	limit := defaultTickLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "limit must be a positive integer",
			})
			return
		}
		limit = parsed
	}

	ticks := s.ticks.Recent(symbol, limit)
	if ticks == nil {
		s.writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "no ticks for symbol " + symbol,
		})
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"symbol": symbol,
		"count":  len(ticks),
		"ticks":  ticks,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error(err, logger.Field{Key: "component", Value: "rpc"})
	}
}
