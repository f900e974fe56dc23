package v1

import (
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"
)

// Type identifies the kind of lifecycle event on the bus.
type Type string

const (
	// TypeStockDataLoaded signals the upstream store received new symbol records.
	TypeStockDataLoaded Type = "stock_data_loaded"
	// TypeDataThresholdReached signals the readiness threshold was crossed.
	TypeDataThresholdReached Type = "data_threshold_reached"
	// TypeStreamingReady signals the pipeline may begin streaming.
	TypeStreamingReady Type = "streaming_ready"
	// TypeStreamingStarted signals the generator entered Streaming.
	TypeStreamingStarted Type = "streaming_started"
	// TypeStreamingStopped signals the generator stopped.
	TypeStreamingStopped Type = "streaming_stopped"
	// TypeTickGenerated is a sampled notification of tick production.
	TypeTickGenerated Type = "tick_generated"
	// TypeErrorOccurred signals a component error worth broadcasting.
	TypeErrorOccurred Type = "error_occurred"
	// TypeSystemStatusUpdate carries a periodic metrics snapshot.
	TypeSystemStatusUpdate Type = "system_status_update"
	// TypeHealthCheck is a liveness probe event.
	TypeHealthCheck Type = "health_check"
)

// Source identifies the component that emitted an event.
type Source string

const (
	// SourceAPIServer is the external ingestion API.
	SourceAPIServer Source = "api_server"
	// SourceDriver is the readiness monitor / tick generator side.
	SourceDriver Source = "driver"
	// SourceStreamReceiver is the buffering / forwarding side.
	SourceStreamReceiver Source = "stream_receiver"
	// SourceSystem is the pipeline process itself.
	SourceSystem Source = "system"
)

// Event is the payload exchanged on the trigger/event bus.
type Event struct {
	ID        string         `json:"id"`
	Type      Type           `json:"type"`
	Source    Source         `json:"source"`
	Timestamp time.Time      `json:"timestamp"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// NewEvent creates an Event with a fresh ULID and the current timestamp.
func NewEvent(eventType Type, source Source, payload map[string]any) Event {
	return Event{
		ID:        ulid.Make().String(),
		Type:      eventType,
		Source:    source,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// Bytes serializes the event for the bus.
func (e Event) Bytes() ([]byte, error) {
	return json.Marshal(e)
}

// Decode parses an event from its bus representation.
func Decode(data []byte) (Event, error) {
	var e Event
	err := json.Unmarshal(data, &e)
	return e, err
}
