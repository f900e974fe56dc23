package v1

import (
	"encoding/json"
	"time"
)

// EnvelopeTypeStockTick is the message type carried on the downstream log.
const EnvelopeTypeStockTick = "stock_tick"

// Tick represents a single synthetic price/volume observation for one symbol.
// A tick is immutable once created; forwarding state lives on the buffer entry.
type Tick struct {
	Symbol      string    `json:"symbol"`
	Sequence    uint64    `json:"sequence"`
	Price       float64   `json:"price"`
	Volume      int64     `json:"volume"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Envelope is the wire format published to the downstream log,
// keyed by symbol.
type Envelope struct {
	Type      string `json:"type"`
	Data      Tick   `json:"data"`
	Timestamp int64  `json:"timestamp"`
	Symbol    string `json:"symbol"`
}

// NewEnvelope wraps a tick in the downstream wire format.
func NewEnvelope(t Tick) Envelope {
	return Envelope{
		Type:      EnvelopeTypeStockTick,
		Data:      t,
		Timestamp: time.Now().UnixMilli(),
		Symbol:    t.Symbol,
	}
}

// Bytes serializes the envelope for the log sink.
func (e Envelope) Bytes() ([]byte, error) {
	return json.Marshal(e)
}
