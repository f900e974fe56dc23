package v1

import "time"

// SymbolRecord is one row of the upstream record store: a symbol with at
// least one loaded data point. The readiness monitor only ever counts
// distinct symbols; the full row shape exists for the seed tooling.
type SymbolRecord struct {
	Symbol   string
	Price    float64
	Volume   int64
	LoadedAt time.Time
}
