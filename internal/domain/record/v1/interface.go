package v1

import "context"

// Repository is the read-mostly gateway to the upstream record store.
//
//go:generate mockgen -source interface.go -destination=../mock/interface_mock.go -package=record_mock
type Repository interface {
	// CountDistinctSymbols returns the number of distinct symbols with at
	// least one stored record.
	CountDistinctSymbols(ctx context.Context) (int, error)
	// CountRecords returns the total number of stored records.
	CountRecords(ctx context.Context) (int64, error)
	// ListSymbols returns the distinct symbols currently stored.
	ListSymbols(ctx context.Context) ([]string, error)
	// StoreBatch bulk-inserts records; used by seed tooling, never by the
	// pipeline itself.
	StoreBatch(ctx context.Context, records []SymbolRecord) (int64, error)
}
