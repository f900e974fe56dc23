package record

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	recordv1 "github.com/muhammadchandra19/tickstream/internal/domain/record/v1"
	"github.com/muhammadchandra19/tickstream/pkg/postgres"
)

// Repository is the PostgreSQL-backed symbol record store.
type Repository struct {
	client postgres.PostgresClient
}

// NewRepository creates a new symbol record repository.
func NewRepository(client postgres.PostgresClient) *Repository {
	return &Repository{
		client: client,
	}
}

// CountDistinctSymbols returns the number of distinct symbols with at
// least one stored record.
func (r *Repository) CountDistinctSymbols(ctx context.Context) (int, error) {
	query := `SELECT COUNT(DISTINCT symbol) FROM stock_records`

	var count int
	if err := r.client.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count distinct symbols: %w", err)
	}

	return count, nil
}

// CountRecords returns the total number of stored records.
func (r *Repository) CountRecords(ctx context.Context) (int64, error) {
	query := `SELECT COUNT(*) FROM stock_records`

	var count int64
	if err := r.client.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}

	return count, nil
}

// ListSymbols returns the distinct stored symbols in alphabetical order.
func (r *Repository) ListSymbols(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT symbol FROM stock_records ORDER BY symbol`

	rows, err := r.client.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		symbols = append(symbols, symbol)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read symbols: %w", err)
	}

	return symbols, nil
}

// StoreBatch bulk-inserts records via CopyFrom and returns the number
// of rows written.
func (r *Repository) StoreBatch(ctx context.Context, records []recordv1.SymbolRecord) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	copyCount, err := r.client.CopyFrom(
		ctx,
		pgx.Identifier{"stock_records"},
		[]string{"symbol", "price", "volume", "loaded_at"},
		pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
			record := records[i]
			return []any{
				record.Symbol,
				record.Price,
				record.Volume,
				record.LoadedAt,
			}, nil
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to copy stock records: %w", err)
	}

	return copyCount, nil
}
