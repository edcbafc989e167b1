package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/skewmarket/skewd/internal/domain"
)

// AlphaStore implements domain.AlphaStore using PostgreSQL. The ledger is a
// small bounded snapshot, so Save replaces the whole table in one
// transaction rather than diffing rows.
type AlphaStore struct {
	pool *pgxpool.Pool
}

var _ domain.AlphaStore = (*AlphaStore)(nil)

// NewAlphaStore creates a new AlphaStore backed by the given connection pool.
func NewAlphaStore(pool *pgxpool.Pool) *AlphaStore {
	return &AlphaStore{pool: pool}
}

// Load returns all ledger entries, newest first.
func (s *AlphaStore) Load(ctx context.Context) ([]domain.AlphaEntry, error) {
	const query = `
		SELECT id, event_title, detected_at, edge_percent, edge_type, mode,
		       yes_price, no_price, current_yes_price, last_updated,
		       resolved, resolved_at, profit, slug
		FROM alpha_entries
		ORDER BY detected_at DESC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: load alpha entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.AlphaEntry
	for rows.Next() {
		var e domain.AlphaEntry
		if err := rows.Scan(
			&e.ID, &e.EventTitle, &e.DetectedAt, &e.EdgePercent, &e.EdgeType, &e.Mode,
			&e.YesPrice, &e.NoPrice, &e.CurrentYesPrice, &e.LastUpdated,
			&e.Resolved, &e.ResolvedAt, &e.Profit, &e.Slug,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan alpha entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: load alpha entries rows: %w", err)
	}
	return entries, nil
}

// Save replaces the persisted ledger with the given snapshot.
func (s *AlphaStore) Save(ctx context.Context, entries []domain.AlphaEntry) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin save: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM alpha_entries`); err != nil {
		return fmt.Errorf("postgres: clear alpha entries: %w", err)
	}

	const insert = `
		INSERT INTO alpha_entries (
			id, event_title, detected_at, edge_percent, edge_type, mode,
			yes_price, no_price, current_yes_price, last_updated,
			resolved, resolved_at, profit, slug
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	for _, e := range entries {
		if _, err := tx.Exec(ctx, insert,
			e.ID, e.EventTitle, e.DetectedAt, e.EdgePercent, string(e.EdgeType), string(e.Mode),
			e.YesPrice, e.NoPrice, e.CurrentYesPrice, e.LastUpdated,
			e.Resolved, e.ResolvedAt, e.Profit, e.Slug,
		); err != nil {
			return fmt.Errorf("postgres: insert alpha entry %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit save: %w", err)
	}
	return nil
}
