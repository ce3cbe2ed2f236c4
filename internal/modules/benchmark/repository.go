// Package benchmark aligns portfolio performance against market index
// performance over the same investment horizon.
package benchmark

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wealthmax/insight/internal/domain"
)

const dateLayout = "2006-01-02"

// Repository provides access to market indices, their value history and the
// pre-resolved category -> index mapping, all stored in history.db.
type Repository struct {
	historyDB *sql.DB
	log       zerolog.Logger
}

// NewRepository creates a new benchmark repository.
func NewRepository(historyDB *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		historyDB: historyDB,
		log:       log.With().Str("repo", "benchmark").Logger(),
	}
}

// UpsertIndex creates or refreshes an index definition and returns its id.
func (r *Repository) UpsertIndex(idx Index) (string, error) {
	if idx.ID == "" {
		idx.ID = uuid.NewString()
	}
	_, err := r.historyDB.Exec(
		`INSERT INTO market_indices (id, name, symbol, type, description)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (name) DO UPDATE SET
		   symbol = excluded.symbol,
		   type = excluded.type,
		   description = excluded.description`,
		idx.ID, idx.Name, idx.Symbol, idx.Type, idx.Description,
	)
	if err != nil {
		return "", fmt.Errorf("failed to upsert index %s: %w", idx.Name, err)
	}

	// The conflict path keeps the original id; read it back.
	var id string
	if err := r.historyDB.QueryRow(
		`SELECT id FROM market_indices WHERE name = ?`, idx.Name,
	).Scan(&id); err != nil {
		return "", fmt.Errorf("failed to read index id for %s: %w", idx.Name, err)
	}
	return id, nil
}

// ListIndices returns all known indices ordered by name.
func (r *Repository) ListIndices() ([]Index, error) {
	rows, err := r.historyDB.Query(
		`SELECT id, name, symbol, type, COALESCE(description, '')
		 FROM market_indices ORDER BY name ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query indices: %w", err)
	}
	defer rows.Close()

	var indices []Index
	for rows.Next() {
		var idx Index
		if err := rows.Scan(&idx.ID, &idx.Name, &idx.Symbol, &idx.Type, &idx.Description); err != nil {
			return nil, fmt.Errorf("failed to scan index: %w", err)
		}
		indices = append(indices, idx)
	}
	return indices, rows.Err()
}

// UpsertHistoryPoint records one index value observation.
func (r *Repository) UpsertHistoryPoint(indexID string, date time.Time, value float64) error {
	_, err := r.historyDB.Exec(
		`INSERT INTO market_index_history (index_id, date, value) VALUES (?, ?, ?)
		 ON CONFLICT (index_id, date) DO UPDATE SET value = excluded.value`,
		indexID, date.Format(dateLayout), value,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert index history: %w", err)
	}
	return nil
}

// GetHistory returns an index's value series, date ascending.
func (r *Repository) GetHistory(indexID string) ([]domain.PricePoint, error) {
	rows, err := r.historyDB.Query(
		`SELECT date, value FROM market_index_history
		 WHERE index_id = ? ORDER BY date ASC`,
		indexID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query index history: %w", err)
	}
	defer rows.Close()

	var series []domain.PricePoint
	for rows.Next() {
		var dateStr string
		var value float64
		if err := rows.Scan(&dateStr, &value); err != nil {
			return nil, fmt.Errorf("failed to scan index point: %w", err)
		}
		date, err := time.Parse(dateLayout, dateStr)
		if err != nil {
			return nil, fmt.Errorf("invalid index date %q: %w", dateStr, err)
		}
		series = append(series, domain.PricePoint{Date: date, Price: value})
	}
	return series, rows.Err()
}

// SetCategoryMapping binds a holding category to an index name.
func (r *Repository) SetCategoryMapping(category, indexName string) error {
	_, err := r.historyDB.Exec(
		`INSERT INTO category_benchmarks (category, index_name) VALUES (?, ?)
		 ON CONFLICT (category) DO UPDATE SET index_name = excluded.index_name`,
		category, indexName,
	)
	if err != nil {
		return fmt.Errorf("failed to set category mapping: %w", err)
	}
	return nil
}

// IndexForCategory resolves a holding category to its index. Returns
// domain.ErrBenchmarkUnavailable when the category is unmapped or the
// mapped index does not exist.
func (r *Repository) IndexForCategory(category string) (Index, error) {
	var idx Index
	err := r.historyDB.QueryRow(
		`SELECT mi.id, mi.name, mi.symbol, mi.type, COALESCE(mi.description, '')
		 FROM category_benchmarks cb
		 JOIN market_indices mi ON mi.name = cb.index_name
		 WHERE cb.category = ?`,
		category,
	).Scan(&idx.ID, &idx.Name, &idx.Symbol, &idx.Type, &idx.Description)
	if err == sql.ErrNoRows {
		return Index{}, domain.ErrBenchmarkUnavailable
	}
	if err != nil {
		return Index{}, fmt.Errorf("failed to resolve benchmark for category %q: %w", category, err)
	}
	return idx, nil
}
