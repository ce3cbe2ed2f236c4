package snapshots

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

const dateLayout = "2006-01-02"

// Repository persists daily portfolio snapshots in portfolio.db. One row
// per portfolio per day; re-recording the same day overwrites it.
type Repository struct {
	portfolioDB *sql.DB
	log         zerolog.Logger
}

// NewRepository creates a new snapshots repository.
func NewRepository(portfolioDB *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		portfolioDB: portfolioDB,
		log:         log.With().Str("repository", "snapshots").Logger(),
	}
}

// Save writes (or overwrites) the snapshot for its portfolio and date.
func (r *Repository) Save(snapshot Snapshot) error {
	blob, err := msgpack.Marshal(snapshot.Metrics)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot metrics: %w", err)
	}

	_, err = r.portfolioDB.Exec(`
		INSERT INTO portfolio_snapshots
			(portfolio_id, snapshot_date, total_value, total_invested, xirr, metrics)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(portfolio_id, snapshot_date) DO UPDATE SET
			total_value = excluded.total_value,
			total_invested = excluded.total_invested,
			xirr = excluded.xirr,
			metrics = excluded.metrics
	`, snapshot.PortfolioID, snapshot.Date.Format(dateLayout),
		snapshot.TotalValue, snapshot.TotalInvested, snapshot.XIRR, blob)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// List returns snapshots for a portfolio, newest first. A limit of 0 means
// no limit.
func (r *Repository) List(portfolioID string, limit int) ([]Snapshot, error) {
	query := `
		SELECT portfolio_id, snapshot_date, total_value, total_invested, xirr, metrics
		FROM portfolio_snapshots
		WHERE portfolio_id = ?
		ORDER BY snapshot_date DESC`
	args := []interface{}{portfolioID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.portfolioDB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var result []Snapshot
	for rows.Next() {
		var (
			snapshot Snapshot
			dateStr  string
			xirr     sql.NullFloat64
			blob     []byte
		)
		if err := rows.Scan(&snapshot.PortfolioID, &dateStr, &snapshot.TotalValue,
			&snapshot.TotalInvested, &xirr, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}

		snapshot.Date, err = time.Parse(dateLayout, dateStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse snapshot date %q: %w", dateStr, err)
		}
		if xirr.Valid {
			snapshot.XIRR = &xirr.Float64
		}
		if len(blob) > 0 {
			if err := msgpack.Unmarshal(blob, &snapshot.Metrics); err != nil {
				r.log.Warn().Err(err).Str("portfolio_id", snapshot.PortfolioID).
					Str("date", dateStr).Msg("Failed to decode snapshot metrics, returning zero metrics")
			}
		}
		result = append(result, snapshot)
	}
	return result, rows.Err()
}

// Latest returns the most recent snapshot for a portfolio, or sql.ErrNoRows.
func (r *Repository) Latest(portfolioID string) (Snapshot, error) {
	list, err := r.List(portfolioID, 1)
	if err != nil {
		return Snapshot{}, err
	}
	if len(list) == 0 {
		return Snapshot{}, sql.ErrNoRows
	}
	return list[0], nil
}
