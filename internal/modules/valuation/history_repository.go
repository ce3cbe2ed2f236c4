// Package valuation reconstructs holding and portfolio market values for
// arbitrary dates using as-of price lookups over sparse NAV history.
package valuation

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/wealthmax/insight/internal/domain"
)

const dateLayout = "2006-01-02"

// HistoryRepository provides access to NAV history in history.db.
type HistoryRepository struct {
	historyDB *sql.DB
	log       zerolog.Logger
}

// NewHistoryRepository creates a new NAV history repository.
func NewHistoryRepository(historyDB *sql.DB, log zerolog.Logger) *HistoryRepository {
	return &HistoryRepository{
		historyDB: historyDB,
		log:       log.With().Str("repo", "nav_history").Logger(),
	}
}

// UpsertPrice records one NAV observation, replacing any prior value for the
// same holding and date.
func (r *HistoryRepository) UpsertPrice(isin string, date time.Time, price float64) error {
	_, err := r.historyDB.Exec(
		`INSERT INTO nav_history (isin, date, price) VALUES (?, ?, ?)
		 ON CONFLICT (isin, date) DO UPDATE SET price = excluded.price`,
		isin, date.Format(dateLayout), price,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert price for %s: %w", isin, err)
	}
	return nil
}

// GetSeries returns a holding's full NAV series, date ascending.
func (r *HistoryRepository) GetSeries(isin string) ([]domain.PricePoint, error) {
	rows, err := r.historyDB.Query(
		`SELECT date, price FROM nav_history WHERE isin = ? ORDER BY date ASC`,
		isin,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query nav history for %s: %w", isin, err)
	}
	defer rows.Close()

	return scanSeries(rows)
}

// GetSeriesForHoldings preloads the NAV series of several holdings in one
// round trip per holding. Holdings without any history map to an empty
// series, not an error: the valuation layer treats them as unpriced.
func (r *HistoryRepository) GetSeriesForHoldings(isins []string) (map[string][]domain.PricePoint, error) {
	series := make(map[string][]domain.PricePoint, len(isins))
	for _, isin := range isins {
		points, err := r.GetSeries(isin)
		if err != nil {
			return nil, err
		}
		series[isin] = points
	}
	return series, nil
}

func scanSeries(rows *sql.Rows) ([]domain.PricePoint, error) {
	var series []domain.PricePoint
	for rows.Next() {
		var dateStr string
		var price float64
		if err := rows.Scan(&dateStr, &price); err != nil {
			return nil, fmt.Errorf("failed to scan price point: %w", err)
		}
		date, err := time.Parse(dateLayout, dateStr)
		if err != nil {
			return nil, fmt.Errorf("invalid price date %q: %w", dateStr, err)
		}
		series = append(series, domain.PricePoint{Date: date, Price: price})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating price points: %w", err)
	}
	return series, nil
}
