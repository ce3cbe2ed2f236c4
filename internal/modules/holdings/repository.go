package holdings

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/wealthmax/insight/internal/domain"
)

const dateLayout = "2006-01-02"

// Repository persists holding metadata in portfolio.db.
type Repository struct {
	portfolioDB *sql.DB
	log         zerolog.Logger
}

// NewRepository creates a new holdings repository.
func NewRepository(portfolioDB *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		portfolioDB: portfolioDB,
		log:         log.With().Str("repository", "holdings").Logger(),
	}
}

// Upsert inserts or replaces the metadata row for a security.
func (r *Repository) Upsert(meta domain.HoldingMetadata) error {
	var navDate interface{}
	if meta.NAVDate != nil {
		navDate = meta.NAVDate.Format(dateLayout)
	}

	_, err := r.portfolioDB.Exec(`
		INSERT INTO holding_metadata
			(isin, name, type, ticker, category, current_nav, nav_date, risk_score, description)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(isin) DO UPDATE SET
			name = excluded.name,
			type = excluded.type,
			ticker = excluded.ticker,
			category = excluded.category,
			current_nav = excluded.current_nav,
			nav_date = excluded.nav_date,
			risk_score = excluded.risk_score,
			description = excluded.description
	`, meta.ISIN, meta.Name, string(meta.Type), meta.Ticker, meta.Category,
		meta.CurrentNAV, navDate, meta.RiskScore, meta.Description)
	if err != nil {
		return fmt.Errorf("failed to upsert holding metadata for %s: %w", meta.ISIN, err)
	}
	return nil
}

// UpdateNAV records the latest observed price for a security.
func (r *Repository) UpdateNAV(isin string, nav float64, date time.Time) error {
	_, err := r.portfolioDB.Exec(`
		UPDATE holding_metadata SET current_nav = ?, nav_date = ? WHERE isin = ?
	`, nav, date.Format(dateLayout), isin)
	if err != nil {
		return fmt.Errorf("failed to update NAV for %s: %w", isin, err)
	}
	return nil
}

// GetByISIN returns metadata for one security, or sql.ErrNoRows.
func (r *Repository) GetByISIN(isin string) (domain.HoldingMetadata, error) {
	row := r.portfolioDB.QueryRow(`
		SELECT isin, name, type, ticker, category, current_nav, nav_date, risk_score, description
		FROM holding_metadata WHERE isin = ?
	`, isin)
	return scanMetadata(row)
}

// GetByISINs returns metadata for the given securities keyed by ISIN.
// Securities without a metadata row are simply absent from the map.
func (r *Repository) GetByISINs(isins []string) (map[string]domain.HoldingMetadata, error) {
	result := make(map[string]domain.HoldingMetadata, len(isins))
	if len(isins) == 0 {
		return result, nil
	}

	placeholders := strings.Repeat("?,", len(isins))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]interface{}, len(isins))
	for i, isin := range isins {
		args[i] = isin
	}

	rows, err := r.portfolioDB.Query(`
		SELECT isin, name, type, ticker, category, current_nav, nav_date, risk_score, description
		FROM holding_metadata WHERE isin IN (`+placeholders+`)
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query holding metadata: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		meta, err := scanMetadata(rows)
		if err != nil {
			return nil, err
		}
		result[meta.ISIN] = meta
	}
	return result, rows.Err()
}

// GetAll returns every metadata row keyed by ISIN.
func (r *Repository) GetAll() (map[string]domain.HoldingMetadata, error) {
	rows, err := r.portfolioDB.Query(`
		SELECT isin, name, type, ticker, category, current_nav, nav_date, risk_score, description
		FROM holding_metadata
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query holding metadata: %w", err)
	}
	defer rows.Close()

	result := make(map[string]domain.HoldingMetadata)
	for rows.Next() {
		meta, err := scanMetadata(rows)
		if err != nil {
			return nil, err
		}
		result[meta.ISIN] = meta
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMetadata(row rowScanner) (domain.HoldingMetadata, error) {
	var (
		meta      domain.HoldingMetadata
		assetType string
		ticker    sql.NullString
		category  sql.NullString
		navDate   sql.NullString
		riskScore sql.NullFloat64
		descr     sql.NullString
	)
	err := row.Scan(&meta.ISIN, &meta.Name, &assetType, &ticker, &category,
		&meta.CurrentNAV, &navDate, &riskScore, &descr)
	if err != nil {
		return domain.HoldingMetadata{}, err
	}

	meta.Type = domain.AssetType(assetType)
	meta.Ticker = ticker.String
	meta.Category = category.String
	meta.Description = descr.String
	if navDate.Valid {
		if parsed, perr := time.Parse(dateLayout, navDate.String); perr == nil {
			meta.NAVDate = &parsed
		}
	}
	if riskScore.Valid {
		meta.RiskScore = &riskScore.Float64
	}
	return meta, nil
}
