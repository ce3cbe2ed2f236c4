// Package ledger provides the transaction ledger: the immutable record of
// buy/SIP/sell activity that every analytics computation starts from.
package ledger

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wealthmax/insight/internal/domain"
)

const dateLayout = "2006-01-02"

// Repository handles transaction persistence in ledger.db. Transactions are
// an immutable audit trail: inserts only, deduplicated on
// (portfolio, isin, date, amount) to keep re-imports idempotent.
type Repository struct {
	ledgerDB *sql.DB
	log      zerolog.Logger
}

// NewRepository creates a new transaction repository.
func NewRepository(ledgerDB *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		ledgerDB: ledgerDB,
		log:      log.With().Str("repo", "ledger").Logger(),
	}
}

// CreatePortfolio inserts a portfolio container row and returns its id.
func (r *Repository) CreatePortfolio(alias, source string) (string, error) {
	id := uuid.NewString()
	_, err := r.ledgerDB.Exec(
		`INSERT INTO portfolios (id, alias, source) VALUES (?, ?, ?)`,
		id, alias, source,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create portfolio: %w", err)
	}
	return id, nil
}

// GetPortfolioByAlias returns the id of the portfolio with the given alias,
// or sql.ErrNoRows.
func (r *Repository) GetPortfolioByAlias(alias string) (string, error) {
	var id string
	err := r.ledgerDB.QueryRow(
		`SELECT id FROM portfolios WHERE alias = ?`, alias,
	).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

// ListPortfolios returns the ids of every known portfolio.
func (r *Repository) ListPortfolios() ([]string, error) {
	rows, err := r.ledgerDB.Query(`SELECT id FROM portfolios ORDER BY alias ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list portfolios: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// PortfolioExists reports whether the portfolio id is known.
func (r *Repository) PortfolioExists(portfolioID string) (bool, error) {
	var one int
	err := r.ledgerDB.QueryRow(
		`SELECT 1 FROM portfolios WHERE id = ?`, portfolioID,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check portfolio: %w", err)
	}
	return true, nil
}

// Insert records a transaction. Duplicate rows (same portfolio, isin, date
// and amount) are skipped silently; the bool result reports whether a row
// was actually written.
func (r *Repository) Insert(tx domain.Transaction) (bool, error) {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}

	res, err := r.ledgerDB.Exec(
		`INSERT OR IGNORE INTO portfolio_transactions
		 (id, portfolio_id, isin, transaction_date, transaction_type, units, amount, nav, source)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.PortfolioID, tx.ISIN, tx.Date.Format(dateLayout),
		string(tx.Type), tx.Units, tx.Amount, tx.NAV, tx.Source,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert transaction: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read insert result: %w", err)
	}
	if rows == 0 {
		r.log.Debug().
			Str("isin", tx.ISIN).
			Str("date", tx.Date.Format(dateLayout)).
			Msg("Skipped duplicate transaction")
	}
	return rows > 0, nil
}

// GetByPortfolio returns all transactions of a portfolio, date ascending.
// An optional isin narrows the result to one holding.
func (r *Repository) GetByPortfolio(portfolioID, isin string) ([]domain.Transaction, error) {
	query := `SELECT id, portfolio_id, isin, transaction_date, transaction_type,
	                 units, amount, nav, source
	          FROM portfolio_transactions
	          WHERE portfolio_id = ?`
	args := []interface{}{portfolioID}

	if isin != "" {
		query += ` AND isin = ?`
		args = append(args, isin)
	}
	query += ` ORDER BY transaction_date ASC, isin ASC`

	rows, err := r.ledgerDB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var transactions []domain.Transaction
	for rows.Next() {
		var tx domain.Transaction
		var dateStr, txType string
		if err := rows.Scan(&tx.ID, &tx.PortfolioID, &tx.ISIN, &dateStr, &txType,
			&tx.Units, &tx.Amount, &tx.NAV, &tx.Source); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		date, err := time.Parse(dateLayout, dateStr)
		if err != nil {
			return nil, fmt.Errorf("invalid transaction date %q: %w", dateStr, err)
		}
		tx.Date = date
		tx.Type = domain.TransactionType(txType)
		transactions = append(transactions, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return transactions, nil
}
