// Package domain contains the shared domain model for the insight analytics
// engine. Types here are plain data: no infrastructure dependencies, owned by
// the analytics request that materializes them.
package domain

import "time"

// TransactionType enumerates the recognized ledger entry kinds.
type TransactionType string

const (
	TransactionBuy  TransactionType = "BUY"
	TransactionSIP  TransactionType = "SIP"
	TransactionSell TransactionType = "SELL"
)

// AssetType enumerates the supported holding classes.
type AssetType string

const (
	AssetEquity     AssetType = "EQUITY"
	AssetMutualFund AssetType = "MUTUAL_FUND"
)

// Transaction is one immutable ledger row. Units are positive for BUY/SIP
// and represent units disposed for SELL. Amount is the invested (or
// realized) amount, always positive in storage; sign conventions for
// cash-flow math are applied by the ledger reader, not here.
type Transaction struct {
	ID          string          `json:"id"`
	PortfolioID string          `json:"portfolio_id"`
	ISIN        string          `json:"isin"`
	Date        time.Time       `json:"date"`
	Type        TransactionType `json:"type"`
	Units       float64         `json:"units"`
	Amount      float64         `json:"amount"`
	NAV         float64         `json:"nav"` // price per unit at execution
	Source      string          `json:"source"`
}

// HoldingMetadata mirrors the externally supplied metadata feed for a
// security: display name, class, benchmark-mapping category, latest price
// and the configured risk score. RiskScore is nil when not configured; the
// risk classifier then derives a volatility proxy or applies a class default.
type HoldingMetadata struct {
	ISIN        string     `json:"isin"`
	Name        string     `json:"name"`
	Type        AssetType  `json:"type"`
	Ticker      string     `json:"ticker,omitempty"`
	Category    string     `json:"category,omitempty"`
	CurrentNAV  float64    `json:"current_nav"`
	NAVDate     *time.Time `json:"nav_date,omitempty"`
	RiskScore   *float64   `json:"risk_score,omitempty"`
	Description string     `json:"description,omitempty"`
}

// HoldingSnapshot is the derived, point-in-time position for one holding.
// It is recomputed on demand from the transaction list and never mutated
// independently.
type HoldingSnapshot struct {
	ISIN          string    `json:"isin"`
	Name          string    `json:"name"`
	AssetType     AssetType `json:"asset_type"`
	Category      string    `json:"category,omitempty"`
	TotalUnits    float64   `json:"total_units"`
	AverageCost   float64   `json:"average_cost"`
	TotalInvested float64   `json:"total_invested"`
	CurrentPrice  float64   `json:"current_price"`
	CurrentValue  float64   `json:"current_value"`
}

// PricePoint is one entry of a sparse, date-ascending price series
// (NAV history or benchmark index history).
type PricePoint struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}

// GrowthPoint is one entry of a resampled portfolio value series.
type GrowthPoint struct {
	Date  time.Time `json:"-"`
	Value float64   `json:"value"`
}

// DrawdownPoint pairs a growth point date with the percentage decline from
// the running maximum. DrawdownPct is always <= 0.
type DrawdownPoint struct {
	Date        time.Time `json:"-"`
	DrawdownPct float64   `json:"drawdown_pct"`
}

// RollingReturnPoint is one trailing-window return observation.
type RollingReturnPoint struct {
	Date      time.Time `json:"-"`
	ReturnPct float64   `json:"return_pct"`
}
