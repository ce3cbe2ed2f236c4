package snapshots

import "time"

// Metrics is the auxiliary snapshot payload, persisted as a msgpack blob
// alongside the headline columns. Fields can be added without a migration.
type Metrics struct {
	HoldingCount        int     `msgpack:"holding_count" json:"holding_count"`
	ReturnPct           float64 `msgpack:"return_pct" json:"return_pct"`
	MaxDrawdownPct      float64 `msgpack:"max_drawdown_pct" json:"max_drawdown_pct"`
	TopHoldingWeightPct float64 `msgpack:"top_holding_weight_pct" json:"top_holding_weight_pct"`
}

// Snapshot is one daily record of a portfolio's aggregate state.
type Snapshot struct {
	PortfolioID   string    `json:"portfolio_id"`
	Date          time.Time `json:"date"`
	TotalValue    float64   `json:"total_value"`
	TotalInvested float64   `json:"total_invested"`
	XIRR          *float64  `json:"xirr,omitempty"`
	Metrics       Metrics   `json:"metrics"`
}
