package risk

// Quadrant names the half-plane a holding falls into after the median
// split of the risk-return matrix.
type Quadrant string

const (
	QuadrantHighReturnLowRisk  Quadrant = "HighReturn-LowRisk"
	QuadrantHighReturnHighRisk Quadrant = "HighReturn-HighRisk"
	QuadrantLowReturnLowRisk   Quadrant = "LowReturn-LowRisk"
	QuadrantLowReturnHighRisk  Quadrant = "LowReturn-HighRisk"
)

// Severity grades how far a concentration breach exceeds the threshold.
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
)

// MatrixEntry is one holding plotted on the risk-return matrix.
type MatrixEntry struct {
	ISIN      string   `json:"isin"`
	Name      string   `json:"name"`
	WeightPct float64  `json:"weight_pct"`
	ReturnPct float64  `json:"return_pct"`
	RiskScore float64  `json:"risk_score"`
	Quadrant  Quadrant `json:"quadrant"`
}

// ConcentrationAlert flags one holding whose portfolio weight breaches the
// concentration threshold.
type ConcentrationAlert struct {
	ISIN      string   `json:"isin"`
	Name      string   `json:"name"`
	WeightPct float64  `json:"weight_pct"`
	Severity  Severity `json:"severity"`
	Message   string   `json:"message"`
}

// Metrics is the full risk picture for one portfolio.
type Metrics struct {
	PortfolioID          string               `json:"portfolio_id"`
	Matrix               []MatrixEntry        `json:"matrix"`
	MedianReturnPct      float64              `json:"median_return_pct"`
	MedianRiskScore      float64              `json:"median_risk_score"`
	HasConcentrationRisk bool                 `json:"has_concentration_risk"`
	ConcentrationRisks   []ConcentrationAlert `json:"concentration_risks"`
	OverDiversified      bool                 `json:"over_diversified"`
	HoldingCount         int                  `json:"holding_count"`
	MaxWeightPct         float64              `json:"max_weight_pct"`
}
