package benchmark

// Index describes one market index available for comparison.
type Index struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Type        string `json:"type"` // EQUITY | DEBT | HYBRID
	Description string `json:"description,omitempty"`
}

// Comparison is the outcome of pitting a portfolio's money-weighted return
// against the index its holdings map to.
type Comparison struct {
	IndexName      string  `json:"index_name"`
	PortfolioXIRR  float64 `json:"portfolio_xirr"`
	BenchmarkXIRR  float64 `json:"benchmark_xirr"`
	Outperformance float64 `json:"outperformance"`
}
