package domain

import "errors"

// Analytics error taxonomy. The split matters for propagation policy:
// non-fatal conditions are caught at aggregation boundaries and surfaced as
// explicit "unavailable" fields in responses; only structurally invalid
// input reaches the caller as a hard error.
var (
	// ErrEmptyLedger means a holding (or a whole portfolio) has no
	// transactions. Per-holding this is "no position", not a failure.
	ErrEmptyLedger = errors.New("no transactions recorded")

	// ErrNoPriceAvailable means a valuation was requested before the first
	// known price point. The engine never fabricates a price; at the
	// portfolio-aggregation layer the holding contributes zero instead.
	ErrNoPriceAvailable = errors.New("no price available at or before date")

	// ErrBenchmarkUnavailable means the holding's category has no mapped
	// index, or the index has no history in the relevant window. Callers
	// report "comparison unavailable" and continue.
	ErrBenchmarkUnavailable = errors.New("benchmark comparison unavailable")
)
