package engine

// DefaultPriceJumpBps is the default price-jump alert threshold.
// 50 bps = 0.50%.
const DefaultPriceJumpBps int64 = 50

// Config controls which outputs the engine derives.
type Config struct {
	// EmitSummary tells the caller to render the summary after processing.
	// The engine itself can always render one.
	EmitSummary bool

	// EmitAlerts enables price-jump evaluation. When false no alert is ever
	// recorded.
	EmitAlerts bool

	// PriceJumpBps is the inclusive alert threshold in basis points.
	PriceJumpBps int64
}

// DefaultConfig returns a Config with both outputs disabled and the default
// threshold.
func DefaultConfig() Config {
	return Config{PriceJumpBps: DefaultPriceJumpBps}
}
