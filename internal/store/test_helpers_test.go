package store

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/roach88/marketfeed/internal/engine"
	"github.com/roach88/marketfeed/internal/state"
)

// createTestStore opens a fresh archive in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun builds a run with two symbols and one alert.
func createTestRun(id, digest string) Run {
	return Run{
		RunInfo: RunInfo{
			ID:     id,
			Input:  "feed.csv",
			Lines:  6,
			Digest: digest,
			Config: engine.Config{EmitSummary: true, EmitAlerts: true, PriceJumpBps: 10},
			Stats:  engine.Stats{TotalEvents: 5, ParsedEvents: 4, ParseErrors: 1, UnknownEvents: 1},
		},
		Symbols: []state.SymbolState{
			{Symbol: "AAPL", LastTS: 2, LastPrice: state.SomePrice(100.2), PriceUpdates: 2},
			{Symbol: "IBM", LastTS: 3, OrderNew: 1, OrderFill: 1},
		},
		Alerts: []engine.Alert{
			{Timestamp: 2, Symbol: "AAPL", Message: "Price jump: AAPL 20.0000 bps (100.0000 -> 100.2000)"},
		},
	}
}

// overflowingRun returns a run whose counter cannot be stored.
func overflowingRun(id string) Run {
	run := createTestRun(id, "d")
	run.Stats.TotalEvents = math.MaxUint64
	return run
}
