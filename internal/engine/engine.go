package engine

import (
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/roach88/marketfeed/internal/event"
	"github.com/roach88/marketfeed/internal/state"
)

// Stats are process-wide counters for one run.
type Stats struct {
	// TotalEvents counts every record offered to Process.
	TotalEvents uint64 `json:"total_events"`

	// ParsedEvents counts records that passed the symbol/timestamp check.
	ParsedEvents uint64 `json:"parsed_events"`

	// ParseErrors counts records with an empty symbol or zero timestamp.
	ParseErrors uint64 `json:"parse_errors"`

	// UnknownEvents counts out-of-order and Unknown-typed records.
	UnknownEvents uint64 `json:"unknown_events"`
}

// Balanced reports whether TotalEvents == ParsedEvents + ParseErrors + UnknownEvents.
// Out-of-order and Unknown-typed events are counted as both parsed and
// unknown, so the identity only holds while none have been seen.
func (s Stats) Balanced() bool {
	return s.TotalEvents == s.ParsedEvents+s.ParseErrors+s.UnknownEvents
}

// Alert is a recorded price-jump notice.
type Alert struct {
	Timestamp int64  `json:"timestamp"`
	Symbol    string `json:"symbol"`
	Message   string `json:"message"`
}

// Engine applies events to symbol state and derives alerts.
//
// Engine is not safe for concurrent use. Events must be offered in input order.
type Engine struct {
	cfg    Config
	store  *state.Store
	stats  Stats
	alerts []Alert
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for debug output.
// Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New creates an Engine with the given configuration.
func New(cfg Config, opts ...Option) *Engine {
	e := &Engine{
		cfg:    cfg,
		store:  state.New(),
		alerts: []Alert{},
	}

	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}

	return e
}

// Config returns the engine's configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Process applies one event. It never fails; rejected events only move
// counters.
func (e *Engine) Process(ev event.Event) {
	e.stats.TotalEvents++

	if !ev.Valid() {
		e.stats.ParseErrors++
		e.logger.Debug("event rejected",
			"reason", "missing symbol or timestamp",
			"line", ev.Line,
		)
		return
	}

	e.stats.ParsedEvents++

	st := e.store.GetOrCreate(ev.Symbol)

	// Ties are accepted.
	if st.LastTS != 0 && ev.Timestamp < st.LastTS {
		e.stats.UnknownEvents++
		e.logger.Debug("event rejected",
			"reason", "out of order",
			"symbol", ev.Symbol,
			"timestamp", ev.Timestamp,
			"last_ts", st.LastTS,
			"line", ev.Line,
		)
		return
	}

	st.LastTS = ev.Timestamp

	switch ev.Type {
	case event.TypePriceUpdate:
		st.PriceUpdates++
		if prev, ok := st.LastPrice.Get(); ok {
			e.checkPriceJump(st.Symbol, prev, ev.Price, ev.Timestamp)
		}
		st.LastPrice = state.SomePrice(ev.Price)

	case event.TypeOrderNew:
		st.OrderNew++

	case event.TypeOrderFill:
		st.OrderFill++

	case event.TypeOrderCancel:
		st.OrderCancel++

	default:
		e.stats.UnknownEvents++
		e.logger.Debug("event counted as unknown",
			"symbol", ev.Symbol,
			"timestamp", ev.Timestamp,
			"line", ev.Line,
		)
	}
}

// checkPriceJump records an alert when the move from prev to next meets the
// configured threshold. Non-positive baselines never alert.
func (e *Engine) checkPriceJump(symbol string, prev, next float64, ts int64) {
	if !e.cfg.EmitAlerts {
		return
	}
	if prev <= 0 {
		return
	}

	bps := ChangeBps(prev, next)
	if bps < float64(e.cfg.PriceJumpBps) {
		return
	}

	e.alerts = append(e.alerts, Alert{
		Timestamp: ts,
		Symbol:    symbol,
		Message:   fmt.Sprintf("Price jump: %s %.4f bps (%.4f -> %.4f)", symbol, bps, prev, next),
	})
	e.logger.Debug("price jump alert",
		"symbol", symbol,
		"timestamp", ts,
		"bps", bps,
	)
}

// ChangeBps returns the absolute relative change from prev to next in basis
// points. A zero baseline yields 0.
func ChangeBps(prev, next float64) float64 {
	if prev == 0 {
		return 0
	}
	return math.Abs((next-prev)/prev) * 10000
}

// Stats returns a copy of the current counters.
func (e *Engine) Stats() Stats {
	return e.stats
}

// Alerts returns the alerts recorded so far, in insertion order.
// The returned slice is a copy.
func (e *Engine) Alerts() []Alert {
	return slices.Clone(e.alerts)
}

// State returns a snapshot of all symbol states keyed by symbol.
func (e *Engine) State() map[string]state.SymbolState {
	return e.store.All()
}

// Symbols returns a snapshot of all symbol states in ascending symbol order.
func (e *Engine) Symbols() []state.SymbolState {
	keys := e.store.Symbols()
	slices.Sort(keys)

	out := make([]state.SymbolState, 0, len(keys))
	for _, k := range keys {
		st, _ := e.store.Get(k)
		out = append(out, st)
	}
	return out
}
