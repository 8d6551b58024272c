package engine

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/roach88/marketfeed/internal/state"
)

// RenderSummary renders the counters followed by one block per symbol in
// ascending symbol order. The output depends only on engine state.
func (e *Engine) RenderSummary() string {
	return FormatSummary(e.stats, e.Symbols())
}

// FormatSummary renders a summary from stats and symbols. symbols must
// already be in ascending symbol order.
func FormatSummary(stats Stats, symbols []state.SymbolState) string {
	var b strings.Builder

	b.WriteString("SUMMARY\n")
	b.WriteString("-------\n")
	fmt.Fprintf(&b, "Total lines/events seen: %d\n", stats.TotalEvents)
	fmt.Fprintf(&b, "Parsed events: %d\n", stats.ParsedEvents)
	fmt.Fprintf(&b, "Parse errors: %d\n", stats.ParseErrors)
	fmt.Fprintf(&b, "Unknown/rejected events: %d\n\n", stats.UnknownEvents)

	for _, st := range symbols {
		b.WriteString(st.Symbol)
		b.WriteByte('\n')
		fmt.Fprintf(&b, "  last_ts: %d\n", st.LastTS)
		fmt.Fprintf(&b, "  last_price: %s\n", FormatPrice(st.LastPrice.OrZero()))
		fmt.Fprintf(&b, "  counts: PRICE_UPDATE=%d ORDER_NEW=%d ORDER_FILL=%d ORDER_CANCEL=%d\n\n",
			st.PriceUpdates, st.OrderNew, st.OrderFill, st.OrderCancel)
	}

	return b.String()
}

// FormatPrice renders v as the shortest exact decimal that round-trips,
// always with at least one fractional digit: 100 -> "100.0", 100.2 -> "100.2".
// This is not %g-style output: digits are never rounded to six significant
// places and exponent notation is never used, so 1234567.891 prints in full
// rather than as "1.23457e+06", and 151 prints as "151.0", not "151".
// Non-finite values, which the parser never produces, fall back to strconv.
func FormatPrice(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	s := decimal.NewFromFloat(v).String()
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
