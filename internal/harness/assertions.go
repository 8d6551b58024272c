package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/roach88/marketfeed/internal/engine"
	"github.com/roach88/marketfeed/internal/parser"
	"github.com/roach88/marketfeed/internal/state"
)

// ExpectationError describes one failed check.
type ExpectationError struct {
	Section  string // "stats", "alerts", "symbols", "absent", "diagnostics"
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *ExpectationError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", e.Section, e.Expected, e.Actual)
}

// EvaluateExpectations checks result against expect and returns one message
// per failure, in section order.
func EvaluateExpectations(result *Result, expect Expect) []string {
	var errs []error

	if expect.Stats != nil {
		errs = append(errs, checkStats(result.Report.Stats, *expect.Stats)...)
	}
	if expect.Alerts != nil {
		errs = append(errs, checkAlerts(result.Report.Alerts, *expect.Alerts)...)
	}
	if len(expect.Symbols) > 0 || len(expect.Absent) > 0 {
		errs = append(errs, checkSymbols(result.Report.Symbols, expect.Symbols, expect.Absent)...)
	}
	if expect.Diagnostics != nil {
		errs = append(errs, checkDiagnostics(result.Diagnostics, *expect.Diagnostics)...)
	}

	msgs := make([]string, 0, len(errs))
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}
	return msgs
}

func checkStats(actual engine.Stats, expect StatsExpect) []error {
	var errs []error
	check := func(name string, want *uint64, got uint64) {
		if want != nil && *want != got {
			errs = append(errs, &ExpectationError{
				Section:  "stats." + name,
				Expected: fmt.Sprint(*want),
				Actual:   fmt.Sprint(got),
			})
		}
	}

	check("total_events", expect.TotalEvents, actual.TotalEvents)
	check("parsed_events", expect.ParsedEvents, actual.ParsedEvents)
	check("parse_errors", expect.ParseErrors, actual.ParseErrors)
	check("unknown_events", expect.UnknownEvents, actual.UnknownEvents)
	return errs
}

func checkAlerts(actual []engine.Alert, expect []AlertExpect) []error {
	if len(actual) != len(expect) {
		return []error{&ExpectationError{
			Section:  "alerts",
			Expected: fmt.Sprintf("%d alert(s)", len(expect)),
			Actual:   fmt.Sprintf("%d alert(s): %s", len(actual), formatAlerts(actual)),
		}}
	}

	var errs []error
	for i, want := range expect {
		got := actual[i]
		if got.Timestamp != want.Timestamp || got.Symbol != want.Symbol ||
			(want.Message != "" && got.Message != want.Message) {
			errs = append(errs, &ExpectationError{
				Section:  fmt.Sprintf("alerts[%d]", i),
				Expected: fmt.Sprintf("%d %s %q", want.Timestamp, want.Symbol, want.Message),
				Actual:   fmt.Sprintf("%d %s %q", got.Timestamp, got.Symbol, got.Message),
			})
		}
	}
	return errs
}

func formatAlerts(alerts []engine.Alert) string {
	if len(alerts) == 0 {
		return "none"
	}
	parts := make([]string, len(alerts))
	for i, a := range alerts {
		parts[i] = fmt.Sprintf("[%d %s]", a.Timestamp, a.Symbol)
	}
	return strings.Join(parts, " ")
}

func checkSymbols(actual []state.SymbolState, expect map[string]SymbolExpect, absent []string) []error {
	bySymbol := make(map[string]state.SymbolState, len(actual))
	for _, st := range actual {
		bySymbol[st.Symbol] = st
	}

	var errs []error

	// Iterate in sorted order so failures are reported deterministically.
	names := make([]string, 0, len(expect))
	for name := range expect {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		st, ok := bySymbol[name]
		if !ok {
			errs = append(errs, &ExpectationError{
				Section:  "symbols." + name,
				Expected: "state present",
				Actual:   "no state",
			})
			continue
		}
		errs = append(errs, checkSymbol(name, st, expect[name])...)
	}

	for _, name := range absent {
		if _, ok := bySymbol[name]; ok {
			errs = append(errs, &ExpectationError{
				Section:  "absent." + name,
				Expected: "no state",
				Actual:   "state present",
			})
		}
	}

	return errs
}

func checkSymbol(name string, st state.SymbolState, want SymbolExpect) []error {
	var errs []error
	fail := func(field, expected, actual string) {
		errs = append(errs, &ExpectationError{
			Section:  "symbols." + name + "." + field,
			Expected: expected,
			Actual:   actual,
		})
	}

	if want.LastTS != nil && *want.LastTS != st.LastTS {
		fail("last_ts", fmt.Sprint(*want.LastTS), fmt.Sprint(st.LastTS))
	}

	price, observed := st.LastPrice.Get()
	if want.PriceObserved != nil && *want.PriceObserved != observed {
		fail("price_observed", fmt.Sprint(*want.PriceObserved), fmt.Sprint(observed))
	}
	if want.LastPrice != nil {
		expected, err := decimal.NewFromString(*want.LastPrice)
		switch {
		case err != nil:
			fail("last_price", *want.LastPrice, "invalid expectation: "+err.Error())
		case !observed:
			fail("last_price", *want.LastPrice, "unobserved")
		case !expected.Equal(decimal.NewFromFloat(price)):
			fail("last_price", *want.LastPrice, engine.FormatPrice(price))
		}
	}

	counter := func(field string, want *uint64, got uint64) {
		if want != nil && *want != got {
			fail(field, fmt.Sprint(*want), fmt.Sprint(got))
		}
	}
	counter("price_updates", want.PriceUpdates, st.PriceUpdates)
	counter("order_new", want.OrderNew, st.OrderNew)
	counter("order_fill", want.OrderFill, st.OrderFill)
	counter("order_cancel", want.OrderCancel, st.OrderCancel)

	return errs
}

func checkDiagnostics(actual []parser.Diagnostic, expect []DiagnosticExpect) []error {
	if len(actual) != len(expect) {
		got := make([]string, len(actual))
		for i, d := range actual {
			got[i] = fmt.Sprintf("[%d %s]", d.Line, d.Code)
		}
		return []error{&ExpectationError{
			Section:  "diagnostics",
			Expected: fmt.Sprintf("%d diagnostic(s)", len(expect)),
			Actual:   fmt.Sprintf("%d diagnostic(s) %s", len(actual), strings.Join(got, " ")),
		}}
	}

	var errs []error
	for i, want := range expect {
		got := actual[i]
		if got.Line != want.Line || got.Code != want.Code ||
			(want.Reason != "" && got.Reason != want.Reason) {
			errs = append(errs, &ExpectationError{
				Section:  fmt.Sprintf("diagnostics[%d]", i),
				Expected: fmt.Sprintf("line %d %s %q", want.Line, want.Code, want.Reason),
				Actual:   fmt.Sprintf("line %d %s %q", got.Line, got.Code, got.Reason),
			})
		}
	}
	return errs
}
