// Package report captures the outcome of a run and renders it.
//
// A Report is a snapshot of an engine after its input is exhausted. It can be
// rendered as the console text the CLI prints, or as canonical JSON whose
// digest identifies the run's observable result.
package report

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/roach88/marketfeed/internal/engine"
	"github.com/roach88/marketfeed/internal/state"
)

// DomainReport separates report digests from any other SHA-256 use.
const DomainReport = "marketfeed/report/v1"

// Report is an immutable snapshot of a finished run.
type Report struct {
	Config  engine.Config
	Stats   engine.Stats
	Symbols []state.SymbolState // sorted by symbol
	Alerts  []engine.Alert      // in emission order
}

// Build snapshots eng.
func Build(eng *engine.Engine) Report {
	return Report{
		Config:  eng.Config(),
		Stats:   eng.Stats(),
		Symbols: eng.Symbols(),
		Alerts:  eng.Alerts(),
	}
}

// Summary returns the rendered summary block.
func (r Report) Summary() string {
	return engine.FormatSummary(r.Stats, r.Symbols)
}

// Text renders the console output: alert lines, a blank line if any alerts
// were printed, then the summary. Each part is gated by the config.
func (r Report) Text() string {
	var b strings.Builder

	if r.Config.EmitAlerts {
		for _, a := range r.Alerts {
			b.WriteString(AlertLine(a))
			b.WriteByte('\n')
		}
		if len(r.Alerts) > 0 {
			b.WriteByte('\n')
		}
	}

	if r.Config.EmitSummary {
		b.WriteString(r.Summary())
	}

	return b.String()
}

// AlertLine formats one alert as "ALERT <ts> <symbol> <message>".
func AlertLine(a engine.Alert) string {
	return "ALERT " + strconv.FormatInt(a.Timestamp, 10) + " " + a.Symbol + " " + a.Message
}

// Value converts the report to a canonical value tree.
//
// Prices are decimal strings; a symbol without an observed price has no
// last_price key.
func (r Report) Value() Object {
	symbols := make(Array, 0, len(r.Symbols))
	for _, s := range r.Symbols {
		obj := Object{
			"symbol":  String(s.Symbol),
			"last_ts": Int(s.LastTS),
			"counts": Object{
				"price_update": Int(s.PriceUpdates),
				"order_new":    Int(s.OrderNew),
				"order_fill":   Int(s.OrderFill),
				"order_cancel": Int(s.OrderCancel),
			},
		}
		if p, ok := s.LastPrice.Get(); ok {
			obj["last_price"] = String(PriceString(p))
		}
		symbols = append(symbols, obj)
	}

	alerts := make(Array, 0, len(r.Alerts))
	for _, a := range r.Alerts {
		alerts = append(alerts, Object{
			"timestamp": Int(a.Timestamp),
			"symbol":    String(a.Symbol),
			"message":   String(a.Message),
		})
	}

	return Object{
		"config": Object{
			"summary":        Bool(r.Config.EmitSummary),
			"alerts":         Bool(r.Config.EmitAlerts),
			"price_jump_bps": Int(r.Config.PriceJumpBps),
		},
		"stats": Object{
			"total_events":   Int(r.Stats.TotalEvents),
			"parsed_events":  Int(r.Stats.ParsedEvents),
			"parse_errors":   Int(r.Stats.ParseErrors),
			"unknown_events": Int(r.Stats.UnknownEvents),
		},
		"symbols": symbols,
		"alerts":  alerts,
	}
}

// JSON returns the canonical JSON encoding of the report.
func (r Report) JSON() ([]byte, error) {
	data, err := MarshalCanonical(r.Value())
	if err != nil {
		return nil, fmt.Errorf("report: marshal: %w", err)
	}
	return data, nil
}

// Digest returns the hex SHA-256 of the canonical JSON, domain separated:
// SHA256(DomainReport + 0x00 + json).
func (r Report) Digest() (string, error) {
	data, err := r.JSON()
	if err != nil {
		return "", err
	}
	return hashWithDomain(DomainReport, data), nil
}

// PriceString renders p exactly, without exponent notation.
// Non-finite values cannot occur in accepted events and fall back to strconv.
func PriceString(p float64) string {
	if s := strconv.FormatFloat(p, 'g', -1, 64); s == "NaN" || strings.HasSuffix(s, "Inf") {
		return s
	}
	return decimal.NewFromFloat(p).String()
}

func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
