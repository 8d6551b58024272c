// Package ingest connects the parser to the engine.
//
// It is the boundary where diagnostics are logged and where the hand-off
// contract is kept: every rejected line is replaced by event.Blank so the
// engine's ParseErrors counter matches the number of rejected lines.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/marketfeed/internal/event"
	"github.com/roach88/marketfeed/internal/parser"
)

// Processor consumes events in order. *engine.Engine implements it.
type Processor interface {
	Process(ev event.Event)
}

// Summary describes one pass over an input.
type Summary struct {
	// Lines is the number of physical lines read, including skipped ones.
	Lines int `json:"lines"`

	// Records is the number of records forwarded to the processor.
	Records int `json:"records"`

	// Rejected is the number of lines replaced by a blank record.
	Rejected int `json:"rejected"`

	// Warnings is the number of accepted lines that carried a diagnostic.
	Warnings int `json:"warnings"`
}

type options struct {
	logger       *slog.Logger
	onDiagnostic func(parser.Diagnostic)
}

// Option configures Run.
type Option func(*options)

// WithLogger sets the logger diagnostics are written to.
// Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithDiagnosticHook registers fn to receive every diagnostic, in input order.
func WithDiagnosticHook(fn func(parser.Diagnostic)) Option {
	return func(o *options) {
		o.onDiagnostic = fn
	}
}

// Run parses r to exhaustion and forwards one record per non-skipped line to
// p, in input order.
//
// ctx is checked between lines; on cancellation Run stops and returns the
// partial summary with ctx.Err(). Read errors are returned wrapped.
func Run(ctx context.Context, r io.Reader, p Processor, opts ...Option) (Summary, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	ps := parser.New(r)
	var sum Summary

	for {
		if err := ctx.Err(); err != nil {
			sum.Lines = ps.Line()
			return sum, err
		}

		res, err := ps.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			sum.Lines = ps.Line()
			return sum, fmt.Errorf("ingest: %w", err)
		}

		sum.Records++

		if !res.OK() {
			sum.Rejected++
			o.logger.Warn("parse error",
				"line", res.Err.Line,
				"code", res.Err.Code,
				"reason", res.Err.Reason,
			)
			if o.onDiagnostic != nil {
				o.onDiagnostic(*res.Err)
			}
			p.Process(event.Blank(res.Err.Line))
			continue
		}

		if res.Warn != nil {
			sum.Warnings++
			o.logger.Warn("unknown event type",
				"line", res.Warn.Line,
				"code", res.Warn.Code,
				"reason", res.Warn.Reason,
			)
			if o.onDiagnostic != nil {
				o.onDiagnostic(*res.Warn)
			}
		}

		p.Process(res.Event)
	}

	sum.Lines = ps.Line()
	return sum, nil
}
