// Package parser turns a line-oriented market feed into events.
//
// Each record is one physical line with six comma-separated fields:
//
//	timestamp,symbol,type,price,qty,side
//
// Blank lines, lines starting with '#', and a header line starting with
// "timestamp," are skipped silently. Every other line yields exactly one
// Result: either a validated event or a diagnostic explaining the rejection.
package parser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/roach88/marketfeed/internal/event"
	"github.com/roach88/marketfeed/internal/textutil"
)

const (
	fieldCount   = 6
	delimiter    = ','
	commentMark  = "#"
	headerPrefix = "timestamp,"
)

// Result is the outcome of parsing one non-skipped line.
//
// Exactly one of three shapes is returned:
//   - Err == nil, Warn == nil: Event is fully validated.
//   - Err == nil, Warn != nil: Event is usable but its type was not
//     recognised (Event.Type is event.TypeUnknown).
//   - Err != nil: the line was rejected and Event must not be applied.
type Result struct {
	Event event.Event
	Err   *Diagnostic
	Warn  *Diagnostic
}

// OK reports whether Event may be applied to the engine.
func (r Result) OK() bool {
	return r.Err == nil
}

// Parser reads events one line at a time.
//
// Parser is not safe for concurrent use.
type Parser struct {
	r    *bufio.Reader
	line int
	eof  bool
}

// New creates a Parser reading from r.
func New(r io.Reader) *Parser {
	return &Parser{r: bufio.NewReader(r)}
}

// Line returns the number of physical lines consumed so far.
func (p *Parser) Line() int {
	return p.line
}

// Next returns the result for the next non-skipped line.
//
// Returns io.EOF once the input is exhausted. Any other error comes from the
// underlying reader and ends parsing.
func (p *Parser) Next() (Result, error) {
	for {
		raw, err := p.readLine()
		if err != nil {
			return Result{}, err
		}

		trimmed := textutil.Trim(raw)
		if trimmed == "" ||
			strings.HasPrefix(trimmed, commentMark) ||
			strings.HasPrefix(trimmed, headerPrefix) {
			continue
		}

		return parseLine(trimmed, p.line), nil
	}
}

// readLine returns the next physical line without its terminator and bumps
// the line counter. A final line without a trailing newline is still returned.
func (p *Parser) readLine() (string, error) {
	if p.eof {
		return "", io.EOF
	}

	s, err := p.r.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read line %d: %w", p.line+1, err)
		}
		p.eof = true
		if s == "" {
			return "", io.EOF
		}
	}

	p.line++
	return strings.TrimSuffix(s, "\n"), nil
}

// ParseLine parses a single record. line is used only for diagnostics.
// Skip rules do not apply; callers pass record lines only.
func ParseLine(s string, line int) Result {
	return parseLine(textutil.Trim(s), line)
}

func parseLine(trimmed string, line int) Result {
	reject := func(code DiagnosticCode, reason string) Result {
		return Result{Err: newDiagnostic(line, code, reason)}
	}

	parts := textutil.Split(trimmed, delimiter)
	if len(parts) != fieldCount {
		return reject(CodeFieldCount, ReasonFieldCount)
	}

	ev := event.Event{Line: line, Side: event.SideNone}

	ts, ok := parseInt64(parts[0])
	if !ok {
		return reject(CodeInvalidTimestamp, ReasonInvalidTimestamp)
	}
	ev.Timestamp = ts

	ev.Symbol = textutil.Trim(parts[1])
	if ev.Symbol == "" {
		return reject(CodeEmptySymbol, ReasonEmptySymbol)
	}

	var warn *Diagnostic
	typeToken := textutil.Trim(parts[2])
	if typ, known := event.ParseType(typeToken); known {
		ev.Type = typ
	} else {
		ev.Type = event.TypeUnknown
		warn = newDiagnostic(line, CodeUnknownType, ReasonUnknownTypePfx+typeToken)
	}

	price, ok := parseFloat64(parts[3])
	if !ok {
		return reject(CodeInvalidPrice, ReasonInvalidPrice)
	}
	ev.Price = price

	qty, ok := parseInt64(parts[4])
	if !ok {
		return reject(CodeInvalidQty, ReasonInvalidQty)
	}
	ev.Qty = qty

	side, ok := event.ParseSide(textutil.Trim(parts[5]))
	if !ok {
		return reject(CodeInvalidSide, ReasonInvalidSide)
	}
	ev.Side = side

	return Result{Event: ev, Warn: warn}
}

// parseInt64 accepts an optional leading '-' followed by decimal digits and
// nothing else. Values outside the int64 range are rejected.
func parseInt64(field string) (int64, bool) {
	s := textutil.Trim(field)
	if s == "" || s[0] == '+' {
		return 0, false
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseFloat64 requires the whole trimmed field to be a finite decimal
// float. Hexadecimal mantissas ("0x1p4"), NaN, infinities and out-of-range
// magnitudes are rejected.
func parseFloat64(field string) (float64, bool) {
	s := textutil.Trim(field)
	if s == "" || isHexFloat(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// isHexFloat reports whether s, after an optional sign, has a 0x or 0X
// prefix. strconv.ParseFloat would otherwise accept it.
func isHexFloat(s string) bool {
	if s[0] == '+' || s[0] == '-' {
		s = s[1:]
	}
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}
