package parser

import (
	"errors"
	"fmt"
)

// DiagnosticCode categorizes why a line was rejected or flagged.
type DiagnosticCode string

const (
	// CodeFieldCount indicates the line did not split into exactly six fields.
	CodeFieldCount DiagnosticCode = "FIELD_COUNT"

	// CodeInvalidTimestamp indicates field 0 is not a strict int64.
	CodeInvalidTimestamp DiagnosticCode = "INVALID_TIMESTAMP"

	// CodeEmptySymbol indicates field 1 is empty after trimming.
	CodeEmptySymbol DiagnosticCode = "EMPTY_SYMBOL"

	// CodeUnknownType indicates field 2 is not a known event type.
	// This is the only code that does not reject the line.
	CodeUnknownType DiagnosticCode = "UNKNOWN_TYPE"

	// CodeInvalidPrice indicates field 3 is not a strict, finite float64.
	CodeInvalidPrice DiagnosticCode = "INVALID_PRICE"

	// CodeInvalidQty indicates field 4 is not a strict int64.
	CodeInvalidQty DiagnosticCode = "INVALID_QTY"

	// CodeInvalidSide indicates field 5 is not one of B, S or -.
	CodeInvalidSide DiagnosticCode = "INVALID_SIDE"
)

// Human-readable reasons, one per code. The wording is part of the
// diagnostic output contract.
const (
	ReasonFieldCount       = "Expected 6 fields: timestamp,symbol,type,price,qty,side"
	ReasonInvalidTimestamp = "Invalid timestamp"
	ReasonEmptySymbol      = "Empty symbol"
	ReasonUnknownTypePfx   = "Unknown type: "
	ReasonInvalidPrice     = "Invalid price"
	ReasonInvalidQty       = "Invalid qty"
	ReasonInvalidSide      = "Invalid side (expected B, S, or -)"
)

// Diagnostic is a non-fatal report about one input line.
type Diagnostic struct {
	// Line is the 1-based physical line number.
	Line int

	Code DiagnosticCode

	// Reason is the human-readable explanation.
	Reason string
}

// Error implements the error interface.
func (d *Diagnostic) Error() string {
	return fmt.Sprintf("line %d: %s", d.Line, d.Reason)
}

// Rejects reports whether the diagnostic causes its line to be dropped.
func (d *Diagnostic) Rejects() bool {
	return d.Code != CodeUnknownType
}

// IsDiagnostic returns true if err is or wraps a *Diagnostic.
func IsDiagnostic(err error) bool {
	var d *Diagnostic
	return errors.As(err, &d)
}

func newDiagnostic(line int, code DiagnosticCode, reason string) *Diagnostic {
	return &Diagnostic{Line: line, Code: code, Reason: reason}
}
