package harness

import (
	"github.com/roach88/marketfeed/internal/ingest"
	"github.com/roach88/marketfeed/internal/parser"
	"github.com/roach88/marketfeed/internal/report"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: every expectation held.
	Pass bool `json:"pass"`

	// Errors contains expectation failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Report is the engine snapshot after the input was exhausted.
	Report report.Report `json:"-"`

	// Digest is the report digest.
	Digest string `json:"digest"`

	// Output is the console text the run command would print.
	Output string `json:"output"`

	// Ingest summarises the pass over the input.
	Ingest ingest.Summary `json:"ingest"`

	// Diagnostics are the parser diagnostics in input order.
	Diagnostics []parser.Diagnostic `json:"diagnostics"`

	// RunID is set when the scenario was archived.
	RunID string `json:"run_id,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:        true,
		Errors:      []string{},
		Diagnostics: []parser.Diagnostic{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
