package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/marketfeed/internal/engine"
	"github.com/roach88/marketfeed/internal/ingest"
	"github.com/roach88/marketfeed/internal/parser"
	"github.com/roach88/marketfeed/internal/report"
	"github.com/roach88/marketfeed/internal/store"
	"github.com/roach88/marketfeed/internal/testutil"
)

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Resolve the scenario config over the defaults
//  2. Feed the input through ingest into a fresh engine
//  3. Snapshot the report and render the console output
//  4. Optionally round-trip the run through an in-memory archive
//  5. Evaluate expectations
//
// An error is returned only when the scenario cannot be executed; failed
// expectations are recorded on the result.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	cfg, err := scenario.Config.Resolve()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config: %w", err)
	}

	// Suppress logs in scenarios; diagnostics are captured on the result.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	result := NewResult()
	eng := engine.New(cfg.Engine(), engine.WithLogger(logger))

	sum, err := ingest.Run(ctx, strings.NewReader(scenario.Input), eng,
		ingest.WithLogger(logger),
		ingest.WithDiagnosticHook(func(d parser.Diagnostic) {
			result.Diagnostics = append(result.Diagnostics, d)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to ingest input: %w", err)
	}

	result.Ingest = sum
	result.Report = report.Build(eng)
	result.Output = result.Report.Text()

	result.Digest, err = result.Report.Digest()
	if err != nil {
		return nil, fmt.Errorf("failed to compute digest: %w", err)
	}

	if scenario.Archive {
		if err := archiveRoundTrip(ctx, scenario, result); err != nil {
			return nil, err
		}
	}

	for _, msg := range EvaluateExpectations(result, scenario.Expect) {
		result.AddError(msg)
	}

	return result, nil
}

// archiveRoundTrip writes the run to a fresh in-memory archive and checks the
// stored run reproduces the live digest.
func archiveRoundTrip(ctx context.Context, scenario *Scenario, result *Result) error {
	st, err := store.Open(":memory:")
	if err != nil {
		return fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	gen := testutil.NewFixedRunIDGenerator(scenario.RunID)
	run, err := store.NewRun(gen.Generate(), scenario.Name, result.Ingest.Lines, result.Report)
	if err != nil {
		return fmt.Errorf("failed to build run: %w", err)
	}

	if _, _, err := st.WriteRun(ctx, run); err != nil {
		return fmt.Errorf("failed to archive run: %w", err)
	}
	result.RunID = run.ID

	stored, err := st.ReadRun(ctx, run.ID)
	if err != nil {
		return fmt.Errorf("failed to read archived run: %w", err)
	}

	digest, err := stored.Report().Digest()
	if err != nil {
		return fmt.Errorf("failed to digest archived run: %w", err)
	}
	if digest != result.Digest {
		result.AddError(fmt.Sprintf("archive: digest mismatch: live %s, stored %s", result.Digest, digest))
	}
	if stored.Lines != result.Ingest.Lines {
		result.AddError(fmt.Sprintf("archive: lines mismatch: live %d, stored %d", result.Ingest.Lines, stored.Lines))
	}

	return nil
}
