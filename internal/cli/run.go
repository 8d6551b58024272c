package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/marketfeed/internal/engine"
	"github.com/roach88/marketfeed/internal/ingest"
	"github.com/roach88/marketfeed/internal/report"
	"github.com/roach88/marketfeed/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	ConfigPath string

	// IDGenerator allows overriding the run ID generator (for testing).
	// If nil, defaults to store.UUIDv7Generator.
	IDGenerator store.IDGenerator
}

// RunResult is the JSON payload of the run command.
type RunResult struct {
	Input  string          `json:"input"`
	Ingest ingest.Summary  `json:"ingest"`
	Digest string          `json:"digest"`
	RunID  string          `json:"run_id,omitempty"`
	Report json.RawMessage `json:"report"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process an event file",
		Long: `Process market events and print alerts and the end-of-run summary.

Events are read from --input (stdin when empty or "-"), one
"timestamp,symbol,type,price,qty,side" record per line. Malformed lines are
logged to stderr and counted as parse errors; they never stop the run.

Settings resolve from flags, then MARKETFEED_* environment variables, then
the --config file, then defaults.

Exit codes:
  0 - Input processed
  1 - Run interrupted (partial output is still printed)
  2 - Command error (bad config, unreadable input, archive failure)

Examples:
  marketfeed run --input events.csv --summary --alerts
  marketfeed run --alerts --price-jump-bps 10 < events.csv
  marketfeed run --config marketfeed.yaml --archive runs.db
  marketfeed run --input events.csv --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFeed(opts, cmd)
		},
	}

	addEngineFlags(cmd, &opts.ConfigPath)
	cmd.Flags().String("archive", "", "record the finished run to this SQLite database")

	return cmd
}

func runFeed(opts *RunOptions, cmd *cobra.Command) error {
	logger := setupLogging(opts.Verbose, cmd.ErrOrStderr())

	cfg, err := loadConfig(cmd, opts.ConfigPath)
	if err != nil {
		return err
	}

	in, name, err := openInput(cmd, cfg.Input)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open input", err)
	}
	defer in.Close()

	ctx, stop := signalContext(cmd, logger)
	defer stop()

	logger.Debug("processing input",
		"input", name,
		"summary", cfg.Summary,
		"alerts", cfg.Alerts,
		"price_jump_bps", cfg.PriceJumpBps,
	)

	eng := engine.New(cfg.Engine(), engine.WithLogger(logger))
	sum, runErr := ingest.Run(ctx, in, eng, ingest.WithLogger(logger))
	interrupted := isInterrupt(runErr)
	if runErr != nil && !interrupted {
		return WrapExitError(ExitCommandError, "failed to read input", runErr)
	}
	if interrupted {
		logger.Warn("run interrupted", "lines", sum.Lines)
	}

	rep := report.Build(eng)
	logger.Debug("input processed",
		"lines", sum.Lines,
		"records", sum.Records,
		"rejected", sum.Rejected,
		"alerts", len(rep.Alerts),
	)

	var runID string
	if cfg.Archive != "" && !interrupted {
		gen := opts.IDGenerator
		if gen == nil {
			gen = store.UUIDv7Generator{}
		}
		runID, err = archiveRun(ctx, cfg.Archive, gen.Generate(), name, sum.Lines, rep, logger)
		if err != nil {
			return err
		}
	}

	if opts.Format == "json" {
		if err := outputRunJSON(cmd, name, sum, runID, rep); err != nil {
			return err
		}
	} else {
		fmt.Fprint(cmd.OutOrStdout(), rep.Text())
	}

	if interrupted {
		return WrapExitError(ExitFailure, "run interrupted", runErr)
	}
	return nil
}

// archiveRun records rep in the archive at path under id.
func archiveRun(ctx context.Context, path, id, input string, lines int, rep report.Report, logger *slog.Logger) (string, error) {
	st, err := store.Open(path)
	if err != nil {
		return "", WrapExitError(ExitCommandError, "failed to open archive", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing archive", "error", closeErr)
		}
	}()

	run, err := store.NewRun(id, input, lines, rep)
	if err != nil {
		return "", WrapExitError(ExitCommandError, "failed to prepare run", err)
	}

	seq, inserted, err := st.WriteRun(ctx, run)
	if err != nil {
		return "", WrapExitError(ExitCommandError, "failed to archive run", err)
	}
	if !inserted {
		logger.Warn("run already archived", "run_id", run.ID, "db", path)
		return run.ID, nil
	}

	logger.Info("run archived", "run_id", run.ID, "seq", seq, "db", path)
	return run.ID, nil
}

func outputRunJSON(cmd *cobra.Command, input string, sum ingest.Summary, runID string, rep report.Report) error {
	data, err := rep.JSON()
	if err != nil {
		return WrapExitError(ExitFailure, "failed to encode report", err)
	}
	digest, err := rep.Digest()
	if err != nil {
		return WrapExitError(ExitFailure, "failed to compute digest", err)
	}

	formatter := &OutputFormatter{Format: "json", Writer: cmd.OutOrStdout()}
	return formatter.Success(RunResult{
		Input:  input,
		Ingest: sum,
		Digest: digest,
		RunID:  runID,
		Report: data,
	})
}
