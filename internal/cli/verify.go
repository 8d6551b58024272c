package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/marketfeed/internal/config"
	"github.com/roach88/marketfeed/internal/engine"
	"github.com/roach88/marketfeed/internal/ingest"
	"github.com/roach88/marketfeed/internal/report"
)

// verifyPasses is the number of independent engines the input is replayed
// through.
const verifyPasses = 2

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions
	ConfigPath string
}

// VerifyResult holds the outcome of a determinism check.
type VerifyResult struct {
	Input         string   `json:"input"`
	Lines         int      `json:"lines"`
	Digests       []string `json:"digests"`
	Deterministic bool     `json:"deterministic"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify that processing an input is deterministic",
		Long: `Process the same input through fresh engines and compare report digests.

The input is read once into memory and replayed through two independent
engines with the same configuration. The canonical report of each pass is
hashed; the run is deterministic when the digests are equal.

Exit codes:
  0 - Digests match
  1 - Digests differ
  2 - Command error (bad config, unreadable input)

Examples:
  marketfeed verify --input events.csv
  marketfeed verify --input events.csv --alerts --price-jump-bps 10 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(opts, cmd)
		},
	}

	addEngineFlags(cmd, &opts.ConfigPath)

	return cmd
}

func runVerify(opts *VerifyOptions, cmd *cobra.Command) error {
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

	data, err := io.ReadAll(in)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read input", err)
	}

	ctx, stop := signalContext(cmd, logger)
	defer stop()

	result := VerifyResult{
		Input:   name,
		Digests: make([]string, 0, verifyPasses),
	}

	// Diagnostics are logged on the first pass only.
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	for pass := range verifyPasses {
		passLogger := logger
		if pass > 0 {
			passLogger = quiet
		}

		digest, lines, err := digestPass(ctx, cfg, data, passLogger)
		if err != nil {
			if isInterrupt(err) {
				return WrapExitError(ExitFailure, "verify interrupted", err)
			}
			return WrapExitError(ExitCommandError, fmt.Sprintf("pass %d failed", pass+1), err)
		}
		logger.Debug("pass complete", "pass", pass+1, "digest", digest)

		result.Lines = lines
		result.Digests = append(result.Digests, digest)
	}

	result.Deterministic = allEqual(result.Digests)
	return outputVerify(cmd, opts.Format, result)
}

// digestPass runs data through a fresh engine and returns the report digest
// and the number of lines read.
func digestPass(ctx context.Context, cfg config.Config, data []byte, logger *slog.Logger) (string, int, error) {
	eng := engine.New(cfg.Engine(), engine.WithLogger(logger))
	sum, err := ingest.Run(ctx, bytes.NewReader(data), eng, ingest.WithLogger(logger))
	if err != nil {
		return "", sum.Lines, err
	}

	digest, err := report.Build(eng).Digest()
	if err != nil {
		return "", sum.Lines, err
	}
	return digest, sum.Lines, nil
}

func allEqual(digests []string) bool {
	if len(digests) == 0 {
		return false
	}
	for _, d := range digests[1:] {
		if d != digests[0] {
			return false
		}
	}
	return true
}

// outputVerify prints result and maps a mismatch to ExitFailure.
func outputVerify(cmd *cobra.Command, format string, result VerifyResult) error {
	w := cmd.OutOrStdout()

	if format == "json" {
		formatter := &OutputFormatter{Format: format, Writer: w}
		var err error
		if result.Deterministic {
			err = formatter.Success(result)
		} else {
			err = formatter.Error("E_VERIFY_MISMATCH", "report digests differ between passes", result)
		}
		if err != nil {
			return err
		}
	} else {
		if result.Deterministic {
			fmt.Fprintf(w, "✓ %s: deterministic over %d passes\n", result.Input, len(result.Digests))
		} else {
			fmt.Fprintf(w, "✗ %s: report digests differ\n", result.Input)
		}
		for i, d := range result.Digests {
			fmt.Fprintf(w, "  pass %d: %s\n", i+1, d)
		}
	}

	if !result.Deterministic {
		return NewExitError(ExitFailure, "report digests differ between passes")
	}
	return nil
}
