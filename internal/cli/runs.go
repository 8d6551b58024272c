package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/marketfeed/internal/engine"
	"github.com/roach88/marketfeed/internal/report"
	"github.com/roach88/marketfeed/internal/store"
)

// RunsOptions holds flags for the runs command.
type RunsOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - show one run
	Digest   string // optional - list runs with this digest
}

// RunSummary is one archived run in listings.
type RunSummary struct {
	Seq          int64        `json:"seq"`
	ID           string       `json:"id"`
	Input        string       `json:"input"`
	Lines        int          `json:"lines"`
	Digest       string       `json:"digest"`
	EmitSummary  bool         `json:"emit_summary"`
	EmitAlerts   bool         `json:"emit_alerts"`
	PriceJumpBps int64        `json:"price_jump_bps"`
	Stats        engine.Stats `json:"stats"`
}

// RunsResult holds a run listing.
type RunsResult struct {
	Runs  []RunSummary `json:"runs"`
	Total int          `json:"total"`
}

// RunDetail is a single archived run with its full report.
type RunDetail struct {
	RunSummary
	Report json.RawMessage `json:"report"`
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List or show archived runs",
		Long: `List the runs recorded by "marketfeed run --archive", or show one of them.

Runs are listed in archive order. With --id the run's alerts and summary are
printed in full, regardless of the output flags it was recorded with.

Exit codes:
  0 - Success
  1 - Run not found
  2 - Command error (database not found, etc.)

Examples:
  marketfeed runs --db ./runs.db
  marketfeed runs --db ./runs.db --id 0192f3a4-...
  marketfeed runs --db ./runs.db --digest 5b1c... --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "id", "", "show a specific run")
	cmd.Flags().StringVar(&opts.Digest, "digest", "", "list runs with this report digest")
	cmd.MarkFlagsMutuallyExclusive("id", "digest")

	return cmd
}

func runRuns(opts *RunsOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// Opening would create an empty database.
	if _, err := os.Stat(opts.Database); err != nil {
		return WrapExitError(ExitCommandError, "database not found", err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	if opts.RunID != "" {
		return showRun(ctx, st, opts, cmd)
	}

	var infos []store.RunInfo
	if opts.Digest != "" {
		infos, err = st.RunsWithDigest(ctx, opts.Digest)
	} else {
		infos, err = st.ListRuns(ctx)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	result := RunsResult{
		Runs:  make([]RunSummary, 0, len(infos)),
		Total: len(infos),
	}
	for _, info := range infos {
		result.Runs = append(result.Runs, summarizeRun(info))
	}

	if opts.Format == "json" {
		formatter := &OutputFormatter{Format: "json", Writer: cmd.OutOrStdout()}
		return formatter.Success(result)
	}
	return outputRunsText(cmd.OutOrStdout(), result)
}

func showRun(ctx context.Context, st *store.Store, opts *RunsOptions, cmd *cobra.Command) error {
	run, err := st.ReadRun(ctx, opts.RunID)
	if errors.Is(err, store.ErrNotFound) {
		msg := fmt.Sprintf("run %s not found", opts.RunID)
		formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
		if ferr := formatter.Error("E_RUN_NOT_FOUND", msg, map[string]string{"id": opts.RunID}); ferr != nil {
			return ferr
		}
		return WrapExitError(ExitFailure, msg, err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	rep := run.Report()
	if opts.Format == "json" {
		data, err := rep.JSON()
		if err != nil {
			return WrapExitError(ExitFailure, "failed to encode report", err)
		}
		formatter := &OutputFormatter{Format: "json", Writer: cmd.OutOrStdout()}
		return formatter.Success(RunDetail{
			RunSummary: summarizeRun(run.RunInfo),
			Report:     data,
		})
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Run: %s\n", run.ID)
	fmt.Fprintf(w, "Seq: %d\n", run.Seq)
	fmt.Fprintf(w, "Input: %s\n", run.Input)
	fmt.Fprintf(w, "Lines: %d\n", run.Lines)
	fmt.Fprintf(w, "Digest: %s\n", run.Digest)
	fmt.Fprintf(w, "Config: summary=%t alerts=%t price_jump_bps=%d\n",
		run.Config.EmitSummary, run.Config.EmitAlerts, run.Config.PriceJumpBps)
	fmt.Fprintln(w)

	for _, a := range rep.Alerts {
		fmt.Fprintln(w, report.AlertLine(a))
	}
	if len(rep.Alerts) > 0 {
		fmt.Fprintln(w)
	}
	fmt.Fprint(w, rep.Summary())
	return nil
}

func summarizeRun(info store.RunInfo) RunSummary {
	return RunSummary{
		Seq:          info.Seq,
		ID:           info.ID,
		Input:        info.Input,
		Lines:        info.Lines,
		Digest:       info.Digest,
		EmitSummary:  info.Config.EmitSummary,
		EmitAlerts:   info.Config.EmitAlerts,
		PriceJumpBps: info.Config.PriceJumpBps,
		Stats:        info.Stats,
	}
}

func outputRunsText(w io.Writer, result RunsResult) error {
	if result.Total == 0 {
		fmt.Fprintln(w, "No runs archived.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tID\tINPUT\tLINES\tEVENTS\tDIGEST")
	for _, r := range result.Runs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%s\n",
			r.Seq, r.ID, r.Input, r.Lines, r.Stats.TotalEvents, shortDigest(r.Digest))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\n%d run(s)\n", result.Total)
	return nil
}

// shortDigest truncates a digest for display.
func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}
