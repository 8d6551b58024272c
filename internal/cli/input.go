package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/marketfeed/internal/config"
	"github.com/roach88/marketfeed/internal/engine"
)

// stdinName is how standard input is named in logs and archived runs.
const stdinName = "-"

// addEngineFlags registers the flags config.Load binds by name.
func addEngineFlags(cmd *cobra.Command, configPath *string) {
	f := cmd.Flags()
	f.StringVar(configPath, "config", "", "path to a YAML config file")
	f.StringP("input", "i", "", `event file to read ("-" or empty for stdin)`)
	f.Bool("summary", false, "print the end-of-run summary")
	f.Bool("alerts", false, "print price-jump alerts")
	f.Int64("price-jump-bps", engine.DefaultPriceJumpBps, "price-jump alert threshold in basis points")
}

// loadConfig resolves the command's configuration. Failures are command
// errors.
func loadConfig(cmd *cobra.Command, configPath string) (config.Config, error) {
	cfg, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	return cfg, nil
}

// setupLogging installs a text handler on w as the default logger. Level is
// Info, or Debug when verbose.
func setupLogging(verbose bool, w io.Writer) *slog.Logger {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// openInput opens path for reading. Empty and "-" select the command's
// stdin, which is never closed.
func openInput(cmd *cobra.Command, path string) (io.ReadCloser, string, error) {
	if path == "" || path == stdinName {
		return io.NopCloser(cmd.InOrStdin()), stdinName, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, path, err
	}
	return f, path, nil
}

// signalContext derives a context from the command's that is cancelled on
// SIGINT or SIGTERM. The returned stop function releases the handler.
func signalContext(cmd *cobra.Command, logger *slog.Logger) (context.Context, context.CancelFunc) {
	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, stopping", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}

// isInterrupt reports whether err is a context cancellation or deadline.
func isInterrupt(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
