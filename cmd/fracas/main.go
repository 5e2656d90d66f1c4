package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"fracas/internal/version"
)

// newRootCmd assembles the command tree. Tests build a fresh tree per run.
func newRootCmd() *cobra.Command {
	var cleanup func()
	root := &cobra.Command{
		Use:   "fracas",
		Short: "Symbol resolution and language server for Fracas",
		Long: `fracas resolves definitions, references and completions in Fracas
projects without parsing them, and serves the results over LSP.`,
		Version:       version.Colored(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := applyColor(cmd); err != nil {
				return err
			}
			var err error
			cleanup, err = setupTracing(cmd)
			return err
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if cleanup != nil {
				cleanup()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.String("root", "", "project root (default: nearest fracas.toml above the target)")
	flags.String("color", "auto", "colorize output (auto|on|off)")
	flags.String("log-level", "warn", "log level (debug|info|warn|error|off)")
	flags.Bool("timings", false, "show timing information")
	flags.String("trace", "", "trace output file (- for stderr, *.ndjson for NDJSON)")
	flags.String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	flags.String("trace-mode", "stream", "trace storage (stream|ring|both)")
	flags.Int("trace-ring-size", 4096, "events kept by the ring tracer")
	flags.Duration("trace-heartbeat", 0, "emit a heartbeat event at this interval (0 disables)")

	root.AddCommand(
		newLSPCmd(),
		newIndexCmd(),
		newDefCmd(),
		newRefsCmd(),
		newCompleteCmd(),
		newSymbolsCmd(),
		newImportsCmd(),
		newProvidesCmd(),
		newCheckCmd(),
		newVersionCmd(),
	)
	return root
}

// main runs the root command and exits with status 1 on failure.
func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		os.Exit(1)
	}
}

// isTerminal reports whether f is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func applyColor(cmd *cobra.Command) error {
	value, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}
	switch strings.ToLower(value) {
	case "auto":
		color.NoColor = !isTerminal(os.Stdout)
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	default:
		return fmt.Errorf("invalid --color value %q (expected auto|on|off)", value)
	}
	return nil
}

// newLogger builds the library logger from --log-level. Logs go to stderr
// so stdout stays clean for results and the LSP stream.
func newLogger(cmd *cobra.Command) (*slog.Logger, error) {
	value, err := cmd.Root().PersistentFlags().GetString("log-level")
	if err != nil {
		return nil, fmt.Errorf("failed to get log-level flag: %w", err)
	}
	var level slog.Level
	switch strings.ToLower(value) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	case "off":
		level = slog.LevelError + 4
	default:
		return nil, fmt.Errorf("invalid --log-level value %q (expected debug|info|warn|error|off)", value)
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})), nil
}
