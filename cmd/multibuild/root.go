package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	apperrors "github.com/rv-tools/multibuild/internal/application/errors"
)

var (
	cfgFile       string
	verbose       bool
	noInteraction bool
)

// rootCmd is the application entry point.
var rootCmd = &cobra.Command{
	Use:   "multibuild",
	Short: "Build a project for several platforms in one run",
	Long: `multibuild builds a project for an ordered list of platforms, one at a
time, stopping at the first failure. Each build gets its own output directory
under Builds/<target>, and the platform that was active before the run is
switched back once the run is over.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		setupLogging()
		configureInteraction(noInteraction)
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./.multibuild.yaml, then $HOME/.multibuild.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noInteraction, "no-interaction", false, "disable prompts and colors")
}

func setupLogging() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	// Using TextHandler for CLI friendliness
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
}

// Exit codes distinguish a failed build from a run that never started.
const (
	exitFailure       = 1
	exitBuildFailed   = 2
	exitConfiguration = 3
	exitInterrupted   = 130
)

func exitCode(err error) int {
	var (
		bf  *apperrors.BuildFailure
		ce  *apperrors.ConfigurationError
		ve  *apperrors.ValidationError
		ien *interruptedError
	)
	switch {
	case errors.As(err, &ien):
		return exitInterrupted
	case errors.As(err, &bf):
		return exitBuildFailed
	case errors.As(err, &ce), errors.As(err, &ve):
		return exitConfiguration
	default:
		return exitFailure
	}
}

// interruptedError marks a run stopped by a signal or timeout.
type interruptedError struct {
	err error
}

func (e *interruptedError) Error() string { return e.err.Error() }

func (e *interruptedError) Unwrap() error { return e.err }
