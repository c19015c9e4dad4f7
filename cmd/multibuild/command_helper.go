package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rv-tools/multibuild/internal/infrastructure/container"
	"github.com/rv-tools/multibuild/internal/infrastructure/system"
	"github.com/rv-tools/multibuild/internal/version"
)

// CommandContext provides common command dependencies.
type CommandContext struct {
	Container *container.Container
	Logger    *slog.Logger
	Context   context.Context
}

// CommandHandler is a function that executes with initialized dependencies.
type CommandHandler func(*CommandContext, *cobra.Command, []string) error

// ContainerSetup adjusts container options after the config has been loaded,
// e.g. to apply command-line overrides.
type ContainerSetup func(*cobra.Command, *container.Options) error

// withContainer wraps a command handler with container initialization.
// Handles common setup: config loading, logger creation, dependency injection.
func withContainer(handler CommandHandler, setups ...ContainerSetup) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		logger := slog.Default()

		loader := system.NewConfigLoader(viper.GetViper())
		cfg, err := loader.Load(cfgFile)
		if err != nil {
			return err
		}
		if used := loader.ConfigFileUsed(); used != "" {
			logger.Debug("using config file", "file", used)
		}

		opts := container.Options{
			Logger:      logger,
			Config:      cfg,
			Color:       isInteractive(),
			ToolVersion: version.Get().Version,
		}
		for _, setup := range setups {
			if err := setup(cmd, &opts); err != nil {
				return err
			}
		}

		c, err := container.New(opts)
		if err != nil {
			return fmt.Errorf("failed to initialize application: %w", err)
		}
		defer c.Close()

		ctx := &CommandContext{
			Container: c,
			Logger:    logger,
			Context:   cmd.Context(),
		}
		return handler(ctx, cmd, args)
	}
}
