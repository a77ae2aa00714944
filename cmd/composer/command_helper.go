package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/reglet-dev/composer/internal/infrastructure/container"
)

// CommandContext provides common command dependencies.
type CommandContext struct {
	Container *container.Container
	Logger    *slog.Logger
	Context   context.Context
}

// CommandHandler is a function that executes with initialized dependencies.
type CommandHandler func(*CommandContext, *cobra.Command, []string) error

// containerOptions carries per-command overrides of the container options.
type containerOptions struct {
	trustAll      bool
	noInteractive bool
	strict        bool
}

// withContainer wraps a command handler with container initialization.
func withContainer(handler CommandHandler) func(*cobra.Command, []string) error {
	return withContainerOptions(nil, handler)
}

func withContainerOptions(extra *containerOptions, handler CommandHandler) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		logger := slog.Default()

		opts := container.Options{
			Logger:           logger,
			SystemConfigPath: cfgFile,
			SecurityLevel:    viper.GetString("security"),
			MaxConcurrent:    viper.GetInt("max_concurrent"),
		}
		if extra != nil {
			opts.TrustAll = extra.trustAll
			opts.NoInteractive = extra.noInteractive
			opts.Strict = extra.strict
		}
		// Model loggers print everything their category allows.
		opts.LogHandler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})

		c, err := container.New(opts)
		if err != nil {
			return fmt.Errorf("failed to initialize application: %w", err)
		}

		ctx := &CommandContext{
			Container: c,
			Logger:    logger,
			Context:   cmd.Context(),
		}
		return handler(ctx, cmd, args)
	}
}
