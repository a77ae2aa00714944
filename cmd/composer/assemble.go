package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/reglet-dev/composer/internal/application/dto"
	"github.com/reglet-dev/composer/internal/application/ports"
	"github.com/reglet-dev/composer/internal/version"
)

// assembleOptions holds the flags of the assemble command.
type assembleOptions struct {
	CommonOptions
	typePaths     []string
	targetsPath   string
	filter        string
	metricsPath   string
	commission    bool
	hold          bool
	trustAll      bool
	noInteractive bool
	strict        bool
}

func newAssembleCmd() *cobra.Command {
	opts := &assembleOptions{CommonOptions: DefaultCommonOptions()}
	extra := &containerOptions{}

	cmd := &cobra.Command{
		Use:   "assemble <profile.yaml>",
		Short: "Assemble a containment profile",
		Long: `Load a containment profile, build its model tree and bind every
dependency and stage of every component to a provider.

Components that cannot be assembled are reported and make the command fail.
With --commission the assembled tree is brought up in dependency order and
taken down again; --hold keeps it running until interrupted.`,
		Example: `  # Assemble and print the model tree
  composer assemble app.yaml --types ./types

  # Only list components that failed or have unbound optional dependencies
  composer assemble app.yaml --filter "!assembled || any(bindings, .optional && .provider == '')"

  # Bring the tree up and keep it running
  composer assemble app.yaml --commission --hold --targets prod.targets.yaml`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(_ *cobra.Command, _ []string) error {
			if opts.hold && !opts.commission {
				return fmt.Errorf("--hold requires --commission")
			}
			extra.trustAll = opts.trustAll
			extra.noInteractive = opts.noInteractive
			extra.strict = opts.strict
			return opts.ValidateFlags()
		},
		RunE: withContainerOptions(extra, func(ctx *CommandContext, _ *cobra.Command, args []string) error {
			return runAssemble(ctx, opts, args[0])
		}),
	}

	opts.RegisterFlags(cmd)
	cmd.Flags().StringSliceVar(&opts.typePaths, "types", nil, "Directories scanned for type descriptors (added to the configured type paths)")
	cmd.Flags().StringVar(&opts.targetsPath, "targets", "", "File of target overrides applied before assembly")
	cmd.Flags().StringVar(&opts.filter, "filter", "", "Expression selecting the models listed in the report (e.g. \"kind == 'component' && !assembled\")")
	cmd.Flags().StringVar(&opts.metricsPath, "metrics", "", "Write assembly metrics in Prometheus text format to this file")
	cmd.Flags().BoolVar(&opts.commission, "commission", false, "Commission the assembled tree")
	cmd.Flags().BoolVar(&opts.hold, "hold", false, "Keep commissioned components running until interrupted")
	cmd.Flags().BoolVar(&opts.trustAll, "trust-all", false, "Auto-grant all component capabilities (use with caution)")
	cmd.Flags().BoolVar(&opts.noInteractive, "no-interactive", false, "Deny capabilities that were not granted instead of prompting")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Fail components whose classname has no registered implementation")

	return cmd
}

func init() {
	rootCmd.AddCommand(newAssembleCmd())
}

func runAssemble(cc *CommandContext, opts *assembleOptions, profilePath string) error {
	ctx := cc.Context
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.hold {
		var stop context.CancelFunc
		ctx, stop = signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()
	} else {
		var cancel context.CancelFunc
		ctx, cancel = opts.ApplyToContext(ctx)
		defer cancel()
	}

	req := dto.AssembleRequest{
		ProfilePath: profilePath,
		TargetsPath: opts.targetsPath,
		TypePaths:   cc.Container.TypePaths(opts.typePaths...),
		Options: dto.AssembleOptions{
			Commission: opts.commission,
			Hold:       opts.hold,
			TrustAll:   opts.trustAll,
			Filter:     opts.filter,
		},
	}

	report, execErr := cc.Container.AssembleUseCase().Execute(ctx, req)
	if report == nil {
		return execErr
	}

	if err := writeReport(cc, &opts.CommonOptions, profilePath, report); err != nil {
		return err
	}
	if opts.metricsPath != "" {
		if err := writeMetrics(opts.metricsPath, cc.Container.Metrics()); err != nil {
			return err
		}
	}

	if execErr != nil {
		return execErr
	}
	if !report.Assembled() {
		summary := report.Summary()
		return fmt.Errorf("assembly failed: %d of %d models assembled, %d failures",
			summary.Assembled, summary.Models, summary.Failures)
	}
	return nil
}

func writeReport(cc *CommandContext, opts *CommonOptions, profilePath string, report *dto.AssemblyReport) error {
	writer, closeOutput, err := opts.OpenOutput()
	if err != nil {
		return err
	}
	defer closeOutput()

	if opts.OutFile != "" {
		cc.Logger.Info("writing output", "file", opts.OutFile, "format", opts.Format)
	}

	formatter, err := cc.Container.Formatters().Create(opts.Format, writer, ports.FormatterOptions{
		Indent:      true,
		Color:       !opts.NoColor && opts.OutFile == "",
		ProfilePath: profilePath,
		Version:     version.Get().Version,
	})
	if err != nil {
		return err
	}
	if err := formatter.Format(report); err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	return nil
}

func writeMetrics(path string, gatherer prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, gatherer); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
