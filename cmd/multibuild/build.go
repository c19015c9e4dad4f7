package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/rv-tools/multibuild/internal/application/dto"
	"github.com/rv-tools/multibuild/internal/application/ports"
	"github.com/rv-tools/multibuild/internal/domain/build"
	"github.com/rv-tools/multibuild/internal/domain/catalog"
	"github.com/rv-tools/multibuild/internal/infrastructure/container"
)

type buildOptions struct {
	CommonOptions

	targets        []string
	excludeTargets []string
	groups         []string
	filter         string

	interactive bool
	stepDelay   time.Duration
	noHistory   bool
	showOutput  bool
}

func newBuildCmd() *cobra.Command {
	opts := &buildOptions{CommonOptions: DefaultCommonOptions()}

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the project for the selected platforms",
		Long: `Build the project for each selected platform in turn. The run stops at the
first failing platform, and the platform that was active before the run is
restored before the command exits.

Selection:
  With no flags every platform this host can build is selected, in catalog order.
  --target android,webgl           Build exactly these, in this order (repeats allowed)
  --group Standalone               Only platforms in these groups
  --exclude-target StandaloneOSX   Leave these platforms out
  --filter "suffix != ''"          Expression over name, group, suffix, output
  --interactive                    Pick platforms from a list before building`,
		Args: cobra.NoArgs,
		RunE: withContainer(func(cc *CommandContext, cmd *cobra.Command, _ []string) error {
			return runBuild(cc, cmd, opts)
		}, opts.setup),
	}

	opts.RegisterFlags(cmd)
	cmd.Flags().StringSliceVarP(&opts.targets, "target", "t", nil,
		"Build these targets in order (comma-separated, exclusive with other filters)")
	cmd.Flags().StringSliceVar(&opts.excludeTargets, "exclude-target", nil,
		"Exclude these targets (comma-separated)")
	cmd.Flags().StringSliceVarP(&opts.groups, "group", "g", nil,
		"Only build targets in these groups (comma-separated)")
	cmd.Flags().StringVar(&opts.filter, "filter", "",
		"Filter expression (e.g. \"group == 'Standalone' && suffix != ''\")")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false,
		"Choose targets interactively")
	cmd.Flags().DurationVar(&opts.stepDelay, "step-delay", 0,
		"Pause between build steps (overrides run.step_delay)")
	cmd.Flags().BoolVar(&opts.noHistory, "no-history", false,
		"Do not record this run in the history")
	cmd.Flags().BoolVar(&opts.showOutput, "show-output", false,
		"Stream the build tool's output to stderr")

	for _, filter := range []string{"exclude-target", "group", "filter"} {
		cmd.MarkFlagsMutuallyExclusive("target", filter)
	}

	return cmd
}

func init() {
	rootCmd.AddCommand(newBuildCmd())
}

// setup applies command-line overrides to the loaded config.
func (opts *buildOptions) setup(cmd *cobra.Command, co *container.Options) error {
	if err := opts.ValidateFlags(); err != nil {
		return err
	}
	if opts.stepDelay < 0 {
		return fmt.Errorf("--step-delay must not be negative")
	}
	if opts.interactive && !isInteractive() {
		return fmt.Errorf("--interactive requires a terminal")
	}

	if cmd.Flags().Changed("step-delay") {
		co.Config.Run.StepDelay = opts.stepDelay
	}
	if !opts.Quiet {
		co.ProgressWriter = os.Stderr
	}
	if opts.showOutput || verbose {
		co.BackendOutput = os.Stderr
	}
	return nil
}

func (opts *buildOptions) selection() dto.SelectionOptions {
	return dto.SelectionOptions{
		Targets:          opts.targets,
		ExcludeTargets:   opts.excludeTargets,
		IncludeGroups:    opts.groups,
		FilterExpression: opts.filter,
	}
}

func runBuild(cc *CommandContext, cmd *cobra.Command, opts *buildOptions) error {
	ctx, stop := signal.NotifyContext(cc.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := opts.ApplyToContext(ctx)
	defer cancel()

	selection := opts.selection()
	if opts.interactive {
		chosen, err := promptTargets(ctx, cc.Container, selection)
		if err != nil {
			return err
		}
		selection = dto.SelectionOptions{Targets: chosen}
	}

	cfg := cc.Container.SystemConfig()
	req := dto.BuildRequest{
		Selection: selection,
		Metadata:  dto.RequestMetadata{RequestID: uuid.NewString()},
		Options: dto.BuildOptions{
			// The process must not exit while the restore is still in flight
			WaitForRestore: true,
			RestoreTimeout: cfg.Run.RestoreTimeout,
			SkipHistory:    opts.noHistory,
		},
	}

	resp, runErr := cc.Container.BuildTargetsUseCase().Execute(ctx, req)
	if resp == nil || resp.Result == nil {
		return runErr
	}

	if err := writeResult(cc.Container.FormatterFactory(), &opts.CommonOptions, resp.Result); err != nil {
		return err
	}

	result := resp.Result
	if !opts.Quiet && result.RestoreRequested {
		fmt.Fprintln(cmd.ErrOrStderr(), infoMsg("active target switched back to %s", result.OriginalTarget))
	}

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded) {
			return &interruptedError{err: fmt.Errorf("build interrupted: %w", runErr)}
		}
		return fmt.Errorf("build failed: %w", runErr)
	}
	if !result.Succeeded() {
		return fmt.Errorf("build %s: %d of %d targets succeeded",
			result.Status, result.Summary.SucceededTargets, result.Summary.TotalTargets)
	}
	return nil
}

// writeResult renders result in the requested format.
func writeResult(factory ports.OutputFormatterFactory, opts *CommonOptions, result *build.RunResult) error {
	writer, closeFn, err := opts.OpenOutput()
	if err != nil {
		return err
	}
	defer closeFn()

	formatter, err := factory.Create(opts.Format, writer, ports.FormatterOptions{
		Indent:      true,
		EnableColor: opts.ColorOutput(),
	})
	if err != nil {
		return err
	}
	if err := formatter.Format(result); err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	return nil
}

// promptTargets lets the operator tick targets from the supported list.
// Targets the flags would have selected start ticked.
func promptTargets(ctx context.Context, c *container.Container, preset dto.SelectionOptions) ([]string, error) {
	supported, err := c.Discovery().SupportedPlatforms(ctx)
	if err != nil {
		return nil, err
	}
	product, err := c.Settings().ProductName(ctx)
	if err != nil {
		return nil, err
	}

	preselected, err := c.Selector().Select(supported, preset, product)
	if err != nil {
		return nil, err
	}
	ticked := make(map[string]bool, len(preselected))
	for _, t := range preselected {
		ticked[t.String()] = true
	}

	root := c.SystemConfig().Run.OutputRoot
	options := make([]huh.Option[string], 0, len(supported))
	for _, t := range supported {
		label := fmt.Sprintf("%s  %s", t, mutedStyle.Render(catalog.OutputPathIn(root, t, product)))
		options = append(options, huh.NewOption(label, t.String()).Selected(ticked[t.String()]))
	}

	var chosen []string
	err = huh.NewMultiSelect[string]().
		Title("Select platforms to build").
		Options(options...).
		Value(&chosen).
		Run()
	if err != nil {
		return nil, err
	}
	if len(chosen) == 0 {
		return nil, fmt.Errorf("no targets selected")
	}

	confirmed := true
	err = huh.NewConfirm().
		Title(confirmTitle(len(chosen))).
		Affirmative("Build").
		Negative("Cancel").
		Value(&confirmed).
		Run()
	if err != nil {
		return nil, err
	}
	if !confirmed {
		return nil, &interruptedError{err: errors.New("build canceled by user")}
	}
	return chosen, nil
}

func confirmTitle(n int) string {
	if n == 1 {
		return "Build 1 Platform"
	}
	return fmt.Sprintf("Build %d Platforms", n)
}
