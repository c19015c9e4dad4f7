package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	apperrors "github.com/rv-tools/multibuild/internal/application/errors"
	"github.com/rv-tools/multibuild/internal/application/ports"
	"github.com/rv-tools/multibuild/internal/domain/build"
	"github.com/rv-tools/multibuild/internal/domain/values"
)

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent build runs",
		Args:  cobra.NoArgs,
		RunE: withContainer(func(cc *CommandContext, cmd *cobra.Command, _ []string) error {
			if limit <= 0 {
				limit = cc.Container.SystemConfig().History.Limit
			}

			runs, err := cc.Container.RunRepository().FindRecent(cc.Context, limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, r := range runs {
				rows = append(rows, historyRow(r))
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"RUN", "STARTED", "STATUS", "TARGETS", "DURATION"}, rows))
			return nil
		}),
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Number of runs to show (default: history.limit)")

	cmd.AddCommand(newHistoryShowCmd())
	return cmd
}

func newHistoryShowCmd() *cobra.Command {
	opts := DefaultCommonOptions()

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the full result of a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: withContainer(func(cc *CommandContext, _ *cobra.Command, args []string) error {
			if err := opts.ValidateFlags(); err != nil {
				return err
			}
			result, err := findRun(cc.Context, cc.Container.RunRepository(), args[0])
			if err != nil {
				return err
			}
			return writeResult(cc.Container.FormatterFactory(), &opts, result)
		}),
	}
	opts.RegisterFlags(cmd)
	return cmd
}

func init() {
	rootCmd.AddCommand(newHistoryCmd())
}

// historyRow summarizes a run as the targets it attempted, with the one it
// stopped at marked.
func historyRow(r *build.RunResult) []string {
	names := make([]string, 0, len(r.Targets))
	for i, t := range r.Targets {
		name := t.Target.String()
		if i == r.FailedAt {
			name = errorStyle.Render(name + "!")
		}
		names = append(names, name)
	}

	return []string{
		r.RunID.String()[:8],
		r.StartTime.Local().Format(time.DateTime),
		statusText(r.Status),
		strings.Join(names, ", "),
		r.Duration.Round(time.Second).String(),
	}
}

// findRun resolves a full run ID or the unique prefix shown by "history".
func findRun(ctx context.Context, repo ports.RunRepository, ref string) (*build.RunResult, error) {
	if id, err := values.ParseRunID(ref); err == nil {
		return repo.FindByID(ctx, id)
	}

	ref = strings.ToLower(strings.TrimSpace(ref))
	if ref == "" {
		return nil, apperrors.NewValidationError("run", "run ID must not be empty")
	}

	runs, err := repo.FindRecent(ctx, 0)
	if err != nil {
		return nil, err
	}

	var matches []*build.RunResult
	for _, r := range runs {
		if strings.HasPrefix(r.RunID.String(), ref) {
			matches = append(matches, r)
		}
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", apperrors.ErrRunNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		return nil, apperrors.NewValidationError("run", fmt.Sprintf("run ID prefix %q is ambiguous", ref))
	}
}
