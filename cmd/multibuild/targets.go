package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rv-tools/multibuild/internal/domain/catalog"
	"github.com/rv-tools/multibuild/internal/domain/values"
)

func newTargetsCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "targets",
		Short: "List the platforms this host can build",
		Args:  cobra.NoArgs,
		RunE: withContainer(func(cc *CommandContext, cmd *cobra.Command, _ []string) error {
			c := cc.Container

			supported, err := c.Discovery().SupportedPlatforms(cc.Context)
			if err != nil {
				return err
			}
			product, err := c.Settings().ProductName(cc.Context)
			if err != nil {
				return err
			}
			active, err := c.Settings().ActiveTarget(cc.Context)
			if err != nil {
				return err
			}

			buildable := make(map[values.Target]bool, len(supported))
			for _, t := range supported {
				buildable[t] = true
			}

			list := supported
			if all {
				list = catalog.Targets()
			}

			root := c.SystemConfig().Run.OutputRoot
			rows := make([][]string, 0, len(list))
			for _, t := range list {
				name := t.String()
				if t == active {
					name += " *"
				}
				row := []string{name, catalog.GroupOf(t).String(), catalog.OutputPathIn(root, t, product)}
				if all {
					row = append(row, yesNo(buildable[t]))
				}
				rows = append(rows, row)
			}

			headers := []string{"TARGET", "GROUP", "OUTPUT"}
			if all {
				headers = append(headers, "BUILDABLE")
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(headers, rows))
			fmt.Fprintln(out, mutedStyle.Render("* active target"))
			return nil
		}),
	}

	cmd.Flags().BoolVar(&all, "all", false, "Include targets this host cannot build")
	return cmd
}

func init() {
	rootCmd.AddCommand(newTargetsCmd())
}

func yesNo(v bool) string {
	if v {
		return successStyle.Render("yes")
	}
	return mutedStyle.Render("no")
}
