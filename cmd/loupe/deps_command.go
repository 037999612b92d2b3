package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"loupe/internal/deps"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check availability of the external binaries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			statuses := deps.CheckBinaries(deps.Requirements(cfg))

			rows := make([][]string, 0, len(statuses))
			missingRequired := 0
			for _, status := range statuses {
				state := "ok"
				if !status.Available {
					if status.Optional {
						state = "missing (optional)"
					} else {
						state = "missing"
						missingRequired++
					}
				}
				note := status.Description
				if status.Detail != "" {
					note = status.Detail
				}
				rows = append(rows, []string{status.Name, status.Command, state, note})
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Dependency", "Command", "Status", "Notes"}, rows))

			if missingRequired > 0 {
				return fmt.Errorf("%d required dependencies missing", missingRequired)
			}
			return nil
		},
	}
}
