package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"loupe/internal/workspace"
)

func newCleanCommand(ctx *commandContext) *cobra.Command {
	var allFlag bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove stale job workspaces",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			age := time.Duration(cfg.Workspace.StaleAfterHours) * time.Hour
			if allFlag {
				age = 0
			}

			manager := workspace.NewManager(cfg.Paths.WorkDir, logger)
			removed, err := manager.SweepStale(age)
			if err != nil {
				return err
			}
			for _, dir := range removed {
				fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", dir)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d stale workspace(s)\n", len(removed))
			return nil
		},
	}

	cmd.Flags().BoolVar(&allFlag, "all", false, "Remove all unlocked workspaces regardless of age")
	return cmd
}
