package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/vango-dev/reactor"
	"github.com/vango-dev/reactor/internal/demo"
)

func demoCmd(c *cli) *cobra.Command {
	var steps int

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the scripted todo list demo",
		Long: `Mount a keyed todo list on an in-memory tree and play a scripted
series of mutations against it, one flush per step.

Each step prints how many nodes were created, moved and removed, and
the resulting tree outline. Reordering keyed rows moves them instead of
recreating them.

Examples:
  reactor demo
  reactor demo --steps 3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			results, err := demo.Run(out, steps,
				reactor.WithConfig(c.cfg),
				reactor.WithLogger(slog.Default()),
			)
			if err != nil {
				return err
			}
			success(out, "%d steps applied", len(results))
			return nil
		},
	}

	cmd.Flags().IntVarP(&steps, "steps", "n", 0, "Number of steps to run (default all)")

	return cmd
}
