package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vango-dev/reactor/internal/config"
)

func configCmd(c *cli) *cobra.Command {
	var write bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration after defaults are applied.

With --write, the configuration is saved to reactor.json in the config
directory, creating it with defaults when it does not exist yet.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if write {
				path := filepath.Join(c.configDir, config.ConfigFileName)
				if err := c.cfg.SaveTo(path); err != nil {
					return err
				}
				success(out, "Wrote %s", path)
				return nil
			}

			data, err := c.cfg.JSON()
			if err != nil {
				return err
			}
			_, err = out.Write(data)
			return err
		},
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, "Save the configuration to reactor.json")

	return cmd
}
