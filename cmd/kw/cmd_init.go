package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// newInitCmd creates the "kw init" subcommand.
func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default kwork configuration",
		Long:  "Creates the kwork state directory and writes config.toml with the\nbuilt-in defaults. Refuses to overwrite an existing config without\n--force.",
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := ResolvePaths()
			if err != nil {
				return fmt.Errorf("resolve paths: %w", err)
			}

			if _, err := os.Stat(paths.ConfigPath); err == nil && !force {
				return fmt.Errorf("config already exists at %s (use --force to overwrite)", paths.ConfigPath)
			}

			if err := WriteConfig(paths.ConfigPath, DefaultConfig()); err != nil {
				return err
			}
			for _, dir := range []string{paths.QueueRoot, paths.StatusRoot, paths.MetaRoot} {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("create %s: %w", dir, err)
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", paths.ConfigPath)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config")

	return cmd
}
