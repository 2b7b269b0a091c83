package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"kwork/pkg/statuslog"
)

// newStatusCmd creates the "kw status" subcommand.
func newStatusCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status <session-path>",
		Short: "Show the session's most recent completion",
		Long:  "Prints the latest status log entry for the session, or \"no entries\"\nwhen it has never completed a turn. Never blocks.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := ResolvePaths()
			if err != nil {
				return fmt.Errorf("resolve paths: %w", err)
			}
			conf, err := LoadConfig(paths.ConfigPath)
			if err != nil {
				return err
			}
			target, err := resolveTarget(conf, args[0])
			if err != nil {
				return err
			}

			entry, err := statuslog.NewSubscriber(paths.StatusRoot, target.fsKey).Last()
			if errors.Is(err, statuslog.ErrNoEntries) {
				fmt.Fprintln(cmd.OutOrStdout(), "no entries")
				return nil
			}
			if err != nil {
				return err
			}
			return printEntry(cmd, entry, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full entry as JSON")

	return cmd
}
