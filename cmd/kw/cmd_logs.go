package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"kwork/pkg/eventlog"
)

// logsConfig holds configuration for the logs command.
type logsConfig struct {
	tail      int
	eventType string
}

// newLogsCmd creates the "kw logs" subcommand.
func newLogsCmd() *cobra.Command {
	var cfg logsConfig

	cmd := &cobra.Command{
		Use:   "logs [session-path]",
		Short: "Query the session lifecycle event log",
		Long:  "Displays lifecycle events (created, killed, sent, waited) from the\nevent database, newest first. Optionally filter by session path.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := ResolvePaths()
			if err != nil {
				return fmt.Errorf("resolve paths: %w", err)
			}

			opts := eventlog.QueryOpts{
				EventType: cfg.eventType,
				Limit:     cfg.tail,
			}
			if len(args) == 1 {
				conf, err := LoadConfig(paths.ConfigPath)
				if err != nil {
					return err
				}
				target, err := resolveTarget(conf, args[0])
				if err != nil {
					return err
				}
				opts.Session = target.addr.FlatID()
			}

			l, err := eventlog.Open(paths.EventDBPath)
			if err != nil {
				return err
			}
			defer func() { _ = l.Close() }()

			events, err := l.Query(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if len(events) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no events")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tTYPE\tSESSION\tDETAIL")
			for _, e := range events {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					e.CreatedAt.Format("2006-01-02 15:04:05"), e.Type, e.Session, e.Detail)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&cfg.tail, "tail", 20, "number of recent events to show")
	cmd.Flags().StringVar(&cfg.eventType, "type", "", "filter by event type")

	return cmd
}
