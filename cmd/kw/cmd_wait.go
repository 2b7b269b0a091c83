package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"kwork/pkg/eventlog"
	"kwork/pkg/statuslog"
)

// exitCodeTimeout distinguishes a wait timeout from hard failures. Scripts
// branch on it to tell "the agent is still working" from "something broke".
const exitCodeTimeout = 3

// waitConfig holds configuration for the wait command.
type waitConfig struct {
	timeout    time.Duration
	last       bool
	lastOrNext bool
	asJSON     bool
}

// newWaitCmd creates the "kw wait" subcommand.
func newWaitCmd() *cobra.Command {
	var cfg waitConfig

	cmd := &cobra.Command{
		Use:   "wait <session-path>",
		Short: "Block until the session completes a turn",
		Long:  "Tails the session's status log. By default waits for the next\ncompletion entry; --last returns the most recent one immediately and\n--last-or-next returns it when present, waiting otherwise.",
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

			sub := statuslog.NewSubscriber(paths.StatusRoot, target.fsKey)
			var entry statuslog.Entry
			switch {
			case cfg.last:
				entry, err = sub.Last()
			case cfg.lastOrNext:
				entry, err = sub.LastOrNext(cmd.Context(), cfg.timeout)
			default:
				entry, err = sub.Next(cmd.Context(), cfg.timeout)
			}

			switch {
			case errors.Is(err, statuslog.ErrNoEntries):
				fmt.Fprintln(cmd.OutOrStdout(), "no entries")
				return nil
			case errors.Is(err, statuslog.ErrTimeout):
				fmt.Fprintln(cmd.OutOrStdout(), "timeout")
				// Exit non-zero without cobra's error formatting.
				cmd.SilenceErrors = true
				return &exitError{code: exitCodeTimeout}
			case err != nil:
				return err
			}

			recordEvent(paths, eventlog.TypeWaitServed, target.addr.FlatID(), target.fsKey, entry.StopReason)
			return printEntry(cmd, entry, cfg.asJSON)
		},
	}

	cmd.Flags().DurationVar(&cfg.timeout, "timeout", 0, "give up after this long (0 = wait forever)")
	cmd.Flags().BoolVar(&cfg.last, "last", false, "return the most recent entry without blocking")
	cmd.Flags().BoolVar(&cfg.lastOrNext, "last-or-next", false, "return the most recent entry, or wait when none exists")
	cmd.Flags().BoolVar(&cfg.asJSON, "json", false, "print the full entry as JSON")
	cmd.MarkFlagsMutuallyExclusive("last", "last-or-next")

	return cmd
}

// exitError carries an exit code through cobra's error return.
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit %d", e.code) }

// printEntry renders a status entry as JSON or a short human summary.
func printEntry(cmd *cobra.Command, e statuslog.Entry, asJSON bool) error {
	w := cmd.OutOrStdout()
	if asJSON {
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshal entry: %w", err)
		}
		fmt.Fprintln(w, string(data))
		return nil
	}
	fmt.Fprintf(w, "[%s] %s", e.Timestamp.Format(time.RFC3339), e.Status)
	if e.StopReason != "" {
		fmt.Fprintf(w, " (%s)", e.StopReason)
	}
	if e.ErrorMessage != "" {
		fmt.Fprintf(w, " error: %s", e.ErrorMessage)
	}
	fmt.Fprintln(w)
	if e.Message != "" {
		fmt.Fprintln(w, e.Message)
	}
	return nil
}
