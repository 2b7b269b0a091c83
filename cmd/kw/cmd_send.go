package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"kwork/pkg/eventlog"
	"kwork/pkg/queue"
)

// newSendCmd creates the "kw send" subcommand.
func newSendCmd() *cobra.Command {
	var (
		steer  bool
		direct bool
	)

	cmd := &cobra.Command{
		Use:   "send <session-path> <message>",
		Short: "Queue a message for a running session",
		Long:  "Appends a message to the session's queue file. The session's own\nconsumer picks it up on its next poll cycle; --steer asks the agent\nto interrupt its current turn instead of waiting for it to finish.\n--direct bypasses the queue and pastes straight into the tmux pane,\nfor sessions whose agent has no queue consumer.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := ResolvePaths()
			if err != nil {
				return fmt.Errorf("resolve paths: %w", err)
			}
			cfg, err := LoadConfig(paths.ConfigPath)
			if err != nil {
				return err
			}
			target, err := resolveTarget(cfg, args[0])
			if err != nil {
				return err
			}

			if direct {
				session := NewTmuxSession(target.addr.FlatID())
				if !session.Exists() {
					return fmt.Errorf("session %s is not running", target.addr.Path())
				}
				if err := session.SendKeys(args[1]); err != nil {
					return err
				}
				recordEvent(paths, eventlog.TypeMessageSent, target.addr.FlatID(), target.fsKey, "direct")
				fmt.Fprintf(cmd.OutOrStdout(), "sent directly to %s\n", target.addr.Path())
				return nil
			}

			mode := queue.ModeFollowUp
			if steer {
				mode = queue.ModeSteer
			}
			store := queue.NewStore(paths.QueueRoot, target.fsKey)
			if err := store.Enqueue(queue.Entry{Message: args[1], Mode: mode}); err != nil {
				return fmt.Errorf("enqueue: %w", err)
			}

			recordEvent(paths, eventlog.TypeMessageSent, target.addr.FlatID(), target.fsKey, string(mode))
			fmt.Fprintf(cmd.OutOrStdout(), "queued %s message for %s\n", mode, target.addr.Path())
			return nil
		},
	}

	cmd.Flags().BoolVar(&steer, "steer", false, "interrupt the agent's current turn")
	cmd.Flags().BoolVar(&direct, "direct", false, "paste into the tmux pane instead of queueing")
	cmd.MarkFlagsMutuallyExclusive("steer", "direct")

	return cmd
}
