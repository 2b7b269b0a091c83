package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"kwork/pkg/eventlog"
)

// newStartCmd creates the "kw start" subcommand.
func newStartCmd() *cobra.Command {
	var (
		role   string
		tags   string
		noWait bool
	)

	cmd := &cobra.Command{
		Use:   "start <session-path>",
		Short: "Start the agent session for a path",
		Long:  "Creates a detached tmux session named by the flat session id and\nstarts the agent inside it with the KW_* role environment. A healthy\nexisting session is left alone; one agent per working directory.",
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
			if _, err := os.Stat(target.workingDir); err != nil {
				return fmt.Errorf("session working dir: %w", err)
			}

			defaults, err := loadSessionDefaults(target.workingDir)
			if err != nil {
				return err
			}
			if role == "" {
				role = defaults.Role
			}
			if role == "" {
				role = "agent"
			}
			if tags == "" {
				tags = defaults.Tags
			}

			env := map[string]string{
				"KW_ROLE":    role,
				"KW_SESSION": target.addr.Subsession,
				"KW_PROJECT": target.addr.Project,
				"KW_TAGS":    tags,
			}
			if conf.PollIntervalMS > 0 {
				env["KW_POLL_MS"] = fmt.Sprintf("%d", conf.PollIntervalMS)
			}
			if v := os.Getenv("KWORK_HOME"); v != "" {
				env["KWORK_HOME"] = v
			}

			session := NewTmuxSession(target.addr.FlatID())
			if conf.ReadyTimeoutSec > 0 {
				session.ReadyTimeout = time.Duration(conf.ReadyTimeoutSec) * time.Second
			}
			if err := session.Create(target.workingDir, conf.AgentCommand, env); err != nil {
				return err
			}
			if !noWait {
				if err := session.WaitForPrompt(); err != nil {
					return err
				}
			}

			recordEvent(paths, eventlog.TypeSessionCreated, target.addr.FlatID(), target.fsKey, role)
			fmt.Fprintf(cmd.OutOrStdout(), "session %s running in %s\n", target.addr.Path(), target.workingDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&role, "role", "", "role marker for the session (default from .kwork.yaml, then \"agent\")")
	cmd.Flags().StringVar(&tags, "tags", "", "initial tag list (default from .kwork.yaml)")
	cmd.Flags().BoolVar(&noWait, "no-wait", false, "return without waiting for the agent prompt")

	return cmd
}

// newStopCmd creates the "kw stop" subcommand.
func newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop <session-path>",
		Short: "Kill the agent session for a path",
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

			session := NewTmuxSession(target.addr.FlatID())
			if !session.Exists() {
				fmt.Fprintf(cmd.OutOrStdout(), "session %s is not running\n", target.addr.Path())
				return nil
			}
			if err := session.Kill(); err != nil {
				return err
			}
			recordEvent(paths, eventlog.TypeSessionKilled, target.addr.FlatID(), target.fsKey, "")
			fmt.Fprintf(cmd.OutOrStdout(), "session %s stopped\n", target.addr.Path())
			return nil
		},
	}
}

// newAttachCmd creates the "kw attach" subcommand.
func newAttachCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "attach <session-path>",
		Short: "Attach the terminal to a running session",
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

			session := NewTmuxSession(target.addr.FlatID())
			if !session.Exists() {
				return fmt.Errorf("session %s is not running", target.addr.Path())
			}
			return session.AttachInteractive()
		},
	}
}
