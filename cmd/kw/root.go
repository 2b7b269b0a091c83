package main

import (
	"fmt"

	"kwork/internal/version"

	"github.com/spf13/cobra"
)

// newRootCmd creates the root kw command with all subcommands attached.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "kw",
		Short:         "Coordinate tmux-hosted agent sessions through the filesystem",
		Long:          "kw addresses long-running agent sessions as project/worktree/subsession\npaths and exchanges messages and completion signals with them through\nper-session queue and status files.",
		Version:       fmt.Sprintf("kw %s", version.String()),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("{{.Version}}\n")

	cmd.AddCommand(
		newInitCmd(),
		newSendCmd(),
		newWaitCmd(),
		newStatusCmd(),
		newLsCmd(),
		newTagsCmd(),
		newNoteCmd(),
		newStartCmd(),
		newStopCmd(),
		newAttachCmd(),
		newLogsCmd(),
	)

	return cmd
}
