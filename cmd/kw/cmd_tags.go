package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"kwork/pkg/eventlog"
	"kwork/pkg/rolemeta"
)

// metadataStore resolves the metadata file for a target, matching the
// agent-side default layout.
func metadataStore(paths *Paths, target sessionTarget) *rolemeta.Store {
	return rolemeta.NewStore(filepath.Join(paths.MetaRoot, target.fsKey+".json"))
}

// newTagsCmd creates the "kw tags" subcommand.
func newTagsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tags <session-path> <tag-list>",
		Short: "Replace the session's tag set",
		Long:  "Replaces the stored tags from a comma- or semicolon-separated list.\nOther fields of the metadata file are left untouched.",
		Args:  cobra.ExactArgs(2),
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

			if err := metadataStore(paths, target).SetTags(args[1]); err != nil {
				return err
			}
			tags := rolemeta.ParseTagList(args[1])
			recordEvent(paths, eventlog.TypeMetadataSet, target.addr.FlatID(), target.fsKey, fmt.Sprintf("%d tags", len(tags)))
			fmt.Fprintf(cmd.OutOrStdout(), "tags for %s: %v\n", target.addr.Path(), tags)
			return nil
		},
	}
}

// newNoteCmd creates the "kw note" subcommand.
func newNoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "note <session-path> <text>",
		Short: "Replace the session's description",
		Args:  cobra.ExactArgs(2),
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

			if err := metadataStore(paths, target).SetDescription(args[1]); err != nil {
				return err
			}
			recordEvent(paths, eventlog.TypeMetadataSet, target.addr.FlatID(), target.fsKey, "note")
			fmt.Fprintf(cmd.OutOrStdout(), "note for %s updated\n", target.addr.Path())
			return nil
		},
	}
}
