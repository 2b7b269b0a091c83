package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"kwork/pkg/rolemeta"
	"kwork/pkg/statuslog"
)

// newLsCmd creates the "kw ls" subcommand.
func newLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List known sessions with tags and last activity",
		Long:  "Scans the status root for sessions that have ever completed a turn\nand shows each one's tags, description, and last completion time.",
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := ResolvePaths()
			if err != nil {
				return fmt.Errorf("resolve paths: %w", err)
			}

			keys, err := knownSessionKeys(paths.StatusRoot)
			if err != nil {
				return err
			}
			if len(keys) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no sessions")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SESSION\tLAST DONE\tTAGS\tNOTE")
			for _, key := range keys {
				line := sessionLine(paths, key)
				fmt.Fprintln(w, line)
			}
			return w.Flush()
		},
	}
}

// knownSessionKeys lists fs keys with a status log, sorted for stable
// output. A missing status root just means no sessions yet.
func knownSessionKeys(statusRoot string) ([]string, error) {
	entries, err := os.ReadDir(statusRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read status root: %w", err)
	}
	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".jsonl") {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, ".jsonl"))
	}
	sort.Strings(keys)
	return keys, nil
}

// sessionLine formats one ls row from the session's status log and
// metadata file; either may be absent.
func sessionLine(paths *Paths, fsKey string) string {
	lastDone := "-"
	if e, err := statuslog.NewSubscriber(paths.StatusRoot, fsKey).Last(); err == nil {
		lastDone = e.Timestamp.Format("2006-01-02 15:04:05")
	}

	tags, note := "-", "-"
	if r, err := rolemeta.NewStore(filepath.Join(paths.MetaRoot, fsKey+".json")).Read(); err == nil {
		if len(r.Tags) > 0 {
			tags = strings.Join(r.Tags, ",")
		}
		if r.Description != "" {
			note = r.Description
		}
	}

	return fmt.Sprintf("%s\t%s\t%s\t%s", fsKey, lastDone, tags, note)
}
