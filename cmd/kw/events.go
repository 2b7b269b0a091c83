package main

import (
	"context"
	"fmt"
	"os"

	"kwork/pkg/eventlog"
)

// recordEvent appends one lifecycle event, best-effort. The event log is
// advisory; a failure to record never fails the command that triggered it.
func recordEvent(paths *Paths, typ, session, fsKey, detail string) {
	l, err := eventlog.Open(paths.EventDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: open event log: %v\n", err)
		return
	}
	defer func() { _ = l.Close() }()
	if err := l.Record(context.Background(), typ, session, fsKey, detail); err != nil {
		fmt.Fprintf(os.Stderr, "warning: record event: %v\n", err)
	}
}
