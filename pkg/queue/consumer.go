package queue

import (
	"context"
	"fmt"
	"os"
	"time"
)

// DefaultPollInterval controls how often a Consumer drains its queue file.
const DefaultPollInterval = 500 * time.Millisecond

// Consumer polls one session's queue file on a fixed interval and forwards
// entries into the agent's input channel. It is per-session state, built at
// session start and torn down with the session; nothing here is a
// process-wide singleton, so multiple sessions coexist in one test binary.
type Consumer struct {
	store    *Store
	deliver  Deliverer
	interval time.Duration
}

// NewConsumer creates a Consumer for the store. A zero interval means
// DefaultPollInterval.
func NewConsumer(store *Store, d Deliverer, interval time.Duration) *Consumer {
	if interval == 0 {
		interval = DefaultPollInterval
	}
	return &Consumer{store: store, deliver: d, interval: interval}
}

// Run polls until the context is cancelled. Drain errors are logged and
// swallowed: this loop lives inside a long-running interactive agent
// process and a filesystem hiccup must never take it down.
func (c *Consumer) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := c.store.Drain(c.deliver); err != nil {
				fmt.Fprintf(os.Stderr, "warning: queue drain: %v\n", err)
			}
		}
	}
}
