// Package main is the entry point for the kw CLI, the controller side of
// the kwork session coordination protocol.
package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		fmt.Fprintf(os.Stderr, "kw: %v\n", err)
		os.Exit(1)
	}
}
