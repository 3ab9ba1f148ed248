// Package main is the entry point for the ontrackd daemon.
package main

import (
	"os"

	"github.com/ontrack-io/ontrack/internal/daemon/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
