// Package main is the entry point for the ontrack CLI/TUI.
package main

import (
	"os"

	"github.com/ontrack-io/ontrack/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
