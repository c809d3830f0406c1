package main

import (
	"log/slog"
	"os"

	"issue-lifecycle/cmd"
)

// Runs the issue-lifecycle command line; any error exits with status 1.
func main() {
	if err := cmd.Execute(); err != nil {
		slog.Error("issue-lifecycle failed", "error", err)
		os.Exit(1)
	}
}
