package main

import (
	"os"

	"github.com/redlinehq/paddock/internal/cmd"
)

// Build metadata, injected via -ldflags.
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	cmd.SetVersionInfo(version, commit, buildDate)
	os.Exit(cmd.Execute())
}
