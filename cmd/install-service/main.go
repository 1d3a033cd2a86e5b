// Package main is the entry point for the install-service binary.
package main

import (
	"os"

	"github.com/plexsphere/hwservice/internal/cli"
)

// Build-time variable set via ldflags.
var version = "dev"

func main() {
	os.Exit(cli.Run(cli.NewInstallCommand(cli.Options{Version: version}), os.Args[1:]))
}
