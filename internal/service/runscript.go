package service

import (
	"fmt"

	"github.com/alessio/shellescape"
)

// GenerateRunScript produces the launcher that svscan's supervise process runs.
// It execs the runner with args verbatim and merges stderr into stdout.
func GenerateRunScript(p Paths, d Descriptor, args []string) string {
	p.ApplyDefaults()

	cmdline := p.Runner
	if len(args) > 0 {
		cmdline += " " + shellescape.QuoteCommand(args)
	}

	return fmt.Sprintf(`#!/bin/sh
# %s
cd %s || exit 1
exec %s 2>&1
`, d.Name, shellescape.Quote(p.WorkDir), cmdline)
}
