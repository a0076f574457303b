package main

import (
	"os"

	"github.com/go-delve/dwarfindex/cmd/dwarfindex/cmds"
	"github.com/go-delve/dwarfindex/pkg/version"
)

// Build is the git sha of this binaries build.
var Build string

func main() {
	if Build != "" {
		version.DwarfIndexVersion.Build = Build
	}
	if err := cmds.New(false).Execute(); err != nil {
		os.Exit(1)
	}
}
