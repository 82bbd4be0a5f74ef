package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra/doc"

	"github.com/arthur-debert/configsync/internal/cli"
	"github.com/arthur-debert/configsync/internal/version"
)

// Writes one man page per command into the directory given as the only
// argument, or the current directory.
func main() {
	dir := "."
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating %s: %v\n", dir, err)
		os.Exit(1)
	}

	header := &doc.GenManHeader{
		Title:   "CONFIGSYNC",
		Section: "1",
		Source:  "configsync " + version.Version,
		Manual:  "configsync manual",
	}

	if err := doc.GenManTree(cli.NewRootCmd(), header, dir); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating man pages: %v\n", err)
		os.Exit(1)
	}
}
