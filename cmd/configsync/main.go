package main

import (
	"fmt"
	"os"

	"github.com/arthur-debert/configsync/internal/cli"
	"github.com/arthur-debert/configsync/pkg/errors"
	"github.com/arthur-debert/configsync/pkg/ui/styles"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, styles.Render(styles.Error, "Error:"), err)
		os.Exit(errors.ExitCode(err))
	}
}
