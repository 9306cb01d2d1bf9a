package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/de-tools/usage-atlas/pkg/runtime/terminal"
	"github.com/de-tools/usage-atlas/pkg/services/usage"
)

func main() {
	cli := terminal.NewCLI(terminal.Options{
		Output: os.Stdout,
	})

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		var exitErr *usage.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(usage.ExitUsage)
	}
}
