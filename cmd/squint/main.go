// Command squint runs YAML query files against CSV data.
package main

import (
	"os"

	"github.com/roach88/squint/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(cli.GetExitCode(err))
	}
}
