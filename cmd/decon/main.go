// Command decon compiles decomposition specs, runs patterns against
// values and inspects recorded traces.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/decon/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
