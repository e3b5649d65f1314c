// Command h2prov tracks hydrogen provenance from power and water to the bottle.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/h2prov/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		// Commands report their own errors; cobra-level failures (unknown
		// flags, bad format) still need printing.
		if _, ok := err.(*cli.ExitError); !ok {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
