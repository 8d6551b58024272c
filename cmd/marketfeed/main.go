// Command marketfeed processes market event files.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/marketfeed/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
