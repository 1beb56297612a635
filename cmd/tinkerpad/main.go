// Command tinkerpad serves the snippet editor and checks, assembles and
// exports snippet files from the command line.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/livetemplate/tinkerpad/cmd/tinkerpad/commands"
)

// Version is set during build with -ldflags
var version = "0.1.0-dev"

func main() {
	if err := commands.NewRootCommand(version).Execute(); err != nil {
		// Problems were already printed by check.
		if !errors.Is(err, commands.ErrProblemsFound) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
