// Package commands implements the tinkerpad CLI.
package commands

import (
	"log"

	"github.com/spf13/cobra"
)

// NewRootCommand creates the tinkerpad command tree.
func NewRootCommand(version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "tinkerpad",
		Short: "A small HTML, CSS and JavaScript snippet editor",
		Long: `tinkerpad edits HTML, CSS and JavaScript snippets side by side, previews
them as one page in a sandboxed frame and saves them as three files.

Run 'tinkerpad serve' to open the editor in a browser, or use check,
assemble and export on snippet files directly.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		NewServeCommand(),
		NewCheckCommand(),
		NewAssembleCommand(),
		NewExportCommand(),
		NewVersionCommand(version),
	)
	return root
}

func init() {
	log.SetFlags(0) // Remove timestamp from logs
}
