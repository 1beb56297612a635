package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewAssembleCommand creates the assemble command
func NewAssembleCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "assemble [dir | files...]",
		Short: "Write the preview document built from snippet files",
		Long: `Combine the markup, styles and script into the single HTML document the
preview shows. The snippets are inserted verbatim and are not checked.

Examples:
  tinkerpad assemble ./site
  tinkerpad assemble ./site -o preview.html`,
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := loadSources(args)
			if err != nil {
				return err
			}

			doc := src.Project.Assemble()
			if output == "" || output == "-" {
				_, err := fmt.Fprint(cmd.OutOrStdout(), doc)
				return err
			}

			if err := os.WriteFile(output, []byte(doc), 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "✅ Wrote %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	return cmd
}
