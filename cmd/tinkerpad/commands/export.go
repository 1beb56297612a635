package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/livetemplate/tinkerpad"
)

// NewExportCommand creates the export command
func NewExportCommand() *cobra.Command {
	var (
		name       string
		outDir     string
		styleFile  string
		scriptFile string
		only       string
	)

	cmd := &cobra.Command{
		Use:   "export [dir | files...] --name <project>",
		Short: "Save snippets as <project>.html, a CSS file and a JavaScript file",
		Long: `Save the snippets the way the editor's Download all button does: the
markup as <project>.html, the styles and script under their file names
(default: styles.css and script.js; the extension is always enforced).
A project name is required.

Examples:
  tinkerpad export ./site --name landing --out ./dist
  tinkerpad export ./site --name landing --css theme --js app.js
  tinkerpad export ./site --name landing --only css`,
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := loadSources(args)
			if err != nil {
				return err
			}

			p := src.Project
			p.Name = name
			if styleFile != "" {
				p.StyleFile = tinkerpad.NormalizeFileName(tinkerpad.CSS, styleFile)
			}
			if scriptFile != "" {
				p.ScriptFile = tinkerpad.NormalizeFileName(tinkerpad.JavaScript, scriptFile)
			}

			out := cmd.OutOrStdout()
			saver := tinkerpad.NewDirSaver(outDir)
			exporter := tinkerpad.NewExporter(tinkerpad.SaverFunc(func(file string, content []byte) error {
				if err := saver.Save(file, content); err != nil {
					return err
				}
				fmt.Fprintf(out, "✅ saved %s\n", file)
				return nil
			}))

			if only != "" {
				l, err := tinkerpad.ParseLanguage(only)
				if err != nil {
					return err
				}
				err = exporter.ExportOne(p, l)
				if err != nil {
					return err
				}
			} else if err := exporter.ExportAll(p); err != nil {
				return err
			}

			return saver.Err()
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "project name (required)")
	cmd.Flags().StringVar(&outDir, "out", ".", "output directory")
	cmd.Flags().StringVar(&styleFile, "css", "", "CSS file name (default: styles.css)")
	cmd.Flags().StringVar(&scriptFile, "js", "", "JavaScript file name (default: script.js)")
	cmd.Flags().StringVar(&only, "only", "", "export a single pane: html, css or js")
	return cmd
}
