package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/livetemplate/tinkerpad"
	"github.com/livetemplate/tinkerpad/internal/watch"
)

// ErrProblemsFound is returned by check when validation reports problems.
var ErrProblemsFound = errors.New("problems found")

// NewCheckCommand creates the check command
func NewCheckCommand() *cobra.Command {
	var watchFiles bool

	cmd := &cobra.Command{
		Use:   "check [dir | files...]",
		Short: "Run the preview checks on snippet files",
		Long: `Run the same heuristic checks the Preview button runs: markup must
contain a tag, styles must contain a "{", and the script must parse as a
function body. The script is parsed, never executed.

With a directory (default: current directory), index.html, styles.css and
script.js are checked. Files can also be given explicitly; their language is
taken from the extension.

Examples:
  tinkerpad check
  tinkerpad check ./site
  tinkerpad check page.html app.js
  tinkerpad check --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := loadSources(args)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			ok := reportProblems(out, src)
			if !watchFiles {
				if !ok {
					return ErrProblemsFound
				}
				return nil
			}

			return watchSources(cmd.Context(), out, src)
		},
	}

	cmd.Flags().BoolVarP(&watchFiles, "watch", "w", false, "re-check when files change")
	return cmd
}

// reportProblems prints the check result and reports whether it passed.
func reportProblems(out io.Writer, src *sources) bool {
	p := src.Project
	problems := p.Validate()
	if len(problems) == 0 {
		fmt.Fprintf(out, "✅ No problems found (%d file(s) checked)\n", len(src.Paths))
		return true
	}

	fmt.Fprintf(out, "❌ %s\n\n", tinkerpad.JoinProblems(problems))
	for _, prob := range problems {
		if path, ok := src.Paths[prob.Language]; ok {
			fmt.Fprintf(out, "%s\n", path)
		}
		fmt.Fprintf(out, "  %s\n", prob.Format())
		if excerpt := prob.Excerpt(p.Snippet(prob.Language)); excerpt != "" {
			fmt.Fprintf(out, "\n%s\n", excerpt)
		}
		fmt.Fprintln(out)
	}
	return false
}

func watchSources(ctx context.Context, out io.Writer, src *sources) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := watch.New(src.Dir, func(relPath string) error {
		if err := src.Reload(); err != nil {
			return err
		}
		fmt.Fprintf(out, "\n🔄 %s changed\n", relPath)
		reportProblems(out, src)
		return nil
	}, false)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", src.Dir, err)
	}
	w.Start()
	defer w.Stop()

	fmt.Fprintf(out, "\n👀 Watching %s for changes (Ctrl+C to stop)\n", src.Dir)
	<-ctx.Done()
	return nil
}
