package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/livetemplate/tinkerpad"
)

// Default snippet file names looked up in a project directory.
var defaultSourceFiles = map[tinkerpad.Language]string{
	tinkerpad.HTML:       "index.html",
	tinkerpad.CSS:        tinkerpad.DefaultStyleFile,
	tinkerpad.JavaScript: tinkerpad.DefaultScriptFile,
}

// sources is a project read from disk.
type sources struct {
	Dir     string
	Project tinkerpad.Project

	// Paths holds the file each snippet was read from. Snippets without a
	// file are empty.
	Paths map[tinkerpad.Language]string
}

// loadSources reads snippets from a directory (index.html, styles.css,
// script.js; missing files are empty) or from explicit files, whose
// language is taken from the extension.
func loadSources(args []string) (*sources, error) {
	if len(args) == 0 {
		args = []string{"."}
	}

	if len(args) == 1 {
		info, err := os.Stat(args[0])
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			return loadDir(args[0])
		}
	}

	src := &sources{
		Dir:     filepath.Dir(args[0]),
		Project: tinkerpad.NewProject(),
		Paths:   make(map[tinkerpad.Language]string),
	}
	for _, path := range args {
		l, err := languageForFile(path)
		if err != nil {
			return nil, err
		}
		if prev, dup := src.Paths[l]; dup {
			return nil, fmt.Errorf("both %s and %s are %s files", prev, path, l.Label())
		}
		if err := src.read(l, path); err != nil {
			return nil, err
		}
	}
	return src, nil
}

func loadDir(dir string) (*sources, error) {
	src := &sources{
		Dir:     dir,
		Project: tinkerpad.NewProject(),
		Paths:   make(map[tinkerpad.Language]string),
	}
	for _, l := range tinkerpad.Languages {
		path := filepath.Join(dir, defaultSourceFiles[l])
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}
		if err := src.read(l, path); err != nil {
			return nil, err
		}
	}
	if len(src.Paths) == 0 {
		return nil, fmt.Errorf("no index.html, %s or %s in %s", tinkerpad.DefaultStyleFile, tinkerpad.DefaultScriptFile, dir)
	}
	return src, nil
}

func (s *sources) read(l tinkerpad.Language, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	s.Project.SetSnippet(l, string(data))
	s.Paths[l] = path
	return nil
}

// Reload re-reads every file the sources came from.
func (s *sources) Reload() error {
	for l, path := range s.Paths {
		if err := s.read(l, path); err != nil {
			return err
		}
	}
	return nil
}

func languageForFile(path string) (tinkerpad.Language, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return tinkerpad.HTML, nil
	case ".css":
		return tinkerpad.CSS, nil
	case ".js":
		return tinkerpad.JavaScript, nil
	}
	return "", fmt.Errorf("%s: %w (expected .html, .css or .js)", path, tinkerpad.ErrUnknownLanguage)
}
