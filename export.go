package tinkerpad

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// Saver persists or offers a file to the user. Whether the file finally
// lands on the user's device is the saver's concern.
type Saver interface {
	Save(name string, content []byte) error
}

// SaverFunc adapts a function to the Saver interface.
type SaverFunc func(name string, content []byte) error

// Save calls f(name, content).
func (f SaverFunc) Save(name string, content []byte) error {
	return f(name, content)
}

// Exporter writes snippets through a Saver under their output file names.
type Exporter struct {
	saver Saver
}

// NewExporter creates an exporter that hands files to saver.
func NewExporter(saver Saver) *Exporter {
	return &Exporter{saver: saver}
}

// ExportOne saves the snippet of one pane. It refuses, before anything is
// saved, while the project name is blank.
func (e *Exporter) ExportOne(p Project, l Language) error {
	if !l.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownLanguage, l)
	}
	if !p.HasName() {
		return ErrProjectNameRequired
	}
	e.save(p.FileName(l), p.Snippet(l))
	return nil
}

// ExportAll saves the HTML, CSS and JavaScript files in that order. A blank
// project name blocks all three.
func (e *Exporter) ExportAll(p Project) error {
	if !p.HasName() {
		return ErrProjectNameRequired
	}
	for _, l := range Languages {
		e.save(p.FileName(l), p.Snippet(l))
	}
	return nil
}

// save hands the file to the saver. Saving is fire-and-forget: a failing
// saver is logged and does not change the outcome of the export.
func (e *Exporter) save(name, content string) {
	if e.saver == nil {
		return
	}
	if err := e.saver.Save(name, []byte(content)); err != nil {
		log.Printf("[Export] Failed to save %s: %v", name, err)
	}
}

// DirSaver writes files into a directory. Errors are returned to the
// exporter and also kept so callers can report them afterwards.
type DirSaver struct {
	Dir  string
	Perm os.FileMode

	mu   sync.Mutex
	errs []error
}

// NewDirSaver creates a saver writing into dir with 0644 permissions.
func NewDirSaver(dir string) *DirSaver {
	return &DirSaver{Dir: dir, Perm: 0644}
}

// Save writes content to Dir/name. Names may not escape the directory.
func (s *DirSaver) Save(name string, content []byte) error {
	err := s.write(name, content)
	if err != nil {
		s.mu.Lock()
		s.errs = append(s.errs, err)
		s.mu.Unlock()
	}
	return err
}

func (s *DirSaver) write(name string, content []byte) error {
	if !filepath.IsLocal(name) {
		return fmt.Errorf("refusing to write %q outside %s", name, s.Dir)
	}
	path := filepath.Join(s.Dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", name, err)
	}
	perm := s.Perm
	if perm == 0 {
		perm = 0644
	}
	if err := os.WriteFile(path, content, perm); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// Err returns the joined errors of all failed saves, or nil.
func (s *DirSaver) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return errors.Join(s.errs...)
}

// SavedFile is a file recorded by a MemorySaver.
type SavedFile struct {
	Name    string
	Content []byte
}

// MemorySaver records saved files in order.
type MemorySaver struct {
	mu    sync.Mutex
	files []SavedFile
}

// Save records the file.
func (s *MemorySaver) Save(name string, content []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = append(s.files, SavedFile{Name: name, Content: append([]byte(nil), content...)})
	return nil
}

// Files returns a copy of the recorded files.
func (s *MemorySaver) Files() []SavedFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SavedFile(nil), s.files...)
}
