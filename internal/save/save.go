// Package save implements the on-disk persistence surface: saving a
// rendered PNG plus a metadata sidecar, loading metadata back, and
// listing previously saved images. All three are dispatched only to the
// synchronous handler (see internal/handlers).
package save

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/oriys/newtonfractal/internal/metrics"
)

// ErrDestinationExists is returned when the target PNG already exists;
// save never overwrites.
var ErrDestinationExists = errors.New("save: destination already exists")

// ErrIO wraps an underlying filesystem failure (open/write/close) so
// callers can surface a human-readable message without type-asserting on
// os errors.
type ErrIO struct {
	Op  string
	Err error
}

func (e *ErrIO) Error() string { return "save: " + e.Op + ": " + e.Err.Error() }
func (e *ErrIO) Unwrap() error { return e.Err }

const metadataSuffix = "_metadata.txt"

// Store persists and retrieves saved renders under one base directory.
type Store struct {
	baseDir string
}

// NewStore returns a Store rooted at baseDir. The directory must already
// exist.
func NewStore(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) pngPath(name string) string      { return filepath.Join(s.baseDir, name+".png") }
func (s *Store) metadataPath(name string) string { return filepath.Join(s.baseDir, name+metadataSuffix) }

// Save writes pngBytes to "<name>.png" and metadata to
// "<name>_metadata.txt" under the base directory. Fails loudly if the
// PNG already exists; writes are staged to a temp file and renamed so a
// crash mid-write never leaves a half-written file at the final path.
func (s *Store) Save(name string, pngBytes []byte, metadata string) error {
	pngPath := s.pngPath(name)
	if _, err := os.Stat(pngPath); err == nil {
		metrics.RecordSaveCollision()
		return ErrDestinationExists
	} else if !errors.Is(err, os.ErrNotExist) {
		return &ErrIO{Op: "stat", Err: err}
	}

	if err := writeAtomic(pngPath, pngBytes); err != nil {
		return err
	}
	if err := writeAtomic(s.metadataPath(name), []byte(metadata)); err != nil {
		return err
	}
	return nil
}

func writeAtomic(finalPath string, data []byte) error {
	tmpPath := finalPath + "." + uuid.New().String()[:8] + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return &ErrIO{Op: "open", Err: err}
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return &ErrIO{Op: "write", Err: err}
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return &ErrIO{Op: "close", Err: err}
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return &ErrIO{Op: "rename", Err: err}
	}
	return nil
}

// Load reads back the metadata sidecar for a previously saved name.
func (s *Store) Load(name string) (string, error) {
	data, err := os.ReadFile(s.metadataPath(name))
	if err != nil {
		return "", &ErrIO{Op: "read", Err: err}
	}
	return string(data), nil
}

// LoadImage reads back the PNG bytes for a previously saved name, e.g. for
// a thumbnail/preview endpoint that re-encodes at a smaller size.
func (s *Store) LoadImage(name string) ([]byte, error) {
	data, err := os.ReadFile(s.pngPath(name))
	if err != nil {
		return nil, &ErrIO{Op: "read", Err: err}
	}
	return data, nil
}

// List returns the names of all saved images (PNG stems), derived from
// the metadata sidecars present in the base directory.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, &ErrIO{Op: "readdir", Err: err}
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(e.Name(), metadataSuffix) {
			names = append(names, strings.TrimSuffix(e.Name(), metadataSuffix))
		}
	}
	return names, nil
}
