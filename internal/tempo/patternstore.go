// patternstore.go: on-disk cache for generated template grids, so repeated
// runs avoid the generation cost.
package tempo

import (
	"encoding/gob"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kiki442002/go-bpm-analyzer/internal/errors"
	"github.com/kiki442002/go-bpm-analyzer/internal/logging"
)

// ErrPatternNotFound reports a missing cache entry. Callers regenerate on it.
var ErrPatternNotFound = errors.NewStd("pattern cache entry not found")

// Store persists template grids as gob files in a cache directory. The binary
// layout is a private artifact; only round-trip fidelity matters.
type Store struct {
	dir string
	log *slog.Logger
}

// NewStore creates a Store rooted at dir. The directory must exist.
func NewStore(dir string) *Store {
	return &Store{
		dir: dir,
		log: logging.ForService("tempo"),
	}
}

// fileName maps a band base and resolution to the cache file name, mirroring
// the naming of the original pattern files.
func (s *Store) fileName(base float64, fine bool) string {
	suffix := ""
	if fine {
		suffix = "_fine"
	}
	return filepath.Join(s.dir, fmt.Sprintf("%d_bpm_pattern%s.gob", int(base), suffix))
}

// Load reads a cached grid. Returns ErrPatternNotFound when the entry is
// missing or fails to decode; any other I/O failure is returned as-is.
func (s *Store) Load(base float64, fine bool) (*Grid, error) {
	path := s.fileName(base, fine)

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrPatternNotFound
		}
		return nil, errors.New(err).
			Component("tempo").
			Category(errors.CategoryFileIO).
			Context("operation", "load_pattern").
			Context("path", path).
			Build()
	}
	defer func() {
		if err := f.Close(); err != nil {
			s.log.Warn("error closing pattern file", "path", path, "error", err)
		}
	}()

	var grid Grid
	if err := gob.NewDecoder(f).Decode(&grid); err != nil {
		// Corrupt entry, treat like a miss so it gets regenerated.
		s.log.Warn("corrupt pattern cache entry", "path", path, "error", err)
		return nil, ErrPatternNotFound
	}
	if !grid.valid() {
		s.log.Warn("inconsistent pattern cache entry", "path", path)
		return nil, ErrPatternNotFound
	}

	return &grid, nil
}

// Save writes a grid to the cache, replacing any previous entry.
func (s *Store) Save(grid *Grid, fine bool) error {
	path := s.fileName(grid.Base, fine)

	f, err := os.Create(path)
	if err != nil {
		return errors.New(err).
			Component("tempo").
			Category(errors.CategoryFileIO).
			Context("operation", "save_pattern").
			Context("path", path).
			Build()
	}

	if err := gob.NewEncoder(f).Encode(grid); err != nil {
		_ = f.Close()
		return errors.New(err).
			Component("tempo").
			Category(errors.CategoryFileIO).
			Context("operation", "save_pattern").
			Context("path", path).
			Build()
	}

	if err := f.Close(); err != nil {
		return errors.New(err).
			Component("tempo").
			Category(errors.CategoryFileIO).
			Context("operation", "save_pattern").
			Context("path", path).
			Build()
	}

	return nil
}

// LoadOrGenerate returns the cached grid for a band and resolution,
// regenerating and rewriting the cache on a miss. Any other failure
// propagates and is fatal at startup.
func (s *Store) LoadOrGenerate(base float64, width, sampleRate int, fine bool) (*Grid, error) {
	grid, err := s.Load(base, fine)
	if err == nil {
		if grid.SampleRate == sampleRate {
			return grid, nil
		}
		// Cached for a different rate, regenerate below.
		s.log.Info("pattern cache sample rate mismatch, regenerating",
			"base_bpm", base, "cached_rate", grid.SampleRate, "rate", sampleRate)
	} else if !errors.Is(err, ErrPatternNotFound) {
		return nil, err
	}

	s.log.Info("generating tempo patterns", "base_bpm", base, "fine", fine, "dir", s.dir)
	if fine {
		grid = NewFineGrid(base, width, sampleRate)
	} else {
		grid = NewCoarseGrid(base, width, sampleRate)
	}

	if err := s.Save(grid, fine); err != nil {
		return nil, err
	}

	return grid, nil
}
