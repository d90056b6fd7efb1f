package model

import (
	"maps"
	"os"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/errors"
)

// Loader handles loading and caching of model files.
type Loader struct {
	mu sync.Mutex

	// cache stores loaded models by absolute path.
	cache map[string]*Model

	// Parser is the function used to decode model files.
	// Defaults to Parse but can be overridden for testing.
	Parser func(data []byte, path string) (*Model, error)
}

// NewLoader creates a new model loader.
func NewLoader() *Loader {
	return &Loader{
		cache:  make(map[string]*Model),
		Parser: Parse,
	}
}

// Load loads a model from the given path.
// Relative paths are resolved from the current working directory.
// Returns a cached model if already loaded. Failed loads are not cached.
func (l *Loader) Load(path string) (*Model, error) {
	absPath, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return nil, &LoadError{Path: path, Cause: err}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if m, ok := l.cache[absPath]; ok {
		return m, nil
	}

	data, err := os.ReadFile(absPath) //nolint:gosec // G304: file path from user input is expected
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			err = errors.WithHint(errors.Mark(err, ErrModelNotFound), "check the path, model files usually end in .yaml")
		}

		return nil, &LoadError{Path: absPath, Cause: err}
	}

	m, err := l.Parser(data, absPath)
	if err != nil {
		return nil, &LoadError{Path: absPath, Cause: err}
	}

	l.cache[absPath] = m

	return m, nil
}

// Clear clears the model cache.
func (l *Loader) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.cache = make(map[string]*Model)
}

// Cached returns all cached models.
func (l *Loader) Cached() map[string]*Model {
	l.mu.Lock()
	defer l.mu.Unlock()

	result := make(map[string]*Model, len(l.cache))
	maps.Copy(result, l.cache)

	return result
}
