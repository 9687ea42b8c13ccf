// Package store provides whole-document JSON persistence with atomic writes
// and load-or-default semantics. Each repository owns one file.
package store

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// Repository persists one JSON document of type T.
type Repository[T any] struct {
	path string
	def  func() T
}

// NewRepository binds a repository to a file path. def builds the default
// document returned when the file is absent or unreadable.
func NewRepository[T any](path string, def func() T) *Repository[T] {
	return &Repository[T]{path: path, def: def}
}

// Path returns the backing file path.
func (r *Repository[T]) Path() string { return r.path }

// Load reads the document. A missing file yields the default silently; a
// corrupt file yields the default with a warning, never an error, so one bad
// store cannot take down a run.
func (r *Repository[T]) Load() T {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[WARN] store: reading %s: %v, using defaults", r.path, err)
		}
		return r.def()
	}
	var doc T
	if err := json.Unmarshal(data, &doc); err != nil {
		log.Printf("[WARN] store: %s is malformed: %v, using defaults", r.path, err)
		return r.def()
	}
	return doc
}

// Save writes the document atomically: marshal to a temp file in the same
// directory, then rename over the target.
func (r *Repository[T]) Save(doc T) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("store: marshal %s: %w", r.path, err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("store: ensure dir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("store: temp file for %s: %w", r.path, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("store: write %s: %w", r.path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("store: close %s: %w", r.path, err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("store: rename %s: %w", r.path, err)
	}
	return nil
}
