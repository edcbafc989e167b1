// Package file implements domain store interfaces on the local filesystem.
// It is the default backend for single-process deployments.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/skewmarket/skewd/internal/domain"
)

// AlphaStore persists the alpha ledger as one JSON document. A missing file
// reads as an empty ledger; writes go through a temp file and rename so a
// crash mid-write never leaves a truncated ledger behind.
type AlphaStore struct {
	path string
}

var _ domain.AlphaStore = (*AlphaStore)(nil)

// NewAlphaStore creates a store writing to the given path.
func NewAlphaStore(path string) *AlphaStore {
	return &AlphaStore{path: path}
}

// Load reads the persisted ledger.
func (s *AlphaStore) Load(_ context.Context) ([]domain.AlphaEntry, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("file: read %s: %w", s.path, err)
	}

	var entries []domain.AlphaEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("file: decode %s: %w", s.path, err)
	}
	return entries, nil
}

// Save atomically replaces the persisted ledger.
func (s *AlphaStore) Save(_ context.Context, entries []domain.AlphaEntry) error {
	if entries == nil {
		entries = []domain.AlphaEntry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("file: encode entries: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("file: create dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".alpha-*.json")
	if err != nil {
		return fmt.Errorf("file: create temp: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("file: write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("file: close temp: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("file: replace %s: %w", s.path, err)
	}
	return nil
}
