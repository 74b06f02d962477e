package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DiskStore stores snapshots as JSON files, one directory per session:
// <dir>/<session id>/<fingerprint>.json.
type DiskStore struct {
	dir string
}

// NewDiskStore creates a DiskStore rooted at dir, creating it if needed.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("snapshot: create store dir: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

// Dir returns the root directory.
func (s *DiskStore) Dir() string {
	return s.dir
}

func (s *DiskStore) path(key string) string {
	return filepath.Join(s.dir, filepath.FromSlash(key)+".json")
}

// Save implements Store. The file is written to a temporary name and renamed
// into place.
func (s *DiskStore) Save(_ context.Context, snap *Snapshot) (string, error) {
	key, err := snap.Key()
	if err != nil {
		return "", err
	}
	data, err := snap.Encode()
	if err != nil {
		return "", err
	}

	path := s.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("snapshot: create session dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*")
	if err != nil {
		return "", fmt.Errorf("snapshot: create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("snapshot: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("snapshot: write: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("snapshot: rename: %w", err)
	}
	return key, nil
}

// Load implements Store.
func (s *DiskStore) Load(_ context.Context, key string) (*Snapshot, error) {
	if _, _, err := ParseKey(key); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot: read: %w", err)
	}
	return Decode(data)
}

// List implements Store.
func (s *DiskStore) List(_ context.Context, sessionID string) ([]string, error) {
	if !sessionPattern.MatchString(sessionID) {
		return nil, fmt.Errorf("%w: session id %q", ErrInvalidKey, sessionID)
	}
	entries, err := os.ReadDir(filepath.Join(s.dir, sessionID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot: list: %w", err)
	}
	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		keys = append(keys, sessionID+"/"+strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(keys)
	return keys, nil
}
