package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const tmpPrefix = ".tmp-"

// FileStore keeps one file per key under a private directory
type FileStore struct {
	dir string
}

// NewFileStore creates the store directory when missing
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(key Key) (string, error) {
	if err := validate(key); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, string(key)), nil
}

func (s *FileStore) Exists(key Key) (bool, error) {
	p, err := s.path(key)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat cache entry %s: %w", key, err)
	}
	if info.IsDir() {
		return false, nil
	}
	return true, nil
}

func (s *FileStore) Read(key Key) ([]byte, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache entry %s: %w", key, err)
	}
	return data, nil
}

// Write stores data in a temp file next to the target and renames it into
// place, so readers see either the old entry or the complete new one.
func (s *FileStore) Write(key Key, data []byte) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, tmpPrefix+string(key)+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", key, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write cache entry %s: %w", key, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync cache entry %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close cache entry %s: %w", key, err)
	}
	if err := os.Rename(tmpName, p); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move cache entry %s into place: %w", key, err)
	}

	slog.Debug("cache entry written", "key", truncate(string(key), 50), "size", len(data))
	return nil
}

// Clear removes every entry but keeps the store directory
func (s *FileStore) Clear() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("failed to list cache directory: %w", err)
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(s.dir, e.Name())); err != nil {
			return fmt.Errorf("failed to remove %s: %w", e.Name(), err)
		}
	}
	return nil
}

func (s *FileStore) Stats() (Stats, error) {
	var stats Stats
	err := filepath.WalkDir(s.dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), tmpPrefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		stats.Entries++
		stats.Bytes += info.Size()
		if mod := info.ModTime(); stats.OldestEntry.IsZero() || mod.Before(stats.OldestEntry) {
			stats.OldestEntry = mod
		}
		return nil
	})
	if err != nil {
		return Stats{}, fmt.Errorf("failed to walk cache directory: %w", err)
	}
	return stats, nil
}

func (s *FileStore) Close() error { return nil }

var _ Store = (*FileStore)(nil)
