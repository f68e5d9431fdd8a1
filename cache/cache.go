// Package cache persists raw fetched payloads by key.
package cache

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/scipunch/articleviewer/config"
)

// ErrNotFound is returned by Read when no entry exists for a key
var ErrNotFound = errors.New("cache entry not found")

// ErrInvalidKey is returned for keys that cannot be mapped onto storage
var ErrInvalidKey = errors.New("invalid cache key")

// Key addresses one persisted resource
type Key string

// ListKey is the fixed key of the article list
const ListKey Key = "list-cache"

// Store is the local byte store behind the loaders.
// Implementations must allow concurrent reads and must replace entries
// atomically, so that a failed Write never leaves an entry that Exists
// reports as present.
type Store interface {
	Exists(key Key) (bool, error)
	Read(key Key) ([]byte, error)
	Write(key Key, data []byte) error
	Clear() error
	Stats() (Stats, error)
	Close() error
}

// Stats contains store statistics
type Stats struct {
	Entries     int
	Bytes       int64
	OldestEntry time.Time
}

// keySeparator never survives sanitizing, so segment boundaries stay
// distinct and every image key differs from ListKey.
const (
	imagePrefix  = "image"
	keySeparator = "+"
)

// ImageKey derives the key of an image from its URL.
// The http:// and https:// prefixes are dropped so both variants share one
// entry, and every path segment is reduced to [A-Za-z0-9._-]. Keys are flat:
// segments are joined with "+" behind an "image+" prefix. A URL without any
// segment yields the empty key.
func ImageKey(url string) Key {
	url = strings.TrimPrefix(url, "http://")
	url = strings.TrimPrefix(url, "https://")

	clean := []string{imagePrefix}
	for _, s := range strings.Split(url, "/") {
		s = sanitizeSegment(s)
		if s == "" || s == "." || s == ".." {
			continue
		}
		clean = append(clean, s)
	}
	if len(clean) == 1 {
		return ""
	}
	return Key(strings.Join(clean, keySeparator))
}

func sanitizeSegment(s string) string {
	return strings.Map(func(r rune) rune {
		if safeRune(r) {
			return r
		}
		return '_'
	}, s)
}

func safeRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '.' || r == '-' || r == '_':
		return true
	}
	return false
}

// validate rejects keys that are not a single plain file name
func validate(key Key) error {
	if key == "" {
		return fmt.Errorf("%w: empty", ErrInvalidKey)
	}
	if key == "." || key == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, r := range string(key) {
		if !safeRune(r) && string(r) != keySeparator {
			return fmt.Errorf("%w: %q contains unsafe characters", ErrInvalidKey, key)
		}
	}
	return nil
}

// Open creates the store selected in the config
func Open(conf config.Config) (Store, error) {
	switch conf.Store {
	case config.Files:
		return NewFileStore(conf.CacheDirectory)
	case config.SQLite:
		return NewSQLiteStore(conf.DatabasePath)
	default:
		return nil, fmt.Errorf("unknown store kind: %s", conf.Store)
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
