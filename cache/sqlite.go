package cache

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// WAL lets readers proceed while the single writer commits
const dsnPragmas = "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// SQLiteStore keeps every entry as a row of a single table
type SQLiteStore struct {
	readDB  *sql.DB
	writeDB *sql.DB
}

// NewSQLiteStore initializes the store database at the given path
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	writeDB, err := sql.Open("sqlite", dbPath+dsnPragmas)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	// sqlite allows one writer at a time
	writeDB.SetMaxOpenConns(1)

	if _, err := writeDB.Exec(schemaSQL); err != nil {
		writeDB.Close()
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}

	readDB, err := sql.Open("sqlite", dbPath+dsnPragmas)
	if err != nil {
		writeDB.Close()
		return nil, fmt.Errorf("failed to open cache database for reading: %w", err)
	}

	return &SQLiteStore{readDB: readDB, writeDB: writeDB}, nil
}

func (s *SQLiteStore) Exists(key Key) (bool, error) {
	if err := validate(key); err != nil {
		return false, err
	}
	var one int
	err := s.readDB.QueryRow("SELECT 1 FROM entries WHERE key = ?", string(key)).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up cache entry %s: %w", key, err)
	}
	return true, nil
}

func (s *SQLiteStore) Read(key Key) ([]byte, error) {
	if err := validate(key); err != nil {
		return nil, err
	}
	var data []byte
	err := s.readDB.QueryRow("SELECT data FROM entries WHERE key = ?", string(key)).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache entry %s: %w", key, err)
	}
	if data == nil {
		data = []byte{}
	}
	return data, nil
}

// Write replaces the entry in a single statement
func (s *SQLiteStore) Write(key Key, data []byte) error {
	if err := validate(key); err != nil {
		return err
	}
	if data == nil {
		data = []byte{}
	}

	_, err := s.writeDB.Exec(
		"INSERT OR REPLACE INTO entries (key, data, created_at) VALUES (?, ?, ?)",
		string(key), data, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to write cache entry %s: %w", key, err)
	}
	return nil
}

// Clear removes all cache entries
func (s *SQLiteStore) Clear() error {
	if _, err := s.writeDB.Exec("DELETE FROM entries"); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

// Stats returns cache statistics
func (s *SQLiteStore) Stats() (Stats, error) {
	var stats Stats
	var size, oldestUnix sql.NullInt64

	err := s.readDB.QueryRow(
		"SELECT COUNT(*), SUM(LENGTH(data)), MIN(created_at) FROM entries",
	).Scan(&stats.Entries, &size, &oldestUnix)
	if err != nil {
		return stats, err
	}
	if size.Valid {
		stats.Bytes = size.Int64
	}
	if oldestUnix.Valid && oldestUnix.Int64 > 0 {
		stats.OldestEntry = time.Unix(oldestUnix.Int64, 0)
	}
	return stats, nil
}

// Close closes the cache database
func (s *SQLiteStore) Close() error {
	return errors.Join(s.readDB.Close(), s.writeDB.Close())
}

var _ Store = (*SQLiteStore)(nil)
