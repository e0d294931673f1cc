package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
)

// Pointers is a storage for scalar pointer values, keyed by name
type Pointers struct {
	db *sqlx.DB
}

// NewPointers creates a new Pointers storage
func NewPointers(db *sqlx.DB) (*Pointers, error) {
	createPointersTable := `
	CREATE TABLE IF NOT EXISTS pointers (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)
	`
	if _, err := db.Exec(createPointersTable); err != nil {
		return nil, fmt.Errorf("failed to create pointers table: %w", err)
	}

	return &Pointers{db: db}, nil
}

// Read returns the value stored under key, or an empty string if none is set
func (p *Pointers) Read(key string) (string, error) {
	var value string
	err := p.db.Get(&value, "SELECT value FROM pointers WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get pointer %s: %w", key, err)
	}

	slog.Debug("read pointer",
		slog.String("key", key),
		slog.String("value", value),
	)
	return value, nil
}

// Write stores value under key, replacing any previous value
func (p *Pointers) Write(key, value string) error {
	insertQuery := "INSERT OR REPLACE INTO pointers (key, value) VALUES (?, ?)"
	if _, err := p.db.Exec(insertQuery, key, value); err != nil {
		return fmt.Errorf("failed to insert pointer %s: %w", key, err)
	}

	slog.Debug("pointer written",
		slog.String("key", key),
		slog.String("value", value),
	)
	return nil
}

// Delete removes the value stored under key
func (p *Pointers) Delete(key string) error {
	if _, err := p.db.Exec("DELETE FROM pointers WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete pointer %s: %w", key, err)
	}

	slog.Debug("pointer deleted",
		slog.String("key", key),
	)
	return nil
}
