package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// SQLiteSlot stores slot values in the local_storage table
type SQLiteSlot struct {
	database *sql.DB
}

// NewSQLiteSlot wraps a database prepared by db.InitDatabase
func NewSQLiteSlot(database *sql.DB) *SQLiteSlot {
	return &SQLiteSlot{
		database: database,
	}
}

// Get returns the value stored under key
func (ss *SQLiteSlot) Get(key string) ([]byte, bool, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, false, ErrEmptyKey
	}

	query := `SELECT value FROM local_storage WHERE key = ?`

	var value string
	err := ss.database.QueryRow(query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query slot %s: %w", key, err)
	}
	return []byte(value), true, nil
}

// Set inserts or replaces the value stored under key
func (ss *SQLiteSlot) Set(key string, value []byte) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrEmptyKey
	}

	query := `INSERT INTO local_storage (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

	if _, err := ss.database.Exec(query, key, string(value), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to write slot %s: %w", key, err)
	}
	return nil
}

// Remove deletes key; removing an absent key is not an error
func (ss *SQLiteSlot) Remove(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrEmptyKey
	}

	query := `DELETE FROM local_storage WHERE key = ?`
	if _, err := ss.database.Exec(query, key); err != nil {
		return fmt.Errorf("failed to delete slot %s: %w", key, err)
	}
	return nil
}

// Keys lists stored keys, newest first
func (ss *SQLiteSlot) Keys() ([]string, error) {
	rows, err := ss.database.Query(`SELECT key FROM local_storage ORDER BY updated_at DESC, key`)
	if err != nil {
		return nil, fmt.Errorf("failed to query slots: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan slot key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}
