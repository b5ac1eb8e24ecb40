package storage

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS kv_items (
    item_key TEXT PRIMARY KEY,
    item_value TEXT NOT NULL,
    updated_at INTEGER NOT NULL
);
`

// SQLiteMedium stores items in a single SQLite table.
type SQLiteMedium struct {
	sqlDB *sql.DB
}

// OpenSQLiteMedium opens path and ensures the item table exists.
func OpenSQLiteMedium(path string) (*SQLiteMedium, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if _, err := sqlDB.Exec(sqliteSchema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ensure item table: %w", err)
	}
	return &SQLiteMedium{sqlDB: sqlDB}, nil
}

func (s *SQLiteMedium) GetItem(key string) (string, bool, error) {
	if s == nil || s.sqlDB == nil {
		return "", false, ErrClosed
	}
	var value string
	err := s.sqlDB.QueryRow(`SELECT item_value FROM kv_items WHERE item_key = ?`, key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get item: %w", err)
	}
	return value, true, nil
}

func (s *SQLiteMedium) SetItem(key, value string) error {
	if s == nil || s.sqlDB == nil {
		return ErrClosed
	}
	_, err := s.sqlDB.Exec(
		`INSERT INTO kv_items (item_key, item_value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(item_key) DO UPDATE SET
		    item_value = excluded.item_value,
		    updated_at = excluded.updated_at`,
		key,
		value,
		time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("put item: %w", err)
	}
	return nil
}

func (s *SQLiteMedium) RemoveItem(key string) error {
	if s == nil || s.sqlDB == nil {
		return ErrClosed
	}
	if _, err := s.sqlDB.Exec(`DELETE FROM kv_items WHERE item_key = ?`, key); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}

func (s *SQLiteMedium) Keys() ([]string, error) {
	if s == nil || s.sqlDB == nil {
		return nil, ErrClosed
	}
	rows, err := s.sqlDB.Query(`SELECT item_key FROM kv_items ORDER BY item_key`)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	keys := make([]string, 0)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan item key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate item keys: %w", err)
	}
	return keys, nil
}

// Close releases the underlying SQLite connection.
func (s *SQLiteMedium) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	err := s.sqlDB.Close()
	s.sqlDB = nil
	return err
}
