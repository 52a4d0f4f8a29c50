package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"
)

const upsertSQL = `
	INSERT INTO kv (key, value, revision, updated_at)
	VALUES (?, ?, 1, ?)
	ON CONFLICT(key) DO UPDATE SET
		value = excluded.value,
		revision = kv.revision + 1,
		updated_at = excluded.updated_at`

func (s *Store) Get(key string) ([]byte, bool, error) {
	if s.db == nil {
		return nil, false, fmt.Errorf("storage not loaded")
	}

	var value string
	err := s.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return []byte(value), true, nil
}

func (s *Store) Set(key string, value []byte) error {
	return s.SetMany(map[string][]byte{key: value})
}

func (s *Store) SetMany(values map[string][]byte) error {
	if s.db == nil {
		return fmt.Errorf("storage not loaded")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(upsertSQL)
	if err != nil {
		return err
	}
	defer stmt.Close()

	// Stable order keeps lock acquisition predictable across writers
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, k := range keys {
		if _, err := stmt.Exec(k, string(values[k]), now); err != nil {
			return fmt.Errorf("failed to write %s: %w", k, err)
		}
	}

	return tx.Commit()
}

func (s *Store) Delete(key string) error {
	if s.db == nil {
		return fmt.Errorf("storage not loaded")
	}
	_, err := s.db.Exec("DELETE FROM kv WHERE key = ?", key)
	return err
}

func (s *Store) Revisions() (map[string]int64, error) {
	if s.db == nil {
		return nil, fmt.Errorf("storage not loaded")
	}

	rows, err := s.db.Query("SELECT key, revision FROM kv")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	revisions := make(map[string]int64)
	for rows.Next() {
		var key string
		var rev int64
		if err := rows.Scan(&key, &rev); err != nil {
			return nil, err
		}
		revisions[key] = rev
	}
	return revisions, rows.Err()
}
