package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	pq "github.com/lib/pq"

	"github.com/julianstephens/pillminder/internal/logger"
)

const upsertSQL = `
	INSERT INTO kv (key, value, revision, updated_at)
	VALUES ($1, $2, 1, now())
	ON CONFLICT (key) DO UPDATE SET
		value = EXCLUDED.value,
		revision = kv.revision + 1,
		updated_at = now()`

func (s *Store) Get(key string) ([]byte, bool, error) {
	if s.db == nil {
		return nil, false, fmt.Errorf("storage not loaded")
	}

	var value []byte
	err := s.db.QueryRow("SELECT value FROM kv WHERE key = $1", key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, true, nil
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

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if _, err := tx.Exec(upsertSQL, k, string(values[k])); err != nil {
			return fmt.Errorf("failed to write %s: %w", k, err)
		}
	}

	// Delivered to listeners only when the transaction commits
	if _, err := tx.Exec("SELECT pg_notify($1, '')", changeChannel); err != nil {
		return fmt.Errorf("failed to signal change: %w", err)
	}

	return tx.Commit()
}

func (s *Store) Delete(key string) error {
	if s.db == nil {
		return fmt.Errorf("storage not loaded")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM kv WHERE key = $1", key); err != nil {
		return err
	}
	if _, err := tx.Exec("SELECT pg_notify($1, '')", changeChannel); err != nil {
		return fmt.Errorf("failed to signal change: %w", err)
	}
	return tx.Commit()
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

// WatchChanges listens on the kv change channel until ctx is done.
func (s *Store) WatchChanges(ctx context.Context, onChange func()) error {
	listener := pq.NewListener(s.connStr, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			logger.Warn("Postgres listener event", "event", ev, "error", err)
		}
	})
	defer listener.Close()

	if err := listener.Listen(changeChannel); err != nil {
		return fmt.Errorf("failed to listen for changes: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-listener.Notify:
			// A nil notification follows a reconnect; treat it as a change too.
			onChange()
		case <-time.After(90 * time.Second):
			go func() {
				if err := listener.Ping(); err != nil {
					logger.Warn("Postgres listener ping failed", "error", err)
				}
			}()
		}
	}
}
