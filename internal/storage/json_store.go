package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	pmerrors "github.com/julianstephens/pillminder/internal/errors"
	"github.com/julianstephens/pillminder/internal/storage/filewatch"
)

type jsonEntry struct {
	Value    json.RawMessage `json:"value"`
	Revision int64           `json:"revision"`
}

type jsonDocument struct {
	Version int                  `json:"version"`
	Entries map[string]jsonEntry `json:"entries"`
}

// JSONStore keeps every key in a single JSON file. The file is re-read on each
// access so writes from other processes are visible immediately.
type JSONStore struct {
	path   string
	mu     sync.Mutex
	loaded bool
}

func NewJSONStore(configPath string) *JSONStore {
	return &JSONStore{
		path: configPath,
	}
}

func (s *JSONStore) Init() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path); err == nil {
		// Re-running init on an existing file keeps its contents
		if _, err := s.read(); err != nil {
			return err
		}
		s.loaded = true
		return nil
	}

	if err := s.write(&jsonDocument{Version: 1, Entries: make(map[string]jsonEntry)}); err != nil {
		return err
	}
	s.loaded = true
	return nil
}

func (s *JSONStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.read(); err != nil {
		return err
	}
	s.loaded = true
	return nil
}

func (s *JSONStore) Close() error {
	return nil
}

func (s *JSONStore) read() (*jsonDocument, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, pmerrors.ErrNotInitialized
		}
		return nil, fmt.Errorf("failed to read storage: %w", err)
	}

	doc := &jsonDocument{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("failed to parse storage: %w", err)
	}
	if doc.Entries == nil {
		doc.Entries = make(map[string]jsonEntry)
	}
	return doc, nil
}

// write replaces the file atomically via a temp file and rename.
func (s *JSONStore) write(doc *jsonDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize storage: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to write storage: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write storage: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write storage: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write storage: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write storage: %w", err)
	}
	return nil
}

func (s *JSONStore) Get(key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return nil, false, fmt.Errorf("storage not loaded")
	}

	doc, err := s.read()
	if err != nil {
		return nil, false, err
	}
	entry, ok := doc.Entries[key]
	if !ok {
		return nil, false, nil
	}
	return []byte(entry.Value), true, nil
}

func (s *JSONStore) Set(key string, value []byte) error {
	return s.SetMany(map[string][]byte{key: value})
}

func (s *JSONStore) SetMany(values map[string][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return fmt.Errorf("storage not loaded")
	}

	doc, err := s.read()
	if err != nil {
		return err
	}

	for k, v := range values {
		if !json.Valid(v) {
			return fmt.Errorf("value for %s is not valid JSON", k)
		}
		entry := doc.Entries[k]
		entry.Value = json.RawMessage(v)
		entry.Revision++
		doc.Entries[k] = entry
	}

	return s.write(doc)
}

func (s *JSONStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return fmt.Errorf("storage not loaded")
	}

	doc, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := doc.Entries[key]; !ok {
		return nil
	}
	delete(doc.Entries, key)
	return s.write(doc)
}

func (s *JSONStore) Revisions() (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return nil, fmt.Errorf("storage not loaded")
	}

	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	revisions := make(map[string]int64, len(doc.Entries))
	for k, e := range doc.Entries {
		revisions[k] = e.Revision
	}
	return revisions, nil
}

func (s *JSONStore) WatchChanges(ctx context.Context, onChange func()) error {
	return filewatch.Watch(ctx, s.path, onChange)
}

func (s *JSONStore) GetConfigPath() string {
	return s.path
}
