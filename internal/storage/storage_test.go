package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	pmerrors "github.com/julianstephens/pillminder/internal/errors"
	"github.com/julianstephens/pillminder/internal/storage/postgres"
	"github.com/julianstephens/pillminder/internal/storage/sqlite"
)

func TestOpen(t *testing.T) {
	tests := []struct {
		name   string
		config string
		check  func(Backend) bool
	}{
		{"memory", ":memory:", func(b Backend) bool { _, ok := b.(*MemoryStore); return ok }},
		{"postgres url", "postgres://me@localhost/meds", func(b Backend) bool { _, ok := b.(*postgres.Store); return ok }},
		{"postgres dsn", "host=localhost dbname=meds", func(b Backend) bool { _, ok := b.(*postgres.Store); return ok }},
		{"json", "/tmp/pillminder.json", func(b Backend) bool { _, ok := b.(*JSONStore); return ok }},
		{"json uppercase", "/tmp/PILLS.JSON", func(b Backend) bool { _, ok := b.(*JSONStore); return ok }},
		{"sqlite", "/tmp/pillminder.db", func(b Backend) bool { _, ok := b.(*sqlite.Store); return ok }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Open(tt.config)
			if err != nil {
				t.Fatalf("Open(%q) error = %v", tt.config, err)
			}
			if !tt.check(b) {
				t.Errorf("Open(%q) returned %T", tt.config, b)
			}
		})
	}
}

func TestOpenExpandsHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	b, err := Open("~/pillminder-test.db")
	if err != nil {
		t.Fatalf("Open error = %v", err)
	}
	want := filepath.Join(home, "pillminder-test.db")
	if b.GetConfigPath() != want {
		t.Errorf("GetConfigPath() = %q, want %q", b.GetConfigPath(), want)
	}
}

func TestJSONStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")

	t.Run("LoadBeforeInit", func(t *testing.T) {
		s := NewJSONStore(path)
		if err := s.Load(); !errors.Is(err, pmerrors.ErrNotInitialized) {
			t.Errorf("Load() error = %v, want ErrNotInitialized", err)
		}
	})

	s := NewJSONStore(path)
	if err := s.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	t.Run("SetGet", func(t *testing.T) {
		if err := s.Set("pills", []byte(`[{"id":"1"}]`)); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		got, ok, err := s.Get("pills")
		if err != nil || !ok {
			t.Fatalf("Get = %v, %v", ok, err)
		}
		if string(got) != `[{"id":"1"}]` {
			t.Errorf("Get = %s", got)
		}
	})

	t.Run("RejectsInvalidJSON", func(t *testing.T) {
		if err := s.Set("bad", []byte(`{`)); err == nil {
			t.Error("expected error for invalid JSON")
		}
		if _, ok, _ := s.Get("bad"); ok {
			t.Error("invalid value was stored")
		}
	})

	t.Run("SeenByOtherInstance", func(t *testing.T) {
		other := NewJSONStore(path)
		if err := other.Load(); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if err := other.Set("last-schedule-date", []byte(`"2024-01-20"`)); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		got, ok, _ := s.Get("last-schedule-date")
		if !ok || string(got) != `"2024-01-20"` {
			t.Errorf("Get = %s, %v", got, ok)
		}
	})

	t.Run("Revisions", func(t *testing.T) {
		before, _ := s.Revisions()
		_ = s.SetMany(map[string][]byte{"pills": []byte(`[]`), "pill-logs": []byte(`[]`)})
		after, _ := s.Revisions()
		if after["pills"] != before["pills"]+1 {
			t.Errorf("pills revision %d -> %d", before["pills"], after["pills"])
		}
		if after["pill-logs"] != before["pill-logs"]+1 {
			t.Errorf("pill-logs revision %d -> %d", before["pill-logs"], after["pill-logs"])
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := s.Delete("pills"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if _, ok, _ := s.Get("pills"); ok {
			t.Error("key present after Delete")
		}
	})

	t.Run("InitKeepsExisting", func(t *testing.T) {
		again := NewJSONStore(path)
		if err := again.Init(); err != nil {
			t.Fatalf("Init failed: %v", err)
		}
		if _, ok, _ := again.Get("last-schedule-date"); !ok {
			t.Error("re-init discarded existing data")
		}
	})

	t.Run("FilePermissions", func(t *testing.T) {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("Stat failed: %v", err)
		}
		if info.Mode().Perm() != 0600 {
			t.Errorf("mode = %v, want 0600", info.Mode().Perm())
		}
	})
}

func TestJSONStoreWatchChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watch.json")
	s := NewJSONStore(path)
	if err := s.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	fired := make(chan struct{}, 1)
	go func() {
		_ = s.WatchChanges(ctx, func() {
			select {
			case fired <- struct{}{}:
			default:
			}
		})
	}()
	time.Sleep(100 * time.Millisecond)

	if err := s.Set("pills", []byte(`[]`)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	select {
	case <-fired:
	case <-ctx.Done():
		t.Fatal("no change observed")
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()

	if err := s.Set("k", []byte(`1`)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	s.SetFailWrites(true)
	if err := s.Set("k", []byte(`2`)); !errors.Is(err, ErrWriteFailed) {
		t.Errorf("Set error = %v, want ErrWriteFailed", err)
	}
	got, _, _ := s.Get("k")
	if string(got) != "1" {
		t.Errorf("failed write changed value to %s", got)
	}

	s.SetFailWrites(false)
	if err := s.Set("k", []byte(`3`)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if s.Writes() != 2 {
		t.Errorf("Writes() = %d, want 2", s.Writes())
	}

	revs, _ := s.Revisions()
	if revs["k"] != 2 {
		t.Errorf("revision = %d, want 2", revs["k"])
	}
}

func TestMemoryStoreGetReturnsCopy(t *testing.T) {
	s := NewMemoryStore()
	_ = s.Set("k", []byte(`abc`))
	got, _, _ := s.Get("k")
	got[0] = 'z'
	again, _, _ := s.Get("k")
	if string(again) != "abc" {
		t.Errorf("stored value mutated through Get result: %s", again)
	}
}
