package system

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/pillminder/internal/cli/clitest"
	"github.com/julianstephens/pillminder/internal/config"
	"github.com/julianstephens/pillminder/internal/constants"
	"github.com/julianstephens/pillminder/internal/models"
	"github.com/julianstephens/pillminder/internal/storage"
	"github.com/julianstephens/pillminder/internal/storage/sqlite"
)

func stubKeyring(t *testing.T, available bool) {
	t.Helper()
	orig := keyringAvailable
	keyringAvailable = func() bool { return available }
	t.Cleanup(func() { keyringAvailable = orig })
}

func newDoctorEnv(t *testing.T, backend storage.Backend) *clitest.Env {
	t.Helper()
	stubKeyring(t, true)
	env := clitest.New(t, backend)
	env.Ctx.Config.Notifier.Backend = config.BackendConsole
	return env
}

func TestDoctorCmd_MemoryStorePasses(t *testing.T) {
	env := newDoctorEnv(t, nil)
	env.AddPill(t, "Aspirin", "08:00")
	env.Activate(t)

	if err := (&DoctorCmd{}).Run(env.Ctx); err != nil {
		t.Fatalf("doctor failed: %v\n%s", err, env.Output())
	}
	out := env.Output()
	for _, want := range []string{
		"✓ Database reachable: OK",
		"✓ Log integrity: OK",
		"⚠ Backups present: WARNING",
		"All diagnostics passed!",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestDoctorCmd_SQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store := sqlite.NewStore(dbPath)
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init sqlite: %v", err)
	}
	defer store.Close()

	env := newDoctorEnv(t, store)
	if err := (&DoctorCmd{}).Run(env.Ctx); err != nil {
		t.Fatalf("doctor failed: %v\n%s", err, env.Output())
	}
	out := env.Output()
	for _, want := range []string{"✓ Schema version: OK", "✓ Migrations complete: OK", "no backups found"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestDoctorCmd_UninitializedSkipsDataChecks(t *testing.T) {
	env := newDoctorEnv(t, sqlite.NewStore(filepath.Join(t.TempDir(), "missing.db")))

	if err := (&DoctorCmd{}).Run(env.Ctx); err == nil {
		t.Fatal("expected doctor to fail")
	}
	out := env.Output()
	if !strings.Contains(out, "❌ Database reachable: FAIL") || !strings.Contains(out, "⊘ Log integrity: SKIPPED") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestDoctorCmd_DetectsBadData(t *testing.T) {
	orphan, _ := json.Marshal([]models.PillLog{{
		ID:            "l1",
		PillID:        "gone",
		ScheduledTime: clitest.Now,
		Status:        constants.StatusPending,
	}})
	takenWithoutTime, _ := json.Marshal([]models.PillLog{{
		ID:            "l1",
		PillID:        "p1",
		ScheduledTime: clitest.Now,
		Status:        constants.StatusTaken,
	}})
	pill, _ := json.Marshal([]models.Pill{{ID: "p1", Name: "Aspirin", Dosage: "10mg", Times: []string{"08:00"}}})
	badPill, _ := json.Marshal([]models.Pill{{ID: "p1", Name: "Aspirin", Dosage: "10mg", Times: []string{"8am"}}})

	tests := []struct {
		name   string
		values map[string][]byte
		want   string
	}{
		{
			name:   "corrupt document",
			values: map[string][]byte{constants.KeyPills: []byte("{not json")},
			want:   "❌ Stored documents: FAIL",
		},
		{
			name:   "orphaned log",
			values: map[string][]byte{constants.KeyPillLogs: orphan},
			want:   "found 1 orphaned logs",
		},
		{
			name:   "taken without time",
			values: map[string][]byte{constants.KeyPills: pill, constants.KeyPillLogs: takenWithoutTime},
			want:   "❌ Log integrity: FAIL",
		},
		{
			name:   "invalid pill time",
			values: map[string][]byte{constants.KeyPills: badPill},
			want:   "❌ Pill validation: FAIL",
		},
		{
			name:   "bad marker",
			values: map[string][]byte{constants.KeyLastScheduleDate: []byte(`"yesterday"`)},
			want:   "is not a date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := storage.NewMemoryStore()
			if err := backend.SetMany(tt.values); err != nil {
				t.Fatalf("failed to seed: %v", err)
			}
			env := newDoctorEnv(t, backend)

			if err := (&DoctorCmd{}).Run(env.Ctx); err == nil {
				t.Fatal("expected doctor to fail")
			}
			if out := env.Output(); !strings.Contains(out, tt.want) {
				t.Errorf("expected %q in output:\n%s", tt.want, out)
			}
		})
	}
}

func TestDoctorCmd_KeyringUnavailableIsWarning(t *testing.T) {
	env := newDoctorEnv(t, nil)
	stubKeyring(t, false)

	if err := (&DoctorCmd{}).Run(env.Ctx); err != nil {
		t.Fatalf("an unavailable keyring should not fail doctor: %v", err)
	}
	if !strings.Contains(env.Output(), "⚠ OS keyring: WARNING") {
		t.Error("expected a keyring warning")
	}
}

func TestCheckClockTimezone(t *testing.T) {
	if err := checkClockTimezone(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := checkClockTimezone(time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)); err == nil {
		t.Error("expected a clock in 1999 to be rejected")
	}
}
