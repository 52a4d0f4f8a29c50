package notifier

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	ps "github.com/mitchellh/go-ps"

	"github.com/julianstephens/pillminder/internal/constants"
)

type mockProcess struct {
	pid        int
	executable string
}

func (m *mockProcess) Pid() int {
	return m.pid
}

func (m *mockProcess) PPid() int {
	return 0
}

func (m *mockProcess) Executable() string {
	return m.executable
}

func withConfigDir(t *testing.T) string {
	t.Helper()
	tempDir := t.TempDir()
	old := userConfigDirFunc
	t.Cleanup(func() { userConfigDirFunc = old })
	userConfigDirFunc = func() (string, error) {
		return tempDir, nil
	}
	return tempDir
}

func withProcess(t *testing.T, executable string) {
	t.Helper()
	old := findProcessFunc
	t.Cleanup(func() { findProcessFunc = old })
	findProcessFunc = func(pid int) (ps.Process, error) {
		if executable == "" {
			return nil, nil
		}
		return &mockProcess{pid: pid, executable: executable}, nil
	}
}

func TestGetTrayAppConfigDir(t *testing.T) {
	tempDir := withConfigDir(t)

	expectedDefault := filepath.Join(tempDir, constants.TrayAppIdentifier)
	dir, err := GetTrayAppConfigDir()
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if dir != expectedDefault {
		t.Errorf("expected %s, got %s", expectedDefault, dir)
	}

	trayConfigDir := filepath.Join(tempDir, constants.TrayAppIdentifier)
	if err := os.MkdirAll(trayConfigDir, 0755); err != nil {
		t.Fatal(err)
	}
	customDir := "/custom/pillminder/dir"
	settingsJSON := fmt.Sprintf(`{"settings": {"lockfile_dir": "%s"}}`, customDir)
	if err := os.WriteFile(filepath.Join(trayConfigDir, "settings.json"), []byte(settingsJSON), 0644); err != nil {
		t.Fatal(err)
	}

	dir, err = GetTrayAppConfigDir()
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if dir != customDir {
		t.Errorf("expected %s, got %s", customDir, dir)
	}
}

func TestFindAndValidateTrayProcess(t *testing.T) {
	lockfilePath := filepath.Join(t.TempDir(), constants.NotifierLockfileName)

	if _, _, err := findAndValidateTrayProcess(lockfilePath); err == nil {
		t.Error("expected error for missing lockfile")
	}

	invalid := []struct {
		name    string
		content string
		mention string
	}{
		{"two-part format", "8080|12345", "malformed"},
		{"garbage", "invalid", "malformed"},
		{"empty secret", "8080|12345|", "secret"},
		{"empty port", "|12345|s3cret", "port"},
		{"port out of range", "99999|12345|s3cret", "range"},
		{"bad pid", "8080|abc|s3cret", "process ID"},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			if err := os.WriteFile(lockfilePath, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			_, _, err := findAndValidateTrayProcess(lockfilePath)
			if err == nil || !strings.Contains(err.Error(), tt.mention) {
				t.Errorf("error = %v, want mention of %q", err, tt.mention)
			}
		})
	}

	if err := os.WriteFile(lockfilePath, []byte("8080|12345|s3cret"), 0644); err != nil {
		t.Fatal(err)
	}

	withProcess(t, "")
	if _, _, err := findAndValidateTrayProcess(lockfilePath); err == nil {
		t.Error("expected error for missing process")
	}

	withProcess(t, "other-app")
	if _, _, err := findAndValidateTrayProcess(lockfilePath); err == nil {
		t.Error("expected error for wrong executable")
	}

	withProcess(t, constants.TrayProcessPrefix)
	port, secret, err := findAndValidateTrayProcess(lockfilePath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if port != "8080" || secret != "s3cret" {
		t.Errorf("got port %s secret %s", port, secret)
	}
}

func TestTrayRequestPermission(t *testing.T) {
	tempDir := withConfigDir(t)
	n := NewTrayNotifier()

	perm, err := n.RequestPermission()
	if err != nil || perm != constants.PermissionDefault {
		t.Errorf("no lockfile: %s, %v; want default", perm, err)
	}

	trayDir := filepath.Join(tempDir, constants.TrayAppIdentifier)
	if err := os.MkdirAll(trayDir, 0755); err != nil {
		t.Fatal(err)
	}
	lockfile := filepath.Join(trayDir, constants.NotifierLockfileName)
	if err := os.WriteFile(lockfile, []byte("8080|12345|s3cret"), 0644); err != nil {
		t.Fatal(err)
	}

	withProcess(t, "something-else")
	if perm, _ := n.RequestPermission(); perm != constants.PermissionDenied {
		t.Errorf("foreign process: %s, want denied", perm)
	}

	withProcess(t, constants.TrayProcessPrefix+"-bin")
	if perm, _ := n.RequestPermission(); perm != constants.PermissionGranted {
		t.Errorf("tray running: %s, want granted", perm)
	}
}

func TestTrayDeliver(t *testing.T) {
	var got WebhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if r.Header.Get("X-Pillminder-Secret") != "test-secret" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("Unauthorized"))
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if got.Text == "fail" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	parts := strings.Split(server.URL, ":")
	port := parts[len(parts)-1]

	tempDir := withConfigDir(t)
	trayDir := filepath.Join(tempDir, constants.TrayAppIdentifier)
	if err := os.MkdirAll(trayDir, 0755); err != nil {
		t.Fatal(err)
	}
	lockfile := filepath.Join(trayDir, constants.NotifierLockfileName)
	if err := os.WriteFile(lockfile, []byte(port+"|4242|test-secret"), 0644); err != nil {
		t.Fatal(err)
	}
	withProcess(t, constants.TrayProcessPrefix)

	n := NewTrayNotifier()
	opts := OptionsFor(constants.IntensityLoud, true)
	opts.Tag = "Aspirin-1"
	if err := n.Deliver("Time for your medication", "Aspirin (5mg) at 08:00", opts); err != nil {
		t.Fatalf("Deliver failed: %v", err)
	}
	if got.Title != "Time for your medication" || !got.Urgent || len(got.Vibrate) != 5 || got.Tag != "Aspirin-1" {
		t.Errorf("payload = %+v", got)
	}
	if got.DurationMs != constants.NotificationDurationMs {
		t.Errorf("DurationMs = %d", got.DurationMs)
	}

	if err := n.Deliver("x", "fail", Options{}); err == nil {
		t.Error("expected error for server failure")
	}

	if err := n.send(port, "wrong-secret", WebhookPayload{Text: "hello"}); err == nil {
		t.Error("expected error for wrong secret")
	}
}
