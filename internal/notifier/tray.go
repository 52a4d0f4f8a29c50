package notifier

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/julianstephens/pillminder/internal/constants"
)

var (
	userConfigDirFunc = os.UserConfigDir
	findProcessFunc   = ps.FindProcess
)

var errTrayNotRunning = errors.New(constants.TrayProcessPrefix + " is not running")

// TrayNotifier posts reminders to the desktop tray app over its local webhook.
type TrayNotifier struct {
	client *http.Client
}

type WebhookPayload struct {
	Title      string `json:"title"`
	Text       string `json:"text"`
	DurationMs uint32 `json:"duration_ms"`
	Silent     bool   `json:"silent"`
	Urgent     bool   `json:"urgent"`
	Vibrate    []int  `json:"vibrate,omitempty"`
	Tag        string `json:"tag,omitempty"`
}

func NewTrayNotifier() *TrayNotifier {
	return &TrayNotifier{
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

// RequestPermission reports granted while a valid tray process owns the
// lockfile, default when no tray has started, and denied when the lockfile
// points at something that is not the tray.
func (n *TrayNotifier) RequestPermission() (constants.Permission, error) {
	lockfile, err := trayLockfilePath()
	if err != nil {
		return constants.PermissionDefault, err
	}

	if _, err := os.Stat(lockfile); os.IsNotExist(err) {
		return constants.PermissionDefault, nil
	}

	if _, _, err := findAndValidateTrayProcess(lockfile); err != nil {
		return constants.PermissionDenied, nil
	}
	return constants.PermissionGranted, nil
}

func (n *TrayNotifier) Deliver(title, body string, opts Options) error {
	lockfile, err := trayLockfilePath()
	if err != nil {
		return err
	}

	port, secret, err := findAndValidateTrayProcess(lockfile)
	if err != nil {
		return err
	}

	payload := WebhookPayload{
		Title:      title,
		Text:       body,
		DurationMs: constants.NotificationDurationMs,
		Silent:     opts.Silent,
		Urgent:     opts.Urgent,
		Vibrate:    opts.Vibrate,
		Tag:        opts.Tag,
	}
	return n.send(port, secret, payload)
}

func trayLockfilePath() (string, error) {
	dir, err := GetTrayAppConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, constants.NotifierLockfileName), nil
}

// GetTrayAppConfigDir returns the configuration directory used by the tray application.
func GetTrayAppConfigDir() (string, error) {
	configDir, err := userConfigDirFunc()
	if err != nil {
		return "", fmt.Errorf("failed to get user config dir: %w", err)
	}

	trayConfigDir := filepath.Join(configDir, constants.TrayAppIdentifier)

	// A settings.json may move the lockfile elsewhere
	settingsPath := filepath.Join(trayConfigDir, "settings.json")
	if data, err := os.ReadFile(settingsPath); err == nil {
		var store struct {
			Settings struct {
				LockfileDir *string `json:"lockfile_dir"`
			} `json:"settings"`
		}
		if err := json.Unmarshal(data, &store); err == nil {
			if store.Settings.LockfileDir != nil && *store.Settings.LockfileDir != "" {
				return *store.Settings.LockfileDir, nil
			}
		}
	}

	return trayConfigDir, nil
}

// findAndValidateTrayProcess parses a "port|pid|secret" lockfile and checks
// that the pid belongs to the tray executable.
func findAndValidateTrayProcess(lockfilePath string) (string, string, error) {
	content, err := os.ReadFile(lockfilePath)
	if err != nil {
		return "", "", errTrayNotRunning
	}

	parts := strings.Split(strings.TrimSpace(string(content)), "|")
	if len(parts) != 3 {
		return "", "", errors.New("lockfile is malformed")
	}

	port := parts[0]
	if strings.TrimSpace(port) == "" {
		return "", "", errors.New("port in lockfile is empty")
	}
	portNum, err := strconv.Atoi(port)
	if err != nil {
		return "", "", errors.New("invalid port number in lockfile")
	}
	if portNum < 1 || portNum > 65535 {
		return "", "", fmt.Errorf("port number %d is outside valid range (1-65535)", portNum)
	}

	pid, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", "", errors.New("invalid process ID in lockfile")
	}
	secret := parts[2]
	if strings.TrimSpace(secret) == "" {
		return "", "", errors.New("secret in lockfile is empty")
	}

	process, err := findProcessFunc(pid)
	if err != nil || process == nil {
		return "", "", errTrayNotRunning
	}

	if !strings.HasPrefix(process.Executable(), constants.TrayProcessPrefix) {
		return "", "", fmt.Errorf("process with PID %d is not %s (is %s)", pid, constants.TrayProcessPrefix, process.Executable())
	}

	return port, secret, nil
}

func (n *TrayNotifier) send(port string, secret string, payload WebhookPayload) error {
	url := fmt.Sprintf("http://127.0.0.1:%s", port)

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequest("POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Pillminder-Secret", secret)

	res, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return nil
	}

	body, _ := io.ReadAll(res.Body)
	return fmt.Errorf("notification failed with status %d: %s", res.StatusCode, string(body))
}
