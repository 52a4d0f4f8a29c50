package keyring

import (
	"errors"
	"testing"

	gokeyring "github.com/zalando/go-keyring"
)

func TestSetAndGetConnectionString(t *testing.T) {
	gokeyring.MockInit()

	testConnStr := "postgres://testuser@localhost:5432/testdb?sslmode=disable"

	if err := SetConnectionString(testConnStr); err != nil {
		t.Fatalf("SetConnectionString() failed: %v", err)
	}

	retrieved, err := GetConnectionString()
	if err != nil {
		t.Fatalf("GetConnectionString() failed: %v", err)
	}
	if retrieved != testConnStr {
		t.Errorf("GetConnectionString() = %q, want %q", retrieved, testConnStr)
	}
}

func TestSetEmpty(t *testing.T) {
	gokeyring.MockInit()

	if err := SetConnectionString(""); err == nil {
		t.Error("SetConnectionString(\"\") should return an error")
	}
	if err := SetPushoverToken(""); err == nil {
		t.Error("SetPushoverToken(\"\") should return an error")
	}
	if err := Set("anything", ""); err == nil {
		t.Error("Set with empty secret should return an error")
	}
}

func TestGetNotFound(t *testing.T) {
	gokeyring.MockInit()

	_ = DeleteConnectionString()
	if _, err := GetConnectionString(); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetConnectionString() error = %v, want %v", err, ErrNotFound)
	}
	if _, err := GetPushoverToken(); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetPushoverToken() error = %v, want %v", err, ErrNotFound)
	}
}

func TestSecretsAreIndependent(t *testing.T) {
	gokeyring.MockInit()

	if err := SetConnectionString("postgres://me@db/meds"); err != nil {
		t.Fatal(err)
	}
	if err := SetPushoverToken("azGDORePK8gMaC0QOYAMyEEuzJnyUi"); err != nil {
		t.Fatal(err)
	}

	if err := DeletePushoverToken(); err != nil {
		t.Fatalf("DeletePushoverToken() failed: %v", err)
	}
	if _, err := GetConnectionString(); err != nil {
		t.Errorf("deleting the token removed the connection string: %v", err)
	}
	if err := DeletePushoverToken(); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete error = %v, want ErrNotFound", err)
	}
}

func TestUnavailableKeyring(t *testing.T) {
	gokeyring.MockInitWithError(errors.New("dbus not running"))
	t.Cleanup(gokeyring.MockInit)

	if IsAvailable() {
		t.Error("IsAvailable() = true with a failing keyring")
	}
	if _, err := GetConnectionString(); !errors.Is(err, ErrKeyringUnavailable) {
		t.Errorf("error = %v, want ErrKeyringUnavailable", err)
	}
}

func TestIsAvailable(t *testing.T) {
	gokeyring.MockInit()
	if !IsAvailable() {
		t.Error("IsAvailable() = false with mock keyring")
	}
}
