// Package clitest builds command contexts over in-memory storage for tests.
package clitest

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/pillminder/internal/cli"
	"github.com/julianstephens/pillminder/internal/config"
	"github.com/julianstephens/pillminder/internal/models"
	"github.com/julianstephens/pillminder/internal/schedule"
	"github.com/julianstephens/pillminder/internal/storage"
)

// Now is the fixed time every test context starts at.
var Now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local)

// Env is a context plus its captured output and adjustable clock.
type Env struct {
	Ctx *cli.Context
	Out *bytes.Buffer
	Now time.Time
}

// New returns an Env backed by backend, or by a fresh memory store when nil.
// Ids are sequential: id0001-..., id0002-..., and so on.
func New(t *testing.T, backend storage.Backend) *Env {
	t.Helper()
	if backend == nil {
		backend = storage.NewMemoryStore()
	}

	n := 0
	ids := schedule.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("id%04d-0000-0000", n)
	})

	env := &Env{Out: &bytes.Buffer{}, Now: Now}
	env.Ctx = cli.NewContext(backend, config.Default(), ids)
	env.Ctx.Out = env.Out
	env.Ctx.In = strings.NewReader("")
	env.Ctx.Now = func() time.Time { return env.Now }
	return env
}

// AddPill stores a pill or fails the test.
func (e *Env) AddPill(t *testing.T, name string, times ...string) models.Pill {
	t.Helper()
	p, err := e.Ctx.Engine.AddPill(models.Pill{Name: name, Dosage: "10mg", Times: times})
	if err != nil {
		t.Fatalf("AddPill(%s) failed: %v", name, err)
	}
	return p
}

// Activate generates today's logs or fails the test.
func (e *Env) Activate(t *testing.T) {
	t.Helper()
	if err := e.Ctx.Activate(); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
}

// Output returns and clears everything written so far.
func (e *Env) Output() string {
	s := e.Out.String()
	e.Out.Reset()
	return s
}
