// Package harness provides the scenario builder and event-log assertions
// the kernel tests are written against. Scenarios run against a temp-file
// store so Reopen hands every subsystem a live handle on the same
// database, exactly like production.
package harness

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/config"
	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/engine"
	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/sim"
	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/store"
)

// Scenario describes one end-to-end kernel run.
type Scenario struct {
	Name             string
	Seed             uint64
	Ticks            uint64
	SnapshotInterval sim.Tick // 0 = default
	Incident         bool
	// Population overrides the test config's initial population when
	// non-zero; small populations keep scenarios fast.
	Population int
}

// Result is the outcome of a scenario run.
type Result struct {
	Engine *engine.Engine
	Store  *store.Store
	RunID  sim.RunID
}

// OpenTestStore opens a store on a fresh temp file and fails the test on
// error. The file lives in t.TempDir so it is cleaned up automatically.
func OpenTestStore(t *testing.T) *store.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sim.db")
	st, err := store.Open(path)
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

// BuildTestEngine wires a fully registered engine against the default test
// config on a temp-file store.
func BuildTestEngine(t *testing.T, s *Scenario) *Result {
	t.Helper()

	st := OpenTestStore(t)
	cfg := config.DefaultTest()
	if s.Population > 0 {
		cfg.Settings.InitialPopulation = s.Population
	}

	runID := sim.RunID(fmt.Sprintf("test-%s-%d", s.Name, s.Seed))
	eng, err := engine.BuildWithConfig(runID, s.Seed, st, cfg, engine.BuildOptions{
		Incident:         s.Incident,
		SnapshotInterval: s.SnapshotInterval,
	})
	if err != nil {
		t.Fatalf("build test engine: %v", err)
	}
	return &Result{Engine: eng, Store: st, RunID: runID}
}

// Run builds the engine and advances the scenario's tick count.
func Run(t *testing.T, s *Scenario) *Result {
	t.Helper()
	result := BuildTestEngine(t, s)
	if err := result.Engine.RunTicks(s.Ticks); err != nil {
		t.Fatalf("run %d ticks: %v", s.Ticks, err)
	}
	return result
}
