package harness

import (
	"testing"

	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/sim"
	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/store"
)

// RequireTickAnchors asserts the log holds exactly one TickStarted and one
// TickCompleted for the tick, with TickStarted first.
func RequireTickAnchors(t *testing.T, st *store.Store, runID sim.RunID, tick sim.Tick) {
	t.Helper()

	entries, err := st.EventsForTick(runID, tick)
	if err != nil {
		t.Fatalf("events for tick %d: %v", tick, err)
	}

	var startedID, completedID int64 = -1, -1
	started, completed := 0, 0
	for _, entry := range entries {
		switch entry.EventType {
		case "tick_started":
			started++
			startedID = entry.ID
		case "tick_completed":
			completed++
			completedID = entry.ID
		}
	}
	if started != 1 || completed != 1 {
		t.Fatalf("tick %d: want exactly one tick_started and one tick_completed, got %d and %d", tick, started, completed)
	}
	if startedID >= completedID {
		t.Fatalf("tick %d: tick_started id %d not before tick_completed id %d", tick, startedID, completedID)
	}
}

// RequireStrictlyIncreasingIDs asserts event-log ids rise with no gaps for
// a run that completed every tick.
func RequireStrictlyIncreasingIDs(t *testing.T, st *store.Store, runID sim.RunID) {
	t.Helper()

	entries, err := st.AllEvents(runID)
	if err != nil {
		t.Fatalf("all events: %v", err)
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].ID != entries[i-1].ID+1 {
			t.Fatalf("event log ids not contiguous: %d then %d", entries[i-1].ID, entries[i].ID)
		}
	}
}

// RequireIdenticalPayloads asserts two runs produced byte-identical
// event-log payload sequences.
func RequireIdenticalPayloads(t *testing.T, a *store.Store, runA sim.RunID, b *store.Store, runB sim.RunID) {
	t.Helper()

	payloadsA, err := a.EventPayloads(runA)
	if err != nil {
		t.Fatalf("payloads run A: %v", err)
	}
	payloadsB, err := b.EventPayloads(runB)
	if err != nil {
		t.Fatalf("payloads run B: %v", err)
	}
	if len(payloadsA) != len(payloadsB) {
		t.Fatalf("payload count mismatch: %d vs %d", len(payloadsA), len(payloadsB))
	}
	for i := range payloadsA {
		if payloadsA[i] != payloadsB[i] {
			t.Fatalf("payload mismatch at row %d:\n  A: %s\n  B: %s", i, payloadsA[i], payloadsB[i])
		}
	}
}

// EventTypesForTick returns the event_type column for a tick, in id order.
func EventTypesForTick(t *testing.T, st *store.Store, runID sim.RunID, tick sim.Tick) []string {
	t.Helper()

	entries, err := st.EventsForTick(runID, tick)
	if err != nil {
		t.Fatalf("events for tick %d: %v", tick, err)
	}
	types := make([]string, len(entries))
	for i, entry := range entries {
		types[i] = entry.EventType
	}
	return types
}
