package engine_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/engine"
	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/harness"
	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/sim"
	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/store"
)

// newBareEngine builds an engine with no subsystems on a migrated store.
func newBareEngine(t *testing.T, runID sim.RunID, seed uint64, opts ...engine.Option) (*engine.Engine, *store.Store) {
	t.Helper()
	st := harness.OpenTestStore(t)
	require.NoError(t, st.Migrate())
	require.NoError(t, st.InsertRun(runID, seed, engine.Version))
	return engine.New(runID, seed, st, opts...), st
}

// emitter is a minimal subsystem that emits one deterministic event per
// tick, derived from its RNG stream.
type emitter struct {
	name string
}

func (e *emitter) Name() string { return e.name }

func (e *emitter) Update(tick sim.Tick, _ []sim.Event, rng *sim.Rand) ([]sim.Event, error) {
	return []sim.Event{sim.FraudPatternDetected{
		Tick:       tick,
		CustomerID: fmt.Sprintf("%s-%d", e.name, tick),
		Pattern:    "probe",
		Score:      float64(rng.Uint64() % 100000),
	}}, nil
}

// failing always errors.
type failing struct{}

func (f *failing) Name() string { return "failing" }

func (f *failing) Update(sim.Tick, []sim.Event, *sim.Rand) ([]sim.Event, error) {
	return nil, errors.New("synthetic failure")
}

func TestTick_WhilePausedReturnsInvariant(t *testing.T) {
	eng, _ := newBareEngine(t, "run-paused", 42)

	_, err := eng.Tick()
	require.Error(t, err)
	assert.True(t, errors.Is(err, sim.ErrTickWhilePaused))
	assert.True(t, sim.IsKind(err, sim.KindInvariant))
	assert.Equal(t, sim.Tick(0), eng.Clock.CurrentTick)
}

func TestTick_EmptyAdvance(t *testing.T) {
	eng, st := newBareEngine(t, "run-empty", 42)

	eng.Clock.Resume()
	events, err := eng.Tick()
	require.NoError(t, err)

	// Returned stream: TickStarted then TickCompleted.
	require.Len(t, events, 2)
	assert.Equal(t, sim.TickStarted{Tick: 1}, events[0])
	assert.Equal(t, sim.TickCompleted{Tick: 1}, events[1])

	// Tick 1 holds exactly those two rows.
	types := harness.EventTypesForTick(t, st, "run-empty", 1)
	assert.Equal(t, []string{"tick_started", "tick_completed"}, types)

	// RunInitialized heads the log at tick 0 with the seed.
	tick0 := harness.EventTypesForTick(t, st, "run-empty", 0)
	assert.Equal(t, []string{"run_initialized"}, tick0)
	entries, err := st.EventsForTick("run-empty", 0)
	require.NoError(t, err)
	decoded, err := sim.UnmarshalEvent([]byte(entries[0].Payload))
	require.NoError(t, err)
	assert.Equal(t, sim.RunInitialized{Tick: 0, RunID: "run-empty", Seed: 42}, decoded)
}

func TestTick_RunInitializedEmittedOnce(t *testing.T) {
	eng, st := newBareEngine(t, "run-once", 7)

	require.NoError(t, eng.RunTicks(3))

	entries, err := st.AllEvents("run-once")
	require.NoError(t, err)
	initCount := 0
	for _, entry := range entries {
		if entry.EventType == "run_initialized" {
			initCount++
		}
	}
	assert.Equal(t, 1, initCount)
	assert.Equal(t, "run_initialized", entries[0].EventType, "run_initialized must head the log")
}

func TestTick_AnchorsEveryTick(t *testing.T) {
	result := harness.Run(t, &harness.Scenario{Name: "anchors", Seed: 42, Ticks: 10, Population: 5})

	for tick := sim.Tick(1); tick <= 10; tick++ {
		harness.RequireTickAnchors(t, result.Store, result.RunID, tick)
	}
	harness.RequireStrictlyIncreasingIDs(t, result.Store, result.RunID)
}

func TestTick_SubsystemErrorAbortsTick(t *testing.T) {
	eng, st := newBareEngine(t, "run-fail", 42)
	require.NoError(t, eng.Register(sim.SlotMacro, &emitter{name: "ok"}))
	require.NoError(t, eng.Register(sim.SlotCustomer, &failing{}))

	eng.Clock.Resume()
	_, err := eng.Tick()
	require.Error(t, err)
	assert.True(t, sim.IsKind(err, sim.KindSubsystem))
	assert.Contains(t, err.Error(), "failing")

	// The clock stays advanced; the partial tick has no tick_completed,
	// but events appended before the failure remain.
	assert.Equal(t, sim.Tick(1), eng.Clock.CurrentTick)
	types := harness.EventTypesForTick(t, st, "run-fail", 1)
	assert.Contains(t, types, "tick_started")
	assert.Contains(t, types, "fraud_pattern_detected")
	assert.NotContains(t, types, "tick_completed")
}

func TestRegister_DuplicateSlot(t *testing.T) {
	eng, _ := newBareEngine(t, "run-dup", 42)
	require.NoError(t, eng.Register(sim.SlotMacro, &emitter{name: "a"}))

	err := eng.Register(sim.SlotMacro, &emitter{name: "b"})
	require.Error(t, err)
	assert.True(t, sim.IsKind(err, sim.KindInvariant))
}

func TestSubmitCommand_DrainedAtNextTickTop(t *testing.T) {
	eng, st := newBareEngine(t, "run-cmd", 42)

	require.NoError(t, eng.SubmitCommand(sim.SetSpeed{Speed: sim.SpeedFastForward}))

	// Nothing executes until the next tick.
	count, err := st.EventCount("run-cmd")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
	assert.Equal(t, sim.SpeedNormal, eng.Clock.Speed)

	eng.Clock.Resume()
	events, err := eng.Tick()
	require.NoError(t, err)

	require.Len(t, events, 3)
	assert.Equal(t, sim.TickStarted{Tick: 1}, events[0])
	received, ok := events[1].(sim.PlayerCommandReceived)
	require.True(t, ok, "command event must follow TickStarted")
	assert.Equal(t, "set_speed", received.CommandType)
	assert.Equal(t, sim.TickCompleted{Tick: 1}, events[2])

	// SetSpeed mutated the clock at drain time.
	assert.Equal(t, sim.SpeedFastForward, eng.Clock.Speed)
}

func TestSubmitCommand_PauseAppliesAtDrain(t *testing.T) {
	eng, _ := newBareEngine(t, "run-pause-cmd", 42)

	require.NoError(t, eng.SubmitCommand(sim.Pause{}))
	eng.Clock.Resume()
	_, err := eng.Tick()
	require.NoError(t, err)
	assert.True(t, eng.Clock.Paused)
}

func TestReplayEquality(t *testing.T) {
	scenario := func() *harness.Scenario {
		return &harness.Scenario{Name: "replay", Seed: 12345, Ticks: 30, Population: 20}
	}
	runA := harness.Run(t, scenario())
	runB := harness.Run(t, scenario())

	harness.RequireIdenticalPayloads(t, runA.Store, runA.RunID, runB.Store, runB.RunID)
}

func TestSlotIndependence(t *testing.T) {
	collect := func(withZ bool) []string {
		runID := sim.RunID("run-slots")
		st := harness.OpenTestStore(t)
		require.NoError(t, st.Migrate())
		require.NoError(t, st.InsertRun(runID, 777, engine.Version))
		eng := engine.New(runID, 777, st)
		require.NoError(t, eng.Register(sim.SlotCustomer, &emitter{name: "X"}))
		require.NoError(t, eng.Register(sim.SlotAccount, &emitter{name: "Y"}))
		if withZ {
			require.NoError(t, eng.Register(sim.Slot(20), &emitter{name: "Z"}))
		}
		require.NoError(t, eng.RunTicks(10))

		entries, err := st.AllEvents(runID)
		require.NoError(t, err)
		var payloads []string
		for _, entry := range entries {
			if entry.Subsystem == "X" || entry.Subsystem == "Y" {
				payloads = append(payloads, entry.Payload)
			}
		}
		return payloads
	}

	withoutZ := collect(false)
	withZ := collect(true)
	assert.Equal(t, withoutZ, withZ, "registering Z must not perturb X and Y streams")
}

func TestSnapshotCadence(t *testing.T) {
	result := harness.Run(t, &harness.Scenario{
		Name: "snapshots", Seed: 42, Ticks: 25, SnapshotInterval: 10, Population: 5,
	})

	ticks, err := result.Store.SnapshotTicks(result.RunID)
	require.NoError(t, err)
	assert.Equal(t, []sim.Tick{10, 20}, ticks)

	image, found, err := result.Store.LoadSnapshot(result.RunID, 10)
	require.NoError(t, err)
	require.True(t, found)
	snapshot, err := sim.UnmarshalSnapshot(image)
	require.NoError(t, err)
	assert.Equal(t, sim.Tick(10), snapshot.Tick)
	assert.Equal(t, sim.Tick(10), snapshot.Clock.CurrentTick)
}

func TestCommandInjection_ProductFeeChange(t *testing.T) {
	result := harness.BuildTestEngine(t, &harness.Scenario{Name: "feecmd", Seed: 42, Population: 5})
	eng := result.Engine

	require.NoError(t, eng.RunTicks(5))
	require.NoError(t, eng.SubmitCommand(sim.SetProductFee{
		ProductID: "basic_checking", FeeType: "monthly_fee", NewValue: 12.0,
	}))
	require.NoError(t, eng.RunTicks(1))

	entries, err := result.Store.EventsForTick(result.RunID, 6)
	require.NoError(t, err)

	var startedID, completedID, changedID int64 = -1, -1, -1
	for _, entry := range entries {
		switch entry.EventType {
		case "tick_started":
			startedID = entry.ID
		case "tick_completed":
			completedID = entry.ID
		case "product_fee_changed":
			changedID = entry.ID
			decoded, err := sim.UnmarshalEvent([]byte(entry.Payload))
			require.NoError(t, err)
			changed := decoded.(sim.ProductFeeChanged)
			assert.Equal(t, "basic_checking", changed.ProductID)
			assert.Equal(t, "monthly_fee", changed.FeeType)
			assert.Equal(t, 0.0, changed.OldValue)
			assert.Equal(t, 12.0, changed.NewValue)
		}
	}
	require.NotEqual(t, int64(-1), changedID, "tick 6 must contain product_fee_changed")
	assert.Greater(t, changedID, startedID)
	assert.Less(t, changedID, completedID)

	// The product table and the audit log reflect the change.
	state, err := result.Store.GetProductState(result.RunID, "basic_checking")
	require.NoError(t, err)
	assert.Equal(t, 12.0, state.MonthlyFee)

	history, err := result.Store.FeeChangeHistory(result.RunID, "basic_checking", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, sim.Tick(6), history[0].Tick)
	assert.True(t, history[0].Accepted)
}

func TestBuildUIState_DoesNotAdvanceClock(t *testing.T) {
	result := harness.BuildTestEngine(t, &harness.Scenario{Name: "uistate", Seed: 42, Population: 5})
	eng := result.Engine

	first, err := eng.BuildUIState()
	require.NoError(t, err)
	second, err := eng.BuildUIState()
	require.NoError(t, err)

	assert.Equal(t, sim.Tick(0), first.Tick)
	assert.Equal(t, first.Tick, second.Tick)
	assert.True(t, first.Paused)
	assert.NotNil(t, first.PnLHistory)
	assert.NotNil(t, first.Complaints)
}

func TestFullBuild_RunsAYear(t *testing.T) {
	if testing.Short() {
		t.Skip("year-long scenario")
	}
	result := harness.Run(t, &harness.Scenario{Name: "year", Seed: 42, Ticks: 365, Population: 30, Incident: true})

	// Anchors hold across the whole run.
	for _, tick := range []sim.Tick{1, 90, 180, 365} {
		harness.RequireTickAnchors(t, result.Store, result.RunID, tick)
	}

	// A year produces four quarterly P&L snapshots.
	count, err := result.Store.PnLCount(result.RunID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)

	// Monthly snapshots at the default cadence.
	ticks, err := result.Store.SnapshotTicks(result.RunID)
	require.NoError(t, err)
	assert.Len(t, ticks, 12)

	// The population transacted.
	txns, err := result.Store.TxnCountTotal(result.RunID)
	require.NoError(t, err)
	assert.Greater(t, txns, int64(0))
}
