package engine

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/config"
	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/sim"
	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/store"
	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/subsystems"
)

// Version is the engine version pinned to every run row.
const Version = "0.1.0"

// maxPendingCommands bounds the command queue; submissions beyond it are
// rejected rather than silently dropped.
const maxPendingCommands = 1024

type registration struct {
	slot sim.Slot
	sub  sim.Subsystem
}

type pendingCommand struct {
	cmd   sim.Command
	event sim.PlayerCommandReceived
}

// Engine is the deterministic simulation kernel for one run.
type Engine struct {
	RunID sim.RunID
	Clock *sim.Clock
	Store *store.Store

	seed             uint64
	bank             *sim.Bank
	subsystems       []registration
	slots            map[sim.Slot]bool
	pending          []pendingCommand
	snapshotInterval sim.Tick
	runInitEmitted   bool
}

// Option adjusts engine construction.
type Option func(*Engine)

// WithSnapshotInterval overrides the snapshot cadence.
func WithSnapshotInterval(interval sim.Tick) Option {
	return func(e *Engine) { e.snapshotInterval = interval }
}

// New creates an engine with no subsystems registered. Tests use this
// directly; production code goes through Build.
func New(runID sim.RunID, seed uint64, st *store.Store, opts ...Option) *Engine {
	e := &Engine{
		RunID:            runID,
		Clock:            sim.NewClock(runID),
		Store:            st,
		seed:             seed,
		bank:             sim.NewBank(seed),
		slots:            make(map[sim.Slot]bool),
		snapshotInterval: sim.DefaultSnapshotInterval,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Register adds a subsystem at a slot. Call in the documented execution
// order. Registering the same slot twice is an invariant violation.
func (e *Engine) Register(slot sim.Slot, sub sim.Subsystem) error {
	if e.slots[slot] {
		return sim.InvariantErr(fmt.Sprintf("duplicate subsystem slot %d (%s)", slot, slot.Name()))
	}
	e.slots[slot] = true
	e.subsystems = append(e.subsystems, registration{slot: slot, sub: sub})
	return nil
}

// BuildOptions selects optional subsystems and overrides.
type BuildOptions struct {
	// Incident registers the incident subsystem just before reputation,
	// which stays last in the order.
	Incident bool
	// SnapshotInterval overrides the configured snapshot cadence when
	// non-zero.
	SnapshotInterval sim.Tick
}

// Build constructs a fully wired engine: load configuration from dataDir,
// apply migrations, insert the run row, construct each subsystem in the
// canonical execution order with its own store handle, and leave the clock
// paused at tick 0.
func Build(runID sim.RunID, seed uint64, st *store.Store, dataDir string, opts BuildOptions) (*Engine, error) {
	cfg, err := config.Load(dataDir)
	if err != nil {
		return nil, err
	}
	return BuildWithConfig(runID, seed, st, cfg, opts)
}

// BuildWithConfig is Build with an already-loaded configuration. Tests use
// it with config.DefaultTest().
func BuildWithConfig(runID sim.RunID, seed uint64, st *store.Store, cfg *config.Config, opts BuildOptions) (*Engine, error) {
	if err := st.Migrate(); err != nil {
		return nil, err
	}
	if err := st.InsertRun(runID, seed, Version); err != nil {
		return nil, err
	}

	interval := sim.Tick(cfg.Settings.SnapshotInterval)
	if opts.SnapshotInterval != 0 {
		interval = opts.SnapshotInterval
	}
	e := New(runID, seed, st, WithSnapshotInterval(interval))

	type wiring struct {
		slot  sim.Slot
		build func(*store.Store) sim.Subsystem
	}
	order := []wiring{
		{sim.SlotMacro, func(h *store.Store) sim.Subsystem { return subsystems.NewMacro(runID, h) }},
		{sim.SlotCustomer, func(h *store.Store) sim.Subsystem { return subsystems.NewCustomer(runID, cfg, h) }},
		{sim.SlotOffer, func(h *store.Store) sim.Subsystem { return subsystems.NewOffer(runID, cfg, h) }},
		{sim.SlotChurn, func(h *store.Store) sim.Subsystem { return subsystems.NewChurn(runID, cfg, h) }},
		{sim.SlotTransaction, func(h *store.Store) sim.Subsystem { return subsystems.NewTransaction(runID, cfg, h) }},
		{sim.SlotPaymentHub, func(h *store.Store) sim.Subsystem { return subsystems.NewPaymentHub(runID, h) }},
		{sim.SlotReconciliation, func(h *store.Store) sim.Subsystem { return subsystems.NewReconciliation(runID, h) }},
		{sim.SlotCardDispute, func(h *store.Store) sim.Subsystem { return subsystems.NewCardDispute(runID, h) }},
		{sim.SlotFraudDetection, func(h *store.Store) sim.Subsystem { return subsystems.NewFraudDetection(runID, h) }},
		{sim.SlotAMLScreening, func(h *store.Store) sim.Subsystem { return subsystems.NewAMLScreening(runID, cfg, h) }},
		{sim.SlotTxnMonitoring, func(h *store.Store) sim.Subsystem { return subsystems.NewTransactionMonitoring(runID, h) }},
		{sim.SlotRegulatoryExam, func(h *store.Store) sim.Subsystem { return subsystems.NewRegulatoryExam(runID, cfg, h) }},
		{sim.SlotComplaint, func(h *store.Store) sim.Subsystem { return subsystems.NewComplaint(runID, cfg, h) }},
		{sim.SlotPricing, func(h *store.Store) sim.Subsystem { return subsystems.NewPricing(runID, cfg, h) }},
		{sim.SlotEconomics, func(h *store.Store) sim.Subsystem { return subsystems.NewEconomics(runID, cfg, h) }},
		{sim.SlotComplaintAnalytics, func(h *store.Store) sim.Subsystem { return subsystems.NewComplaintAnalytics(runID, h) }},
		{sim.SlotRiskAppetite, func(h *store.Store) sim.Subsystem { return subsystems.NewRiskAppetite(runID, cfg, h) }},
	}
	if opts.Incident {
		order = append(order, wiring{sim.SlotIncident, func(h *store.Store) sim.Subsystem { return subsystems.NewIncident(runID, h) }})
	}
	// Reputation runs last so it observes the full tick, incidents included.
	order = append(order, wiring{sim.SlotReputation, func(h *store.Store) sim.Subsystem { return subsystems.NewReputation(runID, cfg, h) }})

	for _, w := range order {
		handle, err := st.Reopen()
		if err != nil {
			return nil, err
		}
		if err := e.Register(w.slot, w.build(handle)); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// SubmitCommand buffers a player command for the next tick. The command
// row is persisted immediately; the derived PlayerCommandReceived event is
// injected right after the next TickStarted. Pause, Resume, and SetSpeed
// additionally mutate the clock at drain time.
func (e *Engine) SubmitCommand(cmd sim.Command) error {
	if len(e.pending) >= maxPendingCommands {
		return sim.CommandErr("pending command queue full", nil)
	}
	commandID, err := e.Store.StorePlayerCommand(e.RunID, e.Clock.CurrentTick, cmd)
	if err != nil {
		return err
	}
	e.pending = append(e.pending, pendingCommand{
		cmd: cmd,
		event: sim.PlayerCommandReceived{
			Tick:        e.Clock.CurrentTick,
			CommandID:   strconv.FormatInt(commandID, 10),
			CommandType: cmd.CommandType(),
		},
	})
	return nil
}

// Tick advances the simulation by exactly one tick.
//
// On a subsystem or store error the tick aborts: rows already appended
// stay in the log (it is append-only), no TickCompleted is written, and
// the clock remains advanced — callers must treat such a tick as partial.
func (e *Engine) Tick() ([]sim.Event, error) {
	if e.Clock.Paused {
		return nil, sim.ErrTickWhilePaused
	}

	// The very first tick emits RunInitialized at tick 0, the head of the
	// log, so seed differences are observable before any subsystem runs.
	if e.Clock.CurrentTick == 0 && !e.runInitEmitted {
		e.runInitEmitted = true
		init := sim.RunInitialized{Tick: 0, RunID: e.RunID, Seed: e.seed}
		if err := e.appendEvent("engine", init); err != nil {
			return nil, err
		}
	}

	currentTick := e.Clock.Advance()

	started := sim.TickStarted{Tick: currentTick}
	if err := e.appendEvent("engine", started); err != nil {
		return nil, err
	}
	tickEvents := []sim.Event{started}

	// Drain pending player commands into this tick's event stream.
	drained := e.pending
	e.pending = nil
	for _, pc := range drained {
		switch cmd := pc.cmd.(type) {
		case sim.Pause:
			e.Clock.Pause()
		case sim.Resume:
			e.Clock.Resume()
		case sim.SetSpeed:
			e.Clock.SetSpeed(cmd.Speed)
		}
		// The event executes on this tick, whatever tick it was queued on.
		pc.event.Tick = currentTick
		if err := e.appendEvent("engine", pc.event); err != nil {
			return nil, err
		}
		tickEvents = append(tickEvents, pc.event)
	}

	// Execute each subsystem in registration order. Each one sees every
	// event emitted so far this tick.
	for _, reg := range e.subsystems {
		rng := e.bank.ForSubsystem(reg.slot, currentTick)
		newEvents, err := reg.sub.Update(currentTick, tickEvents, rng)
		if err != nil {
			return nil, sim.SubsystemErr(reg.sub.Name(), err)
		}
		for _, event := range newEvents {
			if err := e.appendEvent(reg.sub.Name(), event); err != nil {
				return nil, err
			}
		}
		tickEvents = append(tickEvents, newEvents...)
	}

	completed := sim.TickCompleted{Tick: currentTick}
	if err := e.appendEvent("engine", completed); err != nil {
		return nil, err
	}
	tickEvents = append(tickEvents, completed)

	if currentTick%e.snapshotInterval == 0 {
		if err := e.takeSnapshot(currentTick); err != nil {
			return nil, err
		}
	}

	return tickEvents, nil
}

// RunTicks resumes the clock, runs n ticks, and pauses again. Used for
// batch mode, the IPC tick request, and fast-forward. A Pause command
// drained mid-batch stops the batch after its tick completes.
func (e *Engine) RunTicks(n uint64) error {
	e.Clock.Resume()
	defer e.Clock.Pause()
	for i := uint64(0); i < n; i++ {
		if _, err := e.Tick(); err != nil {
			return err
		}
		if e.Clock.Paused {
			break
		}
	}
	return nil
}

func (e *Engine) appendEvent(subsystem string, event sim.Event) error {
	payload, err := sim.MarshalEvent(event)
	if err != nil {
		return err
	}
	return e.Store.AppendEvent(&store.EventLogEntry{
		RunID:     e.RunID,
		Tick:      event.EventTick(),
		Subsystem: subsystem,
		EventType: event.EventType(),
		Payload:   payload,
	})
}

func (e *Engine) takeSnapshot(tick sim.Tick) error {
	image, err := sim.MarshalSnapshot(sim.Snapshot{
		RunID: e.RunID,
		Tick:  tick,
		Clock: *e.Clock,
	})
	if err != nil {
		return err
	}
	if err := e.Store.SaveSnapshot(e.RunID, tick, image); err != nil {
		return err
	}
	slog.Debug("snapshot saved", "tick", tick)
	return nil
}
