package subsystems

import (
	"log/slog"

	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/sim"
	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/store"
)

// MacroUpdateInterval is the macro cadence: quarterly.
const MacroUpdateInterval sim.Tick = 90

// MacroState is the macro environment every other subsystem prices against.
type MacroState struct {
	BaseRate        float64
	EconomicPhase   sim.EconomicPhase
	FraudMultiplier float64
	phaseTicksLeft  sim.Tick
}

func defaultMacroState() MacroState {
	return MacroState{
		BaseRate:        0.05,
		EconomicPhase:   sim.PhaseExpansion,
		FraudMultiplier: 1.0,
		phaseTicksLeft:  360, // 4 quarters to start
	}
}

func (m *MacroState) advancePhase(rng *sim.Rand) {
	switch m.EconomicPhase {
	case sim.PhaseExpansion:
		m.EconomicPhase = sim.PhasePeak
	case sim.PhasePeak:
		m.EconomicPhase = sim.PhaseContraction
	case sim.PhaseContraction:
		m.EconomicPhase = sim.PhaseTrough
	default:
		m.EconomicPhase = sim.PhaseExpansion
	}
	// Next phase lasts 4-8 quarters.
	quarters := 4 + rng.Uint64Below(5)
	m.phaseTicksLeft = quarters * 90
	m.FraudMultiplier = m.EconomicPhase.FraudMultiplier()
}

func (m *MacroState) adjustRate(rng *sim.Rand) {
	// Rate moves ±0.25% per quarter with slight phase bias.
	var direction float64
	switch m.EconomicPhase {
	case sim.PhaseExpansion:
		direction = 0.5
	case sim.PhasePeak:
		direction = 0.0
	default:
		direction = -0.5
	}
	roll := rng.Float64() - 0.5 + direction*0.2
	delta := -0.0025
	if roll > 0 {
		delta = 0.0025
	}
	m.BaseRate += delta
	if m.BaseRate < 0.005 {
		m.BaseRate = 0.005
	}
	if m.BaseRate > 0.12 {
		m.BaseRate = 0.12
	}
}

// Macro drives the economic cycle: base rate, phase, fraud pressure.
type Macro struct {
	runID sim.RunID
	store *store.Store
	State MacroState
}

func NewMacro(runID sim.RunID, st *store.Store) *Macro {
	return &Macro{runID: runID, store: st, State: defaultMacroState()}
}

func (m *Macro) Name() string { return sim.SlotMacro.Name() }

func (m *Macro) Update(tick sim.Tick, _ []sim.Event, rng *sim.Rand) ([]sim.Event, error) {
	// Only compute on quarterly boundaries.
	if tick%MacroUpdateInterval != 0 {
		return nil, nil
	}

	if m.State.phaseTicksLeft > MacroUpdateInterval {
		m.State.phaseTicksLeft -= MacroUpdateInterval
	} else {
		m.State.phaseTicksLeft = 0
	}

	if m.State.phaseTicksLeft == 0 {
		m.State.advancePhase(rng)
	} else {
		m.State.adjustRate(rng)
	}

	if err := m.store.InsertMacroState(m.runID, tick, m.State.BaseRate, string(m.State.EconomicPhase), m.State.FraudMultiplier); err != nil {
		return nil, err
	}

	slog.Debug("macro state updated",
		"tick", tick,
		"phase", m.State.EconomicPhase,
		"rate", m.State.BaseRate,
		"fraud_mult", m.State.FraudMultiplier,
	)

	return []sim.Event{sim.MacroStateUpdated{
		Tick:            tick,
		BaseRate:        m.State.BaseRate,
		EconomicPhase:   m.State.EconomicPhase,
		FraudMultiplier: m.State.FraudMultiplier,
	}}, nil
}
