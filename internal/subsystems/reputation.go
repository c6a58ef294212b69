package subsystems

import (
	"fmt"
	"log/slog"

	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/config"
	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/sim"
	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/store"
)

// Reputation maintains a composite daily reputation score in [0, 100]:
// it decays on negative signals (SLA breaches, SAR late filings, exam
// fines, MOUs) and recovers passively while the score sits below 80.
//
// It runs last in registration order so it observes the full tick,
// including exam closings and incident breaches.
type Reputation struct {
	runID       sim.RunID
	cfg         *config.Config
	store       *store.Store
	initialized bool
}

func NewReputation(runID sim.RunID, cfg *config.Config, st *store.Store) *Reputation {
	return &Reputation{runID: runID, cfg: cfg, store: st}
}

func (r *Reputation) Name() string { return sim.SlotReputation.Name() }

func (r *Reputation) Update(tick sim.Tick, eventsIn []sim.Event, _ *sim.Rand) ([]sim.Event, error) {
	rep := &r.cfg.Reputation
	if !rep.Enabled {
		return nil, nil
	}

	// First update: seed the initial score snapshot.
	if !r.initialized {
		r.initialized = true
		if err := r.store.InsertReputationSnapshot(r.runID, tick, rep.InitialScore, 0); err != nil {
			return nil, err
		}
		return nil, nil
	}

	prev, found, err := r.store.LatestReputationScore(r.runID)
	if err != nil {
		return nil, err
	}
	if !found {
		prev = rep.InitialScore
	}

	totalDelta, drivers := r.computeDelta(tick, eventsIn, prev)

	newScore := prev + totalDelta
	if newScore < 0 {
		newScore = 0
	}
	if newScore > 100 {
		newScore = 100
	}
	actualDelta := newScore - prev

	if err := r.store.InsertReputationSnapshot(r.runID, tick, newScore, actualDelta); err != nil {
		return nil, err
	}
	for _, driver := range drivers {
		if err := r.store.InsertReputationEvent(r.runID, tick, driver.name, driver.delta, driver.description); err != nil {
			return nil, err
		}
	}

	// Primary driver is the largest single negative contribution.
	primary := "recovery"
	worst := 0.0
	for _, driver := range drivers {
		if driver.delta < worst {
			worst = driver.delta
			primary = driver.name
		}
	}

	if actualDelta < -2.0 {
		slog.Warn("reputation drop", "tick", tick, "from", prev, "to", newScore, "delta", actualDelta)
	} else {
		slog.Debug("reputation updated", "tick", tick, "score", newScore, "delta", actualDelta)
	}

	return []sim.Event{sim.ReputationUpdated{
		Tick:          tick,
		Score:         newScore,
		Delta:         actualDelta,
		PrimaryDriver: primary,
	}}, nil
}

type reputationDriver struct {
	name        string
	delta       float64
	description string
}

// computeDelta scans this tick's events and totals the reputation impact.
func (r *Reputation) computeDelta(tick sim.Tick, eventsIn []sim.Event, current float64) (float64, []reputationDriver) {
	rep := &r.cfg.Reputation
	var total float64
	var drivers []reputationDriver

	add := func(name string, delta float64, description string) {
		total += delta
		drivers = append(drivers, reputationDriver{name: name, delta: delta, description: description})
	}

	for _, event := range eventsIn {
		switch e := event.(type) {
		case sim.SLABreached:
			add("sla_breach", -rep.SLABreachImpact,
				fmt.Sprintf("Complaint SLA breach: %s", e.ComplaintID))
		case sim.IncidentSLABreach:
			add("sla_breach", -rep.SLABreachImpact,
				fmt.Sprintf("Incident SLA breach: %s", e.IncidentID))
		case sim.SARLateFiling:
			add("sar_late", -rep.SARLateImpact,
				fmt.Sprintf("SAR late filing: %s", e.SARID))
		case sim.MOUReceived:
			add("mou", -rep.MOUImpact,
				fmt.Sprintf("MOU issued by %s (exam %s)", e.Examiner, e.ExamID))
		case sim.RegulatoryExamClosed:
			// MOU exams already hit via MOUReceived; fine-only exams
			// land here scaled by the fine total.
			if !e.MOUIssued && e.FineTotal > 0 {
				add("exam_fine", -(e.FineTotal/1000.0)*rep.FineImpactPer1K,
					fmt.Sprintf("Regulatory fine: $%.0f", e.FineTotal))
			}
		}
	}

	// Passive recovery only while the score is depressed.
	if current < 80.0 {
		add("recovery", rep.RecoveryPerTick, fmt.Sprintf("tick=%d passive recovery", tick))
	}

	return total, drivers
}
