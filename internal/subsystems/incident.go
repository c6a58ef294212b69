package subsystems

import (
	"fmt"

	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/sim"
	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/store"
)

const (
	incidentProbabilityPerTick = 0.01
	incidentResolveProbability = 0.40
	incidentSLATicks           = 3
)

var incidentComponents = []string{"core_banking", "card_switch", "payment_gateway", "online_banking"}

// Incident models operational outages against platform components. It runs
// just before reputation, and only in builds that opt in.
type Incident struct {
	runID sim.RunID
	store *store.Store
}

func NewIncident(runID sim.RunID, st *store.Store) *Incident {
	return &Incident{runID: runID, store: st}
}

func (i *Incident) Name() string { return sim.SlotIncident.Name() }

func (i *Incident) Update(tick sim.Tick, _ []sim.Event, rng *sim.Rand) ([]sim.Event, error) {
	var out []sim.Event

	// New incidents.
	if rng.Chance(incidentProbabilityPerTick) {
		component := incidentComponents[rng.Uint64Below(uint64(len(incidentComponents)))]
		severity := "minor"
		if rng.Chance(0.2) {
			severity = "major"
		}
		incidentID := fmt.Sprintf("inc-%08d-%016x", tick, rng.Uint64())
		record := &store.Incident{
			IncidentID:  incidentID,
			Component:   component,
			Severity:    severity,
			CreatedTick: tick,
			SLADueTick:  tick + incidentSLATicks,
			Status:      "open",
		}
		if err := i.store.InsertIncident(i.runID, record); err != nil {
			return nil, err
		}
		out = append(out, sim.IncidentCreated{
			Tick:       tick,
			IncidentID: incidentID,
			Component:  component,
			Severity:   severity,
		})
		out = append(out, sim.ComponentStatusChanged{
			Tick:      tick,
			Component: component,
			OldStatus: "healthy",
			NewStatus: "degraded",
		})
	}

	// Age the open book.
	open, err := i.store.OpenIncidents(i.runID)
	if err != nil {
		return nil, err
	}
	for _, incident := range open {
		if incident.CreatedTick == tick {
			continue
		}
		if rng.Chance(incidentResolveProbability) {
			if err := i.store.ResolveIncident(i.runID, incident.IncidentID, tick); err != nil {
				return nil, err
			}
			out = append(out, sim.IncidentResolved{
				Tick:          tick,
				IncidentID:    incident.IncidentID,
				DurationTicks: tick - incident.CreatedTick,
			})
			out = append(out, sim.ComponentStatusChanged{
				Tick:      tick,
				Component: incident.Component,
				OldStatus: "degraded",
				NewStatus: "healthy",
			})
			continue
		}
		if tick >= incident.SLADueTick && !incident.SLABreached {
			if err := i.store.MarkIncidentSLABreach(i.runID, incident.IncidentID); err != nil {
				return nil, err
			}
			out = append(out, sim.IncidentSLABreach{
				Tick:       tick,
				IncidentID: incident.IncidentID,
			})
		}
	}

	return out, nil
}
