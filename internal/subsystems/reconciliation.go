package subsystems

import (
	"fmt"

	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/sim"
	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/store"
)

const (
	reconExceptionProbability = 0.02 // per settled batch
	reconAutoClearProbability = 0.30 // per open exception per tick
	reconEscalateAgeTicks     = 5
	reconSLAAgeTicks          = 10
)

// Reconciliation raises exceptions against settled payment batches,
// auto-clears most of them, and escalates the rest toward an SLA breach.
type Reconciliation struct {
	runID sim.RunID
	store *store.Store
}

func NewReconciliation(runID sim.RunID, st *store.Store) *Reconciliation {
	return &Reconciliation{runID: runID, store: st}
}

func (r *Reconciliation) Name() string { return sim.SlotReconciliation.Name() }

func (r *Reconciliation) Update(tick sim.Tick, eventsIn []sim.Event, rng *sim.Rand) ([]sim.Event, error) {
	var out []sim.Event

	// New exceptions from this tick's settled batches.
	for _, event := range eventsIn {
		settled, ok := event.(sim.PaymentBatchSettled)
		if !ok {
			continue
		}
		if !rng.Chance(reconExceptionProbability) {
			continue
		}
		exceptionID := fmt.Sprintf("recx-%08d-%016x", tick, rng.Uint64())
		amount := rng.Pareto(25.0, 1.5)
		if amount > 5000 {
			amount = 5000
		}
		exception := &store.ReconException{
			ExceptionID: exceptionID,
			Rail:        settled.Rail,
			Amount:      amount,
			Reason:      "amount_mismatch",
			CreatedTick: tick,
			Status:      "open",
		}
		if err := r.store.InsertReconException(r.runID, exception); err != nil {
			return nil, err
		}
		out = append(out, sim.ReconExceptionCreated{
			Tick:        tick,
			ExceptionID: exceptionID,
			Rail:        settled.Rail,
			Amount:      amount,
			Reason:      "amount_mismatch",
		})
	}

	// Age the open book.
	open, err := r.store.OpenReconExceptions(r.runID)
	if err != nil {
		return nil, err
	}
	for _, exception := range open {
		if exception.CreatedTick == tick {
			continue
		}
		age := tick - exception.CreatedTick

		if rng.Chance(reconAutoClearProbability) {
			if err := r.store.CloseReconException(r.runID, exception.ExceptionID, tick, "auto_cleared"); err != nil {
				return nil, err
			}
			out = append(out, sim.ReconExceptionAutoCleared{Tick: tick, ExceptionID: exception.ExceptionID})
			continue
		}

		if age >= reconEscalateAgeTicks && !exception.Escalated {
			if err := r.store.EscalateReconException(r.runID, exception.ExceptionID); err != nil {
				return nil, err
			}
			out = append(out, sim.ReconExceptionEscalated{
				Tick:        tick,
				ExceptionID: exception.ExceptionID,
				AgeTicks:    age,
			})
		}
		if age >= reconSLAAgeTicks && !exception.SLABreached {
			if err := r.store.MarkReconSLABreach(r.runID, exception.ExceptionID); err != nil {
				return nil, err
			}
			out = append(out, sim.ReconExceptionSLABreach{
				Tick:        tick,
				ExceptionID: exception.ExceptionID,
				AgeTicks:    age,
			})
		}
	}

	return out, nil
}
