package subsystems

import (
	"fmt"

	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/sim"
	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/store"
)

const (
	velocityThreshold       = 10 // transactions per day
	syntheticScoreThreshold = 0.60
	fraudAlertScoreFloor    = 0.60
)

// FraudDetection watches transaction velocity and onboarding risk scores,
// scaled by the macro fraud multiplier, and raises fraud alerts.
type FraudDetection struct {
	runID sim.RunID
	store *store.Store
	// screenedSynthetic tracks which customers already produced a
	// synthetic-identity pattern so alerts fire once per customer.
	screenedSynthetic map[sim.EntityID]bool
}

func NewFraudDetection(runID sim.RunID, st *store.Store) *FraudDetection {
	return &FraudDetection{
		runID:             runID,
		store:             st,
		screenedSynthetic: make(map[sim.EntityID]bool),
	}
}

func (f *FraudDetection) Name() string { return sim.SlotFraudDetection.Name() }

func (f *FraudDetection) Update(tick sim.Tick, _ []sim.Event, rng *sim.Rand) ([]sim.Event, error) {
	var out []sim.Event

	fraudMult, err := f.store.LatestFraudMultiplier(f.runID)
	if err != nil {
		return nil, err
	}

	// Velocity: unusually many transactions on one account in one day.
	velocities, err := f.store.AccountVelocityForTick(f.runID, tick)
	if err != nil {
		return nil, err
	}
	for _, v := range velocities {
		if float64(v.TxnCount) < velocityThreshold/fraudMult {
			continue
		}
		score := 0.50 + rng.Float64()*0.40
		if score < fraudAlertScoreFloor {
			continue
		}
		alertID := fmt.Sprintf("fra-%08d-%016x", tick, rng.Uint64())
		if err := f.store.InsertFraudAlert(f.runID, alertID, v.AccountID, "velocity", score, tick); err != nil {
			return nil, err
		}
		out = append(out, sim.FraudAlertGenerated{
			Tick:      tick,
			AlertID:   alertID,
			AccountID: v.AccountID,
			Pattern:   "velocity",
			Score:     score,
		})
	}

	// Synthetic identity: weekly sweep of onboarding risk scores.
	if tick%7 == 0 {
		scored, err := f.store.RiskScoredCustomers(f.runID)
		if err != nil {
			return nil, err
		}
		for _, cust := range scored {
			if cust.Score < syntheticScoreThreshold || f.screenedSynthetic[cust.CustomerID] {
				continue
			}
			f.screenedSynthetic[cust.CustomerID] = true
			out = append(out, sim.FraudPatternDetected{
				Tick:       tick,
				CustomerID: cust.CustomerID,
				Pattern:    "synthetic_identity",
				Score:      cust.Score,
			})
		}
	}

	return out, nil
}
