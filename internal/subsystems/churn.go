package subsystems

import (
	"log/slog"

	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/config"
	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/sim"
	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/store"
)

// Churn scores every active customer on the model cadence, rolls life
// events, and churns customers whose risk crosses the imminent threshold.
type Churn struct {
	runID sim.RunID
	cfg   *config.Config
	store *store.Store
}

func NewChurn(runID sim.RunID, cfg *config.Config, st *store.Store) *Churn {
	return &Churn{runID: runID, cfg: cfg, store: st}
}

func (ch *Churn) Name() string { return sim.SlotChurn.Name() }

func (ch *Churn) Update(tick sim.Tick, _ []sim.Event, rng *sim.Rand) ([]sim.Event, error) {
	model := &ch.cfg.Churn
	if model.UpdateFrequencyTicks == 0 || tick%model.UpdateFrequencyTicks != 0 {
		return nil, nil
	}

	var out []sim.Event

	if err := ch.store.ExpireLifeEvents(ch.runID, tick); err != nil {
		return nil, err
	}
	activeLifeEvents, err := ch.store.ActiveLifeEventCustomers(ch.runID)
	if err != nil {
		return nil, err
	}

	customers, err := ch.store.ActiveCustomers(ch.runID)
	if err != nil {
		return nil, err
	}

	lookbackStart := sim.Tick(0)
	if tick > model.ComplaintLookbackTicks {
		lookbackStart = tick - model.ComplaintLookbackTicks
	}

	churned := 0
	for _, cust := range customers {
		// Roll life events first so they influence this pass's score.
		for _, lifeEvent := range model.LifeEvents {
			// Per-pass probability from the annual rate, scaled by the
			// scoring cadence.
			p := lifeEvent.ProbabilityPerYear * float64(model.UpdateFrequencyTicks) / 365.0
			if !rng.Chance(p) {
				continue
			}
			if err := ch.store.InsertLifeEvent(ch.runID, cust.CustomerID, lifeEvent.EventType, tick, tick+lifeEvent.DurationTicks); err != nil {
				return nil, err
			}
			if err := ch.store.AdjustCustomerChurnRisk(ch.runID, cust.CustomerID, lifeEvent.ChurnRiskDelta); err != nil {
				return nil, err
			}
			activeLifeEvents[cust.CustomerID] = true
			out = append(out, sim.LifeEventOccurred{
				Tick:           tick,
				CustomerID:     cust.CustomerID,
				LifeEventType:  lifeEvent.EventType,
				ChurnRiskDelta: lifeEvent.ChurnRiskDelta,
			})
		}

		complaints, err := ch.store.ComplaintCountForCustomerSince(ch.runID, cust.CustomerID, lookbackStart)
		if err != nil {
			return nil, err
		}

		score := ch.score(model, &cust, complaints, activeLifeEvents[cust.CustomerID])
		band := ch.band(model, score)
		if err := ch.store.InsertChurnScore(ch.runID, cust.CustomerID, tick, score, band); err != nil {
			return nil, err
		}
		if err := ch.store.SetCustomerChurnState(ch.runID, cust.CustomerID, score, cust.Satisfaction); err != nil {
			return nil, err
		}

		// Churn decision: imminent-risk customers leave outright; the
		// rest churn at their scored monthly probability.
		leaves := score >= model.Thresholds.ImminentChurn || rng.Chance(score*ch.monthlyRate(model, cust.Segment))
		if !leaves {
			continue
		}
		if err := ch.store.ChurnCustomer(ch.runID, cust.CustomerID, tick); err != nil {
			return nil, err
		}
		reason := "attrition"
		if score >= model.Thresholds.ImminentChurn {
			reason = "imminent_risk"
		}
		out = append(out, sim.CustomerChurned{
			Tick:       tick,
			CustomerID: cust.CustomerID,
			Reason:     reason,
		})
		churned++
	}

	if churned > 0 {
		slog.Debug("churn pass complete", "tick", tick, "churned", churned)
	}
	return out, nil
}

func (ch *Churn) score(model *config.ChurnModel, cust *store.CustomerRecord, complaints int64, hasLifeEvent bool) float64 {
	score := cust.ChurnRisk
	score += (model.SatisfactionEquilibrium - cust.Satisfaction) * model.SatisfactionWeight
	score += float64(complaints) * model.ComplaintWeight
	if hasLifeEvent {
		score *= model.LifeEventMultiplier
	}
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score
}

func (ch *Churn) band(model *config.ChurnModel, score float64) string {
	switch {
	case score >= model.Thresholds.ImminentChurn:
		return "imminent"
	case score >= model.Thresholds.HighRisk:
		return "high"
	case score >= model.Thresholds.MediumRisk:
		return "medium"
	default:
		return "low"
	}
}

func (ch *Churn) monthlyRate(model *config.ChurnModel, segment string) float64 {
	if rate, ok := model.SegmentMonthlyRates[segment]; ok {
		return rate
	}
	return 0.02
}
