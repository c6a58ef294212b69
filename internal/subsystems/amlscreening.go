package subsystems

import (
	"fmt"

	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/config"
	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/sim"
	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/store"
)

const (
	screeningIntervalTicks sim.Tick = 30 // monthly rescreening
	amlMetricsInterval     sim.Tick = 7
	ofacHitProbability              = 0.002
	pepHitProbability               = 0.008
	defaultAlertThreshold           = 0.60
)

// AMLScreening rescreens the customer book monthly against sanctions and
// PEP lists and computes risk ratings. The alert threshold is a player
// risk dial. SAR filing lives in the transaction monitoring subsystem,
// which owns the alert-to-report pipeline.
type AMLScreening struct {
	runID sim.RunID
	cfg   *config.Config
	store *store.Store
}

func NewAMLScreening(runID sim.RunID, cfg *config.Config, st *store.Store) *AMLScreening {
	return &AMLScreening{runID: runID, cfg: cfg, store: st}
}

func (a *AMLScreening) Name() string { return sim.SlotAMLScreening.Name() }

func (a *AMLScreening) Update(tick sim.Tick, _ []sim.Event, rng *sim.Rand) ([]sim.Event, error) {
	var out []sim.Event

	if tick%screeningIntervalTicks == 0 {
		events, err := a.screenBook(tick, rng)
		if err != nil {
			return nil, err
		}
		out = append(out, events...)
	}

	if tick%amlMetricsInterval == 0 {
		windowStart := sim.Tick(0)
		if tick > amlMetricsInterval {
			windowStart = tick - amlMetricsInterval
		}
		counts, err := a.store.AMLCountsSince(a.runID, windowStart)
		if err != nil {
			return nil, err
		}
		out = append(out, sim.AMLMetricsComputed{
			Tick:     tick,
			Screened: counts.Screened,
			Hits:     counts.Hits,
			Alerts:   counts.Alerts,
		})
	}

	return out, nil
}

func (a *AMLScreening) screenBook(tick sim.Tick, rng *sim.Rand) ([]sim.Event, error) {
	var out []sim.Event

	threshold := defaultAlertThreshold
	if dial, ok, err := a.store.RiskDialValue(a.runID, "aml_alert_threshold"); err != nil {
		return nil, err
	} else if ok {
		threshold = dial
	}

	customers, err := a.store.RiskScoredCustomers(a.runID)
	if err != nil {
		return nil, err
	}

	for _, cust := range customers {
		// List screening: rare hits against OFAC and PEP lists.
		for _, list := range []struct {
			name string
			prob float64
		}{
			{"ofac", ofacHitProbability},
			{"pep", pepHitProbability},
		} {
			if !rng.Chance(list.prob) {
				continue
			}
			matchScore := 0.80 + rng.Float64()*0.20
			screeningID := fmt.Sprintf("scr-%08d-%016x", tick, rng.Uint64())
			if err := a.store.InsertAMLScreening(a.runID, screeningID, cust.CustomerID, list.name, matchScore, tick); err != nil {
				return nil, err
			}
			out = append(out, sim.AMLScreeningHit{
				Tick:        tick,
				ScreeningID: screeningID,
				CustomerID:  cust.CustomerID,
				List:        list.name,
				MatchScore:  matchScore,
			})
			if matchScore >= threshold {
				alertID := fmt.Sprintf("ala-%08d-%016x", tick, rng.Uint64())
				severity := "high"
				if list.name == "ofac" {
					severity = "critical"
				}
				if err := a.store.InsertAMLAlert(a.runID, alertID, cust.CustomerID, list.name+"_match", severity, tick); err != nil {
					return nil, err
				}
				out = append(out, sim.AMLAlertGenerated{
					Tick:       tick,
					AlertID:    alertID,
					CustomerID: cust.CustomerID,
					AlertType:  list.name + "_match",
					Severity:   severity,
				})
			}
		}

		// Risk rating combines the onboarding score with screening noise.
		score := cust.Score*0.8 + rng.Float64()*0.2
		rating := "low"
		switch {
		case score >= 0.80:
			rating = "critical"
		case score >= 0.60:
			rating = "high"
		case score >= 0.30:
			rating = "medium"
		}
		out = append(out, sim.AMLRiskRatingComputed{
			Tick:       tick,
			CustomerID: cust.CustomerID,
			Rating:     rating,
			Score:      score,
		})
	}

	return out, nil
}
