package subsystems

import (
	"fmt"
	"log/slog"

	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/config"
	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/sim"
	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/store"
)

const boardReviewInterval sim.Tick = 90

// RiskAppetite owns the player's risk dials: it validates SetRiskDial
// commands against the dial catalog and fires board pressure when a dial
// sits below half its default at the quarterly review.
type RiskAppetite struct {
	runID       sim.RunID
	cfg         *config.Config
	store       *store.Store
	initialized bool
}

func NewRiskAppetite(runID sim.RunID, cfg *config.Config, st *store.Store) *RiskAppetite {
	return &RiskAppetite{runID: runID, cfg: cfg, store: st}
}

func (r *RiskAppetite) Name() string { return sim.SlotRiskAppetite.Name() }

func (r *RiskAppetite) Update(tick sim.Tick, eventsIn []sim.Event, _ *sim.Rand) ([]sim.Event, error) {
	if !r.initialized {
		for _, dialID := range sortedKeys(r.cfg.RiskDials) {
			dial := r.cfg.RiskDials[dialID]
			if err := r.store.UpsertRiskDial(r.runID, dial.DialID, dial.DefaultValue, tick); err != nil {
				return nil, err
			}
		}
		r.initialized = true
		return nil, nil
	}

	var out []sim.Event

	for _, event := range eventsIn {
		received, ok := event.(sim.PlayerCommandReceived)
		if !ok || received.CommandType != "set_risk_dial" {
			continue
		}
		cmd, err := r.store.GetPlayerCommand(r.runID, received.CommandID)
		if err != nil {
			return nil, err
		}
		dialCmd, ok := cmd.(sim.SetRiskDial)
		if !ok {
			slog.Warn("set_risk_dial command not found", "tick", tick, "command_id", received.CommandID)
			continue
		}

		dial, ok := r.cfg.RiskDials[dialCmd.DialID]
		if !ok {
			out = append(out, sim.RiskDialRejected{
				Tick:   tick,
				DialID: dialCmd.DialID,
				Reason: fmt.Sprintf("Unknown dial: %s", dialCmd.DialID),
			})
			continue
		}
		if dialCmd.NewValue < dial.MinValue || dialCmd.NewValue > dial.MaxValue {
			out = append(out, sim.RiskDialRejected{
				Tick:   tick,
				DialID: dialCmd.DialID,
				Reason: fmt.Sprintf("%s must be between %.2f and %.2f", dial.DialID, dial.MinValue, dial.MaxValue),
			})
			continue
		}

		oldValue := dial.DefaultValue
		if current, ok, err := r.store.RiskDialValue(r.runID, dial.DialID); err != nil {
			return nil, err
		} else if ok {
			oldValue = current
		}
		if err := r.store.UpsertRiskDial(r.runID, dial.DialID, dialCmd.NewValue, tick); err != nil {
			return nil, err
		}
		out = append(out, sim.RiskDialChanged{
			Tick:     tick,
			DialID:   dial.DialID,
			OldValue: oldValue,
			NewValue: dialCmd.NewValue,
		})
	}

	// Quarterly board review: pressure on dials far below default.
	if tick%boardReviewInterval == 0 {
		for _, dialID := range sortedKeys(r.cfg.RiskDials) {
			dial := r.cfg.RiskDials[dialID]
			current, ok, err := r.store.RiskDialValue(r.runID, dial.DialID)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			if current < dial.DefaultValue*0.5 {
				out = append(out, sim.BoardPressureFired{
					Tick:    tick,
					DialID:  dial.DialID,
					Message: fmt.Sprintf("%s is far below its approved appetite", dial.Label),
				})
			}
		}
	}

	return out, nil
}
