package subsystems

import (
	"fmt"

	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/sim"
	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/store"
)

const (
	disputeProbability        = 0.004 // per settled card txn
	disputeInvestigationTicks = 7
	provisionalCreditMinTicks = 2
	friendlyFraudShare        = 0.25
	metricsInterval           = 7
)

// CardDispute files disputes against settled card transactions, issues
// provisional credit, and resolves investigations as refunds, chargebacks,
// or denials.
type CardDispute struct {
	runID sim.RunID
	store *store.Store
}

func NewCardDispute(runID sim.RunID, st *store.Store) *CardDispute {
	return &CardDispute{runID: runID, store: st}
}

func (c *CardDispute) Name() string { return sim.SlotCardDispute.Name() }

func (c *CardDispute) Update(tick sim.Tick, _ []sim.Event, rng *sim.Rand) ([]sim.Event, error) {
	var out []sim.Event

	// New disputes from today's settled card transactions.
	settled, err := c.store.SettledCardTxnsForTick(c.runID, tick)
	if err != nil {
		return nil, err
	}
	for _, txn := range settled {
		if !rng.Chance(disputeProbability) {
			continue
		}
		disputeID := fmt.Sprintf("dsp-%08d-%016x", tick, rng.Uint64())
		reasonCode := "unauthorized"
		if rng.Chance(friendlyFraudShare) {
			reasonCode = "goods_not_received"
		}
		dispute := &store.CardDispute{
			DisputeID:  disputeID,
			TxnID:      txn.TxnID,
			CustomerID: txn.CustomerID,
			AccountID:  txn.AccountID,
			Amount:     txn.Amount,
			ReasonCode: reasonCode,
			Status:     "filed",
			FiledTick:  tick,
		}
		if err := c.store.InsertCardDispute(c.runID, dispute); err != nil {
			return nil, err
		}
		out = append(out, sim.DisputeFiled{
			Tick:       tick,
			DisputeID:  disputeID,
			TxnID:      txn.TxnID,
			CustomerID: txn.CustomerID,
			Amount:     txn.Amount,
			ReasonCode: reasonCode,
		})
	}

	// Progress the open book.
	open, err := c.store.OpenCardDisputes(c.runID)
	if err != nil {
		return nil, err
	}
	for _, dispute := range open {
		age := tick - dispute.FiledTick

		if dispute.Status == "filed" && age >= 1 {
			if err := c.store.UpdateDisputeStatus(c.runID, dispute.DisputeID, "investigating"); err != nil {
				return nil, err
			}
			out = append(out, sim.DisputeStatusChanged{
				Tick:      tick,
				DisputeID: dispute.DisputeID,
				OldStatus: "filed",
				NewStatus: "investigating",
			})
		}

		// Reg E provisional credit while the investigation runs.
		if dispute.ProvisionalCredit == 0 && age >= provisionalCreditMinTicks {
			if err := c.store.SetProvisionalCredit(c.runID, dispute.DisputeID, dispute.Amount); err != nil {
				return nil, err
			}
			if err := c.store.UpdateAccountBalance(c.runID, dispute.AccountID, dispute.Amount); err != nil {
				return nil, err
			}
			out = append(out, sim.ProvisionalCreditIssued{
				Tick:      tick,
				DisputeID: dispute.DisputeID,
				AccountID: dispute.AccountID,
				Amount:    dispute.Amount,
			})
		}

		if age < disputeInvestigationTicks {
			continue
		}

		// Resolution roll: most disputes become chargebacks, some are
		// denied, a slice turns out to be friendly fraud.
		roll := rng.Float64()
		switch {
		case roll < 0.60:
			if err := c.store.ResolveCardDispute(c.runID, dispute.DisputeID, tick, "chargeback"); err != nil {
				return nil, err
			}
			out = append(out, sim.ChargebackIssued{
				Tick:      tick,
				DisputeID: dispute.DisputeID,
				TxnID:     dispute.TxnID,
				Amount:    dispute.Amount,
			})
			out = append(out, sim.DisputeResolved{
				Tick:      tick,
				DisputeID: dispute.DisputeID,
				Outcome:   "chargeback",
				Amount:    dispute.Amount,
			})
		case roll < 0.85:
			// Denied: claw back the provisional credit.
			if err := c.store.ResolveCardDispute(c.runID, dispute.DisputeID, tick, "denied"); err != nil {
				return nil, err
			}
			if dispute.ProvisionalCredit > 0 {
				if err := c.store.UpdateAccountBalance(c.runID, dispute.AccountID, -dispute.ProvisionalCredit); err != nil {
					return nil, err
				}
			}
			out = append(out, sim.DisputeResolved{
				Tick:      tick,
				DisputeID: dispute.DisputeID,
				Outcome:   "denied",
				Amount:    dispute.Amount,
			})
		default:
			if err := c.store.ResolveCardDispute(c.runID, dispute.DisputeID, tick, "friendly_fraud"); err != nil {
				return nil, err
			}
			out = append(out, sim.FriendlyFraudDetected{
				Tick:       tick,
				DisputeID:  dispute.DisputeID,
				CustomerID: dispute.CustomerID,
			})
			out = append(out, sim.DisputeResolved{
				Tick:      tick,
				DisputeID: dispute.DisputeID,
				Outcome:   "friendly_fraud",
				Amount:    dispute.Amount,
			})
		}
	}

	// Weekly chargeback metrics.
	if tick%metricsInterval == 0 {
		disputeCount, err := c.store.CardDisputeCount(c.runID)
		if err != nil {
			return nil, err
		}
		chargebacks, err := c.store.ChargebackCount(c.runID)
		if err != nil {
			return nil, err
		}
		rate := 0.0
		if disputeCount > 0 {
			rate = float64(chargebacks) / float64(disputeCount)
		}
		out = append(out, sim.ChargebackMetricsComputed{
			Tick:           tick,
			DisputeCount:   disputeCount,
			ChargebackRate: rate,
		})
	}

	return out, nil
}
