package subsystems

import (
	"fmt"

	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/sim"
	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/store"
)

// PaymentHub batches the day's pending card authorizations and settles
// them, moving the held amounts from available balance to booked balance.
type PaymentHub struct {
	runID sim.RunID
	store *store.Store
}

func NewPaymentHub(runID sim.RunID, st *store.Store) *PaymentHub {
	return &PaymentHub{runID: runID, store: st}
}

func (p *PaymentHub) Name() string { return sim.SlotPaymentHub.Name() }

func (p *PaymentHub) Update(tick sim.Tick, _ []sim.Event, rng *sim.Rand) ([]sim.Event, error) {
	pending, err := p.store.PendingCardAuthorizations(p.runID)
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		return nil, nil
	}

	var out []sim.Event
	batchID := fmt.Sprintf("batch-%08d-%016x", tick, rng.Uint64())
	var total float64

	for _, txn := range pending {
		out = append(out, sim.CardAuthorizationCreated{
			Tick:      tick,
			TxnID:     txn.TxnID,
			AccountID: txn.AccountID,
			Amount:    txn.Amount,
		})
		if err := p.store.MarkTxnSettled(p.runID, txn.TxnID); err != nil {
			return nil, err
		}
		// The auth hold already reduced available balance; settlement
		// books the amount and restores the hold.
		if err := p.store.UpdateAccountBalance(p.runID, txn.AccountID, -txn.Amount); err != nil {
			return nil, err
		}
		if err := p.store.HoldAvailableBalance(p.runID, txn.AccountID, -txn.Amount); err != nil {
			return nil, err
		}
		out = append(out, sim.CardSettled{
			Tick:      tick,
			TxnID:     txn.TxnID,
			AccountID: txn.AccountID,
			Amount:    txn.Amount,
		})
		total += txn.Amount
	}

	batch := &store.PaymentBatch{
		BatchID:     batchID,
		Rail:        "card",
		CreatedTick: tick,
		TxnCount:    int64(len(pending)),
		TotalAmount: total,
		Status:      "open",
	}
	if err := p.store.InsertPaymentBatch(p.runID, batch); err != nil {
		return nil, err
	}
	out = append(out, sim.PaymentBatchCreated{
		Tick:        tick,
		BatchID:     batchID,
		Rail:        "card",
		TxnCount:    int64(len(pending)),
		TotalAmount: total,
	})

	if err := p.store.SettlePaymentBatch(p.runID, batchID, tick); err != nil {
		return nil, err
	}
	out = append(out, sim.PaymentBatchSettled{
		Tick:    tick,
		BatchID: batchID,
		Rail:    "card",
	})

	return out, nil
}
