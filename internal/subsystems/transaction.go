package subsystems

import (
	"fmt"
	"log/slog"

	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/config"
	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/sim"
	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/store"
)

// Transaction generates each account's daily activity: biweekly payroll
// credits, Pareto-distributed spend across payment rails, and overdraft
// fees when a balance goes negative.
type Transaction struct {
	runID sim.RunID
	cfg   *config.Config
	store *store.Store
}

func NewTransaction(runID sim.RunID, cfg *config.Config, st *store.Store) *Transaction {
	return &Transaction{runID: runID, cfg: cfg, store: st}
}

func (t *Transaction) Name() string { return sim.SlotTransaction.Name() }

func (t *Transaction) Update(tick sim.Tick, _ []sim.Event, rng *sim.Rand) ([]sim.Event, error) {
	var out []sim.Event

	accounts, err := t.store.ActiveAccounts(t.runID)
	if err != nil {
		return nil, err
	}

	for _, acct := range accounts {
		events, err := t.processAccount(&acct, tick, rng)
		if err != nil {
			return nil, err
		}
		out = append(out, events...)
	}

	agg, err := t.store.ComputeDailyAggregate(t.runID, tick)
	if err != nil {
		return nil, err
	}
	if err := t.store.SaveDailyAggregate(t.runID, tick, &agg); err != nil {
		return nil, err
	}

	slog.Debug("daily transactions generated",
		"tick", tick, "txns", agg.TxnCount, "volume", agg.TxnVolume, "fees", agg.FeeIncome)

	return out, nil
}

func (t *Transaction) processAccount(acct *store.AccountRow, tick sim.Tick, rng *sim.Rand) ([]sim.Event, error) {
	var events []sim.Event

	// Payroll credit: biweekly.
	if acct.HasPayroll && tick%14 == 0 && acct.PayrollAmount > 0 {
		jitter := 1.0 + (rng.Float64()-0.5)*0.05
		amount := acct.PayrollAmount * jitter
		txn := &store.TxnInsert{
			TxnID:            fmt.Sprintf("txn-%08d-%016x", tick, rng.Uint64()),
			AccountID:        acct.AccountID,
			Tick:             tick,
			Amount:           amount,
			Direction:        "credit",
			Category:         "payroll",
			Counterparty:     "payroll-employer",
			PaymentRail:      "ACH",
			SettlementStatus: "settled",
		}
		if err := t.store.InsertTransaction(t.runID, txn); err != nil {
			return nil, err
		}
		if err := t.store.UpdateAccountBalance(t.runID, acct.AccountID, amount); err != nil {
			return nil, err
		}
	}

	// Daily spend count from the monthly mean, Poisson-approximated:
	// the integer part is certain, the fraction is probabilistic.
	dailyProb := acct.MonthlyTxnMean / 30.0
	if dailyProb > 5.0 {
		dailyProb = 5.0
	}
	txnCount := uint64(dailyProb)
	if rng.Chance(dailyProb - float64(uint64(dailyProb))) {
		txnCount++
	}

	seg := t.segmentFor(acct)

	for i := uint64(0); i < txnCount; i++ {
		isCash := rng.Chance(acct.CashIntensity)
		var amount float64
		category := "purchase"
		if isCash {
			// Cash withdrawals round to the nearest $20.
			raw := rng.Pareto(seg.TxnAmountParetoXmin, 1.6)
			if raw > 500 {
				raw = 500
			}
			amount = float64(int64(raw/20.0+0.5)) * 20.0
			if amount == 0 {
				amount = 20.0
			}
			category = "cash_withdrawal"
		} else {
			amount = rng.Pareto(10.0, seg.TxnAmountParetoAlpha)
			if amount > 2000 {
				amount = 2000
			}
		}

		// Counterparty: 80% recurring merchants, 20% new.
		var counterparty string
		if rng.Chance(0.80) {
			counterparty = fmt.Sprintf("merchant-%s-%d", acct.CustomerID, rng.Uint64Below(8))
		} else {
			counterparty = fmt.Sprintf("new-merchant-%d", rng.Uint64Below(10000))
		}

		rail := "ACH"
		settlement := "settled"
		if isCash {
			// Cash always clears through ACH immediately.
		} else {
			roll := rng.Float64()
			switch {
			case roll < 0.50:
				rail, settlement = "card", "pending_authorization"
			case roll < 0.80:
				rail, settlement = "ACH", "settled"
			case roll < 0.90:
				rail, settlement = "wire", "settled"
			default:
				rail, settlement = "RTP", "settled"
			}
		}

		txn := &store.TxnInsert{
			TxnID:            fmt.Sprintf("txn-%08d-%016x", tick, rng.Uint64()),
			AccountID:        acct.AccountID,
			Tick:             tick,
			Amount:           amount,
			Direction:        "debit",
			Category:         category,
			Counterparty:     counterparty,
			PaymentRail:      rail,
			SettlementStatus: settlement,
		}
		if err := t.store.InsertTransaction(t.runID, txn); err != nil {
			return nil, err
		}
		// Card transactions only hold available balance until the payment
		// hub settles them.
		if rail != "card" {
			if err := t.store.UpdateAccountBalance(t.runID, acct.AccountID, -amount); err != nil {
				return nil, err
			}
		} else {
			if err := t.store.HoldAvailableBalance(t.runID, acct.AccountID, amount); err != nil {
				return nil, err
			}
		}
	}

	// Overdraft check after the day's debits.
	balance, err := t.store.AccountBalance(t.runID, acct.AccountID)
	if err != nil {
		return nil, err
	}
	if balance < -0.01 {
		odFee := t.overdraftFee(acct.ProductID)
		fee := &store.TxnInsert{
			TxnID:            fmt.Sprintf("fee-%08d-%016x", tick, rng.Uint64()),
			AccountID:        acct.AccountID,
			Tick:             tick,
			Amount:           odFee,
			Direction:        "debit",
			Category:         "overdraft_fee",
			PaymentRail:      "ACH",
			SettlementStatus: "settled",
		}
		if err := t.store.InsertTransaction(t.runID, fee); err != nil {
			return nil, err
		}
		if err := t.store.UpdateAccountBalance(t.runID, acct.AccountID, -odFee); err != nil {
			return nil, err
		}
		events = append(events, sim.FeeCharged{
			Tick:       tick,
			CustomerID: acct.CustomerID,
			AccountID:  acct.AccountID,
			FeeType:    "overdraft",
			Amount:     odFee,
		})
	}

	return events, nil
}

// overdraftFee reads the live product fee when the pricing subsystem has
// initialized it, falling back to the catalog value on the first tick.
func (t *Transaction) overdraftFee(productID string) float64 {
	if state, err := t.store.GetProductState(t.runID, productID); err == nil {
		return state.OverdraftFee
	}
	if p, ok := t.cfg.Products[productID]; ok {
		return p.OverdraftFee
	}
	return 27.08
}

func (t *Transaction) segmentFor(acct *store.AccountRow) *config.Segment {
	for _, id := range sortedSegmentIDs(t.cfg.Segments) {
		seg := t.cfg.Segments[id]
		for _, p := range seg.Products {
			if p == acct.ProductID {
				return &seg
			}
		}
	}
	// Unknown product: behave like the first segment.
	id := sortedSegmentIDs(t.cfg.Segments)[0]
	seg := t.cfg.Segments[id]
	return &seg
}
