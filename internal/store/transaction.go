package store

import (
	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/sim"
)

// TxnInsert describes one transaction row to persist.
type TxnInsert struct {
	TxnID            sim.EntityID
	AccountID        sim.EntityID
	Tick             sim.Tick
	Amount           float64
	Direction        string // credit | debit
	Category         string
	Counterparty     string // empty means none
	PaymentRail      string // ACH | card | wire | RTP
	SettlementStatus string // settled | pending_authorization
}

func (s *Store) InsertTransaction(runID sim.RunID, t *TxnInsert) error {
	var counterparty any
	if t.Counterparty != "" {
		counterparty = t.Counterparty
	}
	_, err := s.db.Exec(
		`INSERT INTO transactions
		 (txn_id, run_id, account_id, tick, amount, direction, category, counterparty, fraud_flag, payment_rail_id, settlement_status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		t.TxnID, runID, t.AccountID, int64(t.Tick), t.Amount, t.Direction,
		t.Category, counterparty, t.PaymentRail, t.SettlementStatus,
	)
	if err != nil {
		return sim.StoreErr("insert transaction", err)
	}
	return nil
}

// DailyAggregate summarizes one tick's transactions.
type DailyAggregate struct {
	TxnCount        int64
	TxnVolume       float64
	FeeIncome       float64
	OverdraftEvents int64
}

func (s *Store) ComputeDailyAggregate(runID sim.RunID, tick sim.Tick) (DailyAggregate, error) {
	var agg DailyAggregate
	err := s.db.QueryRow(
		`SELECT COUNT(*),
		        COALESCE(SUM(amount), 0),
		        COALESCE(SUM(CASE WHEN category LIKE '%_fee' THEN amount ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN category = 'overdraft_fee' THEN 1 ELSE 0 END), 0)
		 FROM transactions WHERE run_id = ? AND tick = ?`,
		runID, int64(tick),
	).Scan(&agg.TxnCount, &agg.TxnVolume, &agg.FeeIncome, &agg.OverdraftEvents)
	if err != nil {
		return DailyAggregate{}, sim.StoreErr("compute daily aggregate", err)
	}
	return agg, nil
}

func (s *Store) SaveDailyAggregate(runID sim.RunID, tick sim.Tick, agg *DailyAggregate) error {
	_, err := s.db.Exec(
		`INSERT INTO daily_aggregate (run_id, tick, txn_count, txn_volume, fee_income, overdraft_events)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		runID, int64(tick), agg.TxnCount, agg.TxnVolume, agg.FeeIncome, agg.OverdraftEvents,
	)
	if err != nil {
		return sim.StoreErr("save daily aggregate", err)
	}
	return nil
}

func (s *Store) TxnCountTotal(runID sim.RunID) (int64, error) {
	var count int64
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM transactions WHERE run_id = ?", runID,
	).Scan(&count)
	if err != nil {
		return 0, sim.StoreErr("count transactions", err)
	}
	return count, nil
}

// SumFeeIncome totals fee income from daily aggregates over a tick window.
func (s *Store) SumFeeIncome(runID sim.RunID, startTick, endTick sim.Tick) (float64, error) {
	var sum float64
	err := s.db.QueryRow(
		`SELECT COALESCE(SUM(fee_income), 0) FROM daily_aggregate
		 WHERE run_id = ? AND tick BETWEEN ? AND ?`,
		runID, int64(startTick), int64(endTick),
	).Scan(&sum)
	if err != nil {
		return 0, sim.StoreErr("sum fee income", err)
	}
	return sum, nil
}

// PendingTxn is a transaction awaiting settlement on a rail.
type PendingTxn struct {
	TxnID     sim.EntityID
	AccountID sim.EntityID
	Amount    float64
}

// PendingCardAuthorizations lists card transactions still awaiting
// settlement, in id order.
func (s *Store) PendingCardAuthorizations(runID sim.RunID) ([]PendingTxn, error) {
	rows, err := s.db.Query(
		`SELECT txn_id, account_id, amount FROM transactions
		 WHERE run_id = ? AND payment_rail_id = 'card' AND settlement_status = 'pending_authorization'
		 ORDER BY txn_id ASC`,
		runID,
	)
	if err != nil {
		return nil, sim.StoreErr("query pending card authorizations", err)
	}
	defer rows.Close()

	var pending []PendingTxn
	for rows.Next() {
		var p PendingTxn
		if err := rows.Scan(&p.TxnID, &p.AccountID, &p.Amount); err != nil {
			return nil, sim.StoreErr("scan pending card authorization", err)
		}
		pending = append(pending, p)
	}
	if err := rows.Err(); err != nil {
		return nil, sim.StoreErr("iterate pending card authorizations", err)
	}
	return pending, nil
}

// MarkTxnSettled flips a transaction's settlement status to settled.
func (s *Store) MarkTxnSettled(runID sim.RunID, txnID sim.EntityID) error {
	_, err := s.db.Exec(
		`UPDATE transactions SET settlement_status = 'settled'
		 WHERE run_id = ? AND txn_id = ?`,
		runID, txnID,
	)
	if err != nil {
		return sim.StoreErr("mark transaction settled", err)
	}
	return nil
}

// SettledCardTxn is a settled card transaction eligible for dispute.
type SettledCardTxn struct {
	TxnID      sim.EntityID
	AccountID  sim.EntityID
	CustomerID sim.EntityID
	Amount     float64
}

// SettledCardTxnsForTick lists card transactions settled on a tick, with
// their owning customer, in id order.
func (s *Store) SettledCardTxnsForTick(runID sim.RunID, tick sim.Tick) ([]SettledCardTxn, error) {
	rows, err := s.db.Query(
		`SELECT t.txn_id, t.account_id, a.customer_id, t.amount
		 FROM transactions t
		 JOIN account a ON a.run_id = t.run_id AND a.account_id = t.account_id
		 WHERE t.run_id = ? AND t.tick = ? AND t.payment_rail_id = 'card' AND t.settlement_status = 'settled'
		 ORDER BY t.txn_id ASC`,
		runID, int64(tick),
	)
	if err != nil {
		return nil, sim.StoreErr("query settled card transactions", err)
	}
	defer rows.Close()

	var txns []SettledCardTxn
	for rows.Next() {
		var t SettledCardTxn
		if err := rows.Scan(&t.TxnID, &t.AccountID, &t.CustomerID, &t.Amount); err != nil {
			return nil, sim.StoreErr("scan settled card transaction", err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, sim.StoreErr("iterate settled card transactions", err)
	}
	return txns, nil
}

// CashActivity sums a customer's cash withdrawals over a tick window,
// feeding structuring detection and CTR filing.
type CashActivity struct {
	CustomerID sim.EntityID
	AccountID  sim.EntityID
	Total      float64
	TxnCount   int64
}

func (s *Store) CashActivitySince(runID sim.RunID, sinceTick, tick sim.Tick) ([]CashActivity, error) {
	rows, err := s.db.Query(
		`SELECT a.customer_id, t.account_id, SUM(t.amount), COUNT(*)
		 FROM transactions t
		 JOIN account a ON a.run_id = t.run_id AND a.account_id = t.account_id
		 WHERE t.run_id = ? AND t.tick BETWEEN ? AND ? AND t.category = 'cash_withdrawal'
		 GROUP BY a.customer_id, t.account_id
		 ORDER BY a.customer_id ASC, t.account_id ASC`,
		runID, int64(sinceTick), int64(tick),
	)
	if err != nil {
		return nil, sim.StoreErr("query cash activity", err)
	}
	defer rows.Close()

	var activity []CashActivity
	for rows.Next() {
		var c CashActivity
		if err := rows.Scan(&c.CustomerID, &c.AccountID, &c.Total, &c.TxnCount); err != nil {
			return nil, sim.StoreErr("scan cash activity", err)
		}
		activity = append(activity, c)
	}
	if err := rows.Err(); err != nil {
		return nil, sim.StoreErr("iterate cash activity", err)
	}
	return activity, nil
}

// AccountVelocity is a per-account transaction count for one tick.
type AccountVelocity struct {
	AccountID  sim.EntityID
	CustomerID sim.EntityID
	TxnCount   int64
}

func (s *Store) AccountVelocityForTick(runID sim.RunID, tick sim.Tick) ([]AccountVelocity, error) {
	rows, err := s.db.Query(
		`SELECT t.account_id, a.customer_id, COUNT(*)
		 FROM transactions t
		 JOIN account a ON a.run_id = t.run_id AND a.account_id = t.account_id
		 WHERE t.run_id = ? AND t.tick = ?
		 GROUP BY t.account_id, a.customer_id
		 ORDER BY t.account_id ASC`,
		runID, int64(tick),
	)
	if err != nil {
		return nil, sim.StoreErr("query account velocity", err)
	}
	defer rows.Close()

	var velocities []AccountVelocity
	for rows.Next() {
		var v AccountVelocity
		if err := rows.Scan(&v.AccountID, &v.CustomerID, &v.TxnCount); err != nil {
			return nil, sim.StoreErr("scan account velocity", err)
		}
		velocities = append(velocities, v)
	}
	if err := rows.Err(); err != nil {
		return nil, sim.StoreErr("iterate account velocity", err)
	}
	return velocities, nil
}
