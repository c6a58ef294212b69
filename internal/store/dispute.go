package store

import (
	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/sim"
)

// CardDispute is one cardholder dispute against a settled transaction.
type CardDispute struct {
	DisputeID         sim.EntityID
	TxnID             sim.EntityID
	CustomerID        sim.EntityID
	AccountID         sim.EntityID
	Amount            float64
	ReasonCode        string
	Status            string // filed | investigating | resolved
	FiledTick         sim.Tick
	Outcome           string
	ProvisionalCredit float64
}

func (s *Store) InsertCardDispute(runID sim.RunID, d *CardDispute) error {
	_, err := s.db.Exec(
		`INSERT INTO card_dispute (dispute_id, run_id, txn_id, customer_id, account_id, amount, reason_code, status, filed_tick, provisional_credit)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.DisputeID, runID, d.TxnID, d.CustomerID, d.AccountID, d.Amount,
		d.ReasonCode, d.Status, int64(d.FiledTick), d.ProvisionalCredit,
	)
	if err != nil {
		return sim.StoreErr("insert card dispute", err)
	}
	return nil
}

func (s *Store) OpenCardDisputes(runID sim.RunID) ([]CardDispute, error) {
	rows, err := s.db.Query(
		`SELECT dispute_id, txn_id, customer_id, account_id, amount, reason_code, status, filed_tick, provisional_credit
		 FROM card_dispute WHERE run_id = ? AND status != 'resolved'
		 ORDER BY dispute_id ASC`,
		runID,
	)
	if err != nil {
		return nil, sim.StoreErr("query open card disputes", err)
	}
	defer rows.Close()

	var disputes []CardDispute
	for rows.Next() {
		var d CardDispute
		var filed int64
		if err := rows.Scan(&d.DisputeID, &d.TxnID, &d.CustomerID, &d.AccountID, &d.Amount, &d.ReasonCode, &d.Status, &filed, &d.ProvisionalCredit); err != nil {
			return nil, sim.StoreErr("scan card dispute", err)
		}
		d.FiledTick = sim.Tick(filed)
		disputes = append(disputes, d)
	}
	if err := rows.Err(); err != nil {
		return nil, sim.StoreErr("iterate card disputes", err)
	}
	return disputes, nil
}

func (s *Store) UpdateDisputeStatus(runID sim.RunID, disputeID sim.EntityID, status string) error {
	_, err := s.db.Exec(
		`UPDATE card_dispute SET status = ? WHERE run_id = ? AND dispute_id = ?`,
		status, runID, disputeID,
	)
	if err != nil {
		return sim.StoreErr("update dispute status", err)
	}
	return nil
}

func (s *Store) ResolveCardDispute(runID sim.RunID, disputeID sim.EntityID, tick sim.Tick, outcome string) error {
	_, err := s.db.Exec(
		`UPDATE card_dispute SET status = 'resolved', resolved_tick = ?, outcome = ? WHERE run_id = ? AND dispute_id = ?`,
		int64(tick), outcome, runID, disputeID,
	)
	if err != nil {
		return sim.StoreErr("resolve card dispute", err)
	}
	return nil
}

func (s *Store) SetProvisionalCredit(runID sim.RunID, disputeID sim.EntityID, amount float64) error {
	_, err := s.db.Exec(
		`UPDATE card_dispute SET provisional_credit = ? WHERE run_id = ? AND dispute_id = ?`,
		amount, runID, disputeID,
	)
	if err != nil {
		return sim.StoreErr("set provisional credit", err)
	}
	return nil
}

func (s *Store) CardDisputeCount(runID sim.RunID) (int64, error) {
	var count int64
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM card_dispute WHERE run_id = ?", runID,
	).Scan(&count)
	if err != nil {
		return 0, sim.StoreErr("count card disputes", err)
	}
	return count, nil
}

func (s *Store) ChargebackCount(runID sim.RunID) (int64, error) {
	var count int64
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM card_dispute WHERE run_id = ? AND outcome = 'chargeback'", runID,
	).Scan(&count)
	if err != nil {
		return 0, sim.StoreErr("count chargebacks", err)
	}
	return count, nil
}
