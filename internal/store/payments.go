package store

import (
	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/sim"
)

// PaymentBatch groups same-rail transactions settled together.
type PaymentBatch struct {
	BatchID     sim.EntityID
	Rail        string
	CreatedTick sim.Tick
	TxnCount    int64
	TotalAmount float64
	Status      string // open | settled
}

func (s *Store) InsertPaymentBatch(runID sim.RunID, b *PaymentBatch) error {
	_, err := s.db.Exec(
		`INSERT INTO payment_batch (batch_id, run_id, rail, created_tick, txn_count, total_amount, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.BatchID, runID, b.Rail, int64(b.CreatedTick), b.TxnCount, b.TotalAmount, b.Status,
	)
	if err != nil {
		return sim.StoreErr("insert payment batch", err)
	}
	return nil
}

func (s *Store) SettlePaymentBatch(runID sim.RunID, batchID sim.EntityID, tick sim.Tick) error {
	_, err := s.db.Exec(
		`UPDATE payment_batch SET status = 'settled', settled_tick = ? WHERE run_id = ? AND batch_id = ?`,
		int64(tick), runID, batchID,
	)
	if err != nil {
		return sim.StoreErr("settle payment batch", err)
	}
	return nil
}

// OpenPaymentBatches lists unsettled batches in creation order.
func (s *Store) OpenPaymentBatches(runID sim.RunID) ([]PaymentBatch, error) {
	rows, err := s.db.Query(
		`SELECT batch_id, rail, created_tick, txn_count, total_amount, status
		 FROM payment_batch WHERE run_id = ? AND status = 'open'
		 ORDER BY batch_id ASC`,
		runID,
	)
	if err != nil {
		return nil, sim.StoreErr("query open payment batches", err)
	}
	defer rows.Close()

	var batches []PaymentBatch
	for rows.Next() {
		var b PaymentBatch
		var created int64
		if err := rows.Scan(&b.BatchID, &b.Rail, &created, &b.TxnCount, &b.TotalAmount, &b.Status); err != nil {
			return nil, sim.StoreErr("scan payment batch", err)
		}
		b.CreatedTick = sim.Tick(created)
		batches = append(batches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, sim.StoreErr("iterate payment batches", err)
	}
	return batches, nil
}

// ReconException is one unmatched settlement awaiting investigation.
type ReconException struct {
	ExceptionID sim.EntityID
	Rail        string
	Amount      float64
	Reason      string
	CreatedTick sim.Tick
	Status      string // open | resolved | auto_cleared
	Escalated   bool
	SLABreached bool
}

func (s *Store) InsertReconException(runID sim.RunID, e *ReconException) error {
	_, err := s.db.Exec(
		`INSERT INTO recon_exception (exception_id, run_id, rail, amount, reason, created_tick, status, escalated, sla_breached)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ExceptionID, runID, e.Rail, e.Amount, e.Reason, int64(e.CreatedTick),
		e.Status, boolToInt(e.Escalated), boolToInt(e.SLABreached),
	)
	if err != nil {
		return sim.StoreErr("insert recon exception", err)
	}
	return nil
}

func (s *Store) OpenReconExceptions(runID sim.RunID) ([]ReconException, error) {
	rows, err := s.db.Query(
		`SELECT exception_id, rail, amount, reason, created_tick, status, escalated, sla_breached
		 FROM recon_exception WHERE run_id = ? AND status = 'open'
		 ORDER BY exception_id ASC`,
		runID,
	)
	if err != nil {
		return nil, sim.StoreErr("query open recon exceptions", err)
	}
	defer rows.Close()

	var exceptions []ReconException
	for rows.Next() {
		var e ReconException
		var created int64
		var escalated, breached int
		if err := rows.Scan(&e.ExceptionID, &e.Rail, &e.Amount, &e.Reason, &created, &e.Status, &escalated, &breached); err != nil {
			return nil, sim.StoreErr("scan recon exception", err)
		}
		e.CreatedTick = sim.Tick(created)
		e.Escalated = escalated != 0
		e.SLABreached = breached != 0
		exceptions = append(exceptions, e)
	}
	if err := rows.Err(); err != nil {
		return nil, sim.StoreErr("iterate recon exceptions", err)
	}
	return exceptions, nil
}

func (s *Store) CloseReconException(runID sim.RunID, exceptionID sim.EntityID, tick sim.Tick, status string) error {
	_, err := s.db.Exec(
		`UPDATE recon_exception SET status = ?, cleared_tick = ? WHERE run_id = ? AND exception_id = ?`,
		status, int64(tick), runID, exceptionID,
	)
	if err != nil {
		return sim.StoreErr("close recon exception", err)
	}
	return nil
}

func (s *Store) EscalateReconException(runID sim.RunID, exceptionID sim.EntityID) error {
	_, err := s.db.Exec(
		`UPDATE recon_exception SET escalated = 1 WHERE run_id = ? AND exception_id = ?`,
		runID, exceptionID,
	)
	if err != nil {
		return sim.StoreErr("escalate recon exception", err)
	}
	return nil
}

func (s *Store) MarkReconSLABreach(runID sim.RunID, exceptionID sim.EntityID) error {
	_, err := s.db.Exec(
		`UPDATE recon_exception SET sla_breached = 1 WHERE run_id = ? AND exception_id = ?`,
		runID, exceptionID,
	)
	if err != nil {
		return sim.StoreErr("mark recon sla breach", err)
	}
	return nil
}
