package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/sim"
)

// ProductState is the live fee configuration of one product.
type ProductState struct {
	ProductID    string
	MonthlyFee   float64
	OverdraftFee float64
	NSFFee       float64
	ATMFee       float64
	WireFee      float64
	InterestRate float64
}

func (s *Store) InsertProductState(runID sim.RunID, p *ProductState, tick sim.Tick) error {
	_, err := s.db.Exec(
		`INSERT INTO product_state (run_id, product_id, monthly_fee, overdraft_fee, nsf_fee, atm_fee, wire_fee, interest_rate, updated_tick)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, p.ProductID, p.MonthlyFee, p.OverdraftFee, p.NSFFee, p.ATMFee,
		p.WireFee, p.InterestRate, int64(tick),
	)
	if err != nil {
		return sim.StoreErr("insert product state", err)
	}
	return nil
}

var feeColumns = map[string]string{
	"monthly_fee":   "monthly_fee",
	"overdraft_fee": "overdraft_fee",
	"nsf_fee":       "nsf_fee",
	"atm_fee":       "atm_fee",
	"wire_fee":      "wire_fee",
}

func (s *Store) UpdateProductFee(runID sim.RunID, productID, feeType string, newValue float64, tick sim.Tick) error {
	col, ok := feeColumns[feeType]
	if !ok {
		return sim.InvariantErr(fmt.Sprintf("unknown fee column %q", feeType))
	}
	_, err := s.db.Exec(
		fmt.Sprintf(`UPDATE product_state SET %s = ?, updated_tick = ? WHERE run_id = ? AND product_id = ?`, col),
		newValue, int64(tick), runID, productID,
	)
	if err != nil {
		return sim.StoreErr("update product fee", err)
	}
	return nil
}

func (s *Store) GetProductState(runID sim.RunID, productID string) (*ProductState, error) {
	var p ProductState
	err := s.db.QueryRow(
		`SELECT product_id, monthly_fee, overdraft_fee, nsf_fee, atm_fee, wire_fee, interest_rate
		 FROM product_state WHERE run_id = ? AND product_id = ?`,
		runID, productID,
	).Scan(&p.ProductID, &p.MonthlyFee, &p.OverdraftFee, &p.NSFFee, &p.ATMFee, &p.WireFee, &p.InterestRate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sim.StoreErr(fmt.Sprintf("product %s not found", productID), err)
	}
	if err != nil {
		return nil, sim.StoreErr("get product state", err)
	}
	return &p, nil
}

func (s *Store) LogFeeChange(runID sim.RunID, tick sim.Tick, productID, feeType string, oldValue, newValue float64, accepted bool) error {
	_, err := s.db.Exec(
		`INSERT INTO fee_change_log (run_id, tick, product_id, fee_type, old_value, new_value, accepted)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, int64(tick), productID, feeType, oldValue, newValue, boolToInt(accepted),
	)
	if err != nil {
		return sim.StoreErr("log fee change", err)
	}
	return nil
}

// FeeChangeRecord is one audited fee change.
type FeeChangeRecord struct {
	Tick      sim.Tick
	ProductID string
	FeeType   string
	OldValue  float64
	NewValue  float64
	Accepted  bool
}

func (s *Store) FeeChangeHistory(runID sim.RunID, productID string, limit int) ([]FeeChangeRecord, error) {
	rows, err := s.db.Query(
		`SELECT tick, product_id, fee_type, old_value, new_value, accepted
		 FROM fee_change_log WHERE run_id = ? AND product_id = ?
		 ORDER BY id DESC LIMIT ?`,
		runID, productID, limit,
	)
	if err != nil {
		return nil, sim.StoreErr("query fee change history", err)
	}
	defer rows.Close()

	var records []FeeChangeRecord
	for rows.Next() {
		var r FeeChangeRecord
		var tick int64
		var accepted int
		if err := rows.Scan(&tick, &r.ProductID, &r.FeeType, &r.OldValue, &r.NewValue, &accepted); err != nil {
			return nil, sim.StoreErr("scan fee change", err)
		}
		r.Tick = sim.Tick(tick)
		r.Accepted = accepted != 0
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, sim.StoreErr("iterate fee changes", err)
	}
	return records, nil
}

func (s *Store) InitRegulatoryScore(runID sim.RunID, tick sim.Tick) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO regulatory_score (run_id, udaap_score, updated_tick) VALUES (?, 0.0, ?)`,
		runID, int64(tick),
	)
	if err != nil {
		return sim.StoreErr("init regulatory score", err)
	}
	return nil
}

func (s *Store) AdjustUDAAPScore(runID sim.RunID, delta float64, tick sim.Tick) error {
	_, err := s.db.Exec(
		`UPDATE regulatory_score SET udaap_score = udaap_score + ?, updated_tick = ? WHERE run_id = ?`,
		delta, int64(tick), runID,
	)
	if err != nil {
		return sim.StoreErr("adjust udaap score", err)
	}
	return nil
}

func (s *Store) UDAAPScore(runID sim.RunID) (float64, error) {
	var score float64
	err := s.db.QueryRow(
		"SELECT udaap_score FROM regulatory_score WHERE run_id = ?", runID,
	).Scan(&score)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, sim.StoreErr("read udaap score", err)
	}
	return score, nil
}
