package store

import (
	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/sim"
)

// PnLSnapshot is one quarter's profit and loss statement.
type PnLSnapshot struct {
	Tick            sim.Tick `json:"tick"`
	Period          string   `json:"period"`
	NII             float64  `json:"nii"`
	FeeIncome       float64  `json:"fee_income"`
	GrossIncome     float64  `json:"gross_income"`
	CreditLoss      float64  `json:"credit_loss"`
	FraudLoss       float64  `json:"fraud_loss"`
	Opex            float64  `json:"opex"`
	ComplaintCost   float64  `json:"complaint_cost"`
	PreTaxProfit    float64  `json:"pre_tax_profit"`
	NIM             float64  `json:"nim"`
	EfficiencyRatio float64  `json:"efficiency_ratio"`
	AvgDeposits     float64  `json:"avg_deposits"`
	CustomerCount   int64    `json:"customer_count"`
	ActiveAccounts  int64    `json:"active_accounts"`
}

func (s *Store) InsertPnLSnapshot(runID sim.RunID, p *PnLSnapshot) error {
	_, err := s.db.Exec(
		`INSERT INTO pnl_snapshot (
			run_id, tick, period, nii, fee_income, gross_income, credit_loss,
			fraud_loss, opex, complaint_cost, pre_tax_profit, nim,
			efficiency_ratio, avg_deposits, customer_count, active_accounts
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, int64(p.Tick), p.Period, p.NII, p.FeeIncome, p.GrossIncome,
		p.CreditLoss, p.FraudLoss, p.Opex, p.ComplaintCost, p.PreTaxProfit,
		p.NIM, p.EfficiencyRatio, p.AvgDeposits, p.CustomerCount, p.ActiveAccounts,
	)
	if err != nil {
		return sim.StoreErr("insert pnl snapshot", err)
	}
	return nil
}

// AllPnLSnapshots returns every quarter in tick order.
func (s *Store) AllPnLSnapshots(runID sim.RunID) ([]PnLSnapshot, error) {
	rows, err := s.db.Query(
		`SELECT tick, period, nii, fee_income, gross_income, credit_loss,
		        fraud_loss, opex, complaint_cost, pre_tax_profit, nim,
		        efficiency_ratio, avg_deposits, customer_count, active_accounts
		 FROM pnl_snapshot WHERE run_id = ? ORDER BY tick ASC`,
		runID,
	)
	if err != nil {
		return nil, sim.StoreErr("query pnl snapshots", err)
	}
	defer rows.Close()

	var snaps []PnLSnapshot
	for rows.Next() {
		var p PnLSnapshot
		var tick int64
		if err := rows.Scan(
			&tick, &p.Period, &p.NII, &p.FeeIncome, &p.GrossIncome,
			&p.CreditLoss, &p.FraudLoss, &p.Opex, &p.ComplaintCost,
			&p.PreTaxProfit, &p.NIM, &p.EfficiencyRatio, &p.AvgDeposits,
			&p.CustomerCount, &p.ActiveAccounts,
		); err != nil {
			return nil, sim.StoreErr("scan pnl snapshot", err)
		}
		p.Tick = sim.Tick(tick)
		snaps = append(snaps, p)
	}
	if err := rows.Err(); err != nil {
		return nil, sim.StoreErr("iterate pnl snapshots", err)
	}
	return snaps, nil
}

func (s *Store) PnLCount(runID sim.RunID) (int64, error) {
	var count int64
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM pnl_snapshot WHERE run_id = ?", runID,
	).Scan(&count)
	if err != nil {
		return 0, sim.StoreErr("count pnl snapshots", err)
	}
	return count, nil
}

// InsertMacroState records the macro subsystem's quarterly state.
func (s *Store) InsertMacroState(runID sim.RunID, tick sim.Tick, baseRate float64, phase string, fraudMultiplier float64) error {
	_, err := s.db.Exec(
		`INSERT INTO macro_state (run_id, tick, base_rate, economic_phase, fraud_multiplier)
		 VALUES (?, ?, ?, ?, ?)`,
		runID, int64(tick), baseRate, phase, fraudMultiplier,
	)
	if err != nil {
		return sim.StoreErr("insert macro state", err)
	}
	return nil
}

// AvgMacroBaseRate averages the recorded base rate over a tick window,
// falling back to the latest known rate when the window is empty.
func (s *Store) AvgMacroBaseRate(runID sim.RunID, startTick, endTick sim.Tick) (float64, error) {
	var avg float64
	var n int64
	err := s.db.QueryRow(
		`SELECT COALESCE(AVG(base_rate), 0), COUNT(*) FROM macro_state
		 WHERE run_id = ? AND tick BETWEEN ? AND ?`,
		runID, int64(startTick), int64(endTick),
	).Scan(&avg, &n)
	if err != nil {
		return 0, sim.StoreErr("average macro base rate", err)
	}
	if n > 0 {
		return avg, nil
	}
	err = s.db.QueryRow(
		`SELECT COALESCE(
			(SELECT base_rate FROM macro_state WHERE run_id = ? ORDER BY tick DESC LIMIT 1), 0.05)`,
		runID,
	).Scan(&avg)
	if err != nil {
		return 0, sim.StoreErr("latest macro base rate", err)
	}
	return avg, nil
}

// LatestFraudMultiplier returns the most recent macro fraud multiplier,
// defaulting to 1.0 before the first quarterly update.
func (s *Store) LatestFraudMultiplier(runID sim.RunID) (float64, error) {
	var m float64
	err := s.db.QueryRow(
		`SELECT COALESCE(
			(SELECT fraud_multiplier FROM macro_state WHERE run_id = ? ORDER BY tick DESC LIMIT 1), 1.0)`,
		runID,
	).Scan(&m)
	if err != nil {
		return 0, sim.StoreErr("latest fraud multiplier", err)
	}
	return m, nil
}
