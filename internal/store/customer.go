package store

import (
	"database/sql"
	"errors"

	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/sim"
)

// CustomerRecord mirrors one row of the customer table.
type CustomerRecord struct {
	CustomerID     sim.EntityID
	Name           string
	Segment        string
	IncomeBand     string
	RiskBand       string
	OpenTick       sim.Tick
	Status         string
	ChurnRisk      float64
	Satisfaction   float64
	MonthlyTxnMean float64
	CashIntensity  float64
	PayrollAmount  float64
	HasPayroll     bool
}

func (s *Store) InsertCustomer(runID sim.RunID, c *CustomerRecord) error {
	_, err := s.db.Exec(
		`INSERT INTO customer (
			customer_id, run_id, name, segment, income_band, risk_band, open_tick,
			status, churn_risk, satisfaction, monthly_txn_mean, cash_intensity,
			payroll_amount, has_payroll
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.CustomerID, runID, c.Name, c.Segment, c.IncomeBand, c.RiskBand,
		int64(c.OpenTick), c.Status, c.ChurnRisk, c.Satisfaction,
		c.MonthlyTxnMean, c.CashIntensity, c.PayrollAmount, boolToInt(c.HasPayroll),
	)
	if err != nil {
		return sim.StoreErr("insert customer", err)
	}
	return nil
}

// ActiveCustomers returns every active customer ordered by id so iteration
// order is deterministic.
func (s *Store) ActiveCustomers(runID sim.RunID) ([]CustomerRecord, error) {
	rows, err := s.db.Query(
		`SELECT customer_id, name, segment, income_band, risk_band, open_tick,
		        status, churn_risk, satisfaction, monthly_txn_mean, cash_intensity,
		        payroll_amount, has_payroll
		 FROM customer WHERE run_id = ? AND status = 'active'
		 ORDER BY customer_id ASC`,
		runID,
	)
	if err != nil {
		return nil, sim.StoreErr("query active customers", err)
	}
	defer rows.Close()

	var customers []CustomerRecord
	for rows.Next() {
		var c CustomerRecord
		var openTick int64
		var hasPayroll int
		if err := rows.Scan(
			&c.CustomerID, &c.Name, &c.Segment, &c.IncomeBand, &c.RiskBand,
			&openTick, &c.Status, &c.ChurnRisk, &c.Satisfaction,
			&c.MonthlyTxnMean, &c.CashIntensity, &c.PayrollAmount, &hasPayroll,
		); err != nil {
			return nil, sim.StoreErr("scan customer", err)
		}
		c.OpenTick = sim.Tick(openTick)
		c.HasPayroll = hasPayroll != 0
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, sim.StoreErr("iterate customers", err)
	}
	return customers, nil
}

// ChurnCustomer marks a customer churned and closes their open accounts.
func (s *Store) ChurnCustomer(runID sim.RunID, customerID sim.EntityID, tick sim.Tick) error {
	_, err := s.db.Exec(
		`UPDATE customer SET status = 'churned', close_tick = ?
		 WHERE run_id = ? AND customer_id = ?`,
		int64(tick), runID, customerID,
	)
	if err != nil {
		return sim.StoreErr("churn customer", err)
	}
	_, err = s.db.Exec(
		`UPDATE account SET status = 'closed', close_tick = ?
		 WHERE run_id = ? AND customer_id = ? AND status = 'open'`,
		int64(tick), runID, customerID,
	)
	if err != nil {
		return sim.StoreErr("close churned accounts", err)
	}
	return nil
}

func (s *Store) UpdateCustomerSatisfaction(runID sim.RunID, customerID sim.EntityID, delta float64) error {
	_, err := s.db.Exec(
		`UPDATE customer
		 SET satisfaction = MAX(0.0, MIN(1.0, satisfaction + ?))
		 WHERE run_id = ? AND customer_id = ?`,
		delta, runID, customerID,
	)
	if err != nil {
		return sim.StoreErr("update customer satisfaction", err)
	}
	return nil
}

func (s *Store) AdjustCustomerChurnRisk(runID sim.RunID, customerID sim.EntityID, delta float64) error {
	_, err := s.db.Exec(
		`UPDATE customer
		 SET churn_risk = MAX(0.0, MIN(1.0, churn_risk + ?))
		 WHERE run_id = ? AND customer_id = ?`,
		delta, runID, customerID,
	)
	if err != nil {
		return sim.StoreErr("adjust customer churn risk", err)
	}
	return nil
}

// SetCustomerChurnState writes both churn risk and satisfaction at once,
// used by the monthly churn scoring pass.
func (s *Store) SetCustomerChurnState(runID sim.RunID, customerID sim.EntityID, churnRisk, satisfaction float64) error {
	_, err := s.db.Exec(
		`UPDATE customer SET churn_risk = ?, satisfaction = ?
		 WHERE run_id = ? AND customer_id = ?`,
		churnRisk, satisfaction, runID, customerID,
	)
	if err != nil {
		return sim.StoreErr("set customer churn state", err)
	}
	return nil
}

func (s *Store) CustomerCount(runID sim.RunID, status string) (int64, error) {
	var count int64
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM customer WHERE run_id = ? AND status = ?",
		runID, status,
	).Scan(&count)
	if err != nil {
		return 0, sim.StoreErr("count customers", err)
	}
	return count, nil
}

func (s *Store) ChurnedCustomerCount(runID sim.RunID) (int64, error) {
	return s.CustomerCount(runID, "churned")
}

func (s *Store) CustomerSatisfaction(runID sim.RunID, customerID sim.EntityID) (float64, error) {
	var satisfaction float64
	err := s.db.QueryRow(
		"SELECT satisfaction FROM customer WHERE run_id = ? AND customer_id = ?",
		runID, customerID,
	).Scan(&satisfaction)
	if err != nil {
		return 0, sim.StoreErr("read customer satisfaction", err)
	}
	return satisfaction, nil
}

// IdentityRecord is the onboarding identity row for one customer.
type IdentityRecord struct {
	CustomerID    sim.EntityID
	SSNStatus     string
	IdentityType  string
	AgeAtOpen     int64
	FirstSeenTick sim.Tick
}

func (s *Store) InsertCustomerIdentity(runID sim.RunID, rec *IdentityRecord) error {
	_, err := s.db.Exec(
		`INSERT INTO customer_identity (customer_id, run_id, ssn_status, identity_type, age_at_open, first_seen_tick)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.CustomerID, runID, rec.SSNStatus, rec.IdentityType, rec.AgeAtOpen, int64(rec.FirstSeenTick),
	)
	if err != nil {
		return sim.StoreErr("insert customer identity", err)
	}
	return nil
}

func (s *Store) InsertCustomerRiskScore(runID sim.RunID, customerID sim.EntityID, score float64, rating string, tick sim.Tick) error {
	_, err := s.db.Exec(
		`INSERT INTO customer_risk_score (customer_id, run_id, score, rating, scored_tick)
		 VALUES (?, ?, ?, ?, ?)`,
		customerID, runID, score, rating, int64(tick),
	)
	if err != nil {
		return sim.StoreErr("insert customer risk score", err)
	}
	return nil
}

// RiskScoredCustomer pairs a customer with their onboarding risk score,
// used by the screening and fraud passes.
type RiskScoredCustomer struct {
	CustomerID   sim.EntityID
	Name         string
	Segment      string
	Score        float64
	Rating       string
	IdentityType string
}

func (s *Store) RiskScoredCustomers(runID sim.RunID) ([]RiskScoredCustomer, error) {
	rows, err := s.db.Query(
		`SELECT c.customer_id, c.name, c.segment, r.score, r.rating, i.identity_type
		 FROM customer c
		 JOIN customer_risk_score r ON r.run_id = c.run_id AND r.customer_id = c.customer_id
		 JOIN customer_identity i ON i.run_id = c.run_id AND i.customer_id = c.customer_id
		 WHERE c.run_id = ? AND c.status = 'active'
		 ORDER BY c.customer_id ASC`,
		runID,
	)
	if err != nil {
		return nil, sim.StoreErr("query risk scored customers", err)
	}
	defer rows.Close()

	var out []RiskScoredCustomer
	for rows.Next() {
		var r RiskScoredCustomer
		if err := rows.Scan(&r.CustomerID, &r.Name, &r.Segment, &r.Score, &r.Rating, &r.IdentityType); err != nil {
			return nil, sim.StoreErr("scan risk scored customer", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, sim.StoreErr("iterate risk scored customers", err)
	}
	return out, nil
}

// ── Accounts ───────────────────────────────────────────────────

// AccountRow joins an open account with the behavioral fields of its owner.
type AccountRow struct {
	AccountID      sim.EntityID
	CustomerID     sim.EntityID
	ProductID      string
	Balance        float64
	MonthlyTxnMean float64
	CashIntensity  float64
	PayrollAmount  float64
	HasPayroll     bool
}

func (s *Store) InsertAccount(runID sim.RunID, accountID, customerID sim.EntityID, productID string, initialBalance float64, tick sim.Tick) error {
	_, err := s.db.Exec(
		`INSERT INTO account (account_id, run_id, customer_id, product_id, balance, available_balance, open_tick, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 'open')`,
		accountID, runID, customerID, productID, initialBalance, initialBalance, int64(tick),
	)
	if err != nil {
		return sim.StoreErr("insert account", err)
	}
	return nil
}

func (s *Store) ActiveAccounts(runID sim.RunID) ([]AccountRow, error) {
	rows, err := s.db.Query(
		`SELECT a.account_id, a.customer_id, a.product_id, a.balance,
		        c.monthly_txn_mean, c.cash_intensity, c.payroll_amount, c.has_payroll
		 FROM account a
		 JOIN customer c ON a.customer_id = c.customer_id AND a.run_id = c.run_id
		 WHERE a.run_id = ? AND a.status = 'open' AND c.status = 'active'
		 ORDER BY a.account_id ASC`,
		runID,
	)
	if err != nil {
		return nil, sim.StoreErr("query active accounts", err)
	}
	defer rows.Close()

	var accounts []AccountRow
	for rows.Next() {
		var a AccountRow
		var hasPayroll int
		if err := rows.Scan(
			&a.AccountID, &a.CustomerID, &a.ProductID, &a.Balance,
			&a.MonthlyTxnMean, &a.CashIntensity, &a.PayrollAmount, &hasPayroll,
		); err != nil {
			return nil, sim.StoreErr("scan account", err)
		}
		a.HasPayroll = hasPayroll != 0
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, sim.StoreErr("iterate accounts", err)
	}
	return accounts, nil
}

func (s *Store) AccountBalance(runID sim.RunID, accountID sim.EntityID) (float64, error) {
	var balance float64
	err := s.db.QueryRow(
		"SELECT balance FROM account WHERE run_id = ? AND account_id = ?",
		runID, accountID,
	).Scan(&balance)
	if err != nil {
		return 0, sim.StoreErr("read account balance", err)
	}
	return balance, nil
}

func (s *Store) UpdateAccountBalance(runID sim.RunID, accountID sim.EntityID, delta float64) error {
	_, err := s.db.Exec(
		`UPDATE account SET balance = balance + ?, available_balance = available_balance + ?
		 WHERE run_id = ? AND account_id = ?`,
		delta, delta, runID, accountID,
	)
	if err != nil {
		return sim.StoreErr("update account balance", err)
	}
	return nil
}

// HoldAvailableBalance reduces only the available balance, used for card
// authorization holds before settlement.
func (s *Store) HoldAvailableBalance(runID sim.RunID, accountID sim.EntityID, amount float64) error {
	_, err := s.db.Exec(
		`UPDATE account SET available_balance = available_balance - ?
		 WHERE run_id = ? AND account_id = ?`,
		amount, runID, accountID,
	)
	if err != nil {
		return sim.StoreErr("hold available balance", err)
	}
	return nil
}

// AccountProduct returns the product id an account was opened under.
func (s *Store) AccountProduct(runID sim.RunID, accountID sim.EntityID) (string, error) {
	var productID string
	err := s.db.QueryRow(
		"SELECT product_id FROM account WHERE run_id = ? AND account_id = ?",
		runID, accountID,
	).Scan(&productID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", sim.StoreErr("read account product", err)
	}
	return productID, nil
}

func (s *Store) ActiveAccountCount(runID sim.RunID) (int64, error) {
	var count int64
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM account WHERE run_id = ? AND status = 'open'",
		runID,
	).Scan(&count)
	if err != nil {
		return 0, sim.StoreErr("count active accounts", err)
	}
	return count, nil
}

// AvgAccountBalances returns the current mean balance across open accounts.
// The quarter window parameters are accepted for interface stability even
// though the current model uses point-in-time balances.
func (s *Store) AvgAccountBalances(runID sim.RunID, startTick, endTick sim.Tick) (float64, error) {
	var avg float64
	err := s.db.QueryRow(
		"SELECT COALESCE(AVG(balance), 0) FROM account WHERE run_id = ? AND status = 'open'",
		runID,
	).Scan(&avg)
	if err != nil {
		return 0, sim.StoreErr("average account balances", err)
	}
	return avg, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
