package store

import (
	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/sim"
)

// ── Fraud detection ────────────────────────────────────────────

func (s *Store) InsertFraudAlert(runID sim.RunID, alertID, accountID sim.EntityID, pattern string, score float64, tick sim.Tick) error {
	_, err := s.db.Exec(
		`INSERT INTO fraud_alert (alert_id, run_id, account_id, pattern, score, created_tick, status)
		 VALUES (?, ?, ?, ?, ?, ?, 'open')`,
		alertID, runID, accountID, pattern, score, int64(tick),
	)
	if err != nil {
		return sim.StoreErr("insert fraud alert", err)
	}
	return nil
}

func (s *Store) FraudAlertCount(runID sim.RunID) (int64, error) {
	var count int64
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM fraud_alert WHERE run_id = ?", runID,
	).Scan(&count)
	if err != nil {
		return 0, sim.StoreErr("count fraud alerts", err)
	}
	return count, nil
}

// ── AML screening ──────────────────────────────────────────────

func (s *Store) InsertAMLScreening(runID sim.RunID, screeningID, customerID sim.EntityID, listName string, matchScore float64, tick sim.Tick) error {
	_, err := s.db.Exec(
		`INSERT INTO aml_screening (screening_id, run_id, customer_id, list_name, match_score, screened_tick)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		screeningID, runID, customerID, listName, matchScore, int64(tick),
	)
	if err != nil {
		return sim.StoreErr("insert aml screening", err)
	}
	return nil
}

func (s *Store) InsertAMLAlert(runID sim.RunID, alertID, customerID sim.EntityID, alertType, severity string, tick sim.Tick) error {
	_, err := s.db.Exec(
		`INSERT INTO aml_alert (alert_id, run_id, customer_id, alert_type, severity, created_tick, status)
		 VALUES (?, ?, ?, ?, ?, ?, 'open')`,
		alertID, runID, customerID, alertType, severity, int64(tick),
	)
	if err != nil {
		return sim.StoreErr("insert aml alert", err)
	}
	return nil
}

// AMLCounts summarizes screening activity for the metrics event.
type AMLCounts struct {
	Screened int64
	Hits     int64
	Alerts   int64
}

func (s *Store) AMLCountsSince(runID sim.RunID, sinceTick sim.Tick) (AMLCounts, error) {
	var c AMLCounts
	err := s.db.QueryRow(
		`SELECT
			(SELECT COUNT(*) FROM aml_screening WHERE run_id = ?1 AND screened_tick >= ?2),
			(SELECT COUNT(*) FROM aml_screening WHERE run_id = ?1 AND screened_tick >= ?2 AND match_score > 0),
			(SELECT COUNT(*) FROM aml_alert WHERE run_id = ?1 AND created_tick >= ?2)`,
		runID, int64(sinceTick),
	).Scan(&c.Screened, &c.Hits, &c.Alerts)
	if err != nil {
		return AMLCounts{}, sim.StoreErr("aml counts", err)
	}
	return c, nil
}

// SARFiling is one suspicious activity report. DueTick is the filing
// deadline derived from the source alert; DaysLate and RegulatoryFine are
// non-zero when the report was filed past it.
type SARFiling struct {
	SARID          sim.EntityID
	CustomerID     sim.EntityID
	ActivityType   string
	SourceAlertID  sim.EntityID
	FiledTick      sim.Tick
	DueTick        sim.Tick
	DaysLate       int64
	RegulatoryFine float64
}

func (s *Store) InsertSAR(runID sim.RunID, sar *SARFiling) error {
	_, err := s.db.Exec(
		`INSERT INTO sar_filing (sar_id, run_id, customer_id, activity_type, source_alert_id, filed_tick, due_tick, days_late, regulatory_fine)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sar.SARID, runID, sar.CustomerID, sar.ActivityType, sar.SourceAlertID,
		int64(sar.FiledTick), int64(sar.DueTick), sar.DaysLate, sar.RegulatoryFine,
	)
	if err != nil {
		return sim.StoreErr("insert sar filing", err)
	}
	return nil
}

// SARMetrics summarizes SAR filing activity in a tick window.
type SARMetrics struct {
	Filed      int64
	Late       int64
	TotalFines float64
}

func (s *Store) SARMetricsSince(runID sim.RunID, sinceTick sim.Tick) (SARMetrics, error) {
	var m SARMetrics
	err := s.db.QueryRow(
		`SELECT COUNT(*),
		        COALESCE(SUM(CASE WHEN days_late > 0 THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(regulatory_fine), 0)
		 FROM sar_filing WHERE run_id = ? AND filed_tick >= ?`,
		runID, int64(sinceTick),
	).Scan(&m.Filed, &m.Late, &m.TotalFines)
	if err != nil {
		return SARMetrics{}, sim.StoreErr("sar metrics", err)
	}
	return m, nil
}

func (s *Store) SARCount(runID sim.RunID) (int64, error) {
	var count int64
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM sar_filing WHERE run_id = ?", runID,
	).Scan(&count)
	if err != nil {
		return 0, sim.StoreErr("count sar filings", err)
	}
	return count, nil
}

func (s *Store) InsertCTR(runID sim.RunID, ctrID, customerID sim.EntityID, amount float64, tick sim.Tick) error {
	_, err := s.db.Exec(
		`INSERT INTO ctr_filing (ctr_id, run_id, customer_id, amount, filed_tick)
		 VALUES (?, ?, ?, ?, ?)`,
		ctrID, runID, customerID, amount, int64(tick),
	)
	if err != nil {
		return sim.StoreErr("insert ctr filing", err)
	}
	return nil
}

// ── Transaction monitoring ─────────────────────────────────────

func (s *Store) InsertMonitoringAlert(runID sim.RunID, alertID, accountID sim.EntityID, rule string, score float64, tick sim.Tick) error {
	_, err := s.db.Exec(
		`INSERT INTO monitoring_alert (alert_id, run_id, account_id, rule, score, created_tick, status)
		 VALUES (?, ?, ?, ?, ?, ?, 'open')`,
		alertID, runID, accountID, rule, score, int64(tick),
	)
	if err != nil {
		return sim.StoreErr("insert monitoring alert", err)
	}
	return nil
}

// MonitoringAlertCounts returns open and closed alert totals.
func (s *Store) MonitoringAlertCounts(runID sim.RunID) (open, closed int64, err error) {
	err = s.db.QueryRow(
		`SELECT
			(SELECT COUNT(*) FROM monitoring_alert WHERE run_id = ?1 AND status = 'open'),
			(SELECT COUNT(*) FROM monitoring_alert WHERE run_id = ?1 AND status != 'open')`,
		runID,
	).Scan(&open, &closed)
	if err != nil {
		return 0, 0, sim.StoreErr("monitoring alert counts", err)
	}
	return open, closed, nil
}

// MonitoringAlertRow pairs an alert with its owning customer, for the SAR
// filing queue.
type MonitoringAlertRow struct {
	AlertID     sim.EntityID
	AccountID   sim.EntityID
	CustomerID  sim.EntityID
	Rule        string
	Score       float64
	CreatedTick sim.Tick
}

// AlertsForSARFiling lists alerts at or above the SAR score threshold that
// have no SAR on file yet, oldest first so the filing queue drains in
// detection order.
func (s *Store) AlertsForSARFiling(runID sim.RunID, minScore float64) ([]MonitoringAlertRow, error) {
	rows, err := s.db.Query(
		`SELECT m.alert_id, m.account_id, a.customer_id, m.rule, m.score, m.created_tick
		 FROM monitoring_alert m
		 JOIN account a ON a.run_id = m.run_id AND a.account_id = m.account_id
		 WHERE m.run_id = ? AND m.sar_filed = 0 AND m.score >= ?
		 ORDER BY m.created_tick ASC, m.alert_id ASC`,
		runID, minScore,
	)
	if err != nil {
		return nil, sim.StoreErr("query alerts for sar filing", err)
	}
	defer rows.Close()

	var alerts []MonitoringAlertRow
	for rows.Next() {
		var a MonitoringAlertRow
		var created int64
		if err := rows.Scan(&a.AlertID, &a.AccountID, &a.CustomerID, &a.Rule, &a.Score, &created); err != nil {
			return nil, sim.StoreErr("scan alert for sar filing", err)
		}
		a.CreatedTick = sim.Tick(created)
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, sim.StoreErr("iterate alerts for sar filing", err)
	}
	return alerts, nil
}

// MarkAlertSARFiled records that an alert's SAR has been filed.
func (s *Store) MarkAlertSARFiled(runID sim.RunID, alertID sim.EntityID) error {
	_, err := s.db.Exec(
		`UPDATE monitoring_alert SET sar_filed = 1 WHERE run_id = ? AND alert_id = ?`,
		runID, alertID,
	)
	if err != nil {
		return sim.StoreErr("mark alert sar filed", err)
	}
	return nil
}

// HasMonitoringAlert reports whether the account already has an open alert
// under the given rule, so structuring alerts are not refiled daily.
func (s *Store) HasMonitoringAlert(runID sim.RunID, accountID sim.EntityID, rule string) (bool, error) {
	var count int64
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM monitoring_alert WHERE run_id = ? AND account_id = ? AND rule = ? AND status = 'open'`,
		runID, accountID, rule,
	).Scan(&count)
	if err != nil {
		return false, sim.StoreErr("check monitoring alert", err)
	}
	return count > 0, nil
}
