package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/sim"
)

// ComplaintRecord mirrors one row of the complaint table.
type ComplaintRecord struct {
	ComplaintID    sim.EntityID `json:"complaint_id"`
	CustomerID     sim.EntityID `json:"customer_id"`
	AccountID      string       `json:"account_id,omitempty"`
	TickOpened     sim.Tick     `json:"tick_opened"`
	TickClosed     *sim.Tick    `json:"tick_closed,omitempty"`
	Product        string       `json:"product"`
	Issue          string       `json:"issue"`
	Priority       string       `json:"priority"`
	Status         string       `json:"status"`
	SLADueTick     sim.Tick     `json:"sla_due_tick"`
	SLABreached    bool         `json:"sla_breached"`
	ResolutionCode string       `json:"resolution_code,omitempty"`
	AmountRefunded float64      `json:"amount_refunded"`
	UDAAPFlag      bool         `json:"udaap_flag"`
}

func (s *Store) InsertComplaint(runID sim.RunID, c *ComplaintRecord) error {
	var accountID any
	if c.AccountID != "" {
		accountID = c.AccountID
	}
	_, err := s.db.Exec(
		`INSERT INTO complaint (
			complaint_id, run_id, customer_id, account_id, tick_opened, product,
			issue, priority, status, sla_due_tick, sla_breached, amount_refunded, udaap_flag
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ComplaintID, runID, c.CustomerID, accountID, int64(c.TickOpened),
		c.Product, c.Issue, c.Priority, c.Status, int64(c.SLADueTick),
		boolToInt(c.SLABreached), c.AmountRefunded, boolToInt(c.UDAAPFlag),
	)
	if err != nil {
		return sim.StoreErr("insert complaint", err)
	}
	return nil
}

func (s *Store) GetComplaint(runID sim.RunID, complaintID sim.EntityID) (*ComplaintRecord, error) {
	row := s.db.QueryRow(
		`SELECT complaint_id, customer_id, account_id, tick_opened, tick_closed, product,
		        issue, priority, status, sla_due_tick, sla_breached, resolution_code,
		        amount_refunded, udaap_flag
		 FROM complaint WHERE run_id = ? AND complaint_id = ?`,
		runID, complaintID,
	)
	c, err := scanComplaint(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sim.StoreErr(fmt.Sprintf("complaint %s not found", complaintID), err)
	}
	if err != nil {
		return nil, sim.StoreErr("get complaint", err)
	}
	return c, nil
}

// OpenComplaints returns every open complaint in filing order.
func (s *Store) OpenComplaints(runID sim.RunID) ([]ComplaintRecord, error) {
	rows, err := s.db.Query(
		`SELECT complaint_id, customer_id, account_id, tick_opened, tick_closed, product,
		        issue, priority, status, sla_due_tick, sla_breached, resolution_code,
		        amount_refunded, udaap_flag
		 FROM complaint WHERE run_id = ? AND status = 'open'
		 ORDER BY tick_opened ASC, complaint_id ASC`,
		runID,
	)
	if err != nil {
		return nil, sim.StoreErr("query open complaints", err)
	}
	defer rows.Close()

	var complaints []ComplaintRecord
	for rows.Next() {
		c, err := scanComplaint(rows.Scan)
		if err != nil {
			return nil, sim.StoreErr("scan complaint", err)
		}
		complaints = append(complaints, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, sim.StoreErr("iterate complaints", err)
	}
	return complaints, nil
}

func (s *Store) CloseComplaint(runID sim.RunID, complaintID sim.EntityID, tick sim.Tick, resolutionCode string, amountRefunded float64) error {
	_, err := s.db.Exec(
		`UPDATE complaint
		 SET status = 'closed', tick_closed = ?, resolution_code = ?, amount_refunded = ?
		 WHERE run_id = ? AND complaint_id = ?`,
		int64(tick), resolutionCode, amountRefunded, runID, complaintID,
	)
	if err != nil {
		return sim.StoreErr("close complaint", err)
	}
	return nil
}

func (s *Store) MarkComplaintSLABreach(runID sim.RunID, complaintID sim.EntityID) error {
	_, err := s.db.Exec(
		`UPDATE complaint SET sla_breached = 1 WHERE run_id = ? AND complaint_id = ?`,
		runID, complaintID,
	)
	if err != nil {
		return sim.StoreErr("mark complaint sla breach", err)
	}
	return nil
}

func (s *Store) ComplaintCount(runID sim.RunID) (int64, error) {
	var count int64
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM complaint WHERE run_id = ?", runID,
	).Scan(&count)
	if err != nil {
		return 0, sim.StoreErr("count complaints", err)
	}
	return count, nil
}

func (s *Store) SLABreachCount(runID sim.RunID) (int64, error) {
	var count int64
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM complaint WHERE run_id = ? AND sla_breached = 1", runID,
	).Scan(&count)
	if err != nil {
		return 0, sim.StoreErr("count sla breaches", err)
	}
	return count, nil
}

func (s *Store) ComplaintBacklog(runID sim.RunID) (int64, error) {
	var count int64
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM complaint WHERE run_id = ? AND status = 'open'", runID,
	).Scan(&count)
	if err != nil {
		return 0, sim.StoreErr("count complaint backlog", err)
	}
	return count, nil
}

// ComplaintAggregate summarizes complaint flow for one aggregation tick.
type ComplaintAggregate struct {
	ComplaintsOpened int64
	ComplaintsClosed int64
	SLABreaches      int64
	BacklogCount     int64
}

// ComputeComplaintAggregate summarizes the window [tick-6, tick], one
// week at the weekly cadence the complaint subsystem runs aggregation on.
func (s *Store) ComputeComplaintAggregate(runID sim.RunID, tick sim.Tick) (ComplaintAggregate, error) {
	var agg ComplaintAggregate
	windowStart := int64(0)
	if tick >= 6 {
		windowStart = int64(tick - 6)
	}
	err := s.db.QueryRow(
		`SELECT
			(SELECT COUNT(*) FROM complaint WHERE run_id = ?1 AND tick_opened BETWEEN ?2 AND ?3),
			(SELECT COUNT(*) FROM complaint WHERE run_id = ?1 AND tick_closed BETWEEN ?2 AND ?3),
			(SELECT COUNT(*) FROM complaint WHERE run_id = ?1 AND sla_breached = 1),
			(SELECT COUNT(*) FROM complaint WHERE run_id = ?1 AND status = 'open')`,
		runID, windowStart, int64(tick),
	).Scan(&agg.ComplaintsOpened, &agg.ComplaintsClosed, &agg.SLABreaches, &agg.BacklogCount)
	if err != nil {
		return ComplaintAggregate{}, sim.StoreErr("compute complaint aggregate", err)
	}
	return agg, nil
}

func (s *Store) SaveComplaintAggregate(runID sim.RunID, tick sim.Tick, agg *ComplaintAggregate) error {
	_, err := s.db.Exec(
		`INSERT INTO complaint_aggregate (run_id, tick, complaints_opened, complaints_closed, sla_breaches, backlog_count)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		runID, int64(tick), agg.ComplaintsOpened, agg.ComplaintsClosed, agg.SLABreaches, agg.BacklogCount,
	)
	if err != nil {
		return sim.StoreErr("save complaint aggregate", err)
	}
	return nil
}

// SumComplaintsOpened counts complaints opened in a tick window.
func (s *Store) SumComplaintsOpened(runID sim.RunID, startTick, endTick sim.Tick) (int64, error) {
	var count int64
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM complaint WHERE run_id = ? AND tick_opened BETWEEN ? AND ?`,
		runID, int64(startTick), int64(endTick),
	).Scan(&count)
	if err != nil {
		return 0, sim.StoreErr("sum complaints opened", err)
	}
	return count, nil
}

// ComplaintCountForCustomerSince counts a customer's complaints opened in a
// lookback window, for churn scoring.
func (s *Store) ComplaintCountForCustomerSince(runID sim.RunID, customerID sim.EntityID, sinceTick sim.Tick) (int64, error) {
	var count int64
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM complaint WHERE run_id = ? AND customer_id = ? AND tick_opened >= ?`,
		runID, customerID, int64(sinceTick),
	).Scan(&count)
	if err != nil {
		return 0, sim.StoreErr("count customer complaints", err)
	}
	return count, nil
}

func scanComplaint(scan func(...any) error) (*ComplaintRecord, error) {
	var c ComplaintRecord
	var accountID, resolutionCode sql.NullString
	var tickOpened, slaDue int64
	var tickClosed sql.NullInt64
	var slaBreached, udaapFlag int
	if err := scan(
		&c.ComplaintID, &c.CustomerID, &accountID, &tickOpened, &tickClosed,
		&c.Product, &c.Issue, &c.Priority, &c.Status, &slaDue, &slaBreached,
		&resolutionCode, &c.AmountRefunded, &udaapFlag,
	); err != nil {
		return nil, err
	}
	c.AccountID = accountID.String
	c.ResolutionCode = resolutionCode.String
	c.TickOpened = sim.Tick(tickOpened)
	c.SLADueTick = sim.Tick(slaDue)
	if tickClosed.Valid {
		t := sim.Tick(tickClosed.Int64)
		c.TickClosed = &t
	}
	c.SLABreached = slaBreached != 0
	c.UDAAPFlag = udaapFlag != 0
	return &c, nil
}
