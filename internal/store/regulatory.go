package store

import (
	"database/sql"
	"errors"

	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/sim"
)

// RegulatoryExam is one examination cycle.
type RegulatoryExam struct {
	ExamID      sim.EntityID
	Examiner    string
	Scope       string
	TickStarted sim.Tick
}

func (s *Store) InsertRegulatoryExam(runID sim.RunID, examID sim.EntityID, tick sim.Tick, examiner, scope string) error {
	_, err := s.db.Exec(
		`INSERT INTO regulatory_exam (exam_id, run_id, examiner, scope, tick_started, status)
		 VALUES (?, ?, ?, ?, ?, 'open')`,
		examID, runID, examiner, scope, int64(tick),
	)
	if err != nil {
		return sim.StoreErr("insert regulatory exam", err)
	}
	return nil
}

// OpenExam returns the currently running exam, if any. At most one exam is
// open at a time.
func (s *Store) OpenExam(runID sim.RunID) (*RegulatoryExam, bool, error) {
	var exam RegulatoryExam
	var started int64
	err := s.db.QueryRow(
		`SELECT exam_id, examiner, scope, tick_started
		 FROM regulatory_exam WHERE run_id = ? AND status = 'open'
		 ORDER BY tick_started ASC LIMIT 1`,
		runID,
	).Scan(&exam.ExamID, &exam.Examiner, &exam.Scope, &started)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, sim.StoreErr("query open exam", err)
	}
	exam.TickStarted = sim.Tick(started)
	return &exam, true, nil
}

func (s *Store) CloseRegulatoryExam(runID sim.RunID, examID sim.EntityID, tick sim.Tick, fineTotal float64, findingCount int64, mouIssued bool) error {
	_, err := s.db.Exec(
		`UPDATE regulatory_exam
		 SET status = 'closed', tick_closed = ?, fine_total = ?, finding_count = ?, mou_issued = ?
		 WHERE run_id = ? AND exam_id = ?`,
		int64(tick), fineTotal, findingCount, boolToInt(mouIssued), runID, examID,
	)
	if err != nil {
		return sim.StoreErr("close regulatory exam", err)
	}
	return nil
}

// ExamFinding is one recorded deficiency from an exam.
type ExamFinding struct {
	FindingID   sim.EntityID
	ExamID      sim.EntityID
	Category    string
	Severity    string
	Description string
	FineAmount  float64
}

func (s *Store) InsertExamFinding(runID sim.RunID, tick sim.Tick, f *ExamFinding) error {
	_, err := s.db.Exec(
		`INSERT INTO exam_finding (finding_id, run_id, exam_id, tick, category, severity, description, fine_amount)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		f.FindingID, runID, f.ExamID, int64(tick), f.Category, f.Severity, f.Description, f.FineAmount,
	)
	if err != nil {
		return sim.StoreErr("insert exam finding", err)
	}
	return nil
}

func (s *Store) ExamFindingCount(runID sim.RunID) (int64, error) {
	var count int64
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM exam_finding WHERE run_id = ?", runID,
	).Scan(&count)
	if err != nil {
		return 0, sim.StoreErr("count exam findings", err)
	}
	return count, nil
}

// CountEventsInRange counts event-log rows of one event_type inside a tick
// window. The exam subsystem reads the log itself for compliance evidence.
func (s *Store) CountEventsInRange(runID sim.RunID, startTick, endTick sim.Tick, eventType string) (int64, error) {
	var count int64
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM event_log
		 WHERE run_id = ? AND tick BETWEEN ? AND ? AND event_type = ?`,
		runID, int64(startTick), int64(endTick), eventType,
	).Scan(&count)
	if err != nil {
		return 0, sim.StoreErr("count events in range", err)
	}
	return count, nil
}
