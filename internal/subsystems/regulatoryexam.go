package subsystems

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/config"
	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/sim"
	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/store"
)

const dataIntegrityFindingProbability = 0.10

// RegulatoryExam models periodic examinations (OCC, CFPB, FDIC, FRB): it
// opens an exam cycle on the configured interval, scans the event log for
// compliance evidence over the exam window, then records findings, levies
// severity-scaled fines, and issues an MOU when critical findings pile up.
// The reputation subsystem reads the closing events downstream.
type RegulatoryExam struct {
	runID       sim.RunID
	cfg         *config.Config
	store       *store.Store
	examinerIdx int
}

func NewRegulatoryExam(runID sim.RunID, cfg *config.Config, st *store.Store) *RegulatoryExam {
	return &RegulatoryExam{runID: runID, cfg: cfg, store: st}
}

func (r *RegulatoryExam) Name() string { return sim.SlotRegulatoryExam.Name() }

func (r *RegulatoryExam) Update(tick sim.Tick, _ []sim.Event, rng *sim.Rand) ([]sim.Event, error) {
	exams := &r.cfg.RegulatoryExams
	if !exams.Enabled {
		return nil, nil
	}

	var out []sim.Event

	// 1. Close an open exam whose window has elapsed.
	open, found, err := r.store.OpenExam(r.runID)
	if err != nil {
		return nil, err
	}
	if found && tick-open.TickStarted >= exams.ExamDurationTicks {
		closed, err := r.closeExam(tick, open, rng)
		if err != nil {
			return nil, err
		}
		out = append(out, closed...)
		found = false
	}

	// 2. Open a new exam on the interval (offset by 1 so tick 1 isn't an
	// instant exam), but never two at once.
	if tick > 1 && (tick-1)%exams.ExamIntervalTicks == 0 && !found {
		opened, err := r.openExam(tick, rng)
		if err != nil {
			return nil, err
		}
		out = append(out, opened...)
	}

	return out, nil
}

func (r *RegulatoryExam) openExam(tick sim.Tick, rng *sim.Rand) ([]sim.Event, error) {
	examiner := r.nextExaminer()
	var scope string
	switch r.examinerIdx % 3 {
	case 0:
		scope = "targeted_aml"
	case 1:
		scope = "targeted_complaints"
	default:
		scope = "full"
	}
	examID := fmt.Sprintf("exam-%s-%d-%04d", strings.ToLower(examiner), tick, rng.Uint64Below(10000))

	if err := r.store.InsertRegulatoryExam(r.runID, examID, tick, examiner, scope); err != nil {
		return nil, err
	}

	slog.Info("regulatory exam opened", "tick", tick, "exam_id", examID, "examiner", examiner, "scope", scope)

	return []sim.Event{sim.RegulatoryExamStarted{
		Tick:     tick,
		ExamID:   examID,
		Examiner: examiner,
		Scope:    scope,
	}}, nil
}

func (r *RegulatoryExam) nextExaminer() string {
	examiners := r.cfg.RegulatoryExams.Examiners
	if len(examiners) == 0 {
		return "OCC"
	}
	name := examiners[r.examinerIdx%len(examiners)]
	r.examinerIdx++
	return name
}

// closeExam evaluates the exam window's evidence, records findings, and
// emits the closing events.
func (r *RegulatoryExam) closeExam(tick sim.Tick, exam *store.RegulatoryExam, rng *sim.Rand) ([]sim.Event, error) {
	findings, fineTotal, criticalCount, err := r.deriveFindings(exam, tick, rng)
	if err != nil {
		return nil, err
	}

	var events []sim.Event
	for _, finding := range findings {
		if err := r.store.InsertExamFinding(r.runID, tick, &finding); err != nil {
			return nil, err
		}
		events = append(events, sim.ExamFindingRecorded{
			Tick:       tick,
			ExamID:     exam.ExamID,
			FindingID:  finding.FindingID,
			Category:   finding.Category,
			Severity:   finding.Severity,
			FineAmount: finding.FineAmount,
		})
	}

	mouIssued := criticalCount >= r.cfg.RegulatoryExams.MOUCriticalThreshold
	findingCount := int64(len(findings))

	if err := r.store.CloseRegulatoryExam(r.runID, exam.ExamID, tick, fineTotal, findingCount, mouIssued); err != nil {
		return nil, err
	}

	events = append(events, sim.RegulatoryExamClosed{
		Tick:         tick,
		ExamID:       exam.ExamID,
		Examiner:     exam.Examiner,
		FindingCount: findingCount,
		FineTotal:    fineTotal,
		MOUIssued:    mouIssued,
	})

	if mouIssued {
		events = append(events, sim.MOUReceived{
			Tick:      tick,
			ExamID:    exam.ExamID,
			Examiner:  exam.Examiner,
			FineTotal: fineTotal,
		})
		slog.Warn("mou issued",
			"tick", tick, "examiner", exam.Examiner, "findings", findingCount, "fines", fineTotal)
	} else {
		slog.Info("regulatory exam closed",
			"tick", tick, "exam_id", exam.ExamID, "findings", findingCount, "fines", fineTotal)
	}

	return events, nil
}

// deriveFindings counts negative signal events in the exam window and
// turns them into severity-graded findings.
func (r *RegulatoryExam) deriveFindings(exam *store.RegulatoryExam, tick sim.Tick, rng *sim.Rand) ([]store.ExamFinding, float64, uint32, error) {
	slaBreaches, err := r.store.CountEventsInRange(r.runID, exam.TickStarted, tick, "sla_breached")
	if err != nil {
		return nil, 0, 0, err
	}
	incidentBreaches, err := r.store.CountEventsInRange(r.runID, exam.TickStarted, tick, "incident_sla_breach")
	if err != nil {
		return nil, 0, 0, err
	}
	sarLate, err := r.store.CountEventsInRange(r.runID, exam.TickStarted, tick, "sar_late_filing")
	if err != nil {
		return nil, 0, 0, err
	}
	totalBreaches := slaBreaches + incidentBreaches

	var findings []store.ExamFinding
	var fineTotal float64
	var criticalCount uint32

	newFinding := func(kind, category, severity, description string, fine float64) {
		findings = append(findings, store.ExamFinding{
			FindingID:   fmt.Sprintf("fnd-%s-%s-%05d", exam.ExamID, kind, rng.Uint64Below(100000)),
			ExamID:      exam.ExamID,
			Category:    category,
			Severity:    severity,
			Description: description,
			FineAmount:  fine,
		})
		fineTotal += fine
		if severity == "critical" {
			criticalCount++
		}
	}

	// SAR timeliness findings.
	if sarLate > 0 {
		switch {
		case sarLate == 1:
			newFinding("sar", "sar_timeliness", "moderate",
				"Late SAR filing detected in exam window", r.fineFor("moderate"))
		case sarLate <= 4:
			newFinding("sar", "sar_timeliness", "major",
				"Multiple late SAR filings detected", r.fineFor("major"))
		default:
			newFinding("sar", "sar_timeliness", "critical",
				"Systemic SAR filing failures — excessive late filings", r.fineFor("critical"))
		}
	}

	// Complaint and incident SLA findings.
	switch {
	case totalBreaches > 50:
		newFinding("sla", "complaint_sla", "major",
			"Persistent SLA breach pattern across exam window", r.fineFor("major"))
	case totalBreaches > 10:
		newFinding("sla", "complaint_sla", "moderate",
			"Elevated complaint SLA breach rate in exam window", r.fineFor("moderate"))
	case totalBreaches > 0:
		newFinding("sla", "complaint_sla", "minor",
			"Minor complaint SLA deviations noted", r.fineFor("minor"))
	}

	// Probabilistic data-integrity finding at a low base rate.
	if rng.Chance(dataIntegrityFindingProbability) {
		newFinding("di", "data_integrity", "minor",
			"Minor data integrity gaps identified", r.fineFor("minor"))
	}

	return findings, fineTotal, criticalCount, nil
}

func (r *RegulatoryExam) fineFor(severity string) float64 {
	exams := &r.cfg.RegulatoryExams
	switch severity {
	case "moderate":
		return exams.FineModerate
	case "major":
		return exams.FineMajor
	case "critical":
		return exams.FineCritical
	default:
		return exams.FineMinor
	}
}
