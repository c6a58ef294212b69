package subsystems

import (
	"fmt"
	"log/slog"

	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/sim"
	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/store"
)

const (
	ctrThreshold            = 10000.0 // aggregate daily cash
	structuringFloor        = 8000.0  // just-under-threshold window
	structuringLookback     = 7
	monitoringMetricsPeriod = 7

	// SAR filing pipeline. A SAR is due 30 ticks after its source alert;
	// investigations take at least sarInvestigationTicks, and the desk
	// files at most sarFilingCapacityPerTick reports per tick, so a
	// backlogged desk genuinely files late.
	sarScoreThreshold        = 0.85
	sarDeadlineTicks         = 30
	sarInvestigationTicks    = 7
	sarFilingCapacityPerTick = 1
	sarLateBaseFine          = 25000.0
	sarLateFinePerDay        = 1000.0
	sarMetricsInterval       = 30
)

// TransactionMonitoring watches cash activity for CTR-reportable totals
// and structuring (repeated just-under-threshold cash), files SARs from
// high-scoring alerts with deadline tracking, and publishes weekly alert
// and monthly SAR metrics.
type TransactionMonitoring struct {
	runID sim.RunID
	store *store.Store
}

func NewTransactionMonitoring(runID sim.RunID, st *store.Store) *TransactionMonitoring {
	return &TransactionMonitoring{runID: runID, store: st}
}

func (t *TransactionMonitoring) Name() string { return sim.SlotTxnMonitoring.Name() }

func (t *TransactionMonitoring) Update(tick sim.Tick, _ []sim.Event, rng *sim.Rand) ([]sim.Event, error) {
	var out []sim.Event

	// Daily CTR check on today's cash.
	today, err := t.store.CashActivitySince(t.runID, tick, tick)
	if err != nil {
		return nil, err
	}
	for _, activity := range today {
		if activity.Total < ctrThreshold {
			continue
		}
		ctrID := fmt.Sprintf("ctr-%08d-%016x", tick, rng.Uint64())
		if err := t.store.InsertCTR(t.runID, ctrID, activity.CustomerID, activity.Total, tick); err != nil {
			return nil, err
		}
		out = append(out, sim.CTRFiled{
			Tick:       tick,
			CTRID:      ctrID,
			CustomerID: activity.CustomerID,
			Amount:     activity.Total,
		})
	}

	// Structuring: repeated cash in the just-under-threshold band over
	// the lookback window.
	windowStart := sim.Tick(0)
	if tick > structuringLookback {
		windowStart = tick - structuringLookback
	}
	window, err := t.store.CashActivitySince(t.runID, windowStart, tick)
	if err != nil {
		return nil, err
	}
	for _, activity := range window {
		if activity.Total < structuringFloor || activity.Total >= ctrThreshold || activity.TxnCount < 3 {
			continue
		}
		already, err := t.store.HasMonitoringAlert(t.runID, activity.AccountID, "structuring")
		if err != nil {
			return nil, err
		}
		if already {
			continue
		}
		score := 0.70 + rng.Float64()*0.25
		alertID := fmt.Sprintf("tma-%08d-%016x", tick, rng.Uint64())
		if err := t.store.InsertMonitoringAlert(t.runID, alertID, activity.AccountID, "structuring", score, tick); err != nil {
			return nil, err
		}
		out = append(out, sim.TransactionMonitoringAlert{
			Tick:      tick,
			AlertID:   alertID,
			AccountID: activity.AccountID,
			Rule:      "structuring",
			Score:     score,
		})
	}

	// File SARs for high-scoring alerts past their investigation window.
	sarEvents, err := t.fileSARs(tick, rng)
	if err != nil {
		return nil, err
	}
	out = append(out, sarEvents...)

	// Weekly metrics.
	if tick%monitoringMetricsPeriod == 0 {
		open, closed, err := t.store.MonitoringAlertCounts(t.runID)
		if err != nil {
			return nil, err
		}
		rate := 0.0
		if open+closed > 0 {
			rate = float64(closed) / float64(open+closed)
		}
		out = append(out, sim.TransactionMonitoringMetricsComputed{
			Tick:             tick,
			AlertsOpen:       open,
			AlertsClosed:     closed,
			TruePositiveRate: rate,
		})
	}

	// Monthly SAR filing metrics.
	if tick%sarMetricsInterval == 0 {
		windowStart := sim.Tick(0)
		if tick > sarMetricsInterval {
			windowStart = tick - sarMetricsInterval
		}
		metrics, err := t.store.SARMetricsSince(t.runID, windowStart)
		if err != nil {
			return nil, err
		}
		out = append(out, sim.SARMetricsComputed{
			Tick:       tick,
			SARsFiled:  metrics.Filed,
			SARsLate:   metrics.Late,
			TotalFines: metrics.TotalFines,
		})
	}

	return out, nil
}

// fileSARs drains the SAR queue: alerts scoring at or above the SAR
// threshold whose investigation has run its course, oldest first, capped
// per tick. A SAR filed past alert+30 ticks is late and fined.
func (t *TransactionMonitoring) fileSARs(tick sim.Tick, rng *sim.Rand) ([]sim.Event, error) {
	var out []sim.Event

	queue, err := t.store.AlertsForSARFiling(t.runID, sarScoreThreshold)
	if err != nil {
		return nil, err
	}

	filed := 0
	for _, alert := range queue {
		if filed >= sarFilingCapacityPerTick {
			break
		}
		if tick < alert.CreatedTick+sarInvestigationTicks {
			continue
		}

		dueTick := alert.CreatedTick + sarDeadlineTicks
		var daysLate int64
		var fine float64
		if tick > dueTick {
			daysLate = int64(tick - dueTick)
			fine = sarLateBaseFine + float64(daysLate)*sarLateFinePerDay
		}

		sar := &store.SARFiling{
			SARID:          fmt.Sprintf("sar-%08d-%016x", tick, rng.Uint64()),
			CustomerID:     alert.CustomerID,
			ActivityType:   alert.Rule,
			SourceAlertID:  alert.AlertID,
			FiledTick:      tick,
			DueTick:        dueTick,
			DaysLate:       daysLate,
			RegulatoryFine: fine,
		}
		if err := t.store.InsertSAR(t.runID, sar); err != nil {
			return nil, err
		}
		if err := t.store.MarkAlertSARFiled(t.runID, alert.AlertID); err != nil {
			return nil, err
		}

		out = append(out, sim.SARFiled{
			Tick:         tick,
			SARID:        sar.SARID,
			CustomerID:   alert.CustomerID,
			ActivityType: alert.Rule,
		})
		if daysLate > 0 {
			out = append(out, sim.SARLateFiling{
				Tick:           tick,
				SARID:          sar.SARID,
				CustomerID:     alert.CustomerID,
				DaysLate:       daysLate,
				RegulatoryFine: fine,
			})
			slog.Warn("sar filed late",
				"tick", tick, "sar_id", sar.SARID, "days_late", daysLate, "fine", fine)
		}
		filed++
	}

	return out, nil
}
