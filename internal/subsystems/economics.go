package subsystems

import (
	"fmt"
	"log/slog"

	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/config"
	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/sim"
	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/store"
)

// EconomicsUpdateInterval is the P&L cadence: quarterly.
const EconomicsUpdateInterval sim.Tick = 90

// Economics is reactive: it generates no transactions, only observes the
// prior quarter and computes the financial KPIs the desk is judged on.
type Economics struct {
	runID   sim.RunID
	cfg     *config.Config
	store   *store.Store
	quarter uint32
}

func NewEconomics(runID sim.RunID, cfg *config.Config, st *store.Store) *Economics {
	return &Economics{runID: runID, cfg: cfg, store: st}
}

func (e *Economics) Name() string { return sim.SlotEconomics.Name() }

func (e *Economics) Update(tick sim.Tick, _ []sim.Event, _ *sim.Rand) ([]sim.Event, error) {
	if tick%EconomicsUpdateInterval != 0 {
		return nil, nil
	}

	pnl, err := e.computePnL(tick)
	if err != nil {
		return nil, err
	}
	if err := e.store.InsertPnLSnapshot(e.runID, pnl); err != nil {
		return nil, err
	}

	slog.Info("quarterly pnl computed",
		"period", pnl.Period, "nii", pnl.NII, "fees", pnl.FeeIncome,
		"opex", pnl.Opex, "profit", pnl.PreTaxProfit,
		"nim", pnl.NIM, "efficiency", pnl.EfficiencyRatio)

	return []sim.Event{sim.QuarterlyPnLComputed{
		Tick:            tick,
		Period:          pnl.Period,
		GrossIncome:     pnl.GrossIncome,
		PreTaxProfit:    pnl.PreTaxProfit,
		NIM:             pnl.NIM,
		EfficiencyRatio: pnl.EfficiencyRatio,
	}}, nil
}

func (e *Economics) computePnL(tick sim.Tick) (*store.PnLSnapshot, error) {
	e.quarter++
	period := fmt.Sprintf("Q%d-Y%d", ((e.quarter-1)%4)+1, ((e.quarter-1)/4)+1)

	quarterStart := sim.Tick(0)
	if tick >= 89 {
		quarterStart = tick - 89
	}

	avgDeposits, err := e.store.AvgAccountBalances(e.runID, quarterStart, tick)
	if err != nil {
		return nil, err
	}
	avgRate, err := e.store.AvgMacroBaseRate(e.runID, quarterStart, tick)
	if err != nil {
		return nil, err
	}

	// Simplified NII: deposits earn half the base rate as spread.
	nii := avgDeposits * (avgRate * 0.5) * (90.0 / 365.0)

	feeIncome, err := e.store.SumFeeIncome(e.runID, quarterStart, tick)
	if err != nil {
		return nil, err
	}
	grossIncome := nii + feeIncome

	opexModel := e.cfg.Settings.Opex
	quarterlyStaffCost := float64(opexModel.StaffCount) * opexModel.LoadedCost * opexModel.OverheadMultiplier / 4.0

	complaintCount, err := e.store.SumComplaintsOpened(e.runID, quarterStart, tick)
	if err != nil {
		return nil, err
	}
	complaintCost := float64(complaintCount) * opexModel.ComplaintUnitCost
	opex := quarterlyStaffCost + complaintCost

	preTaxProfit := grossIncome - opex

	nim := 0.0
	if avgDeposits > 0 {
		nim = (nii / avgDeposits) * 4.0 * 100.0
	}
	efficiencyRatio := 0.0
	if grossIncome > 0 {
		efficiencyRatio = (opex / grossIncome) * 100.0
	}

	customerCount, err := e.store.CustomerCount(e.runID, "active")
	if err != nil {
		return nil, err
	}
	activeAccounts, err := e.store.ActiveAccountCount(e.runID)
	if err != nil {
		return nil, err
	}

	return &store.PnLSnapshot{
		Tick:            tick,
		Period:          period,
		NII:             nii,
		FeeIncome:       feeIncome,
		GrossIncome:     grossIncome,
		Opex:            opex,
		ComplaintCost:   complaintCost,
		PreTaxProfit:    preTaxProfit,
		NIM:             nim,
		EfficiencyRatio: efficiencyRatio,
		AvgDeposits:     avgDeposits,
		CustomerCount:   customerCount,
		ActiveAccounts:  activeAccounts,
	}, nil
}
