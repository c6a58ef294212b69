package engine

import (
	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/sim"
	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/store"
)

// UIState is the flat record the external client renders. Field names are
// part of the wire contract; never rename them.
type UIState struct {
	Tick             sim.Tick                `json:"tick"`
	Paused           bool                    `json:"paused"`
	ActiveCustomers  int64                   `json:"active_customers"`
	ChurnedCustomers int64                   `json:"churned_customers"`
	ComplaintCount   int64                   `json:"complaint_count"`
	SLABreaches      int64                   `json:"sla_breaches"`
	Backlog          int64                   `json:"backlog"`
	NIM              float64                 `json:"nim"`
	EfficiencyRatio  float64                 `json:"efficiency_ratio"`
	PreTaxProfit     float64                 `json:"pre_tax_profit"`
	PnLHistory       []store.PnLSnapshot     `json:"pnl_history"`
	Complaints       []store.ComplaintRecord `json:"complaints"`
}

// BuildUIState assembles the KPI record from the store without advancing
// the clock.
func (e *Engine) BuildUIState() (*UIState, error) {
	activeCustomers, err := e.Store.CustomerCount(e.RunID, "active")
	if err != nil {
		return nil, err
	}
	churned, err := e.Store.ChurnedCustomerCount(e.RunID)
	if err != nil {
		return nil, err
	}
	complaintCount, err := e.Store.ComplaintCount(e.RunID)
	if err != nil {
		return nil, err
	}
	slaBreaches, err := e.Store.SLABreachCount(e.RunID)
	if err != nil {
		return nil, err
	}
	backlog, err := e.Store.ComplaintBacklog(e.RunID)
	if err != nil {
		return nil, err
	}
	pnlHistory, err := e.Store.AllPnLSnapshots(e.RunID)
	if err != nil {
		return nil, err
	}
	complaints, err := e.Store.OpenComplaints(e.RunID)
	if err != nil {
		return nil, err
	}

	state := &UIState{
		Tick:             e.Clock.CurrentTick,
		Paused:           e.Clock.Paused,
		ActiveCustomers:  activeCustomers,
		ChurnedCustomers: churned,
		ComplaintCount:   complaintCount,
		SLABreaches:      slaBreaches,
		Backlog:          backlog,
		PnLHistory:       pnlHistory,
		Complaints:       complaints,
	}
	if state.PnLHistory == nil {
		state.PnLHistory = []store.PnLSnapshot{}
	}
	if state.Complaints == nil {
		state.Complaints = []store.ComplaintRecord{}
	}
	if len(pnlHistory) > 0 {
		last := pnlHistory[len(pnlHistory)-1]
		state.NIM = last.NIM
		state.EfficiencyRatio = last.EfficiencyRatio
		state.PreTaxProfit = last.PreTaxProfit
	}
	return state, nil
}
