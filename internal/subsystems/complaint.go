package subsystems

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/config"
	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/sim"
	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/store"
)

// Complaint listens for fee and SLA events, files complaints
// probabilistically from the trigger catalog, ages SLAs, and processes
// player CloseComplaint commands.
//
// Complaints are LEADING indicators: they fire before churn. A high
// complaint rate this quarter predicts high churn next quarter.
type Complaint struct {
	runID      sim.RunID
	cfg        *config.Config
	store      *store.Store
	triggerMap map[string][]config.ComplaintTrigger
}

func NewComplaint(runID sim.RunID, cfg *config.Config, st *store.Store) *Complaint {
	triggerMap := make(map[string][]config.ComplaintTrigger)
	for _, trigger := range cfg.ComplaintTriggers {
		triggerMap[trigger.EventType] = append(triggerMap[trigger.EventType], trigger)
	}
	return &Complaint{runID: runID, cfg: cfg, store: st, triggerMap: triggerMap}
}

func (c *Complaint) Name() string { return sim.SlotComplaint.Name() }

func (c *Complaint) Update(tick sim.Tick, eventsIn []sim.Event, rng *sim.Rand) ([]sim.Event, error) {
	var out []sim.Event

	// 1. Generate complaints from triggering events.
	for _, event := range eventsIn {
		trigger, ok := c.shouldTrigger(event, rng)
		if !ok {
			continue
		}

		var customerID sim.EntityID
		var accountID, product string
		switch e := event.(type) {
		case sim.FeeCharged:
			customerID = e.CustomerID
			accountID = e.AccountID
			p, err := c.store.AccountProduct(c.runID, e.AccountID)
			if err != nil {
				return nil, err
			}
			product = p
		case sim.SLABreached:
			prior, err := c.store.GetComplaint(c.runID, e.ComplaintID)
			if err != nil {
				return nil, err
			}
			customerID = e.CustomerID
			product = prior.Product
		default:
			continue
		}

		complaintID := fmt.Sprintf("cmp-%08x-%016x", tick, rng.Uint64())
		record := &store.ComplaintRecord{
			ComplaintID: complaintID,
			CustomerID:  customerID,
			AccountID:   accountID,
			TickOpened:  tick,
			Product:     product,
			Issue:       trigger.IssueCategory,
			Priority:    trigger.Priority,
			Status:      "open",
			SLADueTick:  tick + trigger.SLAResolveDays,
			UDAAPFlag:   trigger.IssueCategory == "fee_dispute",
		}
		if err := c.store.InsertComplaint(c.runID, record); err != nil {
			return nil, err
		}
		if err := c.store.UpdateCustomerSatisfaction(c.runID, customerID, -0.03); err != nil {
			return nil, err
		}

		out = append(out, sim.ComplaintFiled{
			Tick:        tick,
			ComplaintID: complaintID,
			CustomerID:  customerID,
			Issue:       trigger.IssueCategory,
			Priority:    trigger.Priority,
		})
	}

	// 2. SLA aging and breach detection.
	aged, err := c.processSLAAging(tick)
	if err != nil {
		return nil, err
	}
	out = append(out, aged...)

	// 3. Player CloseComplaint commands.
	for _, event := range eventsIn {
		received, ok := event.(sim.PlayerCommandReceived)
		if !ok || received.CommandType != "close_complaint" {
			continue
		}
		cmd, err := c.store.GetPlayerCommand(c.runID, received.CommandID)
		if err != nil {
			return nil, err
		}
		closeCmd, ok := cmd.(sim.CloseComplaint)
		if !ok {
			slog.Warn("close_complaint command not found", "tick", tick, "command_id", received.CommandID)
			continue
		}
		resolved, err := c.processResolution(closeCmd.ComplaintID, closeCmd.ResolutionCode, tick)
		if err != nil {
			return nil, err
		}
		out = append(out, resolved...)
	}

	// 4. Weekly complaint aggregate.
	if tick%7 == 0 {
		agg, err := c.store.ComputeComplaintAggregate(c.runID, tick)
		if err != nil {
			return nil, err
		}
		if err := c.store.SaveComplaintAggregate(c.runID, tick, &agg); err != nil {
			return nil, err
		}
		slog.Debug("complaint aggregate saved",
			"tick", tick,
			"opened", agg.ComplaintsOpened,
			"closed", agg.ComplaintsClosed,
			"breached", agg.SLABreaches,
			"backlog", agg.BacklogCount,
		)
	}

	return out, nil
}

func (c *Complaint) shouldTrigger(event sim.Event, rng *sim.Rand) (config.ComplaintTrigger, bool) {
	switch e := event.(type) {
	case sim.FeeCharged:
		for _, trigger := range c.triggerMap["fee_charged"] {
			if trigger.FeeType == e.FeeType && rng.Chance(trigger.Probability) {
				return trigger, true
			}
		}
	case sim.SLABreached:
		for _, trigger := range c.triggerMap["sla_breach"] {
			if trigger.PriorBreach && rng.Chance(trigger.Probability) {
				return trigger, true
			}
		}
	}
	return config.ComplaintTrigger{}, false
}

func (c *Complaint) processSLAAging(tick sim.Tick) ([]sim.Event, error) {
	var events []sim.Event
	open, err := c.store.OpenComplaints(c.runID)
	if err != nil {
		return nil, err
	}
	for _, complaint := range open {
		if complaint.SLABreached || tick < complaint.SLADueTick {
			continue
		}
		if err := c.store.MarkComplaintSLABreach(c.runID, complaint.ComplaintID); err != nil {
			return nil, err
		}
		if err := c.store.UpdateCustomerSatisfaction(c.runID, complaint.CustomerID, -0.15); err != nil {
			return nil, err
		}
		events = append(events, sim.SLABreached{
			Tick:        tick,
			ComplaintID: complaint.ComplaintID,
			CustomerID:  complaint.CustomerID,
			DaysOverdue: int64(tick - complaint.SLADueTick),
		})
	}
	return events, nil
}

func (c *Complaint) processResolution(complaintID sim.EntityID, resolutionCode string, tick sim.Tick) ([]sim.Event, error) {
	complaint, err := c.store.GetComplaint(c.runID, complaintID)
	if err != nil {
		return nil, err
	}
	if complaint.Status != "open" {
		slog.Warn("attempted to resolve non-open complaint", "complaint_id", complaintID)
		return nil, nil
	}

	resolution, ok := c.cfg.ResolutionCodes[resolutionCode]
	if !ok {
		return nil, sim.CommandErr("unknown resolution code "+strconv.Quote(resolutionCode), nil)
	}

	refund := resolution.AvgAmountRefunded
	if err := c.store.CloseComplaint(c.runID, complaintID, tick, resolutionCode, refund); err != nil {
		return nil, err
	}
	if err := c.store.UpdateCustomerSatisfaction(c.runID, complaint.CustomerID, resolution.SatisfactionDelta); err != nil {
		return nil, err
	}
	if err := c.store.AdjustCustomerChurnRisk(c.runID, complaint.CustomerID, resolution.ChurnRiskDelta); err != nil {
		return nil, err
	}

	return []sim.Event{sim.ComplaintResolved{
		Tick:              tick,
		ComplaintID:       complaintID,
		CustomerID:        complaint.CustomerID,
		ResolutionCode:    resolutionCode,
		SatisfactionDelta: resolution.SatisfactionDelta,
	}}, nil
}
