package subsystems

import (
	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/sim"
	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/store"
)

const (
	analyticsInterval       sim.Tick = 7
	backlogWarningThreshold          = 25.0
	breachWarningThreshold           = 10.0
)

// ComplaintAnalytics is a feedback aggregator: it runs after the complaint
// desk each week and fires warnings when the backlog or breach count
// drifts past its threshold.
type ComplaintAnalytics struct {
	runID sim.RunID
	store *store.Store
}

func NewComplaintAnalytics(runID sim.RunID, st *store.Store) *ComplaintAnalytics {
	return &ComplaintAnalytics{runID: runID, store: st}
}

func (c *ComplaintAnalytics) Name() string { return sim.SlotComplaintAnalytics.Name() }

func (c *ComplaintAnalytics) Update(tick sim.Tick, _ []sim.Event, _ *sim.Rand) ([]sim.Event, error) {
	if tick%analyticsInterval != 0 {
		return nil, nil
	}

	var out []sim.Event

	backlog, err := c.store.ComplaintBacklog(c.runID)
	if err != nil {
		return nil, err
	}
	if float64(backlog) > backlogWarningThreshold {
		out = append(out, sim.ComplaintWarningFired{
			Tick:      tick,
			Metric:    "backlog",
			Value:     float64(backlog),
			Threshold: backlogWarningThreshold,
		})
	}

	breaches, err := c.store.SLABreachCount(c.runID)
	if err != nil {
		return nil, err
	}
	if float64(breaches) > breachWarningThreshold {
		out = append(out, sim.ComplaintWarningFired{
			Tick:      tick,
			Metric:    "sla_breaches",
			Value:     float64(breaches),
			Threshold: breachWarningThreshold,
		})
	}

	return out, nil
}
