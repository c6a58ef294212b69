package subsystems

import (
	"fmt"
	"log/slog"

	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/config"
	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/sim"
	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/store"
)

const satisfactionDecayPerTick = 0.0005

// Customer owns the customer book: initial population onboarding with
// identity and risk scoring, fee-driven satisfaction effects, and monthly
// satisfaction decay back toward equilibrium.
type Customer struct {
	runID       sim.RunID
	cfg         *config.Config
	store       *store.Store
	initialized bool
}

func NewCustomer(runID sim.RunID, cfg *config.Config, st *store.Store) *Customer {
	return &Customer{runID: runID, cfg: cfg, store: st}
}

func (c *Customer) Name() string { return sim.SlotCustomer.Name() }

func (c *Customer) Update(tick sim.Tick, eventsIn []sim.Event, rng *sim.Rand) ([]sim.Event, error) {
	// First update: generate the initial population.
	if !c.initialized {
		c.initialized = true
		return c.onboardPopulation(tick, rng)
	}

	var out []sim.Event

	// Fees erode satisfaction; NSF stings more than overdraft.
	for _, event := range eventsIn {
		fee, ok := event.(sim.FeeCharged)
		if !ok {
			continue
		}
		delta := -0.01
		switch fee.FeeType {
		case "overdraft":
			delta = -0.04
		case "nsf":
			delta = -0.06
		}
		if err := c.store.UpdateCustomerSatisfaction(c.runID, fee.CustomerID, delta); err != nil {
			return nil, err
		}
	}

	// Monthly decay pulls elevated satisfaction back toward baseline.
	if tick%30 == 0 {
		active, err := c.store.ActiveCustomers(c.runID)
		if err != nil {
			return nil, err
		}
		for _, cust := range active {
			if cust.Satisfaction > 0.6 {
				if err := c.store.UpdateCustomerSatisfaction(c.runID, cust.CustomerID, -satisfactionDecayPerTick*30); err != nil {
					return nil, err
				}
			}
		}
	}

	return out, nil
}

func (c *Customer) onboardPopulation(tick sim.Tick, rng *sim.Rand) ([]sim.Event, error) {
	var out []sim.Event
	onboarded := 0

	for i := 0; i < c.cfg.Settings.InitialPopulation; i++ {
		seg := c.pickSegment(rng)
		customerID := fmt.Sprintf("cust-%06d", i)
		accountID := fmt.Sprintf("acct-%06d", i)
		productID := seg.Products[int(rng.Uint64Below(uint64(len(seg.Products))))]

		hasPayroll := rng.Chance(seg.PayrollProbability)
		payrollAmount := 0.0
		if hasPayroll {
			payrollAmount = seg.PayrollAmountMean + (rng.Float64()-0.5)*2*seg.PayrollAmountStd
			if payrollAmount < 0 {
				payrollAmount = seg.PayrollAmountMean
			}
		}
		txnMean := seg.MonthlyTxnCountMean + (rng.Float64()-0.5)*2*seg.MonthlyTxnCountStd
		if txnMean < 1 {
			txnMean = 1
		}

		rec := &store.CustomerRecord{
			CustomerID:     customerID,
			Name:           pickName(rng),
			Segment:        seg.ID,
			IncomeBand:     c.pickIncomeBand(seg, rng),
			RiskBand:       "standard",
			OpenTick:       tick,
			Status:         "active",
			ChurnRisk:      0.1,
			Satisfaction:   0.7,
			MonthlyTxnMean: txnMean,
			CashIntensity:  seg.CashIntensity,
			PayrollAmount:  payrollAmount,
			HasPayroll:     hasPayroll,
		}
		if err := c.store.InsertCustomer(c.runID, rec); err != nil {
			return nil, err
		}
		if err := c.store.InsertAccount(c.runID, accountID, customerID, productID, payrollAmount*2, tick); err != nil {
			return nil, err
		}

		// Identity attributes feed screening and fraud scoring downstream.
		ssnStatus := "verified"
		if rng.Chance(0.03) {
			ssnStatus = "synthetic_suspect"
		}
		identityType := "standard"
		if rng.Chance(0.10) {
			identityType = "thin_file"
		}
		identity := &store.IdentityRecord{
			CustomerID:    customerID,
			SSNStatus:     ssnStatus,
			IdentityType:  identityType,
			AgeAtOpen:     18 + int64(rng.Uint64Below(60)),
			FirstSeenTick: tick,
		}
		if err := c.store.InsertCustomerIdentity(c.runID, identity); err != nil {
			return nil, err
		}

		score := c.riskScore(ssnStatus, identityType, seg, rng)
		rating := "low"
		switch {
		case score >= 0.80:
			rating = "critical"
		case score >= 0.60:
			rating = "high"
		case score >= 0.30:
			rating = "medium"
		}
		if err := c.store.InsertCustomerRiskScore(c.runID, customerID, score, rating, tick); err != nil {
			return nil, err
		}

		out = append(out, sim.CustomerIdentityCreated{
			Tick:         tick,
			CustomerID:   customerID,
			SSNStatus:    ssnStatus,
			IdentityType: identityType,
		})
		out = append(out, sim.CustomerOnboarded{
			Tick:       tick,
			CustomerID: customerID,
			Segment:    seg.ID,
			AccountID:  accountID,
		})
		onboarded++
	}

	slog.Info("customer population onboarded", "tick", tick, "count", onboarded)
	return out, nil
}

// pickSegment samples a segment weighted by population share. Iteration is
// over the stable segment id order baked into iteration keys sorted by id.
func (c *Customer) pickSegment(rng *sim.Rand) *config.Segment {
	ids := sortedSegmentIDs(c.cfg.Segments)
	var total float64
	for _, id := range ids {
		total += c.cfg.Segments[id].PopulationShare
	}
	roll := rng.Float64() * total
	var acc float64
	for _, id := range ids {
		seg := c.cfg.Segments[id]
		acc += seg.PopulationShare
		if roll < acc {
			return &seg
		}
	}
	seg := c.cfg.Segments[ids[len(ids)-1]]
	return &seg
}

func (c *Customer) pickIncomeBand(seg *config.Segment, rng *sim.Rand) string {
	if len(seg.IncomeBands) == 0 {
		return "unknown"
	}
	var total float64
	for _, w := range seg.IncomeBandWeights {
		total += w
	}
	if total <= 0 {
		return seg.IncomeBands[0]
	}
	roll := rng.Float64() * total
	var acc float64
	for i, w := range seg.IncomeBandWeights {
		acc += w
		if roll < acc && i < len(seg.IncomeBands) {
			return seg.IncomeBands[i]
		}
	}
	return seg.IncomeBands[len(seg.IncomeBands)-1]
}

func (c *Customer) riskScore(ssnStatus, identityType string, seg *config.Segment, rng *sim.Rand) float64 {
	score := 0.10 + rng.Float64()*0.15
	if ssnStatus == "synthetic_suspect" {
		score += 0.45
	}
	if identityType == "thin_file" {
		score += 0.15
	}
	score += seg.CashIntensity * 0.20
	if score > 1.0 {
		score = 1.0
	}
	return score
}
