package subsystems

import (
	"fmt"
	"log/slog"

	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/config"
	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/sim"
	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/store"
)

// Pricing owns the product_state table and processes every SetProductFee
// command, enforcing regulatory constraints and tracking the UDAAP risk
// score as fees cross soft limits.
type Pricing struct {
	runID       sim.RunID
	cfg         *config.Config
	store       *store.Store
	initialized bool
	products    map[string]store.ProductState
}

func NewPricing(runID sim.RunID, cfg *config.Config, st *store.Store) *Pricing {
	return &Pricing{
		runID:    runID,
		cfg:      cfg,
		store:    st,
		products: make(map[string]store.ProductState),
	}
}

func (p *Pricing) Name() string { return sim.SlotPricing.Name() }

func (p *Pricing) Update(tick sim.Tick, eventsIn []sim.Event, _ *sim.Rand) ([]sim.Event, error) {
	// First call: seed product state from the catalog.
	if !p.initialized {
		if err := p.initializeProducts(tick); err != nil {
			return nil, err
		}
		p.initialized = true
		slog.Info("product catalog initialized", "tick", tick, "products", len(p.products))
		return nil, nil
	}

	var out []sim.Event
	for _, event := range eventsIn {
		received, ok := event.(sim.PlayerCommandReceived)
		if !ok || received.CommandType != "set_product_fee" {
			continue
		}
		cmd, err := p.store.GetPlayerCommand(p.runID, received.CommandID)
		if err != nil {
			return nil, err
		}
		feeCmd, ok := cmd.(sim.SetProductFee)
		if !ok {
			slog.Warn("set_product_fee command not found", "tick", tick, "command_id", received.CommandID)
			continue
		}
		events, err := p.processFeeChange(feeCmd.ProductID, feeCmd.FeeType, feeCmd.NewValue, tick)
		if err != nil {
			return nil, err
		}
		out = append(out, events...)
	}
	return out, nil
}

func (p *Pricing) initializeProducts(tick sim.Tick) error {
	for _, id := range sortedKeys(p.cfg.Products) {
		product := p.cfg.Products[id]
		state := store.ProductState{
			ProductID:    product.ProductID,
			MonthlyFee:   product.MonthlyFee,
			OverdraftFee: product.OverdraftFee,
			NSFFee:       product.NSFFee,
			ATMFee:       product.ATMFee,
			WireFee:      product.WireFee,
			InterestRate: product.InterestRate,
		}
		if err := p.store.InsertProductState(p.runID, &state, tick); err != nil {
			return err
		}
		p.products[product.ProductID] = state
	}
	return p.store.InitRegulatoryScore(p.runID, tick)
}

func (p *Pricing) processFeeChange(productID, feeType string, newValue float64, tick sim.Tick) ([]sim.Event, error) {
	reject := func(reason string) []sim.Event {
		slog.Warn("fee change rejected", "tick", tick, "product", productID, "fee_type", feeType, "reason", reason)
		return []sim.Event{sim.FeeChangeRejected{
			Tick:      tick,
			ProductID: productID,
			FeeType:   feeType,
			Reason:    reason,
		}}
	}

	constraint, ok := p.cfg.FeeConstraints[feeType]
	if !ok {
		return reject(fmt.Sprintf("Unknown fee type: %s", feeType)), nil
	}
	if newValue < constraint.MinValue || newValue > constraint.MaxValue {
		return reject(fmt.Sprintf(
			"%s must be between $%.2f and $%.2f. Reason: %s",
			feeType, constraint.MinValue, constraint.MaxValue, constraint.HardLimitReason,
		)), nil
	}

	state, ok := p.products[productID]
	if !ok {
		return reject(fmt.Sprintf("Unknown product: %s", productID)), nil
	}

	var oldValue float64
	switch feeType {
	case "monthly_fee":
		oldValue, state.MonthlyFee = state.MonthlyFee, newValue
	case "overdraft_fee":
		oldValue, state.OverdraftFee = state.OverdraftFee, newValue
	case "nsf_fee":
		oldValue, state.NSFFee = state.NSFFee, newValue
	case "atm_fee":
		oldValue, state.ATMFee = state.ATMFee, newValue
	case "wire_fee":
		oldValue, state.WireFee = state.WireFee, newValue
	default:
		return reject(fmt.Sprintf("Invalid fee type: %s", feeType)), nil
	}
	p.products[productID] = state

	if err := p.store.UpdateProductFee(p.runID, productID, feeType, newValue, tick); err != nil {
		return nil, err
	}
	if err := p.store.LogFeeChange(p.runID, tick, productID, feeType, oldValue, newValue, true); err != nil {
		return nil, err
	}

	var warning string
	if newValue > constraint.SoftLimit {
		warning = constraint.SoftLimitWarning
		if constraint.UDAAPRiskDelta > 0 {
			if err := p.store.AdjustUDAAPScore(p.runID, constraint.UDAAPRiskDelta, tick); err != nil {
				return nil, err
			}
		}
	}

	slog.Info("product fee changed",
		"tick", tick, "product", productID, "fee_type", feeType,
		"old", oldValue, "new", newValue)

	return []sim.Event{sim.ProductFeeChanged{
		Tick:      tick,
		ProductID: productID,
		FeeType:   feeType,
		OldValue:  oldValue,
		NewValue:  newValue,
		Warning:   warning,
	}}, nil
}
