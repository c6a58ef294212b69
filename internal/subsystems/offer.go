package subsystems

import (
	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/config"
	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/sim"
	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/store"
)

// Offer matches promotional offers to freshly onboarded customers and
// walks enrollments through completion, bonus payout, or expiry.
type Offer struct {
	runID sim.RunID
	cfg   *config.Config
	store *store.Store
}

func NewOffer(runID sim.RunID, cfg *config.Config, st *store.Store) *Offer {
	return &Offer{runID: runID, cfg: cfg, store: st}
}

func (o *Offer) Name() string { return sim.SlotOffer.Name() }

func (o *Offer) Update(tick sim.Tick, eventsIn []sim.Event, rng *sim.Rand) ([]sim.Event, error) {
	var out []sim.Event

	// Match offers against this tick's onboardings.
	for _, event := range eventsIn {
		onboarded, ok := event.(sim.CustomerOnboarded)
		if !ok {
			continue
		}
		for _, offerID := range sortedKeys(o.cfg.Offers) {
			offer := o.cfg.Offers[offerID]
			if !offer.Active || !o.targetsSegment(&offer, onboarded.Segment) {
				continue
			}
			if !rng.Chance(offer.MatchProbability) {
				continue
			}
			enrolled, err := o.store.HasOffer(o.runID, offer.OfferID, onboarded.CustomerID)
			if err != nil {
				return nil, err
			}
			if enrolled {
				continue
			}
			enrollment := &store.CustomerOffer{
				OfferID:      offer.OfferID,
				CustomerID:   onboarded.CustomerID,
				MatchedTick:  tick,
				DeadlineTick: tick + offer.DurationTicks,
				Status:       "in_progress",
				BonusAmount:  offer.BonusAmount,
			}
			if err := o.store.InsertCustomerOffer(o.runID, enrollment); err != nil {
				return nil, err
			}
			out = append(out, sim.OfferMatched{
				Tick:       tick,
				OfferID:    offer.OfferID,
				CustomerID: onboarded.CustomerID,
			})
		}
	}

	// Progress in-flight enrollments: complete probabilistically, expire
	// at the deadline.
	inProgress, err := o.store.InProgressOffers(o.runID)
	if err != nil {
		return nil, err
	}
	for _, enrollment := range inProgress {
		offer, ok := o.cfg.Offers[enrollment.OfferID]
		if !ok {
			continue
		}
		switch {
		case rng.Chance(offer.CompletionChance):
			if err := o.store.UpdateCustomerOfferStatus(o.runID, enrollment.OfferID, enrollment.CustomerID, "completed"); err != nil {
				return nil, err
			}
			out = append(out, sim.OfferCompleted{
				Tick:       tick,
				OfferID:    enrollment.OfferID,
				CustomerID: enrollment.CustomerID,
			})
			out = append(out, sim.OfferBonusPaid{
				Tick:       tick,
				OfferID:    enrollment.OfferID,
				CustomerID: enrollment.CustomerID,
				Amount:     enrollment.BonusAmount,
			})
		case tick >= enrollment.DeadlineTick:
			if err := o.store.UpdateCustomerOfferStatus(o.runID, enrollment.OfferID, enrollment.CustomerID, "expired"); err != nil {
				return nil, err
			}
		}
	}

	return out, nil
}

func (o *Offer) targetsSegment(offer *config.Offer, segment string) bool {
	if len(offer.TargetSegments) == 0 {
		return true
	}
	for _, s := range offer.TargetSegments {
		if s == segment {
			return true
		}
	}
	return false
}
