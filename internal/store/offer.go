package store

import (
	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/sim"
)

// CustomerOffer tracks one customer's enrollment in a promotional offer.
type CustomerOffer struct {
	OfferID      string
	CustomerID   sim.EntityID
	MatchedTick  sim.Tick
	DeadlineTick sim.Tick
	Status       string // in_progress | completed | expired
	BonusAmount  float64
}

func (s *Store) InsertCustomerOffer(runID sim.RunID, o *CustomerOffer) error {
	_, err := s.db.Exec(
		`INSERT INTO customer_offer (run_id, offer_id, customer_id, matched_tick, deadline_tick, status, bonus_amount)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, o.OfferID, o.CustomerID, int64(o.MatchedTick), int64(o.DeadlineTick), o.Status, o.BonusAmount,
	)
	if err != nil {
		return sim.StoreErr("insert customer offer", err)
	}
	return nil
}

// InProgressOffers returns in-flight enrollments in deterministic order.
func (s *Store) InProgressOffers(runID sim.RunID) ([]CustomerOffer, error) {
	rows, err := s.db.Query(
		`SELECT offer_id, customer_id, matched_tick, deadline_tick, status, bonus_amount
		 FROM customer_offer WHERE run_id = ? AND status = 'in_progress'
		 ORDER BY customer_id ASC, offer_id ASC`,
		runID,
	)
	if err != nil {
		return nil, sim.StoreErr("query in-progress offers", err)
	}
	defer rows.Close()

	var offers []CustomerOffer
	for rows.Next() {
		var o CustomerOffer
		var matched, deadline int64
		if err := rows.Scan(&o.OfferID, &o.CustomerID, &matched, &deadline, &o.Status, &o.BonusAmount); err != nil {
			return nil, sim.StoreErr("scan customer offer", err)
		}
		o.MatchedTick = sim.Tick(matched)
		o.DeadlineTick = sim.Tick(deadline)
		offers = append(offers, o)
	}
	if err := rows.Err(); err != nil {
		return nil, sim.StoreErr("iterate customer offers", err)
	}
	return offers, nil
}

func (s *Store) UpdateCustomerOfferStatus(runID sim.RunID, offerID string, customerID sim.EntityID, status string) error {
	_, err := s.db.Exec(
		`UPDATE customer_offer SET status = ? WHERE run_id = ? AND offer_id = ? AND customer_id = ?`,
		status, runID, offerID, customerID,
	)
	if err != nil {
		return sim.StoreErr("update customer offer status", err)
	}
	return nil
}

// HasOffer reports whether the customer is or was enrolled in an offer.
func (s *Store) HasOffer(runID sim.RunID, offerID string, customerID sim.EntityID) (bool, error) {
	var count int64
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM customer_offer WHERE run_id = ? AND offer_id = ? AND customer_id = ?`,
		runID, offerID, customerID,
	).Scan(&count)
	if err != nil {
		return false, sim.StoreErr("check customer offer", err)
	}
	return count > 0, nil
}
