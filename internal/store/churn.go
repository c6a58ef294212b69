package store

import (
	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/sim"
)

func (s *Store) InsertChurnScore(runID sim.RunID, customerID sim.EntityID, tick sim.Tick, score float64, band string) error {
	_, err := s.db.Exec(
		`INSERT INTO churn_score (run_id, customer_id, tick, score, band) VALUES (?, ?, ?, ?, ?)`,
		runID, customerID, int64(tick), score, band,
	)
	if err != nil {
		return sim.StoreErr("insert churn score", err)
	}
	return nil
}

func (s *Store) ChurnScoreCount(runID sim.RunID) (int64, error) {
	var count int64
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM churn_score WHERE run_id = ?", runID,
	).Scan(&count)
	if err != nil {
		return 0, sim.StoreErr("count churn scores", err)
	}
	return count, nil
}

func (s *Store) InsertLifeEvent(runID sim.RunID, customerID sim.EntityID, eventType string, startedTick, expiresTick sim.Tick) error {
	_, err := s.db.Exec(
		`INSERT INTO life_event (run_id, customer_id, event_type, started_tick, expires_tick, active)
		 VALUES (?, ?, ?, ?, ?, 1)`,
		runID, customerID, eventType, int64(startedTick), int64(expiresTick),
	)
	if err != nil {
		return sim.StoreErr("insert life event", err)
	}
	return nil
}

// ExpireLifeEvents deactivates life events whose window has passed.
func (s *Store) ExpireLifeEvents(runID sim.RunID, tick sim.Tick) error {
	_, err := s.db.Exec(
		`UPDATE life_event SET active = 0 WHERE run_id = ? AND active = 1 AND expires_tick <= ?`,
		runID, int64(tick),
	)
	if err != nil {
		return sim.StoreErr("expire life events", err)
	}
	return nil
}

// ActiveLifeEventCustomers returns the set of customers with an active life
// event, as a map keyed by customer id.
func (s *Store) ActiveLifeEventCustomers(runID sim.RunID) (map[sim.EntityID]bool, error) {
	rows, err := s.db.Query(
		`SELECT DISTINCT customer_id FROM life_event WHERE run_id = ? AND active = 1`,
		runID,
	)
	if err != nil {
		return nil, sim.StoreErr("query active life events", err)
	}
	defer rows.Close()

	active := make(map[sim.EntityID]bool)
	for rows.Next() {
		var id sim.EntityID
		if err := rows.Scan(&id); err != nil {
			return nil, sim.StoreErr("scan life event", err)
		}
		active[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, sim.StoreErr("iterate life events", err)
	}
	return active, nil
}
