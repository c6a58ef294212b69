package store

import (
	"database/sql"
	"errors"

	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/sim"
)

func (s *Store) InsertReputationSnapshot(runID sim.RunID, tick sim.Tick, score, delta float64) error {
	_, err := s.db.Exec(
		`INSERT INTO reputation_snapshot (run_id, tick, score, delta) VALUES (?, ?, ?, ?)`,
		runID, int64(tick), score, delta,
	)
	if err != nil {
		return sim.StoreErr("insert reputation snapshot", err)
	}
	return nil
}

// LatestReputationScore returns the most recent score snapshot.
// Returns (0, false, nil) before the first snapshot.
func (s *Store) LatestReputationScore(runID sim.RunID) (float64, bool, error) {
	var score float64
	err := s.db.QueryRow(
		`SELECT score FROM reputation_snapshot WHERE run_id = ? ORDER BY tick DESC LIMIT 1`,
		runID,
	).Scan(&score)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, sim.StoreErr("latest reputation score", err)
	}
	return score, true, nil
}

func (s *Store) InsertReputationEvent(runID sim.RunID, tick sim.Tick, driver string, delta float64, description string) error {
	_, err := s.db.Exec(
		`INSERT INTO reputation_event (run_id, tick, driver, delta, description) VALUES (?, ?, ?, ?, ?)`,
		runID, int64(tick), driver, delta, description,
	)
	if err != nil {
		return sim.StoreErr("insert reputation event", err)
	}
	return nil
}
