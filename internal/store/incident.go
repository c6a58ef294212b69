package store

import (
	"database/sql"
	"errors"

	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/sim"
)

// Incident is one operational incident against a platform component.
type Incident struct {
	IncidentID  sim.EntityID
	Component   string
	Severity    string
	CreatedTick sim.Tick
	SLADueTick  sim.Tick
	SLABreached bool
	Status      string // open | resolved
}

func (s *Store) InsertIncident(runID sim.RunID, i *Incident) error {
	_, err := s.db.Exec(
		`INSERT INTO incident (incident_id, run_id, component, severity, created_tick, sla_due_tick, sla_breached, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		i.IncidentID, runID, i.Component, i.Severity, int64(i.CreatedTick),
		int64(i.SLADueTick), boolToInt(i.SLABreached), i.Status,
	)
	if err != nil {
		return sim.StoreErr("insert incident", err)
	}
	return nil
}

func (s *Store) OpenIncidents(runID sim.RunID) ([]Incident, error) {
	rows, err := s.db.Query(
		`SELECT incident_id, component, severity, created_tick, sla_due_tick, sla_breached, status
		 FROM incident WHERE run_id = ? AND status = 'open'
		 ORDER BY incident_id ASC`,
		runID,
	)
	if err != nil {
		return nil, sim.StoreErr("query open incidents", err)
	}
	defer rows.Close()

	var incidents []Incident
	for rows.Next() {
		var i Incident
		var created, due int64
		var breached int
		if err := rows.Scan(&i.IncidentID, &i.Component, &i.Severity, &created, &due, &breached, &i.Status); err != nil {
			return nil, sim.StoreErr("scan incident", err)
		}
		i.CreatedTick = sim.Tick(created)
		i.SLADueTick = sim.Tick(due)
		i.SLABreached = breached != 0
		incidents = append(incidents, i)
	}
	if err := rows.Err(); err != nil {
		return nil, sim.StoreErr("iterate incidents", err)
	}
	return incidents, nil
}

func (s *Store) ResolveIncident(runID sim.RunID, incidentID sim.EntityID, tick sim.Tick) error {
	_, err := s.db.Exec(
		`UPDATE incident SET status = 'resolved', resolved_tick = ? WHERE run_id = ? AND incident_id = ?`,
		int64(tick), runID, incidentID,
	)
	if err != nil {
		return sim.StoreErr("resolve incident", err)
	}
	return nil
}

func (s *Store) MarkIncidentSLABreach(runID sim.RunID, incidentID sim.EntityID) error {
	_, err := s.db.Exec(
		`UPDATE incident SET sla_breached = 1 WHERE run_id = ? AND incident_id = ?`,
		runID, incidentID,
	)
	if err != nil {
		return sim.StoreErr("mark incident sla breach", err)
	}
	return nil
}

// ── Risk dials ─────────────────────────────────────────────────

func (s *Store) UpsertRiskDial(runID sim.RunID, dialID string, value float64, tick sim.Tick) error {
	_, err := s.db.Exec(
		`INSERT INTO risk_dial (run_id, dial_id, value, updated_tick) VALUES (?, ?, ?, ?)
		 ON CONFLICT (run_id, dial_id) DO UPDATE SET value = excluded.value, updated_tick = excluded.updated_tick`,
		runID, dialID, value, int64(tick),
	)
	if err != nil {
		return sim.StoreErr("upsert risk dial", err)
	}
	return nil
}

// RiskDialValue returns the current dial value.
// Returns (0, false, nil) when the dial has never been set.
func (s *Store) RiskDialValue(runID sim.RunID, dialID string) (float64, bool, error) {
	var value float64
	err := s.db.QueryRow(
		"SELECT value FROM risk_dial WHERE run_id = ? AND dial_id = ?",
		runID, dialID,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, sim.StoreErr("read risk dial", err)
	}
	return value, true, nil
}
