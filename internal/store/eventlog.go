package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/sim"
)

// EventLogEntry is the persisted form of an event. Rows are append-only;
// they are never updated or deleted.
type EventLogEntry struct {
	ID        int64
	RunID     sim.RunID
	Tick      sim.Tick
	Subsystem string
	EventType string
	Payload   string
}

// InsertRun persists the run row. A run is created once at bootstrap and
// never mutated. started_at is written as 0, never wall-clock time.
func (s *Store) InsertRun(runID sim.RunID, seed uint64, version string) error {
	_, err := s.db.Exec(
		"INSERT INTO run (run_id, seed, version, started_at) VALUES (?, ?, ?, ?)",
		runID, int64(seed), version, 0,
	)
	if err != nil {
		return sim.StoreErr("insert run", err)
	}
	return nil
}

// RunSeed returns the master seed pinned to a run.
func (s *Store) RunSeed(runID sim.RunID) (uint64, error) {
	var seed int64
	err := s.db.QueryRow("SELECT seed FROM run WHERE run_id = ?", runID).Scan(&seed)
	if err != nil {
		return 0, sim.StoreErr("read run seed", err)
	}
	return uint64(seed), nil
}

// AppendEvent persists one event-log entry. The insert is atomic with
// respect to concurrent readers; created_at mirrors the tick counter so no
// wall clock enters the log.
func (s *Store) AppendEvent(entry *EventLogEntry) error {
	_, err := s.db.Exec(
		`INSERT INTO event_log (run_id, tick, subsystem, event_type, payload, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.RunID, int64(entry.Tick), entry.Subsystem, entry.EventType,
		entry.Payload, int64(entry.Tick),
	)
	if err != nil {
		return sim.StoreErr("append event", err)
	}
	return nil
}

// EventsForTick returns all entries for (run_id, tick) in insertion order.
func (s *Store) EventsForTick(runID sim.RunID, tick sim.Tick) ([]EventLogEntry, error) {
	rows, err := s.db.Query(
		`SELECT id, run_id, tick, subsystem, event_type, payload
		 FROM event_log WHERE run_id = ? AND tick = ?
		 ORDER BY id ASC`,
		runID, int64(tick),
	)
	if err != nil {
		return nil, sim.StoreErr("query events for tick", err)
	}
	defer rows.Close()
	return scanEventLog(rows)
}

// AllEvents returns every entry of a run in id order. Used by the replay
// verifier and tests.
func (s *Store) AllEvents(runID sim.RunID) ([]EventLogEntry, error) {
	rows, err := s.db.Query(
		`SELECT id, run_id, tick, subsystem, event_type, payload
		 FROM event_log WHERE run_id = ?
		 ORDER BY id ASC`,
		runID,
	)
	if err != nil {
		return nil, sim.StoreErr("query all events", err)
	}
	defer rows.Close()
	return scanEventLog(rows)
}

// EventPayloads returns the payload column of a run in id order.
// This is the byte sequence the determinism contract is stated over.
func (s *Store) EventPayloads(runID sim.RunID) ([]string, error) {
	rows, err := s.db.Query(
		"SELECT payload FROM event_log WHERE run_id = ? ORDER BY id ASC",
		runID,
	)
	if err != nil {
		return nil, sim.StoreErr("query event payloads", err)
	}
	defer rows.Close()

	var payloads []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, sim.StoreErr("scan event payload", err)
		}
		payloads = append(payloads, p)
	}
	if err := rows.Err(); err != nil {
		return nil, sim.StoreErr("iterate event payloads", err)
	}
	return payloads, nil
}

// EventCount returns the number of log rows for a run.
func (s *Store) EventCount(runID sim.RunID) (int64, error) {
	var count int64
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM event_log WHERE run_id = ?", runID,
	).Scan(&count)
	if err != nil {
		return 0, sim.StoreErr("count events", err)
	}
	return count, nil
}

func scanEventLog(rows *sql.Rows) ([]EventLogEntry, error) {
	var entries []EventLogEntry
	for rows.Next() {
		var e EventLogEntry
		var tick int64
		if err := rows.Scan(&e.ID, &e.RunID, &tick, &e.Subsystem, &e.EventType, &e.Payload); err != nil {
			return nil, sim.StoreErr("scan event log entry", err)
		}
		e.Tick = sim.Tick(tick)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, sim.StoreErr("iterate event log", err)
	}
	return entries, nil
}

// SaveSnapshot persists the serialized clock image for a tick.
func (s *Store) SaveSnapshot(runID sim.RunID, tick sim.Tick, stateJSON string) error {
	_, err := s.db.Exec(
		"INSERT INTO snapshot (run_id, tick, state_json) VALUES (?, ?, ?)",
		runID, int64(tick), stateJSON,
	)
	if err != nil {
		return sim.StoreErr("save snapshot", err)
	}
	return nil
}

// LoadSnapshot fetches the snapshot image for an exact tick.
// Returns ("", false, nil) when no snapshot exists for that tick.
func (s *Store) LoadSnapshot(runID sim.RunID, tick sim.Tick) (string, bool, error) {
	var stateJSON string
	err := s.db.QueryRow(
		"SELECT state_json FROM snapshot WHERE run_id = ? AND tick = ?",
		runID, int64(tick),
	).Scan(&stateJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, sim.StoreErr("load snapshot", err)
	}
	return stateJSON, true, nil
}

// SnapshotTicks lists the ticks that have snapshots, ascending.
func (s *Store) SnapshotTicks(runID sim.RunID) ([]sim.Tick, error) {
	rows, err := s.db.Query(
		"SELECT tick FROM snapshot WHERE run_id = ? ORDER BY tick ASC", runID,
	)
	if err != nil {
		return nil, sim.StoreErr("query snapshot ticks", err)
	}
	defer rows.Close()

	var ticks []sim.Tick
	for rows.Next() {
		var t int64
		if err := rows.Scan(&t); err != nil {
			return nil, sim.StoreErr("scan snapshot tick", err)
		}
		ticks = append(ticks, sim.Tick(t))
	}
	if err := rows.Err(); err != nil {
		return nil, sim.StoreErr("iterate snapshot ticks", err)
	}
	return ticks, nil
}

// StorePlayerCommand persists a submitted command and returns its row id,
// which becomes the command_id carried by PlayerCommandReceived.
func (s *Store) StorePlayerCommand(runID sim.RunID, tick sim.Tick, cmd sim.Command) (int64, error) {
	payload, err := sim.MarshalCommand(cmd)
	if err != nil {
		return 0, err
	}
	res, err := s.db.Exec(
		"INSERT INTO player_command (run_id, queued_at, cmd_type, payload) VALUES (?, ?, ?, ?)",
		runID, int64(tick), cmd.CommandType(), payload,
	)
	if err != nil {
		return 0, sim.StoreErr("store player command", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, sim.StoreErr("store player command: last insert id", err)
	}
	return id, nil
}

// GetPlayerCommand fetches a stored command by its id string.
// Returns (nil, nil) when the id is unknown.
func (s *Store) GetPlayerCommand(runID sim.RunID, commandID string) (sim.Command, error) {
	var payload string
	err := s.db.QueryRow(
		"SELECT payload FROM player_command WHERE run_id = ? AND id = ?",
		runID, commandID,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, sim.StoreErr(fmt.Sprintf("get player command %s", commandID), err)
	}
	return sim.UnmarshalCommand([]byte(payload))
}
