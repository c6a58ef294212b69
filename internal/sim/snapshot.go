package sim

import "encoding/json"

// DefaultSnapshotInterval is the cadence of clock snapshots: monthly.
const DefaultSnapshotInterval Tick = 30

// Snapshot is the periodic serialized image of the clock state, keyed by
// (run_id, tick). It holds the clock only; subsystem state is not part of
// the image.
type Snapshot struct {
	RunID RunID `json:"run_id"`
	Tick  Tick  `json:"tick"`
	Clock Clock `json:"clock"`
}

// MarshalSnapshot serializes a snapshot for the snapshot table.
func MarshalSnapshot(s Snapshot) (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", SerializationErr("marshal snapshot", err)
	}
	return string(data), nil
}

// UnmarshalSnapshot parses a stored snapshot image.
func UnmarshalSnapshot(data string) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return Snapshot{}, SerializationErr("unmarshal snapshot", err)
	}
	return s, nil
}
