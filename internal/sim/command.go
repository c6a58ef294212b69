package sim

import (
	"encoding/json"
	"fmt"
)

// Command is one player-issued request. The catalogue is closed and
// append-only, mirroring the event catalogue. Commands submitted while the
// engine runs are buffered and drained at the top of the next tick.
type Command interface {
	// CommandType is the stable snake_case tag stored with the command row.
	CommandType() string
}

// ── Clock control ──────────────────────────────────────────────

type Pause struct{}

type Resume struct{}

type SetSpeed struct {
	Speed Speed `json:"speed"`
}

// ── Complaint desk ─────────────────────────────────────────────

type CloseComplaint struct {
	ComplaintID    EntityID `json:"complaint_id"`
	ResolutionCode string   `json:"resolution_code"`
}

// ── Pricing desk ───────────────────────────────────────────────

type SetProductFee struct {
	ProductID string  `json:"product_id"`
	FeeType   string  `json:"fee_type"` // monthly_fee | overdraft_fee | nsf_fee | atm_fee | wire_fee
	NewValue  float64 `json:"new_value"`
}

// ── Risk appetite ──────────────────────────────────────────────

type SetRiskDial struct {
	DialID   string  `json:"dial_id"`
	NewValue float64 `json:"new_value"`
}

func (Pause) CommandType() string          { return "pause" }
func (Resume) CommandType() string         { return "resume" }
func (SetSpeed) CommandType() string       { return "set_speed" }
func (CloseComplaint) CommandType() string { return "close_complaint" }
func (SetProductFee) CommandType() string  { return "set_product_fee" }
func (SetRiskDial) CommandType() string    { return "set_risk_dial" }

func decodeCommand[C Command](data []byte) (Command, error) {
	var c C
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return c, nil
}

var commandRegistry = map[string]func([]byte) (Command, error){
	"pause":           decodeCommand[Pause],
	"resume":          decodeCommand[Resume],
	"set_speed":       decodeCommand[SetSpeed],
	"close_complaint": decodeCommand[CloseComplaint],
	"set_product_fee": decodeCommand[SetProductFee],
	"set_risk_dial":   decodeCommand[SetRiskDial],
}

// MarshalCommand serializes a command to one JSON object tagged with "cmd".
func MarshalCommand(c Command) (string, error) {
	body, err := json.Marshal(c)
	if err != nil {
		return "", SerializationErr(fmt.Sprintf("marshal command %s", c.CommandType()), err)
	}
	if len(body) == 2 { // "{}" — Pause and Resume carry no fields
		return fmt.Sprintf(`{"cmd":%q}`, c.CommandType()), nil
	}
	return fmt.Sprintf(`{"cmd":%q,%s`, c.CommandType(), body[1:]), nil
}

// UnmarshalCommand parses a stored command row back into its variant.
func UnmarshalCommand(data []byte) (Command, error) {
	var head struct {
		Cmd string `json:"cmd"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, CommandErr("parse command envelope", err)
	}
	decode, ok := commandRegistry[head.Cmd]
	if !ok {
		return nil, CommandErr(fmt.Sprintf("unknown command %q", head.Cmd), nil)
	}
	c, err := decode(data)
	if err != nil {
		return nil, CommandErr(fmt.Sprintf("decode command %s", head.Cmd), err)
	}
	return c, nil
}

// ParseCommand builds a command from an IPC (cmd, payload) pair. payload is
// the raw JSON object of the variant's fields. Input-driven: never panics.
func ParseCommand(cmdType string, payload []byte) (Command, error) {
	decode, ok := commandRegistry[cmdType]
	if !ok {
		return nil, CommandErr(fmt.Sprintf("unknown command %q", cmdType), nil)
	}
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	c, err := decode(payload)
	if err != nil {
		return nil, CommandErr(fmt.Sprintf("decode command %s", cmdType), err)
	}
	return c, nil
}
