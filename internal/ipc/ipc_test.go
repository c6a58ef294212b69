package ipc_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/harness"
	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/ipc"
)

// runSession feeds a scripted request sequence through the loop and
// returns one decoded response object per response line.
func runSession(t *testing.T, requests ...string) []map[string]any {
	t.Helper()

	result := harness.BuildTestEngine(t, &harness.Scenario{Name: "ipc", Seed: 42, Population: 5})

	in := strings.NewReader(strings.Join(requests, "\n") + "\n")
	var out bytes.Buffer
	require.NoError(t, ipc.Loop(result.Engine, in, &out))

	var responses []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		if line == "" {
			continue
		}
		var response map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &response), "response line %q", line)
		responses = append(responses, response)
	}
	return responses
}

func TestLoop_GetStateDoesNotAdvance(t *testing.T) {
	responses := runSession(t,
		`{"type":"get_state"}`,
		`{"type":"get_state"}`,
		`{"type":"quit"}`,
	)

	require.Len(t, responses, 2)
	for _, response := range responses {
		assert.Equal(t, float64(0), response["tick"])
		assert.Equal(t, true, response["paused"])
	}
}

func TestLoop_TickAdvancesCount(t *testing.T) {
	responses := runSession(t,
		`{"type":"tick","count":3}`,
		`{"type":"get_state"}`,
		`{"type":"quit"}`,
	)

	require.Len(t, responses, 2)
	assert.Equal(t, float64(3), responses[0]["tick"])
	assert.Equal(t, true, responses[0]["paused"], "tick request pauses again after advancing")
	assert.Equal(t, float64(3), responses[1]["tick"])
}

func TestLoop_UIStateShape(t *testing.T) {
	responses := runSession(t,
		`{"type":"get_state"}`,
		`{"type":"quit"}`,
	)

	require.Len(t, responses, 1)
	for _, field := range []string{
		"tick", "paused", "active_customers", "churned_customers",
		"complaint_count", "sla_breaches", "backlog", "nim",
		"efficiency_ratio", "pre_tax_profit", "pnl_history", "complaints",
	} {
		assert.Contains(t, responses[0], field)
	}
}

func TestLoop_CommandSubmitsAndAdvancesOneTick(t *testing.T) {
	responses := runSession(t,
		`{"type":"tick","count":2}`,
		`{"type":"command","cmd":"set_product_fee","payload":{"product_id":"basic_checking","fee_type":"monthly_fee","new_value":9.5}}`,
		`{"type":"quit"}`,
	)

	require.Len(t, responses, 2)
	assert.Equal(t, float64(3), responses[1]["tick"], "command request advances exactly one tick")
}

func TestLoop_InvalidJSONKeepsLoopAlive(t *testing.T) {
	responses := runSession(t,
		`{not json`,
		`{"type":"get_state"}`,
		`{"type":"quit"}`,
	)

	require.Len(t, responses, 2)
	assert.Contains(t, responses[0], "error")
	assert.Equal(t, float64(0), responses[1]["tick"])
}

func TestLoop_UnknownTypeIsErrorResponse(t *testing.T) {
	responses := runSession(t,
		`{"type":"warp"}`,
		`{"type":"get_state"}`,
		`{"type":"quit"}`,
	)

	require.Len(t, responses, 2)
	errMsg, ok := responses[0]["error"].(string)
	require.True(t, ok)
	assert.Contains(t, errMsg, "warp")
}

func TestLoop_EOFIsCleanShutdown(t *testing.T) {
	result := harness.BuildTestEngine(t, &harness.Scenario{Name: "ipc-eof", Seed: 42, Population: 5})

	var out bytes.Buffer
	err := ipc.Loop(result.Engine, strings.NewReader(`{"type":"get_state"}`+"\n"), &out)
	require.NoError(t, err)
	assert.NotEmpty(t, out.String())
}

func TestLoop_UnknownCommandPayload(t *testing.T) {
	responses := runSession(t,
		`{"type":"command","cmd":"self_destruct","payload":{}}`,
		`{"type":"quit"}`,
	)

	require.Len(t, responses, 1)
	assert.Contains(t, responses[0], "error")
}
