package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCommand_RoundTrip(t *testing.T) {
	commands := []Command{
		Pause{},
		Resume{},
		SetSpeed{Speed: SpeedFastForward},
		CloseComplaint{ComplaintID: "cmp-1", ResolutionCode: "monetary_relief"},
		SetProductFee{ProductID: "checking", FeeType: "monthly_fee", NewValue: 12.0},
		SetRiskDial{DialID: "aml_alert_threshold", NewValue: 0.45},
	}
	for _, cmd := range commands {
		payload, err := MarshalCommand(cmd)
		require.NoError(t, err, "marshal %s", cmd.CommandType())

		decoded, err := UnmarshalCommand([]byte(payload))
		require.NoError(t, err, "unmarshal %s", cmd.CommandType())
		assert.Equal(t, cmd, decoded)
	}
}

func TestMarshalCommand_EmptyVariants(t *testing.T) {
	payload, err := MarshalCommand(Pause{})
	require.NoError(t, err)
	assert.Equal(t, `{"cmd":"pause"}`, payload)
}

func TestParseCommand(t *testing.T) {
	cmd, err := ParseCommand("set_product_fee", []byte(`{"product_id":"checking","fee_type":"monthly_fee","new_value":12}`))
	require.NoError(t, err)
	assert.Equal(t, SetProductFee{ProductID: "checking", FeeType: "monthly_fee", NewValue: 12}, cmd)
}

func TestParseCommand_EmptyPayload(t *testing.T) {
	cmd, err := ParseCommand("resume", nil)
	require.NoError(t, err)
	assert.Equal(t, Resume{}, cmd)
}

func TestParseCommand_Unknown(t *testing.T) {
	_, err := ParseCommand("self_destruct", []byte(`{}`))
	require.Error(t, err)
	assert.True(t, IsKind(err, KindCommand))
}

func TestParseCommand_MalformedPayloadDoesNotPanic(t *testing.T) {
	_, err := ParseCommand("set_product_fee", []byte(`{"new_value":"not a number"}`))
	require.Error(t, err)
	assert.True(t, IsKind(err, KindCommand))
}
