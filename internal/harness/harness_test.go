package harness

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/georgehampton08-rgb/fincrime-thedesk/internal/sim"
)

func TestRun_ProducesAnchoredLog(t *testing.T) {
	result := Run(t, &Scenario{Name: "smoke", Seed: 42, Ticks: 5, Population: 3})

	assert.Equal(t, sim.Tick(5), result.Engine.Clock.CurrentTick)
	assert.True(t, result.Engine.Clock.Paused)

	for tick := sim.Tick(1); tick <= 5; tick++ {
		RequireTickAnchors(t, result.Store, result.RunID, tick)
	}
	RequireStrictlyIncreasingIDs(t, result.Store, result.RunID)
}

func TestUIState_InitialShape_Golden(t *testing.T) {
	result := BuildTestEngine(t, &Scenario{Name: "uistate-golden", Seed: 42, Population: 3})

	state, err := result.Engine.BuildUIState()
	require.NoError(t, err)
	data, err := json.Marshal(state)
	require.NoError(t, err)

	AssertGolden(t, "ui_state_initial", append(data, '\n'))
}
