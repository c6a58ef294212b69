package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClock_InitialState(t *testing.T) {
	c := NewClock("run-1")
	assert.Equal(t, Tick(0), c.CurrentTick)
	assert.True(t, c.Paused)
	assert.Equal(t, SpeedNormal, c.Speed)
}

func TestClock_Advance(t *testing.T) {
	c := NewClock("run-1")
	c.Resume()
	require.Equal(t, Tick(1), c.Advance())
	require.Equal(t, Tick(2), c.Advance())
	assert.Equal(t, Tick(2), c.CurrentTick)
}

func TestClock_AdvanceWhilePausedPanics(t *testing.T) {
	c := NewClock("run-1")
	assert.Panics(t, func() { c.Advance() })
}

func TestClock_PauseResume(t *testing.T) {
	c := NewClock("run-1")
	c.Resume()
	assert.False(t, c.Paused)
	c.Pause()
	assert.True(t, c.Paused)
}

func TestSpeed_TicksPerStep(t *testing.T) {
	assert.Equal(t, uint32(1), SpeedNormal.TicksPerStep())
	assert.Equal(t, uint32(7), SpeedAccelerated.TicksPerStep())
	assert.Equal(t, uint32(30), SpeedFastForward.TicksPerStep())
}
