package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBank_SameSlotAndTickYieldIdenticalStreams(t *testing.T) {
	bank := NewBank(42)

	a := bank.ForSubsystem(SlotCustomer, 7)
	b := bank.ForSubsystem(SlotCustomer, 7)

	for i := 0; i < 100; i++ {
		require.Equal(t, a.Uint64(), b.Uint64(), "draw %d diverged", i)
	}
}

func TestBank_DifferentSlotsYieldDifferentStreams(t *testing.T) {
	bank := NewBank(42)

	a := bank.ForSubsystem(SlotMacro, 1)
	b := bank.ForSubsystem(SlotCustomer, 1)

	same := true
	for i := 0; i < 16; i++ {
		if a.Uint64() != b.Uint64() {
			same = false
			break
		}
	}
	assert.False(t, same, "distinct slots must not share a stream")
}

func TestBank_DifferentTicksYieldDifferentStreams(t *testing.T) {
	bank := NewBank(42)

	a := bank.ForSubsystem(SlotMacro, 1)
	b := bank.ForSubsystem(SlotMacro, 2)

	same := true
	for i := 0; i < 16; i++ {
		if a.Uint64() != b.Uint64() {
			same = false
			break
		}
	}
	assert.False(t, same, "distinct ticks must not share a stream")
}

func TestBank_SeedChangesStream(t *testing.T) {
	a := NewBank(1).ForSubsystem(SlotMacro, 1)
	b := NewBank(2).ForSubsystem(SlotMacro, 1)
	assert.NotEqual(t, a.Uint64(), b.Uint64())
}

func TestRand_Float64InUnitInterval(t *testing.T) {
	rng := NewRand(99, SlotMacro, 3)
	for i := 0; i < 1000; i++ {
		f := rng.Float64()
		require.GreaterOrEqual(t, f, 0.0)
		require.Less(t, f, 1.0)
	}
}

func TestRand_Uint64BelowStaysInRange(t *testing.T) {
	rng := NewRand(99, SlotMacro, 3)
	for i := 0; i < 1000; i++ {
		require.Less(t, rng.Uint64Below(10), uint64(10))
	}
}

func TestRand_Uint64BelowZeroPanics(t *testing.T) {
	rng := NewRand(99, SlotMacro, 3)
	assert.Panics(t, func() { rng.Uint64Below(0) })
}

func TestRand_IntBetweenInclusive(t *testing.T) {
	rng := NewRand(7, SlotChurn, 1)
	for i := 0; i < 500; i++ {
		v := rng.IntBetween(-3, 3)
		require.GreaterOrEqual(t, v, int64(-3))
		require.LessOrEqual(t, v, int64(3))
	}
	assert.Panics(t, func() { rng.IntBetween(2, 1) })
}

func TestRand_FloatBetweenStaysInRange(t *testing.T) {
	rng := NewRand(7, SlotPricing, 1)
	for i := 0; i < 500; i++ {
		v := rng.FloatBetween(1.5, 4.5)
		require.GreaterOrEqual(t, v, 1.5)
		require.Less(t, v, 4.5)
	}
}

func TestRand_ParetoRespectsMinimum(t *testing.T) {
	rng := NewRand(7, SlotTransaction, 1)
	for i := 0; i < 500; i++ {
		require.GreaterOrEqual(t, rng.Pareto(15.0, 1.8), 15.0)
	}
}

func TestRand_ChanceExtremes(t *testing.T) {
	rng := NewRand(7, SlotComplaint, 1)
	for i := 0; i < 100; i++ {
		assert.False(t, rng.Chance(0.0))
		assert.True(t, rng.Chance(1.0))
	}
}
