package sim

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Kinds(t *testing.T) {
	cases := []struct {
		err  error
		kind Kind
	}{
		{StoreErr("boom", errors.New("io")), KindStore},
		{SerializationErr("bad payload", nil), KindSerialization},
		{ConfigErr("bad file", nil), KindConfiguration},
		{InvalidConfig("out of range"), KindConfiguration},
		{CommandErr("unknown", nil), KindCommand},
		{InvariantErr("duplicate slot"), KindInvariant},
		{SubsystemErr("macro", errors.New("db locked")), KindSubsystem},
	}
	for _, tc := range cases {
		assert.True(t, IsKind(tc.err, tc.kind), "%v should be %s", tc.err, tc.kind)
	}
}

func TestError_WrappingSurvivesFmtErrorf(t *testing.T) {
	inner := StoreErr("append event", errors.New("disk full"))
	wrapped := fmt.Errorf("tick 7: %w", inner)

	assert.True(t, IsKind(wrapped, KindStore))
	var e *Error
	require.True(t, errors.As(wrapped, &e))
	assert.Equal(t, "append event", e.Message)
}

func TestErrTickWhilePaused_Matching(t *testing.T) {
	assert.True(t, errors.Is(ErrTickWhilePaused, ErrTickWhilePaused))
	assert.True(t, IsKind(ErrTickWhilePaused, KindInvariant))
}

func TestSubsystemErr_CarriesName(t *testing.T) {
	err := SubsystemErr("pricing", errors.New("constraint"))
	assert.Contains(t, err.Error(), "pricing")
	assert.Contains(t, err.Error(), "constraint")
}
