package sim

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
)

// TestEventWireFormat_Golden pins the event-log payload byte layout. The
// payload column is the determinism contract's unit of comparison, so any
// drift here is a breaking change even if round-tripping still works.
func TestEventWireFormat_Golden(t *testing.T) {
	events := []Event{
		TickStarted{Tick: 1},
		RunInitialized{Tick: 0, RunID: "run-golden", Seed: 42},
		PlayerCommandReceived{Tick: 5, CommandID: "17", CommandType: "set_product_fee"},
		FeeCharged{Tick: 3, CustomerID: "cust-000001", AccountID: "acct-000001", FeeType: "overdraft", Amount: 27.08},
		ProductFeeChanged{Tick: 6, ProductID: "checking", FeeType: "monthly_fee", OldValue: 0, NewValue: 12},
		QuarterlyPnLComputed{Tick: 90, Period: "Q1-Y1", GrossIncome: 125000, PreTaxProfit: -80000, NIM: 2.15, EfficiencyRatio: 85.4},
		TickCompleted{Tick: 1},
	}

	var lines []string
	for _, event := range events {
		payload, err := MarshalEvent(event)
		require.NoError(t, err)
		lines = append(lines, payload)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "event_wire_format", []byte(strings.Join(lines, "\n")+"\n"))
}
