package sim

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// roundTripEvents is a representative slice of the catalogue: engine
// anchors, every payload field type, and omitempty behavior.
var roundTripEvents = []Event{
	TickStarted{Tick: 1},
	TickCompleted{Tick: 1},
	RunInitialized{Tick: 0, RunID: "run-1", Seed: 42},
	PlayerCommandReceived{Tick: 5, CommandID: "17", CommandType: "set_product_fee"},
	MacroStateUpdated{Tick: 90, BaseRate: 0.0525, EconomicPhase: PhasePeak, FraudMultiplier: 1.1},
	CustomerOnboarded{Tick: 1, CustomerID: "cust-000001", Segment: "mass_market", AccountID: "acct-000001"},
	CustomerChurned{Tick: 30, CustomerID: "cust-000002", Reason: "attrition"},
	FeeCharged{Tick: 3, CustomerID: "cust-000001", AccountID: "acct-000001", FeeType: "overdraft", Amount: 27.08},
	ComplaintFiled{Tick: 4, ComplaintID: "cmp-1", CustomerID: "cust-000001", Issue: "fee_dispute", Priority: "standard"},
	SLABreached{Tick: 20, ComplaintID: "cmp-1", CustomerID: "cust-000001", DaysOverdue: 5},
	QuarterlyPnLComputed{Tick: 90, Period: "Q1-Y1", GrossIncome: 125000, PreTaxProfit: -80000, NIM: 2.15, EfficiencyRatio: 85.4},
	ProductFeeChanged{Tick: 6, ProductID: "checking", FeeType: "monthly_fee", OldValue: 0, NewValue: 12.0},
	ProductFeeChanged{Tick: 6, ProductID: "checking", FeeType: "overdraft_fee", OldValue: 27.08, NewValue: 32.0, Warning: "above soft limit"},
	FeeChangeRejected{Tick: 6, ProductID: "checking", FeeType: "nsf_fee", Reason: "too high"},
	OfferBonusPaid{Tick: 40, OfferID: "signup_bonus_100", CustomerID: "cust-000003", Amount: 100.0},
	PaymentBatchCreated{Tick: 8, BatchID: "batch-1", Rail: "card", TxnCount: 12, TotalAmount: 840.55},
	ReconExceptionSLABreach{Tick: 18, ExceptionID: "recx-1", AgeTicks: 10},
	DisputeFiled{Tick: 9, DisputeID: "dsp-1", TxnID: "txn-1", CustomerID: "cust-000004", Amount: 55.0, ReasonCode: "unauthorized"},
	FraudAlertGenerated{Tick: 10, AlertID: "fra-1", AccountID: "acct-000004", Pattern: "velocity", Score: 0.82},
	AMLScreeningHit{Tick: 30, ScreeningID: "scr-1", CustomerID: "cust-000005", List: "ofac", MatchScore: 0.97},
	SARFiled{Tick: 30, SARID: "sar-1", CustomerID: "cust-000005", ActivityType: "structuring"},
	SARLateFiling{Tick: 45, SARID: "sar-1", CustomerID: "cust-000005", DaysLate: 8, RegulatoryFine: 33000},
	SARMetricsComputed{Tick: 60, SARsFiled: 3, SARsLate: 1, TotalFines: 33000},
	CTRFiled{Tick: 11, CTRID: "ctr-1", CustomerID: "cust-000006", Amount: 12400.0},
	RegulatoryExamStarted{Tick: 91, ExamID: "exam-occ-91-0042", Examiner: "OCC", Scope: "targeted_aml"},
	ExamFindingRecorded{Tick: 105, ExamID: "exam-occ-91-0042", FindingID: "fnd-1", Category: "sar_timeliness", Severity: "major", FineAmount: 100000},
	RegulatoryExamClosed{Tick: 105, ExamID: "exam-occ-91-0042", Examiner: "OCC", FindingCount: 2, FineTotal: 105000, MOUIssued: true},
	MOUReceived{Tick: 105, ExamID: "exam-occ-91-0042", Examiner: "OCC", FineTotal: 105000},
	ReputationUpdated{Tick: 106, Score: 61.5, Delta: -8.0, PrimaryDriver: "mou"},
	TransactionMonitoringAlert{Tick: 12, AlertID: "tma-1", AccountID: "acct-000006", Rule: "structuring", Score: 0.75},
	RiskDialChanged{Tick: 13, DialID: "aml_alert_threshold", OldValue: 0.60, NewValue: 0.40},
	BoardPressureFired{Tick: 90, DialID: "aml_alert_threshold", Message: "far below appetite"},
	IncidentCreated{Tick: 14, IncidentID: "inc-1", Component: "card_switch", Severity: "major"},
}

func TestMarshalEvent_RoundTrip(t *testing.T) {
	for _, event := range roundTripEvents {
		payload, err := MarshalEvent(event)
		require.NoError(t, err, "marshal %s", event.EventType())

		decoded, err := UnmarshalEvent([]byte(payload))
		require.NoError(t, err, "unmarshal %s", event.EventType())
		assert.Equal(t, event, decoded, "round trip %s", event.EventType())
	}
}

func TestMarshalEvent_TypeTagLeadsPayload(t *testing.T) {
	payload, err := MarshalEvent(TickStarted{Tick: 7})
	require.NoError(t, err)
	assert.Equal(t, `{"type":"tick_started","tick":7}`, payload)
}

func TestMarshalEvent_PayloadIsValidJSON(t *testing.T) {
	for _, event := range roundTripEvents {
		payload, err := MarshalEvent(event)
		require.NoError(t, err)
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(payload), &m), "payload of %s", event.EventType())
		assert.Equal(t, event.EventType(), m["type"])
	}
}

func TestUnmarshalEvent_UnknownTag(t *testing.T) {
	_, err := UnmarshalEvent([]byte(`{"type":"no_such_event","tick":1}`))
	require.Error(t, err)
	assert.True(t, IsKind(err, KindSerialization))
}

func TestUnmarshalEvent_MalformedJSON(t *testing.T) {
	_, err := UnmarshalEvent([]byte(`{not json`))
	require.Error(t, err)
	assert.True(t, IsKind(err, KindSerialization))
}

func TestEventRegistry_CoversCatalogue(t *testing.T) {
	tags := EventTypes()
	assert.GreaterOrEqual(t, len(tags), 50, "catalogue should hold ~50 variants")

	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		assert.False(t, seen[tag], "duplicate tag %s", tag)
		seen[tag] = true
	}
}

func TestEventTick_MatchesPayload(t *testing.T) {
	for _, event := range roundTripEvents {
		payload, err := MarshalEvent(event)
		require.NoError(t, err)
		var head struct {
			Tick Tick `json:"tick"`
		}
		require.NoError(t, json.Unmarshal([]byte(payload), &head))
		assert.Equal(t, event.EventTick(), head.Tick, "%s", event.EventType())
	}
}
