package sim

// Subsystem is the contract every domain module fulfills.
//
// The engine calls Update on each registered subsystem in registration
// order, every tick. A subsystem must be a pure function of its prior
// persisted state, eventsIn, rng, and its immutable configuration: no
// ambient clock, no environment, no unseeded randomness. Subsystems never
// call each other directly; all coupling is through events.
type Subsystem interface {
	// Name is the stable identifier used as the subsystem column in the
	// event log.
	Name() string

	// Update is called once per tick by the engine.
	//
	//   tick:     the current tick number
	//   eventsIn: every event emitted earlier in the current tick,
	//             including TickStarted, injected commands, and the
	//             outputs of earlier subsystems
	//   rng:      this subsystem's deterministic stream for (slot, tick)
	//
	// Returns new events to append to the tick's event log.
	Update(tick Tick, eventsIn []Event, rng *Rand) ([]Event, error)
}

// Slot is a stable small integer tag identifying a subsystem's RNG stream
// and its place in the append-only registry.
//
// NEVER reorder or remove entries — only append. Reordering changes every
// subsystem's seed derivation. Retired subsystems keep their value and are
// marked deprecated.
type Slot uint64

const (
	SlotMacro              Slot = 0
	SlotCustomer           Slot = 1
	SlotAccount            Slot = 2 // Deprecated: folded into customer.
	SlotTransaction        Slot = 3
	SlotComplaint          Slot = 4
	SlotEconomics          Slot = 5
	SlotFraudDetection     Slot = 6
	SlotRegulatory         Slot = 7 // Deprecated: superseded by aml_screening, risk_appetite, and regulatory_exam.
	SlotPricing            Slot = 8
	SlotOffer              Slot = 9
	SlotChurn              Slot = 10
	SlotComplaintAnalytics Slot = 11
	SlotRiskAppetite       Slot = 12
	SlotPaymentHub         Slot = 13
	SlotReconciliation     Slot = 14
	SlotCardDispute        Slot = 15
	SlotAMLScreening       Slot = 16
	SlotTxnMonitoring      Slot = 17
	SlotIncident           Slot = 18
	SlotRegulatoryExam     Slot = 19
	SlotReputation         Slot = 20
	// Add new subsystems here — append only.
)

// Name returns the stable subsystem name for a slot.
func (s Slot) Name() string {
	switch s {
	case SlotMacro:
		return "macro"
	case SlotCustomer:
		return "customer"
	case SlotAccount:
		return "account"
	case SlotTransaction:
		return "transaction"
	case SlotComplaint:
		return "complaint"
	case SlotEconomics:
		return "economics"
	case SlotFraudDetection:
		return "fraud_detection"
	case SlotRegulatory:
		return "regulatory"
	case SlotPricing:
		return "pricing"
	case SlotOffer:
		return "offer"
	case SlotChurn:
		return "churn"
	case SlotComplaintAnalytics:
		return "complaint_analytics"
	case SlotRiskAppetite:
		return "risk_appetite"
	case SlotPaymentHub:
		return "payment_hub"
	case SlotReconciliation:
		return "reconciliation"
	case SlotCardDispute:
		return "card_dispute"
	case SlotAMLScreening:
		return "aml_screening"
	case SlotTxnMonitoring:
		return "transaction_monitoring"
	case SlotIncident:
		return "incident"
	case SlotRegulatoryExam:
		return "regulatory_exam"
	case SlotReputation:
		return "reputation"
	default:
		return "unknown"
	}
}
