// Package engine is the simulation kernel: it constructs the subsystems,
// owns the clock, the RNG bank, and the pending-command queue, drives the
// tick, and assembles UI state.
//
// EXECUTION ORDER (fixed, documented, never reordered):
//
//	macro → customer → offer → churn → transaction → payment_hub →
//	reconciliation → card_dispute → fraud_detection → aml_screening →
//	transaction_monitoring → regulatory_exam → complaint → pricing →
//	economics → complaint_analytics → risk_appetite
//	(→ incident, opt-in builds) → reputation
//
// Producers precede consumers; feedback aggregators run last so they
// observe the full tick. Feedback loops that cannot be staged inside one
// tick are realized across consecutive ticks.
//
// RULES:
//   - Subsystems execute in registration order, every tick.
//   - Each subsystem sees every event emitted earlier in the tick.
//   - No subsystem calls another subsystem directly.
//   - All randomness flows through the RNG bank.
//   - Every emitted event is appended to the event log before the next
//     subsystem runs.
//
// Within one tick the kernel is strictly single-threaded: exactly one
// Tick() is in flight at a time and subsystems run sequentially. The
// engine is the only holder of ambient state (clock, pending commands,
// RNG bank); everything is injected by construction, never reached
// through a global.
package engine
