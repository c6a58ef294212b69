// Package sim defines the shared vocabulary of the simulation kernel:
// opaque identifiers and the tick counter, the per-run clock, the closed
// event and command catalogues with their wire serialization, the
// deterministic RNG bank, the subsystem contract with its append-only slot
// registry, snapshots, and the kernel error taxonomy.
//
// Determinism is the organizing principle. Two runs with the same master
// seed, migrations, subsystem registration, configuration, and command
// schedule must produce byte-identical event-log payloads row-for-row.
// Everything in this package is built to make that property hold:
//
//   - RNG streams are derived from (master_seed, slot, tick) only. Adding
//     or reordering one subsystem never perturbs another's stream.
//   - Event serialization is byte-stable: one JSON object per event, type
//     tag first, fields in declaration order.
//   - Nothing here reads a wall clock, an environment variable, or a
//     platform entropy source. A static-analysis test enforces this for
//     the whole kernel source set.
package sim
