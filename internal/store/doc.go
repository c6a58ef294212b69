// Package store is the kernel's persistence layer and the only place that
// executes SQL. Subsystems call named store methods — they never touch the
// database directly.
//
// The backend is a single SQLite file opened in WAL mode so the external
// client can hold read-only connections while the engine writes. Each
// handle limits itself to one open connection; cross-connection writes are
// serialized by SQLite's writer lock. The engine holds a primary handle for
// event appends and DDL, and every subsystem gets its own handle on the
// same file via Reopen.
//
// Schema changes ship as numbered, zero-padded migration scripts embedded
// in the binary. The applier records each applied script in
// schema_migrations and runs pending scripts in order, one transaction per
// script, failing fast. Released scripts are never edited.
//
// The event log is append-only: rows are never updated or deleted, row ids
// are strictly increasing per run, and the relative order of rows within a
// tick matches emission order. That ordering is what makes replay
// bit-for-bit reproducible.
package store
