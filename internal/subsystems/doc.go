// Package subsystems holds the domain modules registered with the engine.
//
// Every subsystem obeys the same discipline: it reads its prior persisted
// state through its own store handle, consumes the tick's event stream,
// draws randomness only from its (slot, tick) stream, and returns new
// events. Subsystems never call each other; ordering is the only coupling.
// Producers run before consumers, and feedback that cannot be staged inside
// one tick is realized across consecutive ticks.
package subsystems
