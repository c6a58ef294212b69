package sim

// Tick is one discrete step of simulated time. One tick = one in-game day.
type Tick = uint64

// RunID is the canonical identifier for one simulation run. Every persisted
// row carries it so rows of distinct runs never interact.
type RunID = string

// EntityID is a stable, unique identifier for any entity in the simulation.
type EntityID = string
