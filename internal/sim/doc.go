// Package sim holds the live state of a particle-based reaction-diffusion
// simulation: the species table, molecules, per-partition multi-resolution
// event schedulers, spatial indexes, surface tile grids and the arena of
// macromolecular complexes.
//
// A World is the explicit context object handed to every component that
// reads or mutates simulation state; nothing in this package is global.
// The stepping logic is a deliberately small random walk with first-order
// decay. It exists to drive the checkpoint subsystem end to end.
package sim
