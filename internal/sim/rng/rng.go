// Package rng provides the seeded pseudo-random generators used by the
// simulator.
//
// Two families are supported: the 32-bit ISAAC generator and Bob Jenkins'
// small fast 64-bit generator ("minimal"). Their full internal state can be
// exported and re-imported as a flat slice of words so that a run can be
// resumed from a checkpoint.
package rng

import (
	"fmt"
	"math"
	"strings"
)

// Family names a generator algorithm. The value is also its checkpoint tag.
type Family byte

const (
	ISAAC   Family = 'I'
	Minimal Family = 'M'
)

// String returns the family name.
func (f Family) String() string {
	switch f {
	case ISAAC:
		return "isaac"
	case Minimal:
		return "minimal"
	default:
		return fmt.Sprintf("unknown(0x%02x)", byte(f))
	}
}

// Valid reports whether f is a known family.
func (f Family) Valid() bool {
	return f == ISAAC || f == Minimal
}

// ParseFamily converts a configuration name into a Family.
func ParseFamily(name string) (Family, error) {
	switch strings.ToLower(name) {
	case "isaac", "":
		return ISAAC, nil
	case "minimal", "jsf":
		return Minimal, nil
	default:
		return 0, fmt.Errorf("rng: unknown family %q", name)
	}
}

// StateLen returns the number of state words exported by a family.
func StateLen(f Family) int {
	switch f {
	case ISAAC:
		return isaacStateLen
	case Minimal:
		return jsfStateLen
	default:
		return 0
	}
}

// RNG is a seeded generator. It is not safe for concurrent use.
type RNG struct {
	family Family
	seed   uint32
	isaac  isaacState
	jsf    jsfState
}

// New returns a generator of the given family initialized from seed.
func New(family Family, seed uint32) (*RNG, error) {
	if !family.Valid() {
		return nil, fmt.Errorf("rng: unknown family 0x%02x", byte(family))
	}
	r := &RNG{family: family}
	r.Reinit(seed)
	return r, nil
}

// Reinit discards the current state and reseeds the generator.
func (r *RNG) Reinit(seed uint32) {
	r.seed = seed
	switch r.family {
	case ISAAC:
		r.isaac.init(seed)
	case Minimal:
		r.jsf.init(seed)
	}
}

// Family returns the generator family.
func (r *RNG) Family() Family { return r.family }

// Seed returns the seed the generator was last initialized from.
func (r *RNG) Seed() uint32 { return r.seed }

// Uint64 returns the next 64 random bits.
func (r *RNG) Uint64() uint64 {
	if r.family == Minimal {
		return r.jsf.next()
	}
	hi := uint64(r.isaac.next())
	return hi<<32 | uint64(r.isaac.next())
}

// Uint32 returns the next 32 random bits.
func (r *RNG) Uint32() uint32 {
	if r.family == Minimal {
		return uint32(r.jsf.next() >> 32)
	}
	return r.isaac.next()
}

// Float64 returns a uniform value in [0, 1).
func (r *RNG) Float64() float64 {
	return float64(r.Uint64()>>11) / (1 << 53)
}

// Gauss returns a standard normal deviate (Box-Muller, one value per call).
func (r *RNG) Gauss() float64 {
	u := r.Float64()
	for u == 0 {
		u = r.Float64()
	}
	v := r.Float64()
	return math.Sqrt(-2*math.Log(u)) * math.Cos(2*math.Pi*v)
}

// State exports the generator's internal state.
func (r *RNG) State() []uint64 {
	if r.family == Minimal {
		return r.jsf.words()
	}
	return r.isaac.words()
}

// SetState adopts a previously exported state. The seed is recorded as the
// one the state originated from.
func (r *RNG) SetState(seed uint32, words []uint64) error {
	if len(words) != StateLen(r.family) {
		return fmt.Errorf("rng: %s state has %d words, want %d", r.family, len(words), StateLen(r.family))
	}
	switch r.family {
	case ISAAC:
		if err := r.isaac.load(words); err != nil {
			return err
		}
	case Minimal:
		r.jsf.load(words)
	}
	r.seed = seed
	return nil
}
