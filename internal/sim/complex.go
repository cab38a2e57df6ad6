package sim

import (
	"fmt"
	"sort"
)

// ComplexHandle is a stable identifier for a complex in a ComplexArena.
// The zero handle means "not part of a complex".
type ComplexHandle uint32

// Complex is a group of co-located molecules linked to one master.
type Complex struct {
	Handle ComplexHandle

	// Subunits[0] is the master; Subunits[1:] are the subunits in order.
	Subunits []*Molecule
}

// Master returns the master molecule.
func (c *Complex) Master() *Molecule {
	return c.Subunits[0]
}

// Size returns the number of subunits, excluding the master.
func (c *Complex) Size() int {
	return len(c.Subunits) - 1
}

// ComplexArena owns every live complex.
type ComplexArena struct {
	next  ComplexHandle
	items map[ComplexHandle]*Complex
}

// NewComplexArena returns an empty arena.
func NewComplexArena() *ComplexArena {
	return &ComplexArena{items: make(map[ComplexHandle]*Complex)}
}

// Register links the given molecules into a new complex. members[0] becomes
// the master and the returned complex owns the slice.
func (a *ComplexArena) Register(members []*Molecule) (*Complex, error) {
	if len(members) < 2 {
		return nil, fmt.Errorf("sim: complex needs a master and at least one subunit")
	}
	for i, m := range members {
		if m == nil {
			return nil, fmt.Errorf("sim: complex member %d is nil", i)
		}
		if m.Complex != 0 {
			return nil, fmt.Errorf("sim: molecule already belongs to complex %d", m.Complex)
		}
	}
	if want := members[0].Species.ComplexSubunits; want != len(members)-1 {
		return nil, fmt.Errorf("sim: species %q declares %d subunits, got %d",
			members[0].Species.Name, want, len(members)-1)
	}

	a.next++
	c := &Complex{Handle: a.next, Subunits: members}
	for i, m := range members {
		m.Complex = c.Handle
		m.SubunitIndex = i
	}
	a.items[c.Handle] = c
	return c, nil
}

// Get returns the complex with the given handle.
func (a *ComplexArena) Get(h ComplexHandle) (*Complex, bool) {
	c, ok := a.items[h]
	return c, ok
}

// Remove unlinks a complex. Its molecules are left untouched apart from
// losing their membership.
func (a *ComplexArena) Remove(h ComplexHandle) {
	c, ok := a.items[h]
	if !ok {
		return
	}
	for _, m := range c.Subunits {
		if m != nil && m.Complex == h {
			m.Complex = 0
			m.SubunitIndex = 0
		}
	}
	delete(a.items, h)
}

// Len returns the number of live complexes.
func (a *ComplexArena) Len() int {
	return len(a.items)
}

// Handles returns every live handle in ascending order.
func (a *ComplexArena) Handles() []ComplexHandle {
	out := make([]ComplexHandle, 0, len(a.items))
	for h := range a.items {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
