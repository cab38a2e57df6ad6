package checkpoint

import (
	"log/slog"
	"sort"

	"github.com/yndnr/mcellckpt-go/internal/sim"
)

// maxSubunits bounds the slot array allocated for one complex on read.
const maxSubunits = 1 << 16

// complexWriter hands out file-local ids for complexes in first-seen order.
type complexWriter struct {
	arena *sim.ComplexArena
	ids   map[sim.ComplexHandle]uint32
}

func newComplexWriter(arena *sim.ComplexArena) *complexWriter {
	return &complexWriter{arena: arena, ids: make(map[sim.ComplexHandle]uint32)}
}

func (cw *complexWriter) surrogate(h sim.ComplexHandle) (id uint32, size int, err error) {
	c, ok := cw.arena.Get(h)
	if !ok {
		return 0, 0, internalf(TagSchedulerState, "complex", "molecule references unknown complex %d", h)
	}
	id, ok = cw.ids[h]
	if !ok {
		id = uint32(len(cw.ids) + 1)
		cw.ids[h] = id
	}
	return id, c.Size(), nil
}

func (cw *complexWriter) len() int { return len(cw.ids) }

type complexState uint8

const (
	complexPending complexState = iota
	complexPlaced
	complexUnplaceable
)

type complexSlots struct {
	state   complexState
	members []*sim.Molecule
	filled  int
}

// complexReader collects complex subunits as their records arrive, in any
// order, and registers each complex once every slot is filled.
type complexReader struct {
	world *sim.World
	log   *slog.Logger
	byID  map[uint32]*complexSlots

	// sizes holds the subunit counts declared by master species. A stored
	// follower count outside this set cannot belong to any complex.
	sizes map[int]struct{}

	placed           int
	dropped          int
	complexesDropped int
}

func newComplexReader(w *sim.World, log *slog.Logger) *complexReader {
	sizes := make(map[int]struct{})
	for _, s := range w.Species.All() {
		if s.ComplexSubunits > 0 {
			sizes[s.ComplexSubunits] = struct{}{}
		}
	}
	return &complexReader{
		world: w,
		log:   log,
		byID:  make(map[uint32]*complexSlots),
		sizes: sizes,
	}
}

// add places m as subunit rec.SubunitIndex of complex rec.ComplexID.
func (cr *complexReader) add(rec *MoleculeRecord, m *sim.Molecule) error {
	var count int
	if rec.SubunitIndex == 0 {
		count = m.Species.ComplexSubunits
		if count <= 0 {
			return corruptf(TagSchedulerState, "complex", "species %q is not a complex master", m.Species.Name)
		}
	} else {
		count = int(rec.SubunitCount)
		if _, ok := cr.sizes[count]; !ok {
			return corruptf(TagSchedulerState, "subunit_count",
				"complex %d: no complex species has %d subunits", rec.ComplexID, count)
		}
	}
	if count <= 0 || count >= maxSubunits {
		return corruptf(TagSchedulerState, "subunit_count", "complex %d: invalid subunit count %d", rec.ComplexID, count)
	}

	slots, ok := cr.byID[rec.ComplexID]
	if !ok {
		slots = &complexSlots{members: make([]*sim.Molecule, count+1)}
		cr.byID[rec.ComplexID] = slots
	}
	switch slots.state {
	case complexUnplaceable:
		cr.dropped++
		return nil
	case complexPlaced:
		return corruptf(TagSchedulerState, "complex", "complex %d: record after all subunits were placed", rec.ComplexID)
	}
	if len(slots.members) != count+1 {
		return corruptf(TagSchedulerState, "subunit_count", "complex %d: subunit count %d, expected %d",
			rec.ComplexID, count, len(slots.members)-1)
	}
	idx := int(rec.SubunitIndex)
	if idx >= len(slots.members) {
		return corruptf(TagSchedulerState, "subunit_index", "complex %d: index %d out of range", rec.ComplexID, idx)
	}
	if slots.members[idx] != nil {
		return corruptf(TagSchedulerState, "subunit_index", "complex %d: subunit %d stored twice", rec.ComplexID, idx)
	}

	if err := cr.world.AddMolecule(m); err != nil {
		cr.log.Warn("dropping complex: subunit could not be placed",
			slog.Uint64("complex", uint64(rec.ComplexID)),
			slog.Int("subunit", idx),
			slog.String("species", m.Species.Name),
			slog.String("error", err.Error()),
		)
		cr.dropped++
		cr.abandon(slots)
		return nil
	}
	slots.members[idx] = m
	slots.filled++
	if slots.filled < len(slots.members) {
		return nil
	}

	if _, err := cr.world.Complexes.Register(slots.members); err != nil {
		return corruptf(TagSchedulerState, "complex", "complex %d: %v", rec.ComplexID, err)
	}
	cr.placed++
	slots.state = complexPlaced
	slots.members = nil
	return nil
}

// abandon retracts every placed sibling and marks the complex so later
// records for it are skipped.
func (cr *complexReader) abandon(slots *complexSlots) {
	for i, m := range slots.members {
		if m == nil {
			continue
		}
		cr.world.RetractMolecule(m)
		slots.members[i] = nil
		cr.dropped++
	}
	slots.members = nil
	slots.filled = 0
	slots.state = complexUnplaceable
	cr.complexesDropped++
}

// finish retracts complexes that never received all their subunits.
func (cr *complexReader) finish() {
	ids := make([]uint32, 0, len(cr.byID))
	for id, slots := range cr.byID {
		if slots.state == complexPending {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		slots := cr.byID[id]
		cr.log.Warn("dropping incomplete complex",
			slog.Uint64("complex", uint64(id)),
			slog.Int("present", slots.filled),
			slog.Int("expected", len(slots.members)),
		)
		cr.abandon(slots)
	}
}
