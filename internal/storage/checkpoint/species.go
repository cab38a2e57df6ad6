package checkpoint

import (
	"github.com/yndnr/mcellckpt-go/internal/sim"
)

// assignSpeciesIDs gives every species with a live population a dense
// external id in table order and clears all others. It returns the species
// that received ids.
func assignSpeciesIDs(table *sim.SpeciesTable) []*sim.Species {
	table.ClearCheckpointIDs()
	var live []*sim.Species
	for _, s := range table.All() {
		if s.Population <= 0 {
			continue
		}
		s.SetCheckpointID(uint32(len(live)))
		live = append(live, s)
	}
	return live
}

func writeSpecies(e *encoder, live []*sim.Species) {
	e.section(TagSpeciesTable)
	e.uvarint32("count", uint32(len(live)))
	for _, s := range live {
		id, _ := s.CheckpointID()
		e.string("name", s.Name)
		e.uvarint32("id", id)
	}
}

type speciesEntry struct {
	Name string
	ID   uint32
}

func readSpeciesEntries(d *decoder, fn func(speciesEntry) error) error {
	n, err := d.uvarint32("count")
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		var ent speciesEntry
		if ent.Name, err = d.string("name"); err != nil {
			return err
		}
		if ent.ID, err = d.uvarint32("id"); err != nil {
			return err
		}
		if err := fn(ent); err != nil {
			return err
		}
	}
	return nil
}

// readSpecies attaches stored external ids to the model's species by name
// and returns the id lookup used while decoding molecule records.
func readSpecies(d *decoder, table *sim.SpeciesTable) (map[uint32]*sim.Species, error) {
	table.ClearCheckpointIDs()
	byID := make(map[uint32]*sim.Species)
	err := readSpeciesEntries(d, func(ent speciesEntry) error {
		s := table.Lookup(ent.Name)
		if s == nil {
			return corruptf(TagSpeciesTable, "name", "unknown species %q", ent.Name)
		}
		if other, dup := byID[ent.ID]; dup {
			return corruptf(TagSpeciesTable, "id", "id %d used by both %q and %q", ent.ID, other.Name, ent.Name)
		}
		if _, has := s.CheckpointID(); has {
			return corruptf(TagSpeciesTable, "name", "species %q listed twice", ent.Name)
		}
		s.SetCheckpointID(ent.ID)
		byID[ent.ID] = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return byID, nil
}
