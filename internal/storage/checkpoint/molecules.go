package checkpoint

import (
	"math"

	"github.com/yndnr/mcellckpt-go/internal/sim"
)

// MoleculeRecord is the stored form of one scheduled molecule.
type MoleculeRecord struct {
	SpeciesID     uint32
	NewlyActive   bool
	EventTime     float64
	UnimolTimeout float64
	Birthday      float64
	Pos           sim.Vector3
	Orientation   int16

	// ComplexID is the file-local complex id, 0 for free molecules.
	ComplexID    uint32
	SubunitIndex uint32
	// SubunitCount is stored for followers only (SubunitIndex > 0).
	SubunitCount uint32
}

func encodeMolecule(e *encoder, rec *MoleculeRecord) {
	e.uvarint32("species", rec.SpeciesID)
	var flag byte
	if rec.NewlyActive {
		flag = 1
	}
	e.byte("newly_active", flag)
	e.float64("event_time", rec.EventTime)
	e.float64("unimol_timeout", rec.UnimolTimeout)
	e.float64("birthday", rec.Birthday)
	e.vector("position", rec.Pos)
	e.int16("orientation", rec.Orientation)
	e.uvarint32("complex", rec.ComplexID)
	if rec.ComplexID == 0 {
		return
	}
	e.uvarint32("subunit_index", rec.SubunitIndex)
	if rec.SubunitIndex != 0 {
		e.uvarint32("subunit_count", rec.SubunitCount)
	}
}

func decodeMolecule(d *decoder, rec *MoleculeRecord) error {
	var err error
	if rec.SpeciesID, err = d.uvarint32("species"); err != nil {
		return err
	}
	if rec.NewlyActive, err = d.bool("newly_active"); err != nil {
		return err
	}
	if rec.EventTime, err = d.float64("event_time"); err != nil {
		return err
	}
	if rec.UnimolTimeout, err = d.float64("unimol_timeout"); err != nil {
		return err
	}
	if rec.Birthday, err = d.float64("birthday"); err != nil {
		return err
	}
	if math.IsNaN(rec.EventTime) {
		return corruptf(TagSchedulerState, "event_time", "event time is NaN")
	}
	if math.IsNaN(rec.Birthday) {
		return corruptf(TagSchedulerState, "birthday", "birthday is NaN")
	}
	if rec.Pos, err = d.vector("position"); err != nil {
		return err
	}
	if rec.Orientation, err = d.int16("orientation"); err != nil {
		return err
	}
	if rec.ComplexID, err = d.uvarint32("complex"); err != nil {
		return err
	}
	rec.SubunitIndex, rec.SubunitCount = 0, 0
	if rec.ComplexID == 0 {
		return nil
	}
	if rec.SubunitIndex, err = d.uvarint32("subunit_index"); err != nil {
		return err
	}
	if rec.SubunitIndex != 0 {
		if rec.SubunitCount, err = d.uvarint32("subunit_count"); err != nil {
			return err
		}
		if rec.SubunitIndex > rec.SubunitCount {
			return corruptf(TagSchedulerState, "subunit_index", "index %d exceeds count %d", rec.SubunitIndex, rec.SubunitCount)
		}
	}
	return nil
}

// liveMolecules counts scheduler entries that will be written.
func liveMolecules(w *sim.World) uint64 {
	var n uint64
	for _, p := range w.Partitions {
		_ = p.Scheduler.Walk(func(m *sim.Molecule) error {
			if !m.Defunct {
				n++
			}
			return nil
		})
	}
	return n
}

// writeScheduler emits MOL_SCHEDULER_STATE. Entries are visited partition by
// partition in scheduler walk order; defunct placeholders are skipped.
func writeScheduler(e *encoder, w *sim.World) (molecules, complexes int, err error) {
	total := liveMolecules(w)
	cw := newComplexWriter(w.Complexes)

	e.section(TagSchedulerState)
	e.uvarint("count", total)

	var rec MoleculeRecord
	for _, p := range w.Partitions {
		err = p.Scheduler.Walk(func(m *sim.Molecule) error {
			if m.Defunct {
				return nil
			}
			if err := fillRecord(&rec, m, cw); err != nil {
				return err
			}
			encodeMolecule(e, &rec)
			molecules++
			return e.err
		})
		if err != nil {
			return molecules, cw.len(), err
		}
	}
	if uint64(molecules) != total {
		return molecules, cw.len(), internalf(TagSchedulerState, "count", "wrote %d records, announced %d", molecules, total)
	}
	return molecules, cw.len(), nil
}

func fillRecord(rec *MoleculeRecord, m *sim.Molecule, cw *complexWriter) error {
	id, ok := m.Species.CheckpointID()
	if !ok {
		return internalf(TagSchedulerState, "species", "species %q has no external id", m.Species.Name)
	}
	*rec = MoleculeRecord{
		SpeciesID:     id,
		NewlyActive:   m.NewlyActive,
		EventTime:     m.EventTime,
		UnimolTimeout: m.UnimolTimeout,
		Birthday:      m.Birthday,
		Pos:           m.Pos,
		Orientation:   m.Orientation,
	}
	if m.Complex == 0 {
		return nil
	}
	cid, size, err := cw.surrogate(m.Complex)
	if err != nil {
		return err
	}
	rec.ComplexID = cid
	rec.SubunitIndex = uint32(m.SubunitIndex)
	if rec.SubunitIndex != 0 {
		rec.SubunitCount = uint32(size)
	}
	return nil
}
