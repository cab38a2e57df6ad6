package checkpoint

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sort"
	"testing"

	"github.com/yndnr/mcellckpt-go/internal/sim"
	"github.com/yndnr/mcellckpt-go/internal/sim/rng"
)

const testVersion = "mcellckpt test"

// Species ids used by hand-built files.
const (
	idA uint32 = iota
	idR
	idC
	idU
)

type fixture struct {
	w *sim.World

	A *sim.Species // volume
	R *sim.Species // surface
	C *sim.Species // volume complex master with two subunits
	U *sim.Species // surface complex subunit
	Z *sim.Species // never populated
}

func newFixture(t *testing.T, family rng.Family, seed uint32) *fixture {
	t.Helper()
	f := &fixture{
		A: &sim.Species{Name: "A", Kind: sim.Volume, DiffusionConstant: 1e-6},
		R: &sim.Species{Name: "R", Kind: sim.Surface},
		C: &sim.Species{Name: "C", Kind: sim.Volume, ComplexSubunits: 2},
		U: &sim.Species{Name: "U", Kind: sim.Surface},
		Z: &sim.Species{Name: "Z", Kind: sim.Volume},
	}
	table := sim.NewSpeciesTable()
	for _, s := range []*sim.Species{f.A, f.R, f.C, f.U, f.Z} {
		if err := table.Add(s); err != nil {
			t.Fatalf("Add(%s): %v", s.Name, err)
		}
	}
	r, err := rng.New(family, seed)
	if err != nil {
		t.Fatalf("rng.New: %v", err)
	}
	f.w = sim.NewWorld(sim.Config{TimeStep: 1e-3, SchedulerBuckets: 10, SurfaceTolerance: 0.01}, table, r)
	p, err := f.w.AddPartition(sim.Bounds{Max: sim.Vector3{X: 1, Y: 1, Z: 1}})
	if err != nil {
		t.Fatalf("AddPartition: %v", err)
	}
	g, err := sim.NewSurfaceGrid(0, sim.Vector3{Z: 0.5}, sim.Vector3{X: 1}, sim.Vector3{Y: 1}, 0.1, 10, 10)
	if err != nil {
		t.Fatalf("NewSurfaceGrid: %v", err)
	}
	p.AddSurface(g)
	return f
}

// populate fills the fixture with free volume and surface molecules, one
// complex, one defunct placeholder, and advances the run a few steps.
func (f *fixture) populate(t *testing.T) {
	t.Helper()
	w := f.w
	for i := 0; i < 20; i++ {
		m := &sim.Molecule{
			Species:       f.A,
			Pos:           sim.Vector3{X: 0.02 + 0.045*float64(i), Y: 0.3, Z: 0.2},
			Birthday:      -1e-4 * float64(i),
			EventTime:     2.5e-3 * float64(i),
			UnimolTimeout: 1.0 + float64(i),
			NewlyActive:   i%3 == 0,
		}
		if err := w.AddMolecule(m); err != nil {
			t.Fatalf("AddMolecule(A %d): %v", i, err)
		}
	}
	for i := 0; i < 5; i++ {
		m := &sim.Molecule{
			Species:       f.R,
			Pos:           sim.Vector3{X: 0.05 + 0.1*float64(i), Y: 0.25, Z: 0.5},
			Orientation:   int16(1 - 2*(i%2)),
			EventTime:     1e-3 * float64(i+1),
			UnimolTimeout: math.Inf(1),
		}
		if err := w.AddMolecule(m); err != nil {
			t.Fatalf("AddMolecule(R %d): %v", i, err)
		}
	}
	_, err := w.NewComplex([]*sim.Molecule{
		{Species: f.C, Pos: sim.Vector3{X: 0.5, Y: 0.7, Z: 0.3}, EventTime: 4e-3, UnimolTimeout: math.Inf(1)},
		{Species: f.U, Pos: sim.Vector3{X: 0.55, Y: 0.75, Z: 0.5}, Orientation: 1, EventTime: 4e-3, UnimolTimeout: math.Inf(1)},
		{Species: f.U, Pos: sim.Vector3{X: 0.65, Y: 0.75, Z: 0.5}, Orientation: -1, EventTime: 4e-3, UnimolTimeout: math.Inf(1)},
	})
	if err != nil {
		t.Fatalf("NewComplex: %v", err)
	}

	gone := &sim.Molecule{Species: f.A, Pos: sim.Vector3{X: 0.9, Y: 0.9, Z: 0.9}, EventTime: 6e-3, UnimolTimeout: math.Inf(1)}
	if err := w.AddMolecule(gone); err != nil {
		t.Fatalf("AddMolecule(defunct): %v", err)
	}
	w.RemoveMolecule(gone)

	for i := 0; i < 3; i++ {
		w.Step()
	}
	w.CheckpointSeq = 7
}

func testOptions(log *slog.Logger) Options {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return Options{Version: testVersion, Logger: log}
}

func captureLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, nil)), &buf
}

// molKey is the comparable state of one scheduled molecule.
type molKey struct {
	Species     string
	Pos         sim.Vector3
	Orientation int16
	Birthday    float64
	EventTime   float64
	Timeout     float64
	NewlyActive bool
	InComplex   bool
	Subunit     int
}

func moleculeSet(w *sim.World) []string {
	var out []string
	for _, p := range w.Partitions {
		_ = p.Scheduler.Walk(func(m *sim.Molecule) error {
			if m.Defunct {
				return nil
			}
			out = append(out, fmt.Sprintf("%+v", molKey{
				Species:     m.Species.Name,
				Pos:         m.Pos,
				Orientation: m.Orientation,
				Birthday:    m.Birthday,
				EventTime:   m.EventTime,
				Timeout:     m.UnimolTimeout,
				NewlyActive: m.NewlyActive,
				InComplex:   m.Complex != 0,
				Subunit:     m.SubunitIndex,
			}))
			return nil
		})
	}
	sort.Strings(out)
	return out
}

func otherOrder() binary.ByteOrder {
	if hostOrder == binary.LittleEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// fileBuilder assembles checkpoint files section by section.
type fileBuilder struct {
	buf bytes.Buffer
	e   *encoder
}

func newFileBuilder() *fileBuilder {
	b := &fileBuilder{}
	b.e = newEncoder(&b.buf, hostOrder)
	return b
}

func (b *fileBuilder) byteOrder() *fileBuilder {
	b.e.section(TagByteOrder)
	b.e.rawUint32("mark", byteOrderMark)
	return b
}

func (b *fileBuilder) version(v string) *fileBuilder {
	b.e.section(TagVersion)
	b.e.string("version", v)
	return b
}

func (b *fileBuilder) preamble() *fileBuilder {
	return b.byteOrder().version(testVersion)
}

func (b *fileBuilder) time(t float64) *fileBuilder {
	b.e.section(TagCurrentTime)
	b.e.float64("time", t)
	return b
}

func (b *fileBuilder) iteration(n uint64) *fileBuilder {
	b.e.section(TagCurrentIteration)
	b.e.uvarint("iteration", n)
	return b
}

func (b *fileBuilder) seq(n uint32) *fileBuilder {
	b.e.section(TagSeqNum)
	b.e.uvarint32("seq", n)
	return b
}

func (b *fileBuilder) rng(r *rng.RNG) *fileBuilder {
	writeRNG(b.e, r)
	return b
}

func (b *fileBuilder) rngRaw(family byte, seed uint32, words []uint64) *fileBuilder {
	b.e.section(TagRNGState)
	b.e.byte("family", family)
	b.e.uvarint32("seed", seed)
	b.e.uvarint32("words", uint32(len(words)))
	for _, w := range words {
		b.e.rawUint64("state", w)
	}
	return b
}

func (b *fileBuilder) species(entries ...speciesEntry) *fileBuilder {
	b.e.section(TagSpeciesTable)
	b.e.uvarint32("count", uint32(len(entries)))
	for _, ent := range entries {
		b.e.string("name", ent.Name)
		b.e.uvarint32("id", ent.ID)
	}
	return b
}

func (b *fileBuilder) fixtureSpecies() *fileBuilder {
	return b.species(
		speciesEntry{"A", idA},
		speciesEntry{"R", idR},
		speciesEntry{"C", idC},
		speciesEntry{"U", idU},
	)
}

func (b *fileBuilder) scheduler(recs ...MoleculeRecord) *fileBuilder {
	b.e.section(TagSchedulerState)
	b.e.uvarint("count", uint64(len(recs)))
	for i := range recs {
		encodeMolecule(b.e, &recs[i])
	}
	return b
}

// header writes everything up to the scheduler for a fixture world.
func (b *fileBuilder) header(f *fixture) *fileBuilder {
	return b.preamble().time(0.25).iteration(250).seq(3).rng(f.w.RNG).fixtureSpecies()
}

func (b *fileBuilder) raw(p ...byte) *fileBuilder {
	b.e.write("raw", p)
	return b
}

func (b *fileBuilder) bytes(t *testing.T) []byte {
	t.Helper()
	if err := b.e.flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	return b.buf.Bytes()
}

func freeRec(id uint32, pos sim.Vector3) MoleculeRecord {
	return MoleculeRecord{SpeciesID: id, Pos: pos, EventTime: 0.2505, UnimolTimeout: math.Inf(1)}
}

func subunitRec(complexID, index uint32, pos sim.Vector3) MoleculeRecord {
	rec := MoleculeRecord{
		SpeciesID:     idU,
		Pos:           pos,
		EventTime:     0.2505,
		UnimolTimeout: math.Inf(1),
		ComplexID:     complexID,
		SubunitIndex:  index,
		SubunitCount:  2,
	}
	if index == 0 {
		rec.SpeciesID = idC
		rec.SubunitCount = 0
	}
	return rec
}
