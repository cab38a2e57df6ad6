package checkpoint

import (
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/yndnr/mcellckpt-go/internal/core/domain"
	"github.com/yndnr/mcellckpt-go/internal/sim"
	"github.com/yndnr/mcellckpt-go/internal/telemetry/metric"
)

// Decode restores the state stored in in onto w.
//
// w must be freshly built from the same model: species, partitions and
// surfaces in place, RNG created with the run's requested seed, nothing
// scheduled yet. On error w is left partially restored and must be
// discarded.
func Decode(in io.Reader, w *sim.World, opts Options) (*Stats, error) {
	opts = opts.withDefaults()
	start := time.Now()

	stats, err := decode(in, w, opts)
	opts.Metrics.ObserveCheckpoint(metric.OpRead, err, time.Since(start))
	if err != nil {
		return nil, err
	}
	opts.Metrics.AddMolecules(metric.MoleculesRestored, stats.Molecules)
	opts.Metrics.AddMolecules(metric.MoleculesDropped, stats.Dropped)
	opts.Metrics.AddComplexesDropped(stats.ComplexesDropped)
	if stats.RNGReinitialized {
		opts.Metrics.IncRNGReinitialized()
	}
	opts.Logger.Debug("checkpoint decoded",
		slog.Float64("time", w.Time),
		slog.Uint64("iteration", w.Iteration),
		slog.Int("molecules", stats.Molecules),
		slog.Int("dropped", stats.Dropped),
	)
	return stats, nil
}

type restorer struct {
	w       *sim.World
	log     *slog.Logger
	stats   *Stats
	species map[uint32]*sim.Species

	scheduled bool
}

func decode(in io.Reader, w *sim.World, opts Options) (*Stats, error) {
	if w == nil || w.RNG == nil || w.Species == nil {
		return nil, domain.ErrInvalidArgument.WithDetails("world is not initialized")
	}
	if n := w.PendingCount(); n > 0 || w.Complexes.Len() > 0 {
		return nil, domain.ErrInvalidArgument.WithDetails("world already holds scheduled molecules")
	}

	r := &restorer{w: w, log: opts.Logger, stats: &Stats{}}
	sr := &sectionReader{
		d: newDecoder(in),
		version: func(v string) error {
			if v != opts.Version {
				return domain.ErrVersionMismatch.WithDetails(
					"file written by " + quote(v) + ", this is " + quote(opts.Version))
			}
			return nil
		},
		handlers: map[Tag]func(*decoder) error{
			TagCurrentTime:      r.readTime,
			TagCurrentIteration: r.readIteration,
			TagSeqNum:           r.readSeq,
			TagRNGState:         r.readRNG,
			TagSpeciesTable:     r.readSpecies,
			TagSchedulerState:   r.readScheduler,
		},
	}
	if err := sr.run(); err != nil {
		return nil, err
	}
	return r.stats, nil
}

func quote(s string) string {
	const max = 64
	if len(s) > max {
		s = s[:max] + "..."
	}
	return `"` + s + `"`
}

func (r *restorer) readTime(d *decoder) error {
	t, err := d.float64("time")
	if err != nil {
		return err
	}
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return corruptf(TagCurrentTime, "time", "not a finite number")
	}
	r.w.Time = t
	if r.scheduled {
		return r.rebase(t)
	}
	return nil
}

func (r *restorer) readIteration(d *decoder) error {
	it, err := d.uvarint("iteration")
	if err != nil {
		return err
	}
	r.w.Iteration = it
	return nil
}

func (r *restorer) readSeq(d *decoder) error {
	seq, err := d.uvarint32("seq")
	if err != nil {
		return err
	}
	if seq == math.MaxUint32 {
		return corruptf(TagSeqNum, "seq", "sequence number exhausted")
	}
	r.w.CheckpointSeq = seq + 1
	return nil
}

func (r *restorer) readRNG(d *decoder) error {
	rec, err := readRNGRecord(d)
	if err != nil {
		return err
	}
	gen := r.w.RNG
	if rec.Family != gen.Family() {
		return corruptf(TagRNGState, "family", "file uses %s generator, run uses %s", rec.Family, gen.Family())
	}
	if rec.Seed != gen.Seed() {
		r.log.Warn("checkpoint seed differs from requested seed, reinitializing generator",
			slog.Uint64("stored_seed", uint64(rec.Seed)),
			slog.Uint64("requested_seed", uint64(gen.Seed())),
		)
		gen.Reinit(gen.Seed())
		r.stats.RNGReinitialized = true
		return nil
	}
	if err := gen.SetState(rec.Seed, rec.Words); err != nil {
		return domain.ErrDataCorrupt.WithDetails(details(TagRNGState, "state", err.Error())).WithCause(err)
	}
	return nil
}

func (r *restorer) readSpecies(d *decoder) error {
	byID, err := readSpecies(d, r.w.Species)
	if err != nil {
		return err
	}
	r.species = byID
	r.stats.Species = len(byID)
	return nil
}

func (r *restorer) readScheduler(d *decoder) error {
	n, err := d.uvarint("count")
	if err != nil {
		return err
	}
	if err := r.w.ResetSchedulers(r.w.Time); err != nil {
		return internalf(TagSchedulerState, "", "reset schedulers: %v", err)
	}

	cr := newComplexReader(r.w, r.log)
	var rec MoleculeRecord
	for i := uint64(0); i < n; i++ {
		if err := decodeMolecule(d, &rec); err != nil {
			return err
		}
		sp := r.species[rec.SpeciesID]
		if sp == nil {
			return corruptf(TagSchedulerState, "species", "record %d: unknown species id %d", i, rec.SpeciesID)
		}
		m := &sim.Molecule{
			Species:       sp,
			Pos:           rec.Pos,
			Orientation:   rec.Orientation,
			Birthday:      rec.Birthday,
			EventTime:     rec.EventTime,
			UnimolTimeout: rec.UnimolTimeout,
			NewlyActive:   rec.NewlyActive,
		}
		if rec.ComplexID != 0 {
			if err := cr.add(&rec, m); err != nil {
				return err
			}
			continue
		}
		if err := r.w.AddMolecule(m); err != nil {
			r.log.Warn("dropping molecule: could not be placed",
				slog.String("species", sp.Name),
				slog.Float64("x", rec.Pos.X),
				slog.Float64("y", rec.Pos.Y),
				slog.Float64("z", rec.Pos.Z),
				slog.String("error", err.Error()),
			)
			r.stats.Dropped++
		}
	}
	cr.finish()

	r.scheduled = true
	r.stats.Molecules = r.w.PendingCount()
	r.stats.Complexes = cr.placed
	r.stats.Dropped += cr.dropped
	r.stats.ComplexesDropped = cr.complexesDropped
	return nil
}

// rebase moves every restored molecule onto schedulers starting at t. It
// runs when CURRENT_TIME follows MOL_SCHEDULER_STATE.
func (r *restorer) rebase(t float64) error {
	held := make([][]*sim.Molecule, len(r.w.Partitions))
	for i, p := range r.w.Partitions {
		_ = p.Scheduler.Walk(func(m *sim.Molecule) error {
			if !m.Defunct {
				held[i] = append(held[i], m)
			}
			return nil
		})
	}
	if err := r.w.ResetSchedulers(t); err != nil {
		return internalf(TagCurrentTime, "", "reset schedulers: %v", err)
	}
	for i, p := range r.w.Partitions {
		for _, m := range held[i] {
			p.Scheduler.Insert(m, m.EventTime)
		}
	}
	return nil
}
