package checkpoint

import (
	"io"
	"log/slog"
	"time"

	"github.com/yndnr/mcellckpt-go/internal/core/domain"
	"github.com/yndnr/mcellckpt-go/internal/sim"
	"github.com/yndnr/mcellckpt-go/internal/telemetry/metric"
)

// Encode writes the complete state of w to out.
//
// The scheduler is only walked, never modified. Species external ids are
// reassigned as a side effect.
func Encode(out io.Writer, w *sim.World, opts Options) (*Stats, error) {
	opts = opts.withDefaults()
	start := time.Now()

	stats, err := encode(out, w, opts)
	opts.Metrics.ObserveCheckpoint(metric.OpWrite, err, time.Since(start))
	if err != nil {
		return nil, err
	}
	opts.Metrics.AddMolecules(metric.MoleculesWritten, stats.Molecules)
	opts.Logger.Debug("checkpoint encoded",
		slog.Float64("time", w.Time),
		slog.Uint64("iteration", w.Iteration),
		slog.Int("molecules", stats.Molecules),
		slog.Int("complexes", stats.Complexes),
		slog.Int64("bytes", stats.Bytes),
	)
	return stats, nil
}

func encode(out io.Writer, w *sim.World, opts Options) (*Stats, error) {
	if w == nil || w.RNG == nil || w.Species == nil {
		return nil, domain.ErrInvalidArgument.WithDetails("world is not initialized")
	}
	e := newEncoder(out, opts.order)

	e.section(TagByteOrder)
	e.rawUint32("mark", byteOrderMark)
	e.section(TagVersion)
	e.string("version", opts.Version)

	live := assignSpeciesIDs(w.Species)
	stats := &Stats{Species: len(live)}

	for _, t := range bodyOrder {
		switch t {
		case TagCurrentTime:
			e.section(t)
			e.float64("time", w.Time)
		case TagCurrentIteration:
			e.section(t)
			e.uvarint("iteration", w.Iteration)
		case TagSeqNum:
			e.section(t)
			e.uvarint32("seq", w.CheckpointSeq)
		case TagRNGState:
			writeRNG(e, w.RNG)
		case TagSpeciesTable:
			writeSpecies(e, live)
		case TagSchedulerState:
			n, c, err := writeScheduler(e, w)
			if err != nil {
				return nil, err
			}
			stats.Molecules, stats.Complexes = n, c
		}
		if e.err != nil {
			return nil, e.err
		}
	}
	if err := e.flush(); err != nil {
		return nil, err
	}
	stats.Bytes = e.n
	return stats, nil
}
