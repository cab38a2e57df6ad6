package checkpoint

import (
	"github.com/yndnr/mcellckpt-go/internal/sim/rng"
)

func writeRNG(e *encoder, r *rng.RNG) {
	words := r.State()
	e.section(TagRNGState)
	e.byte("family", byte(r.Family()))
	e.uvarint32("seed", r.Seed())
	e.uvarint32("words", uint32(len(words)))
	for _, w := range words {
		e.rawUint64("state", w)
	}
}

type rngRecord struct {
	Family rng.Family
	Seed   uint32
	Words  []uint64
}

func readRNGRecord(d *decoder) (rngRecord, error) {
	var rec rngRecord
	b, err := d.byte("family")
	if err != nil {
		return rec, err
	}
	rec.Family = rng.Family(b)
	if !rec.Family.Valid() {
		return rec, corruptf(TagRNGState, "family", "unknown generator 0x%02x", b)
	}
	if rec.Seed, err = d.uvarint32("seed"); err != nil {
		return rec, err
	}
	n, err := d.uvarint32("words")
	if err != nil {
		return rec, err
	}
	if want := rng.StateLen(rec.Family); int(n) != want {
		return rec, corruptf(TagRNGState, "words", "%s state has %d words, file has %d", rec.Family, want, n)
	}
	rec.Words = make([]uint64, n)
	for i := range rec.Words {
		if rec.Words[i], err = d.rawUint64("state"); err != nil {
			return rec, err
		}
	}
	return rec, nil
}
