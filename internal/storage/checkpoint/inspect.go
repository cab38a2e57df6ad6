package checkpoint

import (
	"encoding/hex"
	"io"
	"sort"

	"github.com/spaolacci/murmur3"

	"github.com/yndnr/mcellckpt-go/internal/core/domain"
)

// SpeciesSummary describes one SPECIES_TABLE entry.
type SpeciesSummary struct {
	Name      string `json:"name" yaml:"name"`
	ID        uint32 `json:"id" yaml:"id"`
	Molecules int    `json:"molecules" yaml:"molecules"`
}

// Summary describes a checkpoint without restoring it.
type Summary struct {
	ByteOrder string   `json:"byte_order" yaml:"byte_order"`
	Version   string   `json:"version" yaml:"version"`
	Sections  []string `json:"sections" yaml:"sections"`

	Time      float64 `json:"time" yaml:"time"`
	Iteration uint64  `json:"iteration" yaml:"iteration"`
	Seq       uint32  `json:"seq" yaml:"seq"`

	RNGFamily string `json:"rng_family" yaml:"rng_family"`
	RNGSeed   uint32 `json:"rng_seed" yaml:"rng_seed"`

	Species   []SpeciesSummary `json:"species" yaml:"species"`
	Molecules uint64           `json:"molecules" yaml:"molecules"`
	Complexes int              `json:"complexes" yaml:"complexes"`

	Size   int64  `json:"size" yaml:"size"`
	Digest string `json:"digest" yaml:"digest"`
}

// Inspect reads a checkpoint and reports its contents. Framing and
// ordering are checked exactly as on restore; model-dependent checks are
// not. When opts.Version is empty any version is accepted.
func Inspect(in io.Reader, opts Options) (*Summary, error) {
	h := murmur3.New128()
	cr := &countingReader{r: io.TeeReader(in, h)}

	sum := &Summary{}
	names := make(map[uint32]int)
	complexes := make(map[uint32]struct{})

	sr := &sectionReader{
		d: newDecoder(cr),
		version: func(v string) error {
			sum.Version = v
			if opts.Version != "" && v != opts.Version {
				return domain.ErrVersionMismatch.WithDetails(
					"file written by " + quote(v) + ", expected " + quote(opts.Version))
			}
			return nil
		},
	}
	sr.handlers = map[Tag]func(*decoder) error{
		TagCurrentTime: func(d *decoder) (err error) {
			sum.Time, err = d.float64("time")
			return err
		},
		TagCurrentIteration: func(d *decoder) (err error) {
			sum.Iteration, err = d.uvarint("iteration")
			return err
		},
		TagSeqNum: func(d *decoder) (err error) {
			sum.Seq, err = d.uvarint32("seq")
			return err
		},
		TagRNGState: func(d *decoder) error {
			rec, err := readRNGRecord(d)
			sum.RNGFamily, sum.RNGSeed = rec.Family.String(), rec.Seed
			return err
		},
		TagSpeciesTable: func(d *decoder) error {
			return readSpeciesEntries(d, func(ent speciesEntry) error {
				if _, dup := names[ent.ID]; dup {
					return corruptf(TagSpeciesTable, "id", "id %d listed twice", ent.ID)
				}
				names[ent.ID] = len(sum.Species)
				sum.Species = append(sum.Species, SpeciesSummary{Name: ent.Name, ID: ent.ID})
				return nil
			})
		},
		TagSchedulerState: func(d *decoder) error {
			n, err := d.uvarint("count")
			if err != nil {
				return err
			}
			var rec MoleculeRecord
			for i := uint64(0); i < n; i++ {
				if err := decodeMolecule(d, &rec); err != nil {
					return err
				}
				idx, ok := names[rec.SpeciesID]
				if !ok {
					return corruptf(TagSchedulerState, "species", "record %d: unknown species id %d", i, rec.SpeciesID)
				}
				sum.Species[idx].Molecules++
				if rec.ComplexID != 0 {
					complexes[rec.ComplexID] = struct{}{}
				}
			}
			sum.Molecules = n
			return nil
		},
	}

	if err := sr.run(); err != nil {
		return nil, err
	}
	sum.ByteOrder = orderName(sr.d.order)
	for _, t := range sr.sections {
		sum.Sections = append(sum.Sections, t.String())
	}
	sort.Slice(sum.Species, func(i, j int) bool { return sum.Species[i].ID < sum.Species[j].ID })
	sum.Complexes = len(complexes)
	sum.Size = cr.n
	sum.Digest = hex.EncodeToString(h.Sum(nil))
	return sum, nil
}

// InspectFile is Inspect on the file at path.
func InspectFile(path string, opts Options) (*Summary, error) {
	f, err := openCheckpoint(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Inspect(f, opts)
}

// Digest returns the murmur3 128-bit digest of r's contents in hex.
func Digest(r io.Reader) (string, error) {
	h := murmur3.New128()
	if _, err := io.Copy(h, r); err != nil {
		return "", domain.ErrIO.WithCause(err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
