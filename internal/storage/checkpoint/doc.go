// Package checkpoint saves and restores the complete mutable state of a
// simulation run.
//
// A checkpoint file is a flat sequence of sections, each a one-byte tag
// followed by a tag-specific payload, read strictly in order until EOF:
//
//	BYTE_ORDER          raw uint32 0x01020304 in the writer's byte order
//	MCELL_VERSION       string: program version, must match exactly
//	CURRENT_TIME        raw float64
//	CURRENT_ITERATION   uvarint64
//	CHKPT_SEQ_NUM       uvarint32
//	RNG_STATE           family byte, seed uvarint32, word count uvarint32,
//	                    raw uint64 words
//	SPECIES_TABLE       count uvarint32, {name string, external id uvarint32}
//	MOL_SCHEDULER_STATE count uvarint64, molecule records
//
// Counts, lengths and ids use the varint codec from pkg/varint. Raw
// fixed-width fields are written in host byte order and never swapped on
// write; the reader decodes them in the order recorded by BYTE_ORDER.
//
// Each tag appears at most once. BYTE_ORDER and MCELL_VERSION open the file
// in that order. CURRENT_ITERATION and SPECIES_TABLE must precede
// MOL_SCHEDULER_STATE. CURRENT_TIME, CHKPT_SEQ_NUM, RNG_STATE and
// MOL_SCHEDULER_STATE are required.
//
// Molecule records reference species through dense external ids assigned
// at write time, and complexes through file-local surrogate ids (1..n).
// Neither id survives beyond one read or write.
//
// Writes go to a temporary file that is renamed over the destination once
// fully synced. A missing file is reported as domain.ErrNoCheckpoint so the
// caller can start fresh; malformed content is domain.ErrDataCorrupt.
package checkpoint
