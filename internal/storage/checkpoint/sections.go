package checkpoint

import "fmt"

// Tag identifies a section. Values are part of the file format.
type Tag byte

const (
	TagByteOrder Tag = iota + 1
	TagVersion
	TagCurrentTime
	TagCurrentIteration
	TagSeqNum
	TagRNGState
	TagSpeciesTable
	TagSchedulerState

	tagLimit
)

var tagNames = [...]string{
	TagByteOrder:        "BYTE_ORDER",
	TagVersion:          "MCELL_VERSION",
	TagCurrentTime:      "CURRENT_TIME",
	TagCurrentIteration: "CURRENT_ITERATION",
	TagSeqNum:           "CHKPT_SEQ_NUM",
	TagRNGState:         "RNG_STATE",
	TagSpeciesTable:     "SPECIES_TABLE",
	TagSchedulerState:   "MOL_SCHEDULER_STATE",
}

// String returns the section name used in diagnostics.
func (t Tag) String() string {
	if t.valid() {
		return tagNames[t]
	}
	return fmt.Sprintf("TAG_0x%02X", byte(t))
}

func (t Tag) valid() bool {
	return t >= TagByteOrder && t < tagLimit
}

// bodyOrder is the order in which the writer emits the sections that
// follow the preamble.
var bodyOrder = []Tag{
	TagCurrentTime,
	TagCurrentIteration,
	TagSeqNum,
	TagRNGState,
	TagSpeciesTable,
	TagSchedulerState,
}

// requiredTags must all be present once the reader reaches EOF.
var requiredTags = []Tag{
	TagCurrentTime,
	TagSeqNum,
	TagRNGState,
	TagSchedulerState,
}

// prerequisites lists sections that must already have been read when the
// keyed section is reached.
var prerequisites = map[Tag][]Tag{
	TagSchedulerState: {TagCurrentIteration, TagSpeciesTable},
}

type tagSet uint16

func (s tagSet) has(t Tag) bool { return s&(1<<t) != 0 }
func (s *tagSet) add(t Tag)     { *s |= 1 << t }
