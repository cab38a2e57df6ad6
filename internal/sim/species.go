package sim

import "fmt"

// Kind distinguishes molecules that move freely in a volume from molecules
// bound to a surface tile.
type Kind uint8

const (
	Volume Kind = iota
	Surface
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Volume:
		return "volume"
	case Surface:
		return "surface"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Species describes one molecule type and its live bookkeeping.
type Species struct {
	Name              string
	Kind              Kind
	DiffusionConstant float64
	DecayRate         float64

	// ComplexSubunits is non-zero for species that act as the master of a
	// macromolecular complex; it is the number of subunits that complex holds.
	ComplexSubunits int

	Population int64

	checkpointID    uint32
	hasCheckpointID bool
}

// CheckpointID returns the external id assigned by the last checkpoint
// read or write, if any.
func (s *Species) CheckpointID() (uint32, bool) {
	return s.checkpointID, s.hasCheckpointID
}

// SetCheckpointID attaches an external id.
func (s *Species) SetCheckpointID(id uint32) {
	s.checkpointID = id
	s.hasCheckpointID = true
}

// ClearCheckpointID detaches any external id.
func (s *Species) ClearCheckpointID() {
	s.checkpointID = 0
	s.hasCheckpointID = false
}

// SpeciesTable is the ordered list of species known to a model.
type SpeciesTable struct {
	list []*Species
}

// NewSpeciesTable returns an empty table.
func NewSpeciesTable() *SpeciesTable {
	return &SpeciesTable{}
}

// Add appends a species. Names must be unique.
func (t *SpeciesTable) Add(s *Species) error {
	if s == nil || s.Name == "" {
		return fmt.Errorf("sim: species name is required")
	}
	if t.Lookup(s.Name) != nil {
		return fmt.Errorf("sim: duplicate species %q", s.Name)
	}
	t.list = append(t.list, s)
	return nil
}

// All returns the species in table order. The slice must not be modified.
func (t *SpeciesTable) All() []*Species {
	return t.list
}

// Len returns the number of species.
func (t *SpeciesTable) Len() int {
	return len(t.list)
}

// Lookup returns the species with the given name, or nil.
func (t *SpeciesTable) Lookup(name string) *Species {
	for _, s := range t.list {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// ByCheckpointID returns the species carrying the given external id, or nil.
// It scans the table and is meant for load-time use only.
func (t *SpeciesTable) ByCheckpointID(id uint32) *Species {
	for _, s := range t.list {
		if got, ok := s.CheckpointID(); ok && got == id {
			return s
		}
	}
	return nil
}

// ClearCheckpointIDs detaches every external id.
func (t *SpeciesTable) ClearCheckpointIDs() {
	for _, s := range t.list {
		s.ClearCheckpointID()
	}
}
