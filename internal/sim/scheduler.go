package sim

import (
	"fmt"
	"math"
)

// maxSchedulerDepth bounds the chain of coarser timescales. Events beyond
// the horizon of the deepest level are kept in its last bucket.
const maxSchedulerDepth = 12

// Scheduler orders pending molecule events by time.
//
// Each level holds a "current" list for events due before Now()+dt and a
// circular array of future buckets of width dt. Events past the last bucket
// go to a lazily created coarser level whose bucket width is this level's
// whole span. When a level wraps around, the coarser level's current slot
// is redistributed into it.
type Scheduler struct {
	dt      float64
	dtInv   float64
	now     float64
	index   int
	depth   int
	current []*Molecule
	buckets [][]*Molecule
	next    *Scheduler
}

// NewScheduler returns a scheduler with the given bucket width and count
// whose window starts at start.
func NewScheduler(dt float64, buckets int, start float64) (*Scheduler, error) {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return nil, fmt.Errorf("sim: scheduler dt must be positive, got %v", dt)
	}
	if buckets < 2 {
		return nil, fmt.Errorf("sim: scheduler needs at least 2 buckets, got %d", buckets)
	}
	return newLevel(dt, buckets, start, 0), nil
}

func newLevel(dt float64, buckets int, start float64, depth int) *Scheduler {
	return &Scheduler{
		dt:      dt,
		dtInv:   1 / dt,
		now:     start,
		depth:   depth,
		buckets: make([][]*Molecule, buckets),
	}
}

// Now returns the start of the current slot.
func (s *Scheduler) Now() float64 { return s.now }

// Dt returns the bucket width of the finest level.
func (s *Scheduler) Dt() float64 { return s.dt }

// Insert schedules m at absolute time t.
func (s *Scheduler) Insert(m *Molecule, t float64) {
	m.EventTime = t
	s.place(m, true)
}

// Reschedule moves an already scheduled molecule to time t.
func (s *Scheduler) Reschedule(m *Molecule, t float64) {
	s.Remove(m)
	s.Insert(m, t)
}

func (s *Scheduler) place(m *Molecule, escalate bool) {
	n := len(s.buckets)
	off := math.Floor((m.EventTime - s.now) * s.dtInv)
	switch {
	case !(off >= 1):
		s.current = append(s.current, m)
	case off < float64(n):
		i := (s.index + int(off)) % n
		s.buckets[i] = append(s.buckets[i], m)
	case !escalate || s.depth+1 >= maxSchedulerDepth:
		i := (s.index + n - 1) % n
		s.buckets[i] = append(s.buckets[i], m)
	default:
		if s.next == nil {
			// Align the coarser level with the start of this level's cycle.
			start := s.now - float64(s.index)*s.dt
			s.next = newLevel(s.dt*float64(n), n, start, s.depth+1)
		}
		s.next.place(m, true)
	}
}

// Advance removes and returns every event in the current slot, then moves
// the window forward by one bucket.
func (s *Scheduler) Advance() []*Molecule {
	due := s.current
	s.current = nil
	s.shift()
	return due
}

func (s *Scheduler) shift() {
	s.now += s.dt
	s.index++
	if s.index == len(s.buckets) {
		s.index = 0
	}
	s.current = append(s.current, s.buckets[s.index]...)
	s.buckets[s.index] = nil

	if s.index != 0 || s.next == nil {
		return
	}
	s.next.shift()
	pending := s.next.current
	s.next.current = nil
	for _, m := range pending {
		s.place(m, false)
	}
}

// Remove deletes m from whichever list holds it.
func (s *Scheduler) Remove(m *Molecule) bool {
	for lvl := s; lvl != nil; lvl = lvl.next {
		if removeFrom(&lvl.current, m) {
			return true
		}
		for i := range lvl.buckets {
			if removeFrom(&lvl.buckets[i], m) {
				return true
			}
		}
	}
	return false
}

func removeFrom(list *[]*Molecule, m *Molecule) bool {
	for i, x := range *list {
		if x == m {
			*list = append((*list)[:i], (*list)[i+1:]...)
			return true
		}
	}
	return false
}

// Walk calls fn for every scheduled entry, defunct ones included, in a
// stable order: finest level first, current list, then future buckets from
// the nearest outwards. Walking stops at the first error.
func (s *Scheduler) Walk(fn func(*Molecule) error) error {
	for lvl := s; lvl != nil; lvl = lvl.next {
		for _, m := range lvl.current {
			if err := fn(m); err != nil {
				return err
			}
		}
		n := len(lvl.buckets)
		for k := 1; k <= n; k++ {
			for _, m := range lvl.buckets[(lvl.index+k)%n] {
				if err := fn(m); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// Len returns the number of scheduled entries, defunct ones included.
func (s *Scheduler) Len() int {
	total := 0
	for lvl := s; lvl != nil; lvl = lvl.next {
		total += len(lvl.current)
		for _, b := range lvl.buckets {
			total += len(b)
		}
	}
	return total
}

// Depth returns the number of timescale levels currently allocated.
func (s *Scheduler) Depth() int {
	d := 0
	for lvl := s; lvl != nil; lvl = lvl.next {
		d++
	}
	return d
}
