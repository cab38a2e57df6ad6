package rng

const jsfStateLen = 4

type jsfState struct {
	a, b, c, d uint64
}

func rot64(x uint64, k uint) uint64 {
	return x<<k | x>>(64-k)
}

func (s *jsfState) init(seed uint32) {
	s.a = 0xf1ea5eed
	s.b = uint64(seed)
	s.c = uint64(seed)
	s.d = uint64(seed)
	for i := 0; i < 20; i++ {
		s.next()
	}
}

func (s *jsfState) next() uint64 {
	e := s.a - rot64(s.b, 7)
	s.a = s.b ^ rot64(s.c, 13)
	s.b = s.c + rot64(s.d, 37)
	s.c = s.d + e
	s.d = e + s.a
	return s.d
}

func (s *jsfState) words() []uint64 {
	return []uint64{s.a, s.b, s.c, s.d}
}

func (s *jsfState) load(words []uint64) {
	s.a, s.b, s.c, s.d = words[0], words[1], words[2], words[3]
}
