package rng

import "fmt"

const (
	isaacSize = 256
	// counter, a, b, c, results, memory
	isaacStateLen = 4 + 2*isaacSize
)

type isaacState struct {
	rsl [isaacSize]uint32
	mem [isaacSize]uint32
	a   uint32
	b   uint32
	c   uint32
	cnt uint32
}

func (s *isaacState) init(seed uint32) {
	*s = isaacState{}
	s.rsl[0] = seed

	var v [8]uint32
	for i := range v {
		v[i] = 0x9e3779b9
	}
	for i := 0; i < 4; i++ {
		isaacMix(&v)
	}
	for pass := 0; pass < 2; pass++ {
		src := &s.rsl
		if pass == 1 {
			src = &s.mem
		}
		for i := 0; i < isaacSize; i += 8 {
			for j := range v {
				v[j] += src[i+j]
			}
			isaacMix(&v)
			copy(s.mem[i:i+8], v[:])
		}
	}
	s.generate()
	s.cnt = isaacSize
}

func isaacMix(v *[8]uint32) {
	a, b, c, d, e, f, g, h := v[0], v[1], v[2], v[3], v[4], v[5], v[6], v[7]
	a ^= b << 11
	d += a
	b += c
	b ^= c >> 2
	e += b
	c += d
	c ^= d << 8
	f += c
	d += e
	d ^= e >> 16
	g += d
	e += f
	e ^= f << 10
	h += e
	f += g
	f ^= g >> 4
	a += f
	g += h
	g ^= h << 8
	b += g
	h += a
	h ^= a >> 9
	c += h
	a += b
	*v = [8]uint32{a, b, c, d, e, f, g, h}
}

func (s *isaacState) generate() {
	s.c++
	s.b += s.c
	for i := 0; i < isaacSize; i++ {
		x := s.mem[i]
		switch i & 3 {
		case 0:
			s.a ^= s.a << 13
		case 1:
			s.a ^= s.a >> 6
		case 2:
			s.a ^= s.a << 2
		case 3:
			s.a ^= s.a >> 16
		}
		s.a += s.mem[(i+isaacSize/2)&(isaacSize-1)]
		y := s.mem[(x>>2)&(isaacSize-1)] + s.a + s.b
		s.mem[i] = y
		s.b = s.mem[(y>>10)&(isaacSize-1)] + x
		s.rsl[i] = s.b
	}
}

func (s *isaacState) next() uint32 {
	if s.cnt == 0 {
		s.generate()
		s.cnt = isaacSize
	}
	s.cnt--
	return s.rsl[s.cnt]
}

func (s *isaacState) words() []uint64 {
	out := make([]uint64, 0, isaacStateLen)
	out = append(out, uint64(s.cnt), uint64(s.a), uint64(s.b), uint64(s.c))
	for _, w := range s.rsl {
		out = append(out, uint64(w))
	}
	for _, w := range s.mem {
		out = append(out, uint64(w))
	}
	return out
}

func (s *isaacState) load(words []uint64) error {
	for i, w := range words {
		if w > 0xFFFFFFFF {
			return fmt.Errorf("rng: isaac state word %d out of range", i)
		}
	}
	if words[0] > isaacSize {
		return fmt.Errorf("rng: isaac counter %d out of range", words[0])
	}
	s.cnt = uint32(words[0])
	s.a = uint32(words[1])
	s.b = uint32(words[2])
	s.c = uint32(words[3])
	for i := 0; i < isaacSize; i++ {
		s.rsl[i] = uint32(words[4+i])
		s.mem[i] = uint32(words[4+isaacSize+i])
	}
	return nil
}
