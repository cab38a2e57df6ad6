package varint

import (
	"errors"
	"io"
	"math"
)

// MaxLen64 is the maximum encoded size of a 64-bit value.
const MaxLen64 = 10

var (
	// ErrOverflow is returned when a decoded value does not fit the target width.
	ErrOverflow = errors.New("varint: value overflows target width")
)

// AppendUint64 appends the encoding of v to dst.
func AppendUint64(dst []byte, v uint64) []byte {
	var buf [MaxLen64]byte
	i := len(buf) - 1
	buf[i] = byte(v & 0x7F)
	v >>= 7
	for v != 0 {
		i--
		buf[i] = byte(v&0x7F) | 0x80
		v >>= 7
	}
	return append(dst, buf[i:]...)
}

// AppendUint32 appends the encoding of v to dst.
func AppendUint32(dst []byte, v uint32) []byte {
	return AppendUint64(dst, uint64(v))
}

// AppendInt64 appends the signed encoding of v to dst.
func AppendInt64(dst []byte, v int64) []byte {
	return AppendUint64(dst, signedToWire(v))
}

// AppendInt32 appends the signed encoding of v to dst.
func AppendInt32(dst []byte, v int32) []byte {
	return AppendInt64(dst, int64(v))
}

// ReadUint64 decodes one unsigned value from r.
//
// io.EOF is returned only when no byte could be read; a value cut short
// mid-encoding yields io.ErrUnexpectedEOF.
func ReadUint64(r io.ByteReader) (uint64, error) {
	var accum uint64
	for n := 0; ; n++ {
		b, err := r.ReadByte()
		if err != nil {
			if n > 0 && err == io.EOF {
				return 0, io.ErrUnexpectedEOF
			}
			return 0, err
		}
		if n == MaxLen64 || accum>>57 != 0 {
			return 0, ErrOverflow
		}
		accum = accum<<7 | uint64(b&0x7F)
		if b&0x80 == 0 {
			return accum, nil
		}
	}
}

// ReadUint32 decodes one unsigned value and checks it fits in 32 bits.
func ReadUint32(r io.ByteReader) (uint32, error) {
	v, err := ReadUint64(r)
	if err != nil {
		return 0, err
	}
	if v > math.MaxUint32 {
		return 0, ErrOverflow
	}
	return uint32(v), nil
}

// ReadInt64 decodes one signed value from r.
func ReadInt64(r io.ByteReader) (int64, error) {
	u, err := ReadUint64(r)
	if err != nil {
		return 0, err
	}
	return wireToSigned(u), nil
}

// ReadInt32 decodes one signed value and checks it fits in 32 bits.
func ReadInt32(r io.ByteReader) (int32, error) {
	v, err := ReadInt64(r)
	if err != nil {
		return 0, err
	}
	if v < math.MinInt32 || v > math.MaxInt32 {
		return 0, ErrOverflow
	}
	return int32(v), nil
}

func signedToWire(v int64) uint64 {
	switch {
	case v == math.MinInt64:
		return 1
	case v < 0:
		return uint64(-v)<<1 | 1
	default:
		return uint64(v) << 1
	}
}

func wireToSigned(u uint64) int64 {
	if u&1 == 0 {
		return int64(u >> 1)
	}
	if u == 1 {
		return math.MinInt64
	}
	return -int64(u >> 1)
}
