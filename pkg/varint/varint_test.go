package varint

import (
	"bytes"
	"errors"
	"io"
	"math"
	"math/rand"
	"testing"
)

func TestAppendUint64_KnownVectors(t *testing.T) {
	tests := []struct {
		v    uint64
		want []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{127, []byte{0x7F}},
		{128, []byte{0x81, 0x00}},
		{300, []byte{0x82, 0x2C}},
		{16383, []byte{0xFF, 0x7F}},
		{16384, []byte{0x81, 0x80, 0x00}},
	}

	for _, tt := range tests {
		got := AppendUint64(nil, tt.v)
		if !bytes.Equal(got, tt.want) {
			t.Errorf("AppendUint64(%d) = % X, want % X", tt.v, got, tt.want)
		}
	}
}

func TestAppendInt64_KnownVectors(t *testing.T) {
	tests := []struct {
		v    int64
		want []byte
	}{
		{0, []byte{0x00}},
		{5, []byte{0x0A}},
		{-1, []byte{0x03}},
		{-5, []byte{0x0B}},
		{64, []byte{0x81, 0x00}},
	}

	for _, tt := range tests {
		got := AppendInt64(nil, tt.v)
		if !bytes.Equal(got, tt.want) {
			t.Errorf("AppendInt64(%d) = % X, want % X", tt.v, got, tt.want)
		}
	}
}

func TestUint64_RoundTrip(t *testing.T) {
	values := []uint64{0, 1, 127, 128, 255, 300, 1 << 32, math.MaxUint32, math.MaxUint64, math.MaxUint64 - 1, 1 << 63}
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 1000; i++ {
		values = append(values, rng.Uint64()>>uint(rng.Intn(64)))
	}

	for _, v := range values {
		enc := AppendUint64(nil, v)
		if len(enc) > MaxLen64 {
			t.Fatalf("encoding of %d is %d bytes", v, len(enc))
		}
		got, err := ReadUint64(bytes.NewReader(enc))
		if err != nil {
			t.Fatalf("ReadUint64(% X): %v", enc, err)
		}
		if got != v {
			t.Fatalf("round trip %d -> %d", v, got)
		}
	}
}

func TestInt64_RoundTrip(t *testing.T) {
	values := []int64{0, 1, -1, 63, -64, math.MaxInt64, math.MinInt64, math.MinInt64 + 1, math.MinInt32, math.MaxInt32}
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 1000; i++ {
		v := int64(rng.Uint64() >> uint(rng.Intn(64)))
		values = append(values, v, -v)
	}

	for _, v := range values {
		got, err := ReadInt64(bytes.NewReader(AppendInt64(nil, v)))
		if err != nil {
			t.Fatalf("ReadInt64(%d): %v", v, err)
		}
		if got != v {
			t.Fatalf("round trip %d -> %d", v, got)
		}
	}
}

func TestReadUint32_Overflow(t *testing.T) {
	enc := AppendUint64(nil, math.MaxUint32+1)
	if _, err := ReadUint32(bytes.NewReader(enc)); !errors.Is(err, ErrOverflow) {
		t.Fatalf("ReadUint32 error = %v, want ErrOverflow", err)
	}

	got, err := ReadUint32(bytes.NewReader(AppendUint32(nil, math.MaxUint32)))
	if err != nil || got != math.MaxUint32 {
		t.Fatalf("ReadUint32(max) = %d, %v", got, err)
	}
}

func TestReadInt32_Range(t *testing.T) {
	for _, v := range []int32{math.MinInt32, math.MaxInt32, -1, 0} {
		got, err := ReadInt32(bytes.NewReader(AppendInt32(nil, v)))
		if err != nil || got != v {
			t.Fatalf("ReadInt32(%d) = %d, %v", v, got, err)
		}
	}

	enc := AppendInt64(nil, math.MinInt32-1)
	if _, err := ReadInt32(bytes.NewReader(enc)); !errors.Is(err, ErrOverflow) {
		t.Fatalf("ReadInt32 error = %v, want ErrOverflow", err)
	}
}

func TestReadUint64_Overflow(t *testing.T) {
	// 65 significant bits.
	enc := []byte{0x83, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x7F}
	if _, err := ReadUint64(bytes.NewReader(enc)); !errors.Is(err, ErrOverflow) {
		t.Fatalf("error = %v, want ErrOverflow", err)
	}

	long := bytes.Repeat([]byte{0x80}, 11)
	long = append(long, 0x00)
	if _, err := ReadUint64(bytes.NewReader(long)); !errors.Is(err, ErrOverflow) {
		t.Fatalf("error = %v, want ErrOverflow", err)
	}
}

func TestReadUint64_Truncated(t *testing.T) {
	if _, err := ReadUint64(bytes.NewReader(nil)); err != io.EOF {
		t.Fatalf("empty input error = %v, want io.EOF", err)
	}
	if _, err := ReadUint64(bytes.NewReader([]byte{0x81})); err != io.ErrUnexpectedEOF {
		t.Fatalf("truncated input error = %v, want io.ErrUnexpectedEOF", err)
	}
}
