package varint

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestString_RoundTrip(t *testing.T) {
	inputs := [][]byte{
		{},
		[]byte("A"),
		[]byte("ca_channel_open"),
		bytes.Repeat([]byte{0xAB}, 300),
		bytes.Repeat([]byte("x"), DefaultStringLimit-1),
	}

	for _, in := range inputs {
		enc := AppendString(nil, in)
		got, err := ReadString(bytes.NewReader(enc), DefaultStringLimit)
		if err != nil {
			t.Fatalf("ReadString(len=%d): %v", len(in), err)
		}
		if !bytes.Equal(got, in) {
			t.Fatalf("round trip mismatch for len=%d", len(in))
		}
	}
}

func TestReadString_RejectsLongPrefix(t *testing.T) {
	for _, n := range []uint32{DefaultStringLimit, DefaultStringLimit + 1, 1 << 31} {
		// Length prefix only: the body is never read.
		enc := AppendUint32(nil, n)
		_, err := ReadString(bytes.NewReader(enc), 0)
		if !errors.Is(err, ErrStringTooLong) {
			t.Fatalf("length %d: error = %v, want ErrStringTooLong", n, err)
		}
	}
}

func TestReadString_Truncated(t *testing.T) {
	enc := AppendString(nil, []byte("glutamate"))
	_, err := ReadString(bytes.NewReader(enc[:5]), 0)
	if err != io.ErrUnexpectedEOF {
		t.Fatalf("error = %v, want io.ErrUnexpectedEOF", err)
	}
}
