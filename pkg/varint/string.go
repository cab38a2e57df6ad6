package varint

import (
	"errors"
	"io"
)

// DefaultStringLimit is the length at which decoded strings are rejected.
const DefaultStringLimit = 100000

// ErrStringTooLong is returned when a length prefix reaches the decode limit.
var ErrStringTooLong = errors.New("varint: string length exceeds limit")

// Reader is the input required to decode strings.
type Reader interface {
	io.Reader
	io.ByteReader
}

// AppendString appends a length-prefixed copy of s to dst.
func AppendString(dst, s []byte) []byte {
	dst = AppendUint32(dst, uint32(len(s)))
	return append(dst, s...)
}

// ReadString decodes a length-prefixed byte string.
//
// Lengths at or above limit are rejected before anything is allocated.
// A non-positive limit selects DefaultStringLimit.
func ReadString(r Reader, limit int) ([]byte, error) {
	if limit <= 0 {
		limit = DefaultStringLimit
	}
	n, err := ReadUint32(r)
	if err != nil {
		return nil, err
	}
	if uint64(n) >= uint64(limit) {
		return nil, ErrStringTooLong
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return buf, nil
}
