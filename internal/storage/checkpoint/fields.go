package checkpoint

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"

	"github.com/yndnr/mcellckpt-go/internal/sim"
	"github.com/yndnr/mcellckpt-go/pkg/varint"
)

// byteOrderMark is written raw as the BYTE_ORDER payload.
const byteOrderMark uint32 = 0x01020304

// hostOrder is the byte order raw fields are written in.
var hostOrder binary.ByteOrder = func() binary.ByteOrder {
	var b [2]byte
	binary.NativeEndian.PutUint16(b[:], 1)
	if b[0] == 1 {
		return binary.LittleEndian
	}
	return binary.BigEndian
}()

func orderName(o binary.ByteOrder) string {
	if o == binary.BigEndian {
		return "big-endian"
	}
	return "little-endian"
}

// orderFromMark identifies the writer's byte order from the four
// BYTE_ORDER payload bytes.
func orderFromMark(b []byte) (binary.ByteOrder, bool) {
	switch binary.LittleEndian.Uint32(b) {
	case byteOrderMark:
		return binary.LittleEndian, true
	case 0x04030201:
		return binary.BigEndian, true
	}
	return nil, false
}

// encoder writes fields to a buffered stream. The first error sticks; every
// later call is a no-op and flush reports it.
type encoder struct {
	w       *bufio.Writer
	order   binary.ByteOrder
	scratch []byte
	n       int64
	tag     Tag
	err     error
}

func newEncoder(w io.Writer, order binary.ByteOrder) *encoder {
	return &encoder{
		w:       bufio.NewWriterSize(w, 64<<10),
		order:   order,
		scratch: make([]byte, 0, 16),
	}
}

func (e *encoder) write(field string, p []byte) {
	if e.err != nil {
		return
	}
	n, err := e.w.Write(p)
	e.n += int64(n)
	if err != nil {
		e.err = writeError(e.tag, field, err)
	}
}

func (e *encoder) section(t Tag) {
	e.tag = t
	e.write("tag", []byte{byte(t)})
}

func (e *encoder) byte(field string, b byte) {
	e.write(field, []byte{b})
}

func (e *encoder) uvarint(field string, v uint64) {
	e.scratch = varint.AppendUint64(e.scratch[:0], v)
	e.write(field, e.scratch)
}

func (e *encoder) uvarint32(field string, v uint32) {
	e.uvarint(field, uint64(v))
}

func (e *encoder) string(field, s string) {
	e.scratch = varint.AppendString(e.scratch[:0], []byte(s))
	e.write(field, e.scratch)
}

func (e *encoder) rawUint32(field string, v uint32) {
	var b [4]byte
	e.order.PutUint32(b[:], v)
	e.write(field, b[:])
}

func (e *encoder) rawUint64(field string, v uint64) {
	var b [8]byte
	e.order.PutUint64(b[:], v)
	e.write(field, b[:])
}

func (e *encoder) float64(field string, f float64) {
	e.rawUint64(field, math.Float64bits(f))
}

func (e *encoder) int16(field string, v int16) {
	var b [2]byte
	e.order.PutUint16(b[:], uint16(v))
	e.write(field, b[:])
}

func (e *encoder) vector(field string, v sim.Vector3) {
	e.float64(field, v.X)
	e.float64(field, v.Y)
	e.float64(field, v.Z)
}

func (e *encoder) flush() error {
	if e.err != nil {
		return e.err
	}
	if err := e.w.Flush(); err != nil {
		e.err = writeError(e.tag, "", err)
	}
	return e.err
}

// decoder reads fields from a buffered stream. Raw fields are decoded in
// the order announced by BYTE_ORDER; before that it is the host order.
type decoder struct {
	r     *bufio.Reader
	order binary.ByteOrder
	tag   Tag
	buf   [8]byte
}

func newDecoder(r io.Reader) *decoder {
	return &decoder{r: bufio.NewReaderSize(r, 64<<10), order: hostOrder}
}

// nextTag returns the next section tag, or ok=false at a clean EOF.
func (d *decoder) nextTag() (t Tag, ok bool, err error) {
	b, err := d.r.ReadByte()
	if err == io.EOF {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, readError(d.tag, "tag", err)
	}
	return Tag(b), true, nil
}

func (d *decoder) raw(field string, n int) ([]byte, error) {
	if _, err := io.ReadFull(d.r, d.buf[:n]); err != nil {
		return nil, readError(d.tag, field, err)
	}
	return d.buf[:n], nil
}

func (d *decoder) byte(field string) (byte, error) {
	b, err := d.r.ReadByte()
	if err != nil {
		return 0, readError(d.tag, field, err)
	}
	return b, nil
}

func (d *decoder) bool(field string) (bool, error) {
	b, err := d.byte(field)
	if err != nil {
		return false, err
	}
	if b > 1 {
		return false, corruptf(d.tag, field, "invalid boolean 0x%02x", b)
	}
	return b == 1, nil
}

func (d *decoder) uvarint(field string) (uint64, error) {
	v, err := varint.ReadUint64(d.r)
	if err != nil {
		return 0, readError(d.tag, field, err)
	}
	return v, nil
}

func (d *decoder) uvarint32(field string) (uint32, error) {
	v, err := varint.ReadUint32(d.r)
	if err != nil {
		return 0, readError(d.tag, field, err)
	}
	return v, nil
}

func (d *decoder) string(field string) (string, error) {
	b, err := varint.ReadString(d.r, varint.DefaultStringLimit)
	if err != nil {
		return "", readError(d.tag, field, err)
	}
	return string(b), nil
}

func (d *decoder) rawUint64(field string) (uint64, error) {
	b, err := d.raw(field, 8)
	if err != nil {
		return 0, err
	}
	return d.order.Uint64(b), nil
}

func (d *decoder) float64(field string) (float64, error) {
	v, err := d.rawUint64(field)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

func (d *decoder) int16(field string) (int16, error) {
	b, err := d.raw(field, 2)
	if err != nil {
		return 0, err
	}
	return int16(d.order.Uint16(b)), nil
}

func (d *decoder) vector(field string) (sim.Vector3, error) {
	var v sim.Vector3
	var err error
	if v.X, err = d.float64(field); err != nil {
		return v, err
	}
	if v.Y, err = d.float64(field); err != nil {
		return v, err
	}
	v.Z, err = d.float64(field)
	return v, err
}
