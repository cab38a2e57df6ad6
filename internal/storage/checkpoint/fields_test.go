package checkpoint

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/yndnr/mcellckpt-go/internal/core/domain"
	"github.com/yndnr/mcellckpt-go/internal/sim"
)

func TestOrderFromMark(t *testing.T) {
	tests := []struct {
		mark []byte
		want binary.ByteOrder
		ok   bool
	}{
		{[]byte{0x04, 0x03, 0x02, 0x01}, binary.LittleEndian, true},
		{[]byte{0x01, 0x02, 0x03, 0x04}, binary.BigEndian, true},
		{[]byte{0x01, 0x02, 0x04, 0x03}, nil, false},
		{[]byte{0, 0, 0, 0}, nil, false},
	}
	for _, tt := range tests {
		got, ok := orderFromMark(tt.mark)
		if ok != tt.ok || got != tt.want {
			t.Errorf("orderFromMark(% x) = %v, %v", tt.mark, got, ok)
		}
	}
}

func TestFields_BothByteOrders(t *testing.T) {
	for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
		t.Run(orderName(order), func(t *testing.T) {
			var buf bytes.Buffer
			e := newEncoder(&buf, order)
			e.rawUint32("mark", byteOrderMark)
			e.float64("f", -1.5e-300)
			e.float64("inf", math.Inf(-1))
			e.int16("o", -2)
			e.vector("v", sim.Vector3{X: 1, Y: -2, Z: 3.25})
			e.uvarint("u", 1<<40)
			e.string("s", "hello")
			if err := e.flush(); err != nil {
				t.Fatalf("flush: %v", err)
			}
			if e.n != int64(buf.Len()) {
				t.Errorf("encoder counted %d bytes, wrote %d", e.n, buf.Len())
			}

			d := newDecoder(&buf)
			mark, _ := d.raw("mark", 4)
			got, ok := orderFromMark(mark)
			if !ok || got != order {
				t.Fatalf("mark decoded as %v", got)
			}
			d.order = got

			if f, _ := d.float64("f"); f != -1.5e-300 {
				t.Errorf("float64 = %v", f)
			}
			if f, _ := d.float64("inf"); !math.IsInf(f, -1) {
				t.Errorf("inf = %v", f)
			}
			if o, _ := d.int16("o"); o != -2 {
				t.Errorf("int16 = %v", o)
			}
			if v, _ := d.vector("v"); v != (sim.Vector3{X: 1, Y: -2, Z: 3.25}) {
				t.Errorf("vector = %+v", v)
			}
			if u, _ := d.uvarint("u"); u != 1<<40 {
				t.Errorf("uvarint = %d", u)
			}
			if s, _ := d.string("s"); s != "hello" {
				t.Errorf("string = %q", s)
			}
			if _, ok, err := d.nextTag(); ok || err != nil {
				t.Errorf("expected clean EOF, got ok=%v err=%v", ok, err)
			}
		})
	}
}

func TestDecoder_TruncatedIsCorrupt(t *testing.T) {
	d := newDecoder(bytes.NewReader([]byte{1, 2, 3}))
	d.tag = TagCurrentTime
	_, err := d.float64("time")
	if !errors.Is(err, domain.ErrDataCorrupt) {
		t.Fatalf("error = %v, want ErrDataCorrupt", err)
	}
	if want := "section CURRENT_TIME: field time: truncated"; !bytes.Contains([]byte(err.Error()), []byte(want)) {
		t.Errorf("error %q lacks %q", err, want)
	}
}

func TestTagString(t *testing.T) {
	if TagSchedulerState.String() != "MOL_SCHEDULER_STATE" {
		t.Errorf("got %s", TagSchedulerState)
	}
	if Tag(0x20).String() != "TAG_0x20" {
		t.Errorf("got %s", Tag(0x20))
	}
}
