package mfm

import (
	"errors"

	"github.com/llehouerou/go-floppy/internal/bits"
)

// Sync and mark cell patterns.
const (
	syncA1 = 0x4489 // A1 with a missing clock
	syncC2 = 0x5224 // C2 with a missing clock

	fmIndex   = 0xf77a // FC, clock D7
	fmID      = 0xf57e // FE, clock C7
	fmData    = 0xf56f // FB, clock C7
	fmDeleted = 0xf56a // F8, clock C7
	fmZero    = 0xaaaa // 00, clock FF
)

// Address marks.
const (
	markIndex   = 0xfc
	markID      = 0xfe
	markData    = 0xfb
	markDeleted = 0xf8
)

// encoder writes data bytes together with their clock cells.
type encoder struct {
	dst  *bits.Fifo
	fm   bool
	last uint32 // Previous data bit
}

// newEncoder starts as if after a one bit, so a track never begins with
// a transition.
func newEncoder(dst *bits.Fifo, fm bool) *encoder {
	return &encoder{dst: dst, fm: fm, last: 1}
}

// cells returns the 2n cells encoding the n low bits of v.
func (e *encoder) cells(v uint32, n int) uint32 {
	var w uint32
	for i := n - 1; i >= 0; i-- {
		d := v >> uint(i) & 1
		c := uint32(1)
		if !e.fm {
			c = (e.last | d) ^ 1
		}
		w = w<<2 | c<<1 | d
		e.last = d
	}
	return w
}

// dataBits writes the n (1-16) low bits of v.
func (e *encoder) dataBits(v uint32, n int) error {
	return e.dst.WriteBits(e.cells(v, n), 2*n)
}

func (e *encoder) byte(b byte) error {
	return e.dataBits(uint32(b), 8)
}

func (e *encoder) word(w uint16) error {
	return e.dataBits(uint32(w), 16)
}

func (e *encoder) block(p []byte) error {
	for _, b := range p {
		if err := e.byte(b); err != nil {
			return err
		}
	}
	return nil
}

func (e *encoder) fill(b byte, n int) error {
	for i := 0; i < n; i++ {
		if err := e.byte(b); err != nil {
			return err
		}
	}
	return nil
}

// raw writes 16 cells as they are; the last cell is taken as the data bit.
func (e *encoder) raw(cells uint16) error {
	e.last = uint32(cells) & 1
	return e.dst.WriteBits(uint32(cells), 16)
}

// pad fills with b up to size bit-stream bytes. A remaining odd byte
// holds the high half of b.
func (e *encoder) pad(b byte, size int) error {
	for e.dst.WrPos()+2 <= size {
		if err := e.byte(b); err != nil {
			return err
		}
	}
	if e.dst.WrPos() < size {
		return e.dataBits(uint32(b>>4), 4)
	}
	return nil
}

// decoder reads data bytes and counts clock violations.
type decoder struct {
	src  *bits.Fifo
	fm   bool
	last uint32 // Previous data bit
	bad  int
}

func (d *decoder) dataBits(n int) (uint32, error) {
	w, err := d.src.ReadBits(2 * n)
	if err != nil {
		return 0, err
	}
	var v uint32
	for i := n - 1; i >= 0; i-- {
		c := w >> uint(2*i+1) & 1
		b := w >> uint(2*i) & 1
		want := uint32(1)
		if !d.fm {
			want = (d.last | b) ^ 1
		}
		if c != want {
			d.bad++
		}
		v = v<<1 | b
		d.last = b
	}
	return v, nil
}

func (d *decoder) byte() (byte, error) {
	v, err := d.dataBits(8)
	return byte(v), err
}

func (d *decoder) word() (uint16, error) {
	v, err := d.dataBits(16)
	return uint16(v), err
}

func (d *decoder) block(p []byte) error {
	for i := range p {
		b, err := d.byte()
		if err != nil {
			return err
		}
		p[i] = b
	}
	return nil
}

func isEnd(err error) bool {
	return errors.Is(err, bits.ErrEnd)
}
