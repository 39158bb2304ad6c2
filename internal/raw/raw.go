// Package raw converts between raw timing counters and the canonical
// track bit-stream.
//
// Reading maps each counter byte to a run length through the bounds table
// and appends it to a bits.Fifo as n zero bits and a one bit. Writing
// parses run lengths back out of a fifo and emits one counter byte per
// symbol, applying write precompensation between adjacent symbols.
package raw

import (
	"errors"
	"fmt"

	"github.com/llehouerou/go-floppy/internal/bits"
	"github.com/llehouerou/go-floppy/internal/bounds"
)

// LookupSize is the number of distinct raw counter values.
const LookupSize = 128

// Emitted write values are clipped to this range (8.8 fixed point).
const (
	MinWrite = 0x0300
	MaxWrite = 0x7fff
)

// SaturatedCount is the run length longer runs are coalesced into on write.
const SaturatedCount = LookupSize - 1

// Tables holds the lookups derived from one timing configuration.
// It is immutable and may be shared between tracks.
type Tables struct {
	timing bounds.Timing
	read   [LookupSize]uint8 // counter -> run length
	write  [LookupSize]int8  // run length -> bounds index, -1 if none
}

// NewTables validates timing and builds both lookups.
func NewTables(timing bounds.Timing) (*Tables, error) {
	if err := timing.Validate(); err != nil {
		return nil, fmt.Errorf("raw: %w", err)
	}
	t := &Tables{
		timing: bounds.Timing{
			Bounds:  timing.Bounds.Clone(),
			Precomp: append(bounds.Precomp(nil), timing.Precomp...),
			Speed:   timing.Speed,
		},
	}

	sentinel := uint8(timing.Bounds.Sentinel())
	for c := range t.read {
		t.read[c] = sentinel
		if i, ok := timing.Bounds.Index(c); ok {
			t.read[c] = uint8(timing.Bounds[i].Count)
		}
	}

	for n := range t.write {
		t.write[n] = -1
	}
	for i, b := range timing.Bounds {
		if int(b.Count) < LookupSize {
			t.write[b.Count] = int8(i)
		}
	}
	t.write[SaturatedCount] = int8(len(timing.Bounds) - 1)
	return t, nil
}

// Timing returns the configuration the tables were built from.
func (t *Tables) Timing() bounds.Timing {
	return t.timing
}

// Count returns the run length for a raw counter byte. Bit 7 is ignored.
func (t *Tables) Count(counter byte) int {
	return int(t.read[counter&0x7f])
}

// Index returns the bounds index for a run length, or -1.
func (t *Tables) Index(count int) int {
	if count < 0 || count >= LookupSize {
		return -1
	}
	return int(t.write[count])
}

// Sentinel returns the run length produced for out-of-range counters.
func (t *Tables) Sentinel() int {
	return t.timing.Bounds.Sentinel()
}

// ReadStats summarizes one Read call.
type ReadStats struct {
	Symbols int // Counter bytes consumed
	Invalid int // Counters outside every bounds range
}

// Read consumes every byte of src and appends its run length to dst.
// dst is flushed even when Read fails.
func Read(dst, src *bits.Fifo, t *Tables) (ReadStats, error) {
	var st ReadStats
	sentinel := t.Sentinel()
	for {
		c, err := src.ReadByte()
		if errors.Is(err, bits.ErrEnd) {
			break
		}
		if err != nil {
			dst.Flush() //nolint:errcheck // reporting the read error
			return st, err
		}
		n := t.Count(c)
		if n == sentinel {
			st.Invalid++
		}
		if err := dst.WriteCount(n); err != nil {
			dst.Flush() //nolint:errcheck // reporting the write error
			return st, fmt.Errorf("raw: symbol %d: %w", st.Symbols, err)
		}
		st.Symbols++
	}
	return st, dst.Flush()
}

// WriteStats summarizes one Write call.
type WriteStats struct {
	Symbols   int // Counter bytes emitted
	Invalid   int // Run lengths with no bounds entry, skipped
	Saturated int // Run lengths of 127 or more, coalesced
	Clipped   int // Emitted values clipped by precompensation
}

// counterState carries the write accumulators between symbols.
type counterState struct {
	last  int32 // Ticks of the symbol waiting to be emitted
	this  int32 // Ticks accumulated for the current symbol
	lastI int   // Bounds index of the waiting symbol
}

// put accounts for symbol i and emits the previous symbol, if any.
func (s *counterState) put(dst *bits.Fifo, t *Tables, i int, st *WriteStats) error {
	bnd := t.timing.Bounds
	s.this += int32(bnd[i].Write)
	if s.last > 0 {
		p := int32(t.timing.Precomp.At(len(bnd), s.lastI, i))
		s.last -= p
		s.this += p
		if err := s.emit(dst, st); err != nil {
			return err
		}
	}
	s.last = s.this &^ 0xff
	s.this &= 0xff
	s.lastI = i
	return nil
}

// emit writes the waiting symbol, clipped to the counter range.
func (s *counterState) emit(dst *bits.Fifo, st *WriteStats) error {
	v := s.last
	switch {
	case v < MinWrite:
		v = MinWrite
		st.Clipped++
	case v > MaxWrite:
		v = MaxWrite
		st.Clipped++
	}
	if err := dst.WriteByte(byte(v >> 8)); err != nil {
		return fmt.Errorf("raw: symbol %d: %w", st.Symbols, err)
	}
	st.Symbols++
	return nil
}

// Write converts the run lengths readable from src into counter bytes on
// dst. Bad symbols are counted in the returned stats, never fatal; only a
// full dst fails the call.
func Write(dst, src *bits.Fifo, t *Tables) (WriteStats, error) {
	var (
		st WriteStats
		s  counterState
	)
	for {
		n, err := src.ReadCount()
		if errors.Is(err, bits.ErrEnd) {
			break
		}
		if err != nil {
			return st, err
		}
		if n >= SaturatedCount {
			n = SaturatedCount
			st.Saturated++
		}
		i := t.Index(n)
		if i < 0 {
			st.Invalid++
			continue
		}
		if err := s.put(dst, t, i, &st); err != nil {
			return st, err
		}
	}
	if s.last > 0 {
		if err := s.emit(dst, &st); err != nil {
			return st, err
		}
	}
	return st, nil
}
