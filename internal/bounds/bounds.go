// Package bounds holds the timing calibration that maps raw counter
// values to run lengths and back.
//
// Values are 8.8 fixed point: the high byte is the hardware counter, the
// low byte a fraction that only matters when accumulating write timing.
package bounds

import (
	"errors"
	"fmt"

	"github.com/llehouerou/go-floppy/internal/option"
)

// Table size limits.
const (
	MinEntries = 3
	MaxEntries = 6
)

// Counter limits. Raw counters are 7 bits wide.
const (
	MaxCounter = 0x7f
	MaxValue   = 0x7fff

	// MaxRunLength is the longest run a table may map to; the sentinel
	// one above it must still fit a 7-bit lookup.
	MaxRunLength = MaxCounter - 1
)

// Precomp adjustment limits in 8.8 ticks.
const (
	MinPrecomp = -0x1000
	MaxPrecomp = 0x1000
)

// Validation errors.
var (
	ErrEntries  = errors.New("bounds: table needs 3-6 entries")
	ErrRange    = errors.New("bounds: read range is empty or above counter range")
	ErrOrder    = errors.New("bounds: ranges must be disjoint and increasing")
	ErrCount    = errors.New("bounds: counts must be strictly increasing")
	ErrCountMax = errors.New("bounds: count above longest run length")
	ErrWrite    = errors.New("bounds: write value outside read range")
	ErrPrecomp  = errors.New("bounds: precomp table size does not match bounds")
	ErrPrecompV = errors.New("bounds: precomp value out of range")
)

// Bounds maps one range of raw counter values to a run length.
type Bounds struct {
	ReadLow  uint16 // Lowest accepted value, inclusive
	ReadHigh uint16 // Highest accepted value, inclusive
	Write    uint16 // Value emitted when writing this run length
	Count    uint16 // Run length: zero cells before the transition
}

// Low returns the lowest accepted counter.
func (b Bounds) Low() int {
	return int(b.ReadLow >> 8)
}

// High returns the highest accepted counter.
func (b Bounds) High() int {
	return int(b.ReadHigh >> 8)
}

// Contains reports whether a raw counter falls in the read range.
func (b Bounds) Contains(counter int) bool {
	return counter >= b.Low() && counter <= b.High()
}

// Table is an ordered set of bounds, shortest interval first.
type Table []Bounds

// Validate checks size, ordering and value ranges.
func (t Table) Validate() error {
	if len(t) < MinEntries || len(t) > MaxEntries {
		return fmt.Errorf("%w: got %d", ErrEntries, len(t))
	}
	for i, b := range t {
		if b.High() < b.Low() || b.ReadHigh > MaxValue {
			return fmt.Errorf("%w: entry %d", ErrRange, i)
		}
		if b.Write < b.ReadLow || b.Write > b.ReadHigh {
			return fmt.Errorf("%w: entry %d", ErrWrite, i)
		}
		if b.Count > MaxRunLength {
			return fmt.Errorf("%w: entry %d", ErrCountMax, i)
		}
		if i == 0 {
			continue
		}
		if b.Low() <= t[i-1].High() {
			return fmt.Errorf("%w: entry %d", ErrOrder, i)
		}
		if b.Count <= t[i-1].Count {
			return fmt.Errorf("%w: entry %d", ErrCount, i)
		}
	}
	return nil
}

// MaxCount returns the longest run length in the table.
func (t Table) MaxCount() int {
	if len(t) == 0 {
		return 0
	}
	return int(t[len(t)-1].Count)
}

// Sentinel returns the run length used for counters outside every range.
func (t Table) Sentinel() int {
	return t.MaxCount() + 1
}

// Index returns the entry whose read range holds counter.
func (t Table) Index(counter int) (int, bool) {
	for i, b := range t {
		if b.Contains(counter) {
			return i, true
		}
	}
	return -1, false
}

// Clone returns an independent copy.
func (t Table) Clone() Table {
	return append(Table(nil), t...)
}

// SetOption handles the bounds_* options. It reports false when name is
// not a bounds option.
func (t Table) SetOption(name string, value, index int) (bool, error) {
	var field func(*Bounds) *uint16
	switch name {
	case "bounds_read_low":
		field = func(b *Bounds) *uint16 { return &b.ReadLow }
	case "bounds_read_high":
		field = func(b *Bounds) *uint16 { return &b.ReadHigh }
	case "bounds_write":
		field = func(b *Bounds) *uint16 { return &b.Write }
	case "bounds_count":
		field = func(b *Bounds) *uint16 { return &b.Count }
	default:
		return false, nil
	}
	if err := option.Index(name, index, len(t)); err != nil {
		return true, err
	}
	limit := MaxValue
	if name == "bounds_count" {
		limit = MaxRunLength
	}
	return true, option.Set(field(&t[index]), name, value, 0, limit)
}

// Precomp holds write-timing adjustments for pairs of adjacent symbols,
// indexed len(bounds)*previous + current.
type Precomp []int16

// NewPrecomp returns a zero table for n bounds entries.
func NewPrecomp(n int) Precomp {
	return make(Precomp, n*n)
}

// At returns the adjustment applied between symbols last and this.
func (p Precomp) At(n, last, this int) int {
	return int(p[n*last+this])
}

// Validate checks the table against a bounds table of n entries.
func (p Precomp) Validate(n int) error {
	if len(p) != n*n {
		return fmt.Errorf("%w: %d entries for %d bounds", ErrPrecomp, len(p), n)
	}
	for i, v := range p {
		if v < MinPrecomp || v > MaxPrecomp {
			return fmt.Errorf("%w: index %d", ErrPrecompV, i)
		}
	}
	return nil
}

// SetOption handles the precomp option; index is the flat position.
func (p Precomp) SetOption(name string, value, index int) (bool, error) {
	if name != "precomp" {
		return false, nil
	}
	if err := option.Index(name, index, len(p)); err != nil {
		return true, err
	}
	return true, option.Set(&p[index], name, value, MinPrecomp, MaxPrecomp)
}

// Timing is the raw-codec configuration for one track.
type Timing struct {
	Bounds  Table
	Precomp Precomp
	Speed   int // Clock zone, 0-3
}

// Validate checks bounds and precomp together.
func (t Timing) Validate() error {
	if err := t.Bounds.Validate(); err != nil {
		return err
	}
	return t.Precomp.Validate(len(t.Bounds))
}
