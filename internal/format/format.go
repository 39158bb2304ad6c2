// Package format defines the contract every track format implements,
// along with helpers shared by the implementations.
package format

import (
	"errors"
	"fmt"

	"github.com/llehouerou/go-floppy/internal/bits"
	"github.com/llehouerou/go-floppy/internal/bounds"
	"github.com/llehouerou/go-floppy/internal/histogram"
	"github.com/llehouerou/go-floppy/internal/option"
	"github.com/llehouerou/go-floppy/internal/sector"
)

// Flags describe how a format is driven.
type Flags uint8

const (
	// FlagRawTrack means the bit-stream is the raw counter data itself;
	// the raw codec is bypassed.
	FlagRawTrack Flags = 1 << iota
	// FlagIndexAligned means encoded tracks must be written from the index.
	FlagIndexAligned
)

// MaxTracks is the number of track indices, cylinder*2+head, that a
// format may be asked for.
const MaxTracks = 168

// Option scopes, used in error messages.
const (
	ScopeRead  = "read"
	ScopeWrite = "write"
	ScopeRW    = "rw"
)

// Encoder contract errors.
var (
	// ErrSectorMissing indicates Encode was not given every sector.
	ErrSectorMissing = errors.New("format: sector missing")

	// ErrSectorSize indicates a payload of the wrong size.
	ErrSectorSize = errors.New("format: wrong sector size")
)

// Format is one track encoding. A Format value owns its configuration;
// it is not safe for concurrent use.
type Format interface {
	// Name returns the registry name.
	Name() string
	// Level orders formats; lower levels are simpler encodings.
	Level() int
	// SetDefaults restores the default configuration.
	SetDefaults()

	// SetReadOption sets an option that affects decoding only.
	SetReadOption(name string, value, index int) error
	// SetWriteOption sets an option that affects encoding only.
	SetWriteOption(name string, value, index int) error
	// SetRWOption sets an option that affects both directions.
	SetRWOption(name string, value, index int) error

	// Sectors returns the number of sectors on a track.
	Sectors(track int) int
	// SectorSize returns the payload size of a sector.
	SectorSize(track, sector int) int
	Flags() Flags
	// Timing returns the raw codec configuration for a track.
	Timing(track int) bounds.Timing
	// TrackSize returns the nominal bit-stream size in bytes, or 0.
	TrackSize(track int) int

	// Statistics passes the counter distribution of raw to sink.
	Statistics(sink histogram.Sink, track int, raw []byte)
	// Decode submits every sector candidate found in src.
	Decode(src *bits.Fifo, track int, out sector.Submitter) error
	// Encode writes the track holding sectors to dst.
	Encode(dst *bits.Fifo, track int, sectors []sector.Sector) error
}

// Statistics is the Statistics implementation shared by all formats.
func Statistics(sink histogram.Sink, track int, raw []byte, timing bounds.Timing) {
	if sink == nil {
		return
	}
	sink.Track(histogram.New(track, raw), timing.Bounds)
}

// Payload returns the data of sector n, checking that it has size bytes.
func Payload(sectors []sector.Sector, n, size int) ([]byte, error) {
	s, ok := sector.Find(sectors, n)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrSectorMissing, n)
	}
	if len(s.Data) != size {
		return nil, fmt.Errorf("%w: sector %d has %d bytes, want %d", ErrSectorSize, n, len(s.Data), size)
	}
	return s.Data, nil
}

// Fill writes n copies of b.
func Fill(dst *bits.Fifo, b byte, n int) error {
	for i := 0; i < n; i++ {
		if err := dst.WriteByte(b); err != nil {
			return err
		}
	}
	return nil
}

// Pad fills dst with b up to size bytes; it reports whether the data
// already exceeded size.
func Pad(dst *bits.Fifo, b byte, size int) (bool, error) {
	if err := dst.Flush(); err != nil {
		return false, err
	}
	if dst.WrPos() > size {
		return true, nil
	}
	return false, Fill(dst, b, size-dst.WrPos())
}

// Common is the configuration shared by the sector formats. Formats embed
// it and fall back to its option handlers.
type Common struct {
	Bounds    bounds.Table
	Precomp   bounds.Precomp
	Ignore    sector.Category // Categories recorded as warnings
	SyncLimit int             // Bits searched for a data field after its header
}

// BaseTiming returns the common bounds and precomp.
func (c *Common) BaseTiming() bounds.Timing {
	return bounds.Timing{Bounds: c.Bounds, Precomp: c.Precomp}
}

// SetCommonReadOption handles ignore_* and sync_limit. It reports false
// for other names.
func (c *Common) SetCommonReadOption(name string, value int) (bool, error) {
	if name == "sync_limit" {
		return true, option.Set(&c.SyncLimit, name, value, 16, 1<<16)
	}
	return sector.SetIgnoreOption(&c.Ignore, name, value)
}

// SetCommonRWOption handles the bounds_* and precomp options. It reports
// false for other names.
func (c *Common) SetCommonRWOption(name string, value, index int) (bool, error) {
	if ok, err := c.Bounds.SetOption(name, value, index); ok {
		return ok, err
	}
	return c.Precomp.SetOption(name, value, index)
}
