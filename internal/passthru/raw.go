package passthru

import (
	"fmt"

	"github.com/llehouerou/go-floppy/internal/bits"
	"github.com/llehouerou/go-floppy/internal/bounds"
	"github.com/llehouerou/go-floppy/internal/format"
	"github.com/llehouerou/go-floppy/internal/histogram"
	"github.com/llehouerou/go-floppy/internal/option"
	"github.com/llehouerou/go-floppy/internal/sector"
	"github.com/llehouerou/go-floppy/internal/tables"
)

// DefaultMaxSize bounds the raw sector by default.
const DefaultMaxSize = 0x20000

// RawConfig is the configuration of the Raw format.
type RawConfig struct {
	format.Common
	MaxSize int // Largest sector accepted or produced
}

// Raw hands the raw counter bytes of a track through as sector 0. Its
// fifo holds counters, not cells, so the raw codec is bypassed.
type Raw struct {
	RawConfig
}

// NewRaw returns the format with its default configuration.
func NewRaw() *Raw {
	r := &Raw{}
	r.SetDefaults()
	return r
}

// Name returns "raw".
func (r *Raw) Name() string { return "raw" }

// Level implements format.Format.
func (r *Raw) Level() int { return 0 }

// SetDefaults restores the default maximum size.
func (r *Raw) SetDefaults() {
	r.RawConfig = RawConfig{
		Common: format.Common{
			Bounds:    tables.MFMBounds.Clone(),
			Precomp:   bounds.NewPrecomp(len(tables.MFMBounds)),
			SyncLimit: 16,
		},
		MaxSize: DefaultMaxSize,
	}
}

// SetReadOption handles the ignore_* categories.
func (r *Raw) SetReadOption(name string, value, index int) error {
	if ok, err := sector.SetIgnoreOption(&r.Ignore, name, value); ok {
		return err
	}
	return option.Unknown(format.ScopeRead, name)
}

// SetWriteOption accepts no option.
func (r *Raw) SetWriteOption(name string, value, index int) error {
	return option.Unknown(format.ScopeWrite, name)
}

// SetRWOption handles max_size and the timing options.
func (r *Raw) SetRWOption(name string, value, index int) error {
	if name == "max_size" {
		return option.Set(&r.MaxSize, name, value, 1, 0x100000)
	}
	if ok, err := r.SetCommonRWOption(name, value, index); ok {
		return err
	}
	return option.Unknown(format.ScopeRW, name)
}

// Sectors returns 1: the whole track is one sector.
func (r *Raw) Sectors(track int) int { return 1 }

// SectorSize returns the upper bound; the actual size is that of the track.
func (r *Raw) SectorSize(track, sector int) int { return r.MaxSize }

// Flags reports a raw track.
func (r *Raw) Flags() format.Flags { return format.FlagRawTrack }
func (r *Raw) Timing(track int) bounds.Timing { return r.BaseTiming() }

// TrackSize returns 0.
func (r *Raw) TrackSize(track int) int { return 0 }

// Statistics implements format.Format.
func (r *Raw) Statistics(sink histogram.Sink, track int, raw []byte) {
	format.Statistics(sink, track, raw, r.Timing(track))
}

// Decode submits the unread bytes of src as sector 0. Data beyond MaxSize
// is dropped and recorded as a size error.
func (r *Raw) Decode(src *bits.Fifo, track int, out sector.Submitter) error {
	s := sector.Sector{Number: 0, Offset: src.RdBitPos()}
	n := src.BitsLeft() / 8
	if n > r.MaxSize {
		n = r.MaxSize
		s.Err.Record(sector.Size, r.Ignore)
	}
	s.Data = make([]byte, n)
	if err := src.ReadBlock(s.Data); err != nil {
		return err
	}
	out.Submit(s)
	return nil
}

// Encode writes sector 0 verbatim.
func (r *Raw) Encode(dst *bits.Fifo, track int, sectors []sector.Sector) error {
	s, ok := sector.Find(sectors, 0)
	if !ok {
		return fmt.Errorf("%w: 0", format.ErrSectorMissing)
	}
	if len(s.Data) > r.MaxSize {
		return fmt.Errorf("%w: %d bytes exceed max_size %d", format.ErrSectorSize, len(s.Data), r.MaxSize)
	}
	if err := dst.WriteBlock(s.Data); err != nil {
		return err
	}
	return dst.Flush()
}

var _ format.Format = (*Raw)(nil)
