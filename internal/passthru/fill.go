package passthru

import (
	"github.com/llehouerou/go-floppy/internal/bits"
	"github.com/llehouerou/go-floppy/internal/bounds"
	"github.com/llehouerou/go-floppy/internal/format"
	"github.com/llehouerou/go-floppy/internal/histogram"
	"github.com/llehouerou/go-floppy/internal/option"
	"github.com/llehouerou/go-floppy/internal/sector"
	"github.com/llehouerou/go-floppy/internal/tables"
)

// FillConfig is the configuration of the Fill format.
type FillConfig struct {
	format.Common
	Length int // Bit-stream bytes written
	Value  int // Byte written
}

// Fill writes a track of one repeated bit-stream byte. It has no sectors;
// it is used to erase or condition tracks.
type Fill struct {
	FillConfig
}

// NewFill returns the format with its default configuration.
func NewFill() *Fill {
	f := &Fill{}
	f.SetDefaults()
	return f
}

// Name returns "fill".
func (f *Fill) Name() string { return "fill" }

// Level implements format.Format.
func (f *Fill) Level() int { return 1 }

// SetDefaults restores a double-density track of MFM zero cells.
func (f *Fill) SetDefaults() {
	f.FillConfig = FillConfig{
		Common: format.Common{
			Bounds:    tables.MFMBounds.Clone(),
			Precomp:   bounds.NewPrecomp(len(tables.MFMBounds)),
			SyncLimit: 16,
		},
		Length: 12500,
		Value:  0xaa,
	}
}

// SetReadOption accepts no option; nothing is decoded.
func (f *Fill) SetReadOption(name string, value, index int) error {
	return option.Unknown(format.ScopeRead, name)
}

// SetWriteOption handles length and value.
func (f *Fill) SetWriteOption(name string, value, index int) error {
	switch name {
	case "length":
		return option.Set(&f.Length, name, value, 0, 0x10000)
	case "value":
		return option.Set(&f.Value, name, value, 0, 255)
	}
	return option.Unknown(format.ScopeWrite, name)
}

// SetRWOption handles the bounds and precomp options.
func (f *Fill) SetRWOption(name string, value, index int) error {
	if ok, err := f.SetCommonRWOption(name, value, index); ok {
		return err
	}
	return option.Unknown(format.ScopeRW, name)
}

// Sectors returns 0.
func (f *Fill) Sectors(track int) int { return 0 }
func (f *Fill) SectorSize(track, sector int) int { return 0 }

// Flags implements format.Format.
func (f *Fill) Flags() format.Flags { return 0 }
func (f *Fill) Timing(track int) bounds.Timing { return f.BaseTiming() }

// TrackSize returns Length.
func (f *Fill) TrackSize(track int) int { return f.Length }

// Statistics implements format.Format.
func (f *Fill) Statistics(sink histogram.Sink, track int, raw []byte) {
	format.Statistics(sink, track, raw, f.Timing(track))
}

// Decode submits nothing.
func (f *Fill) Decode(src *bits.Fifo, track int, out sector.Submitter) error {
	return nil
}

// Encode ignores sectors and writes Length copies of Value.
func (f *Fill) Encode(dst *bits.Fifo, track int, sectors []sector.Sector) error {
	if err := format.Fill(dst, byte(f.Value), f.Length); err != nil {
		return err
	}
	return dst.Flush()
}

var _ format.Format = (*Fill)(nil)
