package mfm

import (
	"github.com/llehouerou/go-floppy/internal/bits"
	"github.com/llehouerou/go-floppy/internal/bounds"
	"github.com/llehouerou/go-floppy/internal/crc"
	"github.com/llehouerou/go-floppy/internal/format"
	"github.com/llehouerou/go-floppy/internal/histogram"
	"github.com/llehouerou/go-floppy/internal/option"
	"github.com/llehouerou/go-floppy/internal/sector"
	"github.com/llehouerou/go-floppy/internal/tables"
)

// tbeTag opens every TBE block.
const tbeTag = 0x54

// TBEConfig is the configuration of the tagged block encoding.
type TBEConfig struct {
	format.Common
	Sectors      int
	SizeCode     int // Payload is 128<<SizeCode bytes
	PrologLength int // Fill bytes before the first block
	SyncZeros    int // Zero bytes before each sync
	Gap          int // Fill bytes after each block
	TrackLength  int // Nominal track length in data bytes
}

// TBE is the controller's native layout: one self-describing block per
// sector, each carrying track, sector and size code under its own CRC.
type TBE struct {
	TBEConfig
}

// NewTBE returns the format with its default configuration.
func NewTBE() *TBE {
	t := &TBE{}
	t.SetDefaults()
	return t
}

// Name returns "tbe".
func (t *TBE) Name() string { return "tbe" }

// Level implements format.Format.
func (t *TBE) Level() int { return 2 }

// SetDefaults restores ten 512 byte blocks per track.
func (t *TBE) SetDefaults() {
	t.TBEConfig = TBEConfig{
		Common: format.Common{
			Bounds:    tables.MFMBounds.Clone(),
			Precomp:   bounds.NewPrecomp(len(tables.MFMBounds)),
			SyncLimit: 2048,
		},
		Sectors:      10,
		SizeCode:     2,
		PrologLength: 32,
		SyncZeros:    8,
		Gap:          16,
		TrackLength:  6250,
	}
}

// SetReadOption handles the common read options.
func (t *TBE) SetReadOption(name string, value, index int) error {
	if ok, err := t.SetCommonReadOption(name, value); ok {
		return err
	}
	return option.Unknown(format.ScopeRead, name)
}

// SetWriteOption handles the lengths of the track layout.
func (t *TBE) SetWriteOption(name string, value, index int) error {
	switch name {
	case "prolog_length":
		return option.Set(&t.PrologLength, name, value, 0, 1024)
	case "sync_zeros":
		return option.Set(&t.SyncZeros, name, value, 0, 64)
	case "gap":
		return option.Set(&t.Gap, name, value, 0, 1024)
	case "track_length":
		return option.Set(&t.TrackLength, name, value, 0, 0x10000)
	}
	return option.Unknown(format.ScopeWrite, name)
}

// SetRWOption handles the block geometry and the timing options.
func (t *TBE) SetRWOption(name string, value, index int) error {
	switch name {
	case "sectors":
		return option.Set(&t.TBEConfig.Sectors, name, value, 1, 64)
	case "size_code":
		return option.Set(&t.SizeCode, name, value, 0, 6)
	}
	if ok, err := t.SetCommonRWOption(name, value, index); ok {
		return err
	}
	return option.Unknown(format.ScopeRW, name)
}

// Sectors returns the configured block count.
func (t *TBE) Sectors(track int) int { return t.TBEConfig.Sectors }

// SectorSize returns 128<<SizeCode.
func (t *TBE) SectorSize(track, sector int) int { return 128 << t.SizeCode }

// Flags implements format.Format.
func (t *TBE) Flags() format.Flags { return 0 }

// Timing returns the same bounds for every track.
func (t *TBE) Timing(track int) bounds.Timing { return t.BaseTiming() }

// TrackSize returns the nominal length in bit-stream bytes.
func (t *TBE) TrackSize(track int) int { return 2 * t.TrackLength }

// Statistics implements format.Format.
func (t *TBE) Statistics(sink histogram.Sink, track int, raw []byte) {
	format.Statistics(sink, track, raw, t.Timing(track))
}

// Decode submits a candidate for every block found in src.
func (t *TBE) Decode(src *bits.Fifo, track int, out sector.Submitter) error {
	for {
		pos, _, err := src.Search(32, -1, amigaSync)
		if err != nil {
			if isEnd(err) {
				return nil
			}
			return err
		}
		src.SkipBits(32) //nolint:errcheck // pattern was just matched

		s, ok, err := t.decodeBlock(&decoder{src: src, last: 1}, track)
		if err != nil {
			if isEnd(err) {
				return nil
			}
			return err
		}
		if ok {
			s.Offset = pos
			out.Submit(s)
		}
	}
}

func (t *TBE) decodeBlock(d *decoder, track int) (sector.Sector, bool, error) {
	var s sector.Sector

	var hdr [6]byte // tag, track, sector, size code, CRC
	if err := d.block(hdr[:]); err != nil {
		return s, false, err
	}
	tag, trk, sec, size := hdr[0], hdr[1], int(hdr[2]), hdr[3]
	if sec >= t.TBEConfig.Sectors {
		return s, false, nil
	}

	s.Number = sec
	if crc.Checksum(hdr[:4]) != uint16(hdr[4])<<8|uint16(hdr[5]) {
		s.Err.Record(sector.Checksum, t.Ignore)
	}
	if tag != tbeTag || int(trk) != track {
		s.Err.Record(sector.ID, t.Ignore)
	}
	if int(size) != t.SizeCode {
		s.Err.Record(sector.Size, t.Ignore)
	}

	s.Data = make([]byte, t.SectorSize(track, sec))
	if err := d.block(s.Data); err != nil {
		return s, false, err
	}
	var sum [2]byte
	if err := d.block(sum[:]); err != nil {
		return s, false, err
	}
	if crc.Checksum(s.Data) != uint16(sum[0])<<8|uint16(sum[1]) {
		s.Err.Record(sector.Checksum, t.Ignore)
	}
	if d.bad > 0 {
		s.Err.Record(sector.Encoding, t.Ignore)
	}
	return s, true, nil
}

// Encode writes the prolog and one block per sector, padded with fill
// bytes to the nominal length.
func (t *TBE) Encode(dst *bits.Fifo, track int, sectors []sector.Sector) error {
	const fill = 0x4e
	e := newEncoder(dst, false)
	size := t.SectorSize(track, 0)

	if err := e.fill(fill, t.PrologLength); err != nil {
		return err
	}
	for sec := 0; sec < t.TBEConfig.Sectors; sec++ {
		data, err := format.Payload(sectors, sec, size)
		if err != nil {
			return err
		}
		hdr := []byte{tbeTag, byte(track), byte(sec), byte(t.SizeCode)}

		if err := e.fill(0, t.SyncZeros); err != nil {
			return err
		}
		for i := 0; i < 2; i++ {
			if err := e.raw(syncA1); err != nil {
				return err
			}
		}
		if err := e.block(hdr); err != nil {
			return err
		}
		if err := e.word(crc.Checksum(hdr)); err != nil {
			return err
		}
		if err := e.block(data); err != nil {
			return err
		}
		if err := e.word(crc.Checksum(data)); err != nil {
			return err
		}
		if err := e.fill(fill, t.Gap); err != nil {
			return err
		}
	}
	if err := e.pad(fill, t.TrackSize(track)); err != nil {
		return err
	}
	return dst.Flush()
}

var _ format.Format = (*TBE)(nil)
