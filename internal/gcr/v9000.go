package gcr

import (
	"github.com/llehouerou/go-floppy/internal/bits"
	"github.com/llehouerou/go-floppy/internal/bounds"
	"github.com/llehouerou/go-floppy/internal/format"
	"github.com/llehouerou/go-floppy/internal/histogram"
	"github.com/llehouerou/go-floppy/internal/option"
	"github.com/llehouerou/go-floppy/internal/sector"
	"github.com/llehouerou/go-floppy/internal/tables"
)

// Victor block identifiers.
const (
	v9000HeaderID = 0x07
	v9000DataID   = 0x08
)

// V9000SectorSize is the payload size of a Victor 9000 sector.
const V9000SectorSize = 512

// V9000Config is the configuration of the Victor 9000 format.
type V9000Config struct {
	format.Common
	SyncMin    int // One bits that make a sync run on read
	SyncLength int // One bits written per sync
	HeaderGap  int // 0x55 bytes after a header block
	SectorGap  int // 0x55 bytes after a data block
}

// V9000 is the Victor 9000 / Sirius 1 format. The sector count falls
// from 19 on the outer cylinders to 12 on the inner ones.
type V9000 struct {
	V9000Config
}

// NewV9000 returns the format with its default configuration.
func NewV9000() *V9000 {
	v := &V9000{}
	v.SetDefaults()
	return v
}

// Name returns "gcr_v9000".
func (v *V9000) Name() string { return "gcr_v9000" }

// Level implements format.Format.
func (v *V9000) Level() int { return 3 }

// SetDefaults restores the Victor 9000 layout.
func (v *V9000) SetDefaults() {
	v.V9000Config = V9000Config{
		Common: format.Common{
			Bounds:    tables.VictorBounds.Clone(),
			Precomp:   bounds.NewPrecomp(len(tables.VictorBounds)),
			SyncLimit: 2048,
		},
		SyncMin:    10,
		SyncLength: 40,
		HeaderGap:  8,
		SectorGap:  10,
	}
}

// SetReadOption handles sync_min and the common read options.
func (v *V9000) SetReadOption(name string, value, index int) error {
	if name == "sync_min" {
		return option.Set(&v.SyncMin, name, value, 4, 32)
	}
	if ok, err := v.SetCommonReadOption(name, value); ok {
		return err
	}
	return option.Unknown(format.ScopeRead, name)
}

// SetWriteOption handles the sync and gap lengths.
func (v *V9000) SetWriteOption(name string, value, index int) error {
	switch name {
	case "sync_length":
		return option.Set(&v.SyncLength, name, value, 10, 320)
	case "header_gap":
		return option.Set(&v.HeaderGap, name, value, 0, 255)
	case "sector_gap":
		return option.Set(&v.SectorGap, name, value, 0, 255)
	}
	return option.Unknown(format.ScopeWrite, name)
}

// SetRWOption handles the bounds and precomp options.
func (v *V9000) SetRWOption(name string, value, index int) error {
	if ok, err := v.SetCommonRWOption(name, value, index); ok {
		return err
	}
	return option.Unknown(format.ScopeRW, name)
}

// Sectors returns the count of the cylinder's zone.
func (v *V9000) Sectors(track int) int {
	return tables.VictorSectors(track >> 1)
}

// SectorSize is always 512.
func (v *V9000) SectorSize(track, sector int) int { return V9000SectorSize }

// Flags implements format.Format.
func (v *V9000) Flags() format.Flags { return 0 }

// Timing returns the same bounds for every track.
func (v *V9000) Timing(track int) bounds.Timing { return v.BaseTiming() }

// TrackSize returns 0: the track length follows the zone.
func (v *V9000) TrackSize(track int) int { return 0 }

// Statistics implements format.Format.
func (v *V9000) Statistics(sink histogram.Sink, track int, raw []byte) {
	format.Statistics(sink, track, raw, v.Timing(track))
}

// trackByte is the track identifier of a header: cylinder, with the head
// in bit 7.
func trackByte(track int) byte {
	return byte(track>>1) | byte(track&1)<<7
}

// Decode submits a candidate for every header block found in src.
func (v *V9000) Decode(src *bits.Fifo, track int, out sector.Submitter) error {
	for {
		pos, err := findSync(src, v.SyncMin, -1)
		if err != nil {
			if isEnd(err) {
				return nil
			}
			return err
		}
		r := &reader{src: src}
		id, err := r.byte()
		if err != nil {
			return nil // Sync at the end of the track
		}
		if id != v9000HeaderID {
			continue
		}

		s, ok, err := v.decodeSector(r, track)
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

func (v *V9000) decodeSector(r *reader, track int) (sector.Sector, bool, error) {
	var s sector.Sector

	var hdr [3]byte // track, sector, checksum
	if err := r.block(hdr[:]); err != nil {
		return s, false, err
	}
	trk, sec, chk := hdr[0], hdr[1], hdr[2]
	if int(sec) >= v.Sectors(track) {
		return s, false, nil
	}

	s.Number = int(sec)
	if trk+sec != chk {
		s.Err.Record(sector.Checksum, v.Ignore)
	}
	if trk != trackByte(track) {
		s.Err.Record(sector.ID, v.Ignore)
	}

	s.Data = make([]byte, V9000SectorSize)
	data, _, ok := findBlock(r.src, v.SyncMin, v.SyncLimit, v9000DataID, v9000HeaderID)
	if !ok {
		if r.bad > 0 {
			s.Err.Record(sector.Encoding, v.Ignore)
		}
		s.Err.Record(sector.NotFound, v.Ignore)
		return s, true, nil
	}

	data.bad += r.bad
	if err := data.block(s.Data); err != nil {
		return s, false, err
	}
	var sum [2]byte
	if err := data.block(sum[:]); err != nil {
		return s, false, err
	}
	if byteSum(s.Data) != uint16(sum[0])|uint16(sum[1])<<8 {
		s.Err.Record(sector.Checksum, v.Ignore)
	}
	if data.bad > 0 {
		s.Err.Record(sector.Encoding, v.Ignore)
	}
	return s, true, nil
}

// Encode writes every sector of the track.
func (v *V9000) Encode(dst *bits.Fifo, track int, sectors []sector.Sector) error {
	trk := trackByte(track)
	for n := 0; n < v.Sectors(track); n++ {
		data, err := format.Payload(sectors, n, V9000SectorSize)
		if err != nil {
			return err
		}
		sec := byte(n)

		if err := writeSync(dst, v.SyncLength); err != nil {
			return err
		}
		if err := writeGCR5(dst, v9000HeaderID, trk, sec, trk+sec); err != nil {
			return err
		}
		if err := format.Fill(dst, 0x55, v.HeaderGap); err != nil {
			return err
		}

		if err := writeSync(dst, v.SyncLength); err != nil {
			return err
		}
		sum := byteSum(data)
		block := make([]byte, 0, V9000SectorSize+3)
		block = append(block, v9000DataID)
		block = append(block, data...)
		block = append(block, byte(sum), byte(sum>>8))
		if err := writeGCR5(dst, block...); err != nil {
			return err
		}
		if err := format.Fill(dst, 0x55, v.SectorGap); err != nil {
			return err
		}
	}
	return dst.Flush()
}

// byteSum is the 16-bit sum of p.
func byteSum(p []byte) uint16 {
	var sum uint16
	for _, b := range p {
		sum += uint16(b)
	}
	return sum
}

var _ format.Format = (*V9000)(nil)
