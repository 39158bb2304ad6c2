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

// Recording modes of the mode option.
const (
	ModeFM  = 0
	ModeMFM = 1
)

// mfmSync is three A1 sync words, searched as one window.
const mfmSync = syncA1<<32 | syncA1<<16 | syncA1

// FM marks are searched with the zero byte that precedes them.
var fmMarks = [...]struct {
	cells uint16
	mark  byte
}{
	{fmID, markID},
	{fmData, markData},
	{fmDeleted, markDeleted},
}

// NEC765Config is the configuration of the IBM track layout.
type NEC765Config struct {
	format.Common
	Mode        int // ModeMFM or ModeFM
	Sectors     int
	SizeCode    int // Payload is 128<<SizeCode bytes
	SectorBase  int // Number of the first sector in ID fields
	Gap4a       int // Fill bytes before the index mark
	Gap1        int // Fill bytes after the index mark
	Gap2        int // Fill bytes between ID and data field
	Gap3        int // Fill bytes after each data field
	SyncZeros   int // Zero bytes before each mark
	Fill        int // Gap fill byte
	TrackLength int // Nominal track length in data bytes
}

// NEC765 is the IBM PC track layout as read and written by the NEC765
// family of controllers.
type NEC765 struct {
	NEC765Config
}

// NewNEC765 returns the format in MFM mode.
func NewNEC765() *NEC765 {
	n := &NEC765{}
	n.SetDefaults()
	return n
}

// Name returns "mfm_nec765".
func (n *NEC765) Name() string { return "mfm_nec765" }

// Level implements format.Format.
func (n *NEC765) Level() int { return 4 }

// SetDefaults restores the 720K MFM layout.
func (n *NEC765) SetDefaults() {
	n.NEC765Config = NEC765Config{
		Common:     format.Common{SyncLimit: 2048},
		Sectors:    9,
		SizeCode:   2,
		SectorBase: 1,
	}
	n.setMode(ModeMFM)
}

// setMode switches the recording mode and resets the timing and layout
// values that depend on it.
func (n *NEC765) setMode(mode int) {
	n.Mode = mode
	if mode == ModeFM {
		n.Bounds = tables.FMBounds.Clone()
		n.Gap4a, n.Gap1, n.Gap2, n.Gap3 = 40, 26, 11, 27
		n.SyncZeros, n.Fill, n.TrackLength = 6, 0xff, 3125
	} else {
		n.Bounds = tables.MFMBounds.Clone()
		n.Gap4a, n.Gap1, n.Gap2, n.Gap3 = 80, 50, 22, 84
		n.SyncZeros, n.Fill, n.TrackLength = 12, 0x4e, 6250
	}
	n.Precomp = bounds.NewPrecomp(len(n.Bounds))
}

func (n *NEC765) fm() bool {
	return n.Mode == ModeFM
}

// SetReadOption handles the common read options.
func (n *NEC765) SetReadOption(name string, value, index int) error {
	if ok, err := n.SetCommonReadOption(name, value); ok {
		return err
	}
	return option.Unknown(format.ScopeRead, name)
}

// SetWriteOption handles the gap, sync and fill layout.
func (n *NEC765) SetWriteOption(name string, value, index int) error {
	switch name {
	case "gap4a":
		return option.Set(&n.Gap4a, name, value, 0, 1024)
	case "gap1":
		return option.Set(&n.Gap1, name, value, 0, 1024)
	case "gap2":
		return option.Set(&n.Gap2, name, value, 0, 1024)
	case "gap3":
		return option.Set(&n.Gap3, name, value, 0, 1024)
	case "sync_zeros":
		return option.Set(&n.SyncZeros, name, value, 0, 64)
	case "fill":
		return option.Set(&n.Fill, name, value, 0, 255)
	case "track_length":
		return option.Set(&n.TrackLength, name, value, 0, 0x10000)
	}
	return option.Unknown(format.ScopeWrite, name)
}

// SetRWOption handles the recording mode, sector geometry and timing.
// Switching mode resets the layout to the defaults of the new mode.
func (n *NEC765) SetRWOption(name string, value, index int) error {
	switch name {
	case "mode":
		var mfm bool
		if err := option.Bool(&mfm, name, value); err != nil {
			return err
		}
		mode := ModeFM
		if mfm {
			mode = ModeMFM
		}
		if mode != n.Mode { // Repeating the mode keeps overrides
			n.setMode(mode)
		}
		return nil
	case "sectors":
		// Sector numbers are one byte in ID fields.
		return option.Set(&n.NEC765Config.Sectors, name, value, 1, min(64, 256-n.SectorBase))
	case "size_code":
		return option.Set(&n.SizeCode, name, value, 0, 6)
	case "sector_base":
		return option.Set(&n.SectorBase, name, value, 0, 256-n.NEC765Config.Sectors)
	}
	if ok, err := n.SetCommonRWOption(name, value, index); ok {
		return err
	}
	return option.Unknown(format.ScopeRW, name)
}

// Sectors returns the configured sector count.
func (n *NEC765) Sectors(track int) int { return n.NEC765Config.Sectors }

// SectorSize returns 128<<SizeCode.
func (n *NEC765) SectorSize(track, sector int) int { return 128 << n.SizeCode }

// Flags reports that tracks are written from the index.
func (n *NEC765) Flags() format.Flags { return format.FlagIndexAligned }

// Timing returns the bounds of the current mode.
func (n *NEC765) Timing(track int) bounds.Timing { return n.BaseTiming() }

// TrackSize returns the nominal length in bit-stream bytes, two per data
// byte.
func (n *NEC765) TrackSize(track int) int { return 2 * n.TrackLength }

// Statistics implements format.Format.
func (n *NEC765) Statistics(sink histogram.Sink, track int, raw []byte) {
	format.Statistics(sink, track, raw, n.Timing(track))
}

// crcStart returns the CRC after the sync bytes and the mark.
func (n *NEC765) crcStart(mark byte) uint16 {
	if n.fm() {
		return crc.Update(crc.Init, mark)
	}
	return crc.Update(crc.Init, 0xa1, 0xa1, 0xa1, mark)
}

// findMark searches for the next address mark within limit bits, or to
// the end of the track when limit is negative. It returns the position of
// the sync and the mark; d is left after the mark.
func (n *NEC765) findMark(d *decoder, limit int) (int, byte, error) {
	if n.fm() {
		patterns := make([]uint64, len(fmMarks))
		for i, m := range fmMarks {
			patterns[i] = fmZero<<16 | uint64(m.cells)
		}
		pos, i, err := d.src.Search(32, limit, patterns...)
		if err != nil {
			return -1, 0, err
		}
		d.src.SkipBits(32) //nolint:errcheck // pattern was just matched
		return pos, fmMarks[i].mark, nil
	}

	pos, _, err := d.src.Search(48, limit, mfmSync)
	if err != nil {
		return -1, 0, err
	}
	d.src.SkipBits(48) //nolint:errcheck // pattern was just matched
	d.last = 1
	bad := d.bad
	mark, err := d.byte()
	d.bad = bad
	return pos, mark, err
}

// findData looks for the data mark of the sector whose ID field was just
// read and returns it. It gives up at the next ID mark, rewinding to it,
// or after SyncLimit bits, restoring the cursor.
func (n *NEC765) findData(d *decoder) (byte, bool) {
	start := d.src.RdBitPos()
	for {
		used := d.src.RdBitPos() - start
		if used >= n.SyncLimit {
			break
		}
		pos, mark, err := n.findMark(d, n.SyncLimit-used)
		if err != nil {
			break
		}
		switch mark {
		case markData, markDeleted:
			return mark, true
		case markID:
			d.src.SetRdBitPos(pos) //nolint:errcheck // pos lies inside read data
			return 0, false
		}
	}
	d.src.SetRdBitPos(start) //nolint:errcheck // start lies inside read data
	return 0, false
}

// Decode submits a candidate for every ID field found in src.
func (n *NEC765) Decode(src *bits.Fifo, track int, out sector.Submitter) error {
	for {
		d := &decoder{src: src, fm: n.fm()}
		pos, mark, err := n.findMark(d, -1)
		if err != nil {
			if isEnd(err) {
				return nil
			}
			return err
		}
		if mark != markID {
			continue
		}

		s, ok, err := n.decodeSector(d, track)
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

func (n *NEC765) decodeSector(d *decoder, track int) (sector.Sector, bool, error) {
	var s sector.Sector

	var id [6]byte // C, H, R, N, CRC
	if err := d.block(id[:]); err != nil {
		return s, false, err
	}
	c, h, r, size := id[0], id[1], id[2], id[3]
	num := int(r) - n.SectorBase
	if num < 0 || num >= n.NEC765Config.Sectors {
		return s, false, nil
	}

	s.Number = num
	if crc.Update(n.crcStart(markID), id[:4]...) != uint16(id[4])<<8|uint16(id[5]) {
		s.Err.Record(sector.Checksum, n.Ignore)
	}
	if int(c) != track>>1 || int(h) != track&1 {
		s.Err.Record(sector.ID, n.Ignore)
	}
	if int(size) != n.SizeCode {
		s.Err.Record(sector.Size, n.Ignore)
	}
	headerBad := d.bad

	s.Data = make([]byte, n.SectorSize(track, num))
	data := &decoder{src: d.src, fm: d.fm}
	mark, ok := n.findData(data)
	if !ok {
		if headerBad > 0 {
			s.Err.Record(sector.Encoding, n.Ignore)
		}
		s.Err.Record(sector.NotFound, n.Ignore)
		return s, true, nil
	}

	if err := data.block(s.Data); err != nil {
		return s, false, err
	}
	var sum [2]byte
	if err := data.block(sum[:]); err != nil {
		return s, false, err
	}
	if crc.Update(n.crcStart(mark), s.Data...) != uint16(sum[0])<<8|uint16(sum[1]) {
		s.Err.Record(sector.Checksum, n.Ignore)
	}
	if headerBad+data.bad > 0 {
		s.Err.Record(sector.Encoding, n.Ignore)
	}
	return s, true, nil
}

func (n *NEC765) writeMark(e *encoder, mark byte) error {
	if err := e.fill(0, n.SyncZeros); err != nil {
		return err
	}
	if n.fm() {
		cells := uint16(fmIndex)
		for _, m := range fmMarks {
			if m.mark == mark {
				cells = m.cells
			}
		}
		return e.raw(cells)
	}

	sync := uint16(syncA1)
	if mark == markIndex {
		sync = syncC2
	}
	for i := 0; i < 3; i++ {
		if err := e.raw(sync); err != nil {
			return err
		}
	}
	return e.byte(mark)
}

// Encode writes an index-aligned track: gap 4a, index mark, gap 1, then
// per sector ID field, gap 2, data field and gap 3, padded with fill
// bytes to the nominal length.
func (n *NEC765) Encode(dst *bits.Fifo, track int, sectors []sector.Sector) error {
	e := newEncoder(dst, n.fm())
	fill := byte(n.Fill)
	size := n.SectorSize(track, 0)

	if err := e.fill(fill, n.Gap4a); err != nil {
		return err
	}
	if err := n.writeMark(e, markIndex); err != nil {
		return err
	}
	if err := e.fill(fill, n.Gap1); err != nil {
		return err
	}

	for i := 0; i < n.NEC765Config.Sectors; i++ {
		data, err := format.Payload(sectors, i, size)
		if err != nil {
			return err
		}

		id := []byte{byte(track >> 1), byte(track & 1), byte(n.SectorBase + i), byte(n.SizeCode)}
		sum := crc.Update(n.crcStart(markID), id...)
		if err := n.writeMark(e, markID); err != nil {
			return err
		}
		if err := e.block(id); err != nil {
			return err
		}
		if err := e.word(sum); err != nil {
			return err
		}
		if err := e.fill(fill, n.Gap2); err != nil {
			return err
		}

		sum = crc.Update(n.crcStart(markData), data...)
		if err := n.writeMark(e, markData); err != nil {
			return err
		}
		if err := e.block(data); err != nil {
			return err
		}
		if err := e.word(sum); err != nil {
			return err
		}
		if err := e.fill(fill, n.Gap3); err != nil {
			return err
		}
	}
	if err := e.pad(fill, n.TrackSize(track)); err != nil {
		return err
	}
	return dst.Flush()
}

var _ format.Format = (*NEC765)(nil)
