package gcr

import (
	"strings"

	"github.com/llehouerou/go-floppy/internal/bits"
	"github.com/llehouerou/go-floppy/internal/bounds"
	"github.com/llehouerou/go-floppy/internal/format"
	"github.com/llehouerou/go-floppy/internal/histogram"
	"github.com/llehouerou/go-floppy/internal/option"
	"github.com/llehouerou/go-floppy/internal/sector"
	"github.com/llehouerou/go-floppy/internal/tables"
)

// Commodore block identifiers.
const (
	cbmHeaderID  = 0x08
	cbmDataID    = 0x07
	cbmHeaderOff = 0x0f
)

// CBMSectorSize is the payload size of a Commodore sector.
const CBMSectorSize = 256

// CBMConfig is the configuration of the Commodore 1541 format.
type CBMConfig struct {
	format.Common
	Zones      [tables.CBMZones]bounds.Table // Bounds per speed zone
	DiskID1    int
	DiskID2    int
	SyncMin    int                  // One bits that make a sync run on read
	SyncLength int                  // One bits written per sync
	HeaderGap  int                  // 0x55 bytes after a header block
	SectorGap  [tables.CBMZones]int // 0x55 bytes after a data block, per zone
}

// CBM is the Commodore 1541 format as stored in G64 images.
type CBM struct {
	CBMConfig
}

// NewCBM returns the format with its default configuration.
func NewCBM() *CBM {
	c := &CBM{}
	c.SetDefaults()
	return c
}

// Name returns "gcr_cbm".
func (c *CBM) Name() string { return "gcr_cbm" }

// Level implements format.Format.
func (c *CBM) Level() int { return 3 }

// SetDefaults restores the 1541 layout.
func (c *CBM) SetDefaults() {
	c.CBMConfig = CBMConfig{
		Common: format.Common{
			Precomp:   bounds.NewPrecomp(len(tables.CBMBounds[0])),
			SyncLimit: 2048,
		},
		DiskID1:    0x30,
		DiskID2:    0x30,
		SyncMin:    10,
		SyncLength: 40,
		HeaderGap:  9,
		SectorGap:  tables.CBMSectorGap,
	}
	for z, b := range tables.CBMBounds {
		c.Zones[z] = b.Clone()
	}
}

// SetReadOption handles sync_min and the common read options.
func (c *CBM) SetReadOption(name string, value, index int) error {
	if name == "sync_min" {
		return option.Set(&c.SyncMin, name, value, 4, 32)
	}
	if ok, err := c.SetCommonReadOption(name, value); ok {
		return err
	}
	return option.Unknown(format.ScopeRead, name)
}

// SetWriteOption handles the sync and gap lengths. The index of
// sector_gap selects the speed zone.
func (c *CBM) SetWriteOption(name string, value, index int) error {
	switch name {
	case "sync_length":
		return option.Set(&c.SyncLength, name, value, 10, 320)
	case "header_gap":
		return option.Set(&c.HeaderGap, name, value, 0, 255)
	case "sector_gap":
		if err := option.Index(name, index, tables.CBMZones); err != nil {
			return err
		}
		return option.Set(&c.SectorGap[index], name, value, 0, 255)
	}
	return option.Unknown(format.ScopeWrite, name)
}

// SetRWOption handles the disk id, and the timing options. The index of
// a bounds option selects zone*entries + entry.
func (c *CBM) SetRWOption(name string, value, index int) error {
	switch name {
	case "disk_id1":
		return option.Set(&c.DiskID1, name, value, 0, 255)
	case "disk_id2":
		return option.Set(&c.DiskID2, name, value, 0, 255)
	}
	if strings.HasPrefix(name, "bounds_") {
		n := len(c.Zones[0])
		if err := option.Index(name, index, tables.CBMZones*n); err != nil {
			return err
		}
		_, err := c.Zones[index/n].SetOption(name, value, index%n)
		return err
	}
	if ok, err := c.Precomp.SetOption(name, value, index); ok {
		return err
	}
	return option.Unknown(format.ScopeRW, name)
}

func (c *CBM) zone(track int) int {
	return tables.CBMZone(tables.CBMTrack(track))
}

// Sectors returns 17 to 21 depending on the speed zone.
func (c *CBM) Sectors(track int) int {
	return tables.CBMSectors(tables.CBMTrack(track))
}

// SectorSize is always 256.
func (c *CBM) SectorSize(track, sector int) int { return CBMSectorSize }

// Flags implements format.Format.
func (c *CBM) Flags() format.Flags { return 0 }

// Timing returns the bounds of the track's speed zone; Speed is the zone.
func (c *CBM) Timing(track int) bounds.Timing {
	z := c.zone(track)
	return bounds.Timing{Bounds: c.Zones[z], Precomp: c.Precomp, Speed: z}
}

// TrackSize returns the nominal track length of the speed zone.
func (c *CBM) TrackSize(track int) int {
	return tables.CBMTrackSize[c.zone(track)]
}

// Statistics reports raw with the bounds of the track's zone.
func (c *CBM) Statistics(sink histogram.Sink, track int, raw []byte) {
	format.Statistics(sink, track, raw, c.Timing(track))
}

// Decode submits a candidate for every header block found in src.
func (c *CBM) Decode(src *bits.Fifo, track int, out sector.Submitter) error {
	for {
		pos, err := findSync(src, c.SyncMin, -1)
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
		if id != cbmHeaderID {
			continue
		}

		s, ok, err := c.decodeSector(r, track)
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

func (c *CBM) decodeSector(r *reader, track int) (sector.Sector, bool, error) {
	var s sector.Sector

	var hdr [7]byte // chk, sector, track, id2, id1, 0x0f, 0x0f
	if err := r.block(hdr[:]); err != nil {
		return s, false, err
	}
	chk, sec, trk, id2, id1 := hdr[0], hdr[1], hdr[2], hdr[3], hdr[4]
	if int(sec) >= c.Sectors(track) {
		return s, false, nil
	}

	s.Number = int(sec)
	if sec^trk^id2^id1 != chk {
		s.Err.Record(sector.Checksum, c.Ignore)
	}
	if int(trk) != tables.CBMTrack(track) || int(id1) != c.DiskID1 || int(id2) != c.DiskID2 {
		s.Err.Record(sector.ID, c.Ignore)
	}

	s.Data = make([]byte, CBMSectorSize)
	data, _, ok := findBlock(r.src, c.SyncMin, c.SyncLimit, cbmDataID, cbmHeaderID)
	if !ok {
		if r.bad > 0 {
			s.Err.Record(sector.Encoding, c.Ignore)
		}
		s.Err.Record(sector.NotFound, c.Ignore)
		return s, true, nil
	}

	data.bad += r.bad
	if err := data.block(s.Data); err != nil {
		return s, false, err
	}
	sum, err := data.byte()
	if err != nil {
		return s, false, err
	}
	if xorSum(s.Data) != sum {
		s.Err.Record(sector.Checksum, c.Ignore)
	}
	if data.bad > 0 {
		s.Err.Record(sector.Encoding, c.Ignore)
	}
	return s, true, nil
}

// Encode writes every sector of the track, then pads it with gap bytes
// to the nominal length of its zone.
func (c *CBM) Encode(dst *bits.Fifo, track int, sectors []sector.Sector) error {
	t, z := byte(tables.CBMTrack(track)), c.zone(track)
	id1, id2 := byte(c.DiskID1), byte(c.DiskID2)

	for n := 0; n < c.Sectors(track); n++ {
		data, err := format.Payload(sectors, n, CBMSectorSize)
		if err != nil {
			return err
		}
		sec := byte(n)

		if err := writeSync(dst, c.SyncLength); err != nil {
			return err
		}
		hdr := []byte{cbmHeaderID, sec ^ t ^ id2 ^ id1, sec, t, id2, id1, cbmHeaderOff, cbmHeaderOff}
		if err := writeGCR5(dst, hdr...); err != nil {
			return err
		}
		if err := format.Fill(dst, 0x55, c.HeaderGap); err != nil {
			return err
		}

		if err := writeSync(dst, c.SyncLength); err != nil {
			return err
		}
		block := make([]byte, 0, CBMSectorSize+4)
		block = append(block, cbmDataID)
		block = append(block, data...)
		block = append(block, xorSum(data), 0, 0)
		if err := writeGCR5(dst, block...); err != nil {
			return err
		}
		if err := format.Fill(dst, 0x55, c.SectorGap[z]); err != nil {
			return err
		}
	}
	_, err := format.Pad(dst, 0x55, tables.CBMTrackSize[z])
	return err
}

func xorSum(p []byte) byte {
	var sum byte
	for _, b := range p {
		sum ^= b
	}
	return sum
}

var _ format.Format = (*CBM)(nil)
