package mfm

import (
	"encoding/binary"

	"github.com/llehouerou/go-floppy/internal/bits"
	"github.com/llehouerou/go-floppy/internal/bounds"
	"github.com/llehouerou/go-floppy/internal/format"
	"github.com/llehouerou/go-floppy/internal/histogram"
	"github.com/llehouerou/go-floppy/internal/option"
	"github.com/llehouerou/go-floppy/internal/sector"
	"github.com/llehouerou/go-floppy/internal/tables"
)

// Amiga sector geometry.
const (
	AmigaSectorSize = 512
	amigaLongs      = AmigaSectorSize / 4
	amigaLabelWords = 8
	amigaFormat     = 0xff
	amigaSync       = syncA1<<16 | syncA1
)

// AmigaConfig is the configuration of the Amiga trackdisk format.
type AmigaConfig struct {
	format.Common
	Sectors      int
	PrologLength int // MFM zero bytes before the first sector
	TrackLength  int // Nominal track length in bit-stream bytes
}

// Amiga is the AmigaDOS trackdisk layout: sectors without gaps, whose
// longs are split into odd and even bit halves.
type Amiga struct {
	AmigaConfig
}

// NewAmiga returns the double-density format.
func NewAmiga() *Amiga {
	a := &Amiga{}
	a.SetDefaults()
	return a
}

// Name returns "mfm_amiga".
func (a *Amiga) Name() string { return "mfm_amiga" }

// Level implements format.Format.
func (a *Amiga) Level() int { return 4 }

// SetDefaults restores the double-density 11 sector layout.
func (a *Amiga) SetDefaults() {
	a.AmigaConfig = AmigaConfig{
		Common: format.Common{
			Bounds:    tables.MFMBounds.Clone(),
			Precomp:   bounds.NewPrecomp(len(tables.MFMBounds)),
			SyncLimit: 2048,
		},
		Sectors:      11,
		PrologLength: 60,
		TrackLength:  12500,
	}
}

// SetReadOption handles the common read options.
func (a *Amiga) SetReadOption(name string, value, index int) error {
	if ok, err := a.SetCommonReadOption(name, value); ok {
		return err
	}
	return option.Unknown(format.ScopeRead, name)
}

// SetWriteOption handles the prolog and track lengths.
func (a *Amiga) SetWriteOption(name string, value, index int) error {
	switch name {
	case "prolog_length":
		return option.Set(&a.PrologLength, name, value, 0, 1024)
	case "track_length":
		return option.Set(&a.TrackLength, name, value, 0, 0x10000)
	}
	return option.Unknown(format.ScopeWrite, name)
}

// SetRWOption handles sectors and the timing options.
func (a *Amiga) SetRWOption(name string, value, index int) error {
	if name == "sectors" {
		return option.Set(&a.AmigaConfig.Sectors, name, value, 1, 22)
	}
	if ok, err := a.SetCommonRWOption(name, value, index); ok {
		return err
	}
	return option.Unknown(format.ScopeRW, name)
}

// Sectors returns the configured sector count.
func (a *Amiga) Sectors(track int) int { return a.AmigaConfig.Sectors }

// SectorSize is always 512.
func (a *Amiga) SectorSize(track, sector int) int { return AmigaSectorSize }

// Flags implements format.Format.
func (a *Amiga) Flags() format.Flags { return 0 }

// Timing returns the same bounds for every track.
func (a *Amiga) Timing(track int) bounds.Timing { return a.BaseTiming() }

// TrackSize returns the nominal length in bit-stream bytes.
func (a *Amiga) TrackSize(track int) int { return a.TrackLength }

// Statistics implements format.Format.
func (a *Amiga) Statistics(sink histogram.Sink, track int, raw []byte) {
	format.Statistics(sink, track, raw, a.Timing(track))
}

// shuffle splits a long into its odd bits (31, 29, ... 1) and its even
// bits (30, 28, ... 0).
func shuffle(v uint32) (odd, even uint16) {
	for i := 0; i < 16; i++ {
		odd = odd<<1 | uint16(v>>31&1)
		even = even<<1 | uint16(v>>30&1)
		v <<= 2
	}
	return odd, even
}

// unshuffle is the inverse of shuffle.
func unshuffle(odd, even uint16) uint32 {
	var v uint32
	for i := 15; i >= 0; i-- {
		v = v<<2 | uint32(odd>>uint(i)&1)<<1 | uint32(even>>uint(i)&1)
	}
	return v
}

// Decode submits a candidate for every sector header found in src.
func (a *Amiga) Decode(src *bits.Fifo, track int, out sector.Submitter) error {
	for {
		pos, _, err := src.Search(32, -1, amigaSync)
		if err != nil {
			if isEnd(err) {
				return nil
			}
			return err
		}
		src.SkipBits(32) //nolint:errcheck // pattern was just matched

		s, ok, err := a.decodeSector(&decoder{src: src, last: 1}, track)
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

// readWords reads n data words, folding them into sum.
func readWords(d *decoder, w []uint16, sum *uint16) error {
	for i := range w {
		v, err := d.word()
		if err != nil {
			return err
		}
		w[i] = v
		*sum ^= v
	}
	return nil
}

func (a *Amiga) decodeSector(d *decoder, track int) (sector.Sector, bool, error) {
	var s sector.Sector

	var hdrSum uint16
	var info [2]uint16
	if err := readWords(d, info[:], &hdrSum); err != nil {
		return s, false, err
	}
	v := unshuffle(info[0], info[1])
	fmtByte, trk, sec, toGap := v>>24, int(v>>16&0xff), int(v>>8&0xff), int(v&0xff)
	if sec >= a.AmigaConfig.Sectors {
		return s, false, nil
	}

	var label [amigaLabelWords]uint16
	if err := readWords(d, label[:], &hdrSum); err != nil {
		return s, false, err
	}
	var sums [4]uint16 // Header and data checksum longs
	for i := range sums {
		w, err := d.word()
		if err != nil {
			return s, false, err
		}
		sums[i] = w
	}
	var dataSum uint16
	var words [2 * amigaLongs]uint16
	if err := readWords(d, words[:], &dataSum); err != nil {
		return s, false, err
	}

	s.Number = sec
	if fmtByte != amigaFormat || trk != track {
		s.Err.Record(sector.ID, a.Ignore)
	}
	if toGap != a.AmigaConfig.Sectors-sec {
		s.Err.Record(sector.Numbering, a.Ignore)
	}
	if sums[0] != 0 || sums[1] != hdrSum {
		s.Err.Record(sector.Checksum, a.Ignore)
	}
	if sums[2] != 0 || sums[3] != dataSum {
		s.Err.Record(sector.Checksum, a.Ignore)
	}
	if d.bad > 0 {
		s.Err.Record(sector.Encoding, a.Ignore)
	}

	s.Data = make([]byte, AmigaSectorSize)
	for i := 0; i < amigaLongs; i++ {
		binary.BigEndian.PutUint32(s.Data[4*i:], unshuffle(words[i], words[amigaLongs+i]))
	}
	return s, true, nil
}

// Encode writes the prolog and every sector back to back, then pads the
// track with MFM zero bytes.
func (a *Amiga) Encode(dst *bits.Fifo, track int, sectors []sector.Sector) error {
	e := newEncoder(dst, false)
	if err := e.fill(0, a.PrologLength); err != nil {
		return err
	}
	n := a.AmigaConfig.Sectors
	for sec := 0; sec < n; sec++ {
		data, err := format.Payload(sectors, sec, AmigaSectorSize)
		if err != nil {
			return err
		}
		if err := a.writeSector(e, track, sec, data); err != nil {
			return err
		}
	}
	if err := e.pad(0, a.TrackLength); err != nil {
		return err
	}
	return dst.Flush()
}

func (a *Amiga) writeSector(e *encoder, track, sec int, data []byte) error {
	info := uint32(amigaFormat)<<24 | uint32(track)<<16 | uint32(sec)<<8 | uint32(a.AmigaConfig.Sectors-sec)
	odd, even := shuffle(info)
	hdrSum := odd ^ even

	words := make([]uint16, 2*amigaLongs)
	var dataSum uint16
	for i := 0; i < amigaLongs; i++ {
		o, ev := shuffle(binary.BigEndian.Uint32(data[4*i:]))
		words[i], words[amigaLongs+i] = o, ev
		dataSum ^= o ^ ev
	}

	out := make([]uint16, 0, 2+amigaLabelWords+4+len(words))
	out = append(out, odd, even)
	out = append(out, make([]uint16, amigaLabelWords)...)
	out = append(out, 0, hdrSum, 0, dataSum)
	out = append(out, words...)

	if err := e.fill(0, 2); err != nil {
		return err
	}
	for i := 0; i < 2; i++ {
		if err := e.raw(syncA1); err != nil {
			return err
		}
	}
	for _, w := range out {
		if err := e.word(w); err != nil {
			return err
		}
	}
	return nil
}

var _ format.Format = (*Amiga)(nil)
