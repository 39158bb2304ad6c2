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

// Apple field prologs and epilog, as 24-bit nibble sequences.
const (
	appleAddrProlog = 0xd5aa96
	appleDataProlog = 0xd5aaad
	appleEpilog     = 0xdeaaeb
)

// Apple sector geometry.
const (
	AppleSectorSize = 256
	appleAux        = 86 // 2-bit groups, three per value
	appleValues     = appleAux + AppleSectorSize
	appleSyncNibble = 0x3fc // 0xff followed by two zero bits
	appleSyncBits   = 10
)

// AppleConfig is the configuration of the Apple 5.25" format.
type AppleConfig struct {
	format.Common
	Sectors      int // Sectors per track
	Volume       int // Volume number written to and expected in address fields
	PrologLength int // Sync nibbles before the first sector
	Gap2         int // Sync nibbles between address and data field
	Gap3         int // Sync nibbles after each data field
}

// Apple is the Apple II 16-sector 6-and-2 format.
type Apple struct {
	AppleConfig
}

// NewApple returns the format with its default configuration.
func NewApple() *Apple {
	a := &Apple{}
	a.SetDefaults()
	return a
}

// Name returns "gcr_apple".
func (a *Apple) Name() string { return "gcr_apple" }

// Level implements format.Format.
func (a *Apple) Level() int { return 3 }

// SetDefaults restores the DOS 3.3 layout.
func (a *Apple) SetDefaults() {
	a.AppleConfig = AppleConfig{
		Common: format.Common{
			Bounds:    tables.AppleBounds.Clone(),
			Precomp:   bounds.NewPrecomp(len(tables.AppleBounds)),
			SyncLimit: 1024,
		},
		Sectors:      16,
		Volume:       0xfe,
		PrologLength: 64,
		Gap2:         6,
		Gap3:         20,
	}
}

// SetReadOption accepts the ignore_* categories and sync_limit.
func (a *Apple) SetReadOption(name string, value, index int) error {
	if ok, err := a.SetCommonReadOption(name, value); ok {
		return err
	}
	return option.Unknown(format.ScopeRead, name)
}

// SetWriteOption sets the sync nibble counts: prolog_length, gap2 and gap3.
func (a *Apple) SetWriteOption(name string, value, index int) error {
	switch name {
	case "prolog_length":
		return option.Set(&a.PrologLength, name, value, 0, 1024)
	case "gap2":
		return option.Set(&a.Gap2, name, value, 0, 255)
	case "gap3":
		return option.Set(&a.Gap3, name, value, 0, 255)
	}
	return option.Unknown(format.ScopeWrite, name)
}

// SetRWOption sets sectors, volume, and the bounds and precomp timing.
func (a *Apple) SetRWOption(name string, value, index int) error {
	switch name {
	case "sectors":
		return option.Set(&a.AppleConfig.Sectors, name, value, 1, 32)
	case "volume":
		return option.Set(&a.Volume, name, value, 0, 255)
	}
	if ok, err := a.SetCommonRWOption(name, value, index); ok {
		return err
	}
	return option.Unknown(format.ScopeRW, name)
}

// Sectors returns the configured sector count on every track.
func (a *Apple) Sectors(track int) int { return a.AppleConfig.Sectors }

// SectorSize is always 256.
func (a *Apple) SectorSize(track, sector int) int { return AppleSectorSize }

// Flags returns no flags; Apple tracks are written from any position.
func (a *Apple) Flags() format.Flags { return 0 }

// Timing returns the same bounds for every track.
func (a *Apple) Timing(track int) bounds.Timing { return a.BaseTiming() }

// TrackSize returns 0: the track length follows the gaps.
func (a *Apple) TrackSize(track int) int { return 0 }

// Statistics implements format.Format.
func (a *Apple) Statistics(sink histogram.Sink, track int, raw []byte) {
	format.Statistics(sink, track, raw, a.Timing(track))
}

// Decode submits every address field found in src, with its data field.
func (a *Apple) Decode(src *bits.Fifo, track int, out sector.Submitter) error {
	for {
		r := &nibbleReader{src: src}
		pos, _, err := r.find(-1, appleAddrProlog)
		if err != nil {
			if isEnd(err) {
				return nil
			}
			return err
		}

		s, ok, err := a.decodeSector(r, track)
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

// nibbleReader reads self-synchronizing nibbles: leading zero bits are
// skipped until the top bit of a nibble is seen.
type nibbleReader struct {
	src   *bits.Fifo
	start int // Bit position of the last nibble read
	bad   int
}

func (r *nibbleReader) nibble() (byte, error) {
	for {
		b, err := r.src.ReadBits(1)
		if err != nil {
			return 0, err
		}
		if b == 1 {
			break
		}
	}
	r.start = r.src.RdBitPos() - 1
	v, err := r.src.ReadBits(7)
	if err != nil {
		return 0, err
	}
	return byte(0x80 | v), nil
}

// find reads nibbles until the last three form one of the prologs and
// returns the bit position of the prolog and its index. The cursor is
// left after the prolog. A non-negative limit bounds the bits scanned.
func (r *nibbleReader) find(limit int, prologs ...uint32) (int, int, error) {
	begin := r.src.RdBitPos()
	var window uint32
	var starts [3]int
	for n := 0; ; n++ {
		if limit >= 0 && r.src.RdBitPos()-begin >= limit {
			return -1, -1, bits.ErrNotFound
		}
		b, err := r.nibble()
		if err != nil {
			return -1, -1, err
		}
		window = (window<<8 | uint32(b)) & 0xffffff
		starts[0], starts[1], starts[2] = starts[1], starts[2], r.start
		if n < 2 {
			continue
		}
		for i, p := range prologs {
			if window == p {
				return starts[0], i, nil
			}
		}
	}
}

// odd44 reads one 4-and-4 encoded value.
func (r *nibbleReader) odd44() (byte, error) {
	hi, err := r.nibble()
	if err != nil {
		return 0, err
	}
	lo, err := r.nibble()
	if err != nil {
		return 0, err
	}
	if hi&0xaa != 0xaa || lo&0xaa != 0xaa {
		r.bad++
	}
	return (hi<<1 | 1) & lo, nil
}

// epilog checks the first two epilog nibbles; the third is often
// clipped by the write splice and is not read.
func (r *nibbleReader) epilog() error {
	for _, want := range []byte{appleEpilog >> 16, appleEpilog >> 8 & 0xff} {
		n, err := r.nibble()
		if err != nil {
			return err
		}
		if n != want {
			r.bad++
		}
	}
	return nil
}

func (a *Apple) decodeSector(r *nibbleReader, track int) (sector.Sector, bool, error) {
	var s sector.Sector

	var field [4]byte // volume, track, sector, checksum
	for i := range field {
		v, err := r.odd44()
		if err != nil {
			return s, false, err
		}
		field[i] = v
	}
	vol, trk, sec, chk := field[0], field[1], field[2], field[3]
	if int(sec) >= a.AppleConfig.Sectors {
		return s, false, nil
	}
	if err := r.epilog(); err != nil {
		return s, false, err
	}

	s.Number = int(sec)
	if vol^trk^sec != chk {
		s.Err.Record(sector.Checksum, a.Ignore)
	}
	if int(vol) != a.Volume || int(trk) != track>>1 {
		s.Err.Record(sector.ID, a.Ignore)
	}

	s.Data = make([]byte, AppleSectorSize)
	src := r.src
	after := src.RdBitPos()
	pos, idx, err := r.find(a.SyncLimit, appleDataProlog, appleAddrProlog)
	if err != nil || idx != 0 {
		if err != nil {
			src.SetRdBitPos(after) //nolint:errcheck // after lies inside read data
		} else {
			// Leave the next address field for the next search.
			src.SetRdBitPos(pos) //nolint:errcheck // pos lies inside read data
		}
		if r.bad > 0 {
			s.Err.Record(sector.Encoding, a.Ignore)
		}
		s.Err.Record(sector.NotFound, a.Ignore)
		return s, true, nil
	}

	data := &nibbleReader{src: src, bad: r.bad}
	var x [appleValues]byte
	var prev byte
	for i := range x {
		n, err := data.nibble()
		if err != nil {
			return s, false, err
		}
		v, ok := tables.Value62(n)
		if !ok {
			data.bad++
		}
		prev ^= v
		x[i] = prev
	}
	n, err := data.nibble()
	if err != nil {
		return s, false, err
	}
	v, ok := tables.Value62(n)
	if !ok {
		data.bad++
	}
	if err := data.epilog(); err != nil && !isEnd(err) {
		return s, false, err
	}

	if v != prev {
		s.Err.Record(sector.Checksum, a.Ignore)
	}
	if data.bad > 0 {
		s.Err.Record(sector.Encoding, a.Ignore)
	}
	denibble(s.Data, x[:])
	return s, true, nil
}

// rev2 swaps the two low bits of v.
func rev2(v byte) byte {
	return (v&1)<<1 | (v>>1)&1
}

// nibblize splits a sector into 342 six-bit values: the 86 auxiliary
// values holding the low bit pairs, highest index first, then the high
// six bits of every byte.
func nibblize(x []byte, data []byte) {
	for i := 0; i < appleAux; i++ {
		v := rev2(data[i] & 3)
		v |= rev2(data[i+appleAux]&3) << 2
		if i+2*appleAux < AppleSectorSize {
			v |= rev2(data[i+2*appleAux]&3) << 4
		}
		x[appleAux-1-i] = v
	}
	for j := 0; j < AppleSectorSize; j++ {
		x[appleAux+j] = data[j] >> 2
	}
}

// denibble is the inverse of nibblize.
func denibble(data []byte, x []byte) {
	for j := 0; j < AppleSectorSize; j++ {
		data[j] = x[appleAux+j] << 2
	}
	for i := 0; i < appleAux; i++ {
		v := x[appleAux-1-i]
		data[i] |= rev2(v & 3)
		data[i+appleAux] |= rev2(v >> 2 & 3)
		if i+2*appleAux < AppleSectorSize {
			data[i+2*appleAux] |= rev2(v >> 4 & 3)
		}
	}
}

// Encode writes a full track: prolog, then per sector address field,
// gap2, data field and gap3.
func (a *Apple) Encode(dst *bits.Fifo, track int, sectors []sector.Sector) error {
	if err := a.writeSync(dst, a.PrologLength); err != nil {
		return err
	}
	for n := 0; n < a.AppleConfig.Sectors; n++ {
		data, err := format.Payload(sectors, n, AppleSectorSize)
		if err != nil {
			return err
		}
		if err := a.writeAddress(dst, track, n); err != nil {
			return err
		}
		if err := a.writeSync(dst, a.Gap2); err != nil {
			return err
		}
		if err := writeData(dst, data); err != nil {
			return err
		}
		if err := a.writeSync(dst, a.Gap3); err != nil {
			return err
		}
	}
	return dst.Flush()
}

func (a *Apple) writeSync(dst *bits.Fifo, n int) error {
	for i := 0; i < n; i++ {
		if err := dst.WriteBits(appleSyncNibble, appleSyncBits); err != nil {
			return err
		}
	}
	return nil
}

func (a *Apple) writeAddress(dst *bits.Fifo, track, n int) error {
	vol, trk, sec := byte(a.Volume), byte(track>>1), byte(n)
	if err := dst.WriteBits(appleAddrProlog, 24); err != nil {
		return err
	}
	for _, v := range []byte{vol, trk, sec, vol ^ trk ^ sec} {
		if err := dst.WriteBlock([]byte{v>>1 | 0xaa, v | 0xaa}); err != nil {
			return err
		}
	}
	return dst.WriteBits(appleEpilog, 24)
}

func writeData(dst *bits.Fifo, data []byte) error {
	var x [appleValues]byte
	nibblize(x[:], data)

	buf := make([]byte, 0, appleValues+1)
	var prev byte
	for _, v := range x {
		buf = append(buf, tables.Nibble62[v^prev])
		prev = v
	}
	buf = append(buf, tables.Nibble62[prev])

	if err := dst.WriteBits(appleDataProlog, 24); err != nil {
		return err
	}
	if err := dst.WriteBlock(buf); err != nil {
		return err
	}
	return dst.WriteBits(appleEpilog, 24)
}

var _ format.Format = (*Apple)(nil)
