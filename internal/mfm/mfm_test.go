package mfm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/go-floppy/internal/bits"
	"github.com/llehouerou/go-floppy/internal/format"
	"github.com/llehouerou/go-floppy/internal/option"
	"github.com/llehouerou/go-floppy/internal/sector"
	"github.com/llehouerou/go-floppy/internal/tables"
)

func payloads(n, size int) []sector.Sector {
	out := make([]sector.Sector, n)
	for s := range out {
		data := make([]byte, size)
		for i := range data {
			data[i] = byte(s*13 + i*3 + i>>8)
		}
		out[s] = sector.Sector{Number: s, Data: data}
	}
	return out
}

func encode(t *testing.T, f format.Format, track int) []byte {
	t.Helper()
	dst := bits.NewFifo(0x10000)
	require.NoError(t, f.Encode(dst, track, payloads(f.Sectors(track), f.SectorSize(track, 0))))
	return append([]byte(nil), dst.Bytes()...)
}

func decode(t *testing.T, f format.Format, track int, stream []byte) []sector.Sector {
	t.Helper()
	var got []sector.Sector
	err := f.Decode(bits.NewFifoBytes(stream), track, sector.SubmitFunc(func(s sector.Sector) {
		got = append(got, s)
	}))
	require.NoError(t, err)
	return got
}

func flipBit(buf []byte, pos int) {
	buf[pos/8] ^= 0x80 >> uint(pos%8)
}

func assertRoundTrip(t *testing.T, f format.Format, track int) {
	t.Helper()
	stream := encode(t, f, track)
	if size := f.TrackSize(track); size > 0 {
		assert.Len(t, stream, size, "padded to the nominal length")
	}

	want := payloads(f.Sectors(track), f.SectorSize(track, 0))
	got := decode(t, f, track, stream)
	require.Len(t, got, len(want))
	for i, s := range got {
		assert.Equal(t, i, s.Number)
		assert.True(t, s.Err.Good(), "sector %d: %+v", i, s.Err)
		assert.Equal(t, want[i].Data, s.Data, "sector %d", i)
		if i > 0 {
			assert.Greater(t, s.Offset, got[i-1].Offset)
		}
	}
}

func TestEncoder_Cells(t *testing.T) {
	tests := []struct {
		name string
		fm   bool
		last uint32
		b    byte
		want []byte
	}{
		{"mfm zero", false, 0, 0x00, []byte{0xaa, 0xaa}},
		{"mfm zero after one", false, 1, 0x00, []byte{0x2a, 0xaa}},
		{"mfm gap", false, 0, 0x4e, []byte{0x92, 0x54}},
		{"mfm ones", false, 0, 0xff, []byte{0x55, 0x55}},
		{"fm zero", true, 0, 0x00, []byte{0xaa, 0xaa}},
		{"fm ones", true, 0, 0xff, []byte{0xff, 0xff}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := bits.NewFifo(2)
			e := &encoder{dst: dst, fm: tt.fm, last: tt.last}
			require.NoError(t, e.byte(tt.b))
			assert.Equal(t, tt.want, dst.Bytes())

			d := &decoder{src: bits.NewFifoBytes(dst.Bytes()), fm: tt.fm, last: tt.last}
			b, err := d.byte()
			require.NoError(t, err)
			assert.Equal(t, tt.b, b)
			assert.Zero(t, d.bad)
		})
	}
}

func TestDecoder_SyncViolatesClock(t *testing.T) {
	d := &decoder{src: bits.NewFifoBytes([]byte{0x44, 0x89}), last: 0}
	b, err := d.byte()
	require.NoError(t, err)
	assert.Equal(t, byte(0xa1), b)
	assert.Equal(t, 1, d.bad)
	assert.Equal(t, uint32(1), d.last)
}

func TestEncoder_Pad(t *testing.T) {
	dst := bits.NewFifo(16)
	e := newEncoder(dst, false)
	require.NoError(t, e.byte(0x4e))
	require.NoError(t, e.pad(0, 7))
	assert.Equal(t, 7, dst.WrPos())
	require.NoError(t, e.pad(0, 4))
	assert.Equal(t, 7, dst.WrPos(), "nothing written past the size")
}

func TestNEC765_CRCStart(t *testing.T) {
	n := NewNEC765()
	assert.Equal(t, uint16(0xb230), n.crcStart(markID))
}

func TestNEC765_RoundTripMFM(t *testing.T) {
	for _, track := range []int{0, 1, 159} {
		assertRoundTrip(t, NewNEC765(), track)
	}
}

func TestNEC765_RoundTripFM(t *testing.T) {
	n := NewNEC765()
	require.NoError(t, n.SetRWOption("mode", ModeFM, 0))
	require.NoError(t, n.SetRWOption("sectors", 8, 0))
	require.NoError(t, n.SetRWOption("size_code", 1, 0))
	assert.Equal(t, 6250, n.TrackSize(0))
	assert.Equal(t, tables.FMBounds, n.Timing(0).Bounds)
	assertRoundTrip(t, n, 3)
}

func TestNEC765_ModeResetsLayout(t *testing.T) {
	n := NewNEC765()
	require.NoError(t, n.SetWriteOption("gap3", 10, 0))
	require.NoError(t, n.SetRWOption("mode", 0, 0))
	assert.Equal(t, 27, n.Gap3)
	assert.Equal(t, 0xff, n.Fill)
	require.NoError(t, n.SetRWOption("mode", 1, 0))
	assert.Equal(t, 84, n.Gap3)
	assert.Equal(t, 12500, n.TrackSize(0))

	require.NoError(t, n.SetWriteOption("gap3", 10, 0))
	require.NoError(t, n.SetRWOption("mode", 1, 0))
	assert.Equal(t, 10, n.Gap3, "same mode")

	var rangeErr *option.RangeError
	assert.ErrorAs(t, n.SetRWOption("mode", 2, 0), &rangeErr)
	assert.ErrorAs(t, n.SetRWOption("size_code", 7, 0), &rangeErr)
	assert.ErrorIs(t, n.SetWriteOption("sectors", 7, 0), option.ErrUnknown)
}

func TestNEC765_IDAndSize(t *testing.T) {
	n := NewNEC765()
	require.NoError(t, n.SetRWOption("sectors", 2, 0))
	stream := encode(t, n, 0)

	got := decode(t, n, 2, stream)
	require.Len(t, got, 2)
	assert.Equal(t, sector.ID, got[0].Err.Flags)

	require.NoError(t, n.SetRWOption("size_code", 1, 0))
	got = decode(t, n, 0, stream)
	require.Len(t, got, 2)
	assert.Equal(t, sector.Size|sector.Checksum, got[0].Err.Flags)
	assert.Len(t, got[0].Data, 256, "the configured size is read")

	require.NoError(t, n.SetReadOption("ignore_size", 1, 0))
	require.NoError(t, n.SetReadOption("ignore_checksum", 1, 0))
	got = decode(t, n, 0, stream)
	assert.True(t, got[0].Err.Good())
	assert.Equal(t, sector.Size|sector.Checksum, got[0].Err.Warn)
}

func TestNEC765_SectorBase(t *testing.T) {
	n := NewNEC765()
	require.NoError(t, n.SetRWOption("sectors", 3, 0))
	stream := encode(t, n, 0)

	require.NoError(t, n.SetRWOption("sector_base", 2, 0))
	got := decode(t, n, 0, stream)
	require.Len(t, got, 2, "R=1 falls outside the range and is dropped")
	assert.Equal(t, 0, got[0].Number)
	assert.Equal(t, 1, got[1].Number)
}

func TestNEC765_SectorNumberByte(t *testing.T) {
	n := NewNEC765()

	var rangeErr *option.RangeError
	err := n.SetRWOption("sector_base", 250, 0)
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, 247, rangeErr.Max)

	require.NoError(t, n.SetRWOption("sector_base", 247, 0))
	assert.ErrorAs(t, n.SetRWOption("sectors", 10, 0), &rangeErr)
	assert.Equal(t, 9, n.Sectors(0))
	assertRoundTrip(t, n, 2)
}

// Gap 4a, index mark, gap 1, then the ID field of sector 0.
const nec765Header = 80 + 12 + 4 + 50 + 12 + 3 + 1 + 4 + 2

func TestNEC765_NotFound(t *testing.T) {
	n := NewNEC765()
	stream := encode(t, n, 0)
	stream = stream[:2*(nec765Header+22)]

	got := decode(t, n, 0, stream)
	require.Len(t, got, 1)
	assert.Equal(t, sector.NotFound, got[0].Err.Flags)
	assert.Equal(t, make([]byte, 512), got[0].Data)
}

func TestNEC765_NextIDBeforeData(t *testing.T) {
	n := NewNEC765()
	require.NoError(t, n.SetRWOption("sectors", 2, 0))
	require.NoError(t, n.SetWriteOption("gap3", 0, 0))
	stream := encode(t, n, 0)

	// Break the data sync of sector 0; the ID field of sector 1 follows.
	flipBit(stream, 16*(nec765Header+22+12)+1)
	require.NoError(t, n.SetReadOption("sync_limit", 1<<16, 0))

	got := decode(t, n, 0, stream)
	require.Len(t, got, 2)
	assert.Equal(t, sector.NotFound, got[0].Err.Flags)
	assert.True(t, got[1].Err.Good())
}

func TestNEC765_ClockViolation(t *testing.T) {
	n := NewNEC765()
	require.NoError(t, n.SetRWOption("sectors", 1, 0))
	stream := encode(t, n, 0)

	// Clock cell of the first data bit of sector 0.
	flipBit(stream, 16*(nec765Header+22+12+3+1))

	got := decode(t, n, 0, stream)
	require.Len(t, got, 1)
	assert.Equal(t, sector.Encoding, got[0].Err.Flags)
	assert.Equal(t, payloads(1, 512)[0].Data, got[0].Data)
}

// TestNEC765_IgnoreEachCategory decodes candidates that are wrong in
// several categories at once, ignoring one category per run.
func TestNEC765_IgnoreEachCategory(t *testing.T) {
	enc := NewNEC765()
	require.NoError(t, enc.SetRWOption("sectors", 1, 0))
	full := encode(t, enc, 0)

	// A clock violation in the data field of the only sector.
	broken := append([]byte(nil), full...)
	flipBit(broken, 16*(nec765Header+22+12+3+1))
	// The header alone, without its data field.
	headerOnly := append([]byte(nil), full[:2*(nec765Header+22)]...)

	fixtures := []struct {
		name   string
		stream []byte
		want   sector.Category
	}{
		{"bad data field", broken, sector.ID | sector.Size | sector.Checksum | sector.Encoding},
		{"missing data field", headerOnly, sector.ID | sector.Size | sector.NotFound},
	}

	for _, cat := range sector.Categories() {
		t.Run(cat.String(), func(t *testing.T) {
			n := NewNEC765()
			require.NoError(t, n.SetRWOption("sectors", 1, 0))
			require.NoError(t, n.SetRWOption("size_code", 1, 0))
			require.NoError(t, n.SetReadOption("ignore_"+cat.String(), 1, 0))

			for _, fx := range fixtures {
				// Decoded as cylinder 1 with a smaller size code.
				got := decode(t, n, 2, fx.stream)
				require.Len(t, got, 1, fx.name)
				assert.Equal(t, fx.want&^cat, got[0].Err.Flags, fx.name)
				assert.Equal(t, fx.want&cat, got[0].Err.Warn, fx.name)
			}
		})
	}
}

func TestAmiga_IgnoreEachCategory(t *testing.T) {
	stream := encode(t, NewAmiga(), 4)
	want := sector.Numbering | sector.ID

	for _, cat := range []sector.Category{sector.Numbering, sector.ID, sector.Checksum} {
		t.Run(cat.String(), func(t *testing.T) {
			a := NewAmiga()
			require.NoError(t, a.SetRWOption("sectors", 12, 0))
			require.NoError(t, a.SetReadOption("ignore_"+cat.String(), 1, 0))

			got := decode(t, a, 5, stream)
			require.Len(t, got, 11)
			for _, s := range got {
				assert.Equal(t, want&^cat, s.Err.Flags, "sector %d", s.Number)
				assert.Equal(t, want&cat, s.Err.Warn, "sector %d", s.Number)
			}
		})
	}
}

func TestShuffle(t *testing.T) {
	odd, even := shuffle(0xff001a0b)
	assert.Equal(t, uint32(0xff001a0b), unshuffle(odd, even))
	odd, even = shuffle(0xaaaaaaaa)
	assert.Equal(t, uint16(0xffff), odd)
	assert.Zero(t, even)
}

func TestAmiga_RoundTrip(t *testing.T) {
	for _, track := range []int{0, 1, 159} {
		assertRoundTrip(t, NewAmiga(), track)
	}
}

func TestAmiga_Numbering(t *testing.T) {
	a := NewAmiga()
	stream := encode(t, a, 4)

	require.NoError(t, a.SetRWOption("sectors", 12, 0))
	got := decode(t, a, 4, stream)
	require.Len(t, got, 11)
	for _, s := range got {
		assert.Equal(t, sector.Numbering, s.Err.Flags)
	}

	got = decode(t, a, 5, stream)
	assert.Equal(t, sector.Numbering|sector.ID, got[0].Err.Flags)
}

func TestAmiga_Checksum(t *testing.T) {
	a := NewAmiga()
	stream := encode(t, a, 0)

	// Prolog, zero bytes, sync, then info, label and checksum words.
	words := 60*16 + 2*16 + 2*16 + (2+amigaLabelWords+4)*32
	flipBit(stream, words+1)

	require.NoError(t, a.SetReadOption("ignore_encoding", 1, 0))
	got := decode(t, a, 0, stream)
	require.Len(t, got, 11)
	assert.Equal(t, sector.Checksum, got[0].Err.Flags)
	assert.True(t, got[1].Err.Good())
}

func TestTBE_RoundTrip(t *testing.T) {
	for _, track := range []int{0, 7, 167} {
		assertRoundTrip(t, NewTBE(), track)
	}
}

func TestTBE_Checks(t *testing.T) {
	tb := NewTBE()
	require.NoError(t, tb.SetRWOption("sectors", 3, 0))
	stream := encode(t, tb, 6)

	got := decode(t, tb, 5, stream)
	require.Len(t, got, 3)
	assert.Equal(t, sector.ID, got[0].Err.Flags)

	require.NoError(t, tb.SetRWOption("size_code", 1, 0))
	got = decode(t, tb, 6, stream)
	require.Len(t, got, 3)
	assert.Equal(t, sector.Size|sector.Checksum, got[0].Err.Flags)
	assert.Len(t, got[0].Data, 256)

	require.NoError(t, tb.SetRWOption("sectors", 2, 0))
	require.NoError(t, tb.SetRWOption("size_code", 2, 0))
	got = decode(t, tb, 6, stream)
	assert.Len(t, got, 2, "block 2 is out of range")
}
