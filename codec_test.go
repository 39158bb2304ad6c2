package floppy

import (
	"bytes"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/go-floppy/internal/histogram"
)

func testPayloads(f Format, track int) []Sector {
	n := f.Sectors(track)
	if f.Name() == "raw" {
		return []Sector{{Number: 0, Data: bytes.Repeat([]byte{0x18, 0x28, 0x38}, 40)}}
	}
	out := make([]Sector, n)
	for s := range out {
		data := make([]byte, f.SectorSize(track, s))
		for i := range data {
			data[i] = byte(s*7 + i*5 + track)
		}
		out[s] = Sector{Number: s, Data: data}
	}
	return out
}

func newTestCodec(t *testing.T, f Format, opts ...Option) (*Codec, *logtest.Hook) {
	t.Helper()
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	c, err := NewCodec(f, append([]Option{WithLogger(logger)}, opts...)...)
	require.NoError(t, err)
	return c, hook
}

func warnings(hook *logtest.Hook) []string {
	var out []string
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			out = append(out, e.Message)
		}
	}
	return out
}

func TestCodec_RoundTrip(t *testing.T) {
	for _, d := range Formats() {
		t.Run(d.Name, func(t *testing.T) {
			for _, track := range []int{0, 3, 70} {
				f := d.New()
				c, hook := newTestCodec(t, f)
				want := testPayloads(f, track)

				counters, report, err := c.EncodeTrack(track, want)
				require.NoError(t, err)
				assert.False(t, report.Overflow)
				assert.NotEmpty(t, counters)

				tr := NewTrack(len(want))
				report, err = c.DecodeTrack(counters, track, tr)
				require.NoError(t, err)
				assert.Equal(t, track, report.Track)
				assert.Zero(t, report.Read.Invalid)
				require.True(t, tr.Complete(), "track %d: %d candidates", track, report.Candidates)
				for _, s := range tr.Sectors() {
					assert.True(t, s.Err.Good(), "track %d sector %d: %v", track, s.Number, s.Err.Flags)
					assert.Equal(t, want[s.Number].Data, s.Data, "track %d sector %d", track, s.Number)
				}
				assert.Equal(t, len(want), report.Good)
				if len(want) > 0 {
					assert.Empty(t, warnings(hook))
				}
			}
		})
	}
}

func TestCodec_FMRoundTrip(t *testing.T) {
	f, err := New("mfm_nec765")
	require.NoError(t, err)
	require.NoError(t, f.SetRWOption("mode", 0, 0))
	require.NoError(t, f.SetRWOption("size_code", 1, 0))
	require.NoError(t, f.SetRWOption("sectors", 8, 0))
	c, hook := newTestCodec(t, f)

	want := testPayloads(f, 11)
	counters, report, err := c.EncodeTrack(11, want)
	require.NoError(t, err)
	assert.Zero(t, report.Write.Invalid)

	tr := NewTrack(8)
	_, err = c.DecodeTrack(counters, 11, tr)
	require.NoError(t, err)
	assert.Equal(t, 8, tr.Good())
	assert.Empty(t, warnings(hook))
}

func TestCodec_Overflow(t *testing.T) {
	f, err := New("mfm_nec765")
	require.NoError(t, err)
	require.NoError(t, f.SetRWOption("mode", 0, 0))
	c, hook := newTestCodec(t, f)

	_, report, err := c.EncodeTrack(0, testPayloads(f, 0))
	require.NoError(t, err)
	assert.True(t, report.Overflow)
	assert.Equal(t, []string{"encoded track exceeds nominal size"}, warnings(hook))
}

func TestCodec_Errors(t *testing.T) {
	_, err := NewCodec(nil)
	assert.ErrorIs(t, err, ErrNilFormat)

	f, err := New("gcr_apple")
	require.NoError(t, err)
	c, _ := newTestCodec(t, f)

	_, err = c.DecodeTrack([]byte{0x20}, MaxTracks, nil)
	assert.ErrorIs(t, err, ErrTrackRange)
	_, _, err = c.EncodeTrack(-1, nil)
	assert.ErrorIs(t, err, ErrTrackRange)

	_, _, err = c.EncodeTrack(0, nil)
	assert.ErrorIs(t, err, ErrEncode)

	require.NoError(t, f.SetRWOption("bounds_read_high", 0x7fff, 0))
	_, err = c.DecodeTrack([]byte{0x20}, 0, nil)
	assert.ErrorIs(t, err, ErrTiming)
}

func TestCodec_Garbage(t *testing.T) {
	f, err := New("mfm_amiga")
	require.NoError(t, err)
	c, hook := newTestCodec(t, f)

	report, err := c.DecodeTrack(bytes.Repeat([]byte{0x05}, 500), 0, nil)
	require.NoError(t, err)
	assert.Equal(t, 500, report.Read.Invalid)
	assert.Zero(t, report.Candidates)
	assert.Equal(t, []string{
		"counters outside every bounds range",
		"no sectors found",
	}, warnings(hook))
}

func TestCodec_TablesMemoized(t *testing.T) {
	f, err := New("mfm_nec765")
	require.NoError(t, err)
	c, _ := newTestCodec(t, f)

	a, err := c.tablesFor(f.Timing(0))
	require.NoError(t, err)
	b, err := c.tablesFor(f.Timing(1))
	require.NoError(t, err)
	assert.Same(t, a, b)

	require.NoError(t, f.SetRWOption("bounds_write", 0x3000, 0))
	b, err = c.tablesFor(f.Timing(0))
	require.NoError(t, err)
	assert.NotSame(t, a, b)
	assert.Len(t, c.tables, 2)
}

func TestCodec_Statistics(t *testing.T) {
	f, err := New("gcr_cbm")
	require.NoError(t, err)
	var coll histogram.Collector
	c, _ := newTestCodec(t, f, WithStatistics(&coll))

	counters, _, err := c.EncodeTrack(4, testPayloads(f, 4))
	require.NoError(t, err)
	_, err = c.DecodeTrack(counters, 4, nil)
	require.NoError(t, err)

	require.Len(t, coll.Entries, 1)
	h := coll.Entries[0].Histogram
	assert.Equal(t, 4, h.Track)
	assert.Equal(t, len(counters), h.Total)
	assert.Zero(t, h.Outside(coll.Entries[0].Bounds))
}

func TestCodec_VerbosityFull(t *testing.T) {
	f, err := New("tbe")
	require.NoError(t, err)
	c, hook := newTestCodec(t, f, WithVerbosity(VerbosityFull))

	counters, _, err := c.EncodeTrack(6, testPayloads(f, 6))
	require.NoError(t, err)
	_, err = c.DecodeTrack(counters, 7, nil)
	require.NoError(t, err)

	var bad, summary int
	for _, e := range hook.AllEntries() {
		switch e.Message {
		case "bad sector candidate":
			bad++
			assert.Equal(t, "id", e.Data["errors"])
		case "track decoded":
			summary++
			assert.Equal(t, logrus.InfoLevel, e.Level)
			assert.Equal(t, 0, e.Data["good"])
		}
	}
	assert.Equal(t, f.Sectors(6), bad)
	assert.Equal(t, 1, summary)
}

func TestFormats(t *testing.T) {
	all := Formats()
	require.Len(t, all, 8)
	for i, d := range all {
		f := d.New()
		assert.Equal(t, d.Name, f.Name())
		assert.Equal(t, d.Level, f.Level())
		if i > 0 {
			assert.LessOrEqual(t, all[i-1].Level, d.Level)
		}
	}

	d, err := Lookup("gcr_cbm")
	require.NoError(t, err)
	assert.Equal(t, 3, d.Level)

	_, err = New("mfm_hp")
	assert.ErrorIs(t, err, ErrUnknownFormat)
	assert.True(t, errors.Is(err, ErrUnknownFormat))

	all[0].Name = "changed"
	assert.Equal(t, "raw", Formats()[0].Name, "Formats returns a copy")
}
