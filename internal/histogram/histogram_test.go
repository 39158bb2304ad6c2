package histogram

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/go-floppy/internal/bounds"
)

func testBounds() bounds.Table {
	return bounds.Table{
		{ReadLow: 0x1c00, ReadHigh: 0x46ff, Write: 0x3800, Count: 1},
		{ReadLow: 0x4700, ReadHigh: 0x62ff, Write: 0x5500, Count: 2},
		{ReadLow: 0x6300, ReadHigh: 0x7eff, Write: 0x7100, Count: 3},
	}
}

func TestNew(t *testing.T) {
	h := New(3, []byte{0x38, 0x38, 0xb8, 0x55, 0x10})
	assert.Equal(t, 3, h.Track)
	assert.Equal(t, 5, h.Total)
	assert.Equal(t, 3, h.Counts[0x38], "bit 7 is ignored")
	assert.Equal(t, 1, h.Counts[0x55])

	peak, n := h.Peak()
	assert.Equal(t, 0x38, peak)
	assert.Equal(t, 3, n)
	assert.Equal(t, 1, h.Outside(testBounds()))
}

func TestPeak_Empty(t *testing.T) {
	h := New(0, nil)
	peak, n := h.Peak()
	assert.Zero(t, peak)
	assert.Zero(t, n)
}

func TestDigest(t *testing.T) {
	a := New(1, []byte{1, 2, 3})
	b := New(1, []byte{3, 2, 1})
	c := New(2, []byte{1, 2, 3})
	assert.Equal(t, a.Digest(), b.Digest())
	assert.NotEqual(t, a.Digest(), c.Digest())
	assert.Len(t, a.Digest(), 64)
}

func TestPrinter(t *testing.T) {
	h := New(7, []byte{0x38, 0x38, 0x55, 0x10})

	tests := []struct {
		name      string
		verbosity int
		wantLines int
	}{
		{"quiet", VerbosityQuiet, 0},
		{"summary", VerbositySummary, 1},
		{"full", VerbosityFull, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			p := &Printer{W: &buf, Verbosity: tt.verbosity}
			p.Track(h, testBounds())
			out := strings.TrimRight(buf.String(), "\n")
			if tt.wantLines == 0 {
				assert.Empty(t, out)
				return
			}
			lines := strings.Split(out, "\n")
			assert.Len(t, lines, tt.wantLines)
			assert.Contains(t, lines[0], "track   7")
			assert.Contains(t, lines[0], "1 outside bounds")
		})
	}
}

func TestPrinter_BarMarks(t *testing.T) {
	var buf bytes.Buffer
	p := &Printer{W: &buf, Verbosity: VerbosityFull}
	p.Track(New(0, []byte{0x10, 0x55, 0x55}), testBounds())
	out := buf.String()
	assert.Contains(t, out, "  0x10         1 "+strings.Repeat("#", barWidth/2)+"\n")
	assert.Contains(t, out, "  0x55 1       2 "+strings.Repeat("#", barWidth)+"\n")
}

func TestCollectorAndMulti(t *testing.T) {
	var a, b Collector
	m := Multi{&a, &b}
	bnd := testBounds()
	m.Track(New(0, []byte{1}), bnd)
	bnd[0].Write = 0

	require.Len(t, a.Entries, 1)
	require.Len(t, b.Entries, 1)
	assert.Equal(t, uint16(0x3800), a.Entries[0].Bounds[0].Write, "bounds are copied")
}

func TestReport_Save(t *testing.T) {
	r := &Report{Format: "mfm_nec765"}
	r.Track(New(0, bytes.Repeat([]byte{0x38, 0x55, 0x71}, 100)), testBounds())
	r.Track(New(1, []byte{0x38}), testBounds())

	path := filepath.Join(t.TempDir(), "hist.pdf")
	require.NoError(t, r.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestReport_SaveEmpty(t *testing.T) {
	r := &Report{Title: "Empty"}
	path := filepath.Join(t.TempDir(), "empty.pdf")
	require.NoError(t, r.Save(path))
	_, err := os.Stat(path)
	assert.NoError(t, err)
}
