package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/go-floppy/internal/bounds"
	"github.com/llehouerou/go-floppy/internal/mfm"
	"github.com/llehouerou/go-floppy/internal/option"
	"github.com/llehouerou/go-floppy/internal/sector"
)

const hdProfile = `
format: mfm_nec765
read:
  ignore_checksum: true
  sync_limit: 4096
write:
  gap3: 0x6c
rw:
  sectors: 18
  bounds_write: [0x3000, 0x4800, 0x7000]
verbosity: 2
logs:
  level: debug
  file: floppy.log
  maxBackups: 2
`

func TestParse(t *testing.T) {
	p, err := Parse(strings.NewReader(hdProfile))
	require.NoError(t, err)

	assert.Equal(t, "mfm_nec765", p.Format)
	assert.Equal(t, Value{1}, p.Read["ignore_checksum"])
	assert.Equal(t, Value{0x6c}, p.Write["gap3"])
	assert.Equal(t, Value{0x3000, 0x4800, 0x7000}, p.RW["bounds_write"])
	assert.Equal(t, 2, p.Verbosity)

	assert.Equal(t, "debug", p.Logs.Level)
	assert.Equal(t, "floppy.log", p.Logs.File)
	assert.Equal(t, 2, p.Logs.MaxBackups)
	assert.Equal(t, DefaultMaxSizeMB, p.Logs.MaxSizeMB)
	assert.Equal(t, DefaultMaxAgeDays, p.Logs.MaxAgeDays)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		is   error
	}{
		{"empty", "", ErrFormat},
		{"no format", "rw:\n  sectors: 9\n", ErrFormat},
		{"nested list", "format: fill\nrw:\n  bounds_count: [[1]]\n", ErrValue},
		{"mapping", "format: fill\nrw:\n  sectors: {a: 1}\n", ErrValue},
		{"text", "format: fill\nrw:\n  sectors: many\n", ErrValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.in))
			assert.ErrorIs(t, err, tt.is)
		})
	}

	_, err := Parse(strings.NewReader("format: fill\nsectors: 9\n"))
	assert.Error(t, err, "unknown keys are rejected")
}

func TestNew(t *testing.T) {
	p := New("gcr_cbm")
	assert.Equal(t, "gcr_cbm", p.Format)
	assert.Equal(t, DefaultLevel, p.Logs.Level)
	assert.Equal(t, DefaultMaxBackups, p.Logs.MaxBackups)
	assert.Empty(t, p.RW)
}

func TestApply(t *testing.T) {
	p, err := Parse(strings.NewReader(hdProfile))
	require.NoError(t, err)

	n := mfm.NewNEC765()
	require.NoError(t, p.Apply(n))
	assert.Equal(t, 18, n.Sectors(0))
	assert.Equal(t, 0x6c, n.Gap3)
	assert.Equal(t, 4096, n.SyncLimit)
	assert.Equal(t, sector.Checksum, n.Ignore)
	assert.Equal(t, uint16(0x4800), n.Timing(0).Bounds[1].Write)
}

func TestApply_ModeFirst(t *testing.T) {
	const fmProfile = `
format: mfm_nec765
write:
  gap3: 50
rw:
  mode: 0
  bounds_write: [0x2100, 0x4100, 0x6100]
`
	p, err := Parse(strings.NewReader(fmProfile))
	require.NoError(t, err)

	n := mfm.NewNEC765()
	require.NoError(t, p.Apply(n))
	assert.Equal(t, mfm.ModeFM, n.Mode)
	assert.Equal(t, 50, n.Gap3)
	assert.Equal(t, 0xff, n.Fill, "FM layout")
	bnd := n.Timing(0).Bounds
	assert.Equal(t, uint16(0x2100), bnd[0].Write)
	assert.Equal(t, uint16(0x4100), bnd[1].Write)
	assert.Equal(t, uint16(0x6100), bnd[2].Write)
}

func TestApply_OptionError(t *testing.T) {
	p := &Profile{Format: "mfm_nec765", RW: map[string]Value{"sectors": {99}}}
	err := p.Apply(mfm.NewNEC765())

	var rangeErr *option.RangeError
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, "sectors", rangeErr.Name)
	assert.Contains(t, err.Error(), "option: sectors = 99 out of range [1, 64]")

	p = &Profile{Format: "mfm_nec765", Write: map[string]Value{"sectors": {9}}}
	assert.ErrorIs(t, p.Apply(mfm.NewNEC765()), option.ErrUnknown)
}

func TestApply_InvalidTiming(t *testing.T) {
	p := &Profile{
		Format: "mfm_nec765",
		RW:     map[string]Value{"bounds_read_low": {0x1c00, 0x4000}},
	}
	assert.ErrorIs(t, p.Apply(mfm.NewNEC765()), bounds.ErrOrder)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(hdProfile), 0o644))

	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "mfm_nec765", p.Format)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
