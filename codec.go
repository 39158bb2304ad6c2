package floppy

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/llehouerou/go-floppy/internal/bounds"
	"github.com/llehouerou/go-floppy/internal/histogram"
	"github.com/llehouerou/go-floppy/internal/raw"
)

// Verbosity levels of the codec log.
const (
	VerbosityQuiet   = histogram.VerbosityQuiet   // Warnings only
	VerbositySummary = histogram.VerbositySummary // One info line per track
	VerbosityFull    = histogram.VerbosityFull    // Plus one debug line per bad sector
)

// encodeBufferSize is the bit-stream buffer of formats without a nominal
// track size. It holds a 300 RPM track at 2 Mbit/s.
const encodeBufferSize = 0x20000

// Codec runs one format through the raw codec. It memoizes the counter
// lookup tables per timing configuration.
//
// A Codec is not safe for concurrent use.
type Codec struct {
	format    Format
	log       logrus.FieldLogger
	stats     histogram.Sink
	verbosity int
	tables    map[timingKey]*raw.Tables
}

// Option configures a Codec.
type Option func(*Codec)

// WithLogger sets the logger. The default is the logrus standard logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Codec) {
		c.log = l
	}
}

// WithStatistics passes the counter histogram of every decoded track to
// sink.
func WithStatistics(sink histogram.Sink) Option {
	return func(c *Codec) {
		c.stats = sink
	}
}

// WithVerbosity sets how much the codec logs per track.
func WithVerbosity(v int) Option {
	return func(c *Codec) {
		c.verbosity = v
	}
}

// NewCodec returns a Codec for f. The codec uses f's configuration at the
// time of each call, so options may still be changed afterwards.
func NewCodec(f Format, opts ...Option) (*Codec, error) {
	if f == nil {
		return nil, ErrNilFormat
	}
	c := &Codec{
		format: f,
		log:    logrus.StandardLogger(),
		tables: make(map[timingKey]*raw.Tables),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Format returns the format the codec drives.
func (c *Codec) Format() Format {
	return c.format
}

// TrackReport summarizes one DecodeTrack or EncodeTrack call.
type TrackReport struct {
	Track      int
	Candidates int  // Sector candidates submitted
	Good       int  // Candidates without errors
	Overflow   bool // Encoded data exceeded the nominal track size
	Read       raw.ReadStats
	Write      raw.WriteStats
}

// timingKey is the comparable content of a bounds.Timing.
type timingKey struct {
	bounds  [bounds.MaxEntries]bounds.Bounds
	precomp [bounds.MaxEntries * bounds.MaxEntries]int16
	entries int
	speed   int
}

func keyOf(t bounds.Timing) (timingKey, bool) {
	k := timingKey{entries: len(t.Bounds), speed: t.Speed}
	if len(t.Bounds) > bounds.MaxEntries || len(t.Precomp) > len(k.precomp) {
		return k, false
	}
	copy(k.bounds[:], t.Bounds)
	copy(k.precomp[:], t.Precomp)
	return k, true
}

// tablesFor returns the lookup tables of timing, building them once.
func (c *Codec) tablesFor(timing bounds.Timing) (*raw.Tables, error) {
	key, ok := keyOf(timing)
	if ok {
		if t, found := c.tables[key]; found {
			return t, nil
		}
	}
	t, err := raw.NewTables(timing)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTiming, err)
	}
	if ok {
		c.tables[key] = t
	}
	return t, nil
}

func (c *Codec) trackLog(track int) logrus.FieldLogger {
	return c.log.WithFields(logrus.Fields{
		"format": c.format.Name(),
		"track":  track,
	})
}

func checkTrack(track int) error {
	if track < 0 || track >= MaxTracks {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrTrackRange, track, MaxTracks)
	}
	return nil
}
