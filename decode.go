package floppy

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/llehouerou/go-floppy/internal/bits"
	"github.com/llehouerou/go-floppy/internal/format"
	"github.com/llehouerou/go-floppy/internal/raw"
	"github.com/llehouerou/go-floppy/internal/sector"
)

// counter forwards candidates and tallies them for the report.
type counter struct {
	out    Submitter
	report *TrackReport
	log    func(s Sector)
}

func (c *counter) Submit(s Sector) {
	c.report.Candidates++
	if s.Err.Good() {
		c.report.Good++
	} else if c.log != nil {
		c.log(s)
	}
	if c.out != nil {
		c.out.Submit(s)
	}
}

// DecodeTrack decodes the raw counters of one track and submits every
// sector candidate found to out. A nil out only counts candidates.
//
// Data-quality problems are reported in the candidates, not as errors.
// DecodeTrack fails only for an invalid track or timing configuration.
func (c *Codec) DecodeTrack(counters []byte, track int, out Submitter) (*TrackReport, error) {
	if err := checkTrack(track); err != nil {
		return nil, err
	}
	f := c.format
	log := c.trackLog(track)
	report := &TrackReport{Track: track}

	if c.stats != nil {
		f.Statistics(c.stats, track, counters)
	}

	timing := f.Timing(track)
	var src *bits.Fifo
	if f.Flags()&format.FlagRawTrack != 0 {
		src = bits.NewFifoBytes(counters)
	} else {
		t, err := c.tablesFor(timing)
		if err != nil {
			return nil, err
		}
		// Every counter becomes at most the sentinel run and its one bit.
		src = bits.NewFifo(len(counters)*(t.Sentinel()+1)/8 + 1)
		st, err := raw.Read(src, bits.NewFifoBytes(counters), t)
		report.Read = st
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrRawCodec, err)
		}
	}
	if err := src.SetSpeed(timing.Speed); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTiming, err)
	}

	sub := &counter{out: out, report: report}
	if c.verbosity >= VerbosityFull {
		sub.log = func(s Sector) {
			log.WithFields(logrus.Fields{
				"sector": s.Number,
				"errors": s.Err.Flags.String(),
			}).Debug("bad sector candidate")
		}
	}
	if err := f.Decode(src, track, sub); err != nil {
		return report, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	if report.Read.Invalid > 0 {
		log.WithField("counters", report.Read.Invalid).Warn("counters outside every bounds range")
	}
	if report.Candidates == 0 && f.Sectors(track) > 0 {
		log.Warn("no sectors found")
	}
	if c.verbosity >= VerbositySummary {
		log.WithFields(logrus.Fields{
			"candidates": report.Candidates,
			"good":       report.Good,
		}).Info("track decoded")
	} else {
		log.WithField("candidates", report.Candidates).Debug("track decoded")
	}
	return report, nil
}

var _ sector.Submitter = (*counter)(nil)
