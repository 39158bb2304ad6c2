package floppy

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/llehouerou/go-floppy/internal/bits"
	"github.com/llehouerou/go-floppy/internal/format"
	"github.com/llehouerou/go-floppy/internal/raw"
)

// EncodeTrack encodes sectors into the raw counters of one track.
//
// Missing sectors and payloads of the wrong size are errors. Symbols the
// raw codec had to drop, coalesce or clip are counted in the report and
// logged once per track.
func (c *Codec) EncodeTrack(track int, sectors []Sector) ([]byte, *TrackReport, error) {
	if err := checkTrack(track); err != nil {
		return nil, nil, err
	}
	f := c.format
	log := c.trackLog(track)
	report := &TrackReport{Track: track}

	rawTrack := f.Flags()&format.FlagRawTrack != 0
	size := max(encodeBufferSize, 2*f.TrackSize(track))
	if rawTrack {
		size = 1
		for _, s := range sectors {
			size += len(s.Data)
		}
	}
	stream := bits.NewFifo(size)
	if err := f.Encode(stream, track, sectors); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	if rawTrack {
		return stream.Bytes(), report, nil
	}

	if nominal := f.TrackSize(track); nominal > 0 && stream.WrPos() > nominal {
		report.Overflow = true
		log.WithFields(logrus.Fields{
			"bytes":   stream.WrPos(),
			"nominal": nominal,
		}).Warn("encoded track exceeds nominal size")
	}

	t, err := c.tablesFor(f.Timing(track))
	if err != nil {
		return nil, nil, err
	}
	// At most one counter per transition.
	counters := bits.NewFifo(stream.WrBitPos() + 1)
	st, err := raw.Write(counters, stream, t)
	report.Write = st
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrRawCodec, err)
	}

	if st.Invalid > 0 {
		log.WithField("symbols", st.Invalid).Warn("run lengths without bounds entry dropped")
	}
	if st.Saturated > 0 {
		log.WithField("symbols", st.Saturated).Warn("long runs coalesced")
	}
	if st.Clipped > 0 {
		log.WithField("symbols", st.Clipped).Warn("counters clipped by precompensation")
	}
	log.WithField("counters", st.Symbols).Debug("track encoded")
	return counters.Bytes(), report, nil
}
