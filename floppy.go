package floppy

import (
	"github.com/llehouerou/go-floppy/internal/format"
	"github.com/llehouerou/go-floppy/internal/histogram"
	"github.com/llehouerou/go-floppy/internal/sector"
)

// MaxTracks is the number of track indices, cylinder*2+head.
const MaxTracks = format.MaxTracks

// Types shared with the format implementations.
type (
	Format      = format.Format
	Sector      = sector.Sector
	SectorError = sector.Error
	Category    = sector.Category
	Submitter   = sector.Submitter
	SubmitFunc  = sector.SubmitFunc
	Track       = sector.Track
	Sink        = histogram.Sink
)

// Sector error categories.
const (
	NotFound  = sector.NotFound
	Encoding  = sector.Encoding
	ID        = sector.ID
	Numbering = sector.Numbering
	Size      = sector.Size
	Checksum  = sector.Checksum
)

// NewTrack returns a Track keeping the best candidate of n sectors.
func NewTrack(n int) *Track {
	return sector.NewTrack(n)
}
