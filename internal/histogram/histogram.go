// Package histogram collects raw counter distributions per track and
// renders them for diagnosis.
package histogram

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"github.com/llehouerou/go-floppy/internal/bounds"
)

// Bins is the number of distinct 7-bit counter values.
const Bins = 128

// Histogram counts how often each counter value occurs on a track.
type Histogram struct {
	Track  int
	Counts [Bins]int
	Total  int
}

// New builds the histogram of raw; bit 7 of each byte is ignored.
func New(track int, raw []byte) *Histogram {
	h := &Histogram{Track: track, Total: len(raw)}
	for _, c := range raw {
		h.Counts[c&0x7f]++
	}
	return h
}

// Peak returns the most frequent counter value and its count. Ties go to
// the lower value.
func (h *Histogram) Peak() (int, int) {
	best := 0
	for c, n := range h.Counts {
		if n > h.Counts[best] {
			best = c
		}
	}
	return best, h.Counts[best]
}

// Max returns the highest bin count.
func (h *Histogram) Max() int {
	_, n := h.Peak()
	return n
}

// Outside returns how many counters fall outside every bounds range.
func (h *Histogram) Outside(bnd bounds.Table) int {
	n := 0
	for c, cnt := range h.Counts {
		if _, ok := bnd.Index(c); !ok {
			n += cnt
		}
	}
	return n
}

// Digest returns the hex SHA-256 of the track number and bin counts.
func (h *Histogram) Digest() string {
	sum := sha256.New()
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(h.Track))
	sum.Write(buf[:])
	for _, n := range h.Counts {
		binary.BigEndian.PutUint64(buf[:], uint64(n))
		sum.Write(buf[:])
	}
	return hex.EncodeToString(sum.Sum(nil))
}

// Sink receives one histogram per processed track, with the bounds the
// format decoded it with.
type Sink interface {
	Track(h *Histogram, bnd bounds.Table)
}

// Collector is a Sink that keeps every histogram it receives.
type Collector struct {
	Entries []Entry
}

// Entry is one histogram and its bounds.
type Entry struct {
	Histogram *Histogram
	Bounds    bounds.Table
}

// Track appends h.
func (c *Collector) Track(h *Histogram, bnd bounds.Table) {
	c.Entries = append(c.Entries, Entry{Histogram: h, Bounds: bnd.Clone()})
}

// Multi fans a histogram out to several sinks.
type Multi []Sink

// Track forwards to every sink.
func (m Multi) Track(h *Histogram, bnd bounds.Table) {
	for _, s := range m {
		s.Track(h, bnd)
	}
}
