// Package sector defines decoded sector candidates, their quality
// annotation and the interface decoders submit them through.
package sector

import (
	"strings"

	"github.com/llehouerou/go-floppy/internal/option"
)

// Category is a bitmask of sector error categories.
type Category uint8

// Error categories. They are orthogonal; any combination can be set.
const (
	NotFound Category = 1 << iota // Header seen, data field missing
	Encoding                      // Invalid symbol or clock bit
	ID                            // Track, side, volume or disk id mismatch
	Numbering                     // Sector numbering inconsistent
	Size                          // Size indicator differs from configuration
	Checksum                      // Checksum or CRC mismatch

	AllCategories = NotFound | Encoding | ID | Numbering | Size | Checksum
)

var categoryNames = [...]struct {
	cat  Category
	name string
}{
	{NotFound, "not_found"},
	{Encoding, "encoding"},
	{ID, "id"},
	{Numbering, "numbering"},
	{Size, "size"},
	{Checksum, "checksum"},
}

// Categories lists every category in bit order.
func Categories() []Category {
	cats := make([]Category, len(categoryNames))
	for i, c := range categoryNames {
		cats[i] = c.cat
	}
	return cats
}

// String returns the set category names joined by "|", or "none".
func (c Category) String() string {
	if c == 0 {
		return "none"
	}
	var names []string
	for _, n := range categoryNames {
		if c&n.cat != 0 {
			names = append(names, n.name)
		}
	}
	return strings.Join(names, "|")
}

// SetIgnoreOption handles the ignore_<category> read options by setting
// or clearing the category in mask. It reports false for other names.
func SetIgnoreOption(mask *Category, name string, value int) (bool, error) {
	suffix, ok := strings.CutPrefix(name, "ignore_")
	if !ok {
		return false, nil
	}
	for _, n := range categoryNames {
		if n.name != suffix {
			continue
		}
		var on bool
		if err := option.Bool(&on, name, value); err != nil {
			return true, err
		}
		if on {
			*mask |= n.cat
		} else {
			*mask &^= n.cat
		}
		return true, nil
	}
	return false, nil
}

// Error is the quality annotation of one sector candidate.
type Error struct {
	Flags    Category // Categories counted as errors
	Warn     Category // Categories downgraded to warnings
	Errors   int
	Warnings int
}

// Add records delta errors in category cat.
func (e *Error) Add(cat Category, delta int) {
	e.Flags |= cat
	e.Errors += delta
}

// AddWarning records delta warnings in category cat.
func (e *Error) AddWarning(cat Category, delta int) {
	e.Warn |= cat
	e.Warnings += delta
}

// Record records one mismatch in cat, as a warning when ignore holds cat.
func (e *Error) Record(cat Category, ignore Category) {
	e.RecordN(cat, ignore, 1)
}

// RecordN records n mismatches in cat; n <= 0 records nothing.
func (e *Error) RecordN(cat Category, ignore Category, n int) {
	if n <= 0 {
		return
	}
	if ignore&cat != 0 {
		e.AddWarning(cat, n)
		return
	}
	e.Add(cat, n)
}

// Good reports whether the candidate has no hard errors.
func (e Error) Good() bool {
	return e.Errors == 0
}

// Better reports whether e is preferable to o: fewer errors, then fewer
// warnings.
func (e Error) Better(o Error) bool {
	if e.Errors != o.Errors {
		return e.Errors < o.Errors
	}
	return e.Warnings < o.Warnings
}

// Sector is one decoded sector candidate.
type Sector struct {
	Number int    // 0-based index within the track
	Data   []byte // Payload
	Offset int    // Bit position of the sync mark in the track bit-stream
	Err    Error
}

// Size returns the payload size in bytes.
func (s Sector) Size() int {
	return len(s.Data)
}

// Submitter receives sector candidates from a decoder, once per
// candidate found.
type Submitter interface {
	Submit(s Sector)
}

// SubmitFunc adapts a function to Submitter.
type SubmitFunc func(s Sector)

// Submit calls f(s).
func (f SubmitFunc) Submit(s Sector) {
	f(s)
}

// Find returns the sector numbered n.
func Find(sectors []Sector, n int) (Sector, bool) {
	for _, s := range sectors {
		if s.Number == n {
			return s, true
		}
	}
	return Sector{}, false
}
