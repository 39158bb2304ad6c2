package floppy

import (
	"fmt"

	"github.com/llehouerou/go-floppy/internal/gcr"
	"github.com/llehouerou/go-floppy/internal/mfm"
	"github.com/llehouerou/go-floppy/internal/passthru"
)

// Descriptor names a format and creates instances of it with the default
// configuration.
type Descriptor struct {
	Name  string
	Level int
	New   func() Format
}

// descriptors is ordered by level, then name.
var descriptors = [...]Descriptor{
	{"raw", 0, func() Format { return passthru.NewRaw() }},
	{"fill", 1, func() Format { return passthru.NewFill() }},
	{"tbe", 2, func() Format { return mfm.NewTBE() }},
	{"gcr_apple", 3, func() Format { return gcr.NewApple() }},
	{"gcr_cbm", 3, func() Format { return gcr.NewCBM() }},
	{"gcr_v9000", 3, func() Format { return gcr.NewV9000() }},
	{"mfm_amiga", 4, func() Format { return mfm.NewAmiga() }},
	{"mfm_nec765", 4, func() Format { return mfm.NewNEC765() }},
}

// Formats returns every registered format.
func Formats() []Descriptor {
	return append([]Descriptor(nil), descriptors[:]...)
}

// Lookup returns the descriptor registered under name.
func Lookup(name string) (Descriptor, error) {
	for _, d := range descriptors {
		if d.Name == name {
			return d, nil
		}
	}
	return Descriptor{}, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// New creates the named format with its default configuration.
func New(name string) (Format, error) {
	d, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	return d.New(), nil
}
