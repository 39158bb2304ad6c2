package histogram

import (
	"fmt"
	"io"
	"strings"

	"github.com/llehouerou/go-floppy/internal/bounds"
)

// Verbosity levels understood by Printer.
const (
	VerbosityQuiet   = 0 // Print nothing
	VerbositySummary = 1 // One line per track
	VerbosityFull    = 2 // One bar per non-empty counter value
)

const barWidth = 60

// Printer writes histograms as text.
type Printer struct {
	W         io.Writer
	Verbosity int
}

// Track prints h according to the verbosity.
func (p *Printer) Track(h *Histogram, bnd bounds.Table) {
	if p.W == nil || p.Verbosity <= VerbosityQuiet {
		return
	}
	peak, _ := h.Peak()
	fmt.Fprintf(p.W, "track %3d: %d counters, peak 0x%02x, %d outside bounds\n",
		h.Track, h.Total, peak, h.Outside(bnd))
	if p.Verbosity < VerbosityFull {
		return
	}

	top := h.Max()
	for c, n := range h.Counts {
		if n == 0 {
			continue
		}
		mark := ' '
		if i, ok := bnd.Index(c); ok {
			mark = rune('0' + i)
		}
		width := n * barWidth / top
		if width == 0 {
			width = 1
		}
		fmt.Fprintf(p.W, "  0x%02x %c %7d %s\n", c, mark, n, strings.Repeat("#", width))
	}
}
