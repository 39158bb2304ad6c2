package gcr

import (
	"errors"

	"github.com/llehouerou/go-floppy/internal/bits"
	"github.com/llehouerou/go-floppy/internal/tables"
)

// syncOnes fills a sync run 32 bits at a time.
const syncOnes = 0xffffffff

// findSync scans src for a run of at least minRun one bits followed by a
// zero bit. The read cursor is left on that zero bit, which is the first
// bit of the block. findSync returns the bit position where the run
// started.
//
// A negative limit scans to the end of the data. Otherwise at most limit
// bits are read before bits.ErrNotFound.
func findSync(src *bits.Fifo, minRun, limit int) (int, error) {
	run, start := 0, src.RdBitPos()
	for n := 0; limit < 0 || n < limit; n++ {
		b, err := src.ReadBits(1)
		if err != nil {
			return -1, err
		}
		if b == 1 {
			if run == 0 {
				start = src.RdBitPos() - 1
			}
			run++
			continue
		}
		if run >= minRun {
			src.SetRdBitPos(src.RdBitPos() - 1) //nolint:errcheck // bit was just read
			return start, nil
		}
		run = 0
	}
	return -1, bits.ErrNotFound
}

// writeSync writes n one bits.
func writeSync(dst *bits.Fifo, n int) error {
	for ; n > 0; n -= 32 {
		if err := dst.WriteBits(syncOnes, min(n, 32)); err != nil {
			return err
		}
	}
	return nil
}

// reader decodes 4-to-5 group-coded bytes and counts invalid codes.
type reader struct {
	src *bits.Fifo
	bad int
}

func (r *reader) byte() (byte, error) {
	code, err := r.src.ReadBits(10)
	if err != nil {
		return 0, err
	}
	b, bad := tables.DecodeGCR5(code)
	r.bad += bad
	return b, nil
}

func (r *reader) block(p []byte) error {
	for i := range p {
		b, err := r.byte()
		if err != nil {
			return err
		}
		p[i] = b
	}
	return nil
}

// writeGCR5 writes p as 4-to-5 group code.
func writeGCR5(dst *bits.Fifo, p ...byte) error {
	for _, b := range p {
		if err := dst.WriteBits(tables.EncodeGCR5(b), 10); err != nil {
			return err
		}
	}
	return nil
}

// findBlock looks for the block identified by want within limit bits. It
// gives up when the next block is a header instead, rewinding to that
// block's sync so it is decoded next. When no block is found the cursor
// is restored. The returned reader is positioned after the identifier.
func findBlock(src *bits.Fifo, minRun, limit int, want, header byte) (*reader, int, bool) {
	start := src.RdBitPos()
	for {
		used := src.RdBitPos() - start
		if used >= limit {
			break
		}
		pos, err := findSync(src, minRun, limit-used)
		if err != nil {
			break
		}
		r := &reader{src: src}
		id, err := r.byte()
		if err != nil {
			break
		}
		switch id {
		case want:
			return r, pos, true
		case header:
			src.SetRdBitPos(pos) //nolint:errcheck // pos lies inside read data
			return nil, -1, false
		}
	}
	src.SetRdBitPos(start) //nolint:errcheck // start lies inside read data
	return nil, -1, false
}

// isEnd reports whether err means the track data is exhausted.
func isEnd(err error) bool {
	return errors.Is(err, bits.ErrEnd)
}
