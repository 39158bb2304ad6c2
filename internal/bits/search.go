package bits

// Search scans the read side bit by bit for any of the given patterns,
// comparing a rolling window of width bits (1-64) against each of them.
//
// On a match the read cursor is moved back to the first bit of the match,
// so the caller can decode from the sync boundary. Search returns the bit
// position of the match and the index of the pattern that matched.
//
// A negative limit scans to the end of the data and fails with ErrEnd.
// Otherwise at most limit window positions are tried before ErrNotFound;
// the cursor is left where the scan stopped.
func (f *Fifo) Search(width, limit int, patterns ...uint64) (int, int, error) {
	if width < 1 || width > 64 || len(patterns) == 0 {
		return -1, -1, ErrWidth
	}
	mask := ^uint64(0)
	if width < 64 {
		mask = uint64(1)<<uint(width) - 1
	}

	var window uint64
	read := 0
	for limit < 0 || read < width-1+limit {
		b, err := f.ReadBits(1)
		if err != nil {
			return -1, -1, err
		}
		window = (window<<1 | uint64(b)) & mask
		read++
		if read < width {
			continue
		}
		for i, p := range patterns {
			if window == p {
				pos := f.RdBitPos() - width
				f.SetRdBitPos(pos) //nolint:errcheck // pos lies inside read data
				return pos, i, nil
			}
		}
	}
	return -1, -1, ErrNotFound
}

// SkipBits advances the read cursor by n bits.
func (f *Fifo) SkipBits(n int) error {
	return f.SetRdBitPos(f.RdBitPos() + n)
}
