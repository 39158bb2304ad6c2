package sector

// Track keeps the best candidate seen for each sector of one track.
// It implements Submitter.
type Track struct {
	sectors    []Sector
	present    []bool
	candidates int
}

// NewTrack creates a Track expecting n sectors.
func NewTrack(n int) *Track {
	return &Track{
		sectors: make([]Sector, n),
		present: make([]bool, n),
	}
}

// Submit stores s if it is the first or a better candidate for its
// number. Out-of-range numbers are ignored. The payload is copied.
func (t *Track) Submit(s Sector) {
	t.candidates++
	if s.Number < 0 || s.Number >= len(t.sectors) {
		return
	}
	if t.present[s.Number] && !s.Err.Better(t.sectors[s.Number].Err) {
		return
	}
	s.Data = append([]byte(nil), s.Data...)
	t.sectors[s.Number] = s
	t.present[s.Number] = true
}

// Len returns the number of expected sectors.
func (t *Track) Len() int {
	return len(t.sectors)
}

// Candidates returns how many candidates were submitted.
func (t *Track) Candidates() int {
	return t.candidates
}

// Sector returns the best candidate for sector n.
func (t *Track) Sector(n int) (Sector, bool) {
	if n < 0 || n >= len(t.sectors) || !t.present[n] {
		return Sector{}, false
	}
	return t.sectors[n], true
}

// Sectors returns the best candidates in sector order, skipping missing
// sectors.
func (t *Track) Sectors() []Sector {
	var out []Sector
	for i, s := range t.sectors {
		if t.present[i] {
			out = append(out, s)
		}
	}
	return out
}

// Good returns the number of sectors whose best candidate has no errors.
func (t *Track) Good() int {
	n := 0
	for i, s := range t.sectors {
		if t.present[i] && s.Err.Good() {
			n++
		}
	}
	return n
}

// Complete reports whether every sector has an error-free candidate.
func (t *Track) Complete() bool {
	return t.Good() == len(t.sectors)
}
