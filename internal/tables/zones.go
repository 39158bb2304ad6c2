package tables

// CBMZones is the number of Commodore speed zones.
const CBMZones = 4

// CBMTrack returns the 1-based track number a Commodore header carries
// for a physical track index (cylinder*2 + head).
func CBMTrack(track int) int {
	return track>>1 + 1
}

// CBMZone returns the speed zone of a 1-based Commodore track. Zone 3 is
// the fastest clock and holds the most sectors.
func CBMZone(t int) int {
	switch {
	case t <= 17:
		return 3
	case t <= 24:
		return 2
	case t <= 30:
		return 1
	default:
		return 0
	}
}

// cbmSectors holds the sectors per track of each zone.
var cbmSectors = [CBMZones]int{17, 18, 19, 21}

// CBMSectors returns the number of sectors on a 1-based Commodore track.
func CBMSectors(t int) int {
	return cbmSectors[CBMZone(t)]
}

// CBMTrackSize holds the nominal track length in bytes of each zone.
var CBMTrackSize = [CBMZones]int{6250, 6666, 7142, 7692}

// CBMSectorGap holds the default gap after each data block, in bytes,
// of each zone.
var CBMSectorGap = [CBMZones]int{10, 14, 10, 9}

// victorSectors holds the first cylinder of each Victor 9000 zone and
// its sector count, outermost zone first.
var victorSectors = [...]struct {
	first   int
	sectors int
}{
	{0, 19},
	{4, 18},
	{16, 17},
	{27, 16},
	{38, 15},
	{48, 14},
	{60, 13},
	{71, 12},
}

// VictorSectors returns the number of sectors on a Victor 9000 cylinder.
func VictorSectors(cylinder int) int {
	n := victorSectors[0].sectors
	for _, z := range victorSectors {
		if cylinder < z.first {
			break
		}
		n = z.sectors
	}
	return n
}
