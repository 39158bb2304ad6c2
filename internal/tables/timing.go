package tables

import "github.com/llehouerou/go-floppy/internal/bounds"

// Default bounds per format family. Callers must Clone a table before
// modifying it.
var (
	// MFMBounds covers double-density MFM: runs of 1-3 empty cells
	// (2, 3 and 4 microsecond intervals).
	MFMBounds = bounds.Table{
		{ReadLow: 0x1c00, ReadHigh: 0x46ff, Write: 0x3800, Count: 1},
		{ReadLow: 0x4700, ReadHigh: 0x62ff, Write: 0x5500, Count: 2},
		{ReadLow: 0x6300, ReadHigh: 0x7fff, Write: 0x7100, Count: 3},
	}

	// FMBounds covers single-density FM.
	FMBounds = bounds.Table{
		{ReadLow: 0x1000, ReadHigh: 0x2fff, Write: 0x2000, Count: 0},
		{ReadLow: 0x3000, ReadHigh: 0x4fff, Write: 0x4000, Count: 1},
		{ReadLow: 0x5000, ReadHigh: 0x7fff, Write: 0x6000, Count: 2},
	}

	// AppleBounds covers Apple 4 microsecond GCR cells.
	AppleBounds = bounds.Table{
		{ReadLow: 0x0e00, ReadHigh: 0x29ff, Write: 0x1c00, Count: 0},
		{ReadLow: 0x2a00, ReadHigh: 0x45ff, Write: 0x3800, Count: 1},
		{ReadLow: 0x4600, ReadHigh: 0x6fff, Write: 0x5400, Count: 2},
	}

	// VictorBounds covers Victor 9000 GCR cells.
	VictorBounds = bounds.Table{
		{ReadLow: 0x0d00, ReadHigh: 0x26ff, Write: 0x1a00, Count: 0},
		{ReadLow: 0x2700, ReadHigh: 0x41ff, Write: 0x3400, Count: 1},
		{ReadLow: 0x4200, ReadHigh: 0x6fff, Write: 0x4e00, Count: 2},
	}
)

// CBMBounds holds the bounds of each Commodore speed zone; zone 3 has
// the shortest cells.
var CBMBounds = [CBMZones]bounds.Table{
	{
		{ReadLow: 0x0e00, ReadHigh: 0x29ff, Write: 0x1c00, Count: 0},
		{ReadLow: 0x2a00, ReadHigh: 0x45ff, Write: 0x3800, Count: 1},
		{ReadLow: 0x4600, ReadHigh: 0x6fff, Write: 0x5400, Count: 2},
	},
	{
		{ReadLow: 0x0d00, ReadHigh: 0x26ff, Write: 0x1a40, Count: 0},
		{ReadLow: 0x2700, ReadHigh: 0x41ff, Write: 0x3480, Count: 1},
		{ReadLow: 0x4200, ReadHigh: 0x6fff, Write: 0x4ec0, Count: 2},
	},
	{
		{ReadLow: 0x0c00, ReadHigh: 0x24ff, Write: 0x1880, Count: 0},
		{ReadLow: 0x2500, ReadHigh: 0x3cff, Write: 0x3100, Count: 1},
		{ReadLow: 0x3d00, ReadHigh: 0x6fff, Write: 0x4980, Count: 2},
	},
	{
		{ReadLow: 0x0c00, ReadHigh: 0x22ff, Write: 0x1700, Count: 0},
		{ReadLow: 0x2300, ReadHigh: 0x39ff, Write: 0x2e00, Count: 1},
		{ReadLow: 0x3a00, ReadHigh: 0x5fff, Write: 0x4500, Count: 2},
	},
}
