package bits

import "errors"

// Cursor errors.
var (
	// ErrEnd indicates a read past the written data.
	ErrEnd = errors.New("bits: read beyond written data")

	// ErrFull indicates a write past the fifo limit.
	ErrFull = errors.New("bits: write beyond fifo limit")

	// ErrPosition indicates a cursor or limit outside the valid range.
	ErrPosition = errors.New("bits: position out of range")

	// ErrReadOnly indicates a write to a fifo without FlagWritable.
	ErrReadOnly = errors.New("bits: fifo is not writable")
)

// Argument errors.
var (
	// ErrWidth indicates a bit count outside 1-32 or a negative run length.
	ErrWidth = errors.New("bits: invalid bit count")

	// ErrSpeed indicates a clock-zone tag outside 0-3.
	ErrSpeed = errors.New("bits: speed out of range")
)

// ErrNotFound indicates Search gave up after its window limit.
var ErrNotFound = errors.New("bits: pattern not found within limit")
