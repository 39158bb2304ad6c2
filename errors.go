package floppy

// Error is a codec error code. Errors returned by the codec wrap one of
// these with fmt.Errorf, so test them with errors.Is.
type Error int

// Error codes.
const (
	ErrNone          Error = 0
	ErrNilFormat     Error = 1
	ErrUnknownFormat Error = 2
	ErrTrackRange    Error = 3
	ErrTiming        Error = 4
	ErrDecode        Error = 5
	ErrEncode        Error = 6
	ErrRawCodec      Error = 7
)

var errMessages = [...]string{
	"no error",
	"format is nil",
	"unknown format",
	"track out of range",
	"invalid timing configuration",
	"track decode failed",
	"track encode failed",
	"raw codec failed",
}

// Error implements the error interface.
func (e Error) Error() string {
	if e >= 0 && int(e) < len(errMessages) {
		return "floppy: " + errMessages[e]
	}
	return "floppy: unknown error"
}
