// Package floppy decodes and encodes floppy disk tracks from the raw flux
// timing counters captured by a floppy controller.
//
// A track passes through two stages. The raw codec maps every counter
// byte through the format's bounds table to a run length and builds the
// canonical bit-stream, one bit per cell with a one for each flux
// transition. The format then locates and decodes sectors in that
// bit-stream. Encoding runs the same stages backwards.
//
// # Basic Usage
//
//	f, err := floppy.New("mfm_nec765")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	codec, err := floppy.NewCodec(f, floppy.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	track := floppy.NewTrack(f.Sectors(0))
//	report, err := codec.DecodeTrack(counters, 0, track)
//
// Sector quality problems never fail a call. Each candidate carries a
// SectorError describing what was wrong with it, and Track keeps
// the best candidate per sector number.
//
// # Formats
//
// Apple II, Commodore and Victor 9000 GCR, IBM MFM and FM, Amiga MFM, the
// controller's native TBE blocks, and the Fill and Raw pass-through
// formats. Formats lists them with their levels.
//
// # Thread Safety
//
// Codec and Format values are NOT safe for concurrent use. Descriptors are
// immutable; create one Format per goroutine with Descriptor.New.
package floppy
