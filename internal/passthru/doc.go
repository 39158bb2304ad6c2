// Package passthru holds the two formats that carry no sector structure:
// Fill, which writes a constant track, and Raw, which moves the raw
// counter data through unchanged.
package passthru
