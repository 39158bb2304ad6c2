// Package gcr implements the group-coded track formats: Apple 6-and-2,
// Commodore 1541 and Victor 9000.
//
// Apple tracks are nibble streams: every byte on disk has its top bit set
// and fields are located by three-nibble prologs. Commodore and Victor
// tracks share the 4-to-5 group code and a sync made of a long run of one
// bits; they differ in their block layouts and speed zones.
package gcr
