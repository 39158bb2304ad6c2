// Package tables contains lookup tables for the group-coded and
// speed-zoned disk formats.
//
// This includes the Apple 6-and-2 nibble table, the 4-to-5 group code
// shared by Commodore and Victor drives, the per-track speed zones of
// those drives, and the default timing bounds of every format family.
package tables
