// Package mfm implements the clock-interleaved track formats: IBM
// NEC765 in MFM and FM, Amiga, and the controller's own TBE layout.
//
// Every data bit is stored as a clock cell followed by a data cell. In FM
// the clock cell is always a transition; in MFM it is one only between
// two zero data bits. Sync marks deliberately break the clock rule so
// they cannot appear in regular data.
package mfm
