// Package crc implements the CRC-16/CCITT checksum used by IBM-style
// and TBE track layouts (polynomial 0x1021, no reflection).
package crc

// Init is the register value before the first byte.
const Init uint16 = 0xffff

var table = makeTable(0x1021)

func makeTable(poly uint16) [256]uint16 {
	var t [256]uint16
	for i := range t {
		c := uint16(i) << 8
		for j := 0; j < 8; j++ {
			if c&0x8000 != 0 {
				c = c<<1 ^ poly
			} else {
				c <<= 1
			}
		}
		t[i] = c
	}
	return t
}

// Update adds p to the running checksum.
func Update(crc uint16, p ...byte) uint16 {
	for _, b := range p {
		crc = crc<<8 ^ table[byte(crc>>8)^b]
	}
	return crc
}

// Checksum returns the CRC of p starting from Init.
func Checksum(p []byte) uint16 {
	return Update(Init, p...)
}
