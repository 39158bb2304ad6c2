package tables

// Nibble62 maps a 6-bit value to the disk nibble that encodes it in the
// Apple 6-and-2 scheme. Every nibble has its top bit set and holds at
// most one pair of adjacent zero bits.
var Nibble62 = [64]byte{
	0x96, 0x97, 0x9a, 0x9b, 0x9d, 0x9e, 0x9f, 0xa6,
	0xa7, 0xab, 0xac, 0xad, 0xae, 0xaf, 0xb2, 0xb3,
	0xb4, 0xb5, 0xb6, 0xb7, 0xb9, 0xba, 0xbb, 0xbc,
	0xbd, 0xbe, 0xbf, 0xcb, 0xcd, 0xce, 0xcf, 0xd3,
	0xd6, 0xd7, 0xd9, 0xda, 0xdb, 0xdc, 0xdd, 0xde,
	0xdf, 0xe5, 0xe6, 0xe7, 0xe9, 0xea, 0xeb, 0xec,
	0xed, 0xee, 0xef, 0xf2, 0xf3, 0xf4, 0xf5, 0xf6,
	0xf7, 0xf9, 0xfa, 0xfb, 0xfc, 0xfd, 0xfe, 0xff,
}

// value62 is the inverse of Nibble62; -1 marks nibbles outside the table.
var value62 = func() (t [256]int8) {
	for i := range t {
		t[i] = -1
	}
	for v, n := range Nibble62 {
		t[n] = int8(v)
	}
	return t
}()

// Value62 returns the 6-bit value a nibble encodes.
// Returns false for nibbles outside the 6-and-2 table.
func Value62(nibble byte) (byte, bool) {
	v := value62[nibble]
	if v < 0 {
		return 0, false
	}
	return byte(v), true
}

// Code5 maps a 4-bit value to its 5-bit group code. No code has more
// than two adjacent zero bits, and no pair of codes produces a run of
// ten one bits, which is reserved for sync.
var Code5 = [16]byte{
	0x0a, 0x0b, 0x12, 0x13, 0x0e, 0x0f, 0x16, 0x17,
	0x09, 0x19, 0x1a, 0x1b, 0x0d, 0x1d, 0x1e, 0x15,
}

// value5 is the inverse of Code5; -1 marks unused codes.
var value5 = func() (t [32]int8) {
	for i := range t {
		t[i] = -1
	}
	for v, c := range Code5 {
		t[c] = int8(v)
	}
	return t
}()

// Value5 returns the 4-bit value of a 5-bit group code.
// Returns false for codes outside the table.
func Value5(code uint32) (byte, bool) {
	if code >= 32 {
		return 0, false
	}
	v := value5[code]
	if v < 0 {
		return 0, false
	}
	return byte(v), true
}

// EncodeGCR5 returns the 10-bit group code of b, high nibble first.
func EncodeGCR5(b byte) uint32 {
	return uint32(Code5[b>>4])<<5 | uint32(Code5[b&0x0f])
}

// DecodeGCR5 returns the byte encoded by a 10-bit group code. Invalid
// halves decode as zero and are reported by the second result, which
// counts them (0-2).
func DecodeGCR5(code uint32) (byte, int) {
	bad := 0
	hi, ok := Value5(code >> 5 & 0x1f)
	if !ok {
		bad++
	}
	lo, ok := Value5(code & 0x1f)
	if !ok {
		bad++
	}
	return hi<<4 | lo, bad
}
