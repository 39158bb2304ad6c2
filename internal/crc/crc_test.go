package crc

import "testing"

func TestChecksum(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want uint16
	}{
		{"empty", nil, 0xffff},
		{"check value", []byte("123456789"), 0x29b1},
		{"mfm sync", []byte{0xa1, 0xa1, 0xa1}, 0xcdb4},
		{"mfm id mark", []byte{0xa1, 0xa1, 0xa1, 0xfe}, 0xb230},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Checksum(tt.data); got != tt.want {
				t.Errorf("Checksum(%x) = %#04x, want %#04x", tt.data, got, tt.want)
			}
		})
	}
}

func TestUpdate_Incremental(t *testing.T) {
	data := []byte{0xa1, 0xa1, 0xa1, 0xfb, 0x00, 0x01, 0x02}
	whole := Checksum(data)
	part := Update(Update(Init, data[:3]...), data[3:]...)
	if part != whole {
		t.Errorf("incremental CRC = %#04x, want %#04x", part, whole)
	}
}

func TestChecksum_SelfCheck(t *testing.T) {
	data := []byte{0xa1, 0xa1, 0xa1, 0xfe, 0x01, 0x00, 0x03, 0x02}
	c := Checksum(data)
	if got := Update(c, byte(c>>8), byte(c)); got != 0 {
		t.Errorf("CRC over data and its checksum = %#04x, want 0", got)
	}
}
