package bits

// Flags describe the state of a Fifo's contents.
type Flags uint8

const (
	// FlagWritable allows writes. Fifos created with NewFifoBytes are read-only.
	FlagWritable Flags = 1 << iota
	// FlagIndexStored marks that the track data carries an index position.
	FlagIndexStored
	// FlagIndexAligned marks that the data starts at the index hole.
	FlagIndexAligned
)

// MaxSpeed is the highest clock-zone index a Fifo can be tagged with.
const MaxSpeed = 3

// Fifo is a fixed-capacity byte buffer with independent bit-granular
// write and read cursors.
//
// Bits are written and read most significant bit first. Written bits are
// collected in a shift register and become readable once a whole byte is
// stored; Flush pads a partial byte with zero bits.
//
// The track bit-stream stored in a Fifo uses one bit per cell: a one is a
// flux transition, a zero an empty cell. WriteCount and ReadCount convert
// between that stream and run lengths.
type Fifo struct {
	data     []byte // Backing buffer, len(data) is the capacity
	limit    int    // Usable capacity in bytes (<= len(data))
	wrOfs    int    // Next byte to store
	wrBitOfs int    // Bits pending in reg (0-7)
	rdOfs    int    // Byte holding the next bit to read
	rdBitOfs int    // Bit offset inside data[rdOfs] (0-7)
	reg      uint32 // Shift register for partial write bytes
	flags    Flags
	speed    int
}

// NewFifo creates an empty, writable Fifo holding at most size bytes.
func NewFifo(size int) *Fifo {
	if size < 0 {
		size = 0
	}
	return &Fifo{
		data:  make([]byte, size),
		limit: size,
		flags: FlagWritable,
	}
}

// NewFifoBytes creates a read-only Fifo whose written contents are b.
// The Fifo keeps a reference to b.
func NewFifoBytes(b []byte) *Fifo {
	return &Fifo{
		data:  b,
		limit: len(b),
		wrOfs: len(b),
	}
}

// Reset rewinds both cursors and clears the shift register, flags and
// speed. The limit and the writable flag are kept.
func (f *Fifo) Reset() {
	f.wrOfs, f.wrBitOfs = 0, 0
	f.rdOfs, f.rdBitOfs = 0, 0
	f.reg = 0
	f.flags &= FlagWritable
	f.speed = 0
}

// Size returns the capacity in bytes.
func (f *Fifo) Size() int {
	return len(f.data)
}

// Limit returns the usable capacity in bytes.
func (f *Fifo) Limit() int {
	return f.limit
}

// SetLimit restricts the usable capacity. The new limit must not be below
// the bytes already written nor above Size.
func (f *Fifo) SetLimit(n int) error {
	if n < f.wrOfs || n > len(f.data) {
		return ErrPosition
	}
	f.limit = n
	return nil
}

// Bytes returns the written, flushed bytes. The slice aliases the buffer.
func (f *Fifo) Bytes() []byte {
	return f.data[:f.wrOfs]
}

// Flags returns the flag set.
func (f *Fifo) Flags() Flags {
	return f.flags
}

// SetFlags replaces the flag set.
func (f *Fifo) SetFlags(fl Flags) {
	f.flags = fl
}

// Speed returns the clock-zone tag.
func (f *Fifo) Speed() int {
	return f.speed
}

// SetSpeed sets the clock-zone tag (0-3).
func (f *Fifo) SetSpeed(speed int) error {
	if speed < 0 || speed > MaxSpeed {
		return ErrSpeed
	}
	f.speed = speed
	return nil
}

// WriteBits appends the n low bits of v, most significant first.
// n must be 1-32. Nothing is written when the bits do not fit.
func (f *Fifo) WriteBits(v uint32, n int) error {
	if n < 1 || n > 32 {
		return ErrWidth
	}
	if f.flags&FlagWritable == 0 {
		return ErrReadOnly
	}
	if f.wrOfs+(f.wrBitOfs+n)/8 > f.limit {
		return ErrFull
	}
	for i := n - 1; i >= 0; i-- {
		f.reg = f.reg<<1 | (v>>uint(i))&1
		f.wrBitOfs++
		if f.wrBitOfs == 8 {
			f.data[f.wrOfs] = byte(f.reg)
			f.wrOfs++
			f.wrBitOfs = 0
			f.reg = 0
		}
	}
	return nil
}

// WriteByte appends 8 bits.
func (f *Fifo) WriteByte(c byte) error {
	return f.WriteBits(uint32(c), 8)
}

// WriteBlock appends all bytes of p, or none of them.
func (f *Fifo) WriteBlock(p []byte) error {
	if f.flags&FlagWritable == 0 {
		return ErrReadOnly
	}
	if f.wrOfs+(f.wrBitOfs+8*len(p))/8 > f.limit {
		return ErrFull
	}
	if f.wrBitOfs == 0 {
		f.wrOfs += copy(f.data[f.wrOfs:], p)
		return nil
	}
	for _, b := range p {
		if err := f.WriteBits(uint32(b), 8); err != nil {
			return err
		}
	}
	return nil
}

// WriteCount appends a run length: n zero bits followed by a one bit.
func (f *Fifo) WriteCount(n int) error {
	if n < 0 {
		return ErrWidth
	}
	if f.flags&FlagWritable == 0 {
		return ErrReadOnly
	}
	if f.wrOfs+(f.wrBitOfs+n+1)/8 > f.limit {
		return ErrFull
	}
	for ; n >= 32; n -= 32 {
		f.WriteBits(0, 32) //nolint:errcheck // capacity checked above
	}
	if n > 0 {
		f.WriteBits(0, n) //nolint:errcheck // capacity checked above
	}
	return f.WriteBits(1, 1)
}

// Flush pads pending bits with zeros up to the next byte boundary.
func (f *Fifo) Flush() error {
	if f.wrBitOfs == 0 {
		return nil
	}
	return f.WriteBits(0, 8-f.wrBitOfs)
}

// BitsLeft returns the number of readable bits.
func (f *Fifo) BitsLeft() int {
	return f.wrOfs*8 - f.RdBitPos()
}

// ReadBits reads n bits (1-32), most significant first. Nothing is
// consumed when fewer than n bits are readable.
func (f *Fifo) ReadBits(n int) (uint32, error) {
	if n < 1 || n > 32 {
		return 0, ErrWidth
	}
	if f.BitsLeft() < n {
		return 0, ErrEnd
	}
	var v uint32
	for i := 0; i < n; i++ {
		v = v<<1 | uint32(f.data[f.rdOfs]>>(7-uint(f.rdBitOfs)))&1
		f.rdBitOfs++
		if f.rdBitOfs == 8 {
			f.rdOfs++
			f.rdBitOfs = 0
		}
	}
	return v, nil
}

// ReadByte reads 8 bits.
func (f *Fifo) ReadByte() (byte, error) {
	v, err := f.ReadBits(8)
	return byte(v), err
}

// ReadBlock fills p completely, or consumes nothing.
func (f *Fifo) ReadBlock(p []byte) error {
	if f.BitsLeft() < 8*len(p) {
		return ErrEnd
	}
	if f.rdBitOfs == 0 {
		f.rdOfs += copy(p, f.data[f.rdOfs:f.wrOfs])
		return nil
	}
	for i := range p {
		v, _ := f.ReadBits(8)
		p[i] = byte(v)
	}
	return nil
}

// ReadCount reads a run length: the number of zero bits before the next
// one bit, which is consumed too. It returns ErrEnd when no one bit
// follows; the trailing zeros are consumed in that case.
func (f *Fifo) ReadCount() (int, error) {
	n := 0
	for {
		if f.rdOfs >= f.wrOfs {
			return n, ErrEnd
		}
		b := f.data[f.rdOfs] << uint(f.rdBitOfs)
		if f.rdBitOfs == 0 && b == 0 {
			n += 8
			f.rdOfs++
			continue
		}
		f.rdBitOfs++
		if f.rdBitOfs == 8 {
			f.rdOfs++
			f.rdBitOfs = 0
		}
		if b&0x80 != 0 {
			return n, nil
		}
		n++
	}
}

// RdPos returns the byte offset of the read cursor.
func (f *Fifo) RdPos() int {
	return f.rdOfs
}

// SetRdPos moves the read cursor to a byte offset.
func (f *Fifo) SetRdPos(ofs int) error {
	return f.SetRdBitPos(ofs * 8)
}

// RdBitPos returns the read cursor as an absolute bit position.
func (f *Fifo) RdBitPos() int {
	return f.rdOfs*8 + f.rdBitOfs
}

// SetRdBitPos moves the read cursor to an absolute bit position inside
// the written data.
func (f *Fifo) SetRdBitPos(pos int) error {
	if pos < 0 || pos > f.wrOfs*8 {
		return ErrPosition
	}
	f.rdOfs, f.rdBitOfs = pos/8, pos%8
	return nil
}

// WrPos returns the number of stored bytes.
func (f *Fifo) WrPos() int {
	return f.wrOfs
}

// WrBitPos returns the number of written bits, pending ones included.
func (f *Fifo) WrBitPos() int {
	return f.wrOfs*8 + f.wrBitOfs
}

// SetWrPos truncates or extends the written data to ofs bytes and drops
// pending bits. The read cursor is pulled back if it lies beyond ofs.
func (f *Fifo) SetWrPos(ofs int) error {
	if ofs < 0 || ofs > f.limit {
		return ErrPosition
	}
	f.wrOfs, f.wrBitOfs, f.reg = ofs, 0, 0
	if f.RdBitPos() > ofs*8 {
		f.rdOfs, f.rdBitOfs = ofs, 0
	}
	return nil
}

// CopyBlock moves n bytes from src's read cursor to dst's write cursor.
func CopyBlock(dst, src *Fifo, n int) error {
	if src.BitsLeft() < 8*n {
		return ErrEnd
	}
	buf := make([]byte, n)
	if err := src.ReadBlock(buf); err != nil {
		return err
	}
	return dst.WriteBlock(buf)
}

// CopyBits moves n bits from src's read cursor to dst's write cursor.
func CopyBits(dst, src *Fifo, n int) error {
	if src.BitsLeft() < n {
		return ErrEnd
	}
	if dst.flags&FlagWritable == 0 {
		return ErrReadOnly
	}
	if dst.wrOfs+(dst.wrBitOfs+n)/8 > dst.limit {
		return ErrFull
	}
	for n > 0 {
		k := min(n, 32)
		v, _ := src.ReadBits(k)
		dst.WriteBits(v, k) //nolint:errcheck // capacity checked above
		n -= k
	}
	return nil
}
