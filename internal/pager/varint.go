package pager

import "encoding/binary"

// ───────────────────────────────────────────────────────────────────────────
// Varint and fixed-width integer codec
// ───────────────────────────────────────────────────────────────────────────
//
// The format's variable-length integer is 1 to 9 bytes. For the first eight
// bytes, the high bit set means "more bytes follow" and the low 7 bits
// contribute to the value, most-significant byte first. If all eight of
// those bytes have the high bit set, a ninth byte contributes its full 8
// bits. All other on-disk integers (page numbers, cell counts, offsets) are
// fixed-width big-endian.

// DecodeVarint decodes the varint at the start of buf, returning its value
// and its length in bytes (1..9). buf must have at least 9 bytes available,
// or enough bytes to cover a shorter encoding.
func DecodeVarint(buf []byte) (value int64, n int) {
	var v int64
	for i := 0; i < 8; i++ {
		b := buf[i]
		v = (v << 7) | int64(b&0x7f)
		if b&0x80 == 0 {
			return v, i + 1
		}
	}
	v = (v << 8) | int64(buf[8])
	return v, 9
}

// VarintSize returns the length in bytes (1..9) of the varint encoded at
// the start of buf, without materializing its value.
func VarintSize(buf []byte) int {
	for i := 0; i < 8; i++ {
		if buf[i]&0x80 == 0 {
			return i + 1
		}
	}
	return 9
}

// ReadU16 reads a fixed-width 16-bit big-endian integer.
func ReadU16(buf []byte) uint16 { return binary.BigEndian.Uint16(buf) }

// ReadU32 reads a fixed-width 32-bit big-endian integer.
func ReadU32(buf []byte) uint32 { return binary.BigEndian.Uint32(buf) }

// WriteU32 writes v as a fixed-width 32-bit big-endian integer into buf.
func WriteU32(buf []byte, v uint32) { binary.BigEndian.PutUint32(buf, v) }

// WriteU16 writes v as a fixed-width 16-bit big-endian integer into buf.
func WriteU16(buf []byte, v uint16) { binary.BigEndian.PutUint16(buf, v) }
