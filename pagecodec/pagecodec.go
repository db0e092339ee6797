// Package pagecodec provides the low-level byte helpers shared by the pager
// and B-tree packages: fixed-width big-endian integers and SQLite-style
// varint32 encoding. It has no page-offset helpers. None of it understands
// pages, nodes, or cells — it only knows how to read and write bytes.
package pagecodec

// PutUint16 writes v as a big-endian uint16 at buf[0:2].
func PutUint16(buf []byte, v uint16) {
	buf[0] = byte(v >> 8)
	buf[1] = byte(v)
}

// GetUint16 reads a big-endian uint16 from buf[0:2].
func GetUint16(buf []byte) uint16 {
	return uint16(buf[0])<<8 | uint16(buf[1])
}

// PutUint32 writes v as a big-endian uint32 at buf[0:4].
func PutUint32(buf []byte, v uint32) {
	buf[0] = byte(v >> 24)
	buf[1] = byte(v >> 16)
	buf[2] = byte(v >> 8)
	buf[3] = byte(v)
}

// GetUint32 reads a big-endian uint32 from buf[0:4].
func GetUint32(buf []byte) uint32 {
	return uint32(buf[0])<<24 | uint32(buf[1])<<16 | uint32(buf[2])<<8 | uint32(buf[3])
}

// MaxVarint32Len is the longest a varint32 encoding can be.
const MaxVarint32Len = 5

// PutVarint32 encodes v using SQLite's MSB-continuation big-endian varint
// encoding and returns the number of bytes written (1 to 5).
func PutVarint32(buf []byte, v uint32) int {
	var tmp [5]byte
	n := 0
	for {
		b := byte(v & 0x7f)
		v >>= 7
		tmp[n] = b
		n++
		if v == 0 {
			break
		}
	}
	// tmp holds groups least-significant-first; once reversed, the
	// continuation bit is set on every byte except the final (least
	// significant) one.
	for i := 0; i < n; i++ {
		b := tmp[n-1-i]
		if i != n-1 {
			b |= 0x80
		}
		buf[i] = b
	}
	return n
}

// GetVarint32 decodes a varint32 from buf and returns the value plus the
// number of bytes consumed.
func GetVarint32(buf []byte) (uint32, int) {
	var v uint32
	for i := 0; i < MaxVarint32Len && i < len(buf); i++ {
		b := buf[i]
		v = v<<7 | uint32(b&0x7f)
		if b&0x80 == 0 {
			return v, i + 1
		}
	}
	return v, MaxVarint32Len
}

// Varint32Len returns the number of bytes PutVarint32 would need for v.
func Varint32Len(v uint32) int {
	n := 1
	for v >>= 7; v != 0; v >>= 7 {
		n++
	}
	return n
}
