// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: record.go — Record Codec (C2)
//
// Project: shardstore
// Component: fixed binary layout for one data-region record
//
// Description:
//   Encodes and decodes a single log record at a caller-given offset:
//
//     [0..8)   uint64  version    (0 reserved for "no record" / tombstone)
//     [8..12)  uint32  key_size
//     [12..12+key_size)           key bytes
//     [...)    uint32  value_count
//     then, value_count times:    uint32 value_size | value_size bytes
//
//   All integers are little-endian. Readers decode in place from the
//   supplied byte slice — no copy is made until the caller retains a
//   returned slice past the point where the underlying mapping might be
//   mutated by a concurrent writer.
// ─────────────────────────────────────────────────────────────────────────────

package record

import "encoding/binary"

const (
	versionFieldSize = 8
	lenFieldSize     = 4
)

// Size returns the number of bytes a record for key/values occupies:
// 8 (version) + 4 (key_size) + len(key) + 4 (value_count) + sum(4 + len(v)).
func Size(key []byte, values [][]byte) uint32 {
	size := versionFieldSize + lenFieldSize + len(key) + lenFieldSize
	for _, v := range values {
		size += lenFieldSize + len(v)
	}
	return uint32(size)
}

// Write encodes version/key/values into dst at offset and returns the
// number of bytes written (equal to Size(key, values)). The caller must
// ensure offset+Size(key,values) <= len(dst).
func Write(dst []byte, offset uint32, version uint64, key []byte, values [][]byte) uint32 {
	size := Size(key, values)
	buf := dst[offset : offset+size]

	binary.LittleEndian.PutUint64(buf[0:8], version)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(len(key)))
	pos := uint32(12)
	copy(buf[pos:], key)
	pos += uint32(len(key))

	binary.LittleEndian.PutUint32(buf[pos:pos+4], uint32(len(values)))
	pos += 4
	for _, v := range values {
		binary.LittleEndian.PutUint32(buf[pos:pos+4], uint32(len(v)))
		pos += 4
		copy(buf[pos:], v)
		pos += uint32(len(v))
	}
	return size
}

// ReadVersion decodes the version field at offset. Version 0 means the
// record is a tombstone (see IsTombstone) or the slot has never held data.
func ReadVersion(src []byte, offset uint32) uint64 {
	return binary.LittleEndian.Uint64(src[offset : offset+8])
}

// ReadKeySize decodes the key_size field at offset.
func ReadKeySize(src []byte, offset uint32) uint32 {
	return binary.LittleEndian.Uint32(src[offset+8 : offset+12])
}

// ReadKey returns the key bytes of the record at offset, given its already
// decoded key size. The returned slice aliases src.
func ReadKey(src []byte, offset, keySize uint32) []byte {
	start := offset + 12
	return src[start : start+keySize]
}

// ReadValues decodes and returns the value list of the record at offset,
// given its already decoded key size. Each returned slice aliases src.
func ReadValues(src []byte, offset, keySize uint32) [][]byte {
	pos := offset + 12 + keySize
	count := binary.LittleEndian.Uint32(src[pos : pos+4])
	pos += 4

	values := make([][]byte, count)
	for i := range values {
		vsize := binary.LittleEndian.Uint32(src[pos : pos+4])
		pos += 4
		values[i] = src[pos : pos+vsize]
		pos += vsize
	}
	return values
}

// End returns the offset immediately following the record at offset, given
// its already decoded key size. Useful for callers that need the record's
// total footprint without re-deriving it from Size.
func End(src []byte, offset, keySize uint32) uint32 {
	pos := offset + 12 + keySize
	count := binary.LittleEndian.Uint32(src[pos : pos+4])
	pos += 4
	for i := uint32(0); i < count; i++ {
		vsize := binary.LittleEndian.Uint32(src[pos : pos+4])
		pos += 4 + vsize
	}
	return pos
}

// IsTombstone reports whether version marks a deleted (or never-written)
// record.
func IsTombstone(version uint64) bool {
	return version == 0
}
