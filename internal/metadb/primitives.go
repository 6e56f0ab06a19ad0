package metadb

import (
	"encoding/binary"
	"math"
)

// alignUp rounds v up to the next multiple of a. a must be a power of two.
func alignUp(v, a uint64) uint64 {
	if a <= 1 {
		return v
	}
	return (v + a - 1) &^ (a - 1)
}

// putU16 writes v as little-endian into b, which must have len(b) >= 2.
func putU16(b []byte, v uint16) { binary.LittleEndian.PutUint16(b, v) }

// putU32 writes v as little-endian into b, which must have len(b) >= 4.
func putU32(b []byte, v uint32) { binary.LittleEndian.PutUint32(b, v) }

// putU64 writes v as little-endian into b, which must have len(b) >= 8.
func putU64(b []byte, v uint64) { binary.LittleEndian.PutUint64(b, v) }

// putF64 writes the IEEE-754 bits of v as little-endian into b.
func putF64(b []byte, v float64) { binary.LittleEndian.PutUint64(b, math.Float64bits(v)) }

func getU16(b []byte) uint16  { return binary.LittleEndian.Uint16(b) }
func getU32(b []byte) uint32  { return binary.LittleEndian.Uint32(b) }
func getU64(b []byte) uint64  { return binary.LittleEndian.Uint64(b) }
func getF64(b []byte) float64 { return math.Float64frombits(getU64(b)) }

// putString appends s followed by a NUL terminator to buf and returns the
// result. Strings have alignment 1.
func putString(buf []byte, s string) []byte {
	buf = append(buf, s...)
	return append(buf, 0)
}

const (
	sizeU16 = 2
	sizeU32 = 4
	sizeU64 = 8
	sizeF64 = 8
)
