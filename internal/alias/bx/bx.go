// stand for bytes helper
package bx

import (
	"encoding/binary"
	"math"
)

// LE is the byte order of every multi-byte integer on the recordset wire.
var LE = binary.LittleEndian

// --- LE: read ---
func U16(b []byte) uint16 { return LE.Uint16(b) }
func U32(b []byte) uint32 { return LE.Uint32(b) }
func U64(b []byte) uint64 { return LE.Uint64(b) }
func I16(b []byte) int16 { return int16(U16(b)) }
func I32(b []byte) int32 { return int32(U32(b)) }
func I64(b []byte) int64 { return int64(U64(b)) }

func F32(b []byte) float32 { return math.Float32frombits(U32(b)) }
func F64(b []byte) float64 { return math.Float64frombits(U64(b)) }

// --- LE: write ---
func PutU16(b []byte, v uint16) { LE.PutUint16(b, v) }
func PutU32(b []byte, v uint32) { LE.PutUint32(b, v) }
func PutU64(b []byte, v uint64) { LE.PutUint64(b, v) }
func PutI32(b []byte, v int32) { PutU32(b, uint32(v)) }

// --- LE: append (used by the stream encoder) ---
func AppendU16(dst []byte, v uint16) []byte { return LE.AppendUint16(dst, v) }
func AppendU32(dst []byte, v uint32) []byte { return LE.AppendUint32(dst, v) }
func AppendU64(dst []byte, v uint64) []byte { return LE.AppendUint64(dst, v) }
func AppendI16(dst []byte, v int16) []byte { return AppendU16(dst, uint16(v)) }
func AppendI32(dst []byte, v int32) []byte { return AppendU32(dst, uint32(v)) }
func AppendI64(dst []byte, v int64) []byte { return AppendU64(dst, uint64(v)) }

func AppendF32(dst []byte, v float32) []byte { return AppendU32(dst, math.Float32bits(v)) }
func AppendF64(dst []byte, v float64) []byte { return AppendU64(dst, math.Float64bits(v)) }

func AppendBool(dst []byte, v bool) []byte {
	if v {
		return append(dst, 1)
	}
	return append(dst, 0)
}

// AppendBytes writes a 4-byte signed length followed by b.
func AppendBytes(dst []byte, b []byte) []byte {
	dst = AppendI32(dst, int32(len(b)))
	return append(dst, b...)
}

// AppendString writes s as length-prefixed UTF-8.
func AppendString(dst []byte, s string) []byte {
	dst = AppendI32(dst, int32(len(s)))
	return append(dst, s...)
}
