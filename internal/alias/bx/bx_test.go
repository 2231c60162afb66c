package bx

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestLittleEndianReadWrite verifies that PutU16/U32/U64 and U16/U32/U64
// correctly round-trip values using little-endian encoding.
func TestLittleEndianReadWrite(t *testing.T) {
	// ---- U16 ----
	{
		b := make([]byte, 2)
		var v uint16 = 0x1234

		PutU16(b, v)
		// in LE, least-significant byte goes first
		assert.Equal(t, []byte{0x34, 0x12}, b)
		assert.Equal(t, v, U16(b))
	}

	// ---- U32 ----
	{
		b := make([]byte, 4)
		var v uint32 = 0x01020304

		PutU32(b, v)
		assert.Equal(t, []byte{0x04, 0x03, 0x02, 0x01}, b)
		assert.Equal(t, v, U32(b))
	}

	// ---- U64 ----
	{
		b := make([]byte, 8)
		var v uint64 = 0x0102030405060708

		PutU64(b, v)
		assert.Equal(t, []byte{0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01}, b)
		assert.Equal(t, v, U64(b))
	}
}

func TestSignedAndFloat(t *testing.T) {
	b := AppendI16(nil, -2)
	assert.Equal(t, []byte{0xFE, 0xFF}, b)
	assert.Equal(t, int16(-2), I16(b))

	b = AppendI32(nil, -1)
	assert.Equal(t, []byte{0xFF, 0xFF, 0xFF, 0xFF}, b)
	assert.Equal(t, int32(-1), I32(b))

	b = AppendI64(nil, math.MinInt64)
	assert.Equal(t, int64(math.MinInt64), I64(b))

	b = AppendF32(nil, 1.5)
	assert.Equal(t, float32(1.5), F32(b))

	b = AppendF64(nil, -0.25)
	assert.Equal(t, -0.25, F64(b))

	p := make([]byte, 4)
	PutI32(p, 7)
	assert.Equal(t, []byte{7, 0, 0, 0}, p)
}

func TestAppendLengthPrefixed(t *testing.T) {
	b := AppendString(nil, "hé")
	// "hé" is 3 UTF-8 bytes
	assert.Equal(t, []byte{3, 0, 0, 0, 'h', 0xC3, 0xA9}, b)

	b = AppendBytes([]byte{9}, []byte{1, 2})
	assert.Equal(t, []byte{9, 2, 0, 0, 0, 1, 2}, b)

	b = AppendBytes(nil, nil)
	assert.Equal(t, []byte{0, 0, 0, 0}, b)

	assert.Equal(t, []byte{1, 0}, AppendBool(AppendBool(nil, true), false))
}
