package codec

import (
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/tuannm99/recordset/internal/alias/bx"
	"github.com/tuannm99/recordset/internal/record"
	"github.com/tuannm99/recordset/internal/rowset"
)

// Each table below implements record.Visitor. The behaviors are built once at
// package init and shared; dispatching never allocates.

// ---- writers: cursor value -> wire bytes ----

type writeFunc func(dst []byte, c rowset.Cursor, i int) ([]byte, error)

func writer[T any](get func(rowset.Cursor, int) (T, error), put func([]byte, T) []byte) writeFunc {
	return checkedWriter(get, func(dst []byte, v T) ([]byte, error) { return put(dst, v), nil })
}

// checkedWriter is writer for values that can be out of the wire range.
func checkedWriter[T any](get func(rowset.Cursor, int) (T, error), put func([]byte, T) ([]byte, error)) writeFunc {
	return func(dst []byte, c rowset.Cursor, i int) ([]byte, error) {
		v, err := get(c, i)
		if err != nil {
			return dst, err
		}
		return put(dst, v)
	}
}

func appendByte(dst []byte, v byte) []byte { return append(dst, v) }

func appendDecimal(dst []byte, v record.Decimal) []byte {
	for _, w := range v.Bits() {
		dst = bx.AppendI32(dst, w)
	}
	return dst
}

func appendGuid(dst []byte, v uuid.UUID) []byte { return append(dst, v[:]...) }

func appendTime(dst []byte, v time.Time) ([]byte, error) {
	ticks, err := record.Ticks(v)
	if err != nil {
		return dst, err
	}
	return bx.AppendI64(dst, ticks), nil
}

var (
	writeBool      = writer(rowset.Cursor.GetBool, bx.AppendBool)
	writeByte      = writer(rowset.Cursor.GetByte, appendByte)
	writeInt16     = writer(rowset.Cursor.GetInt16, bx.AppendI16)
	writeInt32     = writer(rowset.Cursor.GetInt32, bx.AppendI32)
	writeInt64     = writer(rowset.Cursor.GetInt64, bx.AppendI64)
	writeChar      = writer(rowset.Cursor.GetChar, bx.AppendU16)
	writeFloat     = writer(rowset.Cursor.GetFloat, bx.AppendF32)
	writeDouble    = writer(rowset.Cursor.GetDouble, bx.AppendF64)
	writeDecimal   = writer(rowset.Cursor.GetDecimal, appendDecimal)
	writeGuid      = writer(rowset.Cursor.GetGuid, appendGuid)
	writeDateTime  = checkedWriter(rowset.Cursor.GetDateTime, appendTime)
	writeString    = writer(rowset.Cursor.GetString, bx.AppendString)
	writeByteArray = writer(rowset.Cursor.GetBytes, bx.AppendBytes)
)

type writers struct{}

var _ record.Visitor[writeFunc] = writers{}

func (writers) Bool(bool) writeFunc { return writeBool }
func (writers) Byte(bool) writeFunc { return writeByte }
func (writers) Int16(bool) writeFunc { return writeInt16 }
func (writers) Int32(bool) writeFunc { return writeInt32 }
func (writers) Int64(bool) writeFunc { return writeInt64 }
func (writers) Char(bool) writeFunc { return writeChar }
func (writers) Float(bool) writeFunc { return writeFloat }
func (writers) Double(bool) writeFunc { return writeDouble }
func (writers) Decimal(bool) writeFunc { return writeDecimal }
func (writers) Guid(bool) writeFunc { return writeGuid }
func (writers) DateTime(bool) writeFunc { return writeDateTime }
func (writers) String(bool) writeFunc { return writeString }
func (writers) ByteArray(bool) writeFunc { return writeByteArray }

// ---- readers: wire bytes -> field slot ----

type readFunc func(src *ByteSource, s slot) error

func fixed[T any](size int, decode func([]byte) T) readFunc {
	return func(src *ByteSource, s slot) error {
		b, err := src.take(size)
		if err != nil {
			return err
		}
		s.(*cell[T]).v = decode(b)
		return nil
	}
}

func readDecimal(src *ByteSource, s slot) error {
	b, err := src.take(16)
	if err != nil {
		return err
	}
	d, err := record.DecimalFromBits([4]int32{bx.I32(b), bx.I32(b[4:]), bx.I32(b[8:]), bx.I32(b[12:])})
	if err != nil {
		return err
	}
	s.(*cell[record.Decimal]).v = d
	return nil
}

func readString(src *ByteSource, s slot) error {
	b, err := src.takePrefixed()
	if err != nil {
		return err
	}
	s.(*cell[string]).v = string(b)
	return nil
}

func readByteArray(src *ByteSource, s slot) error {
	b, err := src.takePrefixed()
	if err != nil {
		return err
	}
	// copy so the value never aliases the read buffer
	cp := make([]byte, len(b))
	copy(cp, b)
	s.(*cell[[]byte]).v = cp
	return nil
}

var (
	readBool     = fixed(1, func(b []byte) bool { return b[0] != 0 })
	readByte     = fixed(1, func(b []byte) byte { return b[0] })
	readInt16    = fixed(2, bx.I16)
	readInt32    = fixed(4, bx.I32)
	readInt64    = fixed(8, bx.I64)
	readChar     = fixed(2, bx.U16)
	readFloat    = fixed(4, bx.F32)
	readDouble   = fixed(8, bx.F64)
	readGuid     = fixed(16, func(b []byte) uuid.UUID { return uuid.UUID(b) })
	readDateTime = fixed(8, func(b []byte) time.Time { return record.TimeFromTicks(bx.I64(b)) })
)

type readers struct{}

var _ record.Visitor[readFunc] = readers{}

func (readers) Bool(bool) readFunc { return readBool }
func (readers) Byte(bool) readFunc { return readByte }
func (readers) Int16(bool) readFunc { return readInt16 }
func (readers) Int32(bool) readFunc { return readInt32 }
func (readers) Int64(bool) readFunc { return readInt64 }
func (readers) Char(bool) readFunc { return readChar }
func (readers) Float(bool) readFunc { return readFloat }
func (readers) Double(bool) readFunc { return readDouble }
func (readers) Decimal(bool) readFunc { return readDecimal }
func (readers) Guid(bool) readFunc { return readGuid }
func (readers) DateTime(bool) readFunc { return readDateTime }
func (readers) String(bool) readFunc { return readString }
func (readers) ByteArray(bool) readFunc { return readByteArray }

// ---- storage: typed per-field slots and reflect getters ----

type slot interface {
	boxed() any
}

// cell holds one field value unboxed.
type cell[T any] struct{ v T }

func (c *cell[T]) boxed() any { return c.v }

// Getter reads column i of the cursor's current row as a value of the column
// kind's Go type.
type Getter func(c rowset.Cursor, i int) (reflect.Value, error)

type storage struct {
	newSlot func() slot
	get     Getter
}

func stored[T any](get func(rowset.Cursor, int) (T, error)) storage {
	return storage{
		newSlot: func() slot { return new(cell[T]) },
		get: func(c rowset.Cursor, i int) (reflect.Value, error) {
			v, err := get(c, i)
			if err != nil {
				return reflect.Value{}, err
			}
			return reflect.ValueOf(v), nil
		},
	}
}

var (
	storeBool      = stored(rowset.Cursor.GetBool)
	storeByte      = stored(rowset.Cursor.GetByte)
	storeInt16     = stored(rowset.Cursor.GetInt16)
	storeInt32     = stored(rowset.Cursor.GetInt32)
	storeInt64     = stored(rowset.Cursor.GetInt64)
	storeChar      = stored(rowset.Cursor.GetChar)
	storeFloat     = stored(rowset.Cursor.GetFloat)
	storeDouble    = stored(rowset.Cursor.GetDouble)
	storeDecimal   = stored(rowset.Cursor.GetDecimal)
	storeGuid      = stored(rowset.Cursor.GetGuid)
	storeDateTime  = stored(rowset.Cursor.GetDateTime)
	storeString    = stored(rowset.Cursor.GetString)
	storeByteArray = stored(rowset.Cursor.GetBytes)
)

type storages struct{}

var _ record.Visitor[storage] = storages{}

func (storages) Bool(bool) storage { return storeBool }
func (storages) Byte(bool) storage { return storeByte }
func (storages) Int16(bool) storage { return storeInt16 }
func (storages) Int32(bool) storage { return storeInt32 }
func (storages) Int64(bool) storage { return storeInt64 }
func (storages) Char(bool) storage { return storeChar }
func (storages) Float(bool) storage { return storeFloat }
func (storages) Double(bool) storage { return storeDouble }
func (storages) Decimal(bool) storage { return storeDecimal }
func (storages) Guid(bool) storage { return storeGuid }
func (storages) DateTime(bool) storage { return storeDateTime }
func (storages) String(bool) storage { return storeString }
func (storages) ByteArray(bool) storage { return storeByteArray }

// GetterFor returns the shared getter behavior for k.
func GetterFor(k record.Kind) (Getter, error) {
	st, err := record.Dispatch[storage](k, false, storages{})
	if err != nil {
		return nil, err
	}
	return st.get, nil
}
