// Package recordset streams tabular query results as a compact binary
// recordset and maps decoded rows back onto Go structs.
package recordset

import (
	"io"

	"github.com/tuannm99/recordset/internal/codec"
	"github.com/tuannm99/recordset/internal/mapper"
	"github.com/tuannm99/recordset/internal/record"
	"github.com/tuannm99/recordset/internal/rowset"
)

type (
	Kind      = record.Kind
	Column    = record.Column
	Schema    = record.Schema
	Decimal   = record.Decimal
	Cursor    = rowset.Cursor
	ResultSet = rowset.ResultSet

	Encoder       = codec.Encoder
	EncoderOption = codec.EncoderOption
	Decoder       = codec.Decoder

	MapperCache = mapper.Cache
	Resolver    = mapper.Resolver
	Member      = mapper.Member
)

const (
	KindBool      = record.KindBool
	KindByte      = record.KindByte
	KindInt16     = record.KindInt16
	KindInt32     = record.KindInt32
	KindInt64     = record.KindInt64
	KindChar      = record.KindChar
	KindFloat     = record.KindFloat
	KindDouble    = record.KindDouble
	KindDecimal   = record.KindDecimal
	KindGuid      = record.KindGuid
	KindDateTime  = record.KindDateTime
	KindString    = record.KindString
	KindByteArray = record.KindByteArray
)

var (
	ErrUnsupportedType      = record.ErrUnsupportedType
	ErrTypeMismatch         = record.ErrTypeMismatch
	ErrNoConstructor        = record.ErrNoConstructor
	ErrMalformedStream      = record.ErrMalformedStream
	ErrUnsupportedOperation = record.ErrUnsupportedOperation
	ErrNullValue            = record.ErrNullValue
	ErrDateTimeRange        = record.ErrDateTimeRange
)

func NewEncoder(c Cursor, opts ...EncoderOption) (*Encoder, error) {
	return codec.NewEncoder(c, opts...)
}

// WithOwnership makes the encoder close its cursor when done.
func WithOwnership(owns bool) EncoderOption { return codec.WithOwnership(owns) }

// WithCompletion registers fn to run once, when the cursor has no more
// result sets. It does not run if the encoder is closed before that.
func WithCompletion(fn func()) EncoderOption { return codec.WithCompletion(fn) }

func NewDecoder(r io.Reader) (*Decoder, error) { return codec.NewDecoder(r) }

// Encode serializes every result set of c into memory.
func Encode(c Cursor) ([]byte, error) { return codec.Encode(c) }

func NewMemoryCursor(sets ...ResultSet) Cursor { return rowset.NewMemory(sets...) }

func SchemaOf(c Cursor) (Schema, error) { return rowset.SchemaOf(c) }

func NewMapperCache(opts ...mapper.CacheOption) *MapperCache { return mapper.NewCache(opts...) }

// GetMapper returns the cached mapper for T from the process-wide cache.
func GetMapper[T any](schema Schema, strict bool) (*mapper.Mapper[T], error) {
	return mapper.Get[T](mapper.Default(), schema, strict)
}

// MapAll maps the rest of c's current result set onto T.
func MapAll[T any](c Cursor, strict bool) ([]T, error) { return mapper.MapAll[T](c, strict) }
