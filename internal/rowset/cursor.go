package rowset

import (
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/tuannm99/recordset/internal/record"
)

// Getters exposes one typed accessor per record.Kind for the current row.
type Getters interface {
	GetBool(i int) (bool, error)
	GetByte(i int) (byte, error)
	GetInt16(i int) (int16, error)
	GetInt32(i int) (int32, error)
	GetInt64(i int) (int64, error)
	GetChar(i int) (uint16, error)
	GetFloat(i int) (float32, error)
	GetDouble(i int) (float64, error)
	GetDecimal(i int) (record.Decimal, error)
	GetGuid(i int) (uuid.UUID, error)
	GetDateTime(i int) (time.Time, error)
	GetString(i int) (string, error)
	GetBytes(i int) ([]byte, error)
}

// Cursor is a forward-only, single-pass handle over one or more result sets.
// Read advances to the next row of the current result set; NextResult moves
// to the following result set. Neither can go back.
type Cursor interface {
	FieldCount() int
	FieldType(i int) reflect.Type
	DataTypeName(i int) string
	ColumnName(i int) string

	Read() (bool, error)
	NextResult() (bool, error)

	IsNull(i int) bool
	Getters

	Close() error
}

// SchemaOf describes the current result set of c.
func SchemaOf(c Cursor) (record.Schema, error) {
	n := c.FieldCount()
	s := record.Schema{Cols: make([]record.Column, n)}
	for i := 0; i < n; i++ {
		k, nullable, err := record.KindOf(c.FieldType(i))
		if err != nil {
			return record.Schema{}, fmt.Errorf("rowset: column %d (%s): %w", i, c.ColumnName(i), err)
		}
		s.Cols[i] = record.Column{
			Name:       c.ColumnName(i),
			SourceType: c.DataTypeName(i),
			Kind:       k,
			Nullable:   nullable,
		}
	}
	return s, nil
}

// FieldTypeOf is the reflect.Type a cursor reports for col.
func FieldTypeOf(col record.Column) reflect.Type {
	t := col.Kind.Type()
	if t == nil || !col.Nullable {
		return t
	}
	return reflect.PointerTo(t)
}
