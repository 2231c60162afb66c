package rowset

import (
	"database/sql"
	"fmt"
	"reflect"
	"time"
	"unicode/utf16"

	"github.com/google/uuid"
	"github.com/spf13/cast"

	"github.com/tuannm99/recordset/internal/record"
)

var _ Cursor = (*Rows)(nil)

// Rows adapts *sql.Rows to a Cursor. Each row is scanned into driver values
// and converted on access, so any driver that database/sql supports can feed
// the encoder.
type Rows struct {
	rows  *sql.Rows
	cols  []record.Column
	types []reflect.Type
	vals  []any
	dest  []any
}

// FromRows takes ownership of rows; Close closes them.
func FromRows(rows *sql.Rows) (*Rows, error) {
	r := &Rows{rows: rows}
	if err := r.describe(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	return r, nil
}

func (r *Rows) describe() error {
	cts, err := r.rows.ColumnTypes()
	if err != nil {
		return fmt.Errorf("rowset: column types: %w", err)
	}

	r.cols = make([]record.Column, len(cts))
	r.types = make([]reflect.Type, len(cts))
	r.vals = make([]any, len(cts))
	r.dest = make([]any, len(cts))
	for i, ct := range cts {
		nullable, ok := ct.Nullable()
		col := record.Column{
			Name:       ct.Name(),
			SourceType: ct.DatabaseTypeName(),
			Kind:       kindForScanType(ct.ScanType()),
			Nullable:   nullable || !ok,
		}
		r.cols[i] = col
		r.types[i] = FieldTypeOf(col)
		r.dest[i] = &r.vals[i]
	}
	return nil
}

var (
	timeType     = reflect.TypeOf(time.Time{})
	rawBytesType = reflect.TypeOf(sql.RawBytes{})
)

// kindForScanType maps a driver scan type onto the closest Kind. Scan types
// the driver leaves open (interface{}) are carried as strings.
func kindForScanType(t reflect.Type) record.Kind {
	if t == nil {
		return record.KindString
	}
	if k, _, err := record.KindOf(t); err == nil && t.Kind() != reflect.Uint16 {
		return k
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch {
	case t == timeType:
		return record.KindDateTime
	case t == rawBytesType:
		return record.KindByteArray
	}
	switch t.Kind() {
	case reflect.Bool:
		return record.KindBool
	case reflect.Int8, reflect.Int16:
		return record.KindInt16
	case reflect.Int32, reflect.Uint16:
		return record.KindInt32
	case reflect.Int, reflect.Int64, reflect.Uint, reflect.Uint32, reflect.Uint64:
		return record.KindInt64
	case reflect.Uint8:
		return record.KindByte
	case reflect.Float32:
		return record.KindFloat
	case reflect.Float64:
		return record.KindDouble
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return record.KindByteArray
		}
	}
	return record.KindString
}

func (r *Rows) FieldCount() int { return len(r.cols) }

func (r *Rows) FieldType(i int) reflect.Type { return r.types[i] }

func (r *Rows) DataTypeName(i int) string { return r.cols[i].SourceType }

func (r *Rows) ColumnName(i int) string { return r.cols[i].Name }

func (r *Rows) Read() (bool, error) {
	if !r.rows.Next() {
		return false, r.rows.Err()
	}
	if err := r.rows.Scan(r.dest...); err != nil {
		return false, fmt.Errorf("rowset: scan: %w", err)
	}
	return true, nil
}

func (r *Rows) NextResult() (bool, error) {
	if !r.rows.NextResultSet() {
		return false, r.rows.Err()
	}
	if err := r.describe(); err != nil {
		return false, err
	}
	return true, nil
}

func (r *Rows) Close() error { return r.rows.Close() }

func (r *Rows) IsNull(i int) bool { return r.vals[i] == nil }

func (r *Rows) value(i int) (any, error) {
	v := r.vals[i]
	if v == nil {
		return nil, fmt.Errorf("rowset: column %d: %w", i, record.ErrNullValue)
	}
	return v, nil
}

func convert[T any](r *Rows, i int, fn func(any) (T, error)) (T, error) {
	var zero T
	v, err := r.value(i)
	if err != nil {
		return zero, err
	}
	out, err := fn(v)
	if err != nil {
		return zero, fmt.Errorf("rowset: column %d (%s): %v: %w", i, r.cols[i].Name, err, record.ErrTypeMismatch)
	}
	return out, nil
}

func (r *Rows) GetBool(i int) (bool, error) { return convert(r, i, cast.ToBoolE) }
func (r *Rows) GetByte(i int) (byte, error) { return convert(r, i, cast.ToUint8E) }
func (r *Rows) GetInt16(i int) (int16, error) { return convert(r, i, cast.ToInt16E) }
func (r *Rows) GetInt32(i int) (int32, error) { return convert(r, i, cast.ToInt32E) }
func (r *Rows) GetInt64(i int) (int64, error) { return convert(r, i, cast.ToInt64E) }
func (r *Rows) GetFloat(i int) (float32, error) { return convert(r, i, cast.ToFloat32E) }
func (r *Rows) GetDouble(i int) (float64, error) { return convert(r, i, cast.ToFloat64E) }
func (r *Rows) GetDateTime(i int) (time.Time, error) { return convert(r, i, cast.ToTimeE) }
func (r *Rows) GetString(i int) (string, error) { return convert(r, i, cast.ToStringE) }

func (r *Rows) GetChar(i int) (uint16, error) {
	return convert(r, i, func(v any) (uint16, error) {
		switch x := v.(type) {
		case string:
			return firstUnit(x)
		case []byte:
			return firstUnit(string(x))
		}
		return cast.ToUint16E(v)
	})
}

func firstUnit(s string) (uint16, error) {
	units := utf16.Encode([]rune(s))
	if len(units) == 0 {
		return 0, fmt.Errorf("empty string")
	}
	return units[0], nil
}

func (r *Rows) GetDecimal(i int) (record.Decimal, error) {
	return convert(r, i, func(v any) (record.Decimal, error) {
		s, err := cast.ToStringE(v)
		if err != nil {
			return record.Decimal{}, err
		}
		return record.ParseDecimal(s)
	})
}

func (r *Rows) GetGuid(i int) (uuid.UUID, error) {
	return convert(r, i, func(v any) (uuid.UUID, error) {
		switch x := v.(type) {
		case []byte:
			if len(x) == 16 {
				return uuid.FromBytes(x)
			}
			return uuid.ParseBytes(x)
		case string:
			return uuid.Parse(x)
		}
		return uuid.Nil, fmt.Errorf("cannot read %T as uuid", v)
	})
}

func (r *Rows) GetBytes(i int) ([]byte, error) {
	return convert(r, i, func(v any) ([]byte, error) {
		switch x := v.(type) {
		case []byte:
			return x, nil
		case string:
			return []byte(x), nil
		}
		return nil, fmt.Errorf("cannot read %T as bytes", v)
	})
}
