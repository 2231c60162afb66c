package record

import (
	"database/sql"
	"fmt"
	"reflect"
	"strings"
)

// Visitor builds one behavior per Kind. A table implementing it must supply
// every method, so a new Kind does not compile until each table handles it.
// The nullable flag tells the table whether the column came from a nullable
// wrapper (pointer, sql.Null*).
type Visitor[R any] interface {
	Bool(nullable bool) R
	Byte(nullable bool) R
	Int16(nullable bool) R
	Int32(nullable bool) R
	Int64(nullable bool) R
	Char(nullable bool) R
	Float(nullable bool) R
	Double(nullable bool) R
	Decimal(nullable bool) R
	Guid(nullable bool) R
	DateTime(nullable bool) R
	String(nullable bool) R
	ByteArray(nullable bool) R
}

// Dispatch selects the visitor behavior for k.
func Dispatch[R any](k Kind, nullable bool, v Visitor[R]) (R, error) {
	switch k {
	case KindBool:
		return v.Bool(nullable), nil
	case KindByte:
		return v.Byte(nullable), nil
	case KindInt16:
		return v.Int16(nullable), nil
	case KindInt32:
		return v.Int32(nullable), nil
	case KindInt64:
		return v.Int64(nullable), nil
	case KindChar:
		return v.Char(nullable), nil
	case KindFloat:
		return v.Float(nullable), nil
	case KindDouble:
		return v.Double(nullable), nil
	case KindDecimal:
		return v.Decimal(nullable), nil
	case KindGuid:
		return v.Guid(nullable), nil
	case KindDateTime:
		return v.DateTime(nullable), nil
	case KindString:
		return v.String(nullable), nil
	case KindByteArray:
		return v.ByteArray(nullable), nil
	}
	var zero R
	return zero, fmt.Errorf("%w: %s", ErrUnsupportedType, k)
}

// DispatchType unwraps t with KindOf and dispatches on the result.
func DispatchType[R any](t reflect.Type, v Visitor[R]) (R, error) {
	k, nullable, err := KindOf(t)
	if err != nil {
		var zero R
		return zero, err
	}
	return Dispatch(k, nullable, v)
}

var nullWrappers = map[reflect.Type]Kind{
	reflect.TypeOf(sql.NullBool{}):    KindBool,
	reflect.TypeOf(sql.NullByte{}):    KindByte,
	reflect.TypeOf(sql.NullInt16{}):   KindInt16,
	reflect.TypeOf(sql.NullInt32{}):   KindInt32,
	reflect.TypeOf(sql.NullInt64{}):   KindInt64,
	reflect.TypeOf(sql.NullFloat64{}): KindDouble,
	reflect.TypeOf(sql.NullString{}):  KindString,
	reflect.TypeOf(sql.NullTime{}):    KindDateTime,
}

// KindOf maps a Go type onto its Kind. Pointers and database/sql null
// wrappers are unwrapped one level and reported as nullable. Enums travel
// as Int32.
func KindOf(t reflect.Type) (k Kind, nullable bool, err error) {
	if t == nil {
		return KindInvalid, false, fmt.Errorf("%w: <nil>", ErrUnsupportedType)
	}
	if k, ok := byType[t]; ok {
		return k, false, nil
	}
	if k, ok := nullWrappers[t]; ok {
		return k, true, nil
	}

	switch {
	case t.Kind() == reflect.Pointer:
		k, _, err := KindOf(t.Elem())
		return k, true, err
	case isGenericNull(t):
		f, _ := t.FieldByName("V")
		k, _, err := KindOf(f.Type)
		return k, true, err
	case IsEnum(t):
		return KindInt32, false, nil
	}
	return KindInvalid, false, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
}

// IsEnum reports whether t is a named integer type that travels as Int32:
// int, int8, int16, int32, uint8 or uint16 underneath. Named int64 and
// wider unsigned types (time.Duration) are not enums. A named int value
// outside the Int32 range is rejected where it is read.
func IsEnum(t reflect.Type) bool {
	if t.PkgPath() == "" || t.Name() == "" {
		return false
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32,
		reflect.Uint8, reflect.Uint16:
		return true
	}
	return false
}

func isGenericNull(t reflect.Type) bool {
	return t.Kind() == reflect.Struct &&
		t.PkgPath() == "database/sql" &&
		strings.HasPrefix(t.Name(), "Null[")
}
