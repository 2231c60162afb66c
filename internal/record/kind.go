package record

import (
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
)

// Kind is the closed set of primitive value types a recordset column can carry.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindBool
	KindByte
	KindInt16
	KindInt32
	KindInt64
	KindChar // one UTF-16 code unit
	KindFloat
	KindDouble
	KindDecimal
	KindGuid
	KindDateTime
	KindString
	KindByteArray

	kindCount
)

var kindNames = [kindCount]string{
	KindInvalid:   "Invalid",
	KindBool:      "Bool",
	KindByte:      "Byte",
	KindInt16:     "Int16",
	KindInt32:     "Int32",
	KindInt64:     "Int64",
	KindChar:      "Char",
	KindFloat:     "Float",
	KindDouble:    "Double",
	KindDecimal:   "Decimal",
	KindGuid:      "Guid",
	KindDateTime:  "DateTime",
	KindString:    "String",
	KindByteArray: "ByteArray",
}

var kindTypes = [kindCount]reflect.Type{
	KindBool:      reflect.TypeOf(false),
	KindByte:      reflect.TypeOf(byte(0)),
	KindInt16:     reflect.TypeOf(int16(0)),
	KindInt32:     reflect.TypeOf(int32(0)),
	KindInt64:     reflect.TypeOf(int64(0)),
	KindChar:      reflect.TypeOf(uint16(0)),
	KindFloat:     reflect.TypeOf(float32(0)),
	KindDouble:    reflect.TypeOf(float64(0)),
	KindDecimal:   reflect.TypeOf(Decimal{}),
	KindGuid:      reflect.TypeOf(uuid.UUID{}),
	KindDateTime:  reflect.TypeOf(time.Time{}),
	KindString:    reflect.TypeOf(""),
	KindByteArray: reflect.TypeOf([]byte(nil)),
}

// Names used by peers that speak the CLR type vocabulary.
var systemNames = [kindCount]string{
	KindBool:      "System.Boolean",
	KindByte:      "System.Byte",
	KindInt16:     "System.Int16",
	KindInt32:     "System.Int32",
	KindInt64:     "System.Int64",
	KindChar:      "System.Char",
	KindFloat:     "System.Single",
	KindDouble:    "System.Double",
	KindDecimal:   "System.Decimal",
	KindGuid:      "System.Guid",
	KindDateTime:  "System.DateTime",
	KindString:    "System.String",
	KindByteArray: "System.Byte[]",
}

var byTypeName = func() map[string]Kind {
	m := make(map[string]Kind, 2*int(kindCount))
	for k := KindBool; k < kindCount; k++ {
		m[kindTypes[k].String()] = k
		m[systemNames[k]] = k
	}
	return m
}()

var byType = func() map[reflect.Type]Kind {
	m := make(map[reflect.Type]Kind, int(kindCount))
	for k := KindBool; k < kindCount; k++ {
		m[kindTypes[k]] = k
	}
	return m
}()

func (k Kind) Valid() bool { return k > KindInvalid && k < kindCount }

func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Type returns the Go value type getters of this kind produce, or nil.
func (k Kind) Type() reflect.Type {
	if !k.Valid() {
		return nil
	}
	return kindTypes[k]
}

// TypeName is the runtime type name written into stream headers.
func (k Kind) TypeName() string {
	if !k.Valid() {
		return ""
	}
	return kindTypes[k].String()
}

// ParseTypeName resolves a header runtime type name to its Kind.
func ParseTypeName(name string) (Kind, error) {
	if k, ok := byTypeName[name]; ok {
		return k, nil
	}
	return KindInvalid, fmt.Errorf("%w: type name %q", ErrUnsupportedType, name)
}
