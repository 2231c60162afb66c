package record

import "errors"

var (
	ErrUnsupportedType      = errors.New("record: unsupported value type")
	ErrTypeMismatch         = errors.New("record: type mismatch")
	ErrNoConstructor        = errors.New("record: target type has no parameterless constructor")
	ErrMalformedStream      = errors.New("record: malformed stream")
	ErrUnsupportedOperation = errors.New("record: unsupported operation")
	ErrNullValue            = errors.New("record: value is null")
	ErrDecimalRange         = errors.New("record: decimal out of range")
	ErrDateTimeRange        = errors.New("record: datetime out of range")
)
