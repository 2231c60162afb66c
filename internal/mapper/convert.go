package mapper

import (
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/spf13/cast"

	"github.com/tuannm99/recordset/internal/record"
)

type convertFunc func(v reflect.Value) (reflect.Value, error)

var (
	timeType    = reflect.TypeOf(time.Time{})
	decimalType = reflect.TypeOf(record.Decimal{})
)

// converter builds the conversion from a column kind's Go type to dst. A
// pointer dst receives a freshly allocated value. Under strict typing the
// member type must be the kind's type, except that an enum accepts Int32.
func converter(k record.Kind, dst reflect.Type, strict bool) (convertFunc, error) {
	src := k.Type()
	base := dst
	if base.Kind() == reflect.Pointer {
		base = base.Elem()
	}

	exact := base == src
	enum := k == record.KindInt32 && record.IsEnum(base)
	if strict && !exact && !enum {
		return nil, fmt.Errorf("%s column into %s: %w", k, dst, record.ErrTypeMismatch)
	}

	var conv convertFunc
	switch {
	case exact:
		conv = func(v reflect.Value) (reflect.Value, error) { return v, nil }
	case k == record.KindChar && base.Kind() == reflect.String:
		conv = func(v reflect.Value) (reflect.Value, error) {
			return reflect.ValueOf(string(rune(v.Uint()))).Convert(base), nil
		}
	case reflectConvertible(src, base):
		conv = func(v reflect.Value) (reflect.Value, error) {
			if !fits(v, base) {
				return reflect.Value{}, fmt.Errorf("%v does not fit %s: %w", v, base, record.ErrTypeMismatch)
			}
			return v.Convert(base), nil
		}
	default:
		c, ok := castTo(src, base)
		if !ok {
			return nil, fmt.Errorf("%s column into %s: %w", k, dst, record.ErrTypeMismatch)
		}
		conv = c
	}

	if base == dst {
		return conv, nil
	}
	return func(v reflect.Value) (reflect.Value, error) {
		cv, err := conv(v)
		if err != nil {
			return reflect.Value{}, err
		}
		p := reflect.New(base)
		p.Elem().Set(cv)
		return p, nil
	}, nil
}

// reflectConvertible excludes integer -> string, which reflect treats as a
// rune conversion.
func reflectConvertible(src, dst reflect.Type) bool {
	if !src.ConvertibleTo(dst) {
		return false
	}
	if dst.Kind() == reflect.String && src.Kind() != reflect.String {
		return src.Kind() == reflect.Slice
	}
	return true
}

// castTo covers the loose conversions used when strict typing is off.
func castTo(src, dst reflect.Type) (convertFunc, bool) {
	var fn func(any) (any, error)
	switch {
	case dst == timeType:
		fn = func(v any) (any, error) { return cast.ToTimeE(v) }
	case dst.Kind() == reflect.String:
		fn = func(v any) (any, error) { return cast.ToStringE(v) }
	case dst.Kind() == reflect.Bool:
		fn = func(v any) (any, error) { return cast.ToBoolE(v) }
	case dst.Kind() >= reflect.Int && dst.Kind() <= reflect.Int64:
		fn = func(v any) (any, error) { return cast.ToInt64E(v) }
	case dst.Kind() >= reflect.Uint && dst.Kind() <= reflect.Uint64:
		fn = func(v any) (any, error) { return cast.ToUint64E(v) }
	case dst.Kind() == reflect.Float32 || dst.Kind() == reflect.Float64:
		fn = func(v any) (any, error) { return cast.ToFloat64E(v) }
	default:
		return nil, false
	}

	return func(v reflect.Value) (reflect.Value, error) {
		in := v.Interface()
		if src == decimalType {
			in = in.(record.Decimal).String()
		}
		out, err := fn(in)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("%v: %w", err, record.ErrTypeMismatch)
		}
		rv := reflect.ValueOf(out)
		if !fits(rv, dst) {
			return reflect.Value{}, fmt.Errorf("%v does not fit %s: %w", in, dst, record.ErrTypeMismatch)
		}
		return rv.Convert(dst), nil
	}, true
}

// fits reports whether numeric v converts to dst without wrapping around.
// Float to integer truncates toward zero; precision loss is allowed.
// Non-numeric pairs always fit.
func fits(v reflect.Value, dst reflect.Type) bool {
	switch {
	case v.CanInt():
		x := v.Int()
		switch {
		case isInt(dst):
			return !dst.OverflowInt(x)
		case isUint(dst):
			return x >= 0 && !dst.OverflowUint(uint64(x))
		}
	case v.CanUint():
		x := v.Uint()
		switch {
		case isInt(dst):
			return x <= math.MaxInt64 && !dst.OverflowInt(int64(x))
		case isUint(dst):
			return !dst.OverflowUint(x)
		}
	case v.CanFloat():
		f := v.Float()
		switch {
		case isInt(dst):
			t := math.Trunc(f)
			return t >= math.MinInt64 && t < math.MaxInt64 && !dst.OverflowInt(int64(t))
		case isUint(dst):
			t := math.Trunc(f)
			return t >= 0 && t < math.MaxUint64 && !dst.OverflowUint(uint64(t))
		case dst.Kind() == reflect.Float32:
			return math.IsInf(f, 0) || math.IsNaN(f) || !dst.OverflowFloat(f)
		}
	}
	return true
}

func isInt(t reflect.Type) bool {
	return t.Kind() >= reflect.Int && t.Kind() <= reflect.Int64
}

func isUint(t reflect.Type) bool {
	return t.Kind() >= reflect.Uint && t.Kind() <= reflect.Uintptr
}
