package record

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

const (
	MaxDecimalScale = 28

	decScaleShift = 16
	decScaleMask  = 0x00FF0000
	decSignMask   = 0x80000000
)

var decMask32 = big.NewInt(0xFFFFFFFF)

// Decimal is a 96-bit unsigned magnitude with a sign and a power-of-ten
// scale, kept in the four-word layout lo, mid, hi, flags. Flags carry the
// scale in bits 16-23 and the sign in bit 31.
type Decimal struct {
	Lo, Mid, Hi uint32
	Flags       uint32
}

// DecimalFromBits validates and wraps the four wire words.
func DecimalFromBits(b [4]int32) (Decimal, error) {
	d := Decimal{Lo: uint32(b[0]), Mid: uint32(b[1]), Hi: uint32(b[2]), Flags: uint32(b[3])}
	if d.Flags&^(decScaleMask|decSignMask) != 0 || d.Scale() > MaxDecimalScale {
		return Decimal{}, fmt.Errorf("%w: decimal flags %#x", ErrMalformedStream, d.Flags)
	}
	return d, nil
}

// NewDecimal builds unscaled × 10^-scale.
func NewDecimal(unscaled *big.Int, scale int) (Decimal, error) {
	if scale < 0 || scale > MaxDecimalScale {
		return Decimal{}, fmt.Errorf("%w: scale %d", ErrDecimalRange, scale)
	}
	abs := new(big.Int).Abs(unscaled)
	if abs.BitLen() > 96 {
		return Decimal{}, fmt.Errorf("%w: %s needs %d bits", ErrDecimalRange, unscaled, abs.BitLen())
	}

	var d Decimal
	d.Lo = uint32(new(big.Int).And(abs, decMask32).Uint64())
	d.Mid = uint32(new(big.Int).And(new(big.Int).Rsh(abs, 32), decMask32).Uint64())
	d.Hi = uint32(new(big.Int).Rsh(abs, 64).Uint64())
	d.Flags = uint32(scale) << decScaleShift
	if unscaled.Sign() < 0 {
		d.Flags |= decSignMask
	}
	return d, nil
}

// ParseDecimal reads a plain decimal literal such as "-12.50".
func ParseDecimal(s string) (Decimal, error) {
	digits := strings.TrimSpace(s)
	neg := false
	switch {
	case strings.HasPrefix(digits, "-"):
		neg = true
		digits = digits[1:]
	case strings.HasPrefix(digits, "+"):
		digits = digits[1:]
	}

	scale := 0
	if dot := strings.IndexByte(digits, '.'); dot >= 0 {
		scale = len(digits) - dot - 1
		digits = digits[:dot] + digits[dot+1:]
	}
	if digits == "" || strings.ContainsAny(digits, "+-") {
		return Decimal{}, fmt.Errorf("record: invalid decimal %q", s)
	}

	u, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return Decimal{}, fmt.Errorf("record: invalid decimal %q", s)
	}
	if neg {
		u.Neg(u)
	}
	return NewDecimal(u, scale)
}

func (d Decimal) Bits() [4]int32 {
	return [4]int32{int32(d.Lo), int32(d.Mid), int32(d.Hi), int32(d.Flags)}
}

func (d Decimal) Scale() int { return int((d.Flags & decScaleMask) >> decScaleShift) }

func (d Decimal) Negative() bool { return d.Flags&decSignMask != 0 }

func (d Decimal) IsZero() bool { return d.Lo == 0 && d.Mid == 0 && d.Hi == 0 }

// Unscaled returns the signed integer value before applying the scale.
func (d Decimal) Unscaled() *big.Int {
	u := new(big.Int).SetUint64(uint64(d.Hi))
	u.Lsh(u, 64)
	u.Or(u, new(big.Int).SetUint64(uint64(d.Mid)<<32|uint64(d.Lo)))
	if d.Negative() {
		u.Neg(u)
	}
	return u
}

func (d Decimal) String() string {
	abs := new(big.Int).Abs(d.Unscaled()).String()
	scale := d.Scale()
	if scale > 0 {
		if len(abs) <= scale {
			abs = strings.Repeat("0", scale-len(abs)+1) + abs
		}
		abs = abs[:len(abs)-scale] + "." + abs[len(abs)-scale:]
	}
	if d.Negative() && !d.IsZero() {
		return "-" + abs
	}
	return abs
}

func (d Decimal) Float64() float64 {
	f, _ := strconv.ParseFloat(d.String(), 64)
	return f
}
