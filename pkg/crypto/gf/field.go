// Package gf implements arithmetic over the binary extension fields
// GF(2^8), GF(2^16) and GF(2^32).
//
// Every field shares one generic engine parameterised by the element width
// and the low part of a fixed irreducible reduction polynomial. Elements are
// carried as uint32 regardless of width.
package gf

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDomain is returned when inverting or dividing by zero.
	ErrDomain = errors.New("gf: zero has no multiplicative inverse")

	// ErrUnknownField is returned for a field selector outside GF8..GF32.
	ErrUnknownField = errors.New("gf: unknown field")
)

// Field selects one of the supported fields. The numeric values match the
// accelerator's FIELD register encoding.
type Field uint32

const (
	GF8 Field = iota
	GF16
	GF32
)

// Fields lists every supported field in register order.
var Fields = []Field{GF8, GF16, GF32}

// Valid reports whether f is a supported field.
func (f Field) Valid() bool {
	return f <= GF32
}

// Width returns the element width in bits.
func (f Field) Width() uint {
	switch f {
	case GF8:
		return 8
	case GF16:
		return 16
	case GF32:
		return 32
	}
	return 0
}

// Mask returns the bit mask covering one element.
func (f Field) Mask() uint32 {
	w := f.Width()
	if w == 32 {
		return 0xFFFFFFFF
	}
	return uint32(1)<<w - 1
}

// Size returns the number of elements in the field.
func (f Field) Size() uint64 {
	return uint64(1) << f.Width()
}

func (f Field) String() string {
	if !f.Valid() {
		return fmt.Sprintf("GF(unknown %d)", uint32(f))
	}
	return fmt.Sprintf("GF(2^%d)", f.Width())
}

// ParseField accepts names such as "gf8", "16" or "GF(2^32)" as well as the
// register encodings "0" to "2", case-insensitively.
func ParseField(s string) (Field, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "gf8", "8", "gf(2^8)", "gf256", "0":
		return GF8, nil
	case "gf16", "16", "gf(2^16)", "gf65536", "1":
		return GF16, nil
	case "gf32", "32", "gf(2^32)", "2":
		return GF32, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownField, s)
}
