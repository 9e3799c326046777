// number.go: width-tagged numeric primitive.
package amlang

import (
	"fmt"
	"strconv"
)

type NumKind uint8

const (
	NumI8 NumKind = iota
	NumI16
	NumI32
	NumI64
	NumU8
	NumU16
	NumU32
	NumU64
	NumUSize
	NumF32
	NumF64
)

func (k NumKind) String() string {
	switch k {
	case NumI8:
		return "i8"
	case NumI16:
		return "i16"
	case NumI32:
		return "i32"
	case NumI64:
		return "i64"
	case NumU8:
		return "u8"
	case NumU16:
		return "u16"
	case NumU32:
		return "u32"
	case NumU64:
		return "u64"
	case NumUSize:
		return "usize"
	case NumF32:
		return "f32"
	case NumF64:
		return "f64"
	}
	return "?"
}

func (k NumKind) signed() bool {
	return k <= NumI64
}
func (k NumKind) float() bool {
	return k == NumF32 || k == NumF64
}

// Number carries its width so serialized values round-trip exactly.
// Arithmetic is only defined between numbers of the same kind.
type Number struct {
	Kind NumKind
	i    int64
	u    uint64
	f    float64
}

func NewI64(v int64) Number   { return Number{Kind: NumI64, i: v} }
func NewUSize(v uint64) Number { return Number{Kind: NumUSize, u: v} }
func NewF64(v float64) Number  { return Number{Kind: NumF64, f: v} }

func (n Number) Int64() int64     { return n.i }
func (n Number) Uint64() uint64   { return n.u }
func (n Number) Float64() float64 { return n.f }

// AsUint returns the value as an unsigned integer if it is a non-negative
// integer of any kind.
func (n Number) AsUint() (uint64, bool) {
	switch {
	case n.Kind.float():
		return 0, false
	case n.Kind.signed():
		if n.i < 0 {
			return 0, false
		}
		return uint64(n.i), true
	default:
		return n.u, true
	}
}

// ParseNumber parses a literal. Plain integers become i64, decimals f64.
func ParseNumber(s string) (Number, bool) {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return NewI64(i), true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		// Reject forms that are really symbols, like "+" or ".".
		return NewF64(f), true
	}
	return Number{}, false
}

// String renders the plain literal, without a width suffix.
func (n Number) String() string {
	switch {
	case n.Kind.float():
		return strconv.FormatFloat(n.f, 'g', -1, 64)
	case n.Kind.signed():
		return strconv.FormatInt(n.i, 10)
	default:
		return strconv.FormatUint(n.u, 10)
	}
}

// DebugString renders the literal with its width suffix, e.g. "3i64".
func (n Number) DebugString() string {
	return fmt.Sprintf("%s%s", n.String(), n.Kind)
}

type numOp uint8

const (
	opAdd numOp = iota
	opSub
	opMul
	opDiv
)

// apply combines two numbers of the same kind. Mismatched kinds and division
// by zero are rejected.
func (n Number) apply(op numOp, m Number) (Number, error) {
	if n.Kind != m.Kind {
		return Number{}, fmt.Errorf("number width mismatch: %s vs %s",
			n.DebugString(), m.DebugString())
	}
	out := Number{Kind: n.Kind}
	switch {
	case n.Kind.float():
		switch op {
		case opAdd:
			out.f = n.f + m.f
		case opSub:
			out.f = n.f - m.f
		case opMul:
			out.f = n.f * m.f
		case opDiv:
			if m.f == 0 {
				return Number{}, fmt.Errorf("division by zero")
			}
			out.f = n.f / m.f
		}
	case n.Kind.signed():
		switch op {
		case opAdd:
			out.i = n.i + m.i
		case opSub:
			out.i = n.i - m.i
		case opMul:
			out.i = n.i * m.i
		case opDiv:
			if m.i == 0 {
				return Number{}, fmt.Errorf("division by zero")
			}
			out.i = n.i / m.i
		}
	default:
		switch op {
		case opAdd:
			out.u = n.u + m.u
		case opSub:
			out.u = n.u - m.u
		case opMul:
			out.u = n.u * m.u
		case opDiv:
			if m.u == 0 {
				return Number{}, fmt.Errorf("division by zero")
			}
			out.u = n.u / m.u
		}
	}
	return out, nil
}
