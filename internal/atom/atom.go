// Package atom implements the tagged runtime value of the VM and the pure
// arithmetic and comparison operations over it.
package atom

import (
	"fmt"
	"math"
	"strconv"
)

// Kind tags the variant held by an Atom.
type Kind uint8

// Atom kinds; the zero Kind is Null so that zero-filled memory reads as null.
const (
	Null Kind = iota
	Ref
	Int
	Float
	String
)

var kindNames = [...]string{
	Null:   "Null",
	Ref:    "Ref",
	Int:    "Int",
	Float:  "Float",
	String: "String",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Atom is a tagged runtime value. Only the field selected by Kind is
// meaningful; the zero Atom is Null.
type Atom struct {
	Kind  Kind    `cbor:"1,keyasint" yaml:"kind"`
	Addr  int     `cbor:"2,keyasint,omitempty" yaml:"addr,omitempty"`
	Int   int32   `cbor:"3,keyasint,omitempty" yaml:"int,omitempty"`
	Float float32 `cbor:"4,keyasint,omitempty" yaml:"float,omitempty"`
	Str   string  `cbor:"5,keyasint,omitempty" yaml:"str,omitempty"`
}

// MakeInt returns an Int atom.
func MakeInt(i int32) Atom { return Atom{Kind: Int, Int: i} }

// MakeFloat returns a Float atom.
func MakeFloat(f float32) Atom { return Atom{Kind: Float, Float: f} }

// MakeString returns a String atom.
func MakeString(s string) Atom { return Atom{Kind: String, Str: s} }

// MakeRef returns a reference to heap slot addr.
func MakeRef(addr int) Atom { return Atom{Kind: Ref, Addr: addr} }

// Bool returns Int(1) for true and Int(0) for false.
func Bool(b bool) Atom {
	if b {
		return MakeInt(1)
	}
	return MakeInt(0)
}

// IsNull reports whether a is the null sentinel.
func (a Atom) IsNull() bool { return a.Kind == Null }

// String returns a diagnostic form like Int(3) or String("abc").
func (a Atom) String() string {
	switch a.Kind {
	case Null:
		return "Null"
	case Ref:
		return fmt.Sprintf("Ref(%d)", a.Addr)
	case Int:
		return fmt.Sprintf("Int(%d)", a.Int)
	case Float:
		return fmt.Sprintf("Float(%s)", formatFloat(a.Float))
	case String:
		return fmt.Sprintf("String(%q)", a.Str)
	}
	return a.Kind.String()
}

// Text returns the printed form of a: decimal numbers, verbatim strings, and
// "Null" for null. References are not followed; see the print builtin.
func (a Atom) Text() string {
	switch a.Kind {
	case Int:
		return strconv.FormatInt(int64(a.Int), 10)
	case Float:
		return formatFloat(a.Float)
	case String:
		return a.Str
	case Ref:
		return "@" + strconv.Itoa(a.Addr)
	}
	return "Null"
}

// formatFloat never uses exponent notation.
func formatFloat(f float32) string {
	switch {
	case math.IsInf(float64(f), 1):
		return "inf"
	case math.IsInf(float64(f), -1):
		return "-inf"
	case math.IsNaN(float64(f)):
		return "NaN"
	}
	return strconv.FormatFloat(float64(f), 'f', -1, 32)
}
