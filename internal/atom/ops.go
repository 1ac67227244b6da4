package atom

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrDivideByZero is returned by Div and Rem for a zero right operand.
	ErrDivideByZero = errors.New("division by zero")

	// ErrOverflow is returned when integer division overflows int32.
	ErrOverflow = errors.New("integer overflow")
)

// TypeError reports an operation applied to operands of unsupported or
// mismatched kinds.
type TypeError struct {
	Op   string
	L, R Atom
}

func (te *TypeError) Error() string {
	return fmt.Sprintf("cannot %v %v and %v", te.Op, te.L, te.R)
}

func mismatch(op string, l, r Atom) error { return &TypeError{op, l, r} }

// Add returns l + r.
func Add(l, r Atom) (Atom, error) {
	switch {
	case l.Kind == Int && r.Kind == Int:
		return MakeInt(l.Int + r.Int), nil
	case l.Kind == Float && r.Kind == Float:
		return MakeFloat(l.Float + r.Float), nil
	}
	return Atom{}, mismatch("add", l, r)
}

// Sub returns l - r.
func Sub(l, r Atom) (Atom, error) {
	switch {
	case l.Kind == Int && r.Kind == Int:
		return MakeInt(l.Int - r.Int), nil
	case l.Kind == Float && r.Kind == Float:
		return MakeFloat(l.Float - r.Float), nil
	}
	return Atom{}, mismatch("sub", l, r)
}

// Mul returns l * r.
func Mul(l, r Atom) (Atom, error) {
	switch {
	case l.Kind == Int && r.Kind == Int:
		return MakeInt(l.Int * r.Int), nil
	case l.Kind == Float && r.Kind == Float:
		return MakeFloat(l.Float * r.Float), nil
	}
	return Atom{}, mismatch("mul", l, r)
}

// Div returns l / r, truncating for integers. A zero divisor is an error for
// both integers and floats.
func Div(l, r Atom) (Atom, error) {
	switch {
	case l.Kind == Int && r.Kind == Int:
		if r.Int == 0 {
			return Atom{}, ErrDivideByZero
		}
		if l.Int == math.MinInt32 && r.Int == -1 {
			return Atom{}, ErrOverflow
		}
		return MakeInt(l.Int / r.Int), nil
	case l.Kind == Float && r.Kind == Float:
		if r.Float == 0 {
			return Atom{}, ErrDivideByZero
		}
		return MakeFloat(l.Float / r.Float), nil
	}
	return Atom{}, mismatch("div", l, r)
}

// Rem returns the integer remainder l % r; floats are not supported.
func Rem(l, r Atom) (Atom, error) {
	if l.Kind == Int && r.Kind == Int {
		if r.Int == 0 {
			return Atom{}, ErrDivideByZero
		}
		if l.Int == math.MinInt32 && r.Int == -1 {
			return Atom{}, ErrOverflow
		}
		return MakeInt(l.Int % r.Int), nil
	}
	return Atom{}, mismatch("rem", l, r)
}

// Eq compares for equality; strings compare exactly.
func Eq(l, r Atom) (Atom, error) {
	if l.Kind == String && r.Kind == String {
		return Bool(l.Str == r.Str), nil
	}
	return compare("eq", l, r, func(c int) bool { return c == 0 })
}

// Ne is the negation of Eq.
func Ne(l, r Atom) (Atom, error) {
	if l.Kind == String && r.Kind == String {
		return Bool(l.Str != r.Str), nil
	}
	return compare("ne", l, r, func(c int) bool { return c != 0 })
}

// Lt returns Int(1) if l < r.
func Lt(l, r Atom) (Atom, error) {
	return compare("lt", l, r, func(c int) bool { return c < 0 })
}

// Le returns Int(1) if l <= r.
func Le(l, r Atom) (Atom, error) {
	return compare("le", l, r, func(c int) bool { return c <= 0 })
}

// Gt returns Int(1) if l > r.
func Gt(l, r Atom) (Atom, error) {
	return compare("gt", l, r, func(c int) bool { return c > 0 })
}

// Ge returns Int(1) if l >= r.
func Ge(l, r Atom) (Atom, error) {
	return compare("ge", l, r, func(c int) bool { return c >= 0 })
}

// compare orders two numbers of the same kind. NaN compares unequal and
// unordered with everything, as in IEEE 754.
func compare(op string, l, r Atom, test func(c int) bool) (Atom, error) {
	switch {
	case l.Kind == Int && r.Kind == Int:
		return Bool(test(cmpInt(l.Int, r.Int))), nil
	case l.Kind == Float && r.Kind == Float:
		if math.IsNaN(float64(l.Float)) || math.IsNaN(float64(r.Float)) {
			return Bool(op == "ne"), nil
		}
		return Bool(test(cmpFloat(l.Float, r.Float))), nil
	}
	return Atom{}, mismatch(op, l, r)
}

func cmpInt(a, b int32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpFloat(a, b float32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// BinaryOp is the common shape of the arithmetic and comparison functions.
type BinaryOp func(l, r Atom) (Atom, error)
