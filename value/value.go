// Package value defines lumen's runtime value representation: the tagged
// sum of Number, Boolean, Nil, and String.
package value

import "strconv"

// Value is implemented by exactly the four variants below. Cross-variant
// equality is always false; see Equal.
type Value interface {
	value()
	// TypeName returns the variant's name, used in runtime type-mismatch
	// diagnostics (grounded on original_source's Value::type_string).
	TypeName() string
}

type Number float64

func (Number) value()           {}
func (Number) TypeName() string { return "Number" }

type Boolean bool

func (Boolean) value()           {}
func (Boolean) TypeName() string { return "Boolean" }

// Nil is the unit value. The zero value of Nil is the only inhabitant.
type Nil struct{}

func (Nil) value()           {}
func (Nil) TypeName() string { return "Nil" }

type String string

func (String) value()           {}
func (String) TypeName() string { return "String" }

// IsTruthy implements the falsey rule: Boolean(false) and Nil are falsey,
// everything else — including Number(0) and the empty string — is truthy.
func IsTruthy(v Value) bool {
	switch vv := v.(type) {
	case Boolean:
		return bool(vv)
	case Nil:
		return false
	default:
		return true
	}
}

// Equal implements structural, typed equality: values of different
// variants are never equal.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case Number:
		bv, ok := b.(Number)
		return ok && av == bv
	case Boolean:
		bv, ok := b.(Boolean)
		return ok && av == bv
	case Nil:
		_, ok := b.(Nil)
		return ok
	case String:
		bv, ok := b.(String)
		return ok && av == bv
	default:
		return false
	}
}

// Display renders a Value the way the `print` statement writes it: numbers
// in their shortest round-tripping decimal form (no fixed precision),
// booleans as true/false, Nil as "nil", strings as their raw characters.
func Display(v Value) string {
	switch vv := v.(type) {
	case Number:
		return strconv.FormatFloat(float64(vv), 'f', -1, 64)
	case Boolean:
		if vv {
			return "true"
		}
		return "false"
	case Nil:
		return "nil"
	case String:
		return string(vv)
	default:
		return "<unknown value>"
	}
}
