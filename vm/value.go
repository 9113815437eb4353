package vm

import "strconv"

// Value is a runtime datum. The set of variants is closed: ints, strings
// (Unicode scalar sequences), bools, floats, the nil singleton, and the
// undefined state of a declared-but-unassigned variable.
type Value interface {
	isValue()
	TypeName() string
}

type IntValue int64

func (IntValue) isValue() {}
func (IntValue) TypeName() string {
	return "int"
}

type StrValue string

func (StrValue) isValue() {}
func (StrValue) TypeName() string {
	return "string"
}

type BoolValue bool

func (BoolValue) isValue() {}
func (BoolValue) TypeName() string {
	return "bool"
}

var (
	BoolTrue  = BoolValue(true)
	BoolFalse = BoolValue(false)
)

type FloatValue float64

func (FloatValue) isValue() {}
func (FloatValue) TypeName() string {
	return "float"
}

type NilValue struct{}

func (NilValue) isValue() {}
func (NilValue) TypeName() string {
	return "nil"
}

// Nil is the only nil value.
var Nil = NilValue{}

// UndefValue marks a slot that DEFVAR created and nothing assigned yet.
// It is not a proper value; reading it through an operand is a value fault.
type UndefValue struct{}

func (UndefValue) isValue() {}
func (UndefValue) TypeName() string {
	return ""
}

var Undef = UndefValue{}

// Format renders v the way WRITE prints it: ints in decimal, bools as
// true/false, nil as the empty string, floats in shortest 'g' form.
func Format(v Value) string {
	switch val := v.(type) {
	case IntValue:
		return strconv.FormatInt(int64(val), 10)
	case StrValue:
		return string(val)
	case BoolValue:
		if val {
			return "true"
		}
		return "false"
	case FloatValue:
		return strconv.FormatFloat(float64(val), 'g', -1, 64)
	case NilValue:
		return ""
	}
	return ""
}
