package interp

import (
	"strconv"

	"github.com/triasm-dev/triasm/vm"
)

// symb resolves a symbol operand: a variable reference is read through the
// registry, anything else is decoded as a literal. Reading an unassigned
// slot is a value fault.
func (ex *Executor) symb(a vm.Arg) (vm.Value, error) {
	v, err := ex.symbRaw(a)
	if err != nil {
		return nil, err
	}
	if _, undef := v.(vm.UndefValue); undef {
		return nil, vm.Faultf(vm.ClassValue, "variable %q has no value", a.Lexeme)
	}
	return v, nil
}

// symbRaw is symb without the Undef check; TYPE inspects the tag only.
func (ex *Executor) symbRaw(a vm.Arg) (vm.Value, error) {
	if a.Type == vm.ArgVar {
		frame, name, err := ex.slot(a)
		if err != nil {
			return nil, err
		}
		v, _ := frame.Get(name)
		return v, nil
	}
	return literal(a)
}

// slot resolves a variable operand to its frame and an existing slot name.
func (ex *Executor) slot(a vm.Arg) (*Frame, string, error) {
	if a.Type != vm.ArgVar {
		return nil, "", vm.Faultf(vm.ClassStructure, "operand %s is not a variable", a)
	}
	frameTag, name, err := splitVarRef(a.Lexeme)
	if err != nil {
		return nil, "", err
	}
	frame, err := ex.frames.Resolve(frameTag)
	if err != nil {
		return nil, "", err
	}
	if !frame.Has(name) {
		return nil, "", vm.Faultf(vm.ClassVariable, "variable %s is not defined", a.Lexeme)
	}
	return frame, name, nil
}

// literal decodes a non-variable operand into its value.
func literal(a vm.Arg) (vm.Value, error) {
	switch a.Type {
	case vm.ArgInt:
		n, err := strconv.ParseInt(a.Lexeme, 10, 64)
		if err != nil {
			return nil, vm.Faultf(vm.ClassOperandType, "int literal %q is malformed", a.Lexeme)
		}
		return vm.IntValue(n), nil
	case vm.ArgBool:
		// The source language treats any lexeme other than true as false.
		return vm.BoolValue(a.Lexeme == "true"), nil
	case vm.ArgString:
		return vm.StrValue(a.Lexeme), nil
	case vm.ArgNil:
		return vm.Nil, nil
	case vm.ArgFloat:
		f, err := strconv.ParseFloat(a.Lexeme, 64)
		if err != nil {
			return nil, vm.Faultf(vm.ClassOperandType, "float literal %q is malformed", a.Lexeme)
		}
		return vm.FloatValue(f), nil
	}
	return nil, vm.Faultf(vm.ClassStructure, "operand %s is not a symbol", a)
}

// labelArg checks a label operand and resolves its target order.
func (ex *Executor) labelArg(a vm.Arg) (int, error) {
	if a.Type != vm.ArgLabel {
		return 0, vm.Faultf(vm.ClassStructure, "operand %s is not a label", a)
	}
	target, ok := ex.Program.Resolve(a.Lexeme)
	if !ok {
		return 0, vm.Faultf(vm.ClassSemantic, "label %q is not defined", a.Lexeme)
	}
	return target, nil
}

func asInt(v vm.Value) (int64, error) {
	n, ok := v.(vm.IntValue)
	if !ok {
		return 0, vm.Faultf(vm.ClassOperandType, "expected int, got %s", typeLabel(v))
	}
	return int64(n), nil
}

func asBool(v vm.Value) (bool, error) {
	b, ok := v.(vm.BoolValue)
	if !ok {
		return false, vm.Faultf(vm.ClassOperandType, "expected bool, got %s", typeLabel(v))
	}
	return bool(b), nil
}

func asString(v vm.Value) (string, error) {
	s, ok := v.(vm.StrValue)
	if !ok {
		return "", vm.Faultf(vm.ClassOperandType, "expected string, got %s", typeLabel(v))
	}
	return string(s), nil
}

func typeLabel(v vm.Value) string {
	if name := v.TypeName(); name != "" {
		return name
	}
	return "undefined"
}

// equalValues implements the equality relation shared by EQ and the
// conditional jumps: operand types must match unless at least one side is
// nil, and nil equals only nil.
func equalValues(a, b vm.Value) (bool, error) {
	_, aNil := a.(vm.NilValue)
	_, bNil := b.(vm.NilValue)
	if aNil || bNil {
		return aNil && bNil, nil
	}
	switch av := a.(type) {
	case vm.IntValue:
		if bv, ok := b.(vm.IntValue); ok {
			return av == bv, nil
		}
	case vm.StrValue:
		if bv, ok := b.(vm.StrValue); ok {
			return av == bv, nil
		}
	case vm.BoolValue:
		if bv, ok := b.(vm.BoolValue); ok {
			return av == bv, nil
		}
	case vm.FloatValue:
		if bv, ok := b.(vm.FloatValue); ok {
			return av == bv, nil
		}
	}
	return false, vm.Faultf(vm.ClassOperandValue, "cannot compare %s with %s", typeLabel(a), typeLabel(b))
}

// orderValues implements LT/GT: -1, 0 or 1 for matching int, string or
// bool operands. Nil on either side is rejected.
func orderValues(a, b vm.Value) (int, error) {
	switch av := a.(type) {
	case vm.IntValue:
		if bv, ok := b.(vm.IntValue); ok {
			switch {
			case av < bv:
				return -1, nil
			case av > bv:
				return 1, nil
			}
			return 0, nil
		}
	case vm.StrValue:
		if bv, ok := b.(vm.StrValue); ok {
			switch {
			case av < bv:
				return -1, nil
			case av > bv:
				return 1, nil
			}
			return 0, nil
		}
	case vm.BoolValue:
		if bv, ok := b.(vm.BoolValue); ok {
			ai, bi := 0, 0
			if av {
				ai = 1
			}
			if bv {
				bi = 1
			}
			return ai - bi, nil
		}
	case vm.NilValue:
		return 0, vm.Faultf(vm.ClassOperandValue, "nil is not ordered")
	}
	if _, ok := b.(vm.NilValue); ok {
		return 0, vm.Faultf(vm.ClassOperandValue, "nil is not ordered")
	}
	return 0, vm.Faultf(vm.ClassOperandValue, "cannot compare %s with %s", typeLabel(a), typeLabel(b))
}
