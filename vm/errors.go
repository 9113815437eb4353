package vm

import (
	"errors"
	"fmt"
)

// Class partitions interpreter faults by the process exit status they map to.
type Class int

const (
	ClassStructure    Class = 32 // malformed document shape, bad order, bad arity, unknown opcode
	ClassSemantic     Class = 52 // redefined variable, duplicate label, jump to undefined label
	ClassOperandType  Class = 53 // wrong value kind for the opcode family
	ClassVariable     Class = 54 // variable name with no DEFVAR in scope
	ClassFrame        Class = 55 // LF/TF/PUSHFRAME/POPFRAME precondition violated
	ClassValue        Class = 56 // missing value: undefined read, empty stack pop
	ClassOperandValue Class = 57 // precondition on the value itself: zero divisor, bad exit code, comparison mismatch
	ClassString       Class = 58 // string index or codepoint out of range
	ClassInternal     Class = 99 // host failure: I/O error, exhausted tick budget
)

func (c Class) String() string {
	switch c {
	case ClassStructure:
		return "structure"
	case ClassSemantic:
		return "semantic"
	case ClassOperandType:
		return "operand type"
	case ClassVariable:
		return "variable access"
	case ClassFrame:
		return "frame access"
	case ClassValue:
		return "value"
	case ClassOperandValue:
		return "operand value"
	case ClassString:
		return "string operation"
	case ClassInternal:
		return "internal"
	}
	return fmt.Sprintf("class(%d)", int(c))
}

// Fault is an interpreter error carrying its taxonomy class.
type Fault struct {
	Class Class
	Msg   string
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%s error: %s", f.Class, f.Msg)
}

func Faultf(c Class, format string, args ...any) *Fault {
	return &Fault{Class: c, Msg: fmt.Sprintf(format, args...)}
}

// Terminate is the control-flow result of a successful EXIT. It bubbles up
// through the handler like an error and the run loop interprets it; it is
// not a fault.
type Terminate struct {
	Code int
}

func (t *Terminate) Error() string {
	return fmt.Sprintf("terminated with code %d", t.Code)
}

// ExitCode maps an error from loading or execution to the process exit
// status. Terminate carries its own code; anything that is not a Fault is a
// host failure.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var t *Terminate
	if errors.As(err, &t) {
		return t.Code
	}
	var f *Fault
	if errors.As(err, &f) {
		return int(f.Class)
	}
	return int(ClassInternal)
}
