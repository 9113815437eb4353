package interp

import (
	"fmt"
	"unicode/utf8"

	"github.com/triasm-dev/triasm/vm"
)

type handler func(*Executor, *vm.Instruction) error

// opTable is the dispatch table: one handler per opcode, looked up by the
// uppercase name the loader stored. Arity comes from vm.Arity and is
// checked before dispatch.
var opTable = map[string]handler{
	"MOVE":        opMove,
	"CREATEFRAME": opCreateFrame,
	"PUSHFRAME":   opPushFrame,
	"POPFRAME":    opPopFrame,
	"DEFVAR":      opDefVar,

	"CALL":      opCall,
	"RETURN":    opReturn,
	"LABEL":     opLabel,
	"JUMP":      opJump,
	"JUMPIFEQ":  opJumpIfEq,
	"JUMPIFNEQ": opJumpIfNeq,

	"PUSHS": opPushS,
	"POPS":  opPopS,

	"ADD":  opArith,
	"SUB":  opArith,
	"MUL":  opArith,
	"IDIV": opArith,

	"LT": opCompare,
	"GT": opCompare,
	"EQ": opEq,

	"AND": opAndOr,
	"OR":  opAndOr,
	"NOT": opNot,

	"INT2CHAR": opInt2Char,
	"STRI2INT": opStri2Int,

	"READ":  opRead,
	"WRITE": opWrite,

	"CONCAT":  opConcat,
	"STRLEN":  opStrLen,
	"GETCHAR": opGetChar,
	"SETCHAR": opSetChar,

	"TYPE":   opType,
	"DPRINT": opDPrint,
	"BREAK":  opBreak,

	"EXIT": opExit,
}

// assign writes a value into the destination variable of in.Args[0].
func (ex *Executor) assign(a vm.Arg, v vm.Value) error {
	frame, name, err := ex.slot(a)
	if err != nil {
		return err
	}
	frame.Set(name, v)
	return nil
}

func opMove(ex *Executor, in *vm.Instruction) error {
	v, err := ex.symb(in.Args[1])
	if err != nil {
		return err
	}
	return ex.assign(in.Args[0], v)
}

func opCreateFrame(ex *Executor, in *vm.Instruction) error {
	ex.frames.CreateTemp()
	return nil
}

func opPushFrame(ex *Executor, in *vm.Instruction) error {
	return ex.frames.PushTemp()
}

func opPopFrame(ex *Executor, in *vm.Instruction) error {
	return ex.frames.PopLocal()
}

func opDefVar(ex *Executor, in *vm.Instruction) error {
	a := in.Args[0]
	if a.Type != vm.ArgVar {
		return vm.Faultf(vm.ClassStructure, "operand %s is not a variable", a)
	}
	frameTag, name, err := splitVarRef(a.Lexeme)
	if err != nil {
		return err
	}
	frame, err := ex.frames.Resolve(frameTag)
	if err != nil {
		return err
	}
	return frame.Define(name)
}

func opCall(ex *Executor, in *vm.Instruction) error {
	target, err := ex.labelArg(in.Args[0])
	if err != nil {
		return err
	}
	ex.calls.Push(ex.ip + 1)
	ex.jumpTo(target)
	return nil
}

func opReturn(ex *Executor, in *vm.Instruction) error {
	addr, ok := ex.calls.Pop()
	if !ok {
		return vm.Faultf(vm.ClassValue, "RETURN with an empty call stack")
	}
	ex.jumpTo(addr)
	return nil
}

func opLabel(ex *Executor, in *vm.Instruction) error {
	return nil
}

func opJump(ex *Executor, in *vm.Instruction) error {
	target, err := ex.labelArg(in.Args[0])
	if err != nil {
		return err
	}
	ex.jumpTo(target)
	return nil
}

func opJumpIfEq(ex *Executor, in *vm.Instruction) error {
	return conditionalJump(ex, in, true)
}

func opJumpIfNeq(ex *Executor, in *vm.Instruction) error {
	return conditionalJump(ex, in, false)
}

func conditionalJump(ex *Executor, in *vm.Instruction, want bool) error {
	// The label must resolve even when the branch is not taken.
	target, err := ex.labelArg(in.Args[0])
	if err != nil {
		return err
	}
	a, err := ex.symb(in.Args[1])
	if err != nil {
		return err
	}
	b, err := ex.symb(in.Args[2])
	if err != nil {
		return err
	}
	eq, err := equalValues(a, b)
	if err != nil {
		return err
	}
	if eq == want {
		ex.jumpTo(target)
	}
	return nil
}

func opPushS(ex *Executor, in *vm.Instruction) error {
	v, err := ex.symb(in.Args[0])
	if err != nil {
		return err
	}
	ex.data.Push(v)
	return nil
}

func opPopS(ex *Executor, in *vm.Instruction) error {
	v, ok := ex.data.Pop()
	if !ok {
		return vm.Faultf(vm.ClassValue, "POPS with an empty data stack")
	}
	return ex.assign(in.Args[0], v)
}

func opArith(ex *Executor, in *vm.Instruction) error {
	av, err := ex.symb(in.Args[1])
	if err != nil {
		return err
	}
	bv, err := ex.symb(in.Args[2])
	if err != nil {
		return err
	}
	a, err := asInt(av)
	if err != nil {
		return err
	}
	b, err := asInt(bv)
	if err != nil {
		return err
	}
	var result int64
	switch in.Opcode {
	case "ADD":
		result = a + b
	case "SUB":
		result = a - b
	case "MUL":
		result = a * b
	case "IDIV":
		if b == 0 {
			return vm.Faultf(vm.ClassOperandValue, "division by zero")
		}
		// Go's integer division truncates toward zero.
		result = a / b
	}
	return ex.assign(in.Args[0], vm.IntValue(result))
}

func opCompare(ex *Executor, in *vm.Instruction) error {
	a, err := ex.symb(in.Args[1])
	if err != nil {
		return err
	}
	b, err := ex.symb(in.Args[2])
	if err != nil {
		return err
	}
	cmp, err := orderValues(a, b)
	if err != nil {
		return err
	}
	var result bool
	if in.Opcode == "LT" {
		result = cmp < 0
	} else {
		result = cmp > 0
	}
	return ex.assign(in.Args[0], vm.BoolValue(result))
}

func opEq(ex *Executor, in *vm.Instruction) error {
	a, err := ex.symb(in.Args[1])
	if err != nil {
		return err
	}
	b, err := ex.symb(in.Args[2])
	if err != nil {
		return err
	}
	eq, err := equalValues(a, b)
	if err != nil {
		return err
	}
	return ex.assign(in.Args[0], vm.BoolValue(eq))
}

func opAndOr(ex *Executor, in *vm.Instruction) error {
	av, err := ex.symb(in.Args[1])
	if err != nil {
		return err
	}
	bv, err := ex.symb(in.Args[2])
	if err != nil {
		return err
	}
	a, err := asBool(av)
	if err != nil {
		return err
	}
	b, err := asBool(bv)
	if err != nil {
		return err
	}
	var result bool
	if in.Opcode == "AND" {
		result = a && b
	} else {
		result = a || b
	}
	return ex.assign(in.Args[0], vm.BoolValue(result))
}

func opNot(ex *Executor, in *vm.Instruction) error {
	av, err := ex.symb(in.Args[1])
	if err != nil {
		return err
	}
	a, err := asBool(av)
	if err != nil {
		return err
	}
	return ex.assign(in.Args[0], vm.BoolValue(!a))
}

func opInt2Char(ex *Executor, in *vm.Instruction) error {
	av, err := ex.symb(in.Args[1])
	if err != nil {
		return err
	}
	n, err := asInt(av)
	if err != nil {
		return err
	}
	if n < 0 || n > utf8.MaxRune {
		return vm.Faultf(vm.ClassString, "codepoint %d out of Unicode range", n)
	}
	return ex.assign(in.Args[0], vm.StrValue(string(rune(n))))
}

func opStri2Int(ex *Executor, in *vm.Instruction) error {
	sv, err := ex.symb(in.Args[1])
	if err != nil {
		return err
	}
	iv, err := ex.symb(in.Args[2])
	if err != nil {
		return err
	}
	s, err := asString(sv)
	if err != nil {
		return err
	}
	i, err := asInt(iv)
	if err != nil {
		return err
	}
	runes := []rune(s)
	if i < 0 || i >= int64(len(runes)) {
		return vm.Faultf(vm.ClassString, "index %d out of range for string of length %d", i, len(runes))
	}
	return ex.assign(in.Args[0], vm.IntValue(runes[i]))
}

func opRead(ex *Executor, in *vm.Instruction) error {
	typeArg := in.Args[1]
	if typeArg.Type != vm.ArgTypeName {
		return vm.Faultf(vm.ClassStructure, "operand %s is not a type name", typeArg)
	}
	var v vm.Value
	switch typeArg.Lexeme {
	case "int":
		if n, ok := ex.In.ReadInt(); ok {
			v = vm.IntValue(n)
		}
	case "string":
		if s, ok := ex.In.ReadString(); ok {
			v = vm.StrValue(s)
		}
	case "bool":
		if b, ok := ex.In.ReadBool(); ok {
			v = vm.BoolValue(b)
		}
	case "float":
		if f, ok := ex.In.ReadFloat(); ok {
			v = vm.FloatValue(f)
		}
	default:
		return vm.Faultf(vm.ClassStructure, "READ cannot produce type %q", typeArg.Lexeme)
	}
	if v == nil {
		v = vm.Nil
	}
	return ex.assign(in.Args[0], v)
}

func opWrite(ex *Executor, in *vm.Instruction) error {
	v, err := ex.symb(in.Args[0])
	if err != nil {
		return err
	}
	return ex.writeValue(ex.Out, v)
}

func (ex *Executor) writeValue(out Output, v vm.Value) error {
	var err error
	switch val := v.(type) {
	case vm.IntValue:
		err = out.WriteInt(int64(val))
	case vm.StrValue:
		err = out.WriteString(string(val))
	case vm.BoolValue:
		err = out.WriteBool(bool(val))
	case vm.FloatValue:
		err = out.WriteFloat(float64(val))
	case vm.NilValue:
		err = out.WriteString("")
	default:
		return vm.Faultf(vm.ClassValue, "value of type %s cannot be written", typeLabel(v))
	}
	if err != nil {
		return vm.Faultf(vm.ClassInternal, "write failed: %v", err)
	}
	return nil
}

func opConcat(ex *Executor, in *vm.Instruction) error {
	av, err := ex.symb(in.Args[1])
	if err != nil {
		return err
	}
	bv, err := ex.symb(in.Args[2])
	if err != nil {
		return err
	}
	a, err := asString(av)
	if err != nil {
		return err
	}
	b, err := asString(bv)
	if err != nil {
		return err
	}
	return ex.assign(in.Args[0], vm.StrValue(a+b))
}

func opStrLen(ex *Executor, in *vm.Instruction) error {
	sv, err := ex.symb(in.Args[1])
	if err != nil {
		return err
	}
	s, err := asString(sv)
	if err != nil {
		return err
	}
	return ex.assign(in.Args[0], vm.IntValue(int64(len([]rune(s)))))
}

func opGetChar(ex *Executor, in *vm.Instruction) error {
	sv, err := ex.symb(in.Args[1])
	if err != nil {
		return err
	}
	iv, err := ex.symb(in.Args[2])
	if err != nil {
		return err
	}
	s, err := asString(sv)
	if err != nil {
		return err
	}
	i, err := asInt(iv)
	if err != nil {
		return err
	}
	runes := []rune(s)
	if i < 0 || i >= int64(len(runes)) {
		return vm.Faultf(vm.ClassString, "index %d out of range for string of length %d", i, len(runes))
	}
	return ex.assign(in.Args[0], vm.StrValue(string(runes[i])))
}

func opSetChar(ex *Executor, in *vm.Instruction) error {
	// The destination doubles as the first operand: its current value
	// must be a string.
	cur, err := ex.symb(in.Args[0])
	if err != nil {
		return err
	}
	s, err := asString(cur)
	if err != nil {
		return err
	}
	iv, err := ex.symb(in.Args[1])
	if err != nil {
		return err
	}
	rv, err := ex.symb(in.Args[2])
	if err != nil {
		return err
	}
	i, err := asInt(iv)
	if err != nil {
		return err
	}
	repl, err := asString(rv)
	if err != nil {
		return err
	}
	replRunes := []rune(repl)
	if len(replRunes) == 0 {
		return vm.Faultf(vm.ClassString, "SETCHAR with an empty replacement")
	}
	runes := []rune(s)
	if i < 0 || i >= int64(len(runes)) {
		return vm.Faultf(vm.ClassString, "index %d out of range for string of length %d", i, len(runes))
	}
	runes[i] = replRunes[0]
	return ex.assign(in.Args[0], vm.StrValue(string(runes)))
}

func opType(ex *Executor, in *vm.Instruction) error {
	v, err := ex.symbRaw(in.Args[1])
	if err != nil {
		return err
	}
	return ex.assign(in.Args[0], vm.StrValue(v.TypeName()))
}

func opDPrint(ex *Executor, in *vm.Instruction) error {
	v, err := ex.symb(in.Args[0])
	if err != nil {
		return err
	}
	return ex.writeValue(ex.Diag, v)
}

func opBreak(ex *Executor, in *vm.Instruction) error {
	snap := ex.Snapshot()
	fp, err := snap.Fingerprint()
	if err != nil {
		return vm.Faultf(vm.ClassInternal, "state fingerprint: %v", err)
	}
	line := fmt.Sprintf(
		"break: ip=%d ticks=%d frames=%d temp=%t data=%d calls=%d state=%016x\n",
		ex.ip, ex.ticks, ex.frames.Depth(), ex.frames.Temp() != nil,
		len(ex.data), len(ex.calls), fp,
	)
	if err := ex.Diag.WriteString(line); err != nil {
		return vm.Faultf(vm.ClassInternal, "write failed: %v", err)
	}
	return nil
}

func opExit(ex *Executor, in *vm.Instruction) error {
	v, err := ex.symb(in.Args[0])
	if err != nil {
		return err
	}
	code, err := asInt(v)
	if err != nil {
		return err
	}
	if code < 0 || code > 9 {
		return vm.Faultf(vm.ClassOperandValue, "exit code %d out of range [0, 9]", code)
	}
	return &vm.Terminate{Code: int(code)}
}
