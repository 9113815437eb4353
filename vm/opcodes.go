package vm

// Arity maps every opcode to its required argument count. Membership in
// this table is what makes an opcode known; arity itself is checked at
// execute time, not by the loader.
var Arity = map[string]int{
	"MOVE":        2,
	"CREATEFRAME": 0,
	"PUSHFRAME":   0,
	"POPFRAME":    0,
	"DEFVAR":      1,

	"CALL":       1,
	"RETURN":     0,
	"LABEL":      1,
	"JUMP":       1,
	"JUMPIFEQ":   3,
	"JUMPIFNEQ":  3,

	"PUSHS": 1,
	"POPS":  1,

	"ADD":  3,
	"SUB":  3,
	"MUL":  3,
	"IDIV": 3,

	"LT": 3,
	"GT": 3,
	"EQ": 3,

	"AND": 3,
	"OR":  3,
	"NOT": 2,

	"INT2CHAR": 2,
	"STRI2INT": 3,

	"READ":  2,
	"WRITE": 1,

	"CONCAT":  3,
	"STRLEN":  2,
	"GETCHAR": 3,
	"SETCHAR": 3,

	"TYPE":   2,
	"DPRINT": 1,
	"BREAK":  0,

	"EXIT": 1,
}

// Known reports whether op names an opcode.
func Known(op string) bool {
	_, ok := Arity[op]
	return ok
}
