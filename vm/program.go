package vm

import (
	"fmt"
	"sort"
	"strings"
)

// ArgType is the type tag attached to an instruction argument in the
// source document.
type ArgType string

const (
	ArgInt      ArgType = "int"
	ArgString   ArgType = "string"
	ArgBool     ArgType = "bool"
	ArgNil      ArgType = "nil"
	ArgFloat    ArgType = "float"
	ArgVar      ArgType = "var"
	ArgLabel    ArgType = "label"
	ArgTypeName ArgType = "type"
)

// KnownArgType reports whether t is one of the document's type tags.
func KnownArgType(t ArgType) bool {
	switch t {
	case ArgInt, ArgString, ArgBool, ArgNil, ArgFloat, ArgVar, ArgLabel, ArgTypeName:
		return true
	}
	return false
}

// Arg is one decoded instruction argument: a type tag plus its lexeme.
type Arg struct {
	Type   ArgType
	Lexeme string
}

func (a Arg) String() string {
	return fmt.Sprintf("%s@%s", a.Type, a.Lexeme)
}

// Instruction is one numbered three-address instruction.
type Instruction struct {
	Order  int
	Opcode string
	Args   []Arg
}

func (in *Instruction) String() string {
	parts := make([]string, 0, len(in.Args)+1)
	parts = append(parts, in.Opcode)
	for _, a := range in.Args {
		parts = append(parts, a.String())
	}
	return fmt.Sprintf("%d: %s", in.Order, strings.Join(parts, " "))
}

// Program is the loaded form of a source document: instructions indexed by
// their order, plus the label table. Orders are unique but need not be
// contiguous; execution walks strictly increasing orders and skips gaps.
type Program struct {
	instrs    map[int]*Instruction
	labels    map[string]int
	lastOrder int
}

func NewProgram() *Program {
	return &Program{
		instrs: make(map[int]*Instruction),
		labels: make(map[string]int),
	}
}

// Add inserts an instruction. Reusing an order is a structure fault.
func (p *Program) Add(in *Instruction) error {
	if prev, ok := p.instrs[in.Order]; ok {
		return Faultf(ClassStructure, "order %d used by both %s and %s", in.Order, prev.Opcode, in.Opcode)
	}
	p.instrs[in.Order] = in
	if in.Order > p.lastOrder {
		p.lastOrder = in.Order
	}
	return nil
}

// DefineLabel binds a label name to an instruction order. The table is
// injective; a collision is a semantic fault.
func (p *Program) DefineLabel(name string, order int) error {
	if prev, ok := p.labels[name]; ok {
		return Faultf(ClassSemantic, "label %q defined at order %d and again at %d", name, prev, order)
	}
	p.labels[name] = order
	return nil
}

// At returns the instruction with the given order, or nil.
func (p *Program) At(order int) *Instruction {
	return p.instrs[order]
}

// Resolve looks up a label's target order.
func (p *Program) Resolve(label string) (int, bool) {
	order, ok := p.labels[label]
	return order, ok
}

// LastOrder is the highest order in the program, 0 when empty.
func (p *Program) LastOrder() int {
	return p.lastOrder
}

// Len is the number of instructions.
func (p *Program) Len() int {
	return len(p.instrs)
}

func (p *Program) DebugPrint() {
	orders := make([]int, 0, len(p.instrs))
	for o := range p.instrs {
		orders = append(orders, o)
	}
	sort.Ints(orders)
	for _, o := range orders {
		fmt.Printf("  %s\n", p.instrs[o])
	}
	if len(p.labels) > 0 {
		fmt.Printf("Labels: %v\n", p.labels)
	}
}
