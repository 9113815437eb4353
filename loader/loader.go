// Package loader turns an XML document tree into an executable program.
// It enforces the structural rules of the source format; every violation
// aborts the load with a classed fault.
package loader

import (
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/rs/zerolog/log"

	"github.com/triasm-dev/triasm/vm"
)

// Load validates the document and builds the program: the order-indexed
// instruction table and the label table.
func Load(doc *etree.Document) (*vm.Program, error) {
	root := doc.Root()
	if root == nil {
		return nil, vm.Faultf(vm.ClassStructure, "document has no root element")
	}
	if root.Tag != "program" {
		return nil, vm.Faultf(vm.ClassStructure, "root element is %q, want \"program\"", root.Tag)
	}

	prog := vm.NewProgram()
	for _, el := range root.ChildElements() {
		if el.Tag != "instruction" {
			return nil, vm.Faultf(vm.ClassStructure, "unexpected element %q under program root", el.Tag)
		}
		in, err := parseInstruction(el)
		if err != nil {
			return nil, err
		}
		if err := prog.Add(in); err != nil {
			return nil, err
		}
		if in.Opcode == "LABEL" && len(in.Args) >= 1 {
			if err := prog.DefineLabel(in.Args[0].Lexeme, in.Order); err != nil {
				return nil, err
			}
		}
	}

	log.Debug().
		Int("instructions", prog.Len()).
		Int("last_order", prog.LastOrder()).
		Msg("program loaded")
	return prog, nil
}

// LoadReader parses XML from r and loads it. A parse failure is a
// structure fault: the document never produced a tree.
func LoadReader(r io.Reader) (*vm.Program, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, vm.Faultf(vm.ClassStructure, "malformed XML: %v", err)
	}
	return Load(doc)
}

// LoadFile opens and loads a source document from disk. Open failures are
// host errors, not faults.
func LoadFile(path string) (*vm.Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadReader(f)
}

func parseInstruction(el *etree.Element) (*vm.Instruction, error) {
	orderAttr := el.SelectAttrValue("order", "")
	if orderAttr == "" {
		return nil, vm.Faultf(vm.ClassStructure, "instruction without an order attribute")
	}
	order, err := strconv.Atoi(strings.TrimSpace(orderAttr))
	if err != nil || order < 1 {
		return nil, vm.Faultf(vm.ClassStructure, "order %q is not a positive integer", orderAttr)
	}

	opcode := el.SelectAttrValue("opcode", "")
	if opcode == "" {
		return nil, vm.Faultf(vm.ClassStructure, "instruction %d has no opcode attribute", order)
	}
	opcode = strings.ToUpper(opcode)

	var slots [3]*vm.Arg
	for _, child := range el.ChildElements() {
		idx := argSlot(child.Tag)
		if idx < 0 {
			// Mirrors the source: element children outside arg1..arg3
			// are ignored, not rejected.
			continue
		}
		if slots[idx] != nil {
			return nil, vm.Faultf(vm.ClassStructure, "instruction %d repeats %s", order, child.Tag)
		}
		arg, err := parseArg(order, child)
		if err != nil {
			return nil, err
		}
		slots[idx] = arg
	}

	var args []vm.Arg
	for i, slot := range slots {
		if slot == nil {
			// Later slots must also be empty; arg3 without arg2 is a gap.
			for _, rest := range slots[i:] {
				if rest != nil {
					return nil, vm.Faultf(vm.ClassStructure, "instruction %d skips arg%d", order, i+1)
				}
			}
			break
		}
		args = append(args, *slot)
	}

	return &vm.Instruction{Order: order, Opcode: opcode, Args: args}, nil
}

func argSlot(tag string) int {
	switch tag {
	case "arg1":
		return 0
	case "arg2":
		return 1
	case "arg3":
		return 2
	}
	return -1
}

func parseArg(order int, el *etree.Element) (*vm.Arg, error) {
	typeAttr := vm.ArgType(el.SelectAttrValue("type", ""))
	if typeAttr == "" {
		return nil, vm.Faultf(vm.ClassStructure, "instruction %d: %s has no type attribute", order, el.Tag)
	}
	if !vm.KnownArgType(typeAttr) {
		return nil, vm.Faultf(vm.ClassStructure, "instruction %d: %s has unknown type %q", order, el.Tag, typeAttr)
	}

	lexeme := strings.TrimSpace(el.Text())
	switch typeAttr {
	case vm.ArgInt:
		if _, err := strconv.ParseInt(lexeme, 10, 64); err != nil {
			return nil, vm.Faultf(vm.ClassStructure, "instruction %d: int lexeme %q is not a decimal integer", order, lexeme)
		}
	case vm.ArgFloat:
		if _, err := strconv.ParseFloat(lexeme, 64); err != nil {
			return nil, vm.Faultf(vm.ClassStructure, "instruction %d: float lexeme %q is malformed", order, lexeme)
		}
	case vm.ArgString:
		lexeme = decodeEscapes(lexeme)
	}

	return &vm.Arg{Type: typeAttr, Lexeme: lexeme}, nil
}

// decodeEscapes replaces \DDD sequences (exactly three decimal digits) by
// the codepoint they name. A backslash not followed by three digits is
// kept as-is.
func decodeEscapes(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+3 < len(s) && isDigit(s[i+1]) && isDigit(s[i+2]) && isDigit(s[i+3]) {
			code := int(s[i+1]-'0')*100 + int(s[i+2]-'0')*10 + int(s[i+3]-'0')
			b.WriteRune(rune(code))
			i += 3
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
