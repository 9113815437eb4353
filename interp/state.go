package interp

import (
	"sort"
	"strings"

	"github.com/triasm-dev/triasm/vm"
)

// Frame is one variable scope: a mapping from identifier to value slot.
// Slots enter only through Define; a slot holds vm.Undef until assigned.
type Frame struct {
	vars map[string]vm.Value
}

func NewFrame() *Frame {
	return &Frame{vars: make(map[string]vm.Value)}
}

// Define creates an unassigned slot. Redefinition is a semantic fault.
func (f *Frame) Define(name string) error {
	if _, ok := f.vars[name]; ok {
		return vm.Faultf(vm.ClassSemantic, "variable %q already defined in this frame", name)
	}
	f.vars[name] = vm.Undef
	return nil
}

func (f *Frame) Has(name string) bool {
	_, ok := f.vars[name]
	return ok
}

// Get reads a slot. The second result is false when the slot was never
// defined; an Undef slot reads back as vm.Undef.
func (f *Frame) Get(name string) (vm.Value, bool) {
	v, ok := f.vars[name]
	return v, ok
}

// Set assigns into an existing slot; false if no such slot.
func (f *Frame) Set(name string, v vm.Value) bool {
	if _, ok := f.vars[name]; !ok {
		return false
	}
	f.vars[name] = v
	return true
}

func (f *Frame) Len() int {
	return len(f.vars)
}

// Names returns the defined identifiers in sorted order.
func (f *Frame) Names() []string {
	names := make([]string, 0, len(f.vars))
	for n := range f.vars {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Registry owns the frames: the global frame sits at the bottom of the
// local stack as a sentinel so that LF resolves to GF before the program
// pushes anything, plus the optional temporary frame.
type Registry struct {
	stack []*Frame
	temp  *Frame
}

func NewRegistry() *Registry {
	return &Registry{stack: []*Frame{NewFrame()}}
}

// Global is the frame created with the executor.
func (r *Registry) Global() *Frame {
	return r.stack[0]
}

// Local is the top of the frame stack.
func (r *Registry) Local() *Frame {
	return r.stack[len(r.stack)-1]
}

// Temp returns the temporary frame, nil when absent.
func (r *Registry) Temp() *Frame {
	return r.temp
}

// CreateTemp makes a fresh temporary frame, discarding any previous one.
func (r *Registry) CreateTemp() {
	r.temp = NewFrame()
}

// PushTemp moves the temporary frame onto the local stack and clears it.
func (r *Registry) PushTemp() error {
	if r.temp == nil {
		return vm.Faultf(vm.ClassFrame, "PUSHFRAME with no temporary frame")
	}
	r.stack = append(r.stack, r.temp)
	r.temp = nil
	return nil
}

// PopLocal moves the top local frame into the temporary slot. The global
// sentinel cannot be popped.
func (r *Registry) PopLocal() error {
	if len(r.stack) == 1 {
		return vm.Faultf(vm.ClassFrame, "POPFRAME with no local frame")
	}
	r.temp = r.stack[len(r.stack)-1]
	r.stack = r.stack[:len(r.stack)-1]
	return nil
}

// Depth is the number of frames on the local stack, the sentinel included.
func (r *Registry) Depth() int {
	return len(r.stack)
}

// Resolve maps a frame designator to the live frame it names.
func (r *Registry) Resolve(tag string) (*Frame, error) {
	switch tag {
	case "GF":
		return r.Global(), nil
	case "LF":
		return r.Local(), nil
	case "TF":
		if r.temp == nil {
			return nil, vm.Faultf(vm.ClassFrame, "TF does not exist")
		}
		return r.temp, nil
	}
	return nil, vm.Faultf(vm.ClassFrame, "unknown frame designator %q", tag)
}

// splitVarRef splits a FRAME@name lexeme. A lexeme without the separator
// never came from a well-formed program.
func splitVarRef(lexeme string) (frame, name string, err error) {
	idx := strings.Index(lexeme, "@")
	if idx < 0 {
		return "", "", vm.Faultf(vm.ClassStructure, "malformed variable reference %q", lexeme)
	}
	return lexeme[:idx], lexeme[idx+1:], nil
}

// DataStack holds operand values for PUSHS/POPS.
type DataStack []vm.Value

func (s *DataStack) Push(v vm.Value) {
	*s = append(*s, v)
}

func (s *DataStack) Pop() (vm.Value, bool) {
	if len(*s) == 0 {
		return nil, false
	}
	v := (*s)[len(*s)-1]
	*s = (*s)[:len(*s)-1]
	return v, true
}

// CallStack holds return addresses as instruction orders.
type CallStack []int

func (s *CallStack) Push(order int) {
	*s = append(*s, order)
}

func (s *CallStack) Pop() (int, bool) {
	if len(*s) == 0 {
		return 0, false
	}
	v := (*s)[len(*s)-1]
	*s = (*s)[:len(*s)-1]
	return v, true
}
