// Package interp executes a loaded program: it owns the frame registry,
// the data and call stacks and the instruction pointer, and drives the
// per-opcode handlers.
package interp

import (
	"errors"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/triasm-dev/triasm/vm"
)

// Executor runs one program to completion. Ports default to the process
// streams; tests inject in-memory ones.
type Executor struct {
	Program *vm.Program

	In   Input
	Out  Output
	Diag Output

	// MaxTicks aborts runaway programs; 0 means unlimited.
	MaxTicks int

	ip     int
	jumped bool
	ticks  int
	frames *Registry
	data   DataStack
	calls  CallStack

	runID string
	log   zerolog.Logger
}

func New(prog *vm.Program) *Executor {
	ex := &Executor{
		Program: prog,
		In:      NewLineInput(os.Stdin),
		Out:     NewStreamOutput(os.Stdout),
		Diag:    NewStreamOutput(os.Stderr),
		ip:      1,
		frames:  NewRegistry(),
		runID:   uuid.NewString(),
	}
	ex.log = log.With().Str("run_id", ex.runID).Logger()
	return ex
}

// jumpTo retargets the instruction pointer and suppresses the
// post-increment for the current tick.
func (ex *Executor) jumpTo(order int) {
	ex.ip = order
	ex.jumped = true
}

// Run walks the instruction table in strictly increasing order, skipping
// missing orders, until the program ends, EXIT fires or a fault aborts it.
// The returned code is the process exit status; err is non-nil only for
// faults and host failures.
func (ex *Executor) Run() (int, error) {
	last := ex.Program.LastOrder()
	for ex.ip <= last {
		in := ex.Program.At(ex.ip)
		if in == nil {
			ex.ip++
			continue
		}
		if err := ex.exec(in); err != nil {
			var t *vm.Terminate
			if errors.As(err, &t) {
				ex.log.Debug().Int("code", t.Code).Int("ticks", ex.ticks).Msg("program exited")
				return t.Code, nil
			}
			ex.log.Debug().
				Err(err).
				Int("order", in.Order).
				Str("opcode", in.Opcode).
				Msg("aborting on fault")
			return vm.ExitCode(err), err
		}
		if ex.jumped {
			ex.jumped = false
		} else {
			ex.ip++
		}
		ex.ticks++
		if ex.MaxTicks > 0 && ex.ticks >= ex.MaxTicks {
			err := vm.Faultf(vm.ClassInternal, "tick budget of %d exhausted at order %d", ex.MaxTicks, in.Order)
			return vm.ExitCode(err), err
		}
	}
	ex.log.Debug().Int("ticks", ex.ticks).Msg("program finished")
	return 0, nil
}

func (ex *Executor) exec(in *vm.Instruction) error {
	arity, ok := vm.Arity[in.Opcode]
	if !ok {
		return vm.Faultf(vm.ClassStructure, "unknown opcode %q at order %d", in.Opcode, in.Order)
	}
	if len(in.Args) != arity {
		return vm.Faultf(vm.ClassStructure, "%s takes %d arguments, got %d at order %d",
			in.Opcode, arity, len(in.Args), in.Order)
	}

	ex.log.Trace().
		Int("ip", ex.ip).
		Str("opcode", in.Opcode).
		Int("frames", ex.frames.Depth()).
		Int("data_depth", len(ex.data)).
		Int("call_depth", len(ex.calls)).
		Msg("executing instruction")

	return opTable[in.Opcode](ex, in)
}

// Ticks is the number of instructions executed so far.
func (ex *Executor) Ticks() int {
	return ex.ticks
}
