package interp

import (
	"bytes"
	"io"

	"github.com/dgryski/go-farm"
	"github.com/shamaton/msgpack/v2"

	"github.com/triasm-dev/triasm/vm"
)

// SnapValue is the serializable form of a runtime value. The tag decides
// which payload field is live; undefined slots carry the tag "undef".
type SnapValue struct {
	Type  string
	Int   int64
	Str   string
	Bool  bool
	Float float64
}

func snapValue(v vm.Value) SnapValue {
	switch val := v.(type) {
	case vm.IntValue:
		return SnapValue{Type: "int", Int: int64(val)}
	case vm.StrValue:
		return SnapValue{Type: "string", Str: string(val)}
	case vm.BoolValue:
		return SnapValue{Type: "bool", Bool: bool(val)}
	case vm.FloatValue:
		return SnapValue{Type: "float", Float: float64(val)}
	case vm.NilValue:
		return SnapValue{Type: "nil"}
	}
	return SnapValue{Type: "undef"}
}

// Value converts back to the runtime representation.
func (sv SnapValue) Value() vm.Value {
	switch sv.Type {
	case "int":
		return vm.IntValue(sv.Int)
	case "string":
		return vm.StrValue(sv.Str)
	case "bool":
		return vm.BoolValue(sv.Bool)
	case "float":
		return vm.FloatValue(sv.Float)
	case "nil":
		return vm.Nil
	}
	return vm.Undef
}

type VarEntry struct {
	Name  string
	Value SnapValue
}

type SnapFrame struct {
	Vars []VarEntry
}

func snapFrame(f *Frame) SnapFrame {
	out := SnapFrame{Vars: make([]VarEntry, 0, f.Len())}
	for _, name := range f.Names() {
		v, _ := f.Get(name)
		out.Vars = append(out.Vars, VarEntry{Name: name, Value: snapValue(v)})
	}
	return out
}

// Snapshot is a deterministic capture of the executor's runtime state:
// variable entries are sorted, so identical states encode to identical
// bytes regardless of map iteration order.
type Snapshot struct {
	IP     int
	Ticks  int
	Frames []SnapFrame // index 0 is the global frame
	Temp   *SnapFrame
	Data   []SnapValue
	Calls  []int
}

// Snapshot captures the current state.
func (ex *Executor) Snapshot() *Snapshot {
	s := &Snapshot{
		IP:    ex.ip,
		Ticks: ex.ticks,
	}
	for _, f := range ex.frames.stack {
		s.Frames = append(s.Frames, snapFrame(f))
	}
	if t := ex.frames.Temp(); t != nil {
		sf := snapFrame(t)
		s.Temp = &sf
	}
	for _, v := range ex.data {
		s.Data = append(s.Data, snapValue(v))
	}
	s.Calls = append(s.Calls, ex.calls...)
	return s
}

func (s *Snapshot) Serialize(w io.Writer) error {
	return msgpack.MarshalWrite(w, s)
}

func (s *Snapshot) Deserialize(r io.Reader) error {
	return msgpack.UnmarshalRead(r, s)
}

// Fingerprint hashes the encoded snapshot. Equal states yield equal
// fingerprints; BREAK prints it and tests use it for the determinism
// property.
func (s *Snapshot) Fingerprint() (uint64, error) {
	var buf bytes.Buffer
	if err := s.Serialize(&buf); err != nil {
		return 0, err
	}
	return farm.Fingerprint64(buf.Bytes()), nil
}
