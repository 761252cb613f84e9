package vm

import (
	"babyduck/internal/bytecode"
	"babyduck/internal/errors"
	"babyduck/internal/symbols"
)

// Memory is the VM's runtime address space: constants preloaded
// from the compiled constants pool, a permanent global frame, a call stack
// of function-call frames, and a "pending" frame being filled by PARAM
// quadruples between ERA and GOSUB.
type Memory struct {
	consts map[bytecode.Addr]Value
	global *ActivationRecord
	calls  *CallStack
	funcs  *symbols.FunctionDir

	pending       *ActivationRecord
	pendingFunc   string
}

// NewMemory builds a Memory preloaded from consts and funcs. funcs must
// already carry every function's frame resources (i.e. the program compiled
// cleanly through HandleFunctionEnd for every function and for global).
func NewMemory(consts map[bytecode.Addr]symbols.ConstantEntry, funcs *symbols.FunctionDir) (*Memory, error) {
	globalFn, err := funcs.GetFunction(symbols.GlobalFuncName, 0)
	if err != nil {
		return nil, err
	}
	if globalFn.FrameResources == nil {
		return nil, errors.CompilerBug("global function has no frame resources at VM start")
	}
	global := NewActivationRecord(symbols.GlobalFuncName, *globalFn.FrameResources)

	m := &Memory{
		consts: make(map[bytecode.Addr]Value, len(consts)),
		global: global,
		calls:  NewCallStack(global),
		funcs:  funcs,
	}
	for addr, entry := range consts {
		switch entry.Type {
		case bytecode.TypeInt:
			m.consts[addr] = IntValue(entry.Value.(int64))
		case bytecode.TypeFloat:
			m.consts[addr] = FloatValue(entry.Value.(float64))
		case bytecode.TypeString:
			m.consts[addr] = StringValue(entry.Value.(string))
		default:
			return nil, errors.CompilerBug("constant at address %d has unknown type", addr)
		}
	}
	return m, nil
}

// Get reads the value at addr.
func (m *Memory) Get(addr bytecode.Addr) (Value, error) {
	segment, varType, index := bytecode.Decode(addr)
	switch segment {
	case bytecode.SegmentConst:
		v, ok := m.consts[addr]
		if !ok {
			return Value{}, errors.CompilerBug("read of unset constant address %d", addr)
		}
		return v, nil
	case bytecode.SegmentGlobal:
		return m.global.Get(bytecode.SegmentLocal, varType, index)
	case bytecode.SegmentLocal, bytecode.SegmentTemp:
		return m.calls.Top().Get(segment, varType, index)
	default:
		return Value{}, errors.CompilerBug("read of address %d outside any known segment", addr)
	}
}

// Set writes value at addr.
func (m *Memory) Set(addr bytecode.Addr, value Value) error {
	segment, varType, index := bytecode.Decode(addr)
	switch segment {
	case bytecode.SegmentConst:
		return errors.CompilerBug("attempted to write constant address %d", addr)
	case bytecode.SegmentGlobal:
		return m.global.Set(bytecode.SegmentLocal, varType, index, value)
	case bytecode.SegmentLocal, bytecode.SegmentTemp:
		return m.calls.Top().Set(segment, varType, index, value)
	default:
		return errors.CompilerBug("write to address %d outside any known segment", addr)
	}
}

// PrepareCall creates a pending activation record sized for funcName's frame
// resources, staged for PARAM quadruples to fill.
func (m *Memory) PrepareCall(funcName string) error {
	fn, err := m.funcs.GetFunction(funcName, 0)
	if err != nil {
		return err
	}
	if fn.FrameResources == nil {
		return errors.CompilerBug("function %q has no frame resources", funcName)
	}
	m.pending = NewActivationRecord(funcName, *fn.FrameResources)
	m.pendingFunc = funcName
	return nil
}

// SetParam writes value into the pending record's index-th parameter slot.
// index is the call-site's overall argument position; parameters were
// allocated into the callee's local_int/local_float partitions in
// declaration order, so the slot within its own type partition is the count
// of earlier parameters sharing that type.
func (m *Memory) SetParam(index int, value Value) error {
	if m.pending == nil {
		return errors.CompilerBug("PARAM executed with no pending call")
	}
	fn, err := m.funcs.GetFunction(m.pendingFunc, 0)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(fn.Signature) {
		return errors.CompilerBug("parameter index %d out of range for %q", index, m.pendingFunc)
	}
	paramType := fn.Signature[index]
	subIndex := 0
	for _, t := range fn.Signature[:index] {
		if t == paramType {
			subIndex++
		}
	}
	return m.pending.Set(bytecode.SegmentLocal, paramType, subIndex, value)
}

// CommitCall pushes the pending record as a new call-stack entry returning
// to returnQuad, and returns the callee's entry quadruple index.
func (m *Memory) CommitCall(returnQuad int) (int, error) {
	if m.pending == nil {
		return 0, errors.CompilerBug("GOSUB executed with no pending call")
	}
	fn, err := m.funcs.GetFunction(m.pendingFunc, 0)
	if err != nil {
		return 0, err
	}
	if !fn.HasEntryQuad {
		return 0, errors.CompilerBug("function %q has no recorded entry quadruple", m.pendingFunc)
	}
	m.calls.Push(m.pendingFunc, m.pending, returnQuad)
	m.pending, m.pendingFunc = nil, ""
	return fn.EntryQuad, nil
}

// PopCall pops the current call frame and returns the quadruple index to
// resume at.
func (m *Memory) PopCall() (int, error) {
	entry, err := m.calls.Pop()
	if err != nil {
		return 0, err
	}
	return entry.returnQuad, nil
}
