package vm

import (
	"babyduck/internal/bytecode"
	"babyduck/internal/errors"
	"babyduck/internal/symbols"
)

// ActivationRecord is one call's pre-allocated storage: four typed arrays
// sized from the owning function's frame resources. The "global"
// pseudo-function gets one too — it holds top-level variables and any
// temporaries main's own expressions need, and it is never popped.
type ActivationRecord struct {
	FuncName string

	localInt   []Value
	localFloat []Value
	tempInt    []Value
	tempFloat  []Value
}

// NewActivationRecord allocates a record sized from res.
func NewActivationRecord(funcName string, res symbols.FrameResources) *ActivationRecord {
	return &ActivationRecord{
		FuncName:   funcName,
		localInt:   make([]Value, res.VarsInt),
		localFloat: make([]Value, res.VarsFloat),
		tempInt:    make([]Value, res.TempsInt),
		tempFloat:  make([]Value, res.TempsFloat),
	}
}

// slot returns the typed array backing (segment, varType), where segment is
// either SegmentLocal or SegmentTemp (SegmentGlobal is stored the same way,
// by an ActivationRecord representing the global frame).
func (ar *ActivationRecord) slot(segment bytecode.Segment, varType bytecode.Type) ([]Value, error) {
	switch {
	case segment == bytecode.SegmentTemp && varType == bytecode.TypeInt:
		return ar.tempInt, nil
	case segment == bytecode.SegmentTemp && varType == bytecode.TypeFloat:
		return ar.tempFloat, nil
	case varType == bytecode.TypeInt:
		return ar.localInt, nil
	case varType == bytecode.TypeFloat:
		return ar.localFloat, nil
	default:
		return nil, errors.CompilerBug("activation record has no partition for segment %s type %s", segment, varType)
	}
}

// Get reads (segment, varType, index) from ar.
func (ar *ActivationRecord) Get(segment bytecode.Segment, varType bytecode.Type, index int) (Value, error) {
	s, err := ar.slot(segment, varType)
	if err != nil {
		return Value{}, err
	}
	if index < 0 || index >= len(s) {
		return Value{}, errors.CompilerBug("address index %d out of range for %s/%s frame of %q", index, segment, varType, ar.FuncName)
	}
	return s[index], nil
}

// Set writes value into (segment, varType, index) of ar.
func (ar *ActivationRecord) Set(segment bytecode.Segment, varType bytecode.Type, index int, value Value) error {
	s, err := ar.slot(segment, varType)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(s) {
		return errors.CompilerBug("address index %d out of range for %s/%s frame of %q", index, segment, varType, ar.FuncName)
	}
	s[index] = value
	return nil
}
