package symbols

import (
	"fmt"
	"strings"

	"babyduck/internal/bytecode"
	"babyduck/internal/errors"
)

// GlobalFuncName is the pseudo-function owning top-level variables.
const GlobalFuncName = "global"

// FrameResources are the final per-type counters captured when a function
// body ends: how many int/float locals and int/float temporaries its
// activation record must reserve.
type FrameResources struct {
	VarsInt, VarsFloat   int
	TempsInt, TempsFloat int
}

// FrameResourcesFromSnapshots builds a FrameResources from the address
// scheme's local/temp snapshots at function end.
func FrameResourcesFromSnapshots(locals, temps map[bytecode.Type]int) FrameResources {
	return FrameResources{
		VarsInt:    locals[bytecode.TypeInt],
		VarsFloat:  locals[bytecode.TypeFloat],
		TempsInt:   temps[bytecode.TypeInt],
		TempsFloat: temps[bytecode.TypeFloat],
	}
}

// Function is a function directory entry: its kind (always void — Babyduck
// has no return-value protocol), variable table, entry quadruple index,
// parameter signature and frame resources.
type Function struct {
	Name           string
	EntryQuad      int // meaningful only when HasEntryQuad is set; global has none
	HasEntryQuad   bool
	Vars           *VarTable
	Signature      []bytecode.Type
	FrameResources *FrameResources
}

// FunctionDir is the compiler's function directory. It always contains a
// "global" pseudo-function from construction.
type FunctionDir struct {
	scheme *bytecode.AddressScheme
	byName map[string]*Function
}

// NewFunctionDir returns a directory seeded with the global pseudo-function,
// whose variables are allocated from scheme's global segment.
func NewFunctionDir(scheme *bytecode.AddressScheme) *FunctionDir {
	d := &FunctionDir{scheme: scheme, byName: make(map[string]*Function)}
	d.byName[GlobalFuncName] = &Function{Name: GlobalFuncName, Vars: NewVarTable()}
	return d
}

// AddFunction registers a new void function with its program-prologue-
// relative entry quad index. Fails with DuplicateFunction if name exists.
func (d *FunctionDir) AddFunction(name string, entryQuad int, line int) error {
	if _, ok := d.byName[name]; ok {
		return errors.DuplicateFunction(name, line)
	}
	d.byName[name] = &Function{Name: name, EntryQuad: entryQuad, HasEntryQuad: true, Vars: NewVarTable()}
	return nil
}

// AddVar allocates an address for (name, varType) in scope's segment
// (global for the global scope, local otherwise) and records it in scope's
// variable table. Fails with DuplicateVariable or OutOfMemory.
func (d *FunctionDir) AddVar(scope, name string, varType bytecode.Type, line int) error {
	fn, err := d.GetFunction(scope, line)
	if err != nil {
		return err
	}
	segment := bytecode.SegmentLocal
	if scope == GlobalFuncName {
		segment = bytecode.SegmentGlobal
	}
	addr, err := d.scheme.NewAddr(segment, varType)
	if err != nil {
		return err
	}
	if err := fn.Vars.Add(name, varType, addr); err != nil {
		if be, ok := err.(*errors.BabyduckError); ok {
			be.Line = line
		}
		return err
	}
	return nil
}

// AddSignatureType appends varType to the function's parameter signature,
// in declaration order.
func (d *FunctionDir) AddSignatureType(name string, varType bytecode.Type, line int) error {
	fn, err := d.GetFunction(name, line)
	if err != nil {
		return err
	}
	fn.Signature = append(fn.Signature, varType)
	return nil
}

// SetFrameResources fixes fn's frame resources. This must happen exactly
// once, at END_FUNC, and never again.
func (d *FunctionDir) SetFrameResources(name string, res FrameResources, line int) error {
	fn, err := d.GetFunction(name, line)
	if err != nil {
		return err
	}
	fn.FrameResources = &res
	return nil
}

// GetFunction returns the function entry for name, or UndeclaredFunction.
func (d *FunctionDir) GetFunction(name string, line int) (*Function, error) {
	fn, ok := d.byName[name]
	if !ok {
		return nil, errors.UndeclaredFunction(name, line)
	}
	return fn, nil
}

// GetVar looks up name in scope, falling back to the global scope, failing
// with UndeclaredVariable if neither has it.
func (d *FunctionDir) GetVar(scope, name string, line int) (Var, error) {
	fn, err := d.GetFunction(scope, line)
	if err != nil {
		return Var{}, err
	}
	if v, ok := fn.Vars.Lookup(name); ok {
		return v, nil
	}
	if scope != GlobalFuncName {
		global := d.byName[GlobalFuncName]
		if v, ok := global.Vars.Lookup(name); ok {
			return v, nil
		}
	}
	return Var{}, errors.UndeclaredVariable(name, line)
}

// ValidateSignatureArg checks a call-site argument at position index
// against name's declared signature.
func (d *FunctionDir) ValidateSignatureArg(name string, argType bytecode.Type, index int, line int) error {
	fn, err := d.GetFunction(name, line)
	if err != nil {
		return err
	}
	if index >= len(fn.Signature) {
		return errors.WrongNumberOfParameters(name, len(fn.Signature), index+1, line)
	}
	if fn.Signature[index] != argType {
		return errors.InvalidParameterType(name, fn.Signature[index].String(), argType.String(), line)
	}
	return nil
}

// ValidateSignatureLength checks the final argument count of a call site
// against name's declared signature length.
func (d *FunctionDir) ValidateSignatureLength(name string, count int, line int) error {
	fn, err := d.GetFunction(name, line)
	if err != nil {
		return err
	}
	if len(fn.Signature) != count {
		return errors.WrongNumberOfParameters(name, len(fn.Signature), count, line)
	}
	return nil
}

// Functions returns every directory entry, for dumps and for loading the VM.
func (d *FunctionDir) Functions() map[string]*Function {
	out := make(map[string]*Function, len(d.byName))
	for k, v := range d.byName {
		out[k] = v
	}
	return out
}

// Dump renders a readable table of every function's signature and frame
// sizing.
func (d *FunctionDir) Dump() string {
	var sb strings.Builder
	sb.WriteString("Function Directory\n")
	for name, fn := range d.byName {
		vi, vf, ti, tf := 0, 0, 0, 0
		if fn.FrameResources != nil {
			vi, vf, ti, tf = fn.FrameResources.VarsInt, fn.FrameResources.VarsFloat, fn.FrameResources.TempsInt, fn.FrameResources.TempsFloat
		}
		sig := make([]string, len(fn.Signature))
		for i, t := range fn.Signature {
			sig[i] = t.String()
		}
		fmt.Fprintf(&sb, "  %-16s entry=%-4d vars(int/float)=%d/%d temps(int/float)=%d/%d sig=(%s)\n",
			name, fn.EntryQuad, vi, vf, ti, tf, strings.Join(sig, ", "))
	}
	return sb.String()
}
