package vm

import (
	"io"

	"babyduck/internal/bytecode"
	"babyduck/internal/symbols"
)

// VM ties together the compiled program's quadruples, constants and
// function directory with a fresh CPU/Memory pair, ready to run from
// instruction 0.
type VM struct {
	cpu *CPU
}

// New builds a VM over a compiled program, writing PRINT output to stdout.
func New(quads *bytecode.QuadList, consts *symbols.ConstantsPool, funcs *symbols.FunctionDir, stdout io.Writer) (*VM, error) {
	return NewWithConsts(quads, consts.Entries(), funcs, stdout)
}

// NewWithConsts builds a VM from an already-flattened constants map, for a
// program loaded from a serialized ".bdq" artifact rather than compiled
// fresh from source.
func NewWithConsts(quads *bytecode.QuadList, consts map[bytecode.Addr]symbols.ConstantEntry, funcs *symbols.FunctionDir, stdout io.Writer) (*VM, error) {
	mem, err := NewMemory(consts, funcs)
	if err != nil {
		return nil, err
	}
	return &VM{cpu: NewCPU(quads, mem, stdout)}, nil
}

// Run executes the program to completion: halts on END_PROG.
func (v *VM) Run() error {
	return v.cpu.Run()
}
