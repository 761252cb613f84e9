// Package driver wires the lexer, parser and VM into the single entry point
// the CLI and the golden test runner use: compile source text to a Program,
// then execute it.
package driver

import (
	"io"
	"os"

	"babyduck/internal/bytecode"
	"babyduck/internal/lexer"
	"babyduck/internal/parser"
	"babyduck/internal/symbols"
	"babyduck/internal/vm"
)

// Program is a fully compiled Babyduck program: the quadruple list, the
// constants pool and the function directory, everything a VM needs to run
// it or a debugger needs to inspect it.
type Program struct {
	Quads *bytecode.QuadList
	Funcs *symbols.FunctionDir
	Const *symbols.ConstantsPool
}

// Compile lexes and parses source, returning the compiled Program or the
// first error encountered in either phase.
func Compile(source string) (*Program, error) {
	scanner := lexer.NewScanner(source)
	tokens := scanner.ScanTokens()
	if scanErr := scanner.Err(); scanErr != nil {
		return nil, scanErr
	}
	gen, err := parser.New(tokens).Parse()
	if err != nil {
		return nil, err
	}
	return &Program{Quads: gen.Quads(), Funcs: gen.Funcs(), Const: gen.Consts()}, nil
}

// Run compiles source and executes it, writing PRINT output to stdout.
func Run(source string, stdout io.Writer) error {
	prog, err := Compile(source)
	if err != nil {
		return err
	}
	return prog.Run(stdout)
}

// Run executes an already-compiled program.
func (p *Program) Run(stdout io.Writer) error {
	machine, err := vm.New(p.Quads, p.Const, p.Funcs, stdout)
	if err != nil {
		return err
	}
	return machine.Run()
}

// RunFile reads path and runs it against os.Stdout — the shape cmd/babyduck
// calls directly for `babyduck run <file>`.
func RunFile(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return Run(string(src), os.Stdout)
}
