// Package symbols holds the compiler's symbol tables: per-scope variable
// tables, the deduplicated constants pool, the function directory and the
// semantic cube. Small, single-purpose types with explicit error returns.
package symbols

import (
	"babyduck/internal/bytecode"
	"babyduck/internal/errors"
)

// Var is a declared variable: its name, type and allocated address.
type Var struct {
	Name string
	Type bytecode.Type
	Addr bytecode.Addr
}

// VarTable maps names to Var entries within a single scope (one per
// function, plus one for the implicit global scope). Iteration order is
// insertion order — used only by Dump.
type VarTable struct {
	order []string
	byName map[string]Var
}

// NewVarTable returns an empty variable table.
func NewVarTable() *VarTable {
	return &VarTable{byName: make(map[string]Var)}
}

// Add records a new variable. It fails with DuplicateVariable if name is
// already present in this table.
func (t *VarTable) Add(name string, varType bytecode.Type, addr bytecode.Addr) error {
	if _, ok := t.byName[name]; ok {
		return errors.DuplicateVariable(name, 0)
	}
	t.byName[name] = Var{Name: name, Type: varType, Addr: addr}
	t.order = append(t.order, name)
	return nil
}

// Lookup returns the entry for name and whether it was found.
func (t *VarTable) Lookup(name string) (Var, bool) {
	v, ok := t.byName[name]
	return v, ok
}

// Vars returns every declared variable in insertion order.
func (t *VarTable) Vars() []Var {
	out := make([]Var, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, t.byName[name])
	}
	return out
}
