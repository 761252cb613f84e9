package symbols

import (
	"testing"

	"babyduck/internal/bytecode"
)

func TestVarTableAddAndLookup(t *testing.T) {
	vt := NewVarTable()
	if err := vt.Add("x", bytecode.TypeInt, bytecode.Addr(10000)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, ok := vt.Lookup("x")
	if !ok || v.Type != bytecode.TypeInt {
		t.Fatalf("expected to find x as int, got %+v, %v", v, ok)
	}
}

func TestVarTableDuplicate(t *testing.T) {
	vt := NewVarTable()
	vt.Add("x", bytecode.TypeInt, bytecode.Addr(10000))
	if err := vt.Add("x", bytecode.TypeFloat, bytecode.Addr(12000)); err == nil {
		t.Fatalf("expected DuplicateVariable on redeclaration")
	}
}

func TestVarTableInsertionOrder(t *testing.T) {
	vt := NewVarTable()
	vt.Add("b", bytecode.TypeInt, bytecode.Addr(10000))
	vt.Add("a", bytecode.TypeInt, bytecode.Addr(10001))
	vars := vt.Vars()
	if len(vars) != 2 || vars[0].Name != "b" || vars[1].Name != "a" {
		t.Fatalf("expected insertion order [b, a], got %+v", vars)
	}
}
