package symbols

import (
	"testing"

	"babyduck/internal/bytecode"
)

func TestFunctionDirGlobalSeeded(t *testing.T) {
	d := NewFunctionDir(bytecode.NewAddressScheme())
	if _, err := d.GetFunction(GlobalFuncName, 0); err != nil {
		t.Fatalf("expected the global pseudo-function to already exist: %v", err)
	}
}

func TestFunctionDirAddFunctionDuplicate(t *testing.T) {
	d := NewFunctionDir(bytecode.NewAddressScheme())
	if err := d.AddFunction("f", 0, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := d.AddFunction("f", 5, 2); err == nil {
		t.Fatalf("expected DuplicateFunction on redeclaration")
	}
}

func TestFunctionDirAddVarGlobalVsLocal(t *testing.T) {
	scheme := bytecode.NewAddressScheme()
	d := NewFunctionDir(scheme)
	if err := d.AddVar(GlobalFuncName, "g", bytecode.TypeInt, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d.AddFunction("f", 0, 1)
	if err := d.AddVar("f", "x", bytecode.TypeInt, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	gv, _ := d.GetVar(GlobalFuncName, "g", 1)
	lv, _ := d.GetVar("f", "x", 1)
	gSeg, _, _ := bytecode.Decode(gv.Addr)
	lSeg, _, _ := bytecode.Decode(lv.Addr)
	if gSeg != bytecode.SegmentGlobal {
		t.Errorf("expected global variable in the global segment, got %s", gSeg)
	}
	if lSeg != bytecode.SegmentLocal {
		t.Errorf("expected function variable in the local segment, got %s", lSeg)
	}
}

func TestFunctionDirGetVarFallsBackToGlobal(t *testing.T) {
	scheme := bytecode.NewAddressScheme()
	d := NewFunctionDir(scheme)
	d.AddVar(GlobalFuncName, "shared", bytecode.TypeInt, 1)
	d.AddFunction("f", 0, 1)
	if _, err := d.GetVar("f", "shared", 1); err != nil {
		t.Fatalf("expected fallback to the global scope to succeed: %v", err)
	}
}

func TestFunctionDirGetVarUndeclared(t *testing.T) {
	d := NewFunctionDir(bytecode.NewAddressScheme())
	if _, err := d.GetVar(GlobalFuncName, "missing", 1); err == nil {
		t.Fatalf("expected UndeclaredVariable")
	}
}

func TestFunctionDirValidateSignature(t *testing.T) {
	d := NewFunctionDir(bytecode.NewAddressScheme())
	d.AddFunction("f", 0, 1)
	d.AddSignatureType("f", bytecode.TypeInt, 1)
	d.AddSignatureType("f", bytecode.TypeFloat, 1)

	if err := d.ValidateSignatureArg("f", bytecode.TypeInt, 0, 1); err != nil {
		t.Errorf("expected arg 0 (int) to validate: %v", err)
	}
	if err := d.ValidateSignatureArg("f", bytecode.TypeInt, 1, 1); err == nil {
		t.Errorf("expected arg 1 (int, but float declared) to fail")
	}
	if err := d.ValidateSignatureLength("f", 2, 1); err != nil {
		t.Errorf("expected length 2 to validate: %v", err)
	}
	if err := d.ValidateSignatureLength("f", 3, 1); err == nil {
		t.Errorf("expected length 3 to fail arity check")
	}
}

func TestFunctionDirSetFrameResourcesOnce(t *testing.T) {
	d := NewFunctionDir(bytecode.NewAddressScheme())
	d.AddFunction("f", 0, 1)
	res := FrameResources{VarsInt: 2, VarsFloat: 1}
	if err := d.SetFrameResources("f", res, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fn, _ := d.GetFunction("f", 1)
	if fn.FrameResources == nil || fn.FrameResources.VarsInt != 2 {
		t.Fatalf("expected frame resources to be recorded, got %+v", fn.FrameResources)
	}
}
