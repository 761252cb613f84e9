package symbols

import (
	"testing"

	"babyduck/internal/bytecode"
)

func TestResultingTypeArithmeticPromotion(t *testing.T) {
	cases := []struct {
		op          bytecode.Op
		left, right bytecode.Type
		want        bytecode.Type
	}{
		{bytecode.OpAdd, bytecode.TypeInt, bytecode.TypeInt, bytecode.TypeInt},
		{bytecode.OpAdd, bytecode.TypeInt, bytecode.TypeFloat, bytecode.TypeFloat},
		{bytecode.OpAdd, bytecode.TypeFloat, bytecode.TypeFloat, bytecode.TypeFloat},
		{bytecode.OpMul, bytecode.TypeFloat, bytecode.TypeInt, bytecode.TypeFloat},
	}
	for _, tc := range cases {
		got, err := ResultingType(tc.op, tc.left, tc.right, 1)
		if err != nil {
			t.Fatalf("unexpected error for (%s,%s,%s): %v", tc.op, tc.left, tc.right, err)
		}
		if got != tc.want {
			t.Errorf("(%s,%s,%s) = %s, want %s", tc.op, tc.left, tc.right, got, tc.want)
		}
	}
}

func TestResultingTypeRelationalAlwaysInt(t *testing.T) {
	for _, op := range []bytecode.Op{bytecode.OpLT, bytecode.OpGT, bytecode.OpNE} {
		got, err := ResultingType(op, bytecode.TypeFloat, bytecode.TypeFloat, 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != bytecode.TypeInt {
			t.Errorf("relational %s should resolve to int, got %s", op, got)
		}
	}
}

func TestResultingTypeRejectsString(t *testing.T) {
	if _, err := ResultingType(bytecode.OpAdd, bytecode.TypeString, bytecode.TypeInt, 1); err == nil {
		t.Fatalf("expected an error for an operand of type string")
	}
}

func TestResultingTypeRejectsUnknownOperator(t *testing.T) {
	if _, err := ResultingType(bytecode.OpAssign, bytecode.TypeInt, bytecode.TypeInt, 1); err == nil {
		t.Fatalf("expected InvalidOperator for a non-arithmetic, non-relational operator")
	}
}
