package compiler

import (
	"testing"

	"babyduck/internal/bytecode"
)

func TestOperandStackPushPop(t *testing.T) {
	s := newOperandStack()
	s.push(bytecode.Addr(10000), bytecode.TypeInt)
	if s.empty() {
		t.Fatalf("expected a non-empty stack after push")
	}
	op, err := s.pop(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if op.addr != bytecode.Addr(10000) || op.typ != bytecode.TypeInt {
		t.Fatalf("unexpected operand: %+v", op)
	}
	if !s.empty() {
		t.Fatalf("expected an empty stack after the only push was popped")
	}
}

func TestOperandStackPopEmptyIsMissingOperand(t *testing.T) {
	s := newOperandStack()
	if _, err := s.pop(1); err == nil {
		t.Fatalf("expected MissingOperand popping an empty operand stack")
	}
}

func TestOperatorStackPeekAndPop(t *testing.T) {
	s := newOperatorStack()
	s.push(bytecode.OpAdd)
	top, ok := s.peek()
	if !ok || top != bytecode.OpAdd {
		t.Fatalf("expected to peek OpAdd, got %v, %v", top, ok)
	}
	popped, err := s.pop()
	if err != nil || popped != bytecode.OpAdd {
		t.Fatalf("unexpected pop result: %v, %v", popped, err)
	}
}

func TestJumpStackPushPop(t *testing.T) {
	s := newJumpStack()
	s.push(3)
	idx, err := s.pop()
	if err != nil || idx != 3 {
		t.Fatalf("unexpected pop result: %v, %v", idx, err)
	}
	if _, err := s.pop(); err == nil {
		t.Fatalf("expected CompilerBug popping an empty jump stack")
	}
}

func TestHasGreaterOrEqualPrecedence(t *testing.T) {
	cases := []struct {
		top, incoming bytecode.Op
		want          bool
	}{
		{bytecode.OpMul, bytecode.OpAdd, true},
		{bytecode.OpAdd, bytecode.OpMul, false},
		{bytecode.OpAdd, bytecode.OpAdd, true},
		{bytecode.FakeBottom, bytecode.OpAdd, false},
		{bytecode.OpLT, bytecode.OpNE, true},
	}
	for _, tc := range cases {
		got := hasGreaterOrEqualPrecedence(tc.top, tc.incoming)
		if got != tc.want {
			t.Errorf("hasGreaterOrEqualPrecedence(%s,%s) = %v, want %v", tc.top, tc.incoming, got, tc.want)
		}
	}
}
