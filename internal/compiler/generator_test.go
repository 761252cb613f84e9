package compiler

import (
	"testing"

	"babyduck/internal/bytecode"
	"babyduck/internal/symbols"
)

func TestGeneratorSimpleAssignment(t *testing.T) {
	g := NewGenerator()
	g.PushInitialQuadruple()
	if err := g.Funcs().AddVar(symbols.GlobalFuncName, "x", bytecode.TypeInt, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := g.PatchPrologue(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := g.PushOperand(OperandIntLiteral, symbols.GlobalFuncName, "", 1, 0, "", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := g.PushOperator(bytecode.OpAdd, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := g.PushOperand(OperandIntLiteral, symbols.GlobalFuncName, "", 2, 0, "", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := g.PopUntilBottom(1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := g.CreateAssignmentQuadruple(symbols.GlobalFuncName, "x", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !g.StacksEmpty() {
		t.Fatalf("expected all stacks to be drained after a full assignment")
	}
	last, err := g.Quads().Last()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if last.Op != bytecode.OpAssign {
		t.Fatalf("expected the last quadruple to be an assignment, got %s", last.Op)
	}
}

func TestGeneratorPrecedenceEmitsMultiplyBeforeAdd(t *testing.T) {
	g := NewGenerator()
	g.PushInitialQuadruple()
	g.Funcs().AddVar(symbols.GlobalFuncName, "x", bytecode.TypeInt, 1)
	g.PatchPrologue()

	g.PushOperand(OperandIntLiteral, symbols.GlobalFuncName, "", 1, 0, "", 1)
	g.PushOperator(bytecode.OpAdd, 1)
	g.PushOperand(OperandIntLiteral, symbols.GlobalFuncName, "", 2, 0, "", 1)
	g.PushOperator(bytecode.OpMul, 1)
	g.PushOperand(OperandIntLiteral, symbols.GlobalFuncName, "", 3, 0, "", 1)
	g.PopUntilBottom(1)
	g.CreateAssignmentQuadruple(symbols.GlobalFuncName, "x", 1)

	dump := g.Quads().Dump()
	quads := g.Quads().All()
	var mulIdx, addIdx = -1, -1
	for i, q := range quads {
		if q.Op == bytecode.OpMul {
			mulIdx = i
		}
		if q.Op == bytecode.OpAdd {
			addIdx = i
		}
	}
	if mulIdx == -1 || addIdx == -1 || mulIdx > addIdx {
		t.Fatalf("expected * to be emitted before + (precedence), got dump:\n%s", dump)
	}
}

func TestGeneratorParenthesesOverridePrecedence(t *testing.T) {
	g := NewGenerator()
	g.PushInitialQuadruple()
	g.Funcs().AddVar(symbols.GlobalFuncName, "x", bytecode.TypeInt, 1)
	g.PatchPrologue()

	// x = (1 + 2) * 3
	g.PushFakeBottom()
	g.PushOperand(OperandIntLiteral, symbols.GlobalFuncName, "", 1, 0, "", 1)
	g.PushOperator(bytecode.OpAdd, 1)
	g.PushOperand(OperandIntLiteral, symbols.GlobalFuncName, "", 2, 0, "", 1)
	g.PopUntilFakeBottom(1)
	g.PushOperator(bytecode.OpMul, 1)
	g.PushOperand(OperandIntLiteral, symbols.GlobalFuncName, "", 3, 0, "", 1)
	g.PopUntilBottom(1)
	g.CreateAssignmentQuadruple(symbols.GlobalFuncName, "x", 1)

	quads := g.Quads().All()
	if quads[len(quads)-2].Op != bytecode.OpMul {
		t.Fatalf("expected the multiply to be the last arithmetic quadruple emitted")
	}
}

func TestGeneratorOutOfOrderOperandIsMissingOperand(t *testing.T) {
	g := NewGenerator()
	g.PushOperator(bytecode.OpAdd, 1)
	if err := g.PopUntilBottom(1); err == nil {
		t.Fatalf("expected MissingOperand when draining an operator with no operands")
	}
}

func TestGeneratorFunctionCallProtocol(t *testing.T) {
	g := NewGenerator()
	g.PushInitialQuadruple()
	if err := g.AddFunctionToDir("f", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := g.RegisterParameter("f", "n", bytecode.TypeInt, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := g.HandleFunctionEnd("f", bytecode.OpEndFunc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	g.PatchPrologue()

	g.HandleFunctionCalledStart("f")
	g.PushOperand(OperandIntLiteral, symbols.GlobalFuncName, "", 5, 0, "", 1)
	if err := g.HandleNewParam(1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := g.HandleFunctionCallFinished(1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	quads := g.Quads().All()
	var sawEra, sawParam, sawGosub bool
	for _, q := range quads {
		switch q.Op {
		case bytecode.OpEra:
			sawEra = true
		case bytecode.OpParam:
			sawParam = true
		case bytecode.OpGosub:
			sawGosub = true
		}
	}
	if !sawEra || !sawParam || !sawGosub {
		t.Fatalf("expected ERA, PARAM and GOSUB to all be emitted")
	}
}

func TestGeneratorWrongArgumentCountFails(t *testing.T) {
	g := NewGenerator()
	g.PushInitialQuadruple()
	g.AddFunctionToDir("f", 1)
	g.RegisterParameter("f", "n", bytecode.TypeInt, 1)
	g.HandleFunctionEnd("f", bytecode.OpEndFunc)
	g.PatchPrologue()

	g.HandleFunctionCalledStart("f")
	if err := g.HandleFunctionCallFinished(1); err == nil {
		t.Fatalf("expected WrongNumberOfParameters when no arguments were supplied")
	}
}
