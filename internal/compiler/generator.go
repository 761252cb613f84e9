package compiler

import (
	"babyduck/internal/bytecode"
	"babyduck/internal/errors"
	"babyduck/internal/symbols"
)

// OperandKind distinguishes the four operand shapes push_operand accepts:
// a declared identifier, or one of the three literal kinds.
type OperandKind int

const (
	OperandID OperandKind = iota
	OperandIntLiteral
	OperandFloatLiteral
	OperandStringLiteral
)

// Generator is the intermediate generator: it owns the operand, operator
// and jump stacks, the quadruple list and the constants pool, and exposes
// one method per parse-event handler. internal/parser calls these directly
// as it recognizes grammar productions — there is no separate AST pass.
type Generator struct {
	scheme *bytecode.AddressScheme
	funcs  *symbols.FunctionDir
	consts *symbols.ConstantsPool
	quads  *bytecode.QuadList

	operands  *operandStack
	operators *operatorStack
	jumps     *jumpStack

	currentCalledFunc string
	currentParamIndex int
}

// NewGenerator wires a fresh generator around its own address scheme,
// function directory and constants pool.
func NewGenerator() *Generator {
	scheme := bytecode.NewAddressScheme()
	return &Generator{
		scheme:    scheme,
		funcs:     symbols.NewFunctionDir(scheme),
		consts:    symbols.NewConstantsPool(scheme),
		quads:     bytecode.NewQuadList(),
		operands:  newOperandStack(),
		operators: newOperatorStack(),
		jumps:     newJumpStack(),
	}
}

// Quads returns the append-only program store built so far.
func (g *Generator) Quads() *bytecode.QuadList { return g.quads }

// Funcs returns the function directory built so far.
func (g *Generator) Funcs() *symbols.FunctionDir { return g.funcs }

// Consts returns the constants pool built so far.
func (g *Generator) Consts() *symbols.ConstantsPool { return g.consts }

// StacksEmpty reports whether the operand, operator and jump stacks are all
// empty, true iff the program is well-formed once the producer reaches end
// of input.
func (g *Generator) StacksEmpty() bool {
	return g.operands.empty() && g.operators.empty() && g.jumps.empty()
}

// PushInitialQuadruple emits the program prologue GOTO and
// pushes its index so main's body can later patch it.
func (g *Generator) PushInitialQuadruple() {
	g.quads.Append(bytecode.NewGotoPlaceholder())
	idx, _ := g.quads.LastIndex()
	g.jumps.push(idx)
}

// PatchPrologue patches the program prologue GOTO to jump to the current
// next-quad index — called when main's body begins.
func (g *Generator) PatchPrologue() error {
	idx, err := g.jumps.pop()
	if err != nil {
		return err
	}
	g.quads.PatchIndex(idx, g.quads.NextQuad())
	return nil
}

// emitQuad pops one operator and its two operands, resolves the result type
// through the semantic cube, allocates a temporary, appends the quadruple
// and pushes the temporary back onto the operand stack.
func (g *Generator) emitQuad(line int) error {
	op, err := g.operators.pop()
	if err != nil {
		return err
	}
	right, err := g.operands.pop(line)
	if err != nil {
		return err
	}
	left, err := g.operands.pop(line)
	if err != nil {
		return err
	}
	resultType, err := symbols.ResultingType(op, left.typ, right.typ, line)
	if err != nil {
		return err
	}
	tempAddr, err := g.scheme.NewAddr(bytecode.SegmentTemp, resultType)
	if err != nil {
		return err
	}
	g.quads.Append(bytecode.NewOpQuad(op, &left.addr, &right.addr, tempAddr))
	g.operands.push(tempAddr, resultType)
	return nil
}

// PushOperand looks up an identifier or interns a literal and pushes its
// (address, type) onto the operand stack.
func (g *Generator) PushOperand(kind OperandKind, scope, name string, intVal int64, floatVal float64, strVal string, line int) error {
	switch kind {
	case OperandID:
		v, err := g.funcs.GetVar(scope, name, line)
		if err != nil {
			return err
		}
		g.operands.push(v.Addr, v.Type)
	case OperandIntLiteral:
		addr, err := g.consts.GetOrAdd(intVal, bytecode.TypeInt)
		if err != nil {
			return err
		}
		g.operands.push(addr, bytecode.TypeInt)
	case OperandFloatLiteral:
		addr, err := g.consts.GetOrAdd(floatVal, bytecode.TypeFloat)
		if err != nil {
			return err
		}
		g.operands.push(addr, bytecode.TypeFloat)
	case OperandStringLiteral:
		addr, err := g.consts.GetOrAdd(strVal, bytecode.TypeString)
		if err != nil {
			return err
		}
		g.operands.push(addr, bytecode.TypeString)
	default:
		return errors.CompilerBug("unsupported operand kind encountered while generating intermediate code")
	}
	return nil
}

// PushOperator pushes op, first draining any pending operator of greater or
// equal precedence.
func (g *Generator) PushOperator(op bytecode.Op, line int) error {
	for {
		top, ok := g.operators.peek()
		if !ok || !hasGreaterOrEqualPrecedence(top, op) {
			break
		}
		if err := g.emitQuad(line); err != nil {
			return err
		}
	}
	g.operators.push(op)
	return nil
}

// PushFakeBottom marks a parenthesis boundary on the operator stack.
func (g *Generator) PushFakeBottom() {
	g.operators.push(bytecode.FakeBottom)
}

// drain emits quadruples for every pending operator until the operator
// stack is empty or FAKE_BOTTOM is reached, discarding a FAKE_BOTTOM it
// finds (used both at ")" and at end-of-expression).
func (g *Generator) drain(line int) error {
	for {
		top, ok := g.operators.peek()
		if !ok || top == bytecode.FakeBottom {
			break
		}
		if err := g.emitQuad(line); err != nil {
			return err
		}
	}
	if top, ok := g.operators.peek(); ok && top == bytecode.FakeBottom {
		g.operators.pop()
	}
	return nil
}

// PopUntilFakeBottom drains the operator stack down through a FAKE_BOTTOM
// marker, on seeing ")".
func (g *Generator) PopUntilFakeBottom(line int) error {
	return g.drain(line)
}

// PopUntilBottom drains the operator stack to empty (or a FAKE_BOTTOM it
// discards), at the end of an expression.
func (g *Generator) PopUntilBottom(line int) error {
	return g.drain(line)
}

// CreateAssignmentQuadruple emits "= value dest" once the RHS expression has
// been reduced to a single operand. No coercion or type check is performed.
func (g *Generator) CreateAssignmentQuadruple(scope, varName string, line int) error {
	value, err := g.operands.pop(line)
	if err != nil {
		return err
	}
	dest, err := g.funcs.GetVar(scope, varName, line)
	if err != nil {
		return err
	}
	g.quads.Append(bytecode.Quad{Op: bytecode.OpAssign, Left: &value.addr, ResultAddr: &dest.Addr})
	return nil
}

// CreatePrintQuadruple emits one PRINT quadruple for the operand currently
// on top of the operand stack.
func (g *Generator) CreatePrintQuadruple(line int) error {
	value, err := g.operands.pop(line)
	if err != nil {
		return err
	}
	g.quads.Append(bytecode.NewPrintQuad(value.addr))
	return nil
}

// GenerateGotofForStatement emits a GOTOF testing the last quadruple's
// result and pushes its index for later patching (if/while condition). The
// condition's operand is popped, since the GOTOF consumes it.
func (g *Generator) GenerateGotofForStatement(line int) error {
	last, err := g.quads.Last()
	if err != nil {
		return err
	}
	if last.ResultAddr == nil {
		return errors.CompilerBug("condition did not leave a value in the last quadruple's result")
	}
	if _, err := g.operands.pop(line); err != nil {
		return err
	}
	g.quads.Append(bytecode.NewGotofPlaceholder(*last.ResultAddr))
	idx, _ := g.quads.LastIndex()
	g.jumps.push(idx)
	return nil
}

// AssignGotoDestination patches the top-of-jump-stack quadruple (a GOTOF or
// GOTO) to jump to the current next-quad index. Used at the close of an
// if-without-else and at the close of an if/else's else branch.
func (g *Generator) AssignGotoDestination() error {
	idx, err := g.jumps.pop()
	if err != nil {
		return err
	}
	g.quads.PatchIndex(idx, g.quads.NextQuad())
	return nil
}

// HandleElse emits the GOTO that skips the else block, pushes its index,
// and patches the preceding GOTOF to land on the else block's first
// quadruple.
func (g *Generator) HandleElse() error {
	gotofIdx, err := g.jumps.pop()
	if err != nil {
		return err
	}
	g.quads.Append(bytecode.NewGotoPlaceholder())
	idx, _ := g.quads.LastIndex()
	g.jumps.push(idx)
	g.quads.PatchIndex(gotofIdx, g.quads.NextQuad())
	return nil
}

// MarkLoopStart pushes the current next-quad index as the loop's jump-back
// target, before the while condition is translated.
func (g *Generator) MarkLoopStart() {
	g.jumps.push(g.quads.NextQuad())
}

// CloseLoop emits the unconditional GOTO back to the loop's condition and
// patches the loop's GOTOF to land just past it.
func (g *Generator) CloseLoop() error {
	gotofIdx, err := g.jumps.pop()
	if err != nil {
		return err
	}
	loopStart, err := g.jumps.pop()
	if err != nil {
		return err
	}
	g.quads.Append(bytecode.NewGotoQuad(loopStart))
	g.quads.PatchIndex(gotofIdx, g.quads.NextQuad())
	return nil
}

// DeclareVar adds a variable declaration to scope's variable table,
// allocating its address (global segment for the global scope, local
// otherwise). Used for both top-level/local `var` blocks and function
// parameters.
func (g *Generator) DeclareVar(scope, name string, varType bytecode.Type, line int) error {
	return g.funcs.AddVar(scope, name, varType, line)
}

// AddFunctionToDir registers a new void function whose entry quad is the
// current next-quad index.
func (g *Generator) AddFunctionToDir(name string, line int) error {
	return g.funcs.AddFunction(name, g.quads.NextQuad(), line)
}

// RegisterParameter adds a function parameter to both its variable table
// and its signature, in declaration order.
func (g *Generator) RegisterParameter(funcName, paramName string, paramType bytecode.Type, line int) error {
	if err := g.funcs.AddVar(funcName, paramName, paramType, line); err != nil {
		return err
	}
	return g.funcs.AddSignatureType(funcName, paramType, line)
}

// HandleFunctionEnd snapshots the local/temp counters into frame resources,
// resets those segments for the next function, and emits the END_FUNC or
// END_PROG terminator. For the global scope the global-segment counters take
// the place of the local ones, since the VM keeps top-level variables in the
// global frame's local partitions.
func (g *Generator) HandleFunctionEnd(funcName string, endOp bytecode.Op) error {
	locals := g.scheme.Snapshot(bytecode.SegmentLocal)
	if funcName == symbols.GlobalFuncName {
		locals = g.scheme.Snapshot(bytecode.SegmentGlobal)
	}
	temps := g.scheme.Snapshot(bytecode.SegmentTemp)
	fr := symbols.FrameResourcesFromSnapshots(locals, temps)
	if err := g.funcs.SetFrameResources(funcName, fr, 0); err != nil {
		return err
	}
	g.scheme.Reset(bytecode.SegmentLocal)
	g.scheme.Reset(bytecode.SegmentTemp)
	g.quads.Append(bytecode.NewEndQuad(endOp))
	return nil
}

// HandleFunctionCalledStart records the callee and emits ERA
// "Call site", step 1).
func (g *Generator) HandleFunctionCalledStart(funcName string) {
	g.currentCalledFunc = funcName
	g.currentParamIndex = 0
	g.quads.Append(bytecode.NewEraQuad(funcName))
}

// HandleNewParam emits one PARAM quadruple for the argument just reduced
// and validates it against the callee's signature.
func (g *Generator) HandleNewParam(line int) error {
	value, err := g.operands.pop(line)
	if err != nil {
		return err
	}
	g.quads.Append(bytecode.NewParamQuad(value.addr, g.currentParamIndex))
	if err := g.funcs.ValidateSignatureArg(g.currentCalledFunc, value.typ, g.currentParamIndex, line); err != nil {
		return err
	}
	g.currentParamIndex++
	return nil
}

// HandleFunctionCallFinished validates the final argument count and emits
// GOSUB.
func (g *Generator) HandleFunctionCallFinished(line int) error {
	if err := g.funcs.ValidateSignatureLength(g.currentCalledFunc, g.currentParamIndex, line); err != nil {
		return err
	}
	g.quads.Append(bytecode.NewGosubQuad(g.currentCalledFunc))
	return nil
}
