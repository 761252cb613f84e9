package bytecode

import "fmt"

// Op is a quadruple operator: arithmetic, relational, assignment, control
// flow, the call protocol, or PRINT. FAKE_BOTTOM never appears in an emitted
// quadruple — it only marks parenthesis boundaries on the operator stack
// during translation.
type Op string

const (
	OpAdd     Op = "+"
	OpSub     Op = "-"
	OpMul     Op = "*"
	OpDiv     Op = "/"
	OpLT      Op = "<"
	OpGT      Op = ">"
	OpNE      Op = "!="
	OpAssign  Op = "="
	OpPrint   Op = "PRINT"
	OpGoto    Op = "GOTO"
	OpGotoF   Op = "GOTOF"
	OpEra     Op = "ERA"
	OpParam   Op = "PARAM"
	OpGosub   Op = "GOSUB"
	OpEndFunc Op = "END_FUNC"
	OpEndProg Op = "END_PROG"

	FakeBottom Op = "FAKE_BOTTOM"
)

// IsArithmeticOrRelational reports whether op is resolved through the
// semantic cube.
func (op Op) IsArithmeticOrRelational() bool {
	switch op {
	case OpAdd, OpSub, OpMul, OpDiv, OpLT, OpGT, OpNE:
		return true
	default:
		return false
	}
}

// Quad is a single four-field instruction (op, left, right, result). The
// meaning of each field depends on op. Operand fields hold an Addr; Result
// may instead hold a quadruple index (GOTO/GOTOF), a function name
// (ERA/GOSUB), a parameter position (PARAM), or nothing at all.
type Quad struct {
	Op          Op
	Left, Right *Addr // nil when the field is null
	ResultAddr  *Addr // nil unless Result is an address
	ResultIndex *int  // nil unless Result is a quadruple index
	ResultFunc  string // "" unless Result is a function name
	ResultParam *int  // nil unless Result is a parameter position
}

// NewOpQuad builds an arithmetic/relational/assignment quadruple whose
// result is an address.
func NewOpQuad(op Op, left, right *Addr, result Addr) Quad {
	return Quad{Op: op, Left: left, Right: right, ResultAddr: &result}
}

// NewPrintQuad builds a PRINT quadruple; its value lives in Result per the
// formal layout table.
func NewPrintQuad(value Addr) Quad {
	return Quad{Op: OpPrint, ResultAddr: &value}
}

// NewGotoPlaceholder builds a GOTO whose target is not yet known — it must
// be patched later via QuadList.PatchIndex.
func NewGotoPlaceholder() Quad {
	return Quad{Op: OpGoto}
}

// NewGotoQuad builds a GOTO with an already-known target index (used for
// the loop-back jump at the end of a while body).
func NewGotoQuad(target int) Quad {
	return Quad{Op: OpGoto, ResultIndex: &target}
}

// NewGotofPlaceholder builds a GOTOF testing cond, with an as-yet-unpatched
// target.
func NewGotofPlaceholder(cond Addr) Quad {
	return Quad{Op: OpGotoF, Left: &cond}
}

// NewEraQuad builds an ERA quadruple naming the callee.
func NewEraQuad(funcName string) Quad {
	return Quad{Op: OpEra, ResultFunc: funcName}
}

// NewParamQuad builds a PARAM quadruple carrying the value address and the
// 0-based parameter position.
func NewParamQuad(value Addr, index int) Quad {
	return Quad{Op: OpParam, Left: &value, ResultParam: &index}
}

// NewGosubQuad builds a GOSUB quadruple naming the callee.
func NewGosubQuad(funcName string) Quad {
	return Quad{Op: OpGosub, ResultFunc: funcName}
}

// NewEndQuad builds an END_FUNC or END_PROG quadruple (all fields null).
func NewEndQuad(op Op) Quad {
	return Quad{Op: op}
}

func fieldStr(a *Addr) string {
	if a == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *a)
}

// String renders a compact, column-aligned representation for diagnostics.
func (q Quad) String() string {
	result := "-"
	switch {
	case q.ResultAddr != nil:
		result = fieldStr(q.ResultAddr)
	case q.ResultIndex != nil:
		result = fmt.Sprintf("%d", *q.ResultIndex)
	case q.ResultFunc != "":
		result = q.ResultFunc
	case q.ResultParam != nil:
		result = fmt.Sprintf("%d", *q.ResultParam)
	}
	return fmt.Sprintf("%-8s %-6s %-6s %s", q.Op, fieldStr(q.Left), fieldStr(q.Right), result)
}
