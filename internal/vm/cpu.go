package vm

import (
	"fmt"
	"io"

	"babyduck/internal/bytecode"
	"babyduck/internal/errors"
)

// CPU is the fetch-decode-execute engine. It owns the instruction pointer
// and a reference to Memory; Run drives it to completion against a fixed
// program.
type CPU struct {
	ip     int
	mem    *Memory
	quads  *bytecode.QuadList
	stdout io.Writer
}

// NewCPU returns a CPU over quads and mem, writing PRINT output to stdout.
func NewCPU(quads *bytecode.QuadList, mem *Memory, stdout io.Writer) *CPU {
	return &CPU{mem: mem, quads: quads, stdout: stdout}
}

// IP returns the current instruction pointer, mostly for debugger use.
func (c *CPU) IP() int { return c.ip }

// Memory exposes the CPU's memory for a debugger to inspect variables by
// address.
func (c *CPU) Memory() *Memory { return c.mem }

// CurrentQuad returns the quadruple at the current IP, or ok=false if the
// IP has run off the end of the program.
func (c *CPU) CurrentQuad() (q bytecode.Quad, ok bool) {
	if c.ip < 0 || c.ip >= c.quads.Len() {
		return bytecode.Quad{}, false
	}
	return c.quads.At(c.ip), true
}

// Halted reports whether the CPU is parked on END_PROG.
func (c *CPU) Halted() bool {
	q, ok := c.CurrentQuad()
	return !ok || q.Op == bytecode.OpEndProg
}

// StepOnce executes exactly one quadruple and advances the IP, for a
// single-stepping debugger. It is a no-op once Halted reports true.
func (c *CPU) StepOnce() error {
	if c.Halted() {
		return nil
	}
	q, _ := c.CurrentQuad()
	if err := c.Step(q); err != nil {
		return err
	}
	c.ip++
	return nil
}

// Run executes quadruples from the current IP until END_PROG, returning the
// first runtime error encountered.
func (c *CPU) Run() error {
	for {
		if c.ip < 0 || c.ip >= c.quads.Len() {
			return errors.CompilerBug("instruction pointer %d ran off the end of the program", c.ip)
		}
		q := c.quads.At(c.ip)
		if q.Op == bytecode.OpEndProg {
			return nil
		}
		if err := c.Step(q); err != nil {
			return err
		}
		c.ip++
	}
}

// Step executes a single quadruple, leaving c.ip pointing at whatever
// quadruple should run next once the caller's own increment (if any) is
// applied — a jump sets c.ip to target-1 so that the Run loop's
// post-execution IP += 1 lands exactly on target.
func (c *CPU) Step(q bytecode.Quad) error {
	switch {
	case q.Op.IsArithmeticOrRelational():
		return c.execArithmeticOrRelational(q)
	case q.Op == bytecode.OpAssign:
		return c.execAssign(q)
	case q.Op == bytecode.OpPrint:
		return c.execPrint(q)
	case q.Op == bytecode.OpGoto:
		c.ip = *q.ResultIndex - 1
		return nil
	case q.Op == bytecode.OpGotoF:
		return c.execGotoF(q)
	case q.Op == bytecode.OpEra:
		return c.mem.PrepareCall(q.ResultFunc)
	case q.Op == bytecode.OpParam:
		return c.execParam(q)
	case q.Op == bytecode.OpGosub:
		return c.execGosub(q)
	case q.Op == bytecode.OpEndFunc:
		return c.execEndFunc()
	default:
		return errors.CompilerBug("CPU has no execution rule for operator %q", q.Op)
	}
}

func (c *CPU) execArithmeticOrRelational(q bytecode.Quad) error {
	left, err := c.mem.Get(*q.Left)
	if err != nil {
		return err
	}
	right, err := c.mem.Get(*q.Right)
	if err != nil {
		return err
	}
	result, err := apply(q.Op, left, right)
	if err != nil {
		return err
	}
	return c.mem.Set(*q.ResultAddr, result)
}

func (c *CPU) execAssign(q bytecode.Quad) error {
	value, err := c.mem.Get(*q.Left)
	if err != nil {
		return err
	}
	return c.mem.Set(*q.ResultAddr, value)
}

func (c *CPU) execPrint(q bytecode.Quad) error {
	value, err := c.mem.Get(*q.ResultAddr)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.stdout, value.String())
	return err
}

func (c *CPU) execGotoF(q bytecode.Quad) error {
	cond, err := c.mem.Get(*q.Left)
	if err != nil {
		return err
	}
	if cond.isZero() {
		c.ip = *q.ResultIndex - 1
	}
	return nil
}

func (c *CPU) execParam(q bytecode.Quad) error {
	value, err := c.mem.Get(*q.Left)
	if err != nil {
		return err
	}
	return c.mem.SetParam(*q.ResultParam, value)
}

func (c *CPU) execGosub(q bytecode.Quad) error {
	entryQuad, err := c.mem.CommitCall(c.ip + 1)
	if err != nil {
		return err
	}
	c.ip = entryQuad - 1
	return nil
}

func (c *CPU) execEndFunc() error {
	returnQuad, err := c.mem.PopCall()
	if err != nil {
		return err
	}
	c.ip = returnQuad - 1
	return nil
}

// apply resolves an arithmetic or relational operator over two runtime
// Values, mirroring the semantic cube's int/float promotion rule at
// execution time.
func apply(op bytecode.Op, left, right Value) (Value, error) {
	bothInt := left.Type == bytecode.TypeInt && right.Type == bytecode.TypeInt
	switch op {
	case bytecode.OpAdd:
		if bothInt {
			return IntValue(left.Int + right.Int), nil
		}
		return FloatValue(left.asFloat() + right.asFloat()), nil
	case bytecode.OpSub:
		if bothInt {
			return IntValue(left.Int - right.Int), nil
		}
		return FloatValue(left.asFloat() - right.asFloat()), nil
	case bytecode.OpMul:
		if bothInt {
			return IntValue(left.Int * right.Int), nil
		}
		return FloatValue(left.asFloat() * right.asFloat()), nil
	case bytecode.OpDiv:
		// Division always uses host true division regardless of operand
		// types: an int/int divide can leave a non-integer value in a
		// nominally int-typed temp, which is fine under the no-coercion
		// assignment model.
		if right.isZero() {
			return Value{}, errors.DivisionByZero()
		}
		return FloatValue(left.asFloat() / right.asFloat()), nil
	case bytecode.OpLT:
		return boolValue(compare(left, right) < 0), nil
	case bytecode.OpGT:
		return boolValue(compare(left, right) > 0), nil
	case bytecode.OpNE:
		return boolValue(compare(left, right) != 0), nil
	default:
		return Value{}, errors.CompilerBug("CPU has no arithmetic rule for operator %q", op)
	}
}

func compare(left, right Value) int {
	a, b := left.asFloat(), right.asFloat()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func boolValue(b bool) Value {
	if b {
		return IntValue(1)
	}
	return IntValue(0)
}
