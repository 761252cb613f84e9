// Package debugger implements an interactive, single-stepping REPL over a
// compiled Babyduck program's quadruple stream.
package debugger

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"babyduck/internal/driver"
	"babyduck/internal/symbols"
	"babyduck/internal/vm"
)

// BreakpointKind distinguishes a breakpoint set on a raw quadruple index
// from one set on a function's entry point.
type BreakpointKind int

const (
	QuadBreakpoint BreakpointKind = iota
	FunctionBreakpoint
)

// Breakpoint is a single debugger breakpoint.
type Breakpoint struct {
	ID       int
	Kind     BreakpointKind
	QuadIdx  int
	Function string
	Enabled  bool
	HitCount int
}

// State is the debugger's run state between commands.
type State int

const (
	Paused State = iota
	Running
	Terminated
)

// Debugger drives a CPU one instruction at a time, pausing at breakpoints
// and responding to REPL commands over in/out.
type Debugger struct {
	cpu   *vm.CPU
	funcs *symbols.FunctionDir

	breakpoints map[int]*Breakpoint
	nextBpID    int
	state       State
	watches     []string

	in  *bufio.Reader
	out io.Writer
}

// New builds a Debugger over program, ready to run from quadruple 0.
func New(program *driver.Program, in io.Reader, out io.Writer) (*Debugger, error) {
	mem, err := vm.NewMemory(program.Const.Entries(), program.Funcs)
	if err != nil {
		return nil, err
	}
	return &Debugger{
		cpu:         vm.NewCPU(program.Quads, mem, out),
		funcs:       program.Funcs,
		breakpoints: make(map[int]*Breakpoint),
		nextBpID:    1,
		state:       Paused,
		in:          bufio.NewReader(in),
		out:         out,
	}, nil
}

// AddQuadBreakpoint breaks execution just before quadIdx runs.
func (d *Debugger) AddQuadBreakpoint(quadIdx int) int {
	id := d.nextBpID
	d.breakpoints[id] = &Breakpoint{ID: id, Kind: QuadBreakpoint, QuadIdx: quadIdx, Enabled: true}
	d.nextBpID++
	fmt.Fprintf(d.out, "breakpoint %d set at quad %d\n", id, quadIdx)
	return id
}

// AddFunctionBreakpoint breaks execution on entry to a named function.
func (d *Debugger) AddFunctionBreakpoint(name string) (int, error) {
	fn, err := d.funcs.GetFunction(name, 0)
	if err != nil {
		return 0, err
	}
	if !fn.HasEntryQuad {
		return 0, fmt.Errorf("function %q has no entry quadruple", name)
	}
	id := d.nextBpID
	d.breakpoints[id] = &Breakpoint{ID: id, Kind: FunctionBreakpoint, QuadIdx: fn.EntryQuad, Function: name, Enabled: true}
	d.nextBpID++
	fmt.Fprintf(d.out, "breakpoint %d set at %s (quad %d)\n", id, name, fn.EntryQuad)
	return id, nil
}

// RemoveBreakpoint removes a breakpoint by ID.
func (d *Debugger) RemoveBreakpoint(id int) bool {
	if _, ok := d.breakpoints[id]; !ok {
		return false
	}
	delete(d.breakpoints, id)
	return true
}

// ListBreakpoints renders every breakpoint, for the "list" command.
func (d *Debugger) ListBreakpoints() string {
	if len(d.breakpoints) == 0 {
		return "no breakpoints set"
	}
	var sb strings.Builder
	for _, bp := range d.breakpoints {
		target := fmt.Sprintf("quad %d", bp.QuadIdx)
		if bp.Kind == FunctionBreakpoint {
			target = fmt.Sprintf("%s (quad %d)", bp.Function, bp.QuadIdx)
		}
		fmt.Fprintf(&sb, "  %d: %s hits=%d\n", bp.ID, target, bp.HitCount)
	}
	return sb.String()
}

func (d *Debugger) breakpointAt(quadIdx int) *Breakpoint {
	for _, bp := range d.breakpoints {
		if bp.Enabled && bp.QuadIdx == quadIdx {
			return bp
		}
	}
	return nil
}

// StepInto executes exactly one quadruple.
func (d *Debugger) StepInto() error {
	return d.cpu.StepOnce()
}

// Continue runs quadruples until a breakpoint is hit or the program halts.
// It always executes at least one step, so a Continue issued while already
// parked on a breakpoint does not immediately re-trigger it.
func (d *Debugger) Continue() error {
	if err := d.cpu.StepOnce(); err != nil {
		return err
	}
	for !d.cpu.Halted() {
		if bp := d.breakpointAt(d.cpu.IP()); bp != nil {
			bp.HitCount++
			fmt.Fprintf(d.out, "breakpoint %d hit at quad %d\n", bp.ID, bp.QuadIdx)
			return nil
		}
		if err := d.cpu.StepOnce(); err != nil {
			return err
		}
	}
	return nil
}

// Halted reports whether the underlying program has run to completion.
func (d *Debugger) Halted() bool { return d.cpu.Halted() }

// IP returns the current quadruple index.
func (d *Debugger) IP() int { return d.cpu.IP() }

// CurrentQuad renders the quadruple about to execute.
func (d *Debugger) CurrentQuad() string {
	q, ok := d.cpu.CurrentQuad()
	if !ok {
		return "<end of program>"
	}
	return q.String()
}

// AddWatch records a "scope.name" expression to evaluate on each "watch"
// command with no arguments.
func (d *Debugger) AddWatch(expr string) {
	d.watches = append(d.watches, expr)
}

// EvalWatch resolves a "scope.name" expression to its current runtime
// value, looking the address up in the compile-time function directory.
func (d *Debugger) EvalWatch(expr string) (string, error) {
	scope, name, ok := strings.Cut(expr, ".")
	if !ok {
		scope, name = symbols.GlobalFuncName, expr
	}
	v, err := d.funcs.GetVar(scope, name, 0)
	if err != nil {
		return "", err
	}
	val, err := d.cpu.Memory().Get(v.Addr)
	if err != nil {
		return "", err
	}
	return val.String(), nil
}

// ShowWatches renders every registered watch and its current value.
func (d *Debugger) ShowWatches() string {
	if len(d.watches) == 0 {
		return "no watches set"
	}
	var sb strings.Builder
	for _, expr := range d.watches {
		val, err := d.EvalWatch(expr)
		if err != nil {
			fmt.Fprintf(&sb, "  %s = <error: %v>\n", expr, err)
			continue
		}
		fmt.Fprintf(&sb, "  %s = %s\n", expr, val)
	}
	return sb.String()
}

// Run starts the interactive REPL, reading commands from d.in until "quit"
// or end of input.
func (d *Debugger) Run() error {
	fmt.Fprintln(d.out, "Babyduck debugger. Type 'help' for available commands.")
	for d.state != Terminated {
		fmt.Fprint(d.out, "(bdb) ")
		line, err := d.in.ReadString('\n')
		if err != nil {
			return nil
		}
		if err := d.execute(strings.TrimSpace(line)); err != nil {
			fmt.Fprintf(d.out, "error: %v\n", err)
		}
	}
	return nil
}

func (d *Debugger) execute(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, args := fields[0], fields[1:]
	switch cmd {
	case "help", "h":
		d.printHelp()
	case "break", "b":
		if len(args) != 1 {
			fmt.Fprintln(d.out, "usage: break <quad-index|function-name>")
			return nil
		}
		if idx, err := strconv.Atoi(args[0]); err == nil {
			d.AddQuadBreakpoint(idx)
			return nil
		}
		if _, err := d.AddFunctionBreakpoint(args[0]); err != nil {
			return err
		}
	case "delete", "d":
		if len(args) != 1 {
			fmt.Fprintln(d.out, "usage: delete <id>")
			return nil
		}
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid breakpoint id %q", args[0])
		}
		if !d.RemoveBreakpoint(id) {
			fmt.Fprintf(d.out, "no such breakpoint: %d\n", id)
		}
	case "list", "l":
		fmt.Fprint(d.out, d.ListBreakpoints())
	case "step", "s":
		if err := d.StepInto(); err != nil {
			return err
		}
		d.printLocation()
	case "continue", "c":
		if err := d.Continue(); err != nil {
			return err
		}
		d.printLocation()
	case "watch":
		if len(args) >= 1 {
			d.AddWatch(strings.Join(args, " "))
			return nil
		}
		fmt.Fprint(d.out, d.ShowWatches())
	case "print", "p":
		if len(args) != 1 {
			fmt.Fprintln(d.out, "usage: print <scope.name>")
			return nil
		}
		val, err := d.EvalWatch(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(d.out, "%s = %s\n", args[0], val)
	case "quit", "q":
		d.state = Terminated
	default:
		fmt.Fprintf(d.out, "unknown command: %s (type 'help')\n", cmd)
	}
	return nil
}

func (d *Debugger) printLocation() {
	if d.Halted() {
		fmt.Fprintln(d.out, "program halted")
		return
	}
	fmt.Fprintf(d.out, "quad %d: %s\n", d.IP(), d.CurrentQuad())
}

func (d *Debugger) printHelp() {
	fmt.Fprintln(d.out, "Available commands:")
	fmt.Fprintln(d.out, "  help, h                       - show this help")
	fmt.Fprintln(d.out, "  break, b <quad|function>      - set a breakpoint")
	fmt.Fprintln(d.out, "  delete, d <id>                - remove a breakpoint")
	fmt.Fprintln(d.out, "  list, l                       - list breakpoints")
	fmt.Fprintln(d.out, "  step, s                       - execute one quadruple")
	fmt.Fprintln(d.out, "  continue, c                   - run until the next breakpoint")
	fmt.Fprintln(d.out, "  watch <scope.name>            - add a watch expression")
	fmt.Fprintln(d.out, "  watch                         - show all watches")
	fmt.Fprintln(d.out, "  print, p <scope.name>         - print a variable's current value")
	fmt.Fprintln(d.out, "  quit, q                       - exit the debugger")
}
