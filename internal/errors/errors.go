// Package errors defines the closed set of error kinds the Babyduck
// toolchain can raise: syntax, semantic, resource and runtime errors during
// compilation, plus internal compiler bugs. Each is a typed error with an
// optional source line, rendered through Error().
package errors

import "fmt"

// Kind identifies which phase and category an error belongs to.
type Kind string

const (
	KindMissingOperand           Kind = "MissingOperand"
	KindDuplicateVariable        Kind = "DuplicateVariable"
	KindUndeclaredVariable       Kind = "UndeclaredVariable"
	KindDuplicateFunction        Kind = "DuplicateFunction"
	KindUndeclaredFunction       Kind = "UndeclaredFunction"
	KindInvalidOperator          Kind = "InvalidOperator"
	KindInvalidOperation         Kind = "InvalidOperation"
	KindWrongNumberOfParameters  Kind = "WrongNumberOfParameters"
	KindInvalidParameterType     Kind = "InvalidParameterType"
	KindOutOfMemory              Kind = "OutOfMemory"
	KindDivisionByZero           Kind = "DivisionByZero"
	KindCompilerBug              Kind = "CompilerBug"
)

// BabyduckError is the error type returned by every compiler and VM phase.
// Line is 0 when no source position is known (e.g. a runtime VM fault has no
// direct textual line, only the quadruple index).
type BabyduckError struct {
	Kind    Kind
	Message string
	Line    int // 1-based; 0 means unknown
}

func (e *BabyduckError) Error() string {
	if e.Kind == KindCompilerBug {
		if e.Line > 0 {
			return fmt.Sprintf("INTERNAL COMPILER ERROR: Línea %d: %s", e.Line, e.Message)
		}
		return fmt.Sprintf("INTERNAL COMPILER ERROR: %s", e.Message)
	}
	if e.Line > 0 {
		return fmt.Sprintf("Línea %d: %s", e.Line, e.Message)
	}
	return e.Message
}

func new_(kind Kind, line int, format string, args ...interface{}) *BabyduckError {
	return &BabyduckError{Kind: kind, Message: fmt.Sprintf(format, args...), Line: line}
}

// MissingOperand signals the operand stack was drained while an operator
// still expected a value.
func MissingOperand(operator string, line int) *BabyduckError {
	return new_(KindMissingOperand, line, "missing operand for operator %q", operator)
}

// DuplicateVariable signals a name declared twice in the same scope.
func DuplicateVariable(name string, line int) *BabyduckError {
	return new_(KindDuplicateVariable, line, "variable %q already declared", name)
}

// UndeclaredVariable signals a reference to a name with no declaration
// reachable from the current scope (checked local-then-global).
func UndeclaredVariable(name string, line int) *BabyduckError {
	return new_(KindUndeclaredVariable, line, "undeclared variable: %q", name)
}

// DuplicateFunction signals a function name declared twice.
func DuplicateFunction(name string, line int) *BabyduckError {
	return new_(KindDuplicateFunction, line, "function %q already declared", name)
}

// UndeclaredFunction signals a call to a name with no function entry.
func UndeclaredFunction(name string, line int) *BabyduckError {
	return new_(KindUndeclaredFunction, line, "undeclared function: %q", name)
}

// InvalidOperator signals an operator the semantic cube has no row for.
func InvalidOperator(operator string, line int) *BabyduckError {
	return new_(KindInvalidOperator, line, "invalid operator: %q", operator)
}

// InvalidOperation signals a (operator, leftType, rightType) triple the
// semantic cube does not resolve.
func InvalidOperation(left, operator, right string, line int) *BabyduckError {
	return new_(KindInvalidOperation, line, "cannot apply operator %q between %q and %q", operator, left, right)
}

// WrongNumberOfParameters signals a call-site/signature arity mismatch.
func WrongNumberOfParameters(funcName string, expected, actual int, line int) *BabyduckError {
	plural := "s"
	if expected == 1 {
		plural = ""
	}
	return new_(KindWrongNumberOfParameters, line,
		"function %q expects %d argument%s, but received %d", funcName, expected, plural, actual)
}

// InvalidParameterType signals a call-site argument whose type does not
// match the declared parameter type at that position.
func InvalidParameterType(funcName, expected, actual string, line int) *BabyduckError {
	return new_(KindInvalidParameterType, line,
		"in function %q, expected a value of type %q, but received one of type %q", funcName, expected, actual)
}

// OutOfMemory signals a (segment, type) address partition reached its
// 2000-entry ceiling.
func OutOfMemory(segment, varType string, line int) *BabyduckError {
	return new_(KindOutOfMemory, line, "out of memory for %s in segment %s", varType, segment)
}

// DivisionByZero signals a runtime '/' with a zero right-hand operand.
func DivisionByZero() *BabyduckError {
	return new_(KindDivisionByZero, 0, "division by zero is not allowed")
}

// CompilerBug signals unexpected internal state: an empty jump stack pop, an
// unknown operand kind, missing frame resources, or an operator the CPU
// does not implement. These should never surface to a well-formed program.
func CompilerBug(format string, args ...interface{}) *BabyduckError {
	return new_(KindCompilerBug, 0, format, args...)
}

// Is reports whether err is a *BabyduckError of the given kind.
func Is(err error, kind Kind) bool {
	be, ok := err.(*BabyduckError)
	return ok && be.Kind == kind
}
