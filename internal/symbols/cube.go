package symbols

import (
	"babyduck/internal/bytecode"
	"babyduck/internal/errors"
)

type cubeKey struct {
	op          bytecode.Op
	left, right bytecode.Type
}

// cube is the total partial function (op, left, right) -> result over
// {int,float}x{int,float}: arithmetic ops yield int only when both sides
// are int, float otherwise; relational ops always yield int (1/0). string
// never participates.
var cube = buildCube()

func buildCube() map[cubeKey]bytecode.Type {
	m := make(map[cubeKey]bytecode.Type)
	numeric := []bytecode.Type{bytecode.TypeInt, bytecode.TypeFloat}
	arith := []bytecode.Op{bytecode.OpAdd, bytecode.OpSub, bytecode.OpMul, bytecode.OpDiv}
	rel := []bytecode.Op{bytecode.OpLT, bytecode.OpGT, bytecode.OpNE}
	for _, op := range arith {
		for _, l := range numeric {
			for _, r := range numeric {
				result := bytecode.TypeInt
				if l == bytecode.TypeFloat || r == bytecode.TypeFloat {
					result = bytecode.TypeFloat
				}
				m[cubeKey{op, l, r}] = result
			}
		}
	}
	for _, op := range rel {
		for _, l := range numeric {
			for _, r := range numeric {
				m[cubeKey{op, l, r}] = bytecode.TypeInt
			}
		}
	}
	return m
}

// ResultingType resolves (operator, left, right) to a result type, or fails
// with InvalidOperator (operator not in the cube at all) or InvalidOperation
// (known operator, but this type pairing — including any string — is not
// defined for it).
func ResultingType(op bytecode.Op, left, right bytecode.Type, line int) (bytecode.Type, error) {
	if !op.IsArithmeticOrRelational() {
		return 0, errors.InvalidOperator(string(op), line)
	}
	result, ok := cube[cubeKey{op, left, right}]
	if !ok {
		return 0, errors.InvalidOperation(left.String(), string(op), right.String(), line)
	}
	return result, nil
}
