package bytecode

import (
	"fmt"
	"strings"

	"babyduck/internal/errors"
)

// QuadList is the append-only, ordered program store. Indexing supports
// in-place backpatching of a GOTO/GOTOF's target once the jump destination
// is known.
type QuadList struct {
	quads []Quad
}

// NewQuadList returns an empty program store.
func NewQuadList() *QuadList {
	return &QuadList{quads: make([]Quad, 0, 64)}
}

// Append adds a quadruple at the end of the program.
func (q *QuadList) Append(quad Quad) {
	q.quads = append(q.quads, quad)
}

// NextQuad returns the index the next appended quadruple will occupy.
func (q *QuadList) NextQuad() int {
	return len(q.quads)
}

// LastIndex returns NextQuad()-1, i.e. the index of the most recently
// appended quadruple. Calling it on an empty list is a compiler bug.
func (q *QuadList) LastIndex() (int, error) {
	if len(q.quads) == 0 {
		return 0, errors.CompilerBug("no quadruples available")
	}
	return len(q.quads) - 1, nil
}

// Last returns the most recently appended quadruple.
func (q *QuadList) Last() (Quad, error) {
	i, err := q.LastIndex()
	if err != nil {
		return Quad{}, err
	}
	return q.quads[i], nil
}

// Len returns the number of quadruples appended so far.
func (q *QuadList) Len() int {
	return len(q.quads)
}

// At returns the quadruple at index i.
func (q *QuadList) At(i int) Quad {
	return q.quads[i]
}

// All returns the full, ordered program.
func (q *QuadList) All() []Quad {
	return q.quads
}

// PatchIndex backpatches the Result field of a GOTO/GOTOF at quadIdx to the
// given target quadruple index.
func (q *QuadList) PatchIndex(quadIdx int, target int) {
	q.quads[quadIdx].ResultIndex = &target
}

// Dump renders every quadruple with its index, for diagnostics/debugging.
func (q *QuadList) Dump() string {
	var sb strings.Builder
	for i, quad := range q.quads {
		fmt.Fprintf(&sb, "%3d: %s\n", i, quad)
	}
	return sb.String()
}
