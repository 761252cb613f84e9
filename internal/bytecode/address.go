// Package bytecode implements the segmented virtual-address scheme and the
// quadruple intermediate representation emitted by the compiler.
package bytecode

import "babyduck/internal/errors"

// Segment identifies which region of virtual memory an address falls in.
type Segment int

const (
	SegmentGlobal Segment = iota
	SegmentLocal
	SegmentTemp
	SegmentConst
)

func (s Segment) String() string {
	switch s {
	case SegmentGlobal:
		return "global"
	case SegmentLocal:
		return "local"
	case SegmentTemp:
		return "temp"
	case SegmentConst:
		return "const"
	default:
		return "unknown"
	}
}

// Type is the closed type enumeration: int, float, string.
type Type int

const (
	TypeInt Type = iota
	TypeFloat
	TypeString
)

func (t Type) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeString:
		return "string"
	default:
		return "unknown"
	}
}

// segmentBase and typeOffset partition the address space: segment bases
// global=10000, local=20000, temp=30000, const=40000; type offsets int=0,
// float=2000, string=4000. BlockSize is the per-(segment,type) partition
// ceiling.
const BlockSize = 2000

var segmentBase = map[Segment]int{
	SegmentGlobal: 10000,
	SegmentLocal:  20000,
	SegmentTemp:   30000,
	SegmentConst:  40000,
}

var typeOffset = map[Type]int{
	TypeInt:    0,
	TypeFloat:  2000,
	TypeString: 4000,
}

// Addr is a decoded virtual address: base(segment, type) + index.
type Addr int

// Base returns the base address for (segment, varType) — the address an
// index of 0 would occupy.
func Base(segment Segment, varType Type) Addr {
	return Addr(segmentBase[segment] + typeOffset[varType])
}

// Decode splits an address back into (segment, type, index). It is
// deterministic and total over the defined range.
func Decode(addr Addr) (segment Segment, varType Type, index int) {
	a := int(addr)
	for _, seg := range []Segment{SegmentGlobal, SegmentLocal, SegmentTemp, SegmentConst} {
		base := segmentBase[seg]
		if a < base || a >= base+6000 {
			continue
		}
		for _, typ := range []Type{TypeInt, TypeFloat, TypeString} {
			off := typeOffset[typ]
			if a >= base+off && a < base+off+BlockSize {
				return seg, typ, a - base - off
			}
		}
	}
	return -1, -1, -1
}

// AddressScheme allocates addresses by (segment, type) partition, tracking
// per-partition counters so each function can be given its own 0-based
// local/temp indices in a single-pass design.
type AddressScheme struct {
	counters map[Segment]map[Type]int
}

// NewAddressScheme returns a scheme with every partition counter at zero.
func NewAddressScheme() *AddressScheme {
	s := &AddressScheme{counters: make(map[Segment]map[Type]int)}
	for _, seg := range []Segment{SegmentGlobal, SegmentLocal, SegmentTemp, SegmentConst} {
		s.counters[seg] = map[Type]int{TypeInt: 0, TypeFloat: 0, TypeString: 0}
	}
	return s
}

// NewAddr allocates the next free index in (segment, varType) and returns
// its full address. It fails with OutOfMemory once the partition reaches
// BlockSize entries.
func (s *AddressScheme) NewAddr(segment Segment, varType Type) (Addr, error) {
	idx := s.counters[segment][varType]
	if idx >= BlockSize {
		return 0, errors.OutOfMemory(segment.String(), varType.String(), 0)
	}
	s.counters[segment][varType] = idx + 1
	return Base(segment, varType) + Addr(idx), nil
}

// Snapshot returns a copy of the current per-type counters for segment.
func (s *AddressScheme) Snapshot(segment Segment) map[Type]int {
	out := make(map[Type]int, len(s.counters[segment]))
	for t, c := range s.counters[segment] {
		out[t] = c
	}
	return out
}

// Reset zeroes every per-type counter in segment. The generator calls this
// at the end of every function body so local/temp indices restart at 0 for
// the next function.
func (s *AddressScheme) Reset(segment Segment) {
	for t := range s.counters[segment] {
		s.counters[segment][t] = 0
	}
}
