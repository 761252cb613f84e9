package symbols

import "babyduck/internal/bytecode"

// constKey is the dedup key for the constants pool: exact-value on
// normalized values, so -3.2 and 3.2 are distinct entries.
type constKey struct {
	value interface{}
	typ   bytecode.Type
}

// ConstantEntry records a constant's canonical value and type, keyed by its
// allocated address — used for dumps and for preloading VM memory.
type ConstantEntry struct {
	Value interface{}
	Type  bytecode.Type
}

// ConstantsPool deduplicates literal (value, type) pairs into addresses in
// the const segment.
type ConstantsPool struct {
	scheme  *bytecode.AddressScheme
	byKey   map[constKey]bytecode.Addr
	byAddr  map[bytecode.Addr]ConstantEntry
}

// NewConstantsPool returns an empty pool backed by scheme for address
// allocation.
func NewConstantsPool(scheme *bytecode.AddressScheme) *ConstantsPool {
	return &ConstantsPool{
		scheme: scheme,
		byKey:  make(map[constKey]bytecode.Addr),
		byAddr: make(map[bytecode.Addr]ConstantEntry),
	}
}

// GetOrAdd returns the address for (value, typ), allocating and recording a
// new const-segment entry the first time this exact pair is seen.
func (c *ConstantsPool) GetOrAdd(value interface{}, typ bytecode.Type) (bytecode.Addr, error) {
	key := constKey{value: value, typ: typ}
	if addr, ok := c.byKey[key]; ok {
		return addr, nil
	}
	addr, err := c.scheme.NewAddr(bytecode.SegmentConst, typ)
	if err != nil {
		return 0, err
	}
	c.byKey[key] = addr
	c.byAddr[addr] = ConstantEntry{Value: value, Type: typ}
	return addr, nil
}

// Entries returns every constant, keyed by its allocated address — used to
// preload the VM's constant memory.
func (c *ConstantsPool) Entries() map[bytecode.Addr]ConstantEntry {
	out := make(map[bytecode.Addr]ConstantEntry, len(c.byAddr))
	for a, e := range c.byAddr {
		out[a] = e
	}
	return out
}
