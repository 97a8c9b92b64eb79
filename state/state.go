// Package state implements AbstractState: the variable map and abstract
// heap that the engine threads through every program point, plus the
// memory-model operations (load/store/initObj/GEP arithmetic) the
// statement interpreter and branch refiner build on.
package state

import (
	"github.com/cubicYYY/SVF/address"
	"github.com/cubicYYY/SVF/interval"
	"github.com/cubicYYY/SVF/value"
)

// VarID identifies a variable in the consumed ICFG's symbol space.
type VarID uint32

// TypeInfo carries just enough per-variable type information for the
// transfer functions to compute byte sizes and signedness; everything else
// about a type (structure layout, etc.) is the ICFG collaborator's concern.
type TypeInfo struct {
	IsInteger bool
	BitWidth  int
	Signed    bool
	// ByteSize is the size of the whole object this TypeInfo describes, 0
	// if unknown.
	ByteSize int
	// ElemSize is the size of one element (array element or pointee), 0 if
	// unknown; callers fall back to 1 per the spec's memcpy/memset rule.
	ElemSize int
}

// State is a variable -> value map plus an address -> value memory, or
// bottom. It is the unit the WTOEngine stores per ICFG node in the trace.
type State struct {
	isBot bool
	vars  map[VarID]value.Value
	mem   map[address.Address]value.Value

	maxFieldLimit int
}

// New returns an empty (non-bottom) state.
func New(maxFieldLimit int) *State {
	return &State{
		vars:          map[VarID]value.Value{},
		mem:           map[address.Address]value.Value{},
		maxFieldLimit: maxFieldLimit,
	}
}

// Bottom returns the bottom state.
func Bottom(maxFieldLimit int) *State {
	s := New(maxFieldLimit)
	s.isBot = true
	return s
}

func (s *State) IsBottom() bool { return s.isBot }

func (s *State) MaxFieldLimit() int { return s.maxFieldLimit }

// Clone makes a deep copy, so callers (notably BranchRefiner) can mutate
// the result without perturbing the trace.
func (s *State) Clone() *State {
	ns := New(s.maxFieldLimit)
	ns.isBot = s.isBot
	for k, v := range s.vars {
		ns.vars[k] = v
	}
	for k, v := range s.mem {
		ns.mem[k] = v
	}
	return ns
}

// Get returns the value bound to v, or numeric top if v has never been
// set (the documented "missing = top numeric" fallback).
func (s *State) Get(v VarID) value.Value {
	val, ok := s.vars[v]
	if !ok {
		return value.Top()
	}
	return val
}

// Lookup reports whether v has an explicit binding, distinguishing a
// genuinely-set value from Get's "missing = top" fallback; the
// CallDispatcher's recursive-call havoc needs this to tell a pointer
// parameter or global it can resolve from one it cannot.
func (s *State) Lookup(v VarID) (value.Value, bool) {
	val, ok := s.vars[v]
	return val, ok
}

// MergeFrom replaces s's variable map, memory, and bottom flag with
// other's, used by the CallDispatcher to thread a callee's resulting heap
// and locals back into the caller's state after a direct descent.
func (s *State) MergeFrom(other *State) {
	s.isBot = other.isBot
	s.vars = other.vars
	s.mem = other.mem
	s.maxFieldLimit = other.maxFieldLimit
}

// Set binds v to val.
func (s *State) Set(v VarID, val value.Value) {
	if s.isBot {
		return
	}
	s.vars[v] = val
}

// InitObj creates an address for the given object and, if the object's
// type is an integer type, meet-intersects its initial memory content
// with the type's representable range. It returns the singleton address
// set value suitable for binding to the pointer variable that refers to
// the object.
func (s *State) InitObj(obj address.Address, typ TypeInfo) value.Value {
	if !s.isBot && typ.IsInteger {
		rng := interval.TypeRange(typ.BitWidth, typ.Signed)
		existing, ok := s.mem[obj]
		if !ok || existing.IsBottom() {
			s.mem[obj] = value.FromInterval(rng)
		} else if existing.IsInterval() {
			s.mem[obj] = value.FromInterval(interval.Meet(existing.Interval(), rng))
		}
	}
	return value.FromAddressSet(address.Single(obj))
}

// Load looks up addr in memory; a missing entry is bottom, and the null
// address always yields bottom regardless of what (if anything) was
// stored there.
func (s *State) Load(addr address.Address) value.Value {
	if addr.IsNull() {
		return value.Bottom()
	}
	v, ok := s.mem[addr]
	if !ok {
		return value.Bottom()
	}
	return v
}

// Store performs a weak update: the new value is joined with whatever was
// already at addr. Storing through the null address is a no-op.
func (s *State) Store(addr address.Address, v value.Value) {
	if s.isBot || addr.IsNull() {
		return
	}
	cur, ok := s.mem[addr]
	if !ok {
		s.mem[addr] = v
		return
	}
	joined, _ := value.Join(cur, v)
	s.mem[addr] = joined
}

// StoreStrong overwrites addr outright; callers must clear first if they
// want a strong update, per the spec's "callers performing strong updates
// must clear first" note -- this is that clearing-and-setting primitive.
func (s *State) StoreStrong(addr address.Address, v value.Value) {
	if s.isBot || addr.IsNull() {
		return
	}
	s.mem[addr] = v
}

// LoadValue dereferences vars[v] as an address set and joins the load of
// every target address.
func (s *State) LoadValue(v VarID) value.Value {
	addrs := s.Get(v).AddressSet()
	res := value.Bottom()
	addrs.Each(func(a address.Address) {
		res, _ = value.Join(res, s.Load(a))
	})
	return res
}

// StoreValue dereferences vars[v] as an address set and weakly stores val
// to every target address.
func (s *State) StoreValue(v VarID, val value.Value) {
	addrs := s.Get(v).AddressSet()
	addrs.Each(func(a address.Address) {
		s.Store(a, val)
	})
}

// IsAddrVar reports whether v currently holds an address set.
func (s *State) IsAddrVar(v VarID) bool { return s.Get(v).IsAddress() }

// IsNumVar reports whether v currently holds an interval.
func (s *State) IsNumVar(v VarID) bool { return s.Get(v).IsInterval() }

// ByteOffset computes the symbolic byte offset of a GEP index, scaling by
// the element size (falling back to 1 when unknown, per the spec).
func ByteOffset(index interval.Interval, elemSize int) interval.Interval {
	if elemSize <= 0 {
		elemSize = 1
	}
	return interval.Mul(index, interval.Singleton(int64(elemSize)))
}

// ElementIndex is the inverse of ByteOffset: it recovers a symbolic array
// index from a byte offset and element size.
func ElementIndex(byteOffset interval.Interval, elemSize int) interval.Interval {
	if elemSize <= 0 {
		elemSize = 1
	}
	return interval.Div(byteOffset, interval.Singleton(int64(elemSize)))
}

// Equal is pointwise equality over both maps.
func Equal(a, b *State) bool {
	if a.isBot || b.isBot {
		return a.isBot == b.isBot
	}
	if !equalValueMaps(a.vars, b.vars) {
		return false
	}
	return equalMemMaps(a.mem, b.mem)
}

func equalValueMaps(a, b map[VarID]value.Value) bool {
	seen := map[VarID]bool{}
	for k, av := range a {
		seen[k] = true
		bv, ok := b[k]
		if !ok {
			bv = value.Bottom()
		}
		if !value.Equal(av, bv) {
			return false
		}
	}
	for k, bv := range b {
		if seen[k] {
			continue
		}
		if !value.Equal(value.Bottom(), bv) {
			return false
		}
	}
	return true
}

func equalMemMaps(a, b map[address.Address]value.Value) bool {
	seen := map[address.Address]bool{}
	for k, av := range a {
		seen[k] = true
		bv, ok := b[k]
		if !ok {
			bv = value.Bottom()
		}
		if !value.Equal(av, bv) {
			return false
		}
	}
	for k, bv := range b {
		if seen[k] {
			continue
		}
		if !value.Equal(value.Bottom(), bv) {
			return false
		}
	}
	return true
}

// Join computes the pointwise join of two states and reports whether the
// result differs from a, mirroring the teacher's (result, changed) idiom
// so the WTOEngine's widening loop can cheaply test for a fixpoint.
func Join(a, b *State) (*State, bool) {
	if a.isBot {
		return b.Clone(), !b.isBot
	}
	if b.isBot {
		return a.Clone(), false
	}
	res := New(a.maxFieldLimit)
	changed := false

	for k, av := range a.vars {
		bv, ok := b.vars[k]
		if !ok {
			res.vars[k] = av
			continue
		}
		jv, ch := value.Join(av, bv)
		res.vars[k] = jv
		changed = changed || ch
	}
	for k, bv := range b.vars {
		if _, ok := a.vars[k]; !ok {
			res.vars[k] = bv
			changed = true
		}
	}

	for k, am := range a.mem {
		bm, ok := b.mem[k]
		if !ok {
			res.mem[k] = am
			continue
		}
		jm, ch := value.Join(am, bm)
		res.mem[k] = jm
		changed = changed || ch
	}
	for k, bm := range b.mem {
		if _, ok := a.mem[k]; !ok {
			res.mem[k] = bm
			changed = true
		}
	}

	return res, changed
}

// Widen applies pointwise widening of cur relative to prev.
func Widen(prev, cur *State) *State {
	if prev.isBot {
		return cur.Clone()
	}
	if cur.isBot {
		return prev.Clone()
	}
	res := New(prev.maxFieldLimit)
	for k, cv := range cur.vars {
		pv, ok := prev.vars[k]
		if !ok {
			pv = value.Bottom()
		}
		res.vars[k] = value.Widen(pv, cv)
	}
	for k, cm := range cur.mem {
		pm, ok := prev.mem[k]
		if !ok {
			pm = value.Bottom()
		}
		res.mem[k] = value.Widen(pm, cm)
	}
	return res
}

// Narrow applies pointwise narrowing of cur relative to the widened state w.
func Narrow(w, cur *State) *State {
	if cur.isBot {
		return cur.Clone()
	}
	if w.isBot {
		return cur.Clone()
	}
	res := New(w.maxFieldLimit)
	for k, wv := range w.vars {
		cv, ok := cur.vars[k]
		if !ok {
			cv = value.Bottom()
		}
		res.vars[k] = value.Narrow(wv, cv)
	}
	for k, v := range cur.vars {
		if _, ok := w.vars[k]; !ok {
			res.vars[k] = v
		}
	}
	for k, wm := range w.mem {
		cm, ok := cur.mem[k]
		if !ok {
			cm = value.Bottom()
		}
		res.mem[k] = value.Narrow(wm, cm)
	}
	for k, m := range cur.mem {
		if _, ok := w.mem[k]; !ok {
			res.mem[k] = m
		}
	}
	return res
}

// Vars exposes the variable map read-only, for clients querying the final
// trace.
func (s *State) Vars() map[VarID]value.Value { return s.vars }

// Mem exposes the memory map read-only, for clients querying the final
// trace.
func (s *State) Mem() map[address.Address]value.Value { return s.mem }
