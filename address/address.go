// Package address implements the finite-address lattice: abstract addresses
// (object id + field offset) and sets of addresses with set-lattice
// semantics, as consumed by AbstractState's memory model.
package address

import (
	"fmt"

	"github.com/cubicYYY/SVF/interval"
)

// NullObjectID is the reserved object id for the null pointer; loads
// through it must yield bottom, never a concrete value.
const NullObjectID uint32 = 0

// Address is an abstract address: a base object id plus a field offset
// within that object. It is packed into a single comparable value so the
// core can recover both halves cheaply and use Address directly as a map
// key.
type Address struct {
	obj   uint32
	field uint32
}

// AddrOf builds the address (objID, offset).
func AddrOf(objID, offset uint32) Address { return Address{obj: objID, field: offset} }

// BaseOf returns the object id component of a.
func BaseOf(a Address) uint32 { return a.obj }

// FieldOf returns the field-offset component of a.
func FieldOf(a Address) uint32 { return a.field }

// IsNull reports whether a denotes the null object.
func (a Address) IsNull() bool { return a.obj == NullObjectID }

// ID packs the address into a single uint64, for serialization/hashing.
func (a Address) ID() uint64 { return uint64(a.obj)<<32 | uint64(a.field) }

// FromID unpacks an address previously packed with ID.
func FromID(id uint64) Address {
	return Address{obj: uint32(id >> 32), field: uint32(id)}
}

func (a Address) String() string { return fmt.Sprintf("obj%d+%d", a.obj, a.field) }

// Set is a finite set of addresses with join=union, meet=intersection.
type Set struct {
	m map[Address]struct{}
}

// Empty returns the empty address set (the lattice bottom for this
// sub-domain).
func Empty() Set { return Set{m: map[Address]struct{}{}} }

// Single returns a singleton address set.
func Single(a Address) Set {
	s := Empty()
	s.m[a] = struct{}{}
	return s
}

// FromSlice builds a Set from a slice of addresses.
func FromSlice(as []Address) Set {
	s := Empty()
	for _, a := range as {
		s.m[a] = struct{}{}
	}
	return s
}

// Len reports the number of addresses in the set.
func (s Set) Len() int { return len(s.m) }

// IsEmpty reports whether the set has no addresses.
func (s Set) IsEmpty() bool { return len(s.m) == 0 }

// Contains reports whether a is a member of s.
func (s Set) Contains(a Address) bool {
	_, ok := s.m[a]
	return ok
}

// SingleAddr reports whether the set has exactly one address and returns it.
func (s Set) SingleAddr() (Address, bool) {
	if len(s.m) != 1 {
		return Address{}, false
	}
	for a := range s.m {
		return a, true
	}
	return Address{}, false
}

// Each calls f for every address in the set.
func (s Set) Each(f func(Address)) {
	for a := range s.m {
		f(a)
	}
}

// Slice returns the addresses in the set in unspecified order.
func (s Set) Slice() []Address {
	out := make([]Address, 0, len(s.m))
	for a := range s.m {
		out = append(out, a)
	}
	return out
}

// Join computes the union of two address sets and reports whether the
// result differs from a.
func Join(a, b Set) (Set, bool) {
	changed := false
	res := Empty()
	for x := range a.m {
		res.m[x] = struct{}{}
	}
	for x := range b.m {
		if _, ok := res.m[x]; !ok {
			res.m[x] = struct{}{}
			changed = true
		}
	}
	return res, changed
}

// Meet computes the intersection of two address sets.
func Meet(a, b Set) Set {
	res := Empty()
	for x := range a.m {
		if _, ok := b.m[x]; ok {
			res.m[x] = struct{}{}
		}
	}
	return res
}

// Intersects reports whether a and b share any address.
func Intersects(a, b Set) bool {
	small, big := a, b
	if len(a.m) > len(b.m) {
		small, big = b, a
	}
	for x := range small.m {
		if _, ok := big.m[x]; ok {
			return true
		}
	}
	return false
}

// Equal is set equality.
func Equal(a, b Set) bool {
	if len(a.m) != len(b.m) {
		return false
	}
	for x := range a.m {
		if _, ok := b.m[x]; !ok {
			return false
		}
	}
	return true
}

// GepAddrs computes the set of addresses reachable from base by adding
// every integer offset in offsets, clamped so that at most maxFieldLimit+1
// offsets (start through start+maxFieldLimit inclusive) are enumerated. This
// is getGepObjAddrs from the spec: the abstract semantics of a
// get-element-pointer whose index is not a concrete constant.
func GepAddrs(base Address, offsets interval.Interval, maxFieldLimit int) Set {
	res := Empty()
	if offsets.IsBottom() {
		return res
	}
	lo, hi := offsets.Lb(), offsets.Ub()
	var start, end int64
	if lo.IsFinite() {
		start = lo.Int64()
	} else {
		start = 0
	}
	if hi.IsFinite() {
		end = hi.Int64()
	} else {
		end = start + int64(maxFieldLimit)
	}
	if end-start > int64(maxFieldLimit) {
		end = start + int64(maxFieldLimit)
	}
	for k := start; k <= end; k++ {
		off := int64(base.field) + k
		if off < 0 {
			continue
		}
		res.m[AddrOf(base.obj, uint32(off))] = struct{}{}
	}
	return res
}

// WithTop is an address set that JoinClamped may collapse into a wildcard
// marker once it grows past maxAddrs, per the Open Question decision in
// DESIGN.md: an address set that grows without bound would never reach a
// widening fixpoint, so callers may clamp it. A clamped set reports IsTop()
// true.
type WithTop struct {
	Set
	top bool
}

func (w WithTop) IsTop() bool { return w.top }

// TopAddrs returns the wildcard (every-address) marker.
func TopAddrs() WithTop { return WithTop{top: true} }

// JoinClamped behaves like Join but collapses to TopAddrs once the result
// would exceed maxAddrs members.
func JoinClamped(a, b WithTop, maxAddrs int) (WithTop, bool) {
	if a.top || b.top {
		return TopAddrs(), !a.top
	}
	joined, changed := Join(a.Set, b.Set)
	if maxAddrs > 0 && joined.Len() > maxAddrs {
		return TopAddrs(), true
	}
	return WithTop{Set: joined}, changed
}
