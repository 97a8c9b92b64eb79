// Package value implements AbstractValue: the tagged union of Interval and
// AddressSet that every variable and memory cell holds. It never mixes the
// two kinds silently; callers that combine a numeric and an address value
// get bottom rather than a made-up hybrid.
package value

import (
	"fmt"

	"github.com/cubicYYY/SVF/address"
	"github.com/cubicYYY/SVF/interval"
)

// Kind tags which lattice member a Value currently holds.
type Kind int

const (
	// KindBottom holds neither an interval nor an address set yet.
	KindBottom Kind = iota
	KindInterval
	KindAddress
)

// Value is exactly one of {Interval, AddressSet}.
type Value struct {
	kind Kind
	num  interval.Interval
	addr address.Set
}

// Bottom returns the value-lattice bottom.
func Bottom() Value { return Value{kind: KindBottom} }

// FromInterval wraps an Interval as a Value.
func FromInterval(i interval.Interval) Value {
	if i.IsBottom() {
		return Bottom()
	}
	return Value{kind: KindInterval, num: i}
}

// FromAddressSet wraps an address.Set as a Value.
func FromAddressSet(s address.Set) Value {
	if s.IsEmpty() {
		return Bottom()
	}
	return Value{kind: KindAddress, addr: s}
}

// Top returns the numeric top, [-inf, +inf]; used when the spec calls for
// "lhs := top" on a numeric result.
func Top() Value { return FromInterval(interval.Top()) }

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsBottom() bool { return v.kind == KindBottom }
func (v Value) IsInterval() bool { return v.kind == KindInterval }
func (v Value) IsAddress() bool { return v.kind == KindAddress }

// Interval returns the wrapped interval; callers must check IsInterval.
// A non-interval value is reported as top, which is the documented
// "missing = top" fallback for numeric queries (§4.3).
func (v Value) Interval() interval.Interval {
	if v.kind != KindInterval {
		return interval.Top()
	}
	return v.num
}

// AddressSet returns the wrapped address set; a non-address value is
// reported as empty, the documented "missing = empty address set"
// fallback.
func (v Value) AddressSet() address.Set {
	if v.kind != KindAddress {
		return address.Empty()
	}
	return v.addr
}

func (v Value) String() string {
	switch v.kind {
	case KindInterval:
		return v.num.String()
	case KindAddress:
		return fmt.Sprintf("%v", v.addr.Slice())
	default:
		return "bot"
	}
}

// Equal is structural equality, respecting the tag.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return a.IsBottom() && b.IsBottom()
	}
	switch a.kind {
	case KindInterval:
		return a.num.Equal(b.num)
	case KindAddress:
		return address.Equal(a.addr, b.addr)
	default:
		return true
	}
}

// Join combines two values of the same kind; joining across kinds is
// rejected (by returning bottom) rather than silently mixed, per the
// AbstractValue invariant. Joining with bottom is always defined.
func Join(a, b Value) (Value, bool) {
	if a.IsBottom() {
		return b, !b.IsBottom()
	}
	if b.IsBottom() {
		return a, false
	}
	if a.kind != b.kind {
		// Unsound to ever observe in a well-typed program: a variable's
		// static type fixes whether it is numeric or a pointer. Bottom is
		// the conservative choice that cannot hide a bug.
		return Bottom(), true
	}
	switch a.kind {
	case KindInterval:
		r, changed := interval.Join(a.num, b.num)
		return FromInterval(r), changed
	case KindAddress:
		r, changed := address.Join(a.addr, b.addr)
		return FromAddressSet(r), changed
	default:
		return Bottom(), false
	}
}

// Meet combines two values of the same kind via intersection.
func Meet(a, b Value) Value {
	if a.IsBottom() || b.IsBottom() {
		return Bottom()
	}
	if a.kind != b.kind {
		return Bottom()
	}
	switch a.kind {
	case KindInterval:
		return FromInterval(interval.Meet(a.num, b.num))
	case KindAddress:
		return FromAddressSet(address.Meet(a.addr, b.addr))
	default:
		return Bottom()
	}
}

// Widen applies interval widening when both sides are numeric; address
// sets have no ascending-chain hazard in the common case, so they widen by
// join; no clamping is applied here or in AbstractState (address.JoinClamped
// is an opt-in utility, see DESIGN.md).
func Widen(prev, cur Value) Value {
	if prev.kind != cur.kind {
		if prev.IsBottom() {
			return cur
		}
		return Bottom()
	}
	switch cur.kind {
	case KindInterval:
		return FromInterval(interval.Widen(prev.num, cur.num))
	case KindAddress:
		r, _ := address.Join(prev.addr, cur.addr)
		return FromAddressSet(r)
	default:
		return Bottom()
	}
}

// Narrow applies interval narrowing when both sides are numeric; address
// sets narrow to the more refined (current) value.
func Narrow(w, cur Value) Value {
	if w.kind != cur.kind {
		return cur
	}
	switch cur.kind {
	case KindInterval:
		return FromInterval(interval.Narrow(w.num, cur.num))
	case KindAddress:
		return cur
	default:
		return Bottom()
	}
}
