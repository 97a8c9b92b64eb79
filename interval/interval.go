// Package interval implements the bounded-integer interval lattice used by
// the abstract-interpretation engine: bottom, top, join, meet, widen,
// narrow, and the interval arithmetic needed by the statement interpreter.
package interval

import (
	"fmt"
	"math/big"

	gmath "github.com/ethereum/go-ethereum/common/math"
)

// Bound is one endpoint of an Interval: a finite big integer or ±infinity.
type Bound struct {
	inf int8 // 0 = finite, -1 = -inf, +1 = +inf
	val *big.Int
}

// NegInf returns the -infinity bound.
func NegInf() Bound { return Bound{inf: -1} }

// PosInf returns the +infinity bound.
func PosInf() Bound { return Bound{inf: 1} }

// Finite wraps a concrete integer bound.
func Finite(v *big.Int) Bound { return Bound{val: v} }

// FromInt64 is a convenience constructor for a finite bound.
func FromInt64(v int64) Bound { return Finite(big.NewInt(v)) }

func (b Bound) IsNegInf() bool { return b.inf < 0 }
func (b Bound) IsPosInf() bool { return b.inf > 0 }
func (b Bound) IsFinite() bool { return b.inf == 0 }

// Int64 returns the finite value; callers must check IsFinite first.
func (b Bound) Int64() int64 { return b.val.Int64() }

// Big returns the underlying big.Int of a finite bound.
func (b Bound) Big() *big.Int { return b.val }

// Cmp orders bounds with -inf < finite < +inf.
func (b Bound) Cmp(o Bound) int {
	if b.inf != o.inf {
		if b.inf < o.inf {
			return -1
		}
		return 1
	}
	if b.inf != 0 {
		return 0
	}
	return b.val.Cmp(o.val)
}

func (b Bound) String() string {
	switch {
	case b.IsNegInf():
		return "-inf"
	case b.IsPosInf():
		return "+inf"
	default:
		return b.val.String()
	}
}

// Plus1 returns b+1, or b unchanged if b is infinite.
func (b Bound) Plus1() Bound {
	if !b.IsFinite() {
		return b
	}
	return Finite(new(big.Int).Add(b.val, big.NewInt(1)))
}

// Minus1 returns b-1, or b unchanged if b is infinite.
func (b Bound) Minus1() Bound {
	if !b.IsFinite() {
		return b
	}
	return Finite(new(big.Int).Sub(b.val, big.NewInt(1)))
}

func minBound(a, b Bound) Bound {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}

func maxBound(a, b Bound) Bound {
	if a.Cmp(b) >= 0 {
		return a
	}
	return b
}

// Interval is a closed interval [Lo, Hi] over the extended integers, or
// bottom. The zero value is NOT a valid interval; use Bottom/Top/Singleton.
type Interval struct {
	bot    bool
	lo, hi Bound
}

// Top returns [-inf, +inf].
func Top() Interval { return Interval{lo: NegInf(), hi: PosInf()} }

// Bottom returns the empty interval.
func Bottom() Interval { return Interval{bot: true} }

// Singleton returns the interval [k, k].
func Singleton(k int64) Interval {
	b := FromInt64(k)
	return Interval{lo: b, hi: b}
}

// SingletonBig returns the interval [k, k] for an arbitrary-precision k.
func SingletonBig(k *big.Int) Interval {
	b := Finite(k)
	return Interval{lo: b, hi: b}
}

// Range builds [lo, hi], or Bottom if lo > hi.
func Range(lo, hi Bound) Interval {
	if lo.Cmp(hi) > 0 {
		return Bottom()
	}
	return Interval{lo: lo, hi: hi}
}

func (i Interval) IsBottom() bool { return i.bot }

func (i Interval) IsTop() bool {
	return !i.bot && i.lo.IsNegInf() && i.hi.IsPosInf()
}

// IsNumeral reports whether the interval denotes exactly one integer.
func (i Interval) IsNumeral() bool {
	return !i.bot && i.lo.IsFinite() && i.hi.IsFinite() && i.lo.val.Cmp(i.hi.val) == 0
}

func (i Interval) Lb() Bound { return i.lo }
func (i Interval) Ub() Bound { return i.hi }

func (i Interval) String() string {
	if i.bot {
		return "bot"
	}
	return fmt.Sprintf("[%s, %s]", i.lo, i.hi)
}

// Equal is structural equality, per the spec's data-model invariant.
func (i Interval) Equal(o Interval) bool {
	if i.bot || o.bot {
		return i.bot == o.bot
	}
	return i.lo.Cmp(o.lo) == 0 && i.hi.Cmp(o.hi) == 0
}

// Leq is the lattice order: i sqsubseteq o.
func (i Interval) Leq(o Interval) bool {
	if i.bot {
		return true
	}
	if o.bot {
		return false
	}
	return o.lo.Cmp(i.lo) <= 0 && i.hi.Cmp(o.hi) <= 0
}

// Join computes the join of two intervals and reports whether the result
// differs from a (mirrors the teacher's joinVals (result, changed) idiom).
func Join(a, b Interval) (Interval, bool) {
	if a.bot {
		return b, !b.bot
	}
	if b.bot {
		return a, false
	}
	lo := minBound(a.lo, b.lo)
	hi := maxBound(a.hi, b.hi)
	changed := lo.Cmp(a.lo) != 0 || hi.Cmp(a.hi) != 0
	return Interval{lo: lo, hi: hi}, changed
}

// Meet computes the meet (intersection) of two intervals.
func Meet(a, b Interval) Interval {
	if a.bot || b.bot {
		return Bottom()
	}
	return Range(maxBound(a.lo, b.lo), minBound(a.hi, b.hi))
}

// MeetWith mutates i in place to i ⊓ o.
func (i *Interval) MeetWith(o Interval) { *i = Meet(*i, o) }

// Widen implements the standard widening rule: drop any bound that grew
// relative to prev to the corresponding infinity.
func Widen(prev, cur Interval) Interval {
	if prev.bot {
		return cur
	}
	if cur.bot {
		return prev
	}
	lo := prev.lo
	if cur.lo.Cmp(prev.lo) < 0 {
		lo = NegInf()
	}
	hi := prev.hi
	if cur.hi.Cmp(prev.hi) > 0 {
		hi = PosInf()
	}
	return Interval{lo: lo, hi: hi}
}

// Narrow lowers infinite bounds of the widened interval w toward cur's
// finite bounds, without ever going below cur.
func Narrow(w, cur Interval) Interval {
	if cur.bot {
		return cur
	}
	if w.bot {
		return w
	}
	lo := w.lo
	if w.lo.IsNegInf() && cur.lo.IsFinite() {
		lo = cur.lo
	}
	hi := w.hi
	if w.hi.IsPosInf() && cur.hi.IsFinite() {
		hi = cur.hi
	}
	return Range(lo, hi)
}

// TypeRange returns [min, max] for a signed/unsigned integer of the given
// bit width (8/16/>=32 bits wide are distinguished by the spec; this
// accepts bit width directly for callers that already know it).
func TypeRange(bitWidth int, signed bool) Interval {
	if bitWidth <= 0 {
		return Top()
	}
	if bitWidth >= 64 {
		if signed {
			return Top()
		}
		// An unsigned 64-bit (or wider) value is still bounded below by 0.
		return Range(FromInt64(0), PosInf())
	}
	max := new(big.Int).Lsh(big.NewInt(1), uint(bitWidth))
	if signed {
		half := new(big.Int).Rsh(max, 1)
		lo := new(big.Int).Neg(half)
		hi := new(big.Int).Sub(half, big.NewInt(1))
		return Range(Finite(lo), Finite(hi))
	}
	hi := new(big.Int).Sub(max, big.NewInt(1))
	return Range(FromInt64(0), Finite(hi))
}

// corner evaluates f over every combination of finite/infinite endpoints of
// a and b, propagating infinities by sign, and joins the finite results.
func corner(a, b Interval, f func(x, y *big.Int) *big.Int, signAt func(xInf int8, yInf int8) int8) Interval {
	if a.bot || b.bot {
		return Bottom()
	}
	xs := []Bound{a.lo, a.hi}
	ys := []Bound{b.lo, b.hi}
	res := Bottom()
	for _, x := range xs {
		for _, y := range ys {
			var part Interval
			switch {
			case x.IsFinite() && y.IsFinite():
				part = SingletonBig(f(x.val, y.val))
			default:
				s := signAt(x.inf, y.inf)
				switch {
				case s < 0:
					part = Range(NegInf(), NegInf())
				case s > 0:
					part = Range(PosInf(), PosInf())
				default:
					return Top()
				}
			}
			res, _ = Join(res, part)
		}
	}
	return res
}

// Add computes a + b.
func Add(a, b Interval) Interval {
	if a.bot || b.bot {
		return Bottom()
	}
	lo := addBound(a.lo, b.lo)
	hi := addBound(a.hi, b.hi)
	return Range(lo, hi)
}

func addBound(x, y Bound) Bound {
	if x.IsFinite() && y.IsFinite() {
		return Finite(new(big.Int).Add(x.val, y.val))
	}
	if !x.IsFinite() && !y.IsFinite() && x.inf != y.inf {
		// -inf + +inf: undefined, caller should treat as top via Range collapse.
		return NegInf()
	}
	if !x.IsFinite() {
		return x
	}
	return y
}

// Sub computes a - b.
func Sub(a, b Interval) Interval {
	return Add(a, Negate(b))
}

// Negate computes -a.
func Negate(a Interval) Interval {
	if a.bot {
		return Bottom()
	}
	return Range(negBound(a.hi), negBound(a.lo))
}

func negBound(b Bound) Bound {
	switch {
	case b.IsNegInf():
		return PosInf()
	case b.IsPosInf():
		return NegInf()
	default:
		return Finite(new(big.Int).Neg(b.val))
	}
}

// Mul computes a * b via corner evaluation.
func Mul(a, b Interval) Interval {
	return corner(a, b, func(x, y *big.Int) *big.Int { return new(big.Int).Mul(x, y) },
		func(xInf, yInf int8) int8 {
			if xInf == 0 || yInf == 0 {
				return 0
			}
			return xInf * yInf
		})
}

// ContainsZero reports whether 0 lies within the interval.
func (i Interval) ContainsZero() bool {
	if i.bot {
		return false
	}
	return i.lo.Cmp(FromInt64(0)) <= 0 && i.hi.Cmp(FromInt64(0)) >= 0
}

// Div computes a / b (truncating division). Per the spec, a divisor whose
// range contains zero yields top.
func Div(a, b Interval) Interval {
	if a.bot || b.bot {
		return Bottom()
	}
	if b.ContainsZero() {
		return Top()
	}
	// b excludes zero, so it is either wholly negative or wholly positive.
	negDivisor := b.hi.Cmp(FromInt64(0)) < 0
	return corner(a, b, func(x, y *big.Int) *big.Int { return new(big.Int).Quo(x, y) },
		func(xInf, yInf int8) int8 {
			if yInf != 0 {
				return 0 // an infinite divisor bound makes corner return top
			}
			if negDivisor {
				return -xInf
			}
			return xInf
		})
}

// Rem computes a % b. A divisor range containing zero yields top.
func Rem(a, b Interval) Interval {
	if a.bot || b.bot {
		return Bottom()
	}
	if b.ContainsZero() {
		return Top()
	}
	if !a.lo.IsFinite() || !a.hi.IsFinite() || !b.lo.IsFinite() || !b.hi.IsFinite() {
		return Top()
	}
	// Bound the magnitude of the result by the divisor's largest magnitude.
	mag := gmath.BigMax(new(big.Int).Abs(b.lo.val), new(big.Int).Abs(b.hi.val))
	mag = new(big.Int).Sub(mag, big.NewInt(1))
	if mag.Sign() < 0 {
		mag = big.NewInt(0)
	}
	return Range(Finite(new(big.Int).Neg(mag)), Finite(mag))
}

// And, Or, Xor are modelled precisely only for concrete singletons; for any
// other operand they soundly collapse to top. Bit-level reasoning over
// ranges is not attempted here.
func And(a, b Interval) Interval { return bitwiseConst(a, b, func(x, y *big.Int) *big.Int { return new(big.Int).And(x, y) }) }
func Or(a, b Interval) Interval  { return bitwiseConst(a, b, func(x, y *big.Int) *big.Int { return new(big.Int).Or(x, y) }) }
func Xor(a, b Interval) Interval { return bitwiseConst(a, b, func(x, y *big.Int) *big.Int { return new(big.Int).Xor(x, y) }) }

func bitwiseConst(a, b Interval, f func(x, y *big.Int) *big.Int) Interval {
	if a.bot || b.bot {
		return Bottom()
	}
	if a.IsNumeral() && b.IsNumeral() {
		return SingletonBig(f(a.lo.val, b.lo.val))
	}
	return Top()
}

const maxShiftEnumerate = 64

// Shl computes a << b by joining a << k for every k in b's range, per the
// spec's "join over the range" rule for shifts.
func Shl(a, b Interval) Interval {
	return shiftJoin(a, b, func(v *big.Int, k uint) *big.Int { return new(big.Int).Lsh(v, k) })
}

// Shr computes a >> b (arithmetic) the same way.
func Shr(a, b Interval) Interval {
	return shiftJoin(a, b, func(v *big.Int, k uint) *big.Int { return new(big.Int).Rsh(v, k) })
}

func shiftJoin(a, b Interval, f func(v *big.Int, k uint) *big.Int) Interval {
	if a.bot || b.bot {
		return Bottom()
	}
	if !b.lo.IsFinite() || !b.hi.IsFinite() || !a.lo.IsFinite() || !a.hi.IsFinite() {
		return Top()
	}
	lo := b.lo.Int64()
	hi := b.hi.Int64()
	if lo < 0 || hi-lo > maxShiftEnumerate {
		return Top()
	}
	res := Bottom()
	for k := lo; k <= hi; k++ {
		part := Range(Finite(f(a.lo.val, uint(k))), Finite(f(a.hi.val, uint(k))))
		res, _ = Join(res, part)
	}
	return res
}

// Boolean intervals, as produced by comparisons.
var (
	BoolFalse   = Singleton(0)
	BoolTrue    = Singleton(1)
	BoolUnknown = Range(FromInt64(0), FromInt64(1))
)

func Eq(a, b Interval) Interval {
	if a.bot || b.bot {
		return Bottom()
	}
	if a.IsNumeral() && b.IsNumeral() {
		if a.lo.val.Cmp(b.lo.val) == 0 {
			return BoolTrue
		}
		return BoolFalse
	}
	if Meet(a, b).IsBottom() {
		return BoolFalse
	}
	return BoolUnknown
}

func Ne(a, b Interval) Interval {
	r := Eq(a, b)
	switch {
	case r.Equal(BoolTrue):
		return BoolFalse
	case r.Equal(BoolFalse):
		return BoolTrue
	default:
		return BoolUnknown
	}
}

func Lt(a, b Interval) Interval { return orderCmp(a, b, -1, false) }
func Le(a, b Interval) Interval { return orderCmp(a, b, -1, true) }
func Gt(a, b Interval) Interval { return orderCmp(a, b, 1, false) }
func Ge(a, b Interval) Interval { return orderCmp(a, b, 1, true) }

// orderCmp handles <, <=, >, >= uniformly: dir=-1 for </<=, dir=1 for >/>=;
// eq=true allows equality.
func orderCmp(a, b Interval, dir int, eq bool) Interval {
	if a.bot || b.bot {
		return Bottom()
	}
	var alwaysTrue, alwaysFalse bool
	if dir < 0 {
		hiLimit := a.hi
		loLimit := b.lo
		if eq {
			alwaysTrue = hiLimit.Cmp(loLimit) <= 0
		} else {
			alwaysTrue = hiLimit.Cmp(loLimit) < 0
		}
		loA, hiB := a.lo, b.hi
		if eq {
			alwaysFalse = loA.Cmp(hiB) > 0
		} else {
			alwaysFalse = loA.Cmp(hiB) >= 0
		}
	} else {
		loLimit := a.lo
		hiLimit := b.hi
		if eq {
			alwaysTrue = loLimit.Cmp(hiLimit) >= 0
		} else {
			alwaysTrue = loLimit.Cmp(hiLimit) > 0
		}
		hiA, loB := a.hi, b.lo
		if eq {
			alwaysFalse = hiA.Cmp(loB) < 0
		} else {
			alwaysFalse = hiA.Cmp(loB) <= 0
		}
	}
	switch {
	case alwaysTrue:
		return BoolTrue
	case alwaysFalse:
		return BoolFalse
	default:
		return BoolUnknown
	}
}
