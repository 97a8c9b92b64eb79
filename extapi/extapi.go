// Package extapi models the external-API annotation table: for every
// function the ICFG does not itself define a body for (libc, POSIX, and
// similar), it records what shape of effect a call must have so
// CallDispatcher can apply a transfer function instead of havoc-ing the
// callee entirely. Tags and table format follow spec.md §4.8.
package extapi

import (
	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/cubicYYY/SVF/address"
	"github.com/cubicYYY/SVF/icfg"
	"github.com/cubicYYY/SVF/interval"
	"github.com/cubicYYY/SVF/refine"
	"github.com/cubicYYY/SVF/state"
	"github.com/cubicYYY/SVF/value"
)

// Tag enumerates the effect shapes the dispatcher knows how to apply.
type Tag string

const (
	TagMemcpy     Tag = "MEMCPY"
	TagMemset     Tag = "MEMSET"
	TagStrcpy     Tag = "STRCPY"
	TagStrcat     Tag = "STRCAT"
	TagAllocRet   Tag = "ALLOC_RET"
	TagAllocArg0  Tag = "ALLOC_ARG0"
	TagAllocArg1  Tag = "ALLOC_ARG1"
	TagAllocArg2  Tag = "ALLOC_ARG2"
	TagReallocRet Tag = "REALLOC_RET"
	TagOverwrite  Tag = "OVERWRITE"
	TagStrlen     Tag = "STRLEN"
	TagNoop       Tag = "NOOP"
)

// Entry is one row of the annotation table: a function name mapped to the
// tag governing its transfer function.
type Entry struct {
	Name string `toml:"name"`
	Tag  Tag    `toml:"tag"`
}

// tomlTable is the on-disk shape the config TOML file decodes into.
type tomlTable struct {
	Func []Entry `toml:"func"`
}

// Table is the loaded annotation table, indexed for O(1) lookup.
type Table map[string]Tag

// Load reads a TOML-formatted extapi file (one [[func]] table per entry)
// via BurntSushi/toml, the same decoder config.Load uses.
func Load(path string) (Table, error) {
	var raw tomlTable
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return nil, errors.Wrapf(err, "loading extapi table %q", path)
	}
	t := make(Table, len(raw.Func))
	for _, e := range raw.Func {
		t[e.Name] = e.Tag
	}
	return t, nil
}

// Lookup returns the tag for name, or TagNoop if name is unannotated; an
// unannotated external call is treated as a no-op write but an unbounded
// (top) return value, the conservative default for a truly unknown extern.
func (t Table) Lookup(name string) Tag {
	if t == nil {
		return TagNoop
	}
	if tag, ok := t[name]; ok {
		return tag
	}
	return TagNoop
}

// Apply runs the transfer function for tag against a callsite's arguments
// and binds the call's result (if any), per spec.md §4.8. allocType/allocObj
// carry the fresh object an ALLOC_* tag binds. defs is the caller's
// DefIndex, needed by STRLEN/MEMCPY-family tags to back-walk a pointer's
// allocation site per spec.md §4.8 allocSize.
func Apply(st *state.State, tag Tag, args []state.VarID, lhs state.VarID, hasLhs bool, allocType state.TypeInfo, allocObj address.Address, defs refine.DefIndex) error {
	switch tag {
	case TagMemcpy:
		if len(args) < 3 {
			return errors.New("memcpy transfer requires 3 arguments")
		}
		memcpyLike(st, args[0], args[1], st.Get(args[2]).Interval(), 0, gepElemSize(lookupDef(defs, args[0])))
		return nil
	case TagMemset:
		if len(args) < 3 {
			return errors.New("memset transfer requires 3 arguments")
		}
		memsetLike(st, args[0], value.FromInterval(st.Get(args[1]).Interval()), st.Get(args[2]).Interval())
		return nil
	case TagStrcpy:
		if len(args) < 2 {
			return errors.New("strcpy transfer requires 2 arguments")
		}
		n := allocSize(defs, st, args[1])
		slen := strlenOf(st, defs, args[1], n)
		memcpyLike(st, args[0], args[1], interval.Add(slen, interval.Singleton(1)), 0, 1)
		return nil
	case TagStrcat:
		if len(args) < 2 {
			return errors.New("strcat transfer requires 2 arguments")
		}
		dn := allocSize(defs, st, args[0])
		dlen := strlenOf(st, defs, args[0], dn)
		sn := allocSize(defs, st, args[1])
		slen := strlenOf(st, defs, args[1], sn)
		startIdx := lowerBoundOr(dlen, 0)
		memcpyLike(st, args[0], args[1], interval.Add(slen, interval.Singleton(1)), startIdx, 1)
		return nil
	case TagAllocRet:
		if hasLhs {
			st.Set(lhs, st.InitObj(allocObj, allocType))
		}
		return nil
	case TagAllocArg0, TagAllocArg1, TagAllocArg2:
		idx := map[Tag]int{TagAllocArg0: 0, TagAllocArg1: 1, TagAllocArg2: 2}[tag]
		if idx < len(args) {
			st.StoreValue(args[idx], st.InitObj(allocObj, allocType))
		}
		return nil
	case TagReallocRet:
		if hasLhs {
			v := st.InitObj(allocObj, allocType)
			if len(args) > 0 {
				if old := st.Get(args[0]); old.IsAddress() {
					v, _ = value.Join(v, old)
				}
			}
			st.Set(lhs, v)
		}
		return nil
	case TagOverwrite:
		if len(args) > 0 {
			memsetLike(st, args[0], value.Top(), interval.Singleton(int64(st.MaxFieldLimit())))
		}
		if hasLhs {
			st.Set(lhs, value.Top())
		}
		return nil
	case TagStrlen:
		if hasLhs && len(args) > 0 {
			st.Set(lhs, Strlen(st, defs, args[0]))
		}
		return nil
	case TagNoop:
		if hasLhs {
			st.Set(lhs, value.Top())
		}
		return nil
	default:
		return errors.Errorf("unhandled extapi tag %q", tag)
	}
}

// touchedCount implements the spec's k = min(MaxFieldLimit, n.lb)/elemSize,
// per spec.md §4.8: the iteration bound uses the length's lower bound, not
// its upper bound, so a length that might be larger is not silently
// over-approximated into touching more of the destination than guaranteed.
func touchedCount(n interval.Interval, maxFieldLimit int, elemSize int) int64 {
	if elemSize <= 0 {
		elemSize = 1
	}
	lb := lowerBoundOr(n, 0)
	if lb < 0 {
		lb = 0
	}
	if lb > int64(maxFieldLimit) {
		lb = int64(maxFieldLimit)
	}
	return lb / int64(elemSize)
}

func lowerBoundOr(iv interval.Interval, fallback int64) int64 {
	if iv.IsBottom() {
		return fallback
	}
	lb := iv.Lb()
	if !lb.IsFinite() {
		return fallback
	}
	return lb.Int64()
}

// loadAtOffset joins the load of base+offset for every address in base,
// via GepAddrs, per spec.md §4.8's element-wise memory transfer.
func loadAtOffset(st *state.State, base address.Set, offset int64, maxFieldLimit int) value.Value {
	res := value.Bottom()
	base.Each(func(a address.Address) {
		targets := address.GepAddrs(a, interval.Singleton(offset), maxFieldLimit)
		targets.Each(func(t address.Address) {
			res, _ = value.Join(res, st.Load(t))
		})
	})
	return res
}

// storeAtOffset weakly stores v to base+offset for every address in base.
func storeAtOffset(st *state.State, base address.Set, offset int64, v value.Value, maxFieldLimit int) {
	base.Each(func(a address.Address) {
		targets := address.GepAddrs(a, interval.Singleton(offset), maxFieldLimit)
		targets.Each(func(t address.Address) {
			st.Store(t, v)
		})
	})
}

// memcpyLike implements the MEMCPY/STRCPY/STRCAT family: for i in [0,k),
// copy load(src+i) to dst+(startIdx+i), per spec.md §4.8 memcpy.
func memcpyLike(st *state.State, dstVar, srcVar state.VarID, n interval.Interval, startIdx int64, elemSize int) {
	maxFieldLimit := st.MaxFieldLimit()
	k := touchedCount(n, maxFieldLimit, elemSize)
	dst := st.Get(dstVar).AddressSet()
	src := st.Get(srcVar).AddressSet()
	for i := int64(0); i < k; i++ {
		v := loadAtOffset(st, src, i, maxFieldLimit)
		storeAtOffset(st, dst, startIdx+i, v, maxFieldLimit)
	}
}

// memsetLike implements MEMSET: byte-granular, so elemSize is always 1.
func memsetLike(st *state.State, dstVar state.VarID, fill value.Value, n interval.Interval) {
	maxFieldLimit := st.MaxFieldLimit()
	k := touchedCount(n, maxFieldLimit, 1)
	dst := st.Get(dstVar).AddressSet()
	for i := int64(0); i < k; i++ {
		storeAtOffset(st, dst, i, fill, maxFieldLimit)
	}
}

func gepElemSize(def icfg.Stmt) int {
	if def.Kind == icfg.KGep && def.ElemSize > 0 {
		return def.ElemSize
	}
	return 1
}

func lookupDef(defs refine.DefIndex, v state.VarID) icfg.Stmt {
	if defs == nil {
		return icfg.Stmt{}
	}
	return defs[v]
}

const allocSizeMaxSteps = 64

// allocSize backward-walks the value-flow behind v through Copy/Load/Gep/
// Addr statements, accumulating byte offsets across Geps, per spec.md §4.8:
// on reaching an Addr statement it returns the object's byte size minus the
// accumulated offset; anything else it cannot trace through returns 0.
func allocSize(defs refine.DefIndex, st *state.State, v state.VarID) int {
	if defs == nil {
		return 0
	}
	cur := v
	accumulated := int64(0)
	for step := 0; step < allocSizeMaxSteps; step++ {
		def, ok := defs[cur]
		if !ok {
			return 0
		}
		switch def.Kind {
		case icfg.KAddr:
			size := int64(def.ObjType.ByteSize) - accumulated
			if size < 0 {
				size = 0
			}
			return int(size)
		case icfg.KCopy:
			if def.CopyKind != icfg.CopyValue && def.CopyKind != icfg.CopyBitCast {
				return 0
			}
			cur = def.Rhs
		case icfg.KLoad:
			cur = def.Rhs
		case icfg.KGep:
			elemSize := gepElemSize(def)
			accumulated += lowerBoundOr(st.Get(def.Offset).Interval(), 0) * int64(elemSize)
			cur = def.Base
		default:
			return 0
		}
	}
	return 0
}

// strlenOf scans s's memory for a terminator, per spec.md §4.8 strlen,
// bounding the scan by limit (the allocation size when known, else the
// engine's MaxFieldLimit).
func strlenOf(st *state.State, defs refine.DefIndex, srcVar state.VarID, limit int) interval.Interval {
	maxFieldLimit := st.MaxFieldLimit()
	if limit <= 0 || limit > maxFieldLimit {
		limit = maxFieldLimit
	}
	src := st.Get(srcVar).AddressSet()
	for i := 0; i < limit; i++ {
		loaded := loadAtOffset(st, src, int64(i), maxFieldLimit)
		if loaded.IsInterval() && loaded.Interval().Equal(interval.Singleton(0)) {
			return interval.Singleton(int64(i))
		}
	}
	return interval.Range(interval.FromInt64(0), interval.FromInt64(int64(maxFieldLimit)))
}

// Strlen models the strlen transfer function: it scans memory for a
// concrete-zero terminator starting from srcVar's addresses, bounded by the
// backward-walked allocation size of the pointed-to object when it can be
// determined, per spec.md §4.8.
func Strlen(st *state.State, defs refine.DefIndex, srcVar state.VarID) value.Value {
	n := allocSize(defs, st, srcVar)
	return value.FromInterval(strlenOf(st, defs, srcVar, n))
}
