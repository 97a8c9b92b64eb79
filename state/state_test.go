package state

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cubicYYY/SVF/address"
	"github.com/cubicYYY/SVF/interval"
	"github.com/cubicYYY/SVF/value"
)

func TestGetMissingIsTop(t *testing.T) {
	s := New(32)
	assert.True(t, s.Get(VarID(1)).IsBottom() == false)
	assert.True(t, s.Get(VarID(1)).Interval().IsTop())
}

func TestLoadNullIsBottom(t *testing.T) {
	s := New(32)
	assert.True(t, s.Load(address.AddrOf(address.NullObjectID, 0)).IsBottom())
}

func TestStoreWeakJoinsExisting(t *testing.T) {
	s := New(32)
	a := address.AddrOf(1, 0)
	s.Store(a, value.FromInterval(interval.Singleton(1)))
	s.Store(a, value.FromInterval(interval.Singleton(2)))
	got := s.Load(a)
	assert.True(t, got.Interval().Equal(interval.Range(interval.FromInt64(1), interval.FromInt64(2))))
}

func TestStoreStrongOverwrites(t *testing.T) {
	s := New(32)
	a := address.AddrOf(1, 0)
	s.Store(a, value.FromInterval(interval.Singleton(1)))
	s.StoreStrong(a, value.FromInterval(interval.Singleton(2)))
	got := s.Load(a)
	assert.True(t, got.Interval().Equal(interval.Singleton(2)))
}

func TestInitObjInitializesIntegerRange(t *testing.T) {
	s := New(32)
	obj := address.AddrOf(1, 0)
	v := s.InitObj(obj, TypeInfo{IsInteger: true, BitWidth: 8, Signed: false})
	assert.True(t, v.IsAddress())
	mem := s.Load(obj)
	assert.True(t, mem.Interval().Equal(interval.Range(interval.FromInt64(0), interval.FromInt64(255))))
}

func TestLoadValueStoreValueThroughPointer(t *testing.T) {
	s := New(32)
	obj := address.AddrOf(1, 0)
	ptr := VarID(10)
	s.Set(ptr, value.FromAddressSet(address.Single(obj)))
	s.StoreValue(ptr, value.FromInterval(interval.Singleton(7)))
	got := s.LoadValue(ptr)
	assert.True(t, got.Interval().Equal(interval.Singleton(7)))
}

func TestJoinDetectsChange(t *testing.T) {
	a := New(32)
	a.Set(VarID(1), value.FromInterval(interval.Singleton(1)))
	b := New(32)
	b.Set(VarID(1), value.FromInterval(interval.Singleton(2)))

	j, changed := Join(a, b)
	assert.True(t, changed)
	assert.True(t, j.Get(VarID(1)).Interval().Equal(interval.Range(interval.FromInt64(1), interval.FromInt64(2))))
}

func TestEqualIgnoresBottomEntries(t *testing.T) {
	a := New(32)
	a.Set(VarID(1), value.FromInterval(interval.Singleton(1)))
	b := New(32)
	b.Set(VarID(1), value.FromInterval(interval.Singleton(1)))
	b.Set(VarID(2), value.Bottom())
	assert.True(t, Equal(a, b))
}

func TestByteOffsetElementIndexRoundTrip(t *testing.T) {
	idx := interval.Singleton(3)
	off := ByteOffset(idx, 4)
	assert.True(t, off.Equal(interval.Singleton(12)))
	back := ElementIndex(off, 4)
	assert.True(t, back.Equal(idx))
}

func TestCloneIsIndependent(t *testing.T) {
	s := New(32)
	s.Set(VarID(1), value.FromInterval(interval.Singleton(1)))
	c := s.Clone()
	c.Set(VarID(1), value.FromInterval(interval.Singleton(9)))
	assert.True(t, s.Get(VarID(1)).Interval().Equal(interval.Singleton(1)))
}
