package store

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"sort"
	"testing"

	"github.com/iov-one/timevault/errors"
	"github.com/iov-one/timevault/vaulttest/assert"
)

// TestSuite checks the CacheableKVStore contract. Every store backend runs
// it from its own tests, only the constructor differs.
type TestSuite struct {
	open TestStoreConstructor
}

// TestStoreConstructor returns an empty store and a function releasing
// its resources.
type TestStoreConstructor func() (base CacheableKVStore, cleanup func())

func NewTestSuite(open TestStoreConstructor) *TestSuite {
	return &TestSuite{open: open}
}

// Run executes the suite as subtests of t.
func (s *TestSuite) Run(t *testing.T) {
	t.Run("GetSet", s.GetSet)
	t.Run("CacheConflicts", s.CacheConflicts)
	t.Run("NestedSavepoints", s.NestedSavepoints)
	t.Run("Iterator", s.Iterator)
	t.Run("RandomIterator", s.RandomIterator)
}

// GetSet checks that cache wraps see the parent data, hide their own
// writes until written and drop them when discarded.
func (s *TestSuite) GetSet(t *testing.T) {
	base, cleanup := s.open()
	defer cleanup()

	vault, custody := []byte("vault"), []byte("locked")
	s.AssertGetHas(t, base, vault, nil, false)
	assert.Nil(t, base.Set(vault, custody))
	s.AssertGetHas(t, base, vault, custody, true)

	deposit := base.CacheWrap()
	s.AssertGetHas(t, deposit, vault, custody, true)
	treasury, penalty := []byte("treasury"), []byte("penalty")
	assert.Nil(t, deposit.Set(treasury, penalty))
	s.AssertGetHas(t, deposit, treasury, penalty, true)
	s.AssertGetHas(t, base, treasury, nil, false)
	assert.Nil(t, deposit.Write())
	s.AssertGetHas(t, base, treasury, penalty, true)

	failed := base.CacheWrap()
	assert.Nil(t, failed.Set([]byte("owner"), []byte("paid")))
	assert.Nil(t, failed.Delete(vault))
	failed.Discard()
	s.AssertGetHas(t, base, []byte("owner"), nil, false)
	s.AssertGetHas(t, base, vault, custody, true)

	withdraw := base.CacheWrap()
	assert.Nil(t, withdraw.Delete(vault))
	s.AssertGetHas(t, withdraw, vault, nil, false)
	s.AssertGetHas(t, base, vault, custody, true)
	assert.Nil(t, withdraw.Write())
	s.AssertGetHas(t, base, vault, nil, false)
	s.AssertGetHas(t, base, treasury, penalty, true)
}

// CacheConflicts checks cached writes shadowing the parent values.
func (s *TestSuite) CacheConflicts(t *testing.T) {
	cases := map[string]struct {
		parent []Op
		child  []Op
		// want in the parent before and after the child is written
		before []Model
		after  []Model
	}{
		"overwrite, delete and add": {
			parent: []Op{set("a", "1"), set("b", "2")},
			child:  []Op{set("a", "11"), set("c", "3"), del("b")},
			before: []Model{pair("a", "1"), pair("b", "2"), pair("c", "")},
			after:  []Model{pair("a", "11"), pair("b", ""), pair("c", "3")},
		},
		"delete then set again": {
			parent: []Op{set("a", "1")},
			child:  []Op{del("a"), set("a", "2")},
			before: []Model{pair("a", "1")},
			after:  []Model{pair("a", "2")},
		},
		"set then delete": {
			child:  []Op{set("a", "1"), del("a")},
			before: []Model{pair("a", "")},
			after:  []Model{pair("a", "")},
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			parent, cleanup := s.open()
			defer cleanup()
			apply(t, parent, tc.parent)

			child := parent.CacheWrap()
			apply(t, child, tc.child)
			s.assertModels(t, parent, tc.before)
			s.assertModels(t, child, tc.after)

			assert.Nil(t, child.Write())
			s.assertModels(t, parent, tc.after)
		})
	}
}

// NestedSavepoints checks that discarding an inner cache wrap keeps the
// outer one intact and that writing the outer one carries the inner writes.
func (s *TestSuite) NestedSavepoints(t *testing.T) {
	base, cleanup := s.open()
	defer cleanup()

	outer := base.CacheWrap()
	apply(t, outer, []Op{set("a", "1")})

	failed := outer.CacheWrap()
	apply(t, failed, []Op{set("b", "2"), del("a")})
	failed.Discard()
	s.assertModels(t, outer, []Model{pair("a", "1"), pair("b", "")})

	succeeded := outer.CacheWrap()
	apply(t, succeeded, []Op{set("c", "3")})
	assert.Nil(t, succeeded.Write())
	s.assertModels(t, base, []Model{pair("a", ""), pair("c", "")})

	assert.Nil(t, outer.Write())
	s.assertModels(t, base, []Model{pair("a", "1"), pair("b", ""), pair("c", "3")})
}

// Iterator checks range iteration over a cache wrap merging its writes
// with the parent.
func (s *TestSuite) Iterator(t *testing.T) {
	parent := []Op{set("a", "1"), set("c", "3"), set("e", "5"), set("g", "7")}

	cases := map[string]struct {
		parent []Op
		child  []Op
		start  string
		end    string
		want   []Model
	}{
		"parent only": {
			parent: parent,
			want:   pairs("a", "1", "c", "3", "e", "5", "g", "7"),
		},
		"child only": {
			child: parent,
			start: "b",
			end:   "g",
			want:  pairs("c", "3", "e", "5"),
		},
		"interleaved": {
			parent: parent,
			child:  []Op{set("b", "2"), set("f", "6")},
			want:   pairs("a", "1", "b", "2", "c", "3", "e", "5", "f", "6", "g", "7"),
		},
		"child overwrites": {
			parent: parent,
			child:  []Op{set("c", "33"), set("g", "77")},
			start:  "c",
			want:   pairs("c", "33", "e", "5", "g", "77"),
		},
		"child deletes": {
			parent: parent,
			child:  []Op{del("a"), del("e"), del("x")},
			want:   pairs("c", "3", "g", "7"),
		},
		"end is exclusive": {
			parent: parent,
			child:  []Op{set("d", "4")},
			start:  "c",
			end:    "e",
			want:   pairs("c", "3", "d", "4"),
		},
		"everything deleted in range": {
			parent: parent,
			child:  []Op{del("c"), del("e")},
			start:  "b",
			end:    "f",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			base, cleanup := s.open()
			defer cleanup()
			apply(t, base, tc.parent)
			child := base.CacheWrap()
			apply(t, child, tc.child)

			start, end := bound(tc.start), bound(tc.end)
			s.assertRange(t, child, start, end, false, tc.want)
			s.assertRange(t, child, start, end, true, reversed(tc.want))
		})
	}
}

// RandomIterator compares iteration with a sorted reference for random
// content spread over the parent and a cache wrap.
func (s *TestSuite) RandomIterator(t *testing.T) {
	base, cleanup := s.open()
	defer cleanup()

	inParent := randModels(40)
	inChild := randModels(40)
	apply(t, base, setOps(inParent))
	child := base.CacheWrap()
	apply(t, child, setOps(inChild))

	// Deleting a third of the parent keys hides them in the child.
	var deleted []Op
	for i := 0; i < len(inParent); i += 3 {
		deleted = append(deleted, DelOp(inParent[i].Key))
	}
	apply(t, child, deleted)

	var want []Model
	for i, m := range inParent {
		if i%3 != 0 {
			want = append(want, m)
		}
	}
	want = sorted(append(want, inChild...))

	s.assertRange(t, child, nil, nil, false, want)
	s.assertRange(t, child, nil, nil, true, reversed(want))
	lo, hi := 7, len(want)-9
	s.assertRange(t, child, want[lo].Key, want[hi].Key, false, want[lo:hi])
	s.assertRange(t, child, want[lo].Key, want[hi].Key, true, reversed(want[lo:hi]))
}

// AssertGetHas checks both Get and Has results for the key.
func (s *TestSuite) AssertGetHas(t testing.TB, kv ReadOnlyKVStore, key, val []byte, has bool) {
	t.Helper()
	got, err := kv.Get(key)
	assert.Nil(t, err)
	if !bytes.Equal(val, got) {
		t.Fatalf("want %q value for %q, got %q", val, key, got)
	}
	exists, err := kv.Has(key)
	assert.Nil(t, err)
	assert.Equal(t, has, exists)
}

// assertModels checks the value of every model key. An empty value means
// the key must be absent.
func (s *TestSuite) assertModels(t testing.TB, kv ReadOnlyKVStore, want []Model) {
	t.Helper()
	for _, m := range want {
		s.AssertGetHas(t, kv, m.Key, m.Value, len(m.Value) != 0)
	}
}

func (s *TestSuite) assertRange(t testing.TB, kv ReadOnlyKVStore, start, end []byte, reverse bool, want []Model) {
	t.Helper()
	var (
		it  Iterator
		err error
	)
	if reverse {
		it, err = kv.ReverseIterator(start, end)
	} else {
		it, err = kv.Iterator(start, end)
	}
	assert.Nil(t, err)
	defer it.Release()

	for i, w := range want {
		key, value, err := it.Next()
		if err != nil {
			t.Fatalf("item %d: want %q, got %+v", i, w.Key, err)
		}
		if !bytes.Equal(w.Key, key) || !bytes.Equal(w.Value, value) {
			t.Fatalf("item %d: want %q=%q, got %q=%q", i, w.Key, w.Value, key, value)
		}
	}
	if _, _, err := it.Next(); !errors.ErrIteratorDone.Is(err) {
		t.Fatalf("want iterator done after %d items, got %+v", len(want), err)
	}
}

func apply(t testing.TB, db SetDeleter, ops []Op) {
	t.Helper()
	for _, op := range ops {
		assert.Nil(t, op.Apply(db))
	}
}

func set(key, value string) Op { return SetOp([]byte(key), []byte(value)) }
func del(key string) Op        { return DelOp([]byte(key)) }

func pair(key, value string) Model {
	if value == "" {
		return Pair([]byte(key), nil)
	}
	return Pair([]byte(key), []byte(value))
}

// pairs builds models from alternating keys and values.
func pairs(kv ...string) []Model {
	if len(kv)%2 != 0 {
		panic(fmt.Sprintf("odd number of arguments: %d", len(kv)))
	}
	var res []Model
	for i := 0; i < len(kv); i += 2 {
		res = append(res, pair(kv[i], kv[i+1]))
	}
	return res
}

func bound(s string) []byte {
	if s == "" {
		return nil
	}
	return []byte(s)
}

func randBytes(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}

// randKeys returns count random values of given size.
func randKeys(count, size int) [][]byte {
	res := make([][]byte, count)
	for i := range res {
		res[i] = randBytes(size)
	}
	return res
}

func randModels(count int) []Model {
	res := make([]Model, count)
	for i := range res {
		res[i] = Pair(randBytes(12), randBytes(24))
	}
	return res
}

func setOps(ms []Model) []Op {
	ops := make([]Op, len(ms))
	for i, m := range ms {
		ops[i] = SetOp(m.Key, m.Value)
	}
	return ops
}

func reversed(ms []Model) []Model {
	if ms == nil {
		return nil
	}
	res := make([]Model, len(ms))
	for i, m := range ms {
		res[len(ms)-1-i] = m
	}
	return res
}

func sorted(ms []Model) []Model {
	res := append([]Model(nil), ms...)
	sort.Slice(res, func(i, j int) bool {
		return bytes.Compare(res[i].Key, res[j].Key) < 0
	})
	return res
}
