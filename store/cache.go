package store

import (
	"bytes"

	"github.com/google/btree"
)

// BTreeCacheWrap keeps uncommitted writes in an in-memory btree. Reads see
// the cached writes first and fall back to the parent store. Write replays
// every write on the batch, Discard drops them. A transaction savepoint is
// a cache wrap that is written only when the transaction succeeds.
type BTreeCacheWrap struct {
	tree   *btree.BTree
	free   *btree.FreeList
	parent ReadOnlyKVStore
	batch  Batch
}

var _ KVCacheWrap = BTreeCacheWrap{}

// NewBTreeCacheWrap returns a cache over parent flushing to batch. Nested
// wraps share the free list of their parent, pass nil to allocate one.
func NewBTreeCacheWrap(parent ReadOnlyKVStore, batch Batch, free *btree.FreeList) BTreeCacheWrap {
	if free == nil {
		free = btree.NewFreeList(btree.DefaultFreeListSize)
	}
	return BTreeCacheWrap{
		tree:   btree.NewWithFreeList(2, free),
		free:   free,
		parent: parent,
		batch:  batch,
	}
}

// MemStore returns an empty store living in memory only.
func MemStore() CacheableKVStore {
	var empty emptyStore
	return NewBTreeCacheWrap(empty, NewNonAtomicBatch(empty), nil)
}

// Cacheable adds btree cache wrapping to any store.
func Cacheable(kv KVStore) CacheableKVStore {
	return cacheable{kv}
}

type cacheable struct {
	KVStore
}

func (c cacheable) CacheWrap() KVCacheWrap {
	return NewBTreeCacheWrap(c.KVStore, NewNonAtomicBatch(c.KVStore), nil)
}

func (b BTreeCacheWrap) CacheWrap() KVCacheWrap {
	return NewBTreeCacheWrap(b, NewNonAtomicBatch(b), b.free)
}

func (b BTreeCacheWrap) NewBatch() Batch {
	return NewNonAtomicBatch(b)
}

// Write flushes the cached writes and empties the cache.
func (b BTreeCacheWrap) Write() error {
	err := b.batch.Write()
	b.Discard()
	return err
}

// Discard drops all cached writes.
func (b BTreeCacheWrap) Discard() {
	for b.tree.DeleteMin() != nil {
	}
	if nab, ok := b.batch.(*NonAtomicBatch); ok {
		nab.Reset()
	}
}

func (b BTreeCacheWrap) Set(key, value []byte) error {
	b.tree.ReplaceOrInsert(entry{key: key, value: value})
	return b.batch.Set(key, value)
}

func (b BTreeCacheWrap) Delete(key []byte) error {
	b.tree.ReplaceOrInsert(entry{key: key, deleted: true})
	return b.batch.Delete(key)
}

func (b BTreeCacheWrap) Get(key []byte) ([]byte, error) {
	if e, ok := b.lookup(key); ok {
		if e.deleted {
			return nil, nil
		}
		return e.value, nil
	}
	return b.parent.Get(key)
}

func (b BTreeCacheWrap) Has(key []byte) (bool, error) {
	if e, ok := b.lookup(key); ok {
		return !e.deleted, nil
	}
	return b.parent.Has(key)
}

func (b BTreeCacheWrap) lookup(key []byte) (entry, bool) {
	item := b.tree.Get(entry{key: key})
	if item == nil {
		return entry{}, false
	}
	return item.(entry), true
}

func (b BTreeCacheWrap) Iterator(start, end []byte) (Iterator, error) {
	it, err := b.parent.Iterator(start, end)
	if err != nil {
		return nil, err
	}
	return newCacheIterator(ascending(b.tree, start, end), it, false)
}

func (b BTreeCacheWrap) ReverseIterator(start, end []byte) (Iterator, error) {
	it, err := b.parent.ReverseIterator(start, end)
	if err != nil {
		return nil, err
	}
	return newCacheIterator(descending(b.tree, start, end), it, true)
}

// entry is a cached write. Deletes are kept as tombstones hiding the
// parent value.
type entry struct {
	key     []byte
	value   []byte
	deleted bool
}

func (e entry) Less(than btree.Item) bool {
	return bytes.Compare(e.key, than.(entry).key) < 0
}
