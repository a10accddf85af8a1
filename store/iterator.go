package store

import (
	"bytes"

	"github.com/google/btree"
	"github.com/iov-one/timevault/errors"
)

///////////////////////////////////////////////////////
// From Items to Iterator

// ascending returns the cached entries within [start, end) in ascending
// key order. Nil start or end means no limit.
func ascending(bt *btree.BTree, start, end []byte) []entry {
	var items []entry
	collect := func(item btree.Item) bool {
		e := item.(entry)
		if end != nil && bytes.Compare(e.key, end) >= 0 {
			return false
		}
		items = append(items, e)
		return true
	}
	if start == nil {
		bt.Ascend(collect)
	} else {
		bt.AscendGreaterOrEqual(entry{key: start}, collect)
	}
	return items
}

// descending returns the cached entries within [start, end) in descending
// key order. Nil start or end means no limit.
func descending(bt *btree.BTree, start, end []byte) []entry {
	var items []entry
	collect := func(item btree.Item) bool {
		e := item.(entry)
		// end is exclusive, but DescendLessOrEqual includes it.
		if end != nil && bytes.Equal(e.key, end) {
			return true
		}
		if start != nil && bytes.Compare(e.key, start) < 0 {
			return false
		}
		items = append(items, e)
		return true
	}
	if end == nil {
		bt.Descend(collect)
	} else {
		bt.DescendLessOrEqual(entry{key: end}, collect)
	}
	return items
}

// cacheIterator combines the items of a cache wrap with the iterator of
// the store below it. Cached values take precedence over the parent values
// and cached deletes hide parent values.
//
// The cached items are copied when the iterator is created, so writes to the
// cache wrap done later are not visible.
type cacheIterator struct {
	items   []entry
	idx     int
	reverse bool

	parent    Iterator
	parentKey []byte
	parentVal []byte
	parentOK  bool
}

var _ Iterator = (*cacheIterator)(nil)

func newCacheIterator(items []entry, parent Iterator, reverse bool) (*cacheIterator, error) {
	it := &cacheIterator{
		items:   items,
		reverse: reverse,
		parent:  parent,
	}
	if err := it.advanceParent(); err != nil {
		parent.Release()
		return nil, err
	}
	return it, nil
}

func (it *cacheIterator) advanceParent() error {
	key, value, err := it.parent.Next()
	switch {
	case err == nil:
		it.parentKey, it.parentVal, it.parentOK = key, value, true
		return nil
	case errors.ErrIteratorDone.Is(err):
		it.parentKey, it.parentVal, it.parentOK = nil, nil, false
		return nil
	default:
		return err
	}
}

// source marks where the current item comes from
type source int32

const (
	us source = iota
	parent
	both
	none
)

// firstKey selects the iterator with the lowest key is any
func (it *cacheIterator) firstKey() source {
	hasOwn := it.idx < len(it.items)
	switch {
	case !hasOwn && !it.parentOK:
		return none
	case !hasOwn:
		return parent
	case !it.parentOK:
		return us
	}

	cmp := bytes.Compare(it.items[it.idx].key, it.parentKey)
	if it.reverse {
		cmp = -cmp
	}
	switch {
	case cmp < 0:
		return us
	case cmp > 0:
		return parent
	default:
		return both
	}
}

// Next returns the next key-value pair, skipping all entries deleted in the
// cache.
func (it *cacheIterator) Next() (key, value []byte, err error) {
	for {
		switch it.firstKey() {
		case none:
			return nil, nil, errors.Wrap(errors.ErrIteratorDone, "cache iterator")
		case parent:
			key, value = it.parentKey, it.parentVal
			if err := it.advanceParent(); err != nil {
				return nil, nil, err
			}
			return key, value, nil
		case both:
			// Cached value shadows the parent.
			if err := it.advanceParent(); err != nil {
				return nil, nil, err
			}
			fallthrough
		case us:
			e := it.items[it.idx]
			it.idx++
			if !e.deleted {
				return e.key, e.value, nil
			}
		}
	}
}

// Release releases the parent iterator.
func (it *cacheIterator) Release() {
	it.parent.Release()
	it.items = nil
}
