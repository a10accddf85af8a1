package store

import (
	"github.com/iov-one/timevault/errors"
)

// Op is a single write of a batch.
type Op struct {
	Key   []byte
	Value []byte
	// Delete removes Key, Value is ignored.
	Delete bool
}

func SetOp(key, value []byte) Op { return Op{Key: key, Value: value} }
func DelOp(key []byte) Op        { return Op{Key: key, Delete: true} }

// Apply executes the write on out.
func (o Op) Apply(out SetDeleter) error {
	if o.Delete {
		return out.Delete(o.Key)
	}
	return out.Set(o.Key, o.Value)
}

// NonAtomicBatch records writes and replays them on Write. If a write
// fails the previous ones stay applied, so it may only target in-memory
// stores or stores with their own atomic commit.
type NonAtomicBatch struct {
	out SetDeleter
	ops []Op
}

var _ Batch = (*NonAtomicBatch)(nil)

func NewNonAtomicBatch(out SetDeleter) *NonAtomicBatch {
	return &NonAtomicBatch{out: out}
}

func (b *NonAtomicBatch) Set(key, value []byte) error {
	b.ops = append(b.ops, SetOp(key, value))
	return nil
}

func (b *NonAtomicBatch) Delete(key []byte) error {
	b.ops = append(b.ops, DelOp(key))
	return nil
}

func (b *NonAtomicBatch) Write() error {
	for _, op := range b.ops {
		if err := op.Apply(b.out); err != nil {
			return errors.Wrap(err, "batch write")
		}
	}
	b.Reset()
	return nil
}

// Ops returns the pending writes in order.
func (b *NonAtomicBatch) Ops() []Op {
	return b.ops
}

// Reset drops the pending writes.
func (b *NonAtomicBatch) Reset() {
	b.ops = nil
}

// SliceIterator iterates over a fixed list of pairs.
type SliceIterator struct {
	data []Model
}

var _ Iterator = (*SliceIterator)(nil)

func NewSliceIterator(data []Model) *SliceIterator {
	return &SliceIterator{data: data}
}

func (s *SliceIterator) Next() (key, value []byte, err error) {
	if len(s.data) == 0 {
		return nil, nil, errors.Wrap(errors.ErrIteratorDone, "slice iterator")
	}
	m := s.data[0]
	s.data = s.data[1:]
	return m.Key, m.Value, nil
}

func (s *SliceIterator) Release() {
	s.data = nil
}

// emptyStore holds nothing and ignores writes. It is the bottom layer of
// a MemStore.
type emptyStore struct{}

func (emptyStore) Get([]byte) ([]byte, error) { return nil, nil }
func (emptyStore) Has([]byte) (bool, error)   { return false, nil }
func (emptyStore) Set([]byte, []byte) error   { return nil }
func (emptyStore) Delete([]byte) error        { return nil }
func (emptyStore) NewBatch() Batch            { return NewNonAtomicBatch(emptyStore{}) }
func (emptyStore) Iterator(_, _ []byte) (Iterator, error) {
	return NewSliceIterator(nil), nil
}
func (emptyStore) ReverseIterator(_, _ []byte) (Iterator, error) {
	return NewSliceIterator(nil), nil
}
