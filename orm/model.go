/*
Package orm provides an easy to use db wrapper

Break state space into prefixed sections called Buckets. Each bucket stores
one model type under a primary key, and maintains any number of secondary
indexes over it. Index keys are updated within the same store as the model,
so a savepoint that is discarded also discards the index changes.
*/
package orm

import (
	"github.com/iov-one/timevault"
	"github.com/iov-one/timevault/errors"
)

// Model is implemented by any entity that can be stored using ModelBucket.
type Model interface {
	timevault.Persistent
	Validate() error
}

// Indexer calculates the secondary index key for a given model. Returning a
// nil key means that the model is not indexed.
type Indexer func(Model) ([]byte, error)

// ConsumeIterator will read all remaining data into an
// array and release the iterator
func ConsumeIterator(itr timevault.Iterator) ([]timevault.Model, error) {
	defer itr.Release()

	var res []timevault.Model
	for {
		key, value, err := itr.Next()
		if err != nil {
			if isDone(err) {
				return res, nil
			}
			return nil, err
		}
		res = append(res, timevault.Pair(key, value))
	}
}

// ConsumeIteratorKeys reads all remaining keys of the iterator.
func ConsumeIteratorKeys(itr timevault.Iterator) ([][]byte, error) {
	models, err := ConsumeIterator(itr)
	if err != nil {
		return nil, err
	}
	keys := make([][]byte, len(models))
	for i, m := range models {
		keys[i] = m.Key
	}
	return keys, nil
}

// prefixEnd returns the first key that does not start with the prefix, to
// be used as an exclusive iterator end. It returns nil (no limit) if no such
// key exists.
func prefixEnd(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xFF {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}

// queryPrefix returns all the models whose key starts with the prefix.
func queryPrefix(db timevault.ReadOnlyKVStore, prefix []byte) ([]timevault.Model, error) {
	itr, err := db.Iterator(prefix, prefixEnd(prefix))
	if err != nil {
		return nil, err
	}
	return ConsumeIterator(itr)
}

func isDone(err error) bool {
	return errors.ErrIteratorDone.Is(err)
}
