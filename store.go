package timevault

// ReadOnlyKVStore reads keys and ranges of keys. Ranges are [start, end),
// a nil bound means unbounded. The store must not be written within a
// range while an iterator over it is open.
type ReadOnlyKVStore interface {
	// Get returns nil when the key does not exist.
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	Iterator(start, end []byte) (Iterator, error)
	ReverseIterator(start, end []byte) (Iterator, error)
}

// SetDeleter writes keys. Implementations must not modify or keep
// references to the given slices beyond the call, callers must not modify
// them afterwards.
type SetDeleter interface {
	Set(key, value []byte) error
	Delete(key []byte) error
}

// KVStore is the store handlers work on.
type KVStore interface {
	ReadOnlyKVStore
	SetDeleter
	NewBatch() Batch
}

// Batch collects writes applied together by Write.
type Batch interface {
	SetDeleter
	Write() error
}

// Iterator walks a key range. Next returns ErrIteratorDone after the last
// pair, and Release must always be called:
//
//	it, err := db.Iterator(start, end)
//	if err != nil {
//		return err
//	}
//	defer it.Release()
//	for {
//		key, value, err := it.Next()
//		if errors.ErrIteratorDone.Is(err) {
//			break
//		}
//		...
//	}
type Iterator interface {
	Next() (key, value []byte, err error)
	Release()
}

// CacheableKVStore can open savepoints on itself.
type CacheableKVStore interface {
	KVStore
	CacheWrap() KVCacheWrap
}

// KVCacheWrap is a savepoint. Its writes are visible through it only,
// until Write applies them to the parent store. Discard drops them.
// Savepoints nest.
type KVCacheWrap interface {
	CacheableKVStore
	Write() error
	Discard()
}

// CommitKVStore is the persistent root state. Writes go through a cache
// wrap, Commit persists them as a new version.
type CommitKVStore interface {
	// Get reads the last committed state.
	Get(key []byte) ([]byte, error)
	CacheWrap() KVCacheWrap
	Commit() (CommitID, error)
	// LoadLatestVersion loads the last complete version. After a crash
	// during a commit this may be the previous version.
	LoadLatestVersion() error
	LatestVersion() (CommitID, error)
}

// CommitID identifies a committed version by its height and root hash.
type CommitID struct {
	Version int64
	Hash    []byte
}
