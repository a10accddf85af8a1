package store

import "github.com/iov-one/timevault"

// Move references for all storage types into this package
// for shorter names everywhere

type (
	ReadOnlyKVStore  = timevault.ReadOnlyKVStore
	SetDeleter       = timevault.SetDeleter
	KVStore          = timevault.KVStore
	Batch            = timevault.Batch
	Iterator         = timevault.Iterator
	CacheableKVStore = timevault.CacheableKVStore
	KVCacheWrap      = timevault.KVCacheWrap
	CommitKVStore    = timevault.CommitKVStore
	CommitID         = timevault.CommitID
	Model            = timevault.Model
)

// Pair constructs a model from a key-value pair
var Pair = timevault.Pair
