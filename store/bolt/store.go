/*
Package bolt provides a CommitKVStore persisted in a single bbolt database
file. It is an alternative to the iavl backend when merkle proofs are not
needed.

All writes of a block are kept in memory until Commit, when they are
written to the database within a single transaction together with the new
version and app hash. The app hash chains the previous hash with every
operation of the block, in order.
*/
package bolt

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"hash"
	"time"

	"github.com/iov-one/timevault/errors"
	"github.com/iov-one/timevault/store"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	stateBucket = []byte("state")
	metaBucket  = []byte("meta")
)

// Meta keys
var (
	metaVersion = []byte("version")
	metaHash    = []byte("hash")
)

// CommitStore manages a bbolt committed state.
type CommitStore struct {
	db      *bolt.DB
	writer  *bucketWriter
	pending *store.NonAtomicBatch
	working store.BTreeCacheWrap
}

var _ store.CommitKVStore = (*CommitStore)(nil)

// NewCommitStore opens or creates the database file at path.
func NewCommitStore(path string) (*CommitStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(errors.ErrDatabase, "open %q: %s", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{stateBucket, metaBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrapf(errors.ErrDatabase, "create buckets: %s", err)
	}

	w := &bucketWriter{}
	pending := store.NewNonAtomicBatch(w)
	return &CommitStore{
		db:      db,
		writer:  w,
		pending: pending,
		working: store.NewBTreeCacheWrap(reader{db}, pending, nil),
	}, nil
}

// Close releases the database file.
func (s *CommitStore) Close() error {
	return s.db.Close()
}

// Get returns the value at last committed state
func (s *CommitStore) Get(key []byte) ([]byte, error) {
	return reader{s.db}.Get(key)
}

// Adapter returns the working state. Data written here is persisted on the
// next Commit.
func (s *CommitStore) Adapter() store.CacheableKVStore {
	return s.working
}

// CacheWrap returns a savepoint over the working state.
func (s *CommitStore) CacheWrap() store.KVCacheWrap {
	return s.working.CacheWrap()
}

// Commit writes all pending operations to the disk within a single
// transaction and returns the new version information.
func (s *CommitStore) Commit() (store.CommitID, error) {
	var id store.CommitID
	err := s.db.Update(func(tx *bolt.Tx) error {
		meta := tx.Bucket(metaBucket)
		version, prevHash := readMeta(meta)

		s.writer.bucket = tx.Bucket(stateBucket)
		s.writer.hash = sha256.New()
		s.writer.hash.Write(prevHash)
		defer func() { s.writer.bucket = nil }()

		if err := s.pending.Write(); err != nil {
			return err
		}

		id.Version = version + 1
		id.Hash = s.writer.hash.Sum(nil)
		raw := make([]byte, 8)
		binary.BigEndian.PutUint64(raw, uint64(id.Version))
		if err := meta.Put(metaVersion, raw); err != nil {
			return err
		}
		return meta.Put(metaHash, id.Hash)
	})
	if err != nil {
		return store.CommitID{}, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	// Everything is persisted, the in-memory layer can be dropped.
	s.working.Discard()
	return id, nil
}

// LoadLatestVersion drops all not committed changes. bbolt transactions are
// atomic so the database always contains the latest complete commit.
func (s *CommitStore) LoadLatestVersion() error {
	s.working.Discard()
	return nil
}

// LatestVersion returns info on the latest version saved to disk
func (s *CommitStore) LatestVersion() (store.CommitID, error) {
	var id store.CommitID
	err := s.db.View(func(tx *bolt.Tx) error {
		id.Version, id.Hash = readMeta(tx.Bucket(metaBucket))
		return nil
	})
	if err != nil {
		return id, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return id, nil
}

func readMeta(b *bolt.Bucket) (int64, []byte) {
	var version int64
	if raw := b.Get(metaVersion); len(raw) == 8 {
		version = int64(binary.BigEndian.Uint64(raw))
	}
	return version, cloneBytes(b.Get(metaHash))
}

// bucketWriter applies operations to the state bucket of the currently
// open update transaction and feeds them into the app hash.
type bucketWriter struct {
	bucket *bolt.Bucket
	hash   hash.Hash
}

func (w *bucketWriter) Set(key, value []byte) error {
	if w.bucket == nil {
		return errors.Wrap(errors.ErrHuman, "write outside of a commit")
	}
	w.digest('s', key, value)
	return w.bucket.Put(key, value)
}

func (w *bucketWriter) Delete(key []byte) error {
	if w.bucket == nil {
		return errors.Wrap(errors.ErrHuman, "write outside of a commit")
	}
	w.digest('d', key, nil)
	return w.bucket.Delete(key)
}

func (w *bucketWriter) digest(kind byte, key, value []byte) {
	var size [8]byte
	w.hash.Write([]byte{kind})
	binary.BigEndian.PutUint64(size[:], uint64(len(key)))
	w.hash.Write(size[:])
	w.hash.Write(key)
	binary.BigEndian.PutUint64(size[:], uint64(len(value)))
	w.hash.Write(size[:])
	w.hash.Write(value)
}

// reader is a read only view of the committed state.
type reader struct {
	db *bolt.DB
}

var _ store.ReadOnlyKVStore = reader{}

func (r reader) Get(key []byte) ([]byte, error) {
	var val []byte
	err := r.db.View(func(tx *bolt.Tx) error {
		// Returned value is valid only for the transaction lifetime.
		val = cloneBytes(tx.Bucket(stateBucket).Get(key))
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return val, nil
}

func (r reader) Has(key []byte) (bool, error) {
	val, err := r.Get(key)
	return val != nil, err
}

func (r reader) Iterator(start, end []byte) (store.Iterator, error) {
	var res []store.Model
	err := r.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(stateBucket).Cursor()
		var k, v []byte
		if start == nil {
			k, v = c.First()
		} else {
			k, v = c.Seek(start)
		}
		for ; k != nil; k, v = c.Next() {
			if end != nil && bytes.Compare(k, end) >= 0 {
				break
			}
			res = append(res, store.Pair(cloneBytes(k), cloneBytes(v)))
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return store.NewSliceIterator(res), nil
}

func (r reader) ReverseIterator(start, end []byte) (store.Iterator, error) {
	var res []store.Model
	err := r.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(stateBucket).Cursor()
		var k, v []byte
		if end == nil {
			k, v = c.Last()
		} else {
			// Seek returns the first key >= end, and end is exclusive.
			if k, v = c.Seek(end); k == nil {
				k, v = c.Last()
			} else {
				k, v = c.Prev()
			}
		}
		for ; k != nil; k, v = c.Prev() {
			if start != nil && bytes.Compare(k, start) < 0 {
				break
			}
			res = append(res, store.Pair(cloneBytes(k), cloneBytes(v)))
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return store.NewSliceIterator(res), nil
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	c := make([]byte, len(b))
	copy(c, b)
	return c
}
