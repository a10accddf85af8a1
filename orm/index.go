package orm

import (
	"encoding/binary"
	"regexp"

	"github.com/iov-one/timevault"
	"github.com/iov-one/timevault/errors"
)

const indexPrefix = "_i."

var isIndexName = regexp.MustCompile(`^[a-z_]{3,20}$`).MatchString

// index is a secondary index stored natively in the key space. Every
// indexed entity is represented by a single key
//
//   _i.<bucket>_<index>:<value length><value><primary key>
//
// with an empty value. Length prefixing allows to use values of any size and
// keeps all entries with the same value next to each other, ordered by the
// primary key.
type index struct {
	name    string
	prefix  []byte
	unique  bool
	indexer Indexer
	// dbKey returns the database key of an entity with given primary key.
	dbKey func([]byte) []byte
}

var _ timevault.QueryHandler = (*index)(nil)

func newIndex(bucket, name string, indexer Indexer, unique bool, dbKey func([]byte) []byte) *index {
	if !isIndexName(name) {
		panic("invalid index name: " + name)
	}
	return &index{
		name:    name,
		prefix:  []byte(indexPrefix + bucket + "_" + name + ":"),
		unique:  unique,
		indexer: indexer,
		dbKey:   dbKey,
	}
}

// valuePrefix returns the key prefix shared by all entries indexed under
// given value.
func (ix *index) valuePrefix(value []byte) []byte {
	out := make([]byte, 0, len(ix.prefix)+2+len(value))
	out = append(out, ix.prefix...)
	var size [2]byte
	binary.BigEndian.PutUint16(size[:], uint16(len(value)))
	out = append(out, size[:]...)
	return append(out, value...)
}

func (ix *index) entryKey(value, pk []byte) []byte {
	return append(ix.valuePrefix(value), pk...)
}

func (ix *index) valueOf(m Model) ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	value, err := ix.indexer(m)
	if err != nil {
		return nil, errors.Wrapf(err, "index %q", ix.name)
	}
	if len(value) > 0xFFFF {
		return nil, errors.Wrapf(ErrInvalidIndex, "index %q value too long", ix.name)
	}
	return value, nil
}

// Update moves the index entry of the entity with given primary key.
// prev is nil for an insert and next is nil for a delete.
func (ix *index) Update(db timevault.KVStore, pk []byte, prev, next Model) error {
	prevVal, err := ix.valueOf(prev)
	if err != nil {
		return err
	}
	nextVal, err := ix.valueOf(next)
	if err != nil {
		return err
	}
	if prev != nil && next != nil && string(prevVal) == string(nextVal) {
		return nil
	}

	if prevVal != nil {
		if err := db.Delete(ix.entryKey(prevVal, pk)); err != nil {
			return errors.Wrap(err, "cannot remove index entry")
		}
	}
	if nextVal == nil {
		return nil
	}
	if ix.unique {
		keys, err := ix.Keys(db, nextVal)
		if err != nil {
			return err
		}
		if len(keys) != 0 {
			return errors.Wrapf(errors.ErrDuplicate, "index %q", ix.name)
		}
	}
	if err := db.Set(ix.entryKey(nextVal, pk), []byte{}); err != nil {
		return errors.Wrap(err, "cannot set index entry")
	}
	return nil
}

// Keys returns primary keys of all entities indexed under given value.
func (ix *index) Keys(db timevault.ReadOnlyKVStore, value []byte) ([][]byte, error) {
	prefix := ix.valuePrefix(value)
	models, err := queryPrefix(db, prefix)
	if err != nil {
		return nil, err
	}
	keys := make([][]byte, len(models))
	for i, m := range models {
		keys[i] = m.Key[len(prefix):]
	}
	return keys, nil
}

// Query returns all entities indexed under the value given as data. In the
// prefix mode all entities indexed by a value starting with data are
// returned, ordered by the value length first. Returned models carry the
// primary key and the serialized entity.
func (ix *index) Query(db timevault.ReadOnlyKVStore, mod string, data []byte) ([]timevault.Model, error) {
	var entries []timevault.Model
	var err error
	switch mod {
	case timevault.KeyQueryMod:
		prefix := ix.valuePrefix(data)
		entries, err = queryPrefix(db, prefix)
		for i := range entries {
			entries[i].Key = entries[i].Key[len(prefix):]
		}
	case timevault.PrefixQueryMod:
		entries, err = queryPrefix(db, ix.prefix)
		filtered := entries[:0]
		for _, e := range entries {
			value, pk, ok := ix.splitEntry(e.Key)
			if ok && len(value) >= len(data) && string(value[:len(data)]) == string(data) {
				filtered = append(filtered, timevault.Pair(pk, nil))
			}
		}
		entries = filtered
	default:
		return nil, errors.Wrapf(errors.ErrInput, "unknown mod: %s", mod)
	}
	if err != nil {
		return nil, err
	}

	res := make([]timevault.Model, 0, len(entries))
	for _, e := range entries {
		raw, err := db.Get(ix.dbKey(e.Key))
		if err != nil {
			return nil, err
		}
		if raw == nil {
			return nil, errors.Wrapf(errors.ErrHuman, "index %q references a missing entity", ix.name)
		}
		res = append(res, timevault.Pair(e.Key, raw))
	}
	return res, nil
}

func (ix *index) splitEntry(key []byte) (value, pk []byte, ok bool) {
	rest := key[len(ix.prefix):]
	if len(rest) < 2 {
		return nil, nil, false
	}
	size := int(binary.BigEndian.Uint16(rest))
	rest = rest[2:]
	if len(rest) < size {
		return nil, nil, false
	}
	return rest[:size], rest[size:], true
}
