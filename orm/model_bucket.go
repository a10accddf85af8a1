package orm

import (
	"fmt"
	"reflect"
	"regexp"

	"github.com/iov-one/timevault"
	"github.com/iov-one/timevault/errors"
)

var isBucketName = regexp.MustCompile(`^[a-z_]{3,20}$`).MatchString

// ModelBucket is implemented by buckets that operates on Models.
type ModelBucket interface {
	// One query the database for a single model instance. Lookup is done
	// by the primary index key. Result is loaded into given destination
	// model.
	// This method returns ErrNotFound if the entity does not exist in the
	// database.
	One(db timevault.ReadOnlyKVStore, key []byte, dest Model) error

	// Has returns nil if an entity with given primary key exists in the
	// database, and ErrNotFound otherwise.
	Has(db timevault.ReadOnlyKVStore, key []byte) error

	// Create saves given model in the database only if no entity exists
	// under the same key. ErrDuplicate is returned otherwise.
	Create(db timevault.KVStore, key []byte, m Model) error

	// Put saves given model in the database, replacing any previous
	// state.
	Put(db timevault.KVStore, key []byte, m Model) error

	// Delete removes an entity with given primary key from the database.
	// It returns ErrNotFound if an entity with given key does not exist.
	Delete(db timevault.KVStore, key []byte) error

	// ByIndex returns all entities indexed under given value, appending
	// them to dest. Destination must be a pointer to a slice of model
	// pointers. Primary keys of all found entities are returned.
	ByIndex(db timevault.ReadOnlyKVStore, indexName string, value []byte, dest interface{}) ([][]byte, error)

	// Register registers this bucket and all its indexes in the query
	// router. The bucket is available under "/<name>" and each index
	// under "/<name>/<index>".
	Register(name string, r timevault.QueryRouter)
}

// ModelBucketOption is implemented by any function that can configure
// ModelBucket during creation.
type ModelBucketOption func(mb *modelBucket)

// WithIndex configures the bucket to build an index with given name. All
// entities stored in the bucket are indexed using value returned by the
// indexer function. If an index is unique, there can be only one entity
// referenced per index value.
func WithIndex(name string, indexer Indexer, unique bool) ModelBucketOption {
	return func(mb *modelBucket) {
		if _, ok := mb.indexes[name]; ok {
			panic(fmt.Sprintf("index %q registered twice", name))
		}
		mb.indexes[name] = newIndex(mb.name, name, indexer, unique, mb.dbKey)
		mb.indexOrder = append(mb.indexOrder, name)
	}
}

// NewModelBucket returns a ModelBucket instance storing models of the same
// type as the given prototype under the name prefix.
func NewModelBucket(name string, proto Model, opts ...ModelBucketOption) ModelBucket {
	if !isBucketName(name) {
		panic(fmt.Sprintf("Illegal bucket: %s", name))
	}
	mb := &modelBucket{
		name:    name,
		prefix:  []byte(name + ":"),
		model:   reflect.TypeOf(proto),
		indexes: make(map[string]*index),
	}
	if mb.model.Kind() != reflect.Ptr {
		panic("model prototype must be a pointer")
	}
	for _, fn := range opts {
		fn(mb)
	}
	return mb
}

type modelBucket struct {
	name       string
	prefix     []byte
	model      reflect.Type
	indexes    map[string]*index
	indexOrder []string
}

var _ ModelBucket = (*modelBucket)(nil)

// dbKey is the full key we store in the db, including prefix
// We copy into a new array rather than use append, as we don't
// want consecutive calls to overwrite the same byte array.
func (mb *modelBucket) dbKey(key []byte) []byte {
	l := len(mb.prefix)
	out := make([]byte, l+len(key))
	copy(out, mb.prefix)
	copy(out[l:], key)
	return out
}

func (mb *modelBucket) newModel() Model {
	return reflect.New(mb.model.Elem()).Interface().(Model)
}

func (mb *modelBucket) load(db timevault.ReadOnlyKVStore, key []byte) (Model, error) {
	raw, err := db.Get(mb.dbKey(key))
	if err != nil {
		return nil, errors.Wrap(err, "cannot load from the database")
	}
	if raw == nil {
		return nil, nil
	}
	m := mb.newModel()
	if err := m.Unmarshal(raw); err != nil {
		return nil, errors.Wrapf(err, "cannot unmarshal %s", mb.name)
	}
	return m, nil
}

func (mb *modelBucket) One(db timevault.ReadOnlyKVStore, key []byte, dest Model) error {
	if reflect.TypeOf(dest) != mb.model {
		return errors.Wrapf(errors.ErrType, "%s cannot be represented as %T", mb.model, dest)
	}
	m, err := mb.load(db, key)
	if err != nil {
		return err
	}
	if m == nil {
		return errors.Wrapf(errors.ErrNotFound, "%s %X", mb.name, key)
	}
	reflect.ValueOf(dest).Elem().Set(reflect.ValueOf(m).Elem())
	return nil
}

func (mb *modelBucket) Has(db timevault.ReadOnlyKVStore, key []byte) error {
	ok, err := db.Has(mb.dbKey(key))
	if err != nil {
		return errors.Wrap(err, "cannot query the database")
	}
	if !ok {
		return errors.Wrapf(errors.ErrNotFound, "%s %X", mb.name, key)
	}
	return nil
}

func (mb *modelBucket) Create(db timevault.KVStore, key []byte, m Model) error {
	switch err := mb.Has(db, key); {
	case err == nil:
		return errors.Wrapf(errors.ErrDuplicate, "%s %X", mb.name, key)
	case !errors.ErrNotFound.Is(err):
		return err
	}
	return mb.Put(db, key, m)
}

func (mb *modelBucket) Put(db timevault.KVStore, key []byte, m Model) error {
	if len(key) == 0 {
		return errors.Wrap(errors.ErrEmpty, "key")
	}
	if reflect.TypeOf(m) != mb.model {
		return errors.Wrapf(errors.ErrType, "cannot store %T in %s bucket", m, mb.name)
	}
	if err := m.Validate(); err != nil {
		return errors.Wrap(err, "invalid model")
	}
	raw, err := m.Marshal()
	if err != nil {
		return errors.Wrap(err, "cannot marshal")
	}

	if len(mb.indexOrder) > 0 {
		prev, err := mb.load(db, key)
		if err != nil {
			return err
		}
		if err := mb.updateIndexes(db, key, prev, m); err != nil {
			return err
		}
	}

	if err := db.Set(mb.dbKey(key), raw); err != nil {
		return errors.Wrap(err, "cannot store in the database")
	}
	return nil
}

func (mb *modelBucket) Delete(db timevault.KVStore, key []byte) error {
	prev, err := mb.load(db, key)
	if err != nil {
		return err
	}
	if prev == nil {
		return errors.Wrapf(errors.ErrNotFound, "%s %X", mb.name, key)
	}
	if err := mb.updateIndexes(db, key, prev, nil); err != nil {
		return err
	}
	if err := db.Delete(mb.dbKey(key)); err != nil {
		return errors.Wrap(err, "cannot delete from the database")
	}
	return nil
}

func (mb *modelBucket) updateIndexes(db timevault.KVStore, key []byte, prev, next Model) error {
	for _, name := range mb.indexOrder {
		if err := mb.indexes[name].Update(db, key, prev, next); err != nil {
			return err
		}
	}
	return nil
}

func (mb *modelBucket) ByIndex(db timevault.ReadOnlyKVStore, indexName string, value []byte, dest interface{}) ([][]byte, error) {
	idx, ok := mb.indexes[indexName]
	if !ok {
		return nil, errors.Wrapf(ErrInvalidIndex, "unknown index %q", indexName)
	}

	ptr := reflect.ValueOf(dest)
	if ptr.Kind() != reflect.Ptr || ptr.Elem().Kind() != reflect.Slice || ptr.Elem().Type().Elem() != mb.model {
		return nil, errors.Wrapf(errors.ErrType, "destination must be *[]%s, got %T", mb.model, dest)
	}

	keys, err := idx.Keys(db, value)
	if err != nil {
		return nil, err
	}
	slice := ptr.Elem()
	for _, key := range keys {
		m, err := mb.load(db, key)
		if err != nil {
			return nil, err
		}
		if m == nil {
			return nil, errors.Wrapf(errors.ErrHuman, "index %q references a missing entity", indexName)
		}
		slice = reflect.Append(slice, reflect.ValueOf(m))
	}
	ptr.Elem().Set(slice)
	return keys, nil
}

func (mb *modelBucket) Register(name string, r timevault.QueryRouter) {
	if name == "" {
		name = mb.name
	}
	root := "/" + name
	r.Register(root, mb)
	for _, idxName := range mb.indexOrder {
		r.Register(root+"/"+idxName, mb.indexes[idxName])
	}
}

// Query handles the bucket queries. In the key mode a single entity stored
// under the key given as data is returned. In the prefix mode all entities
// whose primary key starts with data are returned.
func (mb *modelBucket) Query(db timevault.ReadOnlyKVStore, mod string, data []byte) ([]timevault.Model, error) {
	switch mod {
	case timevault.KeyQueryMod:
		raw, err := db.Get(mb.dbKey(data))
		if err != nil {
			return nil, err
		}
		if raw == nil {
			return nil, nil
		}
		return []timevault.Model{timevault.Pair(data, raw)}, nil
	case timevault.PrefixQueryMod:
		models, err := queryPrefix(db, mb.dbKey(data))
		if err != nil {
			return nil, err
		}
		for i := range models {
			models[i].Key = models[i].Key[len(mb.prefix):]
		}
		return models, nil
	default:
		return nil, errors.Wrapf(errors.ErrInput, "unknown mod: %s", mod)
	}
}
