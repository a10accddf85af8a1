package utils

import (
	"github.com/iov-one/timevault"
	"github.com/iov-one/timevault/errors"
)

// Savepoint runs the rest of the stack on a cache wrap of the store. The
// cache is written only when the call succeeds, so a failing transaction
// leaves no partial state behind. Check and deliver are enabled separately.
type Savepoint struct {
	onCheck   bool
	onDeliver bool
}

var _ timevault.Decorator = Savepoint{}

// NewSavepoint returns a disabled savepoint. Use OnCheck and OnDeliver to
// select the phases it applies to.
func NewSavepoint() Savepoint {
	return Savepoint{}
}

func (s Savepoint) OnCheck() Savepoint {
	s.onCheck = true
	return s
}

func (s Savepoint) OnDeliver() Savepoint {
	s.onDeliver = true
	return s
}

func (s Savepoint) Check(ctx timevault.Context, store timevault.KVStore, tx timevault.Tx, next timevault.Checker) (*timevault.CheckResult, error) {
	if !s.onCheck {
		return next.Check(ctx, store, tx)
	}
	var res *timevault.CheckResult
	err := atomic(store, func(db timevault.KVStore) (err error) {
		res, err = next.Check(ctx, db, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s Savepoint) Deliver(ctx timevault.Context, store timevault.KVStore, tx timevault.Tx, next timevault.Deliverer) (*timevault.DeliverResult, error) {
	if !s.onDeliver {
		return next.Deliver(ctx, store, tx)
	}
	var res *timevault.DeliverResult
	err := atomic(store, func(db timevault.KVStore) (err error) {
		res, err = next.Deliver(ctx, db, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// atomic calls fn with a cache wrap of the store. A store that cannot be
// wrapped is used directly.
func atomic(store timevault.KVStore, fn func(timevault.KVStore) error) error {
	cstore, ok := store.(timevault.CacheableKVStore)
	if !ok {
		return fn(store)
	}
	cache := cstore.CacheWrap()
	if err := fn(cache); err != nil {
		cache.Discard()
		return err
	}
	if err := cache.Write(); err != nil {
		return errors.Wrap(err, "writing savepoint")
	}
	return nil
}
