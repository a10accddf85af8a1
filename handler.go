package timevault

import (
	"encoding/json"

	"github.com/iov-one/timevault/errors"
)

// Checker validates a transaction without executing it. Check runs on the
// mempool state and should be cheap.
type Checker interface {
	Check(ctx Context, db KVStore, tx Tx) (*CheckResult, error)
}

// Deliverer executes a transaction included in a block.
type Deliverer interface {
	Deliver(ctx Context, db KVStore, tx Tx) (*DeliverResult, error)
}

// Handler processes the messages of one path, for example vault/deposit.
type Handler interface {
	Checker
	Deliverer
}

// Decorator runs around the rest of the stack, adding a concern common to
// all handlers such as authentication or logging. It calls next to
// continue processing.
type Decorator interface {
	Check(ctx Context, db KVStore, tx Tx, next Checker) (*CheckResult, error)
	Deliver(ctx Context, db KVStore, tx Tx, next Deliverer) (*DeliverResult, error)
}

// Registry binds message paths to handlers.
type Registry interface {
	Handle(path string, h Handler)
}

// Initializer loads the genesis state of an extension.
type Initializer interface {
	FromGenesis(Options, KVStore) error
}

// Options is the genesis app_state, one raw JSON value per extension.
type Options map[string]json.RawMessage

// ReadOptions decodes the value of key into obj. A missing key leaves obj
// untouched.
func (o Options) ReadOptions(key string, obj interface{}) error {
	raw, ok := o[key]
	if !ok || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, obj); err != nil {
		return errors.Wrapf(errors.ErrInput, "options %q: %s", key, err)
	}
	return nil
}
