package utils

import (
	"github.com/iov-one/timevault"
	"github.com/iov-one/timevault/errors"
)

// Recovery converts a panic raised down the stack into an errors.ErrPanic
// result, so a single bad transaction cannot stop the node.
type Recovery struct{}

var _ timevault.Decorator = Recovery{}

func NewRecovery() Recovery {
	return Recovery{}
}

func (Recovery) Check(ctx timevault.Context, store timevault.KVStore, tx timevault.Tx, next timevault.Checker) (res *timevault.CheckResult, err error) {
	defer errors.Recover(&err)
	return next.Check(ctx, store, tx)
}

func (Recovery) Deliver(ctx timevault.Context, store timevault.KVStore, tx timevault.Tx, next timevault.Deliverer) (res *timevault.DeliverResult, err error) {
	defer errors.Recover(&err)
	return next.Deliver(ctx, store, tx)
}
