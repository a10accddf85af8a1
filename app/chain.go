package app

import (
	"reflect"

	"github.com/iov-one/timevault"
)

// Decorators is an ordered stack of decorators. The first one is the
// outermost and sees every transaction first.
type Decorators []timevault.Decorator

// ChainDecorators builds a stack, for example
//
//	app.ChainDecorators(
//		utils.NewLogging(),
//		utils.NewRecovery(),
//		sigs.NewDecorator(),
//		utils.NewSavepoint().OnDeliver(),
//	).WithHandler(router)
//
// Nil decorators are skipped, so optional parts can be passed as is.
func ChainDecorators(ds ...timevault.Decorator) Decorators {
	return Decorators(nil).Chain(ds...)
}

// Chain returns a new stack with ds appended below the current ones.
func (d Decorators) Chain(ds ...timevault.Decorator) Decorators {
	stack := make(Decorators, 0, len(d)+len(ds))
	stack = append(stack, d...)
	for _, dec := range ds {
		if !isNil(dec) {
			stack = append(stack, dec)
		}
	}
	return stack
}

func isNil(d timevault.Decorator) bool {
	if d == nil {
		return true
	}
	v := reflect.ValueOf(d)
	return v.Kind() == reflect.Ptr && v.IsNil()
}

// WithHandler closes the stack with the handler executed last.
func (d Decorators) WithHandler(h timevault.Handler) timevault.Handler {
	for i := len(d) - 1; i >= 0; i-- {
		h = layer{dec: d[i], next: h}
	}
	return h
}

// layer is a decorator bound to the handler below it.
type layer struct {
	dec  timevault.Decorator
	next timevault.Handler
}

var _ timevault.Handler = layer{}

func (l layer) Check(ctx timevault.Context, db timevault.KVStore, tx timevault.Tx) (*timevault.CheckResult, error) {
	return l.dec.Check(ctx, db, tx, l.next)
}

func (l layer) Deliver(ctx timevault.Context, db timevault.KVStore, tx timevault.Tx) (*timevault.DeliverResult, error) {
	return l.dec.Deliver(ctx, db, tx, l.next)
}

// ChainInitializers runs the genesis initializers in order and stops at
// the first failure.
func ChainInitializers(inits ...timevault.Initializer) timevault.Initializer {
	return initializers(inits)
}

type initializers []timevault.Initializer

func (in initializers) FromGenesis(opts timevault.Options, db timevault.KVStore) error {
	for _, i := range in {
		if err := i.FromGenesis(opts, db); err != nil {
			return err
		}
	}
	return nil
}
