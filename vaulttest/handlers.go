package vaulttest

import "github.com/iov-one/timevault"

// Calls counts the check and deliver invocations of a mock.
type Calls struct {
	check, deliver int
}

func (c *Calls) CheckCallCount() int   { return c.check }
func (c *Calls) DeliverCallCount() int { return c.deliver }
func (c *Calls) CallCount() int        { return c.check + c.deliver }

// Handler is a mock timevault.Handler returning the configured results.
type Handler struct {
	Calls

	CheckResult   timevault.CheckResult
	CheckErr      error
	DeliverResult timevault.DeliverResult
	DeliverErr    error

	// Write if set is stored in the database on each call, before the
	// configured error is returned.
	Write *KeyValue
}

// KeyValue is a single database entry.
type KeyValue struct {
	Key, Value []byte
}

var _ timevault.Handler = (*Handler)(nil)

func (h *Handler) Check(ctx timevault.Context, db timevault.KVStore, tx timevault.Tx) (*timevault.CheckResult, error) {
	h.check++
	if err := h.write(db, h.CheckErr); err != nil {
		return nil, err
	}
	res := h.CheckResult
	return &res, nil
}

func (h *Handler) Deliver(ctx timevault.Context, db timevault.KVStore, tx timevault.Tx) (*timevault.DeliverResult, error) {
	h.deliver++
	if err := h.write(db, h.DeliverErr); err != nil {
		return nil, err
	}
	res := h.DeliverResult
	return &res, nil
}

func (h *Handler) write(db timevault.KVStore, fail error) error {
	if h.Write != nil {
		if err := db.Set(h.Write.Key, h.Write.Value); err != nil {
			return err
		}
	}
	return fail
}

// Decorator is a mock timevault.Decorator. Unless the configured error is
// set, the call is passed down the stack.
type Decorator struct {
	Calls

	CheckErr   error
	DeliverErr error
}

var _ timevault.Decorator = (*Decorator)(nil)

func (d *Decorator) Check(ctx timevault.Context, db timevault.KVStore, tx timevault.Tx, next timevault.Checker) (*timevault.CheckResult, error) {
	d.check++
	if d.CheckErr != nil {
		return nil, d.CheckErr
	}
	return next.Check(ctx, db, tx)
}

func (d *Decorator) Deliver(ctx timevault.Context, db timevault.KVStore, tx timevault.Tx, next timevault.Deliverer) (*timevault.DeliverResult, error) {
	d.deliver++
	if d.DeliverErr != nil {
		return nil, d.DeliverErr
	}
	return next.Deliver(ctx, db, tx)
}

// Decorate returns h wrapped with d.
func Decorate(h timevault.Handler, d timevault.Decorator) timevault.Handler {
	return decorated{h: h, d: d}
}

type decorated struct {
	h timevault.Handler
	d timevault.Decorator
}

func (x decorated) Check(ctx timevault.Context, db timevault.KVStore, tx timevault.Tx) (*timevault.CheckResult, error) {
	return x.d.Check(ctx, db, tx, x.h)
}

func (x decorated) Deliver(ctx timevault.Context, db timevault.KVStore, tx timevault.Tx) (*timevault.DeliverResult, error) {
	return x.d.Deliver(ctx, db, tx, x.h)
}

// PanicHandler panics with the configured value on every call.
type PanicHandler struct {
	Value interface{}
}

var _ timevault.Handler = PanicHandler{}

func (p PanicHandler) Check(timevault.Context, timevault.KVStore, timevault.Tx) (*timevault.CheckResult, error) {
	panic(p.Value)
}

func (p PanicHandler) Deliver(timevault.Context, timevault.KVStore, timevault.Tx) (*timevault.DeliverResult, error) {
	panic(p.Value)
}
