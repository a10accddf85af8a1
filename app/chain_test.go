package app

import (
	"context"
	"testing"

	"github.com/iov-one/timevault"
	"github.com/iov-one/timevault/errors"
	"github.com/iov-one/timevault/store"
	"github.com/iov-one/timevault/vaulttest"
	"github.com/iov-one/timevault/x/utils"
	"github.com/stretchr/testify/assert"
)

func TestChain(t *testing.T) {
	c1 := &vaulttest.Decorator{}
	c2 := &vaulttest.Decorator{}
	c3 := &vaulttest.Decorator{}
	h := &vaulttest.Handler{}

	var missing *vaulttest.Decorator
	stack := ChainDecorators(
		c1,
		utils.NewLogging(),
		nil,
		utils.NewRecovery(),
		missing,
		c2,
	).Chain(c3).WithHandler(h)

	ctx := context.Background()
	db := store.MemStore()
	tx := &vaulttest.Tx{Msg: &vaulttest.Msg{RoutePath: "vault/test"}}

	_, err := stack.Check(ctx, db, tx)
	assert.NoError(t, err)
	_, err = stack.Deliver(ctx, db, tx)
	assert.NoError(t, err)

	assert.Equal(t, 2, c1.CallCount())
	assert.Equal(t, 2, c2.CallCount())
	assert.Equal(t, 2, c3.CallCount())
	assert.Equal(t, 2, h.CallCount())
}

func TestChainRecoversPanic(t *testing.T) {
	after := &vaulttest.Decorator{}
	stack := ChainDecorators(
		utils.NewRecovery(),
		after,
	).WithHandler(vaulttest.PanicHandler{Value: "boom"})

	tx := &vaulttest.Tx{Msg: &vaulttest.Msg{RoutePath: "vault/test"}}
	_, err := stack.Deliver(context.Background(), store.MemStore(), tx)
	assert.True(t, errors.ErrPanic.Is(err), "got %+v", err)
	assert.Equal(t, 1, after.DeliverCallCount())
}

func TestChainInitializers(t *testing.T) {
	first := &countInit{}
	second := &countInit{}
	init := ChainInitializers(first, second)

	assert.NoError(t, init.FromGenesis(timevault.Options{}, store.MemStore()))
	assert.Equal(t, 1, first.called)
	assert.Equal(t, 1, second.called)

	first.err = errors.ErrInput
	err := init.FromGenesis(timevault.Options{}, store.MemStore())
	assert.True(t, errors.ErrInput.Is(err))
	assert.Equal(t, 2, first.called)
	assert.Equal(t, 1, second.called, "chain must stop at the first failure")
}

type countInit struct {
	called int
	err    error
}

func (c *countInit) FromGenesis(timevault.Options, timevault.KVStore) error {
	c.called++
	return c.err
}
