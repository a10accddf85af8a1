package app

import (
	"context"
	"testing"
	"time"

	"github.com/iov-one/timevault"
	"github.com/iov-one/timevault/errors"
	"github.com/iov-one/timevault/store/iavl"
	"github.com/iov-one/timevault/vaulttest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	abci "github.com/tendermint/tendermint/abci/types"
)

// decodeTx builds a transaction writing the raw bytes.
func decodeTx(raw []byte) (timevault.Tx, error) {
	switch string(raw) {
	case "":
		return nil, errors.Wrap(errors.ErrInput, "empty tx")
	case "panic":
		panic("cannot decode")
	}
	return &vaulttest.Tx{Msg: &vaulttest.Msg{RoutePath: "test/write", Serialized: raw}}, nil
}

// writeHandler stores the message payload under its own value.
type writeHandler struct{}

func (writeHandler) Check(ctx timevault.Context, db timevault.KVStore, tx timevault.Tx) (*timevault.CheckResult, error) {
	return timevault.NewCheck(10, "ok"), nil
}

func (writeHandler) Deliver(ctx timevault.Context, db timevault.KVStore, tx timevault.Tx) (*timevault.DeliverResult, error) {
	if _, err := timevault.BlockTime(ctx); err != nil {
		return nil, err
	}
	var msg vaulttest.Msg
	if err := timevault.LoadMsg(tx, &msg); err != nil {
		return nil, err
	}
	if err := db.Set(msg.Serialized, msg.Serialized); err != nil {
		return nil, err
	}
	return &timevault.DeliverResult{Data: msg.Serialized}, nil
}

func TestBaseApp(t *testing.T) {
	qr := timevault.NewQueryRouter()
	qr.Register("/", keyQuery{})
	s, err := NewStoreApp("timevault-test", iavl.NewMemCommitStore(), qr, context.Background())
	require.NoError(t, err)

	r := NewRouter()
	r.Handle("test/write", writeHandler{})
	app := NewBaseApp(s, decodeTx, r, false)

	app.InitChain(abci.RequestInitChain{ChainId: "test-chain-1", AppStateBytes: []byte(`{}`)})
	app.BeginBlock(abci.RequestBeginBlock{Header: abci.Header{Height: 1, Time: time.Now()}})

	check := app.CheckTx([]byte("hello"))
	assert.Equal(t, uint32(0), check.Code, check.Log)
	assert.Equal(t, int64(10), check.GasWanted)

	deliver := app.DeliverTx([]byte("hello"))
	assert.Equal(t, uint32(0), deliver.Code, deliver.Log)
	assert.Equal(t, []byte("hello"), deliver.Data)

	deliver = app.DeliverTx(nil)
	assert.Equal(t, errors.ErrInput.ABCICode(), deliver.Code)

	deliver = app.DeliverTx([]byte("panic"))
	assert.Equal(t, errors.ErrPanic.ABCICode(), deliver.Code)

	app.EndBlock(abci.RequestEndBlock{Height: 1})
	app.Commit()

	res := app.Query(abci.RequestQuery{Path: "/", Data: []byte("hello")})
	require.Equal(t, uint32(0), res.Code, res.Log)
	var values ResultSet
	require.NoError(t, values.Unmarshal(res.Value))
	assert.Equal(t, [][]byte{[]byte("hello")}, values.Results)
}
