package app

import (
	"github.com/iov-one/timevault"
	"github.com/iov-one/timevault/errors"
	abci "github.com/tendermint/tendermint/abci/types"
)

// BaseApp is a StoreApp that also processes transactions. Raw bytes are
// turned into a transaction by the decoder and passed to the handler,
// usually a decorated router.
type BaseApp struct {
	*StoreApp
	decoder timevault.TxDecoder
	handler timevault.Handler
	debug   bool
}

var _ abci.Application = BaseApp{}

func NewBaseApp(store *StoreApp, decoder timevault.TxDecoder, handler timevault.Handler, debug bool) BaseApp {
	return BaseApp{
		StoreApp: store.WithDebug(debug),
		decoder:  decoder,
		handler:  handler,
		debug:    debug,
	}
}

func (b BaseApp) CheckTx(raw []byte) abci.ResponseCheckTx {
	tx, ctx, err := b.prepare(raw, "check_tx")
	if err != nil {
		return timevault.CheckTxError(err, b.debug)
	}
	res, err := b.handler.Check(ctx, b.CheckStore(), tx)
	return timevault.CheckOrError(res, err, b.debug)
}

func (b BaseApp) DeliverTx(raw []byte) abci.ResponseDeliverTx {
	tx, ctx, err := b.prepare(raw, "deliver_tx")
	if err != nil {
		return timevault.DeliverTxError(err, b.debug)
	}
	res, err := b.handler.Deliver(ctx, b.DeliverStore(), tx)
	return timevault.DeliverOrError(res, err, b.debug)
}

// prepare decodes the transaction and returns the block context annotated
// for logging. A panicking decoder is reported as an error.
func (b BaseApp) prepare(raw []byte, call string) (tx timevault.Tx, ctx timevault.Context, err error) {
	defer errors.Recover(&err)
	if tx, err = b.decoder(raw); err != nil {
		return nil, nil, err
	}
	ctx = timevault.WithLogInfo(b.BlockContext(), "call", call, "path", timevault.GetPath(tx))
	return tx, ctx, nil
}
