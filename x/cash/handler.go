package cash

import (
	"github.com/iov-one/timevault"
	"github.com/iov-one/timevault/errors"
	"github.com/iov-one/timevault/x"
)

// RegisterRoutes exposes wallet transfers under the "cash" prefix.
func RegisterRoutes(r timevault.Registry, auth x.Authenticator, control Controller) {
	r.Handle(SendMsg{}.Path(), sendHandler{auth: auth, control: control})
}

// sendHandler moves coins between wallets on behalf of the source owner.
type sendHandler struct {
	auth    x.Authenticator
	control Controller
}

var _ timevault.Handler = sendHandler{}

func (h sendHandler) Check(ctx timevault.Context, _ timevault.KVStore, tx timevault.Tx) (*timevault.CheckResult, error) {
	if _, _, err := h.authorized(ctx, tx); err != nil {
		return nil, err
	}
	return timevault.NewCheck(sendTxCost, ""), nil
}

func (h sendHandler) Deliver(ctx timevault.Context, db timevault.KVStore, tx timevault.Tx) (*timevault.DeliverResult, error) {
	msg, signer, err := h.authorized(ctx, tx)
	if err != nil {
		return nil, err
	}
	if err := h.control.Transfer(db, msg.Amount, msg.Source, msg.Destination, signer); err != nil {
		return nil, err
	}
	return &timevault.DeliverResult{}, nil
}

// authorized loads the message and the signature that allows spending
// from its source.
func (h sendHandler) authorized(ctx timevault.Context, tx timevault.Tx) (*SendMsg, timevault.Condition, error) {
	var msg SendMsg
	if err := timevault.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	if signer := x.SignerOf(ctx, h.auth, msg.Source); signer != nil {
		return &msg, signer, nil
	}
	return nil, nil, errors.Wrapf(errors.ErrUnauthorized, "no signature of %s", msg.Source)
}
