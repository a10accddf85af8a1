package vault

import (
	"fmt"

	"github.com/iov-one/timevault"
	"github.com/iov-one/timevault/errors"
	"github.com/iov-one/timevault/x"
)

const (
	initializeCost int64 = 200
	depositCost    int64 = 100
	withdrawCost   int64 = 100
)

// RegisterRoutes will instantiate and register
// all handlers in this package
func RegisterRoutes(r timevault.Registry, auth x.Authenticator, ctrl *Controller) {
	r.Handle(pathInitialize, InitializeHandler{auth: auth, ctrl: ctrl})
	r.Handle(pathDeposit, DepositHandler{auth: auth, ctrl: ctrl})
	r.Handle(pathWithdraw, WithdrawHandler{auth: auth, ctrl: ctrl})
}

// ownerCondition returns the signer condition owning given address.
func ownerCondition(ctx timevault.Context, auth x.Authenticator, owner timevault.Address) (timevault.Condition, error) {
	if c := x.SignerOf(ctx, auth, owner); c != nil {
		return c, nil
	}
	return nil, errors.Wrapf(ErrUnauthorized, "owner %s signature missing", owner)
}

// InitializeHandler creates vaults.
type InitializeHandler struct {
	auth x.Authenticator
	ctrl *Controller
}

var _ timevault.Handler = InitializeHandler{}

func (h InitializeHandler) Check(ctx timevault.Context, db timevault.KVStore, tx timevault.Tx) (*timevault.CheckResult, error) {
	if _, err := h.validate(ctx, tx); err != nil {
		return nil, err
	}
	return timevault.NewCheck(initializeCost, ""), nil
}

func (h InitializeHandler) Deliver(ctx timevault.Context, db timevault.KVStore, tx timevault.Tx) (*timevault.DeliverResult, error) {
	msg, err := h.validate(ctx, tx)
	if err != nil {
		return nil, err
	}
	v, err := h.ctrl.Initialize(ctx, db, msg.Owner)
	if err != nil {
		return nil, err
	}
	return &timevault.DeliverResult{
		Data: v.Custody().Address(),
		Log:  fmt.Sprintf("unlocks at %s", v.UnlockTime),
	}, nil
}

func (h InitializeHandler) validate(ctx timevault.Context, tx timevault.Tx) (*InitializeMsg, error) {
	var msg InitializeMsg
	if err := timevault.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if _, err := ownerCondition(ctx, h.auth, msg.Owner); err != nil {
		return nil, err
	}
	return &msg, nil
}

// DepositHandler moves funds into the vault custody.
type DepositHandler struct {
	auth x.Authenticator
	ctrl *Controller
}

var _ timevault.Handler = DepositHandler{}

func (h DepositHandler) Check(ctx timevault.Context, db timevault.KVStore, tx timevault.Tx) (*timevault.CheckResult, error) {
	if _, _, err := h.validate(ctx, tx); err != nil {
		return nil, err
	}
	return timevault.NewCheck(depositCost, ""), nil
}

func (h DepositHandler) Deliver(ctx timevault.Context, db timevault.KVStore, tx timevault.Tx) (*timevault.DeliverResult, error) {
	msg, owner, err := h.validate(ctx, tx)
	if err != nil {
		return nil, err
	}
	v, err := h.ctrl.Deposit(ctx, db, owner, msg.SourceAddress(), msg.Amount)
	if err != nil {
		return nil, err
	}
	raw, err := v.Marshal()
	if err != nil {
		return nil, errors.Wrap(err, "cannot serialize vault")
	}
	return &timevault.DeliverResult{Data: raw}, nil
}

func (h DepositHandler) validate(ctx timevault.Context, tx timevault.Tx) (*DepositMsg, timevault.Condition, error) {
	var msg DepositMsg
	if err := timevault.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	owner, err := ownerCondition(ctx, h.auth, msg.Owner)
	if err != nil {
		return nil, nil, err
	}
	return &msg, owner, nil
}

// WithdrawHandler drains vaults.
type WithdrawHandler struct {
	auth x.Authenticator
	ctrl *Controller
}

var _ timevault.Handler = WithdrawHandler{}

func (h WithdrawHandler) Check(ctx timevault.Context, db timevault.KVStore, tx timevault.Tx) (*timevault.CheckResult, error) {
	if _, err := h.validate(ctx, tx); err != nil {
		return nil, err
	}
	return timevault.NewCheck(withdrawCost, ""), nil
}

func (h WithdrawHandler) Deliver(ctx timevault.Context, db timevault.KVStore, tx timevault.Tx) (*timevault.DeliverResult, error) {
	msg, err := h.validate(ctx, tx)
	if err != nil {
		return nil, err
	}
	p, err := h.ctrl.Withdraw(ctx, db, msg.Owner)
	if err != nil {
		return nil, err
	}
	raw, err := p.Marshal()
	if err != nil {
		return nil, errors.Wrap(err, "cannot serialize payout")
	}
	return &timevault.DeliverResult{
		Data: raw,
		Log:  fmt.Sprintf("released %d, penalty %d", p.Owner, p.Fee),
	}, nil
}

func (h WithdrawHandler) validate(ctx timevault.Context, tx timevault.Tx) (*WithdrawMsg, error) {
	var msg WithdrawMsg
	if err := timevault.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if _, err := ownerCondition(ctx, h.auth, msg.Owner); err != nil {
		return nil, err
	}
	return &msg, nil
}
