package sigs

import (
	"github.com/iov-one/timevault"
	"github.com/iov-one/timevault/errors"
)

// verifyCost is the gas charged for every valid signature.
const verifyCost int64 = 500

// RegisterQuery exposes the signer accounts under "/auth".
func RegisterQuery(qr timevault.QueryRouter) {
	NewBucket().Register("auth", qr)
}

// Decorator verifies the signatures of a SignedTx and records the signers
// in the context. Transactions that carry no signatures are rejected unless
// the decorator is Optional. Other transaction types pass through.
type Decorator struct {
	optional bool
}

var _ timevault.Decorator = Decorator{}

func NewDecorator() Decorator {
	return Decorator{}
}

// Optional returns a copy of the decorator accepting unsigned transactions.
func (d Decorator) Optional() Decorator {
	d.optional = true
	return d
}

func (d Decorator) Check(ctx timevault.Context, db timevault.KVStore, tx timevault.Tx, next timevault.Checker) (*timevault.CheckResult, error) {
	ctx, n, err := d.authenticate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	res, err := next.Check(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	res.GasAllocated += int64(n) * verifyCost
	return res, nil
}

func (d Decorator) Deliver(ctx timevault.Context, db timevault.KVStore, tx timevault.Tx, next timevault.Deliverer) (*timevault.DeliverResult, error) {
	ctx, _, err := d.authenticate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	return next.Deliver(ctx, db, tx)
}

// authenticate verifies all signatures, increments the signer sequences and
// returns the context carrying the signers.
func (d Decorator) authenticate(ctx timevault.Context, db timevault.KVStore, tx timevault.Tx) (timevault.Context, int, error) {
	stx, ok := tx.(SignedTx)
	if !ok {
		return ctx, 0, nil
	}
	signers, err := Verify(db, stx, timevault.GetChainID(ctx))
	if err != nil {
		return nil, 0, errors.Wrap(err, "cannot verify signatures")
	}
	if len(signers) == 0 && !d.optional {
		return nil, 0, errors.Wrap(errors.ErrUnauthorized, "missing signature")
	}
	return withSigners(ctx, signers), len(signers), nil
}
