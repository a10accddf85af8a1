package cash

import (
	"github.com/iov-one/timevault"
	"github.com/iov-one/timevault/coin"
	"github.com/iov-one/timevault/errors"
)

// Controller is the funds ledger. It is stateless, all the balances are
// kept in the store given to each call.
type Controller struct {
	bucket Bucket
	// ticker, when set, is the only currency the ledger moves.
	ticker string
}

// NewController returns a controller operating on the default bucket. It
// accepts any currency, see WithTicker.
func NewController() Controller {
	return Controller{bucket: NewBucket()}
}

// WithTicker restricts the ledger to a single currency. A wallet holds one
// currency only, so an unrestricted ledger lets anyone lock a wallet to a
// foreign currency by sending it a single coin.
func (c Controller) WithTicker(ticker string) Controller {
	c.ticker = ticker
	return c
}

func (c Controller) accepts(amount coin.Coin) error {
	if c.ticker != "" && amount.Ticker != c.ticker {
		return errors.Wrapf(errors.ErrCurrency, "only %s is accepted, got %s", c.ticker, amount.Ticker)
	}
	return nil
}

// Balance returns the amount held by given address. An address that never
// received any coins has a zero balance.
func (c Controller) Balance(db timevault.ReadOnlyKVStore, addr timevault.Address) (coin.Coin, error) {
	w, err := c.bucket.GetOrCreate(db, addr)
	if err != nil {
		return coin.Coin{}, err
	}
	return w.Balance, nil
}

// Transfer moves the amount from one address to another. The authorizer
// condition must own the source address. Either the transfer is applied
// fully or the store is not modified.
func (c Controller) Transfer(db timevault.KVStore, amount coin.Coin, from, to timevault.Address, authorizer timevault.Condition) error {
	if authorizer == nil || !authorizer.Address().Equals(from) {
		return errors.Wrapf(errors.ErrUnauthorized, "%s cannot spend from %s", authorizer, from)
	}
	if err := amount.Validate(); err != nil {
		return errors.Wrap(errors.ErrAmount, err.Error())
	}
	if !amount.IsPositive() {
		return errors.Wrap(errors.ErrAmount, "non-positive transfer")
	}
	if err := c.accepts(amount); err != nil {
		return err
	}
	if err := to.Validate(); err != nil {
		return errors.Wrap(err, "destination")
	}

	sender, err := c.bucket.GetOrCreate(db, from)
	if err != nil {
		return errors.Wrap(err, "sender")
	}
	if !sender.Balance.IsGTE(amount) {
		return errors.Wrapf(errors.ErrInsufficientAmount, "%s holds %s, want %s", from, sender.Balance, amount)
	}
	if from.Equals(to) {
		return nil
	}

	recipient, err := c.bucket.GetOrCreate(db, to)
	if err != nil {
		return errors.Wrap(err, "recipient")
	}
	if sender.Balance, err = sender.Balance.Subtract(amount); err != nil {
		return err
	}
	if recipient.Balance, err = recipient.Balance.Add(amount); err != nil {
		return errors.Wrap(err, "recipient")
	}

	return atomically(db, func(db timevault.KVStore) error {
		if err := c.bucket.Put(db, from, sender); err != nil {
			return errors.Wrap(err, "save sender")
		}
		if err := c.bucket.Put(db, to, recipient); err != nil {
			return errors.Wrap(err, "save recipient")
		}
		return nil
	})
}

// Issue creates new coins and adds them to the destination wallet. Fails if
// it overflows the wallet.
func (c Controller) Issue(db timevault.KVStore, dest timevault.Address, amount coin.Coin) error {
	if err := amount.Validate(); err != nil {
		return errors.Wrap(errors.ErrAmount, err.Error())
	}
	if err := c.accepts(amount); err != nil {
		return err
	}
	if err := dest.Validate(); err != nil {
		return errors.Wrap(err, "destination")
	}
	w, err := c.bucket.GetOrCreate(db, dest)
	if err != nil {
		return err
	}
	if w.Balance, err = w.Balance.Add(amount); err != nil {
		return err
	}
	return c.bucket.Put(db, dest, w)
}

// atomically runs fn within a savepoint if the store supports it.
func atomically(db timevault.KVStore, fn func(timevault.KVStore) error) error {
	cstore, ok := db.(timevault.CacheableKVStore)
	if !ok {
		return fn(db)
	}
	cache := cstore.CacheWrap()
	if err := fn(cache); err != nil {
		cache.Discard()
		return err
	}
	return cache.Write()
}
