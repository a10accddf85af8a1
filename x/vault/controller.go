package vault

import (
	"github.com/iov-one/timevault"
	"github.com/iov-one/timevault/coin"
	"github.com/iov-one/timevault/errors"
	"github.com/iov-one/timevault/orm"
)

// Ledger is the funds ledger holding the coins. A transfer is applied fully
// or fails without modifying the store.
type Ledger interface {
	Balance(db timevault.ReadOnlyKVStore, addr timevault.Address) (coin.Coin, error)
	Transfer(db timevault.KVStore, amount coin.Coin, from, to timevault.Address, authorizer timevault.Condition) error
}

// Payout describes how a withdrawn balance was split.
type Payout struct {
	// Owner is the amount released to the owner.
	Owner uint64
	// Fee is the amount paid to the treasury.
	Fee uint64
	// Penalized is true when the withdrawal happened before the unlock
	// time.
	Penalized bool
}

// Total returns the whole withdrawn amount.
func (p Payout) Total() uint64 {
	return p.Owner + p.Fee
}

func (p *Payout) Marshal() ([]byte, error) {
	e := timevault.NewProtoEncoder()
	e.Uint64(1, p.Owner)
	e.Uint64(2, p.Fee)
	e.Bool(3, p.Penalized)
	return e.Result(), nil
}

func (p *Payout) Unmarshal(raw []byte) error {
	*p = Payout{}
	return timevault.DecodeProto(raw, func(f timevault.ProtoField) error {
		var err error
		switch f.Num {
		case 1:
			p.Owner, err = f.Uint64()
		case 2:
			p.Fee, err = f.Uint64()
		case 3:
			p.Penalized, err = f.Bool()
		}
		return err
	})
}

// Controller implements the vault operations. It holds no state besides
// the policy, all records live in the store given to each call.
type Controller struct {
	conf   Configuration
	ledger Ledger
	bucket orm.ModelBucket
}

// NewController returns a controller applying given policy. It fails if
// the configuration is not valid.
func NewController(conf Configuration, ledger Ledger) (*Controller, error) {
	if err := conf.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration")
	}
	if ledger == nil {
		return nil, errors.Wrap(errors.ErrHuman, "ledger is required")
	}
	return &Controller{
		conf:   conf,
		ledger: ledger,
		bucket: NewBucket(),
	}, nil
}

// Configuration returns the policy applied by this controller.
func (c *Controller) Configuration() Configuration {
	return c.conf
}

// Vault returns the vault of given owner.
func (c *Controller) Vault(db timevault.ReadOnlyKVStore, owner timevault.Address) (*Vault, error) {
	var v Vault
	switch err := c.bucket.One(db, owner, &v); {
	case err == nil:
		return &v, nil
	case errors.ErrNotFound.Is(err):
		return nil, errors.Wrapf(ErrVaultNotFound, "owner %s", owner)
	default:
		return nil, errors.Wrap(err, "cannot load vault")
	}
}

// Initialize creates the vault of given owner. The lock is counted from the
// current block time. No funds are moved.
func (c *Controller) Initialize(ctx timevault.Context, db timevault.KVStore, owner timevault.Address) (*Vault, error) {
	v, err := c.initialize(ctx, db, owner)
	observeOperation("initialize", err)
	return v, err
}

func (c *Controller) initialize(ctx timevault.Context, db timevault.KVStore, owner timevault.Address) (*Vault, error) {
	if err := owner.Validate(); err != nil {
		return nil, errors.Wrap(err, "owner")
	}
	now, err := timevault.BlockTime(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "block time")
	}
	created := timevault.AsUnixTime(now)
	unlock, err := created.AddDuration(c.conf.LockDuration)
	if err != nil {
		return nil, errors.Wrap(ErrOverflow, "unlock time")
	}

	v := &Vault{
		Metadata:   &timevault.Metadata{Schema: 1},
		Owner:      owner,
		Seed:       DeriveSeed(owner),
		Balance:    0,
		UnlockTime: unlock,
		CreatedAt:  created,
	}
	err = savepoint(db, func(db timevault.KVStore) error {
		switch err := c.bucket.Create(db, owner, v); {
		case errors.ErrDuplicate.Is(err):
			return errors.Wrapf(ErrAlreadyExists, "owner %s", owner)
		case err != nil:
			return errors.Wrap(err, "cannot store vault")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	timevault.GetLogger(ctx).Info("vault initialized",
		"owner", owner, "custody", v.Custody().Address(), "unlock", v.UnlockTime)
	return v, nil
}

// Deposit moves the amount from the source account to the vault custody
// and increases the vault balance. The source must be the owner account and
// the owner condition authorizes the transfer.
func (c *Controller) Deposit(ctx timevault.Context, db timevault.KVStore, owner timevault.Condition, source timevault.Address, amount coin.Coin) (*Vault, error) {
	v, err := c.deposit(ctx, db, owner, source, amount)
	observeOperation("deposit", err)
	return v, err
}

func (c *Controller) deposit(ctx timevault.Context, db timevault.KVStore, owner timevault.Condition, source timevault.Address, amount coin.Coin) (*Vault, error) {
	if amount.IsZero() {
		return nil, errors.Wrap(ErrInvalidAmount, "zero deposit")
	}
	if amount.Ticker != c.conf.Ticker {
		return nil, errors.Wrapf(ErrInvalidAmount, "want %s, got %s", c.conf.Ticker, amount.Ticker)
	}
	if owner == nil {
		return nil, errors.Wrap(ErrUnauthorized, "missing owner")
	}
	ownerAddr := owner.Address()
	if !source.Equals(ownerAddr) {
		return nil, errors.Wrapf(ErrUnauthorized, "source %s is not the owner account", source)
	}

	var v *Vault
	err := savepoint(db, func(db timevault.KVStore) error {
		var err error
		if v, err = c.Vault(db, ownerAddr); err != nil {
			return err
		}
		if v.Balance > maxUint64-amount.Amount {
			return errors.Wrapf(ErrOverflow, "%d + %d", v.Balance, amount.Amount)
		}
		v.Balance += amount.Amount
		if err := c.bucket.Put(db, ownerAddr, v); err != nil {
			return errors.Wrap(err, "cannot store vault")
		}
		custody := v.Custody().Address()
		if err := c.ledger.Transfer(db, amount, source, custody, owner); err != nil {
			return transferFailed(err, "deposit")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	timevault.GetLogger(ctx).Debug("vault deposit",
		"owner", ownerAddr, "amount", amount.Amount, "balance", v.Balance)
	return v, nil
}

// Withdraw drains the whole vault balance. Before the unlock time the
// penalty is transferred to the treasury first and the rest is released to
// the owner. At or after the unlock time everything is released to the
// owner. Withdrawing from an empty vault succeeds without moving funds.
func (c *Controller) Withdraw(ctx timevault.Context, db timevault.KVStore, owner timevault.Address) (*Payout, error) {
	p, err := c.withdraw(ctx, db, owner)
	observeOperation("withdraw", err)
	if err == nil {
		observePayout(p)
	}
	return p, err
}

func (c *Controller) withdraw(ctx timevault.Context, db timevault.KVStore, owner timevault.Address) (*Payout, error) {
	now, err := timevault.BlockTime(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "block time")
	}
	logger := timevault.GetLogger(ctx).With("owner", owner)

	var payout Payout
	err = savepoint(db, func(db timevault.KVStore) error {
		v, err := c.Vault(db, owner)
		if err != nil {
			return err
		}
		total := v.Balance
		if total == 0 {
			return nil
		}

		custody := v.Custody()
		held, err := c.ledger.Balance(db, custody.Address())
		if err != nil {
			return transferFailed(err, "custody balance")
		}
		if held.Ticker != c.conf.Ticker || held.Amount < total {
			logger.Error("custody holds less than the vault balance",
				"fatal", true, "custody", custody.Address(), "held", held, "balance", total)
			return errors.Wrapf(errors.ErrHuman, "custody holds %s, vault balance is %d", held, total)
		}

		payout.Penalized = timevault.AsUnixTime(now) < v.UnlockTime
		if payout.Penalized {
			if payout.Fee, payout.Owner, err = c.conf.Split(total); err != nil {
				return err
			}
		} else {
			payout.Owner = total
		}
		if payout.Fee+payout.Owner != total {
			logger.Error("payout split does not sum to the balance",
				"fatal", true, "fee", payout.Fee, "payout", payout.Owner, "balance", total)
			return errors.Wrap(errors.ErrHuman, "inconsistent payout split")
		}

		if payout.Fee > 0 {
			fee := coin.NewCoin(payout.Fee, c.conf.Ticker)
			if err := c.ledger.Transfer(db, fee, custody.Address(), c.conf.Treasury, custody); err != nil {
				return transferFailed(err, "penalty")
			}
		}
		if payout.Owner > 0 {
			amount := coin.NewCoin(payout.Owner, c.conf.Ticker)
			if err := c.ledger.Transfer(db, amount, custody.Address(), owner, custody); err != nil {
				return transferFailed(err, "payout")
			}
		}

		v.Balance = 0
		if err := c.bucket.Put(db, owner, v); err != nil {
			return errors.Wrap(err, "cannot store vault")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("vault withdrawal",
		"payout", payout.Owner, "fee", payout.Fee, "penalized", payout.Penalized)
	return &payout, nil
}

const maxUint64 = ^uint64(0)

// transferFailed reports a ledger rejection. The result carries the
// ErrTransferFailed code and still matches the ledger error.
func transferFailed(cause error, leg string) error {
	return errors.Append(errors.Wrap(ErrTransferFailed, leg), cause)
}

// savepoint runs fn within a cache wrap of the store. The changes are
// written only if fn succeeds.
func savepoint(db timevault.KVStore, fn func(timevault.KVStore) error) error {
	cstore, ok := db.(timevault.CacheableKVStore)
	if !ok {
		return errors.Wrap(errors.ErrHuman, "store does not support savepoints")
	}
	cache := cstore.CacheWrap()
	if err := fn(cache); err != nil {
		cache.Discard()
		return err
	}
	if err := cache.Write(); err != nil {
		return errors.Wrap(err, "writing savepoint")
	}
	return nil
}
