package vault

import (
	"math"
	"testing"
	"time"

	"github.com/iov-one/timevault"
	"github.com/iov-one/timevault/coin"
	"github.com/iov-one/timevault/errors"
	"github.com/iov-one/timevault/store"
	"github.com/iov-one/timevault/vaulttest"
	"github.com/iov-one/timevault/vaulttest/assert"
	"github.com/iov-one/timevault/x/cash"
)

// genesis is the block time considered as t=0 by the tests.
var genesis = time.Unix(1550000000, 0).UTC()

func at(seconds int64) timevault.Context {
	return vaulttest.NewContext(genesis.Add(time.Duration(seconds) * time.Second))
}

type fixture struct {
	db       timevault.CacheableKVStore
	bank     cash.Controller
	ctrl     *Controller
	owner    timevault.Condition
	treasury timevault.Address
}

func newFixture(t testing.TB, ledger Ledger) *fixture {
	t.Helper()
	f := &fixture{
		db:       store.MemStore(),
		bank:     cash.NewController().WithTicker("IOV"),
		owner:    vaulttest.NewCondition(),
		treasury: vaulttest.NewCondition().Address(),
	}
	if ledger == nil {
		ledger = f.bank
	}
	ctrl, err := NewController(DefaultConfiguration(f.treasury, "IOV"), ledger)
	assert.Nil(t, err)
	f.ctrl = ctrl
	return f
}

func (f *fixture) balance(t testing.TB, addr timevault.Address) uint64 {
	t.Helper()
	c, err := f.bank.Balance(f.db, addr)
	assert.Nil(t, err)
	return c.Amount
}

func (f *fixture) vaultBalance(t testing.TB) uint64 {
	t.Helper()
	v, err := f.ctrl.Vault(f.db, f.owner.Address())
	assert.Nil(t, err)
	return v.Balance
}

func TestWithdrawScenarios(t *testing.T) {
	cases := map[string]struct {
		deposits   []uint64
		withdrawAt int64
		wantFee    uint64
		wantPayout uint64
		penalized  bool
	}{
		"early withdrawal pays the penalty": {
			deposits:   []uint64{1000},
			withdrawAt: 50000,
			wantFee:    100,
			wantPayout: 900,
			penalized:  true,
		},
		"withdrawal at the unlock time is free": {
			deposits:   []uint64{500},
			withdrawAt: 86400,
			wantFee:    0,
			wantPayout: 500,
		},
		"deposits are summed": {
			deposits:   []uint64{7, 7},
			withdrawAt: 90000,
			wantFee:    0,
			wantPayout: 14,
		},
		"penalty is truncated": {
			deposits:   []uint64{1005},
			withdrawAt: 1,
			wantFee:    100,
			wantPayout: 905,
			penalized:  true,
		},
		"penalty of a small balance is zero": {
			deposits:   []uint64{9},
			withdrawAt: 86399,
			wantFee:    0,
			wantPayout: 9,
			penalized:  true,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			f := newFixture(t, nil)
			ownerAddr := f.owner.Address()

			var total uint64
			for _, d := range tc.deposits {
				total += d
			}
			assert.Nil(t, f.bank.Issue(f.db, ownerAddr, coin.NewCoin(total, "IOV")))

			v, err := f.ctrl.Initialize(at(0), f.db, ownerAddr)
			assert.Nil(t, err)
			assert.Equal(t, timevault.AsUnixTime(genesis)+86400, v.UnlockTime)
			assert.Equal(t, uint64(0), v.Balance)

			for _, d := range tc.deposits {
				_, err := f.ctrl.Deposit(at(0), f.db, f.owner, ownerAddr, coin.NewCoin(d, "IOV"))
				assert.Nil(t, err)
			}
			assert.Equal(t, total, f.vaultBalance(t))
			assert.Equal(t, total, f.balance(t, v.Custody().Address()))
			assert.Equal(t, uint64(0), f.balance(t, ownerAddr))

			p, err := f.ctrl.Withdraw(at(tc.withdrawAt), f.db, ownerAddr)
			assert.Nil(t, err)
			assert.Equal(t, tc.wantFee, p.Fee)
			assert.Equal(t, tc.wantPayout, p.Owner)
			assert.Equal(t, tc.penalized, p.Penalized)
			assert.Equal(t, total, p.Total())

			assert.Equal(t, uint64(0), f.vaultBalance(t))
			assert.Equal(t, uint64(0), f.balance(t, v.Custody().Address()))
			assert.Equal(t, tc.wantPayout, f.balance(t, ownerAddr))
			assert.Equal(t, tc.wantFee, f.balance(t, f.treasury))
		})
	}
}

func TestWithdrawTwice(t *testing.T) {
	f := newFixture(t, nil)
	ownerAddr := f.owner.Address()
	assert.Nil(t, f.bank.Issue(f.db, ownerAddr, coin.NewCoin(1000, "IOV")))

	_, err := f.ctrl.Initialize(at(0), f.db, ownerAddr)
	assert.Nil(t, err)
	_, err = f.ctrl.Deposit(at(0), f.db, f.owner, ownerAddr, coin.NewCoin(1000, "IOV"))
	assert.Nil(t, err)

	_, err = f.ctrl.Withdraw(at(10), f.db, ownerAddr)
	assert.Nil(t, err)

	p, err := f.ctrl.Withdraw(at(20), f.db, ownerAddr)
	assert.Nil(t, err)
	assert.Equal(t, Payout{}, *p)
	assert.Equal(t, uint64(900), f.balance(t, ownerAddr))
	assert.Equal(t, uint64(100), f.balance(t, f.treasury))

	// The drained vault can be used again, with the original lock.
	_, err = f.ctrl.Deposit(at(30), f.db, f.owner, ownerAddr, coin.NewCoin(900, "IOV"))
	assert.Nil(t, err)
	p, err = f.ctrl.Withdraw(at(86400), f.db, ownerAddr)
	assert.Nil(t, err)
	assert.Equal(t, uint64(900), p.Owner)
	assert.Equal(t, false, p.Penalized)
}

func TestInitialize(t *testing.T) {
	f := newFixture(t, nil)
	ownerAddr := f.owner.Address()

	v, err := f.ctrl.Initialize(at(5), f.db, ownerAddr)
	assert.Nil(t, err)
	assert.Equal(t, DeriveSeed(ownerAddr), v.Seed)
	assert.Equal(t, timevault.AsUnixTime(genesis)+5, v.CreatedAt)

	_, err = f.ctrl.Initialize(at(10), f.db, ownerAddr)
	assert.IsErr(t, ErrAlreadyExists, err)

	// The failed call must not reset the lock.
	stored, err := f.ctrl.Vault(f.db, ownerAddr)
	assert.Nil(t, err)
	assert.Equal(t, v.UnlockTime, stored.UnlockTime)

	_, err = f.ctrl.Initialize(at(10), f.db, timevault.Address("invalid"))
	assert.IsErr(t, errors.ErrInput, err)

	// Block time is required to compute the lock.
	_, err = f.ctrl.Initialize(vaulttest.NewContext(time.Time{}), f.db, vaulttest.NewCondition().Address())
	assert.IsErr(t, errors.ErrHuman, err)
}

func TestDepositErrors(t *testing.T) {
	cases := map[string]struct {
		initialize bool
		owner      func(f *fixture) timevault.Condition
		source     func(f *fixture) timevault.Address
		amount     coin.Coin
		wantErr    *errors.Error
	}{
		"zero amount": {
			initialize: true,
			amount:     coin.NewCoin(0, "IOV"),
			wantErr:    ErrInvalidAmount,
		},
		"zero amount without vault": {
			amount:  coin.NewCoin(0, "IOV"),
			wantErr: ErrInvalidAmount,
		},
		"wrong ticker": {
			initialize: true,
			amount:     coin.NewCoin(5, "ETH"),
			wantErr:    ErrInvalidAmount,
		},
		"vault not found": {
			amount:  coin.NewCoin(5, "IOV"),
			wantErr: ErrVaultNotFound,
		},
		"source is not the owner": {
			initialize: true,
			source:     func(f *fixture) timevault.Address { return f.treasury },
			amount:     coin.NewCoin(5, "IOV"),
			wantErr:    ErrUnauthorized,
		},
		"missing owner": {
			initialize: true,
			owner:      func(*fixture) timevault.Condition { return nil },
			amount:     coin.NewCoin(5, "IOV"),
			wantErr:    ErrUnauthorized,
		},
		"insufficient funds": {
			initialize: true,
			amount:     coin.NewCoin(101, "IOV"),
			wantErr:    ErrTransferFailed,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			f := newFixture(t, nil)
			ownerAddr := f.owner.Address()
			assert.Nil(t, f.bank.Issue(f.db, ownerAddr, coin.NewCoin(100, "IOV")))
			if tc.initialize {
				_, err := f.ctrl.Initialize(at(0), f.db, ownerAddr)
				assert.Nil(t, err)
			}
			owner := f.owner
			if tc.owner != nil {
				owner = tc.owner(f)
			}
			source := ownerAddr
			if tc.source != nil {
				source = tc.source(f)
			}

			_, err := f.ctrl.Deposit(at(1), f.db, owner, source, tc.amount)
			assert.IsErr(t, tc.wantErr, err)

			assert.Equal(t, uint64(100), f.balance(t, ownerAddr))
			if tc.initialize {
				assert.Equal(t, uint64(0), f.vaultBalance(t))
			}
		})
	}
}

func TestDepositTransferFailureKeepsCause(t *testing.T) {
	f := newFixture(t, nil)
	ownerAddr := f.owner.Address()
	_, err := f.ctrl.Initialize(at(0), f.db, ownerAddr)
	assert.Nil(t, err)

	_, err = f.ctrl.Deposit(at(0), f.db, f.owner, ownerAddr, coin.NewCoin(1, "IOV"))
	assert.IsErr(t, ErrTransferFailed, err)
	assert.IsErr(t, errors.ErrInsufficientAmount, err)

	code, _ := errors.ABCIInfo(err, false)
	assert.Equal(t, ErrTransferFailed.ABCICode(), code)
}

func TestDepositOverflow(t *testing.T) {
	f := newFixture(t, nil)
	ownerAddr := f.owner.Address()
	assert.Nil(t, f.bank.Issue(f.db, ownerAddr, coin.NewCoin(math.MaxUint64, "IOV")))
	_, err := f.ctrl.Initialize(at(0), f.db, ownerAddr)
	assert.Nil(t, err)

	_, err = f.ctrl.Deposit(at(0), f.db, f.owner, ownerAddr, coin.NewCoin(math.MaxUint64, "IOV"))
	assert.Nil(t, err)

	_, err = f.ctrl.Deposit(at(0), f.db, f.owner, ownerAddr, coin.NewCoin(1, "IOV"))
	assert.IsErr(t, ErrOverflow, err)
	assert.Equal(t, uint64(math.MaxUint64), f.vaultBalance(t))

	// The whole balance can still be withdrawn, the penalty does not
	// overflow.
	p, err := f.ctrl.Withdraw(at(1), f.db, ownerAddr)
	assert.Nil(t, err)
	assert.Equal(t, uint64(math.MaxUint64/10), p.Fee)
	assert.Equal(t, uint64(math.MaxUint64), p.Total())
}

func TestWithdrawVaultNotFound(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.ctrl.Withdraw(at(0), f.db, f.owner.Address())
	assert.IsErr(t, ErrVaultNotFound, err)

	// Nothing is created as a side effect.
	it, err := f.db.Iterator(nil, nil)
	assert.Nil(t, err)
	defer it.Release()
	_, _, err = it.Next()
	assert.IsErr(t, errors.ErrIteratorDone, err)
}

// flakyLedger fails the n-th transfer.
type flakyLedger struct {
	cash.Controller
	failOn    int
	transfers int
	missing   uint64
}

func (l *flakyLedger) Transfer(db timevault.KVStore, amount coin.Coin, from, to timevault.Address, authorizer timevault.Condition) error {
	l.transfers++
	if l.transfers == l.failOn {
		return errors.Wrap(errors.ErrDatabase, "ledger unavailable")
	}
	return l.Controller.Transfer(db, amount, from, to, authorizer)
}

func (l *flakyLedger) Balance(db timevault.ReadOnlyKVStore, addr timevault.Address) (coin.Coin, error) {
	c, err := l.Controller.Balance(db, addr)
	if err != nil {
		return c, err
	}
	c.Amount -= l.missing
	return c, nil
}

func TestWithdrawTransferFailureRollback(t *testing.T) {
	cases := map[string]struct {
		failOn  int
		missing uint64
		wantErr *errors.Error
	}{
		"penalty leg fails": {
			// Transfer 1 is the deposit.
			failOn:  2,
			wantErr: ErrTransferFailed,
		},
		"payout leg fails": {
			failOn:  3,
			wantErr: ErrTransferFailed,
		},
		"custody holds less than the balance": {
			missing: 1,
			wantErr: errors.ErrHuman,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			ledger := &flakyLedger{Controller: cash.NewController(), failOn: tc.failOn}
			f := newFixture(t, ledger)
			ownerAddr := f.owner.Address()
			assert.Nil(t, f.bank.Issue(f.db, ownerAddr, coin.NewCoin(1000, "IOV")))

			v, err := f.ctrl.Initialize(at(0), f.db, ownerAddr)
			assert.Nil(t, err)
			_, err = f.ctrl.Deposit(at(0), f.db, f.owner, ownerAddr, coin.NewCoin(1000, "IOV"))
			assert.Nil(t, err)

			ledger.missing = tc.missing
			_, err = f.ctrl.Withdraw(at(100), f.db, ownerAddr)
			assert.IsErr(t, tc.wantErr, err)

			assert.Equal(t, uint64(1000), f.vaultBalance(t))
			assert.Equal(t, uint64(1000), f.balance(t, v.Custody().Address()))
			assert.Equal(t, uint64(0), f.balance(t, f.treasury))
			assert.Equal(t, uint64(0), f.balance(t, ownerAddr))
		})
	}
}

func TestForeignCurrencyCannotBlockCustody(t *testing.T) {
	f := newFixture(t, nil)
	ownerAddr := f.owner.Address()
	custody := CustodyAddress(ownerAddr, DeriveSeed(ownerAddr))

	// The custody address is public. A third party tries to make it an
	// ETH wallet before the first deposit.
	mallory := vaulttest.NewCondition()
	if err := f.bank.Issue(f.db, mallory.Address(), coin.NewCoin(1, "ETH")); !errors.ErrCurrency.Is(err) {
		t.Fatalf("want currency error, got %+v", err)
	}
	err := f.bank.Transfer(f.db, coin.NewCoin(1, "ETH"), mallory.Address(), custody, mallory)
	assert.IsErr(t, errors.ErrCurrency, err)

	// Sending the vault currency is allowed and does not get in the way.
	assert.Nil(t, f.bank.Issue(f.db, mallory.Address(), coin.NewCoin(5, "IOV")))
	assert.Nil(t, f.bank.Transfer(f.db, coin.NewCoin(5, "IOV"), mallory.Address(), custody, mallory))

	assert.Nil(t, f.bank.Issue(f.db, ownerAddr, coin.NewCoin(1000, "IOV")))
	_, err = f.ctrl.Initialize(at(0), f.db, ownerAddr)
	assert.Nil(t, err)
	v, err := f.ctrl.Deposit(at(0), f.db, f.owner, ownerAddr, coin.NewCoin(1000, "IOV"))
	assert.Nil(t, err)
	assert.Equal(t, uint64(1000), v.Balance)
	assert.Equal(t, custody, v.Custody().Address())

	p, err := f.ctrl.Withdraw(at(86400), f.db, ownerAddr)
	assert.Nil(t, err)
	assert.Equal(t, uint64(1000), p.Owner)
	assert.Equal(t, uint64(5), f.balance(t, custody))
}

func TestCustomPolicy(t *testing.T) {
	db := store.MemStore()
	bank := cash.NewController().WithTicker("ETH")
	owner := vaulttest.NewCondition()
	treasury := vaulttest.NewCondition().Address()

	conf := Configuration{
		LockDuration:       60,
		PenaltyNumerator:   1,
		PenaltyDenominator: 4,
		Treasury:           treasury,
		Ticker:             "ETH",
	}
	ctrl, err := NewController(conf, bank)
	assert.Nil(t, err)
	assert.Nil(t, bank.Issue(db, owner.Address(), coin.NewCoin(103, "ETH")))

	v, err := ctrl.Initialize(at(0), db, owner.Address())
	assert.Nil(t, err)
	assert.Equal(t, timevault.AsUnixTime(genesis)+60, v.UnlockTime)

	_, err = ctrl.Deposit(at(0), db, owner, owner.Address(), coin.NewCoin(103, "IOV"))
	assert.IsErr(t, ErrInvalidAmount, err)
	_, err = ctrl.Deposit(at(0), db, owner, owner.Address(), coin.NewCoin(103, "ETH"))
	assert.Nil(t, err)

	p, err := ctrl.Withdraw(at(59), db, owner.Address())
	assert.Nil(t, err)
	assert.Equal(t, uint64(25), p.Fee)
	assert.Equal(t, uint64(78), p.Owner)
}

func TestNewController(t *testing.T) {
	treasury := vaulttest.NewCondition().Address()

	_, err := NewController(DefaultConfiguration(treasury, "IOV"), nil)
	assert.IsErr(t, errors.ErrHuman, err)

	_, err = NewController(Configuration{}, cash.NewController())
	assert.IsErr(t, errors.ErrInput, err)

	ctrl, err := NewController(DefaultConfiguration(treasury, "IOV"), cash.NewController())
	assert.Nil(t, err)
	assert.Equal(t, DefaultLockDuration, ctrl.Configuration().LockDuration)
}

func TestPayoutSerialization(t *testing.T) {
	p := Payout{Owner: 900, Fee: 100, Penalized: true}
	raw, err := p.Marshal()
	assert.Nil(t, err)
	var got Payout
	assert.Nil(t, got.Unmarshal(raw))
	assert.Equal(t, p, got)
}
