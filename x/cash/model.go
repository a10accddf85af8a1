package cash

import (
	"github.com/iov-one/timevault"
	"github.com/iov-one/timevault/coin"
	"github.com/iov-one/timevault/errors"
	"github.com/iov-one/timevault/orm"
)

// BucketName is where we store the balances
const BucketName = "cash"

// Wallet holds the balance of a single address.
type Wallet struct {
	Metadata *timevault.Metadata
	Balance  coin.Coin
}

var _ orm.Model = (*Wallet)(nil)

// NewWallet returns a wallet holding given amount.
func NewWallet(balance coin.Coin) *Wallet {
	return &Wallet{
		Metadata: &timevault.Metadata{Schema: 1},
		Balance:  balance,
	}
}

// Validate makes sure the wallet is sensible. An empty balance does not
// require a ticker.
func (w *Wallet) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", w.Metadata.Validate())
	if !w.Balance.IsZero() || w.Balance.Ticker != "" {
		errs = errors.AppendField(errs, "Balance", w.Balance.Validate())
	}
	return errs
}

func (w *Wallet) Marshal() ([]byte, error) {
	e := timevault.NewProtoEncoder()
	if w.Metadata != nil {
		if err := e.Message(1, w.Metadata); err != nil {
			return nil, err
		}
	}
	if err := e.Message(2, &w.Balance); err != nil {
		return nil, err
	}
	return e.Result(), nil
}

func (w *Wallet) Unmarshal(raw []byte) error {
	*w = Wallet{}
	return timevault.DecodeProto(raw, func(f timevault.ProtoField) error {
		var err error
		switch f.Num {
		case 1:
			w.Metadata = &timevault.Metadata{}
			err = f.Message(w.Metadata)
		case 2:
			err = f.Message(&w.Balance)
		}
		return err
	})
}

// Bucket is a type-safe wrapper around orm.ModelBucket, storing wallets
// under their address.
type Bucket struct {
	orm.ModelBucket
}

// NewBucket initializes a cash.Bucket with default name
func NewBucket() Bucket {
	return Bucket{
		ModelBucket: orm.NewModelBucket(BucketName, &Wallet{}),
	}
}

// GetOrCreate returns the wallet of given address, or an empty one if it
// does not exist yet.
func (b Bucket) GetOrCreate(db timevault.ReadOnlyKVStore, addr timevault.Address) (*Wallet, error) {
	var w Wallet
	switch err := b.One(db, addr, &w); {
	case err == nil:
		return &w, nil
	case errors.ErrNotFound.Is(err):
		return NewWallet(coin.Coin{}), nil
	default:
		return nil, err
	}
}

// RegisterQuery will register this bucket as "/wallets"
func RegisterQuery(qr timevault.QueryRouter) {
	NewBucket().Register("wallets", qr)
}
