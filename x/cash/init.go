package cash

import (
	"github.com/iov-one/timevault"
	"github.com/iov-one/timevault/coin"
	"github.com/iov-one/timevault/errors"
)

// GenesisAccount is a wallet funded at genesis, listed under the "cash"
// key of the app_state.
type GenesisAccount struct {
	Address timevault.Address `json:"address"`
	Balance coin.Coin         `json:"balance"`
}

// Initializer issues the genesis balances. A non empty Ticker rejects
// balances in any other currency.
type Initializer struct {
	Ticker string
}

var _ timevault.Initializer = Initializer{}

func (in Initializer) FromGenesis(opts timevault.Options, db timevault.KVStore) error {
	var accounts []GenesisAccount
	if err := opts.ReadOptions("cash", &accounts); err != nil {
		return err
	}
	control := NewController().WithTicker(in.Ticker)
	for i, a := range accounts {
		err := a.Address.Validate()
		if err == nil {
			err = control.Issue(db, a.Address, a.Balance)
		}
		if err != nil {
			return errors.Wrapf(err, "genesis account %d", i)
		}
	}
	return nil
}
