/*
Package app wires the vault and cash extensions into an ABCI application.

It defines the transaction envelope, the decorator chain and the routers,
and selects the storage backend from the deployment configuration.
*/
package app

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/iov-one/timevault"
	"github.com/iov-one/timevault/app"
	"github.com/iov-one/timevault/errors"
	"github.com/iov-one/timevault/store/bolt"
	"github.com/iov-one/timevault/store/iavl"
	"github.com/iov-one/timevault/x"
	"github.com/iov-one/timevault/x/cash"
	"github.com/iov-one/timevault/x/sigs"
	"github.com/iov-one/timevault/x/utils"
	"github.com/iov-one/timevault/x/vault"
)

// Name is returned by the abci Info call.
const Name = "vaultd"

// Authenticator accepts ed25519 signatures checked by the sigs decorator.
func Authenticator() x.Authenticator {
	return x.ChainAuth(sigs.Authenticate{})
}

// CashControl is the ledger of the vault currency. Other currencies are
// rejected so that no wallet, custody wallets included, can be locked to a
// foreign currency.
func CashControl(ticker string) cash.Controller {
	return cash.NewController().WithTicker(ticker)
}

// Chain is run in front of every handler. A transaction failing in
// CheckTx leaves no trace, while in DeliverTx the signer nonce is
// consumed even when the message fails.
func Chain() app.Decorators {
	return app.ChainDecorators(
		utils.NewLogging(),
		utils.NewRecovery(),
		utils.NewActionTagger(),
		utils.NewSavepoint().OnCheck(),
		sigs.NewDecorator(),
		utils.NewSavepoint().OnDeliver(),
	)
}

// Router dispatches "cash/..." and "vault/..." messages.
func Router(auth x.Authenticator, ctrl *vault.Controller) *app.Router {
	r := app.NewRouter()
	cash.RegisterRoutes(r, auth, CashControl(ctrl.Configuration().Ticker))
	vault.RegisterRoutes(r, auth, ctrl)
	return r
}

// QueryRouter serves "/wallets", "/auth" and "/vaults".
func QueryRouter() timevault.QueryRouter {
	r := timevault.NewQueryRouter()
	r.RegisterAll(cash.RegisterQuery, sigs.RegisterQuery, vault.RegisterQuery)
	return r
}

// Stack is the decorated router for the given vault policy.
func Stack(conf vault.Configuration) (timevault.Handler, error) {
	ctrl, err := vault.NewController(conf, CashControl(conf.Ticker))
	if err != nil {
		return nil, err
	}
	return Chain().WithHandler(Router(Authenticator(), ctrl)), nil
}

// Application serves the handler h over the state in kv. Genesis balances
// must be in ticker.
func Application(name string, h timevault.Handler, decoder timevault.TxDecoder, kv timevault.CommitKVStore, ticker string, debug bool) (app.BaseApp, error) {
	store, err := app.NewStoreApp(name, kv, QueryRouter(), context.Background())
	if err != nil {
		return app.BaseApp{}, err
	}
	store.WithInit(app.ChainInitializers(cash.Initializer{Ticker: ticker}))
	return app.NewBaseApp(store, decoder, h, debug), nil
}

// CommitKVStore opens the database of the given backend. An empty path
// gives an in memory iavl tree, which only tests should use. Bolt needs a
// file.
func CommitKVStore(backend, dbPath string) (timevault.CommitKVStore, error) {
	if backend != BackendIAVL && backend != BackendBolt {
		return nil, errors.Wrapf(errors.ErrInput, "unknown database backend %q", backend)
	}
	if dbPath == "" {
		if backend == BackendBolt {
			return nil, errors.Wrap(errors.ErrInput, "bolt backend requires a database path")
		}
		return iavl.NewMemCommitStore(), nil
	}

	path, err := filepath.Abs(dbPath)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "invalid database name: %s", dbPath)
	}
	if backend == BackendBolt {
		db, err := bolt.NewCommitStore(path)
		if err != nil {
			return nil, err
		}
		return db, nil
	}
	// iavl appends its own ".db" to the name.
	path = strings.TrimSuffix(path, filepath.Ext(path))
	return iavl.NewCommitStore(filepath.Dir(path), filepath.Base(path))
}
