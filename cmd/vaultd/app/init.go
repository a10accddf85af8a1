package app

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/iov-one/timevault"
	"github.com/iov-one/timevault/coin"
	"github.com/iov-one/timevault/commands/server"
	"github.com/iov-one/timevault/crypto"
	"github.com/iov-one/timevault/errors"
	"github.com/iov-one/timevault/x/cash"
	"github.com/iov-one/timevault/x/vault"
	"github.com/prometheus/client_golang/prometheus"
	abci "github.com/tendermint/tendermint/abci/types"
)

// genesisSupply is credited to the initial account.
const genesisSupply = 123456789

// InitOptions returns the generator of the genesis app_state. It funds one
// account with the vault currency and records the currency in cfg, so the
// saved configuration matches the genesis.
//
// Accepted arguments are
//   [ticker] [address]
// If no address is given, a new key is generated and printed to out.
func InitOptions(cfg *Config, out io.Writer) server.GenOptions {
	return func(args []string) (json.RawMessage, error) {
		ticker := cfg.Vault.Ticker
		if len(args) > 0 {
			ticker = args[0]
		}
		if !coin.IsCC(ticker) {
			return nil, errors.Wrapf(errors.ErrCurrency, "invalid ticker %q", ticker)
		}

		var addr timevault.Address
		if len(args) > 1 {
			var err error
			if addr, err = timevault.ParseAddress(args[1]); err != nil {
				return nil, errors.Wrap(err, "account address")
			}
		} else {
			// if no address provided, auto-generate one
			// and print out the key
			key := crypto.GenPrivKeyEd25519()
			if err := PrintKey(out, key); err != nil {
				return nil, err
			}
			addr = key.PublicKey().Address()
		}
		if err := addr.Validate(); err != nil {
			return nil, errors.Wrap(err, "account address")
		}

		cfg.Vault.Ticker = ticker
		if err := cfg.Vault.Validate(); err != nil {
			return nil, errors.Wrap(err, "vault configuration")
		}

		state := map[string]interface{}{
			"cash": []cash.GenesisAccount{
				{Address: addr, Balance: coin.NewCoin(genesisSupply, ticker)},
			},
		}
		raw, err := json.Marshal(state)
		if err != nil {
			return nil, errors.Wrap(errors.ErrInput, err.Error())
		}
		return raw, nil
	}
}

// GenerateApp returns the generator used by the start command. The
// configuration selects the storage backend and the vault policy.
func GenerateApp(cfg *Config) server.AppGenerator {
	return func(options *server.Options) (abci.Application, error) {
		if err := cfg.Validate(); err != nil {
			return nil, errors.Wrap(err, "configuration")
		}

		// db goes in a subdir, but "" -> "" for memdb
		var dbPath string
		if options.Home != "" {
			dbPath = cfg.DatabasePath(options.Home)
		}
		if dbPath != "" {
			if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
				return nil, errors.Wrap(errors.ErrDatabase, err.Error())
			}
		}
		kv, err := CommitKVStore(cfg.DBBackend, dbPath)
		if err != nil {
			return nil, err
		}

		stack, err := Stack(cfg.Vault)
		if err != nil {
			return nil, err
		}
		vault.RegisterMetrics(prometheus.DefaultRegisterer)

		application, err := Application(Name, stack, TxDecoder, kv, cfg.Vault.Ticker, options.Debug)
		if err != nil {
			return nil, err
		}
		// set the logger and return
		application.WithLogger(options.Logger)

		options.Logger.Info("Vault policy",
			"backend", cfg.DBBackend,
			"lock", cfg.Vault.LockDuration.Duration().String(),
			"penalty", fmt.Sprintf("%d/%d", cfg.Vault.PenaltyNumerator, cfg.Vault.PenaltyDenominator),
			"treasury", cfg.Vault.Treasury,
			"ticker", cfg.Vault.Ticker)
		return application, nil
	}
}

// PrintKey writes the private key, and the addresses derived from it, to
// out. The private key is hex encoded.
func PrintKey(out io.Writer, key *crypto.PrivateKey) error {
	addr := key.PublicKey().Address()
	b32, err := addr.Bech32()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "private_key: %s\naddress: %s\nbech32: %s\n",
		hex.EncodeToString(key.Ed25519), addr, b32)
	return err
}

// KeyGen creates a new private key and prints it out.
func KeyGen(out io.Writer) error {
	return PrintKey(out, crypto.GenPrivKeyEd25519())
}
