package server

import (
	"encoding/json"
	"flag"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"time"

	"github.com/iov-one/timevault"
	"github.com/iov-one/timevault/errors"
	cmn "github.com/tendermint/tendermint/libs/common"
	"github.com/tendermint/tendermint/libs/log"
)

const (
	flagChainID = "chain_id"
	flagForce   = "force"

	appStateKey = "app_state"
)

// GenOptions can parse command-line and flag to
// generate default app_state for the genesis file.
// This is application-specific
type GenOptions func(args []string) (json.RawMessage, error)

// GenesisDoc involves some tendermint-specific structures we don't
// want to parse, so we just grab it into a raw object format,
// so we can add one line.
type GenesisDoc map[string]json.RawMessage

// GenesisPath returns the location of the genesis file in the home directory.
func GenesisPath(home string) string {
	return filepath.Join(home, "config", "genesis.json")
}

// InitCmd will add the application options to the genesis file.
//
// If the genesis file does not exist yet, a minimal one is created with the
// given chain id. Validators are still to be provided by tendermint.
// Existing app_state is only replaced when -force is given.
func InitCmd(gen GenOptions, logger log.Logger, home string, args []string) error {
	var (
		chainID string
		force   bool
	)
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	fs.StringVar(&chainID, flagChainID, "", "chain id used when a new genesis file is created")
	fs.BoolVar(&force, flagForce, false, "overwrite existing app_state")
	if err := fs.Parse(args); err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}

	genFile := GenesisPath(home)
	doc, err := loadGenesis(genFile)
	switch {
	case errors.ErrNotFound.Is(err):
		if chainID == "" {
			chainID = "timevault-" + cmn.RandStr(6)
		}
		if doc, err = newGenesis(chainID, time.Now()); err != nil {
			return err
		}
		logger.Info("Generated genesis file", "path", genFile, "chain_id", chainID)
	case err != nil:
		return err
	default:
		logger.Info("Found genesis file", "path", genFile)
	}

	if !force && hasAppState(doc) {
		return errors.Wrapf(errors.ErrImmutable, "%s already contains app_state, use -%s", genFile, flagForce)
	}

	options, err := gen(fs.Args())
	if err != nil {
		return errors.Wrap(err, "cannot generate app_state")
	}
	doc[appStateKey] = options
	if err := saveGenesis(genFile, doc); err != nil {
		return err
	}
	logger.Info("App state written", "path", genFile)
	return nil
}

func newGenesis(chainID string, now time.Time) (GenesisDoc, error) {
	if !timevault.IsValidChainID(chainID) {
		return nil, errors.Wrapf(errors.ErrInput, "chain id: %q", chainID)
	}
	doc := make(GenesisDoc)
	for key, value := range map[string]interface{}{
		"genesis_time": now.UTC().Format(time.RFC3339Nano),
		"chain_id":     chainID,
	} {
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, errors.Wrap(errors.ErrInput, err.Error())
		}
		doc[key] = raw
	}
	return doc, nil
}

func hasAppState(doc GenesisDoc) bool {
	raw, ok := doc[appStateKey]
	if !ok {
		return false
	}
	s := string(raw)
	return s != "" && s != "null" && s != "{}"
}

func loadGenesis(filename string) (GenesisDoc, error) {
	bz, err := ioutil.ReadFile(filename)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrNotFound, filename)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}

	var doc GenesisDoc
	if err := json.Unmarshal(bz, &doc); err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "genesis %s: %s", filename, err)
	}
	if doc == nil {
		doc = make(GenesisDoc)
	}
	return doc, nil
}

func saveGenesis(filename string, doc GenesisDoc) error {
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	if err := ioutil.WriteFile(filename, out, 0600); err != nil {
		return errors.Wrap(errors.ErrDatabase, fmt.Sprintf("write %s: %s", filename, err))
	}
	return nil
}
