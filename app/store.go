package app

import (
	"encoding/json"
	"fmt"

	"github.com/iov-one/timevault"
	"github.com/iov-one/timevault/errors"
	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/libs/log"
)

// StoreApp implements the parts of abci.Application that do not process
// transactions: genesis, block boundaries, commits and queries. BaseApp
// embeds it to add CheckTx and DeliverTx.
//
// ABCI calls that carry no user input cannot fail gracefully. Any error in
// them means the node is broken, so they panic.
type StoreApp struct {
	name   string
	logger log.Logger
	debug  bool

	states  *states
	genesis timevault.Initializer
	queries timevault.QueryRouter

	// chainID is empty until the genesis is loaded.
	chainID string
	// base is valid for the lifetime of the app, block for the current
	// block only.
	base  timevault.Context
	block timevault.Context
}

// NewStoreApp opens the latest committed state of db.
func NewStoreApp(name string, db timevault.CommitKVStore, queries timevault.QueryRouter, ctx timevault.Context) (*StoreApp, error) {
	st, err := openStates(db)
	if err != nil {
		return nil, err
	}
	s := &StoreApp{name: name, states: st, queries: queries, base: ctx}
	s.WithLogger(log.NewNopLogger())

	if s.chainID, err = loadChainID(st.deliver); err != nil {
		return nil, err
	}
	if s.chainID != "" {
		s.base = timevault.WithChainID(s.base, s.chainID)
	}

	latest, err := st.latest()
	if err != nil {
		return nil, errors.Wrap(err, "cannot load commit info")
	}
	s.block = timevault.WithHeight(s.base, latest.Version)
	return s, nil
}

func (s *StoreApp) GetChainID() string {
	return s.chainID
}

// WithInit sets what loads the app_state of the genesis file.
func (s *StoreApp) WithInit(init timevault.Initializer) *StoreApp {
	s.genesis = init
	return s
}

// WithDebug makes error responses carry the full error.
func (s *StoreApp) WithDebug(debug bool) *StoreApp {
	s.debug = debug
	return s
}

// WithLogger sets the logger of the app and of every context it creates.
func (s *StoreApp) WithLogger(logger log.Logger) *StoreApp {
	s.logger = logger
	s.base = timevault.WithLogger(s.base, logger)
	return s
}

func (s *StoreApp) BlockContext() timevault.Context {
	return s.block
}

func (s *StoreApp) DeliverStore() timevault.CacheableKVStore {
	return s.states.deliver
}

func (s *StoreApp) CheckStore() timevault.CacheableKVStore {
	return s.states.check
}

// loadGenesis runs once, when the chain starts from its genesis file.
func (s *StoreApp) loadGenesis(chainID string, appState []byte) error {
	if s.chainID != "" {
		return errors.Wrapf(errors.ErrImmutable, "genesis already loaded for chain %s", s.chainID)
	}
	if len(appState) == 0 {
		return errors.Wrap(errors.ErrEmpty, "app_state missing from genesis")
	}
	var opts timevault.Options
	if err := json.Unmarshal(appState, &opts); err != nil {
		return errors.Wrapf(errors.ErrInput, "app_state: %s", err)
	}

	db := s.DeliverStore()
	if err := saveChainID(db, chainID); err != nil {
		return err
	}
	s.chainID = chainID
	s.base = timevault.WithChainID(s.base, chainID)

	if s.genesis == nil {
		return nil
	}
	return s.genesis.FromGenesis(opts, db)
}

// Info reports the last committed block so that tendermint can replay what
// is missing.
func (s *StoreApp) Info(abci.RequestInfo) abci.ResponseInfo {
	latest, err := s.states.latest()
	if err != nil {
		panic(err)
	}
	s.logger.Info("Info synced", "height", latest.Version, "hash", fmt.Sprintf("%X", latest.Hash))
	return abci.ResponseInfo{
		Data:             s.name,
		Version:          timevault.Version(),
		LastBlockHeight:  latest.Version,
		LastBlockAppHash: latest.Hash,
	}
}

func (s *StoreApp) SetOption(abci.RequestSetOption) abci.ResponseSetOption {
	return abci.ResponseSetOption{Log: "Not Implemented"}
}

// Query reads the committed state. The path names a registered query
// handler, optionally followed by "?prefix" for a prefix scan. The
// response key and value are result sets of equal length, see
// EncodeResults.
func (s *StoreApp) Query(req abci.RequestQuery) abci.ResponseQuery {
	res, err := s.query(req)
	if err != nil {
		return timevault.QueryError(err, s.debug)
	}
	return res
}

func (s *StoreApp) query(req abci.RequestQuery) (abci.ResponseQuery, error) {
	var res abci.ResponseQuery
	path, mod, err := timevault.ParseQueryPath(req.Path)
	if err != nil {
		return res, err
	}
	h := s.queries.Handler(path)
	if h == nil {
		return res, errors.Wrapf(errors.ErrNotFound, "unexpected query path: %v", req.Path)
	}
	latest, err := s.states.latest()
	if err != nil {
		return res, err
	}
	models, err := h.Query(s.states.query(), mod, req.Data)
	if err != nil {
		return res, err
	}
	if res.Key, res.Value, err = EncodeResults(models); err != nil {
		return res, err
	}
	res.Height = latest.Version
	return res, nil
}

func (s *StoreApp) Commit() abci.ResponseCommit {
	id, err := s.states.commit()
	if err != nil {
		panic(err)
	}
	s.logger.Debug("Commit synced", "height", id.Version, "hash", fmt.Sprintf("%X", id.Hash))
	return abci.ResponseCommit{Data: id.Hash}
}

// InitChain loads the app_state of the genesis file.
func (s *StoreApp) InitChain(req abci.RequestInitChain) abci.ResponseInitChain {
	if err := s.loadGenesis(req.ChainId, req.AppStateBytes); err != nil {
		panic(err)
	}
	return abci.ResponseInitChain{}
}

// BeginBlock sets the header, height and time every transaction of the
// block sees.
func (s *StoreApp) BeginBlock(req abci.RequestBeginBlock) abci.ResponseBeginBlock {
	ctx := timevault.WithHeader(s.base, req.Header)
	ctx = timevault.WithHeight(ctx, req.Header.GetHeight())
	s.block = timevault.WithBlockTime(ctx, req.Header.GetTime())
	return abci.ResponseBeginBlock{}
}

func (s *StoreApp) EndBlock(abci.RequestEndBlock) abci.ResponseEndBlock {
	return abci.ResponseEndBlock{}
}
