package app

import (
	"github.com/iov-one/timevault"
	"github.com/iov-one/timevault/errors"
)

// states holds the three views of the database an application works with.
// Delivered transactions write to deliver, which is flushed on commit.
// Checked transactions write to check, which is thrown away on commit so
// that the next block is checked against the freshly committed state.
type states struct {
	db      timevault.CommitKVStore
	deliver timevault.KVCacheWrap
	check   timevault.KVCacheWrap
}

func openStates(db timevault.CommitKVStore) (*states, error) {
	if err := db.LoadLatestVersion(); err != nil {
		return nil, errors.Wrap(err, "cannot load latest version")
	}
	s := &states{db: db}
	s.reset()
	return s, nil
}

func (s *states) reset() {
	s.deliver = s.db.CacheWrap()
	s.check = s.db.CacheWrap()
}

func (s *states) latest() (timevault.CommitID, error) {
	return s.db.LatestVersion()
}

// commit persists everything delivered since the last commit.
func (s *states) commit() (timevault.CommitID, error) {
	if err := s.deliver.Write(); err != nil {
		return timevault.CommitID{}, errors.Wrap(err, "cannot flush deliver cache")
	}
	s.check.Discard()
	id, err := s.db.Commit()
	if err != nil {
		return id, err
	}
	s.reset()
	return id, nil
}

// query returns a fresh read only view of the committed state.
func (s *states) query() timevault.ReadOnlyKVStore {
	return s.db.CacheWrap()
}

// chainIDKey lives outside of every bucket the extensions register.
var chainIDKey = []byte("_tv:chainID")

func loadChainID(db timevault.ReadOnlyKVStore) (string, error) {
	raw, err := db.Get(chainIDKey)
	if err != nil {
		return "", errors.Wrap(err, "cannot load chain id")
	}
	return string(raw), nil
}

// saveChainID records the chain id once. It is never overwritten.
func saveChainID(db timevault.KVStore, chainID string) error {
	if !timevault.IsValidChainID(chainID) {
		return errors.Wrapf(errors.ErrInput, "chain id: %q", chainID)
	}
	switch found, err := db.Has(chainIDKey); {
	case err != nil:
		return errors.Wrap(err, "cannot load chain id")
	case found:
		return errors.Wrap(errors.ErrImmutable, "chain id is set at genesis")
	}
	if err := db.Set(chainIDKey, []byte(chainID)); err != nil {
		return errors.Wrap(err, "cannot save chain id")
	}
	return nil
}
