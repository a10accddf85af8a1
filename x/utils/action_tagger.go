package utils

import (
	"strings"

	"github.com/iov-one/timevault"
	"github.com/tendermint/tendermint/libs/common"
)

// Tag keys appended by the ActionTagger.
const (
	// ActionKey holds the full message path, for example "vault/withdraw".
	ActionKey = "action"
	// ModuleKey holds the extension part of the path, for example "vault".
	ModuleKey = "module"
)

// ActionTagger tags every successfully delivered transaction with the path
// of its message, so clients can subscribe to, say, all vault withdrawals.
type ActionTagger struct{}

var _ timevault.Decorator = ActionTagger{}

func NewActionTagger() ActionTagger {
	return ActionTagger{}
}

func (ActionTagger) Check(ctx timevault.Context, db timevault.KVStore, tx timevault.Tx, next timevault.Checker) (*timevault.CheckResult, error) {
	return next.Check(ctx, db, tx)
}

func (ActionTagger) Deliver(ctx timevault.Context, db timevault.KVStore, tx timevault.Tx, next timevault.Deliverer) (*timevault.DeliverResult, error) {
	// A transaction without a message cannot be routed either.
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, err
	}
	res, err := next.Deliver(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	res.Tags = append(res.Tags, actionTags(msg.Path())...)
	return res, nil
}

func actionTags(path string) []common.KVPair {
	module := path
	if i := strings.IndexByte(path, '/'); i > 0 {
		module = path[:i]
	}
	return []common.KVPair{
		{Key: []byte(ActionKey), Value: []byte(path)},
		{Key: []byte(ModuleKey), Value: []byte(module)},
	}
}
