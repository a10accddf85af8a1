package vaulttest

import (
	"context"
	"time"

	"github.com/iov-one/timevault"
	"github.com/tendermint/tendermint/libs/log"
)

// ChainID is the chain id set by NewContext.
const ChainID = "test-chain"

// NewContext returns a context carrying a chain id, a block height and the
// given block time, as if the transaction was processed in a block. The
// logger discards everything.
func NewContext(now time.Time) timevault.Context {
	ctx := context.Background()
	ctx = timevault.WithChainID(ctx, ChainID)
	ctx = timevault.WithHeight(ctx, 1)
	ctx = timevault.WithBlockTime(ctx, now)
	return timevault.WithLogger(ctx, log.NewNopLogger())
}
