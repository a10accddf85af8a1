package utils

import (
	"time"

	"github.com/iov-one/timevault"
	"github.com/iov-one/timevault/errors"
)

// Logging writes one log entry per processed transaction. Failures are
// logged as errors, successful checks at debug and successful deliveries at
// info level.
type Logging struct{}

var _ timevault.Decorator = Logging{}

func NewLogging() Logging {
	return Logging{}
}

func (Logging) Check(ctx timevault.Context, store timevault.KVStore, tx timevault.Tx, next timevault.Checker) (*timevault.CheckResult, error) {
	start := time.Now()
	res, err := next.Check(ctx, store, tx)
	var resLog string
	if err == nil {
		resLog = res.Log
	}
	logResult(ctx, tx, start, resLog, err, true)
	return res, err
}

func (Logging) Deliver(ctx timevault.Context, store timevault.KVStore, tx timevault.Tx, next timevault.Deliverer) (*timevault.DeliverResult, error) {
	start := time.Now()
	res, err := next.Deliver(ctx, store, tx)
	var resLog string
	if err == nil {
		resLog = res.Log
	}
	logResult(ctx, tx, start, resLog, err, false)
	return res, err
}

func logResult(ctx timevault.Context, tx timevault.Tx, start time.Time, msg string, err error, check bool) {
	logger := timevault.GetLogger(ctx).With(
		"path", timevault.GetPath(tx),
		"duration", time.Since(start)/time.Microsecond,
	)

	// An entry is emitted even for an empty message.
	switch {
	case err != nil:
		keyvals := []interface{}{"err", err}
		if fields := errors.Fields(err); len(fields) != 0 {
			keyvals = append(keyvals, "fields", fields)
		}
		logger.Error(msg, keyvals...)
	case check:
		logger.Debug(msg)
	default:
		logger.Info(msg)
	}
}
