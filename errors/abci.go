package errors

import (
	"fmt"
)

const (
	// SuccessABCICode is the code of a successful ABCI response.
	SuccessABCICode = 0

	// Errors without a registered code are reported with this code and
	// a generic message, so implementation details do not leak to the
	// clients.
	internalABCICode uint32 = 1
	internalABCILog         = "internal error"
)

// ABCIInfo returns the code and log of an ABCI response reporting err.
//
// Only registered errors expose their message. Unregistered errors and
// recovered panics are reported as a generic internal error, unless debug
// is set in which case the full error with its stack trace is returned.
func ABCIInfo(err error, debug bool) (uint32, string) {
	if isNilErr(err) {
		return SuccessABCICode, ""
	}
	code := abciCode(err)
	switch {
	case debug:
		return code, fmt.Sprintf("%+v", err)
	case code == internalABCICode:
		return code, internalABCILog
	case ErrPanic.Is(err):
		return code, ErrPanic.Error()
	default:
		return code, err.Error()
	}
}

// abciCode returns the code of the first error in the cause chain that
// carries one.
func abciCode(err error) uint32 {
	for !isNilErr(err) {
		if c, ok := err.(interface{ ABCICode() uint32 }); ok {
			return c.ABCICode()
		}
		c, ok := err.(causer)
		if !ok {
			break
		}
		err = c.Cause()
	}
	return internalABCICode
}
