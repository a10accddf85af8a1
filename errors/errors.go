package errors

import (
	"fmt"
)

// Root errors shared by every extension. Extensions register their own
// codes starting from 1000.
var (
	// ErrUnauthorized means a required signature is missing.
	ErrUnauthorized = Register(2, "unauthorized")
	ErrNotFound     = Register(3, "not found")
	// ErrMsg is a message that fails its own validation.
	ErrMsg = Register(4, "invalid message")
	// ErrModel is a persisted entity that fails its own validation.
	ErrModel     = Register(5, "invalid model")
	ErrDuplicate = Register(6, "duplicate")
	// ErrHuman marks a code path that a correct program never reaches.
	ErrHuman     = Register(7, "coding error")
	ErrImmutable = Register(8, "cannot be modified")
	ErrEmpty     = Register(9, "value is empty")
	ErrState     = Register(10, "invalid state")
	ErrType      = Register(11, "invalid type")
	// ErrInsufficientAmount is a balance too small for the requested
	// operation.
	ErrInsufficientAmount = Register(12, "insufficient amount")
	ErrAmount             = Register(13, "invalid amount")
	ErrInput              = Register(14, "invalid input")
	ErrExpired            = Register(15, "expired")
	ErrOverflow           = Register(16, "an operation cannot be completed due to value overflow")
	ErrCurrency           = Register(17, "currency")
	// ErrDatabase wraps failures of the underlying storage engine.
	ErrDatabase     = Register(18, "database")
	ErrIteratorDone = Register(19, "iterator done")
	ErrMetadata     = Register(20, "invalid metadata")

	// ErrPanic is a recovered panic. Its message is hidden from clients
	// unless the node runs in debug mode.
	ErrPanic = Register(111222, "panic")
)

// codes holds every registered error by code. Code 1 is what errors
// without a registered root are reported with.
var codes = map[uint32]*Error{
	1: {code: 1, desc: "internal"},
}

// Register declares a root error. It must be called during program
// initialization, and panics if the code is taken.
func Register(code uint32, description string) *Error {
	if prev, ok := codes[code]; ok {
		panic(fmt.Sprintf("error code %d already registered as %q", code, prev.desc))
	}
	e := &Error{code: code, desc: description}
	codes[code] = e
	return e
}

// Error is a root error. Runtime errors wrap one of them, which decides the
// code a client sees.
type Error struct {
	code uint32
	desc string
}

func (e Error) Error() string    { return e.desc }
func (e Error) ABCICode() uint32 { return e.code }

// Is reports whether err is this root error or wraps it. A multi error
// matches if any of its parts does. A nil root matches only nil values,
// including typed nil pointers.
func (e *Error) Is(err error) bool {
	if e == nil {
		return isNilErr(err)
	}
	for err != nil {
		if err == e {
			return true
		}
		if u, ok := err.(unpacker); ok {
			for _, part := range u.Unpack() {
				if e.Is(part) {
					return true
				}
			}
		}
		c, ok := err.(causer)
		if !ok {
			return false
		}
		err = c.Cause()
	}
	return false
}
