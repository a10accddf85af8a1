package errors

import (
	"fmt"
	"reflect"

	"github.com/pkg/errors"
)

// Wrap adds context to err. The innermost wrap records a stack trace. A nil
// err gives nil, so that the result of a call can be wrapped directly.
func Wrap(err error, description string) error {
	if err == nil {
		return nil
	}
	if stackTrace(err) == nil {
		err = errors.WithStack(err)
	}
	return &wrappedError{msg: description, parent: err}
}

func Wrapf(err error, format string, args ...interface{}) error {
	return Wrap(err, fmt.Sprintf(format, args...))
}

type wrappedError struct {
	msg    string
	parent error
}

func (e *wrappedError) Error() string {
	return e.msg + ": " + e.parent.Error()
}

func (e *wrappedError) Cause() error {
	return e.parent
}

// Format supports %+v for the full stack trace and %v for the message
// followed by the place the error was created.
func (e *wrappedError) Format(s fmt.State, verb rune) {
	msg := e.Error()
	st := stackTrace(e)
	switch {
	case verb != 'v', len(st) == 0:
		fmt.Fprint(s, msg)
	case s.Flag('+'):
		fmt.Fprintf(s, "%s%+v", msg, st)
	default:
		fmt.Fprintf(s, "%s [%v]", msg, st[0])
	}
}

// Recover turns a panic into an ErrPanic assigned to *err. It must be
// deferred.
func Recover(err *error) {
	if r := recover(); r != nil {
		*err = Wrapf(ErrPanic, "%v", r)
	}
}

// Cause unwraps err down to the error it was created from.
func Cause(err error) error {
	for {
		c, ok := err.(causer)
		if !ok || c.Cause() == nil {
			return err
		}
		err = c.Cause()
	}
}

type causer interface {
	Cause() error
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

func stackTrace(err error) errors.StackTrace {
	for err != nil {
		if st, ok := err.(stackTracer); ok {
			return st.StackTrace()
		}
		c, ok := err.(causer)
		if !ok {
			break
		}
		err = c.Cause()
	}
	return nil
}

// isNilErr also catches a typed nil pointer stored in the interface.
func isNilErr(err error) bool {
	if err == nil {
		return true
	}
	v := reflect.ValueOf(err)
	return v.Kind() == reflect.Ptr && v.IsNil()
}
