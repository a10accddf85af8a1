package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Field attaches the name of the invalid attribute to err. It returns nil
// when err is nil, so it can wrap the result of a Validate call directly.
//
// Names follow Go naming. Nested attributes use the dot notation, for
// example Vault.Owner, and elements of a collection use their index, for
// example Signatures.0.
func Field(fieldName string, err error, description string, args ...interface{}) error {
	if isNilErr(err) {
		return nil
	}
	if stackTrace(err) == nil {
		err = errors.WithStack(err)
	}
	if len(args) > 0 {
		description = fmt.Sprintf(description, args...)
	}
	return &fieldError{parent: err, field: fieldName, desc: description}
}

// AppendField adds the field error created from fieldErrOrNil to
// errorsOrNil. Both arguments may be nil.
func AppendField(errorsOrNil error, fieldName string, fieldErrOrNil error) error {
	return Append(errorsOrNil, Field(fieldName, fieldErrOrNil, ""))
}

type fieldError struct {
	parent error
	field  string
	desc   string
}

func (err *fieldError) Error() string {
	if err.desc == "" {
		return fmt.Sprintf("field %q: %s", err.field, err.parent)
	}
	return fmt.Sprintf("field %q: %s: %s", err.field, err.desc, err.parent)
}

func (err *fieldError) Cause() error {
	return err.parent
}

func (err *fieldError) Field() string {
	return err.field
}

type fielder interface {
	Field() string
}

// FieldErrors returns all errors created for the given field name. The
// whole error tree is searched, including multi errors and wrapped errors.
// A matching field error is returned as is, without descending into it.
func FieldErrors(err error, fieldName string) []error {
	var res []error
	walkFields(err, func(f fielder, e error) bool {
		if f.Field() != fieldName {
			return true
		}
		res = append(res, e)
		return false
	})
	return res
}

// Fields returns the names of the outermost field errors found in err, in
// the order of appearance. Nested field errors are not listed.
func Fields(err error) []string {
	var names []string
	walkFields(err, func(f fielder, _ error) bool {
		names = append(names, f.Field())
		return false
	})
	return names
}

// walkFields calls fn for every field error of the tree. Returning false
// stops the descent into the error passed to fn.
func walkFields(err error, fn func(fielder, error) bool) {
	for !isNilErr(err) {
		if f, ok := err.(fielder); ok && !fn(f, err) {
			return
		}
		// All children are reachable with Unpack, the cause included.
		if u, ok := err.(unpacker); ok {
			for _, e := range u.Unpack() {
				walkFields(e, fn)
			}
			return
		}
		c, ok := err.(causer)
		if !ok {
			return
		}
		err = c.Cause()
	}
}
