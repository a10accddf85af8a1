package errors

import (
	"fmt"
	"strings"
)

// Append clubs together all provided errors. Nil values are ignored.
//
// If more than one error is provided, the result is a multi error that
// behaves like the first of them when tested for its ABCI code, but matches
// (using the Is method) any of the contained errors.
func Append(errs ...error) error {
	var res multiErr
	for _, e := range errs {
		if isNilErr(e) {
			continue
		}
		// Flatten so that nested multi errors do not build a tree.
		if m, ok := e.(multiErr); ok {
			res = append(res, m...)
			continue
		}
		res = append(res, e)
	}

	switch len(res) {
	case 0:
		return nil
	case 1:
		return res[0]
	default:
		return res
	}
}

// multiErr is a list of errors. It is never empty and never contains a
// single element, see Append.
type multiErr []error

var _ unpacker = multiErr(nil)

func (m multiErr) Error() string {
	points := make([]string, len(m))
	for i, err := range m {
		points[i] = fmt.Sprintf("* %s", err)
	}
	return fmt.Sprintf("%d errors occurred:\n\t%s\n", len(m), strings.Join(points, "\n\t"))
}

// ABCICode returns the code of the first error, consistent with the fail-fast
// approach.
func (m multiErr) ABCICode() uint32 {
	return abciCode(m[0])
}

// Unpack returns all contained errors.
func (m multiErr) Unpack() []error {
	return []error(m)
}

// unpacker is implemented by errors that contain more than a single error
// instance.
type unpacker interface {
	Unpack() []error
}
