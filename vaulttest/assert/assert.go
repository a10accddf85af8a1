/*
Package assert holds the handful of assertions the vault packages use
next to testify. Every assertion stops the test on failure.
*/
package assert

import (
	"reflect"

	"github.com/iov-one/timevault/errors"
)

// Tester is the part of testing.TB the assertions use.
type Tester interface {
	Helper()
	Logf(string, ...interface{})
	Fatal(...interface{})
	Fatalf(string, ...interface{})
}

// Nil fails unless value is nil or a nil pointer, slice, map or similar.
func Nil(t Tester, value interface{}) {
	t.Helper()
	if !isNil(value) {
		// %+v prints the stack trace of errors carrying one.
		t.Fatalf("want nil, got %+v", value)
	}
}

func isNil(value interface{}) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Ptr, reflect.Slice:
		return v.IsNil()
	default:
		return false
	}
}

// Equal fails unless both values are deeply equal.
func Equal(t Tester, want, got interface{}) {
	t.Helper()
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("not equal\nwant %T %v\n got %T %v", want, want, got, got)
	}
}

// Panics fails unless fn panics.
func Panics(t Tester, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatal("want panic")
		}
	}()
	fn()
}

// IsErr fails unless got is want or matches it through its Is method.
func IsErr(t Tester, want, got error) {
	t.Helper()
	if want == got {
		return
	}
	if w, ok := want.(interface{ Is(error) bool }); ok && w.Is(got) {
		return
	}
	t.Fatalf("want %q error, got %+v", want, got)
}

// FieldError fails unless err holds a field error of fieldName matching
// want. A nil want asserts that fieldName has no error at all.
func FieldError(t Tester, err error, fieldName string, want *errors.Error) {
	t.Helper()
	errs := errors.FieldErrors(err, fieldName)
	if want == nil {
		if len(errs) != 0 {
			logErrs(t, errs)
			t.Fatalf("want no %q field error, got %d", fieldName, len(errs))
		}
		return
	}
	for _, e := range errs {
		if want.Is(e) {
			return
		}
	}
	if len(errs) == 0 {
		t.Fatalf("no %q field error found", fieldName)
	}
	logErrs(t, errs)
	t.Fatalf("no %q field error matching %q", fieldName, want)
}

func logErrs(t Tester, errs []error) {
	for i, e := range errs {
		t.Logf("\terror %d: %q", i+1, e)
	}
}
