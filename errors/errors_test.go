package errors

import (
	stdlib "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/pkg/errors"
)

func TestCause(t *testing.T) {
	std := stdlib.New("disk full")

	cases := map[string]struct {
		err  error
		want error
	}{
		"root error":                 {err: ErrNotFound, want: ErrNotFound},
		"wrapped root error":         {err: Wrap(ErrNotFound, "vault"), want: ErrNotFound},
		"wrapped twice":              {err: Wrapf(Wrap(ErrAmount, "deposit"), "tx %d", 3), want: ErrAmount},
		"wrapped stdlib error":       {err: Wrap(std, "cannot write"), want: std},
		"pkg/errors wrap of a root":  {err: errors.Wrap(ErrState, "state"), want: ErrState},
		"error without cause method": {err: std, want: std},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if got := Cause(tc.err); got != tc.want {
				t.Fatalf("want %v, got %v", tc.want, got)
			}
			if got := errors.Cause(tc.err); got != tc.want {
				t.Fatalf("pkg/errors: want %v, got %v", tc.want, got)
			}
		})
	}
}

type nilableError struct{}

func (*nilableError) Error() string { return "nilable" }

func TestIs(t *testing.T) {
	cases := map[string]struct {
		root *Error
		err  error
		want bool
	}{
		"same root":               {root: ErrNotFound, err: ErrNotFound, want: true},
		"other root":              {root: ErrNotFound, err: ErrModel, want: false},
		"wrapped":                 {root: ErrNotFound, err: Wrap(ErrNotFound, "vault"), want: true},
		"wrapped by pkg/errors":   {root: ErrNotFound, err: errors.Wrap(ErrNotFound, "vault"), want: true},
		"wrapped other root":      {root: ErrNotFound, err: Wrap(ErrOverflow, "balance"), want: false},
		"stdlib error":            {root: ErrNotFound, err: fmt.Errorf("not found"), want: false},
		"nil root and nil":        {root: nil, err: nil, want: true},
		"nil root and typed nil":  {root: nil, err: (*nilableError)(nil), want: true},
		"nil root and root":       {root: nil, err: ErrNotFound, want: false},
		"root and nil":            {root: ErrNotFound, err: nil, want: false},
		"multi error with root":   {root: ErrNotFound, err: Append(ErrState, Wrap(ErrNotFound, "owner")), want: true},
		"multi error wrapped":     {root: ErrInput, err: Wrap(Append(ErrState, ErrInput), "msg"), want: true},
		"multi error without one": {root: ErrNotFound, err: Append(ErrState, ErrInput), want: false},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if got := tc.root.Is(tc.err); got != tc.want {
				t.Fatalf("want %v, got %v", tc.want, got)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	if err := Wrap(nil, "nothing"); err != nil {
		t.Fatalf("wrapping nil gave %v", err)
	}
	err := Wrapf(ErrAmount, "deposit of %d", 0)
	if got := err.Error(); got != "deposit of 0: invalid amount" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestRegister(t *testing.T) {
	if ErrNotFound.ABCICode() != 3 || ErrNotFound.Error() != "not found" {
		t.Fatalf("unexpected error %d %q", ErrNotFound.ABCICode(), ErrNotFound.Error())
	}
	if codes[3] != ErrNotFound {
		t.Fatal("root error not registered")
	}

	defer func() {
		if recover() == nil {
			t.Fatal("code registered twice")
		}
	}()
	Register(ErrNotFound.ABCICode(), "again")
}

func TestRecover(t *testing.T) {
	fn := func() (err error) {
		defer Recover(&err)
		panic("boom")
	}
	err := fn()
	if !ErrPanic.Is(err) {
		t.Fatalf("want a panic error, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "boom") {
		t.Fatalf("panic value lost: %v", err)
	}
}

func TestAppend(t *testing.T) {
	if err := Append(nil, nil); err != nil {
		t.Fatalf("want nil, got %v", err)
	}
	if err := Append(nil, ErrEmpty); err != ErrEmpty {
		t.Fatalf("want a single error unchanged, got %v", err)
	}
	err := Append(ErrEmpty, Append(ErrInput, ErrState))
	if got := len(err.(unpacker).Unpack()); got != 3 {
		t.Fatalf("want a flat list of 3 errors, got %d", got)
	}
	if code := abciCode(err); code != ErrEmpty.ABCICode() {
		t.Fatalf("want the first error code, got %d", code)
	}
}

func TestFormatStackTrace(t *testing.T) {
	err := Wrap(Wrap(fmt.Errorf("indirect"), "inner"), "outer")
	if stackTrace(err) == nil {
		t.Fatal("stack trace expected")
	}

	full := fmt.Sprintf("%+v", err)
	if !strings.HasPrefix(full, "outer: inner: indirect") {
		t.Fatalf("unexpected message: %s", full)
	}
	if !strings.Contains(full, "errors_test.go") {
		t.Fatalf("stack trace does not point to the creation place: %s", full)
	}

	short := fmt.Sprintf("%v", err)
	if !strings.HasPrefix(short, "outer: inner: indirect [") {
		t.Fatalf("unexpected short form: %s", short)
	}
	if got := fmt.Sprintf("%s", err); got != "outer: inner: indirect" {
		t.Fatalf("unexpected plain form: %s", got)
	}
}
