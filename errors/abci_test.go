package errors

import (
	"io"
	"strings"
	"testing"
)

func TestABCIInfo(t *testing.T) {
	cases := map[string]struct {
		err      error
		debug    bool
		wantCode uint32
		wantLog  string
	}{
		"success":                 {err: nil, wantCode: SuccessABCICode},
		"typed nil root":          {err: (*Error)(nil), wantCode: SuccessABCICode},
		"root error":              {err: ErrExpired, wantCode: 15, wantLog: "expired"},
		"wrapped root":            {err: Wrap(Wrap(ErrNotFound, "vault"), "withdraw"), wantCode: 3, wantLog: "withdraw: vault: not found"},
		"unregistered":            {err: io.ErrUnexpectedEOF, wantCode: 1, wantLog: "internal error"},
		"wrapped unregistered":    {err: Wrap(io.EOF, "read genesis"), wantCode: 1, wantLog: "internal error"},
		"unregistered in debug":   {err: io.EOF, debug: true, wantCode: 1, wantLog: "EOF"},
		"panic":                   {err: Wrapf(ErrPanic, "%v", "index out of range"), wantCode: 111222, wantLog: "panic"},
		"field error":             {err: Field("Amount", ErrAmount, "zero"), wantCode: 13, wantLog: `field "Amount": zero: invalid amount`},
		"first of a multi error":  {err: Append(ErrUnauthorized, ErrAmount), wantCode: 2},
		"wrapped multi error":     {err: Wrap(Append(ErrEmpty, ErrInput), "msg"), wantCode: 9},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			code, log := ABCIInfo(tc.err, tc.debug)
			if code != tc.wantCode {
				t.Errorf("want code %d, got %d", tc.wantCode, code)
			}
			if tc.wantLog != "" && log != tc.wantLog {
				t.Errorf("want log %q, got %q", tc.wantLog, log)
			}
			if tc.err == nil && log != "" {
				t.Errorf("want no log on success, got %q", log)
			}
		})
	}
}

func TestABCIInfoDebugShowsStack(t *testing.T) {
	_, log := ABCIInfo(Wrapf(ErrPanic, "%v", "index out of range"), true)
	if !strings.HasPrefix(log, "index out of range: panic") {
		t.Fatalf("panic message hidden in debug mode: %s", log)
	}
	if !strings.Contains(log, "abci_test.go") {
		t.Fatalf("no stack trace in debug mode: %s", log)
	}
}
