package utils

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/iov-one/timevault"
	"github.com/iov-one/timevault/errors"
	"github.com/iov-one/timevault/store"
	"github.com/iov-one/timevault/vaulttest"
	"github.com/iov-one/timevault/vaulttest/assert"
	"github.com/tendermint/tendermint/libs/common"
	"github.com/tendermint/tendermint/libs/log"
)

func TestRecovery(t *testing.T) {
	h := vaulttest.PanicHandler{Value: "boom"}
	r := NewRecovery()

	ctx := context.Background()
	db := store.MemStore()

	// Panic handler panics. Test the test tool.
	assert.Panics(t, func() { _, _ = h.Check(ctx, db, nil) })
	assert.Panics(t, func() { _, _ = h.Deliver(ctx, db, nil) })

	// Recovery wrapped handler returns an error.
	_, err := r.Check(ctx, db, nil, h)
	assert.IsErr(t, errors.ErrPanic, err)

	_, err = r.Deliver(ctx, db, nil, h)
	assert.IsErr(t, errors.ErrPanic, err)
}

func TestSavepoint(t *testing.T) {
	// always write ok, ov before calling functions
	ok, ov := []byte("demo"), []byte("data")
	// some key, value to try to write
	nk, nv := []byte{1, 2, 3}, []byte{4, 5, 6}

	cases := map[string]struct {
		save    Savepoint
		fail    bool
		check   bool
		written [][]byte
		missing [][]byte
	}{
		"disabled savepoint keeps writes of a failed check": {
			save:    NewSavepoint(),
			fail:    true,
			check:   true,
			written: [][]byte{ok, nk},
		},
		"check savepoint discards writes of a failed check": {
			save:    NewSavepoint().OnCheck(),
			fail:    true,
			check:   true,
			written: [][]byte{ok},
			missing: [][]byte{nk},
		},
		"deliver savepoint discards writes of a failed deliver": {
			save:    NewSavepoint().OnDeliver(),
			fail:    true,
			written: [][]byte{ok},
			missing: [][]byte{nk},
		},
		"deliver savepoint ignores check": {
			save:    NewSavepoint().OnDeliver(),
			fail:    true,
			check:   true,
			written: [][]byte{ok, nk},
		},
		"double activation applies to deliver": {
			save:    NewSavepoint().OnCheck().OnDeliver(),
			fail:    true,
			written: [][]byte{ok},
			missing: [][]byte{nk},
		},
		"successful deliver is written": {
			save:    NewSavepoint().OnDeliver(),
			written: [][]byte{ok, nk},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := store.MemStore()
			assert.Nil(t, db.Set(ok, ov))

			h := &vaulttest.Handler{Write: &vaulttest.KeyValue{Key: nk, Value: nv}}
			if tc.fail {
				h.CheckErr = errors.ErrHuman
				h.DeliverErr = errors.ErrHuman
			}
			stack := vaulttest.Decorate(h, tc.save)
			ctx := context.Background()

			var err error
			if tc.check {
				_, err = stack.Check(ctx, db, &vaulttest.Tx{})
			} else {
				_, err = stack.Deliver(ctx, db, &vaulttest.Tx{})
			}
			if tc.fail {
				assert.IsErr(t, errors.ErrHuman, err)
			} else {
				assert.Nil(t, err)
			}

			for _, k := range tc.written {
				has, err := db.Has(k)
				assert.Nil(t, err)
				if !has {
					t.Errorf("key %X not written", k)
				}
			}
			for _, k := range tc.missing {
				has, err := db.Has(k)
				assert.Nil(t, err)
				if has {
					t.Errorf("key %X written", k)
				}
			}
		})
	}
}

func stringTag(key, value string) common.KVPair {
	return common.KVPair{
		Key:   []byte(key),
		Value: []byte(value),
	}
}

func TestActionTagger(t *testing.T) {
	cases := map[string]struct {
		handler *vaulttest.Handler
		path    string
		err     *errors.Error
		tags    []common.KVPair
	}{
		"simple call": {
			handler: &vaulttest.Handler{},
			tags: []common.KVPair{
				stringTag(ActionKey, "vault/withdraw"),
				stringTag(ModuleKey, "vault"),
			},
		},
		"passes through error": {
			handler: &vaulttest.Handler{DeliverErr: errors.ErrHuman},
			err:     errors.ErrHuman,
		},
		"module of a path without separator": {
			handler: &vaulttest.Handler{},
			path:    "noop",
			tags: []common.KVPair{
				stringTag(ActionKey, "noop"),
				stringTag(ModuleKey, "noop"),
			},
		},
		"tags are additive": {
			handler: &vaulttest.Handler{
				DeliverResult: timevault.DeliverResult{Tags: []common.KVPair{stringTag(ActionKey, "random")}},
			},
			tags: []common.KVPair{
				stringTag(ActionKey, "random"),
				stringTag(ActionKey, "vault/withdraw"),
				stringTag(ModuleKey, "vault"),
			},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			stack := vaulttest.Decorate(tc.handler, NewActionTagger())
			path := tc.path
			if path == "" {
				path = "vault/withdraw"
			}
			tx := &vaulttest.Tx{Msg: &vaulttest.Msg{RoutePath: path}}

			res, err := stack.Deliver(context.Background(), store.MemStore(), tx)
			if !tc.err.Is(err) {
				t.Fatalf("want %q error, got %+v", tc.err, err)
			}
			if tc.err == nil {
				assert.Equal(t, tc.tags, res.Tags)
			}
		})
	}
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	ctx := timevault.WithLogger(context.Background(), log.NewTMLogger(log.NewSyncWriter(&buf)))
	db := store.MemStore()
	tx := &vaulttest.Tx{Msg: &vaulttest.Msg{RoutePath: "vault/deposit"}}

	ok := vaulttest.Decorate(&vaulttest.Handler{DeliverResult: timevault.DeliverResult{Log: "deposited"}}, NewLogging())
	_, err := ok.Deliver(ctx, db, tx)
	assert.Nil(t, err)

	failing := vaulttest.Decorate(&vaulttest.Handler{DeliverErr: errors.ErrUnauthorized}, NewLogging())
	_, err = failing.Deliver(ctx, db, tx)
	assert.IsErr(t, errors.ErrUnauthorized, err)

	invalid := vaulttest.Decorate(&vaulttest.Handler{
		DeliverErr: errors.Field("Amount", errors.ErrAmount, "zero deposit"),
	}, NewLogging())
	_, err = invalid.Deliver(ctx, db, tx)
	assert.IsErr(t, errors.ErrAmount, err)

	out := buf.String()
	for _, want := range []string{"deposited", "path=vault/deposit", "unauthorized", "duration=", "fields=[Amount]"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output is missing %q:\n%s", want, out)
		}
	}
}
