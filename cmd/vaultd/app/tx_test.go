package app

import (
	"testing"

	"github.com/iov-one/timevault"
	"github.com/iov-one/timevault/coin"
	"github.com/iov-one/timevault/crypto"
	"github.com/iov-one/timevault/errors"
	"github.com/iov-one/timevault/vaulttest"
	"github.com/iov-one/timevault/x/cash"
	"github.com/iov-one/timevault/x/sigs"
	"github.com/iov-one/timevault/x/vault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTxEncoding(t *testing.T) {
	owner := vaulttest.NewCondition().Address()
	meta := &timevault.Metadata{Schema: 1}

	cases := map[string]timevault.Msg{
		"send": &cash.SendMsg{
			Metadata:    meta,
			Source:      owner,
			Destination: vaulttest.NewCondition().Address(),
			Amount:      coin.NewCoin(7, "IOV"),
			Memo:        "rent",
		},
		"initialize": &vault.InitializeMsg{Metadata: meta, Owner: owner},
		"deposit":    &vault.DepositMsg{Metadata: meta, Owner: owner, Amount: coin.NewCoin(10, "IOV")},
		"withdraw":   &vault.WithdrawMsg{Metadata: meta, Owner: owner},
	}

	key := crypto.PrivKeyEd25519FromSeed(make([]byte, 32))
	for testName, msg := range cases {
		t.Run(testName, func(t *testing.T) {
			tx := &Tx{Msg: msg}
			sig, err := sigs.SignTx(key, tx, chainID, 3)
			require.NoError(t, err)
			tx.Signatures = []*sigs.StdSignature{sig}

			raw, err := tx.Marshal()
			require.NoError(t, err)
			decoded, err := TxDecoder(raw)
			require.NoError(t, err)

			got, err := decoded.GetMsg()
			require.NoError(t, err)
			assert.Equal(t, msg, got)

			signed := decoded.(*Tx)
			require.Len(t, signed.Signatures, 1)
			assert.Equal(t, int64(3), signed.Signatures[0].Sequence)

			// Signatures are not part of the signed bytes.
			want, err := (&Tx{Msg: msg}).Marshal()
			require.NoError(t, err)
			signBytes, err := signed.GetSignBytes()
			require.NoError(t, err)
			assert.Equal(t, want, signBytes)
			assert.Len(t, signed.Signatures, 1)
		})
	}
}

func TestTxWithoutMessage(t *testing.T) {
	tx, err := TxDecoder(nil)
	require.NoError(t, err)
	_, err = tx.GetMsg()
	assert.True(t, errors.ErrInput.Is(err))
}

func TestTxDecodingErrors(t *testing.T) {
	initialize, err := (&Tx{Msg: &vault.InitializeMsg{Owner: vaulttest.NewCondition().Address()}}).Marshal()
	require.NoError(t, err)

	cases := map[string][]byte{
		"unknown field":  {0x12, 0x00},
		"two messages":   append(append([]byte{}, initialize...), initialize...),
		"truncated data": initialize[:len(initialize)-1],
	}
	for testName, raw := range cases {
		t.Run(testName, func(t *testing.T) {
			_, err := TxDecoder(raw)
			assert.True(t, errors.ErrInput.Is(err), "unexpected error: %+v", err)
		})
	}
}

func TestTxUnsupportedMessage(t *testing.T) {
	tx := &Tx{Msg: &vaulttest.Msg{RoutePath: "foo/bar"}}
	_, err := tx.Marshal()
	assert.True(t, errors.ErrType.Is(err))
}
