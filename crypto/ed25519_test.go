package crypto

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/iov-one/timevault/vaulttest/assert"
)

func TestSignAndVerify(t *testing.T) {
	key := GenPrivKeyEd25519()
	pub := key.PublicKey()

	deposit := []byte("deposit 10 IOV")
	withdraw := []byte("withdraw all")

	depositSig, err := key.Sign(deposit)
	assert.Nil(t, err)
	withdrawSig, err := key.Sign(withdraw)
	assert.Nil(t, err)

	cases := map[string]struct {
		msg  []byte
		sig  *Signature
		want bool
	}{
		"deposit":             {msg: deposit, sig: depositSig, want: true},
		"withdraw":            {msg: withdraw, sig: withdrawSig, want: true},
		"swapped signature":   {msg: deposit, sig: withdrawSig, want: false},
		"empty signature":     {msg: withdraw, sig: &Signature{}, want: false},
		"missing signature":   {msg: withdraw, sig: nil, want: false},
		"truncated signature": {msg: deposit, sig: &Signature{Ed25519: depositSig.Ed25519[:40]}, want: false},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, pub.Verify(tc.msg, tc.sig))
		})
	}

	other := GenPrivKeyEd25519().PublicKey()
	assert.Equal(t, false, other.Verify(deposit, depositSig))
}

func TestSignatureSerialization(t *testing.T) {
	key := PrivKeyEd25519FromSeed(bytes.Repeat([]byte{7}, 32))
	a, err := key.Sign([]byte("a"))
	assert.Nil(t, err)
	b, err := key.Sign([]byte("b"))
	assert.Nil(t, err)

	rawA, err := a.Marshal()
	assert.Nil(t, err)
	rawB, err := b.Marshal()
	assert.Nil(t, err)
	if bytes.Equal(rawA, rawB) {
		t.Fatal("two different signatures serialize the same")
	}

	var read Signature
	assert.Nil(t, read.Unmarshal(rawA))
	assert.Equal(t, true, key.PublicKey().Verify([]byte("a"), &read))
}

func TestPublicKeyCondition(t *testing.T) {
	alice := GenPrivKeyEd25519().PublicKey()
	bob := GenPrivKeyEd25519().PublicKey()

	assert.Nil(t, alice.Condition().Validate())
	if alice.Condition().Equals(bob.Condition()) {
		t.Fatal("two keys share a condition")
	}
	assert.Equal(t, alice.Condition().Address(), alice.Address())

	var empty PublicKey
	assert.Nil(t, empty.Condition())
	assert.Nil(t, empty.Address())

	raw, err := alice.Marshal()
	assert.Nil(t, err)
	var read PublicKey
	assert.Nil(t, read.Unmarshal(raw))
	assert.Equal(t, alice.Address(), read.Address())
}

func TestPublicKeyValidate(t *testing.T) {
	pub := GenPrivKeyEd25519().PublicKey()
	assert.Nil(t, pub.Validate())

	var missing *PublicKey
	if missing.Validate() == nil {
		t.Fatal("nil key accepted")
	}
	short := &PublicKey{Ed25519: pub.Ed25519[:10]}
	if short.Validate() == nil {
		t.Fatal("short key accepted")
	}
	if short.Verify([]byte("msg"), &Signature{Ed25519: make([]byte, 64)}) {
		t.Fatal("short key verified a signature")
	}
}

func TestPrivateKeySerialization(t *testing.T) {
	priv := PrivKeyEd25519FromSeed(make([]byte, 32))
	raw, err := priv.Marshal()
	assert.Nil(t, err)

	var read PrivateKey
	assert.Nil(t, read.Unmarshal(raw))
	assert.Equal(t, priv.Ed25519, read.Ed25519)

	msg := []byte("withdraw")
	sig, err := read.Sign(msg)
	assert.Nil(t, err)
	assert.Equal(t, true, priv.PublicKey().Verify(msg, sig))
}

func TestPrivKeyEd25519FromSeed(t *testing.T) {
	// Known public keys of fixed seeds.
	cases := map[string]struct {
		seed []byte
		pub  string
	}{
		"zero seed": {
			seed: make([]byte, 32),
			pub:  "3b6a27bcceb6a42d62a3a8d02a6f0d73653215771de243a63ac048a18b59da29",
		},
		"repeated 0x1f": {
			seed: bytes.Repeat([]byte{31}, 32),
			pub:  "43046bfe4092b3e94994eada15dcc20d8aaa07b658fd3954eb8e0efb8bdca5de",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			priv := PrivKeyEd25519FromSeed(tc.seed)
			assert.Equal(t, tc.seed, priv.Ed25519[:32])
			assert.Equal(t, tc.pub, hex.EncodeToString(priv.PublicKey().Ed25519))
		})
	}

	for _, size := range []int{0, 1, 31, 33} {
		seed := make([]byte, size)
		assert.Panics(t, func() { PrivKeyEd25519FromSeed(seed) })
	}
}
