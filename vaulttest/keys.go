package vaulttest

import (
	"github.com/iov-one/timevault"
	"github.com/iov-one/timevault/crypto"
)

// NewKey returns a new random ed25519 signer.
func NewKey() crypto.Signer {
	return crypto.GenPrivKeyEd25519()
}

// NewCondition returns the condition of a new random key.
func NewCondition() timevault.Condition {
	return NewKey().PublicKey().Condition()
}
