package crypto

import (
	"fmt"

	"github.com/iov-one/timevault"
	"golang.org/x/crypto/ed25519"
)

const (
	publicKeySize = ed25519.PublicKeySize
	conditionType = "ed25519"
)

// Verify reports whether sig is a signature of message by this key. Keys
// and signatures of the wrong length never verify.
func (p *PublicKey) Verify(message []byte, sig *Signature) bool {
	switch {
	case sig == nil, len(sig.Ed25519) != ed25519.SignatureSize:
		return false
	case len(p.Ed25519) != publicKeySize:
		return false
	}
	return ed25519.Verify(p.Ed25519, message, sig.Ed25519)
}

// Condition is the permission a valid signature by this key grants. Its
// address is the address of the key.
func (p *PublicKey) Condition() timevault.Condition {
	if p == nil || len(p.Ed25519) == 0 {
		return nil
	}
	return timevault.NewCondition(ExtensionName, conditionType, p.Ed25519)
}

func (p *PrivateKey) Sign(message []byte) (*Signature, error) {
	return &Signature{Ed25519: ed25519.Sign(p.Ed25519, message)}, nil
}

func (p *PrivateKey) PublicKey() *PublicKey {
	pub := ed25519.PrivateKey(p.Ed25519).Public().(ed25519.PublicKey)
	return &PublicKey{Ed25519: pub}
}

// GenPrivKeyEd25519 creates a key from the system randomness source.
func GenPrivKeyEd25519() *PrivateKey {
	_, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		panic(fmt.Sprintf("cannot generate ed25519 key: %s", err))
	}
	return &PrivateKey{Ed25519: priv}
}

// PrivKeyEd25519FromSeed derives a key from a 32 byte seed. The same seed
// always gives the same key, which makes it handy for fixtures. It panics
// on a seed of any other length.
func PrivKeyEd25519FromSeed(seed []byte) *PrivateKey {
	if len(seed) != ed25519.SeedSize {
		panic(fmt.Sprintf("ed25519 seed must be %d bytes, got %d", ed25519.SeedSize, len(seed)))
	}
	return &PrivateKey{Ed25519: ed25519.NewKeyFromSeed(seed)}
}
