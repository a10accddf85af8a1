/*
Package crypto provides the ed25519 keys used to sign transactions and the
conditions that a valid signature grants.
*/
package crypto

import (
	"github.com/iov-one/timevault"
	"github.com/iov-one/timevault/errors"
)

// ExtensionName is used for the Conditions we get from signatures
const ExtensionName = "sigs"

// PubKey represents a crypto public key we use
type PubKey interface {
	Verify(message []byte, sig *Signature) bool
	Condition() timevault.Condition
}

// Signer is the functionality we use from a private key
// No serializing to support hardware devices as well.
type Signer interface {
	Sign(message []byte) (*Signature, error)
	PublicKey() *PublicKey
}

// PublicKey is a serializable public key.
type PublicKey struct {
	Ed25519 []byte
}

var _ PubKey = (*PublicKey)(nil)

// Address returns the address owned by this key, or nil for an empty key.
func (p *PublicKey) Address() timevault.Address {
	c := p.Condition()
	if c == nil {
		return nil
	}
	return c.Address()
}

func (p *PublicKey) Marshal() ([]byte, error) {
	e := timevault.NewProtoEncoder()
	e.Bytes(1, p.Ed25519)
	return e.Result(), nil
}

func (p *PublicKey) Unmarshal(raw []byte) error {
	*p = PublicKey{}
	return timevault.DecodeProto(raw, func(f timevault.ProtoField) error {
		var err error
		if f.Num == 1 {
			p.Ed25519, err = f.Bytes()
		}
		return err
	})
}

// Validate returns an error if the key is not a valid ed25519 public key.
func (p *PublicKey) Validate() error {
	if p == nil || len(p.Ed25519) != publicKeySize {
		return errors.Wrap(errors.ErrInput, "invalid ed25519 public key")
	}
	return nil
}

// PrivateKey is a serializable private key.
type PrivateKey struct {
	Ed25519 []byte
}

var _ Signer = (*PrivateKey)(nil)

func (p *PrivateKey) Marshal() ([]byte, error) {
	e := timevault.NewProtoEncoder()
	e.Bytes(1, p.Ed25519)
	return e.Result(), nil
}

func (p *PrivateKey) Unmarshal(raw []byte) error {
	*p = PrivateKey{}
	return timevault.DecodeProto(raw, func(f timevault.ProtoField) error {
		var err error
		if f.Num == 1 {
			p.Ed25519, err = f.Bytes()
		}
		return err
	})
}

// Signature is a serializable signature.
type Signature struct {
	Ed25519 []byte
}

func (s *Signature) Marshal() ([]byte, error) {
	e := timevault.NewProtoEncoder()
	e.Bytes(1, s.Ed25519)
	return e.Result(), nil
}

func (s *Signature) Unmarshal(raw []byte) error {
	*s = Signature{}
	return timevault.DecodeProto(raw, func(f timevault.ProtoField) error {
		var err error
		if f.Num == 1 {
			s.Ed25519, err = f.Bytes()
		}
		return err
	})
}
