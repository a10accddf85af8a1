package sigs

import (
	"github.com/iov-one/timevault"
	"github.com/iov-one/timevault/crypto"
	"github.com/iov-one/timevault/errors"
)

// SignedTx represents a transaction that contains signatures,
// which can be verified by the sigs.Decorator
type SignedTx interface {
	// GetSignBytes returns the canonical byte representation of the Msg.
	//
	// Helpful to store original, unparsed bytes here, just in case.
	GetSignBytes() ([]byte, error)

	// Signatures returns the signature of signers who signed the Msg.
	GetSignatures() []*StdSignature
}

// StdSignature is a single signature of a transaction together with the
// signer public key and its sequence.
type StdSignature struct {
	Sequence  int64
	Pubkey    *crypto.PublicKey
	Signature *crypto.Signature
}

// Validate ensures the StdSignature meets basic standards
func (s *StdSignature) Validate() error {
	if s.Sequence < 0 {
		return errors.Wrap(ErrInvalidSequence, "negative")
	}
	if s.Pubkey == nil {
		return errors.Wrap(errors.ErrUnauthorized, "missing public key")
	}
	if s.Signature == nil {
		return errors.Wrap(errors.ErrUnauthorized, "missing signature")
	}
	return nil
}

func (s *StdSignature) Marshal() ([]byte, error) {
	e := timevault.NewProtoEncoder()
	e.Int64(1, s.Sequence)
	if s.Pubkey != nil {
		if err := e.Message(2, s.Pubkey); err != nil {
			return nil, err
		}
	}
	if s.Signature != nil {
		if err := e.Message(3, s.Signature); err != nil {
			return nil, err
		}
	}
	return e.Result(), nil
}

func (s *StdSignature) Unmarshal(raw []byte) error {
	*s = StdSignature{}
	return timevault.DecodeProto(raw, func(f timevault.ProtoField) error {
		var err error
		switch f.Num {
		case 1:
			s.Sequence, err = f.Int64()
		case 2:
			s.Pubkey = &crypto.PublicKey{}
			err = f.Message(s.Pubkey)
		case 3:
			s.Signature = &crypto.Signature{}
			err = f.Message(s.Signature)
		}
		return err
	})
}
