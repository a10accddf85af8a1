package sigs

import (
	"crypto/sha512"
	"encoding/binary"

	"github.com/iov-one/timevault"
	"github.com/iov-one/timevault/crypto"
	"github.com/iov-one/timevault/errors"
)

// signPrefix versions the signed payload layout.
var signPrefix = []byte{0, 0xCA, 0xFE, 0}

// SignBytes returns the digest a signer must sign for given transaction
// bytes, chain and sequence. The digest is the sha512 hash of
//
//	prefix (4) | len(chainID) (1) | chainID | sequence (8, big endian) | payload
//
// A constant length digest keeps hardware signers usable.
func SignBytes(payload []byte, chainID string, seq int64) ([]byte, error) {
	if seq < 0 {
		return nil, errors.Wrap(ErrInvalidSequence, "negative")
	}
	if !timevault.IsValidChainID(chainID) {
		return nil, errors.Wrapf(errors.ErrInput, "chain id: %q", chainID)
	}
	buf := make([]byte, 0, len(signPrefix)+1+len(chainID)+8+len(payload))
	buf = append(buf, signPrefix...)
	buf = append(buf, byte(len(chainID)))
	buf = append(buf, chainID...)
	var nonce [8]byte
	binary.BigEndian.PutUint64(nonce[:], uint64(seq))
	buf = append(buf, nonce[:]...)
	buf = append(buf, payload...)
	digest := sha512.Sum512(buf)
	return digest[:], nil
}

// SignTx signs tx with the given sequence of the signer.
func SignTx(signer crypto.Signer, tx SignedTx, chainID string, seq int64) (*StdSignature, error) {
	payload, err := tx.GetSignBytes()
	if err != nil {
		return nil, err
	}
	digest, err := SignBytes(payload, chainID, seq)
	if err != nil {
		return nil, err
	}
	sig, err := signer.Sign(digest)
	if err != nil {
		return nil, errors.Wrap(err, "sign")
	}
	return &StdSignature{
		Sequence:  seq,
		Pubkey:    signer.PublicKey(),
		Signature: sig,
	}, nil
}

// Verify checks every signature of tx and returns the signer conditions in
// signature order. A transaction without signatures has no signers. The
// first invalid signature fails the whole transaction.
func Verify(db timevault.KVStore, tx SignedTx, chainID string) ([]timevault.Condition, error) {
	payload, err := tx.GetSignBytes()
	if err != nil {
		return nil, err
	}
	sigs := tx.GetSignatures()
	signers := make([]timevault.Condition, 0, len(sigs))
	for i, sig := range sigs {
		c, err := VerifySignature(db, sig, payload, chainID)
		if err != nil {
			return nil, errors.Wrapf(err, "signature %d", i)
		}
		signers = append(signers, c)
	}
	return signers, nil
}

// VerifySignature checks a single signature of payload and consumes its
// sequence. The signer account is created on its first signature.
func VerifySignature(db timevault.KVStore, sig *StdSignature, payload []byte, chainID string) (timevault.Condition, error) {
	if err := sig.Validate(); err != nil {
		return nil, err
	}
	digest, err := SignBytes(payload, chainID, sig.Sequence)
	if err != nil {
		return nil, err
	}
	if !sig.Pubkey.Verify(digest, sig.Signature) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "invalid signature")
	}

	b := NewBucket()
	user, err := b.GetOrCreate(db, sig.Pubkey)
	if err != nil {
		return nil, err
	}
	if err := user.CheckAndIncrementSequence(sig.Sequence); err != nil {
		return nil, err
	}
	if err := b.Put(db, sig.Pubkey.Address(), user); err != nil {
		return nil, err
	}
	return sig.Pubkey.Condition(), nil
}
