package sigs

import (
	"github.com/iov-one/timevault"
	"github.com/iov-one/timevault/crypto"
	"github.com/iov-one/timevault/errors"
	"github.com/iov-one/timevault/orm"
)

const (
	// BucketName holds one UserData per signing key.
	BucketName = "sigs"

	// maxSequenceValue is the largest integer a JSON number keeps exactly.
	maxSequenceValue = 1<<53 - 1
)

// UserData is the signature state of a single public key.
type UserData struct {
	Metadata *timevault.Metadata
	Pubkey   *crypto.PublicKey
	Sequence int64
}

var _ orm.Model = (*UserData)(nil)

func (u *UserData) Validate() error {
	errs := errors.AppendField(nil, "Metadata", u.Metadata.Validate())
	switch {
	case u.Sequence < 0:
		errs = errors.Append(errs, errors.Field("Sequence", ErrInvalidSequence, "negative"))
	case u.Sequence > 0 && u.Pubkey == nil:
		errs = errors.Append(errs, errors.Field("Sequence", ErrInvalidSequence, "used without a public key"))
	}
	return errs
}

// CheckAndIncrementSequence consumes the nonce seq. It must be the current
// sequence of the key, so that a signed transaction is accepted once.
func (u *UserData) CheckAndIncrementSequence(seq int64) error {
	switch {
	case u.Sequence != seq:
		return errors.Wrapf(ErrInvalidSequence, "mismatch expected %d, got %d", seq, u.Sequence)
	case u.Sequence >= maxSequenceValue:
		return errors.Wrap(errors.ErrOverflow, "sequence out of range")
	}
	u.Sequence++
	return nil
}

func (u *UserData) Marshal() ([]byte, error) {
	e := timevault.NewProtoEncoder()
	if u.Metadata != nil {
		if err := e.Message(1, u.Metadata); err != nil {
			return nil, err
		}
	}
	if u.Pubkey != nil {
		if err := e.Message(2, u.Pubkey); err != nil {
			return nil, err
		}
	}
	e.Int64(3, u.Sequence)
	return e.Result(), nil
}

func (u *UserData) Unmarshal(raw []byte) error {
	*u = UserData{}
	return timevault.DecodeProto(raw, func(f timevault.ProtoField) error {
		var err error
		switch f.Num {
		case 1:
			u.Metadata = &timevault.Metadata{}
			err = f.Message(u.Metadata)
		case 2:
			u.Pubkey = &crypto.PublicKey{}
			err = f.Message(u.Pubkey)
		case 3:
			u.Sequence, err = f.Int64()
		}
		return err
	})
}

// Bucket stores UserData under the address of the public key.
type Bucket struct {
	orm.ModelBucket
}

func NewBucket() Bucket {
	return Bucket{orm.NewModelBucket(BucketName, &UserData{})}
}

// GetOrCreate loads the user of given public key. A new user with a zero
// sequence is returned if none exist for that key.
func (b Bucket) GetOrCreate(db timevault.ReadOnlyKVStore, pubkey *crypto.PublicKey) (*UserData, error) {
	var user UserData
	switch err := b.One(db, pubkey.Address(), &user); {
	case err == nil:
		return &user, nil
	case errors.ErrNotFound.Is(err):
		return &UserData{
			Metadata: &timevault.Metadata{Schema: 1},
			Pubkey:   pubkey,
		}, nil
	default:
		return nil, err
	}
}

// NextNonce is the sequence the next transaction signed by signer must
// carry. Unknown signers start at zero.
func NextNonce(db timevault.ReadOnlyKVStore, signer timevault.Address) (int64, error) {
	var user UserData
	switch err := NewBucket().One(db, signer, &user); {
	case err == nil:
		return user.Sequence, nil
	case errors.ErrNotFound.Is(err):
		return 0, nil
	default:
		return 0, errors.Wrap(err, "bucket get")
	}
}
