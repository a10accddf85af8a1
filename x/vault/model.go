package vault

import (
	"encoding/binary"

	"github.com/iov-one/timevault"
	"github.com/iov-one/timevault/errors"
	"github.com/iov-one/timevault/orm"
)

// BucketName is where the vaults are stored.
const BucketName = "vaults"

// Vault is the per owner record tracking the custody balance and the lock
// expiry.
type Vault struct {
	Metadata *timevault.Metadata
	// Owner is the only address allowed to deposit to and withdraw from
	// this vault.
	Owner timevault.Address
	// Seed is combined with the owner to derive the custody account.
	Seed []byte
	// Balance is the amount held in custody, in the smallest unit of the
	// configured ticker.
	Balance    uint64
	UnlockTime timevault.UnixTime
	CreatedAt  timevault.UnixTime
}

var _ orm.Model = (*Vault)(nil)

// Validate ensures the vault is sensible.
func (v *Vault) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", v.Metadata.Validate())
	errs = errors.AppendField(errs, "Owner", v.Owner.Validate())
	if len(v.Seed) == 0 {
		errs = errors.Append(errs, errors.Field("Seed", errors.ErrEmpty, "required"))
	}
	errs = errors.AppendField(errs, "CreatedAt", v.CreatedAt.Validate())
	errs = errors.AppendField(errs, "UnlockTime", v.UnlockTime.Validate())
	if v.UnlockTime < v.CreatedAt {
		errs = errors.Append(errs, errors.Field("UnlockTime", errors.ErrState, "before creation"))
	}
	return errs
}

// Custody returns the condition authorizing transfers from the custody
// account.
func (v *Vault) Custody() timevault.Condition {
	return CustodyCondition(v.Owner, v.Seed)
}

func (v *Vault) Marshal() ([]byte, error) {
	e := timevault.NewProtoEncoder()
	if v.Metadata != nil {
		if err := e.Message(1, v.Metadata); err != nil {
			return nil, err
		}
	}
	e.Bytes(2, v.Owner)
	e.Bytes(3, v.Seed)
	e.Uint64(4, v.Balance)
	e.Int64(5, int64(v.UnlockTime))
	e.Int64(6, int64(v.CreatedAt))
	return e.Result(), nil
}

func (v *Vault) Unmarshal(raw []byte) error {
	*v = Vault{}
	return timevault.DecodeProto(raw, func(f timevault.ProtoField) error {
		var err error
		switch f.Num {
		case 1:
			v.Metadata = &timevault.Metadata{}
			err = f.Message(v.Metadata)
		case 2:
			v.Owner, err = f.Bytes()
		case 3:
			v.Seed, err = f.Bytes()
		case 4:
			v.Balance, err = f.Uint64()
		case 5:
			var n int64
			n, err = f.Int64()
			v.UnlockTime = timevault.UnixTime(n)
		case 6:
			var n int64
			n, err = f.Int64()
			v.CreatedAt = timevault.UnixTime(n)
		}
		return err
	})
}

// UnlockIndexKey returns the index value of vaults unlocking at given time.
// Big endian encoding keeps the index ordered by time.
func UnlockIndexKey(t timevault.UnixTime) []byte {
	raw := make([]byte, 8)
	binary.BigEndian.PutUint64(raw, uint64(t))
	return raw
}

func unlockIndexer(m orm.Model) ([]byte, error) {
	v, ok := m.(*Vault)
	if !ok {
		return nil, errors.Wrapf(errors.ErrType, "%T", m)
	}
	return UnlockIndexKey(v.UnlockTime), nil
}

// NewBucket returns a bucket storing vaults under the owner address, with
// the "unlock" index listing vaults by their unlock time.
func NewBucket() orm.ModelBucket {
	return orm.NewModelBucket(BucketName, &Vault{},
		orm.WithIndex("unlock", unlockIndexer, false))
}

// RegisterQuery will register the vaults bucket as "/vaults" and its
// index as "/vaults/unlock".
func RegisterQuery(qr timevault.QueryRouter) {
	NewBucket().Register(BucketName, qr)
}
