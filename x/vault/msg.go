package vault

import (
	"github.com/iov-one/timevault"
	"github.com/iov-one/timevault/coin"
	"github.com/iov-one/timevault/errors"
)

const (
	pathInitialize = "vault/initialize"
	pathDeposit    = "vault/deposit"
	pathWithdraw   = "vault/withdraw"
)

// InitializeMsg creates the vault of the signing owner.
type InitializeMsg struct {
	Metadata *timevault.Metadata
	Owner    timevault.Address
}

var _ timevault.Msg = (*InitializeMsg)(nil)

func (InitializeMsg) Path() string {
	return pathInitialize
}

func (m *InitializeMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Owner", m.Owner.Validate())
	return errs
}

func (m *InitializeMsg) Marshal() ([]byte, error) {
	e := timevault.NewProtoEncoder()
	if m.Metadata != nil {
		if err := e.Message(1, m.Metadata); err != nil {
			return nil, err
		}
	}
	e.Bytes(2, m.Owner)
	return e.Result(), nil
}

func (m *InitializeMsg) Unmarshal(raw []byte) error {
	*m = InitializeMsg{}
	return timevault.DecodeProto(raw, func(f timevault.ProtoField) error {
		var err error
		switch f.Num {
		case 1:
			m.Metadata = &timevault.Metadata{}
			err = f.Message(m.Metadata)
		case 2:
			m.Owner, err = f.Bytes()
		}
		return err
	})
}

// DepositMsg moves funds from the source account into the custody of the
// owner's vault. When not set, the source defaults to the owner.
type DepositMsg struct {
	Metadata *timevault.Metadata
	Owner    timevault.Address
	Source   timevault.Address
	Amount   coin.Coin
}

var _ timevault.Msg = (*DepositMsg)(nil)

func (DepositMsg) Path() string {
	return pathDeposit
}

func (m *DepositMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Owner", m.Owner.Validate())
	if m.Source != nil {
		errs = errors.AppendField(errs, "Source", m.Source.Validate())
	}
	if m.Amount.IsZero() {
		errs = errors.Append(errs, errors.Field("Amount", ErrInvalidAmount, "zero deposit"))
	} else {
		errs = errors.AppendField(errs, "Amount", m.Amount.Validate())
	}
	return errs
}

// SourceAddress returns the account the funds are taken from.
func (m *DepositMsg) SourceAddress() timevault.Address {
	if m.Source == nil {
		return m.Owner
	}
	return m.Source
}

func (m *DepositMsg) Marshal() ([]byte, error) {
	e := timevault.NewProtoEncoder()
	if m.Metadata != nil {
		if err := e.Message(1, m.Metadata); err != nil {
			return nil, err
		}
	}
	e.Bytes(2, m.Owner)
	e.Bytes(3, m.Source)
	if err := e.Message(4, &m.Amount); err != nil {
		return nil, err
	}
	return e.Result(), nil
}

func (m *DepositMsg) Unmarshal(raw []byte) error {
	*m = DepositMsg{}
	return timevault.DecodeProto(raw, func(f timevault.ProtoField) error {
		var err error
		switch f.Num {
		case 1:
			m.Metadata = &timevault.Metadata{}
			err = f.Message(m.Metadata)
		case 2:
			m.Owner, err = f.Bytes()
		case 3:
			m.Source, err = f.Bytes()
		case 4:
			err = f.Message(&m.Amount)
		}
		return err
	})
}

// WithdrawMsg drains the owner's vault.
type WithdrawMsg struct {
	Metadata *timevault.Metadata
	Owner    timevault.Address
}

var _ timevault.Msg = (*WithdrawMsg)(nil)

func (WithdrawMsg) Path() string {
	return pathWithdraw
}

func (m *WithdrawMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Owner", m.Owner.Validate())
	return errs
}

func (m *WithdrawMsg) Marshal() ([]byte, error) {
	e := timevault.NewProtoEncoder()
	if m.Metadata != nil {
		if err := e.Message(1, m.Metadata); err != nil {
			return nil, err
		}
	}
	e.Bytes(2, m.Owner)
	return e.Result(), nil
}

func (m *WithdrawMsg) Unmarshal(raw []byte) error {
	*m = WithdrawMsg{}
	return timevault.DecodeProto(raw, func(f timevault.ProtoField) error {
		var err error
		switch f.Num {
		case 1:
			m.Metadata = &timevault.Metadata{}
			err = f.Message(m.Metadata)
		case 2:
			m.Owner, err = f.Bytes()
		}
		return err
	})
}
