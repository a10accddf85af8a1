package app

import (
	"github.com/iov-one/timevault"
	"github.com/iov-one/timevault/errors"
	"github.com/iov-one/timevault/x/cash"
	"github.com/iov-one/timevault/x/sigs"
	"github.com/iov-one/timevault/x/vault"
)

// Field numbers of the Tx envelope. A transaction carries exactly one
// message, encoded under the field number of its type.
const (
	fieldSignatures = 1

	fieldCashSend        = 51
	fieldVaultInitialize = 60
	fieldVaultDeposit    = 61
	fieldVaultWithdraw   = 62
)

// Tx is the transaction envelope accepted by vaultd.
type Tx struct {
	Msg        timevault.Msg
	Signatures []*sigs.StdSignature
}

// make sure tx fulfills all interfaces
var _ timevault.Tx = (*Tx)(nil)
var _ sigs.SignedTx = (*Tx)(nil)

// TxDecoder creates a Tx and unmarshals bytes into it
func TxDecoder(bz []byte) (timevault.Tx, error) {
	tx := new(Tx)
	if err := tx.Unmarshal(bz); err != nil {
		return nil, err
	}
	return tx, nil
}

// GetMsg returns the single message of the transaction.
func (tx *Tx) GetMsg() (timevault.Msg, error) {
	if tx.Msg == nil {
		return nil, errors.Wrap(errors.ErrInput, "unable to decode")
	}
	return tx.Msg, nil
}

func (tx *Tx) GetSignatures() []*sigs.StdSignature {
	return tx.Signatures
}

// GetSignBytes returns the bytes to sign. Signatures are not part of the
// signed data.
func (tx *Tx) GetSignBytes() ([]byte, error) {
	unsigned := Tx{Msg: tx.Msg}
	return unsigned.Marshal()
}

func msgField(msg timevault.Msg) (int, error) {
	switch msg.(type) {
	case *cash.SendMsg:
		return fieldCashSend, nil
	case *vault.InitializeMsg:
		return fieldVaultInitialize, nil
	case *vault.DepositMsg:
		return fieldVaultDeposit, nil
	case *vault.WithdrawMsg:
		return fieldVaultWithdraw, nil
	}
	return 0, errors.Wrapf(errors.ErrType, "unsupported message %T", msg)
}

func (tx *Tx) Marshal() ([]byte, error) {
	e := timevault.NewProtoEncoder()
	for i, sig := range tx.Signatures {
		if sig == nil {
			return nil, errors.Wrapf(errors.ErrInput, "signature %d is nil", i)
		}
		if err := e.Message(fieldSignatures, sig); err != nil {
			return nil, errors.Wrapf(err, "signature %d", i)
		}
	}
	if tx.Msg != nil {
		field, err := msgField(tx.Msg)
		if err != nil {
			return nil, err
		}
		if err := e.Message(field, tx.Msg); err != nil {
			return nil, err
		}
	}
	return e.Result(), nil
}

func (tx *Tx) Unmarshal(raw []byte) error {
	*tx = Tx{}
	return timevault.DecodeProto(raw, func(f timevault.ProtoField) error {
		var msg timevault.Msg
		switch f.Num {
		case fieldSignatures:
			var sig sigs.StdSignature
			if err := f.Message(&sig); err != nil {
				return err
			}
			tx.Signatures = append(tx.Signatures, &sig)
			return nil
		case fieldCashSend:
			msg = &cash.SendMsg{}
		case fieldVaultInitialize:
			msg = &vault.InitializeMsg{}
		case fieldVaultDeposit:
			msg = &vault.DepositMsg{}
		case fieldVaultWithdraw:
			msg = &vault.WithdrawMsg{}
		default:
			return errors.Wrapf(errors.ErrInput, "unknown field %d", f.Num)
		}
		if tx.Msg != nil {
			return errors.Wrap(errors.ErrInput, "more than one message")
		}
		if err := f.Message(msg); err != nil {
			return err
		}
		tx.Msg = msg
		return nil
	})
}
