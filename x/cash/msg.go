package cash

import (
	"github.com/iov-one/timevault"
	"github.com/iov-one/timevault/coin"
	"github.com/iov-one/timevault/errors"
)

const (
	sendTxCost int64 = 100

	maxMemoSize int = 128
)

// SendMsg moves coins from the source to the destination wallet.
type SendMsg struct {
	Metadata    *timevault.Metadata
	Source      timevault.Address
	Destination timevault.Address
	Amount      coin.Coin
	Memo        string
}

// Ensure we implement the Msg interface
var _ timevault.Msg = (*SendMsg)(nil)

// Path returns the routing path for this message
func (SendMsg) Path() string {
	return "cash/send"
}

// Validate makes sure that this is sensible
func (m *SendMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	if !m.Amount.IsPositive() {
		errs = errors.Append(errs, errors.Field("Amount", errors.ErrAmount, "non-positive"))
	} else {
		errs = errors.AppendField(errs, "Amount", m.Amount.Validate())
	}
	errs = errors.AppendField(errs, "Source", m.Source.Validate())
	errs = errors.AppendField(errs, "Destination", m.Destination.Validate())
	if len(m.Memo) > maxMemoSize {
		errs = errors.Append(errs, errors.Field("Memo", errors.ErrInput, "too long"))
	}
	return errs
}

func (m *SendMsg) Marshal() ([]byte, error) {
	e := timevault.NewProtoEncoder()
	if m.Metadata != nil {
		if err := e.Message(1, m.Metadata); err != nil {
			return nil, err
		}
	}
	e.Bytes(2, m.Source)
	e.Bytes(3, m.Destination)
	if err := e.Message(4, &m.Amount); err != nil {
		return nil, err
	}
	e.Text(5, m.Memo)
	return e.Result(), nil
}

func (m *SendMsg) Unmarshal(raw []byte) error {
	*m = SendMsg{}
	return timevault.DecodeProto(raw, func(f timevault.ProtoField) error {
		var err error
		switch f.Num {
		case 1:
			m.Metadata = &timevault.Metadata{}
			err = f.Message(m.Metadata)
		case 2:
			m.Source, err = f.Bytes()
		case 3:
			m.Destination, err = f.Bytes()
		case 4:
			err = f.Message(&m.Amount)
		case 5:
			m.Memo, err = f.Text()
		}
		return err
	})
}
