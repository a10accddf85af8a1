package vaulttest

import (
	"github.com/iov-one/timevault"
	"github.com/iov-one/timevault/errors"
)

var errUnsupported = errors.Wrap(errors.ErrHuman, "not supported by test transactions")

// Tx is a transaction carrying Msg. GetMsg fails with Err when set.
type Tx struct {
	Msg timevault.Msg
	Err error
}

var _ timevault.Tx = (*Tx)(nil)

func (tx *Tx) GetMsg() (timevault.Msg, error) {
	if tx.Err != nil {
		return nil, tx.Err
	}
	return tx.Msg, nil
}

// Marshal and Unmarshal are not supported, test transactions never hit the
// wire.
func (tx *Tx) Marshal() ([]byte, error) { return nil, errUnsupported }
func (tx *Tx) Unmarshal([]byte) error   { return errUnsupported }

// Msg is a message routed to RoutePath. Its serialized form is kept as is.
// Validation and serialization fail with Err when set.
type Msg struct {
	RoutePath  string
	Serialized []byte
	Err        error
}

var _ timevault.Msg = (*Msg)(nil)

func (m *Msg) Path() string { return m.RoutePath }

func (m *Msg) Validate() error { return m.Err }

func (m *Msg) Marshal() ([]byte, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Serialized, nil
}

func (m *Msg) Unmarshal(raw []byte) error {
	if m.Err != nil {
		return m.Err
	}
	m.Serialized = raw
	return nil
}
