package timevault

import "github.com/iov-one/timevault/errors"

// Metadata is attached to every persisted model and carries the version of
// the schema the model was serialized with.
type Metadata struct {
	Schema uint32
}

// Copy returns a copy of this object.
func (m *Metadata) Copy() *Metadata {
	cpy := *m
	return &cpy
}

// Validate returns an error if the schema version is not set.
func (m *Metadata) Validate() error {
	if m == nil {
		return errors.Wrap(errors.ErrMetadata, "missing metadata")
	}
	if m.Schema < 1 {
		return errors.Wrap(errors.ErrMetadata, "schema version must be at least 1")
	}
	return nil
}

func (m *Metadata) Marshal() ([]byte, error) {
	e := NewProtoEncoder()
	e.Uint32(1, m.Schema)
	return e.Result(), nil
}

func (m *Metadata) Unmarshal(raw []byte) error {
	return DecodeProto(raw, func(f ProtoField) error {
		var err error
		if f.Num == 1 {
			m.Schema, err = f.Uint32()
		}
		return err
	})
}
