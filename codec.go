package timevault

import (
	"math"

	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/timevault/errors"
)

// Protobuf wire types.
const (
	wireVarint  = 0
	wireFixed64 = 1
	wireBytes   = 2
	wireFixed32 = 5
)

// ProtoEncoder serializes fields using the protobuf wire format. Zero
// values are omitted, the same way proto3 encoding does it, so that
// serialized models are compatible with protobuf declarations of the same
// layout.
type ProtoEncoder struct {
	buf []byte
}

// NewProtoEncoder returns an encoder with an empty buffer.
func NewProtoEncoder() *ProtoEncoder {
	return &ProtoEncoder{}
}

func (e *ProtoEncoder) key(field int, wire uint64) {
	e.buf = append(e.buf, proto.EncodeVarint(uint64(field)<<3|wire)...)
}

// Uint64 writes a varint field.
func (e *ProtoEncoder) Uint64(field int, v uint64) {
	if v == 0 {
		return
	}
	e.key(field, wireVarint)
	e.buf = append(e.buf, proto.EncodeVarint(v)...)
}

// Int64 writes a varint field. Negative values take ten bytes, as in
// protobuf int64.
func (e *ProtoEncoder) Int64(field int, v int64) {
	e.Uint64(field, uint64(v))
}

// Uint32 writes a varint field.
func (e *ProtoEncoder) Uint32(field int, v uint32) {
	e.Uint64(field, uint64(v))
}

// Bool writes a varint field.
func (e *ProtoEncoder) Bool(field int, v bool) {
	if v {
		e.Uint64(field, 1)
	}
}

// Bytes writes a length delimited field.
func (e *ProtoEncoder) Bytes(field int, b []byte) {
	if len(b) == 0 {
		return
	}
	e.key(field, wireBytes)
	e.buf = append(e.buf, proto.EncodeVarint(uint64(len(b)))...)
	e.buf = append(e.buf, b...)
}

// Text writes a length delimited field.
func (e *ProtoEncoder) Text(field int, s string) {
	e.Bytes(field, []byte(s))
}

// Message writes an embedded message. Unlike scalar values, a present
// message is always written, even if its serialized form is empty.
func (e *ProtoEncoder) Message(field int, m interface{ Marshal() ([]byte, error) }) error {
	raw, err := m.Marshal()
	if err != nil {
		return err
	}
	e.key(field, wireBytes)
	e.buf = append(e.buf, proto.EncodeVarint(uint64(len(raw)))...)
	e.buf = append(e.buf, raw...)
	return nil
}

// Result returns the serialized data.
func (e *ProtoEncoder) Result() []byte {
	return e.buf
}

// ProtoField is a single field read from a protobuf serialized message.
type ProtoField struct {
	// Num is the field number as declared in the message.
	Num  int
	wire uint64
	num  uint64
	raw  []byte
}

// Uint64 returns the value of a varint field.
func (f ProtoField) Uint64() (uint64, error) {
	if f.wire != wireVarint {
		return 0, errors.Wrapf(errors.ErrInput, "field %d: not a varint", f.Num)
	}
	return f.num, nil
}

// Int64 returns the value of a varint field.
func (f ProtoField) Int64() (int64, error) {
	v, err := f.Uint64()
	return int64(v), err
}

// Uint32 returns the value of a varint field.
func (f ProtoField) Uint32() (uint32, error) {
	v, err := f.Uint64()
	if err != nil {
		return 0, err
	}
	if v > math.MaxUint32 {
		return 0, errors.Wrapf(errors.ErrInput, "field %d: uint32 overflow", f.Num)
	}
	return uint32(v), nil
}

// Bool returns the value of a varint field.
func (f ProtoField) Bool() (bool, error) {
	v, err := f.Uint64()
	return v != 0, err
}

// Bytes returns a copy of a length delimited field value.
func (f ProtoField) Bytes() ([]byte, error) {
	if f.wire != wireBytes {
		return nil, errors.Wrapf(errors.ErrInput, "field %d: not length delimited", f.Num)
	}
	cpy := make([]byte, len(f.raw))
	copy(cpy, f.raw)
	return cpy, nil
}

// Text returns the value of a length delimited field.
func (f ProtoField) Text() (string, error) {
	if f.wire != wireBytes {
		return "", errors.Wrapf(errors.ErrInput, "field %d: not length delimited", f.Num)
	}
	return string(f.raw), nil
}

// Message deserializes an embedded message into dest.
func (f ProtoField) Message(dest Persistent) error {
	if f.wire != wireBytes {
		return errors.Wrapf(errors.ErrInput, "field %d: not length delimited", f.Num)
	}
	return dest.Unmarshal(f.raw)
}

// DecodeProto reads all fields of a protobuf serialized message and calls
// fn for each of them, in the order of appearance. Repeated fields result in
// multiple calls. Fields unknown to fn can be ignored.
func DecodeProto(raw []byte, fn func(ProtoField) error) error {
	for len(raw) > 0 {
		key, n := proto.DecodeVarint(raw)
		if n == 0 {
			return errors.Wrap(errors.ErrInput, "malformed field key")
		}
		raw = raw[n:]

		f := ProtoField{Num: int(key >> 3), wire: key & 0x7}
		if f.Num <= 0 {
			return errors.Wrap(errors.ErrInput, "invalid field number")
		}

		switch f.wire {
		case wireVarint:
			v, n := proto.DecodeVarint(raw)
			if n == 0 {
				return errors.Wrapf(errors.ErrInput, "field %d: malformed varint", f.Num)
			}
			f.num = v
			raw = raw[n:]
		case wireFixed64:
			if len(raw) < 8 {
				return errors.Wrapf(errors.ErrInput, "field %d: unexpected end", f.Num)
			}
			f.raw = raw[:8]
			raw = raw[8:]
		case wireFixed32:
			if len(raw) < 4 {
				return errors.Wrapf(errors.ErrInput, "field %d: unexpected end", f.Num)
			}
			f.raw = raw[:4]
			raw = raw[4:]
		case wireBytes:
			size, n := proto.DecodeVarint(raw)
			if n == 0 {
				return errors.Wrapf(errors.ErrInput, "field %d: malformed length", f.Num)
			}
			raw = raw[n:]
			if uint64(len(raw)) < size {
				return errors.Wrapf(errors.ErrInput, "field %d: unexpected end", f.Num)
			}
			f.raw = raw[:size]
			raw = raw[size:]
		default:
			return errors.Wrapf(errors.ErrInput, "field %d: unsupported wire type %d", f.Num, f.wire)
		}

		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}
