package timevault

import (
	"bytes"
	"math"
	"testing"

	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/timevault/errors"
)

func TestProtoEncoderWireFormat(t *testing.T) {
	// The canonical protobuf encoding example: field 1 set to 150.
	e := NewProtoEncoder()
	e.Uint64(1, 150)
	if got, want := e.Result(), []byte{0x08, 0x96, 0x01}; !bytes.Equal(got, want) {
		t.Fatalf("want %X, got %X", want, got)
	}

	e = NewProtoEncoder()
	e.Text(2, "testing")
	if got, want := e.Result(), []byte{0x12, 0x07, 't', 'e', 's', 't', 'i', 'n', 'g'}; !bytes.Equal(got, want) {
		t.Fatalf("want %X, got %X", want, got)
	}
}

func TestProtoEncoderSkipsZeroValues(t *testing.T) {
	e := NewProtoEncoder()
	e.Uint64(1, 0)
	e.Int64(2, 0)
	e.Bool(3, false)
	e.Bytes(4, nil)
	e.Text(5, "")
	if got := e.Result(); len(got) != 0 {
		t.Fatalf("want empty result, got %X", got)
	}
}

func TestProtoRoundTrip(t *testing.T) {
	e := NewProtoEncoder()
	e.Uint64(1, math.MaxUint64)
	e.Int64(2, -42)
	e.Bool(3, true)
	e.Bytes(4, []byte{1, 2, 3})
	e.Text(5, "vault")
	e.Bytes(6, []byte("a"))
	e.Bytes(6, []byte("b"))
	if err := e.Message(7, &Metadata{Schema: 1}); err != nil {
		t.Fatalf("cannot encode message: %s", err)
	}
	// Empty messages are still present.
	if err := e.Message(8, &Metadata{}); err != nil {
		t.Fatalf("cannot encode message: %s", err)
	}

	var (
		u        uint64
		i        int64
		b        bool
		raw      []byte
		s        string
		repeated [][]byte
		meta     Metadata
		present  bool
	)
	err := DecodeProto(e.Result(), func(f ProtoField) error {
		var err error
		switch f.Num {
		case 1:
			u, err = f.Uint64()
		case 2:
			i, err = f.Int64()
		case 3:
			b, err = f.Bool()
		case 4:
			raw, err = f.Bytes()
		case 5:
			s, err = f.Text()
		case 6:
			var v []byte
			v, err = f.Bytes()
			repeated = append(repeated, v)
		case 7:
			err = f.Message(&meta)
		case 8:
			present = true
		}
		return err
	})
	if err != nil {
		t.Fatalf("cannot decode: %+v", err)
	}
	if u != math.MaxUint64 || i != -42 || !b || s != "vault" || !present {
		t.Fatalf("unexpected values: %d %d %v %q %v", u, i, b, s, present)
	}
	if !bytes.Equal(raw, []byte{1, 2, 3}) {
		t.Fatalf("unexpected bytes: %X", raw)
	}
	if len(repeated) != 2 || string(repeated[0]) != "a" || string(repeated[1]) != "b" {
		t.Fatalf("unexpected repeated values: %q", repeated)
	}
	if meta.Schema != 1 {
		t.Fatalf("unexpected schema: %d", meta.Schema)
	}
}

func TestProtoDecoderCompatibleWithGogo(t *testing.T) {
	// Build a message using the gogo buffer and read it back.
	buf := proto.NewBuffer(nil)
	if err := buf.EncodeVarint(uint64(1)<<3 | wireVarint); err != nil {
		t.Fatal(err)
	}
	if err := buf.EncodeVarint(300); err != nil {
		t.Fatal(err)
	}
	if err := buf.EncodeVarint(uint64(2)<<3 | wireBytes); err != nil {
		t.Fatal(err)
	}
	if err := buf.EncodeRawBytes([]byte("owner")); err != nil {
		t.Fatal(err)
	}
	// An unknown fixed64 field must be skipped.
	if err := buf.EncodeVarint(uint64(9)<<3 | wireFixed64); err != nil {
		t.Fatal(err)
	}
	if err := buf.EncodeFixed64(7); err != nil {
		t.Fatal(err)
	}

	var (
		num   uint64
		owner string
	)
	err := DecodeProto(buf.Bytes(), func(f ProtoField) error {
		var err error
		switch f.Num {
		case 1:
			num, err = f.Uint64()
		case 2:
			owner, err = f.Text()
		}
		return err
	})
	if err != nil {
		t.Fatalf("cannot decode: %+v", err)
	}
	if num != 300 || owner != "owner" {
		t.Fatalf("unexpected values: %d %q", num, owner)
	}
}

func TestProtoDecodeErrors(t *testing.T) {
	cases := map[string][]byte{
		"truncated varint":        {0x08, 0x96},
		"truncated bytes":         {0x12, 0x07, 't'},
		"zero field number":       {0x00, 0x01},
		"unsupported wire type":   {0x0b},
		"truncated fixed32 value": {0x0d, 0x01},
	}
	for testName, raw := range cases {
		t.Run(testName, func(t *testing.T) {
			err := DecodeProto(raw, func(ProtoField) error { return nil })
			if !errors.ErrInput.Is(err) {
				t.Fatalf("want input error, got %v", err)
			}
		})
	}

	// Type mismatch is reported by the accessor.
	e := NewProtoEncoder()
	e.Text(1, "text")
	err := DecodeProto(e.Result(), func(f ProtoField) error {
		_, err := f.Uint64()
		return err
	})
	if !errors.ErrInput.Is(err) {
		t.Fatalf("want input error, got %v", err)
	}
}
