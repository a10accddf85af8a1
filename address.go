package timevault

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/btcsuite/btcutil/bech32"
	"github.com/iov-one/timevault/errors"
)

var (
	// AddressLength is the size of every address. It must not change once
	// a database holds addresses.
	AddressLength = 20

	// AddressHRP is the human readable part of bech32 encoded addresses.
	AddressHRP = "tvlt"
)

// Address is the truncated sha256 digest of a Condition. Accounts and
// vaults are keyed by address.
type Address []byte

// NewAddress returns the address of data, nil for nil data.
func NewAddress(data []byte) Address {
	if data == nil {
		return nil
	}
	h := sha256.Sum256(data)
	return h[:AddressLength]
}

func (a Address) Equals(o Address) bool {
	return bytes.Equal(a, o)
}

func (a Address) Validate() error {
	if len(a) != AddressLength {
		return errors.Wrapf(errors.ErrInput, "address: %v", a)
	}
	return nil
}

// String returns the upper case hex form.
func (a Address) String() string {
	if len(a) == 0 {
		return "(nil)"
	}
	return strings.ToUpper(hex.EncodeToString(a))
}

// Bech32 returns the address encoded with AddressHRP.
func (a Address) Bech32() (string, error) {
	data, err := bech32.ConvertBits(a, 8, 5, true)
	if err != nil {
		return "", errors.Wrap(errors.ErrInput, err.Error())
	}
	s, err := bech32.Encode(AddressHRP, data)
	if err != nil {
		return "", errors.Wrap(errors.ErrInput, err.Error())
	}
	return s, nil
}

// MarshalJSON uses hex instead of the base64 default of byte slices.
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(strings.ToUpper(hex.EncodeToString(a)))
}

func (a *Address) UnmarshalJSON(raw []byte) error {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}
	addr, err := ParseAddress(s)
	if err != nil {
		return err
	}
	*a = addr
	return nil
}

// addressDecoders by the format prefix accepted by ParseAddress.
var addressDecoders = map[string]func(string) (Address, error){
	"hex":    decodeHexAddress,
	"bech32": decodeBech32Address,
	"cond":   decodeConditionAddress,
}

// ParseAddress decodes an address, optionally prefixed with its format:
// "bech32:tvlt1...", "cond:vault/custody/0A0B" or "hex:0A0B...". Unprefixed
// values are hex. An empty value is a nil address.
func ParseAddress(s string) (Address, error) {
	format, value := "hex", s
	if i := strings.IndexByte(s, ':'); i >= 0 {
		format, value = s[:i], s[i+1:]
	}
	decode, ok := addressDecoders[format]
	if !ok {
		return nil, errors.Wrapf(errors.ErrType, "unknown format %q", format)
	}
	if value == "" {
		return nil, nil
	}
	addr, err := decode(value)
	if err != nil {
		return nil, err
	}
	if err := addr.Validate(); err != nil {
		return nil, err
	}
	return addr, nil
}

func decodeHexAddress(s string) (Address, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "cannot decode hex: %s", err)
	}
	return raw, nil
}

func decodeBech32Address(s string) (Address, error) {
	_, data, err := bech32.Decode(s)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "deserialize bech32: %s", err)
	}
	raw, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "bech32 payload: %s", err)
	}
	return raw, nil
}

func decodeConditionAddress(s string) (Address, error) {
	c, err := parseCondition(s)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c.Address(), nil
}
