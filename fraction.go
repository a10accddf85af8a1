package timevault

import (
	"encoding/json"
	"fmt"
	"math/bits"
	"strconv"
	"strings"

	"github.com/iov-one/timevault/errors"
)

// Fraction is a non negative rational number, such as the early withdrawal
// penalty rate. In JSON it is written as "1/10", or "3" for whole numbers.
type Fraction struct {
	Numerator   uint32
	Denominator uint32
}

func (f Fraction) Validate() error {
	if f.Denominator == 0 {
		return errors.Wrap(errors.ErrState, "zero division")
	}
	return nil
}

// Portion returns total*Numerator/Denominator, truncated. The product is
// computed on 128 bits, only a result above uint64 fails.
func (f Fraction) Portion(total uint64) (uint64, error) {
	if err := f.Validate(); err != nil {
		return 0, err
	}
	hi, lo := bits.Mul64(total, uint64(f.Numerator))
	if hi >= uint64(f.Denominator) {
		return 0, errors.Wrapf(errors.ErrOverflow, "%d * %s", total, f)
	}
	q, _ := bits.Div64(hi, lo, uint64(f.Denominator))
	return q, nil
}

func (f Fraction) String() string {
	switch {
	case f.Numerator == 0:
		return "0"
	case f.Denominator == 1:
		return strconv.FormatUint(uint64(f.Numerator), 10)
	default:
		return fmt.Sprintf("%d/%d", f.Numerator, f.Denominator)
	}
}

func (f Fraction) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}

// UnmarshalJSON accepts the string form and the plain struct form.
func (f *Fraction) UnmarshalJSON(raw []byte) error {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		frac, err := parseFraction(s)
		if err != nil {
			return errors.Wrap(err, "fraction string")
		}
		*f = frac
		return nil
	}
	type plain Fraction
	var p plain
	if err := json.Unmarshal(raw, &p); err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}
	*f = Fraction(p)
	return nil
}

// parseFraction reads "n" or "n/d". A zero denominator is accepted here
// and rejected by Validate.
func parseFraction(s string) (Fraction, error) {
	num, den := s, "1"
	if i := strings.IndexByte(s, '/'); i >= 0 {
		num, den = s[:i], s[i+1:]
	}
	n, err := strconv.ParseUint(num, 10, 32)
	if err != nil {
		return Fraction{}, errors.Wrapf(errors.ErrInput, "numerator: %s", err)
	}
	d, err := strconv.ParseUint(den, 10, 32)
	if err != nil {
		return Fraction{}, errors.Wrapf(errors.ErrInput, "denominator: %s", err)
	}
	return Fraction{Numerator: uint32(n), Denominator: uint32(d)}, nil
}
