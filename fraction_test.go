package timevault

import (
	"encoding/json"
	"math"
	"reflect"
	"testing"

	"github.com/iov-one/timevault/errors"
)

func TestFractionUnmarshalJSON(t *testing.T) {
	cases := map[string]struct {
		raw      string
		wantFrac Fraction
		wantErr  bool
	}{
		"zero": {
			raw:      `"0"`,
			wantFrac: Fraction{Denominator: 1},
		},
		"integer human format number": {
			raw:      `"4"`,
			wantFrac: Fraction{Numerator: 4, Denominator: 1},
		},
		"zero numerator": {
			raw:      `"0/123"`,
			wantFrac: Fraction{Denominator: 123},
		},
		"human readable format": {
			raw:      `"1/10"`,
			wantFrac: Fraction{Numerator: 1, Denominator: 10},
		},
		"machine format": {
			raw:      `{"numerator": 3, "denominator": 7}`,
			wantFrac: Fraction{Numerator: 3, Denominator: 7},
		},
		"invalid human format": {
			raw:     `"1/x"`,
			wantErr: true,
		},
		"negative numerator": {
			raw:     `"-1/10"`,
			wantErr: true,
		},
		"too many parts": {
			raw:     `"1/2/3"`,
			wantErr: true,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			var got Fraction
			err := json.Unmarshal([]byte(tc.raw), &got)
			if hasErr := err != nil; hasErr != tc.wantErr {
				t.Fatalf("want error %v, got %+v", tc.wantErr, err)
			}
			if !tc.wantErr && !reflect.DeepEqual(got, tc.wantFrac) {
				t.Fatalf("want %#v, got %#v", tc.wantFrac, got)
			}
		})
	}
}

func TestFractionPortion(t *testing.T) {
	cases := map[string]struct {
		frac    Fraction
		total   uint64
		want    uint64
		wantErr *errors.Error
	}{
		"ten percent": {
			frac:  Fraction{Numerator: 1, Denominator: 10},
			total: 1000,
			want:  100,
		},
		"ten percent is truncated": {
			frac:  Fraction{Numerator: 1, Denominator: 10},
			total: 9,
			want:  0,
		},
		"ten percent of an odd value": {
			frac:  Fraction{Numerator: 1, Denominator: 10},
			total: 1005,
			want:  100,
		},
		"large value does not overflow the intermediate": {
			frac:  Fraction{Numerator: 1, Denominator: 10},
			total: math.MaxUint64,
			want:  math.MaxUint64 / 10,
		},
		"large numerator": {
			frac:  Fraction{Numerator: math.MaxUint32 - 1, Denominator: math.MaxUint32},
			total: math.MaxUint64,
			want:  math.MaxUint64 - math.MaxUint64/math.MaxUint32,
		},
		"whole": {
			frac:  Fraction{Numerator: 5, Denominator: 5},
			total: math.MaxUint64,
			want:  math.MaxUint64,
		},
		"zero": {
			frac:  Fraction{Numerator: 0, Denominator: 5},
			total: 12345,
			want:  0,
		},
		"result overflows": {
			frac:    Fraction{Numerator: 2, Denominator: 1},
			total:   math.MaxUint64,
			wantErr: errors.ErrOverflow,
		},
		"zero division": {
			frac:    Fraction{Numerator: 1, Denominator: 0},
			total:   1,
			wantErr: errors.ErrState,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			got, err := tc.frac.Portion(tc.total)
			if !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			if got != tc.want {
				t.Fatalf("want %d, got %d", tc.want, got)
			}
		})
	}
}

func TestFractionString(t *testing.T) {
	cases := map[Fraction]string{
		{Numerator: 1, Denominator: 10}:   "1/10",
		{Numerator: 7, Denominator: 1}:    "7",
		{Numerator: 0, Denominator: 9}:    "0",
		{Numerator: 10, Denominator: 100}: "10/100",
	}
	for frac, want := range cases {
		if got := frac.String(); got != want {
			t.Errorf("want %q, got %q", want, got)
		}
		raw, err := json.Marshal(frac)
		if err != nil {
			t.Fatalf("marshal %v: %s", frac, err)
		}
		var back Fraction
		if err := json.Unmarshal(raw, &back); err != nil {
			t.Fatalf("unmarshal %s: %s", raw, err)
		}
		if back.String() != want {
			t.Errorf("want %q after JSON round trip, got %q", want, back)
		}
	}
}
