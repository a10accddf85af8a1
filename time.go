package timevault

import (
	"encoding/json"
	"time"

	"github.com/iov-one/timevault/errors"
)

// UnixTime represents a point in time as POSIX time.
// Instead of using Go's time.Time that includes nanoseconds use primitive
// int64 type and seconds precision, the same as the block header time
// is compared against.
type UnixTime int64

// Time returns a time.Time structure that represents the same moment in time.
func (t UnixTime) Time() time.Time {
	return time.Unix(int64(t), 0).UTC()
}

// IsZero returns true if this time represents a zero value.
func (t UnixTime) IsZero() bool {
	return t == 0
}

// Add modifies this UNIX time by given duration. This is compatible with
// time.Time.Add method.
func (t UnixTime) Add(d time.Duration) UnixTime {
	return t + UnixTime(d/time.Second)
}

// AddDuration modifies this UNIX time by given duration. The result is
// checked and ErrOverflow returned if it would not fit in the int64
// range.
func (t UnixTime) AddDuration(d UnixDuration) (UnixTime, error) {
	res := t + UnixTime(d)
	if (d > 0 && res < t) || (d < 0 && res > t) {
		return 0, errors.Wrap(errors.ErrOverflow, "unix time")
	}
	return res, nil
}

// AsUnixTime converts given Time structure into its UNIX time representation.
func AsUnixTime(t time.Time) UnixTime {
	return UnixTime(t.Unix())
}

// UnmarshalJSON accepts seconds since the epoch, or an RFC 3339 string
// which is easier to write in a genesis file.
func (t *UnixTime) UnmarshalJSON(raw []byte) error {
	var secs int64
	if err := json.Unmarshal(raw, &secs); err != nil {
		var date time.Time
		if err := json.Unmarshal(raw, &date); err != nil {
			return errors.Wrapf(errors.ErrInput, "time %s is neither seconds nor RFC 3339", raw)
		}
		secs = date.Unix()
	}
	if secs < 0 {
		return errors.Wrap(errors.ErrInput, "time before epoch")
	}
	*t = UnixTime(secs)
	return nil
}

// Validate returns an error if this time value is invalid.
func (t UnixTime) Validate() error {
	if t < 0 {
		return errors.Wrap(errors.ErrState, "negative value")
	}
	return nil
}

// String returns the usual string representation of this time as the time.Time
// structure would.
func (t UnixTime) String() string {
	return t.Time().String()
}

// UnixDuration represents a time duration with granularity of a second.
type UnixDuration int64

// AsUnixDuration converts given duration into UnixDuration. Sub-second
// precision is dropped.
func AsUnixDuration(d time.Duration) UnixDuration {
	return UnixDuration(d / time.Second)
}

// Duration returns time.Duration representation of this value.
func (d UnixDuration) Duration() time.Duration {
	return time.Duration(d) * time.Second
}

// String returns the duration in the time.Duration format, for example
// "24h0m0s".
func (d UnixDuration) String() string {
	return d.Duration().String()
}

// MarshalJSON encodes the duration in a human readable form.
func (d UnixDuration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Duration().String())
}

// UnmarshalJSON accepts both the number of seconds and the time.Duration
// string format ("24h").
func (d *UnixDuration) UnmarshalJSON(raw []byte) error {
	var secs int64
	if err := json.Unmarshal(raw, &secs); err == nil {
		*d = UnixDuration(secs)
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return errors.Wrap(errors.ErrInput, "invalid duration format")
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}
	*d = AsUnixDuration(dur)
	return nil
}
