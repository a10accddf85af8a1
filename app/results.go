package app

import (
	"github.com/iov-one/timevault"
	"github.com/iov-one/timevault/errors"
)

// ResultSet is a list of raw values. A query response carries two of
// them of the same length, one for the keys and one for the values.
type ResultSet struct {
	Results [][]byte
}

// rawBytes is encoded as is, even when empty, so a result set keeps its
// length.
type rawBytes []byte

func (r rawBytes) Marshal() ([]byte, error) {
	return r, nil
}

func (rs *ResultSet) Marshal() ([]byte, error) {
	e := timevault.NewProtoEncoder()
	for _, r := range rs.Results {
		if err := e.Message(1, rawBytes(r)); err != nil {
			return nil, err
		}
	}
	return e.Result(), nil
}

func (rs *ResultSet) Unmarshal(raw []byte) error {
	*rs = ResultSet{}
	return timevault.DecodeProto(raw, func(f timevault.ProtoField) error {
		if f.Num != 1 {
			return nil
		}
		b, err := f.Bytes()
		if err != nil {
			return err
		}
		rs.Results = append(rs.Results, b)
		return nil
	})
}

// EncodeResults returns the serialized key and value result sets of the
// models.
func EncodeResults(models []timevault.Model) (keys, values []byte, err error) {
	var ks, vs ResultSet
	for _, m := range models {
		ks.Results = append(ks.Results, m.Key)
		vs.Results = append(vs.Results, m.Value)
	}
	if keys, err = ks.Marshal(); err != nil {
		return nil, nil, err
	}
	if values, err = vs.Marshal(); err != nil {
		return nil, nil, err
	}
	return keys, values, nil
}

// DecodeResults is the inverse of EncodeResults.
func DecodeResults(keys, values []byte) ([]timevault.Model, error) {
	var ks, vs ResultSet
	if err := ks.Unmarshal(keys); err != nil {
		return nil, errors.Wrap(err, "keys")
	}
	if err := vs.Unmarshal(values); err != nil {
		return nil, errors.Wrap(err, "values")
	}
	if len(ks.Results) != len(vs.Results) {
		return nil, errors.Wrapf(errors.ErrState, "%d keys and %d values", len(ks.Results), len(vs.Results))
	}
	models := make([]timevault.Model, len(ks.Results))
	for i := range models {
		models[i] = timevault.Pair(ks.Results[i], vs.Results[i])
	}
	return models, nil
}

// UnmarshalOneResult decodes the first value of a result set into o. An
// empty result set leaves o untouched.
func UnmarshalOneResult(values []byte, o timevault.Persistent) error {
	var rs ResultSet
	if err := rs.Unmarshal(values); err != nil {
		return err
	}
	if len(rs.Results) == 0 {
		return nil
	}
	return o.Unmarshal(rs.Results[0])
}
