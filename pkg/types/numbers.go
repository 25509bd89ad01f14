package types

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

var nan = math.NaN()

// IsValid reports whether v is a usable measurement.
func IsValid(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

var null = []byte("null")

// RawNumber holds a JSON value that should be numeric but may arrive as a
// string, a malformed string or null.
type RawNumber struct {
	text  string
	valid bool
}

func NumberOf(v float64) RawNumber {
	return RawNumber{text: strconv.FormatFloat(v, 'f', -1, 64), valid: true}
}

func NumberFromString(s string) RawNumber {
	return RawNumber{text: s, valid: true}
}

// Float coerces the raw value. Non-numeric text, null and non-finite values
// become NaN.
func (n RawNumber) Float() float64 {
	if !n.valid {
		return nan
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(n.text), 64)
	if err != nil || !IsValid(v) {
		return nan
	}
	return v
}

// FloatOf is Float for an optional field.
func FloatOf(n *RawNumber) float64 {
	if n == nil {
		return nan
	}
	return n.Float()
}

func (n RawNumber) String() string {
	return n.text
}

func (n *RawNumber) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, null) {
		*n = RawNumber{}
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = RawNumber{text: s, valid: true}
		return nil
	}
	*n = RawNumber{text: string(b), valid: true}
	return nil
}

func (n RawNumber) MarshalJSON() ([]byte, error) {
	if !n.valid {
		return null, nil
	}
	if v := n.Float(); IsValid(v) {
		return []byte(strconv.FormatFloat(v, 'f', -1, 64)), nil
	}
	return json.Marshal(n.text)
}

// RawString accepts a JSON string or number, e.g. pond ids sent either way.
type RawString string

func (s *RawString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, null):
		*s = ""
	case len(b) > 0 && b[0] == '"':
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = RawString(v)
	default:
		*s = RawString(b)
	}
	return nil
}

// Value is a measurement that encodes NaN as JSON null.
type Value float64

func (v Value) MarshalJSON() ([]byte, error) {
	if !IsValid(float64(v)) {
		return null, nil
	}
	return []byte(strconv.FormatFloat(float64(v), 'f', -1, 64)), nil
}

func (v *Value) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), null) {
		*v = Value(nan)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*v = Value(f)
	return nil
}

// Series is a bucketed numeric series. Missing points are NaN and travel as
// null on the wire.
type Series []float64

func (s Series) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	vals := make([]Value, len(s))
	for i, v := range s {
		vals[i] = Value(v)
	}
	return json.Marshal(vals)
}

func (s *Series) UnmarshalJSON(b []byte) error {
	var vals []Value
	if err := json.Unmarshal(b, &vals); err != nil {
		return err
	}
	out := make(Series, len(vals))
	for i, v := range vals {
		out[i] = float64(v)
	}
	*s = out
	return nil
}
