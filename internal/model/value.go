package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
)

// Value kinds as reported in validation messages.
const (
	KindMissing = "missing"
	KindNull    = "null"
	KindNumber  = "number"
	KindString  = "string"
	KindBool    = "bool"
	KindArray   = "array"
	KindObject  = "object"
	KindInvalid = "invalid"
)

// Value is a reading measurement as received. It is numeric only when the
// wire carried a JSON number; every other shape is kept verbatim.
type Value struct {
	raw     json.RawMessage
	num     float64
	numeric bool
}

func Number(f float64) Value {
	return Value{
		raw:     json.RawMessage(strconv.FormatFloat(f, 'f', -1, 64)),
		num:     f,
		numeric: true,
	}
}

// RawValue classifies raw JSON. Empty input is a missing value.
func RawValue(raw json.RawMessage) Value {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return Value{}
	}
	v := Value{raw: append(json.RawMessage(nil), trimmed...)}
	if c := trimmed[0]; c == '-' || (c >= '0' && c <= '9') {
		var f float64
		if err := json.Unmarshal(trimmed, &f); err == nil {
			v.num = f
			v.numeric = true
		} else if json.Valid(trimmed) {
			// A well-formed number beyond float64 range is kept as ±Inf.
			if f, err := strconv.ParseFloat(string(trimmed), 64); errors.Is(err, strconv.ErrRange) {
				v.num = f
				v.numeric = true
			}
		}
	}
	return v
}

func (v Value) IsNumber() bool {
	return v.numeric
}

// Float returns the numeric value and whether there is one.
func (v Value) Float() (float64, bool) {
	return v.num, v.numeric
}

func (v Value) Kind() string {
	if len(v.raw) == 0 {
		return KindMissing
	}
	if v.numeric {
		return KindNumber
	}
	switch v.raw[0] {
	case 'n':
		return KindNull
	case '"':
		return KindString
	case 't', 'f':
		return KindBool
	case '[':
		return KindArray
	case '{':
		return KindObject
	default:
		return KindInvalid
	}
}

// String is the raw JSON text, or "null" for a missing value.
func (v Value) String() string {
	if len(v.raw) == 0 {
		return "null"
	}
	return string(v.raw)
}

func (v Value) MarshalJSON() ([]byte, error) {
	if len(v.raw) == 0 {
		return []byte("null"), nil
	}
	return v.raw, nil
}

func (v *Value) UnmarshalJSON(data []byte) error {
	*v = RawValue(data)
	return nil
}
