package model

import (
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"
)

// ValueKind tags the variant held by a Value.
type ValueKind string

const (
	KindText      ValueKind = "text"
	KindNumber    ValueKind = "number"
	KindBoolean   ValueKind = "boolean"
	KindDate      ValueKind = "date"
	KindTime      ValueKind = "time"
	KindChoice    ValueKind = "choice"
	KindChoiceSet ValueKind = "choice_set"
)

// Value is a typed answer value. Exactly one variant field is meaningful,
// selected by Kind. Values are encoded to text only at the storage boundary.
type Value struct {
	Kind   ValueKind
	Text   string   // text, date, time, choice
	Number float64  // number
	Bool   bool     // boolean
	Set    []string // choice_set, order preserved
}

func TextValue(s string) Value      { return Value{Kind: KindText, Text: s} }
func NumberValue(n float64) Value   { return Value{Kind: KindNumber, Number: n} }
func BoolValue(b bool) Value        { return Value{Kind: KindBoolean, Bool: b} }
func DateValue(s string) Value      { return Value{Kind: KindDate, Text: s} }
func TimeValue(s string) Value      { return Value{Kind: KindTime, Text: s} }
func ChoiceValue(s string) Value    { return Value{Kind: KindChoice, Text: s} }
func ChoiceSet(vs []string) Value   { return Value{Kind: KindChoiceSet, Set: vs} }

// Encode renders the value as its storage text. Choice sets serialize as a
// JSON array so multi-value answers survive round-trips in order.
func (v Value) Encode() (string, error) {
	switch v.Kind {
	case KindText, KindDate, KindTime, KindChoice:
		return v.Text, nil
	case KindNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64), nil
	case KindBoolean:
		return strconv.FormatBool(v.Bool), nil
	case KindChoiceSet:
		b, err := json.Marshal(v.Set)
		if err != nil {
			return "", errors.Wrap(err, "encode choice set")
		}
		return string(b), nil
	}
	return "", errors.Errorf("encode value: unknown kind %q", v.Kind)
}

// DecodeValue reconstructs a typed value from its storage text, using the
// question's field type to pick the variant.
func DecodeValue(ft FieldType, raw string) (Value, error) {
	switch {
	case ft == FieldMultiChoice:
		var set []string
		if err := json.Unmarshal([]byte(raw), &set); err != nil {
			return Value{}, errors.Wrap(err, "decode choice set")
		}
		return ChoiceSet(set), nil
	case ft.IsChoice():
		return ChoiceValue(raw), nil
	case ft.IsNumeric():
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Value{}, errors.Wrapf(err, "decode number %q", raw)
		}
		return NumberValue(n), nil
	case ft == FieldBoolean:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return Value{}, errors.Wrapf(err, "decode boolean %q", raw)
		}
		return BoolValue(b), nil
	case ft == FieldDate:
		return DateValue(raw), nil
	case ft == FieldTime:
		return TimeValue(raw), nil
	}
	return TextValue(raw), nil
}

// MarshalJSON renders the natural JSON shape of the variant: strings for
// text-like kinds, a number, a bool, or an array for choice sets.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNumber:
		return json.Marshal(v.Number)
	case KindBoolean:
		return json.Marshal(v.Bool)
	case KindChoiceSet:
		if v.Set == nil {
			return json.Marshal([]string{})
		}
		return json.Marshal(v.Set)
	default:
		return json.Marshal(v.Text)
	}
}
