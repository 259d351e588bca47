package model

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestValueStorageRoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		fieldType FieldType
		value     Value
	}{
		{"short text", FieldShortText, TextValue("hello")},
		{"integer", FieldInteger, NumberValue(42)},
		{"decimal", FieldDecimal, NumberValue(3.14)},
		{"rating", FieldRating, NumberValue(5)},
		{"boolean", FieldBoolean, BoolValue(true)},
		{"date", FieldDate, DateValue("2026-08-28")},
		{"time", FieldTime, TimeValue("14:30")},
		{"single choice", FieldSingleChoice, ChoiceValue("red")},
		{"dropdown", FieldDropdown, ChoiceValue("medium")},
		{"multi choice", FieldMultiChoice, ChoiceSet([]string{"b", "a", "c"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := tt.value.Encode()
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			got, err := DecodeValue(tt.fieldType, raw)
			if err != nil {
				t.Fatalf("DecodeValue(%s, %q): %v", tt.fieldType, raw, err)
			}
			if !reflect.DeepEqual(got, tt.value) {
				t.Errorf("round trip = %+v, want %+v", got, tt.value)
			}
		})
	}
}

func TestChoiceSetPreservesOrder(t *testing.T) {
	raw, err := ChoiceSet([]string{"z", "a", "m"}).Encode()
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeValue(FieldMultiChoice, raw)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got.Set, []string{"z", "a", "m"}) {
		t.Errorf("decoded set = %v, selection order lost", got.Set)
	}
}

func TestValueMarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		want  string
	}{
		{"text", TextValue("hi"), `"hi"`},
		{"number", NumberValue(2.5), `2.5`},
		{"whole number", NumberValue(7), `7`},
		{"boolean", BoolValue(false), `false`},
		{"choice", ChoiceValue("red"), `"red"`},
		{"choice set", ChoiceSet([]string{"a", "b"}), `["a","b"]`},
		{"empty choice set", ChoiceSet(nil), `[]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := json.Marshal(tt.value)
			if err != nil {
				t.Fatal(err)
			}
			if string(b) != tt.want {
				t.Errorf("marshal = %s, want %s", b, tt.want)
			}
		})
	}
}

func TestDecodeValueRejectsGarbage(t *testing.T) {
	if _, err := DecodeValue(FieldInteger, "not a number"); err == nil {
		t.Error("expected error decoding non-numeric text as integer")
	}
	if _, err := DecodeValue(FieldMultiChoice, "not json"); err == nil {
		t.Error("expected error decoding non-JSON text as choice set")
	}
	if _, err := DecodeValue(FieldBoolean, "maybe"); err == nil {
		t.Error("expected error decoding invalid boolean")
	}
}
