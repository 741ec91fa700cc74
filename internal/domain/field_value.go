package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// FieldKind identifies the scalar variant held by a FieldValue.
type FieldKind string

const (
	FieldKindString FieldKind = "string"
	FieldKindNumber FieldKind = "number"
	FieldKindBool   FieldKind = "bool"
	FieldKindDate   FieldKind = "date"
)

// FieldValue is one entry of a ticket's dynamic field map. Dynamic fields are
// schema-less on purpose: the category declares field definitions but values
// are not validated against them. The value itself is restricted to a closed
// set of scalar variants rather than an open any-type.
type FieldValue struct {
	Kind FieldKind
	Str  string
	Num  float64
	Bool bool
	Date time.Time
}

// StringValue builds a string variant.
func StringValue(v string) FieldValue { return FieldValue{Kind: FieldKindString, Str: v} }

// NumberValue builds a number variant.
func NumberValue(v float64) FieldValue { return FieldValue{Kind: FieldKindNumber, Num: v} }

// BoolValue builds a boolean variant.
func BoolValue(v bool) FieldValue { return FieldValue{Kind: FieldKindBool, Bool: v} }

// DateValue builds a date variant.
func DateValue(v time.Time) FieldValue { return FieldValue{Kind: FieldKindDate, Date: v} }

// MarshalJSON emits the underlying scalar. Dates serialize as RFC 3339
// strings, matching the wire format of the original contract.
func (v FieldValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case FieldKindString:
		return json.Marshal(v.Str)
	case FieldKindNumber:
		return json.Marshal(v.Num)
	case FieldKindBool:
		return json.Marshal(v.Bool)
	case FieldKindDate:
		return json.Marshal(v.Date.Format(time.RFC3339))
	}
	return nil, fmt.Errorf("unknown field kind %q", v.Kind)
}

// UnmarshalJSON infers the variant from the JSON scalar. Strings parseable as
// RFC 3339 timestamps become dates; everything else stays a string.
func (v *FieldValue) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch val := raw.(type) {
	case string:
		if t, err := time.Parse(time.RFC3339, val); err == nil {
			*v = DateValue(t)
			return nil
		}
		*v = StringValue(val)
		return nil
	case float64:
		*v = NumberValue(val)
		return nil
	case bool:
		*v = BoolValue(val)
		return nil
	}
	return fmt.Errorf("dynamic field value must be a string, number, boolean or date")
}
