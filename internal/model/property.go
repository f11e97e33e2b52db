package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// PropertyType discriminates the value stored in a Property.
type PropertyType string

const (
	PropertyString  PropertyType = "string"
	PropertyNumber  PropertyType = "number"
	PropertyBoolean PropertyType = "boolean"
	PropertyDate    PropertyType = "date"
)

// Valid reports whether t is one of the known property types.
func (t PropertyType) Valid() bool {
	switch t {
	case PropertyString, PropertyNumber, PropertyBoolean, PropertyDate:
		return true
	}
	return false
}

// dateLayout is the canonical textual form of date properties.
const dateLayout = "2006-01-02"

// PropertyValue is a typed property value. The zero value is an empty string.
// Values are stored in their canonical textual form so that identical values
// compare equal for autocomplete.
type PropertyValue struct {
	typ PropertyType
	raw string
}

// StringValue returns a string property value.
func StringValue(s string) PropertyValue {
	return PropertyValue{typ: PropertyString, raw: s}
}

// NumberValue returns a numeric property value.
func NumberValue(f float64) PropertyValue {
	return PropertyValue{typ: PropertyNumber, raw: strconv.FormatFloat(f, 'f', -1, 64)}
}

// BoolValue returns a boolean property value.
func BoolValue(b bool) PropertyValue {
	return PropertyValue{typ: PropertyBoolean, raw: strconv.FormatBool(b)}
}

// DateValue returns a date property value. The time of day is dropped.
func DateValue(t time.Time) PropertyValue {
	return PropertyValue{typ: PropertyDate, raw: t.UTC().Format(dateLayout)}
}

// ParsePropertyValue parses raw as a value of type typ and returns it in
// canonical form. An empty typ means string.
func ParsePropertyValue(typ PropertyType, raw string) (PropertyValue, error) {
	if typ == "" {
		typ = PropertyString
	}
	switch typ {
	case PropertyString:
		return StringValue(raw), nil
	case PropertyNumber:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return PropertyValue{}, fmt.Errorf("invalid number %q", raw)
		}
		return NumberValue(f), nil
	case PropertyBoolean:
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return PropertyValue{}, fmt.Errorf("invalid boolean %q", raw)
		}
		return BoolValue(b), nil
	case PropertyDate:
		s := strings.TrimSpace(raw)
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			t, err = time.Parse(time.RFC3339, s)
			if err != nil {
				return PropertyValue{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", raw)
			}
		}
		return DateValue(t), nil
	default:
		return PropertyValue{}, fmt.Errorf("unknown property type %q", typ)
	}
}

// InferPropertyValue picks the narrowest type that parses raw, falling back to string.
func InferPropertyValue(raw string) PropertyValue {
	for _, typ := range []PropertyType{PropertyBoolean, PropertyNumber, PropertyDate} {
		if v, err := ParsePropertyValue(typ, raw); err == nil {
			return v
		}
	}
	return StringValue(raw)
}

// Type returns the value's discriminator.
func (v PropertyValue) Type() PropertyType {
	if v.typ == "" {
		return PropertyString
	}
	return v.typ
}

// String returns the canonical textual form.
func (v PropertyValue) String() string { return v.raw }

// Number returns the numeric value when the type is number.
func (v PropertyValue) Number() (float64, bool) {
	if v.typ != PropertyNumber {
		return 0, false
	}
	f, err := strconv.ParseFloat(v.raw, 64)
	return f, err == nil
}

// Bool returns the boolean value when the type is boolean.
func (v PropertyValue) Bool() (bool, bool) {
	if v.typ != PropertyBoolean {
		return false, false
	}
	b, err := strconv.ParseBool(v.raw)
	return b, err == nil
}

// Time returns the date value when the type is date.
func (v PropertyValue) Time() (time.Time, bool) {
	if v.typ != PropertyDate {
		return time.Time{}, false
	}
	t, err := time.Parse(dateLayout, v.raw)
	return t, err == nil
}

// Property is an open-ended key/value attached to a resource.
type Property struct {
	ResourceID string
	Key        string
	Value      PropertyValue
	UpdatedAt  time.Time
}
