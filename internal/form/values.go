// internal/form/values.go
//
// Contact form – field values.
//
// Context
//   Values is the caller-owned record of the five contact inputs.  It is a
//   plain struct passed by value; the validator never mutates it.  Struct
//   tags carry the JSON/YAML wire names and the go-playground/validator
//   rules, so the rule set lives next to the data it constrains.
//
// Notes
//   •  Tag order is rule order.  validator stops at the first failing tag of
//      a field, which gives the required → format → length precedence.
//   •  `digits` is registered in validate.go.
//
//------------------------------------------------------------------------------

package form

import (
	"fmt"
	"net/url"
)

// Field names, in display order.
const (
	FieldFirstName = "firstName"
	FieldLastName  = "lastName"
	FieldEmail     = "email"
	FieldPhone     = "phone"
	FieldZipCode   = "zipCode"
)

// Fields lists every field name in display order.
var Fields = []string{FieldFirstName, FieldLastName, FieldEmail, FieldPhone, FieldZipCode}

// IsField reports whether name is one of Fields.
func IsField(name string) bool {
	_, ok := Values{}.Get(name)
	return ok
}

// Values holds the current input of one contact form.  The zero value is
// the empty form.
type Values struct {
	FirstName string `json:"firstName" yaml:"firstName" validate:"required,min=2,max=100"`
	LastName  string `json:"lastName"  yaml:"lastName"  validate:"required,min=3,max=100"`
	Email     string `json:"email"     yaml:"email"     validate:"required,email,max=100"`
	Phone     string `json:"phone"     yaml:"phone"     validate:"required,digits,min=9"`
	ZipCode   string `json:"zipCode"   yaml:"zipCode"   validate:"required,digits"`
}

// Get returns the value of the named field.  The boolean is false when the
// name is unknown.
func (v Values) Get(name string) (string, bool) {
	switch name {
	case FieldFirstName:
		return v.FirstName, true
	case FieldLastName:
		return v.LastName, true
	case FieldEmail:
		return v.Email, true
	case FieldPhone:
		return v.Phone, true
	case FieldZipCode:
		return v.ZipCode, true
	}
	return "", false
}

// With returns a copy of v with the named field set.
func (v Values) With(name, value string) (Values, error) {
	switch name {
	case FieldFirstName:
		v.FirstName = value
	case FieldLastName:
		v.LastName = value
	case FieldEmail:
		v.Email = value
	case FieldPhone:
		v.Phone = value
	case FieldZipCode:
		v.ZipCode = value
	default:
		return v, fmt.Errorf("unknown field %q", name)
	}
	return v, nil
}

// Map returns the values keyed by field name.
func (v Values) Map() map[string]string {
	out := make(map[string]string, len(Fields))
	for _, name := range Fields {
		out[name], _ = v.Get(name)
	}
	return out
}

// IsZero reports whether every field is empty.
func (v Values) IsZero() bool { return v == Values{} }

// FromMap builds Values from loosely typed input such as decoded JSON.
// Anything that is not a string is treated as the empty string, and
// unknown keys are ignored.
func FromMap(m map[string]any) Values {
	var v Values
	for _, name := range Fields {
		s, _ := m[name].(string)
		v, _ = v.With(name, s)
	}
	return v
}

// FromURLValues builds Values from a parsed urlencoded body.  Only the
// first value of each key is used.
func FromURLValues(posted url.Values) Values {
	var v Values
	for _, name := range Fields {
		v, _ = v.With(name, posted.Get(name))
	}
	return v
}
