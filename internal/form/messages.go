// internal/form/messages.go
//
// Contact form – message catalog.
//
// Context
//   Every validation failure is reported as a (field, kind) pair plus a
//   display string.  The strings come from a catalog.  The built-in catalog
//   carries the contact form's stock wording; operators may override any
//   entry with a small YAML file:
//
//      firstName:
//        required: "Please tell us your first name."
//      phone:
//        too_short: "Phone numbers have at least 9 digits."
//
//   LoadMessages rejects unknown field or kind names so typos surface at
//   start-up instead of silently falling back to the default wording.
//
//------------------------------------------------------------------------------

package form

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Kind classifies a validation failure.
type Kind string

const (
	KindRequired Kind = "required"
	KindFormat   Kind = "format"
	KindTooShort Kind = "too_short"
	KindTooLong  Kind = "too_long"
)

var kinds = map[Kind]bool{
	KindRequired: true,
	KindFormat:   true,
	KindTooShort: true,
	KindTooLong:  true,
}

// fallbackMsg is used when a catalog has no entry for a (field, kind) pair.
const fallbackMsg = "Invalid input."

// Messages maps field name → kind → display string.
type Messages map[string]map[Kind]string

var stockMessages = Messages{
	FieldFirstName: {
		KindRequired: "*First name is required",
		KindTooShort: "*First names must have at least 2 characters",
		KindTooLong:  "*First name can't be longer than 100 characters",
	},
	FieldLastName: {
		KindRequired: "*Last name is required",
		KindTooShort: "*Last name must have at least 3 characters",
		KindTooLong:  "*Last name can't be longer than 100 characters",
	},
	FieldEmail: {
		KindRequired: "*Email is required",
		KindFormat:   "*Must be a valid email address",
		KindTooLong:  "*Email must be less than 100 characters",
	},
	FieldPhone: {
		KindRequired: "*Phone number required",
		KindFormat:   "*Phone number is not valid",
		KindTooShort: "*Phone number must have at least 9 numbers",
	},
	FieldZipCode: {
		KindRequired: "*Zip code number required",
		KindFormat:   "*Zip code is not valid",
	},
}

// DefaultMessages returns a copy of the built-in catalog.
func DefaultMessages() Messages { return stockMessages.clone() }

// Lookup returns the display string for field and kind.
func (m Messages) Lookup(field string, k Kind) string {
	if s := m[field][k]; s != "" {
		return s
	}
	return fallbackMsg
}

func (m Messages) clone() Messages {
	out := make(Messages, len(m))
	for field, byKind := range m {
		cp := make(map[Kind]string, len(byKind))
		for k, s := range byKind {
			cp[k] = s
		}
		out[field] = cp
	}
	return out
}

// LoadMessages reads a YAML override file and merges it over the built-in
// catalog.  An empty path returns the defaults.
func LoadMessages(path string) (Messages, error) {
	if path == "" {
		return DefaultMessages(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read message catalog %s: %w", path, err)
	}
	m, err := ParseMessages(raw)
	if err != nil {
		return nil, fmt.Errorf("message catalog %s: %w", path, err)
	}
	return m, nil
}

// ParseMessages parses YAML overrides and merges them over the defaults.
func ParseMessages(raw []byte) (Messages, error) {
	var over Messages
	if err := yaml.Unmarshal(raw, &over); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	known := make(map[string]bool, len(Fields))
	for _, f := range Fields {
		known[f] = true
	}

	out := DefaultMessages()
	for field, byKind := range over {
		if !known[field] {
			return nil, fmt.Errorf("unknown field %q", field)
		}
		for k, s := range byKind {
			if !kinds[k] {
				return nil, fmt.Errorf("field %q: unknown kind %q", field, k)
			}
			if s == "" {
				return nil, fmt.Errorf("field %q: empty message for %q", field, k)
			}
			out[field][k] = s
		}
	}
	return out, nil
}
