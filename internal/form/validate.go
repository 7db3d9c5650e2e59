// internal/form/validate.go
//
// Contact form – validation.
//
// Context
//   Validate maps one Values record to FieldErrors.  The rules are the
//   `validate` tags on Values and are enforced by go-playground/validator.
//   The result is a pure function of the input: the validator instance is
//   configured once and holds no per-call state, so identical input always
//   yields identical errors.
//
// Workflow
//   •  validator walks the struct, stopping at the first failing tag of each
//      field.  Fields are independent; there are no cross-field rules.
//   •  Each validator.FieldError is mapped to a Kind by its tag and to a
//      display string through the Messages catalog.
//   •  Validate never fails.  A validator error that is not ValidationErrors
//      would mean a programming mistake in the tags and panics at start-up
//      through mustValidator instead.
//
//------------------------------------------------------------------------------

package form

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// -----------------------------------------------------------------------------
// Error types
// -----------------------------------------------------------------------------

// ErrorField describes a single validation failure so callers can render a
// field-level message.
type ErrorField struct {
	Name    string `json:"field"`
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// FieldErrors holds at most one ErrorField per field name.  An absent key
// means the field is valid.
type FieldErrors map[string]ErrorField

// Valid reports whether no field failed.
func (fe FieldErrors) Valid() bool { return len(fe) == 0 }

// Message returns the display string for name, or "" when the field passed.
func (fe FieldErrors) Message(name string) string { return fe[name].Message }

// Messages returns field name → display string.
func (fe FieldErrors) Messages() map[string]string {
	out := make(map[string]string, len(fe))
	for name, e := range fe {
		out[name] = e.Message
	}
	return out
}

// List returns the errors in display order.
func (fe FieldErrors) List() []ErrorField {
	out := make([]ErrorField, 0, len(fe))
	for _, name := range Fields {
		if e, ok := fe[name]; ok {
			out = append(out, e)
		}
	}
	return out
}

// -----------------------------------------------------------------------------
// Validator
// -----------------------------------------------------------------------------

var digitsRE = regexp.MustCompile(`^\d+$`)

// tagKinds maps validator tags to failure kinds.
var tagKinds = map[string]Kind{
	"required": KindRequired,
	"email":    KindFormat,
	"digits":   KindFormat,
	"min":      KindTooShort,
	"max":      KindTooLong,
}

// Validator evaluates Values against the contact rules.  It is safe for
// concurrent use.
type Validator struct {
	v    *validator.Validate
	msgs Messages
}

// NewValidator returns a Validator using msgs for display strings.  A nil
// catalog selects the defaults.
func NewValidator(msgs Messages) *Validator {
	if msgs == nil {
		msgs = DefaultMessages()
	}
	return &Validator{v: mustValidator(), msgs: msgs}
}

func mustValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("digits", func(fl validator.FieldLevel) bool {
		return digitsRE.MatchString(fl.Field().String())
	}); err != nil {
		panic("form: register digits rule: " + err.Error())
	}
	return v
}

// Validate returns the errors for values.  An empty result means values may
// be submitted.
func (val *Validator) Validate(values Values) FieldErrors {
	errs := FieldErrors{}

	err := val.v.Struct(values)
	if err == nil {
		return errs
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		// Only InvalidValidationError remains, and Values is always a struct.
		panic("form: " + err.Error())
	}

	for _, fe := range verrs {
		name := fe.Field()
		if _, seen := errs[name]; seen {
			continue
		}
		k, ok := tagKinds[fe.Tag()]
		if !ok {
			k = KindFormat
		}
		errs[name] = ErrorField{Name: name, Kind: k, Message: val.msgs.Lookup(name, k)}
	}
	return errs
}

// Messages returns the catalog in use.
func (val *Validator) Messages() Messages { return val.msgs }

var defaultValidator = NewValidator(nil)

// Validate checks values with the built-in catalog.
func Validate(values Values) (FieldErrors, bool) {
	errs := defaultValidator.Validate(values)
	return errs, errs.Valid()
}
