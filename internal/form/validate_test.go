// internal/form/validate_test.go
//
// Unit-tests for the contact validation rules.
//
// Run: go test ./internal/form -v

package form

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func validValues() Values {
	return Values{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "a@b.com",
		Phone:     "123456789",
		ZipCode:   "12345",
	}
}

// kindsOf reduces errors to field → kind for compact comparisons.
func kindsOf(fe FieldErrors) map[string]Kind {
	out := make(map[string]Kind, len(fe))
	for name, e := range fe {
		out[name] = e.Kind
	}
	return out
}

func TestValidate_AllValid(t *testing.T) {
	errs, ok := Validate(validValues())
	if !ok {
		t.Fatalf("expected valid, got %#v", errs)
	}
	if len(errs) != 0 {
		t.Fatalf("expected no errors, got %d", len(errs))
	}
}

func TestValidate_EmptyForm(t *testing.T) {
	errs, ok := Validate(Values{})
	if ok {
		t.Fatalf("empty form reported valid")
	}

	want := map[string]Kind{
		FieldFirstName: KindRequired,
		FieldLastName:  KindRequired,
		FieldEmail:     KindRequired,
		FieldPhone:     KindRequired,
		FieldZipCode:   KindRequired,
	}
	if diff := cmp.Diff(want, kindsOf(errs)); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}
	if got := errs.Message(FieldEmail); got != "*Email is required" {
		t.Fatalf("email message = %q", got)
	}
}

func TestValidate_FieldRules(t *testing.T) {
	cases := []struct {
		name  string
		field string
		value string
		want  Kind // "" means the field passes
	}{
		{"first name too short", FieldFirstName, "A", KindTooShort},
		{"first name too long", FieldFirstName, strings.Repeat("a", 101), KindTooLong},
		{"first name at max", FieldFirstName, strings.Repeat("a", 100), ""},
		{"first name at min", FieldFirstName, "Al", ""},
		{"last name too short", FieldLastName, "Li", KindTooShort},
		{"last name at min", FieldLastName, "Lee", ""},
		{"last name too long", FieldLastName, strings.Repeat("b", 101), KindTooLong},
		{"email format", FieldEmail, "not-an-email", KindFormat},
		{"email ok", FieldEmail, "a@b.com", ""},
		{"email too long", FieldEmail, strings.Repeat("x", 60) + "@" + strings.Repeat("d", 40) + ".com", KindTooLong},
		{"phone non-digit", FieldPhone, "12345678a", KindFormat},
		{"phone separators", FieldPhone, "123-456-789", KindFormat},
		{"phone too short", FieldPhone, "12345678", KindTooShort},
		{"phone ok", FieldPhone, "123456789", ""},
		{"zip non-digit", FieldZipCode, "12a45", KindFormat},
		{"zip ok", FieldZipCode, "12345", ""},
		{"zip single digit", FieldZipCode, "1", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v, err := validValues().With(tc.field, tc.value)
			if err != nil {
				t.Fatalf("With: %v", err)
			}
			errs, ok := Validate(v)

			if tc.want == "" {
				if !ok {
					t.Fatalf("expected valid, got %#v", errs)
				}
				return
			}
			if ok {
				t.Fatalf("expected %s error, got valid", tc.want)
			}
			if len(errs) != 1 {
				t.Fatalf("expected exactly one error, got %#v", errs)
			}
			if got := errs[tc.field].Kind; got != tc.want {
				t.Fatalf("kind = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestValidate_FirstFailingRuleWins(t *testing.T) {
	// An 8-character phone with a letter fails both format and length;
	// format is listed first.
	v := validValues()
	v.Phone = "1234567a"
	errs, _ := Validate(v)
	if got := errs[FieldPhone].Kind; got != KindFormat {
		t.Fatalf("phone kind = %q, want %q", got, KindFormat)
	}
	if got := errs.Message(FieldPhone); got != "*Phone number is not valid" {
		t.Fatalf("phone message = %q", got)
	}
}

func TestValidate_Deterministic(t *testing.T) {
	v := Values{FirstName: "A", Email: "nope", Phone: "12", ZipCode: "x"}
	first, _ := Validate(v)
	for i := 0; i < 5; i++ {
		again, _ := Validate(v)
		if diff := cmp.Diff(first, again); diff != "" {
			t.Fatalf("run %d differs (-first +again):\n%s", i, diff)
		}
	}
}

func TestValidate_ListOrder(t *testing.T) {
	errs, _ := Validate(Values{})
	var got []string
	for _, e := range errs.List() {
		got = append(got, e.Name)
	}
	if diff := cmp.Diff(Fields, got); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestFromMap_NonStringIsEmpty(t *testing.T) {
	v := FromMap(map[string]any{
		"firstName": "Ada",
		"lastName":  42,
		"email":     nil,
		"phone":     []string{"123456789"},
		"zipCode":   "12345",
		"unknown":   "ignored",
	})
	want := Values{FirstName: "Ada", ZipCode: "12345"}
	if v != want {
		t.Fatalf("FromMap = %#v, want %#v", v, want)
	}

	errs, _ := Validate(v)
	if errs[FieldLastName].Kind != KindRequired {
		t.Fatalf("lastName kind = %q, want required", errs[FieldLastName].Kind)
	}
}

func TestValues_WithUnknownField(t *testing.T) {
	if _, err := (Values{}).With("middleName", "x"); err == nil {
		t.Fatalf("expected error for unknown field")
	}
}

func TestNewValidator_CustomMessages(t *testing.T) {
	msgs, err := ParseMessages([]byte("zipCode:\n  format: \"Digits only, please.\"\n"))
	if err != nil {
		t.Fatalf("ParseMessages: %v", err)
	}
	v := validValues()
	v.ZipCode = "ab"

	errs := NewValidator(msgs).Validate(v)
	if got := errs.Message(FieldZipCode); got != "Digits only, please." {
		t.Fatalf("zip message = %q", got)
	}
	// Untouched entries keep the stock wording.
	errs = NewValidator(msgs).Validate(Values{})
	if got := errs.Message(FieldZipCode); got != "*Zip code number required" {
		t.Fatalf("zip required message = %q", got)
	}
}
