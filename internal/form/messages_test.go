package form

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMessages_EmptyPathIsDefault(t *testing.T) {
	m, err := LoadMessages("")
	if err != nil {
		t.Fatalf("LoadMessages: %v", err)
	}
	if got := m.Lookup(FieldFirstName, KindTooShort); got != "*First names must have at least 2 characters" {
		t.Fatalf("default message = %q", got)
	}
}

func TestLoadMessages_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages.yaml")
	raw := "phone:\n  too_short: \"At least nine digits.\"\n"
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	m, err := LoadMessages(path)
	if err != nil {
		t.Fatalf("LoadMessages: %v", err)
	}
	if got := m.Lookup(FieldPhone, KindTooShort); got != "At least nine digits." {
		t.Fatalf("override = %q", got)
	}
	if got := m.Lookup(FieldPhone, KindFormat); got != "*Phone number is not valid" {
		t.Fatalf("untouched entry = %q", got)
	}
}

func TestParseMessages_Rejects(t *testing.T) {
	cases := map[string]string{
		"unknown field": "middleName:\n  required: x\n",
		"unknown kind":  "email:\n  shouty: x\n",
		"empty message": "email:\n  required: \"\"\n",
		"bad yaml":      "email: [\n",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseMessages([]byte(raw)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestParseMessages_DoesNotMutateDefaults(t *testing.T) {
	if _, err := ParseMessages([]byte("email:\n  required: changed\n")); err != nil {
		t.Fatalf("ParseMessages: %v", err)
	}
	if got := DefaultMessages().Lookup(FieldEmail, KindRequired); got != "*Email is required" {
		t.Fatalf("defaults mutated: %q", got)
	}
}

func TestMessages_LookupFallback(t *testing.T) {
	if got := (Messages{}).Lookup(FieldEmail, KindRequired); got != fallbackMsg {
		t.Fatalf("fallback = %q", got)
	}
}
