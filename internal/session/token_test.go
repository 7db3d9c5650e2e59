package session

import (
	"bytes"
	"encoding/base64"
	"errors"
	"testing"
	"time"
)

func TestSigner_IssueVerify(t *testing.T) {
	s, err := NewSigner(bytes.Repeat([]byte{7}, MinKeyBytes))
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	tok, err := s.Issue()
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if !s.Verify(tok) {
		t.Fatalf("fresh token rejected")
	}

	other, _ := s.Issue()
	if other == tok {
		t.Fatalf("tokens are not unique")
	}
}

func TestSigner_Rejects(t *testing.T) {
	s, _ := NewSigner(nil)
	tok, _ := s.Issue()

	foreign, _ := NewSigner(nil)
	if foreign.Verify(tok) {
		t.Fatalf("token accepted by a different key")
	}
	if s.Verify("not-a-token") || s.Verify("") {
		t.Fatalf("garbage accepted")
	}

	raw, _ := base64.RawURLEncoding.DecodeString(tok)
	raw[len(raw)-1] ^= 0xff
	if s.Verify(base64.RawURLEncoding.EncodeToString(raw)) {
		t.Fatalf("tampered token accepted")
	}
}

func TestSigner_Expiry(t *testing.T) {
	s, _ := NewSigner(nil)
	base := time.Now()
	s.now = func() time.Time { return base }
	tok, _ := s.Issue()

	s.now = func() time.Time { return base.Add(MaxAge + time.Second) }
	if s.Verify(tok) {
		t.Fatalf("expired token accepted")
	}

	s.now = func() time.Time { return base.Add(-2 * time.Minute) }
	if s.Verify(tok) {
		t.Fatalf("future token accepted")
	}
}

func TestNewSigner_ShortKey(t *testing.T) {
	if _, err := NewSigner([]byte("short")); !errors.Is(err, ErrShortKey) {
		t.Fatalf("err = %v, want ErrShortKey", err)
	}
}

func TestDecodeKey(t *testing.T) {
	key := bytes.Repeat([]byte{1}, MinKeyBytes)
	for _, enc := range []string{
		base64.RawURLEncoding.EncodeToString(key),
		base64.URLEncoding.EncodeToString(key),
	} {
		got, err := DecodeKey(enc)
		if err != nil || !bytes.Equal(got, key) {
			t.Fatalf("DecodeKey(%q) = %v, %v", enc, got, err)
		}
	}
	if got, err := DecodeKey(""); got != nil || err != nil {
		t.Fatalf("empty key = %v, %v", got, err)
	}
	if _, err := DecodeKey("!!"); err == nil {
		t.Fatalf("expected decode error")
	}
}
