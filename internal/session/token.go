// internal/session/token.go
//
// Contact service – stateless form-session tokens.
//
// Context
//   A client opens a form session with GET /contact/session and then sends
//   the token in X-Form-Session on every submit.  The server keys one
//   submission controller per token, so tokens must be unforgeable or a
//   client could grow the session cache at will.  We sign instead of
//   storing:
//
//      base64url( nonce | unixMicro | HMAC_SHA256(key, nonce+unixMicro) )
//
//   •  nonce – 16 random bytes.  Makes every token unique.
//   •  unixMicro – microseconds since Unix epoch, 8 bytes, big-endian.
//   •  HMAC – calculated with the configured key.  Verifies authenticity.
//
//   Verification checks the signature and that the timestamp is within
//   MaxAge.  No server-side storage is required, so any instance sharing
//   the key accepts the token.
//
// Workflow
//   •  NewSigner(key)  → signer; an empty key selects a random one.
//   •  Issue()         → token string for the client.
//   •  Verify(tok)     → constant-time verify; false on any failure.
//
//------------------------------------------------------------------------------

package session

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

const (
	nonceBytes = 16
	tokenBytes = nonceBytes + 8 + sha256.Size // nonce + ts + sig

	// MaxAge bounds how long an issued token stays valid.
	MaxAge = 2 * time.Hour

	// MinKeyBytes is the shortest accepted signing key.
	MinKeyBytes = 32
)

// ErrShortKey is returned for signing keys under MinKeyBytes.
var ErrShortKey = errors.New("session key too short")

// Signer issues and verifies tokens.  Safe for concurrent use.
type Signer struct {
	key    []byte
	maxAge time.Duration
	now    func() time.Time
}

// NewSigner returns a signer for key.  An empty key selects a random one,
// which means tokens do not survive a restart.
func NewSigner(key []byte) (*Signer, error) {
	if len(key) == 0 {
		key = make([]byte, MinKeyBytes)
		if _, err := rand.Read(key); err != nil {
			return nil, err
		}
	}
	if len(key) < MinKeyBytes {
		return nil, fmt.Errorf("%w: %d bytes, want at least %d", ErrShortKey, len(key), MinKeyBytes)
	}
	return &Signer{key: key, maxAge: MaxAge, now: time.Now}, nil
}

// DecodeKey parses a base64url (raw or padded) signing key.  An empty
// string yields a nil key.
func DecodeKey(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	if b, err := base64.RawURLEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	b, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("session key: %w", err)
	}
	return b, nil
}

// Issue creates a new token.
func (s *Signer) Issue() (string, error) {
	nonce := make([]byte, nonceBytes)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	ts := make([]byte, 8)
	binary.BigEndian.PutUint64(ts, uint64(s.now().UnixMicro()))

	buf := make([]byte, 0, tokenBytes)
	buf = append(buf, nonce...)
	buf = append(buf, ts...)
	buf = append(buf, s.sign(nonce, ts)...)

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Verify reports whether tok was issued by this signer and is not expired.
func (s *Signer) Verify(tok string) bool {
	raw, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil || len(raw) != tokenBytes {
		return false
	}

	nonce := raw[:nonceBytes]
	tsBytes := raw[nonceBytes : nonceBytes+8]
	sig := raw[nonceBytes+8:]

	issued := time.UnixMicro(int64(binary.BigEndian.Uint64(tsBytes)))
	now := s.now()
	if now.Sub(issued) > s.maxAge || issued.Sub(now) > time.Minute {
		// Expired, or from the future beyond clock skew.
		return false
	}

	return hmac.Equal(sig, s.sign(nonce, tsBytes))
}

func (s *Signer) sign(nonce, ts []byte) []byte {
	mac := hmac.New(sha256.New, s.key)
	mac.Write(nonce)
	mac.Write(ts)
	return mac.Sum(nil)
}
