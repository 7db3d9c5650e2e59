// internal/vault/vault.go
//
// Boot-time secret lookups for the contact service.
//
// Context
// -------
//   - Config may name the submission DB DSN and the form-session signing key
//     by reference instead of by value.  A reference has the form
//     "mount/path#key" and points at one string field of a KV-v2 secret,
//     e.g. "secret/contact#dsn".
//   - main resolves each reference once during boot.  Nothing is cached:
//     a config reload resolves again.
//   - The client keeps its token alive in the background for as long as
//     the boot context lives.
//
// Environment
// -----------
//   VAULT_ADDR and VAULT_TOKEN, read by the SDK (VAULT_TOKEN falls back to
//   ~/.vault-token).
package vault

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	vault "github.com/hashicorp/vault/api"
	"go.uber.org/zap"
)

// ErrBadRef is returned for malformed secret references.
var ErrBadRef = errors.New("vault: secret reference must be mount/path#key")

const renewRetry = 30 * time.Second

// Ref names one string field inside a KV-v2 secret.
type Ref struct {
	Mount string // "secret"
	Path  string // "contact" or "apps/contact"
	Key   string // "dsn"
}

// ParseRef splits "mount/path#key".  Every part must be non-empty.
func ParseRef(s string) (Ref, error) {
	loc, key, ok := strings.Cut(s, "#")
	if !ok || key == "" {
		return Ref{}, fmt.Errorf("%w: %q", ErrBadRef, s)
	}
	mount, path, ok := strings.Cut(loc, "/")
	if !ok || mount == "" || strings.Trim(path, "/") == "" {
		return Ref{}, fmt.Errorf("%w: %q", ErrBadRef, s)
	}
	return Ref{Mount: mount, Path: strings.Trim(path, "/"), Key: key}, nil
}

func (r Ref) String() string { return r.Mount + "/" + r.Path + "#" + r.Key }

// Client reads referenced secrets.  Safe for concurrent use.
type Client struct {
	api *vault.Client
	log *zap.SugaredLogger
}

// New builds a client from the VAULT_* environment and starts keeping the
// token alive until ctx ends.
func New(ctx context.Context, log *zap.SugaredLogger) (*Client, error) {
	if log == nil {
		log = zap.S()
	}

	cfg := vault.DefaultConfig()
	if err := cfg.ReadEnvironment(); err != nil {
		return nil, fmt.Errorf("vault env cfg: %w", err)
	}
	api, err := vault.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vault api: %w", err)
	}
	if tok := os.Getenv("VAULT_TOKEN"); tok != "" {
		api.SetToken(tok)
	}

	c := &Client{api: api, log: log}
	go c.keepTokenAlive(ctx)
	return c, nil
}

// Read returns the string stored under ref.
func (c *Client) Read(ctx context.Context, ref Ref) (string, error) {
	sec, err := c.api.KVv2(ref.Mount).Get(ctx, ref.Path)
	if err != nil {
		return "", fmt.Errorf("vault read %s/%s: %w", ref.Mount, ref.Path, err)
	}
	raw, ok := sec.Data[ref.Key]
	if !ok {
		return "", fmt.Errorf("vault %s: key not found", ref)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("vault %s: value is %T, not a string", ref, raw)
	}
	return s, nil
}

// Resolve parses ref and reads it.
func (c *Client) Resolve(ctx context.Context, ref string) (string, error) {
	r, err := ParseRef(ref)
	if err != nil {
		return "", err
	}
	v, err := c.Read(ctx, r)
	if err != nil {
		return "", err
	}
	c.log.Debugw("vault secret resolved", "ref", r.String())
	return v, nil
}

/*──────────────────────────── token upkeep ────────────────────────────────*/

func (c *Client) keepTokenAlive(ctx context.Context) {
	for ctx.Err() == nil {
		sleep(ctx, c.watchToken(ctx))
	}
}

// watchToken renews the token until renewal stops and returns how long to
// wait before the next attempt.
func (c *Client) watchToken(ctx context.Context) time.Duration {
	sec, err := c.api.Auth().Token().RenewSelfWithContext(ctx, 0)
	if err != nil {
		c.log.Warnw("vault token renew-self failed", "error", err)
		return renewRetry
	}
	if sec == nil || sec.Auth == nil || !sec.Auth.Renewable {
		c.log.Infow("vault token not renewable", "recheck_in", time.Hour)
		return time.Hour
	}

	w, err := c.api.NewLifetimeWatcher(&vault.LifetimeWatcherInput{Secret: sec})
	if err != nil {
		c.log.Warnw("vault lifetime watcher init failed", "error", err)
		return renewRetry
	}
	go w.Start()
	defer w.Stop()

	for {
		select {
		case <-ctx.Done():
			return 0
		case err := <-w.DoneCh():
			if err != nil {
				c.log.Warnw("vault token renewal stopped", "error", err)
			}
			return 15 * time.Second
		case ev := <-w.RenewCh():
			if ev != nil && ev.Secret != nil && ev.Secret.Auth != nil {
				c.log.Debugw("vault token renewed", "ttl_s", ev.Secret.Auth.LeaseDuration)
			}
		}
	}
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
