// internal/config/model.go
//
// Typed configuration model for the contact service.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from four overlay layers:
//
//   • built-in defaults                          – lowest precedence,
//   • optional `conf/.env`                       – dotenv values,
//   • optional `conf/contact.yaml`               – primary static file,
//   • `CONTACT_`-prefixed environment overrides  – highest precedence.
//
// Validation happens immediately after unmarshal; the app fails fast if a
// value is malformed.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.  Koanf ignores `yaml`
//     tags unless configured otherwise.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.

package config

import (
	"time"

	"github.com/yanizio/contactform/internal/form"
)

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr string `koanf:"listen_addr" validate:"required,hostname_port"`
	ForceHTTPS bool   `koanf:"force_https"`
	GeoIPDB    string `koanf:"geoip_db"` // optional GeoLite2-City .mmdb
}

//
// Database section
//

// Database is optional.  With an empty DSN (and no secrets.dsn_ref) the
// service runs without the store action.
type Database struct {
	DSN     string `koanf:"dsn"`
	MaxOpen int    `koanf:"max_open" validate:"gte=0"`
	MaxIdle int    `koanf:"max_idle" validate:"gte=0"`
}

//
// Log section
//

// Log selects log sinks.  An empty Dir logs to the console only.
type Log struct {
	Dir   string `koanf:"dir"`
	Level string `koanf:"level" validate:"omitempty,oneof=debug info warn error"`
	Tee   bool   `koanf:"tee"`
}

//
// Form section
//

// Form configures the contact form itself.  SessionKey is a base64url
// HMAC key for form-session tokens; empty selects a random per-process key.
type Form struct {
	ID             string           `koanf:"id"              validate:"required,max=64"`
	MessagesFile   string           `koanf:"messages_file"`
	SessionCap     int              `koanf:"session_cap"     validate:"gte=1"`
	SessionKey     string           `koanf:"session_key"`
	RequireSession bool             `koanf:"require_session"`
	Actions        []form.ActionDef `koanf:"actions"`
}

//
// Mail section
//

// Mail configures the SMTP relay.  An empty SMTPAddr logs emails instead.
type Mail struct {
	SMTPAddr string `koanf:"smtp_addr" validate:"omitempty,hostname_port"`
	From     string `koanf:"from"      validate:"omitempty,email"`
}

//
// Outbox section
//

// Outbox sizes the outbound message queue.  JobTimeout bounds one email or
// webhook delivery; DrainTimeout bounds the flush of pending jobs at
// shutdown.
type Outbox struct {
	QueueSize    int           `koanf:"queue_size"    validate:"gte=1"`
	JobTimeout   time.Duration `koanf:"job_timeout"   validate:"gt=0"`
	DrainTimeout time.Duration `koanf:"drain_timeout" validate:"gt=0"`
}

//
// Secrets section
//

// Secrets names values resolved from Vault at boot.  Each reference has
// the form "mount/path#key"; an empty reference keeps the plain value.
type Secrets struct {
	DSNRef        string `koanf:"dsn_ref"`
	SessionKeyRef string `koanf:"session_key_ref"`
}

// UsesVault reports whether any secret must be fetched from Vault.
func (s Secrets) UsesVault() bool { return s.DSNRef != "" || s.SessionKeyRef != "" }

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.
type Paths struct {
	Root string // CONTACT_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	HTTP     HTTP     `koanf:"http"`
	Database Database `koanf:"database"`
	Log      Log      `koanf:"log"`
	Form     Form     `koanf:"form"`
	Mail     Mail     `koanf:"mail"`
	Outbox   Outbox   `koanf:"outbox"`
	Secrets  Secrets  `koanf:"secrets"`
	Paths    Paths    `koanf:"-"` // not loaded from config files
}
