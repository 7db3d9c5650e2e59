// internal/config/validator.go
//
// Thin wrapper around go-playground/validator.
//
// Context
// -------
// `internal/config/loader.go` calls `validateStruct` immediately after it
// unmarshals the merged Koanf tree into a `Config` instance.  Any tag
// mismatch or validation error aborts startup, so the binary never runs
// with malformed configuration.  Action types are checked here as well
// because `form.ActionDef` is loosely typed.

package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

//
// validator instance (package-level singleton)
//

var v = validator.New()

var actionTypes = map[string]bool{"email": true, "store": true, "webhook": true}

//
// public API
//

// validateStruct returns the first validation error, or nil on success.
func validateStruct(c *Config) error {
	if err := v.Struct(c); err != nil {
		return err
	}
	if (c.Mail.SMTPAddr == "") != (c.Mail.From == "") {
		return fmt.Errorf("mail.smtp_addr and mail.from must be set together")
	}
	for i, ac := range c.Form.Actions {
		if !actionTypes[ac.Type] {
			return fmt.Errorf("form.actions[%d]: unknown type %q", i, ac.Type)
		}
		if ac.Type == "store" && c.Database.DSN == "" && c.Secrets.DSNRef == "" {
			return fmt.Errorf("form.actions[%d]: store action needs database.dsn or secrets.dsn_ref", i)
		}
	}
	return nil
}
