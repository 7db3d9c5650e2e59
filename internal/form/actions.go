// internal/form/actions.go
//
// Contact form – post-submit actions.
//
// Context
//   The service configuration may list actions to run for every valid
//   submission.  Dispatcher implements Submitter and dispatches to runEmail,
//   runStore, or runWebhook in declaration order.  Email and webhook helpers
//   queue work on the outbox so the form leaves the Submitting state
//   promptly; the store action writes synchronously.
//
// Notes
//   •  Every failing action is logged.  The failures are joined and
//      returned, which makes the submission fail and keeps the user's values
//      for a resubmit.  Actions that already succeeded are not rolled back.
//   •  Unknown action types are logged and skipped.
//   •  Every payload carries the submitting client's metadata when the
//      requestinfo middleware ran.
//
//------------------------------------------------------------------------------

package form

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/yanizio/contactform/internal/database"
	"github.com/yanizio/contactform/internal/logger"
	"github.com/yanizio/contactform/internal/message"
	"github.com/yanizio/contactform/internal/requestinfo"
)

// ActionDef configures one automated action.  Params are loosely typed so
// new kinds can be introduced without schema churn.
type ActionDef struct {
	Type   string         `koanf:"type"   yaml:"type"`   // email, store, webhook
	Params map[string]any `koanf:"params" yaml:"params"` // provider-specific fields
}

// Queue is the outbox surface the actions need.
type Queue interface {
	EnqueueEmail(ctx context.Context, msg message.Email) error
	EnqueueWebhook(ctx context.Context, req *http.Request) error
}

// Dispatcher runs the configured actions for a valid submission.
type Dispatcher struct {
	FormID  string
	Actions []ActionDef
	Queue   Queue              // required by email and webhook actions
	DB      sqlx.ExecerContext // required by store actions
}

var _ Submitter = (*Dispatcher)(nil)

// record is the payload emailed, stored, and posted for one submission.
type record struct {
	Form   string              `json:"form"`
	Values Values              `json:"values"`
	Client *requestinfo.Client `json:"client,omitempty"`
}

func (d *Dispatcher) newRecord(ctx context.Context, values Values) record {
	return record{Form: d.FormID, Values: values, Client: requestinfo.FromContext(ctx)}
}

// Submit implements Submitter.
func (d *Dispatcher) Submit(ctx context.Context, values Values) error {
	log := logger.FromContext(ctx)
	var errs []error

	for _, ac := range d.Actions {
		var err error
		switch ac.Type {
		case "email":
			err = d.runEmail(ctx, ac.Params, values)
		case "store":
			err = d.runStore(ctx, ac.Params, values)
		case "webhook":
			err = d.runWebhook(ctx, ac.Params, values)
		default:
			logWarn(log, d.FormID, ac.Type, "unsupported action")
			continue
		}
		if err != nil {
			logErr(log, d.FormID, ac.Type, err)
			errs = append(errs, fmt.Errorf("%s action: %w", ac.Type, err))
		}
	}
	return errors.Join(errs...)
}

// -----------------------------------------------------------------------------
// Email action
// -----------------------------------------------------------------------------

func (d *Dispatcher) runEmail(ctx context.Context, p map[string]any, values Values) error {
	if d.Queue == nil {
		return errors.New("no outbox configured")
	}

	var to []string
	switch v := p["to"].(type) {
	case string:
		to = []string{v}
	case []any:
		for _, e := range v {
			if s, ok := e.(string); ok && s != "" {
				to = append(to, s)
			}
		}
	case []string:
		to = v
	default:
		return fmt.Errorf("'to' parameter missing or invalid")
	}
	if len(to) == 0 {
		return fmt.Errorf("'to' parameter empty")
	}

	subject, _ := p["subject"].(string)
	if subject == "" {
		subject = fmt.Sprintf("Contact form submission: %s %s", values.FirstName, values.LastName)
	}

	body, err := json.MarshalIndent(d.newRecord(ctx, values), "", "  ")
	if err != nil {
		return err
	}
	return d.Queue.EnqueueEmail(ctx, message.Email{
		To:      to,
		Subject: subject,
		Text:    string(body),
	})
}

// -----------------------------------------------------------------------------
// Store action
// -----------------------------------------------------------------------------

func (d *Dispatcher) runStore(ctx context.Context, p map[string]any, values Values) error {
	if d.DB == nil {
		return errors.New("no database configured")
	}
	table, _ := p["table"].(string)
	return database.InsertSubmission(ctx, d.DB, table, d.FormID, d.newRecord(ctx, values))
}

// -----------------------------------------------------------------------------
// Webhook action
// -----------------------------------------------------------------------------

func (d *Dispatcher) runWebhook(ctx context.Context, p map[string]any, values Values) error {
	if d.Queue == nil {
		return errors.New("no outbox configured")
	}
	url, ok := p["url"].(string)
	if !ok || url == "" {
		return fmt.Errorf("webhook action requires 'url'")
	}
	method, _ := p["method"].(string)
	if method == "" {
		method = http.MethodPost
	}

	payload, err := json.Marshal(d.newRecord(ctx, values))
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if hdrs, ok := p["headers"].(map[string]any); ok {
		for k, v := range hdrs {
			req.Header.Set(k, fmt.Sprint(v))
		}
	}
	return d.Queue.EnqueueWebhook(ctx, req)
}

// -----------------------------------------------------------------------------
// Logging helpers
// -----------------------------------------------------------------------------

func logErr(log *zap.SugaredLogger, formID, action string, err error) {
	log.Errorw("form action failed", "form", formID, "action", action, "error", err.Error())
}

func logWarn(log *zap.SugaredLogger, formID, action, msg string) {
	log.Warnw("form action warning", "form", formID, "action", action, "warning", msg)
}
