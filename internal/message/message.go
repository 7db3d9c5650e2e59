// internal/message/message.go
//
// Contact service – outbound message queue.
//
// Context
//   Submission actions enqueue outbound messages such as emails and
//   webhooks.  The Outbox is a bounded in-memory queue drained by one
//   worker goroutine, so the caller's request returns promptly and a slow
//   webhook never holds a form in the Submitting state.
//
// Workflow
//   •  EnqueueEmail / EnqueueWebhook push a job or fail with ErrQueueFull.
//   •  Run delivers jobs until its context is cancelled, then drains
//      whatever is left until DrainTimeout elapses.  Jobs still pending
//      after that are dropped and counted.
//   •  Every delivery runs under JobTimeout, so one endpoint that never
//      answers delays the queue by at most that long.
//   •  Webhooks are delivered with the Outbox's *http.Client; any non-2xx
//      status is a failure.  Emails go through the Mailer.  Every job is
//      logged and counted.
//
//------------------------------------------------------------------------------

package message

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/smtp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/contactform/internal/metrics"
)

// ErrQueueFull is returned when the outbox cannot accept another job.
var ErrQueueFull = errors.New("outbox queue full")

// Email represents a basic outbound email job.
type Email struct {
	To      []string
	Subject string
	Text    string
}

// Mailer delivers one email.
type Mailer interface {
	Send(ctx context.Context, msg Email) error
}

// MailerFunc adapts a function to Mailer.
type MailerFunc func(ctx context.Context, msg Email) error

// Send calls f.
func (f MailerFunc) Send(ctx context.Context, msg Email) error { return f(ctx, msg) }

// LogMailer writes the email summary to the log instead of sending it.
func LogMailer(log *zap.SugaredLogger) Mailer {
	return MailerFunc(func(_ context.Context, msg Email) error {
		log.Infow("email (log only)", "to", msg.To, "subject", msg.Subject, "len", len(msg.Text))
		return nil
	})
}

// SMTPMailer sends plain-text mail through an SMTP relay without auth.
// STARTTLS is used when the relay offers it.  The context bounds the whole
// exchange.
func SMTPMailer(addr, from string) Mailer {
	return MailerFunc(func(ctx context.Context, msg Email) error {
		var d net.Dialer
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return fmt.Errorf("smtp dial %s: %w", addr, err)
		}
		if dl, ok := ctx.Deadline(); ok {
			_ = conn.SetDeadline(dl)
		}

		host, _, _ := net.SplitHostPort(addr)
		c, err := smtp.NewClient(conn, host)
		if err != nil {
			conn.Close()
			return fmt.Errorf("smtp hello %s: %w", addr, err)
		}
		defer c.Close()

		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(&tls.Config{ServerName: host}); err != nil {
				return fmt.Errorf("smtp starttls: %w", err)
			}
		}
		if err := c.Mail(from); err != nil {
			return err
		}
		for _, rcpt := range msg.To {
			if err := c.Rcpt(rcpt); err != nil {
				return fmt.Errorf("smtp rcpt %s: %w", rcpt, err)
			}
		}
		w, err := c.Data()
		if err != nil {
			return err
		}
		if _, err := io.WriteString(w, formatEmail(from, msg)); err != nil {
			return err
		}
		if err := w.Close(); err != nil {
			return err
		}
		return c.Quit()
	})
}

func formatEmail(from string, msg Email) string {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(msg.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(msg.Text)
	return b.String()
}

type job struct {
	kind  string // "email" or "webhook"
	email Email
	req   *http.Request
}

// Default timeouts applied by NewOutbox.
const (
	DefaultJobTimeout   = 10 * time.Second
	DefaultDrainTimeout = 30 * time.Second
)

// Outbox queues and delivers outbound messages.  Create with NewOutbox and
// start Run in its own goroutine.
type Outbox struct {
	jobs         chan job
	client       *http.Client
	mailer       Mailer
	log          *zap.SugaredLogger
	jobTimeout   time.Duration
	drainTimeout time.Duration
}

// Options configures an Outbox.  Zero values select the defaults.
type Options struct {
	Size         int                // pending jobs held; minimum 1
	Client       *http.Client       // nil selects http.DefaultClient
	Mailer       Mailer             // nil logs emails
	Log          *zap.SugaredLogger // nil selects zap.S()
	JobTimeout   time.Duration      // per delivery
	DrainTimeout time.Duration      // flush at shutdown
}

// NewOutbox returns an outbox configured by opts.
func NewOutbox(opts Options) *Outbox {
	if opts.Size < 1 {
		opts.Size = 1
	}
	if opts.Client == nil {
		opts.Client = http.DefaultClient
	}
	if opts.Log == nil {
		opts.Log = zap.S()
	}
	if opts.Mailer == nil {
		opts.Mailer = LogMailer(opts.Log)
	}
	if opts.JobTimeout <= 0 {
		opts.JobTimeout = DefaultJobTimeout
	}
	if opts.DrainTimeout <= 0 {
		opts.DrainTimeout = DefaultDrainTimeout
	}
	return &Outbox{
		jobs:         make(chan job, opts.Size),
		client:       opts.Client,
		mailer:       opts.Mailer,
		log:          opts.Log,
		jobTimeout:   opts.JobTimeout,
		drainTimeout: opts.DrainTimeout,
	}
}

// EnqueueEmail queues msg for delivery.
func (o *Outbox) EnqueueEmail(_ context.Context, msg Email) error {
	if len(msg.To) == 0 {
		return errors.New("email has no recipients")
	}
	return o.push(job{kind: "email", email: msg})
}

// EnqueueWebhook queues req for delivery.  The request's own context is
// replaced by the worker's at send time, since the caller's context usually
// ends before delivery.
func (o *Outbox) EnqueueWebhook(_ context.Context, req *http.Request) error {
	if req == nil || req.URL == nil {
		return errors.New("webhook request has no URL")
	}
	return o.push(job{kind: "webhook", req: req})
}

func (o *Outbox) push(j job) error {
	select {
	case o.jobs <- j:
		return nil
	default:
		metrics.OutboxJobsTotal.WithLabelValues(j.kind, "dropped").Inc()
		return ErrQueueFull
	}
}

// Len reports the number of pending jobs.
func (o *Outbox) Len() int { return len(o.jobs) }

// Run delivers jobs until ctx is done, then drains the pending ones for at
// most the drain timeout.
func (o *Outbox) Run(ctx context.Context) error {
	base := context.WithoutCancel(ctx)
	for ctx.Err() == nil {
		select {
		case j := <-o.jobs:
			o.deliver(base, j)
		case <-ctx.Done():
		}
	}

	dctx, cancel := context.WithTimeout(base, o.drainTimeout)
	defer cancel()
	o.drain(dctx)
	return nil
}

func (o *Outbox) drain(ctx context.Context) {
	for ctx.Err() == nil {
		select {
		case j := <-o.jobs:
			o.deliver(ctx, j)
		default:
			return
		}
	}

	dropped := 0
	for {
		select {
		case j := <-o.jobs:
			metrics.OutboxJobsTotal.WithLabelValues(j.kind, "dropped").Inc()
			dropped++
		default:
			if dropped > 0 {
				o.log.Warnw("outbox drain timed out", "dropped", dropped)
			}
			return
		}
	}
}

func (o *Outbox) deliver(ctx context.Context, j job) {
	ctx, cancel := context.WithTimeout(ctx, o.jobTimeout)
	defer cancel()

	var err error
	switch j.kind {
	case "email":
		err = o.mailer.Send(ctx, j.email)
	case "webhook":
		err = o.sendWebhook(ctx, j.req)
	}

	if err != nil {
		metrics.OutboxJobsTotal.WithLabelValues(j.kind, "failed").Inc()
		o.log.Errorw("outbox delivery failed", "kind", j.kind, "error", err)
		return
	}
	metrics.OutboxJobsTotal.WithLabelValues(j.kind, "delivered").Inc()
	o.log.Debugw("outbox delivered", "kind", j.kind)
}

func (o *Outbox) sendWebhook(ctx context.Context, req *http.Request) error {
	resp, err := o.client.Do(req.Clone(ctx))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook %s %s: status %d", req.Method, req.URL, resp.StatusCode)
	}
	return nil
}
