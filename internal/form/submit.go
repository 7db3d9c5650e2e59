// internal/form/submit.go
//
// Contact form – submission controller.
//
// Context
//   A Controller owns the state of one form instance: current values, the
//   touched set, the submission state, and the success message.  Callers
//   mutate it only through explicit operations (SetField, TouchField,
//   Submit, Reset).  There is no hidden reactivity.
//
// Workflow
//   Idle --Submit(valid)--> Submitting --side effect ok--> Idle (reset, success)
//   Idle --Submit(invalid)--> Idle (ErrInvalidSubmission)
//   Submitting --Submit--> Submitting (ErrAlreadySubmitting)
//   Submitting --side effect error / ctx done--> Idle (ErrSubmissionFailed,
//   values kept so the user can resubmit)
//
// Notes
//   •  The Submitter runs without the mutex held, so a second Submit during
//      the side effect observes Submitting and is rejected.  At most one
//      submission is in flight per Controller.
//   •  No automatic retry.  A failed submission is returned to the caller,
//      who decides whether to submit again.
//
//------------------------------------------------------------------------------

package form

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/yanizio/contactform/internal/logger"
	"github.com/yanizio/contactform/internal/metrics"
)

// SuccessMessage is shown after a successful submission.
const SuccessMessage = "Your form was submitted!"

// Submission errors.  Both rejection errors satisfy
// errors.Is(err, ErrSubmissionRejected); callers usually ignore them.
var (
	ErrSubmissionRejected = errors.New("submission rejected")
	ErrInvalidSubmission  = fmt.Errorf("%w: form is invalid", ErrSubmissionRejected)
	ErrAlreadySubmitting  = fmt.Errorf("%w: a submission is already in flight", ErrSubmissionRejected)
	ErrSubmissionFailed   = errors.New("submission failed")
)

// IsRejected reports whether err is a submission rejection.
func IsRejected(err error) bool { return errors.Is(err, ErrSubmissionRejected) }

// -----------------------------------------------------------------------------
// State
// -----------------------------------------------------------------------------

// State is the submission state of a Controller.
type State int

const (
	Idle State = iota
	Submitting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// -----------------------------------------------------------------------------
// Submitter
// -----------------------------------------------------------------------------

// Submitter performs the side effect of a valid submission.
type Submitter interface {
	Submit(ctx context.Context, values Values) error
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, values Values) error

// Submit calls f.
func (f SubmitterFunc) Submit(ctx context.Context, values Values) error { return f(ctx, values) }

// Noop always succeeds.
var Noop Submitter = SubmitterFunc(func(context.Context, Values) error { return nil })

// -----------------------------------------------------------------------------
// Controller
// -----------------------------------------------------------------------------

// Controller gates submission on validity and tracks one form's state.  It
// is safe for concurrent use and reusable indefinitely.
type Controller struct {
	validator *Validator
	sink      Submitter
	log       *zap.SugaredLogger

	mu      sync.Mutex
	values  Values
	touched map[string]bool
	state   State
	success string
}

// Option configures a Controller.
type Option func(*Controller)

// WithValidator selects the validator (and therefore the message catalog).
func WithValidator(v *Validator) Option { return func(c *Controller) { c.validator = v } }

// WithSubmitter sets the side effect run for valid submissions.
func WithSubmitter(s Submitter) Option { return func(c *Controller) { c.sink = s } }

// WithLogger pins the logger.  Without it each Submit logs through
// logger.FromContext of its own context.
func WithLogger(l *zap.SugaredLogger) Option { return func(c *Controller) { c.log = l } }

// NewController returns an Idle controller holding an empty form.
func NewController(opts ...Option) *Controller {
	c := &Controller{touched: make(map[string]bool)}
	for _, o := range opts {
		o(c)
	}
	if c.validator == nil {
		c.validator = defaultValidator
	}
	if c.sink == nil {
		c.sink = Noop
	}
	return c
}

func (c *Controller) logFor(ctx context.Context) *zap.SugaredLogger {
	if c.log != nil {
		return c.log
	}
	return logger.FromContext(ctx)
}

// SetField updates one field value.
func (c *Controller) SetField(name, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, err := c.values.With(name, value)
	if err != nil {
		return err
	}
	c.values = v
	return nil
}

// TouchField marks a field as interacted with.
func (c *Controller) TouchField(name string) error {
	if !IsField(name) {
		return fmt.Errorf("unknown field %q", name)
	}
	c.mu.Lock()
	c.touched[name] = true
	c.mu.Unlock()
	return nil
}

// Touched reports whether the field has been touched.
func (c *Controller) Touched(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.touched[name]
}

// Values returns a copy of the current values.
func (c *Controller) Values() Values {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.values
}

// Errors validates the current values.  Every field is reported, touched or
// not.
func (c *Controller) Errors() FieldErrors { return c.validator.Validate(c.Values()) }

// VisibleErrors returns the errors of touched fields only.
func (c *Controller) VisibleErrors() FieldErrors {
	c.mu.Lock()
	v := c.values
	touched := make(map[string]bool, len(c.touched))
	for k, t := range c.touched {
		touched[k] = t
	}
	c.mu.Unlock()

	out := FieldErrors{}
	for name, e := range c.validator.Validate(v) {
		if touched[name] {
			out[name] = e
		}
	}
	return out
}

// State returns the submission state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SuccessMessage returns the message set by the last successful submission,
// or "" when there is none.
func (c *Controller) SuccessMessage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.success
}

// ClearSuccess drops the success message.
func (c *Controller) ClearSuccess() {
	c.mu.Lock()
	c.success = ""
	c.mu.Unlock()
}

// Reset empties the values and touched set.  It does not interrupt an
// in-flight submission.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.resetLocked()
	c.mu.Unlock()
}

func (c *Controller) resetLocked() {
	c.values = Values{}
	c.touched = make(map[string]bool)
}

// Submit validates values and, when valid, runs the side effect.  On success
// the form is reset and SuccessMessage is set.  Rejections wrap
// ErrSubmissionRejected; side-effect failures and cancellation wrap
// ErrSubmissionFailed.  A rejected call only marks every field touched;
// an accepted one adopts values as the current form values.
func (c *Controller) Submit(ctx context.Context, values Values) error {
	errs := c.validator.Validate(values)
	log := c.logFor(ctx)

	c.mu.Lock()
	if c.state == Submitting {
		c.mu.Unlock()
		metrics.SubmissionsTotal.WithLabelValues(metrics.OutcomeInFlight).Inc()
		log.Debugw("submit rejected", "reason", "in flight")
		return ErrAlreadySubmitting
	}
	for _, name := range Fields {
		c.touched[name] = true
	}
	if !errs.Valid() {
		c.mu.Unlock()
		metrics.SubmissionsTotal.WithLabelValues(metrics.OutcomeInvalid).Inc()
		for _, e := range errs {
			metrics.ValidationErrorsTotal.WithLabelValues(e.Name, string(e.Kind)).Inc()
		}
		log.Debugw("submit rejected", "reason", "invalid", "fields", len(errs))
		return ErrInvalidSubmission
	}
	c.values = values
	c.state = Submitting
	c.success = ""
	c.mu.Unlock()

	metrics.SubmissionsInFlight.Inc()
	err := ctx.Err()
	if err == nil {
		err = c.sink.Submit(ctx, values)
	}
	metrics.SubmissionsInFlight.Dec()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Idle

	if err != nil {
		metrics.SubmissionsTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
		log.Warnw("submission failed", "error", err)
		return fmt.Errorf("%w: %w", ErrSubmissionFailed, err)
	}

	c.resetLocked()
	c.success = SuccessMessage
	metrics.SubmissionsTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
	log.Infow("form submitted")
	return nil
}
