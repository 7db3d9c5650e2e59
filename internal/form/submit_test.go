// internal/form/submit_test.go
//
// Unit-tests for the submission controller.
//
// Context
// -------
// These tests walk the Idle → Submitting → Idle machine, the two rejection
// paths, the failure path, and the single-flight guarantee.  blockingSink
// holds a submission inside its side effect so a second Submit can be fired
// while the first is still in flight.

package form

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/yanizio/contactform/internal/logger"
	"github.com/yanizio/contactform/internal/metrics"
)

// blockingSink signals entered when Submit starts and waits for release.
type blockingSink struct {
	entered chan struct{}
	release chan struct{}
	calls   int
	mu      sync.Mutex
}

func newBlockingSink() *blockingSink {
	return &blockingSink{entered: make(chan struct{}), release: make(chan struct{})}
}

func (b *blockingSink) Submit(ctx context.Context, _ Values) error {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
	close(b.entered)
	select {
	case <-b.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestSubmit_Valid(t *testing.T) {
	var got Values
	c := NewController(WithSubmitter(SubmitterFunc(func(_ context.Context, v Values) error {
		got = v
		return nil
	})))

	before := testutil.ToFloat64(metrics.SubmissionsTotal.WithLabelValues(metrics.OutcomeSuccess))

	if err := c.Submit(context.Background(), validValues()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if got != validValues() {
		t.Fatalf("sink saw %#v", got)
	}
	if c.State() != Idle {
		t.Fatalf("state = %s, want idle", c.State())
	}
	if !c.Values().IsZero() {
		t.Fatalf("values not reset: %#v", c.Values())
	}
	if c.SuccessMessage() != "Your form was submitted!" {
		t.Fatalf("success = %q", c.SuccessMessage())
	}
	if c.Touched(FieldEmail) {
		t.Fatalf("touched set not reset")
	}

	after := testutil.ToFloat64(metrics.SubmissionsTotal.WithLabelValues(metrics.OutcomeSuccess))
	if after != before+1 {
		t.Fatalf("success counter = %v, want %v", after, before+1)
	}
}

func TestSubmit_Invalid(t *testing.T) {
	called := false
	c := NewController(WithSubmitter(SubmitterFunc(func(context.Context, Values) error {
		called = true
		return nil
	})))

	v := validValues()
	v.Email = "not-an-email"
	err := c.Submit(context.Background(), v)

	if !errors.Is(err, ErrInvalidSubmission) || !IsRejected(err) {
		t.Fatalf("err = %v, want ErrInvalidSubmission", err)
	}
	if called {
		t.Fatalf("side effect ran for invalid values")
	}
	if c.State() != Idle {
		t.Fatalf("state = %s, want idle", c.State())
	}
	if c.SuccessMessage() != "" {
		t.Fatalf("success message set on invalid submit: %q", c.SuccessMessage())
	}
	for _, name := range Fields {
		if !c.Touched(name) {
			t.Fatalf("field %s not touched after submit attempt", name)
		}
	}
}

func TestSubmit_AlreadySubmitting(t *testing.T) {
	sink := newBlockingSink()
	c := NewController(WithSubmitter(sink))

	done := make(chan error, 1)
	go func() { done <- c.Submit(context.Background(), validValues()) }()

	<-sink.entered
	if c.State() != Submitting {
		t.Fatalf("state = %s, want submitting", c.State())
	}

	err := c.Submit(context.Background(), validValues())
	if !errors.Is(err, ErrAlreadySubmitting) || !IsRejected(err) {
		t.Fatalf("second Submit err = %v, want ErrAlreadySubmitting", err)
	}

	close(sink.release)
	if err := <-done; err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	if sink.calls != 1 {
		t.Fatalf("side effect ran %d times, want 1", sink.calls)
	}
	if c.State() != Idle || c.SuccessMessage() != SuccessMessage {
		t.Fatalf("after completion: state=%s success=%q", c.State(), c.SuccessMessage())
	}
}

func TestSubmit_Failure(t *testing.T) {
	boom := errors.New("relay down")
	fail := true
	c := NewController(WithSubmitter(SubmitterFunc(func(context.Context, Values) error {
		if fail {
			return boom
		}
		return nil
	})))

	err := c.Submit(context.Background(), validValues())
	if !errors.Is(err, ErrSubmissionFailed) || !errors.Is(err, boom) {
		t.Fatalf("err = %v, want ErrSubmissionFailed wrapping cause", err)
	}
	if IsRejected(err) {
		t.Fatalf("failure reported as rejection")
	}
	if c.State() != Idle {
		t.Fatalf("state = %s, want idle", c.State())
	}
	if c.Values() != validValues() {
		t.Fatalf("values not retained after failure: %#v", c.Values())
	}
	if c.SuccessMessage() != "" {
		t.Fatalf("success message set on failure")
	}

	// The controller is reusable; a later attempt can succeed.
	fail = false
	if err := c.Submit(context.Background(), c.Values()); err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if c.SuccessMessage() != SuccessMessage {
		t.Fatalf("success = %q after resubmit", c.SuccessMessage())
	}
}

func TestSubmit_Cancelled(t *testing.T) {
	sink := newBlockingSink()
	c := NewController(WithSubmitter(sink))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Submit(ctx, validValues()) }()

	<-sink.entered
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, ErrSubmissionFailed) || !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v, want cancellation failure", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Submit did not return after cancel")
	}
	if c.State() != Idle {
		t.Fatalf("state = %s, want idle", c.State())
	}
}

func TestSubmit_ContextAlreadyDone(t *testing.T) {
	called := false
	c := NewController(WithSubmitter(SubmitterFunc(func(context.Context, Values) error {
		called = true
		return nil
	})))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := c.Submit(ctx, validValues()); !errors.Is(err, ErrSubmissionFailed) {
		t.Fatalf("err = %v, want ErrSubmissionFailed", err)
	}
	if called {
		t.Fatalf("side effect ran with a done context")
	}
}

func TestController_FieldOperations(t *testing.T) {
	c := NewController()

	if err := c.SetField(FieldFirstName, "A"); err != nil {
		t.Fatalf("SetField: %v", err)
	}
	if err := c.SetField("nickname", "x"); err == nil {
		t.Fatalf("expected error for unknown field")
	}
	if err := c.TouchField("nickname"); err == nil {
		t.Fatalf("expected error touching unknown field")
	}

	if got := len(c.Errors()); got != 5 {
		t.Fatalf("Errors() len = %d, want 5", got)
	}
	if got := len(c.VisibleErrors()); got != 0 {
		t.Fatalf("VisibleErrors() before touch = %d, want 0", got)
	}

	if err := c.TouchField(FieldFirstName); err != nil {
		t.Fatalf("TouchField: %v", err)
	}
	vis := c.VisibleErrors()
	if len(vis) != 1 || vis[FieldFirstName].Kind != KindTooShort {
		t.Fatalf("VisibleErrors() = %#v", vis)
	}

	c.Reset()
	if !c.Values().IsZero() || c.Touched(FieldFirstName) {
		t.Fatalf("Reset left state behind")
	}
}

func TestController_ClearSuccess(t *testing.T) {
	c := NewController()
	if err := c.Submit(context.Background(), validValues()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	c.ClearSuccess()
	if c.SuccessMessage() != "" {
		t.Fatalf("success not cleared")
	}
}

func TestState_String(t *testing.T) {
	if Idle.String() != "idle" || Submitting.String() != "submitting" {
		t.Fatalf("unexpected names %q %q", Idle, Submitting)
	}
}

func TestSubmit_LogsThroughRequestContext(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core).Sugar()
	c := NewController()

	for _, id := range []string{"req-1", "req-2"} {
		ctx := logger.WithContext(context.Background(), base.With("request_id", id))
		if err := c.Submit(ctx, validValues()); err != nil {
			t.Fatalf("Submit(%s): %v", id, err)
		}
	}

	entries := logs.FilterMessage("form submitted").All()
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	for i, want := range []string{"req-1", "req-2"} {
		if got := entries[i].ContextMap()["request_id"]; got != want {
			t.Fatalf("entry %d request_id = %v, want %s", i, got, want)
		}
	}
}

func TestSubmit_PinnedLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	c := NewController(WithLogger(zap.New(core).Sugar().With("form", "pinned")))

	ctx := logger.WithContext(context.Background(), zap.NewNop().Sugar())
	if err := c.Submit(ctx, validValues()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if logs.FilterField(zap.String("form", "pinned")).Len() != 1 {
		t.Fatalf("pinned logger not used: %v", logs.All())
	}
}
