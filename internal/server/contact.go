// internal/server/contact.go
//
// Contact form endpoints.
//
// Context
// -------
// Clients open a form session with GET /contact/session and send the
// signed token back in the X-Form-Session header.  Each session maps to one
// *form.Controller held in an LRU, so a second POST from the same session
// while the first is still delivering is rejected with 409.  A controller
// stays pinned in the LRU while a request uses it; when every slot is
// pinned, new sessions get 503.  Requests without the header get a
// throwaway controller unless sessions are required.
//
// Bodies may be JSON objects or urlencoded forms; unknown keys are ignored
// and non-string JSON values count as empty.

package server

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"github.com/yanizio/contactform/internal/cache"
	"github.com/yanizio/contactform/internal/form"
	"github.com/yanizio/contactform/internal/logger"
	"github.com/yanizio/contactform/internal/metrics"
	"github.com/yanizio/contactform/internal/session"
)

// SessionHeader carries the client-chosen form session key.
const SessionHeader = "X-Form-Session"

const maxBodyBytes = 64 << 10

// ContactHandler serves the session, validate, and submit endpoints.
type ContactHandler struct {
	validator      *form.Validator
	submitter      form.Submitter
	signer         *session.Signer
	requireSession bool
	sessions       *cache.LRU[string, *form.Controller]
}

// ContactOptions configures a ContactHandler.
type ContactOptions struct {
	Validator      *form.Validator // nil selects the stock messages
	Submitter      form.Submitter  // nil accepts valid submissions without side effects
	Signer         *session.Signer // nil selects a random per-process key
	SessionCap     int             // live form sessions kept in memory
	RequireSession bool            // reject submits without X-Form-Session
}

// NewContactHandler builds a handler from opts.
func NewContactHandler(opts ContactOptions) (*ContactHandler, error) {
	if opts.Validator == nil {
		opts.Validator = form.NewValidator(nil)
	}
	if opts.Submitter == nil {
		opts.Submitter = form.Noop
	}
	if opts.Signer == nil {
		s, err := session.NewSigner(nil)
		if err != nil {
			return nil, err
		}
		opts.Signer = s
	}
	if opts.SessionCap < 1 {
		opts.SessionCap = 1
	}
	return &ContactHandler{
		validator:      opts.Validator,
		submitter:      opts.Submitter,
		signer:         opts.Signer,
		requireSession: opts.RequireSession,
		sessions:       cache.New[string, *form.Controller](opts.SessionCap),
	}, nil
}

type validateResponse struct {
	Valid    bool              `json:"valid"`
	Errors   []form.ErrorField `json:"errors"`
	Messages map[string]string `json:"messages"`
}

type submitResponse struct {
	Message string `json:"message"`
}

type sessionResponse struct {
	Session string `json:"session"`
}

// Session issues a new form-session token.
func (h *ContactHandler) Session(w http.ResponseWriter, r *http.Request) {
	tok, err := h.signer.Issue()
	if err != nil {
		logger.FromContext(r.Context()).Errorw("issue form session", "error", err)
		internalError(w)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Session: tok})
}

// Validate reports the field errors for the posted values without
// submitting them.
func (h *ContactHandler) Validate(w http.ResponseWriter, r *http.Request) {
	values, err := decodeValues(w, r)
	if err != nil {
		parsingError(w, err.Error())
		return
	}

	errs := h.validator.Validate(values)
	writeJSON(w, http.StatusOK, validateResponse{
		Valid:    errs.Valid(),
		Errors:   errs.List(),
		Messages: errs.Messages(),
	})
}

// Submit validates and submits the posted values.
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	values, err := decodeValues(w, r)
	if err != nil {
		parsingError(w, err.Error())
		return
	}

	c, release, err := h.controller(r)
	switch {
	case errors.Is(err, cache.ErrFull):
		log.Warnw("form sessions exhausted", "cap", h.sessions.Len())
		busyError(w)
		return
	case err != nil:
		sessionError(w)
		return
	}
	defer release()

	err = c.Submit(r.Context(), values)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, submitResponse{Message: form.SuccessMessage})
	case errors.Is(err, form.ErrInvalidSubmission):
		validationError(w, h.validator.Validate(values).Messages())
	case errors.Is(err, form.ErrAlreadySubmitting):
		conflictError(w)
	default:
		log.Errorw("contact submit failed", "error", err)
		submissionFailed(w)
	}
}

var errNoSession = errors.New("form session missing or invalid")

// controller returns the session's controller, creating it on first use,
// pinned until release is called.  It fails with errNoSession when the
// token is missing but required, or invalid, and with cache.ErrFull when
// every session slot is in use.  Controllers log through the request
// context, so a session's later requests keep their own request IDs.
func (h *ContactHandler) controller(r *http.Request) (c *form.Controller, release func(), err error) {
	newController := func() *form.Controller {
		return form.NewController(
			form.WithValidator(h.validator),
			form.WithSubmitter(h.submitter),
		)
	}

	key := r.Header.Get(SessionHeader)
	switch {
	case key == "" && !h.requireSession:
		return newController(), func() {}, nil
	case key == "" || !h.signer.Verify(key):
		return nil, nil, errNoSession
	}

	c, release, err = h.sessions.Acquire(key, newController)
	metrics.ActiveSessions.Set(float64(h.sessions.Len()))
	return c, release, err
}

// decodeValues reads form values from a JSON or urlencoded body.
func decodeValues(w http.ResponseWriter, r *http.Request) (form.Values, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		var raw map[string]any
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			return form.Values{}, errors.New("body must be a JSON object")
		}
		return form.FromMap(raw), nil
	}

	if err := r.ParseForm(); err != nil {
		return form.Values{}, errors.New("body must be urlencoded form data")
	}
	return form.FromURLValues(r.PostForm), nil
}
