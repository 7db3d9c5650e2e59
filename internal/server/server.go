// internal/server/server.go
//
// HTTP server and router for the contact service.
//
// Context
// -------
// NewRouter assembles the chi middleware stack and the contact routes.
// Server wraps *http.Server so main can start it on an errgroup and stop it
// with a bounded grace period.
//
// Routes
// ------
//   GET  /contact/session    issue a form-session token
//   POST /contact/validate   field errors without submitting
//   POST /contact            validate and submit
//   GET  /healthz            liveness
//   GET  /metrics            Prometheus exposition
//
// Notes
// -----
//   • Middleware order: request ID, real IP, request logger, recoverer,
//     HTTPS redirect, security headers.  The /contact routes add client
//     metadata (requestinfo.Enrich).
//   • Unknown routes get the JSON 404 problem body.

package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	cmw "github.com/yanizio/contactform/internal/middleware"
	"github.com/yanizio/contactform/internal/requestinfo"
)

// Options configures the HTTP server.
type Options struct {
	Addr       string
	ForceHTTPS bool
	Log        *zap.SugaredLogger
}

// Server owns the HTTP listener and its router.
type Server struct {
	srv *http.Server
	log *zap.SugaredLogger
}

// NewRouter wires the contact routes and middleware.
func NewRouter(contact *ContactHandler, forceHTTPS bool, log *zap.SugaredLogger) http.Handler {
	if log == nil {
		log = zap.S()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(cmw.ForceHTTPS(forceHTTPS))
	r.Use(cmw.Security)

	r.Get(`/healthz`, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, `/metrics`, promhttp.Handler())

	r.Route(`/contact`, func(r chi.Router) {
		r.Use(requestinfo.Enrich)

		r.Get(`/session`, contact.Session)
		r.Post(`/validate`, contact.Validate)
		r.Post(`/`, contact.Submit)
	})

	r.NotFound(notFoundHandler)
	return r
}

// New builds a Server serving contact on opts.Addr.
func New(opts Options, contact *ContactHandler) *Server {
	log := opts.Log
	if log == nil {
		log = zap.S()
	}
	log = log.With("name", "http")
	return &Server{
		srv: newHTTPServer(opts.Addr, NewRouter(contact, opts.ForceHTTPS, log)),
		log: log,
	}
}

// Run starts listening inside runner.
func (s *Server) Run(runner *errgroup.Group) {
	s.log.Infow("http server started", "addr", s.srv.Addr)

	runner.Go(func() error {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Infow("http server stopping")

	nctx, stop := context.WithTimeout(context.WithoutCancel(ctx), shutdownGrace)
	defer stop()

	return s.srv.Shutdown(nctx)
}
