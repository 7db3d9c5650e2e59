// cmd/web/main.go
//
// Contact service – HTTP entry point.
//
// Start-up sequence
// -----------------
//
//  1. Load env vars (jail-wide file → .env fallback).
//
//  2. Load layered config (defaults → conf/.env → conf/contact.yaml → env).
//
//  3. Start the rotating logger (tees to console when running in a TTY).
//
//  4. Resolve Vault secrets (DSN, session key) when references are set.
//
//  5. Open the submission DB when a DSN is configured, and the GeoLite2
//     database when a path is configured.
//
//  6. Start the outbox worker (SMTP when configured, log-only otherwise).
//
//  7. Build validator, action dispatcher, session signer, and contact
//     handler.
//
//  8. Serve HTTP until SIGINT/SIGTERM, then shut down the server, drain the
//     outbox, and close the DB.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yanizio/contactform/internal/config"
	"github.com/yanizio/contactform/internal/database"
	"github.com/yanizio/contactform/internal/form"
	"github.com/yanizio/contactform/internal/logger"
	"github.com/yanizio/contactform/internal/message"
	"github.com/yanizio/contactform/internal/requestinfo"
	"github.com/yanizio/contactform/internal/server"
	"github.com/yanizio/contactform/internal/session"
	"github.com/yanizio/contactform/internal/vault"
)

const serverEnvPath = "/usr/local/etc/contactform/global.env"

// loadEnv prefers the jail-wide env file; on dev it falls back to .env.
func loadEnv() {
	if _, err := os.Stat(serverEnvPath); err == nil {
		_ = godotenv.Load(serverEnvPath)
		return
	}
	_ = godotenv.Load()
}

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func init() { loadEnv() }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Console logger until the configured one exists.
	boot, err := logger.New(logger.Options{})
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		boot.Fatalw("load config", "error", err)
	}

	logOut, err := logger.New(logger.Options{
		Dir:   cfg.Log.Dir,
		Tee:   cfg.Log.Tee || (cfg.Log.Dir != "" && runningInTTY()),
		Level: cfg.Log.Level,
	})
	if err != nil {
		boot.Fatalw("start logger", "error", err)
	}
	defer func() { _ = logOut.Sync() }()
	ctx = logger.WithContext(ctx, logOut)

	if err := run(ctx, cfg, logOut); err != nil {
		logOut.Errorw("contact service stopped", "error", err)
		_ = logOut.Sync()
		os.Exit(1)
	}
	logOut.Infow("contact service stopped")
}

func run(ctx context.Context, cfg *config.Config, logOut *zap.SugaredLogger) error {
	msgs, err := form.LoadMessages(cfg.Form.MessagesFile)
	if err != nil {
		return err
	}

	runner, ctx := errgroup.WithContext(ctx)

	//
	// ── 1.  Secrets ─────────────────────────────────────────────────────
	//
	dsn, sessionKey := cfg.Database.DSN, cfg.Form.SessionKey
	if cfg.Secrets.UsesVault() {
		vc, err := vault.New(ctx, logOut.With("name", "vault"))
		if err != nil {
			return err
		}
		if ref := cfg.Secrets.DSNRef; ref != "" {
			if dsn, err = vc.Resolve(ctx, ref); err != nil {
				return err
			}
		}
		if ref := cfg.Secrets.SessionKeyRef; ref != "" {
			if sessionKey, err = vc.Resolve(ctx, ref); err != nil {
				return err
			}
		}
		logOut.Infow("vault secrets resolved")
	}

	key, err := session.DecodeKey(sessionKey)
	if err != nil {
		return err
	}
	signer, err := session.NewSigner(key)
	if err != nil {
		return err
	}
	if key == nil {
		logOut.Warnw("form.session_key not set, using a random per-process key")
	}

	//
	// ── 2.  Submission DB and GeoLite2 (optional) ───────────────────────
	//
	var db *sqlx.DB
	if dsn != "" {
		db, err = database.OpenWithOptions(dsn, cfg.Database.MaxOpen, cfg.Database.MaxIdle)
		if err != nil {
			return err
		}
		defer db.Close()
		logOut.Infow("submission DB online")
	}

	if cfg.HTTP.GeoIPDB != "" {
		if err := requestinfo.OpenGeo(cfg.HTTP.GeoIPDB); err != nil {
			return err
		}
		defer requestinfo.CloseGeo()
	}

	//
	// ── 3.  Outbox worker ───────────────────────────────────────────────
	//
	var mailer message.Mailer
	if cfg.Mail.SMTPAddr != "" {
		mailer = message.SMTPMailer(cfg.Mail.SMTPAddr, cfg.Mail.From)
	}
	outbox := message.NewOutbox(message.Options{
		Size:         cfg.Outbox.QueueSize,
		Client:       &http.Client{Timeout: cfg.Outbox.JobTimeout},
		Mailer:       mailer,
		Log:          logOut.With("name", "outbox"),
		JobTimeout:   cfg.Outbox.JobTimeout,
		DrainTimeout: cfg.Outbox.DrainTimeout,
	})
	// The outbox outlives ctx so requests still draining during shutdown
	// can enqueue.
	outboxCtx, stopOutbox := context.WithCancel(context.WithoutCancel(ctx))
	defer stopOutbox()
	runner.Go(func() error { return outbox.Run(outboxCtx) })

	//
	// ── 4.  Validation and submission ───────────────────────────────────
	//
	dispatcher := &form.Dispatcher{
		FormID:  cfg.Form.ID,
		Actions: cfg.Form.Actions,
		Queue:   outbox,
	}
	if db != nil {
		dispatcher.DB = db
	}
	contact, err := server.NewContactHandler(server.ContactOptions{
		Validator:      form.NewValidator(msgs),
		Submitter:      dispatcher,
		Signer:         signer,
		SessionCap:     cfg.Form.SessionCap,
		RequireSession: cfg.Form.RequireSession,
	})
	if err != nil {
		return err
	}

	//
	// ── 5.  HTTP ────────────────────────────────────────────────────────
	//
	httpSrv := server.New(server.Options{
		Addr:       cfg.HTTP.ListenAddr,
		ForceHTTPS: cfg.HTTP.ForceHTTPS,
		Log:        logOut,
	}, contact)
	httpSrv.Run(runner)

	runner.Go(func() error {
		<-ctx.Done()
		err := httpSrv.Shutdown(ctx)
		stopOutbox()
		return err
	})

	logOut.Infow("contact service online",
		"addr", cfg.HTTP.ListenAddr,
		"form", cfg.Form.ID,
		"actions", len(cfg.Form.Actions),
	)
	return runner.Wait()
}
