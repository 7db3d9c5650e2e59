// Package database centralises sqlx connection helpers and the submission
// store.  The default driver is go-sql-driver/mysql, which also works with
// MariaDB.
//
// Public entry points:
//
//	Open(dsn)                                   – quick helper with conservative pool sizes.
//	OpenWithOptions(dsn, maxOpen, maxIdle)      – fine-grained control.
//	InsertSubmission(ctx, db, table, id, data)  – persist one submission.
//
// Both Open helpers Ping the database before returning so callers can fail
// fast during bootstrap.  Callers should Close() the returned *sqlx.DB when
// no longer needed.
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// DefaultTable receives submissions when no table is configured.
const DefaultTable = "contact_submission"

// Schema creates DefaultTable.  Operators apply it once; the service never
// runs DDL itself.
const Schema = `CREATE TABLE IF NOT EXISTS contact_submission (
  id           BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
  form_id      VARCHAR(64) NOT NULL,
  submitted_at DATETIME(6) NOT NULL,
  data         JSON        NOT NULL
)`

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,63}$`)

// Open returns a *sqlx.DB with sane defaults: 10 max open, 2 idle, and a
// 30-minute connection lifetime.
func Open(dsn string) (*sqlx.DB, error) {
	return OpenWithOptions(dsn, 10, 2)
}

// OpenWithOptions lets callers tune maxOpen and maxIdle.
func OpenWithOptions(dsn string, maxOpen, maxIdle int) (*sqlx.DB, error) {
	db, err := sqlx.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// InsertSubmission writes one row (form_id, submitted_at, data) into table.
// An empty table selects DefaultTable.  data is stored as JSON.
func InsertSubmission(ctx context.Context, db sqlx.ExecerContext, table, formID string, data any) error {
	if table == "" {
		table = DefaultTable
	}
	if !tableName.MatchString(table) {
		return fmt.Errorf("invalid table name %q", table)
	}

	j, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode submission: %w", err)
	}

	_, err = db.ExecContext(
		ctx,
		fmt.Sprintf(`INSERT INTO %s (form_id, submitted_at, data) VALUES (?, ?, ?)`, table),
		formID,
		time.Now().UTC(),
		j,
	)
	if err != nil {
		return fmt.Errorf("insert submission into %s: %w", table, err)
	}
	return nil
}
