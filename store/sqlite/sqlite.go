/*
Package sqlite provides a SQLite-backed implementation of timeoff.TxStore.

PURPOSE:
  Persists the roster, the leave-type catalog, yearly buckets, requests,
  the holiday and Saturday tables and the audit log. In production, the
  same patterns apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  employees:       Roster (never hard-deleted, see active)
  leave_types:     Catalog, unique name
  buckets:         (employee, leave_type, year) -> accrued / taken
  requests:        Leave requests and their workflow status
  holidays:        One row per date; recurring rows are projected by year
  saturday_config: Explicit working / non-working Saturdays
  audit_log:       Append-only history of every committed change

AMOUNTS:
  Day amounts are stored as decimal TEXT ("12", "0.5") and parsed back
  with shopspring/decimal, never as REAL.

CONDITIONAL UPDATES:
  UpdateRequest writes with "WHERE id = ? AND status = ?". Zero affected
  rows means another writer moved the request first and the caller gets
  generic.ErrConcurrentModification.

CONCURRENCY:
  The pool is limited to one connection so ":memory:" databases are
  shared and writers are serialized. Inside WithTx every query goes
  through the *sql.Tx; touching s.db there would deadlock.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/leave.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  svc := timeoff.NewService(store, logger)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - timeoff/store.go: Interface definitions
  - store/memory: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/timeoff"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements timeoff.TxStore using SQLite.
type Store struct {
	*tables
	db *sql.DB
	mu sync.Mutex
}

// Compile-time check
var _ timeoff.TxStore = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{tables: &tables{q: db}, db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		full_name TEXT NOT NULL,
		email TEXT,
		hire_date TEXT NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		manager_id TEXT REFERENCES employees(id),
		role TEXT NOT NULL DEFAULT 'employee',
		ad_managed BOOLEAN NOT NULL DEFAULT FALSE
	);

	CREATE INDEX IF NOT EXISTS idx_employees_manager
		ON employees(manager_id);

	CREATE TABLE IF NOT EXISTS leave_types (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE COLLATE NOCASE,
		requires_balance BOOLEAN NOT NULL DEFAULT TRUE,
		default_days INTEGER NOT NULL DEFAULT 0,
		consumption_type TEXT NOT NULL DEFAULT 'flexible',
		requires_attachment BOOLEAN NOT NULL DEFAULT FALSE
	);

	-- Yearly buckets; amounts are decimal strings
	CREATE TABLE IF NOT EXISTS buckets (
		employee_id TEXT NOT NULL REFERENCES employees(id),
		leave_type_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		accrued TEXT NOT NULL,
		taken TEXT NOT NULL,
		comment TEXT,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (employee_id, leave_type_id, year)
	);

	CREATE TABLE IF NOT EXISTS requests (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id),
		leave_type_id TEXT NOT NULL,
		request_type TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		start_time TEXT,
		end_time TEXT,
		days TEXT NOT NULL,
		replacement_id TEXT,
		replacement_name TEXT,
		status TEXT NOT NULL DEFAULT 'pending',
		cancellation_reason TEXT,
		interruption_reason TEXT,
		modification_reason TEXT,
		attachment_path TEXT,
		request_date TEXT NOT NULL,
		manager_approval_date TEXT,
		hr_approval_date TEXT,
		created_by TEXT,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_requests_employee
		ON requests(employee_id, start_date);
	CREATE INDEX IF NOT EXISTS idx_requests_status
		ON requests(status);
	CREATE INDEX IF NOT EXISTS idx_requests_replacement
		ON requests(replacement_id) WHERE replacement_id IS NOT NULL;

	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		recurring BOOLEAN NOT NULL DEFAULT FALSE
	);

	CREATE TABLE IF NOT EXISTS saturday_config (
		date TEXT PRIMARY KEY,
		working BOOLEAN NOT NULL
	);

	-- Append-only
	CREATE TABLE IF NOT EXISTS audit_log (
		id TEXT PRIMARY KEY,
		timestamp TEXT NOT NULL,
		actor_id TEXT NOT NULL,
		action TEXT NOT NULL,
		employee_id TEXT,
		reference_id TEXT,
		from_status TEXT,
		to_status TEXT,
		payload_json TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_audit_reference
		ON audit_log(reference_id);
	CREATE INDEX IF NOT EXISTS idx_audit_employee
		ON audit_log(employee_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TRANSACTIONAL STORE (timeoff.TxStore interface)
// =============================================================================

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(store timeoff.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&tables{q: sqlTx}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := []string{"audit_log", "requests", "buckets", "saturday_config", "holidays", "leave_types", "employees"}
	for _, table := range names {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func parseNullTime(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseDays(value string) (generic.Amount, error) {
	return generic.ParseDays(value)
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
