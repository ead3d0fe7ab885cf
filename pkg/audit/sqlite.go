package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// SQLite driver names registered by the imported drivers.
const (
	// DriverCGO is github.com/mattn/go-sqlite3.
	DriverCGO = "sqlite3"

	// DriverPureGo is modernc.org/sqlite.
	DriverPureGo = "sqlite"
)

const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteConfig contains configuration for the SQLite audit mirror.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// Driver selects the database/sql driver: "sqlite" (pure Go) or
	// "sqlite3" (cgo).
	// Default: "sqlite"
	Driver string

	// WALMode enables Write-Ahead Logging so queries do not block appends.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() SQLiteConfig {
	return SQLiteConfig{
		Path:        "data/audit.db",
		Driver:      DriverPureGo,
		WALMode:     true,
		BusyTimeout: 5 * time.Second,
	}
}

// SQLiteStore is an indexed, insert-only mirror of the audit trail.
type SQLiteStore struct {
	db     *sql.DB
	config SQLiteConfig
	insert *sql.Stmt
	logger *slog.Logger
}

// NewSQLiteStore opens the database and applies the schema.
func NewSQLiteStore(config SQLiteConfig) (*SQLiteStore, error) {
	if config.Driver == "" {
		config.Driver = DriverPureGo
	}
	if config.Driver != DriverPureGo && config.Driver != DriverCGO {
		return nil, NewStoreError("sqlite", "open", fmt.Errorf("unsupported driver %q", config.Driver))
	}
	if config.BusyTimeout <= 0 {
		config.BusyTimeout = DefaultSQLiteConfig().BusyTimeout
	}

	db, err := sql.Open(config.Driver, config.Path)
	if err != nil {
		return nil, NewStoreError("sqlite", "open", err)
	}
	// One connection keeps in-memory databases coherent and serializes writes.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{
		db:     db,
		config: config,
		logger: slog.Default().With("component", "audit.sqlite"),
	}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	s.logger.Info("SQLite audit store initialized",
		"path", config.Path,
		"driver", config.Driver,
		"wal_mode", config.WALMode,
	)
	return s, nil
}

func (s *SQLiteStore) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return NewStoreError("sqlite", "enable_wal", err)
		}
	}
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", s.config.BusyTimeout.Milliseconds())); err != nil {
		return NewStoreError("sqlite", "set_busy_timeout", err)
	}
	if _, err := s.db.Exec(Schema); err != nil {
		return NewStoreError("sqlite", "create_schema", err)
	}
	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return NewStoreError("sqlite", "insert_schema_version", err)
	}

	var version sql.NullInt64
	if err := s.db.QueryRow(GetSchemaVersion).Scan(&version); err != nil {
		return NewStoreError("sqlite", "get_schema_version", err)
	}
	if version.Int64 != SchemaVersion {
		return NewStoreError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version.Int64))
	}

	stmt, err := s.db.Prepare(insertEntry)
	if err != nil {
		return NewStoreError("sqlite", "prepare_insert", err)
	}
	s.insert = stmt
	return nil
}

// Backend returns "sqlite".
func (s *SQLiteStore) Backend() string { return "sqlite" }

// Append inserts e.
func (s *SQLiteStore) Append(ctx context.Context, e Entry) error {
	details, err := marshalDetails(e.Details)
	if err != nil {
		return NewStoreError("sqlite", "encode", err)
	}
	_, err = s.insert.ExecContext(ctx,
		e.Timestamp.UTC().Format(timestampLayout),
		string(e.EventType),
		e.TransactionID,
		e.UserID,
		string(e.Status),
		details,
		e.PolicyVersion,
	)
	if err != nil {
		return NewStoreError("sqlite", "insert", err)
	}
	return nil
}

// Query returns matching entries in append order.
func (s *SQLiteStore) Query(ctx context.Context, f Filter) ([]Entry, error) {
	var (
		where []string
		args  []any
	)
	if f.TransactionID != "" {
		where = append(where, "transaction_id = ?")
		args = append(args, f.TransactionID)
	}
	if f.UserID != "" {
		where = append(where, "user_id = ?")
		args = append(args, f.UserID)
	}
	if f.EventType != "" {
		where = append(where, "event_type = ?")
		args = append(args, string(f.EventType))
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}
	if !f.Since.IsZero() {
		where = append(where, "timestamp >= ?")
		args = append(args, f.Since.UTC().Format(timestampLayout))
	}
	if !f.Until.IsZero() {
		where = append(where, "timestamp <= ?")
		args = append(args, f.Until.UTC().Format(timestampLayout))
	}

	q := "SELECT timestamp, event_type, transaction_id, user_id, status, details, policy_version FROM audit_entries"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY seq ASC"
	if f.Limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, NewStoreError("sqlite", "query", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			ts, eventType, status string
			userID, details, ver  sql.NullString
			e                     Entry
		)
		if err := rows.Scan(&ts, &eventType, &e.TransactionID, &userID, &status, &details, &ver); err != nil {
			return nil, NewStoreError("sqlite", "scan", err)
		}
		if e.Timestamp, err = time.Parse(timestampLayout, ts); err != nil {
			return nil, NewStoreError("sqlite", "scan", err)
		}
		e.EventType = EventType(eventType)
		e.Status = Status(status)
		e.UserID = userID.String
		e.PolicyVersion = ver.String
		if details.Valid && details.String != "" {
			if err := json.Unmarshal([]byte(details.String), &e.Details); err != nil {
				return nil, NewStoreError("sqlite", "scan", err)
			}
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, NewStoreError("sqlite", "query", err)
	}
	return out, nil
}

// Count returns the number of stored entries.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM audit_entries").Scan(&n); err != nil {
		return 0, NewStoreError("sqlite", "count", err)
	}
	return n, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	if s.insert != nil {
		s.insert.Close()
	}
	return s.db.Close()
}

func marshalDetails(d map[string]any) (string, error) {
	if len(d) == 0 {
		return "", nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
