package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"github.com/ForLess01/API-RALF/pkg/config"
)

const backendSQLite = "sqlite"

// Driver names accepted in SQLiteConfig.Driver.
const (
	DriverMattn   = "sqlite3" // github.com/mattn/go-sqlite3
	DriverModernc = "sqlite"  // modernc.org/sqlite
)

// SQLiteStore persists records in a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	config config.SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStore opens (creating if needed) the database at cfg.Path and
// prepares the schema.
func NewSQLiteStore(cfg config.SQLiteConfig) (*SQLiteStore, error) {
	if cfg.Driver == "" {
		cfg.Driver = config.DefaultJournalSQLiteDriver
	}
	dsn, err := buildDSN(cfg)
	if err != nil {
		return nil, NewStorageError(backendSQLite, "open", err)
	}

	if dir := filepath.Dir(cfg.Path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, NewStorageError(backendSQLite, "open", err)
		}
	}

	logger := slog.Default().With("component", "journal.sqlite")

	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, NewStorageError(backendSQLite, "open", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	s := &SQLiteStore{db: db, config: cfg, logger: logger}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("sqlite journal initialized",
		"path", cfg.Path,
		"driver", cfg.Driver,
		"wal_mode", cfg.WALMode,
		"max_open_conns", cfg.MaxOpenConns,
	)
	return s, nil
}

// buildDSN encodes the connection pragmas in the DSN so that every pooled
// connection gets them. The two drivers spell them differently.
func buildDSN(cfg config.SQLiteConfig) (string, error) {
	if cfg.Path == "" {
		return "", errors.New("sqlite path is empty")
	}

	params := url.Values{}
	busy := cfg.BusyTimeout.Milliseconds()

	switch cfg.Driver {
	case DriverMattn:
		params.Set("_busy_timeout", fmt.Sprint(busy))
		if cfg.WALMode {
			params.Set("_journal_mode", "WAL")
		}
	case DriverModernc:
		params.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busy))
		if cfg.WALMode {
			params.Add("_pragma", "journal_mode(WAL)")
		}
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}

	return "file:" + cfg.Path + "?" + params.Encode(), nil
}

func (s *SQLiteStore) initialize() error {
	if _, err := s.db.Exec(schema); err != nil {
		return NewStorageError(backendSQLite, "create_schema", err)
	}

	if _, err := s.db.Exec(insertSchemaVersion, SchemaVersion, time.Now().UnixMilli()); err != nil {
		return NewStorageError(backendSQLite, "insert_schema_version", err)
	}

	var version sql.NullInt64
	if err := s.db.QueryRow(getSchemaVersion).Scan(&version); err != nil {
		return NewStorageError(backendSQLite, "get_schema_version", err)
	}
	if version.Int64 != SchemaVersion {
		return NewStorageError(backendSQLite, "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version.Int64))
	}

	s.logger.Debug("schema version verified", "version", version.Int64)
	return nil
}

func (s *SQLiteStore) Store(ctx context.Context, record *Record) error {
	attempted, err := json.Marshal(nonNil(record.Attempted))
	if err != nil {
		return NewStorageError(backendSQLite, "store", err)
	}
	rateLimited, err := json.Marshal(nonNil(record.RateLimited))
	if err != nil {
		return NewStorageError(backendSQLite, "store", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO dispatches (`+recordColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		nullString(record.RequestID),
		record.StartedAt.UnixMilli(),
		record.RecordedAt.UnixMilli(),
		record.StartIndex,
		record.Outcome,
		nullString(record.Reason),
		nullString(record.Backend),
		string(attempted),
		string(rateLimited),
		nullString(record.Error),
		record.StatusCode,
		record.DurationMS,
	)
	if err != nil {
		return NewStorageError(backendSQLite, "store", err)
	}
	return nil
}

func (s *SQLiteStore) Query(ctx context.Context, q *Query) ([]*Record, error) {
	where, args := buildWhereClause(q)
	stmt := `SELECT ` + recordColumns + ` FROM dispatches` + where + ` ORDER BY started_at DESC, rowid DESC`

	if q != nil && (q.Limit > 0 || q.Offset > 0) {
		limit := q.Limit
		if limit <= 0 {
			limit = -1
		}
		stmt += ` LIMIT ? OFFSET ?`
		args = append(args, limit, q.Offset)
	}

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, NewStorageError(backendSQLite, "query", err)
	}
	defer rows.Close()

	results := make([]*Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, NewStorageError(backendSQLite, "scan", err)
		}
		results = append(results, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, NewStorageError(backendSQLite, "query", err)
	}
	return results, nil
}

func (s *SQLiteStore) Count(ctx context.Context, q *Query) (int64, error) {
	where, args := buildWhereClause(q)

	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM dispatches`+where, args...).Scan(&n); err != nil {
		return 0, NewStorageError(backendSQLite, "count", err)
	}
	return n, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, q *Query) (int64, error) {
	where, args := buildWhereClause(q)

	res, err := s.db.ExecContext(ctx, `DELETE FROM dispatches`+where, args...)
	if err != nil {
		return 0, NewStorageError(backendSQLite, "delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, NewStorageError(backendSQLite, "delete", err)
	}
	return n, nil
}

func (s *SQLiteStore) Trim(ctx context.Context, keep int64) (int64, error) {
	if keep < 0 {
		keep = 0
	}

	res, err := s.db.ExecContext(ctx, `
		DELETE FROM dispatches WHERE id IN (
			SELECT id FROM dispatches ORDER BY started_at DESC, rowid DESC LIMIT -1 OFFSET ?
		)`, keep)
	if err != nil {
		return 0, NewStorageError(backendSQLite, "trim", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, NewStorageError(backendSQLite, "trim", err)
	}
	return n, nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return NewStorageError(backendSQLite, "ping", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return NewStorageError(backendSQLite, "close", err)
	}
	s.logger.Info("sqlite journal closed", "path", s.config.Path)
	return nil
}

func buildWhereClause(q *Query) (string, []any) {
	if q == nil {
		return "", nil
	}

	var (
		conds []string
		args  []any
	)
	if q.Since != nil {
		conds = append(conds, "started_at >= ?")
		args = append(args, q.Since.UnixMilli())
	}
	if q.Until != nil {
		conds = append(conds, "started_at < ?")
		args = append(args, q.Until.UnixMilli())
	}
	if q.Backend != "" {
		conds = append(conds, "backend = ?")
		args = append(args, q.Backend)
	}
	if q.Outcome != "" {
		conds = append(conds, "outcome = ?")
		args = append(args, q.Outcome)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanRecord(rows *sql.Rows) (*Record, error) {
	var (
		rec                              Record
		requestID, reason, backend, errs sql.NullString
		statusCode                       sql.NullInt64
		startedAt, recordedAt            int64
		attempted, rateLimited           string
	)

	err := rows.Scan(
		&rec.ID, &requestID, &startedAt, &recordedAt, &rec.StartIndex, &rec.Outcome, &reason,
		&backend, &attempted, &rateLimited, &errs, &statusCode, &rec.DurationMS,
	)
	if err != nil {
		return nil, err
	}

	rec.RequestID = requestID.String
	rec.Reason = reason.String
	rec.Backend = backend.String
	rec.Error = errs.String
	rec.StatusCode = int(statusCode.Int64)
	rec.StartedAt = time.UnixMilli(startedAt).UTC()
	rec.RecordedAt = time.UnixMilli(recordedAt).UTC()

	if err := json.Unmarshal([]byte(attempted), &rec.Attempted); err != nil {
		return nil, fmt.Errorf("attempted: %w", err)
	}
	if err := json.Unmarshal([]byte(rateLimited), &rec.RateLimited); err != nil {
		return nil, fmt.Errorf("rate_limited: %w", err)
	}
	rec.Attempted = nonNil(rec.Attempted)
	rec.RateLimited = nonNil(rec.RateLimited)

	return &rec, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
