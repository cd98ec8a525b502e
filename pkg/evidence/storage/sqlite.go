package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"relay-hq/gemini/pkg/evidence"
	"relay-hq/gemini/pkg/evidence/query"

	_ "github.com/mattn/go-sqlite3" // "sqlite3" driver (cgo)
	_ "modernc.org/sqlite"          // "sqlite" driver (pure Go)
)

// Supported database/sql driver names.
const (
	DriverPureGo = "sqlite"
	DriverCgo    = "sqlite3"
)

// SQLiteConfig contains configuration for the SQLite storage backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// Driver is DriverPureGo or DriverCgo. Default: DriverPureGo
	Driver string

	// MaxOpenConns is the maximum number of open connections to the database.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// SQLiteStorage implements evidence.Storage using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	config SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStorage opens the database, applies pragmas and creates the
// schema if needed.
func NewSQLiteStorage(cfg SQLiteConfig, logger *slog.Logger) (*SQLiteStorage, error) {
	if cfg.Path == "" {
		return nil, evidence.NewStorageError("sqlite", "open", errors.New("database path is required"))
	}
	if cfg.Driver == "" {
		cfg.Driver = DriverPureGo
	}
	if cfg.MaxOpenConns == 0 {
		cfg.MaxOpenConns = 10
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = 5
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "evidence.storage.sqlite")

	dsn, err := buildDSN(cfg)
	if err != nil {
		return nil, evidence.NewStorageError("sqlite", "open", err)
	}

	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, evidence.NewStorageError("sqlite", "open", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)

	s := &SQLiteStorage{
		db:     db,
		config: cfg,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite storage initialized",
		"path", cfg.Path,
		"driver", cfg.Driver,
		"wal_mode", cfg.WALMode,
		"max_open_conns", cfg.MaxOpenConns,
	)

	return s, nil
}

// buildDSN encodes the busy timeout and journal mode in the connection
// string so that every pooled connection gets them, not just the first.
func buildDSN(cfg SQLiteConfig) (string, error) {
	timeoutMs := cfg.BusyTimeout.Milliseconds()

	var params []string
	switch cfg.Driver {
	case DriverPureGo:
		params = append(params, fmt.Sprintf("_pragma=busy_timeout(%d)", timeoutMs))
		if cfg.WALMode {
			params = append(params, "_pragma=journal_mode(WAL)")
		}
	case DriverCgo:
		params = append(params, fmt.Sprintf("_busy_timeout=%d", timeoutMs))
		if cfg.WALMode {
			params = append(params, "_journal_mode=WAL")
		}
	default:
		return "", fmt.Errorf("unsupported driver %q", cfg.Driver)
	}

	return "file:" + cfg.Path + "?" + strings.Join(params, "&"), nil
}

// initialize creates the schema and verifies its version.
func (s *SQLiteStorage) initialize() error {
	if _, err := s.db.Exec(Schema); err != nil {
		return evidence.NewStorageError("sqlite", "create_schema", err)
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return evidence.NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	err := s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return evidence.NewStorageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return evidence.NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	s.logger.Debug("schema version verified", "version", version)
	return nil
}

// Store persists an evidence record to the database.
func (s *SQLiteStorage) Store(ctx context.Context, record *evidence.Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO evidence (`+columns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.RequestID, record.TraceID,
		record.RequestTime.UnixNano(), record.RecordedTime.UnixNano(),
		record.Method, record.Path, record.RemoteAddr, record.UserAgent, record.Origin,
		record.Model, record.PromptHash, record.PromptBytes,
		record.Outcome, record.Status, int64(record.Latency),
		record.UpstreamStatus, int64(record.UpstreamLatency), record.ResponseHash, record.ResponseBytes,
		record.Error, record.ErrorDetails,
	)
	if err != nil {
		return evidence.NewStorageError("sqlite", "store", err)
	}
	return nil
}

// Query retrieves evidence records matching the query filters.
func (s *SQLiteStorage) Query(ctx context.Context, q *evidence.Query) ([]*evidence.Record, error) {
	sqlQuery, args := s.selectQuery(q)

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, evidence.NewStorageError("sqlite", "query", err)
	}
	defer rows.Close()

	records := []*evidence.Record{}
	for rows.Next() {
		record, err := scanRow(rows)
		if err != nil {
			return nil, evidence.NewStorageError("sqlite", "scan", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, evidence.NewStorageError("sqlite", "query", err)
	}

	return records, nil
}

// QueryStream streams matching records over a channel.
func (s *SQLiteStorage) QueryStream(ctx context.Context, q *evidence.Query) (<-chan *evidence.Record, <-chan error, error) {
	recordsCh := make(chan *evidence.Record, 100)
	errCh := make(chan error, 1)

	sqlQuery, args := s.selectQuery(q)

	go func() {
		defer close(recordsCh)
		defer close(errCh)

		rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
		if err != nil {
			errCh <- evidence.NewStorageError("sqlite", "query_stream", err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			record, err := scanRow(rows)
			if err != nil {
				errCh <- evidence.NewStorageError("sqlite", "scan", err)
				return
			}

			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case recordsCh <- record:
			}
		}

		if err := rows.Err(); err != nil {
			errCh <- evidence.NewStorageError("sqlite", "query_stream", err)
		}
	}()

	return recordsCh, errCh, nil
}

// Count returns the number of evidence records matching the query filters.
func (s *SQLiteStorage) Count(ctx context.Context, q *evidence.Query) (int64, error) {
	where, args := buildWhereClause(q)

	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM evidence"+where, args...).Scan(&count); err != nil {
		return 0, evidence.NewStorageError("sqlite", "count", err)
	}
	return count, nil
}

// Delete removes evidence records matching the query filters.
func (s *SQLiteStorage) Delete(ctx context.Context, q *evidence.Query) (int64, error) {
	where, args := buildWhereClause(q)

	result, err := s.db.ExecContext(ctx, "DELETE FROM evidence"+where, args...)
	if err != nil {
		return 0, evidence.NewStorageError("sqlite", "delete", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, evidence.NewStorageError("sqlite", "delete", err)
	}
	return count, nil
}

// Close releases resources held by the storage backend.
func (s *SQLiteStorage) Close() error {
	if err := s.db.Close(); err != nil {
		return evidence.NewStorageError("sqlite", "close", err)
	}
	s.logger.Info("SQLite storage closed")
	return nil
}

// selectQuery builds the SELECT statement with sorting and pagination.
// The sort column comes from a fixed whitelist, never from the caller.
func (s *SQLiteStorage) selectQuery(q *evidence.Query) (string, []any) {
	where, args := buildWhereClause(q)

	order := "DESC"
	if q.SortOrder == "asc" {
		order = "ASC"
	}

	var sb strings.Builder
	sb.WriteString("SELECT " + columns + " FROM evidence" + where)
	fmt.Fprintf(&sb, " ORDER BY %s %s, id %s", query.Column(q.SortBy), order, order)

	if q.Limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d", q.Limit)
	} else if q.Offset > 0 {
		sb.WriteString(" LIMIT -1")
	}
	if q.Offset > 0 {
		fmt.Fprintf(&sb, " OFFSET %d", q.Offset)
	}

	return sb.String(), args
}

// buildWhereClause returns " WHERE ..." (or "") and its arguments.
func buildWhereClause(q *evidence.Query) (string, []any) {
	var conditions []string
	var args []any

	if q.StartTime != nil {
		conditions = append(conditions, "request_time >= ?")
		args = append(args, q.StartTime.UnixNano())
	}
	if q.EndTime != nil {
		conditions = append(conditions, "request_time <= ?")
		args = append(args, q.EndTime.UnixNano())
	}
	if q.RequestID != "" {
		conditions = append(conditions, "request_id = ?")
		args = append(args, q.RequestID)
	}
	if q.Outcome != "" {
		conditions = append(conditions, "outcome = ?")
		args = append(args, q.Outcome)
	}
	if q.Status != 0 {
		conditions = append(conditions, "status = ?")
		args = append(args, q.Status)
	}
	if q.MinLatency > 0 {
		conditions = append(conditions, "latency_ns >= ?")
		args = append(args, int64(q.MinLatency))
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// scanRow scans a database row into a Record.
func scanRow(rows *sql.Rows) (*evidence.Record, error) {
	var r evidence.Record
	var requestTime, recordedTime, latency, upstreamLatency int64

	err := rows.Scan(
		&r.ID, &r.RequestID, &r.TraceID,
		&requestTime, &recordedTime,
		&r.Method, &r.Path, &r.RemoteAddr, &r.UserAgent, &r.Origin,
		&r.Model, &r.PromptHash, &r.PromptBytes,
		&r.Outcome, &r.Status, &latency,
		&r.UpstreamStatus, &upstreamLatency, &r.ResponseHash, &r.ResponseBytes,
		&r.Error, &r.ErrorDetails,
	)
	if err != nil {
		return nil, err
	}

	r.RequestTime = time.Unix(0, requestTime).UTC()
	r.RecordedTime = time.Unix(0, recordedTime).UTC()
	r.Latency = time.Duration(latency)
	r.UpstreamLatency = time.Duration(upstreamLatency)

	return &r, nil
}
