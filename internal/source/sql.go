// Package source reads model rows from a relational database.
package source

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	// Registered database/sql drivers.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"modelcharts/internal/models"
)

var (
	// ErrUnknownQuery is returned when a query name has no SQL text.
	ErrUnknownQuery = errors.New("unknown query")
	// ErrDatabaseNotFound is returned when a sqlite database file does not exist.
	ErrDatabaseNotFound = errors.New("database file not found")
	// ErrUnsupportedDriver is returned for drivers other than sqlite, mysql and postgres.
	ErrUnsupportedDriver = errors.New("unsupported driver")
	// ErrEmptyQuery is returned when a query holds no statement.
	ErrEmptyQuery = errors.New("query has no statements")
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

const pingTimeout = 10 * time.Second

// Options selects the database.
type Options struct {
	Driver string
	DSN    string
}

// SQLSource runs named queries against a database.
type SQLSource struct {
	db      *sql.DB
	queries map[string]string
}

// Open connects to the database and verifies the connection. queries maps
// query names to SQL text.
func Open(ctx context.Context, opts Options, queries map[string]string) (*SQLSource, error) {
	switch opts.Driver {
	case DriverSQLite:
		path := sqlitePath(opts.DSN)
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrDatabaseNotFound, path)
		}
	case DriverMySQL, DriverPostgres:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, opts.Driver)
	}

	db, err := sql.Open(opts.Driver, opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", opts.Driver, err)
	}

	// Temporary tables created by one statement must be visible to the next.
	if opts.Driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("failed to connect to %s database: %w", opts.Driver, err)
	}

	return &SQLSource{db: db, queries: queries}, nil
}

// sqlitePath strips the file: prefix and URI parameters from a sqlite DSN.
func sqlitePath(dsn string) string {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}

	return path
}

// Query runs the named query. Statements separated by ';' run in order on one
// connection and their rows are concatenated.
func (s *SQLSource) Query(ctx context.Context, name string) ([]models.RawRecord, error) {
	text, ok := s.queries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownQuery, name)
	}

	statements := SplitStatements(text)
	if len(statements) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrEmptyQuery, name)
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	var records []models.RawRecord

	for i, stmt := range statements {
		rows, err := queryRows(ctx, conn, stmt)
		if err != nil {
			return nil, fmt.Errorf("query %q statement %d: %w", name, i+1, err)
		}

		records = append(records, rows...)
	}

	return records, nil
}

// Close closes the database.
func (s *SQLSource) Close() error {
	return s.db.Close()
}

// SplitStatements splits SQL text on ';' and drops empty statements. Semicolons
// inside string literals are not supported.
func SplitStatements(text string) []string {
	var out []string

	for _, part := range strings.Split(text, ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			out = append(out, stmt)
		}
	}

	return out
}

func queryRows(ctx context.Context, conn *sql.Conn, stmt string) ([]models.RawRecord, error) {
	rows, err := conn.QueryContext(ctx, stmt)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	var records []models.RawRecord

	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))

		for i := range values {
			ptrs[i] = &values[i]
		}

		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		rec := make(models.RawRecord, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				rec[col] = string(b)

				continue
			}

			rec[col] = values[i]
		}

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return records, nil
}
