package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver
)

// Session is one run's connection to the relational store. Sessions are not
// shared across runs; each run opens (or receives) its own.
type Session struct {
	db    *sql.DB
	table string
}

// Open opens a session on the SQLite database at path. Use ":memory:" for an
// ephemeral store.
func Open(path string) (*Session, error) {
	if path == "" {
		return nil, fmt.Errorf("store path cannot be empty")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	// SQLite only supports a single writer; a single connection also keeps
	// :memory: databases stable across statements.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	return &Session{db: db, table: TableName}, nil
}

// OpenMemory opens an ephemeral in-memory session, used by tests and by
// one-shot runs that ingest and analyze without persisting the store.
func OpenMemory() (*Session, error) {
	return Open(":memory:")
}

// Close releases the underlying database handle.
func (s *Session) Close() error {
	return s.db.Close()
}

// Schema inspects the ingested table and returns its relation description.
func (s *Session) Schema(ctx context.Context) (Schema, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s);", QuoteIdent(s.table)))
	if err != nil {
		return Schema{}, fmt.Errorf("failed to inspect table %q: %w", s.table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var (
			cid       int
			name      string
			colType   sql.NullString
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return Schema{}, fmt.Errorf("failed to scan column info: %w", err)
		}
		columns = append(columns, name)
	}
	if err := rows.Err(); err != nil {
		return Schema{}, err
	}
	if len(columns) == 0 {
		return Schema{}, fmt.Errorf("table %q has no columns; was a dataset ingested?", s.table)
	}

	return Schema{Table: s.table, Columns: columns}, nil
}

// Query executes policy-generated query text and returns the result column
// names plus all rows rendered as strings. NULLs render as empty strings.
// The context deadline, if any, bounds execution.
func (s *Session) Query(ctx context.Context, queryText string) ([]string, [][]string, error) {
	rows, err := s.db.QueryContext(ctx, queryText)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	var out [][]string
	for rows.Next() {
		raw := make([]sql.NullString, len(columns))
		dest := make([]any, len(columns))
		for i := range raw {
			dest[i] = &raw[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, nil, err
		}
		record := make([]string, len(columns))
		for i, v := range raw {
			if v.Valid {
				record[i] = v.String
			}
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	return columns, out, nil
}

// Exec runs a statement that returns no rows. It exists for ingestion and
// tests; analysis runs never mutate the store.
func (s *Session) Exec(ctx context.Context, stmt string, args ...any) error {
	_, err := s.db.ExecContext(ctx, stmt, args...)
	return err
}

// QuoteIdent quotes a SQLite identifier, doubling embedded quotes.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
