package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/multierr"
	_ "modernc.org/sqlite"
)

// connPragmas apply to every connection: busy timeout, synchronous NORMAL,
// foreign keys and a 64MB cache. WAL is added only for file databases.
const connPragmas = "_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_pragma=cache_size(-64000)"

// maxReaders bounds the reader pool.
const maxReaders = 4

// DB holds the credential store's connections. Writes go through a single
// writer connection so SQLite never reports "database is locked"; reads use a
// small pool.
type DB struct {
	Writer *sql.DB
	Reader *sql.DB
	path   string
}

// NewDB opens the database file at dbPath in WAL mode.
func NewDB(ctx context.Context, dbPath string) (*DB, error) {
	db, err := open(ctx, fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&%s", dbPath, connPragmas))
	if err != nil {
		return nil, err
	}
	db.path = dbPath
	return db, nil
}

func open(ctx context.Context, dsn string) (*DB, error) {
	writer, err := openPool(ctx, dsn, 1)
	if err != nil {
		return nil, fmt.Errorf("writer: %w", err)
	}

	reader, err := openPool(ctx, dsn, maxReaders)
	if err != nil {
		_ = writer.Close()
		return nil, fmt.Errorf("reader: %w", err)
	}

	return &DB{Writer: writer, Reader: reader}, nil
}

func openPool(ctx context.Context, dsn string, maxConns int) (*sql.DB, error) {
	pool, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	pool.SetMaxOpenConns(maxConns)

	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}

// Ping verifies both connections are usable.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.Writer.PingContext(ctx); err != nil {
		return fmt.Errorf("ping writer: %w", err)
	}
	if err := db.Reader.PingContext(ctx); err != nil {
		return fmt.Errorf("ping reader: %w", err)
	}
	return nil
}

// Close closes both reader and writer connections and returns every error encountered.
func (db *DB) Close() error {
	var errs error

	if err := db.Reader.Close(); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("close reader: %w", err))
	}

	if err := db.Writer.Close(); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("close writer: %w", err))
	}

	return errs
}
