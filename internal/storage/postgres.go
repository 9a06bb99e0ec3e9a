package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/bilemo/catalog-server/internal/fault"
)

// SQLSTATE unique_violation
const uniqueViolation = "23505"

// PoolConfig tunes the connection pool. Zero values keep database/sql defaults.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// PostgresStore implements Store interface for PostgreSQL
type PostgresStore struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

// NewPostgresStore creates a new PostgreSQL store
func NewPostgresStore(ctx context.Context, dsn string, pool PoolConfig) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if pool.MaxOpenConns > 0 {
		db.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		db.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return NewPostgresStoreFromDB(db), nil
}

// NewPostgresStoreFromDB wraps an open database handle
func NewPostgresStoreFromDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Ping checks the database connection
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// getOne maps a single row lookup error
func getOne(err error, what string, key interface{}) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fault.NotFound("%s %v not found", what, key)
	}
	return fmt.Errorf("get %s %v: %w", what, key, err)
}

// writeErr maps a write error, turning unique violations into conflicts
func writeErr(err error, op string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fault.Conflict(err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// affectedOne turns a zero row count into a not found error
func affectedOne(res sql.Result, what string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fault.NotFound("%s %d not found", what, id)
	}
	return nil
}
