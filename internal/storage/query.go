package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/bilemo/catalog-server/internal/pagination"
)

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// selectQuery is a pagination.Query over a squirrel select. Column names
// reaching OrderBy come from the allow-lists in store.go.
type selectQuery[T any] struct {
	db   *sql.DB
	sb   sq.SelectBuilder
	scan func(rowScanner) (T, error)
}

func newSelectQuery[T any](db *sql.DB, sb sq.SelectBuilder, scan func(rowScanner) (T, error)) *selectQuery[T] {
	return &selectQuery[T]{db: db, sb: sb, scan: scan}
}

// OrderBy sorts by column then by id so that pages are stable.
func (q *selectQuery[T]) OrderBy(column string, dir pagination.Direction) {
	if dir != pagination.Desc {
		dir = pagination.Asc
	}
	q.sb = q.sb.OrderBy(column + " " + string(dir))
	if column != "id" {
		q.sb = q.sb.OrderBy("id ASC")
	}
}

// Window limits the result to limit rows after offset.
func (q *selectQuery[T]) Window(offset, limit uint64) {
	q.sb = q.sb.Limit(limit).Offset(offset)
}

// All runs the query.
func (q *selectQuery[T]) All(ctx context.Context) ([]T, error) {
	query, args, err := q.sb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	items := []T{}
	for rows.Next() {
		item, err := q.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return items, nil
}
