package db

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
)

// Queryer is the read side of the store. *DB, *sqlx.DB and *sqlx.Tx satisfy it.
type Queryer interface {
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	Rebind(query string) string
}

// QueryMany binds args positionally, runs query and returns every row in store order.
// Queries are written with ? placeholders and rebound for the driver.
func QueryMany[T any](ctx context.Context, q Queryer, query string, args ...any) ([]T, error) {
	rows := []T{}
	if err := q.SelectContext(ctx, &rows, q.Rebind(query), args...); err != nil {
		return nil, err
	}
	return rows, nil
}

// QueryOne returns the single row produced by query, or sql.ErrNoRows.
func QueryOne[T any](ctx context.Context, q Queryer, query string, args ...any) (T, error) {
	var row T
	err := q.GetContext(ctx, &row, q.Rebind(query), args...)
	return row, err
}

// Execute runs a write statement in autocommit mode.
func (d *DB) Execute(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return d.ExecContext(ctx, d.Rebind(query), args...)
}

// ExecuteBuilder renders a squirrel statement and executes it.
func (d *DB) ExecuteBuilder(ctx context.Context, stmt sq.Sqlizer) (sql.Result, error) {
	query, args, err := stmt.ToSql()
	if err != nil {
		return nil, err
	}
	return d.Execute(ctx, query, args...)
}

// Builder returns a squirrel builder producing ? placeholders.
func (d *DB) Builder() sq.StatementBuilderType {
	return d.builder
}
