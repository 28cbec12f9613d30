package store

import (
	"context"
	"database/sql"
)

// DBTX is the subset of database/sql behavior the stores need. Both *sql.DB
// and *sql.Tx satisfy it, so a store can run inside or outside a
// transaction without caring which it was given.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
