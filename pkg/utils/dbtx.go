package utils

import (
	"context"
	"database/sql"
)

// DBTX abstracts over *sql.DB and *sql.Tx so repositories can run both
// standalone and inside WithTx without duplicate constructors.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
