package macaron

import (
	"context"
	"database/sql"
)

// Dialector database dialector
type Dialector interface {
	Name() string
	Initialize(*DB) error
	Explain(sql string, vars ...interface{}) string
}

// ErrorTranslator is implemented by dialectors that map driver errors to macaron errors
type ErrorTranslator interface {
	Translate(err error) error
}

// ConnPool db conns pool interface
type ConnPool interface {
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

type TxCommitter interface {
	Commit() error
	Rollback() error
}

// rows is the part of *sql.Rows the row factory reads
type rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Columns() ([]string, error)
	Err() error
	Close() error
}
