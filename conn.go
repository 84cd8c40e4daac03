package macaron

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/macaronorm/macaron/logger"
)

// conn returns the running transaction, beginning it when needed
func (db *DB) conn() (ConnPool, error) {
	c := db.core
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, fmt.Errorf("%w: database is closed", ErrInvalidDB)
	}
	if c.tx != nil {
		return c.tx, nil
	}

	beginner, ok := db.ConnPool.(TxBeginner)
	if !ok {
		return db.ConnPool, nil
	}
	// the transaction outlives the context of the statement that begins it
	tx, err := beginner.BeginTx(context.WithoutCancel(db.ctx), nil)
	if err != nil {
		return nil, err
	}
	c.tx = tx
	return tx, nil
}

func (db *DB) prepared(pool ConnPool, query string) (*sql.Stmt, error) {
	if db.core.stmts == nil {
		return nil, nil
	}
	return db.core.stmts.Prepare(db.ctx, pool, query)
}

// Exec runs a statement that returns no rows
func (db *DB) Exec(query string, vars ...interface{}) (sql.Result, error) {
	begin := time.Now()
	if db.DryRun {
		db.trace(begin, query, vars, 0, nil)
		return driver.RowsAffected(0), nil
	}

	var result sql.Result
	pool, err := db.conn()
	if err == nil {
		var stmt *sql.Stmt
		if stmt, err = db.prepared(pool, query); err == nil {
			if stmt != nil {
				result, err = stmt.ExecContext(db.ctx, vars...)
			} else {
				result, err = pool.ExecContext(db.ctx, query, vars...)
			}
		}
	}

	err = db.translate(err)
	var affected int64 = -1
	if err == nil {
		if n, rerr := result.RowsAffected(); rerr == nil {
			affected = n
		}
	}
	db.trace(begin, query, vars, affected, err)
	return result, err
}

// query opens a cursor that Bake and Rollback close when it is still open
func (db *DB) query(query string, vars ...interface{}) (*cursor, error) {
	begin := time.Now()
	if db.DryRun {
		db.trace(begin, query, vars, -1, nil)
		return &cursor{rows: noRows{}}, nil
	}

	var rs *sql.Rows
	pool, err := db.conn()
	if err == nil {
		var stmt *sql.Stmt
		if stmt, err = db.prepared(pool, query); err == nil {
			if stmt != nil {
				rs, err = stmt.QueryContext(db.ctx, vars...)
			} else {
				rs, err = pool.QueryContext(db.ctx, query, vars...)
			}
		}
	}

	err = db.translate(err)
	db.trace(begin, query, vars, -1, err)
	if err != nil {
		return nil, err
	}
	return db.core.track(rs), nil
}

func (db *DB) translate(err error) error {
	if err == nil {
		return nil
	}
	if translator, ok := db.Dialector.(ErrorTranslator); ok {
		return translator.Translate(err)
	}
	return err
}

func (db *DB) explain(query string, vars ...interface{}) string {
	if db.Dialector != nil {
		return db.Dialector.Explain(query, vars...)
	}
	return logger.ExplainSQL(query, vars...)
}

func (db *DB) trace(begin time.Time, query string, vars []interface{}, affected int64, err error) {
	if recorder, ok := db.Logger.(logger.Recorder); ok {
		recorder.Record(query, vars)
	}
	db.Logger.Trace(db.ctx, begin, func() (string, int64) {
		if filter, ok := db.Logger.(logger.ParamsFilter); ok {
			filtered, params := filter.ParamsFilter(db.ctx, query, vars...)
			if params == nil {
				return filtered, affected
			}
			return db.explain(filtered, params...), affected
		}
		return db.explain(query, vars...), affected
	}, err)
}

// cursor open result set registered on the DB core
type cursor struct {
	rows
	core *core
	// interrupted is set when Bake or Rollback closed the cursor
	interrupted atomic.Bool
}

func (c *core) track(rs *sql.Rows) *cursor {
	cur := &cursor{rows: rs, core: c}
	c.mu.Lock()
	c.cursors[cur] = struct{}{}
	c.mu.Unlock()
	return cur
}

// closeCursors has to be called with lock
func (c *core) closeCursors() {
	for cur := range c.cursors {
		cur.interrupted.Store(true)
		cur.rows.Close()
		delete(c.cursors, cur)
	}
}

func (cur *cursor) Close() error {
	if cur.core != nil {
		cur.core.mu.Lock()
		delete(cur.core.cursors, cur)
		cur.core.mu.Unlock()
	}
	return cur.rows.Close()
}

// noRows result of a query in dry run mode
type noRows struct{}

func (noRows) Next() bool                 { return false }
func (noRows) Scan(...interface{}) error  { return ErrDryRun }
func (noRows) Columns() ([]string, error) { return nil, nil }
func (noRows) Err() error                 { return nil }
func (noRows) Close() error               { return nil }
