package stmtcache

import (
	"context"
	"database/sql"
	"sync"

	"github.com/macaronorm/macaron/internal/lru"
)

// Preparer prepares statements, *sql.DB, *sql.Tx and *sql.Conn all qualify
type Preparer interface {
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// Cache prepared statements keyed by SQL text, least recently used evicted first.
// Evicted statements are closed.
type Cache struct {
	mu    sync.Mutex
	stmts *lru.LRU[string, *sql.Stmt]
	// first close error since the last Reset
	closeErr error
}

// New creates a cache holding at most size statements, 0 means unlimited
func New(size int) *Cache {
	c := &Cache{}
	c.stmts = lru.NewLRU[string, *sql.Stmt](size, c.close, 0)
	return c
}

func (c *Cache) close(_ string, stmt *sql.Stmt) {
	if err := stmt.Close(); err != nil && c.closeErr == nil {
		c.closeErr = err
	}
}

// Prepare returns the cached statement for query, preparing it on p when missing
func (c *Cache) Prepare(ctx context.Context, p Preparer, query string) (*sql.Stmt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if stmt, ok := c.stmts.Get(query); ok {
		return stmt, nil
	}

	stmt, err := p.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	c.stmts.Add(query, stmt)
	return stmt, nil
}

// Keys cached queries from oldest to newest
func (c *Cache) Keys() []string {
	return c.stmts.Keys()
}

// Len number of cached statements
func (c *Cache) Len() int {
	return c.stmts.Len()
}

// Reset closes and forgets every statement, the first close error is returned
func (c *Cache) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stmts.Purge()
	err := c.closeErr
	c.closeErr = nil
	return err
}
