package macaron

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/macaronorm/macaron/internal/stmtcache"
	"github.com/macaronorm/macaron/logger"
	"github.com/macaronorm/macaron/schema"
)

// Config macaron config
type Config struct {
	// NamingStrategy tables, foreign keys and reverse accessors naming strategy
	NamingStrategy schema.Namer
	// Logger, wrap it with logger.NewHistory to keep the executed statements
	Logger logger.Interface
	// NowFunc the function to be used when setting auto create/update fields
	NowFunc func() time.Time
	// DryRun traces statements without sending them to the database
	DryRun bool
	// PrepareStmt caches prepared statements for the running transaction
	PrepareStmt bool
	// PrepareStmtMaxSize bounds the statement cache, 0 means unlimited
	PrepareStmtMaxSize int
	// AutoCommit commits pending changes on Close instead of rolling them back
	AutoCommit bool
	// Registry model registry, a new one is created when nil
	Registry *schema.Registry

	// ConnPool db conn pool
	ConnPool ConnPool
	// Dialector database dialector
	Dialector
}

// DB macaron DB definition. Every statement runs in one lazily begun
// transaction that Bake commits and Rollback discards.
type DB struct {
	*Config
	ctx  context.Context
	core *core
}

type core struct {
	mu      sync.Mutex
	tx      *sql.Tx
	closed  bool
	stmts   *stmtcache.Cache
	cursors map[*cursor]struct{}
	tables  map[string][]ColumnInfo
}

// Open initialize db session based on dialector
func Open(dialector Dialector, config *Config) (*DB, error) {
	if config == nil {
		config = &Config{}
	}

	if config.NamingStrategy == nil {
		config.NamingStrategy = schema.NamingStrategy{}
	}

	if config.Logger == nil {
		config.Logger = logger.Default
	}

	if config.NowFunc == nil {
		config.NowFunc = func() time.Time { return time.Now().Local() }
	}

	if config.Registry == nil {
		config.Registry = schema.NewRegistry(config.NamingStrategy)
	}

	if dialector != nil {
		config.Dialector = dialector
	}

	db := &DB{
		Config: config,
		ctx:    context.Background(),
		core: &core{
			cursors: map[*cursor]struct{}{},
			tables:  map[string][]ColumnInfo{},
		},
	}

	if config.PrepareStmt {
		db.core.stmts = stmtcache.New(config.PrepareStmtMaxSize)
	}

	if config.Dialector != nil {
		if err := config.Dialector.Initialize(db); err != nil {
			return nil, err
		}
	}

	if config.ConnPool == nil {
		return nil, fmt.Errorf("%w: no connection pool", ErrInvalidDB)
	}
	return db, nil
}

// WithContext returns a DB that passes ctx to every statement it runs
func (db *DB) WithContext(ctx context.Context) *DB {
	tx := *db
	tx.ctx = ctx
	return &tx
}

// Context context of the statements run by db
func (db *DB) Context() context.Context {
	return db.ctx
}

// DB returns the underlying *sql.DB
func (db *DB) DB() (*sql.DB, error) {
	if sqldb, ok := db.ConnPool.(*sql.DB); ok {
		return sqldb, nil
	}
	return nil, ErrInvalidDB
}

// Register adds model definitions, they are resolved on first use
func (db *DB) Register(defs ...schema.Definition) error {
	return db.Registry.Register(defs...)
}

// Model handle of a registered model
func (db *DB) Model(name string) *Model {
	s, err := db.Registry.Lookup(name)
	return &Model{Error: err, Schema: s, db: db}
}

// Models handles of every model, generated link models included
func (db *DB) Models() ([]*Model, error) {
	schemas, err := db.Registry.Schemas()
	if err != nil {
		return nil, err
	}
	models := make([]*Model, len(schemas))
	for i, s := range schemas {
		models[i] = &Model{Schema: s, db: db}
	}
	return models, nil
}

// History statement history, nil unless Logger was created by logger.NewHistory
func (db *DB) History() *logger.History {
	h, _ := db.Logger.(*logger.History)
	return h
}

// Bake commits the running transaction. Open query cursors are closed first.
func (db *DB) Bake() error {
	return db.finish(func(tx *sql.Tx) error { return tx.Commit() })
}

// Rollback discards the running transaction. Open query cursors are closed first.
func (db *DB) Rollback() error {
	return db.finish(func(tx *sql.Tx) error { return tx.Rollback() })
}

func (db *DB) finish(end func(*sql.Tx) error) error {
	c := db.core
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closeCursors()
	if c.tx == nil {
		return nil
	}

	err := end(c.tx)
	c.tx = nil
	if c.stmts != nil {
		err = errors.Join(err, c.stmts.Reset())
	}
	return err
}

// Close ends the transaction, committing it when AutoCommit is set, and closes the pool
func (db *DB) Close() error {
	var err error
	if db.AutoCommit {
		err = db.Bake()
	} else {
		err = db.Rollback()
	}

	db.core.mu.Lock()
	db.core.closed = true
	db.core.mu.Unlock()

	if closer, ok := db.ConnPool.(interface{ Close() error }); ok {
		err = errors.Join(err, closer.Close())
	}
	return err
}

// Transaction runs fc and bakes its changes, an error or a panic rolls back instead
func (db *DB) Transaction(fc func(tx *DB) error) (err error) {
	panicked := true
	defer func() {
		// Make sure to rollback when panic, Block error or Commit error
		if panicked || err != nil {
			if rbErr := db.Rollback(); rbErr != nil && !panicked {
				err = errors.Join(err, rbErr)
			}
		}
	}()

	if err = fc(db); err == nil {
		err = db.Bake()
	}

	panicked = false
	return
}
