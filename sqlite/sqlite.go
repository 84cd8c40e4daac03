package sqlite

import (
	"database/sql"
	"fmt"
	"regexp"
	"sync"
	"sync/atomic"

	"github.com/mattn/go-sqlite3"

	"github.com/macaronorm/macaron"
	"github.com/macaronorm/macaron/errtranslator"
	"github.com/macaronorm/macaron/logger"
)

// DriverName the name this package registers the plain driver under
const DriverName = "macaron_sqlite3"

// RegexpFunc implements the REGEXP operator, a match anywhere in value counts
type RegexpFunc func(pattern, value string) (bool, error)

type Config struct {
	DSN string
	// DriverName an already registered driver, a driver with the REGEXP
	// function and foreign keys enabled is registered when empty
	DriverName string
	// Regexp replaces the default REGEXP implementation
	Regexp RegexpFunc
	// DisableForeignKeys leaves PRAGMA foreign_keys off
	DisableForeignKeys bool
	// Conn an opened connection pool, DSN is ignored when set
	Conn macaron.ConnPool
}

type Dialector struct {
	*Config
}

func Open(dsn string) macaron.Dialector {
	return &Dialector{Config: &Config{DSN: dsn}}
}

func New(config Config) macaron.Dialector {
	return &Dialector{Config: &config}
}

func (dialector Dialector) Name() string {
	return "sqlite"
}

var driverSerial atomic.Uint64

func (dialector Dialector) Initialize(db *macaron.DB) error {
	if dialector.Conn != nil {
		db.ConnPool = dialector.Conn
		return nil
	}

	name := dialector.DriverName
	if name == "" {
		// a driver per dialector, the connect hook carries its options
		name = fmt.Sprintf("%s_%d", DriverName, driverSerial.Add(1))
		sql.Register(name, &sqlite3.SQLiteDriver{ConnectHook: dialector.connect})
	}

	sqlDB, err := sql.Open(name, dialector.DSN)
	if err != nil {
		return err
	}
	// a :memory: database lives in its single connection
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	db.ConnPool = sqlDB
	return nil
}

func (dialector Dialector) connect(conn *sqlite3.SQLiteConn) error {
	match := dialector.Regexp
	if match == nil {
		match = defaultRegexp
	}
	err := conn.RegisterFunc("regexp", func(pattern, value interface{}) (bool, error) {
		if isNull(pattern) || isNull(value) {
			return false, nil
		}
		return match(text(pattern), text(value))
	}, true)
	if err != nil {
		return err
	}

	if dialector.DisableForeignKeys {
		return nil
	}
	_, err = conn.Exec("PRAGMA foreign_keys = ON", nil)
	return err
}

// isNull reports a SQL NULL argument, the driver hands those over as a nil []byte
func isNull(v interface{}) bool {
	if b, ok := v.([]byte); ok {
		return b == nil
	}
	return v == nil
}

func text(v interface{}) string {
	switch v := v.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	}
	return fmt.Sprint(v)
}

var patterns sync.Map

func defaultRegexp(pattern, value string) (bool, error) {
	re, ok := patterns.Load(pattern)
	if !ok {
		compiled, err := regexp.Compile(pattern)
		if err != nil {
			return false, err
		}
		re, _ = patterns.LoadOrStore(pattern, compiled)
	}
	return re.(*regexp.Regexp).MatchString(value), nil
}

func (dialector Dialector) Explain(sql string, vars ...interface{}) string {
	return logger.ExplainSQL(sql, vars...)
}

// Translate maps constraint failures to macaron.ErrIntegrityViolation
func (dialector Dialector) Translate(err error) error {
	translated := (&errtranslator.SqliteErrTranslator{}).Translate(err)
	if ce, ok := translated.(*errtranslator.ConstraintError); ok {
		return fmt.Errorf("%w: %w", macaron.ErrIntegrityViolation, ce)
	}
	return err
}
