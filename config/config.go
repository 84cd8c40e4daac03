// Package config loads macaron settings from a TOML file and builds the
// database handle they describe.
package config

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/macaronorm/macaron"
	"github.com/macaronorm/macaron/logger"
	"github.com/macaronorm/macaron/schema"
	"github.com/macaronorm/macaron/sqlite"
)

// Log formats accepted by log_format
const (
	FormatText    = "text"
	FormatZap     = "zap"
	FormatZerolog = "zerolog"
	FormatLogrus  = "logrus"
	FormatSlog    = "slog"
)

// File settings of a macaron.toml file
//
//	dsn = "band.db"
//	log_level = "info"
//	log_format = "zerolog"
//	slow_threshold = "200ms"
//	history = 100
type File struct {
	DSN           string        `toml:"dsn"`
	LogLevel      string        `toml:"log_level"`
	LogFormat     string        `toml:"log_format"`
	SlowThreshold time.Duration `toml:"slow_threshold"`
	Colorful      bool          `toml:"colorful"`
	// LogFile sends log output to a rotated file instead of the caller's writer
	LogFile string `toml:"log_file"`
	// LogMaxSize megabytes before LogFile is rotated
	LogMaxSize    int `toml:"log_max_size"`
	LogMaxBackups int `toml:"log_max_backups"`
	// History max statements kept by the SQL history, unset leaves it off,
	// 0 keeps every statement
	History     *int  `toml:"history"`
	PrepareStmt bool  `toml:"prepare_stmt"`
	ForeignKeys *bool `toml:"foreign_keys"`
	AutoCommit  bool  `toml:"auto_commit"`
	SnakeCase   bool  `toml:"snake_case"`
	PluralTable bool  `toml:"plural_table"`
}

// Default settings used for keys a file leaves out
func Default() *File {
	return &File{
		DSN:           ":memory:",
		LogLevel:      "warn",
		LogFormat:     FormatText,
		SlowThreshold: 200 * time.Millisecond,
	}
}

// Load decodes TOML settings from r on top of Default
func Load(r io.Reader) (*File, error) {
	f := Default()
	meta, err := toml.NewDecoder(r).Decode(f)
	if err != nil {
		return nil, fmt.Errorf("config: decode error: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config: unknown key %q", undecoded[0].String())
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// LoadFile decodes the TOML settings at path
func LoadFile(path string) (*File, error) {
	r, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open file %q: %w", path, err)
	}
	defer r.Close()
	return Load(r)
}

func (f *File) validate() error {
	if _, err := logger.ParseLevel(f.LogLevel); err != nil {
		return fmt.Errorf("config: log_level: %w", err)
	}
	switch f.LogFormat {
	case FormatText, FormatZap, FormatZerolog, FormatLogrus, FormatSlog:
	default:
		return fmt.Errorf("config: unknown log_format %q", f.LogFormat)
	}
	if f.SlowThreshold < 0 {
		return fmt.Errorf("config: negative slow_threshold %s", f.SlowThreshold)
	}
	if f.LogMaxSize < 0 || f.LogMaxBackups < 0 {
		return fmt.Errorf("config: negative log rotation limit")
	}
	return nil
}

// LogWriter the rotated log_file when one is set, w otherwise
func (f *File) LogWriter(w io.Writer) io.Writer {
	if f.LogFile == "" {
		return w
	}
	return &lumberjack.Logger{
		Filename:   f.LogFile,
		MaxSize:    f.LogMaxSize,
		MaxBackups: f.LogMaxBackups,
	}
}

// Logger builds the logger selected by log_format writing to LogWriter(w),
// wrapped in a logger.History when history is set
func (f *File) Logger(w io.Writer) (logger.Interface, error) {
	w = f.LogWriter(w)
	level, err := logger.ParseLevel(f.LogLevel)
	if err != nil {
		return nil, err
	}
	cfg := logger.Config{
		SlowThreshold: f.SlowThreshold,
		Colorful:      f.Colorful,
		LogLevel:      level,
	}

	var l logger.Interface
	switch f.LogFormat {
	case FormatZap:
		encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		l = logger.NewZapLogger(zap.New(zapcore.NewCore(encoder, zapcore.AddSync(w), logger.ZapLevel(level))), cfg)
	case FormatZerolog:
		l = logger.NewZerologConsole(w, cfg)
	case FormatLogrus:
		lr := logrus.New()
		lr.SetOutput(w)
		lr.SetLevel(logger.LogrusLevel(level))
		l = logger.NewLogrusLogger(lr, cfg)
	case FormatSlog:
		l = logger.NewSlogLogger(slog.New(slog.NewTextHandler(w, nil)), cfg)
	default:
		l = logger.New(log.New(w, "\r\n", log.LstdFlags), cfg)
	}

	if f.History != nil {
		return logger.NewHistory(l, *f.History), nil
	}
	return l, nil
}

// Dialector the sqlite dialector for dsn
func (f *File) Dialector() macaron.Dialector {
	return sqlite.New(sqlite.Config{
		DSN:                f.DSN,
		DisableForeignKeys: f.ForeignKeys != nil && !*f.ForeignKeys,
	})
}

// Config the macaron.Config the settings describe, logging to w
func (f *File) Config(w io.Writer) (*macaron.Config, error) {
	l, err := f.Logger(w)
	if err != nil {
		return nil, err
	}
	return &macaron.Config{
		NamingStrategy: schema.NamingStrategy{SnakeCase: f.SnakeCase, PluralTable: f.PluralTable},
		Logger:         l,
		PrepareStmt:    f.PrepareStmt,
		AutoCommit:     f.AutoCommit,
	}, nil
}

// Open opens the database, registers defs and resolves them
func (f *File) Open(w io.Writer, defs ...schema.Definition) (*macaron.DB, error) {
	cfg, err := f.Config(w)
	if err != nil {
		return nil, err
	}
	db, err := macaron.Open(f.Dialector(), cfg)
	if err != nil {
		return nil, err
	}
	if err := db.Register(defs...); err != nil {
		db.Close()
		return nil, err
	}
	if err := db.Registry.Resolve(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
