package logger

import (
	"context"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/macaronorm/macaron/utils"
)

// ZerologLogger implements Interface using zerolog
type ZerologLogger struct {
	structured
	Logger zerolog.Logger
}

// NewZerologLogger creates a new logger using zerolog
func NewZerologLogger(logger zerolog.Logger, config Config) Interface {
	return &ZerologLogger{structured: newStructured(config), Logger: logger}
}

// NewZerologConsole writes human readable zerolog output to w
func NewZerologConsole(w io.Writer, config Config) Interface {
	console := zerolog.NewConsoleWriter(func(cw *zerolog.ConsoleWriter) {
		cw.Out = w
		cw.TimeFormat = time.RFC3339
		cw.NoColor = !config.Colorful
	})
	logger := zerolog.New(console).Level(ZerologLevel(config.LogLevel)).With().Timestamp().Logger()
	return NewZerologLogger(logger, config)
}

func (l *ZerologLogger) LogMode(level LogLevel) Interface {
	newLogger := *l
	newLogger.LogLevel = level
	return &newLogger
}

func (l *ZerologLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= Info {
		l.emit(ctx, l.Logger.Info(), msg, data)
	}
}

func (l *ZerologLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= Warn {
		l.emit(ctx, l.Logger.Warn(), msg, data)
	}
}

func (l *ZerologLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= Error {
		l.emit(ctx, l.Logger.Error(), msg, data)
	}
}

func (l *ZerologLogger) emit(ctx context.Context, event *zerolog.Event, msg string, data []interface{}) {
	event = event.Str("file", utils.FileWithLineNum()).Interface("data", data)
	if ctx != nil {
		event = event.Ctx(ctx)
	}
	event.Msg(msg)
}

func (l *ZerologLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	kind, elapsed := l.classify(begin, err)
	var event *zerolog.Event
	switch kind {
	case traceSkip:
		return
	case traceFailed:
		event = l.Logger.Error().Err(err)
	case traceSlow:
		event = l.Logger.Warn().Str("slow_threshold", l.SlowThreshold.String())
	default:
		event = l.Logger.Info()
	}

	sql, rows := fc()
	event = event.
		Str("file", utils.FileWithLineNum()).
		Str("duration", millis(elapsed)).
		Str("sql", sql)
	if rows != -1 {
		event = event.Int64("rows", rows)
	}
	if ctx != nil {
		event = event.Ctx(ctx)
	}
	event.Msg("SQL executed")
}

func (l *ZerologLogger) ParamsFilter(ctx context.Context, sql string, params ...interface{}) (string, []interface{}) {
	if l.Parameterized {
		return sql, nil
	}
	return sql, params
}

// ZerologLevel converts LogLevel to zerolog.Level
func ZerologLevel(level LogLevel) zerolog.Level {
	switch level {
	case Silent:
		return zerolog.Disabled
	case Error:
		return zerolog.ErrorLevel
	case Warn:
		return zerolog.WarnLevel
	default:
		return zerolog.InfoLevel
	}
}
