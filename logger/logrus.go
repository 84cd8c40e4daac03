package logger

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/macaronorm/macaron/utils"
)

// LogrusLogger implements Interface using logrus
type LogrusLogger struct {
	structured
	Logger *logrus.Logger
}

// NewLogrusLogger creates a new logger using logrus
func NewLogrusLogger(logger *logrus.Logger, config Config) Interface {
	return &LogrusLogger{structured: newStructured(config), Logger: logger}
}

func (l *LogrusLogger) LogMode(level LogLevel) Interface {
	newLogger := *l
	newLogger.LogLevel = level
	return &newLogger
}

func (l *LogrusLogger) entry(ctx context.Context, data []interface{}) *logrus.Entry {
	if ctx == nil {
		ctx = context.Background()
	}
	return l.Logger.WithContext(ctx).WithFields(logrus.Fields{
		"file": utils.FileWithLineNum(),
		"data": data,
	})
}

func (l *LogrusLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= Info {
		l.entry(ctx, data).Info(msg)
	}
}

func (l *LogrusLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= Warn {
		l.entry(ctx, data).Warn(msg)
	}
}

func (l *LogrusLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= Error {
		l.entry(ctx, data).Error(msg)
	}
}

func (l *LogrusLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	kind, elapsed := l.classify(begin, err)
	if kind == traceSkip {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	sql, rows := fc()
	fields := logrus.Fields{
		"file":     utils.FileWithLineNum(),
		"duration": millis(elapsed),
		"sql":      sql,
	}
	if rows != -1 {
		fields["rows"] = rows
	}

	switch kind {
	case traceFailed:
		fields["error"] = err.Error()
		l.Logger.WithContext(ctx).WithFields(fields).Error("SQL executed")
	case traceSlow:
		fields["slow_threshold"] = l.SlowThreshold.String()
		l.Logger.WithContext(ctx).WithFields(fields).Warn("SLOW SQL executed")
	default:
		l.Logger.WithContext(ctx).WithFields(fields).Info("SQL executed")
	}
}

func (l *LogrusLogger) ParamsFilter(ctx context.Context, sql string, params ...interface{}) (string, []interface{}) {
	if l.Parameterized {
		return sql, nil
	}
	return sql, params
}

// LogrusLevel converts LogLevel to logrus.Level
func LogrusLevel(level LogLevel) logrus.Level {
	switch level {
	case Silent:
		return logrus.PanicLevel
	case Error:
		return logrus.ErrorLevel
	case Warn:
		return logrus.WarnLevel
	default:
		return logrus.InfoLevel
	}
}
