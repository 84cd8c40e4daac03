package logger

import (
	"errors"
	"fmt"
	"time"
)

type traceKind int

const (
	traceSkip traceKind = iota
	traceFailed
	traceSlow
	traceDone
)

// classify picks how a finished statement is reported under the given settings
func classify(level LogLevel, slow time.Duration, ignoreNotFound bool, elapsed time.Duration, err error) traceKind {
	switch {
	case level <= Silent:
		return traceSkip
	case err != nil && level >= Error && (!ignoreNotFound || !errors.Is(err, ErrObjectNotFound)):
		return traceFailed
	case slow != 0 && elapsed > slow && level >= Warn:
		return traceSlow
	case level >= Info:
		return traceDone
	}
	return traceSkip
}

func millis(d time.Duration) string {
	return fmt.Sprintf("%.3fms", float64(d.Nanoseconds())/1e6)
}

// structured holds the settings shared by the adapters for structured loggers
type structured struct {
	LogLevel                  LogLevel
	SlowThreshold             time.Duration
	Parameterized             bool
	IgnoreRecordNotFoundError bool
}

func newStructured(config Config) structured {
	return structured{
		LogLevel:                  config.LogLevel,
		SlowThreshold:             config.SlowThreshold,
		Parameterized:             config.ParameterizedQueries,
		IgnoreRecordNotFoundError: config.IgnoreRecordNotFoundError,
	}
}

func (s structured) classify(begin time.Time, err error) (traceKind, time.Duration) {
	elapsed := time.Since(begin)
	return classify(s.LogLevel, s.SlowThreshold, s.IgnoreRecordNotFoundError, elapsed, err), elapsed
}
