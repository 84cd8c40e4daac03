package logger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(config Config) (Interface, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return New(log.New(buf, "", 0), config), buf
}

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{"silent": Silent, "error": Error, "": Error, "warn": Warn, "warning": Warn, "info": Info}
	for name, want := range cases {
		got, err := ParseLevel(name)
		require.NoError(t, err)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseLevel("debug")
	assert.Error(t, err)
}

func TestLoggerTrace(t *testing.T) {
	ctx := context.Background()
	query := func() (string, int64) { return `SELECT * FROM "member"`, 3 }

	t.Run("info", func(t *testing.T) {
		l, buf := newBufferLogger(Config{LogLevel: Info})
		l.Trace(ctx, time.Now(), query, nil)
		assert.Contains(t, buf.String(), `SELECT * FROM "member"`)
		assert.Contains(t, buf.String(), "[rows:3]")
	})

	t.Run("warn skips plain statements", func(t *testing.T) {
		l, buf := newBufferLogger(Config{LogLevel: Warn})
		l.Trace(ctx, time.Now(), query, nil)
		assert.Empty(t, buf.String())
	})

	t.Run("slow", func(t *testing.T) {
		l, buf := newBufferLogger(Config{LogLevel: Warn, SlowThreshold: 10 * time.Millisecond})
		l.Trace(ctx, time.Now().Add(-time.Second), query, nil)
		assert.Contains(t, buf.String(), "SLOW SQL >= 10ms")
	})

	t.Run("error", func(t *testing.T) {
		l, buf := newBufferLogger(Config{LogLevel: Error})
		l.Trace(ctx, time.Now(), func() (string, int64) { return "SELECT 1", -1 }, errors.New("boom"))
		assert.Contains(t, buf.String(), "boom")
		assert.Contains(t, buf.String(), "[rows:-]")
	})

	t.Run("ignored not found", func(t *testing.T) {
		l, buf := newBufferLogger(Config{LogLevel: Error, IgnoreRecordNotFoundError: true})
		l.Trace(ctx, time.Now(), query, fmt.Errorf("member: %w", ErrObjectNotFound))
		assert.Empty(t, buf.String())
	})

	t.Run("silent never evaluates", func(t *testing.T) {
		l, _ := newBufferLogger(Config{LogLevel: Silent})
		l.Trace(ctx, time.Now(), func() (string, int64) {
			t.Fatal("statement should not be rendered")
			return "", 0
		}, errors.New("boom"))
	})
}

func TestLoggerLogMode(t *testing.T) {
	l, buf := newBufferLogger(Config{LogLevel: Silent})
	l.Info(context.Background(), "hidden")
	assert.Empty(t, buf.String())

	l.LogMode(Info).Info(context.Background(), "shown %d", 1)
	assert.Contains(t, buf.String(), "shown 1")
}

func TestLoggerParamsFilter(t *testing.T) {
	l := New(log.New(&bytes.Buffer{}, "", 0), Config{ParameterizedQueries: true})
	sql, params := l.(ParamsFilter).ParamsFilter(context.Background(), "SELECT ?", 1)
	assert.Equal(t, "SELECT ?", sql)
	assert.Nil(t, params)
}
