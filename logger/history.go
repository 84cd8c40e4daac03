package logger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

var (
	// ErrHistoryDisabled is returned when reading entries from a disabled History
	ErrHistoryDisabled = errors.New("sql history is disabled")
	// ErrHistoryIndex is returned for an index beyond the recorded entries
	ErrHistoryIndex = errors.New("sql history index out of range")
)

// Recorder receives every statement before it is executed
type Recorder interface {
	Record(sql string, vars []interface{})
}

// Statement is one recorded execution
type Statement struct {
	SQL  string
	Vars []interface{}
}

func (s Statement) String() string {
	return fmt.Sprintf("%s\nparams: %v", s.SQL, s.Vars)
}

type historyStore struct {
	mu       sync.RWMutex
	max      int
	list     []Statement
	lastSQL  string
	lastVars []interface{}
}

// History keeps the SQL audit trail, latest statement first, and forwards
// log calls to the wrapped Interface.
//
// max 0 keeps every statement, a negative max disables the list; LastSQL and
// LastVars are tracked either way.
type History struct {
	Interface
	store *historyStore
}

// NewHistory wraps inner, which may be nil to record without logging
func NewHistory(inner Interface, max int) *History {
	if inner == nil {
		inner = Discard
	}
	return &History{Interface: inner, store: &historyStore{max: max}}
}

// LogMode changes the level of the wrapped logger, the recorded list is shared
func (h *History) LogMode(level LogLevel) Interface {
	return &History{Interface: h.Interface.LogMode(level), store: h.store}
}

// ParamsFilter defers to the wrapped logger when it filters params
func (h *History) ParamsFilter(ctx context.Context, sql string, params ...interface{}) (string, []interface{}) {
	if pf, ok := h.Interface.(ParamsFilter); ok {
		return pf.ParamsFilter(ctx, sql, params...)
	}
	return sql, params
}

// Record adds a statement at the head of the list
func (h *History) Record(sql string, vars []interface{}) {
	s := h.store
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastSQL, s.lastVars = sql, vars
	if s.max < 0 {
		return
	}
	if s.max > 0 && len(s.list) >= s.max {
		s.list = s.list[:s.max-1]
	}
	s.list = append([]Statement{{SQL: sql, Vars: vars}}, s.list...)
}

// SetMax changes the bound, dropping the oldest statements beyond it
func (h *History) SetMax(max int) {
	s := h.store
	s.mu.Lock()
	defer s.mu.Unlock()

	s.max = max
	if max > 0 && len(s.list) > max {
		s.list = s.list[:max]
	}
}

// Max returns the current bound
func (h *History) Max() int {
	h.store.mu.RLock()
	defer h.store.mu.RUnlock()
	return h.store.max
}

// Count returns the number of recorded statements
func (h *History) Count() int {
	h.store.mu.RLock()
	defer h.store.mu.RUnlock()
	return len(h.store.list)
}

// At returns the idx-th latest statement, 0 being the latest
func (h *History) At(idx int) (Statement, error) {
	s := h.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.max < 0 {
		return Statement{}, ErrHistoryDisabled
	}
	if idx < 0 || idx >= len(s.list) {
		return Statement{}, fmt.Errorf("%w: %d of %d", ErrHistoryIndex, idx, len(s.list))
	}
	return s.list[idx], nil
}

// LastSQL returns the last recorded statement text
func (h *History) LastSQL() string {
	h.store.mu.RLock()
	defer h.store.mu.RUnlock()
	return h.store.lastSQL
}

// LastVars returns the vars bound to LastSQL
func (h *History) LastVars() []interface{} {
	h.store.mu.RLock()
	defer h.store.mu.RUnlock()
	return h.store.lastVars
}

// String lists the recorded statements, latest first
func (h *History) String() string {
	h.store.mu.RLock()
	defer h.store.mu.RUnlock()

	lines := make([]string, len(h.store.list))
	for i, s := range h.store.list {
		lines[i] = s.String()
	}
	return strings.Join(lines, "\n")
}
